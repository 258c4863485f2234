package apiclient

// Error wraps an export API failure with the HTTP status code and
// structured log data for the caller to attach when logging.
type Error struct {
	err        error
	statusCode int
	logData    map[string]interface{}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the HTTP status code of the failed response, or 0 when the
// request never produced one.
func (e *Error) Code() int {
	return e.statusCode
}

// LogData satisfies the dataLogger interface used to recover log data
// from wrapped errors.
func (e *Error) LogData() map[string]interface{} {
	return e.logData
}
