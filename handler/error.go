package handler

import (
	"errors"
	"fmt"

	"github.com/carelog/export-summariser/apiclient"
)

// UnwrapLogData recovers the log data attached to the first error in the
// chain that carries any.
func UnwrapLogData(err error) map[string]interface{} {
	var lder dataLogger
	if errors.As(err, &lder) {
		return lder.LogData()
	}
	return nil
}

// Error wraps a handler failure together with structured log data, so
// callers can log the context in which it happened
type Error struct {
	err     error
	logData map[string]interface{}
}

// NewError creates a new Error
func NewError(err error, logData map[string]interface{}) *Error {
	return &Error{
		err:     err,
		logData: logData,
	}
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// LogData implements the dataLogger interface to allow the caller to
// retrieve the log data embedded in the error
func (e *Error) LogData() map[string]interface{} {
	return e.logData
}

// PartitionError records a download that could not be fetched or parsed.
// The failed partition is excluded from the merged aggregate but never
// aborts the run.
type PartitionError struct {
	Download apiclient.Download
	Err      error
}

func (e PartitionError) Error() string {
	return fmt.Sprintf("partition %s failed: %s", e.Download.ID, e.Err)
}

func (e PartitionError) Unwrap() error {
	return e.Err
}
