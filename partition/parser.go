package partition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedRow is returned by ParseRow for lines that cannot be decoded
// into a Record. Malformed rows are skipped and counted, never fatal.
var ErrMalformedRow = errors.New("malformed row")

const numFields = 4

// Record is one decoded patient event row.
type Record struct {
	PatientID string
	EventTime time.Time
	EventType string
	Value     float64
}

// ParseRow decodes a single CSV line of the form
// `patient_id,event_time,event_type,value`.
func ParseRow(line string) (Record, error) {
	fields := strings.Split(line, ",")
	if len(fields) != numFields {
		return Record{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRow, numFields, len(fields))
	}

	patientID := strings.TrimSpace(fields[0])
	if patientID == "" {
		return Record{}, fmt.Errorf("%w: empty patient_id", ErrMalformedRow)
	}

	eventType := strings.TrimSpace(fields[2])
	if eventType == "" {
		return Record{}, fmt.Errorf("%w: empty event_type", ErrMalformedRow)
	}

	eventTime, err := time.Parse(time.RFC3339, strings.TrimSpace(fields[1]))
	if err != nil {
		return Record{}, fmt.Errorf("%w: invalid event_time %q", ErrMalformedRow, fields[1])
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: non-numeric value %q", ErrMalformedRow, fields[3])
	}

	return Record{
		PatientID: patientID,
		EventTime: eventTime,
		EventType: eventType,
		Value:     value,
	}, nil
}

// IsHeader reports whether the line looks like the CSV header, detected by
// a non-numeric value field. Only the first line of a partition is a
// candidate.
func IsHeader(line string) bool {
	fields := strings.Split(line, ",")
	if len(fields) != numFields {
		return false
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(fields[numFields-1]), 64)
	return err != nil
}
