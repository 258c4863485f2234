package summary

import "encoding/json"

// Report is the output structure for a completed export run. Go's JSON
// encoder writes map keys in sorted order, which keeps the serialised
// output identical across runs on the same input.
type Report struct {
	Patients map[string]map[string]uint64 `json:"patients"`
	Totals   map[string]uint64            `json:"totals"`
}

// Report converts the aggregate into the output structure.
func (a *Aggregate) Report() Report {
	return Report{
		Patients: a.Patients,
		Totals:   a.Totals,
	}
}

// MarshalIndented renders the report as pretty-printed JSON with a
// trailing newline.
func (r Report) MarshalIndented() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
