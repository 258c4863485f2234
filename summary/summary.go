package summary

// Aggregate accumulates patient event counts. One Aggregate is built per
// partition and folded into the run-level Aggregate once the partition
// completes; a merged-in Aggregate must not be used again.
type Aggregate struct {
	Patients map[string]map[string]uint64
	Totals   map[string]uint64

	// SkippedRows counts malformed rows dropped during parsing. It is
	// diagnostic only and never part of the output report.
	SkippedRows uint64
}

// New returns an empty Aggregate ready for counting.
func New() *Aggregate {
	return &Aggregate{
		Patients: map[string]map[string]uint64{},
		Totals:   map[string]uint64{},
	}
}

// Inc records one event of the given type against the given patient,
// keeping Totals in step with the per-patient counts.
func (a *Aggregate) Inc(patientID, eventType string) {
	counts, ok := a.Patients[patientID]
	if !ok {
		counts = map[string]uint64{}
		a.Patients[patientID] = counts
	}
	counts[eventType]++
	a.Totals[eventType]++
}

// Merge folds b into a. Counts and totals add, so the operation is
// associative and commutative and partition results may be merged in
// whatever order they complete. b is consumed and must not be mutated
// afterwards.
func (a *Aggregate) Merge(b *Aggregate) {
	if b == nil {
		return
	}

	for patientID, counts := range b.Patients {
		existing, ok := a.Patients[patientID]
		if !ok {
			a.Patients[patientID] = counts
			continue
		}
		for eventType, n := range counts {
			existing[eventType] += n
		}
	}

	for eventType, n := range b.Totals {
		a.Totals[eventType] += n
	}

	a.SkippedRows += b.SkippedRows
}
