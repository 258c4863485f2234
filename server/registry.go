// Package server implements the mock export API: a deterministic registry
// of synthetic exports and the HTTP endpoints that list them and stream
// their CSV downloads.
package server

import (
	"fmt"
	"math/rand"
	"time"
)

// Event types served by the synthetic exports.
const (
	EventHeartRate = "heart_rate"
	EventSpO2      = "spo2"
	EventBPSys     = "bp_sys"
	EventBPDia     = "bp_dia"
)

// ExportSpec describes how a synthetic export is generated.
type ExportSpec struct {
	MinRows     int
	MaxRows     int
	EventTypes  []string
	Downloads   int
	PatientPool []string
	StartTime   time.Time
	Step        time.Duration
}

// DownloadMeta is the registry entry for a single download within an
// export. Its time window never overlaps another download of the same
// export.
type DownloadMeta struct {
	ID         string
	Seed       int64
	Rows       int
	EventTypes []string
	Patients   []string
	StartTime  time.Time
	EndTime    time.Time
	Step       time.Duration
}

// ExportMeta is the registry entry for an export and its downloads.
// DownloadIDs preserves generation order.
type ExportMeta struct {
	ID          string
	DownloadIDs []string
	Downloads   map[string]DownloadMeta
}

// IDGenerator provides the deterministic ids and seeds the registry is
// built from.
type IDGenerator interface {
	SeededID(seed string) (string, error)
	SeededInt64(seed string) int64
}

// DefaultSpecs returns the built-in exports.
func DefaultSpecs() map[string]ExportSpec {
	start := time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC)

	return map[string]ExportSpec{
		"demo": {
			MinRows:     5_000,
			MaxRows:     10_000,
			EventTypes:  []string{EventBPSys, EventBPDia},
			Downloads:   2,
			PatientPool: []string{"P001", "P002", "P003", "P004"},
			StartTime:   start,
			Step:        7 * time.Second,
		},
		"small": {
			MinRows:     500_000,
			MaxRows:     1_000_000,
			EventTypes:  []string{EventHeartRate, EventSpO2},
			Downloads:   10,
			PatientPool: []string{"S001", "S002", "S003", "S004", "S005", "S006"},
			StartTime:   start,
			Step:        3 * time.Second,
		},
		"large": {
			MinRows:     5_000_000,
			MaxRows:     10_000_000,
			EventTypes:  []string{EventHeartRate, EventSpO2, EventBPSys, EventBPDia},
			Downloads:   20,
			PatientPool: largePatientPool(),
			StartTime:   start,
			Step:        300 * time.Millisecond,
		},
	}
}

func largePatientPool() []string {
	pool := make([]string, 20)
	for i := range pool {
		pool[i] = fmt.Sprintf("L%03d", i+1)
	}
	return pool
}

// BuildRegistry expands the given specs into a registry of exports. All
// ids, row counts and patient samples are seeded, so repeated builds
// produce identical registries. Each download gets a sequential
// non-overlapping time window sized by its row count and step.
func BuildRegistry(specs map[string]ExportSpec, g IDGenerator) (map[string]ExportMeta, error) {
	registry := make(map[string]ExportMeta, len(specs))

	for exportID, spec := range specs {
		rng := rand.New(rand.NewSource(g.SeededInt64(exportID)))

		meta := ExportMeta{
			ID:        exportID,
			Downloads: make(map[string]DownloadMeta, spec.Downloads),
		}

		curr := spec.StartTime
		for i := 0; i < spec.Downloads; i++ {
			id, err := g.SeededID(fmt.Sprintf("%s_%d", exportID, i))
			if err != nil {
				return nil, fmt.Errorf("failed to generate download id: %w", err)
			}

			rows := spec.MinRows + rng.Intn(spec.MaxRows-spec.MinRows+1)
			end := curr.Add(time.Duration(rows) * spec.Step)

			meta.Downloads[id] = DownloadMeta{
				ID:         id,
				Seed:       g.SeededInt64(id),
				Rows:       rows,
				EventTypes: append([]string(nil), spec.EventTypes...),
				Patients:   samplePatients(rng, spec.PatientPool),
				StartTime:  curr,
				EndTime:    end,
				Step:       spec.Step,
			}
			meta.DownloadIDs = append(meta.DownloadIDs, id)

			curr = end
		}

		registry[exportID] = meta
	}

	return registry, nil
}

// samplePatients picks a random subset of at least two patients from the
// pool, preserving no particular order.
func samplePatients(rng *rand.Rand, pool []string) []string {
	if len(pool) <= 2 {
		return append([]string(nil), pool...)
	}

	k := 2 + rng.Intn(len(pool)-1)
	perm := rng.Perm(len(pool))

	patients := make([]string, 0, k)
	for _, idx := range perm[:k] {
		patients = append(patients, pool[idx])
	}
	return patients
}
