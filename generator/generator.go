package generator

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/hashicorp/go-uuid"
	"github.com/pkg/errors"
)

// Generator is responsible for generating new ids and tokens. Random ones
// can be mocked out to produce consistent output for tests; seeded ones
// are deterministic by construction.
type Generator struct{}

// New returns a new Generator
func New() *Generator {
	return &Generator{}
}

// UniqueID returns a new random UUID
func (g *Generator) UniqueID() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate a UUID")
	}
	return id, nil
}

// SeededID derives a UUID-formatted id from the given seed string. The
// same seed always yields the same id, which keeps the mock export
// registry stable across server restarts.
func (g *Generator) SeededID(seed string) (string, error) {
	sum := sha256.Sum256([]byte(seed))
	id, err := uuid.FormatUUID(sum[:16])
	if err != nil {
		return "", errors.Wrap(err, "failed to format seeded UUID")
	}
	return id, nil
}

// SeededInt64 derives a deterministic int64 from the given seed string,
// suitable for seeding a pseudo-random source.
func (g *Generator) SeededInt64(seed string) int64 {
	sum := sha256.Sum256([]byte(seed))
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}

// Timestamp generates a timestamp of the current time
func (g *Generator) Timestamp() time.Time {
	return time.Now()
}
