// Package partition parses one CSV download of an export into an
// Aggregate, streaming the body in fixed-size chunks so the working set
// stays bounded regardless of how many rows the download contains.
package partition

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/carelog/export-summariser/summary"
)

// DefaultChunkSize is the read buffer size used when none is configured.
const DefaultChunkSize = 32 * 1024

// Reader streams partition bodies into Aggregates. It is stateless across
// calls and safe for use from multiple goroutines.
type Reader struct {
	chunkSize int
}

// NewReader returns a Reader that reads bodies in chunks of the given
// size. A non-positive size falls back to DefaultChunkSize.
func NewReader(chunkSize int) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Reader{chunkSize: chunkSize}
}

// Read consumes the whole body and returns the partition's Aggregate.
// Lines split across chunk boundaries are reassembled via a carry-over
// buffer, so memory use is bounded by the chunk size plus the longest
// single line. Malformed rows are skipped and counted on the Aggregate;
// only transport-level read failures abort the partition.
func (r *Reader) Read(ctx context.Context, body io.Reader) (*summary.Aggregate, error) {
	agg := summary.New()
	buf := make([]byte, r.chunkSize)

	var carry []byte
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for {
				i := bytes.IndexByte(chunk, '\n')
				if i < 0 {
					carry = append(carry, chunk...)
					break
				}

				var line string
				if len(carry) > 0 {
					carry = append(carry, chunk[:i]...)
					line = string(carry)
					carry = carry[:0]
				} else {
					line = string(chunk[:i])
				}

				first = consumeLine(agg, line, first)
				chunk = chunk[i+1:]
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk: %w", err)
		}
	}

	// final line may arrive without a trailing newline
	if len(carry) > 0 {
		consumeLine(agg, string(carry), first)
	}

	return agg, nil
}

// consumeLine parses one complete line into the aggregate and returns
// whether the next line is still the first candidate row (i.e. this line
// was blank).
func consumeLine(agg *summary.Aggregate, line string, first bool) bool {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	if line == "" {
		return first
	}

	if first && IsHeader(line) {
		return false
	}

	rec, err := ParseRow(line)
	if err != nil {
		agg.SkippedRows++
		return false
	}

	agg.Inc(rec.PatientID, rec.EventType)
	return false
}
