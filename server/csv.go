package server

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// Header is the first line of every download's CSV body.
const Header = "patient_id,event_time,event_type,value"

const defaultChunkLimit = 32 * 1024

// WriteCSV streams the download's rows to w, flushing roughly every
// chunkLimit bytes so clients can consume the body incrementally. Rows
// are derived from the download's seed, so identical downloads always
// serve identical bytes.
func (d DownloadMeta) WriteCSV(w io.Writer, chunkLimit int) error {
	if chunkLimit <= 0 {
		chunkLimit = defaultChunkLimit
	}

	rng := rand.New(rand.NewSource(d.Seed))

	var buf bytes.Buffer
	buf.WriteString(Header)
	buf.WriteByte('\n')

	curr := d.StartTime
	for i := 0; i < d.Rows; i++ {
		patient := d.Patients[rng.Intn(len(d.Patients))]
		eventType := d.EventTypes[rng.Intn(len(d.EventTypes))]

		// rows are spaced by step with jitter in [0, step)
		ts := curr.Add(time.Duration(rng.Float64() * float64(d.Step)))

		fmt.Fprintf(&buf, "%s,%s,%s,%d\n",
			patient,
			ts.UTC().Format(time.RFC3339),
			eventType,
			eventValue(rng, eventType),
		)

		curr = curr.Add(d.Step)

		if buf.Len() >= chunkLimit {
			if err := writeAndFlush(w, &buf); err != nil {
				return err
			}
		}
	}

	if buf.Len() > 0 {
		return writeAndFlush(w, &buf)
	}
	return nil
}

func writeAndFlush(w io.Writer, buf *bytes.Buffer) error {
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write csv chunk: %w", err)
	}
	buf.Reset()

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// eventValue draws a value from the normal distribution configured for
// the event type, clamped to its physiological bounds.
func eventValue(rng *rand.Rand, eventType string) int {
	switch eventType {
	case EventHeartRate:
		return normalValue(rng, 75, 15, 30, 200)
	case EventSpO2:
		return normalValue(rng, 97, 2, 70, 100)
	case EventBPSys:
		return normalValue(rng, 120, 20, 60, 250)
	case EventBPDia:
		return normalValue(rng, 80, 15, 30, 150)
	default:
		return normalValue(rng, 0, 1, 0, 100)
	}
}

func normalValue(rng *rand.Rand, mean, stddev float64, min, max int) int {
	v := int(rng.NormFloat64()*stddev + mean)
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
