package progress

import (
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// Tracker counts streamed bytes and optionally draws a progress bar.
// It is an io.Writer so it can sit behind an io.TeeReader.
type Tracker struct {
	bar       *progressbar.ProgressBar
	current   atomic.Int64
	startTime time.Time
}

// New creates a tracker. total may be -1 when the size is unknown; a nil
// out disables the bar and only counts.
func New(total int64, description string, out io.Writer) *Tracker {
	t := &Tracker{startTime: time.Now()}
	if out == nil {
		return t
	}

	t.bar = progressbar.NewOptions64(
		total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { io.WriteString(out, "\n") }),
	)
	return t
}

func (t *Tracker) Write(p []byte) (int, error) {
	n := len(p)
	t.current.Add(int64(n))
	if t.bar != nil {
		t.bar.Add(n)
	}
	return n, nil
}

// Current returns the number of bytes seen so far.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Finish closes the bar and logs throughput.
func (t *Tracker) Finish() {
	if t.bar != nil {
		t.bar.Finish()
	}

	elapsed := time.Since(t.startTime)
	n := t.current.Load()
	rate := uint64(0)
	if s := elapsed.Seconds(); s > 0 {
		rate = uint64(float64(n) / s)
	}

	log.Printf("[transfer] %s in %s (%s/s)",
		humanize.Bytes(uint64(n)), elapsed.Round(time.Millisecond), humanize.Bytes(rate))
}
