// Package progress draws terminal progress bars for analysis runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Bar wraps a progress bar for file processing. It is sized lazily from
// the first update, since the total is known only once scanning ends.
type Bar struct {
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	w     io.Writer
	label string
}

// NewBar creates a bar that writes to stderr.
func NewBar(label string) *Bar {
	return NewBarWriter(label, os.Stderr)
}

// NewBarWriter creates a bar that writes to w.
func NewBarWriter(label string, w io.Writer) *Bar {
	return &Bar{w: w, label: label}
}

func (b *Bar) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(b.label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// Update moves the bar to current of total. It matches
// analyzer.ProgressFunc and is safe for concurrent use.
func (b *Bar) Update(current, total int, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil || b.bar.GetMax() != total {
		b.bar = b.newBar(total)
	}
	_ = b.bar.Set(current)
}

// Current returns the last position drawn.
func (b *Bar) Current() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return 0
	}
	return int(b.bar.State().CurrentNum)
}

// FinishSuccess clears the bar completely (no output).
func (b *Bar) FinishSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		_ = b.bar.Finish()
		_ = b.bar.Clear()
	}
}

// FinishError clears the bar and prints an error message.
func (b *Bar) FinishError(err error) {
	b.FinishSuccess()
	fmt.Fprintf(b.w, "  %s error: %v\n", b.label, err)
}
