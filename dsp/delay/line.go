package delay

import (
	"fmt"

	"github.com/cwbudde/algo-flanger/dsp/core"
	"github.com/cwbudde/algo-flanger/dsp/interp"
)

// Option configures a Line at construction time.
type Option func(*Line)

// WithMode selects the fractional interpolation kernel. Linear is the default.
func WithMode(mode interp.Mode) Option {
	return func(d *Line) {
		if mode == interp.Linear || mode == interp.Hermite {
			d.mode = mode
		}
	}
}

// Line is a circular delay line.
type Line struct {
	buffer   []float64
	writePos int
	capacity int
	maxDelay float64
	mode     interp.Mode
}

// New returns a delay line able to serve fractional reads up to capacity-1 samples.
func New(capacity int, opts ...Option) (*Line, error) {
	d := &Line{mode: interp.Linear}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	if err := d.Configure(capacity); err != nil {
		return nil, err
	}

	return d, nil
}

// Configure resizes the line to hold capacity samples, reusing storage when it
// is large enough. All samples are cleared and the write cursor is reset.
// It may allocate and must not be called from the audio thread.
func (d *Line) Configure(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("delay capacity must be > 0: %d", capacity)
	}

	// Hermite reads one sample past each side of the linear pair.
	size := capacity + d.mode.Taps() - 2

	d.buffer = core.EnsureLen(d.buffer, size)
	core.Zero(d.buffer)
	d.writePos = 0
	d.capacity = capacity
	d.maxDelay = float64(capacity - 1)

	return nil
}

// Len returns the usable capacity in samples.
func (d *Line) Len() int {
	return d.capacity
}

// MaxDelay returns the largest fractional delay that ReadFractional honours.
func (d *Line) MaxDelay() float64 {
	return d.maxDelay
}

// Mode returns the interpolation mode.
func (d *Line) Mode() interp.Mode {
	return d.mode
}

// Write stores one sample and advances the write cursor.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples. Read(1) is the most recent sample.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	if size == 0 {
		return 0
	}
	readPos := (d.writePos - delay%size + size) % size
	return d.buffer[readPos]
}

// ReadFractional reads delay samples back from the write cursor. The delay is
// clamped to [0, MaxDelay]; the fractional part is interpolated according to
// the line's mode.
func (d *Line) ReadFractional(delay float64) float64 {
	if len(d.buffer) == 0 {
		return 0
	}
	if !(delay > 0) {
		delay = 0
	}
	if delay > d.maxDelay {
		delay = d.maxDelay
	}

	p := int(delay)
	t := delay - float64(p)

	if d.mode == interp.Hermite {
		xm1 := d.at(max(0, p-1))
		return interp.Hermite4(t, xm1, d.at(p), d.at(p+1), d.at(p+2))
	}

	return interp.Linear2(t, d.at(p), d.at(p+1))
}

// Reset clears line state without reallocating.
func (d *Line) Reset() {
	core.Zero(d.buffer)
	d.writePos = 0
}

// at reads an in-range integer delay; delay must be within [0, len(buffer)].
func (d *Line) at(delay int) float64 {
	idx := d.writePos - delay
	if idx < 0 {
		idx += len(d.buffer)
	}
	return d.buffer[idx]
}
