package param

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-flanger/dsp/core"
)

// Address identifies a parameter within a kernel.
type Address uint32

// Smoothed is the read contract the render path consumes.
type Smoothed interface {
	FrameValue() float64
	FinalValue() float64
}

// Parameter is the control-side view shared by all parameter kinds.
type Parameter interface {
	Address() Address
	Name() string
	Unit() string
	// SetValue stores a new plain value; out-of-range values are clamped.
	SetValue(value float64)
	// Value returns the latest stored plain value.
	Value() float64
}

// Float is a ranged scalar parameter with a linear ramp toward new targets.
type Float struct {
	address Address
	name    string
	unit    string

	min    atomic.Uint64
	max    atomic.Uint64
	target atomic.Uint64

	// Audio-thread state.
	current    float64
	latched    float64
	step       float64
	remaining  int
	rampFrames int
}

// NewFloat creates a scalar parameter clamped to [min, max].
func NewFloat(address Address, name, unit string, min, max, value float64) *Float {
	f := &Float{address: address, name: name, unit: unit}
	if min > max {
		min, max = max, min
	}
	f.min.Store(math.Float64bits(min))
	f.max.Store(math.Float64bits(max))

	value = f.clamp(value)
	f.target.Store(math.Float64bits(value))
	f.current = value
	f.latched = value

	return f
}

// NewMilliseconds creates a time parameter in milliseconds clamped to [0, max].
func NewMilliseconds(address Address, name string, max, value float64) *Float {
	return NewFloat(address, name, "ms", 0, max, value)
}

// NewPercentage creates a fractional parameter clamped to [0, 1].
func NewPercentage(address Address, name string, value float64) *Float {
	return NewFloat(address, name, "%", 0, 1, value)
}

// Address returns the parameter address.
func (f *Float) Address() Address { return f.address }

// Name returns the display name.
func (f *Float) Name() string { return f.name }

// Unit returns the display unit.
func (f *Float) Unit() string { return f.unit }

// Range returns the current clamp range.
func (f *Float) Range() (min, max float64) {
	return math.Float64frombits(f.min.Load()), math.Float64frombits(f.max.Load())
}

// SetRange changes the clamp range and re-clamps the stored target.
func (f *Float) SetRange(min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) {
		return fmt.Errorf("param %s range must not be NaN: [%f, %f]", f.name, min, max)
	}
	if min > max {
		return fmt.Errorf("param %s range inverted: [%f, %f]", f.name, min, max)
	}

	f.min.Store(math.Float64bits(min))
	f.max.Store(math.Float64bits(max))
	f.Set(f.Value())

	return nil
}

// Set stores a new target. NaN is ignored; other values are clamped.
// Safe to call from any goroutine.
func (f *Float) Set(value float64) {
	if math.IsNaN(value) {
		return
	}
	f.target.Store(math.Float64bits(f.clamp(value)))
}

// SetValue implements Parameter.
func (f *Float) SetValue(value float64) { f.Set(value) }

// SetPercent stores a percentage in [0, 100] as a fraction.
func (f *Float) SetPercent(percent float64) { f.Set(percent / 100) }

// Value returns the latest target.
func (f *Float) Value() float64 {
	return math.Float64frombits(f.target.Load())
}

// SetRampFrames sets how many frames a ramp toward a new target lasts.
// Zero makes changes take effect immediately. Not safe to call while rendering.
func (f *Float) SetRampFrames(frames int) {
	if frames < 0 {
		frames = 0
	}
	f.rampFrames = frames
}

// RampFrames returns the configured ramp length.
func (f *Float) RampFrames() int { return f.rampFrames }

// FrameValue advances the ramp by one frame and returns the new value.
func (f *Float) FrameValue() float64 {
	target := math.Float64frombits(f.target.Load())
	if target != f.latched {
		f.latched = target
		if f.rampFrames > 0 {
			f.step = (target - f.current) / float64(f.rampFrames)
			f.remaining = f.rampFrames
		} else {
			f.current = target
			f.remaining = 0
		}
	}

	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			f.current = f.latched
		} else {
			f.current += f.step
		}
	}

	return f.current
}

// FinalValue returns the latest target and ends any ramp in progress.
func (f *Float) FinalValue() float64 {
	target := math.Float64frombits(f.target.Load())
	f.latched = target
	f.current = target
	f.remaining = 0
	return target
}

// Ramping reports whether a ramp is in progress.
func (f *Float) Ramping() bool { return f.remaining > 0 }

func (f *Float) clamp(value float64) float64 {
	lo, hi := f.Range()
	return core.Clamp(value, lo, hi)
}

// Bool is an on/off parameter read once per block.
type Bool struct {
	address Address
	name    string
	value   atomic.Bool
}

// NewBool creates a boolean parameter.
func NewBool(address Address, name string, value bool) *Bool {
	b := &Bool{address: address, name: name}
	b.value.Store(value)
	return b
}

// Address returns the parameter address.
func (b *Bool) Address() Address { return b.address }

// Name returns the display name.
func (b *Bool) Name() string { return b.name }

// Unit returns an empty unit.
func (b *Bool) Unit() string { return "" }

// Set stores the flag. Safe to call from any goroutine.
func (b *Bool) Set(on bool) { b.value.Store(on) }

// Get returns the flag.
func (b *Bool) Get() bool { return b.value.Load() }

// SetValue treats values >= 0.5 as on.
func (b *Bool) SetValue(value float64) { b.value.Store(value >= 0.5) }

// Value returns 1 when on and 0 when off.
func (b *Bool) Value() float64 {
	if b.value.Load() {
		return 1
	}
	return 0
}
