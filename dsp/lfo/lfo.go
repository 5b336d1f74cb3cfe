package lfo

import (
	"fmt"
	"math"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	// Triangle ramps linearly between -1 (phase 0) and +1 (phase 0.5).
	Triangle Waveform = iota
	// Sinusoid is sin(2*pi*phase).
	Sinusoid
	// Sawtooth rises from -1 to +1 over one cycle.
	Sawtooth
	// Square is +1 for the first half cycle and -1 for the second.
	Square
)

// String returns the waveform name.
func (w Waveform) String() string {
	switch w {
	case Triangle:
		return "triangle"
	case Sinusoid:
		return "sinusoid"
	case Sawtooth:
		return "sawtooth"
	case Square:
		return "square"
	default:
		return "unknown"
	}
}

// Option mutates LFO construction parameters.
type Option func(*LFO) error

// WithWaveform sets the oscillator shape.
func WithWaveform(w Waveform) Option {
	return func(l *LFO) error {
		if w < Triangle || w > Square {
			return fmt.Errorf("lfo waveform unknown: %d", w)
		}
		l.waveform = w
		return nil
	}
}

// WithFrequency sets the oscillation rate in Hz.
func WithFrequency(hz float64) Option {
	return func(l *LFO) error {
		if hz < 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("lfo frequency must be >= 0 and finite: %f", hz)
		}
		l.frequency = hz
		return nil
	}
}

// LFO is a phase-accumulating low-frequency oscillator.
type LFO struct {
	sampleRate float64
	frequency  float64
	phase      float64
	increment  float64
	waveform   Waveform
}

// New creates an LFO running at sampleRate.
func New(sampleRate float64, opts ...Option) (*LFO, error) {
	l := &LFO{frequency: 1}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if err := l.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}

	return l, nil
}

// SetSampleRate updates the sample rate used to derive the phase increment.
func (l *LFO) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}

	l.sampleRate = sampleRate
	l.updateIncrement()

	return nil
}

// SetFrequency sets the oscillation rate in Hz. Negative or non-finite
// values stop the oscillator.
func (l *LFO) SetFrequency(hz float64) {
	if !(hz > 0) || math.IsInf(hz, 0) {
		hz = 0
	}
	l.frequency = hz
	l.updateIncrement()
}

// SetWaveform selects the oscillator shape. Unknown shapes fall back to Triangle.
func (l *LFO) SetWaveform(w Waveform) {
	if w < Triangle || w > Square {
		w = Triangle
	}
	l.waveform = w
}

// SetPhase sets the current phase, wrapped into [0, 1).
func (l *LFO) SetPhase(phase float64) {
	l.phase = wrap(phase)
}

// Reset returns the phase to zero.
func (l *LFO) Reset() {
	l.phase = 0
}

// Value returns the waveform at the current phase, in [-1, 1].
func (l *LFO) Value() float64 {
	return l.valueAt(l.phase)
}

// QuadPhaseValue returns the waveform a quarter cycle ahead of the current phase.
func (l *LFO) QuadPhaseValue() float64 {
	p := l.phase + 0.25
	if p >= 1 {
		p--
	}
	return l.valueAt(p)
}

// Increment advances the phase by one sample.
func (l *LFO) Increment() {
	l.phase += l.increment
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
}

// Phase returns the current phase in [0, 1).
func (l *LFO) Phase() float64 { return l.phase }

// Frequency returns the oscillation rate in Hz.
func (l *LFO) Frequency() float64 { return l.frequency }

// SampleRate returns the sample rate in Hz.
func (l *LFO) SampleRate() float64 { return l.sampleRate }

// Waveform returns the oscillator shape.
func (l *LFO) Waveform() Waveform { return l.waveform }

func (l *LFO) updateIncrement() {
	if l.sampleRate <= 0 {
		l.increment = 0
		return
	}
	l.increment = l.frequency / l.sampleRate
}

func (l *LFO) valueAt(phase float64) float64 {
	switch l.waveform {
	case Sinusoid:
		return math.Sin(2 * math.Pi * phase)
	case Sawtooth:
		return 2*phase - 1
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	default:
		return 1 - 4*math.Abs(phase-0.5)
	}
}

func wrap(phase float64) float64 {
	if math.IsNaN(phase) || math.IsInf(phase, 0) {
		return 0
	}
	phase -= math.Floor(phase)
	if phase >= 1 {
		phase = 0
	}
	return phase
}
