package response

import (
	"errors"
	"fmt"
	"math"
	"slices"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-flanger/dsp/bus"
	"github.com/cwbudde/algo-flanger/dsp/core"
)

const (
	defaultFFTSize      = 4096
	defaultNotchDepthDB = 20.0
	defaultBlockSize    = 512
	floorDB             = -240.0
)

// ErrNotConfigured is returned when the kernel has no channels.
var ErrNotConfigured = errors.New("response: kernel not configured")

// Kernel is the effect under test. It must already be configured; Measure
// resets it before rendering.
type Kernel interface {
	bus.Renderer
	ChannelCount() int
	Reset()
}

// Config controls a measurement.
type Config struct {
	FFTSize      int
	NotchDepthDB float64
	BlockSize    int
}

// Option mutates a measurement Config.
type Option func(*Config) error

// WithFFTSize sets the impulse length and transform size. It must be a power
// of two of at least 16.
func WithFFTSize(n int) Option {
	return func(cfg *Config) error {
		if n < 16 || n&(n-1) != 0 {
			return fmt.Errorf("response fft size must be a power of two >= 16: %d", n)
		}

		cfg.FFTSize = n

		return nil
	}
}

// WithNotchDepthDB sets how far below the median level a local minimum must
// fall to count as a notch.
func WithNotchDepthDB(db float64) Option {
	return func(cfg *Config) error {
		if !(db > 0) || !core.IsFinite(db) {
			return fmt.Errorf("response notch depth must be > 0 and finite: %f", db)
		}

		cfg.NotchDepthDB = db

		return nil
	}
}

// WithBlockSize sets the largest block handed to the kernel.
func WithBlockSize(n int) Option {
	return func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("response block size must be >= 1: %d", n)
		}

		cfg.BlockSize = n

		return nil
	}
}

// Notch is a detected response minimum.
type Notch struct {
	Bin       int
	Frequency float64
	// DepthDB is the distance below the median level.
	DepthDB float64
}

// Result holds the measured response of channel 0.
type Result struct {
	SampleRate float64
	FFTSize    int
	BinHz      float64
	Impulse    []float64
	// MagnitudeDB covers bins 0..FFTSize/2.
	MagnitudeDB []float64
	MedianDB    float64
	Notches     []Notch
}

// FrequencyAt returns the centre frequency of bin.
func (r Result) FrequencyAt(bin int) float64 {
	return float64(bin) * r.BinHz
}

// Measure renders a unit impulse through every channel of k and analyzes the
// response of channel 0.
func Measure(k Kernel, sampleRate float64, opts ...Option) (Result, error) {
	cfg := Config{
		FFTSize:      defaultFFTSize,
		NotchDepthDB: defaultNotchDepthDB,
		BlockSize:    defaultBlockSize,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return Result{}, err
		}
	}

	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return Result{}, fmt.Errorf("response sample rate must be > 0 and finite: %f", sampleRate)
	}

	channels := k.ChannelCount()
	if channels < 1 {
		return Result{}, ErrNotConfigured
	}

	ins := bus.NewBuffers(channels, cfg.FFTSize)
	outs := bus.NewBuffers(channels, cfg.FFTSize)
	for c := range ins {
		ins[c][0] = 1
	}

	k.Reset()
	if err := bus.RenderBlocks(k, 0, ins, outs, cfg.BlockSize); err != nil {
		return Result{}, fmt.Errorf("response render: %w", err)
	}

	magDB, err := magnitudeDB(outs[0])
	if err != nil {
		return Result{}, err
	}

	res := Result{
		SampleRate:  sampleRate,
		FFTSize:     cfg.FFTSize,
		BinHz:       sampleRate / float64(cfg.FFTSize),
		Impulse:     outs[0],
		MagnitudeDB: magDB,
		MedianDB:    median(magDB),
	}
	res.Notches = findNotches(res, cfg.NotchDepthDB)

	return res, nil
}

func magnitudeDB(impulse []float64) ([]float64, error) {
	n := len(impulse)

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("response fft plan: %w", err)
	}

	in := make([]complex128, n)
	for i, v := range impulse {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("response fft: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := range bins {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	mag := make([]float64, bins)
	vecmath.Magnitude(mag, re, im)

	for i, m := range mag {
		mag[i] = max(core.LinearToDB(m), floorDB)
	}

	return mag, nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}

// findNotches returns strict-left local minima deeper than depthDB below the
// median. DC and Nyquist are excluded.
func findNotches(res Result, depthDB float64) []Notch {
	db := res.MagnitudeDB
	threshold := res.MedianDB - depthDB

	var notches []Notch
	for i := 1; i < len(db)-1; i++ {
		if db[i] >= db[i-1] || db[i] > db[i+1] || db[i] > threshold {
			continue
		}

		notches = append(notches, Notch{
			Bin:       i,
			Frequency: res.FrequencyAt(i),
			DepthDB:   res.MedianDB - db[i],
		})
	}

	return notches
}

// ExpectedNotches returns up to count notch frequencies below Nyquist for a
// static flanger with delay delayMs and non-negative dry and wet levels.
// The delayed copy cancels the dry signal where it arrives in antiphase, at
// odd multiples of 1/(2τ); feedback of either polarity only changes how deep
// those notches are.
func ExpectedNotches(delayMs, sampleRate float64, count int) []float64 {
	if !(delayMs > 0) || !(sampleRate > 0) || count <= 0 {
		return nil
	}

	tau := delayMs / 1000
	nyquist := sampleRate / 2

	out := make([]float64, 0, count)
	for k := 0; k < count; k++ {
		f := float64(2*k+1) / (2 * tau)
		if f >= nyquist {
			break
		}
		out = append(out, f)
	}

	return out
}

// NearestNotch returns the detected notch closest to freq.
func (r Result) NearestNotch(freq float64) (Notch, bool) {
	if len(r.Notches) == 0 {
		return Notch{}, false
	}

	best := r.Notches[0]
	for _, n := range r.Notches[1:] {
		if math.Abs(n.Frequency-freq) < math.Abs(best.Frequency-freq) {
			best = n
		}
	}

	return best, true
}
