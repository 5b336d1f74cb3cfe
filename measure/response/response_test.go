package response

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-flanger/dsp/effects/modulation"
)

func newStaticFlanger(t *testing.T, opts ...modulation.FlangerOption) *modulation.Flanger {
	t.Helper()

	base := []modulation.FlangerOption{
		modulation.WithFlangerDelayMilliseconds(2),
		modulation.WithFlangerDepth(0),
		modulation.WithFlangerFeedback(0),
		modulation.WithFlangerDryMix(0.5),
		modulation.WithFlangerWetMix(0.5),
	}

	f, err := modulation.NewFlanger("response", append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	if err := f.Configure(1, 48000, 10); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}

	return f
}

func requireNotchesMatch(t *testing.T, res Result, expected []float64) {
	t.Helper()

	if len(res.Notches) != len(expected) {
		t.Fatalf("found %d notches, want %d", len(res.Notches), len(expected))
	}

	for _, want := range expected {
		got, ok := res.NearestNotch(want)
		if !ok {
			t.Fatal("no notches found")
		}
		if math.Abs(got.Frequency-want) > res.BinHz {
			t.Fatalf("notch near %.1f Hz found at %.1f Hz (bin width %.2f)", want, got.Frequency, res.BinHz)
		}
	}
}

func TestExpectedNotches(t *testing.T) {
	got := ExpectedNotches(2, 48000, 3)
	want := []float64{250, 750, 1250}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("notch %d = %g, want %g", i, got[i], want[i])
		}
	}

	if n := len(ExpectedNotches(2, 48000, 1000)); n != 48 {
		t.Fatalf("notches below Nyquist = %d, want 48", n)
	}

	for _, bad := range [][2]float64{{0, 48000}, {-1, 48000}, {2, 0}} {
		if out := ExpectedNotches(bad[0], bad[1], 4); out != nil {
			t.Fatalf("ExpectedNotches(%g, %g) = %v, want nil", bad[0], bad[1], out)
		}
	}
}

func TestMeasureFindsCombNotches(t *testing.T) {
	f := newStaticFlanger(t)

	res, err := Measure(f, 48000)
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}

	if res.FFTSize != defaultFFTSize || len(res.MagnitudeDB) != defaultFFTSize/2+1 {
		t.Fatalf("unexpected result shape: fft=%d bins=%d", res.FFTSize, len(res.MagnitudeDB))
	}
	if res.Impulse[96] != 0.5 || res.Impulse[0] != 0.5 {
		t.Fatalf("impulse response taps = (%g, %g), want (0.5, 0.5)", res.Impulse[0], res.Impulse[96])
	}

	requireNotchesMatch(t, res, ExpectedNotches(2, 48000, 1000))
}

func TestMeasureNotchesIndependentOfFeedbackPolarity(t *testing.T) {
	expected := ExpectedNotches(2, 48000, 1000)

	positive := newStaticFlanger(t, modulation.WithFlangerFeedback(0.5))
	res, err := Measure(positive, 48000, WithNotchDepthDB(6))
	if err != nil {
		t.Fatalf("Measure(positive) error = %v", err)
	}
	requireNotchesMatch(t, res, expected)

	negative := newStaticFlanger(t,
		modulation.WithFlangerFeedback(0.5), modulation.WithFlangerNegativeFeedback(true))
	res, err = Measure(negative, 48000, WithNotchDepthDB(1))
	if err != nil {
		t.Fatalf("Measure(negative) error = %v", err)
	}
	requireNotchesMatch(t, res, expected)
}

func TestMeasureDryOnlyIsFlat(t *testing.T) {
	f := newStaticFlanger(t, modulation.WithFlangerDryMix(1), modulation.WithFlangerWetMix(0))

	res, err := Measure(f, 48000, WithFFTSize(1024), WithBlockSize(100))
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}

	if len(res.Notches) != 0 {
		t.Fatalf("dry signal should have no notches, got %d", len(res.Notches))
	}
	for i, db := range res.MagnitudeDB {
		if math.Abs(db-res.MagnitudeDB[0]) > 1e-9 {
			t.Fatalf("bin %d = %g dB, want flat %g dB", i, db, res.MagnitudeDB[0])
		}
	}
}

func TestMeasureIsRepeatable(t *testing.T) {
	f := newStaticFlanger(t, modulation.WithFlangerFeedback(0.3))

	first, err := Measure(f, 48000, WithFFTSize(2048))
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	second, err := Measure(f, 48000, WithFFTSize(2048))
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}

	for i := range first.Impulse {
		if first.Impulse[i] != second.Impulse[i] {
			t.Fatalf("frame %d differs between measurements: %g vs %g", i, first.Impulse[i], second.Impulse[i])
		}
	}
}

func TestMeasureErrors(t *testing.T) {
	unconfigured, err := modulation.NewFlanger("idle")
	if err != nil {
		t.Fatalf("NewFlanger() error = %v", err)
	}

	if _, err := Measure(unconfigured, 48000); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Measure(unconfigured) error = %v, want ErrNotConfigured", err)
	}

	f := newStaticFlanger(t)
	tests := []struct {
		name string
		rate float64
		opt  Option
	}{
		{"fft not power of two", 48000, WithFFTSize(1000)},
		{"fft too small", 48000, WithFFTSize(8)},
		{"zero notch depth", 48000, WithNotchDepthDB(0)},
		{"zero block", 48000, WithBlockSize(0)},
		{"zero sample rate", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Measure(f, tt.rate, tt.opt); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("odd median = %g", got)
	}
	if got := median([]float64{4, 1, 2, 3}); got != 2.5 {
		t.Fatalf("even median = %g", got)
	}
	if got := median(nil); got != 0 {
		t.Fatalf("empty median = %g", got)
	}
}
