package modulation

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-flanger/dsp/core"
	"github.com/cwbudde/algo-flanger/dsp/delay"
	"github.com/cwbudde/algo-flanger/dsp/interp"
	"github.com/cwbudde/algo-flanger/dsp/lfo"
	"github.com/cwbudde/algo-flanger/dsp/param"
)

// Parameter addresses, in registration order.
const (
	FlangerParamRate param.Address = iota
	FlangerParamDelay
	FlangerParamDepth
	FlangerParamFeedback
	FlangerParamWetMix
	FlangerParamDryMix
	FlangerParamNegativeFeedback
	FlangerParamOdd90
)

const (
	defaultFlangerRateHz          = 0.25
	defaultFlangerDelayMs         = 1.0
	defaultFlangerDepth           = 0.5
	defaultFlangerFeedback        = 0.25
	defaultFlangerDryMix          = 0.5
	defaultFlangerWetMix          = 0.5
	defaultFlangerRampMs          = 10.0
	unconfiguredFlangerMaxDelayMs = 1000.0
	maxFlangerRateHz              = 100.0
)

// FlangerOption mutates flanger construction parameters.
type FlangerOption func(*flangerConfig) error

type flangerConfig struct {
	logger           *slog.Logger
	mode             interp.Mode
	rampMs           float64
	rateHz           float64
	delayMs          float64
	depth            float64
	feedback         float64
	dryMix           float64
	wetMix           float64
	negativeFeedback bool
	odd90            bool
}

func defaultFlangerConfig() flangerConfig {
	return flangerConfig{
		logger:   slog.New(slog.DiscardHandler),
		mode:     interp.Linear,
		rampMs:   defaultFlangerRampMs,
		rateHz:   defaultFlangerRateHz,
		delayMs:  defaultFlangerDelayMs,
		depth:    defaultFlangerDepth,
		feedback: defaultFlangerFeedback,
		dryMix:   defaultFlangerDryMix,
		wetMix:   defaultFlangerWetMix,
	}
}

// WithFlangerLogger sets the logger used for construction and configuration
// messages. Rendering never logs.
func WithFlangerLogger(logger *slog.Logger) FlangerOption {
	return func(cfg *flangerConfig) error {
		if logger == nil {
			return fmt.Errorf("flanger logger must not be nil")
		}

		cfg.logger = logger

		return nil
	}
}

// WithFlangerInterpolation selects the delay-line read kernel.
func WithFlangerInterpolation(mode interp.Mode) FlangerOption {
	return func(cfg *flangerConfig) error {
		if mode != interp.Linear && mode != interp.Hermite {
			return fmt.Errorf("flanger interpolation unknown: %d", mode)
		}

		cfg.mode = mode

		return nil
	}
}

// WithFlangerRampMilliseconds sets how long per-frame parameter ramps last.
func WithFlangerRampMilliseconds(ms float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if ms < 0 || !core.IsFinite(ms) {
			return fmt.Errorf("flanger ramp must be >= 0 and finite: %f", ms)
		}

		cfg.rampMs = ms

		return nil
	}
}

// WithFlangerRateHz sets the initial LFO rate in Hz.
func WithFlangerRateHz(rateHz float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if rateHz < 0 || rateHz > maxFlangerRateHz || math.IsNaN(rateHz) {
			return fmt.Errorf("flanger rate must be in [0, %f]: %f", maxFlangerRateHz, rateHz)
		}

		cfg.rateHz = rateHz

		return nil
	}
}

// WithFlangerDelayMilliseconds sets the initial nominal delay in milliseconds.
func WithFlangerDelayMilliseconds(ms float64) FlangerOption {
	return func(cfg *flangerConfig) error {
		if ms < 0 || ms > unconfiguredFlangerMaxDelayMs || math.IsNaN(ms) {
			return fmt.Errorf("flanger delay must be in [0, %f]: %f", unconfiguredFlangerMaxDelayMs, ms)
		}

		cfg.delayMs = ms

		return nil
	}
}

// WithFlangerDepth sets the initial modulation depth in [0, 1].
func WithFlangerDepth(depth float64) FlangerOption {
	return fractionOption("depth", depth, func(cfg *flangerConfig, v float64) { cfg.depth = v })
}

// WithFlangerFeedback sets the initial feedback amount in [0, 1].
func WithFlangerFeedback(feedback float64) FlangerOption {
	return fractionOption("feedback", feedback, func(cfg *flangerConfig, v float64) { cfg.feedback = v })
}

// WithFlangerDryMix sets the initial dry level in [0, 1].
func WithFlangerDryMix(mix float64) FlangerOption {
	return fractionOption("dry mix", mix, func(cfg *flangerConfig, v float64) { cfg.dryMix = v })
}

// WithFlangerWetMix sets the initial wet level in [0, 1].
func WithFlangerWetMix(mix float64) FlangerOption {
	return fractionOption("wet mix", mix, func(cfg *flangerConfig, v float64) { cfg.wetMix = v })
}

// WithFlangerNegativeFeedback inverts the feedback path.
func WithFlangerNegativeFeedback(on bool) FlangerOption {
	return func(cfg *flangerConfig) error {
		cfg.negativeFeedback = on
		return nil
	}
}

// WithFlangerOdd90 reads odd channels a quarter LFO cycle ahead of even ones.
func WithFlangerOdd90(on bool) FlangerOption {
	return func(cfg *flangerConfig) error {
		cfg.odd90 = on
		return nil
	}
}

func fractionOption(name string, v float64, set func(*flangerConfig, float64)) FlangerOption {
	return func(cfg *flangerConfig) error {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("flanger %s must be in [0, 1]: %f", name, v)
		}

		set(cfg, v)

		return nil
	}
}

// Flanger is a realtime flanger kernel: every channel is mixed with a copy of
// itself read from a delay line whose length is swept by a shared triangle LFO.
//
// Configure must be called before Render and whenever the channel count,
// sample rate or maximum delay changes. Configure and Render must not run
// concurrently; parameters may be set from any goroutine.
type Flanger struct {
	name   string
	logger *slog.Logger
	mode   interp.Mode
	rampMs float64

	params           *param.Registry
	rate             *param.Float
	delay            *param.Float
	depth            *param.Float
	feedback         *param.Float
	dryMix           *param.Float
	wetMix           *param.Float
	negativeFeedback *param.Bool
	odd90            *param.Bool

	samplesPerMillisecond float64
	maxDelayMilliseconds  float64

	delayLines []*delay.Line
	lfo        lfo.LFO
}

// NewFlanger creates an unconfigured flanger. name identifies it in log output.
func NewFlanger(name string, opts ...FlangerOption) (*Flanger, error) {
	cfg := defaultFlangerConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt(&cfg)
		if err != nil {
			return nil, err
		}
	}

	f := &Flanger{
		name:   name,
		logger: cfg.logger,
		mode:   cfg.mode,
		rampMs: cfg.rampMs,
		params: param.NewRegistry(),

		rate:             param.NewFloat(FlangerParamRate, "Rate", "Hz", 0, maxFlangerRateHz, cfg.rateHz),
		delay:            param.NewMilliseconds(FlangerParamDelay, "Delay", unconfiguredFlangerMaxDelayMs, cfg.delayMs),
		depth:            param.NewPercentage(FlangerParamDepth, "Depth", cfg.depth),
		feedback:         param.NewPercentage(FlangerParamFeedback, "Feedback", cfg.feedback),
		wetMix:           param.NewPercentage(FlangerParamWetMix, "Wet", cfg.wetMix),
		dryMix:           param.NewPercentage(FlangerParamDryMix, "Dry", cfg.dryMix),
		negativeFeedback: param.NewBool(FlangerParamNegativeFeedback, "Negative Feedback", cfg.negativeFeedback),
		odd90:            param.NewBool(FlangerParamOdd90, "Odd 90°", cfg.odd90),
	}

	err := f.params.Register(
		f.rate, f.delay, f.depth, f.feedback, f.wetMix, f.dryMix, f.negativeFeedback, f.odd90,
	)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("flanger created", "name", name)

	return f, nil
}

// Configure sizes the delay lines and LFO for the given stream format.
// It may allocate and must not be called from the audio thread.
func (f *Flanger) Configure(channelCount int, sampleRate, maxDelayMilliseconds float64) error {
	if channelCount < 1 {
		return fmt.Errorf("flanger channel count must be >= 1: %d", channelCount)
	}

	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("flanger sample rate must be > 0 and finite: %f", sampleRate)
	}

	if maxDelayMilliseconds < 0 || !core.IsFinite(maxDelayMilliseconds) {
		return fmt.Errorf("flanger max delay must be >= 0 and finite: %f", maxDelayMilliseconds)
	}

	samplesPerMillisecond := core.SamplesPerMillisecond(sampleRate)
	capacity := int(math.Ceil(core.MillisecondsToSamples(maxDelayMilliseconds, sampleRate))) + 1

	if err := f.lfo.SetSampleRate(sampleRate); err != nil {
		return err
	}
	f.lfo.SetWaveform(lfo.Triangle)

	lines := f.delayLines[:min(len(f.delayLines), channelCount)]
	for c := range lines {
		if err := lines[c].Configure(capacity); err != nil {
			return err
		}
	}
	for len(lines) < channelCount {
		line, err := delay.New(capacity, delay.WithMode(f.mode))
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}

	if err := f.delay.SetRange(0, maxDelayMilliseconds); err != nil {
		return err
	}
	f.params.SetRampFrames(int(math.Round(f.rampMs * samplesPerMillisecond)))

	f.delayLines = lines
	f.samplesPerMillisecond = samplesPerMillisecond
	f.maxDelayMilliseconds = maxDelayMilliseconds

	f.logger.Debug("flanger configured",
		"name", f.name,
		"channels", channelCount,
		"sampleRate", sampleRate,
		"maxDelayMs", maxDelayMilliseconds,
		"capacity", capacity,
	)

	return nil
}

// Render processes frameCount frames from ins into outs. ins and outs must
// hold one slice per configured channel, each at least frameCount long.
// outputBus is accepted for host compatibility and ignored.
//
// A single-frame call reads every scalar parameter through its per-frame ramp;
// longer blocks read each parameter's final value once and hold it.
func (f *Flanger) Render(outputBus int, ins, outs [][]float64, frameCount int) {
	if frameCount <= 0 {
		return
	}

	odd90 := f.odd90.Get()

	feedbackSign := 1.0
	if f.negativeFeedback.Get() {
		feedbackSign = -1
	}

	if frameCount == 1 {
		f.lfo.SetFrequency(f.rate.FrameValue())
		center, variance := flangerCenterVariance(f.delay.FrameValue(), f.depth.FrameValue(), f.maxDelayMilliseconds)
		feedback := feedbackSign * f.feedback.FrameValue()
		wetMix := f.wetMix.FrameValue()
		dryMix := f.dryMix.FrameValue()

		evenTap, oddTap := f.nextTaps(odd90, center, variance)
		f.writeFrame(ins, outs, 0, evenTap, oddTap, feedback, wetMix, dryMix)

		return
	}

	f.lfo.SetFrequency(f.rate.FinalValue())
	center, variance := flangerCenterVariance(f.delay.FinalValue(), f.depth.FinalValue(), f.maxDelayMilliseconds)
	feedback := feedbackSign * f.feedback.FinalValue()
	wetMix := f.wetMix.FinalValue()
	dryMix := f.dryMix.FinalValue()

	for i := 0; i < frameCount; i++ {
		evenTap, oddTap := f.nextTaps(odd90, center, variance)
		f.writeFrame(ins, outs, i, evenTap, oddTap, feedback, wetMix, dryMix)
	}
}

// Reset clears the delay lines and rewinds the LFO without reallocating.
func (f *Flanger) Reset() {
	for _, line := range f.delayLines {
		line.Reset()
	}

	f.lfo.Reset()
}

func (f *Flanger) writeFrame(ins, outs [][]float64, i int, evenTap, oddTap, feedback, wetMix, dryMix float64) {
	for c, in := range ins {
		x := in[i]

		tap := evenTap
		if c&1 == 1 {
			tap = oddTap
		}

		line := f.delayLines[c]
		delayed := line.ReadFractional(tap)
		line.Write(x + feedback*delayed)
		outs[c][i] = wetMix*delayed + dryMix*x
	}
}

// Name returns the name given at construction.
func (f *Flanger) Name() string { return f.name }

// Params returns the parameter registry.
func (f *Flanger) Params() *param.Registry { return f.params }

// Rate returns the LFO rate parameter (Hz).
func (f *Flanger) Rate() *param.Float { return f.rate }

// Delay returns the nominal delay parameter (ms).
func (f *Flanger) Delay() *param.Float { return f.delay }

// Depth returns the modulation depth parameter.
func (f *Flanger) Depth() *param.Float { return f.depth }

// Feedback returns the feedback amount parameter.
func (f *Flanger) Feedback() *param.Float { return f.feedback }

// DryMix returns the dry level parameter.
func (f *Flanger) DryMix() *param.Float { return f.dryMix }

// WetMix returns the wet level parameter.
func (f *Flanger) WetMix() *param.Float { return f.wetMix }

// NegativeFeedback returns the feedback polarity flag.
func (f *Flanger) NegativeFeedback() *param.Bool { return f.negativeFeedback }

// Odd90 returns the quadrature flag for odd channels.
func (f *Flanger) Odd90() *param.Bool { return f.odd90 }

// ChannelCount returns the configured channel count.
func (f *Flanger) ChannelCount() int { return len(f.delayLines) }

// SamplesPerMillisecond returns the configured sample rate divided by 1000.
func (f *Flanger) SamplesPerMillisecond() float64 { return f.samplesPerMillisecond }

// MaxDelayMilliseconds returns the configured upper bound of the sweep.
func (f *Flanger) MaxDelayMilliseconds() float64 { return f.maxDelayMilliseconds }

// LFOPhase returns the shared LFO phase in [0, 1).
func (f *Flanger) LFOPhase() float64 { return f.lfo.Phase() }
