// Command flanger renders audio through the flanger kernel.
//
// Usage:
//
//	flanger [flags]
//
// Input comes from -in (WAV, MP3 or FLAC) or from a generated test signal.
// The result is written to -out as WAV, played with -play, or summarised on
// stdout. With -response the kernel's comb notches are measured instead.
//
// Examples:
//
//	flanger -in guitar.wav -out flanged.wav -rate 0.3 -depth 0.8 -feedback 0.6
//	flanger -signal noise -seconds 5 -odd90 -play
//	flanger -response -delay 2 -depth 0 -feedback 0.5 -negative
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/cwbudde/algo-flanger/dsp/bus"
	"github.com/cwbudde/algo-flanger/dsp/core"
	"github.com/cwbudde/algo-flanger/dsp/effects/modulation"
	"github.com/cwbudde/algo-flanger/dsp/interp"
	dspsignal "github.com/cwbudde/algo-flanger/dsp/signal"
	"github.com/cwbudde/algo-flanger/internal/audiofile"
	"github.com/cwbudde/algo-flanger/internal/cpu"
	"github.com/cwbudde/algo-flanger/internal/playback"
	"github.com/cwbudde/algo-flanger/measure/response"
	timestats "github.com/cwbudde/algo-flanger/stats/time"
)

type options struct {
	in       string
	out      string
	play     bool
	response bool
	verbose  bool

	signal     string
	seconds    float64
	freq       float64
	sampleRate float64
	channels   int
	bits       int
	block      int

	rate     float64
	delay    float64
	depth    float64
	feedback float64
	dry      float64
	wet      float64
	negative bool
	odd90    bool
	maxDelay float64
	hermite  bool
	rampMs   float64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options

	fs := flag.NewFlagSet("flanger", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.in, "in", "", "input file (.wav, .mp3, .flac); a test signal is generated when empty")
	fs.StringVar(&o.out, "out", "", "write the rendered result to this WAV file")
	fs.BoolVar(&o.play, "play", false, "play the rendered result")
	fs.BoolVar(&o.response, "response", false, "measure and print the comb notches instead of rendering")
	fs.BoolVar(&o.verbose, "v", false, "enable debug logging")

	fs.StringVar(&o.signal, "signal", "noise", "generated source: sine, noise, impulse or step")
	fs.Float64Var(&o.seconds, "seconds", 3, "generated source length in seconds")
	fs.Float64Var(&o.freq, "freq", 220, "generated sine frequency in Hz")
	fs.Float64Var(&o.sampleRate, "sample-rate", 48000, "sample rate for generated sources and -response")
	fs.IntVar(&o.channels, "channels", 2, "channel count for generated sources")
	fs.IntVar(&o.bits, "bits", 16, "output WAV bit depth (16 or 24)")
	fs.IntVar(&o.block, "block", 512, "largest block handed to the kernel; 1 uses per-frame ramps")

	fs.Float64Var(&o.rate, "rate", 0.25, "LFO rate in Hz")
	fs.Float64Var(&o.delay, "delay", 1, "nominal delay in milliseconds")
	fs.Float64Var(&o.depth, "depth", 0.5, "modulation depth (0..1)")
	fs.Float64Var(&o.feedback, "feedback", 0.25, "feedback amount (0..1)")
	fs.Float64Var(&o.dry, "dry", 0.5, "dry level (0..1)")
	fs.Float64Var(&o.wet, "wet", 0.5, "wet level (0..1)")
	fs.BoolVar(&o.negative, "negative", false, "invert the feedback path")
	fs.BoolVar(&o.odd90, "odd90", false, "offset odd channels by a quarter LFO cycle")
	fs.Float64Var(&o.maxDelay, "max-delay", 10, "maximum delay in milliseconds")
	fs.BoolVar(&o.hermite, "hermite", false, "use 4-point Hermite delay interpolation")
	fs.Float64Var(&o.rampMs, "ramp", 10, "parameter ramp length in milliseconds")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: flanger [flags]\n\n")
		fmt.Fprintf(stderr, "Renders audio through a modulated delay with feedback.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  flanger -in guitar.wav -out flanged.wav -rate 0.3 -depth 0.8\n")
		fmt.Fprintf(stderr, "  flanger -signal noise -seconds 5 -odd90 -play\n")
		fmt.Fprintf(stderr, "  flanger -response -delay 2 -depth 0\n")
	}

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.block < 1 {
		return o, fmt.Errorf("block must be >= 1: %d", o.block)
	}
	if o.delay > o.maxDelay {
		return o, fmt.Errorf("delay %g ms exceeds max-delay %g ms", o.delay, o.maxDelay)
	}

	return o, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	logger.Debug("cpu features", "features", cpu.DetectFeatures())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if o.response {
		err = runResponse(o, logger, stdout)
	} else {
		err = runRender(ctx, o, logger, stdout)
	}

	if err != nil {
		logger.Error("flanger failed", "err", err)
		return 1
	}

	return 0
}

func newFlanger(o options, logger *slog.Logger) (*modulation.Flanger, error) {
	mode := interp.Linear
	if o.hermite {
		mode = interp.Hermite
	}

	return modulation.NewFlanger("cli",
		modulation.WithFlangerLogger(logger),
		modulation.WithFlangerInterpolation(mode),
		modulation.WithFlangerRampMilliseconds(o.rampMs),
		modulation.WithFlangerRateHz(o.rate),
		modulation.WithFlangerDelayMilliseconds(o.delay),
		modulation.WithFlangerDepth(o.depth),
		modulation.WithFlangerFeedback(o.feedback),
		modulation.WithFlangerDryMix(o.dry),
		modulation.WithFlangerWetMix(o.wet),
		modulation.WithFlangerNegativeFeedback(o.negative),
		modulation.WithFlangerOdd90(o.odd90),
	)
}

func runResponse(o options, logger *slog.Logger, stdout io.Writer) error {
	if o.depth > 0 {
		logger.Warn("depth > 0 sweeps the notches; measuring the LFO start position only", "depth", o.depth)
	}

	f, err := newFlanger(o, logger)
	if err != nil {
		return err
	}
	if err := f.Configure(1, o.sampleRate, o.maxDelay); err != nil {
		return err
	}

	res, err := response.Measure(f, o.sampleRate, response.WithBlockSize(o.block))
	if err != nil {
		return err
	}

	expected := response.ExpectedNotches(o.delay, o.sampleRate, len(res.Notches))

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tmeasured Hz\texpected Hz\tdepth dB\n")
	for i, n := range res.Notches {
		want := "-"
		if i < len(expected) {
			want = fmt.Sprintf("%.1f", expected[i])
		}
		fmt.Fprintf(tw, "%d\t%.1f\t%s\t%.1f\n", i+1, n.Frequency, want, n.DepthDB)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "bin %.2f Hz, median %.1f dB, %d notches\n", res.BinHz, res.MedianDB, len(res.Notches))

	return nil
}

func loadInput(o options) (*audiofile.Clip, error) {
	if o.in != "" {
		return audiofile.Read(o.in)
	}

	kind, err := dspsignal.ParseKind(o.signal)
	if err != nil {
		return nil, err
	}
	if o.channels < 1 {
		return nil, fmt.Errorf("channels must be >= 1: %d", o.channels)
	}

	frames := int(math.Round(o.seconds * o.sampleRate))
	gen := dspsignal.NewGenerator(
		core.WithSampleRate(o.sampleRate),
		core.WithChannels(o.channels),
		core.WithBlockSize(o.block),
	)
	mono, err := gen.Generate(kind, o.freq, 0.5, frames)
	if err != nil {
		return nil, err
	}

	clip := audiofile.NewClip(int(o.sampleRate), o.channels, frames)
	for _, ch := range clip.Samples {
		core.CopyInto(ch, mono)
	}

	return clip, nil
}

func runRender(ctx context.Context, o options, logger *slog.Logger, stdout io.Writer) error {
	in, err := loadInput(o)
	if err != nil {
		return err
	}

	logger.Info("input",
		"channels", in.Channels(),
		"sampleRate", in.SampleRate,
		"duration", in.Duration(),
	)

	f, err := newFlanger(o, logger)
	if err != nil {
		return err
	}

	var renderer bus.Renderer = f
	if err := renderer.Configure(in.Channels(), float64(in.SampleRate), o.maxDelay); err != nil {
		return err
	}

	out := audiofile.NewClip(in.SampleRate, in.Channels(), in.Frames())
	out.BitDepth = o.bits
	if err := bus.RenderBlocks(renderer, 0, in.Samples, out.Samples, o.block); err != nil {
		return err
	}

	inStats := timestats.CalculatePlanar(in.Samples)
	outStats := timestats.CalculatePlanar(out.Samples)
	if outStats.Clipped() {
		logger.Warn("output clips", "peakDB", outStats.Peak_dB)
	}

	if o.out != "" {
		if err := audiofile.WriteWAV(o.out, out, o.bits); err != nil {
			return err
		}
		logger.Info("wrote output", "path", o.out, "bits", o.bits)
	}

	if o.play {
		player, err := playback.NewPlayer(out.SampleRate, out.Channels(), logger)
		if err != nil {
			return err
		}
		if err := player.Play(ctx, out); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	if o.out == "" && !o.play {
		fmt.Fprintf(stdout, "frames %d, channels %d, input peak %.2f dBFS rms %.2f dBFS, output peak %.2f dBFS rms %.2f dBFS\n",
			out.Frames(), out.Channels(), inStats.Peak_dB, inStats.RMS_dB, outStats.Peak_dB, outStats.RMS_dB)
	}

	return nil
}
