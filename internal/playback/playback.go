// Package playback streams clips to the default audio device.
package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-flanger/dsp/bus"
	"github.com/cwbudde/algo-flanger/internal/audiofile"
)

const (
	chunkFrames  = 2048
	pollInterval = 10 * time.Millisecond
)

// Player owns the process-wide oto context. oto allows only one context per
// process, so a Player is fixed to the format it was created with.
type Player struct {
	ctx        *oto.Context
	sampleRate int
	channels   int
	logger     *slog.Logger
}

// NewPlayer opens the audio device and waits until it is ready.
func NewPlayer(sampleRate, channels int, logger *slog.Logger) (*Player, error) {
	if sampleRate <= 0 || channels < 1 {
		return nil, fmt.Errorf("playback format invalid: %d Hz, %d channels", sampleRate, channels)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	logger.Debug("audio output ready", "sampleRate", sampleRate, "channels", channels)

	return &Player{ctx: ctx, sampleRate: sampleRate, channels: channels, logger: logger}, nil
}

// Play streams clip and blocks until it has been heard or ctx is done.
func (p *Player) Play(ctx context.Context, clip *audiofile.Clip) error {
	if clip.SampleRate != p.sampleRate || clip.Channels() != p.channels {
		return fmt.Errorf("playback format mismatch: clip %d Hz/%d ch, device %d Hz/%d ch",
			clip.SampleRate, clip.Channels(), p.sampleRate, p.channels)
	}

	pr, pw := io.Pipe()
	player := p.ctx.NewPlayer(pr)
	defer player.Close()

	go func() {
		pw.CloseWithError(writePCM(ctx, pw, clip.Samples))
	}()

	player.Play()
	p.logger.Debug("playback started", "duration", clip.Duration())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			pr.CloseWithError(ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := player.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("playback: %w", err)
	}

	p.logger.Debug("playback finished")

	return nil
}

// writePCM feeds src to w in chunks of interleaved int16 LE frames.
func writePCM(ctx context.Context, w io.Writer, src bus.Buffers) error {
	frames := src.Frames()
	chunk := make([]byte, 0, chunkFrames*src.Channels()*2)

	for start := 0; start < frames; start += chunkFrames {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := min(chunkFrames, frames-start)
		chunk = AppendInt16LE(chunk[:0], src, start, n)
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}

	return nil
}

// AppendInt16LE interleaves frames [start, start+n) of src as signed 16-bit
// little-endian PCM. Samples outside [-1, 1] are clipped.
func AppendInt16LE(dst []byte, src bus.Buffers, start, n int) []byte {
	for i := start; i < start+n; i++ {
		for _, ch := range src {
			v := math.Max(-1, math.Min(1, ch[i]))
			dst = binary.LittleEndian.AppendUint16(dst, uint16(int16(math.Round(v*math.MaxInt16))))
		}
	}
	return dst
}
