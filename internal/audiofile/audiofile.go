// Package audiofile decodes WAV, MP3 and FLAC files into planar float64
// clips and writes clips back out as PCM WAV.
package audiofile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"

	"github.com/cwbudde/algo-flanger/dsp/bus"
)

// ErrUnsupportedFormat is returned for files whose container or sample
// layout cannot be handled.
var ErrUnsupportedFormat = errors.New("audiofile: unsupported format")

// Format is a container type.
type Format int

const (
	FormatWAV Format = iota
	FormatMP3
	FormatFLAC
)

func (f Format) String() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatMP3:
		return "mp3"
	case FormatFLAC:
		return "flac"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks a container type from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV, nil
	case ".mp3":
		return FormatMP3, nil
	case ".flac":
		return FormatFLAC, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Clip is decoded audio: one slice per channel, samples in [-1, 1].
type Clip struct {
	SampleRate int
	// BitDepth is the source resolution, 16 for MP3.
	BitDepth int
	Samples  bus.Buffers
}

// NewClip allocates a silent clip.
func NewClip(sampleRate, channels, frames int) *Clip {
	return &Clip{
		SampleRate: sampleRate,
		BitDepth:   16,
		Samples:    bus.NewBuffers(channels, frames),
	}
}

// Channels returns the channel count.
func (c *Clip) Channels() int { return c.Samples.Channels() }

// Frames returns the number of frames per channel.
func (c *Clip) Frames() int { return c.Samples.Frames() }

// Duration returns the playing time.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames()) / float64(c.SampleRate) * float64(time.Second))
}

// Read opens path and decodes it according to its extension.
func Read(path string) (*Clip, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	clip, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return clip, nil
}

// Decode reads a whole stream of the given format.
func Decode(r io.ReadSeeker, format Format) (*Clip, error) {
	switch format {
	case FormatWAV:
		return decodeWAV(r)
	case FormatMP3:
		return decodeMP3(r)
	case FormatFLAC:
		return decodeFLAC(r)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav header", ErrUnsupportedFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav pcm: %w", err)
	}

	bitDepth := int(dec.SampleBitDepth())
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: %d-bit wav", ErrUnsupportedFormat, bitDepth)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("%w: %d wav channels", ErrUnsupportedFormat, channels)
	}

	clip := NewClip(buf.Format.SampleRate, channels, len(buf.Data)/channels)
	clip.BitDepth = bitDepth

	scale := math.Ldexp(1, bitDepth-1)
	for i, v := range buf.Data[:clip.Frames()*channels] {
		clip.Samples[i%channels][i/channels] = float64(v) / scale
	}

	return clip, nil
}

func decodeMP3(r io.Reader) (*Clip, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 decoder: %w", err)
	}

	// go-mp3 always produces interleaved stereo int16 LE.
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("mp3 read: %w", err)
	}

	const channels, bytesPerFrame = 2, 4
	clip := NewClip(dec.SampleRate(), channels, len(pcm)/bytesPerFrame)

	for i := range clip.Frames() {
		for c := range channels {
			s := int16(binary.LittleEndian.Uint16(pcm[i*bytesPerFrame+2*c:]))
			clip.Samples[c][i] = float64(s) / 32768
		}
	}

	return clip, nil
}

func decodeFLAC(r io.Reader) (*Clip, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("flac stream: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels < 1 || bitDepth < 4 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: flac %d channels at %d bits", ErrUnsupportedFormat, channels, bitDepth)
	}

	planar := make([][]float64, channels)
	if info.NSamples > 0 {
		for c := range planar {
			planar[c] = make([]float64, 0, info.NSamples)
		}
	}

	scale := math.Ldexp(1, bitDepth-1)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac frame: %w", err)
		}

		for c := range channels {
			for _, s := range frame.Subframes[c].Samples[:frame.BlockSize] {
				planar[c] = append(planar[c], float64(s)/scale)
			}
		}
	}

	return &Clip{
		SampleRate: int(info.SampleRate),
		BitDepth:   bitDepth,
		Samples:    planar,
	}, nil
}

// WriteWAV encodes clip as PCM WAV at bitDepth (16 or 24) into path.
func WriteWAV(path string, clip *Clip, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := EncodeWAV(f, clip, bitDepth); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return f.Close()
}

// EncodeWAV writes clip as PCM WAV. Samples outside [-1, 1] are clipped.
func EncodeWAV(w io.WriteSeeker, clip *Clip, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 {
		return fmt.Errorf("%w: %d-bit wav output", ErrUnsupportedFormat, bitDepth)
	}

	channels := clip.Channels()
	if channels < 1 || clip.SampleRate <= 0 {
		return fmt.Errorf("wav clip must have channels and a sample rate: %d ch, %d Hz", channels, clip.SampleRate)
	}

	frames := clip.Frames()
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  clip.SampleRate,
		},
		Data:           make([]int, frames*channels),
		SourceBitDepth: bitDepth,
	}

	full := math.Ldexp(1, bitDepth-1) - 1
	for c, ch := range clip.Samples {
		for i, v := range ch[:frames] {
			buf.Data[i*channels+c] = int(math.Round(math.Max(-1, math.Min(1, v)) * full))
		}
	}

	enc := wav.NewEncoder(w, clip.SampleRate, bitDepth, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wav write: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("wav close: %w", err)
	}

	return nil
}
