// Package bus connects host audio buffers to block renderers.
//
// Buffers are planar: one []float64 per channel, all of equal length. The
// helpers here convert to and from interleaved host streams and split long
// buffers into host-sized blocks without allocating once set up.
package bus

import (
	"fmt"

	"github.com/cwbudde/algo-flanger/dsp/core"
)

// Renderer is the host-facing contract of a block effect kernel.
type Renderer interface {
	Configure(channelCount int, sampleRate, maxDelayMilliseconds float64) error
	Render(outputBus int, ins, outs [][]float64, frameCount int)
}

// Buffers holds planar sample data, one slice per channel.
type Buffers [][]float64

// NewBuffers allocates channels buffers of frames samples each.
func NewBuffers(channels, frames int) Buffers {
	return Buffers(core.EnsureChannels(nil, channels, frames))
}

// Channels returns the channel count.
func (b Buffers) Channels() int { return len(b) }

// Frames returns the length of the shortest channel.
func (b Buffers) Frames() int {
	if len(b) == 0 {
		return 0
	}
	n := len(b[0])
	for _, ch := range b[1:] {
		if len(ch) < n {
			n = len(ch)
		}
	}
	return n
}

// Zero clears every channel.
func (b Buffers) Zero() {
	for _, ch := range b {
		core.Zero(ch)
	}
}

// View points each channel of dst at b[c][start:start+n]. dst must have
// at least as many channels as b. It does not allocate.
func (b Buffers) View(dst Buffers, start, n int) Buffers {
	dst = dst[:len(b)]
	for c, ch := range b {
		dst[c] = ch[start : start+n]
	}
	return dst
}

// Deinterleave splits an interleaved stream into planar buffers. The frame
// count is limited by both src and dst.
func Deinterleave(dst Buffers, src []float64) int {
	channels := len(dst)
	if channels == 0 {
		return 0
	}
	frames := min(len(src)/channels, dst.Frames())
	for i := 0; i < frames; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			dst[c][i] = src[base+c]
		}
	}
	return frames
}

// Interleave merges planar buffers into an interleaved stream.
func Interleave(dst []float64, src Buffers) int {
	channels := len(src)
	if channels == 0 {
		return 0
	}
	frames := min(len(dst)/channels, src.Frames())
	for i := 0; i < frames; i++ {
		base := i * channels
		for c := 0; c < channels; c++ {
			dst[base+c] = src[c][i]
		}
	}
	return frames
}

// Splitter feeds long buffers to a Renderer in blocks of at most MaxBlock
// frames, reusing its channel views between calls.
type Splitter struct {
	maxBlock int
	inView   Buffers
	outView  Buffers
}

// NewSplitter prepares views for channels channels and blocks of maxBlock frames.
func NewSplitter(channels, maxBlock int) (*Splitter, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("bus channel count must be > 0: %d", channels)
	}
	if maxBlock <= 0 {
		return nil, fmt.Errorf("bus block size must be > 0: %d", maxBlock)
	}
	return &Splitter{
		maxBlock: maxBlock,
		inView:   make(Buffers, channels),
		outView:  make(Buffers, channels),
	}, nil
}

// MaxBlock returns the largest block handed to the renderer.
func (s *Splitter) MaxBlock() int { return s.maxBlock }

// Render processes frames frames of ins into outs, block by block.
// ins and outs must have the channel count the splitter was built for.
func (s *Splitter) Render(r Renderer, outputBus int, ins, outs Buffers, frames int) {
	for start := 0; start < frames; start += s.maxBlock {
		n := min(s.maxBlock, frames-start)
		in := ins.View(s.inView, start, n)
		out := outs.View(s.outView, start, n)
		r.Render(outputBus, in, out, n)
	}
}

// RenderBlocks is a one-shot Splitter.Render for offline use.
func RenderBlocks(r Renderer, outputBus int, ins, outs Buffers, maxBlock int) error {
	s, err := NewSplitter(len(ins), maxBlock)
	if err != nil {
		return err
	}
	if len(outs) != len(ins) {
		return fmt.Errorf("bus channel mismatch: %d inputs, %d outputs", len(ins), len(outs))
	}
	s.Render(r, outputBus, ins, outs, min(ins.Frames(), outs.Frames()))
	return nil
}
