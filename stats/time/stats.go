// Package time computes time-domain level statistics of rendered audio.
package time

import (
	"math"

	"github.com/cwbudde/algo-flanger/dsp/bus"
	"github.com/cwbudde/algo-flanger/dsp/core"
)

// Stats holds time-domain signal statistics.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max |x|
	Peak_dB        float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
	ZeroCrossings  int
}

// Clipped reports whether any sample exceeds full scale.
func (s Stats) Clipped() bool { return s.Peak > 1 }

func emptyStats() Stats {
	return Stats{
		RMS_dB:         math.Inf(-1),
		Peak_dB:        math.Inf(-1),
		CrestFactor_dB: math.Inf(-1),
	}
}

// Calculate computes the statistics of a single channel in one pass.
func Calculate(signal []float64) Stats {
	acc := accumulator{}
	acc.add(signal)
	return acc.result()
}

// CalculatePlanar pools every channel of buf. Zero crossings are counted
// within each channel.
func CalculatePlanar(buf bus.Buffers) Stats {
	acc := accumulator{}
	for _, ch := range buf {
		acc.add(ch)
	}
	return acc.result()
}

type accumulator struct {
	n         int
	sum, c    float64 // Kahan-compensated sum
	sumSq     float64
	peak      float64
	crossings int
}

func (a *accumulator) add(signal []float64) {
	for i, x := range signal {
		y := x - a.c
		t := a.sum + y
		a.c = (t - a.sum) - y
		a.sum = t

		a.sumSq += x * x
		a.peak = math.Max(a.peak, math.Abs(x))

		if i > 0 && crosses(signal[i-1], x) {
			a.crossings++
		}
	}
	a.n += len(signal)
}

func (a *accumulator) result() Stats {
	if a.n == 0 {
		return emptyStats()
	}

	rms := math.Sqrt(a.sumSq / float64(a.n))
	crest := 0.0
	if rms > 0 {
		crest = a.peak / rms
	}

	return Stats{
		Length:         a.n,
		DC:             a.sum / float64(a.n),
		RMS:            rms,
		RMS_dB:         core.LinearToDB(rms),
		Peak:           a.peak,
		Peak_dB:        core.LinearToDB(a.peak),
		CrestFactor:    crest,
		CrestFactor_dB: core.LinearToDB(crest),
		ZeroCrossings:  a.crossings,
	}
}

func crosses(prev, x float64) bool {
	return (prev >= 0 && x < 0) || (prev < 0 && x >= 0)
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	peak := 0.0
	for _, x := range signal {
		peak = math.Max(peak, math.Abs(x))
	}
	return peak
}

// CrestFactor returns peak / RMS, or 0 for a silent signal.
func CrestFactor(signal []float64) float64 {
	r := RMS(signal)
	if r == 0 {
		return 0
	}

	return Peak(signal) / r
}
