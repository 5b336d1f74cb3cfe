// Package cpu reports the SIMD extensions available to the vector kernels
// behind the spectrum and buffer helpers.
package cpu

import (
	"log/slog"
	"strings"
	"sync"
)

// SIMDLevel is an instruction set extension level.
type SIMDLevel int

const (
	SIMDNone SIMDLevel = iota
	SIMDSSE2
	SIMDAVX
	SIMDAVX2
	SIMDAVX512
	SIMDNEON
)

func (s SIMDLevel) String() string {
	switch s {
	case SIMDNone:
		return "None"
	case SIMDSSE2:
		return "SSE2"
	case SIMDAVX:
		return "AVX"
	case SIMDAVX2:
		return "AVX2"
	case SIMDAVX512:
		return "AVX-512"
	case SIMDNEON:
		return "NEON"
	default:
		return "Unknown"
	}
}

// Features describes CPU capabilities.
type Features struct {
	HasSSE2   bool
	HasAVX    bool
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool

	Architecture string // runtime.GOARCH
}

// Best returns the most capable level the features support.
func (f Features) Best() SIMDLevel {
	switch {
	case f.HasAVX512:
		return SIMDAVX512
	case f.HasAVX2:
		return SIMDAVX2
	case f.HasAVX:
		return SIMDAVX
	case f.HasSSE2:
		return SIMDSSE2
	case f.HasNEON:
		return SIMDNEON
	default:
		return SIMDNone
	}
}

// Supports reports whether level can run on these features.
func (f Features) Supports(level SIMDLevel) bool {
	switch level {
	case SIMDNone:
		return true
	case SIMDSSE2:
		return f.HasSSE2
	case SIMDAVX:
		return f.HasAVX
	case SIMDAVX2:
		return f.HasAVX2
	case SIMDAVX512:
		return f.HasAVX512
	case SIMDNEON:
		return f.HasNEON
	default:
		return false
	}
}

// String lists the supported levels, e.g. "amd64: SSE2 AVX AVX2".
func (f Features) String() string {
	var b strings.Builder
	b.WriteString(f.Architecture)
	b.WriteString(":")

	n := 0
	for level := SIMDSSE2; level <= SIMDNEON; level++ {
		if f.Supports(level) {
			b.WriteString(" ")
			b.WriteString(level.String())
			n++
		}
	}
	if n == 0 {
		b.WriteString(" ")
		b.WriteString(SIMDNone.String())
	}

	return b.String()
}

// LogValue implements slog.LogValuer.
func (f Features) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("arch", f.Architecture),
		slog.String("best", f.Best().String()),
	)
}

var detect = sync.OnceValue(detectFeaturesImpl)

// DetectFeatures returns the features of the running CPU. Detection runs once.
func DetectFeatures() Features {
	return detect()
}
