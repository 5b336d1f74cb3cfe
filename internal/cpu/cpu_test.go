package cpu

import (
	"runtime"
	"strings"
	"testing"
)

func TestDetectFeaturesIsStable(t *testing.T) {
	a := DetectFeatures()
	b := DetectFeatures()

	if a != b {
		t.Fatalf("DetectFeatures() changed between calls: %+v vs %+v", a, b)
	}
	if a.Architecture != runtime.GOARCH {
		t.Fatalf("Architecture = %q, want %q", a.Architecture, runtime.GOARCH)
	}
	if !a.Supports(a.Best()) {
		t.Fatalf("Best() = %v is not supported by %+v", a.Best(), a)
	}
}

func TestFeaturesBest(t *testing.T) {
	tests := []struct {
		f    Features
		want SIMDLevel
	}{
		{Features{}, SIMDNone},
		{Features{HasSSE2: true}, SIMDSSE2},
		{Features{HasSSE2: true, HasAVX: true, HasAVX2: true}, SIMDAVX2},
		{Features{HasSSE2: true, HasAVX512: true}, SIMDAVX512},
		{Features{HasNEON: true}, SIMDNEON},
	}

	for _, tt := range tests {
		if got := tt.f.Best(); got != tt.want {
			t.Fatalf("%+v Best() = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestFeaturesString(t *testing.T) {
	f := Features{Architecture: "amd64", HasSSE2: true, HasAVX2: true}
	if got := f.String(); got != "amd64: SSE2 AVX2" {
		t.Fatalf("String() = %q", got)
	}

	generic := Features{Architecture: "riscv64"}
	if got := generic.String(); !strings.HasSuffix(got, "None") {
		t.Fatalf("String() = %q, want None suffix", got)
	}

	if SIMDLevel(42).String() != "Unknown" {
		t.Fatal("unknown level should stringify as Unknown")
	}
}

func TestFeaturesLogValue(t *testing.T) {
	v := Features{Architecture: "arm64", HasNEON: true}.LogValue()

	attrs := v.Group()
	if len(attrs) != 2 || attrs[1].Value.String() != "NEON" {
		t.Fatalf("LogValue() = %v", v)
	}
}
