package signal

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-flanger/dsp/core"
)

func TestSineLength(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(48000))
	s, err := g.Sine(1000, 1, 64)
	if err != nil {
		t.Fatalf("Sine() error = %v", err)
	}
	if len(s) != 64 {
		t.Fatalf("len = %d, want 64", len(s))
	}
}

func TestWhiteNoiseDeterministic(t *testing.T) {
	g1 := NewGeneratorWithOptions(nil, WithSeed(42))
	g2 := NewGeneratorWithOptions(nil, WithSeed(42))

	n1, err := g1.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}
	n2, err := g2.WhiteNoise(1, 16)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	for i := range n1 {
		if n1[i] != n2[i] {
			t.Fatalf("noise mismatch at %d: %v != %v", i, n1[i], n2[i])
		}
		if math.Abs(n1[i]) > 1 {
			t.Fatalf("noise sample %d out of range: %v", i, n1[i])
		}
	}
}

func TestSetSeed(t *testing.T) {
	g := NewGenerator()
	g.SetSeed(99)
	if g.Seed() != 99 {
		t.Fatalf("Seed()=%d, want 99", g.Seed())
	}

	a, err := g.WhiteNoise(1, 8)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}
	g.SetSeed(100)
	b, err := g.WhiteNoise(1, 8)
	if err != nil {
		t.Fatalf("WhiteNoise() error = %v", err)
	}

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize([]float64{0.5, -2, 1}, 1)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if Peak(out) != 1 || out[0] != 0.25 {
		t.Fatalf("Normalize() = %v", out)
	}

	silent, err := Normalize([]float64{0, 0}, 1)
	if err != nil || silent[0] != 0 {
		t.Fatalf("Normalize(silence) = %v, %v", silent, err)
	}

	if _, err := Normalize(nil, 1); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := Normalize([]float64{1}, -1); err == nil {
		t.Fatal("expected error for negative peak")
	}
}

func TestImpulseAndStep(t *testing.T) {
	g := NewGenerator()

	imp, err := g.Impulse(0.5, 4, 1)
	if err != nil {
		t.Fatalf("Impulse() error = %v", err)
	}
	want := []float64{0, 0.5, 0, 0}
	for i := range want {
		if imp[i] != want[i] {
			t.Fatalf("Impulse()[%d] = %g, want %g", i, imp[i], want[i])
		}
	}

	step, err := g.Step(2, 4, 2)
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	want = []float64{0, 0, 2, 2}
	for i := range want {
		if step[i] != want[i] {
			t.Fatalf("Step()[%d] = %g, want %g", i, step[i], want[i])
		}
	}

	if _, err := g.Impulse(1, 4, 4); err == nil {
		t.Fatal("expected error for impulse past end")
	}
	if _, err := g.Step(1, 0, 0); err == nil {
		t.Fatal("expected error for empty step")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"sine", KindSine},
		{"Noise", KindNoise},
		{"IMPULSE", KindImpulse},
		{"step", KindStep},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.name)
		if err != nil {
			t.Fatalf("ParseKind(%q) error = %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("ParseKind(%q) = %v, want %v", tt.name, got, tt.want)
		}
		if got.String() != kindNames[tt.want] {
			t.Fatalf("String() = %q", got.String())
		}
	}

	if _, err := ParseKind("square"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if Kind(9).String() != "Kind(9)" {
		t.Fatalf("unknown String() = %q", Kind(9).String())
	}
}

func TestGenerateDispatch(t *testing.T) {
	g := NewGenerator(core.WithSampleRate(1000))

	for _, kind := range []Kind{KindSine, KindNoise, KindImpulse, KindStep} {
		out, err := g.Generate(kind, 100, 1, 32)
		if err != nil {
			t.Fatalf("Generate(%v) error = %v", kind, err)
		}
		if len(out) != 32 {
			t.Fatalf("Generate(%v) len = %d", kind, len(out))
		}
	}

	if _, err := g.Generate(Kind(-1), 100, 1, 32); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
