package time_test

import (
	"fmt"

	"github.com/cwbudde/algo-flanger/dsp/bus"
	timestats "github.com/cwbudde/algo-flanger/stats/time"
)

func ExampleCalculate() {
	s := timestats.Calculate([]float64{1, -1, 1, -1})
	fmt.Printf("rms=%.1f zc=%d\n", s.RMS, s.ZeroCrossings)

	// Output:
	// rms=1.0 zc=3
}

func ExampleCalculatePlanar() {
	s := timestats.CalculatePlanar(bus.Buffers{{0.5, -0.5}, {0.25, 0.25}})
	fmt.Printf("len=%d peak=%.2f dc=%.3f\n", s.Length, s.Peak, s.DC)

	// Output:
	// len=4 peak=0.50 dc=0.125
}
