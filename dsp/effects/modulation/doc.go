// Package modulation provides the realtime flanger kernel.
//
// Flanger mixes every channel with a copy of itself read from a per-channel
// delay line. A shared triangle LFO sweeps the read position between the
// nominal delay and the configured maximum. Odd channels can read a quarter
// cycle ahead for a wide stereo image, and the feedback path can be inverted.
//
// Rendering runs in one of two regimes: single-frame calls follow per-frame
// parameter ramps, while larger blocks hold each parameter at its final value.
package modulation
