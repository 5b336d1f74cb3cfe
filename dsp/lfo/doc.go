// Package lfo provides a low-frequency oscillator for modulating delay times.
//
// The oscillator keeps a normalized phase in [0, 1) and evaluates its waveform
// on demand, so one LFO can serve several consumers: [LFO.Value] reads the
// current phase and [LFO.QuadPhaseValue] reads a quarter cycle ahead. Advance
// it with [LFO.Increment] exactly once per rendered frame.
//
// The zero value is a triangle LFO with no sample rate; call
// [LFO.SetSampleRate] before use.
package lfo
