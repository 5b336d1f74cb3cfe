// Package delay provides the circular delay line behind modulated-delay effects.
//
// A [Line] stores the most recent samples written to it and reads them back at
// integer or fractional offsets. Read(1) is the most recently written sample;
// Read(n) is the sample written n writes ago. Fractional reads clamp the
// requested offset to the configured capacity and never fail, which makes them
// safe to drive from an LFO on a realtime thread.
package delay
