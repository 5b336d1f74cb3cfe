// Package param provides the smoothed parameters consumed by realtime kernels.
//
// Control code (UI, automation, tests) writes values from any goroutine with
// Set or through a [Registry]; the write is a single atomic store. The audio
// thread reads through the [Smoothed] contract:
//
//   - FrameValue returns the next step of a linear ramp toward the latest
//     target and is meant to be called once per rendered frame.
//   - FinalValue returns the latest target, ending any ramp in progress, and
//     is stable for the rest of the block.
//
// A kernel picks one of the two per parameter per block. Neither allocates,
// locks or blocks.
package param
