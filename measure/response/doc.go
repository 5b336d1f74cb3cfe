// Package response measures the frequency response of a block effect kernel.
//
// Measure feeds a unit impulse through the kernel, transforms the result with
// an FFT and locates comb-filter notches. ExpectedNotches gives the analytic
// notch positions of a static flanger for comparison.
package response
