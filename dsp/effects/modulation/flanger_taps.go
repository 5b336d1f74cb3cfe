package modulation

// flangerCenterVariance places the sweep so that it starts at delayMs and
// never exceeds maxDelayMs.
func flangerCenterVariance(delayMs, depth, maxDelayMs float64) (center, variance float64) {
	variance = (maxDelayMs - delayMs) * depth / 2
	center = delayMs + variance
	return center, variance
}

// flangerTap converts a swept delay into a read position in samples.
func flangerTap(center, variance, lfoValue, samplesPerMillisecond float64) float64 {
	return (center + lfoValue*variance) * samplesPerMillisecond
}

// nextTaps returns the even and odd channel taps for the current frame and
// advances the LFO. Without odd90 both taps are equal.
func (f *Flanger) nextTaps(odd90 bool, center, variance float64) (evenTap, oddTap float64) {
	evenTap = flangerTap(center, variance, f.lfo.Value(), f.samplesPerMillisecond)
	oddTap = evenTap

	if odd90 {
		oddTap = flangerTap(center, variance, f.lfo.QuadPhaseValue(), f.samplesPerMillisecond)
	}

	f.lfo.Increment()

	return evenTap, oddTap
}
