package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// EnsureChannels returns channels planar buffers of frames samples each,
// reusing bufs and their backing arrays where capacity allows.
func EnsureChannels(bufs [][]float64, channels, frames int) [][]float64 {
	if channels <= 0 {
		return bufs[:0]
	}
	if cap(bufs) >= channels {
		bufs = bufs[:channels]
	} else {
		grown := make([][]float64, channels)
		copy(grown, bufs)
		bufs = grown
	}
	for c := range bufs {
		bufs[c] = EnsureLen(bufs[c], frames)
	}
	return bufs
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n
}
