package rsp

import "math"

// hann returns an n-point window taken from the interior of an
// (n+2)-point Hann window, so no sample is zeroed, normalized to unit
// mean so windowing preserves the average signal power.
func hann(n int) []float64 {
	w := make([]float64, n)
	sum := 0.0
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i+1)/float64(n+1))
		sum += w[i]
	}
	mean := sum / float64(n)
	for i := range w {
		w[i] /= mean
	}
	return w
}
