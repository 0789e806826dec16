package rsp

import "fmt"

// DeinterleaveIIQQ converts the DCA1000's IIQQ sample stream to complex
// samples. The capture card emits two in-phase values followed by their
// two quadrature values, so samples arrive as I0 I1 Q0 Q1.
func DeinterleaveIIQQ(iiqq []int16) ([]complex128, error) {
	if len(iiqq)%4 != 0 {
		return nil, fmt.Errorf("rsp: IIQQ stream length %d is not a multiple of 4", len(iiqq))
	}
	out := make([]complex128, len(iiqq)/2)
	for k := 0; k < len(iiqq)/4; k++ {
		out[2*k] = complex(float64(iiqq[4*k]), float64(iiqq[4*k+2]))
		out[2*k+1] = complex(float64(iiqq[4*k+1]), float64(iiqq[4*k+3]))
	}
	return out, nil
}

// InterleaveIIQQ is the inverse of DeinterleaveIIQQ. Components are
// truncated to int16, so it is only a faithful inverse for samples in
// the ADC's range.
func InterleaveIIQQ(samples []complex128) ([]int16, error) {
	if len(samples)%2 != 0 {
		return nil, fmt.Errorf("rsp: sample count %d is not a multiple of 2", len(samples))
	}
	out := make([]int16, len(samples)*2)
	for k := 0; k < len(samples)/2; k++ {
		out[4*k] = int16(real(samples[2*k]))
		out[4*k+1] = int16(real(samples[2*k+1]))
		out[4*k+2] = int16(imag(samples[2*k]))
		out[4*k+3] = int16(imag(samples[2*k+1]))
	}
	return out, nil
}

// BytesToSamples reinterprets a little-endian capture frame as int16
// samples.
func BytesToSamples(raw []byte) ([]int16, error) {
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("rsp: frame length %d is not a multiple of 2", len(raw))
	}
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return out, nil
}
