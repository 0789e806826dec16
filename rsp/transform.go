package rsp

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend computes the Fourier transforms of the pipeline. Implementations
// must agree numerically; BackendDFT exists as a slow reference for
// validating BackendFFT's plan reuse.
type Backend interface {
	// FFT transforms each lane along axis, unnormalized, frequencies in
	// standard order.
	FFT(t *Tensor, axis int) *Tensor
	// RealFFT transforms the real parts of each lane along axis,
	// keeping the n/2+1 non-negative frequencies.
	RealFFT(t *Tensor, axis int) *Tensor
}

// BackendFFT computes transforms with gonum's radix FFT, caching one
// plan per length. The plan cache itself is guarded, but the plans and
// transform scratch are not; goroutines sharing one backend must
// synchronize their calls or use one backend per goroutine.
type BackendFFT struct {
	mu    sync.Mutex
	cmplx map[int]*fourier.CmplxFFT
	real  map[int]*fourier.FFT
}

// NewBackendFFT returns an empty-plan FFT backend.
func NewBackendFFT() *BackendFFT {
	return &BackendFFT{
		cmplx: make(map[int]*fourier.CmplxFFT),
		real:  make(map[int]*fourier.FFT),
	}
}

func (b *BackendFFT) cmplxPlan(n int) *fourier.CmplxFFT {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.cmplx[n]
	if !ok {
		p = fourier.NewCmplxFFT(n)
		b.cmplx[n] = p
	}
	return p
}

func (b *BackendFFT) realPlan(n int) *fourier.FFT {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.real[n]
	if !ok {
		p = fourier.NewFFT(n)
		b.real[n] = p
	}
	return p
}

func (b *BackendFFT) FFT(t *Tensor, axis int) *Tensor {
	n := t.Shape[axis]
	plan := b.cmplxPlan(n)
	dst := make([]complex128, n)
	return t.mapAxis(axis, func(lane []complex128) []complex128 {
		return plan.Coefficients(dst, lane)
	})
}

func (b *BackendFFT) RealFFT(t *Tensor, axis int) *Tensor {
	n := t.Shape[axis]
	plan := b.realPlan(n)
	src := make([]float64, n)
	dst := make([]complex128, n/2+1)
	return t.mapAxis(axis, func(lane []complex128) []complex128 {
		for i, v := range lane {
			src[i] = real(v)
		}
		return plan.Coefficients(dst, src)
	})
}

// BackendDFT computes transforms by direct summation. Quadratic in the
// lane length; intended for tests and tiny inputs only.
type BackendDFT struct{}

func (BackendDFT) FFT(t *Tensor, axis int) *Tensor {
	n := t.Shape[axis]
	dst := make([]complex128, n)
	return t.mapAxis(axis, func(lane []complex128) []complex128 {
		return dft(dst, lane, n)
	})
}

func (BackendDFT) RealFFT(t *Tensor, axis int) *Tensor {
	n := t.Shape[axis]
	src := make([]complex128, n)
	dst := make([]complex128, n/2+1)
	return t.mapAxis(axis, func(lane []complex128) []complex128 {
		for i, v := range lane {
			src[i] = complex(real(v), 0)
		}
		return dft(dst, src, n)
	})
}

func dft(dst, src []complex128, n int) []complex128 {
	for k := range dst {
		var sum complex128
		for j, v := range src {
			phi := -2 * math.Pi * float64(k) * float64(j) / float64(n)
			sum += v * complex(math.Cos(phi), math.Sin(phi))
		}
		dst[k] = sum
	}
	return dst
}

// dtftAxis evaluates the discrete-time Fourier transform of each lane
// along axis at size arbitrary frequencies spanning the full unambiguous
// interval, scaled by spacing. Used for elevation arrays too short and
// irregular for a useful FFT grid.
func dtftAxis(t *Tensor, axis, size int, spacing float64) *Tensor {
	n := t.Shape[axis]
	if size <= 0 {
		size = n
	}
	// Steering vectors for sin-space angles linearly spaced on [-1, 1].
	steer := make([][]complex128, size)
	for k := range steer {
		u := -1.0
		if size > 1 {
			u = -1 + 2*float64(k)/float64(size-1)
		}
		row := make([]complex128, n)
		for j := range row {
			phi := -2 * math.Pi * spacing * u * float64(j)
			row[j] = complex(math.Cos(phi), math.Sin(phi))
		}
		steer[k] = row
	}
	dst := make([]complex128, size)
	return t.mapAxis(axis, func(lane []complex128) []complex128 {
		for k := range dst {
			var sum complex128
			for j, v := range lane {
				sum += v * steer[k][j]
			}
			dst[k] = sum
		}
		return dst
	})
}
