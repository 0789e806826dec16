// Package rsp turns raw radar ADC captures into range, Doppler, azimuth
// and elevation spectra.
package rsp

import "fmt"

// Tensor is a dense row-major complex tensor.
type Tensor struct {
	Shape []int
	Data  []complex128
}

// NewTensor allocates a zero tensor with the given shape.
func NewTensor(shape ...int) *Tensor {
	return &Tensor{Shape: shape, Data: make([]complex128, sizeOf(shape))}
}

func sizeOf(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

// Size is the number of elements.
func (t *Tensor) Size() int { return sizeOf(t.Shape) }

func (t *Tensor) clone() *Tensor {
	return &Tensor{
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]complex128(nil), t.Data...),
	}
}

// At returns the element at the given multi-index.
func (t *Tensor) At(idx ...int) complex128 {
	return t.Data[t.offset(idx)]
}

// Set assigns the element at the given multi-index.
func (t *Tensor) Set(v complex128, idx ...int) {
	t.Data[t.offset(idx)] = v
}

func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("rsp: index rank %d against shape %v", len(idx), t.Shape))
	}
	off := 0
	for i, v := range idx {
		off = off*t.Shape[i] + v
	}
	return off
}

// strides describes the iteration space of one axis: outer lanes before
// it, its length, and the inner stride after it. Element (o, k, i) lives
// at (o*n+k)*inner + i.
func (t *Tensor) strides(axis int) (outer, n, inner int) {
	outer, n, inner = 1, t.Shape[axis], 1
	for _, s := range t.Shape[:axis] {
		outer *= s
	}
	for _, s := range t.Shape[axis+1:] {
		inner *= s
	}
	return outer, n, inner
}

// scaleAxis multiplies every lane along axis element-wise by w, in place.
// len(w) must equal the axis length.
func (t *Tensor) scaleAxis(axis int, w []float64) {
	outer, n, inner := t.strides(axis)
	for o := 0; o < outer; o++ {
		for k := 0; k < n; k++ {
			base := (o*n + k) * inner
			c := complex(w[k], 0)
			for i := base; i < base+inner; i++ {
				t.Data[i] *= c
			}
		}
	}
}

// padAxis returns a tensor whose axis is resized to size, zero-extending
// or truncating. The input is returned unchanged when the size matches.
func (t *Tensor) padAxis(axis, size int) *Tensor {
	outer, n, inner := t.strides(axis)
	if size == n {
		return t
	}
	shape := append([]int(nil), t.Shape...)
	shape[axis] = size
	out := NewTensor(shape...)
	keep := n
	if size < keep {
		keep = size
	}
	for o := 0; o < outer; o++ {
		for k := 0; k < keep; k++ {
			src := (o*n + k) * inner
			dst := (o*size + k) * inner
			copy(out.Data[dst:dst+inner], t.Data[src:src+inner])
		}
	}
	return out
}

// shiftAxis rotates each lane along axis so the zero-frequency bin moves
// to the center, in place. Handles odd lengths the same way a spectrum
// shift does: index k takes the value from (k + n - n/2) mod n.
func (t *Tensor) shiftAxis(axis int) {
	outer, n, inner := t.strides(axis)
	if n < 2 {
		return
	}
	lane := make([]complex128, n)
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			for k := 0; k < n; k++ {
				lane[k] = t.Data[(o*n+k)*inner+i]
			}
			for k := 0; k < n; k++ {
				t.Data[(o*n+k)*inner+i] = lane[(k+n-n/2)%n]
			}
		}
	}
}

// mapAxis applies f to each lane along axis and reassembles the result
// into a tensor whose axis has len(f(lane)) elements. f must return the
// same length for every lane.
func (t *Tensor) mapAxis(axis int, f func(lane []complex128) []complex128) *Tensor {
	outer, n, inner := t.strides(axis)
	lane := make([]complex128, n)

	var out *Tensor
	m := 0
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			for k := 0; k < n; k++ {
				lane[k] = t.Data[(o*n+k)*inner+i]
			}
			res := f(lane)
			if out == nil {
				m = len(res)
				shape := append([]int(nil), t.Shape...)
				shape[axis] = m
				out = NewTensor(shape...)
			}
			for k := 0; k < m; k++ {
				out.Data[(o*m+k)*inner+i] = res[k]
			}
		}
	}
	if out == nil {
		shape := append([]int(nil), t.Shape...)
		return NewTensor(shape...)
	}
	return out
}
