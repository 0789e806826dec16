package rsp

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"
)

func TestHannUnitMean(t *testing.T) {
	for _, n := range []int{1, 2, 3, 8, 64, 255} {
		w := hann(n)
		sum := 0.0
		for _, v := range w {
			sum += v
			if v <= 0 {
				t.Errorf("n=%d: non-positive weight %v", n, v)
			}
		}
		if mean := sum / float64(n); math.Abs(mean-1) > 1e-12 {
			t.Errorf("n=%d: mean = %v, want 1", n, mean)
		}
	}
}

func TestHannSymmetric(t *testing.T) {
	w := hann(16)
	for i := range w {
		if d := w[i] - w[len(w)-1-i]; math.Abs(d) > 1e-12 {
			t.Errorf("asymmetry at %d: %v", i, d)
		}
	}
	// The window must taper toward the edges without reaching zero.
	if w[0] >= w[8] {
		t.Errorf("edge %v not below center %v", w[0], w[8])
	}
}

func TestShiftAxis(t *testing.T) {
	even := &Tensor{Shape: []int{4}, Data: []complex128{0, 1, 2, 3}}
	even.shiftAxis(0)
	for i, want := range []complex128{2, 3, 0, 1} {
		if even.Data[i] != want {
			t.Errorf("even[%d] = %v, want %v", i, even.Data[i], want)
		}
	}

	odd := &Tensor{Shape: []int{5}, Data: []complex128{0, 1, 2, 3, 4}}
	odd.shiftAxis(0)
	for i, want := range []complex128{3, 4, 0, 1, 2} {
		if odd.Data[i] != want {
			t.Errorf("odd[%d] = %v, want %v", i, odd.Data[i], want)
		}
	}
}

func TestPadAxis(t *testing.T) {
	in := &Tensor{Shape: []int{2, 3}, Data: []complex128{1, 2, 3, 4, 5, 6}}
	out := in.padAxis(1, 5)
	if out.Shape[1] != 5 {
		t.Fatalf("shape = %v", out.Shape)
	}
	want := []complex128{1, 2, 3, 0, 0, 4, 5, 6, 0, 0}
	for i := range want {
		if out.Data[i] != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, out.Data[i], want[i])
		}
	}

	trunc := in.padAxis(1, 2)
	want = []complex128{1, 2, 4, 5}
	for i := range want {
		if trunc.Data[i] != want[i] {
			t.Errorf("truncated[%d] = %v, want %v", i, trunc.Data[i], want[i])
		}
	}

	if same := in.padAxis(1, 3); same != in {
		t.Error("no-op pad copied the tensor")
	}
}

func TestFFTSingleTone(t *testing.T) {
	const n = 32
	const bin = 5
	in := NewTensor(n)
	for i := 0; i < n; i++ {
		phi := 2 * math.Pi * bin * float64(i) / n
		in.Data[i] = cmplx.Exp(complex(0, phi))
	}
	out := NewBackendFFT().FFT(in, 0)
	for k := 0; k < n; k++ {
		mag := cmplx.Abs(out.Data[k])
		if k == bin && math.Abs(mag-n) > 1e-9 {
			t.Errorf("bin %d magnitude = %v, want %v", k, mag, n)
		}
		if k != bin && mag > 1e-9 {
			t.Errorf("bin %d magnitude = %v, want 0", k, mag)
		}
	}
}

func randomTensor(rng *rand.Rand, shape ...int) *Tensor {
	t := NewTensor(shape...)
	for i := range t.Data {
		t.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return t
}

func maxDiff(a, b *Tensor) float64 {
	d := 0.0
	for i := range a.Data {
		if v := cmplx.Abs(a.Data[i] - b.Data[i]); v > d {
			d = v
		}
	}
	return d
}

// TestBackendsAgree checks the FFT backend against direct summation on
// every axis of a small multidimensional tensor.
func TestBackendsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	in := randomTensor(rng, 2, 8, 2, 4, 16)
	fft := NewBackendFFT()
	dft := BackendDFT{}
	for axis := 0; axis < 5; axis++ {
		a := fft.FFT(in, axis)
		b := dft.FFT(in, axis)
		if len(a.Data) != len(b.Data) {
			t.Fatalf("axis %d: size mismatch %v vs %v", axis, a.Shape, b.Shape)
		}
		if d := maxDiff(a, b); d > 1e-4 {
			t.Errorf("axis %d: backends disagree by %v", axis, d)
		}
	}
}

func TestRealBackendsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	in := randomTensor(rng, 3, 16)
	a := NewBackendFFT().RealFFT(in, 1)
	b := BackendDFT{}.RealFFT(in, 1)
	if a.Shape[1] != 9 || b.Shape[1] != 9 {
		t.Fatalf("shapes = %v, %v, want axis length 9", a.Shape, b.Shape)
	}
	if d := maxDiff(a, b); d > 1e-4 {
		t.Errorf("backends disagree by %v", d)
	}
}

func TestFFTPlanReuse(t *testing.T) {
	b := NewBackendFFT()
	in := NewTensor(8)
	in.Data[0] = 1
	b.FFT(in, 0)
	b.FFT(in, 0)
	if len(b.cmplx) != 1 {
		t.Errorf("plan cache has %d entries, want 1", len(b.cmplx))
	}
}

func TestDTFTMatchesFFTGrid(t *testing.T) {
	// On a half-wavelength array with as many output points as inputs,
	// the DTFT evaluates the same frequencies as a shifted FFT, only on
	// an inclusive [-1, 1] grid instead of the FFT's half-open one. A
	// single-element lane must be passed through unchanged (up to the
	// steering phase at u=-1, which is 1 for element 0).
	in := &Tensor{Shape: []int{1}, Data: []complex128{3 + 4i}}
	out := dtftAxis(in, 0, 0, 0.5)
	if out.Shape[0] != 1 || out.Data[0] != 3+4i {
		t.Errorf("single element DTFT = %v %v", out.Shape, out.Data)
	}
}

func TestDTFTOutputSize(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	in := randomTensor(rng, 2, 2, 8)
	out := dtftAxis(in, 1, 7, 0.8)
	if out.Shape[0] != 2 || out.Shape[1] != 7 || out.Shape[2] != 8 {
		t.Fatalf("shape = %v, want [2 7 8]", out.Shape)
	}
	// A zero input stays zero.
	zero := NewTensor(2, 2, 8)
	if d := maxDiff(dtftAxis(zero, 1, 7, 0.8), NewTensor(2, 7, 8)); d != 0 {
		t.Errorf("zero input produced non-zero output: %v", d)
	}
}
