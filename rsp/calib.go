package rsp

import (
	"fmt"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Spectrum is a dense row-major real tensor of spectrum magnitudes.
type Spectrum struct {
	Shape []int
	Data  []float64
}

// Calibrator removes the static zero-Doppler response (antenna coupling
// and stationary clutter picked up with an empty scene) from processed
// spectra. Fit it once on a background capture, then apply it to live
// frames.
type Calibrator struct {
	pipe *Pipeline

	// patch holds median magnitudes for doppler bins [lo, hi), laid out
	// as (hi-lo) x inner where inner is the elevation*azimuth*range
	// block of one doppler bin.
	patch  []float64
	lo, hi int
	inner  int
}

// NewCalibrator wraps a pipeline. The calibrator is unusable until
// Calibrate has run.
func NewCalibrator(p *Pipeline) *Calibrator {
	return &Calibrator{pipe: p}
}

// Calibrate processes a background batch and records the per-bin median
// magnitude of the zero-Doppler slice. Doppler windowing leaks the
// static response into the neighboring bins, so the slice widens to
// three bins when the doppler window is on.
func (c *Calibrator) Calibrate(batch *Tensor) error {
	out, err := c.pipe.Process(batch)
	if err != nil {
		return err
	}
	b, dop := out.Shape[0], out.Shape[1]
	if b < 1 {
		return fmt.Errorf("rsp: calibration needs at least one frame")
	}

	zero := dop / 2
	lo, hi := zero, zero+1
	if c.pipe.opts.Window.Doppler {
		lo, hi = zero-1, zero+2
	}
	if lo < 0 || hi > dop {
		return fmt.Errorf("rsp: doppler axis of %d bins too short for calibration", dop)
	}

	inner := sizeOf(out.Shape[2:])
	patch := make([]float64, (hi-lo)*inner)
	mags := make([]float64, b)
	for d := lo; d < hi; d++ {
		for j := 0; j < inner; j++ {
			for bi := 0; bi < b; bi++ {
				mags[bi] = cmplx.Abs(out.Data[(bi*dop+d)*inner+j])
			}
			sort.Float64s(mags)
			patch[(d-lo)*inner+j] = stat.Quantile(0.5, stat.LinInterp, mags, nil)
		}
	}

	c.patch, c.lo, c.hi, c.inner = patch, lo, hi, inner
	return nil
}

// Calibrated reports whether a background fit is loaded.
func (c *Calibrator) Calibrated() bool { return c.patch != nil }

// Process runs the pipeline and returns the magnitude spectrum with the
// calibration patch subtracted from the zero-Doppler slice, clipped at
// zero so subtraction never creates negative power.
func (c *Calibrator) Process(t *Tensor) (*Spectrum, error) {
	out, err := c.pipe.Process(t)
	if err != nil {
		return nil, err
	}
	spec := &Spectrum{
		Shape: append([]int(nil), out.Shape...),
		Data:  make([]float64, len(out.Data)),
	}
	for i, v := range out.Data {
		spec.Data[i] = cmplx.Abs(v)
	}
	if c.patch == nil {
		return spec, nil
	}

	b, dop := out.Shape[0], out.Shape[1]
	inner := sizeOf(out.Shape[2:])
	if inner != c.inner || c.hi > dop {
		return nil, fmt.Errorf("rsp: calibration fit for a different spectrum shape")
	}
	for bi := 0; bi < b; bi++ {
		for d := c.lo; d < c.hi; d++ {
			base := (bi*dop + d) * inner
			row := c.patch[(d-c.lo)*inner:]
			for j := 0; j < inner; j++ {
				v := spec.Data[base+j] - row[j]
				if v < 0 {
					v = 0
				}
				spec.Data[base+j] = v
			}
		}
	}
	return spec, nil
}
