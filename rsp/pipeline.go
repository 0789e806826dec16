package rsp

import "fmt"

// elevationSpacing is the AWR2944EVM's elevation element pitch in
// wavelengths; its two rows sit 0.8 lambda apart, too coarse for the
// FFT's half-wavelength grid, so elevation uses a direct transform.
const elevationSpacing = 0.8

// Window selects which processing axes are windowed before their
// transform. Windowing trades resolution for sidelobe suppression.
type Window struct {
	Range     bool
	Doppler   bool
	Azimuth   bool
	Elevation bool
}

// Sizes zero-pads (or truncates) each axis to the given transform length.
// Zero leaves an axis at its natural length.
type Sizes struct {
	Range     int
	Doppler   int
	Azimuth   int
	Elevation int
}

// Options configures a Pipeline. The zero value computes unwindowed,
// unpadded spectra with the FFT backend.
type Options struct {
	Window  Window
	Size    Sizes
	Backend Backend
}

// Pipeline converts raw radar frames into 4D spectra. Input tensors are
// (batch, doppler, tx, rx, range) in chirp order; output tensors are
// (batch, doppler, elevation, azimuth, range) spectra with doppler,
// azimuth and (where transformed) elevation axes centered on zero.
type Pipeline struct {
	device  Device
	opts    Options
	backend Backend
}

// New builds a pipeline for the given device.
func New(device Device, opts Options) *Pipeline {
	backend := opts.Backend
	if backend == nil {
		backend = NewBackendFFT()
	}
	return &Pipeline{device: device, opts: opts, backend: backend}
}

// Device returns the board the pipeline was built for.
func (p *Pipeline) Device() Device { return p.device }

// Process transforms one batch of frames.
func (p *Pipeline) Process(t *Tensor) (*Tensor, error) {
	if len(t.Shape) != 5 {
		return nil, fmt.Errorf("rsp: expected a 5D (batch, doppler, tx, rx, range) tensor, got shape %v", t.Shape)
	}
	// Windowing scales lanes in place; work on a copy so callers can
	// reuse their input.
	if p.opts.Window != (Window{}) {
		t = t.clone()
	}
	t = p.dopplerRange(t)
	return p.elevationAzimuth(t)
}

// ProcessRaw de-interleaves an IIQQ capture into the given logical shape
// and processes it.
func (p *Pipeline) ProcessRaw(iiqq []int16, shape []int) (*Tensor, error) {
	samples, err := DeinterleaveIIQQ(iiqq)
	if err != nil {
		return nil, err
	}
	if len(samples) != sizeOf(shape) {
		return nil, fmt.Errorf("rsp: %d samples do not fill shape %v", len(samples), shape)
	}
	return p.Process(&Tensor{Shape: shape, Data: samples})
}

// dopplerRange windows, pads and transforms the range (axis 4) and
// doppler (axis 1) axes. Only the doppler axis is shifted; range bins
// are naturally one-sided.
func (p *Pipeline) dopplerRange(t *Tensor) *Tensor {
	if p.opts.Window.Range {
		t.scaleAxis(4, hann(t.Shape[4]))
	}
	if p.opts.Window.Doppler {
		t.scaleAxis(1, hann(t.Shape[1]))
	}
	if p.opts.Size.Range > 0 {
		t = t.padAxis(4, p.opts.Size.Range)
	}
	if p.opts.Size.Doppler > 0 {
		t = t.padAxis(1, p.opts.Size.Doppler)
	}
	if p.device.realSamples() {
		t = p.backend.RealFFT(t, 4)
	} else {
		t = p.backend.FFT(t, 4)
	}
	t = p.backend.FFT(t, 1)
	t.shiftAxis(1)
	return t
}

// elevationAzimuth synthesizes the virtual array and transforms the
// angular axes (elevation 2, azimuth 3).
func (p *Pipeline) elevationAzimuth(t *Tensor) (*Tensor, error) {
	t, err := p.device.virtualArray(t)
	if err != nil {
		return nil, err
	}
	if p.opts.Window.Elevation {
		t.scaleAxis(2, hann(t.Shape[2]))
	}
	if p.opts.Window.Azimuth {
		t.scaleAxis(3, hann(t.Shape[3]))
	}
	if p.opts.Size.Azimuth > 0 {
		t = t.padAxis(3, p.opts.Size.Azimuth)
	}
	t = p.backend.FFT(t, 3)
	t.shiftAxis(3)

	if p.device == AWR2944EVM {
		t = dtftAxis(t, 2, p.opts.Size.Elevation, elevationSpacing)
		return t, nil
	}
	if p.opts.Size.Elevation > 0 {
		t = t.padAxis(2, p.opts.Size.Elevation)
	}
	t = p.backend.FFT(t, 2)
	t.shiftAxis(2)
	return t, nil
}
