package rsp

import "fmt"

// Device identifies a supported radar evaluation board. The device
// determines how the TX/RX channel grid maps onto the physical virtual
// antenna array.
type Device int

const (
	AWR1843Boost Device = iota
	AWR1843AOP
	AWR1642Boost
	AWR2944EVM
	AWRL6844EVM
)

var deviceNames = map[Device]string{
	AWR1843Boost: "AWR1843Boost",
	AWR1843AOP:   "AWR1843AOP",
	AWR1642Boost: "AWR1642Boost",
	AWR2944EVM:   "AWR2944EVM",
	AWRL6844EVM:  "AWRL6844EVM",
}

func (d Device) String() string {
	if s, ok := deviceNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Device(%d)", int(d))
}

// ParseDevice resolves a device name; matching is exact.
func ParseDevice(s string) (Device, error) {
	for d, name := range deviceNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("rsp: unknown device %q", s)
}

// realSamples reports whether the device streams real-only ADC samples,
// which halves the usable range spectrum.
func (d Device) realSamples() bool {
	return d == AWR2944EVM || d == AWRL6844EVM
}

// ShapeError reports a channel grid that does not match the device's
// antenna layout.
type ShapeError struct {
	Device Device
	WantTX int
	WantRX int
	TX     int
	RX     int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("rsp: %s expected (tx, rx)=%dx%d, got tx=%d and rx=%d",
		e.Device, e.WantTX, e.WantRX, e.TX, e.RX)
}

// virtualArray rearranges a (batch, doppler, tx, rx, range) tensor into
// the device's (batch, doppler, elevation, azimuth, range) virtual array.
// Positions without a physical virtual antenna stay zero.
func (d Device) virtualArray(t *Tensor) (*Tensor, error) {
	if len(t.Shape) != 5 {
		return nil, fmt.Errorf("rsp: virtual array needs a 5D tensor, got shape %v", t.Shape)
	}
	tx, rx := t.Shape[2], t.Shape[3]
	switch d {
	case AWR1843AOP:
		if tx != 3 || rx != 4 {
			return nil, &ShapeError{Device: d, WantTX: 3, WantRX: 4, TX: tx, RX: rx}
		}
		return aopArray(t), nil
	case AWR1843Boost:
		if tx != 3 || rx != 4 {
			return nil, &ShapeError{Device: d, WantTX: 3, WantRX: 4, TX: tx, RX: rx}
		}
		return boostArray(t), nil
	case AWR1642Boost:
		if (tx != 2 && tx != 3) || rx != 4 {
			return nil, &ShapeError{Device: d, WantTX: 2, WantRX: 4, TX: tx, RX: rx}
		}
		return awr1642Array(t), nil
	case AWR2944EVM:
		if tx != 4 || rx != 4 {
			return nil, &ShapeError{Device: d, WantTX: 4, WantRX: 4, TX: tx, RX: rx}
		}
		return awr2944Array(t), nil
	case AWRL6844EVM:
		if tx != 4 || rx != 4 {
			return nil, &ShapeError{Device: d, WantTX: 4, WantRX: 4, TX: tx, RX: rx}
		}
		return awrl6844Array(t), nil
	default:
		return nil, fmt.Errorf("rsp: no virtual array mapping for %s", d)
	}
}

// copyChannel copies the range lane of input channel (tx, rx) into output
// position (el, az), scaled by phase, for every batch and doppler bin.
func copyChannel(out, in *Tensor, el, az, tx, rx int, phase float64) {
	b, dop, r := in.Shape[0], in.Shape[1], in.Shape[4]
	inTX, inRX := in.Shape[2], in.Shape[3]
	outEl, outAz := out.Shape[2], out.Shape[3]
	p := complex(phase, 0)
	for bi := 0; bi < b; bi++ {
		for di := 0; di < dop; di++ {
			src := (((bi*dop+di)*inTX+tx)*inRX + rx) * r
			dst := (((bi*dop+di)*outEl+el)*outAz + az) * r
			if phase == 1 {
				copy(out.Data[dst:dst+r], in.Data[src:src+r])
				continue
			}
			for k := 0; k < r; k++ {
				out.Data[dst+k] = p * in.Data[src+k]
			}
		}
	}
}

// aopArray maps the AWR1843AOP's square 3x4 patch antenna: TX index runs
// along azimuth and RX along elevation, so the grid is transposed.
func aopArray(t *Tensor) *Tensor {
	out := NewTensor(t.Shape[0], t.Shape[1], 4, 3, t.Shape[4])
	for tx := 0; tx < 3; tx++ {
		for rx := 0; rx < 4; rx++ {
			copyChannel(out, t, rx, tx, tx, rx, 1)
		}
	}
	return out
}

// boostArray maps the AWR1843Boost: TX0 and TX2 form a contiguous
// 8-element azimuth row, while TX1 sits half a wavelength higher,
// offset by two positions.
func boostArray(t *Tensor) *Tensor {
	out := NewTensor(t.Shape[0], t.Shape[1], 2, 8, t.Shape[4])
	for rx := 0; rx < 4; rx++ {
		copyChannel(out, t, 0, 2+rx, 1, rx, 1)
		copyChannel(out, t, 1, rx, 0, rx, 1)
		copyChannel(out, t, 1, 4+rx, 2, rx, 1)
	}
	return out
}

// awr1642Array maps the AWR1642Boost's azimuth-only pair of TX antennas.
// A three-TX capture reuses the AWR1843Boost chirp order, so the middle
// (elevation) transmitter is skipped.
func awr1642Array(t *Tensor) *Tensor {
	out := NewTensor(t.Shape[0], t.Shape[1], 1, 8, t.Shape[4])
	tx0, tx1 := 0, 1
	if t.Shape[2] == 3 {
		tx1 = 2
	}
	for rx := 0; rx < 4; rx++ {
		copyChannel(out, t, 0, rx, tx0, rx, 1)
		copyChannel(out, t, 0, 4+rx, tx1, rx, 1)
	}
	return out
}

// awr2944Array maps the AWR2944EVM: three TX form a 12-element azimuth
// row and TX1 repeats above it with a two-position offset.
func awr2944Array(t *Tensor) *Tensor {
	out := NewTensor(t.Shape[0], t.Shape[1], 2, 12, t.Shape[4])
	for rx := 0; rx < 4; rx++ {
		copyChannel(out, t, 0, 2+rx, 1, rx, 1)
		copyChannel(out, t, 1, rx, 0, rx, 1)
		copyChannel(out, t, 1, 4+rx, 2, rx, 1)
		copyChannel(out, t, 1, 8+rx, 3, rx, 1)
	}
	return out
}

// AWRL6844EVM virtual array lookup tables. The board's 4x4 grid
// interleaves TX/RX pairs, and half the elements are captured with an
// inverted phase.
var (
	awrl6844TX = [4][4]int{
		{1, 1, 0, 0},
		{1, 1, 0, 0},
		{2, 2, 3, 3},
		{2, 2, 3, 3},
	}
	awrl6844RX = [4][4]int{
		{0, 3, 0, 3},
		{1, 2, 1, 2},
		{0, 3, 0, 3},
		{1, 2, 1, 2},
	}
	awrl6844Phase = [4][4]float64{
		{-1, -1, 1, 1},
		{-1, -1, 1, 1},
		{1, 1, -1, -1},
		{1, 1, -1, -1},
	}
)

func awrl6844Array(t *Tensor) *Tensor {
	out := NewTensor(t.Shape[0], t.Shape[1], 4, 4, t.Shape[4])
	for el := 0; el < 4; el++ {
		for az := 0; az < 4; az++ {
			copyChannel(out, t, el, az,
				awrl6844TX[el][az], awrl6844RX[el][az], awrl6844Phase[el][az])
		}
	}
	return out
}
