package rsp

import (
	"errors"
	"testing"
)

func TestParseDevice(t *testing.T) {
	for want, name := range deviceNames {
		got, err := ParseDevice(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if got != want {
			t.Errorf("parse %q = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseDevice("awr1843boost"); err == nil {
		t.Error("lowercase name accepted")
	}
}

// channelTensor builds a (1, 1, tx, rx, 1) tensor where each channel
// holds the value 100*tx + rx + 1, so mapped positions are traceable.
func channelTensor(tx, rx int) *Tensor {
	t := NewTensor(1, 1, tx, rx, 1)
	for i := 0; i < tx; i++ {
		for j := 0; j < rx; j++ {
			t.Set(complex(float64(100*i+j+1), 0), 0, 0, i, j, 0)
		}
	}
	return t
}

func TestVirtualArrayAOP(t *testing.T) {
	out, err := AWR1843AOP.virtualArray(channelTensor(3, 4))
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if out.Shape[2] != 4 || out.Shape[3] != 3 {
		t.Fatalf("shape = %v, want elevation 4, azimuth 3", out.Shape)
	}
	// The grid is the transpose of the channel matrix.
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			want := complex(float64(100*i+j+1), 0)
			if got := out.At(0, 0, j, i, 0); got != want {
				t.Errorf("out[%d][%d] = %v, want %v", j, i, got, want)
			}
		}
	}
}

func TestVirtualArrayBoost(t *testing.T) {
	out, err := AWR1843Boost.virtualArray(channelTensor(3, 4))
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if out.Shape[2] != 2 || out.Shape[3] != 8 {
		t.Fatalf("shape = %v, want elevation 2, azimuth 8", out.Shape)
	}
	// Bottom row: TX0 then TX2; top row: TX1 offset by two positions.
	for rx := 0; rx < 4; rx++ {
		if got := out.At(0, 0, 1, rx, 0); got != complex(float64(rx+1), 0) {
			t.Errorf("bottom[%d] = %v", rx, got)
		}
		if got := out.At(0, 0, 1, 4+rx, 0); got != complex(float64(200+rx+1), 0) {
			t.Errorf("bottom[%d] = %v", 4+rx, got)
		}
		if got := out.At(0, 0, 0, 2+rx, 0); got != complex(float64(100+rx+1), 0) {
			t.Errorf("top[%d] = %v", 2+rx, got)
		}
	}
	// Unfilled corners stay zero.
	for _, az := range []int{0, 1, 6, 7} {
		if got := out.At(0, 0, 0, az, 0); got != 0 {
			t.Errorf("top[%d] = %v, want 0", az, got)
		}
	}
}

func TestVirtualArray1642(t *testing.T) {
	out, err := AWR1642Boost.virtualArray(channelTensor(2, 4))
	if err != nil {
		t.Fatalf("map 2 TX: %v", err)
	}
	if out.Shape[2] != 1 || out.Shape[3] != 8 {
		t.Fatalf("shape = %v, want elevation 1, azimuth 8", out.Shape)
	}
	for rx := 0; rx < 4; rx++ {
		if got := out.At(0, 0, 0, rx, 0); got != complex(float64(rx+1), 0) {
			t.Errorf("az[%d] = %v", rx, got)
		}
		if got := out.At(0, 0, 0, 4+rx, 0); got != complex(float64(100+rx+1), 0) {
			t.Errorf("az[%d] = %v", 4+rx, got)
		}
	}

	// A three-TX capture skips the elevation transmitter.
	out, err = AWR1642Boost.virtualArray(channelTensor(3, 4))
	if err != nil {
		t.Fatalf("map 3 TX: %v", err)
	}
	for rx := 0; rx < 4; rx++ {
		if got := out.At(0, 0, 0, 4+rx, 0); got != complex(float64(200+rx+1), 0) {
			t.Errorf("az[%d] = %v, want TX2 channel", 4+rx, got)
		}
	}
}

func TestVirtualArray2944(t *testing.T) {
	out, err := AWR2944EVM.virtualArray(channelTensor(4, 4))
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if out.Shape[2] != 2 || out.Shape[3] != 12 {
		t.Fatalf("shape = %v, want elevation 2, azimuth 12", out.Shape)
	}
	for rx := 0; rx < 4; rx++ {
		if got := out.At(0, 0, 1, rx, 0); got != complex(float64(rx+1), 0) {
			t.Errorf("bottom[%d] = %v", rx, got)
		}
		if got := out.At(0, 0, 1, 4+rx, 0); got != complex(float64(200+rx+1), 0) {
			t.Errorf("bottom[%d] = %v", 4+rx, got)
		}
		if got := out.At(0, 0, 1, 8+rx, 0); got != complex(float64(300+rx+1), 0) {
			t.Errorf("bottom[%d] = %v", 8+rx, got)
		}
		if got := out.At(0, 0, 0, 2+rx, 0); got != complex(float64(100+rx+1), 0) {
			t.Errorf("top[%d] = %v", 2+rx, got)
		}
	}
}

func TestVirtualArray6844(t *testing.T) {
	out, err := AWRL6844EVM.virtualArray(channelTensor(4, 4))
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	if out.Shape[2] != 4 || out.Shape[3] != 4 {
		t.Fatalf("shape = %v, want 4x4", out.Shape)
	}
	for el := 0; el < 4; el++ {
		for az := 0; az < 4; az++ {
			ch := complex(float64(100*awrl6844TX[el][az]+awrl6844RX[el][az]+1), 0)
			want := complex(awrl6844Phase[el][az], 0) * ch
			if got := out.At(0, 0, el, az, 0); got != want {
				t.Errorf("out[%d][%d] = %v, want %v", el, az, got, want)
			}
		}
	}
}

func TestVirtualArrayShapeError(t *testing.T) {
	cases := []struct {
		device Device
		tx, rx int
	}{
		{AWR1843Boost, 2, 4},
		{AWR1843AOP, 3, 3},
		{AWR1642Boost, 4, 4},
		{AWR2944EVM, 3, 4},
		{AWRL6844EVM, 4, 2},
	}
	for _, c := range cases {
		_, err := c.device.virtualArray(channelTensor(c.tx, c.rx))
		var serr *ShapeError
		if !errors.As(err, &serr) {
			t.Errorf("%s %dx%d: error = %v, want ShapeError", c.device, c.tx, c.rx, err)
			continue
		}
		if serr.TX != c.tx || serr.RX != c.rx {
			t.Errorf("%s: reported %dx%d, want %dx%d", c.device, serr.TX, serr.RX, c.tx, c.rx)
		}
	}
}
