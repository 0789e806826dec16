package goxwr

import (
	"errors"
	"testing"
	"time"

	"github.com/radarlab/goxwr/dca"
	"github.com/radarlab/goxwr/radar"
)

// recorder collects the call order across the mock devices.
type recorder struct {
	calls []string
}

func (r *recorder) note(name string) { r.calls = append(r.calls, name) }

type mockCard struct {
	rec    *recorder
	frames []dca.RadarFrame
	fail   map[string]error
}

func (m *mockCard) call(name string) error {
	m.rec.note(name)
	return m.fail[name]
}

func (m *mockCard) Start() error         { return m.call("card.start") }
func (m *mockCard) Stop() error          { return m.call("card.stop") }
func (m *mockCard) ResetARDevice() error { return m.call("card.reset") }
func (m *mockCard) Flush() error         { return m.call("card.flush") }

func (m *mockCard) Stream(frameSize int) FrameSource {
	m.rec.note("card.stream")
	return &sliceSource{frames: m.frames}
}

type sliceSource struct {
	frames []dca.RadarFrame
}

func (s *sliceSource) Next() (dca.RadarFrame, bool) {
	if len(s.frames) == 0 {
		return dca.RadarFrame{}, false
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, true
}

type mockController struct {
	rec  *recorder
	fail map[string]error
}

func (m *mockController) call(name string) error {
	m.rec.note(name)
	return m.fail[name]
}

func (m *mockController) Setup(radar.Config) error { return m.call("radar.setup") }
func (m *mockController) Start() error             { return m.call("radar.start") }
func (m *mockController) Stop() error              { return m.call("radar.stop") }

func testSystem(frames []dca.RadarFrame) (*System, *recorder, *mockCard, *mockController) {
	rec := &recorder{}
	card := &mockCard{rec: rec, frames: frames, fail: map[string]error{}}
	ctrl := &mockController{rec: rec, fail: map[string]error{}}
	cfg := &Config{
		Device: "AWR1843Boost",
		Radar: radar.Config{
			Frequency:    77,
			IdleTime:     10,
			ADCStartTime: 6,
			RampEndTime:  63.14,
			FreqSlope:    63.343,
			ADCSamples:   256,
			SampleRate:   5000,
			FrameLength:  64,
			FramePeriod:  100,
			NumTX:        3,
			NumRX:        4,
		},
		Capture: dca.DefaultConfig(),
	}
	return NewSystem(cfg, card, ctrl, nil), rec, card, ctrl
}

func frames(n int) []dca.RadarFrame {
	out := make([]dca.RadarFrame, n)
	for i := range out {
		out[i] = dca.RadarFrame{
			Timestamp: time.Unix(int64(i), 0),
			Data:      []byte{byte(i)},
			Complete:  true,
		}
	}
	return out
}

func TestSystemStreamOrdering(t *testing.T) {
	sys, rec, _, _ := testSystem(frames(1))

	if sys.State() != StateIdle {
		t.Fatalf("initial state = %v", sys.State())
	}
	src, err := sys.Stream()
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if sys.State() != StateStreaming {
		t.Errorf("state = %v, want streaming", sys.State())
	}
	if _, ok := src.Next(); !ok {
		t.Error("no frame from source")
	}

	// The capture card must be listening before the radar chirps.
	want := []string{
		"card.stop", "card.reset", "card.flush", "card.start",
		"radar.setup", "radar.start", "card.stream",
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q", i, rec.calls[i], want[i])
		}
	}
}

func TestSystemStreamWhileStreaming(t *testing.T) {
	sys, _, _, _ := testSystem(nil)
	if _, err := sys.Stream(); err != nil {
		t.Fatalf("first stream: %v", err)
	}
	if _, err := sys.Stream(); err == nil {
		t.Fatal("second stream while streaming succeeded")
	}
}

func TestSystemStreamFailureResetsState(t *testing.T) {
	sys, _, _, ctrl := testSystem(nil)
	ctrl.fail["radar.start"] = errors.New("sensor fault")

	if _, err := sys.Stream(); err == nil {
		t.Fatal("expected stream error")
	}
	if sys.State() != StateIdle {
		t.Errorf("state after failure = %v, want idle", sys.State())
	}
	// A failed attempt must not wedge the system.
	if _, err := sys.Stream(); err == nil {
		t.Fatal("expected repeat failure, got success")
	}
	ctrl.fail = map[string]error{}
	if _, err := sys.Stream(); err != nil {
		t.Fatalf("stream after recovery: %v", err)
	}
}

func TestSystemStopCardBeforeRadar(t *testing.T) {
	sys, rec, _, ctrl := testSystem(nil)
	if _, err := sys.Stream(); err != nil {
		t.Fatalf("stream: %v", err)
	}
	ctrl.fail["radar.stop"] = errors.New("console hung")

	err := sys.Stop()
	if err == nil {
		t.Fatal("expected radar stop error to surface")
	}
	if sys.State() != StateIdle {
		t.Errorf("state = %v, want idle", sys.State())
	}

	// The card is stopped and reset before the serial link is touched,
	// so a hung radar console cannot delay the card path.
	tail := rec.calls[len(rec.calls)-3:]
	if tail[0] != "card.stop" || tail[1] != "card.reset" || tail[2] != "radar.stop" {
		t.Errorf("final calls = %v, want card stop, card reset, radar stop", tail)
	}
}

func TestQStreamDeliversAndCloses(t *testing.T) {
	sys, _, _, _ := testSystem(frames(5))
	ch, err := sys.QStream(2)
	if err != nil {
		t.Fatalf("qstream: %v", err)
	}
	got := 0
	for f := range ch {
		if int(f.Data[0]) != got {
			t.Errorf("frame %d carries payload %d", got, f.Data[0])
		}
		got++
	}
	if got != 5 {
		t.Errorf("received %d frames, want 5", got)
	}
}

func TestDStreamDropsStale(t *testing.T) {
	sys, _, _, _ := testSystem(frames(10))
	src, err := sys.DStream(10)
	if err != nil {
		t.Fatalf("dstream: %v", err)
	}

	// Each Next returns the newest buffered frame, so payloads must be
	// strictly increasing and end at the final frame.
	deadline := time.Now().Add(time.Second)
	prev := -1
	last := -1
	for {
		f, ok := src.Next()
		if !ok {
			break
		}
		if int(f.Data[0]) <= prev {
			t.Fatalf("frame %d delivered after frame %d", f.Data[0], prev)
		}
		prev = int(f.Data[0])
		last = prev
		if time.Now().After(deadline) {
			t.Fatal("drain did not finish")
		}
	}
	if last != 9 {
		t.Errorf("last frame payload = %d, want 9", last)
	}
}
