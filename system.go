package goxwr

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/radarlab/goxwr/dca"
	"github.com/radarlab/goxwr/logging"
	"github.com/radarlab/goxwr/radar"
)

// FrameSource yields reassembled radar frames until the capture ends.
type FrameSource interface {
	// Next blocks for the next frame. ok is false once the capture has
	// timed out or failed.
	Next() (dca.RadarFrame, bool)
}

// CaptureCard is the capture side of the system. *dca.Client satisfies
// it through NewCaptureCard.
type CaptureCard interface {
	Start() error
	Stop() error
	ResetARDevice() error
	Flush() error
	Stream(frameSize int) FrameSource
}

type captureCard struct {
	*dca.Client
}

// NewCaptureCard adapts a capture card client for a System.
func NewCaptureCard(c *dca.Client) CaptureCard {
	return captureCard{c}
}

func (c captureCard) Stream(frameSize int) FrameSource {
	return c.Client.Stream(frameSize)
}

// State is the capture lifecycle phase of a System.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateStreaming
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// System drives a radar and its capture card through a capture session.
// The capture card must already be configured (see dca.Client.Setup);
// the radar is configured during Stream.
type System struct {
	cfg   *Config
	card  CaptureCard
	radar radar.Controller
	log   logging.Logger

	state atomic.Int32
}

// NewSystem assembles a system from its parts.
func NewSystem(cfg *Config, card CaptureCard, ctrl radar.Controller, log logging.Logger) *System {
	if log == nil {
		log = logging.Default()
	}
	return &System{cfg: cfg, card: card, radar: ctrl, log: log}
}

// State returns the current lifecycle phase.
func (s *System) State() State {
	return State(s.state.Load())
}

// Stream starts a capture and returns its frame source. The capture
// card listens before the radar chirps so no frame start is missed:
// the card is stopped, reset and flushed to clear stale state, started,
// and only then is the radar configured and started.
func (s *System) Stream() (FrameSource, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return nil, fmt.Errorf("stream: system is %s, want idle", s.State())
	}
	s.logStatistics()

	// A failed StopRecord just means no capture was running.
	if err := s.card.Stop(); err != nil {
		s.log.Debug("capture card was not recording", logging.Field{Key: "error", Value: err})
	}
	if err := s.card.ResetARDevice(); err != nil {
		return nil, s.fail(fmt.Errorf("stream: reset radar: %w", err))
	}
	if err := s.card.Flush(); err != nil {
		return nil, s.fail(fmt.Errorf("stream: flush data socket: %w", err))
	}
	if err := s.card.Start(); err != nil {
		return nil, s.fail(fmt.Errorf("stream: start capture: %w", err))
	}
	if err := s.radar.Setup(s.cfg.Radar); err != nil {
		return nil, s.fail(fmt.Errorf("stream: configure radar: %w", err))
	}
	if err := s.radar.Start(); err != nil {
		return nil, s.fail(fmt.Errorf("stream: start radar: %w", err))
	}

	s.state.Store(int32(StateStreaming))
	s.log.Info("capture started",
		logging.Field{Key: "frame_size", Value: s.cfg.Radar.FrameSize()},
		logging.Field{Key: "fps", Value: s.cfg.Radar.FPS()})
	return s.card.Stream(s.cfg.Radar.FrameSize()), nil
}

func (s *System) fail(err error) error {
	s.state.Store(int32(StateIdle))
	return err
}

// QStream starts a capture and copies its frames into a channel with the
// given buffer depth. The channel is closed when the capture ends; the
// reader goroutine blocks when the buffer is full, so a slow consumer
// backpressures into the socket buffer.
func (s *System) QStream(buffer int) (<-chan dca.RadarFrame, error) {
	src, err := s.Stream()
	if err != nil {
		return nil, err
	}
	ch := make(chan dca.RadarFrame, buffer)
	go func() {
		defer close(ch)
		for {
			frame, ok := src.Next()
			if !ok {
				return
			}
			ch <- frame
		}
	}()
	return ch, nil
}

// DStream starts a capture that drops stale frames: each Next call
// returns the newest frame available, discarding any the consumer fell
// behind on. Suited to live displays where latency beats completeness.
func (s *System) DStream(buffer int) (FrameSource, error) {
	ch, err := s.QStream(buffer)
	if err != nil {
		return nil, err
	}
	return &droppingSource{ch: ch, log: s.log}, nil
}

type droppingSource struct {
	ch  <-chan dca.RadarFrame
	log logging.Logger
}

func (d *droppingSource) Next() (dca.RadarFrame, bool) {
	frame, ok := <-d.ch
	if !ok {
		return dca.RadarFrame{}, false
	}
	dropped := 0
	for {
		select {
		case next, more := <-d.ch:
			if !more {
				if dropped > 0 {
					d.warn(dropped)
				}
				return frame, true
			}
			frame = next
			dropped++
		default:
			if dropped > 0 {
				d.warn(dropped)
			}
			return frame, true
		}
	}
}

func (d *droppingSource) warn(n int) {
	d.log.Warn("dropped stale frames", logging.Field{Key: "count", Value: n})
}

// Stop halts the capture card first and the radar after. The card path
// never waits on the serial link, so a wedged radar cannot leave the
// card recording while sensorStop times out.
func (s *System) Stop() error {
	s.state.Store(int32(StateStopping))
	defer s.state.Store(int32(StateIdle))

	var errs []error
	if err := s.card.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop capture: %w", err))
	}
	if err := s.card.ResetARDevice(); err != nil {
		errs = append(errs, fmt.Errorf("reset radar: %w", err))
	}
	if err := s.radar.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop radar: %w", err))
	}
	if len(errs) == 0 {
		s.log.Info("capture stopped")
	}
	return errors.Join(errs...)
}

// logStatistics sanity-checks the configured timing against the capture
// card's capacity and warns about configurations that will drop data.
func (s *System) logStatistics() {
	radarRate := s.cfg.Radar.Throughput()
	captureRate := s.cfg.Capture.Throughput()
	util := radarRate / captureRate
	s.log.Info("capture statistics",
		logging.Field{Key: "radar_bps", Value: radarRate},
		logging.Field{Key: "capture_bps", Value: captureRate},
		logging.Field{Key: "utilization", Value: util})
	if util > 0.8 {
		s.log.Warn("radar data rate exceeds 80% of capture capacity",
			logging.Field{Key: "utilization", Value: util})
	}

	frameSize := s.cfg.Radar.FrameSize()
	if s.cfg.Capture.SocketBuffer < 2*frameSize {
		s.log.Warn("socket buffer holds less than two frames",
			logging.Field{Key: "socket_buffer", Value: s.cfg.Capture.SocketBuffer},
			logging.Field{Key: "frame_size", Value: frameSize})
	}

	report := s.cfg.Radar.Check()
	if report.DutyCycle > 0.95 {
		s.log.Warn("frame duty cycle above 95%",
			logging.Field{Key: "duty_cycle", Value: report.DutyCycle})
	}
	if report.ExcessRampTime < 0 {
		s.log.Warn("ramp ends before sampling completes",
			logging.Field{Key: "excess_ramp_us", Value: report.ExcessRampTime})
	}
}
