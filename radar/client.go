// Package radar configures and controls TI mmWave radars through the
// demo firmware's serial console.
package radar

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/radarlab/goxwr/logging"
)

const (
	// prompt is printed by the demo firmware when it is ready for the
	// next command.
	prompt = "mmwDemo:/>"

	defaultBaudRate = 115200

	// pollInterval bounds each blocking read so the overall deadline
	// can be checked between chunks.
	pollInterval = 50 * time.Millisecond

	// responseTimeout is the overall per-command deadline.
	responseTimeout = 10 * time.Second
)

// ErrTimeout is returned when the firmware does not answer a command
// within the response deadline.
var ErrTimeout = errors.New("radar: response timed out")

// DeviceError is a non-success response from the firmware console.
type DeviceError struct {
	Cmd     string
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("radar: %q rejected: %s", e.Cmd, e.Message)
}

// Controller drives a radar through its capture lifecycle.
type Controller interface {
	// Setup stages the full chirp configuration on the device.
	Setup(cfg Config) error
	// Start begins chirping.
	Start() error
	// Stop halts chirping.
	Stop() error
}

// Port is the serial transport to the radar console. serial.Port from
// go.bug.st/serial satisfies it.
type Port interface {
	io.ReadWriter
	Close() error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// AWR1843 controls an AWR1843Boost or AWR1843AOP over its user UART.
type AWR1843 struct {
	port Port
	log  logging.Logger
}

// DialOptions tunes the console serial port.
type DialOptions struct {
	// BaudRate defaults to the demo firmware's 115200.
	BaudRate int
	// LowLatency asks the USB serial driver to flush received bytes to
	// userspace immediately instead of batching them on a 16ms timer.
	// Best effort: not every driver supports it.
	LowLatency bool
}

// Dial opens the radar console at the given serial device path.
func Dial(name string, log logging.Logger) (*AWR1843, error) {
	return DialWith(name, DialOptions{}, log)
}

// DialWith opens the radar console with explicit port options.
func DialWith(name string, opts DialOptions, log logging.Logger) (*AWR1843, error) {
	if log == nil {
		log = logging.Default()
	}
	baud := opts.BaudRate
	if baud == 0 {
		baud = defaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("radar: open %s: %w", name, err)
	}
	if opts.LowLatency {
		if err := setLowLatency(name); err != nil {
			log.Warn("low latency mode unsupported",
				logging.Field{Key: "port", Value: name},
				logging.Field{Key: "error", Value: err})
		}
	}
	log.Info("radar console opened",
		logging.Field{Key: "port", Value: name},
		logging.Field{Key: "baud", Value: baud})
	return New(port, log), nil
}

// setLowLatency drops the USB serial latency timer to 1ms through sysfs.
func setLowLatency(name string) error {
	dev := filepath.Base(name)
	attr := filepath.Join("/sys/bus/usb-serial/devices", dev, "latency_timer")
	return os.WriteFile(attr, []byte("1"), 0o644)
}

// New wraps an already open console port.
func New(port Port, log logging.Logger) *AWR1843 {
	if log == nil {
		log = logging.Default()
	}
	return &AWR1843{port: port, log: log}
}

// Close releases the serial port.
func (r *AWR1843) Close() error {
	return r.port.Close()
}

// Send writes a single command and interprets the console's reply. The
// firmware echoes the command, prints zero or more status lines, and ends
// with its prompt; anything other than an acknowledgement is surfaced.
func (r *AWR1843) Send(c Command) error {
	line := c.String()
	if err := r.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("radar: flush input: %w", err)
	}
	if _, err := io.WriteString(r.port, line+"\n"); err != nil {
		return fmt.Errorf("radar: write %q: %w", c.Name, err)
	}

	raw, err := r.readUntilPrompt()
	if err != nil {
		return fmt.Errorf("radar: %q: %w", c.Name, err)
	}
	reply := parseReply(raw, line)

	switch {
	case reply == "Done":
		r.log.Debug("command accepted", logging.Field{Key: "cmd", Value: c.Name})
		return nil
	case strings.HasPrefix(reply, "Ignored"):
		r.log.Warn("command ignored",
			logging.Field{Key: "cmd", Value: c.Name},
			logging.Field{Key: "reply", Value: reply})
		return nil
	case strings.HasPrefix(reply, "Debug"), strings.HasPrefix(reply, "Skipped"):
		if strings.Contains(reply, "Error") {
			r.log.Error("command reported an error",
				logging.Field{Key: "cmd", Value: c.Name},
				logging.Field{Key: "reply", Value: reply})
		}
		return nil
	case strings.Contains(reply, "*****"):
		// Banner printed on the first exchange after boot.
		return nil
	default:
		return &DeviceError{Cmd: line, Message: reply}
	}
}

// readUntilPrompt accumulates console output until the prompt appears or
// the response deadline passes.
func (r *AWR1843) readUntilPrompt() ([]byte, error) {
	if err := r.port.SetReadTimeout(pollInterval); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	chunk := make([]byte, 256)
	deadline := time.Now().Add(responseTimeout)
	for {
		n, err := r.port.Read(chunk)
		if err != nil {
			return nil, err
		}
		buf.Write(chunk[:n])
		if bytes.HasSuffix(bytes.TrimRight(buf.Bytes(), " \r\n\t"), []byte(prompt)) {
			return buf.Bytes(), nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
	}
}

// parseReply strips the echo and prompt from raw console output, leaving
// the firmware's status text.
func parseReply(raw []byte, echoed string) string {
	s := string(raw)
	s = strings.ReplaceAll(s, prompt, "")
	s = strings.ReplaceAll(s, echoed, "")
	return strings.Trim(s, " ;\r\n\t")
}

// Setup stages the capture configuration: stop and flush first so the
// sequence is valid regardless of prior state, then profile, antennas,
// chirps, frame timing and LVDS streaming.
func (r *AWR1843) Setup(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	seq := []Command{
		SensorStop(),
		FlushCfg(),
		DfeDataOutputMode(),
		AdcCfg(),
		AdcbufCfg(),
		ProfileCfg(cfg),
	}

	// The AWR1843 has three TX antennas; TX1 (the middle one) carries
	// the elevation offset. With two TX the outer pair is used so the
	// azimuth array stays uniform.
	switch cfg.NumTX {
	case 2:
		seq = append(seq,
			ChannelCfg(0b1111, 0b101),
			ChirpCfg(0, 0),
			ChirpCfg(1, 2),
		)
	case 3:
		seq = append(seq,
			ChannelCfg(0b1111, 0b111),
			ChirpCfg(0, 0),
			ChirpCfg(1, 1),
			ChirpCfg(2, 2),
		)
	default:
		return fmt.Errorf("radar: AWR1843 supports 2 or 3 TX antennas, got %d", cfg.NumTX)
	}

	seq = append(seq,
		FrameCfg(cfg.NumTX-1, cfg.FrameLength, cfg.FramePeriod),
		CompRangeBiasAndRxChanPhase(12),
		LvdsStreamCfg(),
		LowPower(),
	)
	seq = append(seq, Boilerplate()...)

	for _, c := range seq {
		if err := r.Send(c); err != nil {
			return err
		}
	}
	r.log.Info("radar configured",
		logging.Field{Key: "tx", Value: cfg.NumTX},
		logging.Field{Key: "rx", Value: cfg.NumRX},
		logging.Field{Key: "frame_length", Value: cfg.FrameLength})
	return nil
}

// Start begins chirping.
func (r *AWR1843) Start() error {
	return r.Send(SensorStart())
}

// Stop halts chirping.
func (r *AWR1843) Stop() error {
	return r.Send(SensorStop())
}
