package dca

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/radarlab/goxwr/logging"
)

// maxPacketSize bounds a single datagram on either socket.
const maxPacketSize = 2048

// fpgaReadyRetries is how many aliveness pings to attempt after CONFIG_FPGA,
// which leaves the FPGA deaf to requests for a short time.
const fpgaReadyRetries = 30

// Client talks to a DCA1000EVM capture card over its UDP control and data
// ports.
type Client struct {
	cfg      Config
	log      logging.Logger
	fpgaAddr *net.UDPAddr

	configConn *net.UDPConn
	dataConn   *net.UDPConn
	dataRaw    syscall.RawConn
}

// Dial binds the control and data sockets and returns a client. No traffic
// is exchanged until a command is sent; use Setup to configure the card.
func Dial(cfg Config, log logging.Logger) (*Client, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logging.Default()
	}

	fpgaIP := net.ParseIP(cfg.FPGAIP)
	if fpgaIP == nil {
		return nil, protocolErrorf("invalid FPGA IP %q", cfg.FPGAIP)
	}
	sysIP := net.ParseIP(cfg.SysIP)
	if sysIP == nil {
		return nil, protocolErrorf("invalid system IP %q", cfg.SysIP)
	}

	configConn, err := net.ListenUDP("udp4",
		&net.UDPAddr{IP: sysIP, Port: cfg.ConfigPort})
	if err != nil {
		return nil, fmt.Errorf("bind config socket: %w", err)
	}
	dataConn, err := net.ListenUDP("udp4",
		&net.UDPAddr{IP: sysIP, Port: cfg.DataPort})
	if err != nil {
		configConn.Close()
		return nil, fmt.Errorf("bind data socket: %w", err)
	}
	if err := dataConn.SetReadBuffer(cfg.SocketBuffer); err != nil {
		log.Warn("set data socket buffer",
			logging.Field{Key: "err", Value: err})
	}
	dataRaw, err := dataConn.SyscallConn()
	if err != nil {
		configConn.Close()
		dataConn.Close()
		return nil, fmt.Errorf("data socket raw access: %w", err)
	}

	log.Info("capture card sockets bound",
		logging.Field{Key: "config", Value: fmt.Sprintf("%s:%d", cfg.SysIP, cfg.ConfigPort)},
		logging.Field{Key: "data", Value: fmt.Sprintf("%s:%d", cfg.SysIP, cfg.DataPort)})

	return &Client{
		cfg:        cfg,
		log:        log,
		fpgaAddr:   &net.UDPAddr{IP: fpgaIP, Port: cfg.ConfigPort},
		configConn: configConn,
		dataConn:   dataConn,
		dataRaw:    dataRaw,
	}, nil
}

// Close releases both sockets.
func (c *Client) Close() error {
	err := c.configConn.Close()
	if derr := c.dataConn.Close(); err == nil {
		err = derr
	}
	return err
}

// request sends a config command and waits for its response. When desc is
// non-empty the response status is checked and a non-zero status becomes a
// DeviceError.
func (c *Client) request(cmd Command, payload []byte, desc string) (Response, error) {
	raw, err := Request{Cmd: cmd, Data: payload}.MarshalBinary()
	if err != nil {
		return Response{}, err
	}
	if _, err := c.configConn.WriteToUDP(raw, c.fpgaAddr); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", cmd, err)
	}
	c.log.Debug("sent config request", logging.Field{Key: "cmd", Value: cmd})

	if err := c.configConn.SetReadDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
		return Response{}, fmt.Errorf("arm config deadline: %w", err)
	}
	buf := make([]byte, maxPacketSize)
	n, _, err := c.configConn.ReadFromUDP(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return Response{}, fmt.Errorf("%s: %w", cmd, ErrTimeout)
		}
		return Response{}, fmt.Errorf("receive %s response: %w", cmd, err)
	}
	resp, err := ParseResponse(buf[:n])
	if err != nil {
		return Response{}, err
	}
	c.log.Debug("received config response",
		logging.Field{Key: "cmd", Value: resp.Cmd},
		logging.Field{Key: "status", Value: resp.Status})

	if desc != "" {
		if resp.Status != 0 {
			return resp, &DeviceError{Cmd: cmd, Status: resp.Status}
		}
		c.log.Info(desc, logging.Field{Key: "cmd", Value: cmd})
	}
	return resp, nil
}

// SystemAliveness pings the FPGA to verify connectivity.
func (c *Client) SystemAliveness() error {
	_, err := c.request(CmdSystemAliveness, nil, "verified FPGA connectivity")
	return err
}

// ResetARDevice reboots the attached radar (AR - automotive radar) device
// through the capture card. This is the recovery path of last resort: it
// works even when the radar's own control link has stopped responding.
func (c *Client) ResetARDevice() error {
	_, err := c.request(CmdResetARDevice, nil, "reset AR device")
	return err
}

// ResetFPGA resets the capture card FPGA itself.
func (c *Client) ResetFPGA() error {
	_, err := c.request(CmdResetFPGA, nil, "reset FPGA")
	return err
}

// Start begins recording data to the data port.
func (c *Client) Start() error {
	_, err := c.request(CmdStartRecord, nil, "started recording")
	return err
}

// Stop halts recording. Safe to call when the card is already stopped.
func (c *Client) Stop() error {
	_, err := c.request(CmdStopRecord, nil, "stopped recording")
	return err
}

// ReadFPGAVersion queries the FPGA firmware version. The version is packed
// into the response status: bits 0-6 major, 7-13 minor, bit 14 set when the
// card is flashed with the playback firmware.
func (c *Client) ReadFPGAVersion() (major, minor int, playback bool, err error) {
	resp, err := c.request(CmdReadFPGAVersion, nil, "")
	if err != nil {
		return 0, 0, false, err
	}
	major = int(resp.Status & 0x7F)
	minor = int((resp.Status >> 7) & 0x7F)
	playback = resp.Status&0x4000 != 0
	c.log.Info("FPGA version",
		logging.Field{Key: "major", Value: major},
		logging.Field{Key: "minor", Value: minor},
		logging.Field{Key: "playback", Value: playback})
	return major, minor, playback, nil
}

// ConfigureRecord programs the data packet size and inter-packet delay.
// The delay must be between 5 and 500 microseconds, which bounds the
// theoretical throughput between roughly 700 and 20 Mbps.
func (c *Client) ConfigureRecord(delay float64) error {
	if delay < 5.0 || delay > 500.0 {
		return protocolErrorf(
			"packet delay %vus out of range [5, 500]", delay)
	}
	converted := uint16(delay * fpgaClkConversionFactor / fpgaClkPeriodNanoSec)
	payload := make([]byte, 0, 6)
	payload = appendUint16(payload, MaxBytesPerPacket)
	payload = appendUint16(payload, converted)
	payload = appendUint16(payload, 0)
	_, err := c.request(CmdConfigRecord, payload, "configured recording")
	return err
}

// ConfigureFPGA sets the data path modes. The FPGA ignores requests for a
// short window afterwards, so this pings it until it answers again.
func (c *Client) ConfigureFPGA(logMode LogMode, lvds LVDSMode, transfer TransferMode, format DataFormat, capture CaptureMode) error {
	c.log.Info("configuring FPGA",
		logging.Field{Key: "log", Value: uint8(logMode)},
		logging.Field{Key: "lvds", Value: uint8(lvds)},
		logging.Field{Key: "transfer", Value: uint8(transfer)},
		logging.Field{Key: "format", Value: uint8(format)},
		logging.Field{Key: "capture", Value: uint8(capture)})

	payload := []byte{
		byte(logMode), byte(lvds), byte(transfer),
		byte(capture), byte(format), fpgaConfigTimer,
	}
	if _, err := c.request(CmdConfigFPGA, payload, "configured FPGA"); err != nil {
		return err
	}

	ping := func() error {
		err := c.SystemAliveness()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTimeout) {
			return err
		}
		return backoff.Permanent(err)
	}
	policy := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(100*time.Millisecond), fpgaReadyRetries)
	if err := backoff.Retry(ping, policy); err != nil {
		return fmt.Errorf("FPGA stopped responding after configuring: %w", err)
	}
	return nil
}

// ConfigureEEPROM reprograms the card's persistent IP, MAC, and port
// assignment. This should never be needed in normal operation; a botched
// write requires the hard-coded IP switch to recover.
func (c *Client) ConfigureEEPROM(sysIP, fpgaIP, fpgaMAC string, configPort, dataPort uint16) error {
	sys, err := parseIPv4(sysIP)
	if err != nil {
		return err
	}
	fpga, err := parseIPv4(fpgaIP)
	if err != nil {
		return err
	}
	mac, err := parseMAC(fpgaMAC)
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 18)
	payload = append(payload, sys[:]...)
	payload = append(payload, fpga[:]...)
	payload = append(payload, mac[:]...)
	payload = appendUint16(payload, configPort)
	payload = appendUint16(payload, dataPort)
	_, err = c.request(CmdConfigEEPROM, payload, "configured EEPROM")
	return err
}

// Setup runs the standard bring-up sequence: connectivity check, version
// query, record timing, and FPGA data path configuration for raw 16-bit
// ethernet streaming.
func (c *Client) Setup(delay float64, lvds LVDSMode) error {
	if err := c.SystemAliveness(); err != nil {
		return err
	}
	if _, _, _, err := c.ReadFPGAVersion(); err != nil {
		return err
	}
	if err := c.ConfigureRecord(delay); err != nil {
		return err
	}
	return c.ConfigureFPGA(
		RawMode, lvds, TransferCapture, Format16Bit, CaptureEthStream)
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}
