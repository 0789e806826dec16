// Package dca drives the DCA1000EVM capture card over its UDP control and
// data protocols, and reassembles the raw LVDS byte stream into radar frames.
package dca

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Command is a capture card request code; see rf_api.h:CMD_CODE_*.
type Command uint16

const (
	CmdResetFPGA        Command = 0x01
	CmdResetARDevice    Command = 0x02
	CmdConfigFPGA       Command = 0x03
	CmdConfigEEPROM     Command = 0x04
	CmdStartRecord      Command = 0x05
	CmdStopRecord       Command = 0x06
	CmdStartPlayback    Command = 0x07
	CmdStopPlayback     Command = 0x08
	CmdSystemAliveness  Command = 0x09
	CmdAsyncStatus      Command = 0x0A
	CmdConfigRecord     Command = 0x0B
	CmdConfigARDevice   Command = 0x0C
	CmdInitFPGAPlayback Command = 0x0D
	CmdReadFPGAVersion  Command = 0x0E
)

func (c Command) String() string {
	switch c {
	case CmdResetFPGA:
		return "RESET_FPGA"
	case CmdResetARDevice:
		return "RESET_AR_DEV"
	case CmdConfigFPGA:
		return "CONFIG_FPGA"
	case CmdConfigEEPROM:
		return "CONFIG_EEPROM"
	case CmdStartRecord:
		return "START_RECORD"
	case CmdStopRecord:
		return "STOP_RECORD"
	case CmdStartPlayback:
		return "START_PLAYBACK"
	case CmdStopPlayback:
		return "STOP_PLAYBACK"
	case CmdSystemAliveness:
		return "SYSTEM_ALIVENESS"
	case CmdAsyncStatus:
		return "ASYNC_STATUS"
	case CmdConfigRecord:
		return "CONFIG_RECORD"
	case CmdConfigARDevice:
		return "CONFIG_AR_DEV"
	case CmdInitFPGAPlayback:
		return "INIT_FPGA_PLAYBACK"
	case CmdReadFPGAVersion:
		return "READ_FPGA_VERSION"
	default:
		return fmt.Sprintf("CMD(0x%02X)", uint16(c))
	}
}

const (
	headerMagic = 0xA55A
	footerMagic = 0xEEAA

	// maxRequestPayload is the request payload size limit (Sec 5.1 of the
	// DCA1000EVM CLI documentation).
	maxRequestPayload = 504

	// MaxBytesPerPacket is the maximum data payload carried by a single
	// FPGA data packet.
	MaxBytesPerPacket = 1470

	// dataHeaderSize covers the u32 sequence number and 48-bit byte count.
	dataHeaderSize = 10

	responseSize = 8

	// Record packet delay clock conversion: factor 1000 at an 8ns period.
	fpgaClkConversionFactor = 1000
	fpgaClkPeriodNanoSec    = 8

	// fpgaConfigTimer is the LVDS timeout; always 30 (units undocumented).
	fpgaConfigTimer = 30
)

// ProtocolError reports malformed wire data on the capture card protocols.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return "dca: " + e.msg }

func protocolErrorf(format string, args ...any) error {
	return &ProtocolError{msg: fmt.Sprintf(format, args...)}
}

// DeviceError reports a non-zero status returned by the FPGA.
type DeviceError struct {
	Cmd    Command
	Status uint16
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("dca: %s failed (status=%d)", e.Cmd, e.Status)
}

// ErrTimeout signals that no response or data arrived within the configured
// deadline. On the data stream this is the normal termination signal, not a
// failure.
var ErrTimeout = errors.New("dca: timed out")

// LogMode selects the data log mode (rf_api.h:CONFIG_LOG_MODE).
type LogMode uint8

const (
	RawMode   LogMode = 1
	MultiMode LogMode = 2
)

// LVDSMode selects the number of LVDS lanes (rf_api.h:CONFIG_LVDS_MODE).
// The AWR1243/1443 use four lanes; the AWR1642/1843 use two.
type LVDSMode uint8

const (
	FourLane LVDSMode = 1
	TwoLane  LVDSMode = 2
)

// TransferMode selects capture or playback (rf_api.h:CONFIG_TRANSFER_MODE).
type TransferMode uint8

const (
	TransferCapture  TransferMode = 1
	TransferPlayback TransferMode = 2
)

// DataFormat selects the ADC bit depth (rf_api.h:CONFIG_FORMAT_MODE).
type DataFormat uint8

const (
	Format12Bit DataFormat = 1
	Format14Bit DataFormat = 2
	Format16Bit DataFormat = 3
)

// CaptureMode selects SD storage or ethernet streaming
// (rf_api.h:CONFIG_CAPTURE_MODE).
type CaptureMode uint8

const (
	CaptureSDStorage CaptureMode = 1
	CaptureEthStream CaptureMode = 2
)

// Request is a config command sent to the capture card control port.
type Request struct {
	Cmd  Command
	Data []byte
}

// MarshalBinary frames the request as
// header | command | payload length | payload | footer, little endian.
func (r Request) MarshalBinary() ([]byte, error) {
	if len(r.Data) >= maxRequestPayload {
		return nil, protocolErrorf(
			"request payload too large: %d bytes (max %d)",
			len(r.Data), maxRequestPayload-1)
	}
	buf := make([]byte, 0, 8+len(r.Data))
	buf = binary.LittleEndian.AppendUint16(buf, headerMagic)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(r.Cmd))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(r.Data)))
	buf = append(buf, r.Data...)
	buf = binary.LittleEndian.AppendUint16(buf, footerMagic)
	return buf, nil
}

// Response is the fixed-size reply to a config command.
type Response struct {
	Cmd    Command
	Status uint16
}

// ParseResponse decodes a control response, checking the header and footer
// magic values.
func ParseResponse(b []byte) (Response, error) {
	if len(b) != responseSize {
		return Response{}, protocolErrorf(
			"response length %d, want %d", len(b), responseSize)
	}
	header := binary.LittleEndian.Uint16(b[0:2])
	footer := binary.LittleEndian.Uint16(b[6:8])
	if header != headerMagic {
		return Response{}, protocolErrorf(
			"bad response header 0x%04X, want 0x%04X", header, headerMagic)
	}
	if footer != footerMagic {
		return Response{}, protocolErrorf(
			"bad response footer 0x%04X, want 0x%04X", footer, footerMagic)
	}
	return Response{
		Cmd:    Command(binary.LittleEndian.Uint16(b[2:4])),
		Status: binary.LittleEndian.Uint16(b[4:6]),
	}, nil
}

// DataPacket is one datagram from the capture card data port. ByteCount is a
// cumulative byte offset stamped by the FPGA, carried on the wire as a 48-bit
// little-endian integer and zero-extended here.
type DataPacket struct {
	SequenceNumber uint32
	ByteCount      uint64
	Data           []byte
}

// ParseDataPacket decodes a data packet. The payload aliases the input.
func ParseDataPacket(b []byte) (DataPacket, error) {
	if len(b) < dataHeaderSize {
		return DataPacket{}, protocolErrorf(
			"data packet truncated: %d bytes, want at least %d",
			len(b), dataHeaderSize)
	}
	bc := uint64(binary.LittleEndian.Uint32(b[4:8])) |
		uint64(binary.LittleEndian.Uint16(b[8:10]))<<32
	return DataPacket{
		SequenceNumber: binary.LittleEndian.Uint32(b[0:4]),
		ByteCount:      bc,
		Data:           b[dataHeaderSize:],
	}, nil
}

// parseIPv4 packs a dotted-quad address into the byte-reversed order the
// EEPROM config payload expects.
func parseIPv4(s string) ([4]byte, error) {
	var out [4]byte
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return out, protocolErrorf("invalid IPv4 address %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return out, protocolErrorf("invalid IPv4 address %q", s)
		}
		out[3-i] = byte(v)
	}
	return out, nil
}

// parseMAC packs a colon-separated MAC address in byte-reversed order.
func parseMAC(s string) ([6]byte, error) {
	var out [6]byte
	parts := strings.Split(s, ":")
	if len(parts) != 6 {
		return out, protocolErrorf("invalid MAC address %q", s)
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return out, protocolErrorf("invalid MAC address %q", s)
		}
		out[5-i] = byte(v)
	}
	return out, nil
}
