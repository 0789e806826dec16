package dca

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// readDatagram reads one datagram from the data socket without ever parking
// the goroutine in the kernel. At full rate the card emits packets at up to
// ~200kHz, so the read path busy-polls the non-blocking socket and tracks
// the deadline itself rather than paying scheduling latency on every
// datagram. Returns ErrTimeout once the deadline passes with nothing read.
func (c *Client) readDatagram(buf []byte, deadline time.Time) (int, error) {
	var n int
	var rerr error
	for {
		cerr := c.dataRaw.Read(func(fd uintptr) bool {
			n, rerr = unix.Read(int(fd), buf)
			// Always report done: the busy loop below owns the waiting.
			return true
		})
		if cerr != nil {
			return 0, fmt.Errorf("data socket read: %w", cerr)
		}
		switch {
		case rerr == nil:
			return n, nil
		case rerr == unix.EAGAIN:
			if time.Now().After(deadline) {
				return 0, ErrTimeout
			}
		default:
			return 0, fmt.Errorf("data socket read: %w", rerr)
		}
	}
}

// recvPacket reads and decodes the next data packet, waiting at most the
// configured timeout measured from the call (i.e. from the last successful
// receipt when called in a loop).
func (c *Client) recvPacket(buf []byte) (DataPacket, error) {
	n, err := c.readDatagram(buf, time.Now().Add(c.cfg.Timeout))
	if err != nil {
		return DataPacket{}, err
	}
	return ParseDataPacket(buf[:n])
}

// Flush drains any stale datagrams buffered on the data socket. Leftover
// packets from a previous capture would corrupt the byte count alignment of
// the next stream.
func (c *Client) Flush() error {
	buf := make([]byte, maxPacketSize)
	for {
		var n int
		var rerr error
		cerr := c.dataRaw.Read(func(fd uintptr) bool {
			n, rerr = unix.Read(int(fd), buf)
			return true
		})
		if cerr != nil {
			return fmt.Errorf("flush data socket: %w", cerr)
		}
		if rerr == unix.EAGAIN || (rerr == nil && n == 0) {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("flush data socket: %w", rerr)
		}
	}
}
