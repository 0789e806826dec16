package dca

import "errors"

// Stream is a pull iterator over reassembled radar frames. It ends when no
// data packet arrives within the configured timeout, which is how a stopped
// capture card announces itself; that is normal termination, not an error.
type Stream struct {
	client *Client
	r      *Reassembler
	buf    []byte

	pending []RadarFrame
	done    bool
	err     error
}

// Stream starts pulling frames of frameSize bytes from the data socket.
// Start the capture card (and then the radar) before consuming frames.
func (c *Client) Stream(frameSize int) *Stream {
	return &Stream{
		client: c,
		r:      NewReassembler(frameSize, c.log),
		buf:    make([]byte, maxPacketSize),
	}
}

// Next returns the next frame. ok is false once the stream has ended.
func (s *Stream) Next() (frame RadarFrame, ok bool) {
	for {
		if len(s.pending) > 0 {
			frame = s.pending[0]
			s.pending = s.pending[1:]
			return frame, true
		}
		if s.done {
			return RadarFrame{}, false
		}
		pkt, err := s.client.recvPacket(s.buf)
		if err != nil {
			s.done = true
			if !errors.Is(err, ErrTimeout) {
				s.err = err
			}
			return RadarFrame{}, false
		}
		s.pending = s.r.Push(pkt)
	}
}

// Err reports a socket or decode failure that ended the stream early.
// A timeout (the normal end of stream) leaves Err nil.
func (s *Stream) Err() error { return s.err }

// Anomalies returns the stream's out-of-order packet count.
func (s *Stream) Anomalies() int { return s.r.Anomalies() }
