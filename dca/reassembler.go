package dca

import (
	"time"

	"github.com/radarlab/goxwr/logging"
)

// RadarFrame is one frame of raw IIQQ capture data. Data always holds
// exactly the configured frame size; Complete is false when any of those
// bytes were zero-filled to cover dropped packets.
type RadarFrame struct {
	Timestamp time.Time
	Data      []byte
	Complete  bool
}

// anomalyLogLimit caps individual out-of-order warnings so a sustained burst
// of reordering cannot flood the log.
const anomalyLogLimit = 10

// Reassembler turns an unordered, lossy sequence of data packets into
// fixed-size frames. Packets carry a cumulative byte count; gaps are
// zero-filled and packets that land below the expected offset are discarded.
//
// A Reassembler is not safe for concurrent use.
type Reassembler struct {
	frameSize int
	offset    uint64
	buf       []byte
	timestamp time.Time
	filledTo  uint64
	anomalies int

	log logging.Logger
	now func() time.Time
}

// NewReassembler creates a reassembler producing frames of frameSize bytes.
func NewReassembler(frameSize int, log logging.Logger) *Reassembler {
	if log == nil {
		log = logging.Default()
	}
	return &Reassembler{
		frameSize: frameSize,
		log:       log,
		now:       time.Now,
	}
}

// Anomalies returns the number of packets discarded because their byte count
// was below the expected offset.
func (r *Reassembler) Anomalies() int { return r.anomalies }

// Push feeds one packet and returns any frames completed by it, in order.
func (r *Reassembler) Push(p DataPacket) []RadarFrame {
	if r.offset == 0 {
		// Align the expected offset to the frame boundary at or below the
		// first packet seen, so frames line up with the radar's frame stride
		// no matter where in the stream capture began.
		r.offset = p.ByteCount - p.ByteCount%uint64(r.frameSize)
	}
	if len(r.buf) == 0 {
		r.timestamp = r.now()
	}

	if p.ByteCount < r.offset {
		r.warnOutOfOrder(int64(p.ByteCount) - int64(r.offset))
		return nil
	}
	if missing := p.ByteCount - r.offset; missing > 0 {
		r.log.Warn("dropped packets",
			logging.Field{Key: "missing_bytes", Value: missing})
		r.buf = append(r.buf, make([]byte, missing)...)
		r.offset = p.ByteCount
		// Everything below this stream offset may contain zero-filled
		// bytes. Fill regions only grow forward, so a frame is clean
		// exactly when it starts at or past the latest fill end.
		r.filledTo = p.ByteCount
	}
	r.buf = append(r.buf, p.Data...)
	r.offset += uint64(len(p.Data))

	var frames []RadarFrame
	start := r.offset - uint64(len(r.buf))
	for len(r.buf) >= r.frameSize {
		data := make([]byte, r.frameSize)
		copy(data, r.buf)
		frames = append(frames, RadarFrame{
			Timestamp: r.timestamp,
			Data:      data,
			Complete:  start >= r.filledTo,
		})
		r.buf = r.buf[r.frameSize:]
		start += uint64(r.frameSize)
		if len(r.buf) > 0 && len(r.buf) < r.frameSize {
			// The leftover bytes start a new frame arriving now.
			r.timestamp = r.now()
		}
	}
	return frames
}

func (r *Reassembler) warnOutOfOrder(missing int64) {
	r.anomalies++
	if r.anomalies < anomalyLogLimit {
		r.log.Error("out of order packet",
			logging.Field{Key: "missing_bytes", Value: missing})
	} else if r.anomalies == anomalyLogLimit {
		r.log.Error("suppressing further out of order packet warnings")
	}
}
