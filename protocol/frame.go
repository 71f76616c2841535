package protocol

// Frame is one decoded frame
type Frame struct {
	Seq     uint8 // low nibble only
	Payload []byte
}

// DecoderStats counts decoder outcomes
type DecoderStats struct {
	Frames  uint64 // valid frames delivered
	Resyncs uint64 // times the stream lost framing
	BadCRC  uint64 // frames rejected on checksum
	SeqGaps uint64 // frames whose sequence skipped ahead
}

// AppendFrame appends a complete frame around payload to dst
func AppendFrame(dst []byte, seq uint8, payload []byte) ([]byte, error) {
	if len(payload) > FramePayloadMax {
		return dst, ErrPayloadTooLarge
	}
	start := len(dst)
	dst = append(dst, byte(len(payload)+FrameLengthMin), SeqDest|(seq&SeqMask))
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), SyncByte), nil
}

// Decoder splits a byte stream into frames. It buffers partial frames
// between calls and resynchronises on the next sync byte after garbage.
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buf          []byte
	synchronized bool
	expected     uint8
	stats        DecoderStats
}

// NewDecoder creates a synchronized decoder
func NewDecoder() *Decoder {
	return &Decoder{synchronized: true, buf: make([]byte, 0, 2*FrameLengthMax)}
}

// Stats returns the decoder counters
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Feed adds data to the stream and calls fn for each complete valid frame.
// The payload passed to fn is only valid during the call.
func (d *Decoder) Feed(data []byte, fn func(Frame)) {
	d.buf = append(d.buf, data...)
	buf := d.buf

	for len(buf) > 0 {
		if !d.synchronized {
			// Discard up to and including the next sync byte
			i := indexSync(buf)
			if i < 0 {
				buf = nil
				break
			}
			buf = buf[i+1:]
			d.synchronized = true
			continue
		}

		if buf[0] == SyncByte {
			buf = buf[1:]
			continue
		}
		if len(buf) < FrameLengthMin {
			break
		}

		n := int(buf[positionLen])
		seq := buf[positionSeq]
		if n < FrameLengthMin || n > FrameLengthMax || seq&^SeqMask != SeqDest {
			d.desync()
			continue
		}
		if len(buf) < n {
			break
		}
		if buf[n-trailerSync] != SyncByte {
			d.desync()
			continue
		}

		want := uint16(buf[n-trailerCRC])<<8 | uint16(buf[n-trailerCRC+1])
		if CRC16(buf[:n-FrameTrailerSize]) != want {
			d.stats.BadCRC++
			d.desync()
			continue
		}

		seq &= SeqMask
		if seq != d.expected {
			d.stats.SeqGaps++
		}
		d.expected = (seq + 1) & SeqMask
		d.stats.Frames++
		fn(Frame{Seq: seq, Payload: buf[FrameHeaderSize : n-FrameTrailerSize]})
		buf = buf[n:]
	}

	// Keep the unconsumed tail at the front of the buffer
	d.buf = append(d.buf[:0], buf...)
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.stats.Resyncs++
}

func indexSync(buf []byte) int {
	for i, b := range buf {
		if b == SyncByte {
			return i
		}
	}
	return -1
}
