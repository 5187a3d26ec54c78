package protocol

import (
	"bytes"
	"errors"
)

// ErrMalformedFrame is reported for a frame whose CRC passed but whose
// payload did not decode
var ErrMalformedFrame = errors.New("malformed frame payload")

// Encoder assembles outgoing frames with a rolling sequence number. It is
// not safe for concurrent use.
type Encoder struct {
	seq uint8
	out ScratchOutput
}

// NewEncoder creates an encoder starting at sequence 0
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode builds the next frame. The returned slice is reused by the next
// call.
func (e *Encoder) Encode(kind Kind, value, clock uint32) []byte {
	out := &e.out
	out.Reset()
	out.Output([]byte{0, MessageDest | e.seq})

	EncodeVLQUint(out, uint32(kind))
	EncodeVLQUint(out, value)
	EncodeVLQUint(out, clock)

	out.Patch(MessagePositionLen, uint8(out.Len()+MessageTrailerSize))

	crc := CRC16(out.From(0))
	out.Output([]byte{byte(crc >> 8), byte(crc), MessageValueSync})

	e.seq = (e.seq + 1) & MessageSeqMask
	return out.Result()
}

// DecoderStats counts what the decoder had to discard
type DecoderStats struct {
	Resyncs   uint32 // Times the stream lost framing
	Malformed uint32 // Frames with a good CRC but bad payload
	Lost      uint32 // Frames missing from the sequence
}

// Decoder extracts frames from a byte stream, skipping garbage up to the
// next sync byte whenever a length, destination, trailer or CRC check
// fails. It is not safe for concurrent use.
type Decoder struct {
	buf    *RxBuffer
	synced bool

	expectSeq uint8
	haveSeq   bool

	stats DecoderStats
}

// NewDecoder creates a decoder that assumes the stream starts on a frame
// boundary
func NewDecoder() *Decoder {
	return &Decoder{
		buf:    NewRxBuffer(4 * MessageMax),
		synced: true,
	}
}

// Feed consumes data and returns every frame it completed, in order.
// Partial frames are kept for the next call.
func (d *Decoder) Feed(data []byte) []Frame {
	var frames []Frame
	for len(data) > 0 {
		n := d.buf.Write(data)
		data = data[n:]
		frames = d.parse(frames)
	}
	return frames
}

// Stats returns the discard counters
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Reset drops buffered bytes and forgets the sequence
func (d *Decoder) Reset() {
	d.buf.Reset()
	d.synced = true
	d.haveSeq = false
}

func (d *Decoder) desync() {
	d.synced = false
	d.stats.Resyncs++
}

func (d *Decoder) parse(frames []Frame) []Frame {
	data := d.buf.Data()
	total := len(data)

	for len(data) > 0 {
		if !d.synced {
			i := bytes.IndexByte(data, MessageValueSync)
			if i < 0 {
				data = nil
				break
			}
			data = data[i+1:]
			d.synced = true
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageMax {
			d.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		f, err := decodePayload(payload)
		if err != nil {
			d.stats.Malformed++
			continue
		}
		f.Seq = seq & MessageSeqMask
		d.trackSeq(f.Seq)
		frames = append(frames, f)
	}

	d.buf.Consume(total - len(data))
	return frames
}

func (d *Decoder) trackSeq(seq uint8) {
	if d.haveSeq && seq != d.expectSeq {
		d.stats.Lost += uint32((seq - d.expectSeq) & MessageSeqMask)
	}
	d.expectSeq = (seq + 1) & MessageSeqMask
	d.haveSeq = true
}

func decodePayload(payload []byte) (Frame, error) {
	kind, err := DecodeVLQUint(&payload)
	if err != nil {
		return Frame{}, ErrMalformedFrame
	}
	value, err := DecodeVLQUint(&payload)
	if err != nil {
		return Frame{}, ErrMalformedFrame
	}
	clock, err := DecodeVLQUint(&payload)
	if err != nil {
		return Frame{}, ErrMalformedFrame
	}
	if len(payload) != 0 || kind == 0 || kind > 0xFF {
		return Frame{}, ErrMalformedFrame
	}
	return Frame{Kind: Kind(kind), Value: value, Clock: clock}, nil
}
