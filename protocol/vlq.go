package protocol

import "errors"

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
)

// EncodeVLQInt writes v most significant group first, seven bits per byte.
// Small negative numbers stay short: bits 5 and 6 of the first byte carry
// the sign.
func EncodeVLQInt(out Sink, v int32) {
	var tmp [5]byte
	n := 0
	for shift := 28; shift > 0; shift -= 7 {
		// Leading groups that only repeat the sign are omitted
		lo, hi := int32(-1)<<(shift-2), int32(3)<<(shift-2)
		if n == 0 && lo <= v && v < hi {
			continue
		}
		tmp[n] = byte(v>>shift)&0x7F | 0x80
		n++
	}
	tmp[n] = byte(v) & 0x7F
	out.Output(tmp[:n+1])
}

// EncodeVLQUint encodes an unsigned integer; values above MaxInt32 take
// five bytes and decode back to the same bits
func EncodeVLQUint(out Sink, v uint32) {
	EncodeVLQInt(out, int32(v))
}

// DecodeVLQInt decodes one value and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	if len(*data) == 0 {
		return 0, ErrBufferTooSmall
	}

	c := uint32((*data)[0])
	*data = (*data)[1:]

	v := c & 0x7F
	if (c & 0x60) == 0x60 {
		v |= ^uint32(0x1F)
	}

	for n := 1; c&0x80 != 0; n++ {
		if n == 5 {
			return 0, ErrInvalidVLQ
		}
		if len(*data) == 0 {
			return 0, ErrBufferTooSmall
		}
		c = uint32((*data)[0])
		*data = (*data)[1:]
		v = (v << 7) | (c & 0x7F)
	}

	return int32(v), nil
}

// DecodeVLQUint decodes a VLQ unsigned integer from the data slice
func DecodeVLQUint(data *[]byte) (uint32, error) {
	val, err := DecodeVLQInt(data)
	return uint32(val), err
}

// EncodeVLQ returns the encoding of v
func EncodeVLQ(v int32) []byte {
	output := NewScratchOutput()
	EncodeVLQInt(output, v)
	return output.Result()
}
