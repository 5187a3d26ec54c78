// Package protocol implements the framed pin link between a bridge board
// and the host.
//
// Every frame is
//
//	[len][0x10|seq][kind][value][clock][crc hi][crc lo][0x7E]
//
// where kind, value and clock are VLQ encoded and len counts the whole
// frame. The framing follows Klipper's so a stream can be resynchronised
// on the 0x7E trailer after line noise.
package protocol

// Version is the link protocol revision announced in KindHello
const Version = 1

// Frame layout
const (
	MessageMax         = 64 // Largest frame, also the scratch buffer size
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask  = 0x0F
	MessageSeqShift = 4
)

// Kind identifies what a frame carries
type Kind uint8

const (
	KindHello     Kind = 1 // Handshake (value=version, clock=sender tick rate)
	KindEdge      Kind = 2 // Bridge saw an input transition (value=PinValue)
	KindSetPin    Kind = 3 // Host drives an output (value=PinValue)
	KindPing      Kind = 4 // Keepalive, echoed back with the bridge clock
	KindConfigPin Kind = 5 // Host claims a pin (value=pin<<2 | PinMode)
)

// PinMode is the direction and bias requested by KindConfigPin
type PinMode uint8

const (
	PinModeOutput PinMode = iota
	PinModeInputPullDown
	PinModeInputPullUp
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindEdge:
		return "edge"
	case KindSetPin:
		return "set_pin"
	case KindPing:
		return "ping"
	case KindConfigPin:
		return "config_pin"
	default:
		return "unknown"
	}
}

// PinValue packs a pin number and level into a frame value
func PinValue(pin uint32, level bool) uint32 {
	v := pin << 1
	if level {
		v |= 1
	}
	return v
}

// SplitPinValue is the inverse of PinValue
func SplitPinValue(v uint32) (pin uint32, level bool) {
	return v >> 1, v&1 != 0
}

// ConfigValue packs a pin number and mode for KindConfigPin
func ConfigValue(pin uint32, mode PinMode) uint32 {
	return pin<<2 | uint32(mode&3)
}

// SplitConfigValue is the inverse of ConfigValue
func SplitConfigValue(v uint32) (pin uint32, mode PinMode) {
	return v >> 2, PinMode(v & 3)
}

// Frame is one decoded message
type Frame struct {
	Seq   uint8  // Low four bits of the sequence byte
	Kind  Kind
	Value uint32
	Clock uint32 // Sender's tick counter, truncated to 32 bits
}
