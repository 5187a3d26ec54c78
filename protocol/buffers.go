package protocol

// Sink receives encoded bytes
type Sink interface {
	Output(data []byte)
}

// ScratchOutput is a fixed frame-sized Sink. Bytes past MessageMax are
// dropped. The zero value is ready to use.
type ScratchOutput struct {
	buf [MessageMax]byte
	n   int
}

func NewScratchOutput() *ScratchOutput {
	return new(ScratchOutput)
}

func (s *ScratchOutput) Output(data []byte) {
	s.n += copy(s.buf[s.n:], data)
}

// Len is the number of bytes written since the last Reset
func (s *ScratchOutput) Len() int { return s.n }

// Patch overwrites an already written byte, used for the frame length
// which is only known once the payload is in place. Out of range
// positions are ignored.
func (s *ScratchOutput) Patch(pos int, b byte) {
	if pos >= 0 && pos < s.n {
		s.buf[pos] = b
	}
}

// From returns the bytes written at or after pos
func (s *ScratchOutput) From(pos int) []byte {
	if pos < 0 || pos > s.n {
		return nil
	}
	return s.buf[pos:s.n]
}

// Result aliases the internal array and is only valid until the next write
func (s *ScratchOutput) Result() []byte { return s.buf[:s.n] }

func (s *ScratchOutput) Reset() { s.n = 0 }

// RxBuffer accumulates link input until whole frames are present. It is a
// flat buffer rather than a ring: consumed bytes are reclaimed by sliding
// the tail down on the next Write, so Data never allocates.
type RxBuffer struct {
	buf        []byte
	head, tail int
}

func NewRxBuffer(size int) *RxBuffer {
	return &RxBuffer{buf: make([]byte, size)}
}

// Write stores as much of data as fits and reports how much that was
func (r *RxBuffer) Write(data []byte) int {
	if r.tail+len(data) > len(r.buf) && r.head > 0 {
		r.tail = copy(r.buf, r.buf[r.head:r.tail])
		r.head = 0
	}
	n := copy(r.buf[r.tail:], data)
	r.tail += n
	return n
}

// Len is the count of unconsumed bytes
func (r *RxBuffer) Len() int { return r.tail - r.head }

// Free is how many bytes the next Write can accept
func (r *RxBuffer) Free() int { return len(r.buf) - r.Len() }

// Data returns the unconsumed bytes. The slice is invalidated by Write.
func (r *RxBuffer) Data() []byte { return r.buf[r.head:r.tail] }

// Consume discards n bytes from the front
func (r *RxBuffer) Consume(n int) {
	r.head += min(n, r.Len())
	if r.head == r.tail {
		r.head, r.tail = 0, 0
	}
}

func (r *RxBuffer) Reset() { r.head, r.tail = 0, 0 }
