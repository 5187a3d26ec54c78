package serial

import (
	"io"
)

// Port is the byte stream under the pin link. Implementations:
// - Native serial (github.com/tarm/serial)
// - In-memory pipes for tests
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate; USB CDC ignores it, a UART bridge does not
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the link's default port settings
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}

// pipePort joins a reader and a writer into a Port
type pipePort struct {
	io.Reader
	io.Writer
	closers []io.Closer
}

func (p *pipePort) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *pipePort) Flush() error { return nil }

// Pipe returns two connected in-memory ports, one for each end of a link
func Pipe() (Port, Port) {
	aR, bW := io.Pipe()
	bR, aW := io.Pipe()
	a := &pipePort{Reader: aR, Writer: aW, closers: []io.Closer{aR, aW}}
	b := &pipePort{Reader: bR, Writer: bW, closers: []io.Closer{bR, bW}}
	return a, b
}
