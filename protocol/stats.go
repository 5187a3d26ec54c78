package protocol

import "strconv"

// BridgeCounters is the bridge's side of link health. The host cannot see
// these; they go out on the bridge's debug UART.
type BridgeCounters struct {
	FramesIn     uint32
	FramesOut    uint32
	EdgesDropped uint32 // edge backlog full before the main loop drained it
	Errors       uint32 // bad writes, unknown kinds, bad pin configs, panics
}

func (c BridgeCounters) String() string {
	return "in=" + strconv.FormatUint(uint64(c.FramesIn), 10) +
		" out=" + strconv.FormatUint(uint64(c.FramesOut), 10) +
		" dropped=" + strconv.FormatUint(uint64(c.EdgesDropped), 10) +
		" errors=" + strconv.FormatUint(uint64(c.Errors), 10)
}

// Changed reports whether anything moved since prev
func (c BridgeCounters) Changed(prev BridgeCounters) bool {
	return c != prev
}
