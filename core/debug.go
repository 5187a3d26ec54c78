package core

// DebugWriter emits one line of debug output
type DebugWriter func(string)

var (
	debugOut     DebugWriter = func(string) {}
	debugEnabled bool
	debugQueue   chan string
)

// SetDebugWriter routes debug lines to w: a UART on firmware, slog on the
// host
func SetDebugWriter(w DebugWriter) {
	debugOut = w
}

func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the goroutine behind DebugAsync. Call it after
// SetDebugWriter.
func InitAsyncDebug() {
	debugQueue = make(chan string, 16)
	go func(q <-chan string) {
		for msg := range q {
			debugOut(msg)
		}
	}(debugQueue)
}

// DebugPrintln writes msg synchronously when debug output is on
func DebugPrintln(msg string) {
	if debugEnabled {
		debugOut(msg)
	}
}

// DebugAsync hands msg to the output goroutine. Safe from edge handlers:
// when the queue is full the message is lost.
func DebugAsync(msg string) {
	if !debugEnabled || debugQueue == nil {
		return
	}
	select {
	case debugQueue <- msg:
	default:
	}
}

// TimingEvent is one entry in the post-mortem trace. The meaning of A and
// B depends on Kind.
type TimingEvent struct {
	Kind  uint8
	Clock Timestamp
	A, B  uint32
}

const (
	EvtToggle     = 1 // output flipped; A=on, B=ticks late
	EvtRateChange = 2 // schedule re-anchored; A=pressed, B=new period
	EvtCatchUp    = 3 // deadline already past on entry; A=on, B=ticks late
	EvtSpurious   = 4 // wake with neither event nor deadline
	EvtDrop       = 5 // queue full; A=queue length, B=total dropped
	EvtEdge       = 6 // edge published; A=pressed
)

var timingNames = [...]string{
	EvtToggle:     "TOGGLE",
	EvtRateChange: "RATE",
	EvtCatchUp:    "CATCH_UP!",
	EvtSpurious:   "SPURIOUS",
	EvtDrop:       "DROP!",
	EvtEdge:       "EDGE",
}

// TimingEventName labels an event kind for dumps
func TimingEventName(kind uint8) string {
	if int(kind) < len(timingNames) && timingNames[kind] != "" {
		return timingNames[kind]
	}
	return "UNKNOWN"
}

const TimingRingSize = 32

// timingTrace keeps the newest TimingRingSize events. next counts every
// event ever recorded; slot next%size is the oldest once it has wrapped.
type timingTrace struct {
	events [TimingRingSize]TimingEvent
	next   uint32
}

var trace timingTrace

// RecordTiming appends to the trace inside the critical section. On the
// host that section is a plain mutex, so it must not be called from code
// already holding it (TimerList handlers).
func RecordTiming(kind uint8, clock Timestamp, a, b uint32) {
	state := disableInterrupts()
	trace.events[trace.next%TimingRingSize] = TimingEvent{Kind: kind, Clock: clock, A: a, B: b}
	trace.next++
	restoreInterrupts(state)
}

// TimingSnapshot copies out the trace, oldest first
func TimingSnapshot() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	n := min(trace.next, TimingRingSize)
	out := make([]TimingEvent, 0, n)
	for i := trace.next - n; i != trace.next; i++ {
		out = append(out, trace.events[i%TimingRingSize])
	}
	return out
}

// DumpTimingRing writes the trace through the debug writer regardless of
// the enabled flag. Used on fatal errors and on host exit.
func DumpTimingRing() {
	debugOut("[TIMING] === Timing Ring Dump ===")
	for _, ev := range TimingSnapshot() {
		debugOut("[TIMING] " + TimingEventName(ev.Kind) +
			" clock=" + utoa(uint64(ev.Clock)) +
			" v1=" + utoa(uint64(ev.A)) +
			" v2=" + utoa(uint64(ev.B)))
	}
	debugOut("[TIMING] === End Dump ===")
}

func ClearTimingRing() {
	state := disableInterrupts()
	trace = timingTrace{}
	restoreInterrupts(state)
}
