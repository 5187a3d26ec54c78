//go:build js && wasm
// +build js,wasm

// Command wasm exposes the pin-link codec and the blink simulator to a
// browser page, for inspecting captured link traffic and trying out press
// timings without hardware.
package main

import (
	"context"
	"encoding/hex"
	"syscall/js"

	"blinkrate/config"
	"blinkrate/core"
	"blinkrate/protocol"
	"blinkrate/sim"
)

// Decoder state persists across decodeStream calls so a capture can be
// fed in chunks
var decoder = protocol.NewDecoder()

func main() {
	js.Global().Set("blinkrateWasm", js.ValueOf(map[string]interface{}{
		"encodeFrame":  js.FuncOf(encodeFrameWrapper),
		"decodeStream": js.FuncOf(decodeStreamWrapper),
		"resetDecoder": js.FuncOf(resetDecoderWrapper),
		"crc16":        js.FuncOf(crc16Wrapper),
		"simulate":     js.FuncOf(simulateWrapper),
		"version":      protocol.Version,
	}))

	// Keep the program running
	select {}
}

// encodeFrameWrapper builds one frame with a fresh sequence counter
// Args: kind (number), value (number), clock (number)
// Returns: hex string
func encodeFrameWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf("error: need kind, value, clock")
	}
	frame := protocol.NewEncoder().Encode(protocol.Kind(args[0].Int()), uint32(args[1].Int()), uint32(args[2].Int()))
	return js.ValueOf(hex.EncodeToString(frame))
}

// decodeStreamWrapper feeds captured bytes to the shared decoder
// Args: hexString
// Returns: {frames: [{seq, kind, value, clock}], resyncs, malformed, lost, error}
func decodeStreamWrapper(this js.Value, args []js.Value) interface{} {
	result := make(map[string]interface{})
	if len(args) < 1 {
		result["error"] = "missing hex string argument"
		return js.ValueOf(result)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		result["error"] = "invalid hex string: " + err.Error()
		return js.ValueOf(result)
	}

	frames := decoder.Feed(data)
	jsFrames := make([]interface{}, len(frames))
	for i, f := range frames {
		jsFrames[i] = map[string]interface{}{
			"seq":   int(f.Seq),
			"kind":  f.Kind.String(),
			"value": int(f.Value),
			"clock": int(f.Clock),
		}
	}
	stats := decoder.Stats()
	result["frames"] = jsFrames
	result["resyncs"] = int(stats.Resyncs)
	result["malformed"] = int(stats.Malformed)
	result["lost"] = int(stats.Lost)
	return js.ValueOf(result)
}

func resetDecoderWrapper(this js.Value, args []js.Value) interface{} {
	decoder.Reset()
	return js.Undefined()
}

// crc16Wrapper calculates the link CRC of a hex string
func crc16Wrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf(0)
	}
	return js.ValueOf(int(protocol.CRC16(data)))
}

// simulateWrapper runs the scheduler on a virtual clock
// Args: {press: [ticks], release: [ticks], horizon, slow, fast, overhead}
// Returns: {toggles: [{at, on, late}], rates: [{at, pressed, period}], dropped}
func simulateWrapper(this js.Value, args []js.Value) interface{} {
	result := make(map[string]interface{})
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		result["error"] = "missing options object"
		return js.ValueOf(result)
	}
	opts := args[0]

	cfg := config.DefaultConfig()
	if v := opts.Get("slow"); v.Truthy() {
		cfg.SlowPeriod = uint64(v.Int())
	}
	if v := opts.Get("fast"); v.Truthy() {
		cfg.FastPeriod = uint64(v.Int())
	}
	if err := cfg.Validate(); err != nil {
		result["error"] = err.Error()
		return js.ValueOf(result)
	}
	horizon := core.Timestamp(10000)
	if v := opts.Get("horizon"); v.Truthy() {
		horizon = core.Timestamp(v.Int())
	}

	h := sim.NewHarness(0, cfg.QueueCapacity)
	if v := opts.Get("overhead"); v.Truthy() {
		h.Overhead = core.Ticks(v.Int())
	}
	inject(h, opts.Get("press"), true)
	inject(h, opts.Get("release"), false)

	var rec sim.Recorder
	s := core.NewScheduler(h.Clock, &sim.Output{}, h,
		append([]core.SchedulerOption{
			core.WithPeriods(core.Ticks(cfg.SlowPeriod), core.Ticks(cfg.FastPeriod)),
		}, rec.Options()...)...)
	if err := h.Run(context.Background(), s, horizon); err != nil {
		result["error"] = err.Error()
		return js.ValueOf(result)
	}

	toggles := make([]interface{}, len(rec.Toggles))
	for i, t := range rec.Toggles {
		toggles[i] = map[string]interface{}{
			"at":   int(t.Scheduled),
			"on":   t.On,
			"late": int(t.Actual.Sub(t.Scheduled)),
		}
	}
	rates := make([]interface{}, len(rec.Rates))
	for i, r := range rec.Rates {
		rates[i] = map[string]interface{}{
			"at":      int(r.At),
			"pressed": r.Pressed,
			"period":  int(r.Period),
		}
	}
	result["toggles"] = toggles
	result["rates"] = rates
	result["dropped"] = int(h.Queue.Dropped())
	return js.ValueOf(result)
}

func inject(h *sim.Harness, list js.Value, pressed bool) {
	if list.Type() != js.TypeObject {
		return
	}
	for i := 0; i < list.Length(); i++ {
		if at := list.Index(i).Int(); at >= 0 {
			h.Inject(core.Timestamp(at), pressed)
		}
	}
}
