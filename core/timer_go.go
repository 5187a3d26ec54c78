//go:build !tinygo

package core

import "sync/atomic"

// loadTicks reads a tick counter (regular Go implementation)
func loadTicks(p *uint64) uint64 {
	return atomic.LoadUint64(p)
}

// storeTicks writes a tick counter (regular Go implementation)
func storeTicks(p *uint64, v uint64) {
	atomic.StoreUint64(p, v)
}
