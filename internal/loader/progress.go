package loader

import (
	"math"
	"sync/atomic"
)

// Progress is a load completion fraction in [0,1], safe to poll from any goroutine.
type Progress struct {
	bits atomic.Uint64
}

// Load returns the current value.
func (p *Progress) Load() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set stores v if it lies in [0,1] and reports whether it was stored.
func (p *Progress) Set(v float64) bool {
	if !(v >= 0 && v <= 1) {
		return false
	}
	p.bits.Store(math.Float64bits(v))
	return true
}

func (p *Progress) reset() {
	p.bits.Store(0)
}
