// Package idgen produces strictly increasing plan ids.
package idgen

import (
	"sync/atomic"

	"github.com/guihaojin/alluxio/internal/clock"
)

// Generator hands out strictly increasing 64-bit ids. Safe for concurrent
// use by multiple callers.
type Generator struct {
	next atomic.Int64
}

// New creates a generator seeded from the clock's current time in
// milliseconds, so ids issued by a freshly-started process never collide
// with ids issued by a previous one still visible to external callers.
func New(c clock.Clock) *Generator {
	g := &Generator{}
	g.next.Store(c.NowMs())
	return g
}

// NewID returns the next id, strictly greater than every id previously
// returned by this generator.
func (g *Generator) NewID() int64 {
	return g.next.Add(1)
}
