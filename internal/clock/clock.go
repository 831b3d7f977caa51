package clock

import (
	"sync/atomic"
	"time"
)

// Clock reports wall time in milliseconds. Echo ages and slice pacing read
// time only through it.
type Clock interface {
	NowMillis() int64
}

type System struct{}

func (System) NowMillis() int64 { return time.Now().UnixMilli() }

// Manual only moves when told to.
type Manual struct {
	now atomic.Int64
}

func NewManual(start int64) *Manual {
	m := &Manual{}
	m.now.Store(start)
	return m
}

func (m *Manual) NowMillis() int64 { return m.now.Load() }

func (m *Manual) Set(ms int64) { m.now.Store(ms) }

func (m *Manual) Advance(d time.Duration) int64 { return m.now.Add(d.Milliseconds()) }
