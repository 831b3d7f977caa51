package sonar

import (
	"context"
	"time"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/geom"
)

// DefaultSliceDelay spaces two slices of a wave.
const DefaultSliceDelay = 10 * time.Millisecond

// WaveConsumer is shown the wave as it travels: every voxel of the slice
// just reached and the matches inside it.
type WaveConsumer interface {
	Advance(shimmers []geom.Vec3, found []Partial)
}

type WaveFunc func(shimmers []geom.Vec3, found []Partial)

func (f WaveFunc) Advance(shimmers []geom.Vec3, found []Partial) { f(shimmers, found) }

// Pacer calls a registered callback over time until it returns false.
type Pacer interface {
	Register(cb func(now int64) bool)
}

type wave struct {
	client  Client
	slicer  *geom.Slicer
	sweep   Sweep
	pending []Partial
}

// SendPing starts a wave that travels the cone one distance slice per pacer
// callback. Matches are reported to consumer, which decides when they turn
// into echoes (see EchoFrom and Commit). onEnd runs after the last slice.
// It returns false while a previous wave is still travelling.
func (s *Sonar) SendPing(client Client, pacer Pacer, consumer WaveConsumer, onEnd func()) bool {
	if s.wave != nil {
		return false
	}
	pitch, yaw := client.PitchYaw()
	w := &wave{
		client: client,
		slicer: s.cone(client).Sliced(),
		sweep: Sweep{
			Started: s.clock.NowMillis(),
			Origin:  client.Position(),
			Pitch:   pitch,
			Yaw:     yaw,
		},
	}
	s.wave = w
	pacer.Register(func(int64) bool {
		if !w.slicer.HasNext() {
			s.wave = nil
			s.logger.Printf("wave from %v done: %d voxels, %d matches", w.sweep.Origin, w.sweep.Scanned, len(w.sweep.Found))
			s.finish(w.sweep)
			if onEnd != nil {
				onEnd()
			}
			return false
		}
		s.processSlice(w, consumer)
		return true
	})
	return true
}

// Busy reports whether a wave is travelling.
func (s *Sonar) Busy() bool { return s.wave != nil }

func (s *Sonar) processSlice(w *wave, consumer WaveConsumer) {
	slice := w.slicer.Next()
	dist := slice.Meters()
	var found []Partial
	for _, pos := range slice.Items {
		id, ok := w.client.Lookup(pos)
		if !ok || !s.cfg.Interesting.Contains(id) {
			continue
		}
		w.client.Notify(dist, id)
		found = append(found, Partial{Pos: pos, ID: id})
	}
	w.sweep.Scanned += len(slice.Items)
	w.sweep.Found = append(w.sweep.Found, found...)
	if consumer != nil {
		consumer.Advance(slice.Items, found)
	}
}

// Commit is a WaveConsumer that records every match as soon as the wave
// reaches it.
func (s *Sonar) Commit() WaveConsumer {
	return WaveFunc(func(_ []geom.Vec3, found []Partial) {
		for _, p := range found {
			s.EchoFrom(p.Pos, p.ID)
		}
	})
}

// TickPacer runs callbacks at most once per delay, driven by Tick.
type TickPacer struct {
	delay int64
	clock clock.Clock
	scans []*paced
}

type paced struct {
	cb   func(now int64) bool
	then int64
}

func NewTickPacer(delay time.Duration, c clock.Clock) *TickPacer {
	if c == nil {
		c = clock.System{}
	}
	return &TickPacer{delay: delay.Milliseconds(), clock: c}
}

func (p *TickPacer) Register(cb func(now int64) bool) {
	p.scans = append(p.scans, &paced{cb: cb, then: p.clock.NowMillis()})
}

// Tick runs every callback whose delay has passed and drops the ones that
// are done. It reports whether any callback is still registered. Callbacks
// registered during a tick first run on the next one.
func (p *TickPacer) Tick(now int64) bool {
	scans := p.scans
	p.scans = nil
	var kept []*paced
	for _, sc := range scans {
		if now-sc.then < p.delay {
			kept = append(kept, sc)
			continue
		}
		sc.then = now
		if sc.cb(now) {
			kept = append(kept, sc)
		}
	}
	p.scans = append(kept, p.scans...)
	return len(p.scans) > 0
}

func (p *TickPacer) Len() int { return len(p.scans) }

// Run ticks on a timer until every callback is done or ctx ends.
func (p *TickPacer) Run(ctx context.Context) error {
	interval := time.Duration(p.delay) * time.Millisecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for p.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			p.Tick(p.clock.NowMillis())
		}
	}
	return nil
}
