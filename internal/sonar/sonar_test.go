package sonar

import (
	"errors"
	"math"
	"testing"
	"time"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/logic/mathx"
)

var (
	coalOre = ids.MustVanilla("coal_ore")
	ironOre = ids.MustVanilla("iron_ore")
)

type notice struct {
	dist int
	id   ids.ID
}

type fakeClient struct {
	blocks     map[geom.Vec3]ids.ID
	pos        geom.Vec3
	pitch, yaw float32
	notices    []notice
}

func newFakeClient() *fakeClient {
	return &fakeClient{blocks: map[geom.Vec3]ids.ID{}}
}

func (c *fakeClient) Lookup(pos geom.Vec3) (ids.ID, bool) {
	id, ok := c.blocks[pos]
	return id, ok
}

func (c *fakeClient) Position() geom.Vec3          { return c.pos }
func (c *fakeClient) PitchYaw() (float32, float32) { return c.pitch, c.yaw }

func (c *fakeClient) Notify(distance int, id ids.ID) {
	c.notices = append(c.notices, notice{distance, id})
}

func (c *fakeClient) put(id ids.ID, pts ...geom.Vec3) {
	for _, p := range pts {
		c.blocks[p] = id
	}
}

type sweeps []Sweep

func (s *sweeps) RecordSweep(sw Sweep) { *s = append(*s, sw) }

func newSonar(t *testing.T, clk clock.Clock) *Sonar {
	t.Helper()
	s, err := New(DefaultConfig(), clk, nil, nil)
	if err != nil {
		t.Fatalf("new sonar: %v", err)
	}
	return s
}

func TestPingRecordsInterestingBlocks(t *testing.T) {
	clk := clock.NewManual(0)
	s := newSonar(t, clk)
	var rec sweeps
	s.SetRecorder(&rec)

	c := newFakeClient()
	c.put(coalOre, geom.V(0, 0, 5))
	c.put(ironOre, geom.V(0, 0, 6))
	c.put(coalOre, geom.V(0, 0, 40))

	if !s.Ping(c) {
		t.Fatalf("expected a new echo")
	}
	if s.Len() != 1 {
		t.Fatalf("len=%d want 1", s.Len())
	}
	if got := s.Echoes()[0]; got.Pos != geom.V(0, 0, 5) || got.Echo.ID != coalOre {
		t.Fatalf("echo=%+v", got)
	}
	if len(c.notices) != 1 || c.notices[0] != (notice{5, coalOre}) {
		t.Fatalf("notices=%v", c.notices)
	}
	if len(rec) != 1 || len(rec[0].Found) != 1 || rec[0].Scanned == 0 || rec[0].Stored != 1 {
		t.Fatalf("sweep=%+v", rec)
	}
}

func TestPingNotifiesOncePerPosition(t *testing.T) {
	s := newSonar(t, clock.NewManual(0))
	c := newFakeClient()
	// Every ray of the cone leaves through the voxel in front of the observer.
	c.put(coalOre, geom.V(0, 0, 1))
	s.Ping(c)
	if len(c.notices) != 1 {
		t.Fatalf("notified %d times", len(c.notices))
	}
}

func TestPingFindsNothing(t *testing.T) {
	s := newSonar(t, clock.NewManual(0))
	c := newFakeClient()
	c.put(ironOre, geom.V(0, 0, 3))
	if s.Ping(c) {
		t.Fatalf("iron is not interesting")
	}
	if s.Len() != 0 || len(c.notices) != 0 {
		t.Fatalf("unexpected state")
	}
}

func TestRefresh(t *testing.T) {
	clk := clock.NewManual(0)
	s := newSonar(t, clk)
	for i := 0; i < 5; i++ {
		clk.Advance(time.Millisecond)
		s.EchoFrom(geom.V(i, 0, 0), coalOre)
	}
	cfg := s.Config()
	cfg.Capacity = 2
	cfg.Interesting = ids.NewSet(ironOre)
	if err := s.Refresh(cfg); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("len=%d want 2", s.Len())
	}

	c := newFakeClient()
	c.put(coalOre, geom.V(0, 0, 2))
	if s.Ping(c) {
		t.Fatalf("coal dropped from interest set")
	}

	cfg.Radius = -1
	if err := s.Refresh(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err=%v", err)
	}
}

func TestEchoConsumer(t *testing.T) {
	s := newSonar(t, clock.NewManual(42))
	var got []geom.Vec3
	s.SetEchoConsumer(func(st echoes.State) { got = append(got, st.Pos) })
	s.EchoFrom(geom.V(1, 2, 3), coalOre)
	if len(got) != 1 || got[0] != geom.V(1, 2, 3) {
		t.Fatalf("consumer saw %v", got)
	}
}

func TestExpire(t *testing.T) {
	clk := clock.NewManual(0)
	s := newSonar(t, clk)
	c := newFakeClient()
	c.put(coalOre, geom.V(0, 0, 2), geom.V(0, 0, 3))
	s.Ping(c)
	if s.Len() != 2 {
		t.Fatalf("len=%d", s.Len())
	}

	delete(c.blocks, geom.V(0, 0, 3))
	if !s.Expire(c) || s.Len() != 1 {
		t.Fatalf("mined voxel should expire, len=%d", s.Len())
	}
	clk.Advance(DefaultConfig().Lifetime)
	if !s.Expire(nil) || s.Len() != 0 {
		t.Fatalf("old echo should expire, len=%d", s.Len())
	}
}

func TestNuggets(t *testing.T) {
	s := newSonar(t, clock.NewManual(0))
	s.EchoFrom(geom.V(0, 0, 5), coalOre)
	s.EchoFrom(geom.V(0, 0, 6), coalOre)
	s.EchoFrom(geom.V(4, 0, 6), coalOre)
	if n := s.Nuggets(); len(n) != 2 {
		t.Fatalf("nuggets=%d want 2", len(n))
	}
}

func TestSendPingTravelsSliceBySlice(t *testing.T) {
	clk := clock.NewManual(0)
	s := newSonar(t, clk)
	var rec sweeps
	s.SetRecorder(&rec)

	c := newFakeClient()
	c.put(coalOre, geom.V(0, 0, 5), geom.V(0, 0, 9))

	pacer := NewTickPacer(DefaultSliceDelay, clk)
	var last int
	consumer := WaveFunc(func(shimmers []geom.Vec3, found []Partial) {
		for _, p := range shimmers {
			bucket := mathx.RoundHalfUp(math.Sqrt(float64(p.DistSq(geom.Zero))) * geom.SlicePrecision)
			if bucket < last {
				t.Fatalf("wave went backwards at %v", p)
			}
			last = bucket
		}
		for _, p := range found {
			s.EchoFrom(p.Pos, p.ID)
		}
	})
	ended := false
	if !s.SendPing(c, pacer, consumer, func() { ended = true }) {
		t.Fatalf("first wave refused")
	}
	if s.SendPing(c, pacer, consumer, nil) {
		t.Fatalf("second wave must wait for the first")
	}

	clk.Advance(5 * time.Millisecond)
	pacer.Tick(clk.NowMillis())
	if len(c.notices) != 0 || !s.Busy() {
		t.Fatalf("slice ran before its delay")
	}

	for i := 0; pacer.Tick(clk.Advance(DefaultSliceDelay)); i++ {
		if i > 10000 {
			t.Fatalf("wave never ended")
		}
	}
	if !ended || s.Busy() {
		t.Fatalf("wave did not finish")
	}
	want := []notice{{5, coalOre}, {9, coalOre}}
	if len(c.notices) != len(want) || c.notices[0] != want[0] || c.notices[1] != want[1] {
		t.Fatalf("notices=%v want %v", c.notices, want)
	}
	if s.Len() != 2 {
		t.Fatalf("len=%d want 2", s.Len())
	}
	if len(rec) != 1 || len(rec[0].Found) != 2 {
		t.Fatalf("sweep=%+v", rec)
	}
}

func TestCommitConsumer(t *testing.T) {
	clk := clock.NewManual(0)
	s := newSonar(t, clk)
	c := newFakeClient()
	c.put(coalOre, geom.V(0, 0, 4))
	pacer := NewTickPacer(0, clk)
	s.SendPing(c, pacer, s.Commit(), nil)
	for pacer.Tick(clk.NowMillis()) {
	}
	if s.Len() != 1 {
		t.Fatalf("len=%d want 1", s.Len())
	}
}

func TestTickPacerRegisterDuringTick(t *testing.T) {
	clk := clock.NewManual(0)
	p := NewTickPacer(0, clk)
	runs := 0
	p.Register(func(int64) bool {
		runs++
		p.Register(func(int64) bool { runs++; return false })
		return false
	})
	if !p.Tick(0) {
		t.Fatalf("callback registered mid-tick was lost")
	}
	if p.Tick(0) || runs != 2 {
		t.Fatalf("runs=%d", runs)
	}
}
