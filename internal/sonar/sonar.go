// Package sonar runs scans: it casts a cone from the observer, records the
// interesting voxels it hits and hands the echo cloud to the mesher.
package sonar

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/colors"
	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/mesh"
)

const (
	DefaultDistance = 16
	DefaultRadius   = 2
)

// DefaultInteresting is what a fresh sonar listens for.
var DefaultInteresting = []ids.ID{
	ids.MustVanilla("coal_ore"),
	ids.MustVanilla("deepslate_coal_ore"),
}

var ErrInvalidConfig = errors.New("invalid sonar config")

type Config struct {
	Distance    int
	Radius      int
	Interesting ids.Set
	Capacity    int
	Lifetime    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Distance:    DefaultDistance,
		Radius:      DefaultRadius,
		Interesting: ids.NewSet(DefaultInteresting...),
		Capacity:    echoes.DefaultCapacity,
		Lifetime:    echoes.DefaultLifetime,
	}
}

func (c Config) Validate() error {
	if c.Distance < 0 {
		return fmt.Errorf("%w: negative distance %d", ErrInvalidConfig, c.Distance)
	}
	if c.Radius < 0 {
		return fmt.Errorf("%w: negative radius %d", ErrInvalidConfig, c.Radius)
	}
	if c.Lifetime < 0 {
		return fmt.Errorf("%w: negative lifetime %s", ErrInvalidConfig, c.Lifetime)
	}
	return nil
}

// Client is the observer and the world it stands in.
type Client interface {
	// Lookup reports the block at pos; false means air or no data.
	Lookup(pos geom.Vec3) (ids.ID, bool)
	Position() geom.Vec3
	// PitchYaw is the camera orientation in degrees.
	PitchYaw() (pitch, yaw float32)
	// Notify tells the observer a match was found distance voxels away.
	Notify(distance int, id ids.ID)
}

// Sweep summarizes one finished scan.
type Sweep struct {
	Started  int64
	Finished int64
	Origin   geom.Vec3
	Pitch    float32
	Yaw      float32
	Scanned  int
	Found    []Partial
	Stored   int
}

// Partial is a match not yet stamped into the store.
type Partial struct {
	Pos geom.Vec3
	ID  ids.ID
}

// SweepRecorder is told about every finished sweep.
type SweepRecorder interface {
	RecordSweep(Sweep)
}

// Sonar is single-threaded; callers serialize access.
type Sonar struct {
	cfg    Config
	clock  clock.Clock
	colors *colors.Table
	logger *log.Logger

	store    *echoes.Store
	wave     *wave
	onEcho   func(echoes.State)
	recorder SweepRecorder
}

func New(cfg Config, c clock.Clock, table *colors.Table, logger *log.Logger) (*Sonar, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c == nil {
		c = clock.System{}
	}
	if table == nil {
		table = colors.Defaults()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.Interesting == nil {
		cfg.Interesting = ids.NewSet()
	}
	return &Sonar{
		cfg:    cfg,
		clock:  c,
		colors: table,
		logger: logger,
		store:  echoes.NewStore(cfg.Capacity, cfg.Lifetime, c),
	}, nil
}

func (s *Sonar) Config() Config { return s.cfg }

// SetEchoConsumer registers fn to see every echo EchoFrom records.
func (s *Sonar) SetEchoConsumer(fn func(echoes.State)) { s.onEcho = fn }

func (s *Sonar) SetRecorder(r SweepRecorder) { s.recorder = r }

// Refresh swaps in new scan parameters. Recorded echoes survive unless the
// new capacity is smaller.
func (s *Sonar) Refresh(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Interesting == nil {
		cfg.Interesting = ids.NewSet()
	}
	s.cfg = cfg
	s.store.Refresh(cfg.Capacity)
	s.store.RefreshLifetime(cfg.Lifetime)
	return nil
}

func (s *Sonar) cone(client Client) geom.Cone {
	pitch, yaw := client.PitchYaw()
	return geom.ConeFromCamera(client.Position(), pitch, yaw, s.cfg.Distance, s.cfg.Radius)
}

// Ping scans the whole cone at once and reports whether anything new was
// recorded.
func (s *Sonar) Ping(client Client) bool {
	started := s.clock.NowMillis()
	origin := client.Position()
	pitch, yaw := client.PitchYaw()
	cone := geom.ConeFromCamera(origin, pitch, yaw, s.cfg.Distance, s.cfg.Radius)

	seen := make(map[geom.Vec3]struct{})
	scanned := 0
	var found []Partial
	for _, line := range cone.Lines() {
		line.Each(func(pos geom.Vec3) bool {
			scanned++
			id, ok := client.Lookup(pos)
			if !ok || !s.cfg.Interesting.Contains(id) {
				return true
			}
			if _, dup := seen[pos]; dup {
				return true
			}
			seen[pos] = struct{}{}

			dist := origin.Dist(pos)
			client.Notify(dist, id)
			s.record(pos, id)
			found = append(found, Partial{Pos: pos, ID: id})
			return true
		})
	}

	s.logger.Printf("ping from %v: %d voxels, %d echoes", origin, scanned, len(found))
	s.finish(Sweep{
		Started: started, Origin: origin, Pitch: pitch, Yaw: yaw,
		Scanned: scanned, Found: found,
	})
	return len(found) > 0
}

// EchoFrom records an echo of id at pos and passes it to the echo consumer.
func (s *Sonar) EchoFrom(pos geom.Vec3, id ids.ID) echoes.State {
	st := s.record(pos, id)
	if s.onEcho != nil {
		s.onEcho(st)
	}
	return st
}

func (s *Sonar) record(pos geom.Vec3, id ids.ID) echoes.State {
	return s.store.Insert(pos, echoes.Echo{ID: id, Color: s.colors.ForBlock(id)})
}

func (s *Sonar) finish(sw Sweep) {
	sw.Finished = s.clock.NowMillis()
	sw.Stored = s.store.Len()
	if s.recorder != nil {
		s.recorder.RecordSweep(sw)
	}
}

// Echoes is the store content in store order.
func (s *Sonar) Echoes() []echoes.State { return s.store.All() }

func (s *Sonar) Len() int { return s.store.Len() }

// Nuggets groups the current echoes for drawing.
func (s *Sonar) Nuggets() []*mesh.Nugget { return mesh.Group(s.store.Snapshot()) }

// Expire drops echoes past their lifetime and, with a client, echoes whose
// voxel no longer holds the recorded block.
func (s *Sonar) Expire(client Client) bool {
	var lookup echoes.Lookup
	if client != nil {
		lookup = client.Lookup
	}
	removed := s.store.RemoveWhere(s.store.OldEchoes(s.clock.NowMillis(), lookup))
	if removed {
		s.logger.Printf("expired echoes, %d left", s.store.Len())
	}
	return removed
}
