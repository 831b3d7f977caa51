package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"voxelscan.ai/internal/clock"
	"voxelscan.ai/internal/colors"
	"voxelscan.ai/internal/echoes"
	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/mesh"
	"voxelscan.ai/internal/metrics"
	"voxelscan.ai/internal/persistence/indexdb"
	persistlog "voxelscan.ai/internal/persistence/log"
	"voxelscan.ai/internal/sonar"
	"voxelscan.ai/internal/transport/viewer"
	"voxelscan.ai/internal/tuning"
	"voxelscan.ai/internal/viewerproto"
	"voxelscan.ai/internal/world"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory (tuning.yaml, resource-scanner.json)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite sweep index")

		fixturePath = flag.String("fixture", "", "scene fixture yaml (default: generated terrain)")
		seed        = flag.Int64("seed", 1337, "terrain seed when no fixture is given")
		depth       = flag.Int("y", 16, "observer height on generated terrain")

		sweeps   = flag.Int("sweeps", 8, "number of sweeps; 0 runs until interrupted")
		interval = flag.Duration("interval", time.Second, "pause between sweeps")
		turn     = flag.Float64("turn", 45, "yaw change in degrees between sweeps")
		waveMode = flag.Bool("wave", false, "send travelling waves instead of instant pings")

		viewerAddr = flag.String("viewer", "", "http listen address for the viewer stream and /metrics (empty to disable)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[scanner] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tun, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
	}

	table := colors.Defaults()
	if p := strings.TrimSpace(tun.Palette); p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(*configDir, p)
		}
		if table, err = colors.LoadPalette(p); err != nil {
			logger.Fatalf("load palette: %v", err)
		}
	}

	settings := tuning.NewSettingsFile(*configDir, logger)
	if s, err := settings.Load(); err == nil {
		tun = tun.Apply(s)
	} else {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Printf("settings: %v; rewriting from tuning", err)
		}
		s, err := tun.Settings()
		if err != nil {
			logger.Fatalf("settings: %v", err)
		}
		if err := settings.SetAll(s, false); err != nil {
			logger.Printf("settings: write %s: %v", settings.Path(), err)
		}
	}

	cfg, err := tun.SonarConfig()
	if err != nil {
		logger.Fatalf("sonar config: %v", err)
	}
	clk := clock.System{}
	son, err := sonar.New(cfg, clk, table, logger)
	if err != nil {
		logger.Fatalf("sonar: %v", err)
	}
	var capacity atomic.Int64
	capacity.Store(int64(cfg.Capacity))
	settings.OnChange(func(s tuning.Settings) {
		next, err := tun.Apply(s).SonarConfig()
		if err == nil {
			err = son.Refresh(next)
		}
		if err != nil {
			logger.Printf("settings: %v", err)
			return
		}
		capacity.Store(int64(next.Capacity))
		logger.Printf("settings applied: distance=%d radius=%d echoes=%d", next.Distance, next.Radius, next.Capacity)
	})

	obs, err := buildWorld(*fixturePath, *seed, *depth, logger)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	met := metrics.New()
	met.Gauge("voxelscan_echo_capacity", "Configured echo store capacity.", func() float64 {
		return float64(capacity.Load())
	})
	recorders := multiRecorder{met}
	sweepLog := persistlog.NewSweepLogger(*dataDir, logger)
	defer sweepLog.Close()
	recorders = append(recorders, sweepLog)

	var index *indexdb.SQLiteIndex
	if !*disableDB {
		index, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "sweeps.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer index.Close()
		if err := index.SetPalette(context.Background(), table); err != nil {
			logger.Printf("index: palette: %v", err)
		}
		recorders = append(recorders, index)
		met.Gauge("voxelscan_index_dropped", "Sweeps the sqlite index could not queue.", func() float64 {
			return float64(index.Stats().Dropped)
		})
	}
	son.SetRecorder(recorders)

	ctx, cancel := signalContext()
	defer cancel()
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)

	var scene atomic.Pointer[viewerproto.Scene]
	publishScene := func() {
		c := son.Config()
		sc := viewerproto.Scene{
			PaletteDigest: table.Digest,
			BlockDistance: c.Distance,
			BlockRadius:   c.Radius,
			Interesting:   c.Interesting.Strings(),
			Echoes:        son.Len(),
		}
		scene.Store(&sc)
	}
	publishScene()

	var view *viewer.Server
	if addr := strings.TrimSpace(*viewerAddr); addr != "" {
		view = viewer.NewServer(func() viewerproto.Scene { return *scene.Load() }, logger)
		met.Gauge("voxelscan_viewer_clients", "Subscribed viewers.", func() float64 { return float64(view.Clients()) })
		srv := startHTTP(ctx, addr, view, met, logger)
		defer srv.Close()
	}

	for n := 0; *sweeps == 0 || n < *sweeps; n++ {
		select {
		case <-ctx.Done():
			logger.Printf("stopping after %d sweeps", n)
			return
		case <-reload:
			if _, err := settings.Load(); err != nil {
				logger.Printf("settings reload: %v", err)
			}
		default:
		}

		if *waveMode {
			runWave(ctx, son, obs, tun.SliceDelay(), view, logger)
		} else {
			son.Ping(obs)
		}
		son.Expire(obs)
		publishScene()

		nuggets := son.Nuggets()
		camera := obs.Pos.Float().Add(geom.Vec3f{X: 0.5, Y: 0.5, Z: 0.5})
		views := mesh.FilterVisible(nuggets, inRange(camera, son.Config()))
		logger.Printf("sweep %d: %d echoes in %d nuggets, %d in range", n+1, son.Len(), len(nuggets), len(views))
		if view != nil {
			sink := viewer.NewFrameSink(camera)
			mesh.RenderViews(sink, views, camera)
			view.PublishFrame(sink)
		}

		pitch, yaw := obs.PitchYaw()
		obs.Look(pitch, float32(math.Mod(float64(yaw)+*turn, 360)))

		select {
		case <-ctx.Done():
		case <-time.After(*interval):
		}
	}

	if index != nil {
		fctx, fcancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer fcancel()
		if err := index.Flush(fctx); err != nil {
			logger.Printf("index flush: %v", err)
		}
		if counts, err := index.CountByBlock(fctx); err == nil {
			for _, c := range counts {
				logger.Printf("found %s at %d positions", c.Block, c.Positions)
			}
		}
	}
}

// runWave sends one wave and drives it to the end. Matches become echoes
// as the wave reaches them; viewers see every slice.
func runWave(ctx context.Context, son *sonar.Sonar, obs *world.Observer, delay time.Duration, view *viewer.Server, logger *log.Logger) {
	pacer := sonar.NewTickPacer(delay, clock.System{})
	commit := son.Commit()
	consumer := sonar.WaveFunc(func(shimmers []geom.Vec3, found []sonar.Partial) {
		commit.Advance(shimmers, found)
		if view != nil {
			view.Advance(shimmers, found)
		}
	})
	if !son.SendPing(obs, pacer, consumer, nil) {
		logger.Printf("wave already travelling")
		return
	}
	if err := pacer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("wave: %v", err)
	}
}

func buildWorld(fixturePath string, seed int64, y int, logger *log.Logger) (*world.Observer, error) {
	if fixturePath != "" {
		fx, err := world.LoadFixture(fixturePath)
		if err != nil {
			return nil, err
		}
		w, obs, err := fx.Build(logger)
		if err != nil {
			return nil, err
		}
		logger.Printf("fixture %s: %d edits", filepath.Base(fixturePath), w.Edits())
		return obs, nil
	}
	gen := world.NewGenerator(world.DefaultGenConfig(seed))
	logger.Printf("generated terrain seed=%d", seed)
	return world.NewObserver(world.NewMem(gen), geom.V(0, y, 0), 0, 0, logger), nil
}

// inRange keeps nuggets the cone could have reached from the camera.
func inRange(camera geom.Vec3f, cfg sonar.Config) mesh.Frustum {
	reach := float64(cfg.Distance + cfg.Radius + 1)
	return mesh.FrustumFunc(func(box echoes.AABB) bool {
		return box.ClosestDistSq(camera) <= reach*reach
	})
}

type multiRecorder []sonar.SweepRecorder

func (m multiRecorder) RecordSweep(sw sonar.Sweep) {
	for _, r := range m {
		r.RecordSweep(sw)
	}
}

func startHTTP(ctx context.Context, addr string, view *viewer.Server, met *metrics.Metrics, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", met.Handler())
	mux.HandleFunc("/v1/scene", view.BootstrapHandler())
	mux.HandleFunc("/v1/ws", view.WSHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()
	go func() {
		logger.Printf("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("viewer: %v", err)
		}
	}()
	return srv
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
