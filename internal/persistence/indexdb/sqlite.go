// Package indexdb keeps a queryable SQLite index of sweeps next to the
// sweep log. The log stays the source of truth; the index may drop rows
// when it falls behind.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"voxelscan.ai/internal/colors"
	"voxelscan.ai/internal/sonar"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	// mu orders sends on ch against Close.
	mu     sync.RWMutex
	closed bool

	dropped atomic.Uint64
	written atomic.Uint64
}

type reqKind int

const (
	reqSweep reqKind = iota + 1
	reqFlush
)

type req struct {
	kind  reqKind
	sweep sonar.Sweep
	done  chan struct{}
}

type Stats struct {
	Written       uint64
	Dropped       uint64
	QueueDepth    int
	QueueCapacity int
}

const defaultQueue = 4096

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{db: db, ch: make(chan req, defaultQueue)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sweeps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_ms INTEGER NOT NULL,
			finished_ms INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			pitch REAL NOT NULL,
			yaw REAL NOT NULL,
			scanned INTEGER NOT NULL,
			stored INTEGER NOT NULL,
			found INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sweeps_started ON sweeps(started_ms);`,
		`CREATE TABLE IF NOT EXISTS finds (
			sweep_id INTEGER NOT NULL REFERENCES sweeps(id) ON DELETE CASCADE,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			block TEXT NOT NULL,
			PRIMARY KEY (sweep_id, x, y, z)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_finds_block ON finds(block);`,
		`CREATE INDEX IF NOT EXISTS idx_finds_pos ON finds(x, z, y);`,
		`INSERT OR IGNORE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordSweep queues a sweep without blocking; it is dropped when the
// writer is behind.
func (s *SQLiteIndex) RecordSweep(sw sonar.Sweep) {
	if s == nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- req{kind: reqSweep, sweep: sw}:
	default:
		s.dropped.Add(1)
	}
}

// Flush waits until everything queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if queued, err := s.queueFlush(ctx, done); !queued {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) queueFlush(ctx context.Context, done chan struct{}) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, nil
	}
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		Written:       s.written.Load(),
		Dropped:       s.dropped.Load(),
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
	}
}

// SetPalette stores the digest of the color table in use.
func (s *SQLiteIndex) SetPalette(ctx context.Context, t *colors.Table) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('palette_digest',?)`, t.Digest)
	return err
}

func (s *SQLiteIndex) Meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertSweep, _ := s.db.Prepare(`INSERT INTO sweeps(started_ms,finished_ms,x,y,z,pitch,yaw,scanned,stored,found) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertFind, _ := s.db.Prepare(`INSERT OR REPLACE INTO finds(sweep_id,x,y,z,block) VALUES(?,?,?,?,?)`)
	defer func() {
		if insertSweep != nil {
			_ = insertSweep.Close()
		}
		if insertFind != nil {
			_ = insertFind.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		pending       uint64
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		if err := tx.Commit(); err != nil {
			s.dropped.Add(pending)
		} else {
			s.written.Add(pending)
		}
		tx = nil
		opCount = 0
		pending = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		// Sweeps already in the batch go down with it.
		_ = tx.Rollback()
		s.dropped.Add(pending)
		tx = nil
		opCount = 0
		pending = 0
		lastCommit = time.Now()
	}

	writeSweep := func(sw sonar.Sweep) bool {
		if insertSweep == nil || insertFind == nil {
			return false
		}
		res, err := tx.Stmt(insertSweep).Exec(
			sw.Started, sw.Finished,
			sw.Origin.X, sw.Origin.Y, sw.Origin.Z,
			float64(sw.Pitch), float64(sw.Yaw),
			sw.Scanned, sw.Stored, len(sw.Found),
		)
		if err != nil {
			return false
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false
		}
		opCount++
		for _, p := range sw.Found {
			if _, err := tx.Stmt(insertFind).Exec(id, p.Pos.X, p.Pos.Y, p.Pos.Z, p.ID.String()); err != nil {
				return false
			}
			opCount++
		}
		return true
	}

	for r := range s.ch {
		switch r.kind {
		case reqFlush:
			commit()
			close(r.done)
			continue
		case reqSweep:
			begin()
			if tx == nil {
				s.dropped.Add(1)
				continue
			}
			if !writeSweep(r.sweep) {
				rollback()
				s.dropped.Add(1)
				continue
			}
			pending++
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
