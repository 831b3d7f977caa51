package indexdb

import (
	"context"

	"voxelscan.ai/internal/geom"
)

type SweepRow struct {
	ID       int64
	Started  int64
	Finished int64
	Origin   geom.Vec3
	Pitch    float64
	Yaw      float64
	Scanned  int
	Stored   int
	Found    int
}

// RecentSweeps returns up to limit sweeps, newest first.
func (s *SQLiteIndex) RecentSweeps(ctx context.Context, limit int) ([]SweepRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,started_ms,finished_ms,x,y,z,pitch,yaw,scanned,stored,found
		FROM sweeps ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SweepRow
	for rows.Next() {
		var r SweepRow
		if err := rows.Scan(&r.ID, &r.Started, &r.Finished,
			&r.Origin.X, &r.Origin.Y, &r.Origin.Z,
			&r.Pitch, &r.Yaw, &r.Scanned, &r.Stored, &r.Found); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type BlockCount struct {
	Block     string
	Positions int
}

// CountByBlock counts distinct positions found per block id.
func (s *SQLiteIndex) CountByBlock(ctx context.Context) ([]BlockCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT block, COUNT(*) FROM (
			SELECT DISTINCT block, x, y, z FROM finds
		) GROUP BY block ORDER BY block`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BlockCount
	for rows.Next() {
		var c BlockCount
		if err := rows.Scan(&c.Block, &c.Positions); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FindsWithin lists distinct positions of block found within radius of
// center (box distance).
func (s *SQLiteIndex) FindsWithin(ctx context.Context, block string, center geom.Vec3, radius int) ([]geom.Vec3, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT x, y, z FROM finds
		WHERE block=? AND x BETWEEN ? AND ? AND y BETWEEN ? AND ? AND z BETWEEN ? AND ?
		ORDER BY y, z, x`,
		block,
		center.X-radius, center.X+radius,
		center.Y-radius, center.Y+radius,
		center.Z-radius, center.Z+radius)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []geom.Vec3
	for rows.Next() {
		var p geom.Vec3
		if err := rows.Scan(&p.X, &p.Y, &p.Z); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
