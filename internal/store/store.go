// Package store persists scene snapshots in Postgres. Each save appends a
// new version; loading returns the newest.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heliumproject/editor-go/internal/typeid"
)

var ErrNoSnapshot = errors.New("no snapshot")

const schema = `
CREATE TABLE IF NOT EXISTS scene_snapshots (
	id         TEXT PRIMARY KEY,
	scene_id   TEXT NOT NULL,
	version    INTEGER NOT NULL,
	data       BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (scene_id, version)
)`

// querier is the part of pgxpool.Pool the store uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db querier
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Connect opens a pool for databaseURL and checks it is reachable.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type Snapshot struct {
	ID        string
	SceneID   string
	Version   int
	Data      []byte
	CreatedAt time.Time
}

// SaveSnapshot stores data as the next version of sceneID and returns that
// version.
func (s *Store) SaveSnapshot(ctx context.Context, sceneID string, data []byte) (int, error) {
	var version int
	err := s.db.QueryRow(ctx, `
		INSERT INTO scene_snapshots (id, scene_id, version, data)
		SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
		FROM scene_snapshots WHERE scene_id = $2
		RETURNING version`,
		typeid.NewSnapshotID(), sceneID, data,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	return version, nil
}

// LatestSnapshot returns the newest snapshot of sceneID, or of any scene
// when sceneID is empty.
func (s *Store) LatestSnapshot(ctx context.Context, sceneID string) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.QueryRow(ctx, `
		SELECT id, scene_id, version, data, created_at
		FROM scene_snapshots
		WHERE $1 = '' OR scene_id = $1
		ORDER BY created_at DESC, version DESC
		LIMIT 1`,
		sceneID,
	).Scan(&snap.ID, &snap.SceneID, &snap.Version, &snap.Data, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &snap, nil
}
