// Package store persists solved matching problems in a SQLite design log so
// past syntheses can be listed and compared.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kinKKKdred/Matchingnetwork/pkg/matching"
	"github.com/kinKKKdred/Matchingnetwork/pkg/units"
)

// DefaultRecentLimit caps Recent queries when the caller does not bound them.
const DefaultRecentLimit = 20

// Record is one design-log row. Detail holds the full result document in the
// pkg/matching JSON encoding; the remaining columns are the indexed summary.
type Record struct {
	ID            int64           `json:"id"`
	CreatedAt     time.Time       `json:"createdAt"`
	Name          string          `json:"name"`
	Topology      string          `json:"topology"`
	ZInitial      string          `json:"zInitial"`
	ZTarget       string          `json:"zTarget"`
	Z0            float64         `json:"z0"`
	Frequency     float64         `json:"frequency"`
	Q             float64         `json:"q,omitempty"`
	Spacing       float64         `json:"spacing,omitempty"`
	SolutionCount int             `json:"solutionCount"`
	Category      string          `json:"category"`
	Detail        json.RawMessage `json:"detail,omitempty"`
}

// NewRecord summarizes a solved request into a design-log record. The request
// supplies the knobs the result does not echo (Q, stub spacing).
func NewRecord(name string, req matching.Request, res *matching.Result) (Record, error) {
	detail, err := json.Marshal(res)
	if err != nil {
		return Record{}, fmt.Errorf("encode design detail: %w", err)
	}
	return Record{
		Name:          name,
		Topology:      string(res.Topology),
		ZInitial:      units.FormatComplex(res.ZInitial),
		ZTarget:       units.FormatComplex(res.ZTarget),
		Z0:            res.Z0,
		Frequency:     res.Frequency,
		Q:             req.Q,
		Spacing:       req.Spacing,
		SolutionCount: len(res.Solutions),
		Category:      categorize(res),
		Detail:        detail,
	}, nil
}

// categorize reduces a result to one log label: the most informative status
// present, or "empty" when the solver found nothing at all.
func categorize(res *matching.Result) string {
	if len(res.Solutions) == 0 {
		return "empty"
	}
	category := matching.StatusInfeasible
	for _, sol := range res.Solutions {
		switch sol.Status {
		case matching.StatusNormal:
			return matching.StatusNormal.String()
		case matching.StatusDirectConnect:
			category = matching.StatusDirectConnect
		}
	}
	return category.String()
}

// Store is a SQLite-backed design log.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if necessary) the design log at path. ":memory:" gives
// a throwaway in-process log.
func Open(logger *zap.Logger, path string) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		return nil, fmt.Errorf("store path is empty")
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open design log %s: %w", path, err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate design log %s: %w", path, err)
	}
	logger.Debug("opened design log",
		zap.String("op", "store.Open"),
		zap.String("path", path),
	)
	return s, nil
}

// dsn appends the write-ahead-log and busy-timeout pragmas for file-backed
// databases; in-memory databases take the path verbatim.
func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS designs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at INTEGER NOT NULL,
		name TEXT NOT NULL,
		topology TEXT NOT NULL,
		z_initial TEXT NOT NULL,
		z_target TEXT NOT NULL,
		z0 REAL NOT NULL,
		frequency REAL NOT NULL,
		q REAL NOT NULL DEFAULT 0,
		spacing REAL NOT NULL DEFAULT 0,
		solution_count INTEGER NOT NULL,
		category TEXT NOT NULL,
		detail JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_designs_created ON designs(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save appends a record and returns its assigned id. The record's CreatedAt
// is ignored; the log timestamps on insert.
func (s *Store) Save(ctx context.Context, rec Record) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO designs (created_at, name, topology, z_initial, z_target,
			z0, frequency, q, spacing, solution_count, category, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, time.Now().Unix(), rec.Name, rec.Topology, rec.ZInitial, rec.ZTarget,
		rec.Z0, rec.Frequency, rec.Q, rec.Spacing, rec.SolutionCount,
		rec.Category, []byte(rec.Detail))
	if err != nil {
		return 0, fmt.Errorf("save design %q: %w", rec.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save design %q: %w", rec.Name, err)
	}
	s.logger.Debug("saved design",
		zap.String("op", "store.Save"),
		zap.Int64("id", id),
		zap.String("name", rec.Name),
		zap.String("topology", rec.Topology),
		zap.String("category", rec.Category),
	)
	return id, nil
}

// Recent returns up to limit records, newest first. A non-positive limit
// falls back to DefaultRecentLimit.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, name, topology, z_initial, z_target,
			z0, frequency, q, spacing, solution_count, category, detail
		FROM designs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query design log: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec       Record
			createdAt int64
			detail    []byte
		)
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Name, &rec.Topology,
			&rec.ZInitial, &rec.ZTarget, &rec.Z0, &rec.Frequency, &rec.Q,
			&rec.Spacing, &rec.SolutionCount, &rec.Category, &detail); err != nil {
			return nil, fmt.Errorf("scan design row: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		rec.Detail = json.RawMessage(detail)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate design log: %w", err)
	}
	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
