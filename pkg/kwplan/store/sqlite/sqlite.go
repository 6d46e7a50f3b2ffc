package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
	"github.com/cognicore/kwplan/pkg/kwplan/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	strategy TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_rows (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	keyword TEXT NOT NULL,
	ad_group TEXT NOT NULL,
	match_type TEXT NOT NULL,
	avg_monthly_searches INTEGER NOT NULL,
	competition TEXT NOT NULL,
	suggested_cpc REAL NOT NULL,
	suggested_cpc_range TEXT NOT NULL,
	high_priority INTEGER NOT NULL,
	source TEXT NOT NULL,
	PRIMARY KEY(run_id, position),
	UNIQUE(run_id, keyword, match_type),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun writes the run and its rows in one transaction, replacing any
// earlier copy with the same ID.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("save run: empty id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM run_rows WHERE run_id = ?`, `DELETE FROM runs WHERE id = ?`} {
		if _, err := tx.ExecContext(ctx, q, r.ID); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, strategy) VALUES (?, ?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano), r.Strategy,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_rows (run_id, position, keyword, ad_group, match_type, avg_monthly_searches,
	competition, suggested_cpc, suggested_cpc_range, high_priority, source)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range r.Rows {
		if _, err := stmt.ExecContext(ctx,
			r.ID, i, row.Keyword, row.AdGroup, string(row.MatchType), row.AvgMonthlySearches,
			string(row.Competition), row.SuggestedCPC, row.SuggestedCPCRange, boolToInt(row.HighPriority), row.Source,
		); err != nil {
			return fmt.Errorf("insert row %d (%s): %w", i, row.Keyword, err)
		}
	}

	return tx.Commit()
}

// GetRun loads a run and its rows in table order
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var (
		r       store.Run
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, strategy FROM runs WHERE id = ?`, id,
	).Scan(&r.ID, &created, &r.Strategy)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return store.Run{}, fmt.Errorf("run %s: parse created_at: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT keyword, ad_group, match_type, avg_monthly_searches, competition,
	suggested_cpc, suggested_cpc_range, high_priority, source
FROM run_rows WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return store.Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row      keyword.Row
			mt, comp string
			priority int
		)
		if err := rows.Scan(&row.Keyword, &row.AdGroup, &mt, &row.AvgMonthlySearches, &comp,
			&row.SuggestedCPC, &row.SuggestedCPCRange, &priority, &row.Source); err != nil {
			return store.Run{}, err
		}
		row.MatchType = keyword.MatchType(mt)
		row.Competition = keyword.Competition(comp)
		row.HighPriority = priority != 0
		r.Rows = append(r.Rows, row)
	}
	return r, rows.Err()
}

// ListRuns returns the newest runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error) {
	query := `
SELECT r.id, r.created_at, r.strategy, COUNT(rr.position)
FROM runs r LEFT JOIN run_rows rr ON rr.run_id = r.id
GROUP BY r.id
ORDER BY r.id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.RunInfo
	for rows.Next() {
		var (
			info    store.RunInfo
			created string
		)
		if err := rows.Scan(&info.ID, &created, &info.Strategy, &info.RowCount); err != nil {
			return nil, err
		}
		if info.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
