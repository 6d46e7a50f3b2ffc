package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
)

// Store archives pipeline runs so result tables can be compared over time
type Store interface {
	Close() error

	SaveRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunInfo, error)
}

// Run is one archived result table
type Run struct {
	ID        string
	CreatedAt time.Time
	Strategy  string
	Rows      []keyword.Row
}

// RunInfo is the listing view of a run
type RunInfo struct {
	ID        string
	CreatedAt time.Time
	Strategy  string
	RowCount  int
}

// IDs hands out lexically sortable run identifiers
type IDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDs creates a run ID generator
func NewIDs() *IDs {
	return &IDs{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a fresh ID for the given time
func (g *IDs) New(at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), g.entropy).String()
}

// NewRun stamps rows with a new ID and the current time
func NewRun(ids *IDs, strategy string, rows []keyword.Row) Run {
	now := time.Now().UTC()
	return Run{
		ID:        ids.New(now),
		CreatedAt: now,
		Strategy:  strategy,
		Rows:      rows,
	}
}
