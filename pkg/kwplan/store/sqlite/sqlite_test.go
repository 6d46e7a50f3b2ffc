package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
	"github.com/cognicore/kwplan/pkg/kwplan/keyword"
	"github.com/cognicore/kwplan/pkg/kwplan/store"
)

func openTemp(t *testing.T) (store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	st, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st, path
}

func sampleRun(id string) store.Run {
	return store.Run{
		ID:        id,
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC),
		Strategy:  "aggressive",
		Rows: []keyword.Row{
			{
				Keyword: "dominos menu", AdGroup: "Brand Terms", MatchType: keyword.MatchExact,
				AvgMonthlySearches: 9000, Competition: "High", SuggestedCPC: 4.8,
				SuggestedCPCRange: "₹2.40 - ₹7.20", HighPriority: true, Source: "brand",
			},
			{
				Keyword: "veg pizza", AdGroup: "Pizza Queries", MatchType: keyword.MatchPhrase,
				AvgMonthlySearches: 2000, Competition: "Low", SuggestedCPC: 1.5,
				SuggestedCPCRange: "₹1.00 - ₹2.00", Source: "competitor",
			},
		},
	}
}

func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, initSchema(ctx, db), "iteration %d", i)
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count) // runs, run_rows
}

func TestSaveGetRun(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	run := sampleRun("01HZX")
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestSaveRunReplaces(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	run := sampleRun("01HZX")
	require.NoError(t, st.SaveRun(ctx, run))
	run.Rows = run.Rows[:1]
	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 1)
}

func TestSaveRunRejectsDuplicateRows(t *testing.T) {
	ctx := context.Background()
	st, _ := openTemp(t)

	run := sampleRun("01HZX")
	run.Rows = append(run.Rows, run.Rows[0])
	assert.Error(t, st.SaveRun(ctx, run))

	_, err := st.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, internalerr.ErrNotFound, "failed save must not leave a partial run")
}

func TestGetRunNotFound(t *testing.T) {
	st, _ := openTemp(t)
	_, err := st.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func TestListRunsPersistAcrossReopen(t *testing.T) {
	ctx := context.Background()
	st, path := openTemp(t)

	require.NoError(t, st.SaveRun(ctx, sampleRun("01A")))
	require.NoError(t, st.SaveRun(ctx, sampleRun("01B")))
	require.NoError(t, st.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	infos, err := reopened.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "01B", infos[0].ID)
	assert.Equal(t, 2, infos[0].RowCount)
	assert.Equal(t, "aggressive", infos[0].Strategy)

	limited, err := reopened.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
