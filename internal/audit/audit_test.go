package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/perf-analysis/internal/anon"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Repository {
	db, err := Open(Config{})
	require.NoError(t, err)
	return NewRepository(db)
}

func TestRecordAndRecent(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	cfg := anon.Params{K: 3, MinP: 5, MaxP: 9}
	require.NoError(t, repo.Record(ctx, "strict", cfg, 120, 6, true, nil))
	require.NoError(t, repo.Record(ctx, "idhex", cfg, 80, 8, false, errors.New("boom")))

	runs, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.Equal(t, "idhex", runs[0].Mode)
	require.Equal(t, "boom", runs[0].Err)
	require.Equal(t, "strict", runs[1].Mode)
	require.Equal(t, 6, runs[1].FinalP)
	require.True(t, runs[1].DotLevel)
}
