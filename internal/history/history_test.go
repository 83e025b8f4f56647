// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/publish-or-not/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2017, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return s
}

func runConfig() types.RunConfig {
	cfg := types.DefaultRunConfig()
	cfg.Venue = "Learning Analytics"
	cfg.NamesPath = "names.txt"
	cfg.Names = []string{"A. Smith", "B. Jones"}
	cfg.YearFrom, cfg.YearTo = 2013, 2017
	return cfg
}

func TestRunLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.StartRun(ctx, runConfig())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.Record(ctx, id, types.AttemptResult{
		Name: "A. Smith", Outcome: types.Found, Count: 3,
		Proxy: "10.0.0.1:8080", UserAgent: "ua", Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, s.Record(ctx, id, types.AttemptResult{Name: "B. Jones", Outcome: types.Blocked}))
	require.NoError(t, s.FinishRun(ctx, id, StatusBlocked))

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Learning Analytics", run.Venue)
	assert.Equal(t, "2013 - 2017", run.Years)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, StatusBlocked, run.Status)
	assert.True(t, run.FinishedAt.After(run.StartedAt))

	attempts, err := s.Attempts(ctx, id)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "A. Smith", attempts[0].Name)
	assert.Equal(t, types.Found, attempts[0].Outcome)
	assert.Equal(t, 3, attempts[0].Count)
	assert.Equal(t, "10.0.0.1:8080", attempts[0].Proxy)
	assert.Equal(t, 1500*time.Millisecond, attempts[0].Duration)
	assert.Equal(t, types.Blocked, attempts[1].Outcome)
}

func TestRunsNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, err := s.StartRun(ctx, runConfig())
	require.NoError(t, err)
	second, err := s.StartRun(ctx, runConfig())
	require.NoError(t, err)

	runs, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, StatusRunning, runs[0].Status)
	assert.True(t, runs[0].FinishedAt.IsZero())

	limited, err := s.Runs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUnknownRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnknownRun)
	assert.ErrorIs(t, s.FinishRun(ctx, "missing", StatusCompleted), ErrUnknownRun)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.StartRun(context.Background(), runConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	run, err := s.GetRun(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	id, err := s.StartRun(ctx, runConfig())
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, id, types.AttemptResult{Name: "A. Smith", Outcome: types.Found, Count: 3}))
	require.NoError(t, s.FinishRun(ctx, id, StatusCompleted))

	var yb bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, id, &yb))
	var fromYAML ExportRun
	require.NoError(t, yaml.Unmarshal(yb.Bytes(), &fromYAML))
	assert.Equal(t, id, fromYAML.ID)
	require.Len(t, fromYAML.Attempts, 1)
	assert.Equal(t, "Yes", fromYAML.Attempts[0].Publish)

	var jb bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, id, &jb))
	var fromJSON map[string]any
	require.NoError(t, json.Unmarshal(jb.Bytes(), &fromJSON))
	assert.Equal(t, "completed", fromJSON["status"])

	assert.ErrorIs(t, s.ExportYAML(ctx, "missing", &yb), ErrUnknownRun)
}
