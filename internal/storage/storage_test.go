package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scanpipe/types"
)

type fakeStore struct {
	id     string
	err    error
	stored int
}

func (f *fakeStore) ID() string { return f.id }

func (f *fakeStore) Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) error {
	if f.err != nil {
		return f.err
	}
	f.stored++
	return nil
}

func (f *fakeStore) Close() error { return nil }

func testEnvelope() *types.ScanResultEnvelope {
	return &types.ScanResultEnvelope{
		TaskID:   "task-1",
		Filename: "evil.doc",
		Findings: types.Findings{"filemeta": map[string]any{"size": 42}},
		Metadata: map[string]any{"Task ID": "task-1"},
		ScanTime: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
}

func TestHandler_ReturnsSuccessfulBackendIDs(t *testing.T) {
	ok := &fakeStore{id: "postgres"}
	broken := &fakeStore{id: "redis", err: errors.New("connection refused")}
	h := NewHandler(ok, broken)

	ids := h.Store(context.Background(), testEnvelope(), false)

	assert.ElementsMatch(t, []string{"postgres"}, ids)
	assert.Equal(t, 1, ok.stored)
}

func TestHandler_EmptySetOnTotalFailure(t *testing.T) {
	h := NewHandler(
		&fakeStore{id: "postgres", err: errors.New("down")},
		&fakeStore{id: "redis", err: errors.New("down")},
	)

	ids := h.Store(context.Background(), testEnvelope(), false)
	assert.Empty(t, ids)
}

func TestHandler_AllBackendsWritten(t *testing.T) {
	a := &fakeStore{id: "a"}
	b := &fakeStore{id: "b"}
	c := &fakeStore{id: "c"}
	h := NewHandler(a, b, c)

	ids := h.Store(context.Background(), testEnvelope(), true)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestDailyIndex(t *testing.T) {
	ts := time.Date(2026, 8, 25, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "reports-2026.08.25", DailyIndex("reports", ts))
}

func TestFileResultStore_AppendsDailyFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileResultStore(dir)
	require.NoError(t, err)

	env := testEnvelope()
	require.NoError(t, s.Store(context.Background(), env, true))
	require.NoError(t, s.Store(context.Background(), env, false))

	data, err := os.ReadFile(filepath.Join(dir, "reports-2026.08.25.jsonl"))
	require.NoError(t, err)

	lines := 0
	for _, line := range splitLines(data) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		assert.Equal(t, "task-1", entry["task_id"])
		lines++
	}
	assert.Equal(t, 2, lines)
}

func splitLines(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				out = append(out, data[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func TestEnvelopeReport_KeyedByOriginalFilename(t *testing.T) {
	report := testEnvelope().Report()

	entry, ok := report["evil.doc"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, entry, "filemeta")
	assert.Contains(t, entry, "Scan Metadata")
}
