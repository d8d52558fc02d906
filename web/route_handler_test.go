package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"scanpipe/client/test/mocks"
	"scanpipe/internal/state"
	"scanpipe/types"
)

type stubDepths struct {
	depths map[types.Lane]int
}

func (s *stubDepths) Depths(ctx context.Context) (map[types.Lane]int, error) {
	return s.depths, nil
}

func newTestHandler(t *testing.T, store *mocks.MockTaskStore) *HttpRouteHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	depths := &stubDepths{depths: map[types.Lane]int{types.LaneHigh: 1, types.LaneMedium: 4, types.LaneLow: 0}}
	return NewRouteHandler(store, depths, "operator", string(hash), 8080)
}

func get(t *testing.T, handler http.Handler, path string, withAuth bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withAuth {
		req.SetBasicAuth("operator", "secret")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouteHandler_HealthNeedsNoAuth(t *testing.T) {
	h := newTestHandler(t, &mocks.MockTaskStore{})
	rec := get(t, h.Routes(), "/healthz", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteHandler_TaskEndpoint(t *testing.T) {
	startedAt := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	store := &mocks.MockTaskStore{
		GetTaskFunc: func(ctx context.Context, id string) (*types.Task, error) {
			assert.Equal(t, "task-1", id)
			return &types.Task{ID: id, Status: state.StatusRunning, OriginalFilename: "sample.exe", StartedAt: &startedAt}, nil
		},
	}
	h := newTestHandler(t, store)

	rec := get(t, h.Routes(), "/tasks/task-1", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var task types.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, state.StatusRunning, task.Status)
}

func TestRouteHandler_TaskNotFound(t *testing.T) {
	store := &mocks.MockTaskStore{
		GetTaskFunc: func(ctx context.Context, id string) (*types.Task, error) {
			return nil, sql.ErrNoRows
		},
	}
	h := newTestHandler(t, store)

	rec := get(t, h.Routes(), "/tasks/missing", true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouteHandler_Stats(t *testing.T) {
	store := &mocks.MockTaskStore{
		CountTasksGroupedByStatusFunc: func(ctx context.Context) (map[state.TaskStatus]int, error) {
			return map[state.TaskStatus]int{state.StatusComplete: 10, state.StatusFailed: 2}, nil
		},
	}
	h := newTestHandler(t, store)

	rec := get(t, h.Routes(), "/stats", true)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		Tasks  map[string]int `json:"tasks"`
		Queues map[string]int `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.Tasks["complete"])
	assert.Equal(t, 2, stats.Tasks["failed"])
	assert.Equal(t, 4, stats.Queues["medium"])
}

func TestRouteHandler_RejectsBadCredentials(t *testing.T) {
	h := newTestHandler(t, &mocks.MockTaskStore{})
	routes := h.Routes()

	rec := get(t, routes, "/stats", false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.SetBasicAuth("operator", "wrong")
	got := httptest.NewRecorder()
	routes.ServeHTTP(got, req)
	assert.Equal(t, http.StatusUnauthorized, got.Code)
}

func TestRouteHandler_EmptyHashDisablesAuth(t *testing.T) {
	store := &mocks.MockTaskStore{
		CountTasksGroupedByStatusFunc: func(ctx context.Context) (map[state.TaskStatus]int, error) {
			return map[state.TaskStatus]int{}, nil
		},
	}
	h := NewRouteHandler(store, nil, "", "", 8080)

	rec := get(t, h.Routes(), "/stats", false)
	assert.Equal(t, http.StatusOK, rec.Code)
}
