package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"scanpipe/internal/queue"
	"scanpipe/internal/store"
)

// HttpRouteHandler serves the operator status endpoints: individual task
// lifecycles, aggregate pipeline counts and a liveness probe. It is read-only;
// submissions never come through here.
type HttpRouteHandler struct {
	taskStore    store.TaskStore
	depths       queue.DepthReporter
	User         string
	PasswordHash string
	Port         uint

	server *http.Server
}

func NewRouteHandler(taskStore store.TaskStore, depths queue.DepthReporter, user, passwordHash string, port uint) *HttpRouteHandler {
	return &HttpRouteHandler{
		taskStore:    taskStore,
		depths:       depths,
		User:         user,
		PasswordHash: passwordHash,
		Port:         port,
	}
}

// Serve blocks on the listener until Shutdown or a listener error.
func (handler *HttpRouteHandler) Serve() error {
	addr := fmt.Sprintf(":%d", handler.Port)
	handler.server = &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("status endpoints listening on %s", addr)
	err := handler.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (handler *HttpRouteHandler) Shutdown(ctx context.Context) error {
	if handler.server == nil {
		return nil
	}
	return handler.server.Shutdown(ctx)
}

// Routes builds the mux. Split out from Serve so tests can drive it without a
// listener.
func (handler *HttpRouteHandler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.handleHealth)
	mux.HandleFunc("GET /tasks/{id}", handler.authMiddleware(handler.handleTask))
	mux.HandleFunc("GET /stats", handler.authMiddleware(handler.handleStats))
	return mux
}

func (handler *HttpRouteHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (handler *HttpRouteHandler) handleTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := handler.taskStore.GetTask(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && task == nil) {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("failed to fetch task %s: %v", id, err)
		http.Error(w, "failed to fetch task", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

func (handler *HttpRouteHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := handler.taskStore.CountTasksGroupedByStatus(ctx)
	if err != nil {
		log.Printf("failed to count tasks: %v", err)
		http.Error(w, "failed to count tasks", http.StatusInternalServerError)
		return
	}

	stats := map[string]any{"tasks": counts}
	if handler.depths != nil {
		depths, err := handler.depths.Depths(ctx)
		if err != nil {
			log.Printf("failed to read queue depths: %v", err)
		} else {
			stats["queues"] = depths
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
