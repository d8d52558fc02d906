package storage

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"scanpipe/types"
)

// ResultStore is one report backend in the fan-out set.
type ResultStore interface {
	// ID identifies the backend in the set returned by Handler.Store.
	ID() string

	// Store persists one envelope. wait asks the backend for its strongest
	// durability (e.g. fsync); backends without the distinction ignore it.
	Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) error

	Close() error
}

// DailyIndex names the daily bucket a report lands in, e.g. "reports-2026.08.25".
// Old buckets are what the index janitor rolls over.
func DailyIndex(prefix string, t time.Time) string {
	return prefix + "-" + t.UTC().Format("2006.01.02")
}

// Handler fans a completed report out to every configured backend and returns
// the ids of the backends that persisted it. An empty result means no backend
// accepted the report, which callers treat as a publish failure.
type Handler struct {
	stores []ResultStore
}

func NewHandler(stores ...ResultStore) *Handler {
	return &Handler{stores: stores}
}

func (h *Handler) Store(ctx context.Context, env *types.ScanResultEnvelope, wait bool) []string {
	var (
		mu  sync.Mutex
		ids []string
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range h.stores {
		g.Go(func() error {
			if err := s.Store(gctx, env, wait); err != nil {
				log.Printf("report store %s failed for task %s: %v", s.ID(), env.TaskID, err)
				// A single failed backend must not sink the fan-out.
				return nil
			}
			mu.Lock()
			ids = append(ids, s.ID())
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return ids
}

func (h *Handler) Close() error {
	var errs []error
	for _, s := range h.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
