package pipeline

import (
	"context"
	"log"
	"runtime"

	_ "github.com/lib/pq"

	"scanpipe/client"
	"scanpipe/di"
	"scanpipe/internal/db"
	"scanpipe/internal/maintenance"
	"scanpipe/internal/scan"
	"scanpipe/types/config"
)

// New initializes one scan worker process from the provided Config.
//
// It connects to the configured storage backends, runs schema bootstrap under
// the migration advisory lock, wires the queue fabric, report fan-out,
// maintenance triggers and optional status endpoints, and returns a JobManager
// ready to accept submissions. Call Run on the returned manager to start the
// worker pool and the periodic scheduler.
//
// The engine executes the configured scan modules and is deployment-specific;
// correlator may be nil when no fuzzy-hash comparison backend is deployed.
func New(ctx context.Context, cfg *config.Config, engine scan.Engine, correlator maintenance.Correlator) (*client.JobManager, error) {

	log.Printf("GOMAXPROCS Is: %d\n", runtime.GOMAXPROCS(0))

	dependencies, jobManager, err := di.GetDependencies(cfg, engine, correlator)
	if err != nil {
		return nil, err
	}

	// Schema setup runs under the migration lock so concurrent worker
	// replicas cannot race the bootstrap.
	if err = db.Init(cfg.PostgresConfig.ConnectionUrl, dependencies.LockMgr); err != nil {
		return nil, err
	}

	if dependencies.RouteHandler != nil {
		runWebServer(ctx, dependencies)
	}

	return jobManager, nil
}

// runWebServer starts the status endpoints in a separate goroutine and shuts
// them down with the process context.
func runWebServer(ctx context.Context, dependencies *di.PipelineDependency) {
	go func() {
		if err := dependencies.RouteHandler.Serve(); err != nil {
			log.Printf("failed to start status endpoints: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := dependencies.RouteHandler.Shutdown(context.Background()); err != nil {
			log.Printf("failed to stop status endpoints: %v", err)
		}
	}()
}
