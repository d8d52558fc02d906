package di

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"scanpipe/client"
	"scanpipe/internal/lock"
	"scanpipe/internal/maintenance"
	"scanpipe/internal/queue"
	"scanpipe/internal/scan"
	"scanpipe/internal/schedule"
	"scanpipe/internal/storage"
	"scanpipe/internal/store"
	"scanpipe/types/config"
	"scanpipe/web"
)

// PipelineDependency holds every wired service of one worker process. It is
// handed back to the caller so pieces like the route handler can be driven
// independently of the job manager.
type PipelineDependency struct {
	TaskStore     store.TaskStore
	LockMgr       lock.DistributedLockManager
	Fabric        queue.Fabric
	ResultHandler *storage.Handler
	Janitor       maintenance.IndexJanitor
	Scheduler     *schedule.Scheduler
	ScanManager   *client.ScanJobManager
	RouteHandler  *web.HttpRouteHandler
	RedisClient   *redis.Client
}

// createPipelineDependency initializes all required services: status store,
// queue fabric, report fan-out, maintenance triggers and the optional status
// endpoints.
func createPipelineDependency(
	cfg *config.Config,
	sqlDB *sql.DB,
	redisClient *redis.Client,
	engine scan.Engine,
	correlator maintenance.Correlator,
) (*PipelineDependency, error) {

	taskStore := createTaskStore(sqlDB)
	lockMgr := createDistributedLockManager(sqlDB)

	fabric, err := createQueueFabric(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue fabric: %w", err)
	}

	resultHandler, err := createResultHandler(cfg, sqlDB, redisClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize report backends: %w", err)
	}

	janitor := createIndexJanitor(redisClient)

	tracker := client.NewLifecycleTracker(taskStore)
	scanManager := client.NewScanJobManager(
		fabric,
		engine,
		cfg.Modules,
		resultHandler,
		correlator,
		janitor,
		tracker,
		client.WorkerIdentity(cfg.Instance),
	)

	scheduler := schedule.NewScheduler(
		client.NewCorrelationTrigger(fabric, cfg.Periodic.CorrelationHour),
		client.NewRolloverTrigger(fabric, cfg.Periodic.RolloverHour, func() client.PeriodicView {
			return client.PeriodicView{
				RolloverEnabled:      cfg.Periodic.RolloverEnabled,
				RolloverDays:         cfg.Periodic.RolloverDays,
				RolloverFallbackDays: cfg.Periodic.RolloverFallbackDays,
			}
		}),
	)

	var routeHandler *web.HttpRouteHandler
	if cfg.WebPort > 0 {
		depths, _ := fabric.(queue.DepthReporter)
		routeHandler = web.NewRouteHandler(taskStore, depths, cfg.WebUser, cfg.WebPasswordHash, cfg.WebPort)
	}

	return &PipelineDependency{
		TaskStore:     taskStore,
		LockMgr:       lockMgr,
		Fabric:        fabric,
		ResultHandler: resultHandler,
		Janitor:       janitor,
		Scheduler:     scheduler,
		ScanManager:   scanManager,
		RouteHandler:  routeHandler,
		RedisClient:   redisClient,
	}, nil
}
