package di

import (
	"scanpipe/client"
	"scanpipe/internal/maintenance"
	"scanpipe/internal/scan"
	"scanpipe/types/config"
)

// GetDependencies opens the storage connections and wires the full pipeline.
// The engine is supplied by the caller because module execution is
// deployment-specific; correlator may be nil when no fuzzy-hash comparison is
// deployed.
func GetDependencies(cfg *config.Config, engine scan.Engine, correlator maintenance.Correlator) (*PipelineDependency, *client.JobManager, error) {

	sqlDB := getPG(cfg.PostgresConfig.ConnectionUrl)
	redisClient := getRedis(cfg.RedisConfig)

	dependencies, err := createPipelineDependency(cfg, sqlDB, redisClient, engine, correlator)
	if err != nil {
		return nil, nil, err
	}

	jm := client.NewJobManager(
		cfg,
		dependencies.Fabric,
		dependencies.TaskStore,
		dependencies.ScanManager,
		dependencies.Scheduler,
	)

	return dependencies, jm, nil
}
