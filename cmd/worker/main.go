package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"scanpipe/internal/scan"
	"scanpipe/pipeline"
	"scanpipe/types"
	"scanpipe/types/config"
)

func main() {

	const postgresURL = "host=localhost port=5432 user=postgres password=postgres dbname=scanpipe sslmode=disable"

	modules := types.ModuleConfig{
		{Name: types.ReservedMainEntry, Enabled: true},
		{Name: "filesize", Enabled: true},
		{Name: "sha256", Enabled: true},
		{Name: "entropy", Enabled: false},
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.NewConfig("scanner-west-1",
		config.WithWorkerCount(8),
		config.WithLaneCapacity(1000),
		config.WithPostgresConfig(config.PostgresConfig{ConnectionUrl: postgresURL}),
		config.WithRedisConfig(config.RedisConfig{Address: "localhost:6379"}),
		config.WithModules(modules),
		config.WithReportDir("./reports"),
		config.WithRolloverDays(14),
		config.WithStatusEndpoint(8080, "operator", string(passwordHash)),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobManager, err := pipeline.New(ctx, cfg, scan.EngineFunc(runModules), nil)
	if err != nil {
		log.Fatal(err)
	}
	defer jobManager.Close()

	// A few example submissions so a fresh deployment has something to show.
	go func() {
		time.Sleep(time.Second)
		for _, sample := range []string{"/tmp/sample-a.bin", "/tmp/sample-b.bin"} {
			req := types.SubmitRequest{
				TaskID:           uuid.NewString(),
				FileRef:          sample,
				OriginalFilename: sample[len("/tmp/"):],
				Lane:             types.LaneHigh,
			}
			if err := jobManager.Submit(ctx, req); err != nil {
				log.Printf("submit %s: %v", sample, err)
			}
		}
	}()

	if err := jobManager.Run(ctx); err != nil {
		log.Fatal(err)
	}
}

// runModules is a minimal in-process engine useful for smoke-testing a
// deployment without real scanner integrations.
func runModules(ctx context.Context, fileRefs []string, modules types.ModuleConfig, subset []string) (map[string]types.Findings, error) {
	resolved, err := scan.Resolve(modules, subset)
	if err != nil {
		return nil, err
	}

	out := make(map[string]types.Findings, len(fileRefs))
	for _, ref := range fileRefs {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, err
		}

		findings := types.Findings{}
		for _, m := range resolved {
			switch m.Name {
			case "filesize":
				findings["filesize"] = len(data)
			case "sha256":
				sum := sha256.Sum256(data)
				findings["sha256"] = hex.EncodeToString(sum[:])
			}
		}
		out[ref] = findings
	}
	return out, nil
}
