// Command seed loads a YAML fixture of businesses and reviews into the
// configured store.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/buildreviewer/reviewer-services/internal/config"
	"github.com/buildreviewer/reviewer-services/internal/database"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/repository"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/service"
	"github.com/buildreviewer/reviewer-services/internal/seed"
	"github.com/buildreviewer/reviewer-services/pkg/logger"
	"github.com/spf13/pflag"
)

func main() {
	file := pflag.StringP("file", "f", "seed.yaml", "fixture file to load")
	attempts := pflag.Int("attempts", 5, "MongoDB connection attempts")
	dryRun := pflag.Bool("dry-run", false, "apply to an in-memory store and report counts only")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	logger.Init(cfg.LogLevel)
	if err != nil && !(*dryRun && errors.Is(err, config.ErrMissingMongoURI)) {
		logger.Fatalf("failed to load config: %v", err)
	}

	fh, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("open fixture: %v", err)
	}
	fx, err := seed.Load(fh)
	_ = fh.Close()
	if err != nil {
		logger.Fatalf("%s: %v", *file, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var svc service.DataService
	if *dryRun {
		svc = service.NewMemoryService()
	} else {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, *attempts, time.Second)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		svc = service.NewMongoService(client.Database(cfg.MongoDB.Database), repository.MongoOptions{
			BusinessCollection: cfg.MongoDB.BusinessCollection,
			ReviewCollection:   cfg.MongoDB.ReviewCollection,
			PageSize:           cfg.MongoDB.PageSize,
		})
	}

	res, err := seed.Apply(ctx, svc, fx)
	if err != nil {
		logger.Errorf("seed %s: %v", *file, err)
		cancel()
		os.Exit(1)
	}
	logger.Infof("seeded %s: %d businesses inserted, %d updated; %d reviews inserted, %d updated",
		*file, res.BusinessesInserted, res.BusinessesUpdated, res.ReviewsInserted, res.ReviewsUpdated)
}
