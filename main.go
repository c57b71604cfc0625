package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/buildreviewer/reviewer-services/handlers"
	"github.com/buildreviewer/reviewer-services/internal/config"
	"github.com/buildreviewer/reviewer-services/internal/database"
	"github.com/buildreviewer/reviewer-services/internal/oidc"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/handler"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/repository"
	"github.com/buildreviewer/reviewer-services/internal/reviewer/service"
	"github.com/buildreviewer/reviewer-services/internal/storage"
	"github.com/buildreviewer/reviewer-services/pkg/logger"
	"github.com/buildreviewer/reviewer-services/pkg/metrics"
	"github.com/buildreviewer/reviewer-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	inMemory := errors.Is(err, config.ErrMissingMongoURI)
	if err != nil && !inMemory {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v log_level=%s", cfg.Keycloak.URL != "", !inMemory, cfg.Redis.Host != "", cfg.MinIO.Enabled(), logger.LevelString())

	ctx := context.Background()

	var mongoClient *mongo.Client
	var svc *service.Service
	if inMemory {
		logger.Warn("MONGODB_URI not set; using in-memory store")
		svc = service.NewMemoryService()
	} else {
		mongoClient, err = database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
		svc = service.NewMongoService(mongoClient.Database(cfg.MongoDB.Database), repository.MongoOptions{
			BusinessCollection: cfg.MongoDB.BusinessCollection,
			ReviewCollection:   cfg.MongoDB.ReviewCollection,
			PageSize:           cfg.MongoDB.PageSize,
		})
	}
	// a failed provision is retried by every later data operation
	initCtx, cancel := context.WithTimeout(ctx, cfg.MongoDB.Timeout)
	if err := svc.Initialize(initCtx); err != nil {
		logger.Warnf("store initialization failed: %v", err)
	}
	cancel()

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	var videos handler.VideoLinker
	if cfg.MinIO.Enabled() {
		vs, err := storage.NewVideoStore(&cfg.MinIO)
		if err != nil {
			logger.Warnf("video store disabled: %v", err)
		} else {
			if err := vs.EnsureBucket(ctx); err != nil {
				logger.Warnf("ensure bucket %s: %v", cfg.MinIO.Bucket, err)
			}
			videos = vs
		}
	}

	verifier := oidc.FromConfig(ctx, cfg.Keycloak)
	var auth gin.HandlerFunc
	if verifier != nil {
		auth = middleware.AuthMiddleware(verifier)
	} else {
		logger.Warn("authentication not configured; write routes are open")
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(cors(), gin.Logger(), gin.Recovery())

	var limit gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limit = middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		} else {
			limit = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when the store answers and a configured identity provider was reached
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"store": true, "oidc": true, "redis": true}
		if mongoClient != nil {
			pctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			deps["store"] = mongoClient.Ping(pctx, nil) == nil
			cancel()
		}
		if lv, ok := verifier.(*oidc.LazyVerifier); ok {
			deps["oidc"] = lv.Ready(c.Request.Context())
		}
		if redisClient != nil && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient.Ping(c.Request.Context()).Err() == nil
		}
		status, code := "ready", http.StatusOK
		for _, ok := range deps {
			if !ok {
				status, code = "not_ready", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handler.New(svc, videos, cfg.Videos.LinkTTL).Register(r, auth, limit)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("starting reviewer service on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("server failed: %v", err)
	}
}

// cors allows any origin; production deployments sit behind a gateway that
// applies the real policy.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
