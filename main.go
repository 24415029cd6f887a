package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/onlineexam/exam-service/handlers"
	"github.com/onlineexam/exam-service/internal/config"
	"github.com/onlineexam/exam-service/internal/database"
	examhandler "github.com/onlineexam/exam-service/internal/exam/handler"
	"github.com/onlineexam/exam-service/internal/exam/repository"
	"github.com/onlineexam/exam-service/internal/exam/service"
	"github.com/onlineexam/exam-service/internal/oidc"
	"github.com/onlineexam/exam-service/internal/revocation"
	"github.com/onlineexam/exam-service/internal/tokens"
	"github.com/onlineexam/exam-service/internal/users"
	"github.com/onlineexam/exam-service/pkg/logger"
	"github.com/onlineexam/exam-service/pkg/metrics"
	"github.com/onlineexam/exam-service/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	mongoConnectAttempts = 5
	mongoConnectBackoff  = time.Second
)

func main() {
	// LOG_LEVEL is read again from config below; this covers config errors.
	logger.Init(os.Getenv("LOG_LEVEL"))
	startTime := time.Now()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: keycloak=%v jwt_secret_set=%v mongo=%v redis=%v rate_limit=%v",
		cfg.Keycloak.URL != "", cfg.JWT.Secret != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.RateLimit.Enabled)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: revocation list and shared rate limiting.
	var redisClient *redis.Client
	if addr := cfg.Redis.Addr(); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("redis ping failed (%s): %v", addr, err)
		} else {
			logger.Infof("connected to Redis at %s", addr)
		}
		defer func() { _ = redisClient.Close() }()
	}

	// Storage: MongoDB when configured, in-memory otherwise.
	var (
		mongoClient *mongo.Client
		examRepo    repository.Repository
		userSvc     *users.Service
	)
	if cfg.MongoDB.URI != "" {
		mongoClient, err = database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoConnectAttempts, mongoConnectBackoff)
		if err != nil {
			logger.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoClient.Disconnect(dctx); err != nil {
				logger.Warnf("mongo disconnect: %v", err)
			}
		}()
		db := mongoClient.Database(cfg.MongoDB.Database)
		mrepo := repository.NewMongoRepo(db.Collection(cfg.MongoDB.Collection))
		if err := mrepo.EnsureIndexes(ctx); err != nil {
			logger.Warnf("exam indexes: %v", err)
		}
		examRepo = mrepo
		userSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
		logger.Infof("using MongoDB %s/%s", cfg.MongoDB.Database, cfg.MongoDB.Collection)
	} else {
		logger.Warn("MONGODB_URI not set: exams are kept in memory and lost on restart")
		examRepo = repository.NewMemoryRepo()
		userSvc = users.NewService(users.NewMemoryUserRepository())
	}
	examSvc := service.New(examRepo)

	verifier, kind, err := buildVerifier(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialize token verifier: %v", err)
	}
	logger.Infof("token verifier: %s", kind)

	// Per-request chain for protected routes: authenticate, then rate limit by owner.
	var (
		authOpts []middleware.AuthOption
		revoker  handlers.Revoker
	)
	if redisClient != nil {
		revList := revocation.NewRedisList(redisClient, "")
		authOpts = append(authOpts, middleware.WithRevocationCheck(revList))
		revoker = revList
	}
	protected := []gin.HandlerFunc{middleware.AuthMiddleware(verifier, authOpts...)}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			protected = append(protected, middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			protected = append(protected, middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.RequestLogger(), cors.New(corsConfig(cfg.CORS)))

	checks := map[string]handlers.Check{}
	if mongoClient != nil {
		checks["storage"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	handlers.RegisterHealth(r, startTime, 2*time.Second, checks)
	handlers.RegisterSwagger(r)

	examhandler.RegisterExamRoutes(r, examSvc, protected...)
	api := r.Group("/api/v1")
	examhandler.RegisterExamRoutes(api, examSvc, protected...)
	handlers.RegisterMe(api, userSvc, protected...)
	handlers.RegisterLogout(api, revoker, protected...)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("exam service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Errorf("server failed: %v", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Errorf("graceful shutdown: %v", err)
	}
	logger.Info("server stopped")
}

// buildVerifier picks the token verifier: Keycloak OIDC, then the shared HS256
// secret, then (opt-in only) unsigned payload parsing.
func buildVerifier(ctx context.Context, cfg *config.Config) (middleware.Verifier, string, error) {
	switch {
	case cfg.Keycloak.URL != "":
		v, err := oidc.NewVerifier(ctx, cfg.Keycloak.Issuer(), cfg.Keycloak.ClientID)
		if err != nil {
			return nil, "", err
		}
		return v, "oidc", nil
	case cfg.JWT.Secret != "":
		return tokens.NewHMACVerifier(cfg.JWT.Secret), "hs256", nil
	case cfg.JWT.AllowInsecure:
		logger.Warn("enabling insecure token verifier (integration mode): signatures are NOT checked")
		return oidc.NewInsecureVerifier(), "insecure", nil
	}
	return nil, "", errors.New("no token verifier configured")
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.DefaultConfig()
	cc.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cc.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	if len(c.AllowedOrigins) == 0 || (len(c.AllowedOrigins) == 1 && c.AllowedOrigins[0] == "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}
