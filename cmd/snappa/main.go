package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/layer-3/snappa/adapters/directory"
	"github.com/layer-3/snappa/adapters/ethsig"
	"github.com/layer-3/snappa/adapters/events"
	"github.com/layer-3/snappa/adapters/store"
	"github.com/layer-3/snappa/adapters/tokenizer"
	"github.com/layer-3/snappa/config"
	"github.com/layer-3/snappa/metrics"
	"github.com/layer-3/snappa/service"
	transport "github.com/layer-3/snappa/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	var envFiles []string
	if f := os.Getenv("ENV_FILE"); f != "" {
		envFiles = append(envFiles, f)
	}

	cfg, err := config.Load(envFiles...)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	// Parse Redis URL and create client
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	// Initialize Watermill Redis publisher
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		logger.Fatalf("Failed to create Redis publisher: %v", err)
	}
	defer publisher.Close()

	neynar := directory.NewNeynarDirectory(cfg.NeynarBaseURL, cfg.NeynarAPIKey, &http.Client{Timeout: 10 * time.Second})
	users := directory.NewCachedDirectory(neynar, store.NewRedisStore(redisClient), cfg.DirectoryCacheTTL, logger)

	// Contract wallets are only checked when a chain endpoint is configured
	var caller ethsig.ContractCaller
	if cfg.EthRPCURL != "" {
		client, err := ethclient.Dial(cfg.EthRPCURL)
		if err != nil {
			logger.Fatalf("Failed to connect to Ethereum RPC: %v", err)
		}
		defer client.Close()
		caller = client
	}

	tokens, err := tokenizer.NewJWTTokenizer(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		logger.Fatalf("Failed to create tokenizer: %v", err)
	}

	m := metrics.New()

	authService := service.NewAuthService(
		users,
		ethsig.NewVerifier(caller),
		tokens,
		events.NewWatermillPublisher(publisher),
		logger,
		service.WithDevMode(cfg.DevMode),
		service.WithVerifyTimeout(cfg.VerifyTimeout),
		service.WithMetrics(m),
	)
	if cfg.DevMode {
		logger.Warn("local sign-in is enabled")
	}

	limiter := transport.NewRateLimiter(cfg.SignInRate, cfg.SignInBurst)

	// Setup Gin router
	router := transport.SetupRouter(authService, transport.RouterConfig{
		CookieAuth:    cfg.CookieAuth,
		Logger:        logger,
		Metrics:       m,
		SignInLimiter: limiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(10 * time.Minute)
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
