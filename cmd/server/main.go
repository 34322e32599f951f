package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"basegraph.app/advisor/common/id"
	"basegraph.app/advisor/common/llm"
	"basegraph.app/advisor/common/logger"
	"basegraph.app/advisor/common/otel"
	"basegraph.app/advisor/core/config"
	"basegraph.app/advisor/internal/brain"
	"basegraph.app/advisor/internal/http/middleware"
	httprouter "basegraph.app/advisor/internal/http/router"
	"basegraph.app/advisor/internal/status"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "advisor starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(cfg.NodeID); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	var (
		redisClient *redis.Client
		publisher   status.Publisher = status.Nop{}
	)
	if cfg.Redis.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient = redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		publisher = status.NewRedisPublisher(redisClient, status.RedisOptions{
			MaxLen: cfg.Redis.StatusMaxLen,
			TTL:    cfg.Redis.StatusTTL,
		}, slog.Default())
		slog.InfoContext(ctx, "redis connected, status streaming enabled")
	} else {
		slog.InfoContext(ctx, "redis disabled (no REDIS_URL), status streaming off")
	}

	advisor, err := newAdvisor(cfg, publisher)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build advisor", "error", err)
		os.Exit(1)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, advisor, redisClient)
	// A full advisory runs inside one request, so writes get the long timeout.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func newAdvisor(cfg config.Config, publisher status.Publisher) (*brain.Advisor, error) {
	client, err := llm.NewClient(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	roster := brain.DefaultRoster()
	if cfg.Council.RosterFile != "" {
		roster, err = brain.LoadRoster(cfg.Council.RosterFile)
		if err != nil {
			return nil, err
		}
	}

	gen := brain.NewLLMGenerator(client, brain.LLMGeneratorConfig{
		Temperature: llm.Temp(cfg.LLM.Temperature),
		MaxAttempts: cfg.LLM.MaxAttempts,
	})

	return brain.NewAdvisor(gen, roster, publisher, brain.AdvisorConfig{
		TurnBudget: cfg.Council.TurnBudget,
		MaxTokens:  cfg.LLM.MaxTokens,
	}), nil
}

func setupRouter(cfg config.Config, advisor *brain.Advisor, redisClient *redis.Client) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, httprouter.RouterConfig{
		Advisor: advisor,
		Redis:   redisClient,
		Now:     time.Now,
	})

	return router
}

const banner = `
 █████╗ ██████╗ ██╗   ██╗██╗███████╗ ██████╗ ██████╗
██╔══██╗██╔══██╗██║   ██║██║██╔════╝██╔═══██╗██╔══██╗
███████║██║  ██║██║   ██║██║███████╗██║   ██║██████╔╝
██╔══██║██║  ██║╚██╗ ██╔╝██║╚════██║██║   ██║██╔══██╗
██║  ██║██████╔╝ ╚████╔╝ ██║███████║╚██████╔╝██║  ██║
╚═╝  ╚═╝╚═════╝   ╚═══╝  ╚═╝╚══════╝ ╚═════╝ ╚═╝  ╚═╝
`
