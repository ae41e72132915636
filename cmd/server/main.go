package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jengzang/mpawatch-backend-go/internal/analysis"
	"github.com/jengzang/mpawatch-backend-go/internal/api"
	"github.com/jengzang/mpawatch-backend-go/internal/config"
	"github.com/jengzang/mpawatch-backend-go/internal/gfw"
	"github.com/jengzang/mpawatch-backend-go/internal/handler"
	"github.com/jengzang/mpawatch-backend-go/internal/logging"
	"github.com/jengzang/mpawatch-backend-go/internal/middleware"
	"github.com/jengzang/mpawatch-backend-go/internal/service"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New(logging.Config{})
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := logging.New(cfg.Log)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 加载参考图层和模型
	res, err := service.LoadResources(ctx, cfg, logging.Component(logger, "resources"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load resources")
	}
	defer res.Close()

	pipeline := analysis.NewPipeline(res.Index, res.Classifier, res.Validator, logging.Component(logger, "pipeline"))
	analysisService := service.NewAnalysisService(pipeline, newEventSource(cfg, logger), res.Validator)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	go limiter.Run(ctx)

	// 初始化路由
	router := api.SetupRouter(api.Deps{
		Index:       res.Index,
		Analysis:    handler.NewAnalysisHandler(analysisService),
		Layers:      handler.NewLayerHandler(res.Index),
		RateLimiter: limiter,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logging.Component(logger, "http"),
	})

	srv := &http.Server{
		Addr:              cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	// 启动服务器
	logger.Info().Str("addr", cfg.Port).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
	logger.Info().Msg("server stopped")
}

// newEventSource returns nil when no upstream token is configured, which
// disables the fetch endpoint
func newEventSource(cfg *config.Config, logger zerolog.Logger) service.EventSource {
	up := cfg.Upstream
	if up.Token == "" {
		logger.Warn().Msg("GFW_TOKEN not set, fetch endpoint disabled")
		return nil
	}

	if exp, ok := gfw.TokenExpiry(up.Token); ok && time.Until(exp) < 7*24*time.Hour {
		logger.Warn().Time("expires_at", exp).Msg("upstream API token expires soon")
	}

	return gfw.NewClient(gfw.Config{
		BaseURL:          up.BaseURL,
		Token:            up.Token,
		Dataset:          up.Dataset,
		Timeout:          up.Timeout,
		RequestsPerSec:   up.RequestsPerSec,
		FailureThreshold: up.FailureThreshold,
		OpenTimeout:      up.OpenTimeout,
	}, logging.Component(logger, "gfw"))
}
