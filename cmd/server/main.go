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

	"github.com/nulzo/gemini-bridge/internal/cli"
	"github.com/nulzo/gemini-bridge/internal/config"
	"github.com/nulzo/gemini-bridge/internal/gateway"
	"github.com/nulzo/gemini-bridge/internal/platform/logger"
	"github.com/nulzo/gemini-bridge/internal/platform/otel"
	"github.com/nulzo/gemini-bridge/internal/server"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}

	logger.Initialize(logger.DefaultConfig())
	log := logger.Get()
	defer logger.Sync()

	shutdownTracer, err := otel.InitTracer("gemini-bridge", log, os.Stdout)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	service := gateway.New(log, gateway.GeminiFactory(cfg.Gemini, log))
	srv := server.New(cfg, log, service)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		fmt.Printf("%s gemini-bridge listening on %s\n",
			cli.CheckMark(), cli.Style(":"+cfg.Server.Port, cli.Cyan))
		fmt.Printf("%s default model %s\n",
			cli.Arrow(), cli.Style(cfg.Gemini.Model, cli.Green))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Block until interrupted, then drain in-flight requests.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}
}
