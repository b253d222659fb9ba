package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/jobs"
	"github.com/claude/liftplan/internal/llm"
	"github.com/claude/liftplan/internal/mcp"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pipeline"
	"github.com/claude/liftplan/internal/server"
	"github.com/claude/liftplan/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftPlan starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Run migrations
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	// Connect database
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	tm := models.TimeModel{
		WorkSecondsPer10Reps:        cfg.Generation.WorkSecondsPer10Reps,
		RestBetweenSetsSeconds:      cfg.Generation.RestBetweenSetsSeconds,
		RestBetweenExercisesSeconds: cfg.Generation.RestBetweenExercisesSeconds,
		WarmupMinutesDefault:        cfg.Generation.WarmupMinutesDefault,
		CooldownMinutesDefault:      cfg.Generation.CooldownMinutesDefault,
	}

	// Job manager with background sweep of expired jobs
	mgr := jobs.NewManager(log)
	go mgr.RunGC(ctx, cfg.Generation.JobGCInterval(), cfg.Generation.JobMaxAge())

	// LLM client and generation pipeline
	chat := llm.NewClient(llm.Config{
		BaseURL:       cfg.LLM.BaseURL,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		FallbackModel: cfg.LLM.FallbackModel,
		Timeout:       cfg.LLM.RequestTimeout(),
	}, log)
	pipe := pipeline.New(chat, mgr, db, pipeline.Config{
		TimeModel:        tm,
		MinRecoveryHours: cfg.Generation.MinRecoveryHours,
	}, log)

	// HTTP server with MCP transport mounted alongside the REST API
	srv := server.New(db, mgr, pipe, tm, cfg.Auth.APIKey, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(
		mcp.New(db, mgr, tm, Version, log),
		mcpserver.WithStateLess(true),
	))

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
