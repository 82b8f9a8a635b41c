package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/user/kisanmitra/internal/classifier"
	"github.com/user/kisanmitra/internal/config"
	"github.com/user/kisanmitra/internal/gateway"
	"github.com/user/kisanmitra/internal/ingest"
	"github.com/user/kisanmitra/internal/orchestrator"
	"github.com/user/kisanmitra/internal/retrieval"
	"github.com/user/kisanmitra/internal/scheduler"
	"github.com/user/kisanmitra/internal/server"
	"github.com/user/kisanmitra/internal/specialist"
	"github.com/user/kisanmitra/internal/state"
	"github.com/user/kisanmitra/internal/telegram"
	"github.com/user/kisanmitra/internal/types"
	"github.com/user/kisanmitra/pkg/llm"
	"github.com/user/kisanmitra/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant daemon",
	RunE:  runServe,
}

// buildStores returns the session and turn stores for the configured
// backend.
func buildStores(cfg *config.Config) (types.SessionStore, types.TurnStore, error) {
	switch cfg.StoreBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := state.NewRedisStore(rdb)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "", "file":
		return state.NewSessionStore(cfg.DataDir), state.NewTurnStore(cfg.DataDir), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// buildOrchestrator wires the gateway, specialists, and stores into a
// ready orchestrator. Shared by serve and ask.
func buildOrchestrator(cfg *config.Config, sessions types.SessionStore, turns types.TurnStore, corpus *retrieval.Store, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	provider := openai.New(&llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		VisionModel: cfg.LLM.VisionModel,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	gw := gateway.New(provider,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second,
		int64(cfg.LLM.MaxConcurrent),
		gateway.WithVisionModel(cfg.LLM.VisionModel),
	)

	builder, err := retrieval.NewContextBuilder(cfg.LLM.Model, cfg.Retrieval.MaxContextTokens)
	if err != nil {
		return nil, fmt.Errorf("create context builder: %w", err)
	}

	opts = append(opts, orchestrator.WithLimits(cfg.Limits.MaxImageBytes, cfg.Limits.MaxAudioBytes))
	return orchestrator.New(
		classifier.New(gw),
		specialist.NewDisease(gw),
		specialist.NewSchemes(gw, corpus, builder, cfg.Retrieval.TopK),
		specialist.NewTranscriber(gw),
		sessions, turns,
		opts...,
	), nil
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "kisanmitra.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(fmt.Sprintf("%d\n", pid)), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	sessions, turns, err := buildStores(cfg)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	corpus := retrieval.NewStore(cfg.DataDir)

	orch, err := buildOrchestrator(cfg, sessions, turns, corpus)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("kisanmitra started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"store_backend", cfg.StoreBackend,
		"llm_model", cfg.LLM.Model,
		"vision_model", cfg.LLM.VisionModel,
		"pid_file", pidPath,
	)

	// Corpus refresh scheduler
	sourceStore := state.NewSourceStore(filepath.Join(cfg.DataDir, "sources.json"))
	ingestor := ingest.New(corpus)
	sched := scheduler.New(sourceStore, func(src *state.Source) {
		refreshCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if _, err := ingestor.IngestSource(refreshCtx, src); err != nil {
			slog.Error("scheduled ingest failed", "source", src.Name, "error", err)
		}
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()
	slog.Info("scheduler started")

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, orch, sessions, turns)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	// HTTP boundary
	srv := server.NewServer(orch, sessions, turns, corpus)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: srv,
	}
	go func() {
		slog.Info("http server started", "listen", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, reloading scheduler")
			if err := sched.Reload(); err != nil {
				slog.Error("scheduler reload failed", "error", err)
			}
			continue
		}
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
