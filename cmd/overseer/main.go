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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/Overseer/internal/adapter/console"
	ovhttp "github.com/Strob0t/Overseer/internal/adapter/http"
	"github.com/Strob0t/Overseer/internal/adapter/litellm"
	"github.com/Strob0t/Overseer/internal/adapter/mcp"
	"github.com/Strob0t/Overseer/internal/adapter/membus"
	"github.com/Strob0t/Overseer/internal/adapter/natsrelay"
	otelad "github.com/Strob0t/Overseer/internal/adapter/otel"
	"github.com/Strob0t/Overseer/internal/adapter/ristretto"
	"github.com/Strob0t/Overseer/internal/adapter/shell"
	"github.com/Strob0t/Overseer/internal/adapter/ws"
	"github.com/Strob0t/Overseer/internal/config"
	"github.com/Strob0t/Overseer/internal/delegate"
	"github.com/Strob0t/Overseer/internal/domain/agent"
	"github.com/Strob0t/Overseer/internal/domain/policy"
	"github.com/Strob0t/Overseer/internal/logger"
	"github.com/Strob0t/Overseer/internal/port/tool"
	"github.com/Strob0t/Overseer/internal/resilience"
	"github.com/Strob0t/Overseer/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}

	log, closer := logger.New(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"policy_preset", cfg.Policy.DefaultPreset,
		"max_parallel", cfg.Scheduler.MaxParallel,
	)

	// --- Telemetry ---
	otelShutdown, err := otelad.Init(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(sctx)
	}()

	metrics, err := otelad.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Bus and tools ---
	b := membus.New()

	registry := tool.NewRegistry()
	registry.Register(shell.New(shell.Config{
		WorkDir:        cfg.Shell.WorkDir,
		MaxOutputBytes: cfg.Shell.MaxOutputBytes,
		AlwaysConfirm:  cfg.Shell.AlwaysConfirm,
	}))

	for _, sc := range cfg.MCP {
		provider, err := mcp.Connect(ctx, mcp.ServerConfig{
			Name:      sc.Name,
			Transport: mcp.Transport(sc.Transport),
			Command:   sc.Command,
			Args:      sc.Args,
			Env:       sc.Env,
			URL:       sc.URL,
			Headers:   sc.Headers,
		}, log)
		if err != nil {
			return fmt.Errorf("mcp %s: %w", sc.Name, err)
		}
		defer func() { _ = provider.Close() }()

		n, err := provider.RegisterTools(ctx, registry)
		if err != nil {
			return fmt.Errorf("mcp %s: register tools: %w", sc.Name, err)
		}
		log.Info("mcp tools registered", "server", sc.Name, "tools", n)
	}

	// --- Policy ---
	ruleSets := policy.Presets()
	custom, err := policy.LoadFromDirectory(cfg.Policy.CustomDir)
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	for _, rs := range custom {
		ruleSets[rs.Name] = rs
	}
	active, ok := ruleSets[cfg.Policy.DefaultPreset]
	if !ok {
		return fmt.Errorf("policy: unknown default rule set %q", cfg.Policy.DefaultPreset)
	}

	// --- Scheduler ---
	schedCfg := scheduler.Config{
		MaxParallel:     cfg.Scheduler.MaxParallel,
		ApprovalTimeout: cfg.Scheduler.ApprovalTimeout,
		ToolDeadline:    cfg.Scheduler.ToolDeadline,
	}
	opts := []scheduler.Option{
		scheduler.WithMetrics(metrics),
		scheduler.WithLogger(log),
	}
	if cfg.Cache.MaxEntries > 0 {
		cache, err := ristretto.New(cfg.Cache.MaxEntries)
		if err != nil {
			return fmt.Errorf("decision cache: %w", err)
		}
		defer cache.Close()
		opts = append(opts, scheduler.WithDecisionCache(cache))
	}
	sched := scheduler.New(schedCfg, b, registry, active, opts...)
	defer sched.Close()

	// --- Delegation ---
	llm := litellm.NewClient(cfg.Model.URL, cfg.Model.APIKey)
	llm.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	delegator := delegate.New(delegate.Config{
		Inner:           schedCfg,
		ApprovalTimeout: cfg.Delegate.ApprovalTimeout,
		PollInterval:    cfg.Delegate.PollInterval,
		RemoteToken:     cfg.Delegate.RemoteToken,
		RuleSets:        ruleSets,
		Default:         active,
	}, b, llm, registry, log)

	defs, err := agent.LoadFromDirectory(cfg.Agents.Dir)
	if err != nil {
		return fmt.Errorf("agents: %w", err)
	}
	for _, def := range defs {
		if err := delegator.Register(def); err != nil {
			return fmt.Errorf("agents: %w", err)
		}
		log.Info("agent registered", "name", def.Name, "kind", def.Kind)
	}

	// --- Responders and observers ---
	if cfg.NATS.URL != "" {
		relay, err := natsrelay.Connect(cfg.NATS.URL, b, log)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		if err := relay.Start(); err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = relay.Close() }()
	}

	hub := ws.NewHub(log)
	detach := hub.Attach(b)
	defer detach()

	if console.Interactive() {
		responder := console.New(b, log)
		responder.Start(ctx)
		defer responder.Stop()
		log.Info("console responder active")
	}

	// --- HTTP ---
	handlers := ovhttp.NewHandlers(sched, b, registry, log)

	r := chi.NewRouter()
	r.Use(ovhttp.SecurityHeaders)
	r.Use(ovhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(ovhttp.RequestID)
	r.Use(ovhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ws", hub.HandleWS)
	ovhttp.MountRoutes(r, handlers)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	// Unblock awaiting confirmations and executing calls first, then
	// drain HTTP.
	sched.Abort()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
