package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storyspark/internal/config"
	"storyspark/internal/controller"
	"storyspark/internal/generation"
	"storyspark/internal/history"
	"storyspark/internal/llm"
	"storyspark/internal/logger"
	"storyspark/internal/server"
	"storyspark/internal/session"
	"storyspark/internal/tracer"
)

type App struct {
	cfg      *config.Config
	log      *zap.Logger
	server   *server.Server
	sessions *session.Registry
	history  *history.Store
	llm      llm.Client

	shutdownTracer func(context.Context) error
}

// New wires config, logging, tracing, storage, the model stack and the HTTP
// surface. args are the command line flags.
func New(ctx context.Context, args []string) (*App, error) {
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Encoding:   cfg.Log.Encoding,
		OutputPath: cfg.Log.OutputPath,
	})
	if err != nil {
		return nil, err
	}
	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		Enabled:     cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracer: %w", err)
	}

	// Dependencies
	backend, err := openHistoryBackend(ctx, cfg.History, log)
	if err != nil {
		return nil, err
	}
	store := history.NewStore(backend, cfg.History.Key, log.Named("history"))
	store.Load(ctx)

	client, catalog, err := newLLMStack(ctx, cfg, log.Named("llm"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	gateway := generation.NewLLMGateway(client, generation.Options{
		Chapters:       cfg.Story.Chapters,
		ThinkingBudget: cfg.Story.ThinkingBudget,
		Logger:         log.Named("generation"),
	})
	ctlLog := log.Named("controller")
	sessions, err := session.NewRegistry(cfg.Session.Max, func() *controller.Controller {
		return controller.New(gateway, store, catalog, ctlLog)
	}, log.Named("session"))
	if err != nil {
		_ = client.Close()
		_ = store.Close()
		return nil, err
	}

	// Routing & Server
	mux := server.NewMux(
		server.NewStoryService(sessions, store, catalog),
		server.NewWatchHandler(sessions, log.Named("ws")),
		server.NewExportHandler(sessions, store, log.Named("export")),
		log.Named("rpc"),
	)
	srv := server.New(cfg.Port, mux, log)

	log.Info("storyspark configured",
		zap.String("env", cfg.Env),
		zap.String("history_backend", cfg.History.Backend),
		zap.Int("chapters", cfg.Story.Chapters),
		zap.Bool("fake_llm", cfg.LLM.Fake),
		zap.Int("models", len(catalog.Models())),
	)
	return &App{
		cfg:            cfg,
		log:            log,
		server:         srv,
		sessions:       sessions,
		history:        store,
		llm:            client,
		shutdownTracer: shutdownTracer,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops the HTTP server, cancels in-flight generations and releases
// the model clients, storage and tracer.
func (a *App) Shutdown(ctx context.Context) error {
	errs := []error{a.server.Shutdown(ctx)}
	a.sessions.Close()
	errs = append(errs, a.llm.Close(), a.history.Close(), a.shutdownTracer(ctx))
	_ = a.log.Sync()
	return errors.Join(errs...)
}
