package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/checkpoint"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/conversation"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/selection"
	"github.com/jonathan/resume-builder/internal/storage"
	"github.com/jonathan/resume-builder/internal/validation"
)

// defaultSQLitePath is used when neither a Postgres URL nor a SQLite path
// is configured.
const defaultSQLitePath = "resume_builder.db"

// persistence selects the backend for threads, profiles and resumes.
type persistence int

const (
	persistConfigured persistence = iota // Postgres when a URL is set, SQLite otherwise
	persistSQLite
	persistMemory
)

// app holds the wired components shared by the commands.
type app struct {
	engine    *conversation.Engine
	repo      db.Repository
	documents storage.ObjectStorage
	closers   []func() error
}

// Close releases every resource in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) onClose(f func() error) {
	a.closers = append(a.closers, f)
}

// buildApp wires the conversation engine from cfg. client overrides the
// Gemini client when non-nil.
func buildApp(ctx context.Context, cfg *config.Config, mode persistence, client llm.Client, log *zerolog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	store, err := a.openPersistence(ctx, cfg, mode, log)
	if err != nil {
		return nil, err
	}

	locker, err := a.openLocker(ctx, cfg, mode, log)
	if err != nil {
		return nil, err
	}

	if a.documents, err = openDocuments(ctx, cfg, log); err != nil {
		return nil, err
	}

	var compiler conversation.DocumentCompiler
	if cfg.Workflow.CompilePDF {
		compiler = validation.NewCompiler(a.documents,
			validation.WithTimeout(cfg.Workflow.CompileTimeout),
			validation.WithLogger(log),
		)
	}

	publisher, err := a.openPublisher(cfg, log)
	if err != nil {
		return nil, err
	}

	if client == nil {
		llmCfg := llm.DefaultConfig()
		llmCfg.Temperature = cfg.LLM.Temperature
		llmCfg.Timeout = cfg.LLM.Timeout
		if cfg.LLM.Model != "" {
			llmCfg.Models[llm.TierStandard] = cfg.LLM.Model
		}
		if client, err = llm.NewClient(ctx, llmCfg, cfg.LLM.APIKey); err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.onClose(client.Close)
	}
	adapter := llm.NewAdapter(client, llm.WithTimeout(cfg.LLM.Timeout), llm.WithLogger(*log))

	synth, err := rendering.NewSynthesizer(cfg.Workflow.TemplatePath)
	if err != nil {
		return nil, err
	}

	w := cfg.Workflow
	a.engine, err = conversation.NewEngine(conversation.Deps{
		Store:     store,
		Locker:    locker,
		Profiles:  a.repo,
		Resumes:   a.repo,
		Extractor: extraction.NewExtractor(adapter, w.MinResumeLength, log),
		Analyzer: parsing.NewAnalyzer(adapter, parsing.Options{
			MinJobLength:        w.MinJobLength,
			MinKeywords:         w.MinKeywords,
			MaxFallbackKeywords: w.MaxFallbackKeywords,
		}, log),
		Synthesizer: synth,
		Compiler:    compiler,
		Publisher:   publisher,
	}, conversation.Options{
		Selection: selection.Options{
			MaxExperiences: w.MaxExperiences,
			MaxProjects:    w.MaxProjects,
			MinRelevance:   w.MinRelevance,
		},
		MaxHistory: cfg.Retention.MaxHistory,
		ThreadTTL:  cfg.Retention.ThreadTTL,
	}, log)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openPersistence(ctx context.Context, cfg *config.Config, mode persistence, log *zerolog.Logger) (checkpoint.Store, error) {
	if mode == persistMemory {
		log.Info().Msg("using in-memory persistence")
		a.repo = db.NewMemory()
		return checkpoint.NewMemoryStore(), nil
	}

	if mode == persistConfigured && cfg.Database.URL != "" {
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.onClose(func() error { database.Close(); return nil })
		a.repo = database
		log.Info().Msg("using postgres persistence")
		return checkpoint.NewPostgresStore(database.Pool()), nil
	}

	path := cfg.Database.SQLitePath
	if path == "" {
		path = defaultSQLitePath
	}
	dsn := sqliteDSN(path)

	lite, err := db.OpenLite(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.onClose(lite.Close)
	a.repo = lite

	store, err := checkpoint.OpenSQLiteStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	a.onClose(store.Close)
	log.Info().Str("path", path).Msg("using sqlite persistence")
	return store, nil
}

// sqliteDSN adds a busy timeout; the repositories and the checkpoint store
// hold separate connections to the same file.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

func (a *app) openLocker(ctx context.Context, cfg *config.Config, mode persistence, log *zerolog.Logger) (checkpoint.Locker, error) {
	if mode != persistConfigured || cfg.Redis.URL == "" {
		return checkpoint.NewKeyedMutex(), nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	a.onClose(client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	log.Info().Msg("using redis thread locks")
	return checkpoint.NewRedisLocker(client, cfg.Redis.LockTTL, 0)
}

func openDocuments(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (storage.ObjectStorage, error) {
	if cfg.Storage.Backend == config.StorageMinIO {
		m := cfg.Storage.MinIO
		return storage.NewMinIOStorage(ctx, storage.MinIOConfig{
			Endpoint:        m.Endpoint,
			AccessKeyID:     m.AccessKeyID,
			SecretAccessKey: m.SecretAccessKey,
			Bucket:          m.Bucket,
			Location:        m.Location,
			UseSSL:          m.UseSSL,
		}, log)
	}
	return storage.NewFileStorage(cfg.Storage.Dir)
}

func (a *app) openPublisher(cfg *config.Config, log *zerolog.Logger) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		return events.NopPublisher{}, nil
	}
	publisher, err := events.NewAMQPPublisher(events.AMQPConfig{
		URL:      cfg.Events.AMQPURL,
		Exchange: cfg.Events.Exchange,
	}, log)
	if err != nil {
		return nil, err
	}
	a.onClose(publisher.Close)
	return publisher, nil
}
