// Package cli wires configuration into a running switchboard engine for the
// command-line entry points.
package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/logging"
	memstore "github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/adapters/file"
	"github.com/aretw0/switchboard/pkg/adapters/openai"
	"github.com/aretw0/switchboard/pkg/adapters/process"
	"github.com/aretw0/switchboard/pkg/adapters/redis"
	"github.com/aretw0/switchboard/pkg/adapters/sqlite"
	"github.com/aretw0/switchboard/pkg/codec"
	"github.com/aretw0/switchboard/pkg/config"
	"github.com/aretw0/switchboard/pkg/memory"
	"github.com/aretw0/switchboard/pkg/observability"
	"github.com/aretw0/switchboard/pkg/persistence/middleware"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/tools"
	"github.com/prometheus/client_golang/prometheus"
)

// App bundles an engine with the resources it owns.
type App struct {
	Engine   *switchboard.Engine
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []io.Closer
}

// Close releases database and redis connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the application logger from the log section.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Format == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

// NewApp builds the engine described by cfg. Extra options are applied last.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...switchboard.Option) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{Registry: prometheus.NewRegistry(), Logger: logger}

	c, err := newCodec(cfg.Security)
	if err != nil {
		return nil, err
	}

	store, locker, cases, accounts, err := app.newStores(ctx, cfg, c)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	var mws []middleware.Middleware
	mws = append(mws, middleware.NewValidationMiddleware())
	if cfg.Security.MaskPII {
		patterns := cfg.Security.PIIPatterns
		if len(patterns) == 0 {
			patterns = middleware.DefaultPIIPatterns
		}
		pii, err := middleware.NewPIIMiddleware(patterns)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("invalid pii patterns: %w", err)
		}
		mws = append(mws, pii)
	}
	store = middleware.Chain(store, mws...)

	kb, err := tools.LoadKnowledge(cfg.Knowledge.Path)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	if cfg.Accounts.Path != "" {
		if err := seedAccounts(ctx, accounts, cfg.Accounts.Path); err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	var external []process.ToolConfig
	if cfg.Tools.Path != "" {
		if external, err = process.LoadTools(cfg.Tools.Path); err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	metrics := observability.NewMetrics(app.Registry)
	opts := []switchboard.Option{
		switchboard.WithLogger(logger),
		switchboard.WithStore(store),
		switchboard.WithCaseStore(cases),
		switchboard.WithKnowledge(kb),
		switchboard.WithMaxIterations(cfg.Engine.MaxIterations),
		switchboard.WithStepTimeout(cfg.Engine.StepTimeout),
		switchboard.WithMaxReferences(cfg.Memory.MaxReferences),
		switchboard.WithSummarizer(memory.NewSummarizer(memory.WithMaxTokens(cfg.Memory.SummaryTokens))),
		switchboard.WithLifecycleHooks(metrics.Hooks()),
		switchboard.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}
	if len(external) > 0 {
		runner := process.NewRunner(
			process.WithTools(external),
			process.WithBaseDir(cfg.Tools.BaseDir),
			process.WithLogger(logger),
		)
		opts = append(opts, switchboard.WithToolSetup(runner.RegisterAll))
		logger.Info("external tools enabled", "count", len(external))
	}
	if cfg.Engine.EntryStep != "" {
		opts = append(opts, switchboard.WithEntryStep(cfg.Engine.EntryStep))
	}
	if locker != nil {
		opts = append(opts, switchboard.WithLocker(locker), switchboard.WithLockTTL(cfg.Store.Redis.LockTTL))
	}
	if cfg.Accounts.Path != "" {
		opts = append(opts, switchboard.WithAccountStore(accounts))
	}

	llmOpts, err := llmOptions(cfg.LLM, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	opts = append(opts, llmOpts...)
	opts = append(opts, extra...)

	eng, err := switchboard.New(opts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = eng
	return app, nil
}

func (a *App) newStores(ctx context.Context, cfg *config.Config, c codec.Codec) (ports.CheckpointStore, ports.DistributedLocker, ports.CaseStore, ports.AccountStoreLoader, error) {
	var (
		store    ports.CheckpointStore
		locker   ports.DistributedLocker
		cases    ports.CaseStore
		accounts ports.AccountStoreLoader
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = memstore.NewStore()
	case config.BackendFile:
		store = file.New(cfg.Store.Path, file.WithCodec(c))
	case config.BackendRedis:
		rc := cfg.Store.Redis
		rs := redis.New(rc.Addr, rc.Password, rc.DB,
			redis.WithPrefix(rc.Prefix),
			redis.WithTTL(rc.TTL),
			redis.WithCodec(c),
		)
		a.closers = append(a.closers, rs)
		store = rs
		locker = redis.NewLocker(rs.Client(), rc.Prefix+"lock:")
		cases = redis.NewCaseStore(rs.Client(), rc.Prefix+"cases:")
	case config.BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.Path)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		a.closers = append(a.closers, db)
		store = sqlite.NewStore(db, sqlite.WithCodec(c))
		cases = sqlite.NewCaseStore(db)
		accounts = sqlite.NewAccountStore(db)
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Memory.LongTermPath != "" {
		db, err := sqlite.Open(ctx, cfg.Memory.LongTermPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		a.closers = append(a.closers, db)
		cases = sqlite.NewCaseStore(db)
	}
	if cases == nil {
		cases = memstore.NewCaseStore()
	}
	if accounts == nil {
		accounts = memstore.NewAccountStore()
	}
	return store, locker, cases, accounts, nil
}

// seedAccounts loads every account of the file at path into accounts.
func seedAccounts(ctx context.Context, accounts ports.AccountLoader, path string) error {
	data, err := tools.LoadAccounts(path)
	if err != nil {
		return err
	}
	for id, d := range data {
		if err := accounts.LoadAccount(ctx, id, d); err != nil {
			return fmt.Errorf("failed to load account '%s': %w", id, err)
		}
	}
	return nil
}

// newCodec returns the sealed codec when an encryption key is configured.
func newCodec(cfg config.SecurityConfig) (codec.Codec, error) {
	if cfg.EncryptionKeyEnv == "" {
		return codec.Default(), nil
	}
	raw := os.Getenv(cfg.EncryptionKeyEnv)
	if raw == "" {
		return nil, fmt.Errorf("encryption key variable %s is empty", cfg.EncryptionKeyEnv)
	}
	active, err := decodeKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.EncryptionKeyEnv, err)
	}

	keys := codec.KeyConfig{ActiveKey: active}
	if cfg.FallbackKeyEnv != "" {
		for _, k := range strings.Split(os.Getenv(cfg.FallbackKeyEnv), ",") {
			if k = strings.TrimSpace(k); k == "" {
				continue
			}
			key, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", cfg.FallbackKeyEnv, err)
			}
			keys.FallbackKeys = append(keys.FallbackKeys, key)
		}
	}
	sealed, err := codec.NewSealed(codec.Default(), keys)
	if err != nil {
		return nil, err
	}
	return sealed, nil
}

// decodeKey accepts a raw 32-byte key or its base64 encoding.
func decodeKey(s string) ([]byte, error) {
	if len(s) == 32 {
		return []byte(s), nil
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("key is neither 32 raw bytes nor base64: %w", err)
	}
	if len(key) != 32 {
		return nil, codec.ErrKeySize
	}
	return key, nil
}

func llmOptions(cfg config.LLMConfig, logger *slog.Logger) ([]switchboard.Option, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("llm provider %s needs %s to be set", cfg.Provider, cfg.APIKeyEnv)
	}
	client := openai.New(key,
		openai.WithModel(cfg.Model),
		openai.WithMaxOutputTokens(cfg.MaxOutputTokens),
		openai.WithLogger(logger),
	)
	logger.Info("LLM collaborators enabled", "provider", cfg.Provider, "model", cfg.Model)
	return []switchboard.Option{
		switchboard.WithClassifier(client),
		switchboard.WithResponder(client),
		switchboard.WithSummarizer(client),
	}, nil
}
