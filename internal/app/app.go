// Package app wires configuration, credential storage, the token lifecycle
// manager and the API client together, and runs the optional serve mode.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"wechat-cli/internal/accesstoken"
	"wechat-cli/internal/credstore"
	"wechat-cli/internal/server"
	"wechat-cli/internal/wechat"
)

// Components are the wired collaborators every command operates on.
type Components struct {
	Store  credstore.Store
	Creds  credstore.Credentials
	Tokens *accesstoken.Manager
	Client *wechat.Client
}

// Build resolves credentials (environment over stored) and constructs the
// token manager and API client. An unconfigured store yields empty
// credentials so the manager fails fast with its own error on first use.
func Build(ctx context.Context, cfg *Config) (*Components, error) {
	store, err := cfg.Credentials.NewStore()
	if err != nil {
		return nil, err
	}

	creds, err := credstore.Resolve(ctx, store)
	if err != nil && !errors.Is(err, credstore.ErrNotConfigured) {
		return nil, err
	}

	cache, err := accesstoken.NewFileCache(cfg.Token.CacheFile)
	if err != nil {
		return nil, fmt.Errorf("creating token cache: %w", err)
	}

	opts := []accesstoken.ManagerOption{accesstoken.WithCache(cache)}
	if cfg.Token.SafetyMargin > 0 {
		opts = append(opts, accesstoken.WithSafetyMargin(cfg.Token.SafetyMargin))
	}

	fetch := wechat.NewFetcher(cfg.API.BaseURL, nil)
	tokens := accesstoken.NewManager(creds, fetch, opts...)
	client := wechat.NewClient(tokens, wechat.WithBaseURL(cfg.API.BaseURL))

	return &Components{
		Store:  store,
		Creds:  creds,
		Tokens: tokens,
		Client: client,
	}, nil
}

// App orchestrates the lifecycle of the serve-mode HTTP server.
type App struct {
	cfg    *Config
	server *server.Server
}

// New creates a new App instance for serve mode.
func New(ctx context.Context, cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	components, err := Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(components.Tokens, components.Client)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return &App{
		cfg:    cfg,
		server: srv,
	}, nil
}

// Start starts the server and blocks until shutdown is triggered.
// Uses errgroup for runtime error monitoring and coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)

	slog.InfoContext(gCtx, "starting server", "address", address)
	serverErrCh, err := a.server.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-serverErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "server runtime error", "error", err)
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "server shutdown failed", "error", err)
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}
