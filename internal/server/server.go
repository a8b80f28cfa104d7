// Package server exposes the CLI's operations as a resident HTTP service.
// A single long-lived process serves many logical requests, which is where
// the token manager's fetch coalescing pays off.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"wechat-cli/internal/accesstoken"
	"wechat-cli/internal/wechat"
)

// TokenManager is the token lifecycle surface the server exposes.
type TokenManager interface {
	Token(ctx context.Context) (accesstoken.Token, error)
	Refresh(ctx context.Context) (accesstoken.Token, error)
}

// API is the subset of the WeChat client the server exposes.
type API interface {
	UploadMaterial(ctx context.Context, path string, mediaType wechat.MediaType, desc *wechat.VideoDescription) (wechat.UploadResult, error)
	ListMaterial(ctx context.Context, mediaType wechat.MediaType, offset, count int) (wechat.MaterialList, error)
	CountMaterial(ctx context.Context) (wechat.MaterialCount, error)
	AddDraft(ctx context.Context, articles []wechat.Article) (string, error)
	ListDrafts(ctx context.Context, offset, count int, noContent bool) (wechat.DraftList, error)
	CountDrafts(ctx context.Context) (int, error)
}

// Server is the resident HTTP wrapper around the token manager and the API
// client.
type Server struct {
	handler http.Handler
	server  *http.Server
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a Server routing the token, media and draft operations.
func New(tokens TokenManager, api API) (*Server, error) {
	if tokens == nil {
		return nil, fmt.Errorf("missing token manager")
	}
	if api == nil {
		return nil, fmt.Errorf("missing api client")
	}

	h := &handlers{tokens: tokens, api: api}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/token", h.getToken)
	mux.HandleFunc("POST /v1/token/refresh", h.refreshToken)
	mux.HandleFunc("POST /v1/media", h.uploadMaterial)
	mux.HandleFunc("GET /v1/media", h.listMaterial)
	mux.HandleFunc("GET /v1/media/count", h.countMaterial)
	mux.HandleFunc("POST /v1/drafts", h.addDraft)
	mux.HandleFunc("GET /v1/drafts", h.listDrafts)
	mux.HandleFunc("GET /v1/drafts/count", h.countDrafts)

	root := applyMiddlewares(mux,
		Logging(slog.Default()),
		Recovery,
	)

	return &Server{handler: root}, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors are sent to the error channel. The caller is responsible for
// calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	// Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s.server = &http.Server{
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // media uploads are forwarded upstream within the handler
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
