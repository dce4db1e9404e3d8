// Package server provides the HTTP REST API for the resume builder.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/auth"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/localstore"
	"github.com/jonathan/resume-builder/internal/pgstore"
	"github.com/jonathan/resume-builder/internal/render"
	"github.com/jonathan/resume-builder/internal/selector"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
	cfg        *config.Config

	durable  *pgstore.Store
	users    *pgstore.Users
	local    *localstore.Store
	sel      *selector.Selector
	session  *auth.StaticProvider
	jwt      *auth.JWTService
	hasher   *auth.Hasher
	renderer render.Renderer

	validator *validator.Validate
	limiter   *ratelimit.Limiter
}

// New creates a server instance and wires its storage, selector and auth
// services.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	// The session provider is the host-side identity the selector keys on.
	// Login attaches the subject; each request is additionally scoped to
	// its own token subject.
	session := auth.NewAnonymous()

	durable, err := pgstore.Connect(ctx, cfg.DatabaseURL, session)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := durable.EnsureSchema(ctx); err != nil {
		durable.Close()
		return nil, err
	}

	users := pgstore.NewUsers(durable.Pool())
	if err := users.EnsureSchema(ctx); err != nil {
		durable.Close()
		return nil, err
	}

	local, err := localstore.Open(cfg.StateDir)
	if err != nil {
		durable.Close()
		return nil, fmt.Errorf("failed to open state dir: %w", err)
	}

	jwtService, err := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry())
	if err != nil {
		durable.Close()
		return nil, err
	}
	hasher, err := auth.NewHasher(cfg.BcryptCost, cfg.PasswordPepper)
	if err != nil {
		durable.Close()
		return nil, err
	}

	s := &Server{
		log:       log,
		cfg:       cfg,
		durable:   durable,
		users:     users,
		local:     local,
		session:   session,
		jwt:       jwtService,
		hasher:    hasher,
		validator: validator.New(),
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.sel = selector.New(local, durable, session,
		selector.WithRetryCeiling(cfg.MigrationRetryCeiling),
		selector.WithLogger(log.With().Str("component", "selector").Logger()),
	)
	if cfg.RenderServiceURL != "" {
		s.renderer = render.NewHTTPRenderer(cfg.RenderServiceURL)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /documents", s.handleCreateDocument)
	protected.HandleFunc("GET /documents", s.handleListDocuments)
	protected.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	protected.HandleFunc("PUT /documents/{id}", s.handleUpdateDocument)
	protected.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)
	protected.HandleFunc("POST /import", s.handleImport)
	protected.HandleFunc("GET /progress/{id}", s.handleProgress)
	protected.HandleFunc("GET /migration", s.handleMigrationStatus)
	protected.HandleFunc("POST /migration/retry", s.handleMigrationRetry)
	protected.HandleFunc("POST /render/{id}", s.handleRender)
	mux.Handle("/", middleware.Auth(s.tokenValidator())(protected))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ListenPort),
		Handler:      s.limiter.Middleware(s.withLogging(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	s.log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.durable.Close()
	s.log.Info().Msg("server stopped")
	return nil
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// tokenSubjectValidator adapts JWTService to middleware.TokenValidator.
type tokenSubjectValidator struct {
	jwt *auth.JWTService
}

func (v *tokenSubjectValidator) SubjectForToken(tokenString string) (uuid.UUID, error) {
	claims, err := v.jwt.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.Subject, nil
}

func (s *Server) tokenValidator() middleware.TokenValidator {
	return &tokenSubjectValidator{jwt: s.jwt}
}

// requestStore returns a durable store view scoped to the request's subject.
func (s *Server) requestStore(r *http.Request) (*pgstore.Store, error) {
	subject, err := middleware.Subject(r)
	if err != nil {
		return nil, err
	}
	return s.durable.WithIdentity(auth.NewStaticProvider(subject)), nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
