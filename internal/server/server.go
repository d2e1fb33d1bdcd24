package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-writer/internal/config"
	"github.com/jonathan/resume-writer/internal/dispatch"
	"github.com/jonathan/resume-writer/internal/server/middleware"
	"github.com/jonathan/resume-writer/internal/server/ratelimit"
	"github.com/jonathan/resume-writer/internal/stream"
	"github.com/jonathan/resume-writer/internal/types"
	"github.com/jonathan/resume-writer/internal/usage"
)

const shutdownTimeout = 30 * time.Second

// Options wires the server's collaborators. Dispatcher and JWT are required.
type Options struct {
	Addr        string
	FrontendURL string
	// StreamDelay is the pause between streamed units. Negative means stream.DefaultDelay.
	StreamDelay time.Duration
	Dispatcher  *dispatch.Dispatcher
	Counter     *usage.Counter
	// Reporter, when set, adds the journal's per-user totals to the admin usage response.
	Reporter    usage.Reporter
	JWT         *JWTService
	Admin       *config.AdminConfig
	RateLimiter *ratelimit.Limiter
	Logger      *slog.Logger
	// OnShutdown runs after the HTTP server has stopped, e.g. to close the journal pool.
	OnShutdown []func()
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	dispatcher  *dispatch.Dispatcher
	counter     *usage.Counter
	reporter    usage.Reporter
	jwtService  *JWTService
	admin       *config.AdminConfig
	rateLimiter *ratelimit.Limiter
	logger      *slog.Logger
	frontendURL string
	streamDelay time.Duration
	onShutdown  []func()
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if opts.JWT == nil {
		return nil, fmt.Errorf("jwt service is required")
	}

	s := &Server{
		dispatcher:  opts.Dispatcher,
		counter:     opts.Counter,
		reporter:    opts.Reporter,
		jwtService:  opts.JWT,
		admin:       opts.Admin,
		rateLimiter: opts.RateLimiter,
		logger:      opts.Logger,
		frontendURL: opts.FrontendURL,
		streamDelay: opts.StreamDelay,
		onShutdown:  opts.OnShutdown,
	}
	if s.counter == nil {
		s.counter = usage.NewCounter()
	}
	if s.admin == nil {
		s.admin = config.NewAdminConfigFromSecret("")
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.frontendURL == "" {
		s.frontendURL = config.DefaultFrontendURL
	}
	if s.streamDelay < 0 {
		s.streamDelay = stream.DefaultDelay
	}

	s.setupRoutes()

	addr := opts.Addr
	if addr == "" {
		addr = ":" + config.DefaultPort
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      300 * time.Second, // Long timeout for streamed generations
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(s.withLogging)
	r.Use(s.withCORS)

	r.Get("/health", s.handleHealth)

	// Section generation: session cookie required, limited per user.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(s.jwtService.AsTokenValidator(), s.jwtService.CookieName()))
		r.Use(s.withRateLimit)
		for _, kind := range types.AllSectionKinds() {
			r.Post("/api/generate-"+string(kind), s.handleGenerate(kind))
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(s.withRateLimit)
		r.Post("/admin/token-usage", s.handleTokenUsage)
	})

	s.router = r
}

// ServeHTTP lets the server be mounted directly in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled or the process receives SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.close()
	s.logger.Info("server stopped")
	return err
}

func (s *Server) close() {
	s.rateLimiter.Stop()
	for _, fn := range s.onShutdown {
		fn()
	}
}

// withCORS allows credentialed requests from the configured frontend origin.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		h.Add("Vary", "Origin")

		if origin != "" && origin == s.frontendURL {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")

			methods := r.Header.Get("Access-Control-Request-Method")
			if methods == "" {
				methods = "GET, POST, OPTIONS"
			}
			h.Set("Access-Control-Allow-Methods", methods)

			if headers := r.Header.Get("Access-Control-Request-Headers"); headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			} else {
				h.Set("Access-Control-Allow-Headers", "Content-Type")
			}
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies the per-route budget keyed by the authenticated user, or the client IP.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonEncode(w, data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to its status code and message.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.errorResponse(w, HTTPStatus(err), errorMessage(err))
}

// extractClientID returns the authenticated user ID, falling back to the IP address from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		return "user:" + userID
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		"path", r.URL.Path,
		"limit", info.Limit,
		"reset_at", info.ResetTime.Format(time.RFC3339),
	)

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
