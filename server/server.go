// Package server exposes a mathflow.Engine over HTTP.
//
//	POST /api/factor, /api/calculus/..., /api/vector/..., /api/integral/...
//	                 one endpoint per operation; the body is a mathflow.Request
//	POST /tool       any operation, named by the "op" field
//	GET  /schema     the operation catalog
//	GET  /health     liveness check
//	GET  /           endpoint index
//
// Bodies are JSON or CBOR, chosen by Content-Type. Responses use the
// Accept type, or the request's type when Accept is absent.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"github.com/njchilds90/mathflow"
	"github.com/njchilds90/mathflow/codec"
)

// Route binds one typed endpoint to an operation.
type Route struct {
	Path string
	Op   string
}

// Routes are the typed endpoints, grouped as in the endpoint index.
var Routes = []Route{
	{"/api/factor", "factor"},
	{"/api/expand", "expand"},
	{"/api/simplify", "simplify"},

	{"/api/calculus/differentiate", "differentiate"},
	{"/api/calculus/partial", "partial"},
	{"/api/calculus/integrate", "integrate"},
	{"/api/calculus/definite-integral", "definite_integral"},
	{"/api/calculus/limit", "limit"},
	{"/api/calculus/limit-infinity", "limit_infinity"},
	{"/api/calculus/sum", "sum"},
	{"/api/calculus/product", "product"},
	{"/api/calculus/taylor", "taylor"},

	{"/api/vector/gradient", "gradient"},
	{"/api/vector/divergence", "divergence"},
	{"/api/vector/curl", "curl"},
	{"/api/vector/laplacian", "laplacian"},
	{"/api/vector/jacobian", "jacobian"},
	{"/api/vector/hessian", "hessian"},

	{"/api/integral/double", "double_integral"},
	{"/api/integral/triple", "triple_integral"},
}

// Config configures a Server.
type Config struct {
	// Engine evaluates requests. Required.
	Engine *mathflow.Engine

	// Logger is required.
	Logger *slog.Logger

	// MaxBodyBytes caps request bodies. Default: 1 MiB.
	MaxBodyBytes int64

	// RequestsPerSecond and Burst configure a token bucket shared by all
	// clients. A zero RequestsPerSecond disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Server is the HTTP handler.
type Server struct {
	engine  *mathflow.Engine
	logger  *slog.Logger
	maxBody int64
	limiter *rate.Limiter
	handler http.Handler
}

// New builds the handler. It panics if a required field is missing.
func New(config Config) *Server {
	if config.Engine == nil {
		panic("server: Engine is required")
	}
	if config.Logger == nil {
		panic("server: Logger is required")
	}
	s := &Server{engine: config.Engine, logger: config.Logger, maxBody: config.MaxBodyBytes}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}
	if config.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	}

	mux := http.NewServeMux()
	for _, rt := range Routes {
		mux.HandleFunc("POST "+rt.Path, s.handleOp(rt.Op))
	}
	mux.HandleFunc("POST /tool", s.handleOp(""))
	mux.HandleFunc("GET /schema", s.handleSchema)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	s.handler = s.logRequests(s.recoverPanics(s.limit(mux)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ============================================================
// Handlers
// ============================================================

// handleOp evaluates one request. An empty op takes the operation from
// the body.
func (s *Server) handleOp(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := codec.ForContentType(r.Header.Get("Content-Type"))
		if err != nil {
			s.fail(w, r, codec.JSON, http.StatusUnsupportedMediaType, ErrorDetail{Category: unsupportedMedia, Message: err.Error()})
			return
		}
		out := responseFormat(r, in)

		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		defer r.Body.Close()

		var req mathflow.Request
		if err := in.Decode(r.Body, &req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				s.fail(w, r, out, http.StatusRequestEntityTooLarge, ErrorDetail{Category: payloadTooLarge, Message: err.Error()})
				return
			}
			s.fail(w, r, out, http.StatusBadRequest, ErrorDetail{Category: badRequest, Message: "invalid request body: " + err.Error()})
			return
		}
		if op != "" {
			req.Op = op
		}
		info(r).op = req.Op

		resp, err := s.engine.Do(r.Context(), req)
		if err != nil {
			s.fail(w, r, out, Status(err), describe(err))
			return
		}
		s.write(w, out, http.StatusOK, resp)
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.write(w, responseFormat(r, codec.JSON), http.StatusOK, map[string]interface{}{
		"operations": mathflow.Catalog(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.write(w, responseFormat(r, codec.JSON), http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"/tool":   "any operation, named by op",
		"/schema": "operation catalog",
		"/health": "health check",
	}
	for _, rt := range Routes {
		if op, ok := mathflow.Lookup(rt.Op); ok {
			endpoints[rt.Path] = op.Description
		}
	}
	s.write(w, responseFormat(r, codec.JSON), http.StatusOK, map[string]interface{}{
		"message":   "MathFlow symbolic math API",
		"endpoints": endpoints,
	})
}

// responseFormat honours Accept, falling back to the request's format.
func responseFormat(r *http.Request, in codec.Format) codec.Format {
	accept := r.Header.Get("Accept")
	if accept == "" {
		return in
	}
	f, err := codec.ForContentType(accept)
	if err != nil {
		return in
	}
	return f
}

func (s *Server) write(w http.ResponseWriter, f codec.Format, status int, v interface{}) {
	body, err := f.Bytes(v)
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, f codec.Format, status int, detail ErrorDetail) {
	info(r).category = detail.Category
	s.write(w, f, status, ErrorBody{Error: detail})
}

// ============================================================
// Middleware
// ============================================================

type infoKey struct{}

// requestInfo collects what handlers learn about a request for the
// access log.
type requestInfo struct {
	op       string
	category string
}

func info(r *http.Request) *requestInfo {
	if ri, ok := r.Context().Value(infoKey{}).(*requestInfo); ok {
		return ri
	}
	return &requestInfo{}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// logRequests writes one line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ri := &requestInfo{}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), infoKey{}, ri)))

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		}
		if ri.op != "" {
			attrs = append(attrs, "op", ri.op)
		}
		if ri.category != "" {
			attrs = append(attrs, "category", ri.category)
		}
		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "request", attrs...)
	})
}

func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				s.fail(w, r, codec.JSON, http.StatusInternalServerError,
					ErrorDetail{Category: internalError, Message: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.fail(w, r, codec.JSON, http.StatusTooManyRequests,
				ErrorDetail{Category: rateLimited, Message: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
