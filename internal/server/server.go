// Package server exposes a Directory over HTTP.
//
// Routes:
//
//	GET  /classes                       every class with its units
//	GET  /classes/{class}               one class
//	GET  /classes/{class}/units/{key}   one unit; ?format=markdown returns its page
//	POST /classes/{class}/make          realize the JSON manifest in the body;
//	                                    ?key=K treats the body as the inputs of unit K
//	GET  /events                        server-sent stream of make outcomes
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/afb/internal/docs"
	afberrors "github.com/zjrosen/afb/internal/errors"
	"github.com/zjrosen/afb/internal/log"
	"github.com/zjrosen/afb/internal/manifest"
	"github.com/zjrosen/afb/internal/presentation"
	"github.com/zjrosen/afb/internal/pubsub"
	"github.com/zjrosen/afb/internal/registry"
	"github.com/zjrosen/afb/internal/spec"
	"github.com/zjrosen/afb/internal/tracing"
)

// Resolver maps a class name from a URL to its class.
type Resolver func(name string) (reflect.Type, bool)

// Options configure a Server.
type Options struct {
	// Resolve maps class names. Defaults to Directory.ClassByName.
	Resolve Resolver
	// Tracer wraps every make in a span. Defaults to a no-op tracer.
	Tracer trace.Tracer
	// MaxBodyBytes limits make request bodies. Zero means 1 MiB.
	MaxBodyBytes int64
	// ShutdownTimeout bounds graceful shutdown in Run. Zero means 5s.
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
}

// MakeEvent is published for every make request.
type MakeEvent struct {
	RunID string `json:"run_id"`
	Class string `json:"class"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error,omitempty"`
}

// Server serves the HTTP API of one Directory.
type Server struct {
	dir    *registry.Directory
	opts   Options
	router chi.Router
	events *pubsub.Broker[MakeEvent]
}

// New creates a Server over d.
func New(d *registry.Directory, opts Options) *Server {
	if opts.Resolve == nil {
		opts.Resolve = d.ClassByName
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer(tracing.DefaultServiceName)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	s := &Server{dir: d, opts: opts, events: pubsub.NewBroker[MakeEvent](0)}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/classes", func(r chi.Router) {
		r.Get("/", s.listClasses)
		r.Route("/{class}", func(r chi.Router) {
			r.Get("/", s.getClass)
			r.Get("/units/*", s.getUnit)
			r.Post("/make", s.make)
		})
	})
	r.Get("/events", s.streamEvents)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Events returns the stream of make outcomes.
func (s *Server) Events() pubsub.Subscriber[MakeEvent] {
	return s.events
}

// Close ends every event stream.
func (s *Server) Close() {
	s.events.Close()
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	defer s.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
	}
	// Event streams never finish on their own.
	srv.RegisterOnShutdown(s.Close)

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.CatServer, "Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	log.Info(log.CatServer, "Shutting down", "addr", addr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) listClasses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, presentation.FromDirectory(s.dir))
}

func (s *Server) getClass(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.registry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, presentation.FromRegistry(reg))
}

func (s *Server) getUnit(w http.ResponseWriter, r *http.Request) {
	reg, ok := s.registry(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "*")
	unit, err := reg.Get(key)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		page, err := docs.Markdown(s.dir, reg.Class(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, page)
		return
	}
	writeJSON(w, http.StatusOK, presentation.FromUnit(key, unit))
}

func (s *Server) make(w http.ResponseWriter, r *http.Request) {
	cls, ok := s.class(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		writeError(w, afberrors.Wrap(afberrors.ErrInvalidFormat, err, "reading request body"))
		return
	}
	doc, err := manifest.Decode(body, manifest.FormatJSON, "request")
	if err != nil {
		writeError(w, err)
		return
	}

	key := r.URL.Query().Get("key")
	runID := tracing.NewRunID()
	ctx := tracing.ContextWithRunID(r.Context(), runID)
	result, err := tracing.Around(ctx, s.opts.Tracer, tracing.SpanMake, func(context.Context) (any, error) {
		if key != "" {
			return s.dir.Make(cls, key, doc)
		}
		return s.dir.Realize(cls, doc)
	},
		attribute.String(tracing.AttrClass, spec.QualifiedName(cls)),
		attribute.String(tracing.AttrKey, key),
	)
	event := MakeEvent{RunID: runID, Class: spec.QualifiedName(cls), Key: key}
	if err != nil {
		log.ErrorErr(log.CatMake, "Make failed", err, "run_id", runID, "class", event.Class)
		event.Error = err.Error()
		s.events.Publish(pubsub.FailedEvent, event)
		writeError(w, err)
		return
	}

	log.Info(log.CatMake, "Made object", "run_id", runID, "class", event.Class, "key", key)
	s.events.Publish(pubsub.MadeEvent, event)
	writeJSON(w, http.StatusOK, presentation.MakeResultDTO{
		RunID:  runID,
		Class:  spec.QualifiedName(cls),
		Key:    key,
		Result: presentation.Expand(result),
	})
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, afberrors.New(afberrors.ErrGraph, "streaming unsupported"))
		return
	}
	ch := s.events.Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The type goes on the event line, the payload on the data line.
	for event := range ch {
		data, err := json.Marshal(event.Payload)
		if err != nil {
			log.ErrorErr(log.CatServer, "Encoding event failed", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Server) class(w http.ResponseWriter, r *http.Request) (reflect.Type, bool) {
	name := chi.URLParam(r, "class")
	cls, ok := s.opts.Resolve(name)
	if !ok {
		writeError(w, afberrors.New(afberrors.ErrNotFound, "unknown class", name))
		return nil, false
	}
	return cls, true
}

func (s *Server) registry(w http.ResponseWriter, r *http.Request) (*registry.Registry, bool) {
	cls, ok := s.class(w, r)
	if !ok {
		return nil, false
	}
	reg, ok := s.dir.Get(cls)
	if !ok {
		writeError(w, afberrors.New(afberrors.ErrNotFound, "no registry", spec.QualifiedName(cls)))
		return nil, false
	}
	return reg, true
}

// ErrorDTO is the body of every failed request.
type ErrorDTO struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind,omitempty"`
	Items []string `json:"items,omitempty"`
}

// StatusOf maps an engine error to its HTTP status.
func StatusOf(err error) int {
	switch afberrors.KindOf(err) {
	case afberrors.ErrNotFound:
		return http.StatusNotFound
	case afberrors.ErrArgument, afberrors.ErrInvalidFormat, afberrors.ErrTypeMismatch, afberrors.ErrSignature:
		return http.StatusBadRequest
	case afberrors.ErrKeyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := ErrorDTO{Error: err.Error()}
	if kind := afberrors.KindOf(err); kind != nil {
		body.Kind = kind.Error()
	}
	var e *afberrors.Error
	if errors.As(err, &e) {
		body.Items = e.Items
	}
	writeJSON(w, StatusOf(err), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.ErrorErr(log.CatServer, "Encoding response failed", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug(log.CatServer, "Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
