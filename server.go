package sitehop

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blakewilliams/sitehop/internal/tracing"
	"github.com/blakewilliams/sitehop/pkg/logfilter"
	"github.com/blakewilliams/sitehop/pkg/notifier"
	"github.com/blakewilliams/sitehop/pkg/site"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ErrMissingURL = errors.New("a url or permalink is required")
	ErrNoSites    = errors.New("no site configuration loaded")
)

type logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

type ServerOption = func(*Server) error

type Server struct {
	Addr   string
	Logger logger
	// Sets the secret used to sign requests made when fetching site
	// configuration over HTTP. When set, `Authorization` carries a hex encoded
	// HMAC of "urlPath,timestamp" and `X-Authorization-Time` the timestamp.
	HmacSecret string
	// Redacts query values and extracted parameters before they are logged.
	LogFilter logfilter.Filter
	// Used to subscribe to resolve, extract, and select events.
	Notifier notifier.Notifier
	// A function to wrap request handling with other middleware
	AroundRequest func(http.Handler) http.Handler
	// A function that is called when an error occurs in a sitehop handler
	OnError func(w http.ResponseWriter, r *http.Request, e error)

	registry      atomic.Pointer[site.Registry]
	httpServer    *http.Server
	mu            sync.Mutex
	tracingConfig tracing.TracingConfig
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{
		Addr:          "localhost:3005",
		Logger:        log.Default(),
		LogFilter:     logfilter.New(),
		Notifier:      notifier.New(),
		AroundRequest: func(h http.Handler) http.Handler { return h },
		tracingConfig: tracing.TracingConfig{Enabled: false},
	}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, err
		}
	}

	return server, nil
}

func WithRegistry(registry *site.Registry) ServerOption {
	return func(server *Server) error {
		if registry == nil {
			return ErrNoSites
		}

		server.SetRegistry(registry)
		return nil
	}
}

// SetRegistry publishes a new site registry. Requests already in flight keep
// using the registry they started with.
func (s *Server) SetRegistry(registry *site.Registry) {
	s.registry.Store(registry)
}

func (s *Server) Registry() *site.Registry {
	return s.registry.Load()
}

func (s *Server) ConfigureTracing(endpoint string, serviceName string, insecure bool) {
	s.tracingConfig.Enabled = true
	s.tracingConfig.Endpoint = endpoint
	s.tracingConfig.ServiceName = serviceName
	s.tracingConfig.Insecure = insecure
}

// Handler returns the HTTP handler serving the sitehop API.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/_ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("200 ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(s.AroundRequest)
		r.Get("/candidates", s.handleCandidates)
		r.Post("/candidates", s.handleCandidates)
		r.Get("/sites", s.handleSites)
	})

	return router
}

func (s *Server) ListenAndServe() error {
	shutdownTracing, err := tracing.Instrument(s.tracingConfig, s.Logger)
	if err != nil {
		s.Logger.Printf("Error instrumenting tracing: %v", err)
		shutdownTracing = func() {}
	}

	defer shutdownTracing()

	httpServer := &http.Server{
		Addr:           s.Addr,
		Handler:        s.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.mu.Unlock()

	s.Logger.Printf("Listening on %s\n", s.Addr)

	return httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Close()
}
