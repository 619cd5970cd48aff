package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/emiliopalmerini/garminetl/internal/goals"
	"github.com/emiliopalmerini/garminetl/internal/ports"
)

//go:embed static/*
var staticFiles embed.FS

// Options are the dashboard defaults and goal thresholds.
type Options struct {
	Port int
	// ReferenceYear is the default goal year; 0 picks the year before the latest one.
	ReferenceYear int
	Coefficient   float64
	// Key is the bucket label column of the processed tables.
	Key          string
	MinWeekDays  int
	MinMonthDays int
	SumColumns   []string
	Metrics      []goals.Metric
}

type Server struct {
	store   ports.SnapshotStore
	router  *http.ServeMux
	handler http.Handler
	opts    Options
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewServer(store ports.SnapshotStore, opts Options, log logrus.FieldLogger) *Server {
	if opts.Key == "" {
		opts.Key = "day"
	}
	if opts.Metrics == nil {
		opts.Metrics = goals.DefaultMetrics
	}
	s := &Server{
		store:  store,
		router: http.NewServeMux(),
		opts:   opts,
		log:    log,
		now:    time.Now,
	}
	s.setupRoutes()
	s.handler = s.withMiddleware(s.router)
	return s
}

// Handler returns the router wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static filesystem: %v", err))
	}
	s.router.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Pages
	s.router.HandleFunc("GET /{$}", s.handleHome)
	s.router.HandleFunc("GET /weekly", s.handleWeekly)
	s.router.HandleFunc("GET /yearly", s.handleYearly)
	s.router.HandleFunc("GET /trends", s.handleTrends)

	// JSON
	s.router.HandleFunc("GET /api/{table}", s.handleAPITable)
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.WithField("url", fmt.Sprintf("http://localhost:%d", s.opts.Port)).Info("starting dashboard")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warn("dashboard shutdown")
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
