package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yashubustudio/cropdoctor/diagnosis"
	"yashubustudio/cropdoctor/internal/logging"
	"yashubustudio/cropdoctor/internal/store"
)

// UserHeader carries the caller identity. Authentication happens upstream.
const UserHeader = "X-User-ID"

// Engine is the subset of *diagnosis.Engine the handlers need.
type Engine interface {
	Diagnose(image []byte, plantPart, language string) (diagnosis.Result, error)
	Reload(ctx context.Context) error
	KnowledgeSize() int
	KnowledgeKeys() []string
	Degraded() bool
}

// Catalog serves the disease knowledge store.
type Catalog interface {
	ListDiseases(ctx context.Context, f store.DiseaseFilter) ([]diagnosis.DiseaseRecord, error)
	CreateDisease(ctx context.Context, rec diagnosis.DiseaseRecord) (diagnosis.DiseaseRecord, error)
}

// ScanRecorder persists and lists scan history.
type ScanRecorder interface {
	SaveScan(ctx context.Context, scan store.Scan) (store.Scan, error)
	ListScans(ctx context.Context, userID string, limit, offset int) ([]store.Scan, error)
	DeleteScan(ctx context.Context, userID, scanID string) error
}

// Options configures a Server.
type Options struct {
	Engine          Engine
	Catalog         Catalog
	Scans           ScanRecorder
	Logger          *zap.Logger
	Listen          string
	MaxUploadBytes  int64
	DefaultLanguage diagnosis.Language
	Now             func() time.Time
}

// Server exposes the diagnosis engine over HTTP.
type Server struct {
	engine      Engine
	catalog     Catalog
	scans       ScanRecorder
	log         *zap.Logger
	listen      string
	maxUpload   int64
	defaultLang diagnosis.Language
	now         func() time.Time

	handler http.Handler
}

// New validates opts and builds the route table.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("missing Engine")
	}
	listen := strings.TrimSpace(opts.Listen)
	if listen == "" {
		listen = "127.0.0.1:8080"
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	lang := opts.DefaultLanguage
	if lang == "" {
		lang = diagnosis.English
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		engine:      opts.Engine,
		catalog:     opts.Catalog,
		scans:       opts.Scans,
		log:         logging.Component(opts.Logger, "http"),
		listen:      listen,
		maxUpload:   maxUpload,
		defaultLang: lang,
		now:         now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/predict", s.handleHealth)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("GET /api/diseases", s.handleListDiseases)
	mux.HandleFunc("POST /api/diseases", s.handleCreateDisease)
	mux.HandleFunc("GET /api/scans", s.handleListScans)
	mux.HandleFunc("DELETE /api/scans/{id}", s.handleDeleteScan)
	s.handler = s.logRequests(mux)
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.log.Info("stopped")
		return nil
	})
	return g.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", s.now().Sub(start)),
		)
	})
}
