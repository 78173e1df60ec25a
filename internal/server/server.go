// Package server exposes stored figures over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/census-choropleth/internal/figstore"
	"github.com/sells-group/census-choropleth/internal/figure"
)

// Server serves the figure directory of a Store.
type Server struct {
	store  *figstore.Store
	router chi.Router
}

// Options configures the router.
type Options struct {
	// AllowedOrigins for CORS; empty permits any origin.
	AllowedOrigins []string
	// RateLimit is requests per second across all clients; 0 disables limiting.
	RateLimit float64
	Burst     int
}

// New builds the router.
func New(store *figstore.Store, opts Options) *Server {
	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	s := &Server{store: store}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		r.Use(limit(rate.NewLimiter(rate.Limit(opts.RateLimit), burst)))
	}

	r.Get("/health", s.health)
	r.Get("/figures", s.listFigures)
	r.Get("/figures/{name}", s.getFigure)

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func limit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) listFigures(w http.ResponseWriter, _ *http.Request) {
	names, err := s.store.List()
	if err != nil {
		s.fail(w, "list figures", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"figures": names})
}

// getFigure handles /figures/{key}.json and /figures/{key}.html. Both are
// rendered from the stored JSON document.
func (s *Server) getFigure(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	if ext != ".json" && ext != ".html" {
		http.Error(w, "unsupported encoding", http.StatusNotFound)
		return
	}

	fig, err := s.store.LoadName(stem)
	if err != nil {
		var nf *figstore.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "figure not found", http.StatusNotFound)
			return
		}
		s.fail(w, "load figure", err)
		return
	}

	switch ext {
	case ".json":
		b, err := figure.Marshal(fig)
		if err != nil {
			s.fail(w, "encode figure", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	case ".html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := figstore.RenderHTML(w, stem, fig); err != nil {
			zap.L().Error("server: render html", zap.String("figure", stem), zap.Error(err))
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, action string, err error) {
	zap.L().Error("server: "+action, zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
