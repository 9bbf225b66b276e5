// internal/server/server.go
//
// HTTP surface of the service.
//
// Context
// -------
// One chi router serves the app shell, the resolved client config, a few
// JSON endpoints the client and desktop shell call, and the static webapp
// bundle.  Everything it shows comes from the *bootstrap.State built once
// at startup; handlers never mutate it.
//
// Routes
// ------
//   GET    /                   app shell, compatibility page, or a blocking
//                              error page (500)
//   GET    /config.json        merged client config (503 until ready)
//   POST   /compatibility/accept  accept an unsupported browser, back to /
//   GET    /api/discover       runtime well-known lookup for a server name
//   GET    /api/menu           desktop application menu (404 on web)
//   GET    /api/registration-url  link back into the app after registering
//   GET    /api/screen         screen and params for an app URL's fragment
//   GET    /api/platform       platform name, update check, and badge
//   PUT    /api/badge          unread count and sync error for the badge
//   POST   /api/update-check   start an update check
//   DELETE /api/update-check   stop showing the update check
//   GET    /metrics            Prometheus
//   *                          static files from the webapp directory
//
// Middleware order: Recoverer → Security → ForceHTTPS (optional) → Enrich.

package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/vector/internal/bootstrap"
	"github.com/yanizio/vector/internal/discovery"
	"github.com/yanizio/vector/internal/middleware"
	"github.com/yanizio/vector/internal/requestinfo"
	"github.com/yanizio/vector/internal/view"
)

// Discoverer looks up a server name at runtime.  *discovery.Client
// implements it.
type Discoverer interface {
	FindClientConfig(ctx context.Context, serverName string) (*discovery.Result, error)
}

// Options configures a Server.
type Options struct {
	State      *bootstrap.State
	Discovery  Discoverer
	Views      *view.Renderer
	WebappDir  string
	ForceHTTPS bool
	Logger     *zap.SugaredLogger

	// Scripts are the bundle URLs the shell loads, in order.
	Scripts []string
	// WorkerScript is the IndexedDB worker bundle URL.
	WorkerScript string
}

// Server holds handler dependencies.
type Server struct {
	opts Options
	log  *zap.SugaredLogger
}

// New builds a Server.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	if len(opts.Scripts) == 0 {
		opts.Scripts = []string{"bundles/vector.js"}
	}
	return &Server{opts: opts, log: log}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)
	if s.opts.ForceHTTPS {
		r.Use(middleware.ForceHTTPS)
	}
	r.Use(requestinfo.Enrich)

	r.Get("/", s.handleApp)
	r.Get("/index.html", s.handleApp)
	r.Get("/config.json", s.handleConfig)
	r.Post("/"+compatibilityAcceptPath, s.handleCompatibilityAccept)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/discover", s.handleDiscover)
		api.Get("/menu", s.handleMenu)
		api.Get("/registration-url", s.handleRegistrationURL)
		api.Get("/screen", s.handleScreen)
		api.Get("/platform", s.handlePlatform)
		api.Put("/badge", s.handleBadge)
		api.Post("/update-check", s.handleUpdateCheckStart)
		api.Delete("/update-check", s.handleUpdateCheckStop)
	})

	if s.opts.WebappDir != "" {
		r.NotFound(http.FileServer(http.Dir(s.opts.WebappDir)).ServeHTTP)
	}
	return r
}
