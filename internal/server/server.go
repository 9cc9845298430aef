package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/screenflow/screenflow/internal/api/middleware"
	"github.com/screenflow/screenflow/internal/host/memory"
	"github.com/screenflow/screenflow/internal/host/ws"
	apihttp "github.com/screenflow/screenflow/internal/http"
	"github.com/screenflow/screenflow/internal/infrastructure/config"
	"github.com/screenflow/screenflow/internal/infrastructure/logging"
	"github.com/screenflow/screenflow/internal/infrastructure/monitoring"
	"github.com/screenflow/screenflow/internal/infrastructure/tracing"
	"github.com/screenflow/screenflow/internal/navigation"
	"github.com/screenflow/screenflow/internal/routes"
	"github.com/screenflow/screenflow/internal/session"
)

// Server wraps the HTTP server and the navigation engine it fronts.
type Server struct {
	cfg      *config.Config
	logger   *logging.Logger
	router   *gin.Engine
	http     *http.Server
	coord    *navigation.Coordinator
	bridge   *navigation.Bridge
	sessions *session.Manager
}

// New assembles the full service: route table, resolver, host adapter,
// coordinator, bridge, session manager and HTTP surface.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewDefault()
	}
	metrics := monitoring.NewMetrics()

	manifest, err := routes.Load(cfg.Routes.Manifest)
	if err != nil {
		return nil, err
	}
	resolver := navigation.NewResolver()
	table, err := routes.Build(manifest, resolver)
	if err != nil {
		return nil, err
	}
	logger.Info("route manifest loaded",
		zap.String("path", cfg.Routes.Manifest),
		zap.Int("routes", len(manifest.Routes)),
	)

	var (
		host    navigation.Host
		memHost *memory.Host
		wsHost  *ws.Adapter
	)
	switch cfg.Host.Mode {
	case "ws":
		wsHost = ws.New(logger.Named("host.ws"), metrics)
		host = wsHost
	case "memory":
		memHost = memory.New().WithLatency(time.Duration(cfg.Host.LatencyMS) * time.Millisecond)
		host = memHost
	default:
		return nil, fmt.Errorf("server: unknown host mode %q", cfg.Host.Mode)
	}

	coord := navigation.NewCoordinator(host, resolver, logger.Named("navigation")).
		WithMetrics(metrics)
	bridge := navigation.NewBridge(coord, logger.Named("bridge"))
	sessions := session.NewManager(coord, cfg.Session.Dir, logger.Named("session")).
		WithMetrics(metrics)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(tracing.Middleware(tracing.New("navd", logger.Named("tracing"))))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS())
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(coord, table, sessions)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/stacks", handlers.Stacks)
	router.POST("/pages", handlers.PushPage)
	router.POST("/pages/pop", handlers.PopPages)
	router.POST("/pages/pop-to", handlers.PopToPage)
	router.POST("/pages/pop-to-root", handlers.PopToRoot)
	router.POST("/pages/insert", handlers.InsertPage)
	router.POST("/pages/remove", handlers.RemovePage)
	router.POST("/pages/replace-top", handlers.ReplaceTop)
	router.POST("/modals", handlers.PushModal)
	router.POST("/modals/pop", handlers.PopModal)

	router.POST("/sessions", handlers.SaveSession)
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions/:id/restore", handlers.RestoreSession)
	router.DELETE("/sessions/:id", handlers.DeleteSession)

	if wsHost != nil {
		router.GET("/stream", wsHost.Attach)
	}
	if memHost != nil {
		// Simulated user navigation against the in-process host, for demos
		// and end-to-end exercises of the reconciliation path.
		router.POST("/host/back", func(c *gin.Context) {
			if err := memHost.UserPopPage(); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		router.POST("/host/dismiss", func(c *gin.Context) {
			if err := memHost.UserPopModal(); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}

	return &Server{
		cfg:      cfg,
		logger:   logger,
		router:   router,
		coord:    coord,
		bridge:   bridge,
		sessions: sessions,
	}, nil
}

// Coordinator exposes the engine, mainly for tests.
func (s *Server) Coordinator() *navigation.Coordinator { return s.coord }

// Router exposes the HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.logger.Info("starting screenflow", zap.String("addr", addr), zap.String("host_mode", s.cfg.Host.Mode))
	s.http = &http.Server{Addr: addr, Handler: s.router}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases the bridge subscriptions and stops the HTTP server.
func (s *Server) Close() error {
	s.bridge.Close()
	if s.http != nil {
		return s.http.Close()
	}
	return nil
}
