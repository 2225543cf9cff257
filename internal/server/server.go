package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/MicroOS/kernel/internal/api/http"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/api/middleware"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/api/ws"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/domain/syscall"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/config"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MicroOS/kernel/internal/kernel"
)

// Server wraps the HTTP syscall surface and the kernel it fronts
type Server struct {
	router  *gin.Engine
	httpSrv *http.Server
	kernel  *kernel.Kernel
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New creates a server instance around a freshly booted kernel
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: false,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
		logger = l
	}

	metrics := monitoring.NewMetrics()
	k := kernel.New(cfg.Kernel, logger.Named("kernel"), metrics)
	dispatcher := syscall.NewDispatcher(k).WithMetrics(metrics)

	logger.Info("kernel server initializing",
		zap.String("port", cfg.Server.Port),
		zap.String("boot_id", k.BootID()),
	)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(k, dispatcher, metrics, logger.Named("http"))
	wsHandler := ws.NewHandler(k, metrics, logger.Named("ws"))

	router.GET("/health", handlers.Health)
	router.POST("/syscall", handlers.Syscall)

	router.POST("/processes", handlers.CreateProcess)
	router.GET("/processes", handlers.ListProcesses)
	router.GET("/processes/:pid", handlers.GetProcess)
	router.DELETE("/processes/:pid", handlers.TerminateProcess)
	router.POST("/processes/:pid/receive", handlers.Receive)

	router.POST("/messages", handlers.Send)

	router.GET("/scheduler", handlers.GetScheduler)
	router.POST("/scheduler/yield", handlers.Yield)

	router.GET("/interrupts", handlers.ListInterrupts)
	router.POST("/interrupts/:line", handlers.DispatchInterrupt)
	router.POST("/interrupts/:line/handler", handlers.RegisterHandler)
	router.POST("/interrupts/:line/mask", handlers.MaskLine)
	router.DELETE("/interrupts/:line/mask", handlers.UnmaskLine)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/metrics/json", handlers.MetricsJSON)

	router.GET("/events", wsHandler.HandleConnection)

	return &Server{
		router:  router,
		kernel:  k,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Kernel exposes the wrapped kernel, for tests and embedding
func (s *Server) Kernel() *kernel.Kernel {
	return s.kernel
}

// Router exposes the gin engine, for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until the listener fails or Shutdown is called
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("kernel server listening", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("kernel server shutting down")
	defer func() {
		_ = s.logger.Sync()
	}()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
