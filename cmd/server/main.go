// Command server starts the room-runtime HTTP/WebSocket service: room
// creation and the Host/Controller/Spectator WebSocket upgrade, the board
// generator endpoint, and the usual ambient surface (health, metrics).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethx42/tabula-room-service/internal/boardgen"
	"github.com/ethx42/tabula-room-service/internal/bus"
	"github.com/ethx42/tabula-room-service/internal/config"
	"github.com/ethx42/tabula-room-service/internal/health"
	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/middleware"
	"github.com/ethx42/tabula-room-service/internal/room"
	"github.com/ethx42/tabula-room-service/internal/tracing"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// envFiles lists candidate dotenv paths in load order; the first one
// found wins, and a missing file at every path is not an error (the
// process may simply be configured entirely through the environment).
var envFiles = []string{".env.local", ".env"}

func main() {
	for _, path := range envFiles {
		if err := godotenv.Load(path); err == nil {
			break
		}
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		os.Exit(exitWithConfigError(err))
	}

	if err := logging.Initialize(cfg.GoEnv != "production"); err != nil {
		os.Exit(exitWithConfigError(err))
	}
	defer func() { _ = logging.GetLogger().Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, "tabula-room-service", cfg.OtelCollectorAddr)
	if err != nil {
		logging.Error(ctx, "failed to initialize tracer", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logging.Warn(ctx, "tracer shutdown error", zap.Error(err))
		}
	}()

	var busService *bus.Service
	if cfg.RedisEnabled {
		busService = bus.NewService(cfg.RedisAddr, cfg.RedisPassword)
		defer busService.Close()
	}

	hub := room.NewHub(cfg.RoomCleanupGrace, cfg.ReactionWindow, cfg.HeartbeatInterval, cfg.OutboundQueueDepth, splitOrigins(cfg.AllowedOrigins), busService)
	boardgenHandler := boardgen.NewHandler(cfg.BoardGenTimeBudget)
	healthHandler := health.NewHandler(busService)

	router := newRouter(cfg, hub, boardgenHandler, healthHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logging.Info(ctx, "room service listening", zap.String("port", cfg.Port), zap.String("go_env", cfg.GoEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(ctx, "server failed", zap.Error(err))
			os.Exit(1)
		}
	}()

	waitForShutdownSignal()
	logging.Info(ctx, "shutdown signal received, draining")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error(ctx, "graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, hub *room.Hub, boardgenHandler *boardgen.Handler, healthHandler *health.Handler) *gin.Engine {
	if cfg.GoEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("tabula-room-service"))
	router.Use(middleware.CorrelationID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitOrigins(cfg.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.HeaderXCorrelationID},
		AllowCredentials: true,
	}))

	router.POST("/rooms", hub.CreateRoomHandler)
	router.GET("/ws/:roomId", hub.ServeWs)
	router.POST("/generate", boardgenHandler.Generate)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health/live", healthHandler.Liveness)
	router.GET("/health/ready", healthHandler.Readiness)

	return router
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, segment := range strings.Split(raw, ",") {
		if segment = strings.TrimSpace(segment); segment != "" {
			origins = append(origins, segment)
		}
	}
	return origins
}

func waitForShutdownSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}

func exitWithConfigError(err error) int {
	os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
	return 1
}
