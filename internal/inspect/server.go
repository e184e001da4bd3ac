package inspect

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/veilgate-project/veilgate/internal/capture"
	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/events"
	"github.com/veilgate-project/veilgate/internal/gateway"
	"github.com/veilgate-project/veilgate/internal/telemetry"
	"github.com/veilgate-project/veilgate/internal/util"
)

// Server is the REST inspection surface: catalog browsing, on-demand
// decoding, capture queries, status and live configuration.
type Server struct {
	cfg      *config.Config
	bus      *events.Bus
	registry *gateway.Registry
	store    *capture.Store // nil when capture is disabled
	stats    *telemetry.Stats

	started time.Time

	httpServer *http.Server
	router     *gin.Engine
}

// NewServer creates an inspection server. store may be nil.
func NewServer(cfg *config.Config, bus *events.Bus, registry *gateway.Registry, store *capture.Store, stats *telemetry.Stats) *Server {
	if cfg.GetApplication().Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:      cfg,
		bus:      bus,
		registry: registry,
		store:    store,
		stats:    stats,
		started:  time.Now(),
	}
}

// Start runs the inspection server. Blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.router = s.buildRouter()

	addr := fmt.Sprintf(":%d", s.cfg.GetGateway().APIPort)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	security := s.cfg.GetApplication().Security
	if security.TLSEnabled {
		cert, err := loadOrCreateCert(security.TLSCertFile, security.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("inspection server TLS setup: %w", err)
		}
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
			CipherSuites: []uint16{
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			},
		}
	}

	// SO_REUSEADDR for immediate rebinding after restart
	lc := gateway.ReuseAddrListenConfig()
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("inspection server error: %w", err)
	}

	log.Info().Str("addr", addr).Msg("inspection server starting")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if security.TLSEnabled {
		tlsListener := tls.NewListener(ln, s.httpServer.TLSConfig)
		err = s.httpServer.Serve(tlsListener)
	} else {
		err = s.httpServer.Serve(ln)
	}

	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("inspection server error: %w", err)
	}

	return nil
}

// buildRouter creates the Gin router with all routes and middleware.
func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())
	router.Use(SecurityHeaders())

	security := s.cfg.GetApplication().Security
	allowedOrigins := security.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Must be false when AllowOrigins is "*"
		MaxAge:           12 * time.Hour,
	}))

	rateLimiter := NewRateLimiter(security.RateLimitRPS)
	router.Use(rateLimiter.Middleware())

	api := router.Group("/api")
	{
		api.GET("/ping", s.handlePing)
		api.GET("/status", s.handleStatus)
		api.GET("/sessions", s.handleSessions)
		api.GET("/logs", s.handleLogs)

		api.GET("/catalog", s.handleCatalog)
		api.GET("/catalog/:id", s.handleCatalogType)
		api.POST("/decode", s.handleDecode)

		api.GET("/captures", s.handleCaptures)
		api.GET("/captures/sessions", s.handleCaptureSessions)
		api.GET("/captures/types", s.handleTypeCounts)
		api.GET("/captures/:id", s.handleCaptureByID)

		api.GET("/config", s.handleGetConfig)
		api.PATCH("/config/gateway", s.handlePatchGateway)
		api.PATCH("/config/application", s.handlePatchApplication)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}

// loadOrCreateCert loads the configured TLS keypair, generating a
// self-signed one first if the certificate file does not exist yet.
func loadOrCreateCert(certFile, keyFile string) (tls.Certificate, error) {
	if _, err := os.Stat(certFile); os.IsNotExist(err) {
		if err := util.GenerateSelfSignedCert(certFile, keyFile); err != nil {
			return tls.Certificate{}, err
		}
	}
	return tls.LoadX509KeyPair(certFile, keyFile)
}

// Stop gracefully stops the inspection server.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
