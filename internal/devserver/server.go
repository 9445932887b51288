package devserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/homestage-ai/staging-client/internal/config"
	"github.com/homestage-ai/staging-client/internal/mq"
	"github.com/homestage-ai/staging-client/internal/utils/hashutil"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is a local stub of the Homestage staging API. It speaks the
// exact wire contract of the real service (multipart stage requests,
// framed event streams, restage envelopes) without doing any actual
// generation, so the CLI and the client tests can run offline.
type Server struct {
	listenAddr string
	ginEngine  *gin.Engine
	inner      *http.Server

	cfg       *config.DevServerConfig
	queue     mq.MQ
	quota     *demoQuota
	keyHashes map[string]struct{}
	logger    *zap.Logger
}

func NewServer(cfg *config.DevServerConfig, environment string, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("dev server is not configured")
	}

	gin.SetMode(getGinMode(environment))
	r := gin.New()

	r.Use(logger.SetLogger(
		logger.WithUTC(true),
		logger.WithSkipPath([]string{"/healthz"}),
	))

	r.Use(cors.New(
		cors.Config{
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowOrigins:     []string{"*"},
			AllowHeaders:     []string{"*"},
			ExposeHeaders:    []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		},
	))

	// Staged "results" are served straight from the assets dir.
	if cfg.AssetsDir != "" {
		r.Use(static.Serve("/assets", static.LocalFile(cfg.AssetsDir, false)))
	}
	r.Use(gin.Recovery())

	keyHashes := make(map[string]struct{}, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		keyHashes[hashutil.Sha3256Hash([]byte(key))] = struct{}{}
	}

	demoLimit := cfg.DemoLimit
	if demoLimit <= 0 {
		demoLimit = config.DefaultDemoLimit
	}

	s := &Server{
		listenAddr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		ginEngine:  r,
		cfg:        cfg,
		queue:      mq.NewInMemoryMQ(16),
		quota:      newDemoQuota(demoLimit),
		keyHashes:  keyHashes,
		logger:     log,
		inner: &http.Server{
			Handler: r,
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		},
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) Start() error {
	s.logger.Info("dev server listening", zap.String("addr", s.listenAddr))
	return s.inner.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s.queue.Close()
	return s.inner.Shutdown(ctx)
}

// Handler exposes the gin engine for httptest-based integration tests.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func getGinMode(env string) string {
	switch env {
	case "dev":
		return gin.DebugMode
	case "test":
		return gin.TestMode
	default:
		return gin.ReleaseMode
	}
}
