package server

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guiyumin/vgrab/internal/core/downloader"
	"github.com/guiyumin/vgrab/internal/core/metrics"
)

const requestIDHeader = "X-Request-ID"

// Server is the HTTP server for vgrab
type Server struct {
	addr    string
	dl      *downloader.Downloader
	metrics *metrics.Metrics
	server  *http.Server
	engine  *gin.Engine
}

// NewServer creates a new HTTP server listening on addr. m may be nil, in
// which case /metrics is not mounted.
func NewServer(addr string, dl *downloader.Downloader, m *metrics.Metrics) *Server {
	s := &Server{
		addr:    addr,
		dl:      dl,
		metrics: m,
	}
	s.engine = s.setupEngine()
	return s
}

// Handler returns the configured gin engine
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	// Recovery is innermost so logging and metrics record the 500
	engine.Use(requestIDMiddleware())
	engine.Use(s.loggingMiddleware())
	engine.Use(s.metricsMiddleware())
	engine.Use(gin.CustomRecovery(recoveryHandler))

	if staticFS := GetStaticFS(); staticFS != nil {
		engine.GET("/", func(c *gin.Context) {
			serveIndex(c, staticFS)
		})
	}

	engine.POST("/formats", s.handleFormats)
	engine.POST("/download", s.handleDownload)
	engine.GET("/download", s.handleStreamDownload)
	engine.GET("/health", s.handleHealth)

	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return engine
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if err := downloader.EnsureDir(s.dl.OutputDir()); err != nil {
		return err
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No timeout for downloads
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting vgrab server on %s", s.addr)
	log.Printf("Output directory: %s", s.dl.OutputDir())
	log.Printf("Extraction backend: %s", s.dl.Backend())

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Middleware

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("[%s] %s %s %d %s", c.GetString("request_id"), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}

func recoveryHandler(c *gin.Context, recovered any) {
	log.Printf("[%s] panic: %v", c.GetString("request_id"), recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
}

func serveIndex(c *gin.Context, staticFS fs.FS) {
	indexFile, err := fs.ReadFile(staticFS, "index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexFile)
}
