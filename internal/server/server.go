package server

import (
	"embed"
	"io/fs"
	"net/http"
	"net/http/pprof"

	"github.com/gin-gonic/gin"

	"github.com/praveen420coder/sf-log-analyzer/internal/aggregator"
	"github.com/praveen420coder/sf-log-analyzer/internal/analyzer"
	"github.com/praveen420coder/sf-log-analyzer/internal/hub"
	"github.com/praveen420coder/sf-log-analyzer/internal/parser"
)

//go:embed all:web
var webFS embed.FS

// Server holds the Gin engine and dependencies for the dashboard and the
// parse/analyze API.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	port       string
}

// New creates a web server for the dashboard.
func New(h *hub.Hub, agg *aggregator.Aggregator, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		port:       port,
	}

	s.setupRoutes()
	return s
}

// serveEmbedded reads a file from the embedded FS and writes it with the
// given content type. Files are read once at startup.
func serveEmbedded(webContent fs.FS, name string, contentType string) gin.HandlerFunc {
	data, err := fs.ReadFile(webContent, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) setupRoutes() {
	webContent, _ := fs.Sub(webFS, "web")

	// Dashboard.
	s.engine.GET("/", serveEmbedded(webContent, "index.html", "text/html; charset=utf-8"))
	s.engine.GET("/style.css", serveEmbedded(webContent, "style.css", "text/css; charset=utf-8"))
	s.engine.GET("/app.js", serveEmbedded(webContent, "app.js", "application/javascript; charset=utf-8"))

	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"uptime":         stats.Uptime,
			"files_watched":  stats.FilesWatched,
			"logs_analyzed":  stats.LogsAnalyzed,
			"parse_failures": stats.ParseFailures,
		})
	})

	// Session stats and the most recent result.
	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})
	s.engine.GET("/api/last", func(c *gin.Context) {
		last := s.aggregator.Last()
		if last == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no trace analyzed yet"})
			return
		}
		c.JSON(http.StatusOK, last)
	})

	// On-demand engine API.
	s.engine.POST("/api/parse", s.handleParse)
	s.engine.POST("/api/analyze", s.handleAnalyze)

	// WebSocket stream of analysis results.
	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// engineRequest is the request body for /api/parse and /api/analyze.
type engineRequest struct {
	Text   string `json:"text" binding:"required"`
	Status string `json:"status"`
}

func (s *Server) handleParse(c *gin.Context) {
	var req engineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := parser.Parse(req.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, parsed)
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req engineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := parser.Parse(req.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	insights, metrics := analyzer.Analyze(parsed, req.Status)
	c.JSON(http.StatusOK, gin.H{
		"parsed":   parsed,
		"insights": insights,
		"metrics":  metrics,
	})
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	return s.engine.Run(":" + s.port)
}
