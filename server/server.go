package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"buscapisos/config"
	"buscapisos/prompts"
	"buscapisos/services"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	search     *services.SearchService
	health     *services.HealthcheckService
	prompts    *prompts.Store
}

func NewServer(cfg *config.Config, search *services.SearchService, health *services.HealthcheckService, store *prompts.Store) (*Server, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogger())
	router.Use(CORSMiddleware(cfg.Server.CORSOrigins))

	s := &Server{
		router:  router,
		cfg:     cfg,
		search:  search,
		health:  health,
		prompts: store,
	}
	s.setUpRoutes()
	return s, nil
}

func (s *Server) setUpRoutes() {
	s.router.GET("/buscar", s.handleSearch)
	s.router.GET("/buscar/stream", s.handleStream)
	s.router.GET("/inversion", s.handleInvest)
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/prompts", s.handleGetPrompts)
	s.router.POST("/prompts", s.handleUpdatePrompts)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("HTTP server listening on %s", s.cfg.Server.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	log.Println("Server shutdown completed")
	return nil
}

// RequestIDMiddleware reuses the caller's X-Request-ID or assigns one, and
// makes it available to the services through the request context.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger writes one line per request to the standard logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("HTTP %s %s -> %d (%s) [%s]", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond), c.Writer.Header().Get(requestIDHeader))
	}
}

// CORSMiddleware allows the configured origins; "*" allows any. Requests
// without Origin pass through.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin == "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			isAllowed := false
			for _, domain := range allowedOrigins {
				if domain == "*" || domain == origin {
					isAllowed = true
					break
				}
			}

			if !isAllowed {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":  "origen no permitido",
					"origin": origin,
				})
				return
			}
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Accept, Origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
