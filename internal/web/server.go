// Package web serves the editable task grid in the browser.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"taskgrid/internal/collection"
	"taskgrid/internal/output"
	"taskgrid/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the task grid web server.
type Server struct {
	tasks  *collection.Collection
	log    zerolog.Logger
	router *gin.Engine
}

// NewServer creates a server over tasks.
func NewServer(tasks *collection.Collection, log zerolog.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"displayID":  output.DisplayID,
		"pathEscape": url.PathEscape,
		"field": func(t service.Task, key string) string {
			v, _ := t.Get(key)
			return v
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	// Task ids may contain escaped slashes.
	router.UseRawPath = true
	router.Use(requestLogger(log), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		tasks:  tasks,
		log:    log,
		router: router,
	}

	// Grid routes
	router.GET("/", s.handleIndex)
	views := router.Group("/views/:kind")
	{
		views.GET("", s.handleView)
		views.POST("/fetch", s.handleFetch)
		views.POST("/save", s.handleSave)
		views.POST("/add", s.handleAdd)
		views.POST("/import", s.handleImport)
		views.POST("/tasks/:id/fields", s.handleFields)
		views.POST("/tasks/:id/delete", s.handleDelete)
	}

	// API routes
	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleAPITasks)
		api.GET("/status", s.handleAPIStatus)
		api.PATCH("/tasks/:id", s.handleAPIUpdate)
	}

	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("setting up http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.log.Error().Err(err).Msg("failed to listen and serve http")
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Msg("failed to shutdown http server")
		return err
	}
	s.log.Info().Msg("shut down http server")
	return nil
}

// requestLogger logs each request and puts the logger in the request context.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		l := log.With().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		l.Info().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
