// Package web serves a small form that converts a story url into an epub,
// either streamed back to the browser or saved into the library directory.
package web

import (
	"context"
	"errors"
	"fanfic-downloader/config"
	"fanfic-downloader/downloader"
	"fanfic-downloader/model"
	"fanfic-downloader/template"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	OptionDownload = "download"
	OptionSave     = "save"

	shutdownTimeout = 10 * time.Second
)

// RunFunc converts one story. downloader.Run in production.
type RunFunc func(ctx context.Context, rawURL string, opts downloader.Options) (string, error)

type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	router *gin.Engine
	run    RunFunc
	hosts  []string
}

func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	return newServer(cfg, logger, downloader.Run)
}

func newServer(cfg *config.Config, logger *zap.Logger, run RunFunc) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg:    cfg,
		logger: logger,
		router: gin.New(),
		run:    run,
		hosts:  downloader.SupportedHosts(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.router.GET("/", s.index)
	s.router.POST("/", s.convert)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func (s *Server) render(c *gin.Context, status int, storyURL, message string) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := template.FormPage(s.hosts, storyURL, message).Render(c.Request.Context(), c.Writer); err != nil {
		s.logger.Error("failed to render form", zap.Error(err))
	}
}

func (s *Server) index(c *gin.Context) {
	s.render(c, http.StatusOK, "", "")
}

func (s *Server) convert(c *gin.Context) {
	storyURL := c.PostForm("url")
	option := c.DefaultPostForm("option", OptionDownload)

	switch option {
	case OptionDownload:
		s.download(c, storyURL)
	case OptionSave:
		s.save(c, storyURL)
	default:
		s.render(c, http.StatusBadRequest, storyURL, fmt.Sprintf("Unknown option: %s", option))
	}
}

func (s *Server) download(c *gin.Context, storyURL string) {
	scratch := filepath.Join(os.TempDir(), config.AppName+"-"+uuid.NewString())
	if err := os.Mkdir(scratch, 0o700); err != nil {
		s.logger.Error("failed to create scratch directory", zap.Error(err))
		s.render(c, http.StatusInternalServerError, storyURL, "Could not prepare the download.")
		return
	}
	defer os.RemoveAll(scratch)

	path, err := s.run(c.Request.Context(), storyURL, downloader.Options{
		Destination: scratch,
		Config:      s.cfg,
	})
	if err != nil {
		s.fail(c, storyURL, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (s *Server) save(c *gin.Context, storyURL string) {
	path, err := s.run(c.Request.Context(), storyURL, downloader.Options{
		Destination: s.cfg.LibraryDir,
		Config:      s.cfg,
	})
	if err != nil {
		s.fail(c, storyURL, err)
		return
	}
	s.render(c, http.StatusOK, "", fmt.Sprintf("Saved %s", filepath.Base(path)))
}

func (s *Server) fail(c *gin.Context, storyURL string, err error) {
	s.logger.Warn("conversion failed", zap.String("url", storyURL), zap.Error(err))
	status := http.StatusBadGateway
	if errors.Is(err, model.ErrInvalidURL) || errors.Is(err, model.ErrInvalidDestination) {
		status = http.StatusBadRequest
	}
	s.render(c, status, storyURL, err.Error())
}
