// Package server exposes transcription over HTTP: upload audio, get the
// transcript back as JSON, and download it as SRT, VTT, text or JSON.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/studentsforfg/transcriber/internal/logging"
	"github.com/studentsforfg/transcriber/internal/transcribe"
)

const (
	defaultMaxUploadMB   = 200
	defaultMaxConcurrent = 2
	defaultCacheTTL      = 24 * time.Hour
	defaultResultLimit   = 256
	shutdownTimeout      = 10 * time.Second
)

// builds a backend for one request's source language
type TranscriberFunc func(ctx context.Context, language string) (transcribe.Transcriber, error)

// converts an upload into audio the backend accepts, returning its path
type PrepareFunc func(ctx context.Context, inputPath, workDir string) (string, error)

type Config struct {
	MaxUploadMB   int
	MaxConcurrent int
	CacheSize     int // identical uploads served from cache; 0 disables
	CacheTTL      time.Duration
	ResultLimit   int // finished transcriptions kept for download
	Language      string
	WorkDir       string // parent of per-request workspaces; os.TempDir() if empty
}

type Server struct {
	app            *fiber.App
	cfg            Config
	logger         *logging.Logger
	newTranscriber TranscriberFunc
	prepare        PrepareFunc

	sem     chan struct{}
	cache   *expirable.LRU[string, *Transcription]
	results *expirable.LRU[string, *Transcription]
}

func New(cfg Config, newTranscriber TranscriberFunc, prepare PrepareFunc, logger *logging.Logger) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = defaultResultLimit
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Server{
		cfg:            cfg,
		logger:         logger,
		newTranscriber: newTranscriber,
		prepare:        prepare,
		sem:            make(chan struct{}, cfg.MaxConcurrent),
		results:        expirable.NewLRU[string, *Transcription](cfg.ResultLimit, nil, cfg.CacheTTL),
	}
	if cfg.CacheSize > 0 {
		s.cache = expirable.NewLRU[string, *Transcription](cfg.CacheSize, nil, cfg.CacheTTL)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "transcriber",
		BodyLimit:             cfg.MaxUploadMB * 1024 * 1024,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(s.logRequests)

	s.app.Get("/healthz", s.handleHealth)

	api := s.app.Group("/api")
	api.Post("/transcriptions", s.handleTranscribe)
	api.Get("/transcriptions/:id/:format", s.handleDownload)
	api.Post("/subtitles", s.handleSubtitles)
}

// App exposes the fiber app, mainly for app.Test in tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Starting HTTP server", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Infow("Shutting down HTTP server")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}

	s.logger.Infow("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration", time.Since(start),
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
	)
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		s.logger.Errorw("Unhandled error", "error", err, "path", c.Path())
	}

	return c.Status(code).JSON(fiber.Map{
		"error":      msg,
		"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
	})
}
