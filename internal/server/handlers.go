package server

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/studentsforfg/transcriber/internal/audio"
	"github.com/studentsforfg/transcriber/internal/subtitle"
	"github.com/studentsforfg/transcriber/internal/transcribe"
)

// Transcription is the JSON body returned for an upload
type Transcription struct {
	ID              string             `json:"id"`
	RequestID       string             `json:"request_id"`
	Text            string             `json:"text"`
	Language        string             `json:"language,omitempty"`
	DurationSeconds float64            `json:"duration_seconds"`
	Segments        []subtitle.Segment `json:"segments"`
	SRT             string             `json:"srt"`
}

type subtitlesRequest struct {
	Segments []subtitle.Segment `json:"segments"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" is required")
	}
	if !audio.IsMediaFile(fh.Filename) {
		return fiber.NewError(fiber.StatusUnsupportedMediaType,
			fmt.Sprintf("unsupported file type %q", filepath.Ext(fh.Filename)))
	}
	// fiber strings alias the request buffer; results outlive the handler
	language := utils.CopyString(strings.TrimSpace(c.FormValue("language", s.cfg.Language)))
	requestID := utils.CopyString(c.GetRespHeader(fiber.HeaderXRequestID))
	log := s.logger.With("request_id", requestID)

	workDir, err := os.MkdirTemp(s.cfg.WorkDir, "transcriber-*")
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "upload"+strings.ToLower(filepath.Ext(fh.Filename)))
	digest, err := saveUpload(fh, inputPath)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	key := digest + ":" + language

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			log.Debugw("Serving cached transcription", "id", cached.ID)
			s.results.Add(cached.ID, cached)
			hit := *cached
			hit.RequestID = requestID
			return c.JSON(hit)
		}
	}

	ctx := c.UserContext()
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return fiber.NewError(fiber.StatusServiceUnavailable, "request cancelled while waiting for a worker")
	}

	audioPath, err := s.prepare(ctx, inputPath, workDir)
	if err != nil {
		log.Warnw("Audio preparation failed", "error", err)
		return fiber.NewError(fiber.StatusUnprocessableEntity, "could not decode media file")
	}

	tr, err := s.newTranscriber(ctx, language)
	if err != nil {
		return fmt.Errorf("create transcriber: %w", err)
	}

	log.Infow("Transcribing upload", "file", fh.Filename, "size", fh.Size, "language", language)
	result, err := tr.Transcribe(ctx, audioPath)
	if err != nil {
		log.Errorw("Transcription failed", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, "transcription failed")
	}

	srt, err := subtitle.FormatSRT(result.Segments)
	if err != nil {
		log.Errorw("Backend returned unrenderable segments", "error", err)
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	lang := result.Language
	if lang == "" {
		lang = language
	}
	out := &Transcription{
		ID:              uuid.NewString(),
		RequestID:       requestID,
		Text:            result.PlainText(),
		Language:        lang,
		DurationSeconds: result.Duration.Seconds(),
		Segments:        nonNil(result.Segments),
		SRT:             srt,
	}

	s.results.Add(out.ID, out)
	if s.cache != nil {
		s.cache.Add(key, out)
	}

	return c.JSON(out)
}

func (s *Server) handleDownload(c *fiber.Ctx) error {
	t, ok := s.results.Get(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "transcription not found")
	}

	format, err := subtitle.ParseFormat(c.Params("format"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var doc string
	switch format {
	case subtitle.SRT:
		doc = t.SRT
	case subtitle.Text:
		doc = t.Text
	default:
		if doc, err = subtitle.Render(format, t.Segments); err != nil {
			return err
		}
	}

	c.Attachment("transcription" + subtitle.ExtensionFor(format))
	c.Set(fiber.HeaderContentType, subtitle.ContentTypeFor(format))
	return c.SendString(doc)
}

func (s *Server) handleSubtitles(c *fiber.Ctx) error {
	format, err := subtitle.ParseFormat(c.Query("format", string(subtitle.SRT)))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var req subtitlesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}

	doc, err := subtitle.Render(format, req.Segments)
	if err != nil {
		if errors.Is(err, subtitle.ErrInvalidArgument) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}

	c.Set(fiber.HeaderContentType, subtitle.ContentTypeFor(format))
	return c.SendString(doc)
}

// copies the upload to path and returns the hex sha256 of its bytes
func saveUpload(fh *multipart.FileHeader, path string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	_, copyErr := io.Copy(io.MultiWriter(dst, h), src)
	if err := errors.Join(copyErr, dst.Close()); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func nonNil(segments []subtitle.Segment) []subtitle.Segment {
	if segments == nil {
		return []subtitle.Segment{}
	}
	return segments
}

// DefaultPrepare re-encodes uploads with audio.Prepare
func DefaultPrepare(opts audio.PrepareOptions) PrepareFunc {
	return func(ctx context.Context, inputPath, workDir string) (string, error) {
		out := audio.PreparedPath(inputPath, workDir, opts)
		if err := audio.Prepare(ctx, inputPath, out, opts); err != nil {
			return "", err
		}
		return out, nil
	}
}

// FactoryTranscribers builds a backend per request with transcribe.Factory
func FactoryTranscribers(provider transcribe.Provider, apiKey string, base transcribe.Options) TranscriberFunc {
	return func(ctx context.Context, language string) (transcribe.Transcriber, error) {
		opts := base
		if language != "" {
			opts.Language = language
		}
		return transcribe.Factory(ctx, provider, apiKey, opts)
	}
}
