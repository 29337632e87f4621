// Package server provides the HTTP surface: uploads, answers, and health.
package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"sheetpilot/internal/answer"
	"sheetpilot/internal/core"
	"sheetpilot/internal/observability"
)

// Handler holds the HTTP handlers
type Handler struct {
	files   core.FileStore
	answers *answer.Service
}

// NewHandler creates a new handler over the file store and answer service
func NewHandler(files core.FileStore, answers *answer.Service) *Handler {
	return &Handler{
		files:   files,
		answers: answers,
	}
}

// Upload handles POST /api/upload. It accepts a multipart form with a "file"
// part and a non-empty "kind" value, stores the workbook, and echoes the new
// identifier. Spreadsheet content is not inspected here; malformed files
// surface later, at filter time.
func (h *Handler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return core.NewValidationError("missing file field")
	}

	kind := c.FormValue("kind")
	if strings.TrimSpace(kind) == "" {
		return core.NewValidationError("missing kind field")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return core.NewInternalError("failed to open uploaded file", err)
	}
	defer func() {
		_ = src.Close() //nolint:errcheck
	}()

	stored, err := h.files.Save(kind, fileHeader.Filename, src)
	if err != nil {
		return core.NewInternalError("failed to store uploaded file", err)
	}

	observability.UploadsTotal.WithLabelValues(stored.Kind).Inc()
	slog.Info("upload stored",
		"requestId", core.RequestIDFrom(c.Request().Context()),
		"fileId", stored.ID,
		"kind", stored.Kind,
		"name", stored.OriginalName,
		"size", stored.Size)

	return c.JSON(http.StatusOK, &core.UploadResponse{
		FileID:       stored.ID,
		Kind:         stored.Kind,
		OriginalName: stored.OriginalName,
	})
}

// Answer handles POST /api/ia
func (h *Handler) Answer(c echo.Context) error {
	var req core.AnswerRequest
	if err := c.Bind(&req); err != nil {
		return core.NewValidationError("invalid request body: " + err.Error())
	}

	start := time.Now()
	text, err := h.answers.Answer(c.Request().Context(), &req)
	if err != nil {
		observability.AnswersTotal.WithLabelValues("error").Inc()
		return err
	}
	observability.AnswersTotal.WithLabelValues("ok").Inc()
	observability.AnswerDuration.Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, &core.AnswerResponse{Answer: text})
}

// ListFiles handles GET /api/files, newest upload first.
func (h *Handler) ListFiles(c echo.Context) error {
	return c.JSON(http.StatusOK, h.files.List())
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
