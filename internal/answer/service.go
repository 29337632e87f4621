// Package answer resolves file references, filters each referenced
// spreadsheet and forwards one composed prompt to the answering service.
package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"sheetpilot/internal/cache"
	"sheetpilot/internal/core"
	"sheetpilot/internal/observability"
	"sheetpilot/internal/sheet"
)

// systemInstruction frames every call. The wording matters: it pins the
// model to the datasets and makes it name gaps instead of guessing.
const systemInstruction = "You are a data analyst for advertising delivery reports. " +
	"Respond factually using only the provided datasets. " +
	"If the data is insufficient to answer, say so and name the missing columns or sheets."

// DefaultMaxOutputTokens bounds the answer length when none is configured.
const DefaultMaxOutputTokens = 2048

// DatasetSummary bundles one file's filter output with its provenance for
// prompt composition.
type DatasetSummary struct {
	Label        string            `json:"label"`
	Kind         string            `json:"kind"`
	OriginalName string            `json:"originalName"`
	SheetName    string            `json:"sheetName"`
	MatchCount   int               `json:"matchCount"`
	Headers      []string          `json:"headers"`
	Rows         []core.MatchedRow `json:"rows"`
}

// Config tunes the service.
type Config struct {
	// MaxRows is the matched-row cap shared by every file in a request.
	MaxRows int

	// MaxOutputTokens bounds the generated answer.
	MaxOutputTokens int
}

// Service implements the answer flow: validate, resolve, filter, compose, call.
type Service struct {
	files           core.FileStore
	generator       core.Generator
	cache           cache.Cache
	maxRows         int
	maxOutputTokens int
}

// New creates the answer service. The cache may be nil, in which case every
// request filters from disk.
func New(files core.FileStore, generator core.Generator, c cache.Cache, cfg Config) *Service {
	maxRows := cfg.MaxRows
	if maxRows <= 0 {
		maxRows = sheet.DefaultMaxRows
	}
	maxOutputTokens := cfg.MaxOutputTokens
	if maxOutputTokens <= 0 {
		maxOutputTokens = DefaultMaxOutputTokens
	}

	return &Service{
		files:           files,
		generator:       generator,
		cache:           c,
		maxRows:         maxRows,
		maxOutputTokens: maxOutputTokens,
	}
}

// Answer validates the request, builds the dataset summaries and returns the
// generated answer text. Any failure after validation is all-or-nothing: no
// partial answer is ever returned.
func (s *Service) Answer(ctx context.Context, req *core.AnswerRequest) (string, error) {
	if strings.TrimSpace(req.Section) == "" {
		return "", core.NewValidationError("missing section field")
	}
	if strings.TrimSpace(req.Question) == "" {
		return "", core.NewValidationError("missing question field")
	}
	token := req.Context.AdSet()
	if token == "" {
		return "", core.NewValidationError("missing adset in context")
	}

	summaries, err := s.collectSummaries(ctx, req, token)
	if err != nil {
		return "", err
	}

	resp, err := s.generator.Generate(ctx, &core.GenerateRequest{
		SystemInstruction: systemInstruction,
		Prompt:            buildPrompt(req, token, summaries),
		MaxOutputTokens:   s.maxOutputTokens,
	})
	if err != nil {
		return "", err
	}

	observability.TokensTotal.WithLabelValues("prompt").Add(float64(resp.Usage.PromptTokens))
	observability.TokensTotal.WithLabelValues("completion").Add(float64(resp.Usage.CompletionTokens))

	slog.Info("answer generated",
		"requestId", core.RequestIDFrom(ctx),
		"section", req.Section,
		"datasets", len(summaries),
		"promptTokens", resp.Usage.PromptTokens,
		"completionTokens", resp.Usage.CompletionTokens,
	)

	return resp.Text, nil
}

// collectSummaries resolves the file references in label order. Unknown IDs
// are skipped without failing the request; a typo'd reference degrades the
// answer rather than erroring. Unreadable files do fail the request.
func (s *Service) collectSummaries(ctx context.Context, req *core.AnswerRequest, token string) ([]DatasetSummary, error) {
	labels := make([]string, 0, len(req.Files))
	for label := range req.Files {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	summaries := make([]DatasetSummary, 0, len(labels))
	for _, label := range labels {
		id := req.Files[label]
		stored, ok := s.files.Get(id)
		if !ok {
			slog.Warn("skipping unknown file reference",
				"requestId", core.RequestIDFrom(ctx), "label", label, "fileId", id)
			continue
		}

		result, err := s.filterFile(ctx, stored, req.Context.Sheet(), token)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, DatasetSummary{
			Label:        label,
			Kind:         stored.Kind,
			OriginalName: stored.OriginalName,
			SheetName:    result.SheetName,
			MatchCount:   result.MatchCount(),
			Headers:      result.Headers,
			Rows:         result.Rows,
		})
	}

	return summaries, nil
}

// filterFile runs one load-and-filter pass, consulting the cache first.
// Cache failures degrade to recomputation, never to request failure.
func (s *Service) filterFile(ctx context.Context, stored *core.StoredFile, preferred, token string) (*core.FilterResult, error) {
	key := cache.Key(stored.ID, preferred, token, s.maxRows)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("filter cache read failed", "error", err)
		case cached != nil:
			observability.FilterCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		}
		observability.FilterCacheLookups.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	name, rows, err := sheet.LoadRows(stored.Path, preferred)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", stored.OriginalName, err)
	}

	result := sheet.Filter(rows, token, s.maxRows)
	result.SheetName = name
	observability.FilterDuration.Observe(time.Since(start).Seconds())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, &result); err != nil {
			slog.Warn("filter cache write failed", "error", err)
		}
	}

	return &result, nil
}

// buildPrompt embeds the section, the search token, any auxiliary context
// and the serialized dataset summaries into a single prompt.
func buildPrompt(req *core.AnswerRequest, token string, summaries []DatasetSummary) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Section: %s", req.Section))
	parts = append(parts, fmt.Sprintf("AdSet: %s", token))

	if tokens := req.Context.Tokens(); len(tokens) > 0 {
		parts = append(parts, fmt.Sprintf("Additional tokens: %s", strings.Join(tokens, ", ")))
	}

	if extra := req.Context.Extra(); len(extra) > 0 {
		extraJSON, _ := json.MarshalIndent(extra, "", "  ")
		parts = append(parts, "Additional context:")
		parts = append(parts, string(extraJSON))
	}

	parts = append(parts, fmt.Sprintf("\nQuestion: %s", req.Question))

	if len(summaries) > 0 {
		data, _ := json.MarshalIndent(summaries, "", "  ")
		parts = append(parts, "\nDatasets:")
		parts = append(parts, string(data))
	} else {
		parts = append(parts, "\nDatasets: none resolved.")
	}

	return strings.Join(parts, "\n")
}
