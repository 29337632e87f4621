package core

import (
	"strings"
	"time"
)

// StoredFile describes one uploaded spreadsheet tracked for the life of the process.
type StoredFile struct {
	ID           string    `json:"fileId"`
	Path         string    `json:"-"`
	Kind         string    `json:"kind"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	FileID       string `json:"fileId"`
	Kind         string `json:"kind"`
	OriginalName string `json:"originalName"`
}

// MatchedRow is a single filtered spreadsheet row. RowIndex is the 1-based
// position in the source sheet so answers stay traceable to the file.
type MatchedRow struct {
	RowIndex int      `json:"rowIndex"`
	Values   []string `json:"values"`
}

// FilterResult holds the outcome of filtering one sheet.
type FilterResult struct {
	SheetName string       `json:"sheetName"`
	Headers   []string     `json:"headers"`
	Rows      []MatchedRow `json:"rows"`
}

// MatchCount returns the number of matched rows.
func (r *FilterResult) MatchCount() int {
	return len(r.Rows)
}

// AnswerRequest represents the incoming question-answering request.
// Files maps caller-chosen labels to previously issued file IDs.
type AnswerRequest struct {
	Section  string            `json:"section"`
	Question string            `json:"question"`
	Context  RequestContext    `json:"context"`
	Files    map[string]string `json:"files"`
}

// AnswerResponse represents the question-answering response.
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// Context keys with dedicated meaning. Everything else in the context
// object is caller-defined and passed through into prompt composition.
const (
	contextKeyAdSet  = "adset"
	contextKeySheet  = "sheet"
	contextKeyTokens = "tokens"
)

// RequestContext is the semi-structured context object of an AnswerRequest.
// Known fields are extracted through typed accessors; unknown fields are
// preserved and reachable via Extra.
type RequestContext map[string]any

// AdSet returns the trimmed search token, or "" when absent or not a string.
func (c RequestContext) AdSet() string {
	if v, ok := c[contextKeyAdSet].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Sheet returns the caller-preferred sheet name, or "" when absent.
func (c RequestContext) Sheet() string {
	if v, ok := c[contextKeySheet].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Tokens returns the auxiliary string tokens, skipping non-string entries.
func (c RequestContext) Tokens() []string {
	raw, ok := c[contextKeyTokens].([]any)
	if !ok {
		return nil
	}
	tokens := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// Extra returns the caller-supplied fields that have no dedicated accessor.
func (c RequestContext) Extra() map[string]any {
	extra := make(map[string]any)
	for k, v := range c {
		switch k {
		case contextKeyAdSet, contextKeySheet, contextKeyTokens:
			continue
		}
		extra[k] = v
	}
	return extra
}

// GenerateRequest is a single prompt sent to the answering service.
type GenerateRequest struct {
	SystemInstruction string
	Prompt            string
	MaxOutputTokens   int
}

// GenerateResponse is the answering service's reply.
type GenerateResponse struct {
	Text  string
	Usage Usage
}

// Usage represents token usage reported by the answering service.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}
