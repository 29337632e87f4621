// Package main provides a CLI tool to record real Gemini responses as test
// fixtures.
// Usage:
//
//	GEMINI_API_KEY=xxx go run ./cmd/recordapi \
//	  -output=internal/providers/gemini/testdata/generate_content.json
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"sheetpilot/internal/providers/gemini"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

func main() {
	model := flag.String("model", gemini.DefaultModel, "Model to record against")
	prompt := flag.String("prompt", "Say 'Hello, World!' and nothing else.", "Prompt to send")
	output := flag.String("output", "", "Output file path (required)")
	flag.Parse()

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: -output flag is required")
		flag.Usage()
		os.Exit(1)
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable is required")
		os.Exit(1)
	}

	reqBody := map[string]any{
		"contents": []map[string]any{
			{
				"role":  "user",
				"parts": []map[string]string{{"text": *prompt}},
			},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": 50,
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling request body: %v\n", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", defaultBaseURL, *model, apiKey)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 60 * time.Second}
	fmt.Printf("Sending request to %s model %s...\n", defaultBaseURL, *model)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading response: %v\n", err)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error: status %d\n%s\n", resp.StatusCode, respBody)
		os.Exit(1)
	}

	// Pretty-print so fixture diffs stay readable
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		pretty.Write(respBody)
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, pretty.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Recorded %d bytes to %s\n", pretty.Len(), *output)
}
