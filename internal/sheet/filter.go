// Package sheet locates the header row of an ad-delivery spreadsheet and
// filters its data rows by a caller-supplied search token. The functions here
// are pure (rows in, result out) so they can be tested without workbook I/O.
package sheet

import (
	"strings"

	"sheetpilot/internal/core"
)

const (
	// headerScanLimit bounds how many leading rows are inspected for a header.
	headerScanLimit = 15

	// maxColumns bounds how many columns of any row survive into results.
	maxColumns = 80

	// DefaultMaxRows is the matched-row cap used when none is configured.
	DefaultMaxRows = 80
)

// headerMarkers are the substrings that identify a header row in delivery
// exports. Matching is case-insensitive over the space-joined row text.
var headerMarkers = []string{
	"adset",
	"ad set",
	"ad group",
	"campaign",
	"impression",
	"click",
	"spend",
	"reach",
	"result",
	"cost",
}

// DetectHeader returns the index of the first row within the scan limit whose
// text contains a known header marker, or 0 when none does.
func DetectHeader(rows [][]string) int {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for i := 0; i < limit; i++ {
		text := strings.ToLower(strings.Join(rows[i], " "))
		for _, marker := range headerMarkers {
			if strings.Contains(text, marker) {
				return i
			}
		}
	}

	return 0
}

// Filter scans the rows after the detected header and returns those whose
// text contains the token, case-insensitively, capped at maxRows matches.
// Rows keep their 1-based position in the source sheet. A blank token
// matches nothing; callers are expected to validate upstream, this is the
// backstop.
func Filter(rows [][]string, token string, maxRows int) core.FilterResult {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	headerIdx := DetectHeader(rows)

	result := core.FilterResult{Headers: []string{}, Rows: []core.MatchedRow{}}
	if headerIdx < len(rows) {
		result.Headers = truncateRow(rows[headerIdx])
	}

	needle := strings.ToLower(strings.TrimSpace(token))
	if needle == "" {
		return result
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		values := truncateRow(rows[i])
		text := strings.ToLower(strings.Join(values, " "))
		if !strings.Contains(text, needle) {
			continue
		}

		result.Rows = append(result.Rows, core.MatchedRow{
			RowIndex: i + 1,
			Values:   values,
		})
		if len(result.Rows) >= maxRows {
			break
		}
	}

	return result
}

func truncateRow(row []string) []string {
	if len(row) > maxColumns {
		return row[:maxColumns]
	}
	if row == nil {
		return []string{}
	}
	return row
}
