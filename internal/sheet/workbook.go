package sheet

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// LoadRows opens the workbook at path and returns the chosen sheet's name
// together with its rows in row-major order, blank cells as empty strings.
// The preferred sheet name is used when it exists in the workbook; otherwise
// the first sheet wins. A workbook that cannot be parsed is an error for the
// caller, never a silent empty result.
func LoadRows(path, preferred string) (string, [][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, errors.New("workbook has no sheets")
	}

	name := sheets[0]
	if preferred != "" {
		for _, s := range sheets {
			if s == preferred {
				name = s
				break
			}
		}
	}

	rows, err := wb.GetRows(name)
	if err != nil {
		return "", nil, fmt.Errorf("reading sheet %q: %w", name, err)
	}

	return name, rows, nil
}
