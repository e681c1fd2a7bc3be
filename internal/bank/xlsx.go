package bank

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Spreadsheet layout for XLSX uploads, one question per row:
//
//	A id | B question | C..F options | G correct option (1-4) |
//	H difficulty | I category | J keywords (comma separated) | K seconds
//
// Row 1 is a header and is skipped.
const xlsxStartRow = 2

// ParseXLSX reads a question bank from a spreadsheet. bankID and title come
// from the caller (upload form), not the sheet.
func ParseXLSX(r io.Reader, bankID, title string) (Bank, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Bank{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Bank{}, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Bank{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	b := Bank{ID: bankID, Title: title}
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < xlsxStartRow {
			continue
		}
		if len(row) == 0 || strings.TrimSpace(cell(row, 0)) == "" {
			continue
		}
		q, err := questionFromRow(row)
		if err != nil {
			return Bank{}, fmt.Errorf("row %d: %w", rowNum, err)
		}
		b.Questions = append(b.Questions, q)
	}
	if err := b.Validate(); err != nil {
		return Bank{}, err
	}
	return b, nil
}

func questionFromRow(row []string) (Question, error) {
	q := Question{
		ID:   strings.TrimSpace(cell(row, 0)),
		Text: strings.TrimSpace(cell(row, 1)),
	}
	for i := 0; i < NumOptions; i++ {
		q.Options = append(q.Options, strings.TrimSpace(cell(row, 2+i)))
	}
	correct, err := strconv.Atoi(strings.TrimSpace(cell(row, 6)))
	if err != nil {
		return Question{}, fmt.Errorf("bad correct option %q", cell(row, 6))
	}
	// The sheet is 1-based for humans.
	q.CorrectOption = correct - 1

	q.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(cell(row, 7))))
	if q.Difficulty == "" {
		q.Difficulty = DifficultyMedium
	}
	q.Category = strings.TrimSpace(cell(row, 8))
	if q.Category == "" {
		q.Category = "general"
	}
	if kw := strings.TrimSpace(cell(row, 9)); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				q.Keywords = append(q.Keywords, k)
			}
		}
	}
	q.EstimatedTimeSeconds = DefaultQuestionSeconds
	if sec := strings.TrimSpace(cell(row, 10)); sec != "" {
		n, err := strconv.Atoi(sec)
		if err != nil {
			return Question{}, fmt.Errorf("bad seconds %q", sec)
		}
		q.EstimatedTimeSeconds = n
	}
	return q, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
