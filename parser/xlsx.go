package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXParser flattens spreadsheet policy schedules to text, one sheet after
// another, rows joined with tabs so the extractor sees schedule tables inline.
type XLSXParser struct{}

func (p *XLSXParser) SupportedFormats() []string { return []string{"xlsx"} }

func (p *XLSXParser) Parse(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var sb strings.Builder

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		sb.WriteString(sheet)
		sb.WriteString("\n")
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no data found in XLSX %s", path)
	}

	return sb.String(), nil
}
