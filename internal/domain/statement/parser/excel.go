package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/sniffer"
)

const headerScanRows = 5

var headerCellPattern = regexp.MustCompile(`(?i)date|description|amount|transaction`)

// parseSpreadsheet handles XLS/XLSX statements. The header row is located by
// scanning the first rows for a cell that looks like a statement header;
// row 0 is assumed when nothing matches. Row validation and the silent-drop
// policy are shared with the delimited adapter.
func (p *Parser) parseSpreadsheet(data []byte) (*ParseResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &ParseResult{}, nil
	}

	headerIdx := findSpreadsheetHeader(rows)
	mapping := sniffer.MapColumns(rows[headerIdx])

	result := &ParseResult{}
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		result.TotalRows++

		get := func(idx int) string {
			if idx < 0 || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		tx, ok := buildRow(
			get(mapping.DateCol),
			get(mapping.DescCol),
			get(mapping.AmountCol),
			get(mapping.DebitCol),
			get(mapping.CreditCol),
			get(mapping.TypeCol),
			strings.Join(row, "\t"),
			confidenceSpreadsheet,
		)
		if !ok {
			result.SkippedRows++
			continue
		}
		tx.SourceFormat = FormatSpreadsheet
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

func findSpreadsheetHeader(rows [][]string) int {
	limit := headerScanRows
	if len(rows) < limit {
		limit = len(rows)
	}
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if headerCellPattern.MatchString(cell) {
				return i
			}
		}
	}
	return 0
}
