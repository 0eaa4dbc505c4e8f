// Package parser turns uploaded statement files into loosely-typed parsed
// transactions. One adapter per source format: delimited text (CSV/TXT),
// OFX/QFX, spreadsheets, and a fallback document-understanding adapter for
// everything else.
package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/sniffer"
)

// Per-adapter extraction confidence. Structured sources score higher than
// heuristic ones.
const (
	confidenceFingerprint = 0.9
	confidenceGenericCSV  = 0.75
	confidenceSpreadsheet = 0.8
	confidenceExchange    = 0.95
	confidenceDocDefault  = 0.3
)

// Parser dispatches a file to the right format adapter by extension.
type Parser struct {
	extractor Extractor // optional document-understanding fallback
	logger    *slog.Logger
}

// New creates a parser without a document-understanding fallback; files with
// unknown extensions fail with UnsupportedFormatError.
func New(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// WithDocumentExtractor enables the fallback adapter for files no structured
// adapter understands.
func (p *Parser) WithDocumentExtractor(extractor Extractor) *Parser {
	p.extractor = extractor
	return p
}

// Parse selects an adapter by file extension (case-insensitive) and runs it.
// It fails with UnsupportedFormatError when nothing matches and no fallback
// is configured, or MalformedInputError when the chosen adapter cannot
// extract a single transaction.
func (p *Parser) Parse(ctx context.Context, data []byte, fileName, mimeType string) (*ParseResult, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	var (
		result *ParseResult
		err    error
	)
	switch ext {
	case ".csv", ".txt":
		result, err = p.parseDelimited(data)
	case ".ofx", ".qfx":
		result, err = p.parseExchange(data)
	case ".xls", ".xlsx":
		result, err = p.parseSpreadsheet(data)
	default:
		if p.extractor == nil {
			return nil, &UnsupportedFormatError{FileName: fileName}
		}
		result, err = p.parseDocument(ctx, data, mimeType)
	}

	if err != nil {
		return nil, &MalformedInputError{FileName: fileName, Reason: "adapter failed", Err: err}
	}
	if len(result.Transactions) == 0 {
		return nil, &MalformedInputError{FileName: fileName, Reason: "no transactions extracted"}
	}

	p.logger.Info("parsed statement",
		"file", fileName,
		"format", result.Transactions[0].SourceFormat,
		"rows", result.TotalRows,
		"parsed", len(result.Transactions),
		"skipped", result.SkippedRows,
	)
	return result, nil
}

// statementRow supports the default column mapping: gocsv matches fields by
// header name, so one struct covers the common bank export vocabularies.
type statementRow struct {
	Date     string `csv:"date"`
	TxDate   string `csv:"transaction date"`
	PostDate string `csv:"posting date"`

	Description string `csv:"description"`
	Payee       string `csv:"payee"`
	Memo        string `csv:"memo"`
	Details     string `csv:"details"`

	Amount string `csv:"amount"`

	Debit      string `csv:"debit"`
	Withdrawal string `csv:"withdrawal"`
	Credit     string `csv:"credit"`
	Deposit    string `csv:"deposit"`

	Type string `csv:"type"`
}

// parseDelimited handles CSV and TXT statements. The sniffer fingerprints the
// header against known bank layouts to pick a column mapping and skip count;
// when no fingerprint matches, the default struct-tag mapping is used.
func (p *Parser) parseDelimited(data []byte) (*ParseResult, error) {
	data = sniffer.NormalizeBytes(data)

	shape, err := sniffer.Detect(data)
	if err != nil {
		return nil, fmt.Errorf("detect file shape: %w", err)
	}

	if mapping, ok := sniffer.MatchFingerprint(shape.Headers); ok {
		return p.parseWithMapping(data, shape, mapping, confidenceFingerprint)
	}
	return p.parseWithDefaults(data, shape)
}

// parseWithMapping reads rows by column index using a fingerprinted mapping.
func (p *Parser) parseWithMapping(data []byte, shape *sniffer.FileShape, mapping sniffer.ColumnMapping, confidence float64) (*ParseResult, error) {
	reader := csv.NewReader(strings.NewReader(skipLines(string(data), shape.SkipLines)))
	reader.Comma = shape.Delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Header row.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	result := &ParseResult{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A malformed row is dropped like any other bad row; the rest
			// of the file still parses.
			result.TotalRows++
			result.SkippedRows++
			continue
		}
		result.TotalRows++

		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		tx, ok := buildRow(
			get(mapping.DateCol),
			get(mapping.DescCol),
			get(mapping.AmountCol),
			get(mapping.DebitCol),
			get(mapping.CreditCol),
			get(mapping.TypeCol),
			strings.Join(record, string(shape.Delimiter)),
			confidence,
		)
		if !ok {
			result.SkippedRows++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

// parseWithDefaults unmarshals rows by header name through gocsv.
func (p *Parser) parseWithDefaults(data []byte, shape *sniffer.FileShape) (*ParseResult, error) {
	body := skipLines(string(data), shape.SkipLines)
	body = lowercaseHeaderLine(body)

	reader := csv.NewReader(strings.NewReader(body))
	reader.Comma = shape.Delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []statementRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal rows: %w", err)
	}

	result := &ParseResult{TotalRows: len(rows)}
	for _, row := range rows {
		tx, ok := buildRow(
			coalesce(row.Date, row.TxDate, row.PostDate),
			coalesce(row.Description, row.Payee, row.Details, row.Memo),
			row.Amount,
			coalesce(row.Debit, row.Withdrawal),
			coalesce(row.Credit, row.Deposit),
			row.Type,
			"",
			confidenceGenericCSV,
		)
		if !ok {
			result.SkippedRows++
			continue
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}

// buildRow validates one delimited/spreadsheet row. A row without a valid
// date, non-empty description, and parseable amount is dropped, never an
// error: a single bad row must not abort the file.
func buildRow(dateStr, desc, amountStr, debitStr, creditStr, typeStr, rawPayload string, confidence float64) (ParsedTransaction, bool) {
	date, err := ParseDate(dateStr)
	if err != nil {
		return ParsedTransaction{}, false
	}
	if strings.TrimSpace(desc) == "" {
		return ParsedTransaction{}, false
	}

	amount, err := ParseAmount(amountStr)
	if err != nil {
		// Split debit/credit columns: debit is money out.
		if debit, derr := ParseAmount(debitStr); derr == nil && !debit.IsZero() {
			amount = debit.Abs().Neg()
		} else if credit, cerr := ParseAmount(creditStr); cerr == nil && !credit.IsZero() {
			amount = credit.Abs()
		} else {
			return ParsedTransaction{}, false
		}
	} else {
		// Exports that pair an unsigned amount with a type marker carry the
		// sign in the marker, not the amount.
		switch typeSign(typeStr) {
		case -1:
			amount = amount.Abs().Neg()
		case 1:
			amount = amount.Abs()
		}
	}

	if rawPayload == "" {
		rawPayload = dateStr + "," + desc + "," + amountStr
	}
	return ParsedTransaction{
		Date:         date,
		Description:  strings.TrimSpace(desc),
		Amount:       amount,
		SourceFormat: FormatDelimitedText,
		Confidence:   confidence,
		RawPayload:   rawPayload,
	}, true
}

// typeSign interprets a transaction-type marker. Zero means the marker is
// absent or unrecognized and the amount's own sign stands.
func typeSign(t string) int {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "debit", "dr", "withdrawal", "purchase":
		return -1
	case "credit", "cr", "deposit":
		return 1
	}
	return 0
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func skipLines(s string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			return ""
		}
		s = s[idx+1:]
	}
	return s
}

func lowercaseHeaderLine(s string) string {
	idx := strings.IndexByte(s, '\n')
	if idx < 0 {
		return strings.ToLower(s)
	}
	return strings.ToLower(s[:idx]) + s[idx:]
}
