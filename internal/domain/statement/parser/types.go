package parser

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SourceFormat tags which adapter produced a parsed transaction.
type SourceFormat string

const (
	FormatDelimitedText     SourceFormat = "delimited-text"
	FormatFinancialExchange SourceFormat = "financial-exchange"
	FormatSpreadsheet       SourceFormat = "spreadsheet"
	FormatDocument          SourceFormat = "document-understanding"
)

// ParsedTransaction is the loosely-typed adapter output, consumed immediately
// by the normalizer. The amount sign convention is still source-dependent
// here; only the normalizer makes it canonical.
type ParsedTransaction struct {
	Date         time.Time
	Description  string
	Amount       decimal.Decimal
	SourceFormat SourceFormat
	Confidence   float64 // 0-1, the adapter's certainty in its own extraction
	ExternalID   string  // source-supplied transaction id, when the format has one
	RawPayload   string  // opaque original record, kept for audit
}

// ParseResult accumulates one adapter run. Rows that fail validation are
// silently dropped and only counted, never surfaced as errors.
type ParseResult struct {
	Transactions []ParsedTransaction
	TotalRows    int
	SkippedRows  int
}

// UnsupportedFormatError indicates no adapter matches the file extension and
// no fallback document extractor is configured. File-level, fatal.
type UnsupportedFormatError struct {
	FileName string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported statement format: %s", e.FileName)
}

// MalformedInputError indicates the chosen adapter could not extract a single
// usable transaction from the file. File-level, fatal.
type MalformedInputError struct {
	FileName string
	Reason   string
	Err      error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed statement %s: %s: %v", e.FileName, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed statement %s: %s", e.FileName, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }
