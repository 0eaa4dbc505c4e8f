// Package sniffer detects the shape of delimited statement files: the field
// delimiter, the header row, and a column mapping chosen by matching the
// header against known bank fingerprints.
package sniffer

import (
	"encoding/csv"
	"errors"
	"strings"
	"unicode/utf8"
)

const headerSearchLines = 10

// Common statement header keywords used to recognize the header row.
var headerKeywords = []string{
	"date", "description", "amount", "debit", "credit", "balance",
	"merchant", "payee", "memo", "details", "withdrawal", "deposit", "type",
}

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrNoHeadersFound = errors.New("could not find data headers")
)

// FileShape holds what was detected about a delimited file.
type FileShape struct {
	Delimiter rune
	SkipLines int // metadata lines before the header row
	Headers   []string
}

// ColumnMapping maps header columns to transaction field roles.
// A value of -1 means the role is absent.
type ColumnMapping struct {
	DateCol   int
	DescCol   int
	AmountCol int
	DebitCol  int
	CreditCol int
	TypeCol   int
}

// fingerprint describes one known statement layout. A fingerprint matches
// when every one of its required header phrases appears in the header row.
type fingerprint struct {
	name     string
	required []string
}

// Ordered most-specific first; the first match wins.
var fingerprints = []fingerprint{
	{name: "card-posted", required: []string{"transaction date", "post date", "description"}},
	{name: "card-simple", required: []string{"transaction date", "description", "amount"}},
	{name: "bank-posting", required: []string{"posting date", "description", "amount"}},
	{name: "bank-split", required: []string{"date", "description", "withdrawal", "deposit"}},
	{name: "bank-double-entry", required: []string{"date", "description", "debit", "credit"}},
	{name: "generic", required: []string{"date", "description", "amount"}},
}

// Detect analyzes a delimited file and returns its shape. The header row is
// located by keyword scoring within the first lines, tolerating bank exports
// that prepend metadata above the real header.
func Detect(data []byte) (*FileShape, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")
	headerIdx := -1
	var delimiter rune
	bestScore := 0

	for i, line := range lines {
		if i >= headerSearchLines {
			break
		}
		line = cleanLine(line, i == 0)
		if line == "" {
			continue
		}

		d, cols := detectDelimiter(line)
		if cols < 1 {
			continue
		}

		lower := strings.ToLower(line)
		matches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches < 2 {
			continue
		}

		score := matches*10 + cols
		if score > bestScore {
			bestScore = score
			headerIdx = i
			delimiter = d
		}
	}

	if headerIdx < 0 {
		return nil, ErrNoHeadersFound
	}

	reader := csv.NewReader(strings.NewReader(cleanLine(lines[headerIdx], headerIdx == 0)))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	return &FileShape{
		Delimiter: delimiter,
		SkipLines: headerIdx,
		Headers:   headers,
	}, nil
}

// MatchFingerprint checks the headers against the known layouts and, when one
// matches, resolves a column mapping for it. The bool reports whether any
// fingerprint matched; callers fall back to the default mapping otherwise.
func MatchFingerprint(headers []string) (ColumnMapping, bool) {
	joined := strings.ToLower(strings.Join(headers, " | "))

	for _, fp := range fingerprints {
		matched := true
		for _, req := range fp.required {
			if !strings.Contains(joined, req) {
				matched = false
				break
			}
		}
		if matched {
			return MapColumns(headers), true
		}
	}
	return ColumnMapping{DateCol: -1, DescCol: -1, AmountCol: -1, DebitCol: -1, CreditCol: -1, TypeCol: -1}, false
}

// MapColumns resolves header columns to field roles by fuzzy header matching.
func MapColumns(headers []string) ColumnMapping {
	m := ColumnMapping{DateCol: -1, DescCol: -1, AmountCol: -1, DebitCol: -1, CreditCol: -1, TypeCol: -1}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		switch {
		case m.DateCol == -1 && strings.Contains(h, "date"):
			// Prefer "transaction date" over "post date" when both exist.
			m.DateCol = i
		case m.DateCol >= 0 && strings.Contains(h, "transaction date"):
			m.DateCol = i
		}

		if m.DescCol == -1 && (strings.Contains(h, "descri") || strings.Contains(h, "merchant") ||
			strings.Contains(h, "payee") || strings.Contains(h, "details") || strings.Contains(h, "memo")) {
			m.DescCol = i
		}
		if m.DebitCol == -1 && (strings.Contains(h, "debit") || strings.Contains(h, "withdrawal")) {
			m.DebitCol = i
		}
		if m.CreditCol == -1 && (strings.Contains(h, "credit") || strings.Contains(h, "deposit")) {
			m.CreditCol = i
		}
		if m.AmountCol == -1 && (h == "amount" || strings.Contains(h, "amount")) {
			m.AmountCol = i
		}
		if m.TypeCol == -1 && (h == "type" || h == "transaction type") {
			m.TypeCol = i
		}
	}
	return m
}

// NormalizeBytes strips a UTF-8 BOM and falls back to latin-1 decoding for
// files that are not valid UTF-8.
func NormalizeBytes(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return data
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return []byte(string(runes))
}

func cleanLine(line string, firstLine bool) string {
	line = strings.TrimRight(line, "\r")
	if firstLine {
		line = strings.TrimPrefix(line, "\uFEFF")
	}
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	best := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best, bestCount
}
