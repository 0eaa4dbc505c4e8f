package parser

import (
	"context"
	"fmt"
	"strings"
)

// Entity is one extracted item from the document-understanding service.
type Entity struct {
	Type       string
	Confidence float64
	Fields     map[string]string
}

// Extractor is the external document-understanding capability. Its absence
// degrades unknown formats to UnsupportedFormatError rather than being a
// hard dependency.
type Extractor interface {
	ExtractEntities(ctx context.Context, data []byte, mimeType string) ([]Entity, error)
}

// parseDocument handles any file no structured adapter claimed, by asking
// the extractor for transaction entities. Confidence is the entity's own
// extraction confidence, with a low default when it reports none.
func (p *Parser) parseDocument(ctx context.Context, data []byte, mimeType string) (*ParseResult, error) {
	entities, err := p.extractor.ExtractEntities(ctx, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extract entities: %w", err)
	}

	result := &ParseResult{}
	for _, entity := range entities {
		if !strings.EqualFold(entity.Type, "transaction") {
			continue
		}
		result.TotalRows++

		tx, ok := buildRow(
			entity.Fields["date"],
			entity.Fields["description"],
			entity.Fields["amount"],
			"", "",
			entity.Fields["type"],
			fmt.Sprintf("%v", entity.Fields),
			confidenceDocDefault,
		)
		if !ok {
			result.SkippedRows++
			continue
		}
		tx.SourceFormat = FormatDocument
		if entity.Confidence > 0 {
			tx.Confidence = entity.Confidence
		}
		result.Transactions = append(result.Transactions, tx)
	}
	return result, nil
}
