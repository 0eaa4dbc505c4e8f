package parser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// parseExchange handles OFX/QFX statements. The transaction list is
// structured, so each entry maps 1:1 to a ParsedTransaction with a fixed
// high confidence and the bank-supplied FITID as external id.
func (p *Parser) parseExchange(data []byte) (*ParseResult, error) {
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse ofx document: %w", err)
	}

	result := &ParseResult{}
	messages := append(resp.Bank, resp.CreditCard...)
	for _, msg := range messages {
		switch stmt := msg.(type) {
		case *ofxgo.StatementResponse:
			if stmt.BankTranList != nil {
				p.appendExchangeTransactions(result, stmt.BankTranList.Transactions)
			}
		case *ofxgo.CCStatementResponse:
			if stmt.BankTranList != nil {
				p.appendExchangeTransactions(result, stmt.BankTranList.Transactions)
			}
		}
	}
	return result, nil
}

func (p *Parser) appendExchangeTransactions(result *ParseResult, txns []ofxgo.Transaction) {
	for _, tx := range txns {
		result.TotalRows++

		amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
		if err != nil {
			result.SkippedRows++
			continue
		}

		// Narrative is NAME, falling back to MEMO.
		desc := strings.TrimSpace(string(tx.Name))
		if desc == "" {
			desc = strings.TrimSpace(string(tx.Memo))
		}
		if desc == "" {
			result.SkippedRows++
			continue
		}

		posted := tx.DtPosted.Time
		result.Transactions = append(result.Transactions, ParsedTransaction{
			Date:         time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC),
			Description:  desc,
			Amount:       amount,
			SourceFormat: FormatFinancialExchange,
			Confidence:   confidenceExchange,
			ExternalID:   string(tx.FiTID),
			RawPayload:   fmt.Sprintf("%s %s %s", tx.FiTID, desc, tx.TrnAmt.FloatString(2)),
		})
	}
}
