package parser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ofxFixture = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240201120000
<LANGUAGE>ENG
<FI>
<ORG>TESTBANK
<FID>1000
</FI>
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>2011
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101000000
<DTEND>20240131235959
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240105120000
<TRNAMT>-125.50
<FITID>TXN001
<NAME>HARDWARE STORE
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000
<TRNAMT>-45.99
<FITID>TXN002
<MEMO>RECURRING SUBSCRIPTION
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000
<TRNAMT>500.00
<FITID>TXN003
<NAME>PAYMENT RECEIVED
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>328.51
<DTASOF>20240131000000
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParser_Parse_Exchange(t *testing.T) {
	ctx := context.Background()

	t.Run("parses credit card statement", func(t *testing.T) {
		result, err := New(testLogger()).Parse(ctx, []byte(ofxFixture), "statement.qfx", "application/x-ofx")

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalRows)
		require.Len(t, result.Transactions, 3)

		tx := result.Transactions[0]
		assert.Equal(t, "HARDWARE STORE", tx.Description)
		assert.Equal(t, "-125.5", tx.Amount.String())
		assert.Equal(t, "TXN001", tx.ExternalID)
		assert.Equal(t, FormatFinancialExchange, tx.SourceFormat)
		assert.InDelta(t, 0.95, tx.Confidence, 1e-9)
		assert.True(t, tx.Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("falls back to memo when name is absent", func(t *testing.T) {
		result, err := New(testLogger()).Parse(ctx, []byte(ofxFixture), "statement.ofx", "application/x-ofx")

		require.NoError(t, err)
		assert.Equal(t, "RECURRING SUBSCRIPTION", result.Transactions[1].Description)
	})

	t.Run("rejects non-ofx payloads", func(t *testing.T) {
		_, err := New(testLogger()).Parse(ctx, []byte("definitely not ofx"), "broken.ofx", "application/x-ofx")

		var malformed *MalformedInputError
		require.ErrorAs(t, err, &malformed)
	})
}
