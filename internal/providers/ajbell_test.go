package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ajBellPrimary = `AJ Bell Securities Limited
Investment valuation and performance report
Prepared for Mr John Smith
1 October 2024 to 31 December 2024
Account SCC462917

ISA - Performance summary
Period Total Change (£) Closing value
234.56 £15,234.56 12.5%
Cash in £2,000.00

ISA - Holdings
Stock Book cost (£) Units Value (£)
Total - 13,500.00 - 15,234.56
`

const ajBellFallback = `AJ Bell Youinvest quarterly statement
Mrs Jane Doe
10 High Street

ISA - Performance summary
Combined value £9,876.54 3.2% (annualised)
Cash in £500.00

ISA - Performance Analysis
Time-weighted return
3.2% over the period
`

const ajBellNoISA = `AJ Bell annual charges summary
Prepared for Ms Amy Pond
14 February 2025
Your reference SCC100200
No performance data is included in this document.
`

func TestExtractAJBell_PrimaryLayout(t *testing.T) {
	res := ExtractAJBell(ajBellPrimary)

	assert.Equal(t, "AJ Bell", res.Provider)
	assert.Equal(t, "Mr John Smith", res.ClientName)
	require.Len(t, res.Accounts, 1)

	acc := res.Accounts[0]
	assert.Equal(t, "ISA", acc.Type)
	assert.Equal(t, "AJ Bell", acc.Provider)
	assert.Equal(t, "SCC462917", acc.AccountNumber)
	assert.Equal(t, "15234.56", acc.Value.String())
	assert.Equal(t, "2000", acc.Contributions.String())
	assert.Equal(t, "234.56", acc.Return.String())
	assert.InDelta(t, 12.5, acc.Performance, 1e-9)

	assert.Equal(t, "15234.56", res.TotalValue.String())
	assert.InDelta(t, 12.5, res.Performance["oneYearReturn"], 1e-9)
	assert.Empty(t, res.Error)
}

func TestExtractAJBell_FallbackLayout(t *testing.T) {
	// No holdings total row and no percentage at a line end inside the
	// summary block, so the value and performance both come from their
	// fallback patterns.
	res := ExtractAJBell(ajBellFallback)

	assert.Equal(t, "Mrs Jane Doe", res.ClientName)
	require.Len(t, res.Accounts, 1)

	acc := res.Accounts[0]
	assert.Empty(t, acc.AccountNumber)
	assert.Equal(t, "9876.54", acc.Value.String())
	assert.Equal(t, "500", acc.Contributions.String())
	assert.True(t, acc.Return.IsZero())
	assert.InDelta(t, 3.2, acc.Performance, 1e-9)

	assert.Equal(t, "9876.54", res.TotalValue.String())
}

func TestExtractAJBell_NoISASection(t *testing.T) {
	res := ExtractAJBell(ajBellNoISA)

	assert.Equal(t, "Ms Amy Pond", res.ClientName)
	assert.NotNil(t, res.Accounts)
	assert.Empty(t, res.Accounts)
	assert.True(t, res.TotalValue.IsZero())
	assert.Empty(t, res.Performance)
}

func TestExtractAJBell_EmptyText(t *testing.T) {
	res := ExtractAJBell("")

	assert.Equal(t, "AJ Bell", res.Provider)
	assert.Empty(t, res.ClientName)
	assert.Empty(t, res.Accounts)
	assert.True(t, res.TotalValue.IsZero())
}
