package providers

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clearviewfp/report-engine/internal/worker"
)

// AJ Bell performance reports are positional: the ISA summary block carries
// the cash-in, change and time-weighted return figures, while the closing
// value sits in the holdings table's total row.
var (
	ajBellClientRe    = regexp.MustCompile(`(?:Mr|Mrs|Ms)\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+`)
	ajBellAccountRe   = regexp.MustCompile(`SCC\d+`)
	ajBellISARe       = regexp.MustCompile(`ISA - Performance summary`)
	ajBellHoldingsRe  = regexp.MustCompile(`Total\s+-\s+[\d,]+\.\d{2}\s+-\s+([\d,]+\.\d{2})`)
	ajBellValueRe     = regexp.MustCompile(`£([\d,]+\.\d{2})\s+[\d.]+%`)
	ajBellCashInRe    = regexp.MustCompile(`Cash in.*?£([\d,]+\.\d{2})`)
	ajBellPerfLineRe  = regexp.MustCompile(`(?m)([\d.]+)%\s*$`)
	ajBellTWRRe       = regexp.MustCompile(`(?s)Time-weighted return.*?([\d.]+)%`)
	ajBellChangeRe    = regexp.MustCompile(`(?s)Total.*?Change.*?([\d,]+\.\d{2})`)
	ajBellChangeAltRe = regexp.MustCompile(`(?s)Change \(£\).*?([\d,]+\.\d{2})`)
)

// ExtractAJBell parses an AJ Bell performance report.
func ExtractAJBell(text string) worker.StatementResult {
	res := worker.StatementResult{
		Provider:    nameAJBell,
		Accounts:    []worker.StatementAccount{},
		TotalValue:  decimal.Zero,
		Performance: map[string]float64{},
	}

	res.ClientName = strings.TrimSpace(ajBellClientRe.FindString(text))
	accountNumber := ajBellAccountRe.FindString(text)

	if isaText, ok := section(text, ajBellISARe, "ISA - Performance Analysis", "ISA - Holdings"); ok {
		value := decimal.Zero
		if m := ajBellHoldingsRe.FindStringSubmatch(text); m != nil {
			value = parseMoney(m[1])
		} else if m := ajBellValueRe.FindStringSubmatch(isaText); m != nil {
			value = parseMoney(m[1])
		}

		contributions := decimal.Zero
		if m := ajBellCashInRe.FindStringSubmatch(text); m != nil {
			contributions = parseMoney(m[1])
		}

		performance := 0.0
		if m := ajBellPerfLineRe.FindStringSubmatch(isaText); m != nil {
			performance = parsePercent(m[1])
		} else if m := ajBellTWRRe.FindStringSubmatch(text); m != nil {
			performance = parsePercent(m[1])
		}

		returnAmount := decimal.Zero
		if m := ajBellChangeRe.FindStringSubmatch(text); m != nil {
			returnAmount = parseMoney(m[1])
		} else if m := ajBellChangeAltRe.FindStringSubmatch(text); m != nil {
			returnAmount = parseMoney(m[1])
		}

		res.Accounts = append(res.Accounts, worker.StatementAccount{
			Type:          "ISA",
			Provider:      nameAJBell,
			AccountNumber: accountNumber,
			Value:         value,
			Contributions: contributions,
			Return:        returnAmount,
			Performance:   performance,
		})
		res.TotalValue = res.TotalValue.Add(value)
	}

	// TODO: parse the SIPP performance block. Reports pairing a SIPP with
	// the ISA exist but none seen so far has a stable layout.

	if len(res.Accounts) > 0 {
		res.Performance["oneYearReturn"] = res.Accounts[0].Performance
	}

	return res
}
