package providers

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clearviewfp/report-engine/internal/worker"
)

// Morningstar portfolio reports repeat one labelled block per tax wrapper,
// each introduced by an "Investment held:" line. A block without a valuation
// line is skipped.
var (
	msClientRe = regexp.MustCompile(`PREPARED FOR\s+((?:Ms\.|Mr\.|Mrs\.)\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	msISARe    = regexp.MustCompile(`Investment held:\s*ISA`)
	msSIPPRe   = regexp.MustCompile(`Investment held:\s*SIPP`)
	msValueRe  = regexp.MustCompile(`Portfolio Valuation\s*£([\d,]+\.\d{2})`)
	msInOutRe  = regexp.MustCompile(`Total In/Out\s*£([\d,]+\.\d{2})`)
	msReturnRe = regexp.MustCompile(`Total Return\s*£([\d,]+\.\d{2})`)
	msPerfRe   = regexp.MustCompile(`Portfolio % Returns\s*([\d.]+)%`)
)

// ExtractMorningstar parses a Morningstar portfolio report.
func ExtractMorningstar(text string) worker.StatementResult {
	res := worker.StatementResult{
		Provider:   nameMorningstar,
		Accounts:   []worker.StatementAccount{},
		TotalValue: decimal.Zero,
	}

	if m := msClientRe.FindStringSubmatch(text); m != nil {
		res.ClientName = strings.TrimSpace(m[1])
	}

	wrappers := []struct {
		accountType string
		start       *regexp.Regexp
	}{
		{"ISA", msISARe},
		{"SIPP", msSIPPRe},
	}
	for _, w := range wrappers {
		block, ok := section(text, w.start, "Investment held:")
		if !ok {
			continue
		}
		acc, ok := morningstarAccount(w.accountType, block)
		if !ok {
			continue
		}
		res.Accounts = append(res.Accounts, acc)
		res.TotalValue = res.TotalValue.Add(acc.Value)
	}

	if len(res.Accounts) > 0 {
		var sum float64
		for _, acc := range res.Accounts {
			sum += acc.Performance
		}
		res.Performance = map[string]float64{
			"oneYearReturn": sum / float64(len(res.Accounts)),
		}
	}

	return res
}

func morningstarAccount(accountType, block string) (worker.StatementAccount, bool) {
	val := msValueRe.FindStringSubmatch(block)
	if val == nil {
		return worker.StatementAccount{}, false
	}

	acc := worker.StatementAccount{
		Type:     accountType,
		Provider: nameMorningstar,
		Value:    parseMoney(val[1]),
	}
	if m := msInOutRe.FindStringSubmatch(block); m != nil {
		acc.Contributions = parseMoney(m[1])
	}
	if m := msReturnRe.FindStringSubmatch(block); m != nil {
		acc.Return = parseMoney(m[1])
	}
	if m := msPerfRe.FindStringSubmatch(block); m != nil {
		acc.Performance = parsePercent(m[1])
	}
	return acc, true
}
