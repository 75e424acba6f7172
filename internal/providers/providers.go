// Package providers implements the per-provider statement parsers behind the
// statement worker. Each parser takes the flattened text of one PDF and
// returns the wire-format result; documents no parser understands produce a
// typed "Unknown" result rather than an error.
package providers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/clearviewfp/report-engine/internal/worker"
)

// Provider tags emitted on the advisory stderr channel. Hosts may log them;
// they never change how a result is handled.
const (
	TagAJBell      = "AJ_BELL"
	TagMorningstar = "MORNINGSTAR"
	TagCashflow    = "CASHFLOW"
	TagUnknown     = "UNKNOWN"
)

// Provider display names carried inside results.
const (
	nameAJBell      = "AJ Bell"
	nameMorningstar = "Morningstar"
	nameUnknown     = "Unknown"
)

// Detect returns the provider tag for a statement text. Matching is a
// case-insensitive substring scan; the first rule that hits wins.
func Detect(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "aj bell") || strings.Contains(lower, "ajbell"):
		return TagAJBell
	case strings.Contains(lower, "morningstar"):
		return TagMorningstar
	case strings.Contains(lower, "cashflow") || strings.Contains(lower, "574611"):
		return TagCashflow
	default:
		return TagUnknown
	}
}

// Extract runs the parser for the detected provider tag. Cashflow documents
// carry no statement data, so they fall through to the unknown result along
// with anything unrecognised.
func Extract(tag, text string) worker.StatementResult {
	switch tag {
	case TagAJBell:
		return ExtractAJBell(text)
	case TagMorningstar:
		return ExtractMorningstar(text)
	default:
		return UnknownResult()
	}
}

// UnknownResult is the reply for documents no parser understands.
func UnknownResult() worker.StatementResult {
	return worker.StatementResult{
		Provider:   nameUnknown,
		Error:      "Provider not recognized",
		Accounts:   []worker.StatementAccount{},
		TotalValue: decimal.Zero,
	}
}

// section returns the span of text from the start match up to, but not
// including, the first stop marker that follows it. The span runs to the end
// of text when no stop marker follows.
func section(text string, start *regexp.Regexp, stops ...string) (string, bool) {
	loc := start.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	rest := text[loc[1]:]
	end := len(rest)
	for _, stop := range stops {
		if i := strings.Index(rest, stop); i >= 0 && i < end {
			end = i
		}
	}
	return text[loc[0] : loc[1]+end], true
}

// parseMoney turns a captured "12,345.67" into a decimal, dropping the
// thousands separators. Unparseable captures count as zero.
func parseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parsePercent turns a captured "12.5" into a float. Unparseable captures
// count as zero.
func parsePercent(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
