package extract

import (
	"github.com/shopspring/decimal"

	"github.com/clearviewfp/report-engine/internal/domain"
)

// Aggregate folds the ordered per-file results of one session into a single
// summary. It is a pure function of the input and its order, so re-running
// it over the same results yields an identical summary.
//
// Merge precedence, in file order:
//   - the first non-empty client name wins; later names are discarded
//   - accounts append in order and are never deduplicated
//   - the running total tracks every appended account's value
//   - performance metrics merge key-wise, last writer wins
//   - the charts flag sticks once any file reports a full chart set
func Aggregate(results []domain.FileResult) domain.ExtractionSummary {
	summary := domain.ExtractionSummary{
		Accounts:    []domain.Account{},
		TotalValue:  decimal.Zero,
		Performance: map[string]float64{},
		RiskScore:   domain.DefaultRiskScore,
	}

	for _, res := range results {
		if summary.ClientName == "" && res.ClientName != "" {
			summary.ClientName = res.ClientName
		}
		for _, acc := range res.Accounts {
			summary.Accounts = append(summary.Accounts, acc)
			summary.TotalValue = summary.TotalValue.Add(acc.Value)
		}
		for k, v := range res.Performance {
			summary.Performance[k] = v
		}
		if res.ChartsExtracted {
			summary.ChartsExtracted = true
		}
	}

	return summary
}
