package worker

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// StatementResult is the statement worker's reply: one JSON object on the
// output channel. The provider is detected inside the worker and carried
// here as data only; callers never branch on it.
type StatementResult struct {
	Provider    string             `json:"provider"`
	ClientName  string             `json:"client_name"`
	Accounts    []StatementAccount `json:"accounts"`
	TotalValue  decimal.Decimal    `json:"total_value"`
	Performance map[string]float64 `json:"performance,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// StatementAccount is one account row in a statement worker reply.
type StatementAccount struct {
	Type          string          `json:"type"`
	Provider      string          `json:"provider"`
	AccountNumber string          `json:"account_number,omitempty"`
	Value         decimal.Decimal `json:"value"`
	Contributions decimal.Decimal `json:"contributions"`
	Return        decimal.Decimal `json:"return"`
	Performance   float64         `json:"performance"`
}

// ChartResult is the chart worker's reply.
type ChartResult struct {
	ChartsExtracted bool        `json:"charts_extracted"`
	ClientName      string      `json:"client_name,omitempty"`
	Charts          []ChartFile `json:"charts,omitempty"`
}

// ChartFile records one chart image written to the asset store.
type ChartFile struct {
	Ordinal int    `json:"ordinal"`
	Role    string `json:"role"`
	File    string `json:"file"`
}

// EmptyStatementResult is the degraded statement result: no accounts, zero
// value.
func EmptyStatementResult() StatementResult {
	return StatementResult{
		Accounts:   []StatementAccount{},
		TotalValue: decimal.Zero,
	}
}

// EmptyChartResult is the degraded chart result.
func EmptyChartResult() ChartResult {
	return ChartResult{ChartsExtracted: false}
}

// DecodeStatement parses the output buffer of a statement invocation. The
// exit state is deliberately ignored: whatever landed in the buffer gets one
// decode attempt, and anything that is not a well-formed JSON object
// degrades to the empty result. Worker failures never propagate past here.
func DecodeStatement(raw Raw) StatementResult {
	var res StatementResult
	if err := json.Unmarshal(raw.Stdout, &res); err != nil {
		return EmptyStatementResult()
	}
	if res.Accounts == nil {
		res.Accounts = []StatementAccount{}
	}
	return res
}

// DecodeCharts parses the output buffer of a chart invocation, degrading to
// the empty result on any decode failure.
func DecodeCharts(raw Raw) ChartResult {
	var res ChartResult
	if err := json.Unmarshal(raw.Stdout, &res); err != nil {
		return EmptyChartResult()
	}
	return res
}
