// Package domain defines the core types shared across the report engine.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType represents the tax wrapper of an extracted account.
type AccountType string

const (
	AccountTypeISA   AccountType = "ISA"
	AccountTypeSIPP  AccountType = "SIPP"
	AccountTypeOther AccountType = "Other"
)

// ChartRole identifies one of the fixed chart slots in the client report.
type ChartRole string

const (
	ChartRoleMoneyInVsOut      ChartRole = "money_in_vs_out"
	ChartRoleSavingsProjection ChartRole = "savings_projection"
)

// DefaultRiskScore is the placeholder risk score carried into every summary
// until a risk questionnaire feeds real data in.
const DefaultRiskScore = 35

// FileDescriptor describes one uploaded file. Immutable after creation.
type FileDescriptor struct {
	ID           string `json:"id"`
	OriginalName string `json:"originalName"`
	MediaType    string `json:"mediaType"`
	Size         int64  `json:"size"`
	StoragePath  string `json:"-"`
}

// UploadSession is one upload batch and its derived summary. Sessions live
// for the process lifetime; there is no eviction.
type UploadSession struct {
	ID        string             `json:"id"`
	CreatedAt time.Time          `json:"createdAt"`
	Files     []FileDescriptor   `json:"files"`
	Summary   *ExtractionSummary `json:"summary,omitempty"`
}

// Account is one extracted account holding. Produced only by the statement
// worker and never mutated after creation.
type Account struct {
	Type          AccountType     `json:"type"`
	Provider      string          `json:"provider"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	Value         decimal.Decimal `json:"value"`
	Contributions decimal.Decimal `json:"contributions"`
	Return        decimal.Decimal `json:"return"`
	Performance   float64         `json:"performance"`
}

// FileResult is the normalized contribution of a single file to the session
// summary, in the order the aggregator consumes them.
type FileResult struct {
	FileID          string             `json:"fileId"`
	FileName        string             `json:"fileName"`
	ClientName      string             `json:"clientName,omitempty"`
	Accounts        []Account          `json:"accounts"`
	Performance     map[string]float64 `json:"performance,omitempty"`
	ChartsExtracted bool               `json:"chartsExtracted"`
}

// ExtractionSummary is the single session-level financial summary handed to
// the report renderer. TotalValue always equals the sum of account values.
type ExtractionSummary struct {
	ClientName      string             `json:"clientName,omitempty"`
	Accounts        []Account          `json:"accounts"`
	TotalValue      decimal.Decimal    `json:"totalValue"`
	Performance     map[string]float64 `json:"performance,omitempty"`
	RiskScore       int                `json:"riskScore"`
	ChartsExtracted bool               `json:"chartsExtracted"`
}

// ChartAsset is one embedded chart image pulled out of a compound document.
type ChartAsset struct {
	Ordinal int       `json:"ordinal"`
	Role    ChartRole `json:"role"`
	Bytes   []byte    `json:"-"`
}
