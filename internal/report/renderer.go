// Package report renders the client-facing summary document from an
// extraction summary plus the shared asset store.
package report

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/clearviewfp/report-engine/internal/assets"
	"github.com/clearviewfp/report-engine/internal/domain"
	"github.com/clearviewfp/report-engine/internal/observability"
)

//go:embed template.html
var reportTemplate string

// Renderer produces a self-contained HTML report. Images are inlined as
// data URIs so the document downloads as a single file.
type Renderer struct {
	logger  *observability.Logger
	assets  *assets.Store
	company string
	adviser string
	tmpl    *template.Template
}

// NewRenderer parses the report template and binds the asset store.
func NewRenderer(logger *observability.Logger, store *assets.Store, company, adviser string) (*Renderer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Renderer{
		logger:  logger,
		assets:  store,
		company: company,
		adviser: adviser,
		tmpl:    tmpl,
	}, nil
}

type accountRow struct {
	Type          string
	Provider      string
	AccountNumber string
	Value         string
	Contributions string
	Return        string
	Performance   string
}

type metricRow struct {
	Name  string
	Value string
}

type reportData struct {
	Company      string
	Adviser      string
	GeneratedAt  string
	ClientName   string
	Accounts     []accountRow
	TotalValue   string
	Performance  []metricRow
	RiskScore    int
	Logo         template.URL
	MoneyChart   template.URL
	SavingsChart template.URL
}

// Render produces the report document for one summary. Chart figures and
// the logo are optional: a missing asset omits its block rather than
// failing the render.
func (r *Renderer) Render(summary domain.ExtractionSummary) ([]byte, error) {
	data := reportData{
		Company:     r.company,
		Adviser:     r.adviser,
		GeneratedAt: time.Now().Format("2 January 2006"),
		ClientName:  summary.ClientName,
		TotalValue:  FormatMoney(summary.TotalValue),
		Performance: metricRows(summary.Performance),
		RiskScore:   summary.RiskScore,
	}

	for _, acc := range summary.Accounts {
		data.Accounts = append(data.Accounts, accountRow{
			Type:          string(acc.Type),
			Provider:      acc.Provider,
			AccountNumber: acc.AccountNumber,
			Value:         FormatMoney(acc.Value),
			Contributions: FormatMoney(acc.Contributions),
			Return:        FormatMoney(acc.Return),
			Performance:   fmt.Sprintf("%.2f%%", acc.Performance),
		})
	}

	data.Logo = r.imageURI(r.assets.LogoPath())
	if path, err := r.assets.PathForRole(domain.ChartRoleMoneyInVsOut); err == nil {
		data.MoneyChart = r.imageURI(path)
	}
	if path, err := r.assets.PathForRole(domain.ChartRoleSavingsProjection); err == nil {
		data.SavingsChart = r.imageURI(path)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute report template: %w", err)
	}

	r.logger.Debug().
		Int("accounts", len(data.Accounts)).
		Bool("money_chart", data.MoneyChart != "").
		Bool("savings_chart", data.SavingsChart != "").
		Msg("Rendered report")

	return buf.Bytes(), nil
}

// imageURI inlines an image file as a data URI, or returns empty when the
// file is absent.
func (r *Renderer) imageURI(path string) template.URL {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(data))
}

func metricRows(performance map[string]float64) []metricRow {
	if len(performance) == 0 {
		return nil
	}
	rows := make([]metricRow, 0, len(performance))
	for _, name := range sortedKeys(performance) {
		rows = append(rows, metricRow{
			Name:  metricLabel(name),
			Value: fmt.Sprintf("%.2f%%", performance[name]),
		})
	}
	return rows
}

// metricLabel turns a camelCase metric key into a display label, so
// "oneYearReturn" renders as "One year return".
func metricLabel(key string) string {
	var words []string
	var cur strings.Builder
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			if cur.Len() > 0 {
				words = append(words, cur.String())
				cur.Reset()
			}
			cur.WriteRune(r + ('a' - 'A'))
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		words = append(words, cur.String())
	}
	if len(words) == 0 {
		return key
	}
	label := strings.Join(words, " ")
	return strings.ToUpper(label[:1]) + label[1:]
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatMoney renders a decimal as a pound amount with thousands
// separators, always to two places.
func FormatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s£%s.%s", sign, grouped.String(), frac)
}
