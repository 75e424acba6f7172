// Package e2e provides end-to-end tests for the report engine.
package e2e

import (
	"archive/zip"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clearviewfp/report-engine/internal/assets"
	"github.com/clearviewfp/report-engine/internal/cache"
	"github.com/clearviewfp/report-engine/internal/domain"
	"github.com/clearviewfp/report-engine/internal/extract"
	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/report"
	"github.com/clearviewfp/report-engine/internal/session"
)

// Statement fixtures are authored as plain text and fed through a
// passthrough text extractor, so the real worker binaries parse exactly
// what a flattened PDF would hand them.

const ajBellStatement = `AJ Bell Securities Limited
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

const morningstarStatement = `Morningstar Direct
Portfolio Summary Report
PREPARED FOR Mr. Alan Partridge
12 January 2025

Investment held: ISA
Portfolio Valuation £50,000.00
Total In/Out £10,000.00
Total Return £4,000.00
Portfolio % Returns 8.5%

Investment held: SIPP
Portfolio Valuation £150,000.00
Total In/Out £20,000.00
Total Return £12,000.00
Portfolio % Returns 9.5%
`

const cashflowRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image1.png"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image2.png"/>
  <Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image3.png"/>
  <Relationship Id="rId5" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image4.png"/>
  <Relationship Id="rId6" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/image5.png"/>
</Relationships>`

const cashflowDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Clearview Financial Planning</w:t></w:r></w:p>
<w:p><w:r><w:t>Cashflow Forecast &amp; Report</w:t></w:r></w:p>
<w:p><w:r><w:t>Alice &amp; Bob Smith</w:t></w:r></w:p>
<w:p><w:r><w:t>Prepared 12 May 2025</w:t></w:r></w:p>
</w:body></w:document>`

// TestEndToEndUploadToReport runs the complete pipeline from a mixed upload
// batch to the rendered client report, invoking the real worker binaries as
// subprocesses the way the server does.
func TestEndToEndUploadToReport(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping e2e test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("Skipping e2e test: go toolchain not available to build workers")
	}

	ctx := context.Background()
	logger := observability.NewLogger(observability.LogConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "e2e-test",
	})

	// Step 1: Build the worker binaries
	t.Log("\n=== Step 1: Building Worker Binaries ===")
	repoRoot, err := filepath.Abs("../..")
	if err != nil {
		t.Fatalf("Failed to resolve repo root: %v", err)
	}
	buildStart := time.Now()
	binDir := t.TempDir()
	statementBin := buildWorker(t, repoRoot, binDir, "statement-worker")
	chartBin := buildWorker(t, repoRoot, binDir, "chart-worker")
	buildTime := time.Since(buildStart)
	t.Logf("Built statement-worker and chart-worker in %v", buildTime)

	// Step 2: Compose the upload batch
	t.Log("\n=== Step 2: Composing Upload Batch ===")
	uploadDir := t.TempDir()
	files := []domain.FileDescriptor{
		uploadFixture(t, uploadDir, "aj_bell_valuation.pdf", "application/pdf", []byte(ajBellStatement)),
		uploadFixture(t, uploadDir, "morningstar_portfolio.pdf", "application/pdf", []byte(morningstarStatement)),
		chartFixture(t, uploadDir),
		uploadFixture(t, uploadDir, "meeting_notes.txt", "text/plain", []byte("Follow up on pension transfer in April.")),
	}
	for _, fd := range files {
		t.Logf("  - %s (%s, %d bytes)", fd.OriginalName, fd.MediaType, fd.Size)
	}

	// Step 3: Create the upload session
	t.Log("\n=== Step 3: Creating Upload Session ===")
	store := session.NewStore()
	sess := store.Create(files)
	t.Logf("Session created: %s with %d files", sess.ID, len(sess.Files))

	// Step 4: Run extraction through the real workers
	t.Log("\n=== Step 4: Running Extraction ===")
	assetDir := t.TempDir()
	svc := extract.NewService(logger, extract.ServiceConfig{
		StatementCommand: statementBin,
		ChartCommand:     chartBin,
		WorkerTimeout:    30 * time.Second,
		AssetDir:         assetDir,
		CacheTTL:         time.Minute,
	}, passthroughText{}, cache.NewMemoryClient(0))

	extractStart := time.Now()
	summary, err := svc.ProcessSession(ctx, sess)
	if err != nil {
		t.Fatalf("Extraction failed: %v", err)
	}
	extractTime := time.Since(extractStart)

	if err := store.SetSummary(sess.ID, &summary); err != nil {
		t.Fatalf("Failed to store summary: %v", err)
	}

	t.Logf("Extraction completed in %v", extractTime)
	t.Logf("  - Client: %s", summary.ClientName)
	t.Logf("  - Accounts: %d", len(summary.Accounts))
	t.Logf("  - Total value: %s", report.FormatMoney(summary.TotalValue))
	t.Logf("  - Performance: %v", summary.Performance)
	t.Logf("  - Charts extracted: %v", summary.ChartsExtracted)

	// Step 5: Verify the merged summary
	t.Log("\n=== Step 5: Verifying Merged Summary ===")

	// The AJ Bell statement is first in the batch, so its client name wins
	// over both the Morningstar statement and the cashflow document.
	if summary.ClientName != "Mr John Smith" {
		t.Errorf("Client name should come from the first statement, got %q", summary.ClientName)
	}

	wantAccounts := []struct {
		accType  domain.AccountType
		provider string
		number   string
		value    string
	}{
		{domain.AccountTypeISA, "AJ Bell", "SCC462917", "15234.56"},
		{domain.AccountTypeISA, "Morningstar", "", "50000"},
		{domain.AccountTypeSIPP, "Morningstar", "", "150000"},
	}
	if len(summary.Accounts) != len(wantAccounts) {
		t.Fatalf("Expected %d accounts, got %d", len(wantAccounts), len(summary.Accounts))
	}
	for i, want := range wantAccounts {
		acc := summary.Accounts[i]
		if acc.Type != want.accType || acc.Provider != want.provider ||
			acc.AccountNumber != want.number || acc.Value.String() != want.value {
			t.Errorf("Account %d mismatch: got %s/%s/%q/%s, want %s/%s/%q/%s",
				i, acc.Type, acc.Provider, acc.AccountNumber, acc.Value.String(),
				want.accType, want.provider, want.number, want.value)
		}
		t.Logf("  ✓ [%s] %s %s = %s", acc.Type, acc.Provider, acc.AccountNumber, report.FormatMoney(acc.Value))
	}

	if got := summary.TotalValue.String(); got != "215234.56" {
		t.Errorf("Total value should sum all account values, got %s", got)
	}
	// Both statements report oneYearReturn; the Morningstar value lands last.
	if got := summary.Performance["oneYearReturn"]; got != 9.0 {
		t.Errorf("Performance should carry the last statement's value, got %v", got)
	}
	if summary.RiskScore != domain.DefaultRiskScore {
		t.Errorf("Risk score should be %d, got %d", domain.DefaultRiskScore, summary.RiskScore)
	}
	if !summary.ChartsExtracted {
		t.Error("Charts extracted should be true when both figures land on disk")
	}

	assetStore := assets.NewStore(assetDir)
	for _, role := range []domain.ChartRole{domain.ChartRoleMoneyInVsOut, domain.ChartRoleSavingsProjection} {
		if !assetStore.HasRole(role) {
			t.Errorf("Missing chart asset for role %s", role)
		}
	}

	fetched, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Failed to fetch session: %v", err)
	}
	if fetched.Summary == nil {
		t.Error("Stored session should carry the summary")
	}

	// Step 6: Render the client report
	t.Log("\n=== Step 6: Rendering Client Report ===")
	renderer, err := report.NewRenderer(logger, assetStore, "Clearview Financial Planning", "J. Fairbairn")
	if err != nil {
		t.Fatalf("Failed to create renderer: %v", err)
	}
	renderStart := time.Now()
	doc, err := renderer.Render(summary)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	renderTime := time.Since(renderStart)
	html := string(doc)
	t.Logf("Rendered %d bytes in %v", len(doc), renderTime)

	for _, want := range []string{
		"Mr John Smith",
		"£215,234.56",
		"Risk score: 35",
		"Money in vs money out",
		"Savings and investments projection",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Report missing %q", want)
		}
	}
	if got := strings.Count(html, "data:image/png;base64,"); got != 2 {
		t.Errorf("Report should inline 2 chart images, found %d", got)
	}

	// Step 7: Performance summary
	t.Log("\n=== Performance Summary ===")
	t.Logf("Worker build time:  %v", buildTime)
	t.Logf("Extract time:       %v", extractTime)
	t.Logf("Render time:        %v", renderTime)
	t.Logf("Files processed:    %d", len(files))
	t.Logf("Accounts merged:    %d", len(summary.Accounts))
	t.Logf("Report size:        %d bytes", len(doc))

	t.Log("\n✅ End-to-end test completed successfully!")
}

// Helper functions

// passthroughText plays the PDF text layer for fixtures authored as plain
// text.
type passthroughText struct{}

func (passthroughText) ExtractBytes(_ context.Context, data []byte) (string, error) {
	return string(data), nil
}

func buildWorker(t *testing.T, repoRoot, binDir, name string) string {
	t.Helper()
	bin := filepath.Join(binDir, name)
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/"+name)
	cmd.Dir = repoRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build %s: %v\n%s", name, err, out)
	}
	return bin
}

func uploadFixture(t *testing.T, dir, name, mediaType string, content []byte) domain.FileDescriptor {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write fixture %s: %v", name, err)
	}
	return domain.FileDescriptor{
		ID:           uuid.NewString(),
		OriginalName: name,
		MediaType:    mediaType,
		Size:         int64(len(content)),
		StoragePath:  path,
	}
}

// chartFixture assembles a minimal cashflow planning document: five image
// relationships so ordinals four and five exist, the two chart PNGs, and a
// cover page naming the clients.
func chartFixture(t *testing.T, dir string) domain.FileDescriptor {
	t.Helper()
	path := filepath.Join(dir, "smith_cashflow_plan.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create docx fixture: %v", err)
	}
	zw := zip.NewWriter(f)
	for _, entry := range []struct {
		name string
		data string
	}{
		{"word/_rels/document.xml.rels", cashflowRels},
		{"word/document.xml", cashflowDocument},
		{"word/media/image4.png", "money-chart-png"},
		{"word/media/image5.png", "savings-chart-png"},
	} {
		w, err := zw.Create(entry.name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", entry.name, err)
		}
		if _, err := w.Write([]byte(entry.data)); err != nil {
			t.Fatalf("Failed to write %s: %v", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close docx fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Failed to close docx file: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat docx fixture: %v", err)
	}
	return domain.FileDescriptor{
		ID:           uuid.NewString(),
		OriginalName: "smith_cashflow_plan.docx",
		MediaType:    "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Size:         info.Size(),
		StoragePath:  path,
	}
}
