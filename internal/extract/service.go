// Package extract orchestrates per-file extraction and session aggregation.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/clearviewfp/report-engine/internal/cache"
	"github.com/clearviewfp/report-engine/internal/classify"
	"github.com/clearviewfp/report-engine/internal/domain"
	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/worker"
)

// TextExtractor flattens an uploaded PDF to plain text.
type TextExtractor interface {
	ExtractBytes(ctx context.Context, data []byte) (string, error)
}

// ServiceConfig holds the orchestrator's settings.
type ServiceConfig struct {
	StatementCommand string
	StatementArgs    []string
	ChartCommand     string
	ChartArgs        []string
	WorkerTimeout    time.Duration
	AssetDir         string
	CacheTTL         time.Duration
}

// Service runs extraction for upload sessions: classify each file, invoke
// the matching worker, fold the per-file results into one summary.
type Service struct {
	logger *observability.Logger
	cfg    ServiceConfig
	runner *worker.Runner
	pdf    TextExtractor
	cache  cache.Client
}

// NewService creates the extraction service. cacheClient may be nil to
// disable statement result caching.
func NewService(logger *observability.Logger, cfg ServiceConfig, pdf TextExtractor, cacheClient cache.Client) *Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}

	return &Service{
		logger: logger,
		cfg:    cfg,
		runner: worker.NewRunner(logger, cfg.WorkerTimeout),
		pdf:    pdf,
		cache:  cacheClient,
	}
}

// ProcessSession extracts every file in upload order and aggregates the
// results. Files are processed strictly sequentially because the merge
// rules depend on a stable total order. The only error out of here is a
// failure to read stored upload bytes; everything else degrades per file.
func (s *Service) ProcessSession(ctx context.Context, sess *domain.UploadSession) (domain.ExtractionSummary, error) {
	log := s.logger.WithSession(sess.ID)
	start := time.Now()

	log.Info().Int("files", len(sess.Files)).Msg("Starting session extraction")

	results := make([]domain.FileResult, 0, len(sess.Files))
	for _, fd := range sess.Files {
		res, err := s.processFile(ctx, log, fd)
		if err != nil {
			return domain.ExtractionSummary{}, err
		}
		results = append(results, res)
	}

	summary := Aggregate(results)

	log.Info().
		Int("accounts", len(summary.Accounts)).
		Str("total_value", summary.TotalValue.String()).
		Bool("charts_extracted", summary.ChartsExtracted).
		Dur("duration", time.Since(start)).
		Msg("Session extraction complete")

	return summary, nil
}

func (s *Service) processFile(ctx context.Context, log *observability.Logger, fd domain.FileDescriptor) (domain.FileResult, error) {
	res := domain.FileResult{
		FileID:   fd.ID,
		FileName: fd.OriginalName,
		Accounts: []domain.Account{},
	}

	route := classify.ForFile(fd)
	log.Debug().
		Str("file", fd.OriginalName).
		Str("media_type", fd.MediaType).
		Str("route", string(route)).
		Msg("Classified upload")

	switch route {
	case classify.RouteStatement:
		return s.processStatement(ctx, log, fd, res)
	case classify.RouteChart:
		return s.processChart(ctx, log, fd, res), nil
	default:
		return res, nil
	}
}

func (s *Service) processStatement(ctx context.Context, log *observability.Logger, fd domain.FileDescriptor, res domain.FileResult) (domain.FileResult, error) {
	data, err := os.ReadFile(fd.StoragePath)
	if err != nil {
		// Unreadable upload bytes are the one batch-level failure.
		return res, fmt.Errorf("read upload %s: %w", fd.OriginalName, err)
	}

	text, err := s.pdf.ExtractBytes(ctx, data)
	if err != nil {
		log.Warn().Err(err).Str("file", fd.OriginalName).Msg("PDF text extraction failed")
		return res, nil
	}

	stmt := s.statementResult(ctx, log, text)

	res.ClientName = stmt.ClientName
	for _, acc := range stmt.Accounts {
		res.Accounts = append(res.Accounts, domain.Account{
			Type:          accountType(acc.Type),
			Provider:      providerOrUnknown(acc.Provider),
			AccountNumber: acc.AccountNumber,
			Value:         acc.Value,
			Contributions: acc.Contributions,
			Return:        acc.Return,
			Performance:   acc.Performance,
		})
	}
	if len(stmt.Performance) > 0 {
		res.Performance = stmt.Performance
	}

	log.Debug().
		Str("file", fd.OriginalName).
		Int("accounts", len(res.Accounts)).
		Msg("Statement worker finished")

	return res, nil
}

// statementResult runs the statement worker over one payload, going through
// the digest cache when one is wired. Only completed invocations are
// cached: timeouts and spawn failures are transient and should re-run on
// the next upload of the same document.
func (s *Service) statementResult(ctx context.Context, log *observability.Logger, payload string) worker.StatementResult {
	key := cache.StatementKey(payloadDigest(payload))

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var cached worker.StatementResult
			if err := json.Unmarshal(data, &cached); err == nil {
				if cached.Accounts == nil {
					cached.Accounts = []worker.StatementAccount{}
				}
				log.Debug().Str("key", key).Msg("Statement cache hit")
				return cached
			}
		}
	}

	raw := <-s.runner.Invoke(ctx, worker.Request{
		Command: s.cfg.StatementCommand,
		Args:    s.cfg.StatementArgs,
		Payload: []byte(payload),
	})
	result := worker.DecodeStatement(raw)

	if s.cache != nil && raw.Err == nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cfg.CacheTTL); err != nil {
				log.Warn().Err(err).Msg("Failed to cache statement result")
			}
		}
	}

	return result
}

// processChart hands the stored document path to the chart worker. Chart
// results are never cached: the worker's job includes writing role files
// into the asset directory, and a cache hit would skip those writes.
func (s *Service) processChart(ctx context.Context, log *observability.Logger, fd domain.FileDescriptor, res domain.FileResult) domain.FileResult {
	args := make([]string, 0, len(s.cfg.ChartArgs)+2)
	args = append(args, s.cfg.ChartArgs...)
	args = append(args, fd.StoragePath, s.cfg.AssetDir)

	raw := <-s.runner.Invoke(ctx, worker.Request{
		Command: s.cfg.ChartCommand,
		Args:    args,
	})
	chart := worker.DecodeCharts(raw)

	res.ClientName = chart.ClientName
	res.ChartsExtracted = chart.ChartsExtracted

	log.Debug().
		Str("file", fd.OriginalName).
		Bool("charts_extracted", chart.ChartsExtracted).
		Int("charts_written", len(chart.Charts)).
		Msg("Chart worker finished")

	return res
}

func payloadDigest(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func accountType(t string) domain.AccountType {
	switch t {
	case string(domain.AccountTypeISA):
		return domain.AccountTypeISA
	case string(domain.AccountTypeSIPP):
		return domain.AccountTypeSIPP
	default:
		return domain.AccountTypeOther
	}
}

// providerOrUnknown keeps the account invariant that a provider string is
// always present, even for malformed worker rows.
func providerOrUnknown(p string) string {
	if p == "" {
		return "Unknown"
	}
	return p
}
