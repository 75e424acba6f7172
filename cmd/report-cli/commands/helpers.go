package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clearviewfp/report-engine/cmd/report-cli/ui"
	"github.com/clearviewfp/report-engine/internal/cache"
	"github.com/clearviewfp/report-engine/internal/config"
	"github.com/clearviewfp/report-engine/internal/domain"
	"github.com/clearviewfp/report-engine/internal/extract"
	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/pdftext"
	"github.com/clearviewfp/report-engine/internal/session"
)

// mediaTypesByExt maps document extensions to the media types the
// classifier routes on. The stdlib mime table does not know the OOXML
// types on every platform, so the mapping is explicit.
var mediaTypesByExt = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

func mediaTypeForPath(path string) string {
	if mt, ok := mediaTypesByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// describeFile builds the descriptor for one local document.
func describeFile(path string) (domain.FileDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.FileDescriptor{}, fmt.Errorf("%s is a directory", path)
	}

	return domain.FileDescriptor{
		ID:           uuid.NewString(),
		OriginalName: filepath.Base(path),
		MediaType:    mediaTypeForPath(path),
		Size:         info.Size(),
	}, nil
}

// stageFiles copies the inputs into a scratch directory so extraction never
// touches the originals, mirroring the server's upload storage. The caller
// must run the returned cleanup.
func stageFiles(paths []string) ([]domain.FileDescriptor, func(), error) {
	stageDir, err := os.MkdirTemp("", "report-cli-")
	if err != nil {
		return nil, nil, fmt.Errorf("create staging directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(stageDir) }

	var total int64
	files := make([]domain.FileDescriptor, 0, len(paths))
	for _, path := range paths {
		fd, err := describeFile(path)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		total += fd.Size
		files = append(files, fd)
	}

	bar := ui.NewBytesBar(total, "Staging documents")
	for i, path := range paths {
		dest := filepath.Join(stageDir, files[i].ID+strings.ToLower(filepath.Ext(path)))
		if err := copyFile(dest, path, bar); err != nil {
			cleanup()
			return nil, nil, err
		}
		files[i].StoragePath = dest
	}
	bar.Finish()

	return files, cleanup, nil
}

func copyFile(dest, src string, bar *ui.BytesBar) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(io.MultiWriter(out, bar), in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// runLocalExtraction stages the given documents and runs the full pipeline
// over them, returning the aggregated summary.
func runLocalExtraction(ctx context.Context, logger *observability.Logger, cfg *config.Config, paths []string) (domain.ExtractionSummary, error) {
	files, cleanup, err := stageFiles(paths)
	if err != nil {
		return domain.ExtractionSummary{}, err
	}
	defer cleanup()

	sess := &domain.UploadSession{
		ID:        session.NewID(),
		CreatedAt: time.Now().UTC(),
		Files:     files,
	}

	svc := extract.NewService(logger, extract.ServiceConfig{
		StatementCommand: cfg.Workers.Statement.Command,
		StatementArgs:    cfg.Workers.Statement.Args,
		ChartCommand:     cfg.Workers.Chart.Command,
		ChartArgs:        cfg.Workers.Chart.Args,
		WorkerTimeout:    cfg.Workers.Timeout,
		AssetDir:         cfg.Assets.Dir,
		CacheTTL:         cfg.Cache.TTL,
	}, pdftext.NewExtractor(), cache.NewMemoryClient(0))

	sp := ui.NewSpinner(fmt.Sprintf("Extracting %d documents...", len(files)))
	sp.Start()
	summary, err := svc.ProcessSession(ctx, sess)
	sp.Stop()
	if err != nil {
		return domain.ExtractionSummary{}, fmt.Errorf("extraction failed: %w", err)
	}

	return summary, nil
}
