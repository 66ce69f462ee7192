package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/therealutkarshpriyadarshi/ytscribe/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytscribe/internal/tracing"
	"github.com/therealutkarshpriyadarshi/ytscribe/pkg/models"
)

// ErrFileProcessing is returned when an export cannot be written
var ErrFileProcessing = errors.New("file processing failed")

// Config holds exporter settings
type Config struct {
	OutputDir   string
	MaxFileSize int64
	// DownloadPrefix is prepended to "/files/<name>" to build download URLs
	DownloadPrefix string
	PDF            PDFOptions
}

// Exporter writes transcripts to the output directory as TXT, PDF or JSON
type Exporter struct {
	config Config
	logger *logging.Logger
	now    func() time.Time
}

// New creates an exporter, creating the output directory if needed
func New(cfg Config, logger *logging.Logger) (*Exporter, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Export writes one file per concrete format of format. All files share a
// timestamped base name. If any file fails, files already written by this
// call are removed before the error is returned.
func (e *Exporter) Export(ctx context.Context, tr *models.Transcript, format models.FileFormat, customName string) ([]models.ExportedFile, error) {
	span, _ := tracing.StartSpan(ctx, "export.write")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "format", string(format))

	formats := format.Files()
	if len(formats) == 0 {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrFileProcessing, format)
	}

	now := e.now()
	base := baseName(tr.Video.VideoID, customName, now)

	files := make([]models.ExportedFile, 0, len(formats))
	for _, f := range formats {
		file, err := e.writeFile(tr, f, base, now)
		if err != nil {
			e.rollback(files)
			metrics.RecordExportFailure()
			tracing.LogError(span, err)
			e.logger.WithVideoID(tr.Video.VideoID).WithError(err).Error("Export failed")
			return nil, fmt.Errorf("%w: %v", ErrFileProcessing, err)
		}
		files = append(files, file)
	}

	for _, f := range files {
		metrics.RecordExport(string(f.Format), f.SizeBytes)
	}
	e.logger.WithVideoID(tr.Video.VideoID).WithField("files", len(files)).Info("Saved transcript files")
	return files, nil
}

func (e *Exporter) writeFile(tr *models.Transcript, format models.FileFormat, base string, now time.Time) (models.ExportedFile, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case models.FileFormatTXT:
		data = renderTXT(tr, now)
	case models.FileFormatPDF:
		data, err = renderPDF(tr, e.config.PDF, now)
	case models.FileFormatJSON:
		data, err = renderJSON(tr, now)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return models.ExportedFile{}, err
	}

	if limit := e.config.MaxFileSize; limit > 0 && int64(len(data)) > limit {
		return models.ExportedFile{}, fmt.Errorf("%s output is %d bytes, limit is %d", format, len(data), limit)
	}

	filename := base + "." + string(format)
	path := filepath.Join(e.config.OutputDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return models.ExportedFile{}, fmt.Errorf("failed to write %s: %w", filename, err)
	}
	e.logger.LogFileOperation("write", filename, int64(len(data)), nil)

	return models.ExportedFile{
		Filename:    filename,
		Format:      format,
		SizeBytes:   int64(len(data)),
		Path:        path,
		DownloadURL: e.config.DownloadPrefix + "/files/" + filename,
	}, nil
}

func (e *Exporter) rollback(files []models.ExportedFile) {
	for _, f := range files {
		err := os.Remove(f.Path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			e.logger.LogFileOperation("rollback", f.Filename, f.SizeBytes, err)
		}
	}
}
