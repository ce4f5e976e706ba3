package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"eventkpi/internal/config"
	"eventkpi/pkg/contracts/domain"
)

// FileExporter saves summaries to disk. Relative paths resolve against
// the exports directory.
type FileExporter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewFileExporter creates an exporter rooted at paths.ExportsDir. With nil
// paths, relative names resolve against the working directory.
func NewFileExporter(paths *config.Paths, logger *slog.Logger) *FileExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExporter{paths: paths, logger: logger.With(slog.String("component", "exporter"))}
}

// Save writes the summary of result to filePath in format f and returns the
// absolute path written
func (e *FileExporter) Save(filePath string, result *domain.ComparisonResult, f Format) (string, error) {
	fullPath, err := e.resolvePath(filePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, result, f); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	e.logger.Info("summary exported",
		slog.String("path", fullPath),
		slog.String("format", string(f)),
		slog.Int("kpis", len(result.Deltas)))
	return fullPath, nil
}

func (e *FileExporter) resolvePath(filePath string) (string, error) {
	if filepath.IsAbs(filePath) {
		return filePath, nil
	}
	if e.paths != nil && e.paths.ExportsDir != "" {
		return e.paths.GetExportPath(filePath), nil
	}
	return filepath.Abs(filePath)
}
