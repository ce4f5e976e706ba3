package http

import (
	"context"
	"io"
	"time"

	"eventkpi/internal/exporter"
	api "eventkpi/pkg/contracts/api/v1"
	"eventkpi/pkg/contracts/domain"
)

// ComparisonServiceInterface defines the session operations the handler needs
type ComparisonServiceInterface interface {
	Upload(ctx context.Context, slot domain.Slot, name string, r io.Reader, year int, ref *time.Time) (api.DatasetSummary, error)
	UpdateSide(ctx context.Context, slot domain.Slot, year int, ref *time.Time) (api.DatasetSummary, error)
	Remove(ctx context.Context, slot domain.Slot) error
	List(ctx context.Context) []api.DatasetSummary
	Compare(ctx context.Context, req api.ComparisonRequest) (*domain.ComparisonResult, error)
	Export(ctx context.Context, format exporter.Format, w io.Writer) (string, error)
	JobClassifications(ctx context.Context) []string

	// Persistence
	Save(ctx context.Context) (api.SessionResponse, error)
	Load(ctx context.Context) (api.SessionResponse, error)
}
