package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"eventkpi/internal/dataprocessing"
	apperrors "eventkpi/internal/errors"
	"eventkpi/internal/exporter"
	"eventkpi/internal/infrastructure"
	"eventkpi/internal/kpi"
	"eventkpi/internal/storage"
	api "eventkpi/pkg/contracts/api/v1"
	"eventkpi/pkg/contracts/domain"
)

// Year bounds accepted for dataset labels
const (
	MinYear = 2000
	MaxYear = 2030
)

// DatasetLoader parses registration exports
type DatasetLoader interface {
	storage.TableLoader
	LoadCSV(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error)
	LoadXLSX(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error)
}

// Comparer computes a comparison for one context
type Comparer interface {
	Compare(ctx context.Context, cc domain.ComparisonContext) (*domain.ComparisonResult, error)
}

// ComparisonServiceConfig configures persistence of the session
type ComparisonServiceConfig struct {
	StateKey     string
	StoreTimeout time.Duration
}

// ComparisonService owns the session: the two loaded sides and the most
// recent result. Every comparison runs on a snapshot of the session.
type ComparisonService struct {
	loader  DatasetLoader
	engine  Comparer
	store   storage.BlobStore
	metrics *infrastructure.BusinessMetrics
	cfg     ComparisonServiceConfig
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	sides map[domain.Slot]domain.Side
	last  *domain.ComparisonResult
}

// NewComparisonService creates the service. store may be nil when
// persistence is disabled.
func NewComparisonService(loader DatasetLoader, engine Comparer, store storage.BlobStore, metrics *infrastructure.BusinessMetrics, cfg ComparisonServiceConfig, logger *slog.Logger) *ComparisonService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}
	if cfg.StateKey == "" {
		cfg.StateKey = "event_comparison_state"
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 15 * time.Second
	}

	backend := "none"
	if store != nil {
		backend = store.Name()
	}
	logger = logger.With(slog.String("component", "comparison_service"))
	logger.Info("ComparisonService initialized",
		slog.String("storage_backend", backend),
		slog.String("state_key", cfg.StateKey))

	return &ComparisonService{
		loader:  loader,
		engine:  engine,
		store:   store,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		sides:   make(map[domain.Slot]domain.Side),
	}
}

// ParseSlot validates a slot name
func ParseSlot(s string) (domain.Slot, error) {
	switch domain.Slot(s) {
	case domain.SlotA, domain.SlotB:
		return domain.Slot(s), nil
	default:
		return "", ErrInvalidSlot
	}
}

func validateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: got %d", ErrInvalidYear, year)
	}
	return nil
}

// Upload parses an export and installs it in slot, replacing any previous
// dataset there
func (s *ComparisonService) Upload(ctx context.Context, slot domain.Slot, name string, r io.Reader, year int, ref *time.Time) (api.DatasetSummary, error) {
	if _, err := ParseSlot(string(slot)); err != nil {
		return api.DatasetSummary{}, err
	}
	if err := validateYear(year); err != nil {
		return api.DatasetSummary{}, err
	}

	var ds *domain.Dataset
	var err error
	if dataprocessing.IsSpreadsheet(name) {
		ds, err = s.loader.LoadXLSX(ctx, name, r)
	} else {
		ds, err = s.loader.LoadCSV(ctx, name, r)
	}
	infrastructure.RecordDatasetLoad(ctx, s.metrics, string(slot), ds.Len(), errors.Is(err, apperrors.ErrDateParse), err)
	if err != nil {
		s.logger.WarnContext(ctx, "dataset rejected",
			slog.String("slot", string(slot)),
			slog.String("name", name),
			slog.String("error", err.Error()))
		return api.DatasetSummary{}, err
	}

	side := domain.Side{Dataset: ds, Label: year, ReferenceDate: ref}

	s.mu.Lock()
	s.sides[slot] = side
	s.last = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset loaded",
		slog.String("slot", string(slot)),
		slog.String("name", name),
		slog.Int("rows", ds.Len()),
		slog.Int("year", year),
		slog.String("date_column", ds.DateColumn),
		slog.String("date_layout", ds.DateLayout))

	return api.NewDatasetSummary(slot, side), nil
}

// UpdateSide changes the year label and reference date of a loaded slot
func (s *ComparisonService) UpdateSide(ctx context.Context, slot domain.Slot, year int, ref *time.Time) (api.DatasetSummary, error) {
	if err := validateYear(year); err != nil {
		return api.DatasetSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	side, ok := s.sides[slot]
	if !ok {
		return api.DatasetSummary{}, ErrDatasetMissing
	}
	side.Label = year
	side.ReferenceDate = ref
	s.sides[slot] = side
	s.last = nil

	s.logger.InfoContext(ctx, "dataset parameters updated",
		slog.String("slot", string(slot)),
		slog.Int("year", year))
	return api.NewDatasetSummary(slot, side), nil
}

// Remove unloads slot
func (s *ComparisonService) Remove(ctx context.Context, slot domain.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sides[slot]; !ok {
		return ErrDatasetMissing
	}
	delete(s.sides, slot)
	s.last = nil

	s.logger.InfoContext(ctx, "dataset removed", slog.String("slot", string(slot)))
	return nil
}

// List summarizes the loaded datasets in slot order
func (s *ComparisonService) List(ctx context.Context) []api.DatasetSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.DatasetSummary, 0, 2)
	for _, slot := range []domain.Slot{domain.SlotA, domain.SlotB} {
		if side, ok := s.sides[slot]; ok {
			out = append(out, api.NewDatasetSummary(slot, side))
		}
	}
	return out
}

// LoadedSlots returns how many slots hold a dataset
func (s *ComparisonService) LoadedSlots() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sides)
}

// snapshot returns both sides, or ErrNoDatasets when either is missing
func (s *ComparisonService) snapshot() (domain.Side, domain.Side, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, okA := s.sides[domain.SlotA]
	b, okB := s.sides[domain.SlotB]
	if !okA || !okB {
		return domain.Side{}, domain.Side{}, ErrNoDatasets
	}
	return a, b, nil
}

// Compare runs a comparison of the loaded datasets with the parameters of req
func (s *ComparisonService) Compare(ctx context.Context, req api.ComparisonRequest) (*domain.ComparisonResult, error) {
	a, b, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	policy, filters, axis := req.ToPolicy()
	cc := domain.ComparisonContext{A: a, B: b, Cutoff: policy, Filters: filters, Axis: axis}

	start := time.Now()
	result, err := s.engine.Compare(ctx, cc)
	infrastructure.RecordComparison(ctx, s.metrics, string(policy.Mode), time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "comparison completed",
		slog.String("cutoff_mode", string(policy.Mode)),
		slog.Time("cutoff_a", result.CutoffA),
		slog.Time("cutoff_b", result.CutoffB),
		slog.Bool("ranges_overlap", result.Overlap.Overlaps),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}

// LastResult returns the most recent comparison, or nil after any change
// to the session
func (s *ComparisonService) LastResult() *domain.ComparisonResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Export writes the summary of the latest comparison to w, computing one
// with default parameters when none is current. It returns the suggested
// file name.
func (s *ComparisonService) Export(ctx context.Context, format exporter.Format, w io.Writer) (string, error) {
	result := s.LastResult()
	if result == nil {
		var err error
		if result, err = s.Compare(ctx, api.ComparisonRequest{}); err != nil {
			return "", err
		}
	}

	if err := exporter.Write(w, result, format); err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	infrastructure.RecordExport(ctx, s.metrics, string(format))
	return exporter.FileName(result, format), nil
}

// JobClassifications lists the distinct job classifications of the loaded
// datasets
func (s *ComparisonService) JobClassifications(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var datasets []*domain.Dataset
	for _, slot := range []domain.Slot{domain.SlotA, domain.SlotB} {
		if side, ok := s.sides[slot]; ok {
			datasets = append(datasets, side.Dataset)
		}
	}
	return kpi.JobClassifications(datasets...)
}

// StorageBackend names the configured blob store, or "none"
func (s *ComparisonService) StorageBackend() string {
	if s.store == nil {
		return "none"
	}
	return s.store.Name()
}

// Save persists both sides under the state key. In-memory state is never
// changed by a failed save.
func (s *ComparisonService) Save(ctx context.Context) (api.SessionResponse, error) {
	if s.store == nil {
		return api.SessionResponse{}, apperrors.ErrStorageDisabled
	}

	s.mu.RLock()
	a, b := s.sides[domain.SlotA], s.sides[domain.SlotB]
	s.mu.RUnlock()

	savedAt := s.now().UTC()
	data, err := storage.EncodeState(a, b, savedAt)
	if err != nil {
		return api.SessionResponse{}, apperrors.NewPersistenceError("encode", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	err = s.store.Save(ctx, s.cfg.StateKey, data)
	infrastructure.RecordPersistence(ctx, s.metrics, s.store.Name(), "save", err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save state",
			slog.String("backend", s.store.Name()),
			slog.String("error", err.Error()))
		return api.SessionResponse{}, apperrors.NewPersistenceError("save", err)
	}

	s.logger.InfoContext(ctx, "state saved",
		slog.String("backend", s.store.Name()),
		slog.Int("bytes", len(data)))

	return api.SessionResponse{
		Key:      s.cfg.StateKey,
		Backend:  s.store.Name(),
		SavedAt:  savedAt,
		Datasets: s.List(ctx),
	}, nil
}

// Load replaces the session with the persisted state. Sides absent from
// the blob are cleared.
func (s *ComparisonService) Load(ctx context.Context) (api.SessionResponse, error) {
	if s.store == nil {
		return api.SessionResponse{}, apperrors.ErrStorageDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	data, err := s.store.Load(ctx, s.cfg.StateKey)
	infrastructure.RecordPersistence(ctx, s.metrics, s.store.Name(), "load", err)
	if errors.Is(err, storage.ErrNotFound) {
		return api.SessionResponse{}, ErrNoSavedState
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load state",
			slog.String("backend", s.store.Name()),
			slog.String("error", err.Error()))
		return api.SessionResponse{}, apperrors.NewPersistenceError("load", err)
	}

	a, b, savedAt, err := storage.DecodeState(ctx, data, s.loader)
	if err != nil {
		return api.SessionResponse{}, apperrors.NewPersistenceError("decode", err)
	}

	s.mu.Lock()
	s.sides = make(map[domain.Slot]domain.Side)
	if a.Dataset != nil {
		s.sides[domain.SlotA] = a
	}
	if b.Dataset != nil {
		s.sides[domain.SlotB] = b
	}
	s.last = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "state loaded",
		slog.String("backend", s.store.Name()),
		slog.Time("saved_at", savedAt))

	return api.SessionResponse{
		Key:      s.cfg.StateKey,
		Backend:  s.store.Name(),
		SavedAt:  savedAt,
		Datasets: s.List(ctx),
	}, nil
}
