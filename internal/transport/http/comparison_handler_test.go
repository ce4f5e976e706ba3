package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"eventkpi/internal/dataprocessing"
	apierrors "eventkpi/internal/errors"
	"eventkpi/internal/exporter"
	"eventkpi/internal/kpi"
	"eventkpi/internal/middleware"
	"eventkpi/internal/services"
	"eventkpi/internal/shared/testutil"
	"eventkpi/internal/storage"
	api "eventkpi/pkg/contracts/api/v1"
	"eventkpi/pkg/contracts/domain"
)

// newTestRouter mounts the handler on a real service backed by store
func newTestRouter(t *testing.T, store storage.BlobStore) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger, false)

	loader := dataprocessing.NewLoader(logger, dataprocessing.DefaultLoaderConfig())
	svc := services.NewComparisonService(loader, kpi.NewEngine(logger, nil), store, nil, services.ComparisonServiceConfig{}, logger)
	h := NewComparisonHandler(svc, middleware.NewValidationMiddleware(logger, eh), logger, eh)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/v1", h.Routes())
	return r
}

func uploadRequest(t *testing.T, slot, filename, body string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, body)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/"+slot, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadYear(t *testing.T, h http.Handler, slot string, year string) {
	t.Helper()
	y := map[string]int{"2023": 2023, "2024": 2024}[year]
	csv := testutil.RegistrationCSV(testutil.SampleRegistrations(y))
	rec := serve(h, uploadRequest(t, slot, "export.csv", csv, map[string]string{"year": year}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func problemCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	code, _ := body["error_code"].(string)
	return code
}

func TestComparisonHandler_Upload(t *testing.T) {
	h := newTestRouter(t, nil)
	csv := testutil.RegistrationCSV(testutil.SampleRegistrations(2024))

	rec := serve(h, uploadRequest(t, "a", "export.csv", csv, map[string]string{"year": "2024", "reference_date": "2024-01-20"}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var summary api.DatasetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, domain.SlotA, summary.Slot)
	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, 4, summary.Rows)
	require.NotNil(t, summary.ReferenceDate)
	assert.Equal(t, "2024-01-20", *summary.ReferenceDate)

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list api.DatasetListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Datasets, 1)
}

func TestComparisonHandler_UploadErrors(t *testing.T) {
	h := newTestRouter(t, nil)
	csv := testutil.RegistrationCSV(testutil.SampleRegistrations(2024))

	tests := []struct {
		name     string
		slot     string
		filename string
		body     string
		fields   map[string]string
		wantCode int
		wantErr  string
	}{
		{name: "unknown slot", slot: "c", filename: "export.csv", body: csv, fields: map[string]string{"year": "2024"}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "missing file", slot: "a", fields: map[string]string{"year": "2024"}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "year not a number", slot: "a", filename: "export.csv", body: csv, fields: map[string]string{"year": "next"}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "year out of range", slot: "a", filename: "export.csv", body: csv, fields: map[string]string{"year": "1999"}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "bad reference date", slot: "b", filename: "export.csv", body: csv, fields: map[string]string{"year": "2024", "reference_date": "20/01/2024"}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_FAILED"},
		{name: "no date column", slot: "a", filename: "export.csv", body: "Email Address\nx@y.z\n", fields: map[string]string{"year": "2024"}, wantCode: http.StatusUnprocessableEntity, wantErr: "COLUMN_NOT_FOUND"},
		{name: "unparseable dates", slot: "a", filename: "export.csv", body: "Timestamp\nnot a date\n", fields: map[string]string{"year": "2024"}, wantCode: http.StatusUnprocessableEntity, wantErr: "DATE_PARSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, uploadRequest(t, tt.slot, tt.filename, tt.body, tt.fields))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, problemCode(t, rec))
		})
	}
}

func TestComparisonHandler_NotMultipart(t *testing.T) {
	h := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets/a", strings.NewReader(`{"year":2024}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(h, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComparisonHandler_UploadTooLarge(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	eh := apierrors.NewErrorHandler(logger, false)
	loader := dataprocessing.NewLoader(logger, dataprocessing.DefaultLoaderConfig())
	svc := services.NewComparisonService(loader, kpi.NewEngine(logger, nil), nil, nil, services.ComparisonServiceConfig{}, logger)
	h := NewComparisonHandler(svc, middleware.NewValidationMiddleware(logger, eh), logger, eh)

	r := chi.NewRouter()
	r.Use(middleware.MaxBodySize(256))
	r.Mount("/api/v1", h.Routes())

	csv := testutil.RegistrationCSV(testutil.SampleRegistrations(2024))
	rec := serve(r, uploadRequest(t, "a", "export.csv", strings.Repeat(csv, 10), map[string]string{"year": "2024"}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestComparisonHandler_CompareFlow(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/comparison", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", problemCode(t, rec))

	uploadYear(t, h, "a", "2023")
	uploadYear(t, h, "b", "2024")

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/comparison", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		YearA      int               `json:"year_a"`
		YearB      int               `json:"year_b"`
		Deltas     []domain.KpiDelta `json:"deltas"`
		ComputedAt time.Time         `json:"computed_at"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2023, resp.YearA)
	assert.Equal(t, 2024, resp.YearB)
	require.NotEmpty(t, resp.Deltas)
	assert.Equal(t, domain.KpiAttendees, resp.Deltas[0].Name)
	assert.Equal(t, 4, resp.Deltas[0].A)
	assert.False(t, resp.ComputedAt.IsZero())

	body := `{"cutoff_mode":"days_before","days_before":400}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comparison", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/comparison", strings.NewReader(`{"cutoff_mode":`))
	req.Header.Set("Content-Type", "application/json")
	rec = serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", problemCode(t, rec))

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/job-classifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs api.JobClassificationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	assert.NotEmpty(t, jobs.JobClassifications)
}

func TestComparisonHandler_Export(t *testing.T) {
	h := newTestRouter(t, nil)
	uploadYear(t, h, "a", "2023")
	uploadYear(t, h, "b", "2024")

	tests := []struct {
		name        string
		query       string
		wantCode    int
		wantType    string
		wantFile    string
		wantContent string
	}{
		{name: "default csv", query: "", wantCode: http.StatusOK, wantType: "text/csv", wantFile: "kpi_comparison_2023_vs_2024.csv", wantContent: "Attendees,4,4,0.0"},
		{name: "xlsx", query: "?format=xlsx", wantCode: http.StatusOK, wantType: "spreadsheetml", wantFile: "kpi_comparison_2023_vs_2024.xlsx"},
		{name: "unknown format", query: "?format=pdf", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/comparison/export"+tt.query, nil))
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantType)
			assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.wantFile)
			if tt.wantContent != "" {
				assert.Contains(t, rec.Body.String(), tt.wantContent)
			}
		})
	}
}

func TestComparisonHandler_UpdateAndDelete(t *testing.T) {
	h := newTestRouter(t, nil)

	patch := func(slot, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/datasets/"+slot, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return serve(h, req)
	}

	rec := patch("a", `{"year":2022}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "DATASET_NOT_FOUND", problemCode(t, rec))

	uploadYear(t, h, "a", "2023")

	rec = patch("a", `{"year":2022,"reference_date":"2022-02-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var summary api.DatasetSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2022, summary.Year)

	rec = patch("a", `{"year":1800}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/a", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(h, httptest.NewRequest(http.MethodDelete, "/api/v1/datasets/a", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComparisonHandler_Session(t *testing.T) {
	t.Run("storage disabled", func(t *testing.T) {
		h := newTestRouter(t, nil)
		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/session/save", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "STORAGE_DISABLED", problemCode(t, rec))
	})

	t.Run("file store round trip", func(t *testing.T) {
		store := storage.NewFileStore(filepath.Join(t.TempDir(), "state.json"), nil)
		h := newTestRouter(t, store)

		rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/session/load", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "STATE_NOT_FOUND", problemCode(t, rec))

		uploadYear(t, h, "a", "2023")
		uploadYear(t, h, "b", "2024")

		rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/session/save", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		fresh := newTestRouter(t, store)
		rec = serve(fresh, httptest.NewRequest(http.MethodPost, "/api/v1/session/load", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var session api.SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
		assert.Equal(t, "file", session.Backend)
		assert.Len(t, session.Datasets, 2)
	})
}

type mockComparisonService struct {
	mock.Mock
}

func (m *mockComparisonService) Upload(ctx context.Context, slot domain.Slot, name string, r io.Reader, year int, ref *time.Time) (api.DatasetSummary, error) {
	args := m.Called(ctx, slot, name, r, year, ref)
	return args.Get(0).(api.DatasetSummary), args.Error(1)
}

func (m *mockComparisonService) UpdateSide(ctx context.Context, slot domain.Slot, year int, ref *time.Time) (api.DatasetSummary, error) {
	args := m.Called(ctx, slot, year, ref)
	return args.Get(0).(api.DatasetSummary), args.Error(1)
}

func (m *mockComparisonService) Remove(ctx context.Context, slot domain.Slot) error {
	return m.Called(ctx, slot).Error(0)
}

func (m *mockComparisonService) List(ctx context.Context) []api.DatasetSummary {
	return m.Called(ctx).Get(0).([]api.DatasetSummary)
}

func (m *mockComparisonService) Compare(ctx context.Context, req api.ComparisonRequest) (*domain.ComparisonResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*domain.ComparisonResult)
	return result, args.Error(1)
}

func (m *mockComparisonService) Export(ctx context.Context, format exporter.Format, w io.Writer) (string, error) {
	args := m.Called(ctx, format, w)
	return args.String(0), args.Error(1)
}

func (m *mockComparisonService) JobClassifications(ctx context.Context) []string {
	values, _ := m.Called(ctx).Get(0).([]string)
	return values
}

func (m *mockComparisonService) Save(ctx context.Context) (api.SessionResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.SessionResponse), args.Error(1)
}

func (m *mockComparisonService) Load(ctx context.Context) (api.SessionResponse, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.SessionResponse), args.Error(1)
}

func TestComparisonHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "persistence", err: apierrors.NewPersistenceError("save", errors.New("connection refused")), wantCode: http.StatusBadGateway, wantErr: "PERSISTENCE"},
		{name: "no saved state", err: services.ErrNoSavedState, wantCode: http.StatusNotFound, wantErr: "STATE_NOT_FOUND"},
		{name: "storage disabled", err: apierrors.ErrStorageDisabled, wantCode: http.StatusServiceUnavailable, wantErr: "STORAGE_DISABLED"},
		{name: "unexpected", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockComparisonService)
			svc.On("Save", mock.Anything).Return(api.SessionResponse{}, tt.err)

			eh := apierrors.NewErrorHandler(nil, false)
			h := NewComparisonHandler(svc, middleware.NewValidationMiddleware(nil, eh), nil, eh)

			rec := serve(h.Routes(), httptest.NewRequest(http.MethodPost, "/session/save", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, problemCode(t, rec))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestComparisonHandler_EmptyJobClassifications(t *testing.T) {
	svc := new(mockComparisonService)
	svc.On("JobClassifications", mock.Anything).Return(nil)

	eh := apierrors.NewErrorHandler(nil, false)
	h := NewComparisonHandler(svc, middleware.NewValidationMiddleware(nil, eh), nil, eh)

	rec := serve(h.Routes(), httptest.NewRequest(http.MethodGet, "/job-classifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"job_classifications":[]}`, rec.Body.String())
}
