package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "eventkpi/internal/errors"
	"eventkpi/internal/exporter"
	"eventkpi/internal/middleware"
	"eventkpi/internal/services"
	api "eventkpi/pkg/contracts/api/v1"
	"eventkpi/pkg/contracts/domain"
)

type slotKey struct{}

// multipartMemory is held in memory before parts spill to disk
const multipartMemory = 8 << 20

// ComparisonHandler serves the dataset, comparison, export and session
// endpoints
type ComparisonHandler struct {
	service      ComparisonServiceInterface
	validator    middleware.StructValidator
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewComparisonHandler creates a comparison handler with RFC 7807 error
// handling
func NewComparisonHandler(service ComparisonServiceInterface, validator middleware.StructValidator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ComparisonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComparisonHandler{
		service:      service,
		validator:    validator,
		query:        middleware.NewQueryParamValidator(errorHandler),
		logger:       logger.With(slog.String("component", "comparison_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the /api/v1 routes
func (h *ComparisonHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/datasets", h.ListDatasets)
	r.Route("/datasets/{slot}", func(r chi.Router) {
		r.Use(h.SlotCtx)
		r.Post("/", h.UploadDataset)
		r.Patch("/", h.UpdateDataset)
		r.Delete("/", h.DeleteDataset)
	})

	r.Post("/comparison", h.Compare)
	r.Get("/comparison/export", h.Export)
	r.Get("/job-classifications", h.JobClassifications)

	r.Post("/session/save", h.SaveSession)
	r.Post("/session/load", h.LoadSession)

	return r
}

// SlotCtx validates the {slot} parameter and stores it in the context
func (h *ComparisonHandler) SlotCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slot, err := services.ParseSlot(strings.ToLower(chi.URLParam(r, "slot")))
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("slot", err.Error()))
			return
		}
		ctx := context.WithValue(r.Context(), slotKey{}, slot)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func slotFrom(ctx context.Context) domain.Slot {
	slot, _ := ctx.Value(slotKey{}).(domain.Slot)
	return slot
}

// UploadDataset handles POST /api/v1/datasets/{slot}. The body is a
// multipart form with a "file" part and "year" and "reference_date" fields.
func (h *ComparisonHandler) UploadDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slot := slotFrom(ctx)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.handleError(w, r, uploadError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleError(w, r, apierrors.ErrValidation("file", "a registration export is required in the \"file\" field"))
		return
	}
	defer file.Close()

	year, err := strconv.Atoi(strings.TrimSpace(r.FormValue("year")))
	if err != nil {
		h.handleError(w, r, apierrors.ErrValidation("year", "year must be an integer"))
		return
	}

	req := api.DatasetUploadRequest{
		Slot:          string(slot),
		Year:          year,
		ReferenceDate: strings.TrimSpace(r.FormValue("reference_date")),
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	summary, err := h.service.Upload(ctx, slot, header.Filename, file, req.Year, api.ParseDate(req.ReferenceDate))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("slot", string(slot)),
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
		slog.Int("rows", summary.Rows))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summary)
}

// UpdateDataset handles PATCH /api/v1/datasets/{slot}
func (h *ComparisonHandler) UpdateDataset(w http.ResponseWriter, r *http.Request) {
	var req api.DatasetUpdateRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.handleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	summary, err := h.service.UpdateSide(r.Context(), slotFrom(r.Context()), req.Year, api.ParseDate(req.ReferenceDate))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// DeleteDataset handles DELETE /api/v1/datasets/{slot}
func (h *ComparisonHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), slotFrom(r.Context())); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDatasets handles GET /api/v1/datasets
func (h *ComparisonHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.DatasetListResponse{Datasets: h.service.List(r.Context())})
}

// Compare handles POST /api/v1/comparison. An empty body compares with
// the default parameters.
func (h *ComparisonHandler) Compare(w http.ResponseWriter, r *http.Request) {
	var req api.ComparisonRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			h.handleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.service.Compare(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.JSON(w, r, api.ComparisonResponse{ComparisonResult: result, ComputedAt: time.Now().UTC()})
}

// Export handles GET /api/v1/comparison/export?format=csv|xlsx
func (h *ComparisonHandler) Export(w http.ResponseWriter, r *http.Request) {
	name, ok := h.query.ValidateEnum(w, r, "format", []string{string(exporter.FormatCSV), string(exporter.FormatXLSX)}, string(exporter.FormatCSV))
	if !ok {
		return
	}
	format, err := exporter.ParseFormat(name)
	if err != nil {
		h.handleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	var buf bytes.Buffer
	filename, err := h.service.Export(r.Context(), format, &buf)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write interrupted", slog.String("error", err.Error()))
	}
}

// JobClassifications handles GET /api/v1/job-classifications
func (h *ComparisonHandler) JobClassifications(w http.ResponseWriter, r *http.Request) {
	values := h.service.JobClassifications(r.Context())
	if values == nil {
		values = []string{}
	}
	render.JSON(w, r, api.JobClassificationsResponse{JobClassifications: values})
}

// SaveSession handles POST /api/v1/session/save
func (h *ComparisonHandler) SaveSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Save(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// LoadSession handles POST /api/v1/session/load
func (h *ComparisonHandler) LoadSession(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Load(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// handleError maps service sentinels onto API errors and writes the problem
func (h *ComparisonHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	h.errorHandler.HandleError(w, r, toAPIError(err))
}

func toAPIError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidSlot):
		return apierrors.ErrValidation("slot", err.Error())
	case errors.Is(err, services.ErrInvalidYear):
		return apierrors.ErrValidation("year", err.Error())
	case errors.Is(err, services.ErrDatasetMissing):
		return apierrors.ErrDatasetNotFound
	case errors.Is(err, services.ErrNoDatasets):
		return apierrors.New(http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, services.ErrNoSavedState):
		return apierrors.ErrStateNotFound
	default:
		return uploadError(err)
	}
}

// uploadError turns body size overruns into 413
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
			apierrors.ErrPayloadTooLarge.Message, fmt.Sprintf("limit is %d bytes", maxErr.Limit))
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return apierrors.ErrValidation("file", "request must be multipart/form-data")
	}
	return err
}
