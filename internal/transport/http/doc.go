// Package http implements the HTTP handlers of the eventkpi web service.
// Handlers stay thin: they decode and validate the request, call the
// service layer and render the result.
//
// # Routes
//
// ComparisonHandler.Routes is mounted under /api/v1:
//
//	POST   /datasets/{slot}          multipart upload: file, year, reference_date
//	PATCH  /datasets/{slot}          relabel a loaded dataset
//	DELETE /datasets/{slot}          unload a dataset
//	GET    /datasets                 list loaded datasets
//	POST   /comparison               compute snapshots, deltas and trends
//	GET    /comparison/export        summary as csv or xlsx
//	GET    /job-classifications      values for the job filter
//	POST   /session/save             persist both datasets
//	POST   /session/load             restore the persisted datasets
//
// HealthHandler serves /healthz, /readyz, /livez and /version.
//
// # Error Handling
//
// Every error is written by errors.ErrorHandler as RFC 7807 problem
// details. Service sentinels are mapped first:
//
//	services.ErrInvalidSlot, ErrInvalidYear  400 VALIDATION_FAILED
//	services.ErrDatasetMissing               404 DATASET_NOT_FOUND
//	services.ErrNoDatasets                   409 CONFLICT
//	services.ErrNoSavedState                 404 STATE_NOT_FOUND
//
// Loader errors keep their own mapping: a missing date column or an
// unparseable date is a 422, and a failed save or load is a 502.
//
// # Testing
//
// Handlers are tested with httptest against a real ComparisonService, and
// with a testify mock of ComparisonServiceInterface for error paths.
package http
