package services

import "errors"

// Comparison service errors
var (
	// Session errors
	ErrInvalidSlot    = errors.New("slot must be \"a\" or \"b\"")
	ErrDatasetMissing = errors.New("dataset has not been uploaded")
	ErrNoDatasets     = errors.New("both datasets must be uploaded before comparing")

	// Parameter errors
	ErrInvalidYear = errors.New("year must be between 2000 and 2030")

	// Persistence errors
	ErrNoSavedState = errors.New("no saved comparison state")
)
