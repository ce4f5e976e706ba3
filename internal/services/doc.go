// Package services implements the business logic layer of eventkpi.
// It sits between the HTTP handlers and the loader, KPI engine and blob
// store, so that the session rules live in one place and can be tested
// without a server.
//
// # Session
//
// ComparisonService holds the only mutable state of the application: the
// dataset loaded in each slot ("a" and "b") and the most recent result.
// Any change to a slot discards that result. A comparison copies both
// sides under the lock and computes outside it, so uploads never block on
// a running comparison.
//
// # Service Pattern
//
// Services take their collaborators as interfaces and a *slog.Logger:
//
//	svc := NewComparisonService(loader, engine, store, metrics, cfg, logger)
//	result, err := svc.Compare(ctx, api.ComparisonRequest{DaysBefore: 30, CutoffMode: "days_before"})
//
// # Error Handling
//
// Services return the sentinels of errors.go for session problems and
// *errors.AppError values from the lower layers unchanged. Handlers turn
// both into problem responses.
//
// # Testing
//
// Collaborators are replaced with testify mocks:
//
//	engine := new(MockComparer)
//	engine.On("Compare", mock.Anything, mock.Anything).Return(result, nil)
package services
