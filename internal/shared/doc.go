// Package shared holds helpers used across the eventkpi packages that
// belong to no single layer.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler, a slog.Handler that records log output for assertions
//	- Registration export fixtures as rows, CSV text or files on disk
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteRegistrationCSV(t, "reg.csv", testutil.SampleRegistrations(2024))
//	    ...
//	    testutil.AssertNoErrors(t, logs)
//	}
//
// Nothing here may import business packages.
package shared
