package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"eventkpi/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool
}

// WriteCSVTo writes headers and records to out
func WriteCSVTo(out io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteSummaryCSV writes the KPI summary of result to out
func WriteSummaryCSV(out io.Writer, result *domain.ComparisonResult) error {
	return WriteCSVTo(out, WriteOptions{
		Headers:   SummaryHeader(result),
		Records:   Records(result),
		BOMPrefix: true,
	})
}
