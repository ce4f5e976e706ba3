package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	apperrors "eventkpi/internal/errors"
	"eventkpi/pkg/contracts/domain"
)

// Loader reads registration exports into parsed datasets
type Loader struct {
	logger         *slog.Logger
	dateCandidates []string
	nullValues     []string
}

// LoaderConfig holds configuration options for the Loader.
type LoaderConfig struct {
	DateCandidates []string // Date column names in priority order
	NullValues     []string // Cell values treated as null, compared after trimming
}

// DefaultLoaderConfig returns the standard candidate list and null markers.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		DateCandidates: DateColumnCandidates,
		NullValues:     []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "<nil>"},
	}
}

// NewLoader creates a loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger, config LoaderConfig) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if len(config.DateCandidates) == 0 {
		config.DateCandidates = DateColumnCandidates
	}
	if config.NullValues == nil {
		config.NullValues = DefaultLoaderConfig().NullValues
	}

	return &Loader{
		logger:         logger.With(slog.String("component", "loader")),
		dateCandidates: config.DateCandidates,
		nullValues:     config.NullValues,
	}
}

// LoadFile loads a CSV, TSV or XLSX file chosen by extension
func (l *Loader) LoadFile(ctx context.Context, path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	if IsSpreadsheet(name) {
		return l.LoadXLSX(ctx, name, f)
	}
	return l.LoadCSV(ctx, name, f)
}

// IsSpreadsheet reports whether name looks like an Excel workbook
func IsSpreadsheet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xlsx" || ext == ".xlsm"
}

// LoadCSV reads a delimited export. The encoding and delimiter are detected.
func (l *Loader) LoadCSV(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read upload", err)
	}

	decoded, encodingName, err := DetectAndDecode(data)
	if err != nil {
		return nil, apperrors.NewParsingError("encoding detection failed", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = sniffDelimiter(name, decoded)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("empty file: no header row found", nil)
		}
		return nil, apperrors.NewParsingError("failed to read header row", err)
	}

	var rows [][]string
	skipped := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			l.logger.WarnContext(ctx, "skipping malformed csv row",
				slog.String("name", name),
				slog.String("error", err.Error()))
			continue
		}
		rows = append(rows, row)
	}

	l.logger.DebugContext(ctx, "csv read",
		slog.String("name", name),
		slog.String("encoding", encodingName),
		slog.String("delimiter", string(reader.Comma)),
		slog.Int("rows", len(rows)),
		slog.Int("skipped", skipped))

	return l.LoadTable(ctx, name, header, rows)
}

// LoadXLSX reads the first sheet of a workbook
func (l *Loader) LoadXLSX(ctx context.Context, name string, r io.Reader) (*domain.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil)
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	if len(all) == 0 {
		return nil, apperrors.NewParsingError("empty file: no header row found", nil)
	}

	raw, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	l.restoreDateSerials(all, raw)

	rows := make([][]string, 0, len(all)-1)
	for _, row := range all[1:] {
		if !isBlankRow(row) {
			rows = append(rows, row)
		}
	}

	l.logger.DebugContext(ctx, "workbook read",
		slog.String("name", name),
		slog.String("sheet", sheets[0]),
		slog.Int("rows", len(rows)))

	return l.LoadTable(ctx, name, all[0], rows)
}

// restoreDateSerials replaces date cells that excelize rendered through
// their number format with an ISO timestamp built from the stored serial.
// Only the resolved date column is touched; cells whose display text equals
// the stored value were typed as text and are left alone.
func (l *Loader) restoreDateSerials(formatted, raw [][]string) {
	col, err := ResolveDateColumn(formatted[0], l.dateCandidates)
	if err != nil {
		return
	}
	idx := slices.Index(formatted[0], col)

	for i := 1; i < len(formatted) && i < len(raw); i++ {
		if idx >= len(formatted[i]) || idx >= len(raw[i]) {
			continue
		}
		shown, stored := formatted[i][idx], strings.TrimSpace(raw[i][idx])
		if shown == stored {
			continue
		}
		serial, err := strconv.ParseFloat(stored, 64)
		if err != nil {
			continue
		}
		ts, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			continue
		}
		formatted[i][idx] = ts.Round(time.Second).Format(domain.ISODateTime)
	}
}

// LoadTable builds a dataset from a header and raw rows. Rows are padded
// or truncated to the header width and cells are trimmed.
func (l *Loader) LoadTable(ctx context.Context, name string, header []string, rows [][]string) (*domain.Dataset, error) {
	return l.loadTable(ctx, name, "", header, rows)
}

// LoadTableWithDateColumn is LoadTable with a known date column. It falls
// back to candidate resolution when dateColumn is not in the header.
func (l *Loader) LoadTableWithDateColumn(ctx context.Context, name, dateColumn string, header []string, rows [][]string) (*domain.Dataset, error) {
	return l.loadTable(ctx, name, dateColumn, header, rows)
}

func (l *Loader) loadTable(ctx context.Context, name, preferred string, header []string, rows [][]string) (*domain.Dataset, error) {
	if len(header) == 0 {
		return nil, apperrors.NewParsingError("empty file: no header row found", nil)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("file contains no data rows", nil)
	}

	width := len(header)
	records := make([][]string, 0, len(rows)+1)
	normalized := make([]string, width)
	for i, h := range header {
		normalized[i] = NormalizeHeader(h)
	}
	records = append(records, normalized)
	for _, row := range rows {
		records = append(records, fitRow(row, width))
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(l.nullValues),
	)
	if df.Err != nil {
		return nil, apperrors.NewParsingError("failed to build table", df.Err)
	}

	columns := df.Names()

	candidates := l.dateCandidates
	if preferred != "" {
		candidates = append([]string{preferred}, l.dateCandidates...)
	}
	dateColumn, err := ResolveDateColumn(columns, candidates)
	if err != nil {
		l.logger.WarnContext(ctx, "no date column found",
			slog.String("name", name),
			slog.Any("columns", columns))
		return nil, err
	}

	timestamps, layout, err := ParseDates(dateColumn, columnValues(df, dateColumn))
	if err != nil {
		l.logger.WarnContext(ctx, "date parsing failed",
			slog.String("name", name),
			slog.String("date_column", dateColumn),
			slog.String("error", err.Error()))
		return nil, err
	}

	caps := ResolveCapabilities(columns)
	ds := &domain.Dataset{
		Name:         name,
		DateColumn:   dateColumn,
		DateLayout:   layout,
		Columns:      columns,
		Capabilities: caps,
		Records:      make([]domain.RegistrationRecord, df.Nrow()),
		Rows:         make([][]string, df.Nrow()),
	}

	for i := range ds.Rows {
		ds.Rows[i] = make([]string, len(columns))
	}
	for j, col := range columns {
		for i, v := range columnValues(df, col) {
			ds.Rows[i][j] = v
		}
	}

	for i := range ds.Records {
		ds.Records[i].Timestamp = timestamps[i]
	}
	for _, field := range caps.Present() {
		values := columnValues(df, caps.Column(field))
		for i := range ds.Records {
			setField(&ds.Records[i], field, values[i])
		}
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("name", name),
		slog.Int("rows", ds.Len()),
		slog.String("date_column", dateColumn),
		slog.String("date_layout", layout),
		slog.Any("fields", caps.Present()))

	return ds, nil
}

// columnValues returns a column's cells with nulls as ""
func columnValues(df dataframe.DataFrame, name string) []string {
	col := df.Col(name)
	values := col.Records()
	nan := col.IsNaN()
	for i := range values {
		if nan[i] {
			values[i] = ""
		}
	}
	return values
}

func setField(rec *domain.RegistrationRecord, field domain.Field, value string) {
	switch field {
	case domain.FieldEmail:
		rec.Email = value
	case domain.FieldTitle:
		rec.Title = value
	case domain.FieldGender:
		rec.Gender = value
	case domain.FieldCompany:
		rec.Company = value
	case domain.FieldState:
		rec.State = value
	case domain.FieldJobClassification:
		rec.JobClassification = value
	case domain.FieldRegistrationType:
		rec.RegistrationType = value
	}
}

// fitRow trims cells and pads or truncates to width
func fitRow(row []string, width int) []string {
	out := make([]string, width)
	for i := 0; i < width && i < len(row); i++ {
		out[i] = strings.TrimSpace(row[i])
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sniffDelimiter picks tab for .tsv files and otherwise the most frequent
// of comma, semicolon and tab in the header line.
func sniffDelimiter(name string, data []byte) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}

	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
