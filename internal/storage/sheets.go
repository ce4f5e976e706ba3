package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// MaxSheetCellChars is the Google Sheets per-cell limit
const MaxSheetCellChars = 50000

// MaxSheetChunks bounds how many cells one blob may span
const MaxSheetChunks = 1000

// chunkColumn is the 0-based column of the first blob chunk
const chunkColumn = 3

// SheetsConfig selects the spreadsheet that holds the blobs
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	// ClientOptions replace the credentials option when set
	ClientOptions []option.ClientOption
}

// SheetsStore keeps one row per key: key | updated_at | chunk count |
// chunk 1 | chunk 2 | ... Blobs longer than one cell allows are split
// across consecutive cells.
type SheetsStore struct {
	service *sheets.Service
	cfg     SheetsConfig
	logger  *slog.Logger
}

// NewSheetsStore creates a Sheets client with service account credentials
func NewSheetsStore(ctx context.Context, cfg SheetsConfig, logger *slog.Logger) (*SheetsStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "State"
	}

	opts := cfg.ClientOptions
	if len(opts) == 0 {
		opts = []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsStore{
		service: service,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "sheets_store")),
	}, nil
}

// Name returns the backend name
func (s *SheetsStore) Name() string { return "sheets" }

// Save updates the row holding key or appends a new one
func (s *SheetsStore) Save(ctx context.Context, key string, data []byte) error {
	chunks := splitCells(string(data), MaxSheetCellChars)
	if len(chunks) > MaxSheetChunks {
		return fmt.Errorf("state needs %d cells, over the limit of %d", len(chunks), MaxSheetChunks)
	}

	row, err := s.findRow(ctx, key)
	if err != nil {
		return err
	}

	cells := make([]interface{}, 0, chunkColumn+len(chunks))
	cells = append(cells, key, time.Now().UTC().Format(time.RFC3339), strconv.Itoa(len(chunks)))
	for _, c := range chunks {
		cells = append(cells, c)
	}
	values := &sheets.ValueRange{Values: [][]interface{}{cells}}
	lastColumn := columnName(len(cells))

	if row > 0 {
		rangeStr := fmt.Sprintf("%s!A%d:%s%d", s.cfg.SheetName, row, lastColumn, row)
		_, err = s.service.Spreadsheets.Values.Update(s.cfg.SpreadsheetID, rangeStr, values).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to update state row: %w", err)
		}
		s.logger.DebugContext(ctx, "state row updated",
			slog.String("key", key), slog.Int("row", row), slog.Int("chunks", len(chunks)))
		return nil
	}

	_, err = s.service.Spreadsheets.Values.Append(s.cfg.SpreadsheetID, fmt.Sprintf("%s!A:%s", s.cfg.SheetName, lastColumn), values).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append state row: %w", err)
	}
	s.logger.DebugContext(ctx, "state row appended", slog.String("key", key), slog.Int("chunks", len(chunks)))
	return nil
}

// Load returns the blob under key or ErrNotFound. Only the number of
// chunks recorded in the row is read, so cells left over from a longer
// earlier save are ignored.
func (s *SheetsStore) Load(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.SheetName).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read from sheets: %w", err)
	}

	for _, row := range resp.Values {
		if len(row) < chunkColumn || fmt.Sprint(row[0]) != key {
			continue
		}
		n, err := strconv.Atoi(fmt.Sprint(row[2]))
		if err != nil || n < 0 || n > MaxSheetChunks {
			return nil, fmt.Errorf("state row for %q is malformed", key)
		}
		// Sheets drops trailing empty cells from the response
		var b strings.Builder
		for i := chunkColumn; i < chunkColumn+n && i < len(row); i++ {
			b.WriteString(fmt.Sprint(row[i]))
		}
		return []byte(b.String()), nil
	}
	return nil, ErrNotFound
}

// Close is a no-op
func (s *SheetsStore) Close() error { return nil }

// findRow returns the 1-based row of key, or 0
func (s *SheetsStore) findRow(ctx context.Context, key string) (int, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.cfg.SpreadsheetID, s.cfg.SheetName+"!A:A").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to read from sheets: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == key {
			return i + 1, nil
		}
	}
	return 0, nil
}

// splitCells cuts s into pieces of at most limit characters without
// breaking a multi-byte rune
func splitCells(s string, limit int) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	for len(s) > 0 {
		n, end := 0, 0
		for end < len(s) && n < limit {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			n++
		}
		out = append(out, s[:end])
		s = s[end:]
	}
	return out
}

// columnName converts a 1-based column number to its A1 letters
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}
