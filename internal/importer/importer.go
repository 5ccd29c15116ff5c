// Package importer creates cards in bulk from spreadsheets and CSV files.
//
// Each row holds a topic path ("Languages/Spanish"), a front and an optional
// back. Topics along the path are created on demand. A bad row is recorded in
// the Result and the import carries on with the next one.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/platform/logger"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/xuri/excelize/v2"
)

// Column positions within a row.
const (
	colTopic = iota
	colFront
	colBack
)

// ErrUnsupportedFile is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFile = fmt.Errorf("%w: unsupported import file", domain.ErrValidation)

// Options controls how rows are read.
type Options struct {
	// Sheet selects the worksheet of a spreadsheet. Empty means the first sheet.
	Sheet string
	// SkipHeader ignores the first row.
	SkipHeader bool
}

// RowError records why a row was not imported. Row is 1-based.
type RowError struct {
	Row int   `json:"row"`
	Err error `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result summarizes an import.
type Result struct {
	Rows          int        `json:"rows"`
	Created       int        `json:"created"`
	Skipped       int        `json:"skipped"`
	TopicsCreated int        `json:"topics_created"`
	Errors        []RowError `json:"-"`
}

// Importer turns rows into topics and cards.
type Importer struct {
	topics service.TopicService
	cards  service.CardService
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(topics service.TopicService, cards service.CardService, logger *slog.Logger) (*Importer, error) {
	if topics == nil {
		return nil, errors.New("topic service cannot be nil")
	}
	if cards == nil {
		return nil, errors.New("card service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		topics: topics,
		cards:  cards,
		logger: logger.With(slog.String("component", "importer")),
	}, nil
}

// ImportFile imports a .xlsx or .csv file, chosen by extension.
func (im *Importer) ImportFile(ctx context.Context, path string, opts Options) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" && ext != ".csv" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if ext == ".csv" {
		return im.ImportCSV(ctx, f, opts)
	}
	return im.ImportXLSX(ctx, f, opts)
}

// ImportXLSX imports rows from a spreadsheet.
func (im *Importer) ImportXLSX(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open spreadsheet: %w", ErrUnsupportedFile, err)
	}
	defer func() { _ = f.Close() }()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &Result{}, nil
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return im.importRows(ctx, rows, opts)
}

// ImportCSV imports rows from CSV. Rows may have a varying number of fields.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return im.importRows(ctx, rows, opts)
}

func (im *Importer) importRows(ctx context.Context, rows [][]string, opts Options) (*Result, error) {
	log := logger.FromContextOrDefault(ctx, im.logger)

	before, err := im.topics.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	topicIDs := make(map[string]uuid.UUID)

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if i == 0 && opts.SkipHeader {
			continue
		}
		if blank(row) {
			continue
		}
		result.Rows++

		if err := im.importRow(ctx, row, topicIDs); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: i + 1, Err: err})
			log.Debug("skipping import row", slog.Int("row", i+1), slog.String("error", err.Error()))
			continue
		}
		result.Created++
	}

	after, err := im.topics.List(ctx)
	if err != nil {
		return nil, err
	}
	result.TopicsCreated = len(after) - len(before)

	log.Info("import finished",
		slog.Int("rows", result.Rows),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("topics_created", result.TopicsCreated))
	return result, nil
}

func (im *Importer) importRow(ctx context.Context, row []string, topicIDs map[string]uuid.UUID) error {
	path := cell(row, colTopic)
	front := cell(row, colFront)
	back := cell(row, colBack)

	if front == "" {
		return domain.ErrCardFrontEmpty
	}

	key := strings.ToLower(strings.Join(service.SplitTopicPath(path), "/"))
	topicID, ok := topicIDs[key]
	if !ok {
		topic, err := im.topics.EnsurePath(ctx, path)
		if err != nil {
			return err
		}
		topicID = topic.ID
		topicIDs[key] = topicID
	}

	_, err := im.cards.Create(ctx, topicID, front, back)
	return err
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
