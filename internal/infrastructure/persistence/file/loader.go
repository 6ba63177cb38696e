// Package file loads the roster dataset and the admin registry from
// local files. It is the default storage backend; postgres is the
// alternative for deployments that keep the roster in a database.
package file

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/edscope/edscope/internal/domain/roster"
	"github.com/edscope/edscope/internal/domain/shared"
)

// Format selects the dataset encoding.
type Format string

const (
	FormatAuto Format = "auto" // decide by file extension
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Loader reads a roster dataset from a CSV or JSON file and implements
// roster.Source. Malformed rows are skipped with a warning; a dataset
// whose schema is incomplete, or that yields no usable rows, fails the
// whole load.
type Loader struct {
	path   string
	format Format
	logger *slog.Logger
}

// NewLoader creates a loader for the given dataset path.
func NewLoader(path string, format Format, logger *slog.Logger) *Loader {
	if format == "" {
		format = FormatAuto
	}
	return &Loader{
		path:   path,
		format: format,
		logger: logger.With(slog.String("component", "roster_loader")),
	}
}

// Name implements roster.Source.
func (l *Loader) Name() string {
	return "file:" + l.path
}

// Load implements roster.Source.
func (l *Loader) Load(ctx context.Context) (*roster.LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(l.path)
	if err != nil {
		return nil, shared.WrapError("roster", "Load", shared.ErrNotFound,
			"dataset file cannot be opened", err)
	}
	defer f.Close()

	var rows []map[string]string
	switch l.resolveFormat() {
	case FormatCSV:
		rows, err = readCSV(f)
	case FormatJSON:
		rows, err = readJSON(f)
	default:
		return nil, shared.NewDomainError("roster", "Load", shared.ErrInvalidInput,
			fmt.Sprintf("unsupported dataset format for %s", l.path))
	}
	if err != nil {
		return nil, err
	}

	if err := checkSchema(rows); err != nil {
		return nil, err
	}

	records := make([]roster.Record, 0, len(rows))
	var warnings []roster.RowWarning
	for i, row := range rows {
		record, err := roster.NewRecordFromRow(row)
		if err != nil {
			warning := roster.RowWarning{Row: i + 1, Reason: err.Error()}
			warnings = append(warnings, warning)
			l.logger.Warn("skipping malformed dataset row",
				slog.Int("row", warning.Row),
				slog.String("reason", warning.Reason))
			continue
		}
		records = append(records, record)
	}

	table, err := roster.NewTable(records, l.Name(), time.Now())
	if err != nil {
		return nil, err
	}

	l.logger.Info("roster dataset loaded",
		slog.String("path", l.path),
		slog.Int("records", table.Len()),
		slog.Int("skipped", len(warnings)))

	return &roster.LoadResult{Table: table, Warnings: warnings}, nil
}

func (l *Loader) resolveFormat() Format {
	if l.format != FormatAuto {
		return l.format
	}
	switch strings.ToLower(filepath.Ext(l.path)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	default:
		return Format("")
	}
}

// checkSchema verifies every required column appears somewhere in the
// dataset. A column missing from all rows is a schema error; a column
// missing from some rows is handled per-row during normalization.
func checkSchema(rows []map[string]string) error {
	if len(rows) == 0 {
		return shared.ErrNoUsableRows
	}
	present := make(map[string]bool)
	for _, row := range rows {
		for col := range row {
			present[col] = true
		}
	}
	var missing []string
	for _, col := range roster.RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return shared.WrapError("roster", "Load", shared.ErrSchemaValidation,
			"required columns are missing",
			fmt.Errorf("missing: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, shared.WrapError("roster", "Load", shared.ErrSchemaValidation,
			"dataset has no header row", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows []map[string]string
	for {
		values, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, shared.WrapError("roster", "Load", shared.ErrInvalidFormat,
				"dataset CSV is unreadable", err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(values) {
				row[col] = values[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readJSON(r io.Reader) ([]map[string]string, error) {
	var raw []map[string]any
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		return nil, shared.WrapError("roster", "Load", shared.ErrInvalidFormat,
			"dataset JSON is unreadable", err)
	}

	rows := make([]map[string]string, 0, len(raw))
	for _, obj := range raw {
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			row[strings.ToLower(k)] = stringifyJSONValue(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stringifyJSONValue renders a JSON scalar the way the row normalizer
// expects it. Numbers drop their trailing ".0" so integer grades survive.
func stringifyJSONValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
