package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Columns of the corpus file. The first four are required.
const (
	ColumnID        = "id"
	ColumnSource    = "source"
	ColumnDate      = "date"
	ColumnStatement = "statement"
	ColumnTitle     = "title"
	ColumnURL       = "url"
)

var requiredColumns = []string{ColumnID, ColumnSource, ColumnDate, ColumnStatement}

// CSVSource reads the scraper's facts file:
// id,source,date,statement[,title,url] with a header row.
type CSVSource struct {
	path string
}

var _ Source = (*CSVSource)(nil)

// NewCSVSource creates a Source for the CSV file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

func (s *CSVSource) Name() string {
	return s.path
}

// Statements reads every row with a non-blank statement.
func (s *CSVSource) Statements(ctx context.Context) ([]Statement, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	statements, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return statements, nil
}

// ReadCSV parses corpus rows from r. Header names are matched
// case-insensitively and may appear in any order.
func ReadCSV(ctx context.Context, r io.Reader) ([]Statement, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: file is empty", ErrMissingColumn)
		}
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var statements []Statement
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		text := field(row, ColumnStatement)
		if text == "" {
			continue
		}
		statements = append(statements, Statement{
			ID:     field(row, ColumnID),
			Text:   text,
			Source: field(row, ColumnSource),
			Date:   field(row, ColumnDate),
			Title:  field(row, ColumnTitle),
			URL:    field(row, ColumnURL),
		})
	}
	return statements, nil
}

// WriteCSV writes statements with the full header, in the layout ReadCSV reads.
func WriteCSV(w io.Writer, statements []Statement) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnID, ColumnSource, ColumnDate, ColumnStatement, ColumnTitle, ColumnURL}); err != nil {
		return err
	}
	for _, s := range statements {
		if err := writer.Write([]string{s.ID, s.Source, s.Date, s.Text, s.Title, s.URL}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
