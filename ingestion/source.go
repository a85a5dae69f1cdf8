package ingestion

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/factcheck/core"
)

// DefaultSourceName labels statements whose origin is not recorded.
const DefaultSourceName = "PIB"

// Statement is one corpus row before extraction and embedding.
type Statement struct {
	ID     string // numeric corpus id, or empty to derive one from Text
	Text   string
	Source string
	Date   string // any layout accepted by ParseSourceDate
	Title  string
	URL    string
}

// Source yields the statements of one corpus input.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Statements reads every statement. Rows that cannot be used are
	// skipped; an error means the source as a whole could not be read.
	Statements(ctx context.Context) ([]Statement, error)
}

// StaticSource serves a fixed list of statements.
type StaticSource struct {
	name       string
	statements []Statement
}

var _ Source = (*StaticSource)(nil)

// NewStaticSource creates a Source over statements.
func NewStaticSource(name string, statements ...Statement) *StaticSource {
	return &StaticSource{name: name, statements: statements}
}

func (s *StaticSource) Name() string {
	return s.name
}

func (s *StaticSource) Statements(ctx context.Context) ([]Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]Statement(nil), s.statements...), nil
}

// recordID returns the numeric corpus id when there is one and the content
// hash of text otherwise.
func recordID(s Statement) core.ID {
	if id, err := strconv.ParseUint(strings.TrimSpace(s.ID), 10, 64); err == nil {
		return core.ID(id)
	}
	return core.IDFromContent(s.Text)
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"2 January 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseSourceDate converts a press-release date to YYYY-MM-DD.
// Day-first numeric dates are assumed, as printed on PIB releases.
func ParseSourceDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}
