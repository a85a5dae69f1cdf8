package ingestion

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxParagraphs     = 4
	maxStatementRunes = 1500
	maxBodyRunes      = 1000
)

// HTMLSource reads a directory of saved press-release pages.
//
// For each .html or .htm file the statement is the first four non-empty
// paragraphs joined by spaces and capped at 1500 characters; pages without
// paragraphs fall back to their body text capped at 1000 characters. The
// title comes from <title>, the date from <meta name="date"> or the file's
// modification time, and the URL from the canonical link or og:url.
type HTMLSource struct {
	dir    string
	source string
	logger *slog.Logger
}

var _ Source = (*HTMLSource)(nil)

// HTMLOption configures an HTMLSource.
type HTMLOption func(*HTMLSource)

// WithSourceName sets the source label of every statement.
// Default is DefaultSourceName.
func WithSourceName(name string) HTMLOption {
	return func(s *HTMLSource) {
		if name != "" {
			s.source = name
		}
	}
}

// WithHTMLLogger sets a custom logger.
// Default is slog.Default().
func WithHTMLLogger(logger *slog.Logger) HTMLOption {
	return func(s *HTMLSource) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewHTMLSource creates a Source over the pages under dir.
func NewHTMLSource(dir string, opts ...HTMLOption) *HTMLSource {
	s := &HTMLSource{
		dir:    dir,
		source: DefaultSourceName,
		logger: slog.Default().With("component", "html-source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTMLSource) Name() string {
	return s.dir
}

// Statements parses every page in lexical path order. Pages that cannot be
// read or carry no text are logged and skipped.
func (s *HTMLSource) Statements(ctx context.Context) ([]Statement, error) {
	var statements []Statement
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isHTMLFile(path) {
			return nil
		}

		statement, err := s.readPage(path, d)
		if err != nil {
			s.logger.Warn("skipping page", "path", path, "err", err)
			return nil
		}
		if statement.Text == "" {
			s.logger.Warn("skipping page with no text", "path", path)
			return nil
		}
		statements = append(statements, statement)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return statements, nil
}

func (s *HTMLSource) readPage(path string, d fs.DirEntry) (Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return Statement{}, err
	}
	defer f.Close()

	statement, err := ParsePressRelease(f)
	if err != nil {
		return Statement{}, err
	}
	statement.Source = s.source

	if date, ok := ParseSourceDate(statement.Date); ok {
		statement.Date = date
	} else if info, err := d.Info(); err == nil {
		statement.Date = info.ModTime().UTC().Format(time.DateOnly)
	}
	return statement, nil
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// ParsePressRelease extracts a statement from one press-release page.
// The returned Date is whatever the page declares, unparsed; it is empty
// when the page has no date metadata.
func ParsePressRelease(r io.Reader) (Statement, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Statement{}, err
	}

	var (
		statement  Statement
		paragraphs []string
		body       *html.Node
	)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				if statement.Title == "" {
					statement.Title = nodeText(n)
				}
				return
			case "meta":
				readMeta(n, &statement)
			case "link":
				if strings.EqualFold(attr(n, "rel"), "canonical") && statement.URL == "" {
					statement.URL = strings.TrimSpace(attr(n, "href"))
				}
			case "body":
				body = n
			case "p":
				if len(paragraphs) < maxParagraphs {
					if text := nodeText(n); text != "" {
						paragraphs = append(paragraphs, text)
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(paragraphs) > 0 {
		statement.Text = truncateRunes(strings.Join(paragraphs, " "), maxStatementRunes)
	} else if body != nil {
		statement.Text = truncateRunes(nodeText(body), maxBodyRunes)
	}
	return statement, nil
}

func readMeta(n *html.Node, statement *Statement) {
	content := strings.TrimSpace(attr(n, "content"))
	if content == "" {
		return
	}
	name := strings.ToLower(attr(n, "name"))
	property := strings.ToLower(attr(n, "property"))

	switch {
	case statement.Date == "" && (name == "date" || name == "dc.date" || property == "article:published_time"):
		statement.Date = content
	case statement.URL == "" && property == "og:url":
		statement.URL = content
	}
}

// nodeText joins the stripped text nodes under n with single spaces.
func nodeText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// truncateRunes cuts s to limit characters and marks the cut with "...".
func truncateRunes(s string, limit int) string {
	count := 0
	for i := range s {
		if count == limit {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
