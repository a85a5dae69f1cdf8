package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pressRelease = `<!DOCTYPE html>
<html>
<head>
  <title> National Biodiversity Authority releases funds </title>
  <meta name="date" content="2024-01-15">
  <link rel="canonical" href="https://pib.gov.in/PressReleasePage.aspx?PRID=1">
  <script>var p = "<p>not a paragraph</p>";</script>
</head>
<body>
  <div class="nav">Home | Releases</div>
  <p>   </p>
  <p>The <b>National Biodiversity Authority</b> released
     Rs 39.84 crore for scheme X.</p>
  <p>Second paragraph.</p>
  <p>Third paragraph.</p>
  <p>Fourth paragraph.</p>
  <p>Fifth paragraph is ignored.</p>
</body>
</html>`

func TestParsePressRelease(t *testing.T) {
	statement, err := ParsePressRelease(strings.NewReader(pressRelease))
	require.NoError(t, err)

	assert.Equal(t, "National Biodiversity Authority releases funds", statement.Title)
	assert.Equal(t, "2024-01-15", statement.Date)
	assert.Equal(t, "https://pib.gov.in/PressReleasePage.aspx?PRID=1", statement.URL)
	assert.Equal(t,
		"The National Biodiversity Authority released Rs 39.84 crore for scheme X. "+
			"Second paragraph. Third paragraph. Fourth paragraph.",
		statement.Text)
}

func TestParsePressRelease_OpenGraphAndPublishedTime(t *testing.T) {
	page := `<html><head>
<meta property="og:url" content="https://pib.gov.in/2">
<meta property="article:published_time" content="2024-03-01T09:00:00+05:30">
</head><body><p>Only paragraph.</p></body></html>`

	statement, err := ParsePressRelease(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "https://pib.gov.in/2", statement.URL)
	assert.Equal(t, "2024-03-01T09:00:00+05:30", statement.Date)
	assert.Equal(t, "Only paragraph.", statement.Text)
}

func TestParsePressRelease_BodyFallback(t *testing.T) {
	long := strings.Repeat("x", 1200)
	page := "<html><body><div>" + long + "</div><script>ignored()</script></body></html>"

	statement, err := ParsePressRelease(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", maxBodyRunes)+"...", statement.Text)
}

func TestParsePressRelease_Truncates(t *testing.T) {
	para := strings.Repeat("₹", 900)
	page := "<html><body><p>" + para + "</p><p>" + para + "</p></body></html>"

	statement, err := ParsePressRelease(strings.NewReader(page))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(statement.Text, "..."))
	assert.Equal(t, maxStatementRunes+3, utf8.RuneCountInString(statement.Text))
	assert.True(t, utf8.ValidString(statement.Text))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 3))
	assert.Equal(t, "ab...", truncateRunes("abc", 2))
	assert.Equal(t, "", truncateRunes("", 2))
}

func writePage(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestHTMLSource_Statements(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "a.html"), pressRelease)
	writePage(t, filepath.Join(dir, "nested", "b.htm"),
		`<html><head><title>Undated</title></head><body><p>Power ministry adds 2 GW.</p></body></html>`)
	writePage(t, filepath.Join(dir, "empty.html"), `<html><body></body></html>`)
	writePage(t, filepath.Join(dir, "notes.txt"), "not a page")

	modTime := time.Date(2023, 11, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "nested", "b.htm"), modTime, modTime))

	source := NewHTMLSource(dir, WithSourceName("PIB Delhi"))
	assert.Equal(t, dir, source.Name())

	statements, err := source.Statements(context.Background())
	require.NoError(t, err)
	require.Len(t, statements, 2)

	assert.Equal(t, "2024-01-15", statements[0].Date)
	assert.Equal(t, "PIB Delhi", statements[0].Source)

	assert.Equal(t, "Undated", statements[1].Title)
	assert.Equal(t, "2023-11-05", statements[1].Date, "falls back to modification time")
	assert.Equal(t, "Power ministry adds 2 GW.", statements[1].Text)
}

func TestHTMLSource_MissingDirectory(t *testing.T) {
	_, err := NewHTMLSource(filepath.Join(t.TempDir(), "missing")).Statements(context.Background())
	assert.Error(t, err)
}

func TestHTMLSource_Canceled(t *testing.T) {
	dir := t.TempDir()
	writePage(t, filepath.Join(dir, "a.html"), pressRelease)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTMLSource(dir).Statements(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
