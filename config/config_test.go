package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/factcheck/retrieve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, "cosine", cfg.Retrieval.Metric)
	assert.Equal(t, retrieve.DefaultTolerance(), cfg.Retrieval.Tolerance())
	assert.Equal(t, 0.55, cfg.Verdict.SemanticThreshold)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, 10*time.Second, cfg.EmbedTimeout())
}

func TestParse_PartialFileKeepsDefaults(t *testing.T) {
	input := `
embedding:
  host: http://embeddings:8080
  model: all-minilm
  dimension: 384
  timeout: 3s
retrieval:
  top_k: 3
ingestion:
  batch_size: 64
  retry_delay: 250ms
`
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "http://embeddings:8080/v1", cfg.Embedding.EmbeddingHost, "host is normalized")
	assert.Equal(t, "all-minilm", cfg.Embedding.EmbeddingModel)
	assert.Equal(t, 384, cfg.Embedding.Dimension)
	assert.Equal(t, 3*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Embedding.CacheTTL, "unset key keeps its default")

	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, 0.01, cfg.Retrieval.ExactTolerance)

	assert.Equal(t, 64, cfg.Ingestion.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Ingestion.RetryDelay)
	assert.Equal(t, 3, cfg.Ingestion.MaxRetries)

	assert.Equal(t, Default().Verdict, cfg.Verdict)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown key", "retrieval:\n  topk: 3\n"},
		{"malformed yaml", "retrieval: [\n"},
		{"zero top k", "retrieval:\n  top_k: 0\n"},
		{"bad metric", "retrieval:\n  metric: euclidean\n"},
		{"exact above wide", "retrieval:\n  exact_tolerance: 0.2\n"},
		{"verdict tolerance differs", "verdict:\n  wide_tolerance: 0.1\n"},
		{"bad policy", "verdict:\n  semantic_threshold: 2\n"},
		{"bad embedding", "embedding:\n  dimension: 0\n"},
		{"bad ingestion", "ingestion:\n  pool_size: 0\n"},
		{"bad duration", "embedding:\n  timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_MatchingTolerancesMayChangeTogether(t *testing.T) {
	input := "retrieval:\n  wide_tolerance: 0.1\nverdict:\n  wide_tolerance: 0.1\n"
	cfg, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Retrieval.Tolerance().Wide)
}

func TestEncode_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Retrieval.TopK = 7
	cfg.Embedding.Timeout = 1500 * time.Millisecond

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	assert.Contains(t, buf.String(), "top_k: 7")
	assert.Contains(t, buf.String(), "timeout: 1.5s")

	again, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().Retrieval, cfg.Retrieval)
	})

	t.Run("write then load", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "config.yaml")
		cfg := Default()
		cfg.Retrieval.TopK = 9
		require.NoError(t, cfg.Write(path, false))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9, loaded.Retrieval.TopK)

		err = cfg.Write(path, false)
		assert.ErrorContains(t, err, "already exists")
		require.NoError(t, cfg.Write(path, true))
	})

	t.Run("invalid file names the path", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("retrieval:\n  top_k: -1\n"), 0o600))
		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.ErrorContains(t, err, path)
	})
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
}
