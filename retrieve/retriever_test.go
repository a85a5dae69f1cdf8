package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/factcheck/ai/mock"
	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/corpus"
	"github.com/poiesic/factcheck/extract"
	"github.com/poiesic/factcheck/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var facts = []string{
	"NBA released 39.84 crore for scheme X",
	"NBA released 45 crore for scheme Y in Assam",
	"The Ministry of Power commissioned 2 GW of solar capacity",
}

func buildHolder(t *testing.T, statements ...string) *corpus.Holder {
	t.Helper()
	extractor := extract.New()
	records := make([]*core.FactRecord, len(statements))
	for i, s := range statements {
		record := &core.FactRecord{ID: core.ID(i + 1), RawText: s, SourceDate: "2024-01-15"}
		extractor.Enrich(record)
		record.Vector = mock.HashVector(record.NormalizedText, mock.DefaultDimension)
		records[i] = record
	}
	snapshot, err := corpus.NewSnapshot(storage.SnapshotHeader{
		Dimension: mock.DefaultDimension,
		Metric:    "cosine",
		Count:     len(records),
	}, records)
	require.NoError(t, err)

	holder := corpus.NewHolder()
	holder.Publish(snapshot)
	return holder
}

func TestNew_Validation(t *testing.T) {
	holder := corpus.NewHolder()
	embedder := mock.NewMockEmbedder()

	_, err := New(nil, embedder)
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = New(holder, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = New(holder, embedder, WithTolerance(Tolerance{Exact: 0.2, Wide: 0.1}))
	assert.ErrorIs(t, err, ErrInvalidTolerance)

	r, err := New(holder, embedder, WithTolerance(Tolerance{Exact: 0.02, Wide: 0.1}))
	require.NoError(t, err)
	assert.Equal(t, Tolerance{Exact: 0.02, Wide: 0.1}, r.Tolerance())
}

func TestRetrieve_InvalidArguments(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), nil, 5)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = r.Retrieve(context.Background(), extract.New().Extract("claim"), 0)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestRetrieve_IndexNotBuilt(t *testing.T) {
	r, err := New(corpus.NewHolder(), mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), extract.New().Extract("anything"), 5)
	assert.ErrorIs(t, err, core.ErrIndexNotBuilt)
}

func TestRetrieve_EmptySnapshot(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	r, err := New(buildHolder(t), embedder)
	require.NoError(t, err)

	candidates, err := r.Retrieve(context.Background(), extract.New().Extract("anything"), 5)
	require.NoError(t, err)
	assert.NotNil(t, candidates)
	assert.Empty(t, candidates)
	assert.Zero(t, embedder.CallCount())
}

func TestRetrieve_EmbedderFailure(t *testing.T) {
	cause := errors.New("connection refused")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, cause
	}
	r, err := New(buildHolder(t, facts...), embedder)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), extract.New().Extract("NBA released 39.84 crore"), 5)
	assert.ErrorIs(t, err, core.ErrEvidenceUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestRetrieve_EmbedTimeout(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r, err := New(buildHolder(t, facts...), embedder, WithEmbedTimeout(10*time.Millisecond))
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), extract.New().Extract("NBA released 39.84 crore"), 5)
	assert.ErrorIs(t, err, core.ErrEvidenceUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetrieve_DimensionMismatch(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedderWithDimension(8))
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), extract.New().Extract("NBA released 39.84 crore"), 5)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestRetrieve_ExactMatchRanksFirst(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedder())
	require.NoError(t, err)

	claim := extract.New().Extract("NBA released 39.84 crore for scheme X")
	candidates, err := r.Retrieve(context.Background(), claim, 3)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	top := candidates[0]
	assert.Equal(t, core.ID(1), top.Fact.ID)
	assert.Equal(t, core.AgreementExact, top.Agreement)
	assert.InDelta(t, 1.0, top.SemanticScore, 1e-5)
	assert.Equal(t, 1, top.Rank)

	// 45 crore is more than 5% away from 39.84 crore.
	for _, c := range candidates {
		if c.Fact.ID == 2 {
			assert.Equal(t, core.AgreementConflicting, c.Agreement)
		}
		if c.Fact.ID == 3 {
			assert.Equal(t, core.AgreementAbsent, c.Agreement, "the power ministry's figure is about something else")
		}
	}
}

func TestRetrieve_ConflictingMagnitude(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedder())
	require.NoError(t, err)

	claim := extract.New().Extract("NBA released 390.84 crore for scheme X")
	candidates, err := r.Retrieve(context.Background(), claim, 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, core.ID(1), candidates[0].Fact.ID)
	assert.Equal(t, core.AgreementConflicting, candidates[0].Agreement)
	assert.Greater(t, candidates[0].SemanticScore, float32(0.55))
	assert.Greater(t, candidates[0].Deviation, 5.0)
}

func TestRetrieve_IrrelevantFactRanksLast(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedder())
	require.NoError(t, err)

	claim := extract.New().Extract("NBA released 390.84 crore for scheme X")
	candidates, err := r.Retrieve(context.Background(), claim, 3)
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, core.ID(1), candidates[0].Fact.ID)
	assert.Equal(t, core.AgreementConflicting, candidates[0].Agreement)
	assert.Equal(t, core.ID(3), candidates[2].Fact.ID)
	assert.Equal(t, core.AgreementAbsent, candidates[2].Agreement)
	assert.Less(t, candidates[2].SemanticScore, float32(DefaultRelevance))
}

func TestRetrieve_RupeeFactMatchesUnitlessClaim(t *testing.T) {
	r, err := New(buildHolder(t, "NBA released ₹39.84 crore to 12 states"), mock.NewMockEmbedder())
	require.NoError(t, err)

	tests := []struct {
		claim    string
		expected core.NumericAgreement
	}{
		{"NBA released 39.84 crore to 12 states", core.AgreementExact},
		{"NBA released 390.84 crore to 12 states", core.AgreementConflicting},
	}
	for _, tt := range tests {
		t.Run(tt.claim, func(t *testing.T) {
			candidates, err := r.Retrieve(context.Background(), extract.New().Extract(tt.claim), 1)
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.Equal(t, tt.expected, candidates[0].Agreement)
		})
	}
}

func TestRetrieve_RupeeClaimAgainstUnitlessFact(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedder())
	require.NoError(t, err)

	candidates, err := r.Retrieve(context.Background(), extract.New().Extract("NBA released Rs 390.84 crore for scheme X"), 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, core.ID(1), candidates[0].Fact.ID)
	assert.Equal(t, core.AgreementConflicting, candidates[0].Agreement)
}

func TestRetrieve_YearConflict(t *testing.T) {
	r, err := New(buildHolder(t, "The Jal Jeevan Mission was launched in 2019"), mock.NewMockEmbedder())
	require.NoError(t, err)

	candidates, err := r.Retrieve(context.Background(), extract.New().Extract("The Jal Jeevan Mission was launched in 2005"), 1)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, core.AgreementConflicting, candidates[0].Agreement)
	assert.Equal(t, 14.0, candidates[0].Deviation)
}

func TestWithRelevance(t *testing.T) {
	holder := corpus.NewHolder()
	_, err := New(holder, mock.NewMockEmbedder(), WithRelevance(1.5))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = New(holder, mock.NewMockEmbedder(), WithRelevance(0.6))
	assert.NoError(t, err)
}

type recordingMonitor struct {
	events []string
}

func (m *recordingMonitor) Start(_ *core.StructuredClaim) { m.events = append(m.events, "start") }
func (m *recordingMonitor) AfterEmbedding(_ []float32)    { m.events = append(m.events, "embedded") }
func (m *recordingMonitor) AfterSearch(_ []corpus.Match)  { m.events = append(m.events, "searched") }
func (m *recordingMonitor) Compared(_ core.Candidate)     { m.events = append(m.events, "compared") }
func (m *recordingMonitor) Finish(_ []core.Candidate)     { m.events = append(m.events, "finish") }

func TestRetrieveWithMonitor(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedder())
	require.NoError(t, err)

	monitor := &recordingMonitor{}
	_, err = r.RetrieveWithMonitor(context.Background(), extract.New().Extract("NBA released 39.84 crore"), 2, monitor)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "embedded", "searched", "compared", "compared", "finish"}, monitor.events)
}

func TestLogMonitor(t *testing.T) {
	r, err := New(buildHolder(t, facts...), mock.NewMockEmbedder())
	require.NoError(t, err)

	_, err = r.RetrieveWithMonitor(context.Background(), extract.New().Extract("2 GW solar"), 3, NewLogMonitor(nil))
	assert.NoError(t, err)
}
