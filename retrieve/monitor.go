package retrieve

import (
	"log/slog"

	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/corpus"
)

// Monitor provides hooks to observe retrieval.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(claim *core.StructuredClaim)
	AfterEmbedding(vector []float32)
	AfterSearch(matches []corpus.Match)
	Compared(candidate core.Candidate)
	Finish(candidates []core.Candidate)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.StructuredClaim) {}
func (n *noopMonitor) AfterEmbedding(_ []float32)    {}
func (n *noopMonitor) AfterSearch(_ []corpus.Match)  {}
func (n *noopMonitor) Compared(_ core.Candidate)     {}
func (n *noopMonitor) Finish(_ []core.Candidate)     {}

// LogMonitor writes each retrieval step to a logger at debug level.
type LogMonitor struct {
	logger *slog.Logger
}

var _ Monitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor. A nil logger means slog.Default().
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger}
}

func (m *LogMonitor) Start(claim *core.StructuredClaim) {
	m.logger.Debug("retrieval started",
		"normalized", claim.NormalizedText,
		"quantities", len(claim.Quantities),
		"entities", claim.Entities)
}

func (m *LogMonitor) AfterEmbedding(vector []float32) {
	m.logger.Debug("claim embedded", "dimension", len(vector))
}

func (m *LogMonitor) AfterSearch(matches []corpus.Match) {
	m.logger.Debug("index searched", "matches", len(matches))
}

func (m *LogMonitor) Compared(c core.Candidate) {
	m.logger.Debug("candidate compared",
		"fact", c.Fact.ID,
		"score", c.SemanticScore,
		"agreement", c.Agreement.String(),
		"deviation", c.Deviation)
}

func (m *LogMonitor) Finish(candidates []core.Candidate) {
	m.logger.Debug("retrieval finished", "candidates", len(candidates))
}
