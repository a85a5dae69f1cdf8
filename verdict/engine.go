// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package verdict turns ranked evidence into a True, False or Unverifiable
// verdict with a confidence and a reason code.
//
// Only the top candidate decides. In order:
//
//	no candidates                               Unverifiable / NoEvidence
//	score < SemanticThreshold                   Unverifiable / LowRelevance
//	exact                                       True / NumericMatch
//	withinTolerance, score >= High              True / NumericWithinTolerance
//	conflicting                                 False / NumericConflict
//	absent, score >= High                       True / SemanticOnly
//	otherwise                                   Unverifiable / InsufficientEvidence
//
// Decisions are pure functions of the candidates and the policy.
package verdict

import (
	"log/slog"
	"math"

	"github.com/poiesic/factcheck/core"
)

// Engine applies a Policy to retrieval candidates.
type Engine struct {
	policy Policy
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithPolicy replaces the default policy.
func WithPolicy(policy Policy) Option {
	return func(e *Engine) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		e.policy = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an Engine with DefaultPolicy unless WithPolicy is given.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		policy: DefaultPolicy(),
		logger: slog.Default().With("component", "verdict"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Policy returns the policy in effect.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Decide returns the verdict for candidates ordered best first.
func (e *Engine) Decide(candidates []core.Candidate) core.Verdict {
	if len(candidates) == 0 {
		return core.Verdict{Label: core.LabelUnverifiable, Reason: core.ReasonNoEvidence}
	}

	p := e.policy
	top := candidates[0]
	score := float64(top.SemanticScore)

	var v core.Verdict
	switch {
	case score < p.SemanticThreshold:
		v = unverifiable(core.ReasonLowRelevance, score)
	case top.Agreement == core.AgreementExact:
		v = e.supported(core.LabelTrue, core.ReasonNumericMatch, p.blend(score, p.tightness(top.Deviation)), candidates)
	case top.Agreement == core.AgreementWithinTolerance && score >= p.HighSemanticThreshold:
		v = e.supported(core.LabelTrue, core.ReasonNumericWithinTolerance, p.blend(score, p.tightness(top.Deviation)), candidates)
	case top.Agreement == core.AgreementConflicting:
		v = e.supported(core.LabelFalse, core.ReasonNumericConflict, p.blend(score, p.separation(top.Deviation)), candidates)
	case top.Agreement == core.AgreementAbsent && score >= p.HighSemanticThreshold:
		v = e.supported(core.LabelTrue, core.ReasonSemanticOnly, score, candidates)
	default:
		v = unverifiable(core.ReasonInsufficientEvidence, score)
	}

	e.logger.Debug("decided",
		"label", v.Label.String(),
		"reason", v.Reason.String(),
		"confidence", v.Confidence,
		"score", score,
		"agreement", top.Agreement.String())
	return v
}

// DecideWithError maps a retrieval failure to Unverifiable / NoEvidence.
// The error is logged and not returned. A nil err is the same as Decide.
func (e *Engine) DecideWithError(candidates []core.Candidate, err error) core.Verdict {
	if err != nil {
		e.logger.Warn("evidence unavailable, claim cannot be verified", "err", err)
		return core.Verdict{Label: core.LabelUnverifiable, Reason: core.ReasonNoEvidence}
	}
	return e.Decide(candidates)
}

func (e *Engine) supported(label core.Label, reason core.Reason, confidence float64, candidates []core.Candidate) core.Verdict {
	v := core.Verdict{
		Label:          label,
		Reason:         reason,
		Confidence:     clamp(confidence),
		SupportingFact: candidates[0].Fact,
	}
	if n := min(e.policy.MaxAlternatives, len(candidates)-1); n > 0 {
		v.Alternatives = append([]core.Candidate(nil), candidates[1:1+n]...)
	}
	return v
}

// unverifiable verdicts grow more confident the less relevant the top fact is.
func unverifiable(reason core.Reason, score float64) core.Verdict {
	return core.Verdict{
		Label:      core.LabelUnverifiable,
		Reason:     reason,
		Confidence: clamp(1 - score),
	}
}

func (p Policy) blend(score, numeric float64) float64 {
	total := p.SemanticWeight + p.NumericWeight
	return (p.SemanticWeight*score + p.NumericWeight*numeric) / total
}

// tightness is 1 for a perfect match, falling to 0 at the wide tolerance.
func (p Policy) tightness(deviation float64) float64 {
	return clamp(1 - deviation/p.WideTolerance)
}

// separation is 0 at the wide tolerance, approaching 1 as the gap grows.
func (p Policy) separation(deviation float64) float64 {
	if deviation <= 0 {
		return 0
	}
	return clamp(1 - p.WideTolerance/deviation)
}

func clamp(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}
