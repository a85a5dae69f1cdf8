package verdict

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned when policy thresholds or weights are out of range.
var ErrInvalidPolicy = errors.New("invalid verdict policy")

// Policy holds the thresholds and weights the Engine decides with.
type Policy struct {
	// SemanticThreshold is the minimum top score for any verdict other than
	// Unverifiable/LowRelevance.
	SemanticThreshold float64 `yaml:"semantic_threshold"`
	// HighSemanticThreshold is the score at which a restatement with no
	// comparable numbers, or a number only within the wide tolerance,
	// counts as True.
	HighSemanticThreshold float64 `yaml:"high_semantic_threshold"`
	// WideTolerance must match the retriever's wide tolerance. It scales
	// the numeric part of the confidence.
	WideTolerance float64 `yaml:"wide_tolerance"`
	// SemanticWeight and NumericWeight blend score and numeric tightness
	// into a confidence.
	SemanticWeight float64 `yaml:"semantic_weight"`
	NumericWeight  float64 `yaml:"numeric_weight"`
	// MaxAlternatives caps how many further candidates a True or False
	// verdict keeps.
	MaxAlternatives int `yaml:"max_alternatives"`
}

// DefaultPolicy returns τ_sem 0.55, τ_sem_high 0.75, wide tolerance 5%,
// weights 0.6/0.4 and two alternatives.
func DefaultPolicy() Policy {
	return Policy{
		SemanticThreshold:     0.55,
		HighSemanticThreshold: 0.75,
		WideTolerance:         0.05,
		SemanticWeight:        0.6,
		NumericWeight:         0.4,
		MaxAlternatives:       2,
	}
}

// Validate checks 0 <= SemanticThreshold <= HighSemanticThreshold <= 1,
// a positive WideTolerance, non-negative weights that are not both zero,
// and a non-negative MaxAlternatives.
func (p Policy) Validate() error {
	switch {
	case p.SemanticThreshold < 0 || p.SemanticThreshold > 1:
		return fmt.Errorf("%w: semantic threshold %g outside [0,1]", ErrInvalidPolicy, p.SemanticThreshold)
	case p.HighSemanticThreshold < p.SemanticThreshold || p.HighSemanticThreshold > 1:
		return fmt.Errorf("%w: high semantic threshold %g outside [%g,1]", ErrInvalidPolicy, p.HighSemanticThreshold, p.SemanticThreshold)
	case p.WideTolerance <= 0:
		return fmt.Errorf("%w: wide tolerance must be positive", ErrInvalidPolicy)
	case p.SemanticWeight < 0 || p.NumericWeight < 0:
		return fmt.Errorf("%w: weights cannot be negative", ErrInvalidPolicy)
	case p.SemanticWeight+p.NumericWeight == 0:
		return fmt.Errorf("%w: weights cannot both be zero", ErrInvalidPolicy)
	case p.MaxAlternatives < 0:
		return fmt.Errorf("%w: max alternatives cannot be negative", ErrInvalidPolicy)
	}
	return nil
}
