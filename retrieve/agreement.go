package retrieve

import (
	"cmp"
	"math"
	"slices"

	"github.com/poiesic/factcheck/core"
	"github.com/poiesic/factcheck/extract"
)

// Default relative tolerances for numeric agreement.
const (
	DefaultExactTolerance = 0.01
	DefaultWideTolerance  = 0.05
)

// DefaultRelevance is the semantic score at which a candidate's numeric
// agreement starts to count for ranking. It matches the verdict engine's
// default semantic threshold.
const DefaultRelevance = 0.55

// minMagnitude keeps relative differences finite when a fact value is zero.
const minMagnitude = 1e-9

// Tolerance bounds the relative difference for the exact and
// withinTolerance agreement bands.
type Tolerance struct {
	Exact float64
	Wide  float64
}

// DefaultTolerance returns 1% exact and 5% wide.
func DefaultTolerance() Tolerance {
	return Tolerance{Exact: DefaultExactTolerance, Wide: DefaultWideTolerance}
}

// Valid reports whether 0 <= Exact <= Wide.
func (t Tolerance) Valid() bool {
	return t.Exact >= 0 && t.Wide >= t.Exact
}

// RelativeDifference returns |claim-fact| / max(|fact|, 1e-9).
func RelativeDifference(claim, fact float64) float64 {
	return math.Abs(claim-fact) / math.Max(math.Abs(fact), minMagnitude)
}

// CompareQuantities classifies how claim quantities agree with a fact's.
//
// Each claim quantity takes its closest comparable fact quantity. A
// quantity with a unit is compared with same-unit fact quantities, falling
// back to unitless ones when the fact has none; a unitless claim quantity
// is compared with fact quantities of any unit. Years only compare with
// years and must be equal to count as exact; any other year conflicts.
//
// Across claim quantities, conflicting beats withinTolerance, which beats
// exact; absent results only when no claim quantity had anything
// comparable. The returned deviation belongs to the worst quantity in the
// winning band and is a relative difference, or a difference in years.
func CompareQuantities(claim, fact []core.Quantity, tol Tolerance) (core.NumericAgreement, float64) {
	agreement := core.AgreementAbsent
	deviation := 0.0

	for _, c := range claim {
		best, ok := closest(c, fact)
		if !ok {
			continue
		}

		var a core.NumericAgreement
		switch {
		case c.Unit == extract.UnitYear:
			if best == 0 {
				a = core.AgreementExact
			} else {
				a = core.AgreementConflicting
			}
		case best <= tol.Exact:
			a = core.AgreementExact
		case best <= tol.Wide:
			a = core.AgreementWithinTolerance
		default:
			a = core.AgreementConflicting
		}

		switch {
		case severity(a) > severity(agreement):
			agreement, deviation = a, best
		case a == agreement && best > deviation:
			deviation = best
		}
	}
	return agreement, deviation
}

// Agree compares the quantities of claim and fact, then requires shared
// context for a conflict: when both sides name entities and none are in
// common, the fact is about something else and its numbers count as absent.
func Agree(claim *core.StructuredClaim, fact *core.FactRecord, tol Tolerance) (core.NumericAgreement, float64) {
	agreement, deviation := CompareQuantities(claim.Quantities, fact.Quantities, tol)
	if agreement == core.AgreementConflicting && !sharesContext(claim.Entities, fact.Entities) {
		return core.AgreementAbsent, 0
	}
	return agreement, deviation
}

// sharesContext reports whether a and b have an entity in common. Either
// side having no entities gives nothing to contradict, so it counts as shared.
func sharesContext(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

// closest returns the smallest difference between q and a comparable fact
// quantity.
func closest(q core.Quantity, fact []core.Quantity) (float64, bool) {
	if q.Unit != "" {
		if best, ok := closestWhere(q, fact, func(f core.Quantity) bool { return f.Unit == q.Unit }); ok {
			return best, true
		}
		if q.Unit == extract.UnitYear {
			return 0, false
		}
		return closestWhere(q, fact, func(f core.Quantity) bool { return f.Unit == "" })
	}
	return closestWhere(q, fact, func(f core.Quantity) bool { return f.Unit != extract.UnitYear })
}

func closestWhere(q core.Quantity, fact []core.Quantity, match func(core.Quantity) bool) (float64, bool) {
	best := math.Inf(1)
	ok := false
	for _, f := range fact {
		if !match(f) {
			continue
		}
		ok = true
		best = math.Min(best, difference(q, f))
	}
	return best, ok
}

// difference is the relative difference, or whole years apart for years.
func difference(q, f core.Quantity) float64 {
	if q.Unit == extract.UnitYear {
		return math.Abs(q.Value - f.Value)
	}
	return RelativeDifference(q.Value, f.Value)
}

// severity orders agreements for aggregation across claim quantities.
func severity(a core.NumericAgreement) int {
	switch a {
	case core.AgreementConflicting:
		return 3
	case core.AgreementWithinTolerance:
		return 2
	case core.AgreementExact:
		return 1
	default:
		return 0
	}
}

// Rerank orders candidates in two groups. Candidates scoring at least
// relevance come first, by agreement rank (exact, withinTolerance, absent,
// conflicting), then by descending semantic score. The rest follow by
// descending score alone, so an unrelated fact can never displace a
// relevant one. Ties go to the lower fact ID. Candidates are numbered from 1.
func Rerank(candidates []core.Candidate, relevance float64) {
	slices.SortStableFunc(candidates, func(a, b core.Candidate) int {
		aRelevant := float64(a.SemanticScore) >= relevance
		bRelevant := float64(b.SemanticScore) >= relevance
		switch {
		case aRelevant && !bRelevant:
			return -1
		case !aRelevant && bRelevant:
			return 1
		case aRelevant:
			if c := cmp.Compare(b.Agreement.Rank(), a.Agreement.Rank()); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(b.SemanticScore, a.SemanticScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Fact.ID, b.Fact.ID)
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
}
