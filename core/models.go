package core

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a stable identifier for an indexed fact.
// It comes from the corpus row when numeric, otherwise from content hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Quantity is a number found in text, normalized to a canonical value and unit.
type Quantity struct {
	Value float64
	Unit  string // canonical unit, empty when none was recognized
	Span  [2]int // byte offsets into the normalized text
}

// HasUnit reports whether a unit was recognized for the quantity.
func (q Quantity) HasUnit() bool {
	return q.Unit != ""
}

func (q Quantity) String() string {
	if q.Unit == "" {
		return fmt.Sprintf("%g", q.Value)
	}
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}

// FactRecord is a normalized statement from an official press release.
// Records are immutable once indexed; a rebuild replaces them wholesale.
type FactRecord struct {
	ID             ID         `json:"id"`
	RawText        string     `json:"text"`
	NormalizedText string     `json:"-"`
	Quantities     []Quantity `json:"-"`
	Entities       []string   `json:"entities,omitempty"` // sorted, unique, normalized
	SourceDate     string     `json:"date,omitempty"`     // YYYY-MM-DD
	Source         string     `json:"source,omitempty"`
	Title          string     `json:"title,omitempty"`
	URL            string     `json:"url,omitempty"`
	Vector         []float32  `json:"-"` // Embedding of NormalizedText
}

// StructuredClaim is the comparable form of a user-supplied claim.
// It lives for a single verification request.
type StructuredClaim struct {
	RawText        string
	NormalizedText string
	Quantities     []Quantity
	Entities       []string
}

// HasQuantities reports whether any number was extracted from the claim.
func (c *StructuredClaim) HasQuantities() bool {
	return c != nil && len(c.Quantities) > 0
}

// NumericAgreement classifies how a claim's numbers compare to a fact's numbers.
type NumericAgreement int

const (
	// AgreementAbsent means the claim has no numbers, or the fact has none comparable.
	AgreementAbsent NumericAgreement = iota
	// AgreementExact means a claim quantity matched within the exact tolerance.
	AgreementExact
	// AgreementWithinTolerance means a match inside the wide tolerance band only.
	AgreementWithinTolerance
	// AgreementConflicting means comparable quantities differ beyond tolerance.
	AgreementConflicting
)

var agreementNames = map[NumericAgreement]string{
	AgreementAbsent:          "absent",
	AgreementExact:           "exact",
	AgreementWithinTolerance: "withinTolerance",
	AgreementConflicting:     "conflicting",
}

func (a NumericAgreement) String() string {
	if name, ok := agreementNames[a]; ok {
		return name
	}
	return fmt.Sprintf("NumericAgreement(%d)", int(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a NumericAgreement) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Rank orders agreements for re-ranking: exact > withinTolerance > absent > conflicting.
// Higher is better.
func (a NumericAgreement) Rank() int {
	switch a {
	case AgreementExact:
		return 3
	case AgreementWithinTolerance:
		return 2
	case AgreementAbsent:
		return 1
	default:
		return 0
	}
}

// Candidate pairs a retrieved fact with its relevance signals.
type Candidate struct {
	Fact          *FactRecord
	SemanticScore float32
	Agreement     NumericAgreement
	// Deviation is the relative difference of the quantity that decided
	// Agreement, measured against its closest fact quantity, or the number
	// of years apart for years. Zero when Agreement is absent.
	Deviation float64
	// Rank is the 1-based position after re-ranking.
	Rank int
}

// Label is the verdict classification.
type Label int

const (
	LabelUnverifiable Label = iota
	LabelTrue
	LabelFalse
)

func (l Label) String() string {
	switch l {
	case LabelTrue:
		return "True"
	case LabelFalse:
		return "False"
	default:
		return "Unverifiable"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Reason explains which branch of the decision policy produced a verdict.
type Reason int

const (
	ReasonNoEvidence Reason = iota
	ReasonLowRelevance
	ReasonNumericMatch
	ReasonNumericWithinTolerance
	ReasonNumericConflict
	ReasonSemanticOnly
	ReasonInsufficientEvidence
)

var reasonNames = []string{
	"NoEvidence",
	"LowRelevance",
	"NumericMatch",
	"NumericWithinTolerance",
	"NumericConflict",
	"SemanticOnly",
	"InsufficientEvidence",
}

var reasonDescriptions = []string{
	"no official fact could be retrieved for this claim",
	"the closest official fact is not relevant enough",
	"the claimed figure matches the official figure",
	"the claimed figure is close to the official figure",
	"the claimed figure contradicts the official figure",
	"the claim closely restates an official fact",
	"the retrieved facts neither confirm nor contradict the claim",
}

func (r Reason) String() string {
	if int(r) >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Description returns a fixed human-readable sentence for the reason.
func (r Reason) Description() string {
	if int(r) >= 0 && int(r) < len(reasonDescriptions) {
		return reasonDescriptions[r]
	}
	return ""
}

// Verdict is the outcome of verifying a single claim.
type Verdict struct {
	Label          Label       `json:"label"`
	Confidence     float64     `json:"confidence"`
	Reason         Reason      `json:"reason"`
	SupportingFact *FactRecord `json:"supporting_fact,omitempty"`
	Alternatives   []Candidate `json:"-"`
}

// Reference renders the supporting fact as "text (source date)".
// Returns an empty string when the verdict has no supporting fact.
func (v *Verdict) Reference() string {
	if v == nil || v.SupportingFact == nil {
		return ""
	}
	text := strings.TrimSpace(v.SupportingFact.RawText)
	if v.SupportingFact.SourceDate == "" {
		return text
	}
	return text + " (" + v.SupportingFact.SourceDate + ")"
}
