package core

import (
	"encoding/json"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "NBA released 39.84 crore",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "The Ministry of Rural Development released the second instalment of funds under the scheme to all states",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNumericAgreement_Rank(t *testing.T) {
	order := []NumericAgreement{
		AgreementExact,
		AgreementWithinTolerance,
		AgreementAbsent,
		AgreementConflicting,
	}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() <= order[i].Rank() {
			t.Errorf("%s should outrank %s", order[i-1], order[i])
		}
	}
}

func TestVerdict_Reference(t *testing.T) {
	tests := []struct {
		name    string
		verdict *Verdict
		want    string
	}{
		{
			name:    "nil verdict",
			verdict: nil,
			want:    "",
		},
		{
			name:    "no supporting fact",
			verdict: &Verdict{Label: LabelUnverifiable},
			want:    "",
		},
		{
			name: "fact with date",
			verdict: &Verdict{
				Label:          LabelTrue,
				SupportingFact: &FactRecord{RawText: " NBA released 39.84 crore ", SourceDate: "2025-01-10"},
			},
			want: "NBA released 39.84 crore (2025-01-10)",
		},
		{
			name: "fact without date",
			verdict: &Verdict{
				Label:          LabelFalse,
				SupportingFact: &FactRecord{RawText: "NBA released 39.84 crore"},
			},
			want: "NBA released 39.84 crore",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.verdict.Reference(); got != tt.want {
				t.Errorf("Reference() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVerdict_JSON(t *testing.T) {
	v := Verdict{
		Label:      LabelFalse,
		Confidence: 0.9,
		Reason:     ReasonNumericConflict,
		SupportingFact: &FactRecord{
			ID:         7,
			RawText:    "NBA released 39.84 crore",
			SourceDate: "2025-01-10",
			Vector:     []float32{1, 0},
		},
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["label"] != "False" {
		t.Errorf("label = %v, want False", decoded["label"])
	}
	if decoded["reason"] != "NumericConflict" {
		t.Errorf("reason = %v, want NumericConflict", decoded["reason"])
	}
	fact, ok := decoded["supporting_fact"].(map[string]any)
	if !ok {
		t.Fatalf("supporting_fact missing: %s", data)
	}
	if fact["date"] != "2025-01-10" {
		t.Errorf("date = %v, want 2025-01-10", fact["date"])
	}
	if _, hasVector := fact["Vector"]; hasVector {
		t.Errorf("vector should not be serialized")
	}
}

func TestReason_Description(t *testing.T) {
	for r := ReasonNoEvidence; r <= ReasonInsufficientEvidence; r++ {
		if r.Description() == "" {
			t.Errorf("%s has no description", r)
		}
	}
	if Reason(99).Description() != "" {
		t.Errorf("unknown reason should have empty description")
	}
}
