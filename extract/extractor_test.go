package extract

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/poiesic/factcheck/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var approx = cmpopts.EquateApprox(1e-9, 0)

func quantitiesOf(raw string) []core.Quantity {
	return Quantities(Normalize(raw))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"The NBA released ₹39.84 Crore!!", "the nba released ₹39.84 crore"},
		{"Govt will give 50,000 to all citizens.", "govt will give 50,000 to all citizens"},
		{"Ｆｕｌｌｗｉｄｔｈ １２３", "fullwidth 123"},
		{"end. 5.5, (six)", "end 5.5 six"},
		{"  spaced\tout\n", "spaced out"},
		{"12.5% growth", "12.5% growth"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("₹39.84 crore 10km")
	texts := make([]string, len(tokens))
	for i, tok := range tokens {
		texts[i] = tok.text
	}
	assert.Equal(t, []string{"₹", "39.84", "crore", "10", "km"}, texts)
	assert.Equal(t, symbolToken, tokens[0].kind)
	assert.Equal(t, numberToken, tokens[1].kind)
	assert.Equal(t, 3, tokens[1].start, "offsets are bytes")
}

func TestQuantities(t *testing.T) {
	ignoreSpan := cmpopts.IgnoreFields(core.Quantity{}, "Span")

	tests := []struct {
		name     string
		input    string
		expected []core.Quantity
	}{
		{"crore multiplier", "1 crore", []core.Quantity{{Value: 1e7}}},
		{"plain numeral", "10000000", []core.Quantity{{Value: 1e7}}},
		{"decimal crore", "NBA released 39.84 crore for scheme X", []core.Quantity{{Value: 3.984e8}}},
		{"rupee symbol", "The NBA released ₹39.84 crore", []core.Quantity{{Value: 3.984e8, Unit: UnitINR}}},
		{"rs prefix", "Rs. 50,000 per family", []core.Quantity{{Value: 5e4, Unit: UnitINR}}},
		{"indian grouping", "1,00,000 beneficiaries", []core.Quantity{{Value: 1e5}}},
		{"number words", "fifty thousand homes", []core.Quantity{{Value: 5e4}}},
		{"chained multipliers", "two lakh crore", []core.Quantity{{Value: 2e12}}},
		{"compound number words", "one hundred and twenty five", []core.Quantity{{Value: 125}}},
		{"lone small word ignored", "one of the states", nil},
		{"per cent", "5 per cent", []core.Quantity{{Value: 5, Unit: UnitPercent}}},
		{"percent sign", "12.5%", []core.Quantity{{Value: 12.5, Unit: UnitPercent}}},
		{"metres to km", "500 metres", []core.Quantity{{Value: 0.5, Unit: UnitKM}}},
		{"acres to hectares", "10 acres", []core.Quantity{{Value: 4.04686, Unit: UnitHectare}}},
		{"gigawatts to MW", "2 GW", []core.Quantity{{Value: 2000, Unit: UnitMW}}},
		{"dollar billion", "$5 billion", []core.Quantity{{Value: 5e9, Unit: UnitUSD}}},
		{"year", "in 2023", []core.Quantity{{Value: 2023, Unit: UnitYear}}},
		{"year-like with multiplier", "2023 crore", []core.Quantity{{Value: 2.023e10}}},
		{"malformed grouping", "39,84 apples", nil},
		{"malformed decimal", "version 1.2.3", nil},
		{"several", "₹500 crore in 2023 for 12 states", []core.Quantity{
			{Value: 5e9, Unit: UnitINR},
			{Value: 2023, Unit: UnitYear},
			{Value: 12},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := quantitiesOf(tt.input)
			if diff := cmp.Diff(tt.expected, got, approx, ignoreSpan, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Quantities(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestQuantities_CroreEqualsNumeral(t *testing.T) {
	crore := quantitiesOf("1 crore")
	plain := quantitiesOf("10000000")
	require.Len(t, crore, 1)
	require.Len(t, plain, 1)

	ignoreSpan := cmpopts.IgnoreFields(core.Quantity{}, "Span")
	assert.True(t, cmp.Equal(crore, plain, approx, ignoreSpan))
}

func TestQuantities_Spans(t *testing.T) {
	tests := []struct {
		input string
		span  [2]int
	}{
		{"₹39.84 crore released", [2]int{0, 14}},
		{"rs 50,000 given", [2]int{0, 9}},
		{"gave 5 per cent", [2]int{5, 15}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			normalized := Normalize(tt.input)
			got := Quantities(normalized)
			require.Len(t, got, 1)
			assert.Equal(t, tt.span, got[0].Span)
		})
	}
}

func TestExtract_Entities(t *testing.T) {
	e := New()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "acronym scheme and state",
			input:    "The National Bamboo Mission (NBA) released ₹39.84 crore in Assam",
			expected: []string{"assam", "national bamboo mission", "nba"},
		},
		{
			name:     "ministry and yojana",
			input:    "The Ministry of Rural Development said the Pradhan Mantri Awas Yojana covers Uttar Pradesh",
			expected: []string{"ministry of rural development", "pradhan mantri awas yojana", "uttar pradesh"},
		},
		{
			name:     "nothing recognizable",
			input:    "Govt will give 50,000 to all citizens.",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := e.Extract(tt.input)
			if diff := cmp.Diff(tt.expected, claim.Entities, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("entities mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtract_NoNumbers(t *testing.T) {
	claim := New().Extract("The scheme was launched nationwide")
	require.NotNil(t, claim)
	assert.False(t, claim.HasQuantities())
	assert.Equal(t, "the scheme was launched nationwide", claim.NormalizedText)
	assert.Equal(t, "The scheme was launched nationwide", claim.RawText)
}

func TestWithGazetteer(t *testing.T) {
	e := New(WithGazetteer("Kisan Credit Card", "  "))
	claim := e.Extract("farmers got kisan credit card loans")
	assert.Contains(t, claim.Entities, "kisan credit card")
}

func TestEnrich(t *testing.T) {
	record := &core.FactRecord{RawText: "NBA released ₹39.84 crore in 2023"}
	New().Enrich(record)

	assert.Equal(t, "nba released ₹39.84 crore in 2023", record.NormalizedText)
	assert.Equal(t, []string{"nba"}, record.Entities)
	want := []core.Quantity{
		{Value: 3.984e8, Unit: UnitINR, Span: [2]int{13, 27}},
		{Value: 2023, Unit: UnitYear, Span: [2]int{31, 35}},
	}
	if diff := cmp.Diff(want, record.Quantities, approx); diff != "" {
		t.Errorf("quantities mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_Concurrent(t *testing.T) {
	e := New()
	want := e.Extract("The NBA released ₹39.84 crore in Assam")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := e.Extract("The NBA released ₹39.84 crore in Assam")
				assert.True(t, cmp.Equal(want, got, approx))
			}
		}()
	}
	wg.Wait()
}
