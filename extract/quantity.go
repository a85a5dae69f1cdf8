package extract

import (
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/factcheck/core"
)

// Quantities scans normalized text for numbers and returns them in order of
// appearance with multipliers applied and units converted to canonical form.
// Malformed numerals are skipped.
func Quantities(normalized string) []core.Quantity {
	tokens := tokenize(normalized)
	var out []core.Quantity
	for i := 0; i < len(tokens); {
		q, next, ok := readQuantity(tokens, i)
		if !ok {
			i++
			continue
		}
		out = append(out, q)
		i = next
	}
	return out
}

// readQuantity reads [currency] number [multiplier...] [unit] starting at i.
func readQuantity(tokens []token, i int) (core.Quantity, int, bool) {
	start := i

	var u unit
	hasUnit := false
	if prefix, ok := currencyPrefixes[tokens[i].text]; ok && i+1 < len(tokens) && startsNumber(tokens[i+1]) {
		u, hasUnit = prefix, true
		i++
	}

	value, next, numeral, ok := readNumber(tokens, i)
	if !ok {
		return core.Quantity{}, 0, false
	}
	i = next

	multiplied := false
	for i < len(tokens) && tokens[i].kind == wordToken {
		m, ok := multipliers[tokens[i].text]
		if !ok {
			break
		}
		value *= m
		multiplied = true
		i++
	}

	if !hasUnit {
		if suffix, n := readUnitSuffix(tokens, i); n > 0 {
			u, hasUnit = suffix, true
			i += n
		}
	}

	q := core.Quantity{
		Value: value,
		Span:  [2]int{tokens[start].start, tokens[i-1].end},
	}
	switch {
	case hasUnit:
		q.Value = value * u.factor
		q.Unit = u.canonical
	case !multiplied && isYear(numeral, value):
		q.Unit = UnitYear
	}
	return q, i, true
}

func startsNumber(t token) bool {
	return t.kind == numberToken || (t.kind == wordToken && isNumberWord(t.text))
}

// readNumber reads a numeral or a run of number words. numeral is the source
// text when a single numeral token was read.
func readNumber(tokens []token, i int) (float64, int, string, bool) {
	if i >= len(tokens) {
		return 0, 0, "", false
	}
	t := tokens[i]
	switch {
	case t.kind == numberToken:
		v, ok := parseNumeral(t.text)
		if !ok {
			return 0, 0, "", false
		}
		return v, i + 1, t.text, true
	case t.kind == wordToken && isNumberWord(t.text):
		v, next, ok := readNumberWords(tokens, i)
		return v, next, "", ok
	default:
		return 0, 0, "", false
	}
}

// readNumberWords reads phrases like "twenty five" or "one hundred and ten".
// A lone small word such as "one" only counts when a multiplier or unit
// follows it, so "one of the" yields nothing.
func readNumberWords(tokens []token, i int) (float64, int, bool) {
	var value float64
	significant := false
	j := i
	for j < len(tokens) && tokens[j].kind == wordToken {
		w := tokens[j].text
		if v, ok := smallNumberWords[w]; ok {
			value += v
			j++
			continue
		}
		if v, ok := tensWords[w]; ok {
			value += v
			significant = true
			j++
			continue
		}
		if w == "hundred" && j > i {
			value *= 100
			significant = true
			j++
			continue
		}
		if w == "and" && j > i && j+1 < len(tokens) && isNumberWord(tokens[j+1].text) {
			j++
			continue
		}
		break
	}
	if j == i {
		return 0, 0, false
	}
	if !significant && !followedByScale(tokens, j) {
		return 0, 0, false
	}
	return value, j, true
}

func followedByScale(tokens []token, i int) bool {
	if i >= len(tokens) {
		return false
	}
	if _, ok := multipliers[tokens[i].text]; ok {
		return true
	}
	_, n := readUnitSuffix(tokens, i)
	return n > 0
}

// readUnitSuffix returns the unit at i and the number of tokens it spans.
func readUnitSuffix(tokens []token, i int) (unit, int) {
	if i >= len(tokens) {
		return unit{}, 0
	}
	if tokens[i].text == "per" && i+1 < len(tokens) && tokens[i+1].text == "cent" {
		return percent, 2
	}
	if u, ok := unitSuffixes[tokens[i].text]; ok {
		return u, 1
	}
	return unit{}, 0
}

// parseNumeral parses "50,000", "1,00,000" and "39.84".
// Group separators must sit in Indian (2-digit) or Western (3-digit) positions.
func parseNumeral(s string) (float64, bool) {
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" || strings.Contains(fracPart, ",") {
		return 0, false
	}
	if strings.Contains(intPart, ",") && !validGrouping(strings.Split(intPart, ",")) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func validGrouping(groups []string) bool {
	last := len(groups) - 1
	for i, g := range groups {
		switch {
		case i == 0:
			if len(g) < 1 || len(g) > 3 {
				return false
			}
		case i == last:
			if len(g) != 3 {
				return false
			}
		default:
			if len(g) != 2 && len(g) != 3 {
				return false
			}
		}
	}
	return true
}

func isYear(numeral string, value float64) bool {
	if len(numeral) != 4 || strings.ContainsAny(numeral, ".,") {
		return false
	}
	return value >= 1900 && value <= 2100
}
