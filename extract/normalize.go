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

package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds text into the form that facts and claims are compared in:
// NFKC, lowercase, punctuation replaced by single spaces. Decimal points and
// digit group separators survive only between two digits. The symbols
// %, ₹ and $ are kept.
func Normalize(raw string) string {
	// cases.Caser is stateful, so one is made per call.
	folded := cases.Lower(language.Und).String(norm.NFKC.String(raw))
	runes := []rune(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for i, r := range runes {
		if !keepRune(runes, i) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func keepRune(runes []rune, i int) bool {
	r := runes[i]
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
		return true
	case isSymbol(r):
		return true
	case r == '.' || r == ',':
		return i > 0 && i+1 < len(runes) && isASCIIDigit(runes[i-1]) && isASCIIDigit(runes[i+1])
	default:
		return false
	}
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isSymbol(r rune) bool {
	return r == '%' || r == '₹' || r == '$'
}

type tokenKind int

const (
	wordToken tokenKind = iota
	numberToken
	symbolToken
)

// token is a run of normalized text. start and end are byte offsets.
type token struct {
	text       string
	kind       tokenKind
	start, end int
}

// tokenize splits normalized text into words, numerals and single symbols.
// "₹39.84" becomes two tokens, as does "10km".
func tokenize(s string) []token {
	var tokens []token
	start := -1
	var kind tokenKind

	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, token{text: s[start:end], kind: kind, start: start, end: end})
			start = -1
		}
	}

	for i, r := range s {
		if unicode.IsSpace(r) {
			flush(i)
			continue
		}
		k := classify(r)
		if k == symbolToken {
			flush(i)
			end := i + utf8.RuneLen(r)
			tokens = append(tokens, token{text: s[i:end], kind: symbolToken, start: i, end: end})
			continue
		}
		if start >= 0 && k != kind {
			flush(i)
		}
		if start < 0 {
			start, kind = i, k
		}
	}
	flush(len(s))
	return tokens
}

func classify(r rune) tokenKind {
	switch {
	case isASCIIDigit(r), r == '.', r == ',':
		return numberToken
	case isSymbol(r):
		return symbolToken
	default:
		return wordToken
	}
}
