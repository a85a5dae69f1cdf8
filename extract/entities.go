package extract

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Stop words trimmed from the edges of entity phrases
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "will": true, "has": true, "had": true, "were": true,
	"been": true, "its": true, "their": true, "all": true, "under": true,
	"over": true, "per": true, "into": true, "about": true, "said": true,
}

// connectors may appear in lowercase inside a capitalized phrase,
// as in "Ministry of Rural Development".
var connectors = map[string]bool{
	"of": true, "and": true, "for": true, "the": true,
}

var schemeMarkers = map[string]bool{
	"yojana": true, "mission": true, "scheme": true, "abhiyan": true,
}

const maxSchemeNameWords = 4

var states = []string{
	"andhra pradesh", "arunachal pradesh", "assam", "bihar", "chhattisgarh",
	"goa", "gujarat", "haryana", "himachal pradesh", "jharkhand", "karnataka",
	"kerala", "madhya pradesh", "maharashtra", "manipur", "meghalaya", "mizoram",
	"nagaland", "odisha", "punjab", "rajasthan", "sikkim", "tamil nadu",
	"telangana", "tripura", "uttar pradesh", "uttarakhand", "west bengal",
	"andaman and nicobar islands", "chandigarh",
	"dadra and nagar haveli and daman and diu", "delhi", "jammu and kashmir",
	"ladakh", "lakshadweep", "puducherry", "india",
}

var ministries = []string{
	"agriculture and farmers welfare", "ayush", "civil aviation", "coal",
	"commerce and industry", "consumer affairs food and public distribution",
	"cooperation", "corporate affairs", "culture", "defence", "earth sciences",
	"education", "electronics and information technology",
	"environment forest and climate change", "external affairs",
	"finance", "fisheries animal husbandry and dairying",
	"food processing industries", "health and family welfare", "heavy industries",
	"home affairs", "housing and urban affairs", "information and broadcasting",
	"jal shakti", "labour and employment", "law and justice",
	"micro small and medium enterprises", "mines", "minority affairs",
	"new and renewable energy", "panchayati raj", "parliamentary affairs",
	"petroleum and natural gas", "ports shipping and waterways", "power",
	"railways", "road transport and highways", "rural development",
	"science and technology", "skill development and entrepreneurship",
	"social justice and empowerment", "statistics and programme implementation",
	"steel", "textiles", "tourism", "tribal affairs",
	"women and child development", "youth affairs and sports",
}

// defaultGazetteer lists known entity names in normalized form.
func defaultGazetteer() []string {
	gazetteer := make([]string, 0, len(states)+len(ministries))
	gazetteer = append(gazetteer, states...)
	for _, m := range ministries {
		gazetteer = append(gazetteer, "ministry of "+m)
	}
	return gazetteer
}

// rawEntities finds acronyms and capitalized multi-word phrases in raw text.
// Results are not yet normalized.
func rawEntities(raw string) []string {
	var found []string
	var phrase []string
	capitalized := 0

	endPhrase := func() {
		for len(phrase) > 0 && stopWords[strings.ToLower(phrase[len(phrase)-1])] {
			if isCapitalized(phrase[len(phrase)-1]) {
				capitalized--
			}
			phrase = phrase[:len(phrase)-1]
		}
		for len(phrase) > 0 && stopWords[strings.ToLower(phrase[0])] {
			if isCapitalized(phrase[0]) {
				capitalized--
			}
			phrase = phrase[1:]
		}
		if capitalized >= 2 {
			found = append(found, strings.Join(phrase, " "))
		}
		phrase = phrase[:0]
		capitalized = 0
	}

	for _, field := range strings.Fields(norm.NFKC.String(raw)) {
		word := strings.TrimFunc(field, isEdgePunct)
		if word == "" {
			endPhrase()
			continue
		}
		if !strings.HasPrefix(field, word) {
			endPhrase()
		}

		if isAcronym(word) {
			found = append(found, word)
		}

		switch {
		case isCapitalized(word):
			phrase = append(phrase, word)
			capitalized++
		case len(phrase) > 0 && connectors[word]:
			phrase = append(phrase, word)
		default:
			endPhrase()
		}

		if !strings.HasSuffix(field, word) {
			endPhrase()
		}
	}
	endPhrase()
	return found
}

func isEdgePunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

// isAcronym reports whether word is two or more capitals, optionally with digits.
func isAcronym(word string) bool {
	upper := 0
	for _, r := range word {
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsDigit(r):
		default:
			return false
		}
	}
	return upper >= 2
}

// gazetteerEntities returns the gazetteer phrases present in normalized text
// on word boundaries.
func gazetteerEntities(normalized string, gazetteer []string) []string {
	padded := " " + normalized + " "
	var found []string
	for _, name := range gazetteer {
		if strings.Contains(padded, " "+name+" ") {
			found = append(found, name)
		}
	}
	return found
}

// schemeEntities returns scheme names such as "pradhan mantri awas yojana":
// a marker word and up to four non-stop words before it.
func schemeEntities(tokens []token) []string {
	var found []string
	for i, t := range tokens {
		if !schemeMarkers[t.text] {
			continue
		}
		first := i
		for first > 0 && i-first < maxSchemeNameWords {
			prev := tokens[first-1]
			if prev.kind != wordToken || stopWords[prev.text] || schemeMarkers[prev.text] || isNumberWord(prev.text) {
				break
			}
			if _, ok := multipliers[prev.text]; ok {
				break
			}
			first--
		}
		if first == i {
			continue
		}
		words := make([]string, 0, i-first+1)
		for _, w := range tokens[first : i+1] {
			words = append(words, w.text)
		}
		found = append(found, strings.Join(words, " "))
	}
	return found
}

// uniqueNormalized normalizes every entity, drops empties and returns them
// sorted and unique.
func uniqueNormalized(groups ...[]string) []string {
	var out []string
	for _, group := range groups {
		for _, e := range group {
			if n := Normalize(e); n != "" {
				out = append(out, n)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
