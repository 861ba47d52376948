package classify

import (
	"strings"
	"unicode"

	"compass/types"
)

// document is lowercased searchable text plus its word set. Single ASCII
// words match whole words; phrases and Chinese terms match as substrings.
type document struct {
	raw   string
	lower string
	words map[string]struct{}
}

func newDocument(parts ...string) document {
	raw := strings.Join(parts, " ")
	lower := strings.ToLower(raw)
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(lower, isSeparator) {
		words[w] = struct{}{}
	}
	return document{raw: raw, lower: lower, words: words}
}

func isSeparator(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsNumber(r)) || unicode.Is(unicode.Han, r)
}

func isASCIIWord(term string) bool {
	for _, r := range term {
		if r > unicode.MaxASCII || isSeparator(r) {
			return false
		}
	}
	return term != ""
}

func (d document) has(term string) bool {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return false
	}
	if isASCIIWord(t) {
		_, ok := d.words[t]
		return ok
	}
	return strings.Contains(d.lower, t)
}

// count returns how many distinct terms of the list occur in the document.
func (d document) count(terms Terms) int {
	n := 0
	for _, list := range [][]string{terms.EN, terms.ZH} {
		for _, t := range list {
			if d.has(t) {
				n++
			}
		}
	}
	return n
}

func (d document) any(terms ...string) bool {
	for _, t := range terms {
		if d.has(t) {
			return true
		}
	}
	return false
}

func textParts(t types.Text) []string {
	if t.ZH == "" || t.ZH == t.EN {
		return []string{t.EN}
	}
	return []string{t.EN, t.ZH}
}

// signalDocument gathers the title and the best available body of a signal.
func signalDocument(sig types.Signal) document {
	parts := textParts(sig.Title)
	parts = append(parts, textParts(sig.Content())...)
	return newDocument(parts...)
}
