package deduplication

import (
	"strings"
	"unicode"
)

// TitleSimilarity returns the Ratcliff/Obershelp ratio 2*M/T of two strings,
// computed over runes. M is the number of characters in matching blocks found
// by recursively taking the longest common substring. The raw algorithm is
// order-sensitive, so the larger of both orderings is returned.
// Either string empty yields 0.
func TitleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	return max(ratio(ra, rb), ratio(rb, ra))
}

func ratio(a, b []rune) float64 {
	m := newMatcher(a, b).matchingCharacters()
	return 2 * float64(m) / float64(len(a)+len(b))
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	b2j := make(map[rune][]int)
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &matcher{a: a, b: b, b2j: b2j}
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the given
// ranges. Ties go to the block starting earliest in a, then earliest in b.
func (m *matcher) longestMatch(alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestk
}

func (m *matcher) matchingCharacters() int {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	total := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// StopWords holds the tokens ignored by BodyJaccard.
type StopWords struct {
	English map[string]struct{}
	Chinese map[rune]struct{}
}

// NewStopWords builds a StopWords set. Multi-character Chinese entries are
// ignored since Chinese text is tokenized per character.
func NewStopWords(english, chinese []string) StopWords {
	sw := StopWords{
		English: make(map[string]struct{}, len(english)),
		Chinese: make(map[rune]struct{}, len(chinese)),
	}
	for _, w := range english {
		sw.English[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range chinese {
		if r := []rune(w); len(r) == 1 {
			sw.Chinese[r[0]] = struct{}{}
		}
	}
	return sw
}

// BodyJaccard returns |A∩B| / |A∪B| over the token sets of two bodies.
// English tokens are whole words made only of ASCII letters and digits, three
// or more characters long; Chinese text contributes one token per ideograph.
// Stop words are removed from both. Either set empty yields 0.
func BodyJaccard(a, b string, stop StopWords) float64 {
	if a == "" || b == "" {
		return 0
	}
	setA, setB := tokenize(a, stop), tokenize(b, stop)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func tokenize(text string, stop StopWords) map[string]struct{} {
	tokens := make(map[string]struct{})
	lower := strings.ToLower(text)

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !isWordRune(r)
	})
	for _, w := range words {
		if len(w) < 3 || !isASCIIAlnum(w) {
			continue
		}
		if _, skip := stop.English[w]; skip {
			continue
		}
		tokens[w] = struct{}{}
	}

	for _, r := range lower {
		if !isCJK(r) {
			continue
		}
		if _, skip := stop.Chinese[r]; skip {
			continue
		}
		tokens[string(r)] = struct{}{}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isASCIIAlnum(w string) bool {
	for i := 0; i < len(w); i++ {
		c := w[i]
		if !('a' <= c && c <= 'z') && !('0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
