package normalize

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var boilerplate = compileAll(
	`(?:our |the )?privacy (?:statement|policy|notice)`,
	`cookie (?:policy|notice|consent)`,
	`by continuing to (?:browse|use|visit)`,
	`terms of (?:use|service)`,
	`(?:choose|select) (?:your )?language`,
	`(?:subscribe to|sign up for) (?:our )?newsletter`,
	`follow us on`,
	`share this (?:article|story)`,
	`互联网新闻信息(?:服务)?许可证`,
	`举报电话|备案号|ICP备`,
	`(?:©|copyright|\(c\))\s*\d{4}`,
	`all rights reserved`,
	`click here to`,
	`read more:`,
	`related (?:articles?|stories?|news):`,
	`become a member|support (?:our |independent )?journalism`,
	`(?:free|premium) membership|(?:monthly|annual) subscription`,
	`donate (?:now|today)`,
	`(?:previous|next) (?:article|story|post)`,
	`(?:share|tweet|post) (?:on|to) (?:facebook|twitter|x|whatsapp|linkedin)`,
	`(?:来源|來源)\s*[：:]\s*\S+`,
	`(?:编辑|編輯|责编|責編)\s*[：:]\s*\S+`,
	`(?:转载|轉載)请注明`,
)

var filler = compileAll(
	`^here (?:are|is) \w+`,
	`^(?:but |and |so |yet )`,
	`^over the (?:past|last) \w+`,
	`^in recent (?:years|months)`,
	`^(?:this|that) (?:comes?|came)`,
	`never been (?:easier|harder)`,
	`^in \d{4},?\s`,
	`^the \d+-year-old`,
)

var keyPoints = compileAll(
	`(?:will|would|may|could|should) (?:continue|remain|face|see|lead|result)`,
	`(?:is|are) (?:expected|likely|set|poised|preparing) to`,
	`(?:announced?|unveiled?|revealed?|confirmed?) (?:that|plans?|a new)`,
	`(?:according to|said|stated|noted|emphasized)`,
	`(?:the|this) (?:move|decision|policy|measure|action) (?:will|would|could|may)`,
	`^(?:china|beijing|the (?:u\.?s\.?|us)|washington|canada|ottawa)`,
)

var (
	numberPattern = regexp.MustCompile(`\d+[\d,.]*\s*(?:%|percent|billion|million|thousand|days?|countries)?`)
	properNoun    = regexp.MustCompile(`[A-Z][a-z]+(?:\s[A-Z][a-z]+)*`)
	longWord      = regexp.MustCompile(`\b\w{4,}\b`)
	actionVerb    = regexp.MustCompile(`\b(?:announced?|said|allow|permit|grant|require|impose|launch|sign|ban|approv)`)
	whitespace    = regexp.MustCompile(`\s+`)
	quoteBreak    = regexp.MustCompile(`[.!?。！？]`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

func matchesAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// splitSentences breaks text after . ! or ? when whitespace and a capital,
// quote or bracket follow. Fragments of 15 runes or fewer are dropped.
func splitSentences(text string) []string {
	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	runes := []rune(text)
	var out []string
	start := 0
	for i := 0; i < len(runes)-2; i++ {
		if !strings.ContainsRune(".!?", runes[i]) || runes[i+1] != ' ' {
			continue
		}
		next := runes[i+2]
		if unicode.IsUpper(next) || strings.ContainsRune("“‘\"'(", next) {
			out = append(out, string(runes[start:i+1]))
			start = i + 2
		}
	}
	out = append(out, string(runes[start:]))

	kept := out[:0]
	for _, s := range out {
		s = strings.TrimSpace(s)
		if runeLen(s) > 15 {
			kept = append(kept, s)
		}
	}
	return kept
}

func scoreSentence(sentence, title string, pos, total int) float64 {
	lower := strings.ToLower(sentence)
	score := float64(len(numberPattern.FindAllString(sentence, -1))) * 2
	score += float64(min(len(properNoun.FindAllString(sentence, -1)), 3)) * 0.5

	titleWords := map[string]bool{}
	for _, w := range longWord.FindAllString(strings.ToLower(title), -1) {
		titleWords[w] = true
	}
	overlap := 0
	seen := map[string]bool{}
	for _, w := range longWord.FindAllString(lower, -1) {
		if titleWords[w] && !seen[w] {
			overlap++
			seen[w] = true
		}
	}
	score += float64(overlap) * 3
	if len(titleWords) > 0 && overlap == 0 {
		score -= 2
	}

	if actionVerb.MatchString(lower) {
		score += 1.5
	}
	if matchesAny(keyPoints, lower) {
		score += 2.5
	}
	if matchesAny(filler, lower) {
		score -= 4
	}

	n := runeLen(sentence)
	if n < 60 {
		score--
	}
	if n > 350 {
		score -= 1.5
	}
	if pos < 3 {
		score += 1.5
	} else if r := float64(pos) / float64(max(total, 1)); r > 0.3 && r < 0.7 {
		score -= 0.5
	}
	return score
}

// Summarize picks the most informative sentences of text, in their original
// order, within roughly maxChars runes. When the picks skip the lede the first
// sentences are used instead.
func Summarize(text, title string, maxChars int) string {
	var sentences []string
	for _, s := range splitSentences(text) {
		if !matchesAny(boilerplate, s) {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return truncateRunes(strings.TrimSpace(whitespace.ReplaceAllString(text, " ")), maxChars)
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		ranked[i] = scored{i, scoreSentence(s, title, i, len(sentences))}
	}
	slices.SortStableFunc(ranked, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	var picked []int
	total := 0
	for _, r := range ranked {
		added := runeLen(sentences[r.idx])
		if total > 0 {
			added++
			if total+added > maxChars {
				continue
			}
		}
		picked = append(picked, r.idx)
		total += added
		if float64(total) >= float64(maxChars)*0.75 {
			break
		}
	}
	slices.Sort(picked)

	if picked[0] > 2 {
		lede := ""
		for _, s := range sentences[:min(3, len(sentences))] {
			if runeLen(lede)+runeLen(s)+1 > maxChars {
				break
			}
			if lede != "" {
				lede += " "
			}
			lede += s
		}
		if lede != "" {
			return completeSentences(lede)
		}
	}

	parts := make([]string, len(picked))
	for i, idx := range picked {
		parts[i] = sentences[idx]
	}
	return completeSentences(strings.Join(parts, " "))
}

// completeSentences trims a trailing fragment back to the last sentence end,
// or marks it with an ellipsis when no early enough end exists.
func completeSentences(text string) string {
	text = strings.TrimRightFunc(text, unicode.IsSpace)
	if text == "" {
		return text
	}
	runes := []rune(text)
	if strings.ContainsRune(".!?。！？", runes[len(runes)-1]) {
		return text
	}
	last := -1
	for i, r := range runes {
		if strings.ContainsRune(".!?。！？", r) {
			last = i
		}
	}
	if last > 20 {
		return string(runes[:last+1])
	}
	return text + "..."
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// truncateWords cuts s to n runes at a word boundary and adds an ellipsis.
func truncateWords(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	cut := truncateRunes(s, n)
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

var (
	enQuoteIndicators = []string{
		"said", "stated", "according to", "told reporters",
		"announced", "emphasized", "warned", "noted",
		"ministry", "spokesman", "official", "government",
	}
	zhQuoteIndicators = []string{
		"表示", "指出", "强调", "称", "说", "认为",
		"发言人", "外交部", "国务院", "官员",
		`"`, "“", "「",
	}
)

// ExtractQuote returns the first sentence of 30 to 300 runes that contains
// one of the indicators, whitespace collapsed.
func ExtractQuote(text string, indicators []string) string {
	for _, sentence := range quoteBreak.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if n := runeLen(sentence); n < 30 || n > 300 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, ind := range indicators {
			if strings.Contains(lower, ind) {
				if clean := strings.TrimSpace(whitespace.ReplaceAllString(sentence, " ")); clean != "" {
					return clean
				}
			}
		}
	}
	return ""
}

func isCJK(r rune) bool { return r >= 0x4E00 && r <= 0x9FFF }

// IsPrimarilyChinese reports whether more than 30% of the non-space runes are
// CJK ideographs.
func IsPrimarilyChinese(text string) bool {
	cjk, total := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isCJK(r) {
			cjk++
		}
	}
	return total > 0 && float64(cjk)/float64(total) > 0.3
}

// HasEnglishFragments reports whether ASCII letters make up more than
// threshold of the non-space runes.
func HasEnglishFragments(text string, threshold float64) bool {
	ascii, total := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r < utf8.RuneSelf && unicode.IsLetter(r) {
			ascii++
		}
	}
	return total > 0 && float64(ascii)/float64(total) > threshold
}
