package service

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// BlankMarker replaces the masked word in a fill blank prompt.
const BlankMarker = "_____"

// swedishArticles are stripped from answers to find the bare noun.
var swedishArticles = []string{"den ", "det ", "en ", "ett "}

const arabicArticle = "ال"

// MaskExample replaces the first occurrence of one of forms in example with
// BlankMarker. Forms are tried in order, then their article-stripped
// variants; whole-word matches win over matches inside a longer word.
// Matching ignores case and Arabic diacritics. It returns the masked
// sentence and the form that matched.
func MaskExample(example string, forms []string) (string, string, bool) {
	if strings.TrimSpace(example) == "" {
		return "", "", false
	}

	candidates := maskForms(forms)
	hay := foldIndexed(example)

	for _, wholeWord := range []bool{true, false} {
		for _, form := range candidates {
			needle := foldRunes(form)
			if len(needle) == 0 {
				continue
			}
			start, end, ok := hay.find(needle, wholeWord)
			if !ok {
				continue
			}
			return example[:start] + BlankMarker + example[end:], form, true
		}
	}
	return "", "", false
}

// maskForms returns forms followed by their article-stripped variants,
// without blanks or duplicates.
func maskForms(forms []string) []string {
	out := make([]string, 0, len(forms)*2)
	seen := make(map[string]bool, len(forms)*2)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for _, f := range forms {
		add(f)
	}
	for _, f := range forms {
		add(stripArticle(f))
	}
	return out
}

// stripArticle removes a leading Swedish article or the Arabic definite
// article.
func stripArticle(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, a := range swedishArticles {
		if strings.HasPrefix(lower, a) && len(s) > len(a) {
			return strings.TrimSpace(s[len(a):])
		}
	}

	bare := normalizeArabic(s)
	if strings.HasPrefix(bare, arabicArticle) && len(bare) > len(arabicArticle) {
		return strings.TrimPrefix(bare, arabicArticle)
	}
	return s
}

// indexedText is folded text that remembers where each folded rune came
// from in the original string.
type indexedText struct {
	runes  []rune
	starts []int // byte offset of the source rune
	ends   []int // byte offset after the source rune and its trailing marks
}

func foldIndexed(s string) indexedText {
	var t indexedText
	for i, r := range s {
		_, size := utf8.DecodeRuneInString(s[i:])
		if isArabicMark(r) {
			if n := len(t.ends); n > 0 {
				t.ends[n-1] = i + size
			}
			continue
		}
		t.runes = append(t.runes, foldRune(r))
		t.starts = append(t.starts, i)
		t.ends = append(t.ends, i+size)
	}
	return t
}

func foldRunes(s string) []rune {
	return foldIndexed(strings.TrimSpace(s)).runes
}

func foldRune(r rune) rune {
	if v, ok := arabicVariants[r]; ok {
		r = v
	}
	return unicode.ToLower(r)
}

// find returns the source byte range of the first match of needle.
func (t indexedText) find(needle []rune, wholeWord bool) (int, int, bool) {
	n := len(needle)
	for k := 0; k+n <= len(t.runes); k++ {
		if !runesEqual(t.runes[k:k+n], needle) {
			continue
		}
		if wholeWord {
			if k > 0 && isWordRune(t.runes[k-1]) {
				continue
			}
			if k+n < len(t.runes) && isWordRune(t.runes[k+n]) {
				continue
			}
		}
		return t.starts[k], t.ends[k+n-1], true
	}
	return 0, 0, false
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
