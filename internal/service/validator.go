package service

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

// AnswerValidator checks typed answers against the accepted spellings.
type AnswerValidator struct{}

// NewAnswerValidator creates a new AnswerValidator.
func NewAnswerValidator() *AnswerValidator {
	return &AnswerValidator{}
}

// Validate reports whether userAnswer equals one of the accepted answers
// after normalization. Empty or malformed input returns
// entities.ErrInvalidAnswerFormat.
func (v *AnswerValidator) Validate(userAnswer string, accepted ...string) (bool, error) {
	if !utf8.ValidString(userAnswer) {
		return false, entities.ErrInvalidAnswerFormat
	}

	user := Normalize(userAnswer)
	if user == "" {
		return false, entities.ErrInvalidAnswerFormat
	}

	for _, a := range accepted {
		if a != "" && user == Normalize(a) {
			return true, nil
		}
	}
	return false, nil
}

// Normalize prepares text for comparison: Arabic diacritics and tatweel are
// removed, letter variants unified, case folded and whitespace collapsed.
func Normalize(s string) string {
	s = normalizeArabic(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// arabicVariants maps Arabic letter variants to their base letter.
var arabicVariants = map[rune]rune{
	'أ': 'ا', // Alef with hamza above
	'إ': 'ا', // Alef with hamza below
	'آ': 'ا', // Alef with madda
	'ٱ': 'ا', // Alef wasla
	'ة': 'ه', // Teh marbuta to heh
	'ى': 'ي', // Alef maksura to yeh
}

// normalizeArabic removes diacritics (harakat) and tatweel and unifies letter
// variants. Non-Arabic text passes through unchanged.
func normalizeArabic(s string) string {
	return strings.Map(func(r rune) rune {
		if isArabicMark(r) {
			return -1
		}
		if normalized, ok := arabicVariants[r]; ok {
			return normalized
		}
		return r
	}, s)
}

// isArabicMark reports harakat (U+064B..U+065F), the superscript alef
// (U+0670) and tatweel (U+0640).
func isArabicMark(r rune) bool {
	return (r >= 0x064B && r <= 0x065F) || r == 0x0670 || r == 0x0640
}
