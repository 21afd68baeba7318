package ocr

import (
	"strings"
	"unicode"
)

// Thresholds for deciding that a page's extractable text is real content
// rather than stray artifacts (page numbers, watermark fragments). Pages
// below them go to OCR.
const (
	minRawChars      = 50
	minLetters       = 10
	minLetterDensity = 0.25
	minWords         = 8
	longWordLength   = 5
)

// HasRealText classifies a page's raw extracted text. A page counts as
// having a real text layer when the text is long enough, letter-dense
// enough, has enough words, and at least one word longer than five
// characters.
func HasRealText(raw string) bool {
	if len(raw) < minRawChars {
		return false
	}
	letters := 0
	for _, r := range raw {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < minLetters {
		return false
	}
	if float64(letters)/float64(len(raw)) < minLetterDensity {
		return false
	}
	words := strings.Fields(raw)
	if len(words) < minWords {
		return false
	}
	for _, w := range words {
		if len(w) > longWordLength {
			return true
		}
	}
	return false
}
