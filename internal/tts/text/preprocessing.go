// Package text provides text normalization for Marathi speech generation.
//
// The engine receives text exactly as produced here: NFC-normalized Devanagari,
// collapsed whitespace, plain ASCII quotes and dashes, and a sentence terminator.
package text

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Devanagari punctuation.
const (
	Danda       = '।'
	DoubleDanda = '॥'
)

// Regex patterns for text preprocessing.
const (
	whitespaceRegexPattern  = `\s+`
	spaceBeforePunctPattern = `\s+([,.!?;:।॥])`
)

// Punctuation and formatting constants.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
	zeroWidthSp  = "\u200b"
	byteOrderMrk = "\ufeff"
)

// ErrInvalidEncoding is returned for input that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("text is not valid UTF-8")

// Preprocessor normalizes text before it is handed to the engine.
type Preprocessor struct {
	whitespacePattern       *regexp.Regexp
	spaceBeforePunctPattern *regexp.Regexp
	punctuationReplacer     *strings.Replacer
}

// NewPreprocessor creates a new text preprocessor with compiled patterns and replacers.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		whitespacePattern:       regexp.MustCompile(whitespaceRegexPattern),
		spaceBeforePunctPattern: regexp.MustCompile(spaceBeforePunctPattern),
		punctuationReplacer: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
			zeroWidthSp, "",
			byteOrderMrk, "",
		),
	}
}

// Validate rejects input that is not valid UTF-8.
func (p *Preprocessor) Validate(text string) error {
	if !utf8.ValidString(text) {
		return ErrInvalidEncoding
	}

	return nil
}

// PreprocessText normalizes text for synthesis. Empty or whitespace-only input
// yields an empty string.
func (p *Preprocessor) PreprocessText(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	// Devanagari has several equivalent encodings for nukta and vowel signs.
	normalizedText := norm.NFC.String(text)

	normalizedText = p.punctuationReplacer.Replace(normalizedText)
	normalizedText = p.normalizeWhitespace(normalizedText)
	normalizedText = p.removeExcessivePunctuation(normalizedText)

	return p.ensureProperSentenceEndings(normalizedText)
}

// normalizeWhitespace collapses runs of whitespace and drops spaces before
// punctuation.
func (p *Preprocessor) normalizeWhitespace(text string) string {
	text = p.whitespacePattern.ReplaceAllString(text, " ")
	text = p.spaceBeforePunctPattern.ReplaceAllString(text, "$1")

	return strings.TrimSpace(text)
}

// removeExcessivePunctuation collapses repeated identical punctuation marks,
// keeping "..." intact.
func (p *Preprocessor) removeExcessivePunctuation(text string) string {
	var (
		result   strings.Builder
		lastRune rune
		runCount int
	)

	for _, char := range text {
		if char == lastRune && unicode.IsPunct(char) {
			runCount++

			if char != '.' || runCount > 3 {
				continue
			}
		} else {
			runCount = 1
		}

		result.WriteRune(char)

		lastRune = char
	}

	return result.String()
}

// ensureProperSentenceEndings terminates the text with a danda when it does not
// already end with sentence punctuation.
func (p *Preprocessor) ensureProperSentenceEndings(text string) string {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return ""
	}

	lastChar, _ := utf8.DecodeLastRuneInString(trimmedText)

	switch lastChar {
	case '.', '!', '?', Danda, DoubleDanda:
		return trimmedText
	default:
		return strings.TrimRight(trimmedText, ",;:-") + string(Danda)
	}
}
