package sentiment

import (
	"iter"
	"slices"
	"strings"
	"unicode"
)

// NegationPrefix marks a token that sits in the scope of a negation cue.
const NegationPrefix = "NOT_"

var apostrophes = strings.NewReplacer("\u2019", "'", "\u2018", "'", "\u02bc", "'")

var negationCues = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "barely": true, "hardly": true,
	"doesn't": true, "isn't": true, "aren't": true, "wasn't": true, "weren't": true,
}

// Words a cue may skip over before it tags the next substantive word.
var negationFillers = map[string]bool{
	"a": true, "the": true, "an": true, "very": true, "so": true, "quite": true,
}

// Token is a normalized word. A negated token looks up a different lexicon
// entry than its plain form.
type Token struct {
	Word    string
	Negated bool
}

// Key returns the lexicon key for the token.
func (t Token) Key() string {
	if t.Negated {
		return NegationPrefix + t.Word
	}
	return t.Word
}

func (t Token) String() string {
	return t.Key()
}

// Tokens lazily yields the scoreable tokens of text. Each call starts from
// scratch, so the returned sequence can be ranged over any number of times.
func Tokens(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		words := splitWords(text)
		negated := markNegations(words)
		for i, raw := range words {
			word := trimWord(raw)
			if !isAlphabetic(word) {
				continue
			}
			if !yield(Token{Word: word, Negated: negated[i]}) {
				return
			}
		}
	}
}

// Normalize collects Tokens(text).
func Normalize(text string) []Token {
	return slices.Collect(Tokens(text))
}

// Words yields the plain alphabetic words of text with no negation tagging.
func Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, raw := range splitWords(text) {
			word := trimWord(raw)
			if !isAlphabetic(word) {
				continue
			}
			if !yield(word) {
				return
			}
		}
	}
}

// markNegations flags, for every cue, the first following word that is not a
// filler. A flagged word can no longer act as a cue itself.
func markNegations(words []string) []bool {
	negated := make([]bool, len(words))
	for i := 0; i < len(words)-1; i++ {
		if negated[i] || !negationCues[trimWord(words[i])] {
			continue
		}
		j := i + 1
		for j < len(words) && negationFillers[trimWord(words[j])] {
			j++
		}
		if j < len(words) {
			negated[j] = true
		}
	}
	return negated
}

// splitWords lowercases text and splits it on whitespace and dashes.
// Typographic apostrophes are folded to ASCII so contractions match the cues.
func splitWords(text string) []string {
	text = apostrophes.Replace(strings.ToLower(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.Is(unicode.Pd, r)
	})
}

// trimWord strips surrounding quotes and punctuation of any script.
func trimWord(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// isAlphabetic accepts only words that are also valid lexicon keys, so a
// letter without a lowercase form never reaches the learners.
func isAlphabetic(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return ValidWord(word)
}
