package sentiment

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

var (
	ErrInvalidWord = errors.New("invalid lexicon word")
	ErrNonFinite   = errors.New("non-finite weight")
)

// Term is a lexicon entry.
type Term struct {
	Word   string  `json:"word"`
	Weight float64 `json:"weight"`
}

// Lexicon maps words to signed weights. It is safe for concurrent readers
// alongside a single writer.
type Lexicon struct {
	mu      sync.RWMutex
	weights map[string]float64
}

// NewLexicon validates weights and copies them into a new Lexicon.
func NewLexicon(weights map[string]float64) (*Lexicon, error) {
	lex := &Lexicon{weights: make(map[string]float64, len(weights))}
	for word, weight := range weights {
		key, err := checkEntry(word, weight)
		if err != nil {
			return nil, err
		}
		lex.weights[key] = weight
	}
	return lex, nil
}

// SeedLexicon returns the hand-picked starting vocabulary used when no
// persisted lexicon is available.
func SeedLexicon() *Lexicon {
	lex := &Lexicon{weights: make(map[string]float64, len(seedPositive)+len(seedNegative))}
	for _, word := range seedPositive {
		lex.weights[word] = 1.0
	}
	for _, word := range seedNegative {
		lex.weights[word] = -1.0
	}
	return lex
}

var seedPositive = []string{
	"gain", "growth", "increase", "profit", "positive",
	"rise", "soar", "strong", "record", "surge",
	"boost", "improve", "outperform", "exceed", "beat",
	"bullish", "upgrade", "confident", "recovery", "opportunity",
}

var seedNegative = []string{
	"loss", "fall", "decline", "negative", "drop",
	"plunge", "weaken", "concern", "delay", "down",
	"miss", "underperform", "fear", "crisis", "lawsuit",
	"bearish", "downgrade", "risk", "warning", "recall",
}

// Get returns the weight for word, or 0 when the word is unknown.
func (l *Lexicon) Get(word string) float64 {
	weight, _ := l.Lookup(word)
	return weight
}

// Lookup reports the weight for word and whether an entry exists.
func (l *Lexicon) Lookup(word string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	weight, ok := l.weights[canonical(word)]
	return weight, ok
}

// Set inserts or replaces a single entry.
func (l *Lexicon) Set(word string, weight float64) error {
	return l.Apply(map[string]float64{word: weight})
}

// Apply upserts all entries or none of them.
func (l *Lexicon) Apply(updates map[string]float64) error {
	checked := make(map[string]float64, len(updates))
	for word, weight := range updates {
		key, err := checkEntry(word, weight)
		if err != nil {
			return err
		}
		checked[key] = weight
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, weight := range checked {
		l.weights[key] = weight
	}
	return nil
}

func (l *Lexicon) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.weights)
}

// Snapshot returns a copy of every entry.
func (l *Lexicon) Snapshot() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64, len(l.weights))
	for k, v := range l.weights {
		out[k] = v
	}
	return out
}

// Restore replaces the whole lexicon with a snapshot previously taken from it.
func (l *Lexicon) Restore(snapshot map[string]float64) {
	weights := make(map[string]float64, len(snapshot))
	for k, v := range snapshot {
		weights[k] = v
	}
	l.mu.Lock()
	l.weights = weights
	l.mu.Unlock()
}

// Top returns up to n entries ordered by descending absolute weight.
func (l *Lexicon) Top(n int) []Term {
	l.mu.RLock()
	terms := make([]Term, 0, len(l.weights))
	for word, weight := range l.weights {
		terms = append(terms, Term{Word: word, Weight: weight})
	}
	l.mu.RUnlock()

	sort.Slice(terms, func(i, j int) bool {
		ai, aj := math.Abs(terms[i].Weight), math.Abs(terms[j].Weight)
		if ai != aj {
			return ai > aj
		}
		return terms[i].Word < terms[j].Word
	})
	if n >= 0 && len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// ValidWord reports whether word can be a lexicon key: lowercase letters,
// optionally behind the negation prefix.
func ValidWord(word string) bool {
	word = strings.TrimPrefix(word, NegationPrefix)
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) || unicode.IsUpper(r) || unicode.IsTitle(r) {
			return false
		}
	}
	return true
}

func checkEntry(word string, weight float64) (string, error) {
	key := canonical(word)
	if !ValidWord(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWord, word)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return "", fmt.Errorf("%w: %q=%v", ErrNonFinite, word, weight)
	}
	return key, nil
}

func canonical(word string) string {
	if rest, ok := strings.CutPrefix(word, NegationPrefix); ok {
		return NegationPrefix + strings.ToLower(rest)
	}
	return strings.ToLower(word)
}
