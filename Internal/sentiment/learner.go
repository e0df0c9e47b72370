package sentiment

import (
	"fmt"
	"math"
	"unicode/utf8"
)

type Policy string

const (
	PolicyGradient  Policy = "gradient"
	PolicyAveraging Policy = "averaging"
)

// Sample is what a learner sees after an item has been scored.
type Sample struct {
	Text    string
	Score   float64
	Unknown []string
}

// Learner feeds a realized score back into the lexicon.
type Learner interface {
	Learn(sample Sample, lexicon *Lexicon) error
	Policy() Policy
}

type LearnerParams struct {
	LearningRate  float64
	MinScore      float64
	MinWordLength int
}

func DefaultLearnerParams() LearnerParams {
	return LearnerParams{
		LearningRate:  0.05,
		MinScore:      0.01,
		MinWordLength: 3,
	}
}

func NewLearner(policy Policy, params LearnerParams) (Learner, error) {
	switch policy {
	case PolicyGradient, "":
		return &GradientNudge{params: params}, nil
	case PolicyAveraging:
		return &Averaging{params: params}, nil
	}
	return nil, fmt.Errorf("unknown learning policy %q", policy)
}

// GradientNudge moves every word of the text toward the realized score.
// Weights are not clamped.
type GradientNudge struct {
	params LearnerParams
}

func (g *GradientNudge) Policy() Policy { return PolicyGradient }

func (g *GradientNudge) Learn(sample Sample, lexicon *Lexicon) error {
	if err := checkScore(sample.Score); err != nil {
		return err
	}
	if math.Abs(sample.Score) < g.params.MinScore {
		return nil
	}

	step := g.params.LearningRate * sample.Score
	updates := make(map[string]float64)
	for word := range Words(sample.Text) {
		if utf8.RuneCountInString(word) < g.params.MinWordLength {
			continue
		}
		if _, done := updates[word]; done {
			continue
		}
		updates[word] = lexicon.Get(word) + step
	}
	return lexicon.Apply(updates)
}

// Averaging spreads the score evenly over the words the scorer did not know
// and blends it with any weight a word picked up in the meantime.
type Averaging struct {
	params LearnerParams
}

func (a *Averaging) Policy() Policy { return PolicyAveraging }

func (a *Averaging) Learn(sample Sample, lexicon *Lexicon) error {
	if err := checkScore(sample.Score); err != nil {
		return err
	}

	words := make([]string, 0, len(sample.Unknown))
	for _, word := range sample.Unknown {
		if utf8.RuneCountInString(word) >= a.params.MinWordLength && ValidWord(word) {
			words = append(words, word)
		}
	}
	if len(words) == 0 {
		return nil
	}

	share := sample.Score / float64(len(words))
	updates := make(map[string]float64, len(words))
	for _, word := range words {
		old, ok := updates[word]
		if !ok {
			old, ok = lexicon.Lookup(word)
		}
		if ok {
			updates[word] = (old + share) / 2
		} else {
			updates[word] = share
		}
	}
	return lexicon.Apply(updates)
}

func checkScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("%w: score %v", ErrNonFinite, score)
	}
	return nil
}
