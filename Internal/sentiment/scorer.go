package sentiment

import (
	"math"
	"strings"
)

type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// ParseLabel accepts the three label names in any case.
func ParseLabel(s string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case Positive:
		return Positive, true
	case Negative:
		return Negative, true
	case Neutral:
		return Neutral, true
	}
	return "", false
}

type Thresholds struct {
	Positive float64
	Negative float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{Positive: 0.05, Negative: -0.05}
}

// Classify maps a score onto a label. Both bounds are inclusive.
func (t Thresholds) Classify(score float64) Label {
	if score >= t.Positive {
		return Positive
	}
	if score <= t.Negative {
		return Negative
	}
	return Neutral
}

// Weights are the multipliers used when title, summary and body are combined.
type Weights struct {
	Title   float64
	Content float64
}

func DefaultWeights() Weights {
	return Weights{Title: 1.5, Content: 0.5}
}

// Result is the score of a single piece of text.
type Result struct {
	Raw        float64
	Normalized float64
	TokenCount int
	Matched    []Term
	// Unknown lists plain tokens with no lexicon entry, in text order.
	Unknown []string
}

// ArticleScore combines the results for the fields of one news item.
type ArticleScore struct {
	Title    Result
	Summary  Result
	Content  *Result
	Combined float64
	Label    Label
}

// Unknown returns the unknown words of every scored field.
func (a ArticleScore) Unknown() []string {
	out := append([]string{}, a.Title.Unknown...)
	out = append(out, a.Summary.Unknown...)
	if a.Content != nil {
		out = append(out, a.Content.Unknown...)
	}
	return out
}

type Scorer struct {
	lexicon    *Lexicon
	weights    Weights
	thresholds Thresholds
}

func NewScorer(lexicon *Lexicon, weights Weights, thresholds Thresholds) *Scorer {
	return &Scorer{
		lexicon:    lexicon,
		weights:    weights,
		thresholds: thresholds,
	}
}

func (s *Scorer) Thresholds() Thresholds {
	return s.thresholds
}

// Score sums the weights of the matched tokens and dampens the sum by the
// square root of the token count.
func (s *Scorer) Score(text string) Result {
	var res Result
	for tok := range Tokens(text) {
		res.TokenCount++
		weight, ok := s.lexicon.Lookup(tok.Key())
		if ok {
			res.Raw += weight
			res.Matched = append(res.Matched, Term{Word: tok.Key(), Weight: weight})
			continue
		}
		if !tok.Negated {
			res.Unknown = append(res.Unknown, tok.Word)
		}
	}
	if res.TokenCount > 0 {
		res.Normalized = res.Raw / math.Sqrt(float64(res.TokenCount))
	}
	return res
}

// ScoreArticle scores a news item. The title is weighted up; when a body is
// supplied it is weighted down and joins the average.
func (s *Scorer) ScoreArticle(title, summary, content string) ArticleScore {
	out := ArticleScore{
		Title:   s.Score(title),
		Summary: s.Score(summary),
	}

	weighted := out.Title.Normalized*s.weights.Title + out.Summary.Normalized
	divisor := 2.0
	if strings.TrimSpace(content) != "" {
		body := s.Score(content)
		out.Content = &body
		weighted += body.Normalized * s.weights.Content
		divisor += s.weights.Content
	}

	out.Combined = weighted / divisor
	out.Label = s.thresholds.Classify(out.Combined)
	return out
}
