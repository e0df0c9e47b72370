package sentiment

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T, weights map[string]float64) *Scorer {
	t.Helper()
	lex, err := NewLexicon(weights)
	require.NoError(t, err)
	return NewScorer(lex, DefaultWeights(), DefaultThresholds())
}

func TestScore_NegatedLossDoesNotScore(t *testing.T) {
	s := newTestScorer(t, map[string]float64{"gain": 1.0, "loss": -1.0})

	res := s.Score("Company reports gain not loss")

	assert.Equal(t, 1.0, res.Raw)
	assert.Equal(t, 5, res.TokenCount)
	assert.InDelta(t, 1.0/math.Sqrt(5), res.Normalized, 1e-12)
	assert.InDelta(t, 0.447, res.Normalized, 0.001)
	assert.Equal(t, Positive, s.Thresholds().Classify(res.Normalized))
	assert.Equal(t, []Term{{Word: "gain", Weight: 1.0}}, res.Matched)
	assert.Equal(t, []string{"company", "reports", "not"}, res.Unknown)
}

func TestScore_NegatedEntry(t *testing.T) {
	s := newTestScorer(t, map[string]float64{"good": 1.0, "NOT_good": -0.8})

	res := s.Score("not good")
	assert.InDelta(t, -0.8, res.Raw, 1e-12)
	assert.Equal(t, 2, res.TokenCount)
}

func TestScore_NothingScoreable(t *testing.T) {
	s := newTestScorer(t, map[string]float64{"gain": 1.0})

	for _, text := range []string{"", "   ", "2024 $5.00 -- 10%"} {
		res := s.Score(text)
		assert.Zero(t, res.TokenCount, text)
		assert.Zero(t, res.Normalized, text)
		assert.Equal(t, Neutral, s.Thresholds().Classify(res.Normalized), text)
	}
}

func TestScore_NoMatchesExposesUnknown(t *testing.T) {
	s := newTestScorer(t, map[string]float64{"gain": 1.0})

	res := s.Score("Board meets on Tuesday")
	assert.Zero(t, res.Raw)
	assert.Zero(t, res.Normalized)
	assert.Empty(t, res.Matched)
	assert.Equal(t, []string{"board", "meets", "on", "tuesday"}, res.Unknown)
}

func TestScore_TypographicPunctuation(t *testing.T) {
	s := newTestScorer(t, map[string]float64{"strong": 1.0, "help": 0.5, "NOT_help": -0.5})

	res := s.Score("Boeing posts “strong” quarter—doesn’t help")
	assert.InDelta(t, 0.5, res.Raw, 1e-12)
	assert.Equal(t, []Term{{Word: "strong", Weight: 1.0}, {Word: "NOT_help", Weight: -0.5}}, res.Matched)
	assert.Equal(t, 5, res.TokenCount)
}

func TestScoreArticle(t *testing.T) {
	s := newTestScorer(t, map[string]float64{"gain": 1.0, "loss": -1.0})

	tests := []struct {
		name      string
		title     string
		summary   string
		content   string
		want      float64
		wantLabel Label
	}{
		{
			name:      "title outweighs summary",
			title:     "gain",
			summary:   "loss loss",
			want:      (1.5 - 2/math.Sqrt(2)) / 2,
			wantLabel: Neutral,
		},
		{
			name:      "body joins the average",
			title:     "gain",
			summary:   "loss loss",
			content:   "gain gain gain gain",
			want:      (1.5 - 2/math.Sqrt(2) + 2*0.5) / 2.5,
			wantLabel: Positive,
		},
		{
			name:      "blank body is ignored",
			title:     "loss",
			summary:   "loss",
			content:   "  ",
			want:      (-1.5 - 1) / 2,
			wantLabel: Negative,
		},
		{
			name:      "empty item",
			want:      0,
			wantLabel: Neutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ScoreArticle(tt.title, tt.summary, tt.content)
			if math.Abs(got.Combined-tt.want) > 1e-9 {
				t.Errorf("Combined = %v, want %v", got.Combined, tt.want)
			}
			if got.Label != tt.wantLabel {
				t.Errorf("Label = %v, want %v", got.Label, tt.wantLabel)
			}
		})
	}
}

func TestArticleScore_Unknown(t *testing.T) {
	s := newTestScorer(t, map[string]float64{"gain": 1.0})

	got := s.ScoreArticle("Gain for Boeing", "Deliveries rose", "hangar")
	want := []string{"for", "boeing", "deliveries", "rose", "hangar"}
	if !slices.Equal(got.Unknown(), want) {
		t.Errorf("Unknown() = %v, want %v", got.Unknown(), want)
	}
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		score float64
		want  Label
	}{
		{0.05, Positive},
		{0.9, Positive},
		{-0.05, Negative},
		{-3, Negative},
		{0.0499, Neutral},
		{-0.0499, Neutral},
		{0, Neutral},
	}
	for _, tt := range tests {
		if got := th.Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestParseLabel(t *testing.T) {
	l, ok := ParseLabel(" Positive ")
	assert.True(t, ok)
	assert.Equal(t, Positive, l)

	_, ok = ParseLabel("bullish")
	assert.False(t, ok)
}
