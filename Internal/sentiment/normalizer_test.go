package sentiment

import (
	"slices"
	"testing"
)

func keys(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Key())
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "negation skips intensifier",
			text: "not very good",
			want: []string{"not", "very", "NOT_good"},
		},
		{
			name: "headline with negated loss",
			text: "Company reports gain not loss",
			want: []string{"company", "reports", "gain", "not", "NOT_loss"},
		},
		{
			name: "several fillers in a row",
			text: "No the quite strong rally",
			want: []string{"no", "the", "quite", "NOT_strong", "rally"},
		},
		{
			name: "punctuation is trimmed",
			text: "Profit, not loss!",
			want: []string{"profit", "not", "NOT_loss"},
		},
		{
			name: "digits and symbols are not scoreable",
			text: "Q3 revenue up 5%",
			want: []string{"revenue", "up"},
		},
		{
			name: "contraction cue is dropped but still negates",
			text: "isn't good",
			want: []string{"NOT_good"},
		},
		{
			name: "tagged word cannot negate again",
			text: "not not good",
			want: []string{"not", "NOT_not", "good"},
		},
		{
			name: "cue at end of text",
			text: "shares did not",
			want: []string{"shares", "did", "not"},
		},
		{
			name: "letters without a lowercase form are dropped",
			text: "Boeing 𝐁𝐔𝐘 rating",
			want: []string{"boeing", "rating"},
		},
		{
			name: "curly quotes are trimmed",
			text: "Boeing posts “strong” quarter",
			want: []string{"boeing", "posts", "strong", "quarter"},
		},
		{
			name: "em dash separates words",
			text: "profit—loss",
			want: []string{"profit", "loss"},
		},
		{
			name: "typographic apostrophe in cue",
			text: "doesn’t help",
			want: []string{"NOT_help"},
		},
		{
			name: "quoted cue still negates",
			text: "“not” good",
			want: []string{"not", "NOT_good"},
		},
		{
			name: "empty",
			text: "   ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keys(Normalize(tt.text))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokens_Restartable(t *testing.T) {
	seq := Tokens("Stocks never rally without strong earnings")

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second pass differs: %v vs %v", first, second)
	}
}

func TestTokens_StopEarly(t *testing.T) {
	var got []string
	for tok := range Tokens("one two three four") {
		got = append(got, tok.Key())
		if len(got) == 2 {
			break
		}
	}
	if !slices.Equal(got, []string{"one", "two"}) {
		t.Errorf("got %v", got)
	}
}

func TestWords_NoNegationTags(t *testing.T) {
	got := slices.Collect(Words("Not very GOOD, 42 times"))
	want := []string{"not", "very", "good", "times"}
	if !slices.Equal(got, want) {
		t.Errorf("Words = %v, want %v", got, want)
	}
}
