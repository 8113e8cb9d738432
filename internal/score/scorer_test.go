package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorer_Score_Range(t *testing.T) {
	s := NewScorer()

	inputs := []Input{
		{},
		{Confidence: 1.0, SyntaxOK: true, Length: 500, Lines: 20, KeywordDensity: 0.5, HasComments: true},
		{Confidence: -2.0},
		{Confidence: 7.0, SyntaxOK: true, Length: 1 << 20, Lines: 100000, KeywordDensity: 99},
		{Confidence: 0.5, Length: 50, Lines: 2},
	}

	for _, in := range inputs {
		got := s.Score(in)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 10.0)
	}
}

func TestScorer_Score_InvalidSyntaxCapped(t *testing.T) {
	s := NewScorer()

	// Best possible candidate apart from failing validation.
	in := Input{
		Confidence:     1.0,
		SyntaxOK:       false,
		Length:         500,
		Lines:          20,
		KeywordDensity: 0.5,
		HasComments:    true,
	}

	assert.LessOrEqual(t, s.Score(in), 4.0)
}

func TestScorer_Score_ValidBeatsInvalidCeiling(t *testing.T) {
	s := NewScorer()

	in := Input{
		Confidence:     0.9,
		SyntaxOK:       true,
		Length:         500,
		Lines:          20,
		KeywordDensity: 0.3,
		HasComments:    true,
	}

	assert.Greater(t, s.Score(in), 4.0)
}

func TestScorer_Score_MonotoneInConfidence(t *testing.T) {
	s := NewScorer()

	for _, syntaxOK := range []bool{true, false} {
		prev := -1.0
		for conf := 0.0; conf <= 1.0001; conf += 0.05 {
			in := Input{
				Confidence:     conf,
				SyntaxOK:       syntaxOK,
				Length:         200,
				Lines:          8,
				KeywordDensity: 0.2,
			}
			got := s.Score(in)
			assert.GreaterOrEqual(t, got, prev,
				"score decreased at confidence %.2f (syntaxOK=%t)", conf, syntaxOK)
			prev = got
		}
	}
}

func TestScorer_Score_SyntaxFlipNeverDecreases(t *testing.T) {
	s := NewScorer()

	inputs := []Input{
		{Confidence: 0.0},
		{Confidence: 0.3, Length: 40, Lines: 2},
		{Confidence: 0.7, Length: 500, Lines: 10, KeywordDensity: 0.25},
		{Confidence: 1.0, Length: 5000, Lines: 300, KeywordDensity: 1.0, HasComments: true},
	}

	for _, in := range inputs {
		invalid := in
		invalid.SyntaxOK = false
		valid := in
		valid.SyntaxOK = true

		assert.GreaterOrEqual(t, s.Score(valid), s.Score(invalid),
			"flipping syntax to valid lowered the score for %+v", in)
	}
}

func TestNewScorerWithWeights_Normalized(t *testing.T) {
	// Weights 1/1/2 normalize to 2.5/2.5/5: a perfect candidate still
	// reaches exactly 10.
	s := NewScorerWithWeights(1, 1, 2)

	in := Input{
		Confidence:     1.0,
		SyntaxOK:       true,
		Length:         500,
		Lines:          20,
		KeywordDensity: 1.0,
		HasComments:    true,
	}

	assert.InDelta(t, 10.0, s.Score(in), 1e-9)
}

func TestNewScorerWithWeights_ZeroTotal(t *testing.T) {
	s := NewScorerWithWeights(0, 0, 0)

	in := Input{Confidence: 1.0, SyntaxOK: true, Length: 500, Lines: 20}
	assert.Equal(t, 0.0, s.Score(in))
}
