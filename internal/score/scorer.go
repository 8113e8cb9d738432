// Package score provides quality scoring for code candidates.
package score

import (
	"math"
)

// invalidCeiling caps the score of a candidate that failed syntax
// validation, regardless of its other features.
const invalidCeiling = 4.0

// Input holds the factors feeding one quality score.
type Input struct {
	Confidence     float64 // detector confidence, [0,1]
	SyntaxOK       bool
	Length         int // span length in bytes
	Lines          int
	KeywordDensity float64 // [0,1]
	HasComments    bool
}

// Scorer combines detector confidence, validator outcome and surface
// features into a single 0-10 quality score.
type Scorer struct {
	weights struct {
		confidenceWeight float64
		syntaxWeight     float64
		surfaceWeight    float64
	}
}

// NewScorer creates a scorer with default weights.
func NewScorer() *Scorer {
	s := &Scorer{}
	s.weights.confidenceWeight = 5.0 // Detector confidence dominates
	s.weights.syntaxWeight = 3.0     // Syntax validity is the second pillar
	s.weights.surfaceWeight = 2.0    // Surface features fine-tune within the rest
	return s
}

// NewScorerWithWeights creates a scorer with custom weights, normalized so
// they sum to 10.
func NewScorerWithWeights(confidenceWeight, syntaxWeight, surfaceWeight float64) *Scorer {
	total := confidenceWeight + syntaxWeight + surfaceWeight
	if total > 0 {
		scale := 10.0 / total
		confidenceWeight *= scale
		syntaxWeight *= scale
		surfaceWeight *= scale
	}
	s := &Scorer{}
	s.weights.confidenceWeight = confidenceWeight
	s.weights.syntaxWeight = syntaxWeight
	s.weights.surfaceWeight = surfaceWeight
	return s
}

// Score computes the composite quality score. The result is always in
// [0,10]. Holding other factors fixed, the score is non-decreasing in
// Confidence and in SyntaxOK.
func (s *Scorer) Score(in Input) float64 {
	conf := clamp01(in.Confidence)

	raw := conf * s.weights.confidenceWeight
	if in.SyntaxOK {
		raw += s.weights.syntaxWeight
	}
	raw += s.surface(in) * s.weights.surfaceWeight

	if !in.SyntaxOK && raw > invalidCeiling {
		raw = invalidCeiling
	}

	return math.Max(0.0, math.Min(10.0, raw))
}

// surface scores the span's surface features in [0,1].
func (s *Scorer) surface(in Input) float64 {
	v := 0.0

	// Length sweet spot: too short is noise, very long blocks are often
	// concatenation artifacts.
	switch {
	case in.Length >= 80 && in.Length <= 4000:
		v += 0.4
	case in.Length >= 30:
		v += 0.2
	}

	if in.Lines >= 3 {
		v += 0.15
	}

	if in.HasComments {
		v += 0.15
	}

	v += 0.3 * clamp01(in.KeywordDensity/0.25)

	return clamp01(v)
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}
