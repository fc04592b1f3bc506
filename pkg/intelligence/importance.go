package intelligence

import (
	"math"
	"strings"
)

// ImportanceScorer evaluates the importance of memory content.
//
// The evaluation is a fixed keyword heuristic, not a learned model: each
// distinct high-importance keyword present anywhere in the lowercased
// content+context adds 0.2, each distinct medium-importance keyword adds
// 0.1, long content adds 0.1, and the result is capped at 1.0.
//
// The scorer is pure and stateless; the same inputs always yield the same
// score.
type ImportanceScorer struct {
	// highKeywords add 0.2 each when present (counted once per keyword).
	highKeywords []string

	// mediumKeywords add 0.1 each when present (counted once per keyword).
	mediumKeywords []string
}

// baseScore is the starting score before keyword and length adjustments.
const baseScore = 0.5

// NewImportanceScorer creates a scorer with the default keyword sets.
func NewImportanceScorer() *ImportanceScorer {
	return &ImportanceScorer{
		highKeywords: []string{
			"important", "critical", "always", "never", "prefer", "hate",
			"love", "essential", "must", "required", "need",
		},
		mediumKeywords: []string{
			"like", "use", "work", "project", "team", "company", "usually",
		},
	}
}

// Score returns the importance of a (content, context) pair in [0, 1].
func (s *ImportanceScorer) Score(content, context string) float64 {
	score := baseScore
	text := strings.ToLower(content + " " + context)

	for _, keyword := range s.highKeywords {
		if strings.Contains(text, keyword) {
			score += 0.2
		}
	}

	for _, keyword := range s.mediumKeywords {
		if strings.Contains(text, keyword) {
			score += 0.1
		}
	}

	// Longer memories tend to carry more detail.
	if len(content) > 100 {
		score += 0.1
	}

	return math.Min(score, 1.0)
}
