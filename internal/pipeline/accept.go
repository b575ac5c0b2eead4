package pipeline

import "leadgen-relay-go/internal/ai"

// Accept decides whether a qualification result clears the bar: the model
// must both mark the lead qualified and score at or above the threshold.
// The boundary is inclusive.
func Accept(result *ai.QualificationResult, threshold float64) bool {
	return result.IsQualified && result.RelevanceScore >= threshold
}
