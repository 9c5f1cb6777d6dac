package pipeline

import (
	"math"

	"github.com/sells-group/contract-guard/internal/model"
)

// maxRiskScore caps the aggregate risk score.
const maxRiskScore = 100

// AggregateRiskScore combines the checkers' contributions into one bounded
// integer score. Identical terms and policy always produce the identical
// score; the checkers carry all weighting, none is applied here.
func AggregateRiskScore(checks ...model.CheckResult) int {
	total := 0.0
	for _, c := range checks {
		total += c.RiskScoreContribution
	}

	score := int(math.Round(total))
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score
}

// FallbackVerdict builds a policy-only verdict from the checker outputs,
// used whenever the resolver's narrative output is unavailable or unusable.
// Confidence is the fixed fallback value; no formula derives it.
func FallbackVerdict(score int, reasoning string, checks ...model.CheckResult) model.Verdict {
	keyFactors := make([]string, 0, 4)
	for _, c := range checks {
		for _, issue := range c.Issues {
			keyFactors = append(keyFactors, issue.Description)
		}
	}
	if len(keyFactors) == 0 {
		keyFactors = []string{"No policy risk factors identified"}
	}
	if reasoning == "" {
		reasoning = "Verdict computed from policy checks without narrative adjudication."
	}

	return model.Verdict{
		RiskScore:      score,
		Confidence:     fallbackConfidence,
		Recommendation: model.RecommendationForScore(score),
		Reasoning:      reasoning,
		KeyFactors:     keyFactors,
	}
}

// fallbackConfidence is reported on every fallback path.
const fallbackConfidence = 70
