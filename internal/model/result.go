package model

// Severity classifies how serious an issue or finding is.
type Severity string

// Severity levels, also used as the risk_level on auditor findings.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is a single policy concern raised by a compliance checker.
// Issues are immutable once created.
type Issue struct {
	Type            string   `json:"type"`
	Severity        Severity `json:"severity"`
	Description     string   `json:"description"`
	ASC606Reference string   `json:"asc_606_reference,omitempty"`
}

// CheckResult is the output of a single compliance checker.
//
// Compliant is false only when the checker found a hard policy violation.
// Issues may be present on a compliant result: milestone payments and high
// escalation add risk without flipping the flag.
type CheckResult struct {
	Compliant             bool    `json:"compliant"`
	Issues                []Issue `json:"issues"`
	RiskScoreContribution float64 `json:"risk_score_contribution"`
}

// NewCheckResult returns a compliant, zero-contribution result for a checker
// to fill in.
func NewCheckResult() CheckResult {
	return CheckResult{Compliant: true, Issues: []Issue{}}
}

// Strength rates how well an advocate argument holds up.
type Strength string

// Argument strength ratings.
const (
	StrengthStrong   Strength = "strong"
	StrengthModerate Strength = "moderate"
	StrengthWeak     Strength = "weak"
)

// AdvocateArgument is one argument in favor of accepting the contract.
// DegradedReason is set only when the argument is a degraded substitute for
// narrative output that could not be parsed.
type AdvocateArgument struct {
	Point          string   `json:"point"`
	Argument       string   `json:"argument"`
	Strength       Strength `json:"strength"`
	DegradedReason string   `json:"degraded_reason,omitempty"`
}

// AuditorFinding is one risky clause identified by the auditor.
type AuditorFinding struct {
	Clause            string   `json:"clause"`
	RiskLevel         Severity `json:"risk_level"`
	Finding           string   `json:"finding"`
	ASC606Reference   string   `json:"asc_606_reference,omitempty"`
	ExactQuote        string   `json:"exact_quote,omitempty"`
	SuggestedRevision string   `json:"suggested_revision,omitempty"`
	DegradedReason    string   `json:"degraded_reason,omitempty"`
}

// Recommendation is the final disposition for a contract.
type Recommendation string

// Recommendations, in increasing order of risk.
const (
	RecommendationApprove     Recommendation = "approve"
	RecommendationLegalReview Recommendation = "legal_review"
	RecommendationReject      Recommendation = "reject"
)

// Risk score breakpoints. A score of exactly 30 still approves; reject
// starts at 61.
const (
	approveMaxScore     = 30
	legalReviewMaxScore = 60
)

// RecommendationForScore maps a risk score to its recommendation band.
func RecommendationForScore(score int) Recommendation {
	switch {
	case score <= approveMaxScore:
		return RecommendationApprove
	case score <= legalReviewMaxScore:
		return RecommendationLegalReview
	default:
		return RecommendationReject
	}
}

// RiskLevelForScore maps a risk score to the display band used for grouping
// contracts (same breakpoints as the recommendation).
func RiskLevelForScore(score int) Severity {
	switch {
	case score <= approveMaxScore:
		return SeverityLow
	case score <= legalReviewMaxScore:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

// Verdict is the final adjudicated decision for one analysis run.
// Constructed once per run and immutable thereafter.
type Verdict struct {
	RiskScore      int            `json:"risk_score"`  // 0-100
	Confidence     int            `json:"confidence"`  // 0-100
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
	KeyFactors     []string       `json:"key_factors"`
}

// TraceStep records which pipeline stage ran and its short conclusion.
// Purely observational; never consulted by pipeline logic.
type TraceStep struct {
	Step    int    `json:"step"`
	Tool    string `json:"tool"`
	Summary string `json:"summary"`
}

// AnalysisResult is the full record produced by one analysis run. It is the
// sole contract the presentation layer relies on.
type AnalysisResult struct {
	ContractID        string             `json:"contract_id"`
	ContractName      string             `json:"contract_name,omitempty"`
	Parties           Parties            `json:"parties"`
	TotalValue        float64            `json:"total_value"`
	TermMonths        int                `json:"term_months"`
	ExtractedTerms    ExtractedTerms     `json:"extracted_terms"`
	AdvocateArguments []AdvocateArgument `json:"advocate_arguments"`
	AuditorFindings   []AuditorFinding   `json:"auditor_findings"`
	ResolverVerdict   Verdict            `json:"resolver_verdict"`
	Trace             []TraceStep        `json:"trace"`
}
