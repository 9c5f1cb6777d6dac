package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-guard/internal/config"
	"github.com/sells-group/contract-guard/internal/model"
	"github.com/sells-group/contract-guard/internal/resilience"
	"github.com/sells-group/contract-guard/pkg/anthropic"
)

const advocateSystemPrompt = `You are the Contract Advocate Agent. Your role is to argue that the contract is acceptable and standard.

Your job is to:
1. Find the BEST interpretation of potentially concerning clauses
2. Cite industry standards that support the terms
3. Identify mitigating factors that reduce risk
4. Argue why the business should accept the contract

You must be a strong advocate, but you cannot fabricate facts. If a clause is genuinely problematic, acknowledge it has weak support but still present the best possible argument.

Rate each argument's strength:
- **Strong**: Clear industry standard, solid mitigation
- **Moderate**: Reasonable interpretation, some support
- **Weak**: Best possible spin, but defensible

Your arguments will be weighed against the Auditor's findings.`

const auditorSystemPrompt = `You are the Contract Auditor Agent. Your role is to identify risky clauses and compliance issues.

Your focus areas:
1. **ASC 606 Revenue Recognition Risks**:
   - Extended payment terms (>60 days) - financing component concerns
   - Right of return provisions - variable consideration
   - Price protection/MFC clauses - constrained estimates
   - Milestone/contingent payments - recognition timing
   - Consignment - control transfer issues
   - Bill-and-hold - specific criteria required

2. **Commercial Risk**:
   - Unlimited liability exposure
   - Unfavorable auto-renewal terms
   - One-sided termination rights
   - Excessive escalation clauses

For each finding:
- Quote the EXACT problematic language
- Cite the relevant ASC 606 reference if applicable
- Rate risk level: High, Medium, or Low
- Suggest specific revisions

Be thorough but fair. Not every unusual clause is a deal-breaker.`

const resolverSystemPrompt = `You are the Contract Resolution Agent. Your role is to weigh the Advocate's arguments against the Auditor's findings and make a final recommendation.

Decision Framework:
1. **APPROVE** (Risk Score 0-30): Standard terms, no significant ASC 606 concerns
2. **LEGAL REVIEW** (Risk Score 31-60): Some concerns that need Finance/Legal input
3. **REJECT** (Risk Score 61-100): Unacceptable risk, must renegotiate

Evaluation Criteria:
- Give more weight to Auditor findings when they cite specific ASC 606 provisions
- Give more weight to Advocate when terms are genuinely industry standard
- Consider the cumulative effect of multiple medium-risk clauses
- Factor in contract value - higher value contracts warrant more scrutiny

Your output must include:
1. Risk Score (0-100)
2. Confidence Level (0-100)
3. Clear Recommendation
4. Reasoning that acknowledges BOTH sides of the debate
5. Key factors that drove your decision

You are the final arbiter. Make a decisive recommendation.`

const advocateUserPrompt = `Analyze this contract and provide your best arguments for why it should be approved:

Contract Terms:
%s

Contract Text (relevant sections):
%s

Provide 3-5 strong arguments in favor of accepting this contract.
Format as JSON array with: point, argument, strength (strong/moderate/weak)`

const auditorUserPrompt = `Analyze this contract for risky clauses and compliance issues:

Contract Terms:
%s

Policy Check Results:
- Payment: %s
- Returns: %s
- Variable Consideration: %s

Contract Text:
%s

Identify all risky clauses. For each finding include:
- clause: The problematic clause
- risk_level: high/medium/low
- finding: Your analysis
- asc_606_reference: ASC 606 citation if applicable
- exact_quote: Exact text from contract
- suggested_revision: How to fix it

Format as JSON array.`

const resolverUserPrompt = `Make a final decision on this contract:

ADVOCATE ARGUMENTS:
%s

AUDITOR FINDINGS:
%s

CONTRACT TERMS:
%s

Weigh both sides and provide:
1. risk_score (0-100)
2. confidence (0-100)
3. recommendation (approve/legal_review/reject)
4. reasoning (explain your decision)
5. key_factors (list of 3-5 key factors)

Format as JSON object.`

// Contract text is truncated before prompting; the extractor has already
// pulled the structured terms, the text is context only.
const (
	advocateTextLimit = 3000
	auditorTextLimit  = 4000
)

// AdvocatePhase asks the model for the strongest case in favor of the
// contract. Returns the parsed arguments; malformed output degrades to a
// single entry carrying the raw text and the parse failure reason.
func AdvocatePhase(ctx context.Context, terms model.ExtractedTerms, contractText string, aiClient anthropic.Client, aiCfg config.AnthropicConfig) ([]model.AdvocateArgument, anthropic.TokenUsage, error) {
	prompt := fmt.Sprintf(advocateUserPrompt, mustJSON(terms), truncate(contractText, advocateTextLimit))

	resp, err := createMessage(ctx, aiClient, aiCfg, advocateSystemPrompt, prompt)
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "debate: advocate call")
	}

	args, degradedReason := parseAdvocateArguments(resp.Text())
	if degradedReason != "" {
		zap.L().Warn("debate: advocate output degraded", zap.String("reason", degradedReason))
	}
	return args, resp.Usage, nil
}

// AuditorPhase asks the model for risky clauses, feeding it the deterministic
// checker results as context.
func AuditorPhase(ctx context.Context, terms model.ExtractedTerms, contractText string, paymentCheck, returnCheck, variableCheck model.CheckResult, aiClient anthropic.Client, aiCfg config.AnthropicConfig) ([]model.AuditorFinding, anthropic.TokenUsage, error) {
	prompt := fmt.Sprintf(auditorUserPrompt,
		mustJSON(terms),
		mustJSON(paymentCheck),
		mustJSON(returnCheck),
		mustJSON(variableCheck),
		truncate(contractText, auditorTextLimit),
	)

	resp, err := createMessage(ctx, aiClient, aiCfg, auditorSystemPrompt, prompt)
	if err != nil {
		return nil, anthropic.TokenUsage{}, eris.Wrap(err, "debate: auditor call")
	}

	findings, degradedReason := parseAuditorFindings(resp.Text())
	if degradedReason != "" {
		zap.L().Warn("debate: auditor output degraded", zap.String("reason", degradedReason))
	}
	return findings, resp.Usage, nil
}

// ResolverPhase asks the model to weigh both sides and produce the verdict.
// When the output cannot be parsed into a usable verdict, the raw text is
// returned so the caller can fall back to a policy-only verdict that keeps
// the narrative as reasoning.
func ResolverPhase(ctx context.Context, terms model.ExtractedTerms, advocate []model.AdvocateArgument, auditor []model.AuditorFinding, aiClient anthropic.Client, aiCfg config.AnthropicConfig) (*model.Verdict, string, anthropic.TokenUsage, error) {
	prompt := fmt.Sprintf(resolverUserPrompt, mustJSON(advocate), mustJSON(auditor), mustJSON(terms))

	resp, err := createMessage(ctx, aiClient, aiCfg, resolverSystemPrompt, prompt)
	if err != nil {
		return nil, "", anthropic.TokenUsage{}, eris.Wrap(err, "debate: resolver call")
	}

	raw := resp.Text()
	verdict, degradedReason := parseVerdict(raw)
	if verdict == nil {
		zap.L().Warn("debate: resolver output degraded", zap.String("reason", degradedReason))
		return nil, raw, resp.Usage, nil
	}
	return verdict, raw, resp.Usage, nil
}

// createMessage issues one timeout-bounded, retried model call.
func createMessage(ctx context.Context, aiClient anthropic.Client, aiCfg config.AnthropicConfig, system, prompt string) (*anthropic.MessageResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, aiCfg.CallTimeout())
	defer cancel()

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = aiCfg.MaxRetries
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "create_message")

	temp := 0.0
	return resilience.DoVal(callCtx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return aiClient.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       aiCfg.Model,
			MaxTokens:   aiCfg.MaxTokens,
			System:      system,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
	})
}

// parseAdvocateArguments parses the advocate's JSON array. On failure it
// substitutes a single degraded entry carrying the raw text verbatim, a
// neutral moderate strength, and the named failure reason.
func parseAdvocateArguments(raw string) ([]model.AdvocateArgument, string) {
	var args []model.AdvocateArgument
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &args); err != nil || len(args) == 0 {
		reason := "empty argument list"
		if err != nil {
			reason = "unparseable JSON: " + err.Error()
		}
		return []model.AdvocateArgument{{
			Point:          "Analysis",
			Argument:       raw,
			Strength:       model.StrengthModerate,
			DegradedReason: reason,
		}}, reason
	}

	for i := range args {
		switch args[i].Strength {
		case model.StrengthStrong, model.StrengthModerate, model.StrengthWeak:
		default:
			args[i].Strength = model.StrengthModerate
		}
	}
	return args, ""
}

// parseAuditorFindings parses the auditor's JSON array with the same
// degrade-on-failure contract as parseAdvocateArguments.
func parseAuditorFindings(raw string) ([]model.AuditorFinding, string) {
	var findings []model.AuditorFinding
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &findings); err != nil || len(findings) == 0 {
		reason := "empty finding list"
		if err != nil {
			reason = "unparseable JSON: " + err.Error()
		}
		return []model.AuditorFinding{{
			Clause:         "Analysis",
			RiskLevel:      model.SeverityMedium,
			Finding:        raw,
			DegradedReason: reason,
		}}, reason
	}

	for i := range findings {
		switch findings[i].RiskLevel {
		case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
		default:
			findings[i].RiskLevel = model.SeverityMedium
		}
	}
	return findings, ""
}

// parseVerdict parses the resolver's JSON object. A nil verdict with a
// reason means the caller must fall back to the policy-only verdict.
func parseVerdict(raw string) (*model.Verdict, string) {
	var v model.Verdict
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &v); err != nil {
		return nil, "unparseable JSON: " + err.Error()
	}

	switch v.Recommendation {
	case model.RecommendationApprove, model.RecommendationLegalReview, model.RecommendationReject:
	default:
		return nil, "invalid recommendation: " + string(v.Recommendation)
	}
	if v.RiskScore < 0 || v.RiskScore > 100 {
		return nil, fmt.Sprintf("risk_score out of range: %d", v.RiskScore)
	}
	if v.Confidence < 0 || v.Confidence > 100 {
		return nil, fmt.Sprintf("confidence out of range: %d", v.Confidence)
	}
	return &v, ""
}

// cleanJSON attempts to extract a JSON object or array from text that may
// contain markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	text = strings.TrimSpace(text)

	// Trim any prose around the outermost object or array.
	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	switch {
	case arrStart >= 0 && (objStart < 0 || arrStart < objStart):
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return text[arrStart : end+1]
		}
	case objStart >= 0:
		if end := strings.LastIndex(text, "}"); end > objStart {
			return text[objStart : end+1]
		}
	}
	return text
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
