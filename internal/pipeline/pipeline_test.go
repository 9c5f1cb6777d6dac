package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-guard/internal/config"
	"github.com/sells-group/contract-guard/internal/model"
	"github.com/sells-group/contract-guard/internal/registry"
	"github.com/sells-group/contract-guard/pkg/anthropic"
)

const consignmentContract = `CONSIGNMENT AGREEMENT

PARTIES:
Consignor: Harborview Instruments, Inc. ("Consignor")
Consignee: Crestline Medical Supply Co. ("Consignee")

1. CONSIGNMENT OF GOODS
Consignor retains full legal title to all consigned inventory until the
Products are sold to an end customer.

EFFECTIVE DATE: July 1, 2025

2. TERM
TERM: 12 months.

3. SETTLEMENT
Total estimated annual consignment value: $900,000. Amounts are payable
Net 30 days from the report date.
`

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			Model:       "test-model",
			MaxTokens:   1024,
			TimeoutSecs: 5,
			MaxRetries:  1,
		},
	}
}

func testRegistry(t *testing.T, texts map[string]string) *registry.Registry {
	t.Helper()
	dir := t.TempDir()

	var sb strings.Builder
	sb.WriteString("contracts:\n")
	for id, text := range texts {
		file := id + ".txt"
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(text), 0o644))
		sb.WriteString("  - id: " + id + "\n")
		sb.WriteString("    name: " + id + "\n")
		sb.WriteString("    file: " + file + "\n")
	}
	regPath := filepath.Join(dir, "contracts.yaml")
	require.NoError(t, os.WriteFile(regPath, []byte(sb.String()), 0o644))

	reg, err := registry.Load(regPath)
	require.NoError(t, err)
	return reg
}

func traceSummaries(result *model.AnalysisResult) []string {
	out := make([]string, 0, len(result.Trace))
	for _, step := range result.Trace {
		out = append(out, step.Summary)
	}
	return out
}

func TestAnalyze_UnknownContract(t *testing.T) {
	reg := testRegistry(t, map[string]string{"known": saasContract})
	p := New(testConfig(), testPolicy(), nil, reg, nil)

	_, err := p.Analyze(context.Background(), "nope")
	assert.ErrorIs(t, err, registry.ErrUnknownContract)
}

func TestAnalyze_RuleOnly_CleanContract(t *testing.T) {
	reg := testRegistry(t, map[string]string{"standard_saas": saasContract})
	p := New(testConfig(), testPolicy(), nil, reg, nil)

	result, err := p.Analyze(context.Background(), "standard_saas")
	require.NoError(t, err)

	assert.Equal(t, "standard_saas", result.ContractID)
	assert.Equal(t, "CloudWorks Software, Inc.", result.Parties.Provider)
	assert.Equal(t, 120000.0, result.TotalValue)
	assert.Equal(t, 12, result.TermMonths)

	assert.Equal(t, 0, result.ResolverVerdict.RiskScore)
	assert.Equal(t, model.RecommendationApprove, result.ResolverVerdict.Recommendation)
	assert.Equal(t, 70, result.ResolverVerdict.Confidence)

	require.NotEmpty(t, result.AdvocateArguments)
	require.NotEmpty(t, result.AuditorFindings)
	assert.Equal(t, model.SeverityLow, result.AuditorFindings[0].RiskLevel)

	require.Len(t, result.Trace, 7)
	for i, step := range result.Trace {
		assert.Equal(t, i+1, step.Step)
	}
	summaries := traceSummaries(result)
	assert.Equal(t, "✓ Compliant", summaries[1])
	assert.Equal(t, "✓ Compliant", summaries[2])
	assert.Equal(t, "✓ Compliant", summaries[3])
	assert.Contains(t, summaries[4], "Fallback")
	assert.Contains(t, summaries[6], "APPROVE")
}

func TestAnalyze_RuleOnly_Consignment(t *testing.T) {
	reg := testRegistry(t, map[string]string{"consignment": consignmentContract})
	p := New(testConfig(), testPolicy(), nil, reg, nil)

	result, err := p.Analyze(context.Background(), "consignment")
	require.NoError(t, err)

	assert.True(t, result.ExtractedTerms.Consignment)
	assert.Equal(t, 35, result.ResolverVerdict.RiskScore)
	assert.Equal(t, model.RecommendationLegalReview, result.ResolverVerdict.Recommendation)
	assert.Contains(t, result.ResolverVerdict.KeyFactors, "Consignment arrangement fails transfer of control criteria")

	summaries := traceSummaries(result)
	assert.Equal(t, "⚠ Issues found", summaries[3])
	assert.Contains(t, summaries[6], "LEGAL_REVIEW")
}

func TestAnalyze_WithModel_ResolverVerdictAccepted(t *testing.T) {
	reg := testRegistry(t, map[string]string{"standard_saas": saasContract})

	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.System, "Advocate Agent")
	})).Return(textResponse(`[{"point": "Standard terms", "argument": "Net 30 is standard.", "strength": "strong"}]`), nil)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.System, "Auditor Agent")
	})).Return(textResponse(`[{"clause": "service credits", "risk_level": "low", "finding": "Immaterial."}]`), nil)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.System, "Resolution Agent")
	})).Return(textResponse(`{"risk_score": 5, "confidence": 92, "recommendation": "approve", "reasoning": "Clean contract.", "key_factors": ["standard terms"]}`), nil)

	p := New(testConfig(), testPolicy(), nil, reg, client)

	result, err := p.Analyze(context.Background(), "standard_saas")
	require.NoError(t, err)

	assert.Equal(t, 5, result.ResolverVerdict.RiskScore)
	assert.Equal(t, 92, result.ResolverVerdict.Confidence)
	assert.Equal(t, model.RecommendationApprove, result.ResolverVerdict.Recommendation)
	assert.Equal(t, "Clean contract.", result.ResolverVerdict.Reasoning)

	require.Len(t, result.AdvocateArguments, 1)
	assert.Equal(t, model.StrengthStrong, result.AdvocateArguments[0].Strength)
	require.Len(t, result.AuditorFindings, 1)

	summaries := traceSummaries(result)
	assert.Equal(t, "Generated 1 arguments", summaries[4])
	assert.Equal(t, "Found 1 issues", summaries[5])
	assert.Equal(t, "Verdict: APPROVE (score 5/100)", summaries[6])

	client.AssertNumberOfCalls(t, "CreateMessage", 3)
}

func TestAnalyze_WithModel_ResolverGarbageFallsBack(t *testing.T) {
	reg := testRegistry(t, map[string]string{"consignment": consignmentContract})

	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.System, "Advocate Agent")
	})).Return(textResponse(`[{"point": "p", "argument": "a", "strength": "weak"}]`), nil)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.System, "Auditor Agent")
	})).Return(textResponse(`[{"clause": "consignment", "risk_level": "high", "finding": "Control never transfers."}]`), nil)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.System, "Resolution Agent")
	})).Return(textResponse("I cannot decide on this one."), nil)

	p := New(testConfig(), testPolicy(), nil, reg, client)

	result, err := p.Analyze(context.Background(), "consignment")
	require.NoError(t, err)

	// The deterministic score backs the verdict; the unparseable narrative
	// survives as reasoning.
	assert.Equal(t, 35, result.ResolverVerdict.RiskScore)
	assert.Equal(t, 70, result.ResolverVerdict.Confidence)
	assert.Equal(t, model.RecommendationLegalReview, result.ResolverVerdict.Recommendation)
	assert.Equal(t, "I cannot decide on this one.", result.ResolverVerdict.Reasoning)

	summaries := traceSummaries(result)
	assert.Contains(t, summaries[6], "Fallback verdict: LEGAL_REVIEW")
}

func TestAnalyze_WithModel_AllCallsFail(t *testing.T) {
	reg := testRegistry(t, map[string]string{"consignment": consignmentContract})

	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("api unavailable"))

	p := New(testConfig(), testPolicy(), nil, reg, client)

	result, err := p.Analyze(context.Background(), "consignment")
	require.NoError(t, err)

	assert.Equal(t, 35, result.ResolverVerdict.RiskScore)
	assert.Equal(t, model.RecommendationLegalReview, result.ResolverVerdict.Recommendation)
	assert.Equal(t, 70, result.ResolverVerdict.Confidence)

	// Degraded sides still produce usable narrative stand-ins.
	require.NotEmpty(t, result.AdvocateArguments)
	require.NotEmpty(t, result.AuditorFindings)
	assert.Equal(t, "consignment", result.AuditorFindings[0].Clause)

	summaries := traceSummaries(result)
	assert.Contains(t, summaries[4], "Fallback")
	assert.Contains(t, summaries[5], "Fallback")
	assert.Contains(t, summaries[6], "Fallback")
}

func TestCheckSummary(t *testing.T) {
	assert.Equal(t, "✓ Compliant", checkSummary(model.NewCheckResult()))

	flagged := model.CheckResult{
		Compliant: true,
		Issues:    []model.Issue{{Type: "milestone_payments"}},
	}
	assert.Equal(t, "⚠ Issues found", checkSummary(flagged))
}
