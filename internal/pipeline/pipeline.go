// Package pipeline implements contract analysis: term extraction, policy
// compliance checks, risk aggregation, adversarial narrative generation, and
// final adjudication.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contract-guard/internal/config"
	"github.com/sells-group/contract-guard/internal/model"
	"github.com/sells-group/contract-guard/internal/policy"
	"github.com/sells-group/contract-guard/internal/registry"
	"github.com/sells-group/contract-guard/internal/store"
	"github.com/sells-group/contract-guard/pkg/anthropic"
)

// Stage tool names recorded in the trace.
const (
	toolExtractTerms      = "extract_contract_terms"
	toolCheckPayment      = "check_payment_terms"
	toolCheckReturns      = "check_return_rights"
	toolCheckVariable     = "check_variable_consideration"
	toolAdvocateArguments = "generate_advocate_argument"
	toolAuditorFindings   = "generate_auditor_findings"
	toolResolveDebate     = "resolve_debate"
)

// Pipeline orchestrates a full contract analysis run.
type Pipeline struct {
	cfg       *config.Config
	pol       *policy.Policy
	store     store.Store
	registry  *registry.Registry
	anthropic anthropic.Client
}

// New creates a Pipeline. The store may be nil (no persistence) and the
// anthropic client may be nil, in which case every narrative stage takes the
// deterministic fallback path.
func New(cfg *config.Config, pol *policy.Policy, st store.Store, reg *registry.Registry, aiClient anthropic.Client) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		pol:       pol,
		store:     st,
		registry:  reg,
		anthropic: aiClient,
	}
}

// trace accumulates steps in execution order.
type trace struct {
	steps []model.TraceStep
}

func (t *trace) add(tool, summary string) {
	t.steps = append(t.steps, model.TraceStep{
		Step:    len(t.steps) + 1,
		Tool:    tool,
		Summary: summary,
	})
}

func checkSummary(c model.CheckResult) string {
	if c.Compliant && len(c.Issues) == 0 {
		return "✓ Compliant"
	}
	return "⚠ Issues found"
}

// Analyze runs the full pipeline for a registered contract. Unknown contract
// identifiers and unreadable contract files are fatal for the run; narrative
// failures are not.
func (p *Pipeline) Analyze(ctx context.Context, contractID string) (*model.AnalysisResult, error) {
	log := zap.L().With(zap.String("contract", contractID))

	contract, ok := p.registry.Get(contractID)
	if !ok {
		return nil, eris.Wrapf(registry.ErrUnknownContract, "%s", contractID)
	}
	contractText, err := p.registry.LoadText(contractID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load contract")
	}

	var runID string
	if p.store != nil {
		run, runErr := p.store.CreateRun(ctx, contractID)
		if runErr != nil {
			log.Warn("pipeline: failed to create run record", zap.Error(runErr))
		} else {
			runID = run.ID
			if statusErr := p.store.UpdateRunStatus(ctx, runID, model.RunStatusRunning); statusErr != nil {
				log.Warn("pipeline: failed to update run status", zap.Error(statusErr))
			}
		}
	}

	log.Info("pipeline: starting analysis", zap.String("contract_name", contract.Name))

	var tr trace

	// Stage 1: extraction. Never fails; non-findings propagate defaults
	// into the checkers.
	terms := ExtractTerms(contractText)
	tr.add(toolExtractTerms, "Extracted key terms from contract")

	// Stage 2: the three checkers are pure functions over immutable inputs
	// and run concurrently; aggregation waits for all of them.
	var paymentCheck, returnCheck, variableCheck model.CheckResult

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		paymentCheck = CheckPaymentTerms(terms, p.pol)
		return nil
	})
	g.Go(func() error {
		returnCheck = CheckReturnRights(terms, p.pol)
		return nil
	})
	g.Go(func() error {
		variableCheck = CheckVariableConsideration(terms, p.pol)
		return nil
	})
	_ = g.Wait()

	tr.add(toolCheckPayment, checkSummary(paymentCheck))
	tr.add(toolCheckReturns, checkSummary(returnCheck))
	tr.add(toolCheckVariable, checkSummary(variableCheck))

	// Stage 3: aggregate.
	riskScore := AggregateRiskScore(paymentCheck, returnCheck, variableCheck)

	// Stage 4: adversarial narrative. Advocate and auditor share no state
	// and run concurrently; either failure degrades to a locally computed
	// substitute instead of failing the run.
	advocateArgs, auditorFindings, totalUsage := p.runDebate(ctx, terms, contractText, paymentCheck, returnCheck, variableCheck, &tr)

	// Stage 5: resolve. A shape-valid resolver verdict is accepted as-is;
	// anything else falls back to the policy-only verdict.
	verdict := p.resolve(ctx, terms, advocateArgs, auditorFindings, riskScore, paymentCheck, returnCheck, variableCheck, &tr, &totalUsage)

	result := &model.AnalysisResult{
		ContractID:        contractID,
		ContractName:      contract.Name,
		Parties:           terms.PartiesOrUnknown(),
		TotalValue:        terms.TotalValueOrZero(),
		TermMonths:        terms.TermMonthsOrZero(),
		ExtractedTerms:    terms,
		AdvocateArguments: advocateArgs,
		AuditorFindings:   auditorFindings,
		ResolverVerdict:   verdict,
		Trace:             tr.steps,
	}

	if p.store != nil && runID != "" {
		if saveErr := p.store.UpdateRunResult(ctx, runID, result); saveErr != nil {
			log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
		}
	}

	log.Info("pipeline: analysis complete",
		zap.String("run_id", runID),
		zap.Int("risk_score", verdict.RiskScore),
		zap.String("recommendation", string(verdict.Recommendation)),
		zap.Int64("input_tokens", totalUsage.InputTokens),
		zap.Int64("output_tokens", totalUsage.OutputTokens),
	)

	return result, nil
}

// runDebate fans out the advocate and auditor calls. Each side independently
// degrades to a deterministic substitute on failure.
func (p *Pipeline) runDebate(ctx context.Context, terms model.ExtractedTerms, contractText string, paymentCheck, returnCheck, variableCheck model.CheckResult, tr *trace) ([]model.AdvocateArgument, []model.AuditorFinding, anthropic.TokenUsage) {
	var (
		advocateArgs    []model.AdvocateArgument
		auditorFindings []model.AuditorFinding
		advocateErr     error
		auditorErr      error
		totalUsage      anthropic.TokenUsage
	)

	if p.anthropic != nil {
		var advocateUsage, auditorUsage anthropic.TokenUsage

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			advocateArgs, advocateUsage, advocateErr = AdvocatePhase(gCtx, terms, contractText, p.anthropic, p.cfg.Anthropic)
			return nil
		})
		g.Go(func() error {
			auditorFindings, auditorUsage, auditorErr = AuditorPhase(gCtx, terms, contractText, paymentCheck, returnCheck, variableCheck, p.anthropic, p.cfg.Anthropic)
			return nil
		})
		_ = g.Wait()

		totalUsage.Add(advocateUsage)
		totalUsage.Add(auditorUsage)
	}

	if p.anthropic == nil || advocateErr != nil {
		if advocateErr != nil {
			zap.L().Warn("pipeline: advocate call failed, using fallback", zap.Error(advocateErr))
		}
		advocateArgs = fallbackAdvocateArguments(terms, paymentCheck, returnCheck, variableCheck)
		tr.add(toolAdvocateArguments, fmt.Sprintf("Fallback: generated %d arguments from policy checks", len(advocateArgs)))
	} else {
		tr.add(toolAdvocateArguments, fmt.Sprintf("Generated %d arguments", len(advocateArgs)))
	}

	if p.anthropic == nil || auditorErr != nil {
		if auditorErr != nil {
			zap.L().Warn("pipeline: auditor call failed, using fallback", zap.Error(auditorErr))
		}
		auditorFindings = fallbackAuditorFindings(paymentCheck, returnCheck, variableCheck)
		tr.add(toolAuditorFindings, fmt.Sprintf("Fallback: mapped %d policy issues to findings", len(auditorFindings)))
	} else {
		tr.add(toolAuditorFindings, fmt.Sprintf("Found %d issues", len(auditorFindings)))
	}

	return advocateArgs, auditorFindings, totalUsage
}

// resolve obtains the final verdict, preferring the resolver narrative and
// falling back to the policy-only verdict on any failure.
func (p *Pipeline) resolve(ctx context.Context, terms model.ExtractedTerms, advocateArgs []model.AdvocateArgument, auditorFindings []model.AuditorFinding, riskScore int, paymentCheck, returnCheck, variableCheck model.CheckResult, tr *trace, totalUsage *anthropic.TokenUsage) model.Verdict {
	if p.anthropic != nil {
		verdict, raw, usage, err := ResolverPhase(ctx, terms, advocateArgs, auditorFindings, p.anthropic, p.cfg.Anthropic)
		totalUsage.Add(usage)
		if err == nil && verdict != nil {
			tr.add(toolResolveDebate, verdictSummary(*verdict))
			return *verdict
		}
		if err != nil {
			zap.L().Warn("pipeline: resolver call failed, using fallback", zap.Error(err))
			raw = ""
		}
		fallback := FallbackVerdict(riskScore, raw, paymentCheck, returnCheck, variableCheck)
		tr.add(toolResolveDebate, fmt.Sprintf("Fallback verdict: %s (score %d/100)", strings.ToUpper(string(fallback.Recommendation)), fallback.RiskScore))
		return fallback
	}

	fallback := FallbackVerdict(riskScore, "", paymentCheck, returnCheck, variableCheck)
	tr.add(toolResolveDebate, "Fallback "+verdictSummary(fallback))
	return fallback
}

func verdictSummary(v model.Verdict) string {
	return fmt.Sprintf("Verdict: %s (score %d/100)", strings.ToUpper(string(v.Recommendation)), v.RiskScore)
}

// fallbackAdvocateArguments builds a small, honest argument set from the
// deterministic checks when the narrative path is unavailable.
func fallbackAdvocateArguments(terms model.ExtractedTerms, checks ...model.CheckResult) []model.AdvocateArgument {
	var args []model.AdvocateArgument

	compliantCount := 0
	for _, c := range checks {
		if c.Compliant {
			compliantCount++
		}
	}
	if compliantCount == len(checks) {
		args = append(args, model.AdvocateArgument{
			Point:    "Policy compliance",
			Argument: "All policy checks passed; the commercial terms are within company thresholds.",
			Strength: model.StrengthStrong,
		})
	} else {
		args = append(args, model.AdvocateArgument{
			Point:    "Partial compliance",
			Argument: fmt.Sprintf("%d of %d policy checks passed; remaining issues may be negotiable.", compliantCount, len(checks)),
			Strength: model.StrengthModerate,
		})
	}

	if terms.PaymentTermsDays == nil {
		args = append(args, model.AdvocateArgument{
			Point:    "Payment terms",
			Argument: "No extended payment terms were stated; standard Net 30 applies.",
			Strength: model.StrengthModerate,
		})
	}
	if !terms.HasReturnRights {
		args = append(args, model.AdvocateArgument{
			Point:    "Return rights",
			Argument: "The contract grants no return rights, avoiding variable consideration from returns.",
			Strength: model.StrengthStrong,
		})
	}

	return args
}

// fallbackAuditorFindings maps checker issues directly to findings when the
// narrative path is unavailable.
func fallbackAuditorFindings(checks ...model.CheckResult) []model.AuditorFinding {
	var findings []model.AuditorFinding
	for _, c := range checks {
		for _, issue := range c.Issues {
			findings = append(findings, model.AuditorFinding{
				Clause:          issue.Type,
				RiskLevel:       issue.Severity,
				Finding:         issue.Description,
				ASC606Reference: issue.ASC606Reference,
			})
		}
	}
	if len(findings) == 0 {
		findings = []model.AuditorFinding{{
			Clause:    "general",
			RiskLevel: model.SeverityLow,
			Finding:   "No policy issues identified by deterministic checks.",
		}}
	}
	return findings
}
