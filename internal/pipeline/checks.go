package pipeline

import (
	"fmt"

	"github.com/sells-group/contract-guard/internal/model"
	"github.com/sells-group/contract-guard/internal/policy"
)

// defaultPaymentTermsDays is assumed when the contract states no payment
// terms at all.
const defaultPaymentTermsDays = 30

// paymentContributionCap bounds the payment checker's contribution so one
// factor cannot dominate the total score.
const paymentContributionCap = 25

// Issue types produced by the checkers.
const (
	issueExtendedPaymentTerms = "extended_payment_terms"
	issueExtendedReturnPeriod = "extended_return_period"
	issueMFCClause            = "mfc_clause"
	issueMilestonePayments    = "milestone_payments"
	issueConsignment          = "consignment"
	issueHighEscalation       = "high_escalation"
)

// CheckPaymentTerms evaluates payment terms against the policy cap.
// Contribution grows linearly with the excess and is hard-capped at 25.
func CheckPaymentTerms(terms model.ExtractedTerms, pol *policy.Policy) model.CheckResult {
	result := model.NewCheckResult()

	paymentDays := defaultPaymentTermsDays
	if terms.PaymentTermsDays != nil {
		paymentDays = *terms.PaymentTermsDays
	}

	if paymentDays > pol.PaymentTermsMaxDays {
		result.Compliant = false
		excessDays := paymentDays - pol.PaymentTermsMaxDays

		severity := model.SeverityHigh
		if excessDays <= 30 {
			severity = model.SeverityMedium
		}
		result.Issues = append(result.Issues, model.Issue{
			Type:            issueExtendedPaymentTerms,
			Severity:        severity,
			Description:     fmt.Sprintf("Net %d exceeds policy limit of %d days", paymentDays, pol.PaymentTermsMaxDays),
			ASC606Reference: pol.Reference(policy.FactorExtendedPaymentTerms),
		})

		contribution := pol.Weight(policy.FactorExtendedPaymentTerms) * (1 + float64(excessDays)/60)
		if contribution > paymentContributionCap {
			contribution = paymentContributionCap
		}
		result.RiskScoreContribution = contribution
	}

	return result
}

// CheckReturnRights evaluates return/refund clauses against the policy cap.
// Contracts without return rights are fully compliant regardless of any
// return period present in the text.
func CheckReturnRights(terms model.ExtractedTerms, pol *policy.Policy) model.CheckResult {
	result := model.NewCheckResult()

	if !terms.HasReturnRights {
		return result
	}

	returnDays := 0
	if terms.ReturnPeriodDays != nil {
		returnDays = *terms.ReturnPeriodDays
	}

	if returnDays > pol.ReturnPeriodMaxDays {
		result.Compliant = false

		severity := model.SeverityMedium
		multiplier := 1.0
		if returnDays > 60 {
			severity = model.SeverityHigh
			multiplier = 1.5
		}
		result.Issues = append(result.Issues, model.Issue{
			Type:            issueExtendedReturnPeriod,
			Severity:        severity,
			Description:     fmt.Sprintf("%d-day return period exceeds policy limit of %d days", returnDays, pol.ReturnPeriodMaxDays),
			ASC606Reference: pol.Reference(policy.FactorRightOfReturn),
		})
		result.RiskScoreContribution = pol.Weight(policy.FactorRightOfReturn) * multiplier
	}

	return result
}

// CheckVariableConsideration evaluates the four variable-consideration
// conditions additively; any subset may fire. Milestone payments and high
// escalation add risk without flipping the compliant flag — non-compliance
// is reserved for hard violations (MFC, consignment).
func CheckVariableConsideration(terms model.ExtractedTerms, pol *policy.Policy) model.CheckResult {
	result := model.NewCheckResult()

	if terms.MFCClause {
		result.Compliant = false
		result.Issues = append(result.Issues, model.Issue{
			Type:            issueMFCClause,
			Severity:        model.SeverityHigh,
			Description:     "Most Favored Customer clause creates open-ended variable consideration",
			ASC606Reference: pol.Reference(policy.FactorPriceProtection),
		})
		result.RiskScoreContribution += pol.Weight(policy.FactorMFCClause)
	}

	if terms.MilestoneBased {
		result.Issues = append(result.Issues, model.Issue{
			Type:            issueMilestonePayments,
			Severity:        model.SeverityMedium,
			Description:     "Milestone-based payments may require constraint on variable consideration",
			ASC606Reference: pol.Reference(policy.FactorMilestonePayments),
		})
		result.RiskScoreContribution += pol.Weight(policy.FactorMilestonePayments)
	}

	if terms.Consignment {
		result.Compliant = false
		result.Issues = append(result.Issues, model.Issue{
			Type:            issueConsignment,
			Severity:        model.SeverityHigh,
			Description:     "Consignment arrangement fails transfer of control criteria",
			ASC606Reference: pol.Reference(policy.FactorConsignment),
		})
		result.RiskScoreContribution += pol.Weight(policy.FactorConsignment)
	}

	escalation := 0.0
	if terms.AnnualEscalationPercent != nil {
		escalation = *terms.AnnualEscalationPercent
	}
	if escalation > pol.AutoEscalationMaxPercent {
		result.Issues = append(result.Issues, model.Issue{
			Type:        issueHighEscalation,
			Severity:    model.SeverityMedium,
			Description: fmt.Sprintf("%g%% annual escalation exceeds %g%% policy threshold", escalation, pol.AutoEscalationMaxPercent),
		})
		result.RiskScoreContribution += pol.Weight(policy.FactorHighEscalation)
	}

	return result
}
