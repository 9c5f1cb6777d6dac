// Package policy loads and validates the revenue-recognition policy document
// that drives every compliance checker.
package policy

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Risk factor names. These key both the weight table and the ASC 606
// reference table.
const (
	FactorExtendedPaymentTerms = "extended_payment_terms"
	FactorRightOfReturn        = "right_of_return"
	FactorPriceProtection      = "price_protection"
	FactorMFCClause            = "mfc_clause"
	FactorMilestonePayments    = "milestone_payments"
	FactorConsignment          = "consignment"
	FactorHighEscalation       = "auto_renewal_high_escalation"
	FactorUnlimitedLiability   = "unlimited_liability"
	FactorVariableConsideration = "variable_consideration"
)

// RiskFactor carries the ASC 606 citation for a named risk factor.
type RiskFactor struct {
	Reference string `mapstructure:"reference" json:"reference"`
}

// Policy is the company revenue-recognition policy: thresholds, the clauses
// that always require legal review, per-factor ASC 606 references, and the
// risk weight table.
type Policy struct {
	PaymentTermsMaxDays                   int                   `mapstructure:"payment_terms_max_days" json:"payment_terms_max_days"`
	ReturnPeriodMaxDays                   int                   `mapstructure:"return_period_max_days" json:"return_period_max_days"`
	AutoEscalationMaxPercent              float64               `mapstructure:"auto_escalation_max_percent" json:"auto_escalation_max_percent"`
	VariableConsiderationThresholdPercent float64               `mapstructure:"variable_consideration_threshold_percent" json:"variable_consideration_threshold_percent"`
	RequiresLegalReview                   []string              `mapstructure:"requires_legal_review" json:"requires_legal_review"`
	ASC606RiskFactors                     map[string]RiskFactor `mapstructure:"asc_606_risk_factors" json:"asc_606_risk_factors"`
	RiskWeights                           map[string]float64    `mapstructure:"risk_weights" json:"risk_weights"`
}

// DefaultRiskWeights is the built-in weight table, applied for any factor the
// policy document does not override.
func DefaultRiskWeights() map[string]float64 {
	return map[string]float64{
		FactorExtendedPaymentTerms:  15,
		FactorRightOfReturn:         25,
		FactorPriceProtection:       30,
		FactorMFCClause:             30,
		FactorMilestonePayments:     10,
		FactorConsignment:           35,
		FactorHighEscalation:        12,
		FactorUnlimitedLiability:    20,
		FactorVariableConsideration: 15,
	}
}

// Load reads the policy document at path. The file may be JSON or YAML.
// A missing file is a fatal configuration error; malformed content or
// negative thresholds/weights are fatal validation errors.
func Load(path string) (*Policy, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "policy: file not found %s", path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		v.SetConfigType(ext)
	}

	v.SetDefault("payment_terms_max_days", 60)
	v.SetDefault("return_period_max_days", 30)
	v.SetDefault("auto_escalation_max_percent", 3)
	v.SetDefault("variable_consideration_threshold_percent", 10)

	if err := v.ReadInConfig(); err != nil {
		return nil, eris.Wrapf(err, "policy: read %s", path)
	}

	var p Policy
	if err := v.Unmarshal(&p); err != nil {
		return nil, eris.Wrap(err, "policy: unmarshal")
	}

	// Fill in default weights for any factor the document omits.
	weights := DefaultRiskWeights()
	for name, w := range p.RiskWeights {
		weights[name] = w
	}
	p.RiskWeights = weights

	if err := p.validate(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (p *Policy) validate() error {
	if p.PaymentTermsMaxDays < 0 {
		return eris.New("policy: payment_terms_max_days must be non-negative")
	}
	if p.ReturnPeriodMaxDays < 0 {
		return eris.New("policy: return_period_max_days must be non-negative")
	}
	if p.AutoEscalationMaxPercent < 0 {
		return eris.New("policy: auto_escalation_max_percent must be non-negative")
	}
	if p.VariableConsiderationThresholdPercent < 0 {
		return eris.New("policy: variable_consideration_threshold_percent must be non-negative")
	}
	for name, w := range p.RiskWeights {
		if w < 0 {
			return eris.Errorf("policy: risk weight %s must be non-negative", name)
		}
	}
	return nil
}

// Weight returns the risk weight for a named factor, 0 when unknown.
func (p *Policy) Weight(factor string) float64 {
	return p.RiskWeights[factor]
}

// Reference returns the ASC 606 citation for a named risk factor. Absent
// entries yield "", never an error.
func (p *Policy) Reference(factor string) string {
	return p.ASC606RiskFactors[factor].Reference
}
