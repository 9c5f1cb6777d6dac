package model

// UnknownParty is the sentinel used when a party cannot be located in the
// contract preamble. Downstream display always needs a string, so absence of
// a party is never represented as nil once a PARTIES section was found.
const UnknownParty = "Unknown"

// Parties holds the two sides of the agreement.
type Parties struct {
	Provider string `json:"provider"`
	Customer string `json:"customer"`
}

// ExtractedTerms holds the structured commercial terms found in contract
// text. Pointer fields distinguish "not found in text" from a legitimate
// zero value; boolean flags default to false when the clause is absent.
type ExtractedTerms struct {
	Parties                 *Parties `json:"parties,omitempty"`
	EffectiveDate           *string  `json:"effective_date,omitempty"`
	TermMonths              *int     `json:"term_months,omitempty"` // 0 = perpetual
	PerpetualLicense        bool     `json:"perpetual_license,omitempty"`
	TotalValue              *float64 `json:"total_value,omitempty"`
	PaymentTermsDays        *int     `json:"payment_terms_days,omitempty"`
	HasReturnRights         bool     `json:"has_return_rights,omitempty"`
	ReturnPeriodDays        *int     `json:"return_period_days,omitempty"`
	AutoRenewal             bool     `json:"auto_renewal,omitempty"`
	AnnualEscalationPercent *float64 `json:"annual_escalation_percent,omitempty"`
	Consignment             bool     `json:"consignment,omitempty"`
	MFCClause               bool     `json:"mfc_clause,omitempty"`
	PriceProtection         bool     `json:"price_protection,omitempty"`
	MilestoneBased          bool     `json:"milestone_based,omitempty"`
	LiabilityCap            *string  `json:"liability_cap,omitempty"`
	UnlimitedLiability      bool     `json:"unlimited_liability,omitempty"`
}

// PartiesOrUnknown returns the extracted parties, or Unknown/Unknown when no
// PARTIES section was found at all.
func (t ExtractedTerms) PartiesOrUnknown() Parties {
	if t.Parties == nil {
		return Parties{Provider: UnknownParty, Customer: UnknownParty}
	}
	return *t.Parties
}

// TotalValueOrZero returns the contract value, defaulting to 0 when no value
// label matched.
func (t ExtractedTerms) TotalValueOrZero() float64 {
	if t.TotalValue == nil {
		return 0
	}
	return *t.TotalValue
}

// TermMonthsOrZero returns the contract term in months, 0 when absent or
// perpetual.
func (t ExtractedTerms) TermMonthsOrZero() int {
	if t.TermMonths == nil {
		return 0
	}
	return *t.TermMonths
}
