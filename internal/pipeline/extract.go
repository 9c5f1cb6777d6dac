package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/contract-guard/internal/model"
)

// Extraction patterns. All matching is case-insensitive; only the parties
// block spans line breaks (the preamble lists both parties across lines).
var (
	// The PARTIES section runs until the next numbered section heading or an
	// EFFECTIVE marker.
	partiesBlockRe = regexp.MustCompile(`(?is)(PARTIES:.*?)(?:\n\d\.|\nEFFECTIVE)`)
	providerRe     = regexp.MustCompile(`(?i)(?:Provider|Licensor|Supplier|Consignor|Manufacturer|Developer):\s*([^"\n]+?)(?:\s*\("|\n)`)
	customerRe     = regexp.MustCompile(`(?i)(?:Customer|Licensee|Distributor|Consignee|Buyer|Client):\s*([^"\n]+?)(?:\s*\("|\n)`)

	effectiveDateRe = regexp.MustCompile(`(?i)EFFECTIVE DATE:\s*(\w+ \d+, \d{4}|\d{4}-\d{2}-\d{2})`)
	termMonthsRe    = regexp.MustCompile(`(?i)(?:TERM|Initial term):\s*(\d+)\s*months`)
	paymentTermsRe  = regexp.MustCompile(`(?i)Net[\s-]?(\d+)\s*days?`)

	// Value labels in fixed priority order; the first pattern that matches
	// anywhere in the text wins.
	totalValueRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Total[^:]*:\s*\$?([\d,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)Annual[^:]*:\s*\$?([\d,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)license fee:\s*\$?([\d,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)subscription fee:\s*\$?([\d,]+(?:\.\d{2})?)`),
	}

	returnRightsRe = regexp.MustCompile(`(?i)right\s+(?:of|to)\s+return|unconditional\s+return`)
	returnDaysRe   = regexp.MustCompile(`(?i)(\d+)\s*days?\s*(?:of|from)\s*delivery`)

	autoRenewRe  = regexp.MustCompile(`(?i)auto(?:matic(?:ally)?)?[\s-]?renew`)
	escalationRe = regexp.MustCompile(`(?i)(?:increase|escalat\w*)\s*(?:by\s*)?(\d+(?:\.\d+)?)\s*(?:percent|%)`)

	consignmentRe = regexp.MustCompile(`(?i)consignment|title\s+retention|retains?\s+(?:full\s+)?(?:legal\s+)?title`)
	mfcRe         = regexp.MustCompile(`(?i)most\s+favored\s+customer|MFC|price\s+protection|price\s+match`)
	milestoneRe   = regexp.MustCompile(`(?i)milestone[\s-]?(?:based|payment)|contingent\s+(?:on|upon)`)

	liabilityCapRe       = regexp.MustCompile(`(?i)liability[^.]*(?:shall\s+)?not\s+exceed[^.]*(\d+\s+months?\s+(?:of\s+)?fees|fees\s+paid|license\s+fee)`)
	unlimitedLiabilityRe = regexp.MustCompile(`(?i)unlimited\s+liability`)
)

// ExtractTerms turns raw contract text into a structured term record.
// It never fails: a pattern that does not match simply leaves its field
// absent. Running it twice on identical text yields identical terms.
func ExtractTerms(contractText string) model.ExtractedTerms {
	var terms model.ExtractedTerms

	if block := partiesBlockRe.FindStringSubmatch(contractText); block != nil {
		parties := model.Parties{Provider: model.UnknownParty, Customer: model.UnknownParty}
		if m := providerRe.FindStringSubmatch(block[1]); m != nil {
			parties.Provider = strings.TrimSpace(m[1])
		}
		if m := customerRe.FindStringSubmatch(block[1]); m != nil {
			parties.Customer = strings.TrimSpace(m[1])
		}
		terms.Parties = &parties
	}

	if m := effectiveDateRe.FindStringSubmatch(contractText); m != nil {
		terms.EffectiveDate = ptr(m[1])
	}

	if m := termMonthsRe.FindStringSubmatch(contractText); m != nil {
		if months, err := strconv.Atoi(m[1]); err == nil {
			terms.TermMonths = &months
		}
	} else if strings.Contains(strings.ToLower(contractText), "perpetual") {
		terms.TermMonths = ptr(0)
		terms.PerpetualLicense = true
	}

	if m := paymentTermsRe.FindStringSubmatch(contractText); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil {
			terms.PaymentTermsDays = &days
		}
	}

	for _, re := range totalValueRes {
		if m := re.FindStringSubmatch(contractText); m != nil {
			if value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				terms.TotalValue = &value
				break
			}
		}
	}

	if returnRightsRe.MatchString(contractText) {
		terms.HasReturnRights = true
		if m := returnDaysRe.FindStringSubmatch(contractText); m != nil {
			if days, err := strconv.Atoi(m[1]); err == nil {
				terms.ReturnPeriodDays = &days
			}
		}
	}

	if autoRenewRe.MatchString(contractText) {
		terms.AutoRenewal = true
		if m := escalationRe.FindStringSubmatch(contractText); m != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
				terms.AnnualEscalationPercent = &pct
			}
		}
	}

	if consignmentRe.MatchString(contractText) {
		terms.Consignment = true
	}

	// MFC and price protection are the same underlying risk; one detection
	// sets both flags.
	if mfcRe.MatchString(contractText) {
		terms.MFCClause = true
		terms.PriceProtection = true
	}

	if milestoneRe.MatchString(contractText) {
		terms.MilestoneBased = true
	}

	if m := liabilityCapRe.FindStringSubmatch(contractText); m != nil {
		terms.LiabilityCap = ptr(m[1])
	} else if unlimitedLiabilityRe.MatchString(contractText) {
		terms.UnlimitedLiability = true
	}

	return terms
}

func ptr[T any](v T) *T { return &v }
