package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const saasContract = `SOFTWARE AS A SERVICE AGREEMENT

PARTIES:
Provider: CloudWorks Software, Inc. ("Provider")
Customer: Meridian Health Group, LLC ("Customer")

1. SERVICES
Provider shall make the platform available to Customer.

EFFECTIVE DATE: January 15, 2025

2. TERM
TERM: 12 months from the Effective Date.

3. FEES
Annual subscription fee: $120,000, invoiced quarterly.
All invoices are payable Net 30 days from the invoice date.

4. LIMITATION OF LIABILITY
Each party's aggregate liability shall not exceed the fees paid by
Customer in the twelve months preceding the claim.
`

func TestExtractTerms_StandardContract(t *testing.T) {
	terms := ExtractTerms(saasContract)

	require.NotNil(t, terms.Parties)
	assert.Equal(t, "CloudWorks Software, Inc.", terms.Parties.Provider)
	assert.Equal(t, "Meridian Health Group, LLC", terms.Parties.Customer)

	require.NotNil(t, terms.EffectiveDate)
	assert.Equal(t, "January 15, 2025", *terms.EffectiveDate)

	require.NotNil(t, terms.TermMonths)
	assert.Equal(t, 12, *terms.TermMonths)

	require.NotNil(t, terms.PaymentTermsDays)
	assert.Equal(t, 30, *terms.PaymentTermsDays)

	require.NotNil(t, terms.TotalValue)
	assert.Equal(t, 120000.0, *terms.TotalValue)

	require.NotNil(t, terms.LiabilityCap)
	assert.False(t, terms.HasReturnRights)
	assert.False(t, terms.Consignment)
	assert.False(t, terms.MFCClause)
	assert.False(t, terms.MilestoneBased)
	assert.False(t, terms.AutoRenewal)
}

func TestExtractTerms_Idempotent(t *testing.T) {
	first := ExtractTerms(saasContract)
	second := ExtractTerms(saasContract)
	assert.Equal(t, first, second)
}

func TestExtractTerms_EmptyText(t *testing.T) {
	terms := ExtractTerms("")

	assert.Nil(t, terms.Parties)
	assert.Nil(t, terms.EffectiveDate)
	assert.Nil(t, terms.TermMonths)
	assert.Nil(t, terms.PaymentTermsDays)
	assert.Nil(t, terms.TotalValue)
	assert.False(t, terms.HasReturnRights)
}

func TestExtractTerms_PartiesBlockTerminatedByEffective(t *testing.T) {
	text := "PARTIES:\nLicensor: Apex Systems Corporation (\"Licensor\")\nLicensee: Granite Industrial Holdings, Inc. (\"Licensee\")\nEFFECTIVE DATE: 2025-03-01\n"
	terms := ExtractTerms(text)

	require.NotNil(t, terms.Parties)
	assert.Equal(t, "Apex Systems Corporation", terms.Parties.Provider)
	assert.Equal(t, "Granite Industrial Holdings, Inc.", terms.Parties.Customer)
	require.NotNil(t, terms.EffectiveDate)
	assert.Equal(t, "2025-03-01", *terms.EffectiveDate)
}

func TestExtractTerms_PartiesMissingOneSide(t *testing.T) {
	text := "PARTIES:\nSupplier: NovaTech Components, Inc. (\"Supplier\")\n\n1. APPOINTMENT\n"
	terms := ExtractTerms(text)

	require.NotNil(t, terms.Parties)
	assert.Equal(t, "NovaTech Components, Inc.", terms.Parties.Provider)
	assert.Equal(t, "Unknown", terms.Parties.Customer)
}

func TestExtractTerms_ExtendedPaymentTerms(t *testing.T) {
	terms := ExtractTerms("Invoices are payable Net 120 days from receipt.")

	require.NotNil(t, terms.PaymentTermsDays)
	assert.Equal(t, 120, *terms.PaymentTermsDays)
}

func TestExtractTerms_NetHyphenated(t *testing.T) {
	terms := ExtractTerms("Payment is due Net-45 days after invoice.")

	require.NotNil(t, terms.PaymentTermsDays)
	assert.Equal(t, 45, *terms.PaymentTermsDays)
}

func TestExtractTerms_TotalValuePriority(t *testing.T) {
	// A Total label wins over Annual even when Annual appears first.
	text := "Annual maintenance fee: $20,000\nTotal contract value: $850,000\n"
	terms := ExtractTerms(text)

	require.NotNil(t, terms.TotalValue)
	assert.Equal(t, 850000.0, *terms.TotalValue)
}

func TestExtractTerms_LicenseFeeValue(t *testing.T) {
	terms := ExtractTerms("License fee: $75,000, invoiced upon execution.")

	require.NotNil(t, terms.TotalValue)
	assert.Equal(t, 75000.0, *terms.TotalValue)
}

func TestExtractTerms_ReturnRights(t *testing.T) {
	text := "Distributor shall have an unconditional right of return for unsold Products within 90 days of delivery."
	terms := ExtractTerms(text)

	assert.True(t, terms.HasReturnRights)
	require.NotNil(t, terms.ReturnPeriodDays)
	assert.Equal(t, 90, *terms.ReturnPeriodDays)
}

func TestExtractTerms_ReturnPhrasesWithoutRights(t *testing.T) {
	// Shipping goods back on the supplier's direction is not a return right.
	terms := ExtractTerms("Consignee may ship unsold Products back to Consignor at Consignor's direction.")

	assert.False(t, terms.HasReturnRights)
	assert.Nil(t, terms.ReturnPeriodDays)
}

func TestExtractTerms_AutoRenewalWithEscalation(t *testing.T) {
	text := "This Agreement shall automatically renew for successive periods. Upon each renewal, fees shall increase by 5 percent."
	terms := ExtractTerms(text)

	assert.True(t, terms.AutoRenewal)
	require.NotNil(t, terms.AnnualEscalationPercent)
	assert.Equal(t, 5.0, *terms.AnnualEscalationPercent)
}

func TestExtractTerms_EscalationWithoutRenewalIgnored(t *testing.T) {
	terms := ExtractTerms("Fees shall increase by 5 percent at the parties' option.")

	assert.False(t, terms.AutoRenewal)
	assert.Nil(t, terms.AnnualEscalationPercent)
}

func TestExtractTerms_Consignment(t *testing.T) {
	terms := ExtractTerms("Consignor retains full legal title to all consigned inventory until sale.")
	assert.True(t, terms.Consignment)

	terms = ExtractTerms("Products are delivered on consignment.")
	assert.True(t, terms.Consignment)
}

func TestExtractTerms_MFCSetsBothFlags(t *testing.T) {
	terms := ExtractTerms("Supplier grants Buyer most favored customer pricing.")

	assert.True(t, terms.MFCClause)
	assert.True(t, terms.PriceProtection)
}

func TestExtractTerms_Milestone(t *testing.T) {
	terms := ExtractTerms("Fees are payable in milestone-based payments, 50% contingent upon final acceptance.")
	assert.True(t, terms.MilestoneBased)
}

func TestExtractTerms_PerpetualLicense(t *testing.T) {
	terms := ExtractTerms("Licensor grants Licensee a perpetual, non-exclusive license.")

	assert.True(t, terms.PerpetualLicense)
	require.NotNil(t, terms.TermMonths)
	assert.Equal(t, 0, *terms.TermMonths)
}

func TestExtractTerms_UnlimitedLiability(t *testing.T) {
	terms := ExtractTerms("Vendor accepts unlimited liability for all claims arising under this Agreement.")

	assert.True(t, terms.UnlimitedLiability)
	assert.Nil(t, terms.LiabilityCap)
}
