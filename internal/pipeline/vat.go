package pipeline

import (
	"math"

	"github.com/expenselens/backend/internal/model"
)

// roundTolerance is the rounding slack when checking whether a printed
// tax figure is consistent with an amount.
const roundTolerance = 0.01

// roundMoney rounds half-up to 2 decimal places. Applied only when a new
// value is derived, never to re-round an already-stored value.
func roundMoney(x float64) float64 {
	return math.Round(x*100) / 100
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= roundTolerance+1e-9
}

// resolveVAT reconciles (amount, tax_amount, vat_inclusive) under the
// configured rate. Post-resolution, amount always means the net amount.
// Returns true when the VAT status is ambiguous and must be asked of a
// reviewer instead of guessed.
//
// Note for the resolution merger: under the inclusive interpretation the
// stored amount itself is reassigned to net, not just tax_amount.
func resolveVAT(doc *model.Document, rate float64, assumeNet bool) bool {
	if doc.Amount == nil {
		// Nothing to reconcile; a missing amount is its own deficiency.
		return false
	}
	amount := *doc.Amount

	if doc.TaxAmount != nil {
		tax := *doc.TaxAmount

		// Net interpretation: tax was charged on top of amount.
		if approxEqual(tax, roundMoney(amount*rate)) {
			if doc.VATInclusive == nil {
				f := false
				doc.VATInclusive = &f
			}
			return false
		}

		// Gross interpretation: amount already contains tax. The stored
		// amount is reassigned to net so the invariant holds.
		net := roundMoney(amount / (1 + rate))
		if approxEqual(tax, amount-net) {
			newNet := roundMoney(amount - tax)
			doc.Amount = &newNet
			if doc.VATInclusive == nil {
				t := true
				doc.VATInclusive = &t
			}
			return false
		}

		// Printed tax matches neither interpretation: do not guess.
		return true
	}

	// No tax figure on the document.
	switch {
	case doc.VATInclusive != nil && !*doc.VATInclusive:
		tax := roundMoney(amount * rate)
		doc.TaxAmount = &tax
	case doc.VATInclusive != nil && *doc.VATInclusive:
		net := roundMoney(amount / (1 + rate))
		tax := roundMoney(amount - net)
		doc.Amount = &net
		doc.TaxAmount = &tax
	case assumeNet:
		tax := roundMoney(amount * rate)
		doc.TaxAmount = &tax
		f := false
		doc.VATInclusive = &f
	default:
		// Unknown flag, no tax figure: ambiguous.
		return true
	}
	return false
}
