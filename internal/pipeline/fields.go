// Package pipeline implements the extraction-normalization-review core:
// normalizer, VAT resolver, validator, question generation, and the
// resolution merger that folds human answers back into a record.
package pipeline

// Field names shared between documents, questions, and answers.
const (
	FieldVendor          = "vendor"
	FieldDate            = "date"
	FieldAmount          = "amount"
	FieldTaxAmount       = "tax_amount"
	FieldCurrency        = "currency"
	FieldCategory        = "category"
	FieldVATInclusive    = "vat_inclusive"
	FieldIsPaid          = "is_paid"
	FieldTransactionType = "transaction_type"
	FieldNotes           = "notes"
)

// Confidences carries the extractor's per-field confidence signals into
// the validator. Only fields the extractor actually produced appear.
type Confidences map[string]float64
