// Package extraction is the boundary to the OCR+LLM collaborator. It
// produces raw per-field values with confidence signals; it never decides
// what a document means; that is the pipeline's job.
package extraction

import "context"

// RawField is a single extracted field: the raw string the model read off
// the document plus its confidence in that reading. An empty Value with
// zero confidence means the field was not found.
type RawField struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Present reports whether the extractor produced any reading at all.
func (f RawField) Present() bool { return f.Value != "" }

// RawDocument is the full raw field set for one document. Fields are
// named explicitly rather than carried in a map so unknown keys cannot
// leak past this boundary.
type RawDocument struct {
	Vendor          RawField `json:"vendor"`
	Date            RawField `json:"date"`
	Amount          RawField `json:"amount"`
	TaxAmount       RawField `json:"tax_amount"`
	Currency        RawField `json:"currency"`
	VATInclusive    RawField `json:"vat_inclusive"`
	Category        RawField `json:"category"`
	TransactionType RawField `json:"transaction_type"`
	Notes           RawField `json:"notes"`
}

// Extractor extracts raw fields from document bytes. Implementations are
// long-running collaborators (OCR + LLM) and must honour ctx cancellation.
type Extractor interface {
	Extract(ctx context.Context, documentData []byte, filename string) (*RawDocument, error)
}
