package pipeline

import (
	"strings"

	"github.com/expenselens/backend/internal/config"
	"github.com/expenselens/backend/internal/model"
)

// DeficiencyKind classifies one reason a record is not yet trustworthy.
type DeficiencyKind string

const (
	DefMissingVendor      DeficiencyKind = "missing_vendor"
	DefMissingAmount      DeficiencyKind = "missing_amount"
	DefMissingDate        DeficiencyKind = "missing_date"
	DefVATAmbiguous       DeficiencyKind = "vat_ambiguous"
	DefLowConfidence      DeficiencyKind = "low_confidence"
	DefCategoryUnresolved DeficiencyKind = "category_unresolved"
)

// Deficiency is a single reason a record needs review, bound to the
// field a reviewer must supply or confirm.
type Deficiency struct {
	Kind    DeficiencyKind
	Field   string
	Current *model.FieldValue
}

// lowConfidenceOrder fixes the order in which low-confidence checks run,
// so the same deficiency set always yields the same question list.
var lowConfidenceOrder = []string{
	FieldVendor, FieldDate, FieldAmount, FieldTaxAmount, FieldCategory,
}

// Validator classifies a draft record as ok or needs_review and drives
// question generation. It runs the VAT resolver first, since VAT
// ambiguity is one of the deficiencies it reports.
type Validator struct {
	vatRate             float64
	confidenceThreshold float64
	assumeNet           bool
}

// NewValidator builds a validator from the pipeline configuration.
func NewValidator(cfg config.PipelineConfig) *Validator {
	return &Validator{
		vatRate:             cfg.VATRate,
		confidenceThreshold: cfg.ConfidenceThreshold,
		assumeNet:           cfg.AssumeNetWhenUnflagged,
	}
}

// Validate reconciles VAT, computes the deficiency set, and sets the
// record's status, review reason, and question list in place. Running it
// twice on the same input yields the same result, so retried ingests are
// safe. conf may be nil when no extractor signals apply.
func (v *Validator) Validate(doc *model.Document, conf Confidences) {
	ambiguous := resolveVAT(doc, v.vatRate, v.assumeNet)
	defs := v.deficiencies(doc, conf, ambiguous)

	if len(defs) == 0 {
		doc.Status = model.StatusOK
		doc.ReviewReason = ""
		doc.ReviewQuestions = nil
		return
	}

	doc.Status = model.StatusNeedsReview
	doc.ReviewReason = summarize(defs)
	doc.ReviewQuestions = buildQuestions(defs)
}

// deficiencies accumulates every deficiency in priority order. Checks
// never short-circuit: a record missing three fields gets three questions.
func (v *Validator) deficiencies(doc *model.Document, conf Confidences, vatAmbiguous bool) []Deficiency {
	var defs []Deficiency
	flagged := map[string]bool{}

	if doc.Vendor == nil {
		defs = append(defs, Deficiency{Kind: DefMissingVendor, Field: FieldVendor})
		flagged[FieldVendor] = true
	}
	if doc.Amount == nil {
		defs = append(defs, Deficiency{Kind: DefMissingAmount, Field: FieldAmount})
		flagged[FieldAmount] = true
	}
	if doc.Date == nil {
		defs = append(defs, Deficiency{Kind: DefMissingDate, Field: FieldDate})
		flagged[FieldDate] = true
	}

	if vatAmbiguous {
		defs = append(defs, Deficiency{Kind: DefVATAmbiguous, Field: FieldVATInclusive})
		flagged[FieldVATInclusive] = true
	}

	for _, field := range lowConfidenceOrder {
		if flagged[field] {
			continue
		}
		c, ok := conf[field]
		if !ok || c >= v.confidenceThreshold {
			continue
		}
		cur := currentValue(doc, field)
		if cur == nil {
			continue
		}
		defs = append(defs, Deficiency{Kind: DefLowConfidence, Field: field, Current: cur})
		flagged[field] = true
	}

	if doc.Category == nil && !flagged[FieldCategory] {
		defs = append(defs, Deficiency{Kind: DefCategoryUnresolved, Field: FieldCategory})
	}

	return defs
}

// currentValue renders the extractor's best guess for a field as a
// tagged value, for confirm-or-correct questions.
func currentValue(doc *model.Document, field string) *model.FieldValue {
	switch field {
	case FieldVendor:
		if doc.Vendor != nil {
			v := model.TextValue(*doc.Vendor)
			return &v
		}
	case FieldDate:
		if doc.Date != nil {
			v := model.DateValue(*doc.Date)
			return &v
		}
	case FieldAmount:
		if doc.Amount != nil {
			v := model.NumberValue(*doc.Amount)
			return &v
		}
	case FieldTaxAmount:
		if doc.TaxAmount != nil {
			v := model.NumberValue(*doc.TaxAmount)
			return &v
		}
	case FieldCategory:
		if doc.Category != nil {
			v := model.TextValue(string(*doc.Category))
			return &v
		}
	}
	return nil
}

// summarize builds the short human review reason, e.g.
// "Missing amount and VAT status".
func summarize(defs []Deficiency) string {
	var parts []string
	for _, d := range defs {
		switch d.Kind {
		case DefMissingVendor:
			parts = append(parts, "Missing vendor")
		case DefMissingAmount:
			parts = append(parts, "Missing amount")
		case DefMissingDate:
			parts = append(parts, "Missing date")
		case DefVATAmbiguous:
			parts = append(parts, "VAT status")
		case DefLowConfidence:
			parts = append(parts, "Unconfirmed "+fieldLabel(d.Field))
		case DefCategoryUnresolved:
			parts = append(parts, "Category")
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func fieldLabel(field string) string {
	switch field {
	case FieldTaxAmount:
		return "tax amount"
	case FieldVATInclusive:
		return "VAT status"
	case FieldTransactionType:
		return "transaction type"
	case FieldIsPaid:
		return "payment status"
	default:
		return field
	}
}
