package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expenselens/backend/internal/model"
)

// applyOrder fixes the order answers are copied onto the record so that
// merges are deterministic regardless of map iteration.
var applyOrder = []string{
	FieldVendor, FieldDate, FieldAmount, FieldTaxAmount, FieldCurrency,
	FieldCategory, FieldVATInclusive, FieldIsPaid, FieldTransactionType, FieldNotes,
}

// Resolver merges human review answers back into a record and re-runs
// the VAT resolver and validator.
type Resolver struct {
	validator *Validator
}

// NewResolver builds the resolution merger around a validator.
func NewResolver(v *Validator) *Resolver {
	return &Resolver{validator: v}
}

// Resolve applies answers onto the record in place.
//
// An empty answer map is the "approve as-is" override: the record is
// forced to ok and its questions cleared, bypassing the validator.
//
// Partial answers are applied and the record re-validated; deficiencies
// that remain (or newly surface) produce a fresh question set. Any answer
// referencing a field without an open question, or whose value cannot be
// coerced, rejects the whole call atomically and leaves the record untouched.
//
// One exception: an answer to an open vat_inclusive question may restate
// the amount it reconciles against, whether or not the amount itself was
// questioned.
func (r *Resolver) Resolve(doc *model.Document, answers map[string]interface{}) error {
	if len(answers) == 0 {
		doc.Status = model.StatusOK
		doc.ReviewReason = ""
		doc.ReviewQuestions = nil
		return nil
	}

	// Re-resolving an already-final record with the same answers is a
	// no-op, so retried resolutions are safe.
	if doc.Status == model.StatusOK && len(doc.ReviewQuestions) == 0 {
		return nil
	}

	// Coerce everything before touching the record.
	coerced := make(map[string]model.FieldValue, len(answers))
	for field, raw := range answers {
		q, ok := doc.QuestionFor(field)
		if !ok {
			if field == FieldAmount && vatAnswerOpen(doc, answers) {
				fv, err := coerceNumber(FieldAmount, raw)
				if err != nil {
					return err
				}
				coerced[field] = fv
				continue
			}
			return &model.ReviewAnswerError{FieldName: field, Reason: "no open review question for this field"}
		}
		fv, err := coerceAnswer(q, raw)
		if err != nil {
			return err
		}
		coerced[field] = fv
	}

	// The VAT resolver needs an amount to act on a VAT answer.
	if _, ok := coerced[FieldVATInclusive]; ok {
		if _, amountAnswered := coerced[FieldAmount]; !amountAnswered && doc.Amount == nil {
			return &model.ReviewAnswerError{
				FieldName: FieldAmount,
				Reason:    "amount is required to resolve the VAT status",
			}
		}
	}

	// An explicit VAT answer supersedes a printed tax figure the resolver
	// could not reconcile; unless the reviewer also corrected tax_amount,
	// it is re-derived from the flag.
	if _, ok := coerced[FieldVATInclusive]; ok {
		if _, taxAnswered := coerced[FieldTaxAmount]; !taxAnswered {
			doc.TaxAmount = nil
		}
	}

	for _, field := range applyOrder {
		fv, ok := coerced[field]
		if !ok {
			continue
		}
		applyAnswer(doc, field, fv)
	}

	// Unanswered confirm-or-correct questions stay open: carry their
	// low-confidence signal into re-validation.
	carried := Confidences{}
	for _, q := range doc.ReviewQuestions {
		if q.InputType != model.InputConfirmOrCorrect {
			continue
		}
		if _, answered := coerced[q.FieldName]; answered {
			continue
		}
		carried[q.FieldName] = -1
	}

	r.validator.Validate(doc, carried)
	return nil
}

// vatAnswerOpen reports whether the answer set addresses an open
// vat_inclusive question.
func vatAnswerOpen(doc *model.Document, answers map[string]interface{}) bool {
	if _, ok := answers[FieldVATInclusive]; !ok {
		return false
	}
	_, open := doc.QuestionFor(FieldVATInclusive)
	return open
}

// coerceAnswer converts a raw answer to a tagged value, as implied by
// the question's input type. Coercion happens here and nowhere else.
func coerceAnswer(q model.Question, raw interface{}) (model.FieldValue, error) {
	switch q.InputType {
	case model.InputText:
		s, err := asString(q.FieldName, raw)
		if err != nil {
			return model.FieldValue{}, err
		}
		if strings.TrimSpace(s) == "" {
			return model.FieldValue{}, &model.ReviewAnswerError{FieldName: q.FieldName, Reason: "empty answer"}
		}
		return model.TextValue(strings.TrimSpace(s)), nil

	case model.InputNumber:
		return coerceNumber(q.FieldName, raw)

	case model.InputDate:
		return coerceDate(q.FieldName, raw)

	case model.InputSelect:
		return coerceSelect(q, raw)

	case model.InputConfirmOrCorrect:
		return coerceForField(q.FieldName, raw)

	default:
		return model.FieldValue{}, &model.ReviewAnswerError{
			FieldName: q.FieldName,
			Reason:    fmt.Sprintf("unsupported input type %q", q.InputType),
		}
	}
}

// coerceForField coerces a confirm-or-correct answer using the target
// field's natural type.
func coerceForField(field string, raw interface{}) (model.FieldValue, error) {
	switch field {
	case FieldAmount, FieldTaxAmount:
		return coerceNumber(field, raw)
	case FieldDate:
		return coerceDate(field, raw)
	case FieldCategory:
		return coerceCategory(field, raw)
	case FieldVATInclusive, FieldIsPaid:
		return coerceBool(field, raw)
	default:
		s, err := asString(field, raw)
		if err != nil {
			return model.FieldValue{}, err
		}
		return model.TextValue(strings.TrimSpace(s)), nil
	}
}

func coerceSelect(q model.Question, raw interface{}) (model.FieldValue, error) {
	switch q.FieldName {
	case FieldVATInclusive, FieldIsPaid:
		return coerceBool(q.FieldName, raw)
	case FieldCategory:
		return coerceCategory(q.FieldName, raw)
	default:
		s, err := asString(q.FieldName, raw)
		if err != nil {
			return model.FieldValue{}, err
		}
		for _, opt := range q.Options {
			if opt.Value == s {
				return model.TextValue(s), nil
			}
		}
		return model.FieldValue{}, &model.ReviewAnswerError{
			FieldName: q.FieldName,
			Reason:    fmt.Sprintf("%q is not one of the offered options", s),
		}
	}
}

func coerceNumber(field string, raw interface{}) (model.FieldValue, error) {
	switch v := raw.(type) {
	case float64:
		if v < 0 {
			return model.FieldValue{}, &model.ReviewAnswerError{FieldName: field, Reason: "amount must not be negative"}
		}
		return model.NumberValue(v), nil
	case int:
		return coerceNumber(field, float64(v))
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return model.FieldValue{}, &model.ReviewAnswerError{FieldName: field, Reason: fmt.Sprintf("%q is not a number", v)}
		}
		return coerceNumber(field, f)
	default:
		return model.FieldValue{}, &model.ReviewAnswerError{FieldName: field, Reason: "expected a number"}
	}
}

func coerceDate(field string, raw interface{}) (model.FieldValue, error) {
	s, err := asString(field, raw)
	if err != nil {
		return model.FieldValue{}, err
	}
	if d := parseFlexibleDate(s); d != nil {
		return model.DateValue(*d), nil
	}
	return model.FieldValue{}, &model.ReviewAnswerError{FieldName: field, Reason: fmt.Sprintf("%q is not a recognizable date", s)}
}

func coerceBool(field string, raw interface{}) (model.FieldValue, error) {
	switch v := raw.(type) {
	case bool:
		return model.BoolValue(v), nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return model.BoolValue(true), nil
		case "false":
			return model.BoolValue(false), nil
		}
		return model.FieldValue{}, &model.ReviewAnswerError{FieldName: field, Reason: fmt.Sprintf("%q is not true or false", v)}
	default:
		return model.FieldValue{}, &model.ReviewAnswerError{FieldName: field, Reason: "expected true or false"}
	}
}

func coerceCategory(field string, raw interface{}) (model.FieldValue, error) {
	s, err := asString(field, raw)
	if err != nil {
		return model.FieldValue{}, err
	}
	if _, ok := model.ParseCategory(s); !ok {
		return model.FieldValue{}, &model.ReviewAnswerError{FieldName: field, Reason: fmt.Sprintf("%q is not a known category", s)}
	}
	return model.TextValue(s), nil
}

func asString(field string, raw interface{}) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", &model.ReviewAnswerError{FieldName: field, Reason: "expected a string"}
	}
	return s, nil
}

// applyAnswer assigns a coerced value onto the record.
func applyAnswer(doc *model.Document, field string, fv model.FieldValue) {
	switch field {
	case FieldVendor:
		v := fv.Text
		doc.Vendor = &v
	case FieldDate:
		d := fv.Date
		doc.Date = &d
	case FieldAmount:
		a := fv.Number
		doc.Amount = &a
	case FieldTaxAmount:
		a := fv.Number
		doc.TaxAmount = &a
	case FieldCurrency:
		doc.Currency = strings.ToUpper(fv.Text)
	case FieldCategory:
		if cat, ok := model.ParseCategory(fv.Text); ok {
			doc.Category = &cat
		}
	case FieldVATInclusive:
		b := fv.Bool
		doc.VATInclusive = &b
	case FieldIsPaid:
		b := fv.Bool
		doc.IsPaid = &b
	case FieldTransactionType:
		doc.TransactionType = fv.Text
	case FieldNotes:
		doc.Notes = fv.Text
	}
}
