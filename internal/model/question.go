package model

import (
	"fmt"
	"time"
)

// InputType tells the UI what kind of control to render for a question
// and implies the shape of an acceptable answer.
type InputType string

const (
	InputText             InputType = "text"
	InputNumber           InputType = "number"
	InputDate             InputType = "date"
	InputSelect           InputType = "select"
	InputConfirmOrCorrect InputType = "confirm_or_correct"
)

// Option is one selectable choice for a select question.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Question is a single review question. Questions are regenerable
// artifacts: the validator derives them from the record on every run,
// so they are never edited in place.
type Question struct {
	FieldName    string      `json:"field_name"`
	Prompt       string      `json:"question"`
	InputType    InputType   `json:"input_type"`
	CurrentValue *FieldValue `json:"current_value,omitempty"`
	Hint         string      `json:"hint,omitempty"`
	Options      []Option    `json:"options,omitempty"`
}

// Validate checks structural invariants: a select question must offer at
// least one option, and non-select questions must not carry options.
func (q Question) Validate() error {
	if q.FieldName == "" {
		return fmt.Errorf("question has no field name")
	}
	if q.InputType == InputSelect && len(q.Options) == 0 {
		return fmt.Errorf("select question for %q has no options", q.FieldName)
	}
	if q.InputType != InputSelect && len(q.Options) > 0 {
		return fmt.Errorf("%s question for %q must not carry options", q.InputType, q.FieldName)
	}
	return nil
}

func (q Question) clone() Question {
	c := q
	c.CurrentValue = clonePtr(q.CurrentValue)
	if q.Options != nil {
		c.Options = append([]Option(nil), q.Options...)
	}
	return c
}

// FieldKind is the explicit type tag on a field value.
type FieldKind string

const (
	KindText    FieldKind = "text"
	KindNumber  FieldKind = "number"
	KindDate    FieldKind = "date"
	KindBoolean FieldKind = "boolean"
)

// FieldValue is a tagged value for a single document field. Raw extractor
// output and review answers are carried as FieldValues so that coercion
// happens exactly once, at the resolution boundary, instead of untyped
// maps leaking through the pipeline.
type FieldValue struct {
	Kind   FieldKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Number float64   `json:"number,omitempty"`
	Date   time.Time `json:"date,omitempty"`
	Bool   bool      `json:"bool,omitempty"`
}

// TextValue builds a text-tagged field value.
func TextValue(s string) FieldValue { return FieldValue{Kind: KindText, Text: s} }

// NumberValue builds a number-tagged field value.
func NumberValue(n float64) FieldValue { return FieldValue{Kind: KindNumber, Number: n} }

// DateValue builds a date-tagged field value.
func DateValue(t time.Time) FieldValue { return FieldValue{Kind: KindDate, Date: t} }

// BoolValue builds a boolean-tagged field value.
func BoolValue(b bool) FieldValue { return FieldValue{Kind: KindBoolean, Bool: b} }

// String renders the value for display (question current_value hints).
func (v FieldValue) String() string {
	switch v.Kind {
	case KindNumber:
		return fmt.Sprintf("%.2f", v.Number)
	case KindDate:
		return v.Date.Format("2006-01-02")
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return v.Text
	}
}
