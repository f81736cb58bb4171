package pipeline

import (
	"fmt"

	"github.com/expenselens/backend/internal/model"
)

// buildQuestions maps a deficiency set to the ordered question list the
// UI renders. The mapping is deterministic: the same deficiencies always
// yield the same questions in the same order.
func buildQuestions(defs []Deficiency) []model.Question {
	questions := make([]model.Question, 0, len(defs))
	for _, d := range defs {
		questions = append(questions, buildQuestion(d))
	}
	return questions
}

func buildQuestion(d Deficiency) model.Question {
	switch d.Kind {
	case DefMissingVendor:
		return model.Question{
			FieldName: FieldVendor,
			Prompt:    "What is the vendor name?",
			InputType: model.InputText,
			Hint:      "Enter the vendor exactly as printed on the document",
		}
	case DefMissingAmount:
		return model.Question{
			FieldName: FieldAmount,
			Prompt:    "What is the invoice amount?",
			InputType: model.InputNumber,
			Hint:      "Enter the amount before VAT if the document shows VAT separately",
		}
	case DefMissingDate:
		return model.Question{
			FieldName: FieldDate,
			Prompt:    "What is the invoice date?",
			InputType: model.InputDate,
			Hint:      "Use YYYY-MM-DD",
		}
	case DefVATAmbiguous:
		return model.Question{
			FieldName: FieldVATInclusive,
			Prompt:    "Does the amount include VAT?",
			InputType: model.InputSelect,
			Options: []model.Option{
				{Value: "true", Label: "VAT Inclusive"},
				{Value: "false", Label: "VAT Exclusive"},
			},
		}
	case DefCategoryUnresolved:
		return model.Question{
			FieldName: FieldCategory,
			Prompt:    "Which expense category applies?",
			InputType: model.InputSelect,
			Options:   categoryOptions(),
		}
	case DefLowConfidence:
		return model.Question{
			FieldName:    d.Field,
			Prompt:       fmt.Sprintf("Please confirm the extracted %s", fieldLabel(d.Field)),
			InputType:    model.InputConfirmOrCorrect,
			CurrentValue: d.Current,
			Hint:         "Confirm the value shown or supply a correction",
		}
	default:
		// Unreachable for the closed deficiency set.
		return model.Question{FieldName: d.Field, Prompt: "Please review " + d.Field, InputType: model.InputText}
	}
}

func categoryOptions() []model.Option {
	cats := model.AllCategories()
	opts := make([]model.Option, 0, len(cats))
	for _, c := range cats {
		opts = append(opts, model.Option{Value: string(c), Label: string(c)})
	}
	return opts
}
