// Package model defines the core domain types for the expense document
// pipeline: the document record, its review questions, and the closed
// expense category set.
package model

import "time"

// Status is the lifecycle state of a document record.
type Status string

const (
	// StatusOK means every field required for accounting use has been
	// extracted, confirmed, or supplied by a reviewer.
	StatusOK Status = "ok"
	// StatusNeedsReview means the record has at least one open review question.
	StatusNeedsReview Status = "needs_review"
)

// Category is one of the closed set of UAE business expense categories.
type Category string

const (
	CategoryOfficeSupplies       Category = "Office Supplies"
	CategoryRent                 Category = "Rent"
	CategoryUtilities            Category = "Utilities"
	CategoryTelecommunications   Category = "Telecommunications"
	CategoryFuelTransport        Category = "Fuel & Transport"
	CategoryVehicleMaintenance   Category = "Vehicle Maintenance"
	CategoryGovernmentFees       Category = "Government Fees"
	CategoryInsurance            Category = "Insurance"
	CategorySoftwareIT           Category = "IT & Software"
	CategoryMarketing            Category = "Marketing & Advertising"
	CategoryTravel               Category = "Travel & Accommodation"
	CategoryMeals                Category = "Meals & Entertainment"
	CategoryProfessionalServices Category = "Professional Services"
	CategoryBankCharges          Category = "Bank Charges"
	CategoryOther                Category = "Other Business Expenses"
)

// AllCategories returns the closed category set in display order.
// The order is stable because select questions are rendered from it.
func AllCategories() []Category {
	return []Category{
		CategoryOfficeSupplies,
		CategoryRent,
		CategoryUtilities,
		CategoryTelecommunications,
		CategoryFuelTransport,
		CategoryVehicleMaintenance,
		CategoryGovernmentFees,
		CategoryInsurance,
		CategorySoftwareIT,
		CategoryMarketing,
		CategoryTravel,
		CategoryMeals,
		CategoryProfessionalServices,
		CategoryBankCharges,
		CategoryOther,
	}
}

// ParseCategory maps a display string to a category from the closed set.
// Returns false if the string is not a known category.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories() {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Document is the central record produced by the extraction pipeline.
//
// Amount always means the net (VAT-exclusive) amount once VAT has been
// resolved. Nil pointers mean "unknown": the field was not extracted,
// failed to parse, or has not been answered yet.
type Document struct {
	ID int64 `json:"id"`

	Vendor          *string    `json:"vendor"`
	Date            *time.Time `json:"date"`
	Amount          *float64   `json:"amount"`
	Currency        string     `json:"currency"`
	TaxAmount       *float64   `json:"tax_amount"`
	Category        *Category  `json:"category"`
	IsPaid          *bool      `json:"is_paid"`
	TransactionType string     `json:"transaction_type,omitempty"`
	Notes           string     `json:"notes,omitempty"`

	Status          Status     `json:"status"`
	ReviewReason    string     `json:"review_reason,omitempty"`
	ReviewQuestions []Question `json:"review_questions,omitempty"`
	VATInclusive    *bool      `json:"vat_inclusive"`

	SourceFile string    `json:"source_file,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	// Version increments on every write. Resolutions carry the version the
	// question set was issued against so lost updates are detected instead
	// of silently merged.
	Version int64 `json:"version"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := *d
	c.Vendor = clonePtr(d.Vendor)
	c.Date = clonePtr(d.Date)
	c.Amount = clonePtr(d.Amount)
	c.TaxAmount = clonePtr(d.TaxAmount)
	c.Category = clonePtr(d.Category)
	c.IsPaid = clonePtr(d.IsPaid)
	c.VATInclusive = clonePtr(d.VATInclusive)
	if d.ReviewQuestions != nil {
		c.ReviewQuestions = make([]Question, len(d.ReviewQuestions))
		for i, q := range d.ReviewQuestions {
			c.ReviewQuestions[i] = q.clone()
		}
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// QuestionFor returns the open review question for a field, if any.
func (d *Document) QuestionFor(field string) (Question, bool) {
	for _, q := range d.ReviewQuestions {
		if q.FieldName == field {
			return q, true
		}
	}
	return Question{}, false
}
