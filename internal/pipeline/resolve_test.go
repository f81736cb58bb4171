package pipeline

import (
	"reflect"
	"testing"

	"github.com/expenselens/backend/internal/model"
)

func testResolver() *Resolver {
	return NewResolver(testValidator())
}

// reviewedDoc builds a record, runs validation so it carries real review
// questions, and fails the test if the expected question set is missing.
func reviewedDoc(t *testing.T, mutate func(*model.Document), conf Confidences, wantFields ...string) *model.Document {
	t.Helper()
	doc := completeDoc()
	if mutate != nil {
		mutate(doc)
	}
	testValidator().Validate(doc, conf)
	if got := questionFields(doc); !reflect.DeepEqual(got, wantFields) {
		t.Fatalf("fixture produced questions %v, want %v", got, wantFields)
	}
	return doc
}

func TestResolve_AnswerVATQuestion(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.TaxAmount = nil
		d.VATInclusive = nil
	}, highConf(), FieldVATInclusive)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVATInclusive: "false",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if doc.Status != model.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", doc.Status, doc.ReviewReason)
	}
	if doc.TaxAmount == nil || *doc.TaxAmount != 15 {
		t.Fatalf("expected tax derived from answer, got %v", doc.TaxAmount)
	}
	if doc.VATInclusive == nil || *doc.VATInclusive {
		t.Fatalf("expected exclusive flag, got %v", doc.VATInclusive)
	}
}

func TestResolve_VATAnswerSupersedesIrreconcilableTax(t *testing.T) {
	// Printed tax 50 on amount 100 matches neither interpretation, so the
	// validator asks. The reviewer's answer wins and tax is re-derived.
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Amount = f(100)
		d.TaxAmount = f(50)
		d.VATInclusive = nil
	}, highConf(), FieldVATInclusive)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVATInclusive: true,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if doc.Status != model.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", doc.Status, doc.ReviewReason)
	}
	if doc.Amount == nil || *doc.Amount != 95.24 {
		t.Fatalf("expected amount split to net 95.24, got %v", doc.Amount)
	}
	if doc.TaxAmount == nil || *doc.TaxAmount != 4.76 {
		t.Fatalf("expected re-derived tax 4.76, got %v", doc.TaxAmount)
	}
}

func TestResolve_EmptyAnswersApprovesAsIs(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Vendor = nil
	}, highConf(), FieldVendor)

	if err := testResolver().Resolve(doc, nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if doc.Status != model.StatusOK {
		t.Fatalf("expected forced ok, got %s", doc.Status)
	}
	if doc.Vendor != nil {
		t.Fatalf("approve-as-is must not invent values, got %v", doc.Vendor)
	}
	if len(doc.ReviewQuestions) != 0 || doc.ReviewReason != "" {
		t.Fatal("expected questions cleared")
	}
}

func TestResolve_UnknownFieldRejectsAtomically(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Vendor = nil
	}, highConf(), FieldVendor)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVendor: "Gulf Traders",
		FieldNotes:  "paid in cash",
	})

	if !model.IsReviewAnswerError(err) {
		t.Fatalf("expected ReviewAnswerError, got %v", err)
	}
	// The valid vendor answer must not have been applied.
	if doc.Vendor != nil {
		t.Fatalf("expected record untouched, vendor = %v", *doc.Vendor)
	}
	if doc.Status != model.StatusNeedsReview {
		t.Fatalf("expected status untouched, got %s", doc.Status)
	}
}

func TestResolve_UncoercibleValueRejectsAtomically(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Date = nil
		d.Amount = nil
		d.TaxAmount = nil
		d.VATInclusive = b(false)
	}, highConf(), FieldAmount, FieldDate)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldAmount: 250.0,
		FieldDate:   "yesterday-ish",
	})

	if !model.IsReviewAnswerError(err) {
		t.Fatalf("expected ReviewAnswerError, got %v", err)
	}
	if doc.Amount != nil {
		t.Fatal("expected amount answer rejected along with the bad date")
	}
}

func TestResolve_NegativeAmountRejected(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Amount = nil
		d.TaxAmount = nil
		d.VATInclusive = b(false)
	}, highConf(), FieldAmount)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldAmount: -50.0,
	})
	if !model.IsReviewAnswerError(err) {
		t.Fatalf("expected ReviewAnswerError, got %v", err)
	}
}

func TestResolve_PartialAnswersLeaveRemainingQuestions(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Vendor = nil
		d.Date = nil
	}, highConf(), FieldVendor, FieldDate)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVendor: "Gulf Traders",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if doc.Status != model.StatusNeedsReview {
		t.Fatalf("expected needs_review with open date question, got %s", doc.Status)
	}
	if got := questionFields(doc); !reflect.DeepEqual(got, []string{FieldDate}) {
		t.Fatalf("expected only the date question to remain, got %v", got)
	}
	if doc.Vendor == nil || *doc.Vendor != "Gulf Traders" {
		t.Fatalf("expected vendor applied, got %v", doc.Vendor)
	}
}

func TestResolve_UnansweredConfirmQuestionPersists(t *testing.T) {
	conf := highConf()
	conf[FieldVendor] = 0.3
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Date = nil
	}, conf, FieldDate, FieldVendor)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldDate: "2025-06-01",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if doc.Status != model.StatusNeedsReview {
		t.Fatalf("expected vendor confirmation still open, got %s", doc.Status)
	}
	if got := questionFields(doc); !reflect.DeepEqual(got, []string{FieldVendor}) {
		t.Fatalf("expected vendor question to persist, got %v", got)
	}
	if doc.Date == nil || doc.Date.Format("2006-01-02") != "2025-06-01" {
		t.Fatalf("expected date applied, got %v", doc.Date)
	}
}

func TestResolve_AnsweredConfirmQuestionCloses(t *testing.T) {
	conf := highConf()
	conf[FieldVendor] = 0.3
	doc := reviewedDoc(t, nil, conf, FieldVendor)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVendor: "Etisalat",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if doc.Status != model.StatusOK {
		t.Fatalf("expected ok after confirmation, got %s (%s)", doc.Status, doc.ReviewReason)
	}
}

func TestResolve_AlreadyOKIsNoOp(t *testing.T) {
	doc := completeDoc()
	testValidator().Validate(doc, highConf())
	if doc.Status != model.StatusOK {
		t.Fatalf("fixture not ok: %s", doc.ReviewReason)
	}
	snapshot := doc.Clone()

	// Retried resolution of a finalized record must not error or mutate.
	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVATInclusive: "false",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !reflect.DeepEqual(doc, snapshot) {
		t.Fatalf("expected no-op, record changed: %+v vs %+v", doc, snapshot)
	}
}

func TestResolve_CategorySelectAnswer(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Category = nil
	}, highConf(), FieldCategory)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldCategory: "Rent",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if doc.Category == nil || *doc.Category != model.CategoryRent {
		t.Fatalf("expected category Rent, got %v", doc.Category)
	}
	if doc.Status != model.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", doc.Status, doc.ReviewReason)
	}
}

func TestResolve_CategoryOutsideClosedSetRejected(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Category = nil
	}, highConf(), FieldCategory)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldCategory: "Groceries",
	})
	if !model.IsReviewAnswerError(err) {
		t.Fatalf("expected ReviewAnswerError for unknown category, got %v", err)
	}
}

func TestResolve_MissingAmountThenVATTwoRounds(t *testing.T) {
	// A record with no amount asks for the amount first; the VAT question
	// only surfaces once there is an amount to reconcile.
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Amount = nil
		d.TaxAmount = nil
		d.VATInclusive = nil
	}, highConf(), FieldAmount)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldAmount: 210.0,
	})
	if err != nil {
		t.Fatalf("first round: %v", err)
	}
	if got := questionFields(doc); !reflect.DeepEqual(got, []string{FieldVATInclusive}) {
		t.Fatalf("expected VAT question to surface, got %v", got)
	}

	err = testResolver().Resolve(doc, map[string]interface{}{
		FieldVATInclusive: "true",
	})
	if err != nil {
		t.Fatalf("second round: %v", err)
	}
	if doc.Amount == nil || *doc.Amount != 200 {
		t.Fatalf("expected net 200 from inclusive 210, got %v", doc.Amount)
	}
	if doc.TaxAmount == nil || *doc.TaxAmount != 10 {
		t.Fatalf("expected tax 10, got %v", doc.TaxAmount)
	}
	if doc.Status != model.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", doc.Status, doc.ReviewReason)
	}
}

func TestResolve_VATAnswerWithRestatedAmount(t *testing.T) {
	// The amount itself was never questioned, but the reviewer may restate
	// it alongside the VAT answer it reconciles against.
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Amount = f(1000)
		d.TaxAmount = nil
		d.VATInclusive = nil
	}, highConf(), FieldVATInclusive)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVATInclusive: true,
		FieldAmount:       1000.0,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if doc.Status != model.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", doc.Status, doc.ReviewReason)
	}
	if doc.Amount == nil || *doc.Amount != 952.38 {
		t.Fatalf("expected net 952.38 from inclusive 1000, got %v", doc.Amount)
	}
	if doc.TaxAmount == nil || *doc.TaxAmount != 47.62 {
		t.Fatalf("expected tax 47.62, got %v", doc.TaxAmount)
	}
}

func TestResolve_RestatedAmountWithoutVATAnswerRejected(t *testing.T) {
	doc := reviewedDoc(t, func(d *model.Document) {
		d.Amount = f(1000)
		d.TaxAmount = nil
		d.VATInclusive = nil
	}, highConf(), FieldVATInclusive)

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldAmount: 900.0,
	})
	if !model.IsReviewAnswerError(err) {
		t.Fatalf("expected ReviewAnswerError, got %v", err)
	}
	if doc.Amount == nil || *doc.Amount != 1000 {
		t.Fatalf("expected record untouched, amount = %v", doc.Amount)
	}
}

func TestResolve_VATAnswerWithoutAmountRejected(t *testing.T) {
	// A lingering VAT question on a record whose amount was cleared has
	// nothing to reconcile against.
	doc := &model.Document{
		Currency: "AED",
		Status:   model.StatusNeedsReview,
		ReviewQuestions: []model.Question{{
			FieldName: FieldVATInclusive,
			InputType: model.InputSelect,
			Options: []model.Option{
				{Value: "true", Label: "VAT Inclusive"},
				{Value: "false", Label: "VAT Exclusive"},
			},
		}},
	}

	err := testResolver().Resolve(doc, map[string]interface{}{
		FieldVATInclusive: "true",
	})
	if !model.IsReviewAnswerError(err) {
		t.Fatalf("expected amount-required rejection, got %v", err)
	}
}
