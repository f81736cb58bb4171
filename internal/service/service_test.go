package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expenselens/backend/internal/config"
	"github.com/expenselens/backend/internal/extraction"
	"github.com/expenselens/backend/internal/model"
	"github.com/expenselens/backend/internal/store"
)

// fakeExtractor returns a canned raw document, or a fixed error.
type fakeExtractor struct {
	raw *extraction.RawDocument
	err error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, filename string) (*extraction.RawDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func cleanRaw() *extraction.RawDocument {
	return &extraction.RawDocument{
		Vendor:       extraction.RawField{Value: "Etisalat", Confidence: 0.95},
		Date:         extraction.RawField{Value: "2025-03-15", Confidence: 0.9},
		Amount:       extraction.RawField{Value: "300.00", Confidence: 0.92},
		TaxAmount:    extraction.RawField{Value: "15.00", Confidence: 0.88},
		Currency:     extraction.RawField{Value: "AED", Confidence: 0.99},
		Category:     extraction.RawField{Value: "Telecommunications", Confidence: 0.85},
		VATInclusive: extraction.RawField{Value: "false", Confidence: 0.8},
	}
}

func newTestService(t *testing.T, ex extraction.Extractor) *DocumentService {
	t.Helper()
	svc := NewDocumentService(config.DefaultConfig(), store.NewMemoryStore(), ex)
	t.Cleanup(svc.Close)
	return svc
}

func TestNewDocumentService_JobTTLFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Extraction.JobTTLMinutes = 45
	svc := NewDocumentService(cfg, store.NewMemoryStore(), &fakeExtractor{raw: cleanRaw()})
	defer svc.Close()
	assert.Equal(t, 45*time.Minute, svc.jobs.TTL())

	// An unset TTL falls back to an hour rather than expiring immediately.
	cfg.Extraction.JobTTLMinutes = 0
	svc2 := NewDocumentService(cfg, store.NewMemoryStore(), &fakeExtractor{raw: cleanRaw()})
	defer svc2.Close()
	assert.Equal(t, time.Hour, svc2.jobs.TTL())
}

func TestIngest_CleanDocument(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{raw: cleanRaw()})

	doc, err := svc.Ingest(context.Background(), []byte("pdf bytes"), "etisalat.pdf")
	require.NoError(t, err)

	assert.Equal(t, model.StatusOK, doc.Status)
	assert.Empty(t, doc.ReviewQuestions)
	require.NotNil(t, doc.Vendor)
	assert.Equal(t, "Etisalat", *doc.Vendor)
	require.NotNil(t, doc.Amount)
	assert.Equal(t, 300.0, *doc.Amount)
	require.NotNil(t, doc.TaxAmount)
	assert.Equal(t, 15.0, *doc.TaxAmount)
	assert.Equal(t, int64(1), doc.Version)
	assert.Equal(t, "etisalat.pdf", doc.SourceFile)

	stored, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, stored.ID)
}

func TestIngest_ExtractionFailureCreatesScaffold(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{err: &extraction.Error{
		Code:    extraction.ErrExtractorUnavailable,
		Message: "no key",
	}})

	doc, err := svc.Ingest(context.Background(), []byte("pdf bytes"), "broken.pdf")
	require.NoError(t, err, "extraction failure must not fail ingest")

	assert.Equal(t, model.StatusNeedsReview, doc.Status)
	assert.Nil(t, doc.Vendor)
	assert.Nil(t, doc.Amount)
	assert.NotEmpty(t, doc.ReviewQuestions, "scaffold must carry questions for every missing field")
	assert.Equal(t, "AED", doc.Currency)
}

func TestIngest_UnexpectedErrorPropagates(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{err: errors.New("disk on fire")})

	_, err := svc.Ingest(context.Background(), []byte("pdf bytes"), "x.pdf")
	require.Error(t, err)
}

func TestResolve_HappyPath(t *testing.T) {
	raw := cleanRaw()
	raw.Vendor = extraction.RawField{}
	svc := newTestService(t, &fakeExtractor{raw: raw})

	doc, err := svc.Ingest(context.Background(), []byte("pdf"), "x.pdf")
	require.NoError(t, err)
	require.Equal(t, model.StatusNeedsReview, doc.Status)

	resolved, err := svc.Resolve(context.Background(), doc.ID, map[string]interface{}{
		"vendor": "Gulf Traders",
	}, doc.Version)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOK, resolved.Status)
	require.NotNil(t, resolved.Vendor)
	assert.Equal(t, "Gulf Traders", *resolved.Vendor)
	assert.Equal(t, doc.Version+1, resolved.Version)
}

func TestResolve_StaleVersionRejected(t *testing.T) {
	raw := cleanRaw()
	raw.Vendor = extraction.RawField{}
	svc := newTestService(t, &fakeExtractor{raw: raw})

	doc, err := svc.Ingest(context.Background(), []byte("pdf"), "x.pdf")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), doc.ID, map[string]interface{}{
		"vendor": "First Writer",
	}, doc.Version)
	require.NoError(t, err)

	// A second reviewer still holding the original version must be told
	// to re-fetch, not silently win.
	_, err = svc.Resolve(context.Background(), doc.ID, map[string]interface{}{
		"vendor": "Second Writer",
	}, doc.Version)
	require.ErrorIs(t, err, model.ErrConcurrentModification)

	current, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "First Writer", *current.Vendor)
}

func TestResolve_InvalidAnswerSurfaces(t *testing.T) {
	raw := cleanRaw()
	raw.Vendor = extraction.RawField{}
	svc := newTestService(t, &fakeExtractor{raw: raw})

	doc, err := svc.Ingest(context.Background(), []byte("pdf"), "x.pdf")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), doc.ID, map[string]interface{}{
		"notes": "no question for this",
	}, doc.Version)
	assert.True(t, model.IsReviewAnswerError(err), "got %v", err)

	// The record version must be untouched after a rejected resolve.
	current, err := svc.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Version, current.Version)
}

func TestResolve_UnknownDocument(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{raw: cleanRaw()})

	_, err := svc.Resolve(context.Background(), 999, nil, 1)
	require.ErrorIs(t, err, model.ErrDocumentNotFound)
}

func TestSetPaid(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{raw: cleanRaw()})

	doc, err := svc.Ingest(context.Background(), []byte("pdf"), "x.pdf")
	require.NoError(t, err)
	assert.Nil(t, doc.IsPaid)

	updated, err := svc.SetPaid(context.Background(), doc.ID, true, doc.Version)
	require.NoError(t, err)
	require.NotNil(t, updated.IsPaid)
	assert.True(t, *updated.IsPaid)
	// Payment is bookkeeping, not review: status must not change.
	assert.Equal(t, doc.Status, updated.Status)

	_, err = svc.SetPaid(context.Background(), doc.ID, false, doc.Version)
	require.ErrorIs(t, err, model.ErrConcurrentModification)
}

func TestIngestAsync_JobCompletes(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{raw: cleanRaw()})

	job, err := svc.IngestAsync([]byte("pdf"), "async.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)

	deadline := time.After(5 * time.Second)
	for {
		got, err := svc.Job(job.ID)
		require.NoError(t, err)
		if got.Status == extraction.JobCompleted {
			assert.NotZero(t, got.DocumentID)
			doc, err := svc.Get(context.Background(), got.DocumentID)
			require.NoError(t, err)
			assert.Equal(t, "async.pdf", doc.SourceFile)
			return
		}
		if got.Status == extraction.JobFailed {
			t.Fatalf("job failed: %s", got.Error)
		}
		select {
		case <-deadline:
			t.Fatalf("job never finished, status %s", got.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRecurringCandidates(t *testing.T) {
	svc := newTestService(t, &fakeExtractor{raw: cleanRaw()})
	ctx := context.Background()

	// Three monthly Etisalat charges via direct store writes.
	for _, d := range []string{"2025-01-05", "2025-02-05", "2025-03-05"} {
		date, err := time.Parse("2006-01-02", d)
		require.NoError(t, err)
		vendor := "Etisalat"
		amount := 300.0
		require.NoError(t, svc.store.CreateDocument(ctx, &model.Document{
			Vendor:   &vendor,
			Date:     &date,
			Amount:   &amount,
			Currency: "AED",
			Status:   model.StatusOK,
		}))
	}

	candidates, err := svc.RecurringCandidates(ctx)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Etisalat", candidates[0].Vendor)
	assert.Equal(t, 3, candidates[0].OccurrenceCount)
	assert.Equal(t, 5, candidates[0].DayOfMonth)
}
