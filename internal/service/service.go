package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/expenselens/backend/internal/config"
	"github.com/expenselens/backend/internal/extraction"
	"github.com/expenselens/backend/internal/model"
	"github.com/expenselens/backend/internal/pipeline"
	"github.com/expenselens/backend/internal/recurring"
	"github.com/expenselens/backend/internal/store"
)

// DocumentService wires extraction, normalization, validation, and storage
// into the document lifecycle.
type DocumentService struct {
	store      store.Store
	extractor  extraction.Extractor
	jobs       *extraction.JobStore
	normalizer *pipeline.Normalizer
	validator  *pipeline.Validator
	resolver   *pipeline.Resolver
	detector   *recurring.Detector

	// locks serializes resolutions per document so the version check and
	// the subsequent write happen atomically.
	locks sync.Map // document id -> *sync.Mutex
}

// NewDocumentService constructs the service from its collaborators.
func NewDocumentService(cfg *config.Config, st store.Store, extractor extraction.Extractor) *DocumentService {
	jobTTL := time.Duration(cfg.Extraction.JobTTLMinutes) * time.Minute
	if jobTTL <= 0 {
		jobTTL = time.Hour
	}
	validator := pipeline.NewValidator(cfg.Pipeline)
	return &DocumentService{
		store:      st,
		extractor:  extractor,
		jobs:       extraction.NewJobStore(jobTTL),
		normalizer: pipeline.NewNormalizer(cfg.Pipeline, cfg.Rules),
		validator:  validator,
		resolver:   pipeline.NewResolver(validator),
		detector:   recurring.NewDetector(cfg.Recurring.ExcludeKeywords),
	}
}

// Ingest runs a document through extraction and the pipeline and persists
// the result. Extraction failure degrades to a blank scaffold that review
// will fill in rather than failing the ingest.
func (s *DocumentService) Ingest(ctx context.Context, data []byte, filename string) (*model.Document, error) {
	raw, err := s.extractor.Extract(ctx, data, filename)
	if err != nil {
		var extErr *extraction.Error
		if !errors.As(err, &extErr) {
			return nil, fmt.Errorf("extract %s: %w", filename, err)
		}
		log.Printf("[Service] extraction failed for %s (%s), creating scaffold for review", filename, extErr.Code)
		extractionFailures.Inc()
		raw = nil
	}

	doc, confidences := s.normalizer.Normalize(raw, filename)
	s.validator.Validate(doc, confidences)

	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}
	log.Printf("[Service] ingested document %d (%s) status=%s", doc.ID, filename, doc.Status)
	return doc, nil
}

// IngestAsync dispatches an extraction job and returns immediately. The
// job outcome is observable through Job.
func (s *DocumentService) IngestAsync(data []byte, filename string) (*extraction.Job, error) {
	job, err := s.jobs.Dispatch(0, filename)
	if err != nil {
		return nil, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		s.jobs.Start(job.ID)
		doc, ingestErr := s.Ingest(ctx, data, filename)
		if ingestErr != nil {
			log.Printf("[Service] job %s failed: %v", job.ID, ingestErr)
			s.jobs.Fail(job.ID, ingestErr.Error())
			return
		}
		s.jobs.Complete(job.ID, doc.ID)
	}()

	return job, nil
}

// Job returns the state of an async ingestion job.
func (s *DocumentService) Job(id string) (*extraction.Job, error) {
	return s.jobs.Get(id)
}

// Get fetches a single document.
func (s *DocumentService) Get(ctx context.Context, id int64) (*model.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// List pages through documents, optionally filtered by status.
func (s *DocumentService) List(ctx context.Context, status model.Status, pageSize int32, pageToken string) ([]*model.Document, string, error) {
	return s.store.ListDocuments(ctx, status, pageSize, pageToken)
}

// Delete removes a document.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteDocument(ctx, id)
}

// Resolve applies review answers to a document. The caller supplies the
// version it read; a mismatch means someone resolved in between and the
// caller must re-fetch.
func (s *DocumentService) Resolve(ctx context.Context, id int64, answers map[string]interface{}, expectedVersion int64) (*model.Document, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Version != expectedVersion {
		return nil, model.ErrConcurrentModification
	}

	if err := s.resolver.Resolve(doc, answers); err != nil {
		return nil, err
	}

	if err := s.store.UpdateDocument(ctx, doc, expectedVersion); err != nil {
		return nil, err
	}
	log.Printf("[Service] resolved document %d status=%s version=%d", doc.ID, doc.Status, doc.Version)
	return doc, nil
}

// SetPaid updates only the payment flag, leaving review state untouched.
func (s *DocumentService) SetPaid(ctx context.Context, id int64, paid bool, expectedVersion int64) (*model.Document, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Version != expectedVersion {
		return nil, model.ErrConcurrentModification
	}

	doc.IsPaid = &paid
	if err := s.store.UpdateDocument(ctx, doc, expectedVersion); err != nil {
		return nil, err
	}
	return doc, nil
}

// RecurringCandidates scans the full document set for recurring expense
// patterns.
func (s *DocumentService) RecurringCandidates(ctx context.Context) ([]recurring.Candidate, error) {
	var all []*model.Document
	token := ""
	for {
		page, next, err := s.store.ListDocuments(ctx, "", 500, token)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		token = next
	}
	return s.detector.Detect(all), nil
}

// Close releases background resources.
func (s *DocumentService) Close() {
	s.jobs.Stop()
}

func (s *DocumentService) lockFor(id int64) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}
