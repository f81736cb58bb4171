package store

import (
	"context"
	"sort"
	"sync"

	"github.com/expenselens/backend/internal/model"
)

// MemoryStore implements Store with in-memory storage. Used for local
// development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[int64]*model.Document
	nextID    int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[int64]*model.Document),
		nextID:    1,
	}
}

// CreateDocument assigns the next id and stores a copy at version 1.
func (m *MemoryStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc.ID = m.nextID
	m.nextID++
	doc.Version = 1
	m.documents[doc.ID] = doc.Clone()
	return nil
}

// GetDocument returns a copy of the stored record.
func (m *MemoryStore) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.documents[id]
	if !ok {
		return nil, model.ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

// UpdateDocument is a compare-and-swap on the record version.
func (m *MemoryStore) UpdateDocument(ctx context.Context, doc *model.Document, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.documents[doc.ID]
	if !ok {
		return model.ErrDocumentNotFound
	}
	if stored.Version != expectedVersion {
		return model.ErrConcurrentModification
	}

	updated := doc.Clone()
	updated.Version = expectedVersion + 1
	m.documents[doc.ID] = updated
	doc.Version = updated.Version
	return nil
}

// DeleteDocument removes a record.
func (m *MemoryStore) DeleteDocument(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.documents[id]; !ok {
		return model.ErrDocumentNotFound
	}
	delete(m.documents, id)
	return nil
}

// ListDocuments pages through records in id order.
func (m *MemoryStore) ListDocuments(ctx context.Context, status model.Status, pageSize int32, pageToken string) ([]*model.Document, string, error) {
	after, err := DecodePageToken(pageToken)
	if err != nil {
		return nil, "", err
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.documents))
	for id, doc := range m.documents {
		if id <= after {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var results []*model.Document
	nextToken := ""
	for _, id := range ids {
		if int32(len(results)) == pageSize {
			nextToken = EncodePageToken(results[len(results)-1].ID)
			break
		}
		results = append(results, m.documents[id].Clone())
	}
	return results, nextToken, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }
