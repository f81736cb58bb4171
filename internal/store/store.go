// Package store persists document records. Implementations must provide
// compare-and-swap updates so concurrent resolutions are detected rather
// than silently merged.
package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/expenselens/backend/internal/model"
)

// Store defines the persistence operations used by the service.
type Store interface {
	// CreateDocument assigns an id and initial version, then persists.
	CreateDocument(ctx context.Context, doc *model.Document) error

	// GetDocument returns model.ErrDocumentNotFound for unknown ids.
	GetDocument(ctx context.Context, id int64) (*model.Document, error)

	// UpdateDocument writes doc only if the stored version still equals
	// expectedVersion, incrementing the version on success. A mismatch
	// returns model.ErrConcurrentModification.
	UpdateDocument(ctx context.Context, doc *model.Document, expectedVersion int64) error

	// DeleteDocument removes a record. Deletion is an external operation;
	// the pipeline itself never calls it.
	DeleteDocument(ctx context.Context, id int64) error

	// ListDocuments pages through records ordered by id. status filters
	// when non-empty.
	ListDocuments(ctx context.Context, status model.Status, pageSize int32, pageToken string) ([]*model.Document, string, error)

	Close() error
}

// EncodePageToken encodes a document id into an opaque page token.
func EncodePageToken(id int64) string {
	if id == 0 {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

// DecodePageToken decodes a page token back to a document id.
func DecodePageToken(token string) (int64, error) {
	if token == "" {
		return 0, nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("invalid page token: %w", err)
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid page token: %w", err)
	}
	return id, nil
}
