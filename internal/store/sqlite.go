package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/expenselens/backend/internal/model"
)

// SQLiteStore implements Store on a SQLite database (cgo-free driver).
type SQLiteStore struct {
	db *sql.DB
}

// migrations returns the schema statements. Each string is a single SQL
// statement (SQLite executes one at a time).
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			vendor           TEXT,
			date             TEXT,
			amount           REAL,
			currency         TEXT NOT NULL DEFAULT 'AED',
			tax_amount       REAL,
			category         TEXT,
			is_paid          INTEGER,
			transaction_type TEXT NOT NULL DEFAULT '',
			notes            TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL,
			review_reason    TEXT NOT NULL DEFAULT '',
			review_questions TEXT NOT NULL DEFAULT '[]',
			vat_inclusive    INTEGER,
			source_file      TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL,
			version          INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_vendor ON documents(vendor)`,
	}
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent resolutions.
	db.SetMaxOpenConns(1)

	for _, stmt := range migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// CreateDocument inserts a record and fills in its assigned id/version.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	questions, err := marshalQuestions(doc.ReviewQuestions)
	if err != nil {
		return err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			vendor, date, amount, currency, tax_amount, category, is_paid,
			transaction_type, notes, status, review_reason, review_questions,
			vat_inclusive, source_file, created_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		nullString(doc.Vendor),
		nullDate(doc.Date),
		nullFloat(doc.Amount),
		doc.Currency,
		nullFloat(doc.TaxAmount),
		nullCategory(doc.Category),
		nullBool(doc.IsPaid),
		doc.TransactionType,
		doc.Notes,
		string(doc.Status),
		doc.ReviewReason,
		questions,
		nullBool(doc.VATInclusive),
		doc.SourceFile,
		doc.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read inserted id: %w", err)
	}
	doc.ID = id
	doc.Version = 1
	return nil
}

const documentColumns = `id, vendor, date, amount, currency, tax_amount, category, is_paid,
	transaction_type, notes, status, review_reason, review_questions,
	vat_inclusive, source_file, created_at, version`

// GetDocument fetches one record by id.
func (s *SQLiteStore) GetDocument(ctx context.Context, id int64) (*model.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, model.ErrDocumentNotFound
	}
	return doc, err
}

// UpdateDocument writes the record guarded by the expected version.
func (s *SQLiteStore) UpdateDocument(ctx context.Context, doc *model.Document, expectedVersion int64) error {
	questions, err := marshalQuestions(doc.ReviewQuestions)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			vendor = ?, date = ?, amount = ?, currency = ?, tax_amount = ?,
			category = ?, is_paid = ?, transaction_type = ?, notes = ?,
			status = ?, review_reason = ?, review_questions = ?,
			vat_inclusive = ?, source_file = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		nullString(doc.Vendor),
		nullDate(doc.Date),
		nullFloat(doc.Amount),
		doc.Currency,
		nullFloat(doc.TaxAmount),
		nullCategory(doc.Category),
		nullBool(doc.IsPaid),
		doc.TransactionType,
		doc.Notes,
		string(doc.Status),
		doc.ReviewReason,
		questions,
		nullBool(doc.VATInclusive),
		doc.SourceFile,
		doc.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update document %d: %w", doc.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document %d: %w", doc.ID, err)
	}
	if affected == 0 {
		// Either the record is gone or the version moved on.
		if _, getErr := s.GetDocument(ctx, doc.ID); getErr != nil {
			return getErr
		}
		return model.ErrConcurrentModification
	}
	doc.Version = expectedVersion + 1
	return nil
}

// DeleteDocument removes a record.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrDocumentNotFound
	}
	return nil
}

// ListDocuments pages through records in id order.
func (s *SQLiteStore) ListDocuments(ctx context.Context, status model.Status, pageSize int32, pageToken string) ([]*model.Document, string, error) {
	after, err := DecodePageToken(pageToken)
	if err != nil {
		return nil, "", err
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE id > ?`
	args := []interface{}{after}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, pageSize+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var results []*model.Document
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			return nil, "", scanErr
		}
		results = append(results, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	nextToken := ""
	if int32(len(results)) > pageSize {
		results = results[:pageSize]
		nextToken = EncodePageToken(results[len(results)-1].ID)
	}
	return results, nextToken, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		doc          model.Document
		vendor       sql.NullString
		date         sql.NullString
		amount       sql.NullFloat64
		taxAmount    sql.NullFloat64
		category     sql.NullString
		isPaid       sql.NullBool
		vatInclusive sql.NullBool
		questions    string
		createdAt    string
	)

	err := row.Scan(
		&doc.ID, &vendor, &date, &amount, &doc.Currency, &taxAmount,
		&category, &isPaid, &doc.TransactionType, &doc.Notes,
		(*string)(&doc.Status), &doc.ReviewReason, &questions,
		&vatInclusive, &doc.SourceFile, &createdAt, &doc.Version,
	)
	if err != nil {
		return nil, err
	}

	if vendor.Valid {
		doc.Vendor = &vendor.String
	}
	if date.Valid {
		if t, parseErr := time.Parse("2006-01-02", date.String); parseErr == nil {
			doc.Date = &t
		}
	}
	if amount.Valid {
		doc.Amount = &amount.Float64
	}
	if taxAmount.Valid {
		doc.TaxAmount = &taxAmount.Float64
	}
	if category.Valid {
		if cat, ok := model.ParseCategory(category.String); ok {
			doc.Category = &cat
		}
	}
	if isPaid.Valid {
		doc.IsPaid = &isPaid.Bool
	}
	if vatInclusive.Valid {
		doc.VATInclusive = &vatInclusive.Bool
	}
	if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
		doc.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(questions), &doc.ReviewQuestions); err != nil {
		return nil, fmt.Errorf("decode review questions for document %d: %w", doc.ID, err)
	}
	if len(doc.ReviewQuestions) == 0 {
		doc.ReviewQuestions = nil
	}

	return &doc, nil
}

func marshalQuestions(questions []model.Question) (string, error) {
	if questions == nil {
		return "[]", nil
	}
	b, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("encode review questions: %w", err)
	}
	return string(b), nil
}

func nullString(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func nullBool(p *bool) interface{} {
	if p == nil {
		return nil
	}
	if *p {
		return 1
	}
	return 0
}

func nullCategory(p *model.Category) interface{} {
	if p == nil {
		return nil
	}
	return string(*p)
}

func nullDate(p *time.Time) interface{} {
	if p == nil {
		return nil
	}
	return p.Format("2006-01-02")
}
