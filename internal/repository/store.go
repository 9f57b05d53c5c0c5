// Package repository persists extraction results in an embedded SQLite
// database and serves the aggregate queries the reporting surfaces need.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"docuscan/constants"
	"docuscan/internal/common"
	"docuscan/internal/entity"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY,
	source           TEXT NOT NULL,
	status           TEXT NOT NULL,
	engine           TEXT NOT NULL,
	vendor_name      TEXT,
	invoice_number   TEXT,
	transaction_date TEXT,
	amount           REAL,
	tax_amount       REAL,
	category         TEXT,
	confidence       REAL NOT NULL DEFAULT 0,
	raw_text         TEXT,
	uploaded_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	transaction_date TEXT,
	amount           REAL,
	tax_amount       REAL,
	category         TEXT,
	created_at       TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	description TEXT NOT NULL,
	quantity    REAL NOT NULL,
	unit_price  REAL NOT NULL,
	total       REAL NOT NULL,
	category    TEXT
);

CREATE TABLE IF NOT EXISTS categories (
	name TEXT PRIMARY KEY
);

CREATE INDEX IF NOT EXISTS idx_line_items_document ON line_items(document_id);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded ON documents(uploaded_at);
`

// seedCategories lists every assignable category so reporting always has the
// full set even before any document lands in one.
func seedCategories() []constants.Category {
	out := make([]constants.Category, 0,
		len(constants.DocumentCategories)+len(constants.LineItemCategories))
	out = append(out, constants.DocumentCategories...)
	out = append(out, constants.LineItemCategories...)
	return out
}

// Store wraps the SQLite handle. Safe for concurrent use; SQLite serializes
// writers internally.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open store")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, common.WrapError(err, "enable foreign keys")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, common.WrapError(err, "apply schema")
	}
	s := &Store{db: db, logger: logger}
	if err := s.seed(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) seed() error {
	for _, name := range seedCategories() {
		if _, err := s.db.Exec(
			"INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING", string(name)); err != nil {
			return common.WrapError(err, "seed categories")
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveExtraction stores one extraction result with its line items in a single
// transaction and returns the new document id. Categories are assigned here,
// at the storage boundary, so the extraction pipeline stays category-agnostic.
func (s *Store) SaveExtraction(ctx context.Context, source string, res *entity.ExtractionResult) (uuid.UUID, error) {
	id := uuid.New()

	vendor := deref(res.Fields.VendorName)
	category := constants.CategorizeDocument(vendor, res.RawText)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, common.WrapError(err, "begin save")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents
			(id, source, status, engine, vendor_name, invoice_number,
			 transaction_date, amount, tax_amount, category, confidence,
			 raw_text, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), source, string(res.Status), res.Engine,
		res.Fields.VendorName, res.Fields.InvoiceNumber,
		res.Fields.TransactionDate, res.Fields.Amount, res.Fields.TaxAmount,
		string(category), res.Confidence, res.RawText, time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, common.WrapError(err, "insert document")
	}

	// Successful extractions also land in the transaction ledger the
	// reporting queries read chronologically.
	if res.Status == constants.StatusSuccess {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (document_id, transaction_date, amount, tax_amount, category, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id.String(), res.Fields.TransactionDate, res.Fields.Amount,
			res.Fields.TaxAmount, string(category), time.Now().UTC(),
		)
		if err != nil {
			return uuid.Nil, common.WrapError(err, "insert transaction")
		}
	}

	for _, item := range res.LineItems {
		itemCategory := constants.CategorizeLineItem(item.Description)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO line_items (document_id, description, quantity, unit_price, total, category)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id.String(), item.Description, item.Quantity, item.UnitPrice,
			item.Total, string(itemCategory),
		)
		if err != nil {
			return uuid.Nil, common.WrapError(err, "insert line item")
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, common.WrapError(err, "commit save")
	}
	s.logger.Debug("extraction saved", "document_id", id, "line_items", len(res.LineItems))
	return id, nil
}

// ListDocuments returns stored documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, limit int) ([]entity.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, status, engine,
		       COALESCE(vendor_name, ''), COALESCE(invoice_number, ''),
		       COALESCE(transaction_date, ''), COALESCE(amount, 0),
		       COALESCE(tax_amount, 0), COALESCE(category, ''),
		       confidence, uploaded_at
		FROM documents ORDER BY uploaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, common.WrapError(err, "list documents")
	}
	defer rows.Close()

	var docs []entity.Document
	for rows.Next() {
		var d entity.Document
		var rawID string
		if err := rows.Scan(&rawID, &d.Source, &d.Status, &d.Engine,
			&d.VendorName, &d.InvoiceNumber, &d.TransactionDate,
			&d.Amount, &d.TaxAmount, &d.Category,
			&d.Confidence, &d.UploadedAt); err != nil {
			return nil, common.WrapError(err, "scan document")
		}
		d.ID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, common.WrapError(err, "parse document id")
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetLineItems returns the stored line items of one document.
func (s *Store) GetLineItems(ctx context.Context, documentID uuid.UUID) ([]entity.StoredLineItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT description, quantity, unit_price, total, COALESCE(category, '')
		FROM line_items WHERE document_id = ? ORDER BY id`, documentID.String())
	if err != nil {
		return nil, common.WrapError(err, "get line items")
	}
	defer rows.Close()

	var items []entity.StoredLineItem
	for rows.Next() {
		var it entity.StoredLineItem
		if err := rows.Scan(&it.Description, &it.Quantity, &it.UnitPrice,
			&it.Total, &it.Category); err != nil {
			return nil, common.WrapError(err, "scan line item")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteDocument removes a document and, via the cascade, its line items.
func (s *Store) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE id = ?", documentID.String())
	if err != nil {
		return common.WrapError(err, "delete document")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "delete document")
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", common.ErrNotFound, documentID)
	}
	return nil
}

// Metrics computes the reporting aggregates over successfully extracted
// documents.
func (s *Store) Metrics(ctx context.Context) (entity.Metrics, error) {
	var m entity.Metrics
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(amount), 0),
		       COALESCE(AVG(amount), 0),
		       COALESCE(AVG(confidence), 0)
		FROM documents WHERE status = ?`, string(constants.StatusSuccess),
	).Scan(&m.TotalDocuments, &m.TotalAmount, &m.AvgAmount, &m.AvgConfidence)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, nil
		}
		return m, common.WrapError(err, "aggregate metrics")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount) AS total
		FROM documents
		WHERE status = ? AND category IS NOT NULL AND category != ''
		GROUP BY category ORDER BY total DESC LIMIT 5`,
		string(constants.StatusSuccess))
	if err != nil {
		return m, common.WrapError(err, "category totals")
	}
	defer rows.Close()

	for rows.Next() {
		var ct entity.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return m, common.WrapError(err, "scan category total")
		}
		m.TopCategories = append(m.TopCategories, ct)
	}
	return m, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
