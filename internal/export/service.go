// Package export renders stored extractions as an Excel workbook for
// downstream bookkeeping.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"docuscan/internal/common"
	"docuscan/internal/entity"
)

const (
	documentsSheet = "Documents"
	lineItemsSheet = "Line Items"

	// ListLimit bounds one workbook; exports past this need date filtering,
	// which the store does not grow until someone asks for it.
	listLimit = 10000
)

// DocumentSource is the slice of the store the exporter reads.
type DocumentSource interface {
	ListDocuments(ctx context.Context, limit int) ([]entity.Document, error)
	GetLineItems(ctx context.Context, documentID uuid.UUID) ([]entity.StoredLineItem, error)
}

// Service builds workbooks from a document source.
type Service struct {
	source DocumentSource
	logger *slog.Logger
}

func NewService(source DocumentSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

var documentHeaders = []string{
	"ID", "Source", "Status", "Engine", "Vendor", "Invoice #",
	"Date", "Amount", "Tax", "Category", "Confidence", "Uploaded At",
}

var lineItemHeaders = []string{
	"Document ID", "Description", "Quantity", "Unit Price", "Total", "Category",
}

// Workbook renders every stored document and its line items into an
// in-memory xlsx workbook.
func (s *Service) Workbook(ctx context.Context) (*bytes.Buffer, error) {
	docs, err := s.source.ListDocuments(ctx, listLimit)
	if err != nil {
		return nil, common.WrapError(err, "export: list documents")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), documentsSheet); err != nil {
		return nil, common.WrapError(err, "export: rename sheet")
	}
	if _, err := f.NewSheet(lineItemsSheet); err != nil {
		return nil, common.WrapError(err, "export: create sheet")
	}

	if err := writeRow(f, documentsSheet, 1, toCells(documentHeaders)); err != nil {
		return nil, err
	}
	if err := writeRow(f, lineItemsSheet, 1, toCells(lineItemHeaders)); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, doc := range docs {
		row := []any{
			doc.ID.String(), doc.Source, doc.Status, doc.Engine,
			doc.VendorName, doc.InvoiceNumber, doc.TransactionDate,
			doc.Amount, doc.TaxAmount, doc.Category, doc.Confidence,
			doc.UploadedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writeRow(f, documentsSheet, i+2, row); err != nil {
			return nil, err
		}

		items, err := s.source.GetLineItems(ctx, doc.ID)
		if err != nil {
			return nil, common.WrapError(err, "export: line items")
		}
		for _, item := range items {
			row := []any{
				doc.ID.String(), item.Description, item.Quantity,
				item.UnitPrice, item.Total, item.Category,
			}
			if err := writeRow(f, lineItemsSheet, itemRow, row); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	if err := sizeColumns(f); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.WrapError(err, "export: write workbook")
	}
	s.logger.Info("workbook built", "documents", len(docs), "line_items", itemRow-2)
	return buf, nil
}

// WriteFile renders the workbook and saves it at path.
func (s *Service) WriteFile(ctx context.Context, path string) error {
	buf, err := s.Workbook(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return common.WrapError(err, "export: write file")
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return common.WrapError(err, "export: cell name")
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return common.WrapError(err, fmt.Sprintf("export: set %s!%s", sheet, cell))
		}
	}
	return nil
}

func sizeColumns(f *excelize.File) error {
	if err := f.SetColWidth(documentsSheet, "A", "A", 38); err != nil {
		return common.WrapError(err, "export: column width")
	}
	if err := f.SetColWidth(documentsSheet, "B", "L", 18); err != nil {
		return common.WrapError(err, "export: column width")
	}
	if err := f.SetColWidth(lineItemsSheet, "A", "A", 38); err != nil {
		return common.WrapError(err, "export: column width")
	}
	if err := f.SetColWidth(lineItemsSheet, "B", "B", 40); err != nil {
		return common.WrapError(err, "export: column width")
	}
	return f.SetColWidth(lineItemsSheet, "C", "F", 14)
}

func toCells(headers []string) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
