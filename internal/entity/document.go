package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is a stored extraction for data transfer between layers.
type Document struct {
	ID              uuid.UUID `json:"id"`
	Source          string    `json:"source"`
	Status          string    `json:"status"`
	Engine          string    `json:"engine"`
	VendorName      string    `json:"vendor_name"`
	InvoiceNumber   string    `json:"invoice_number"`
	TransactionDate string    `json:"transaction_date"`
	Amount          float64   `json:"amount"`
	TaxAmount       float64   `json:"tax_amount"`
	Category        string    `json:"category"`
	Confidence      float64   `json:"confidence"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// StoredLineItem is a line item as persisted, with its assigned category.
type StoredLineItem struct {
	LineItem
	Category string `json:"category"`
}

// Metrics are the dashboard aggregates over stored documents.
type Metrics struct {
	TotalDocuments int              `json:"total_documents"`
	TotalAmount    float64          `json:"total_amount"`
	AvgAmount      float64          `json:"avg_amount"`
	AvgConfidence  float64          `json:"avg_confidence"`
	TopCategories  []CategoryTotal  `json:"top_categories"`
}

// CategoryTotal is one category's spend total.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}
