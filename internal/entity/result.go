package entity

import (
	"docuscan/constants"
	"docuscan/internal/ocr"
)

// Fields are the scalar invoice fields. A nil pointer means "not detected",
// which is an expected outcome, never an error; it serializes as null.
type Fields struct {
	VendorName      *string  `json:"vendor_name"`
	InvoiceNumber   *string  `json:"invoice_number"`
	TransactionDate *string  `json:"transaction_date"`
	Amount          *float64 `json:"amount"`
	TaxAmount       *float64 `json:"tax_amount"`
}

// LineItem is one purchased item reconstructed from the token layout.
// Invariant: Total == UnitPrice * Quantity within floating rounding.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// ExtractionResult is the output contract of one processing invocation.
// It is a value object: built once, handed to collaborators, never mutated.
// Partial extraction (missing fields, no line items) is still a success;
// status is "error" only when no text was recognized at all.
type ExtractionResult struct {
	Status      constants.ExtractionStatus `json:"status"`
	Engine      string                     `json:"engine"`
	Message     string                     `json:"message,omitempty"`
	Fields      Fields                     `json:"fields"`
	LineItems   []LineItem                 `json:"line_items"`
	Confidence  float64                    `json:"confidence"`
	RawText     string                     `json:"raw_text"`
	DebugTokens []ocr.Token                `json:"debug_tokens,omitempty"`
}
