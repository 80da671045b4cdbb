package entities

import "time"

// InvoiceRecord is a finalized invoice persisted by the storage collaborator.
//
// Storage model (DynamoDB):
//   - PK: id (generated uuid; the durable invoice identifier)
//
// GrandTotal is denormalized for querying only; the draft remains the source
// of truth and totals are always recomputable from it.
type InvoiceRecord struct {
	ID         string       `json:"id"`
	Draft      InvoiceDraft `json:"draft"`
	GrandTotal float64      `json:"grand_total"`
	CreatedAt  time.Time    `json:"created_at"`
}
