package entities

// ReplyKind mirrors the response typing consumed by the chat client.
type ReplyKind string

const (
	ReplyKindInfo    ReplyKind = "info"
	ReplyKindWarning ReplyKind = "warning"
	ReplyKindInvoice ReplyKind = "invoice"
	ReplyKindError   ReplyKind = "error"
)

// AssistantReply is the outward response of one handled turn.
//
// Finalized is non-nil exactly once per draft: on the turn the draft reaches
// finalized status. The transport/storage collaborators consume it to render
// and persist the document.
type AssistantReply struct {
	Text           string        `json:"text"`
	Kind           ReplyKind     `json:"kind"`
	Suggestions    []string      `json:"suggestions,omitempty"`
	Finalized      *InvoiceDraft `json:"finalized,omitempty"`
	SavedInvoiceID string        `json:"saved_invoice_id,omitempty"`
}
