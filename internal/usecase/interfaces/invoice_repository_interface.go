package interfaces

import (
	"context"

	"urbanstyle_assistant/internal/domain/entities"
)

// IInvoiceRepository abstracts DynamoDB persistence for finalized invoices.
//
// The assistant core must be able to:
//   - persist a finalized draft when the orchestrator emits a finalize signal
//   - load a stored invoice by its durable id
type IInvoiceRepository interface {
	Save(ctx context.Context, rec entities.InvoiceRecord) (entities.InvoiceRecord, error)
	GetByID(ctx context.Context, id string) (entities.InvoiceRecord, error)
}
