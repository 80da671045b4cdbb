package response

import (
	"testing"

	"urbanstyle_assistant/internal/domain/entities"
)

func TestFromReply(t *testing.T) {
	t.Run("plain reply", func(t *testing.T) {
		out := FromReply(entities.AssistantReply{
			Text:        "still missing the email",
			Kind:        entities.ReplyKindWarning,
			Suggestions: []string{"Could you provide the customer's email address?"},
		})
		if out.Response != "still missing the email" || out.Type != "warning" {
			t.Fatalf("unexpected response: %+v", out)
		}
		if out.Invoice != nil {
			t.Fatalf("expected no invoice payload")
		}
		if out.Status != "success" {
			t.Fatalf("unexpected status %q", out.Status)
		}
	})

	t.Run("finalized reply carries the invoice", func(t *testing.T) {
		draft := entities.InvoiceDraft{
			InvoiceNumber: "INV-1001",
			CustomerName:  "Alex",
			CustomerEmail: "alex@shop.com",
			Currency:      "INR",
			TaxPercent:    18,
			Shipping:      99,
			LineItems:     []entities.LineItem{{Description: "Sneakers", Quantity: 2, UnitPrice: 2499}},
			Status:        entities.DraftStatusFinalized,
		}
		out := FromReply(entities.AssistantReply{
			Text:           "Invoice finalized.",
			Kind:           entities.ReplyKindInvoice,
			Finalized:      &draft,
			SavedInvoiceID: "rec-1",
		})

		if out.Type != "invoice" || out.SavedInvoiceID != "rec-1" {
			t.Fatalf("unexpected response: %+v", out)
		}
		if out.Invoice == nil {
			t.Fatalf("expected invoice payload")
		}
		if out.Invoice.Subtotal != 4998 || out.Invoice.GrandTotal != 5996.64 {
			t.Fatalf("unexpected totals: subtotal=%v grand=%v", out.Invoice.Subtotal, out.Invoice.GrandTotal)
		}
		if len(out.Invoice.LineItems) != 1 || out.Invoice.LineItems[0].LineTotal != 4998 {
			t.Fatalf("unexpected line items: %+v", out.Invoice.LineItems)
		}
		if out.Invoice.Status != "finalized" {
			t.Fatalf("unexpected status %q", out.Invoice.Status)
		}
	})
}
