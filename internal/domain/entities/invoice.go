package entities

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DraftStatus represents the lifecycle of an in-progress invoice.
//
// Domain notes:
//   - The assistant core is the source of truth for draft state.
//   - Finalized is terminal for a draft instance; a new invoice requires an
//     explicit session reset.
type DraftStatus string

const (
	DraftStatusDraft        DraftStatus = "draft"
	DraftStatusAwaitingInfo DraftStatus = "awaiting_info"
	DraftStatusFinalized    DraftStatus = "finalized"
)

// LineItem is a single billed item, owned exclusively by its InvoiceDraft.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// LineTotal returns quantity * unit price rounded to cents.
func (li LineItem) LineTotal() float64 {
	return round2(float64(li.Quantity) * li.UnitPrice)
}

// InvoiceDraft is the conversational invoice being assembled across turns.
//
// Monetary representation:
//   - Totals are never stored; InvoiceTotals recomputes them from line items
//     plus tax/shipping/discount on every read so they cannot desync.
type InvoiceDraft struct {
	InvoiceNumber   string      `json:"invoice_number,omitempty"`
	CustomerName    string      `json:"customer_name,omitempty"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	CustomerGST     string      `json:"customer_gst,omitempty"`
	InvoiceDate     string      `json:"invoice_date,omitempty"`
	DueDate         string      `json:"due_date,omitempty"`
	Currency        string      `json:"currency"`
	TaxPercent      float64     `json:"tax_percent"`
	Shipping        float64     `json:"shipping"`
	DiscountPercent float64     `json:"discount_percent"`
	DiscountCode    string      `json:"discount_code,omitempty"`
	LineItems       []LineItem  `json:"line_items"`
	Status          DraftStatus `json:"status"`

	// Stated marks numeric fields the user provided explicitly, so an
	// explicit zero (e.g. "tax: 0") is distinguishable from unset.
	Stated map[string]bool `json:"stated_fields,omitempty"`
}

// NewInvoiceDraft returns an empty draft in the given base currency.
func NewInvoiceDraft(baseCurrency string) InvoiceDraft {
	return InvoiceDraft{
		Currency: baseCurrency,
		Status:   DraftStatusDraft,
	}
}

// MarkStated records that the named fields were explicitly provided.
func (d *InvoiceDraft) MarkStated(fields ...string) {
	if d.Stated == nil {
		d.Stated = make(map[string]bool, len(fields))
	}
	for _, f := range fields {
		d.Stated[f] = true
	}
}

// StatedField reports whether the named field was explicitly provided.
func (d InvoiceDraft) StatedField(field string) bool {
	return d.Stated[field]
}

// InvoiceTotals holds the derived monetary figures of a draft.
type InvoiceTotals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	Shipping       float64 `json:"shipping"`
	GrandTotal     float64 `json:"grand_total"`
}

// Totals recomputes subtotal, tax, discount and grand total from scratch:
//
//	grand = subtotal * (1 + tax/100) * (1 - discount/100) + shipping
func (d InvoiceDraft) Totals() InvoiceTotals {
	subtotal := 0.0
	for _, li := range d.LineItems {
		subtotal += li.LineTotal()
	}
	subtotal = round2(subtotal)

	taxed := subtotal * (1 + d.TaxPercent/100)
	discounted := taxed * (1 - d.DiscountPercent/100)

	return InvoiceTotals{
		Subtotal:       subtotal,
		TaxAmount:      round2(taxed - subtotal),
		DiscountAmount: round2(taxed - discounted),
		Shipping:       round2(d.Shipping),
		GrandTotal:     round2(discounted + d.Shipping),
	}
}

// EnsureDates fills invoice/due dates on first use (due date defaults to +7d).
func (d *InvoiceDraft) EnsureDates(now time.Time) {
	if d.InvoiceDate == "" {
		d.InvoiceDate = now.Format("2006-01-02")
	}
	if d.DueDate == "" {
		d.DueDate = now.AddDate(0, 0, 7).Format("2006-01-02")
	}
}

// RenderSummary produces the plain-text invoice summary included in finalize
// replies.
func (d InvoiceDraft) RenderSummary() string {
	t := d.Totals()
	var b strings.Builder

	number := d.InvoiceNumber
	if number == "" {
		number = "DRAFT"
	}
	fmt.Fprintf(&b, "Invoice %s\n", number)
	fmt.Fprintf(&b, "Customer: %s\n", d.CustomerName)
	fmt.Fprintf(&b, "Email: %s\n", d.CustomerEmail)
	if d.CustomerGST != "" {
		fmt.Fprintf(&b, "GSTIN: %s\n", d.CustomerGST)
	}
	if d.InvoiceDate != "" {
		fmt.Fprintf(&b, "Date: %s\n", d.InvoiceDate)
	}
	b.WriteString("\nLine Items\n")
	for _, li := range d.LineItems {
		fmt.Fprintf(&b, "- %s: %d x %.2f = %.2f\n", li.Description, li.Quantity, li.UnitPrice, li.LineTotal())
	}
	fmt.Fprintf(&b, "\nSubtotal: %.2f %s\n", t.Subtotal, d.Currency)
	fmt.Fprintf(&b, "Tax (%.4g%%): %.2f\n", d.TaxPercent, t.TaxAmount)
	fmt.Fprintf(&b, "Shipping: %.2f\n", t.Shipping)
	if d.DiscountPercent > 0 {
		code := ""
		if d.DiscountCode != "" {
			code = " (" + d.DiscountCode + ")"
		}
		fmt.Fprintf(&b, "Discount (%.4g%%)%s: -%.2f\n", d.DiscountPercent, code, t.DiscountAmount)
	}
	fmt.Fprintf(&b, "Grand Total: %.2f %s", t.GrandTotal, d.Currency)
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
