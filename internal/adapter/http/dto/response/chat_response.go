package response

import (
	"urbanstyle_assistant/internal/domain/entities"
)

type LineItemResponse struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

type InvoiceResponse struct {
	InvoiceNumber   string             `json:"invoice_number"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerGST     string             `json:"customer_gst,omitempty"`
	InvoiceDate     string             `json:"invoice_date,omitempty"`
	DueDate         string             `json:"due_date,omitempty"`
	Currency        string             `json:"currency"`
	TaxPercent      float64            `json:"tax_percent"`
	Shipping        float64            `json:"shipping"`
	DiscountPercent float64            `json:"discount_percent"`
	DiscountCode    string             `json:"discount_code,omitempty"`
	LineItems       []LineItemResponse `json:"line_items"`
	Status          string             `json:"status"`
	Subtotal        float64            `json:"subtotal"`
	TaxAmount       float64            `json:"tax_amount"`
	GrandTotal      float64            `json:"grand_total"`
}

type ChatResponse struct {
	Response       string           `json:"response"`
	Type           string           `json:"type"`
	Suggestions    []string         `json:"suggestions,omitempty"`
	Invoice        *InvoiceResponse `json:"invoice,omitempty"`
	SavedInvoiceID string           `json:"saved_invoice_id,omitempty"`
	Status         string           `json:"status"`
}

func FromReply(r entities.AssistantReply) ChatResponse {
	out := ChatResponse{
		Response:       r.Text,
		Type:           string(r.Kind),
		Suggestions:    r.Suggestions,
		SavedInvoiceID: r.SavedInvoiceID,
		Status:         "success",
	}
	if r.Finalized != nil {
		inv := FromInvoiceDraft(*r.Finalized)
		out.Invoice = &inv
	}
	return out
}

func FromInvoiceDraft(d entities.InvoiceDraft) InvoiceResponse {
	totals := d.Totals()
	items := make([]LineItemResponse, len(d.LineItems))
	for i, li := range d.LineItems {
		items[i] = LineItemResponse{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			LineTotal:   li.LineTotal(),
		}
	}
	return InvoiceResponse{
		InvoiceNumber:   d.InvoiceNumber,
		CustomerName:    d.CustomerName,
		CustomerEmail:   d.CustomerEmail,
		CustomerGST:     d.CustomerGST,
		InvoiceDate:     d.InvoiceDate,
		DueDate:         d.DueDate,
		Currency:        d.Currency,
		TaxPercent:      d.TaxPercent,
		Shipping:        d.Shipping,
		DiscountPercent: d.DiscountPercent,
		DiscountCode:    d.DiscountCode,
		LineItems:       items,
		Status:          string(d.Status),
		Subtotal:        totals.Subtotal,
		TaxAmount:       totals.TaxAmount,
		GrandTotal:      totals.GrandTotal,
	}
}
