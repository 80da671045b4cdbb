package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"
)

var ErrExtractionFailed = errors.New("no field could be extracted from the message")

// PartialInvoiceFields is the output of one extraction pass. Pointer fields
// distinguish "not mentioned this turn" (nil) from an explicit value.
type PartialInvoiceFields struct {
	InvoiceNumber   *string
	CustomerName    *string
	CustomerEmail   *string
	CustomerGST     *string
	Currency        *string
	TaxPercent      *float64
	Shipping        *float64
	DiscountPercent *float64
	DiscountCode    *string
	LineItems       []entities.LineItem

	// Corrections recognized in the turn; applied by the orchestrator instead
	// of appending.
	Removals        []string
	QuantityChanges map[string]int

	// Rejected carries per-field notes for values that failed validation and
	// were dropped (never silently defaulted).
	Rejected []string
}

// Empty reports whether the pass produced no usable data at all. A pass whose
// only yield is rejection notes still counts as productive: the notes must
// reach the user instead of a generic rephrase reply.
func (p PartialInvoiceFields) Empty() bool {
	return p.InvoiceNumber == nil && p.CustomerName == nil && p.CustomerEmail == nil &&
		p.CustomerGST == nil && p.Currency == nil && p.TaxPercent == nil &&
		p.Shipping == nil && p.DiscountPercent == nil && p.DiscountCode == nil &&
		len(p.LineItems) == 0 && len(p.Removals) == 0 && len(p.QuantityChanges) == 0 &&
		len(p.Rejected) == 0
}

var (
	reLineItem      = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*x\s*([^@,\n]+?)\s*@\s*([0-9][0-9.,]*)`)
	reInvoiceNumber = regexp.MustCompile(`(?i)\binvoice\s*(?:number|no\.?)?\s*[:#]\s*([A-Za-z0-9][A-Za-z0-9_-]*)`)
	reCustomerName  = regexp.MustCompile(`(?i)\bcustomer(?:\s+name)?\s*:\s*(.+)`)
	reEmailLabel    = regexp.MustCompile(`(?i)\be-?mail\s*:\s*(\S+)`)
	reBareEmail     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reGST           = regexp.MustCompile(`(?i)\bgst(?:in|\s+number)?\s*:\s*(\S+)`)
	reTax           = regexp.MustCompile(`(?i)\btax\s*:?\s*([0-9][0-9.,]*)\s*%?`)
	reShipping      = regexp.MustCompile(`(?i)\bshipping\s*:?\s*([0-9][0-9.,]*)`)
	reDiscountCode  = regexp.MustCompile(`(?i)\b(?:discount\s+code|coupon|promo)\s*:\s*(\S+)`)
	reDiscount      = regexp.MustCompile(`(?i)\bdiscount\s*:?\s*([0-9][0-9.,]*)\s*%?`)
	reCurrency      = regexp.MustCompile(`(?i)\bcurrency\s*:\s*([A-Za-z]{3})\b`)
	reRemoveItem    = regexp.MustCompile(`(?i)\bremove\s+(?:the\s+)?(.+)`)
	reChangeQty     = regexp.MustCompile(`(?i)\bchange\s+(?:the\s+)?quantity\s+of\s+(.+?)\s+to\s+(-?\d+(?:[.,]\d+)?)`)
)

// FieldExtractor turns raw text (plus the prior draft) into partial invoice
// fields: deterministic grammar first, completion gateway for the remainder.
type FieldExtractor struct {
	gateway interfaces.ICompletionGateway
}

func NewFieldExtractor(gateway interfaces.ICompletionGateway) *FieldExtractor {
	return &FieldExtractor{gateway: gateway}
}

// Extract runs both phases. Model output is validated field-by-field against
// the same rules as the grammar output and discarded piecewise; a gateway
// failure after a productive pattern phase is not an error.
func (e *FieldExtractor) Extract(ctx context.Context, rawText string, prior entities.InvoiceDraft) (PartialInvoiceFields, error) {
	fields := extractByPattern(rawText)

	unresolved := unresolvedFields(fields, prior)
	if len(unresolved) > 0 && e.gateway != nil && looksUnstructured(rawText) {
		e.extractByModel(ctx, rawText, unresolved, &fields)
	}

	if fields.Empty() {
		return fields, ErrExtractionFailed
	}
	return fields, nil
}

// extractByPattern applies the label:value grammar over comma/newline
// delimited segments. Sample grammar (case-insensitive):
//
//	invoice number: INV-1001, customer: Alex, email: alex@shop.com,
//	2x Sneakers @ 2499, tax: 18, shipping: 99, discount: 10
func extractByPattern(rawText string) PartialInvoiceFields {
	var out PartialInvoiceFields

	for _, seg := range splitSegments(rawText) {
		if m := reChangeQty.FindStringSubmatch(seg); m != nil {
			qty, ok := parseQuantity(m[2])
			if !ok {
				out.Rejected = append(out.Rejected, fmt.Sprintf("quantity %q for %q must be a positive whole number", m[2], strings.TrimSpace(m[1])))
				continue
			}
			if out.QuantityChanges == nil {
				out.QuantityChanges = map[string]int{}
			}
			out.QuantityChanges[normalizeItemName(m[1])] = qty
			continue
		}
		if m := reRemoveItem.FindStringSubmatch(seg); m != nil {
			out.Removals = append(out.Removals, normalizeItemName(m[1]))
			continue
		}
		if m := reLineItem.FindStringSubmatch(seg); m != nil {
			qty, qtyOK := parseQuantity(m[1])
			price, priceOK := parseDecimal(m[3])
			switch {
			case !qtyOK:
				out.Rejected = append(out.Rejected, fmt.Sprintf("line item %q dropped: quantity must be a positive whole number", strings.TrimSpace(m[2])))
			case !priceOK || price < 0:
				out.Rejected = append(out.Rejected, fmt.Sprintf("line item %q dropped: unit price %q is not a valid amount", strings.TrimSpace(m[2]), m[3]))
			default:
				out.LineItems = append(out.LineItems, entities.LineItem{
					Description: strings.TrimSpace(m[2]),
					Quantity:    qty,
					UnitPrice:   price,
				})
			}
			continue
		}

		if m := reInvoiceNumber.FindStringSubmatch(seg); m != nil && out.InvoiceNumber == nil {
			out.InvoiceNumber = ptr(m[1])
		}
		if m := reEmailLabel.FindStringSubmatch(seg); m != nil && out.CustomerEmail == nil {
			out.CustomerEmail = ptr(strings.Trim(m[1], ".,"))
		} else if m := reBareEmail.FindString(seg); m != "" && out.CustomerEmail == nil {
			out.CustomerEmail = ptr(m)
		}
		if m := reCustomerName.FindStringSubmatch(seg); m != nil && out.CustomerName == nil {
			out.CustomerName = ptr(strings.TrimSpace(m[1]))
		}
		if m := reGST.FindStringSubmatch(seg); m != nil && out.CustomerGST == nil {
			out.CustomerGST = ptr(m[1])
		}
		if m := reCurrency.FindStringSubmatch(seg); m != nil && out.Currency == nil {
			out.Currency = ptr(strings.ToUpper(m[1]))
		}
		if m := reDiscountCode.FindStringSubmatch(seg); m != nil && out.DiscountCode == nil {
			out.DiscountCode = ptr(m[1])
		}

		captureNumber(seg, reTax, "tax", &out.TaxPercent, &out.Rejected)
		captureNumber(seg, reShipping, "shipping", &out.Shipping, &out.Rejected)
		if !reDiscountCode.MatchString(seg) {
			captureNumber(seg, reDiscount, "discount", &out.DiscountPercent, &out.Rejected)
		}
	}

	return out
}

const extractorSystemPrompt = "You extract invoice fields from shopping requests. " +
	"Return JSON only, no markdown, no commentary. " +
	"Include only the requested keys, and only when the text states a value for them. " +
	"Never invent values."

type modelExtraction struct {
	InvoiceNumber *string `json:"invoice_number"`
	CustomerName  *string `json:"customer_name"`
	CustomerEmail *string `json:"customer_email"`
	CustomerGST   *string `json:"customer_gst"`
	Currency      *string `json:"currency"`
	TaxPercent    *string `json:"tax_percent"`
	Shipping      *string `json:"shipping"`
	Discount      *string `json:"discount_percent"`
	DiscountCode  *string `json:"discount_code"`
	Items         []struct {
		Name      string  `json:"name"`
		Quantity  float64 `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
	} `json:"items"`
}

// extractByModel asks the gateway for the fields still unresolved after the
// pattern phase. Malformed or out-of-range values are discarded field-by-field
// and the extraction as a whole never fails because of them.
func (e *FieldExtractor) extractByModel(ctx context.Context, rawText string, unresolved []string, fields *PartialInvoiceFields) {
	schema := fmt.Sprintf(
		`{%s} where string values are taken verbatim from the text, numbers are plain decimals, and "items" is [{"name":string,"quantity":number,"unit_price":number}]`,
		`"`+strings.Join(unresolved, `","`)+`"`,
	)

	raw, err := e.gateway.Complete(ctx, interfaces.CompletionRequest{
		System:     extractorSystemPrompt,
		Prompt:     rawText,
		SchemaHint: schema,
	})
	if err != nil {
		log.Printf("[extractor][usecase] model phase skipped err=%v", err)
		return
	}

	var decoded modelExtraction
	if err := json.Unmarshal([]byte(extractJSONBlock(raw)), &decoded); err != nil {
		log.Printf("[extractor][usecase] model output discarded (not json) err=%v", err)
		return
	}

	wanted := map[string]bool{}
	for _, f := range unresolved {
		wanted[f] = true
	}

	accept := func(dst **string, v *string, field string) {
		if *dst == nil && wanted[field] && v != nil && strings.TrimSpace(*v) != "" {
			*dst = ptr(strings.TrimSpace(*v))
		}
	}
	accept(&fields.InvoiceNumber, decoded.InvoiceNumber, "invoice_number")
	accept(&fields.CustomerName, decoded.CustomerName, "customer_name")
	accept(&fields.CustomerGST, decoded.CustomerGST, "customer_gst")
	accept(&fields.DiscountCode, decoded.DiscountCode, "discount_code")

	if fields.CustomerEmail == nil && wanted["customer_email"] && decoded.CustomerEmail != nil {
		if email := strings.TrimSpace(*decoded.CustomerEmail); reBareEmail.MatchString(email) {
			fields.CustomerEmail = ptr(email)
		} else {
			log.Printf("[extractor][usecase] model email discarded value=%q", *decoded.CustomerEmail)
		}
	}
	if fields.Currency == nil && wanted["currency"] && decoded.Currency != nil {
		if c := strings.ToUpper(strings.TrimSpace(*decoded.Currency)); len(c) == 3 {
			fields.Currency = ptr(c)
		}
	}

	acceptNumber := func(dst **float64, v *string, field string) {
		if *dst != nil || !wanted[field] || v == nil {
			return
		}
		if n, ok := parseDecimal(*v); ok && n >= 0 {
			*dst = &n
		} else {
			log.Printf("[extractor][usecase] model %s discarded value=%q", field, *v)
		}
	}
	acceptNumber(&fields.TaxPercent, decoded.TaxPercent, "tax_percent")
	acceptNumber(&fields.Shipping, decoded.Shipping, "shipping")
	acceptNumber(&fields.DiscountPercent, decoded.Discount, "discount_percent")

	if wanted["items"] {
		for _, it := range decoded.Items {
			name := strings.TrimSpace(it.Name)
			qty := int(it.Quantity)
			if name == "" || it.UnitPrice < 0 {
				continue
			}
			if float64(qty) != it.Quantity || qty < 1 {
				fields.Rejected = append(fields.Rejected, fmt.Sprintf("line item %q dropped: quantity must be a positive whole number", name))
				continue
			}
			fields.LineItems = append(fields.LineItems, entities.LineItem{Description: name, Quantity: qty, UnitPrice: it.UnitPrice})
		}
	}
}

// unresolvedFields lists the schema keys neither captured this turn nor
// already present on the prior draft.
func unresolvedFields(p PartialInvoiceFields, prior entities.InvoiceDraft) []string {
	var out []string
	if p.InvoiceNumber == nil && prior.InvoiceNumber == "" {
		out = append(out, "invoice_number")
	}
	if p.CustomerName == nil && prior.CustomerName == "" {
		out = append(out, "customer_name")
	}
	if p.CustomerEmail == nil && prior.CustomerEmail == "" {
		out = append(out, "customer_email")
	}
	if p.CustomerGST == nil && prior.CustomerGST == "" {
		out = append(out, "customer_gst")
	}
	// An explicit "tax: 0" counts as resolved; the model must not undo it.
	if p.TaxPercent == nil && prior.TaxPercent == 0 && !prior.StatedField("tax_percent") {
		out = append(out, "tax_percent")
	}
	if p.Shipping == nil && prior.Shipping == 0 && !prior.StatedField("shipping") {
		out = append(out, "shipping")
	}
	if p.DiscountPercent == nil && prior.DiscountPercent == 0 && !prior.StatedField("discount_percent") {
		out = append(out, "discount_percent")
	}
	if p.DiscountCode == nil && prior.DiscountCode == "" {
		out = append(out, "discount_code")
	}
	if len(p.LineItems) == 0 {
		out = append(out, "items")
	}
	return out
}

// looksUnstructured is the cheap gate before spending a model call: a message
// made entirely of grammar segments has nothing left for the model to add.
func looksUnstructured(rawText string) bool {
	for _, seg := range splitSegments(rawText) {
		if !reLineItem.MatchString(seg) && !reInvoiceNumber.MatchString(seg) &&
			!reCustomerName.MatchString(seg) && !reEmailLabel.MatchString(seg) &&
			!reTax.MatchString(seg) && !reShipping.MatchString(seg) &&
			!reDiscount.MatchString(seg) && !reDiscountCode.MatchString(seg) &&
			!reGST.MatchString(seg) && !reCurrency.MatchString(seg) &&
			!reBareEmail.MatchString(seg) && !reRemoveItem.MatchString(seg) &&
			!reChangeQty.MatchString(seg) {
			return true
		}
	}
	return false
}

func splitSegments(rawText string) []string {
	parts := strings.FieldsFunc(rawText, func(r rune) bool {
		return r == ',' || r == '\n' || r == ';'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func captureNumber(seg string, re *regexp.Regexp, field string, dst **float64, rejected *[]string) {
	m := re.FindStringSubmatch(seg)
	if m == nil || *dst != nil {
		return
	}
	if n, ok := parseDecimal(m[1]); ok {
		*dst = &n
	} else {
		*rejected = append(*rejected, fmt.Sprintf("%s value %q is not a valid number", field, m[1]))
	}
}

// parseDecimal is locale-agnostic: "2,499.50", "2499.50" and "2499,50" all
// parse to the same value.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, false
	}
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		// "." is the decimal separator, "," groups thousands.
		s = strings.ReplaceAll(s, ",", "")
	case strings.Contains(s, ","):
		if parts := strings.Split(s, ","); len(parts) == 2 && len(parts[1]) != 3 {
			// Single comma with a non-3-digit tail reads as a decimal comma.
			s = parts[0] + "." + parts[1]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseQuantity accepts positive integers only; fractional and non-positive
// quantities are rejected by contract.
func parseQuantity(s string) (int, bool) {
	n, ok := parseDecimal(s)
	if !ok {
		return 0, false
	}
	q := int(n)
	if float64(q) != n || q < 1 {
		return 0, false
	}
	return q, true
}

func normalizeItemName(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(s), ".!?")))
}

func ptr[T any](v T) *T { return &v }
