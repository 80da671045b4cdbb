package usecase

import (
	"fmt"
	"regexp"
	"time"

	"urbanstyle_assistant/internal/domain/entities"
)

// ValidationResult reports completeness of a draft after one turn.
type ValidationResult struct {
	Status      entities.DraftStatus
	Missing     []string
	Warnings    []string
	Suggestions []string
}

var reEmailSyntax = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// requiredFieldPrompts drives both the missing set ordering and the
// deterministic suggestion text. No model call happens here; validation is a
// pure function of draft state.
var requiredFieldPrompts = []struct {
	field  string
	prompt string
}{
	{"invoice_number", "What invoice number should I use?"},
	{"customer_name", "What is the customer's name?"},
	{"customer_email", "Could you provide the customer's email address?"},
	{"line_items", "Which items should go on the invoice? (e.g. 2x Sneakers @ 2499)"},
}

// ValidateDraft checks required fields and consistency rules, clamps
// out-of-range adjustments in place (reported as warnings, never fatal), and
// advances the status machine:
//
//	Draft -> AwaitingInfo while anything is missing
//	AwaitingInfo -> Finalized on the first turn the missing set is empty
//	Finalized is terminal for the draft instance
func ValidateDraft(d *entities.InvoiceDraft) ValidationResult {
	res := ValidationResult{}

	if d.DiscountPercent > 100 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("discount %.4g%% clamped to 100%%", d.DiscountPercent))
		d.DiscountPercent = 100
	}
	if d.DiscountPercent < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("discount %.4g%% clamped to 0%%", d.DiscountPercent))
		d.DiscountPercent = 0
	}
	if d.TaxPercent < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("tax %.4g%% clamped to 0%%", d.TaxPercent))
		d.TaxPercent = 0
	}
	if d.Shipping < 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("shipping %.2f clamped to 0", d.Shipping))
		d.Shipping = 0
	}

	emailInvalid := d.CustomerEmail != "" && !reEmailSyntax.MatchString(d.CustomerEmail)
	if emailInvalid {
		res.Warnings = append(res.Warnings, fmt.Sprintf("email %q does not look valid", d.CustomerEmail))
	}

	for _, rf := range requiredFieldPrompts {
		missing := false
		switch rf.field {
		case "invoice_number":
			missing = d.InvoiceNumber == ""
		case "customer_name":
			missing = d.CustomerName == ""
		case "customer_email":
			// A present but malformed email still blocks finalization.
			missing = d.CustomerEmail == "" || emailInvalid
		case "line_items":
			missing = len(d.LineItems) == 0
		}
		if missing {
			res.Missing = append(res.Missing, rf.field)
			res.Suggestions = append(res.Suggestions, rf.prompt)
		}
	}

	switch {
	case d.Status == entities.DraftStatusFinalized:
		// Terminal; re-validation is idempotent.
		res.Status = entities.DraftStatusFinalized
	case len(res.Missing) > 0:
		res.Status = entities.DraftStatusAwaitingInfo
	default:
		res.Status = entities.DraftStatusFinalized
		d.EnsureDates(time.Now().UTC())
	}
	d.Status = res.Status

	return res
}

// OptionalSuggestions nudges for nice-to-have fields that never block
// finalization.
func OptionalSuggestions(d entities.InvoiceDraft) []string {
	var out []string
	if d.CustomerGST == "" {
		out = append(out, "Do you have a GST number to include? (optional)")
	}
	if d.DiscountCode == "" && d.DiscountPercent == 0 {
		out = append(out, "Any discount code or offer to apply? (optional)")
	}
	return out
}
