package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"

	"github.com/google/uuid"
)

var (
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrEmptyMessage     = errors.New("empty message")
)

// IAssistantUseCase is the orchestration engine exposed to the transport
// layer.
//
// One call handles one conversational turn end to end: intent classification,
// draft extraction/merge/validation, FAQ retrieval, or currency conversion,
// plus session bookkeeping.
type IAssistantUseCase interface {
	HandleMessage(ctx context.Context, sessionID, text string) (entities.AssistantReply, error)
	ResetSession(sessionID string) error
}

// AssistantConfig carries the orchestration policy knobs.
type AssistantConfig struct {
	BaseCurrency string
	MaxHistory   int
	RetrieveTopK int
	// MinRelevance gates the FAQ model call: below it the orchestrator answers
	// with a canned no-information reply instead of risking a hallucination.
	MinRelevance float64
}

func (c *AssistantConfig) applyDefaults() {
	if c.BaseCurrency == "" {
		c.BaseCurrency = "INR"
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = 50
	}
	if c.RetrieveTopK <= 0 {
		c.RetrieveTopK = 3
	}
	if c.MinRelevance <= 0 {
		c.MinRelevance = 0.15
	}
}

type AssistantUseCase struct {
	sessions  interfaces.ISessionStore
	extractor *FieldExtractor
	gateway   interfaces.ICompletionGateway
	retriever *KnowledgeRetriever
	currency  ICurrencyUseCase
	invoices  interfaces.IInvoiceRepository
	cfg       AssistantConfig
}

var _ IAssistantUseCase = (*AssistantUseCase)(nil)

func NewAssistantUseCase(
	sessions interfaces.ISessionStore,
	extractor *FieldExtractor,
	gateway interfaces.ICompletionGateway,
	retriever *KnowledgeRetriever,
	currency ICurrencyUseCase,
	invoices interfaces.IInvoiceRepository,
	cfg AssistantConfig,
) *AssistantUseCase {
	cfg.applyDefaults()
	return &AssistantUseCase{
		sessions:  sessions,
		extractor: extractor,
		gateway:   gateway,
		retriever: retriever,
		currency:  currency,
		invoices:  invoices,
		cfg:       cfg,
	}
}

var (
	reResetIntent   = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:reset|start over|clear(?:\s+(?:the\s+)?(?:invoice|draft))?)\s*[.!]?\s*$`)
	reConvertIntent = regexp.MustCompile(`(?i)\bconvert\s+([0-9][0-9.,]*)\s*([A-Za-z]{3})\s+(?:to|into|in)\s+([A-Za-z]{3})\b`)
	reQuestion      = regexp.MustCompile(`(?i)^(?:what|how|when|where|which|why|who|can|could|do|does|is|are)\b|\?\s*$`)
	reInvoiceTalk   = regexp.MustCompile(`(?i)\b(?:invoice|bill(?:ing)?|checkout)\b`)
)

// HandleMessage processes one inbound turn. The whole turn runs under the
// session's lock so concurrent turns on one session cannot interleave a
// read-modify-write of the draft.
func (u *AssistantUseCase) HandleMessage(ctx context.Context, sessionID, text string) (entities.AssistantReply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return entities.AssistantReply{}, ErrInvalidSessionID
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return entities.AssistantReply{}, ErrEmptyMessage
	}

	var reply entities.AssistantReply
	err := u.sessions.Update(sessionID, func(s *entities.SessionState) error {
		now := time.Now().UTC()
		s.AppendHistory(entities.RoleUser, text, now, u.cfg.MaxHistory)

		intent := u.classify(ctx, text, s)
		log.Printf("[assistant][usecase] turn session=%s intent=%s", sessionID, intent)

		switch intent {
		case entities.IntentReset:
			reply = u.handleReset(s)
		case entities.IntentCurrencyConvert:
			reply = u.handleConversion(ctx, text)
		case entities.IntentFAQQuery:
			reply = u.handleFAQ(ctx, text)
		case entities.IntentInvoiceUpdate:
			reply = u.handleInvoiceTurn(ctx, s, text)
		default:
			reply = entities.AssistantReply{
				Kind: entities.ReplyKindInfo,
				Text: "I can build invoices, answer store questions, or convert currency. Try: invoice number: INV-1001, customer: Alex, email: alex@shop.com, 2x Sneakers @ 2499",
			}
		}

		s.AppendHistory(entities.RoleAssistant, reply.Text, now, u.cfg.MaxHistory)
		return nil
	})
	if err != nil {
		return entities.AssistantReply{}, err
	}
	return reply, nil
}

// ResetSession clears the session's draft while preserving its history.
func (u *AssistantUseCase) ResetSession(sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSessionID
	}
	return u.sessions.Update(sessionID, func(s *entities.SessionState) error {
		clearDraft(s)
		return nil
	})
}

// classify applies the deterministic rules first; the model fallback runs only
// when no rule matches, and a gateway failure degrades to unknown.
func (u *AssistantUseCase) classify(ctx context.Context, text string, s *entities.SessionState) entities.Intent {
	switch {
	case reResetIntent.MatchString(text):
		return entities.IntentReset
	case reConvertIntent.MatchString(text):
		return entities.IntentCurrencyConvert
	case hasInvoiceGrammar(text):
		return entities.IntentInvoiceUpdate
	case reQuestion.MatchString(text) && !reInvoiceTalk.MatchString(text):
		return entities.IntentFAQQuery
	case reInvoiceTalk.MatchString(text):
		return entities.IntentInvoiceUpdate
	case s.HasDraft && s.Draft.Status != entities.DraftStatusFinalized:
		// Mid-draft free text most likely continues the invoice.
		return entities.IntentInvoiceUpdate
	}

	if u.gateway == nil {
		return entities.IntentUnknown
	}
	intent, err := u.gateway.Classify(ctx, text)
	if err != nil {
		log.Printf("[assistant][usecase] intent fallback failed err=%v", err)
		return entities.IntentUnknown
	}
	return intent
}

func hasInvoiceGrammar(text string) bool {
	for _, seg := range splitSegments(text) {
		if reLineItem.MatchString(seg) || reInvoiceNumber.MatchString(seg) ||
			reCustomerName.MatchString(seg) || reEmailLabel.MatchString(seg) ||
			reBareEmail.MatchString(seg) || reGST.MatchString(seg) ||
			reChangeQty.MatchString(seg) || reRemoveItem.MatchString(seg) {
			return true
		}
	}
	return false
}

// handleInvoiceTurn extracts fields, merges them into the session draft
// non-destructively, validates, and emits the finalize signal on completion.
// A failed extraction leaves the draft untouched (the validator never runs on
// a null merge).
func (u *AssistantUseCase) handleInvoiceTurn(ctx context.Context, s *entities.SessionState, text string) entities.AssistantReply {
	if s.HasDraft && s.Draft.Status == entities.DraftStatusFinalized {
		return entities.AssistantReply{
			Kind: entities.ReplyKindInfo,
			Text: "This invoice is already finalized. Say \"reset\" to start a new one.",
		}
	}

	draft := s.Draft
	if !s.HasDraft {
		draft = entities.NewInvoiceDraft(u.cfg.BaseCurrency)
	}

	fields, err := u.extractor.Extract(ctx, text, draft)
	if err != nil {
		log.Printf("[assistant][usecase] extraction failed session=%s err=%v", s.SessionID, err)
		return entities.AssistantReply{
			Kind: entities.ReplyKindWarning,
			Text: "I couldn't find invoice details in that. Could you rephrase? For example: 2x Sneakers @ 2499, customer: Alex, email: alex@shop.com",
		}
	}

	mergeFields(&draft, fields)
	result := ValidateDraft(&draft)

	firstFinalize := result.Status == entities.DraftStatusFinalized &&
		(!s.HasDraft || s.Draft.Status != entities.DraftStatusFinalized)

	s.Draft = draft
	s.HasDraft = true
	s.PendingSuggestions = result.Missing

	if firstFinalize {
		return u.finalizeReply(ctx, draft)
	}

	suggestions := append([]string{}, result.Suggestions...)
	suggestions = append(suggestions, fields.Rejected...)

	var b strings.Builder
	b.WriteString("I've updated your draft, but I'm still missing some details:\n")
	for _, sug := range result.Suggestions {
		b.WriteString("- " + sug + "\n")
	}
	for _, w := range result.Warnings {
		b.WriteString("- Note: " + w + "\n")
	}
	for _, rej := range fields.Rejected {
		b.WriteString("- Note: " + rej + "\n")
	}
	b.WriteString("Just type them in and I'll update the bill.")

	return entities.AssistantReply{
		Kind:        entities.ReplyKindWarning,
		Text:        b.String(),
		Suggestions: suggestions,
	}
}

// finalizeReply emits the finalize signal and hands the record to the storage
// collaborator. Persistence failure degrades the reply text; it never rolls
// back the finalized draft.
func (u *AssistantUseCase) finalizeReply(ctx context.Context, draft entities.InvoiceDraft) entities.AssistantReply {
	reply := entities.AssistantReply{
		Kind:        entities.ReplyKindInvoice,
		Text:        "Invoice finalized.\n\n" + draft.RenderSummary(),
		Finalized:   &draft,
		Suggestions: OptionalSuggestions(draft),
	}

	if u.invoices == nil {
		return reply
	}
	rec := entities.InvoiceRecord{
		ID:         uuid.NewString(),
		Draft:      draft,
		GrandTotal: draft.Totals().GrandTotal,
		CreatedAt:  time.Now().UTC(),
	}
	saved, err := u.invoices.Save(ctx, rec)
	if err != nil {
		log.Printf("[assistant][usecase] invoice persistence failed invoice_number=%s err=%v", draft.InvoiceNumber, err)
		reply.Text += "\n\n(Heads up: I couldn't archive this invoice just now; the draft above is still valid.)"
		return reply
	}
	log.Printf("[assistant][usecase] invoice persisted id=%s invoice_number=%s", saved.ID, draft.InvoiceNumber)
	reply.SavedInvoiceID = saved.ID
	return reply
}

func (u *AssistantUseCase) handleReset(s *entities.SessionState) entities.AssistantReply {
	clearDraft(s)
	return entities.AssistantReply{
		Kind: entities.ReplyKindInfo,
		Text: "Cleared your invoice draft. Your conversation history is kept; start a new invoice whenever you like.",
	}
}

func (u *AssistantUseCase) handleConversion(ctx context.Context, text string) entities.AssistantReply {
	// The model fallback can classify phrasings the conversion grammar does
	// not cover; those turns carry no amount or currency pair to act on.
	m := reConvertIntent.FindStringSubmatch(text)
	if m == nil {
		return entities.AssistantReply{
			Kind: entities.ReplyKindWarning,
			Text: "I can convert currency if you phrase it like: Convert 100 USD to EUR.",
		}
	}
	amount, ok := parseDecimal(m[1])
	if !ok {
		return entities.AssistantReply{Kind: entities.ReplyKindWarning, Text: fmt.Sprintf("I couldn't read %q as an amount.", m[1])}
	}

	conv, err := u.currency.Convert(ctx, amount, m[2], m[3])
	if err != nil {
		log.Printf("[assistant][usecase] conversion failed pair=%s/%s err=%v", m[2], m[3], err)
		if errors.Is(err, ErrInvalidCurrency) {
			return entities.AssistantReply{Kind: entities.ReplyKindWarning, Text: "One of those currency codes doesn't look right; please use 3-letter ISO codes like USD or EUR."}
		}
		return entities.AssistantReply{Kind: entities.ReplyKindError, Text: fmt.Sprintf("I couldn't fetch the %s/%s rate right now. Please try that conversion again in a bit.", strings.ToUpper(m[2]), strings.ToUpper(m[3]))}
	}

	textOut := fmt.Sprintf("%.2f %s = %.2f %s (rate %.4f)", conv.Amount, conv.From, conv.Converted, conv.To, conv.Rate)
	if conv.Stale {
		textOut += "\nNote: the live rate source is unreachable, so this uses the last known rate."
	}
	return entities.AssistantReply{Kind: entities.ReplyKindInfo, Text: textOut}
}

const faqSystemPrompt = "You are the UrbanStyle store assistant. Answer the customer's question using ONLY the supplied context passages. " +
	"If the context does not contain the answer, say you don't have that information. Keep the answer short and direct."

// handleFAQ composes a grounded answer from retrieved passages. Low retrieval
// confidence skips the model call entirely; a gateway failure degrades to the
// top passage's stored answer.
func (u *AssistantUseCase) handleFAQ(ctx context.Context, query string) entities.AssistantReply {
	const cannedNoInfo = "I don't have that information. I can help with shipping, returns, payments, and invoices."

	passages := u.retriever.Retrieve(query, u.cfg.RetrieveTopK)
	if len(passages) == 0 || passages[0].RelevanceScore < u.cfg.MinRelevance {
		return entities.AssistantReply{Kind: entities.ReplyKindInfo, Text: cannedNoInfo}
	}

	if u.gateway != nil {
		var grounding strings.Builder
		for i, p := range passages {
			fmt.Fprintf(&grounding, "[%d] %s\n\n", i+1, p.Text)
		}
		answer, err := u.gateway.Complete(ctx, interfaces.CompletionRequest{
			System: faqSystemPrompt,
			Prompt: "Context:\n" + grounding.String() + "Question: " + query,
		})
		if err == nil && strings.TrimSpace(answer) != "" {
			return entities.AssistantReply{Kind: entities.ReplyKindInfo, Text: strings.TrimSpace(answer)}
		}
		log.Printf("[assistant][usecase] faq completion degraded err=%v", err)
	}

	// Degraded mode: serve the best passage's stored answer verbatim.
	if idx := strings.Index(passages[0].Text, "\n"); idx >= 0 {
		return entities.AssistantReply{Kind: entities.ReplyKindInfo, Text: passages[0].Text[idx+1:]}
	}
	return entities.AssistantReply{Kind: entities.ReplyKindInfo, Text: passages[0].Text}
}

// mergeFields applies the non-destructive merge policy. The extractor only
// emits model-phase values for fields that were empty on the prior draft, so
// every non-nil field here is either a gap-fill or an explicit restatement and
// may overwrite.
func mergeFields(d *entities.InvoiceDraft, f PartialInvoiceFields) {
	if f.InvoiceNumber != nil {
		d.InvoiceNumber = *f.InvoiceNumber
	}
	if f.CustomerName != nil {
		d.CustomerName = *f.CustomerName
	}
	if f.CustomerEmail != nil {
		d.CustomerEmail = *f.CustomerEmail
	}
	if f.CustomerGST != nil {
		d.CustomerGST = *f.CustomerGST
	}
	if f.Currency != nil {
		d.Currency = *f.Currency
	}
	if f.TaxPercent != nil {
		d.TaxPercent = *f.TaxPercent
		d.MarkStated("tax_percent")
	}
	if f.Shipping != nil {
		d.Shipping = *f.Shipping
		d.MarkStated("shipping")
	}
	if f.DiscountPercent != nil {
		d.DiscountPercent = *f.DiscountPercent
		d.MarkStated("discount_percent")
	}
	if f.DiscountCode != nil {
		d.DiscountCode = *f.DiscountCode
	}

	// Corrections replace; everything else appends.
	for _, name := range f.Removals {
		kept := d.LineItems[:0]
		for _, li := range d.LineItems {
			if !strings.Contains(strings.ToLower(li.Description), name) {
				kept = append(kept, li)
			}
		}
		d.LineItems = kept
	}
	for name, qty := range f.QuantityChanges {
		for i := range d.LineItems {
			if strings.Contains(strings.ToLower(d.LineItems[i].Description), name) {
				d.LineItems[i].Quantity = qty
			}
		}
	}
	d.LineItems = append(d.LineItems, f.LineItems...)
}

func clearDraft(s *entities.SessionState) {
	s.Draft = entities.InvoiceDraft{}
	s.HasDraft = false
	s.PendingSuggestions = nil
}
