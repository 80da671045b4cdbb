package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"urbanstyle_assistant/internal/adapter/persistence/memory"
	"urbanstyle_assistant/internal/domain/entities"
	"urbanstyle_assistant/internal/usecase/interfaces"
	mock_interfaces "urbanstyle_assistant/internal/usecase/interfaces/mocks"

	"go.uber.org/mock/gomock"
)

type assistantFixture struct {
	uc       *AssistantUseCase
	sessions *memory.SessionStore
}

func newAssistantFixture(gateway interfaces.ICompletionGateway, source interfaces.IRateSource, invoices interfaces.IInvoiceRepository) assistantFixture {
	sessions := memory.NewSessionStore(time.Hour)
	return assistantFixture{
		uc: NewAssistantUseCase(
			sessions,
			NewFieldExtractor(gateway),
			gateway,
			NewKnowledgeRetriever(DefaultFAQCorpus()),
			NewCurrencyUseCase(source, time.Hour),
			invoices,
			AssistantConfig{},
		),
		sessions: sessions,
	}
}

func TestAssistantUseCase_HandleMessage_Validation(t *testing.T) {
	f := newAssistantFixture(nil, nil, nil)

	t.Run("blank session id", func(t *testing.T) {
		_, err := f.uc.HandleMessage(context.Background(), "   ", "hello")
		if !errors.Is(err, ErrInvalidSessionID) {
			t.Fatalf("expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("blank message", func(t *testing.T) {
		_, err := f.uc.HandleMessage(context.Background(), "s1", "   ")
		if !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, got %v", err)
		}
	})
}

func TestAssistantUseCase_InvoiceFlow(t *testing.T) {
	t.Run("single turn finalize with persistence", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		f := newAssistantFixture(nil, nil, repo)

		repo.EXPECT().Save(gomock.Any(), gomock.AssignableToTypeOf(entities.InvoiceRecord{})).DoAndReturn(
			func(_ context.Context, rec entities.InvoiceRecord) (entities.InvoiceRecord, error) {
				if rec.ID == "" {
					t.Fatalf("expected generated record id")
				}
				if rec.GrandTotal != 5996.64 {
					t.Fatalf("expected grand total 5996.64, got %v", rec.GrandTotal)
				}
				return rec, nil
			},
		)

		reply, err := f.uc.HandleMessage(context.Background(), "s1",
			"invoice number: INV-1001, customer: Alex, email: alex@shop.com, 2x Sneakers @ 2499, tax: 18, shipping: 99")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindInvoice {
			t.Fatalf("expected invoice reply, got %s", reply.Kind)
		}
		if reply.Finalized == nil {
			t.Fatalf("expected finalize signal")
		}
		if reply.Finalized.Status != entities.DraftStatusFinalized {
			t.Fatalf("expected finalized draft, got %s", reply.Finalized.Status)
		}
		if reply.SavedInvoiceID == "" {
			t.Fatalf("expected saved invoice id")
		}
		if !strings.Contains(reply.Text, "Grand Total: 5996.64 INR") {
			t.Fatalf("summary missing grand total:\n%s", reply.Text)
		}

		state, ok := f.sessions.Snapshot("s1")
		if !ok {
			t.Fatalf("expected session state")
		}
		if len(state.History) != 2 {
			t.Fatalf("expected user+assistant history, got %d", len(state.History))
		}
	})

	t.Run("incremental turns accumulate", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "customer: Alex, 2x Sneakers @ 2499")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindWarning {
			t.Fatalf("expected warning while incomplete, got %s", reply.Kind)
		}
		if len(reply.Suggestions) != 2 {
			t.Fatalf("expected prompts for number and email, got %v", reply.Suggestions)
		}

		reply, err = f.uc.HandleMessage(context.Background(), "s1", "invoice number: INV-7, email: alex@shop.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Finalized == nil {
			t.Fatalf("expected finalize on second turn, got %s reply", reply.Kind)
		}
		// Earlier fields survive the merge.
		if reply.Finalized.CustomerName != "Alex" || len(reply.Finalized.LineItems) != 1 {
			t.Fatalf("merge lost earlier fields: %+v", reply.Finalized)
		}
	})

	t.Run("corrections replace instead of appending", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		if _, err := f.uc.HandleMessage(context.Background(), "s1", "2x Sneakers @ 2499, 1x Jacket @ 3499"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := f.uc.HandleMessage(context.Background(), "s1", "remove the sneakers, change quantity of jacket to 3"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		state, _ := f.sessions.Snapshot("s1")
		if len(state.Draft.LineItems) != 1 {
			t.Fatalf("expected 1 line item after removal, got %+v", state.Draft.LineItems)
		}
		li := state.Draft.LineItems[0]
		if li.Description != "Jacket" || li.Quantity != 3 {
			t.Fatalf("quantity change not applied: %+v", li)
		}
	})

	t.Run("finalized draft is terminal", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		if _, err := f.uc.HandleMessage(context.Background(), "s1",
			"invoice number: INV-1, customer: Alex, email: alex@shop.com, 1x Cap @ 499"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "1x Belt @ 999")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Finalized != nil {
			t.Fatalf("finalize signal emitted twice")
		}
		if !strings.Contains(reply.Text, "already finalized") {
			t.Fatalf("expected terminal notice, got %q", reply.Text)
		}

		state, _ := f.sessions.Snapshot("s1")
		if len(state.Draft.LineItems) != 1 {
			t.Fatalf("finalized draft mutated: %+v", state.Draft.LineItems)
		}
	})

	t.Run("failed extraction leaves draft untouched", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		if _, err := f.uc.HandleMessage(context.Background(), "s1", "customer: Alex, 2x Sneakers @ 2499"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		before, _ := f.sessions.Snapshot("s1")

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "hmm let me think about it")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindWarning {
			t.Fatalf("expected rephrase warning, got %s", reply.Kind)
		}

		after, _ := f.sessions.Snapshot("s1")
		if after.Draft.CustomerName != before.Draft.CustomerName || len(after.Draft.LineItems) != len(before.Draft.LineItems) {
			t.Fatalf("draft mutated on failed extraction: %+v", after.Draft)
		}
	})

	t.Run("rejection only turn surfaces the note", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "2.5x Socks @ 100")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindWarning {
			t.Fatalf("expected warning reply, got %s", reply.Kind)
		}
		if !strings.Contains(reply.Text, "positive whole number") {
			t.Fatalf("rejection note missing from reply:\n%s", reply.Text)
		}
		if strings.Contains(reply.Text, "couldn't find invoice details") {
			t.Fatalf("rejection note collapsed into the generic rephrase reply:\n%s", reply.Text)
		}

		state, _ := f.sessions.Snapshot("s1")
		if len(state.Draft.LineItems) != 0 {
			t.Fatalf("rejected item reached the draft: %+v", state.Draft.LineItems)
		}
	})

	t.Run("explicit zero survives the model phase", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gw := mock_interfaces.NewMockICompletionGateway(ctrl)
		f := newAssistantFixture(gw, nil, nil)

		if _, err := f.uc.HandleMessage(context.Background(), "s1", "customer: Alex, 1x Cap @ 499, tax: 0, shipping: 0"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		gw.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req interfaces.CompletionRequest) (string, error) {
				if strings.Contains(req.SchemaHint, `"tax_percent"`) || strings.Contains(req.SchemaHint, `"shipping"`) {
					t.Errorf("schema re-requests an explicit zero field: %s", req.SchemaHint)
				}
				return `{"tax_percent":"18","discount_percent":"5"}`, nil
			})

		if _, err := f.uc.HandleMessage(context.Background(), "s1", "also add a gift wrap note"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		state, _ := f.sessions.Snapshot("s1")
		if state.Draft.TaxPercent != 0 || state.Draft.Shipping != 0 {
			t.Fatalf("explicit zero overwritten: tax=%v shipping=%v", state.Draft.TaxPercent, state.Draft.Shipping)
		}
		if state.Draft.DiscountPercent != 5 {
			t.Fatalf("unstated field should still accept the model value, got %v", state.Draft.DiscountPercent)
		}
	})

	t.Run("persistence failure degrades the reply", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIInvoiceRepository(ctrl)
		f := newAssistantFixture(nil, nil, repo)

		repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(entities.InvoiceRecord{}, errors.New("dynamo down"))

		reply, err := f.uc.HandleMessage(context.Background(), "s1",
			"invoice number: INV-1, customer: Alex, email: alex@shop.com, 1x Cap @ 499")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Finalized == nil {
			t.Fatalf("finalize must survive persistence failure")
		}
		if reply.SavedInvoiceID != "" {
			t.Fatalf("expected empty saved id, got %q", reply.SavedInvoiceID)
		}
		if !strings.Contains(reply.Text, "couldn't archive") {
			t.Fatalf("expected degraded notice, got %q", reply.Text)
		}
	})
}

func TestAssistantUseCase_ResetFlow(t *testing.T) {
	f := newAssistantFixture(nil, nil, nil)

	if _, err := f.uc.HandleMessage(context.Background(), "s1", "customer: Alex, 2x Sneakers @ 2499"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := f.uc.HandleMessage(context.Background(), "s1", "reset")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Kind != entities.ReplyKindInfo {
		t.Fatalf("expected info reply, got %s", reply.Kind)
	}

	state, ok := f.sessions.Snapshot("s1")
	if !ok {
		t.Fatalf("expected session to survive reset")
	}
	if state.HasDraft {
		t.Fatalf("expected draft to be cleared")
	}
	if len(state.History) != 4 {
		t.Fatalf("expected history preserved, got %d entries", len(state.History))
	}

	// The endpoint variant behaves the same.
	if err := f.uc.ResetSession("s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.uc.ResetSession("  "); !errors.Is(err, ErrInvalidSessionID) {
		t.Fatalf("expected ErrInvalidSessionID, got %v", err)
	}
}

func TestAssistantUseCase_CurrencyFlow(t *testing.T) {
	t.Run("cached conversion", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		source := mock_interfaces.NewMockIRateSource(ctrl)
		f := newAssistantFixture(nil, source, nil)

		source.EXPECT().FetchRate(gomock.Any(), "USD", "EUR").Return(0.92, nil).Times(1)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "Convert 100 USD to EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindInfo {
			t.Fatalf("expected info reply, got %s", reply.Kind)
		}
		if !strings.Contains(reply.Text, "100.00 USD = 92.00 EUR") {
			t.Fatalf("unexpected conversion text: %q", reply.Text)
		}

		// Second conversion reuses the cached rate.
		if _, err := f.uc.HandleMessage(context.Background(), "s1", "convert 50 usd into eur"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("model classified conversion without the grammar", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gw := mock_interfaces.NewMockICompletionGateway(ctrl)
		f := newAssistantFixture(gw, nil, nil)

		gw.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(entities.IntentCurrencyConvert, nil)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "please change my money from dollars over there")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindWarning {
			t.Fatalf("expected warning reply, got %s", reply.Kind)
		}
		if !strings.Contains(reply.Text, "Convert 100 USD to EUR") {
			t.Fatalf("expected rephrase hint, got %q", reply.Text)
		}
	})

	t.Run("rate source failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		source := mock_interfaces.NewMockIRateSource(ctrl)
		f := newAssistantFixture(nil, source, nil)

		source.EXPECT().FetchRate(gomock.Any(), "USD", "EUR").Return(0.0, errors.New("provider down"))

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "Convert 100 USD to EUR")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindError {
			t.Fatalf("expected error reply, got %s", reply.Kind)
		}
	})
}

func TestAssistantUseCase_FAQFlow(t *testing.T) {
	t.Run("degrades to stored answer without gateway", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "What is the return policy?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Kind != entities.ReplyKindInfo {
			t.Fatalf("expected info reply, got %s", reply.Kind)
		}
		if !strings.Contains(reply.Text, "30 days") {
			t.Fatalf("expected stored answer, got %q", reply.Text)
		}
	})

	t.Run("low relevance gets the canned reply", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "Why is the sky blue?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "don't have that information") {
			t.Fatalf("expected canned reply, got %q", reply.Text)
		}
	})

	t.Run("grounded answer through the gateway", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gw := mock_interfaces.NewMockICompletionGateway(ctrl)
		f := newAssistantFixture(gw, nil, nil)

		gw.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req interfaces.CompletionRequest) (string, error) {
				if !strings.Contains(req.Prompt, "Context:") {
					t.Fatalf("expected grounded prompt, got %q", req.Prompt)
				}
				return "Returns are accepted within 30 days of delivery.", nil
			})

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "What is the return policy?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Text != "Returns are accepted within 30 days of delivery." {
			t.Fatalf("unexpected answer: %q", reply.Text)
		}
	})

	t.Run("gateway failure falls back to the top passage", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gw := mock_interfaces.NewMockICompletionGateway(ctrl)
		f := newAssistantFixture(gw, nil, nil)

		gw.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", interfaces.ErrCompletionUnavailable)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "What is the return policy?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "30 days") {
			t.Fatalf("expected degraded answer, got %q", reply.Text)
		}
	})
}

func TestAssistantUseCase_Classify(t *testing.T) {
	t.Run("unknown without gateway", func(t *testing.T) {
		f := newAssistantFixture(nil, nil, nil)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "tell me something")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "I can build invoices") {
			t.Fatalf("expected help text, got %q", reply.Text)
		}
	})

	t.Run("gateway fallback drives routing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gw := mock_interfaces.NewMockICompletionGateway(ctrl)
		f := newAssistantFixture(gw, nil, nil)

		gw.EXPECT().Classify(gomock.Any(), "tell me about returns").Return(entities.IntentFAQQuery, nil)
		gw.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("Returns take 30 days.", nil)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "tell me about returns")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply.Text != "Returns take 30 days." {
			t.Fatalf("unexpected reply: %q", reply.Text)
		}
	})

	t.Run("classifier failure degrades to help text", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		gw := mock_interfaces.NewMockICompletionGateway(ctrl)
		f := newAssistantFixture(gw, nil, nil)

		gw.EXPECT().Classify(gomock.Any(), gomock.Any()).Return(entities.IntentUnknown, interfaces.ErrCompletionUnavailable)

		reply, err := f.uc.HandleMessage(context.Background(), "s1", "tell me something")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply.Text, "I can build invoices") {
			t.Fatalf("expected help text, got %q", reply.Text)
		}
	})
}
