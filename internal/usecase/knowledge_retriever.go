package usecase

import (
	"math"
	"sort"
	"strings"

	"urbanstyle_assistant/internal/domain/entities"
)

// KnowledgeRetriever scores a fixed FAQ corpus against a query with lexical
// IDF-weighted token overlap. Indexing happens once at construction; queries
// are CPU-bound and allocation-light.
type KnowledgeRetriever struct {
	corpus []entities.FAQEntry
	tokens [][]string
	idf    map[string]float64
}

func NewKnowledgeRetriever(corpus []entities.FAQEntry) *KnowledgeRetriever {
	r := &KnowledgeRetriever{
		corpus: corpus,
		tokens: make([][]string, len(corpus)),
		idf:    map[string]float64{},
	}

	df := map[string]int{}
	for i, entry := range corpus {
		toks := tokenize(entry.Question + " " + entry.Answer)
		r.tokens[i] = toks
		seen := map[string]bool{}
		for _, t := range toks {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := float64(len(corpus))
	for t, d := range df {
		r.idf[t] = math.Log(1 + n/float64(d))
	}
	return r
}

// Retrieve returns the top-k passages, highest relevance first, ties broken by
// corpus insertion order so results are deterministic.
func (r *KnowledgeRetriever) Retrieve(query string, k int) []entities.RetrievedPassage {
	queryTokens := map[string]bool{}
	for _, t := range tokenize(query) {
		queryTokens[t] = true
	}
	if len(queryTokens) == 0 || k <= 0 {
		return nil
	}

	type scored struct {
		idx   int
		score float64
	}
	results := make([]scored, 0, len(r.corpus))
	for i := range r.corpus {
		overlap := 0.0
		seen := map[string]bool{}
		for _, t := range r.tokens[i] {
			if queryTokens[t] && !seen[t] {
				seen[t] = true
				overlap += r.idf[t]
			}
		}
		if overlap == 0 {
			continue
		}
		// Normalize by query size so verbose questions don't dominate.
		results = append(results, scored{idx: i, score: overlap / float64(len(queryTokens))})
	}

	sort.SliceStable(results, func(a, b int) bool {
		if results[a].score != results[b].score {
			return results[a].score > results[b].score
		}
		return results[a].idx < results[b].idx
	})

	if len(results) > k {
		results = results[:k]
	}
	out := make([]entities.RetrievedPassage, len(results))
	for i, s := range results {
		entry := r.corpus[s.idx]
		out[i] = entities.RetrievedPassage{
			Text:           entry.Question + "\n" + entry.Answer,
			RelevanceScore: s.score,
			SourceID:       entry.SourceID,
		}
	}
	return out
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "do": true,
	"does": true, "can": true, "i": true, "you": true, "my": true, "your": true,
	"what": true, "how": true, "to": true, "of": true, "in": true, "for": true,
	"on": true, "and": true, "or": true, "it": true, "we": true, "me": true,
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DefaultFAQCorpus is the built-in UrbanStyle store knowledge base.
func DefaultFAQCorpus() []entities.FAQEntry {
	return []entities.FAQEntry{
		{SourceID: "faq-shipping-time", Question: "How long does shipping take?", Answer: "Standard shipping takes 3-5 business days. Express shipping delivers within 1-2 business days for an extra fee."},
		{SourceID: "faq-shipping-cost", Question: "How much does shipping cost?", Answer: "Shipping is free on orders above 999. Below that, a flat 99 shipping fee applies at checkout."},
		{SourceID: "faq-returns", Question: "What is the return policy?", Answer: "Items can be returned within 30 days of delivery in unused condition. Refunds are issued to the original payment method within 5-7 business days."},
		{SourceID: "faq-payment-methods", Question: "Which payment methods are accepted?", Answer: "We accept credit and debit cards, UPI, net banking, and cash on delivery for orders below 5000."},
		{SourceID: "faq-invoice-copy", Question: "Can I get a copy of my invoice?", Answer: "Yes. Ask the assistant to build an invoice, or find past invoices under Orders in your account. Finalized invoices are also emailed as PDF."},
		{SourceID: "faq-gst", Question: "Can I add a GST number to my invoice?", Answer: "Yes, provide your GSTIN while creating the invoice and it will appear on the document for input tax credit."},
		{SourceID: "faq-discounts", Question: "How do discount codes work?", Answer: "Apply a discount code while building your invoice. One code per order; percentage discounts apply to the taxed subtotal."},
		{SourceID: "faq-order-tracking", Question: "How do I track my order?", Answer: "A tracking link is emailed once the order ships. You can also check the Orders page in your account."},
	}
}
