package entities

// FAQEntry is one passage of the fixed knowledge corpus.
type FAQEntry struct {
	SourceID string
	Question string
	Answer   string
}

// RetrievedPassage is a scored corpus match, recomputed per query and never
// persisted.
type RetrievedPassage struct {
	Text           string
	RelevanceScore float64
	SourceID       string
}
