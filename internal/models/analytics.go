package models

// NGram is a phrase with the number of distinct sentences of a document it
// occurs in.
type NGram struct {
	DocumentID string `json:"document_id"`
	Phrase     string `json:"phrase"`
	Frequency  int    `json:"frequency"`
}

// PhraseOverlap is a phrase shared by two documents.
type PhraseOverlap struct {
	Phrase         string `json:"phrase"`
	FirstFreq      int    `json:"document1_freq"`
	SecondFreq     int    `json:"document2_freq"`
	TotalFrequency int    `json:"total_frequency"`
}
