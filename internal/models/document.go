package models

import "time"

// DocumentStatus tracks where a document is in its curation lifecycle.
type DocumentStatus string

const (
	StatusInitial   DocumentStatus = "initial"
	StatusAutomatic DocumentStatus = "automatic"
	StatusManual    DocumentStatus = "manual"
	StatusPending   DocumentStatus = "pending"
	StatusProcessed DocumentStatus = "processed"
)

// ValidDocumentStatuses is the set of all valid document statuses.
var ValidDocumentStatuses = []DocumentStatus{
	StatusInitial,
	StatusAutomatic,
	StatusManual,
	StatusPending,
	StatusProcessed,
}

// IsValid returns true if the status is recognized.
func (s DocumentStatus) IsValid() bool {
	for _, v := range ValidDocumentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Document is the root unit submitted for ingestion.
type Document struct {
	ID                string         `json:"id"`
	Text              string         `json:"text"`
	TextualIdentifier string         `json:"textual_identifier,omitempty"`
	SourceID          string         `json:"source_id,omitempty"`
	Status            DocumentStatus `json:"status"`
	CreatedAt         time.Time      `json:"creation_time"`
}

// Sentence is a SentenceConcept node. Order is its zero-based position inside
// the owning document and is stored on the CONTAINS edge.
type Sentence struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"creation_time"`
}

// DocumentDetail is a document together with its ordered sentences and the
// entities linked to it.
type DocumentDetail struct {
	Document  Document   `json:"document"`
	Sentences []Sentence `json:"sentences"`
	Entities  []Entity   `json:"entities"`
}

// SentenceDetail is a sentence with its owning document, its reconstructed
// token chain and linked entities.
type SentenceDetail struct {
	Sentence   Sentence     `json:"sentence"`
	DocumentID string       `json:"document_id"`
	Chain      []ChainToken `json:"chain"`
	Entities   []Entity     `json:"entities"`
}

// RecentNode is a document or entity listed in the workspace feed.
type RecentNode struct {
	ID                string    `json:"id"`
	Label             Label     `json:"label"`
	Text              string    `json:"text"`
	TextualIdentifier string    `json:"textual_identifier,omitempty"`
	CreatedAt         time.Time `json:"creation_time"`
}
