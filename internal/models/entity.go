package models

import "time"

// Origin names the provenance path that connects an entity to a token.
type Origin string

const (
	OriginToken    Origin = "token"
	OriginSentence Origin = "sentence"
	OriginDocument Origin = "document"
)

// ValidOrigins is the set of all valid origins.
var ValidOrigins = []Origin{
	OriginToken,
	OriginSentence,
	OriginDocument,
}

// IsValid returns true if the origin is recognized.
func (o Origin) IsValid() bool {
	for i := range ValidOrigins {
		if o == ValidOrigins[i] {
			return true
		}
	}
	return false
}

// Entity is a curated concept, distinct from a raw token.
type Entity struct {
	ID                string    `json:"id"`
	Text              string    `json:"text"`
	TextualIdentifier string    `json:"textual_identifier,omitempty"`
	CreatedAt         time.Time `json:"creation_time"`
}

// EntityLink attaches an entity to a sentence and/or document and to the tokens
// that compose it. Linking a sentence also links its document.
type EntityLink struct {
	EntityID   string   `json:"entity_id"`
	SentenceID string   `json:"sentence_id,omitempty"`
	DocumentID string   `json:"document_id,omitempty"`
	TokenIDs   []string `json:"token_ids,omitempty"`
	Order      *int     `json:"order,omitempty"`
}

// EntityMatch is one (entity, token, origin) row found while scoring
// recommendations.
type EntityMatch struct {
	Entity  Entity `json:"entity"`
	TokenID string `json:"token_id"`
	Origin  Origin `json:"origin"`
}

// Recommendation is an entity scored by the number of distinct (token, origin)
// pairs that reach it.
type Recommendation struct {
	Entity    Entity   `json:"entity"`
	TokenIDs  []string `json:"token_ids"`
	Origins   []Origin `json:"origins"`
	Frequency int      `json:"frequency"`
}

// LinkedNode is a node an entity links to, as shown on the entity detail view.
type LinkedNode struct {
	ID         string `json:"id"`
	Label      Label  `json:"label"`
	Text       string `json:"text"`
	Provenance Origin `json:"provenance"`
}

// EntityDetail is an entity with its outgoing links.
type EntityDetail struct {
	Entity Entity       `json:"entity"`
	Links  []LinkedNode `json:"links"`
}

// Suggestion is a candidate entity for a sentence. ID is set when the
// suggestion matches an entity that already exists.
type Suggestion struct {
	ID            string `json:"id,omitempty"`
	Text          string `json:"text"`
	Kind          string `json:"kind,omitempty"`
	RecommendedBy string `json:"recommended_by"`
}

// Relationship is a curated edge between two existing nodes. When TargetID is
// empty the relationship is stored as a property named RelationshipType on the
// source node with value TargetText.
type Relationship struct {
	SourceID         string `json:"source_id"`
	SourceType       Label  `json:"source_type"`
	TargetID         string `json:"target_id,omitempty"`
	TargetType       Label  `json:"target_type,omitempty"`
	RelationshipType string `json:"relationship_type"`
	TargetText       string `json:"target_text,omitempty"`
}

// NodeRef is a search hit.
type NodeRef struct {
	ID                string `json:"id"`
	Label             Label  `json:"label"`
	Text              string `json:"text"`
	TextualIdentifier string `json:"textual_identifier,omitempty"`
}
