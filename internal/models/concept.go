package models

import "time"

// ChainLink is one CHAIN edge: the token at position Order of a sentence.
type ChainLink struct {
	SentenceID string `json:"sentence_id"`
	TokenID    string `json:"token_id"`
	Order      int    `json:"order"`
}

// RelatedPair is a RELATED increment for the canonical pair (A, B), A < B.
type RelatedPair struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Strength int64  `json:"strength"`
}

// ChainToken is a token as it appears in a sentence chain. Related reports
// whether the token takes part in at least one RELATED edge.
type ChainToken struct {
	ID      string `json:"id"`
	Order   int    `json:"order"`
	Related bool   `json:"related"`
}

// SentenceChain is the ordered token sequence of one sentence.
type SentenceChain struct {
	DocumentID string       `json:"document_id"`
	SentenceID string       `json:"sentence_id"`
	Tokens     []ChainToken `json:"tokens"`
}

// TokenStrength is a token with the summed strength of its RELATED edges.
type TokenStrength struct {
	ID       string `json:"id"`
	Count    int64  `json:"count"`
	Strength int64  `json:"strength"`
}

// Neighbor is a token adjacent through a RELATED edge.
type Neighbor struct {
	ID       string `json:"id"`
	Strength int64  `json:"strength"`
}

// TokenDetail is a TokenConcept with its strongest neighbours and the
// sentences and documents it occurs in.
type TokenDetail struct {
	ID          string     `json:"id"`
	Count       int64      `json:"count"`
	CreatedAt   time.Time  `json:"creation_time"`
	Neighbors   []Neighbor `json:"neighbors"`
	SentenceIDs []string   `json:"sentence_ids"`
	DocumentIDs []string   `json:"document_ids"`
}

// GraphStats holds node and edge counts for the whole graph.
type GraphStats struct {
	Nodes map[string]int64 `json:"nodes"`
	Edges map[string]int64 `json:"edges"`
}
