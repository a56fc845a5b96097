package store

import (
	"context"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// ErrNotFound is returned when a referenced node does not exist. It is the same
// value as models.ErrNotFound so callers can match either.
var ErrNotFound = models.ErrNotFound

// ErrConflict is returned when a create collides with an existing id.
var ErrConflict = models.ErrConflict

// Store defines the persistence contract of the concept graph. Every write is a
// single round trip; a Neo4j implementation runs each in one managed
// transaction.
type Store interface {
	// EnsureSchema creates the uniqueness constraints the merge semantics rely on.
	EnsureSchema(ctx context.Context) error

	// CreateDocument creates a Document node. It fails with ErrConflict when the
	// id already exists.
	CreateDocument(ctx context.Context, doc models.Document) error

	// UpsertTokens creates each TokenConcept with count equal to its
	// multiplicity, or adds the multiplicity to the existing count.
	UpsertTokens(ctx context.Context, counts map[string]int64) error

	// CreateSentences creates SentenceConcepts and their CONTAINS edges from the
	// document. It fails with ErrNotFound when the document is absent.
	CreateSentences(ctx context.Context, documentID string, sentences []models.Sentence) error

	// LinkChain creates CHAIN edges. Links whose sentence or token is missing
	// are skipped without error.
	LinkChain(ctx context.Context, links []models.ChainLink) error

	// UpsertRelationships merges RELATED edges for canonical pairs, adding each
	// increment to the stored strength.
	UpsertRelationships(ctx context.Context, pairs []models.RelatedPair) error

	// TokenStrengths returns every token with at least one RELATED edge and the
	// sum of its incident strengths. A non-empty documentID limits the result
	// to tokens in that document's chains; ErrNotFound if it does not exist.
	TokenStrengths(ctx context.Context, documentID string) ([]models.TokenStrength, error)

	// SentenceChains returns the ordered CHAIN of every sentence of a document,
	// or of all documents when documentID is empty.
	SentenceChains(ctx context.Context, documentID string) ([]models.SentenceChain, error)

	// EntityMatches returns the (entity, token, origin) rows reachable from the
	// given tokens through token links, sentence links and document links.
	// With a sentenceID, sentence and document origins are resolved through
	// that sentence; otherwise through every sentence whose chain holds the token.
	EntityMatches(ctx context.Context, tokenIDs []string, sentenceID string) ([]models.EntityMatch, error)

	// GetDocument returns a document with its ordered sentences and entities.
	GetDocument(ctx context.Context, id string) (*models.DocumentDetail, error)

	// ListDocuments returns the most recently created documents first.
	ListDocuments(ctx context.Context, limit int) ([]models.Document, error)

	// SetDocumentStatus updates the curation status of a document.
	SetDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error

	// GetSentence returns a sentence with its document, chain and entities.
	GetSentence(ctx context.Context, id string) (*models.SentenceDetail, error)

	// GetToken returns a token with its strongest neighbours and occurrences.
	GetToken(ctx context.Context, id string, neighborLimit int) (*models.TokenDetail, error)

	// CreateEntity creates an Entity node together with the given links in a
	// single write. It fails with ErrConflict on a duplicate id; a missing link
	// target fails the whole write and leaves no entity behind.
	CreateEntity(ctx context.Context, entity models.Entity, links ...models.EntityLink) error

	// GetEntity returns an entity with the nodes it links to.
	GetEntity(ctx context.Context, id string) (*models.EntityDetail, error)

	// ListEntities returns every entity, oldest first.
	ListEntities(ctx context.Context) ([]models.Entity, error)

	// LinkEntity creates LINKS edges from an entity to the given sentence,
	// document and tokens. Existing links are kept. Missing tokens are skipped;
	// a missing entity, sentence or document fails with ErrNotFound.
	LinkEntity(ctx context.Context, link models.EntityLink) error

	// CreateRelationship stores a curated relationship. Labels and type must
	// already be validated by the caller.
	CreateRelationship(ctx context.Context, rel models.Relationship) error

	// RelationshipTypes lists the relationship types present in the graph.
	RelationshipTypes(ctx context.Context) ([]string, error)

	// SearchNodes returns nodes of label whose text or textual identifier
	// contains any of terms, case-insensitively.
	SearchNodes(ctx context.Context, label models.Label, terms []string, limit int) ([]models.NodeRef, error)

	// Recent returns the latest Documents and Entities, newest first.
	Recent(ctx context.Context, limit int) ([]models.RecentNode, error)

	// Stats returns node counts per label and edge counts per type.
	Stats(ctx context.Context) (*models.GraphStats, error)

	// Purge deletes every node and edge.
	Purge(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}
