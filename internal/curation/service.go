// Package curation implements the hand-editing side of the concept graph:
// entities, curated relationships, search and document status.
package curation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 25

// DefaultRelationshipTypes is the allow-list used when none is configured.
var DefaultRelationshipTypes = []string{"MENTIONS", "PART_OF", "SAME_AS", "RELATES_TO"}

// Options configures a Service.
type Options struct {
	// RelationshipTypes is the allow-list for CreateRelationship.
	RelationshipTypes []string
	// OnWrite is called after every successful write.
	OnWrite func()
	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time
}

// EntityRequest creates an entity, optionally anchored on a sentence.
type EntityRequest struct {
	ID                string   `json:"id,omitempty"`
	Text              string   `json:"text"`
	TextualIdentifier string   `json:"textual_identifier,omitempty"`
	SentenceID        string   `json:"sentence_id,omitempty"`
	TokenIDs          []string `json:"token_ids,omitempty"`
	Order             *int     `json:"order,omitempty"`
}

// Service validates curation requests and applies them to a store.
type Service struct {
	store     store.Store
	pipeline  *extract.Pipeline
	suggester Suggester
	relTypes  map[string]struct{}
	opts      Options
	logger    *zap.Logger
}

// NewService creates a curation service. pipeline may be nil, in which case
// search only uses the raw query. suggester may be nil to disable LLM
// suggestions.
func NewService(st store.Store, pipeline *extract.Pipeline, suggester Suggester, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.RelationshipTypes) == 0 {
		opts.RelationshipTypes = DefaultRelationshipTypes
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	types := make(map[string]struct{}, len(opts.RelationshipTypes))
	for _, t := range opts.RelationshipTypes {
		types[t] = struct{}{}
	}
	return &Service{
		store:     st,
		pipeline:  pipeline,
		suggester: suggester,
		relTypes:  types,
		opts:      opts,
		logger:    logger,
	}
}

func (s *Service) wrote() {
	if s.opts.OnWrite != nil {
		s.opts.OnWrite()
	}
}

// CreateEntity creates an entity. With a sentence id the entity is linked to
// that sentence, its document and the given tokens.
func (s *Service) CreateEntity(ctx context.Context, req EntityRequest) (*models.Entity, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, models.NewValidationError("text", "must not be empty")
	}

	var documentID string
	if req.SentenceID != "" {
		sent, err := s.store.GetSentence(ctx, req.SentenceID)
		if err != nil {
			return nil, fmt.Errorf("create entity: %w", err)
		}
		documentID = sent.DocumentID
	} else if len(req.TokenIDs) > 0 {
		return nil, models.NewValidationError("token_ids", "tokens require a sentence_id")
	}

	id := req.ID
	if id == "" {
		id = s.opts.NewID()
	}
	entity := models.Entity{
		ID:                id,
		Text:              text,
		TextualIdentifier: req.TextualIdentifier,
		CreatedAt:         s.opts.Now(),
	}
	var links []models.EntityLink
	if req.SentenceID != "" {
		links = append(links, models.EntityLink{
			EntityID:   id,
			SentenceID: req.SentenceID,
			DocumentID: documentID,
			TokenIDs:   req.TokenIDs,
			Order:      req.Order,
		})
	}
	if err := s.store.CreateEntity(ctx, entity, links...); err != nil {
		return nil, fmt.Errorf("create entity: %w", err)
	}
	s.wrote()

	s.logger.Info("entity created",
		zap.String("entity_id", id),
		zap.String("sentence_id", req.SentenceID),
		zap.Int("tokens", len(req.TokenIDs)))
	return &entity, nil
}

// LinkEntity links an existing entity to a sentence and/or document and tokens.
func (s *Service) LinkEntity(ctx context.Context, link models.EntityLink) error {
	if link.EntityID == "" {
		return models.NewValidationError("entity_id", "must not be empty")
	}
	if link.SentenceID == "" && link.DocumentID == "" && len(link.TokenIDs) == 0 {
		return models.NewValidationError("link", "a sentence, document or token is required")
	}
	if link.Order != nil && *link.Order < 0 {
		return models.NewValidationError("order", "must not be negative")
	}
	if err := s.store.LinkEntity(ctx, link); err != nil {
		return fmt.Errorf("link entity %s: %w", link.EntityID, err)
	}
	s.wrote()
	return nil
}

// GetEntity returns an entity with its linked nodes.
func (s *Service) GetEntity(ctx context.Context, id string) (*models.EntityDetail, error) {
	if id == "" {
		return nil, models.NewValidationError("id", "must not be empty")
	}
	return s.store.GetEntity(ctx, id)
}

// CreateRelationship validates and stores a curated relationship. Without a
// target id the relationship becomes a property on the source.
func (s *Service) CreateRelationship(ctx context.Context, rel models.Relationship) error {
	if rel.SourceID == "" {
		return models.NewValidationError("source_id", "must not be empty")
	}
	src, ok := models.ParseLabel(string(rel.SourceType))
	if !ok {
		return models.NewValidationError("source_type", fmt.Sprintf("unknown label %q", rel.SourceType))
	}
	rel.SourceType = src

	if err := s.checkRelationshipType(rel.RelationshipType); err != nil {
		return err
	}

	if rel.TargetID == "" {
		if strings.TrimSpace(rel.TargetText) == "" {
			return models.NewValidationError("target_text", "required when no target_id is given")
		}
		rel.TargetType = ""
	} else {
		dst, ok := models.ParseLabel(string(rel.TargetType))
		if !ok {
			return models.NewValidationError("target_type", fmt.Sprintf("unknown label %q", rel.TargetType))
		}
		rel.TargetType = dst
	}

	if err := s.store.CreateRelationship(ctx, rel); err != nil {
		return fmt.Errorf("create relationship %s: %w", rel.RelationshipType, err)
	}
	s.wrote()
	s.logger.Info("relationship created",
		zap.String("type", rel.RelationshipType),
		zap.String("source_id", rel.SourceID),
		zap.String("target_id", rel.TargetID))
	return nil
}

func (s *Service) checkRelationshipType(name string) error {
	switch {
	case !models.IsIdentifier(name):
		return models.NewValidationError("relationship_type", fmt.Sprintf("%q is not a valid identifier", name))
	case models.IsStructural(name):
		return models.NewValidationError("relationship_type", fmt.Sprintf("%q is reserved", name))
	}
	if _, ok := s.relTypes[name]; !ok {
		return models.NewValidationError("relationship_type", fmt.Sprintf("%q is not allowed", name))
	}
	return nil
}

// AllowedRelationshipTypes returns the configured allow-list.
func (s *Service) AllowedRelationshipTypes() []string {
	return append([]string(nil), s.opts.RelationshipTypes...)
}

// RelationshipTypes lists the relationship types present in the graph.
func (s *Service) RelationshipTypes(ctx context.Context) ([]string, error) {
	return s.store.RelationshipTypes(ctx)
}

// Search finds nodes of a label whose text contains the query or any of its
// keywords.
func (s *Service) Search(ctx context.Context, label, query string, limit int) ([]models.NodeRef, error) {
	l, ok := models.ParseLabel(label)
	if !ok {
		return nil, models.NewValidationError("label", fmt.Sprintf("unknown label %q", label))
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("query", "must not be empty")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	terms := []string{query}
	if s.pipeline != nil && strings.ContainsAny(query, " \t") {
		keywords, err := s.pipeline.Keywords(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		for _, k := range keywords {
			if !strings.EqualFold(k, query) {
				terms = append(terms, k)
			}
		}
	}
	return s.store.SearchNodes(ctx, l, terms, limit)
}

// SetDocumentStatus moves a document to a new curation status.
func (s *Service) SetDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	if id == "" {
		return models.NewValidationError("id", "must not be empty")
	}
	if !status.IsValid() {
		return models.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}
	if err := s.store.SetDocumentStatus(ctx, id, status); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	s.wrote()
	return nil
}
