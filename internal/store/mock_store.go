package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// MockStore is an in-memory implementation of Store for testing. Nodes live in
// maps keyed by id; edges are kept in separate lists that reference those ids.
type MockStore struct {
	mu sync.RWMutex

	seq       int64
	documents map[string]*mockDocument
	sentences map[string]*mockSentence
	tokens    map[string]*mockToken
	entities  map[string]*mockEntity

	chains  map[string][]models.ChainLink // sentence id -> links
	related map[pairKey]int64
	links   []mockLink
	custom  []models.Relationship
	props   map[string]map[string]string
}

type mockDocument struct {
	doc models.Document
	seq int64
}

type mockSentence struct {
	sentence   models.Sentence
	documentID string
}

type mockToken struct {
	count     int64
	createdAt time.Time
}

type mockEntity struct {
	entity models.Entity
	seq    int64
}

type mockLink struct {
	entityID  string
	targetID  string
	label     models.Label
	order     *int
	createdAt time.Time
}

type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	m := &MockStore{}
	m.reset()
	return m
}

func (m *MockStore) reset() {
	m.seq = 0
	m.documents = make(map[string]*mockDocument)
	m.sentences = make(map[string]*mockSentence)
	m.tokens = make(map[string]*mockToken)
	m.entities = make(map[string]*mockEntity)
	m.chains = make(map[string][]models.ChainLink)
	m.related = make(map[pairKey]int64)
	m.links = nil
	m.custom = nil
	m.props = make(map[string]map[string]string)
}

// EnsureSchema is a no-op for the mock store.
func (m *MockStore) EnsureSchema(_ context.Context) error {
	return nil
}

// CreateDocument stores a new document.
func (m *MockStore) CreateDocument(_ context.Context, doc models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[doc.ID]; ok {
		return fmt.Errorf("%w: document %s", ErrConflict, doc.ID)
	}
	m.seq++
	m.documents[doc.ID] = &mockDocument{doc: doc, seq: m.seq}
	return nil
}

// UpsertTokens creates or increments token counts.
func (m *MockStore) UpsertTokens(_ context.Context, counts map[string]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for id, n := range counts {
		if tok, ok := m.tokens[id]; ok {
			tok.count += n
			continue
		}
		m.tokens[id] = &mockToken{count: n, createdAt: now}
	}
	return nil
}

// CreateSentences stores sentences and their CONTAINS edge.
func (m *MockStore) CreateSentences(_ context.Context, documentID string, sentences []models.Sentence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[documentID]; !ok {
		return fmt.Errorf("%w: document %s", ErrNotFound, documentID)
	}
	for _, s := range sentences {
		m.sentences[s.ID] = &mockSentence{sentence: s, documentID: documentID}
	}
	return nil
}

// LinkChain stores CHAIN edges whose endpoints both exist.
func (m *MockStore) LinkChain(_ context.Context, links []models.ChainLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range links {
		if _, ok := m.sentences[l.SentenceID]; !ok {
			continue
		}
		if _, ok := m.tokens[l.TokenID]; !ok {
			continue
		}
		exists := false
		for _, have := range m.chains[l.SentenceID] {
			if have == l {
				exists = true
				break
			}
		}
		if !exists {
			m.chains[l.SentenceID] = append(m.chains[l.SentenceID], l)
		}
	}
	return nil
}

// UpsertRelationships adds strength increments to canonical pairs whose tokens
// both exist.
func (m *MockStore) UpsertRelationships(_ context.Context, pairs []models.RelatedPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pairs {
		if _, ok := m.tokens[p.A]; !ok {
			continue
		}
		if _, ok := m.tokens[p.B]; !ok {
			continue
		}
		m.related[newPairKey(p.A, p.B)] += p.Strength
	}
	return nil
}

// TokenStrengths sums RELATED strengths per token.
func (m *MockStore) TokenStrengths(_ context.Context, documentID string) ([]models.TokenStrength, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var scope map[string]bool
	if documentID != "" {
		if _, ok := m.documents[documentID]; !ok {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
		}
		scope = make(map[string]bool)
		for sid, s := range m.sentences {
			if s.documentID != documentID {
				continue
			}
			for _, l := range m.chains[sid] {
				scope[l.TokenID] = true
			}
		}
	}

	sums := make(map[string]int64)
	for k, n := range m.related {
		sums[k.a] += n
		sums[k.b] += n
	}

	out := make([]models.TokenStrength, 0, len(sums))
	for id, s := range sums {
		if scope != nil && !scope[id] {
			continue
		}
		out = append(out, models.TokenStrength{ID: id, Count: m.tokens[id].count, Strength: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SentenceChains rebuilds the ordered chain of each sentence.
func (m *MockStore) SentenceChains(_ context.Context, documentID string) ([]models.SentenceChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if documentID != "" {
		if _, ok := m.documents[documentID]; !ok {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
		}
	}

	var sentences []*mockSentence
	for _, s := range m.sentences {
		if documentID == "" || s.documentID == documentID {
			sentences = append(sentences, s)
		}
	}
	sort.Slice(sentences, func(i, j int) bool {
		if sentences[i].documentID != sentences[j].documentID {
			return sentences[i].documentID < sentences[j].documentID
		}
		return sentences[i].sentence.Order < sentences[j].sentence.Order
	})

	out := make([]models.SentenceChain, 0, len(sentences))
	for _, s := range sentences {
		out = append(out, models.SentenceChain{
			DocumentID: s.documentID,
			SentenceID: s.sentence.ID,
			Tokens:     m.chainLocked(s.sentence.ID),
		})
	}
	return out, nil
}

func (m *MockStore) chainLocked(sentenceID string) []models.ChainToken {
	links := append([]models.ChainLink(nil), m.chains[sentenceID]...)
	sort.Slice(links, func(i, j int) bool { return links[i].Order < links[j].Order })
	out := make([]models.ChainToken, 0, len(links))
	for _, l := range links {
		out = append(out, models.ChainToken{ID: l.TokenID, Order: l.Order, Related: m.hasRelatedLocked(l.TokenID)})
	}
	return out
}

func (m *MockStore) hasRelatedLocked(tokenID string) bool {
	for k := range m.related {
		if k.a == tokenID || k.b == tokenID {
			return true
		}
	}
	return false
}

// EntityMatches walks the three provenance paths from each token.
func (m *MockStore) EntityMatches(_ context.Context, tokenIDs []string, sentenceID string) ([]models.EntityMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.EntityMatch
	add := func(entityID, tokenID string, origin models.Origin) {
		if e, ok := m.entities[entityID]; ok {
			out = append(out, models.EntityMatch{Entity: e.entity, TokenID: tokenID, Origin: origin})
		}
	}

	for _, tok := range tokenIDs {
		if _, ok := m.tokens[tok]; !ok {
			continue
		}
		for _, l := range m.links {
			if l.label == models.LabelToken && l.targetID == tok {
				add(l.entityID, tok, models.OriginToken)
			}
		}

		var sentenceIDs []string
		if sentenceID != "" {
			sentenceIDs = []string{sentenceID}
		} else {
			for sid, chain := range m.chains {
				for _, c := range chain {
					if c.TokenID == tok {
						sentenceIDs = append(sentenceIDs, sid)
						break
					}
				}
			}
		}

		documentIDs := make(map[string]bool)
		for _, sid := range sentenceIDs {
			s, ok := m.sentences[sid]
			if !ok {
				continue
			}
			documentIDs[s.documentID] = true
			for _, l := range m.links {
				if l.label == models.LabelSentence && l.targetID == sid {
					add(l.entityID, tok, models.OriginSentence)
				}
			}
		}
		for _, l := range m.links {
			if l.label == models.LabelDocument && documentIDs[l.targetID] {
				add(l.entityID, tok, models.OriginDocument)
			}
		}
	}
	return out, nil
}

// GetDocument returns a document with its sentences and linked entities.
func (m *MockStore) GetDocument(_ context.Context, id string) (*models.DocumentDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.documents[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	detail := &models.DocumentDetail{Document: d.doc, Sentences: []models.Sentence{}}
	targets := map[string]bool{id: true}
	for _, s := range m.sentences {
		if s.documentID == id {
			detail.Sentences = append(detail.Sentences, s.sentence)
			targets[s.sentence.ID] = true
		}
	}
	sort.Slice(detail.Sentences, func(i, j int) bool { return detail.Sentences[i].Order < detail.Sentences[j].Order })
	detail.Entities = m.linkedEntitiesLocked(targets)
	return detail, nil
}

func (m *MockStore) linkedEntitiesLocked(targets map[string]bool) []models.Entity {
	seen := make(map[string]bool)
	out := []models.Entity{}
	for _, l := range m.links {
		if !targets[l.targetID] || seen[l.entityID] || l.label == models.LabelToken {
			continue
		}
		seen[l.entityID] = true
		out = append(out, m.entities[l.entityID].entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListDocuments returns documents newest first.
func (m *MockStore) ListDocuments(_ context.Context, limit int) ([]models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*mockDocument, 0, len(m.documents))
	for _, d := range m.documents {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].doc.CreatedAt.Equal(all[j].doc.CreatedAt) {
			return all[i].doc.CreatedAt.After(all[j].doc.CreatedAt)
		}
		return all[i].seq > all[j].seq
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	out := make([]models.Document, 0, len(all))
	for _, d := range all {
		out = append(out, d.doc)
	}
	return out, nil
}

// SetDocumentStatus updates a document's status.
func (m *MockStore) SetDocumentStatus(_ context.Context, id string, status models.DocumentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok {
		return fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	d.doc.Status = status
	return nil
}

// GetSentence returns a sentence with its chain and linked entities.
func (m *MockStore) GetSentence(_ context.Context, id string) (*models.SentenceDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sentences[id]
	if !ok {
		return nil, fmt.Errorf("%w: sentence %s", ErrNotFound, id)
	}
	return &models.SentenceDetail{
		Sentence:   s.sentence,
		DocumentID: s.documentID,
		Chain:      m.chainLocked(id),
		Entities:   m.linkedEntitiesLocked(map[string]bool{id: true}),
	}, nil
}

// GetToken returns a token with its neighbours and occurrences.
func (m *MockStore) GetToken(_ context.Context, id string, neighborLimit int) (*models.TokenDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tok, ok := m.tokens[id]
	if !ok {
		return nil, fmt.Errorf("%w: token %s", ErrNotFound, id)
	}
	detail := &models.TokenDetail{
		ID:          id,
		Count:       tok.count,
		CreatedAt:   tok.createdAt,
		Neighbors:   []models.Neighbor{},
		SentenceIDs: []string{},
		DocumentIDs: []string{},
	}
	for k, n := range m.related {
		switch id {
		case k.a:
			detail.Neighbors = append(detail.Neighbors, models.Neighbor{ID: k.b, Strength: n})
		case k.b:
			detail.Neighbors = append(detail.Neighbors, models.Neighbor{ID: k.a, Strength: n})
		}
	}
	sort.Slice(detail.Neighbors, func(i, j int) bool {
		if detail.Neighbors[i].Strength != detail.Neighbors[j].Strength {
			return detail.Neighbors[i].Strength > detail.Neighbors[j].Strength
		}
		return detail.Neighbors[i].ID < detail.Neighbors[j].ID
	})
	if neighborLimit > 0 && len(detail.Neighbors) > neighborLimit {
		detail.Neighbors = detail.Neighbors[:neighborLimit]
	}

	docs := make(map[string]bool)
	for sid, chain := range m.chains {
		for _, c := range chain {
			if c.TokenID != id {
				continue
			}
			detail.SentenceIDs = append(detail.SentenceIDs, sid)
			if s, ok := m.sentences[sid]; ok && !docs[s.documentID] {
				docs[s.documentID] = true
				detail.DocumentIDs = append(detail.DocumentIDs, s.documentID)
			}
			break
		}
	}
	sort.Strings(detail.SentenceIDs)
	sort.Strings(detail.DocumentIDs)
	return detail, nil
}

// CreateEntity stores a new entity and its links. Nothing is stored when a
// link target is missing.
func (m *MockStore) CreateEntity(_ context.Context, entity models.Entity, links ...models.EntityLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[entity.ID]; ok {
		return fmt.Errorf("%w: entity %s", ErrConflict, entity.ID)
	}
	for i := range links {
		links[i].EntityID = entity.ID
		if err := m.checkLinkTargetsLocked(links[i]); err != nil {
			return err
		}
	}
	m.seq++
	m.entities[entity.ID] = &mockEntity{entity: entity, seq: m.seq}
	for _, link := range links {
		m.linkLocked(link)
	}
	return nil
}

// GetEntity returns an entity with its links.
func (m *MockStore) GetEntity(_ context.Context, id string) (*models.EntityDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: entity %s", ErrNotFound, id)
	}
	detail := &models.EntityDetail{Entity: e.entity, Links: []models.LinkedNode{}}
	for _, l := range m.links {
		if l.entityID != id {
			continue
		}
		node := models.LinkedNode{ID: l.targetID, Label: l.label, Provenance: provenanceFor(l.label)}
		switch l.label {
		case models.LabelDocument:
			node.Text = m.documents[l.targetID].doc.Text
		case models.LabelSentence:
			node.Text = m.sentences[l.targetID].sentence.Text
		case models.LabelToken:
			node.Text = l.targetID
		}
		detail.Links = append(detail.Links, node)
	}
	return detail, nil
}

// ListEntities returns all entities oldest first.
func (m *MockStore) ListEntities(_ context.Context) ([]models.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*mockEntity, 0, len(m.entities))
	for _, e := range m.entities {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	out := make([]models.Entity, 0, len(all))
	for _, e := range all {
		out = append(out, e.entity)
	}
	return out, nil
}

// LinkEntity stores LINKS edges from an entity.
func (m *MockStore) LinkEntity(_ context.Context, link models.EntityLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entities[link.EntityID]; !ok {
		return fmt.Errorf("%w: entity %s", ErrNotFound, link.EntityID)
	}
	if err := m.checkLinkTargetsLocked(link); err != nil {
		return err
	}
	m.linkLocked(link)
	return nil
}

func (m *MockStore) checkLinkTargetsLocked(link models.EntityLink) error {
	if link.SentenceID != "" {
		if _, ok := m.sentences[link.SentenceID]; !ok {
			return fmt.Errorf("%w: sentence %s", ErrNotFound, link.SentenceID)
		}
	}
	if link.DocumentID != "" {
		if _, ok := m.documents[link.DocumentID]; !ok {
			return fmt.Errorf("%w: document %s", ErrNotFound, link.DocumentID)
		}
	}
	return nil
}

func (m *MockStore) linkLocked(link models.EntityLink) {
	now := time.Now().UTC()
	if link.SentenceID != "" {
		m.addLinkLocked(mockLink{entityID: link.EntityID, targetID: link.SentenceID, label: models.LabelSentence, order: link.Order, createdAt: now})
	}
	if link.DocumentID != "" {
		m.addLinkLocked(mockLink{entityID: link.EntityID, targetID: link.DocumentID, label: models.LabelDocument, createdAt: now})
	}
	for _, tok := range link.TokenIDs {
		if _, ok := m.tokens[tok]; !ok {
			continue
		}
		m.addLinkLocked(mockLink{entityID: link.EntityID, targetID: tok, label: models.LabelToken, createdAt: now})
	}
}

func (m *MockStore) addLinkLocked(l mockLink) {
	for _, have := range m.links {
		if have.entityID == l.entityID && have.targetID == l.targetID && have.label == l.label {
			return
		}
	}
	m.links = append(m.links, l)
}

// CreateRelationship stores a curated edge or source property.
func (m *MockStore) CreateRelationship(_ context.Context, rel models.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.existsLocked(rel.SourceType, rel.SourceID) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, rel.SourceType, rel.SourceID)
	}
	if rel.TargetID == "" {
		if m.props[rel.SourceID] == nil {
			m.props[rel.SourceID] = make(map[string]string)
		}
		m.props[rel.SourceID][rel.RelationshipType] = rel.TargetText
		return nil
	}
	if !m.existsLocked(rel.TargetType, rel.TargetID) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, rel.TargetType, rel.TargetID)
	}
	for _, have := range m.custom {
		if have.SourceID == rel.SourceID && have.TargetID == rel.TargetID && have.RelationshipType == rel.RelationshipType {
			return nil
		}
	}
	m.custom = append(m.custom, rel)
	return nil
}

// Property returns a property set through CreateRelationship.
func (m *MockStore) Property(nodeID, name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.props[nodeID][name]
	return v, ok
}

func (m *MockStore) existsLocked(label models.Label, id string) bool {
	switch label {
	case models.LabelDocument:
		_, ok := m.documents[id]
		return ok
	case models.LabelSentence:
		_, ok := m.sentences[id]
		return ok
	case models.LabelToken:
		_, ok := m.tokens[id]
		return ok
	case models.LabelEntity:
		_, ok := m.entities[id]
		return ok
	}
	return false
}

// RelationshipTypes lists the edge types that currently have edges.
func (m *MockStore) RelationshipTypes(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for t, n := range m.edgeCountsLocked() {
		if n > 0 {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out, nil
}

// SearchNodes matches terms against text and textual identifier.
func (m *MockStore) SearchNodes(_ context.Context, label models.Label, terms []string, limit int) ([]models.NodeRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return []models.NodeRef{}, nil
	}
	matches := func(fields ...string) bool {
		for _, f := range fields {
			f = strings.ToLower(f)
			for _, t := range lowered {
				if f != "" && strings.Contains(f, t) {
					return true
				}
			}
		}
		return false
	}

	out := []models.NodeRef{}
	switch label {
	case models.LabelDocument:
		for _, d := range m.documents {
			if matches(d.doc.Text, d.doc.TextualIdentifier) {
				out = append(out, models.NodeRef{ID: d.doc.ID, Label: label, Text: d.doc.Text, TextualIdentifier: d.doc.TextualIdentifier})
			}
		}
	case models.LabelSentence:
		for _, s := range m.sentences {
			if matches(s.sentence.Text) {
				out = append(out, models.NodeRef{ID: s.sentence.ID, Label: label, Text: s.sentence.Text})
			}
		}
	case models.LabelToken:
		for id := range m.tokens {
			if matches(id) {
				out = append(out, models.NodeRef{ID: id, Label: label, Text: id})
			}
		}
	case models.LabelEntity:
		for _, e := range m.entities {
			if matches(e.entity.Text, e.entity.TextualIdentifier) {
				out = append(out, models.NodeRef{ID: e.entity.ID, Label: label, Text: e.entity.Text, TextualIdentifier: e.entity.TextualIdentifier})
			}
		}
	default:
		return nil, models.NewValidationError("label", fmt.Sprintf("unknown label %q", label))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Recent returns the newest documents and entities.
func (m *MockStore) Recent(_ context.Context, limit int) ([]models.RecentNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type row struct {
		node models.RecentNode
		seq  int64
	}
	var rows []row
	for _, d := range m.documents {
		rows = append(rows, row{models.RecentNode{ID: d.doc.ID, Label: models.LabelDocument, Text: d.doc.Text, TextualIdentifier: d.doc.TextualIdentifier, CreatedAt: d.doc.CreatedAt}, d.seq})
	}
	for _, e := range m.entities {
		rows = append(rows, row{models.RecentNode{ID: e.entity.ID, Label: models.LabelEntity, Text: e.entity.Text, TextualIdentifier: e.entity.TextualIdentifier, CreatedAt: e.entity.CreatedAt}, e.seq})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].node.CreatedAt.Equal(rows[j].node.CreatedAt) {
			return rows[i].node.CreatedAt.After(rows[j].node.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]models.RecentNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.node)
	}
	return out, nil
}

// Stats counts nodes per label and edges per type.
func (m *MockStore) Stats(_ context.Context) (*models.GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &models.GraphStats{
		Nodes: map[string]int64{
			string(models.LabelDocument): int64(len(m.documents)),
			string(models.LabelSentence): int64(len(m.sentences)),
			string(models.LabelToken):    int64(len(m.tokens)),
			string(models.LabelEntity):   int64(len(m.entities)),
		},
		Edges: m.edgeCountsLocked(),
	}, nil
}

func (m *MockStore) edgeCountsLocked() map[string]int64 {
	var chain int64
	for _, c := range m.chains {
		chain += int64(len(c))
	}
	edges := map[string]int64{
		string(models.RelContains): int64(len(m.sentences)),
		string(models.RelChain):    chain,
		string(models.RelRelated):  int64(len(m.related)),
		string(models.RelLinks):    int64(len(m.links)),
	}
	for _, r := range m.custom {
		edges[r.RelationshipType]++
	}
	return edges
}

// Purge removes everything.
func (m *MockStore) Purge(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}

func provenanceFor(label models.Label) models.Origin {
	switch label {
	case models.LabelDocument:
		return models.OriginDocument
	case models.LabelSentence:
		return models.OriginSentence
	}
	return models.OriginToken
}
