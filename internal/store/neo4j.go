package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

const (
	neo4jDialTimeout  = 10 * time.Second
	neo4jReadTimeout  = 15 * time.Second
	neo4jWriteTimeout = 30 * time.Second

	constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"
)

func withTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, d)
}

// Neo4jOptions configures the driver.
type Neo4jOptions struct {
	URI         string
	User        string
	Password    string
	Database    string
	MaxPoolSize int
	// Timeout bounds every write; reads get half of it, with a floor of the
	// default read timeout.
	Timeout time.Duration
}

// Neo4jStore implements Store on a Neo4j database. Every write runs in one
// managed transaction; count and strength increments happen inside MERGE so
// concurrent batches never lose updates.
type Neo4jStore struct {
	driver       neo4j.DriverWithContext
	database     string
	readTimeout  time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewNeo4jStore connects to Neo4j and verifies connectivity.
func NewNeo4jStore(opts Neo4jOptions, logger *zap.Logger) (*Neo4jStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.URI == "" {
		return nil, errors.New("neo4j: uri is required")
	}
	if opts.MaxPoolSize <= 0 {
		opts.MaxPoolSize = 50
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, neo4j.BasicAuth(opts.User, opts.Password, ""), func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = opts.MaxPoolSize
		cfg.SocketConnectTimeout = neo4jDialTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	ctx, cancel := withTimeout(context.Background(), neo4jDialTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity at %s: %w", opts.URI, err)
	}

	writeTimeout := neo4jWriteTimeout
	if opts.Timeout > 0 {
		writeTimeout = opts.Timeout
	}
	readTimeout := neo4jReadTimeout
	if writeTimeout/2 > readTimeout {
		readTimeout = writeTimeout / 2
	}

	logger.Info("connected to Neo4j", zap.String("uri", opts.URI), zap.String("database", opts.Database))

	return &Neo4jStore{
		driver:       driver,
		database:     opts.Database,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		logger:       logger,
	}, nil
}

type txWork func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error)

func (s *Neo4jStore) write(ctx context.Context, work txWork) (any, error) {
	wctx, cancel := withTimeout(ctx, s.writeTimeout)
	defer cancel()
	session := s.driver.NewSession(wctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: s.database})
	defer func() { _ = session.Close(wctx) }()
	return session.ExecuteWrite(wctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(wctx, tx)
	})
}

func (s *Neo4jStore) read(ctx context.Context, work txWork) (any, error) {
	rctx, cancel := withTimeout(ctx, s.readTimeout)
	defer cancel()
	session := s.driver.NewSession(rctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: s.database})
	defer func() { _ = session.Close(rctx) }()
	return session.ExecuteRead(rctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(rctx, tx)
	})
}

// exec runs a single write statement and discards its records.
func (s *Neo4jStore) exec(ctx context.Context, cypher string, params map[string]any) error {
	_, err := s.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

// query runs a single read statement and returns all records.
func (s *Neo4jStore) query(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypher, params)
	})
	if err != nil {
		return nil, err
	}
	return out.([]*neo4j.Record), nil
}

func collect(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && neoErr.Code == constraintViolation
}

var schemaStatements = []string{
	"CREATE CONSTRAINT document_id IF NOT EXISTS FOR (n:Document) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT sentence_id IF NOT EXISTS FOR (n:SentenceConcept) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT token_id IF NOT EXISTS FOR (n:TokenConcept) REQUIRE n.id IS UNIQUE",
	"CREATE CONSTRAINT entity_id IF NOT EXISTS FOR (n:Entity) REQUIRE n.id IS UNIQUE",
	"CREATE INDEX document_created IF NOT EXISTS FOR (n:Document) ON (n.creation_time)",
}

// EnsureSchema creates the uniqueness constraints MERGE relies on.
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := s.exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensuring schema (%s): %w", stmt, err)
		}
	}
	return nil
}

// CreateDocument creates a Document node.
func (s *Neo4jStore) CreateDocument(ctx context.Context, doc models.Document) error {
	err := s.exec(ctx, `
CREATE (d:Document {id: $id, text: $text, status: $status, creation_time: $creation_time})
SET d.textual_identifier = $textual_identifier, d.source_id = $source_id`,
		map[string]any{
			"id":                 doc.ID,
			"text":               doc.Text,
			"status":             string(doc.Status),
			"creation_time":      doc.CreatedAt,
			"textual_identifier": nullable(doc.TextualIdentifier),
			"source_id":          nullable(doc.SourceID),
		})
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: document %s", ErrConflict, doc.ID)
	}
	if err != nil {
		return fmt.Errorf("creating document %s: %w", doc.ID, err)
	}
	return nil
}

// UpsertTokens merges all tokens of a batch in one statement.
func (s *Neo4jStore) UpsertTokens(ctx context.Context, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}
	err := s.exec(ctx, `
UNWIND $tokens AS tok
MERGE (t:TokenConcept {id: tok.id})
ON CREATE SET t.text = tok.id, t.count = tok.count, t.creation_time = $now
ON MATCH SET t.count = t.count + tok.count`,
		map[string]any{"tokens": tokenParams(counts), "now": time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("upserting %d tokens: %w", len(counts), err)
	}
	return nil
}

// CreateSentences creates sentences and their CONTAINS edges.
func (s *Neo4jStore) CreateSentences(ctx context.Context, documentID string, sentences []models.Sentence) error {
	params := make([]map[string]any, 0, len(sentences))
	for _, sn := range sentences {
		params = append(params, map[string]any{
			"id":            sn.ID,
			"text":          sn.Text,
			"order":         int64(sn.Order),
			"creation_time": sn.CreatedAt,
		})
	}
	_, err := s.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (d:Document {id: $id}) RETURN d.id AS id", map[string]any{"id": documentID})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, documentID)
		}
		res, err := tx.Run(ctx, `
MATCH (d:Document {id: $document_id})
UNWIND $sentences AS s
MERGE (c:SentenceConcept {id: s.id})
ON CREATE SET c.text = s.text, c.creation_time = s.creation_time
MERGE (d)-[r:CONTAINS]->(c)
SET r.order = s.order`,
			map[string]any{"document_id": documentID, "sentences": params})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("creating %d sentences: %w", len(sentences), err)
	}
	return nil
}

// LinkChain creates CHAIN edges; links with a missing endpoint match nothing.
func (s *Neo4jStore) LinkChain(ctx context.Context, links []models.ChainLink) error {
	if len(links) == 0 {
		return nil
	}
	params := make([]map[string]any, 0, len(links))
	for _, l := range links {
		params = append(params, map[string]any{
			"sentence_id": l.SentenceID,
			"token_id":    l.TokenID,
			"order":       int64(l.Order),
		})
	}
	err := s.exec(ctx, `
UNWIND $links AS l
MATCH (s:SentenceConcept {id: l.sentence_id})
MATCH (t:TokenConcept {id: l.token_id})
MERGE (s)-[:CHAIN {order: l.order}]->(t)`,
		map[string]any{"links": params})
	if err != nil {
		return fmt.Errorf("linking %d chain edges: %w", len(links), err)
	}
	return nil
}

// UpsertRelationships merges RELATED edges directed from the smaller id.
func (s *Neo4jStore) UpsertRelationships(ctx context.Context, pairs []models.RelatedPair) error {
	if len(pairs) == 0 {
		return nil
	}
	err := s.exec(ctx, `
UNWIND $pairs AS p
MATCH (a:TokenConcept {id: p.a})
MATCH (b:TokenConcept {id: p.b})
MERGE (a)-[r:RELATED]->(b)
ON CREATE SET r.strength = p.strength
ON MATCH SET r.strength = r.strength + p.strength`,
		map[string]any{"pairs": pairParams(pairs)})
	if err != nil {
		return fmt.Errorf("upserting %d relationships: %w", len(pairs), err)
	}
	return nil
}

// TokenStrengths sums RELATED strengths per token.
func (s *Neo4jStore) TokenStrengths(ctx context.Context, documentID string) ([]models.TokenStrength, error) {
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		if documentID == "" {
			return collect(ctx, tx, `
MATCH (t:TokenConcept)-[r:RELATED]-()
RETURN t.id AS id, t.count AS count, sum(r.strength) AS strength`, nil)
		}
		if err := requireNode(ctx, tx, models.LabelDocument, documentID); err != nil {
			return nil, err
		}
		return collect(ctx, tx, `
MATCH (:Document {id: $document_id})-[:CONTAINS]->(:SentenceConcept)-[:CHAIN]->(t:TokenConcept)
WITH DISTINCT t
MATCH (t)-[r:RELATED]-()
RETURN t.id AS id, t.count AS count, sum(r.strength) AS strength`,
			map[string]any{"document_id": documentID})
	})
	if err != nil {
		return nil, fmt.Errorf("reading token strengths: %w", err)
	}
	recs := out.([]*neo4j.Record)
	strengths := make([]models.TokenStrength, 0, len(recs))
	for _, rec := range recs {
		strengths = append(strengths, models.TokenStrength{
			ID:       recordString(rec, "id"),
			Count:    recordInt64(rec, "count"),
			Strength: recordInt64(rec, "strength"),
		})
	}
	sort.Slice(strengths, func(i, j int) bool { return strengths[i].ID < strengths[j].ID })
	return strengths, nil
}

const chainProjection = `
OPTIONAL MATCH (s)-[ch:CHAIN]->(t:TokenConcept)
WITH d, c, s, ch, t ORDER BY ch.order
WITH d, c, s, collect(CASE WHEN t IS NULL THEN NULL
  ELSE {id: t.id, order: ch.order, related: EXISTS { (t)-[:RELATED]-() }} END) AS tokens`

// SentenceChains rebuilds the ordered chain of each sentence.
func (s *Neo4jStore) SentenceChains(ctx context.Context, documentID string) ([]models.SentenceChain, error) {
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		if documentID != "" {
			if err := requireNode(ctx, tx, models.LabelDocument, documentID); err != nil {
				return nil, err
			}
		}
		return collect(ctx, tx, `
MATCH (d:Document)-[c:CONTAINS]->(s:SentenceConcept)
WHERE $document_id = '' OR d.id = $document_id`+chainProjection+`
RETURN d.id AS document_id, s.id AS sentence_id, c.order AS sentence_order, tokens
ORDER BY document_id, sentence_order`,
			map[string]any{"document_id": documentID})
	})
	if err != nil {
		return nil, fmt.Errorf("reading sentence chains: %w", err)
	}
	recs := out.([]*neo4j.Record)
	chains := make([]models.SentenceChain, 0, len(recs))
	for _, rec := range recs {
		chains = append(chains, models.SentenceChain{
			DocumentID: recordString(rec, "document_id"),
			SentenceID: recordString(rec, "sentence_id"),
			Tokens:     chainTokens(recordValue(rec, "tokens")),
		})
	}
	return chains, nil
}

const entityColumns = `e.id AS entity_id, e.text AS entity_text,
  e.textual_identifier AS entity_textual_identifier, e.creation_time AS entity_creation_time`

// EntityMatches unions the token, sentence and document provenance paths.
func (s *Neo4jStore) EntityMatches(ctx context.Context, tokenIDs []string, sentenceID string) ([]models.EntityMatch, error) {
	if len(tokenIDs) == 0 {
		return nil, nil
	}
	recs, err := s.query(ctx, entityMatchQuery(sentenceID != ""), map[string]any{
		"tokens":      tokenIDs,
		"sentence_id": sentenceID,
	})
	if err != nil {
		return nil, fmt.Errorf("matching entities: %w", err)
	}
	out := make([]models.EntityMatch, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.EntityMatch{
			Entity:  entityFromRecord(rec),
			TokenID: recordString(rec, "token_id"),
			Origin:  models.Origin(recordString(rec, "origin")),
		})
	}
	return out, nil
}

func entityMatchQuery(bySentence bool) string {
	head := "UNWIND $tokens AS tid\nMATCH (t:TokenConcept {id: tid})\n"
	ret := func(origin string) string {
		return "RETURN DISTINCT " + entityColumns + ", t.id AS token_id, '" + origin + "' AS origin"
	}
	sentencePath := "MATCH (e:Entity)-[:LINKS]->(s:SentenceConcept)-[:CHAIN]->(t)\n"
	documentPath := "MATCH (e:Entity)-[:LINKS]->(d:Document)-[:CONTAINS]->(:SentenceConcept)-[:CHAIN]->(t)\n"
	if bySentence {
		sentencePath = "MATCH (e:Entity)-[:LINKS]->(:SentenceConcept {id: $sentence_id})\n"
		documentPath = "MATCH (e:Entity)-[:LINKS]->(d:Document)-[:CONTAINS]->(:SentenceConcept {id: $sentence_id})\n"
	}
	return head + "MATCH (e:Entity)-[:LINKS]->(t)\n" + ret("token") +
		"\nUNION ALL\n" + head + sentencePath + ret("sentence") +
		"\nUNION ALL\n" + head + documentPath + ret("document")
}

// GetDocument returns a document with its sentences and linked entities.
func (s *Neo4jStore) GetDocument(ctx context.Context, id string) (*models.DocumentDetail, error) {
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (d:Document {id: $id}) RETURN d{.*} AS d", map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		detail := &models.DocumentDetail{Document: documentFromProps(recordMap(recs[0], "d"))}

		recs, err = collect(ctx, tx, `
MATCH (:Document {id: $id})-[c:CONTAINS]->(s:SentenceConcept)
RETURN s.id AS id, s.text AS text, c.order AS order, s.creation_time AS creation_time
ORDER BY order`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		detail.Sentences = make([]models.Sentence, 0, len(recs))
		for _, rec := range recs {
			detail.Sentences = append(detail.Sentences, models.Sentence{
				ID:        recordString(rec, "id"),
				Text:      recordString(rec, "text"),
				Order:     int(recordInt64(rec, "order")),
				CreatedAt: recordTime(rec, "creation_time"),
			})
		}

		recs, err = collect(ctx, tx, `
MATCH (d:Document {id: $id})
MATCH (e:Entity)-[:LINKS]->(n)
WHERE n = d OR (d)-[:CONTAINS]->(n)
RETURN DISTINCT `+entityColumns+`
ORDER BY entity_id`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		detail.Entities = entitiesFromRecords(recs)
		return detail, nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return out.(*models.DocumentDetail), nil
}

// ListDocuments returns documents newest first.
func (s *Neo4jStore) ListDocuments(ctx context.Context, limit int) ([]models.Document, error) {
	recs, err := s.query(ctx, `
MATCH (d:Document)
RETURN d{.*} AS d
ORDER BY d.creation_time DESC
LIMIT $limit`, map[string]any{"limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	docs := make([]models.Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, documentFromProps(recordMap(rec, "d")))
	}
	return docs, nil
}

// SetDocumentStatus updates a document's status.
func (s *Neo4jStore) SetDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	out, err := s.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, "MATCH (d:Document {id: $id}) SET d.status = $status RETURN d.id AS id",
			map[string]any{"id": id, "status": string(status)})
	})
	if err != nil {
		return fmt.Errorf("setting document status: %w", err)
	}
	if len(out.([]*neo4j.Record)) == 0 {
		return fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	return nil
}

// GetSentence returns a sentence with its chain and linked entities.
func (s *Neo4jStore) GetSentence(ctx context.Context, id string) (*models.SentenceDetail, error) {
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, `
MATCH (d:Document)-[c:CONTAINS]->(s:SentenceConcept {id: $id})`+chainProjection+`
RETURN d.id AS document_id, s.text AS text, c.order AS order, s.creation_time AS creation_time, tokens`,
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("%w: sentence %s", ErrNotFound, id)
		}
		rec := recs[0]
		detail := &models.SentenceDetail{
			Sentence: models.Sentence{
				ID:        id,
				Text:      recordString(rec, "text"),
				Order:     int(recordInt64(rec, "order")),
				CreatedAt: recordTime(rec, "creation_time"),
			},
			DocumentID: recordString(rec, "document_id"),
			Chain:      chainTokens(recordValue(rec, "tokens")),
		}
		recs, err = collect(ctx, tx, `
MATCH (e:Entity)-[:LINKS]->(:SentenceConcept {id: $id})
RETURN DISTINCT `+entityColumns+`
ORDER BY entity_id`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		detail.Entities = entitiesFromRecords(recs)
		return detail, nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting sentence: %w", err)
	}
	return out.(*models.SentenceDetail), nil
}

// GetToken returns a token with its neighbours and occurrences.
func (s *Neo4jStore) GetToken(ctx context.Context, id string, neighborLimit int) (*models.TokenDetail, error) {
	if neighborLimit <= 0 {
		neighborLimit = 20
	}
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (t:TokenConcept {id: $id}) RETURN t.count AS count, t.creation_time AS creation_time",
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("%w: token %s", ErrNotFound, id)
		}
		detail := &models.TokenDetail{
			ID:          id,
			Count:       recordInt64(recs[0], "count"),
			CreatedAt:   recordTime(recs[0], "creation_time"),
			Neighbors:   []models.Neighbor{},
			SentenceIDs: []string{},
			DocumentIDs: []string{},
		}

		recs, err = collect(ctx, tx, `
MATCH (:TokenConcept {id: $id})-[r:RELATED]-(n:TokenConcept)
RETURN n.id AS id, r.strength AS strength
ORDER BY strength DESC, id
LIMIT $limit`, map[string]any{"id": id, "limit": int64(neighborLimit)})
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			detail.Neighbors = append(detail.Neighbors, models.Neighbor{
				ID:       recordString(rec, "id"),
				Strength: recordInt64(rec, "strength"),
			})
		}

		recs, err = collect(ctx, tx, `
MATCH (d:Document)-[:CONTAINS]->(s:SentenceConcept)-[:CHAIN]->(:TokenConcept {id: $id})
RETURN collect(DISTINCT s.id) AS sentences, collect(DISTINCT d.id) AS documents`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if len(recs) > 0 {
			detail.SentenceIDs = recordStrings(recs[0], "sentences")
			detail.DocumentIDs = recordStrings(recs[0], "documents")
			sort.Strings(detail.SentenceIDs)
			sort.Strings(detail.DocumentIDs)
		}
		return detail, nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}
	return out.(*models.TokenDetail), nil
}

// CreateEntity creates an Entity node and its links in one transaction.
func (s *Neo4jStore) CreateEntity(ctx context.Context, entity models.Entity, links ...models.EntityLink) error {
	now := time.Now().UTC()
	_, err := s.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
CREATE (e:Entity {id: $id, text: $text, creation_time: $creation_time})
SET e.textual_identifier = $textual_identifier`,
			map[string]any{
				"id":                 entity.ID,
				"text":               entity.Text,
				"creation_time":      entity.CreatedAt,
				"textual_identifier": nullable(entity.TextualIdentifier),
			})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		for _, link := range links {
			link.EntityID = entity.ID
			if err := linkEntityTx(ctx, tx, link, now); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if isConstraintViolation(err) {
		return fmt.Errorf("%w: entity %s", ErrConflict, entity.ID)
	}
	if err != nil {
		return fmt.Errorf("creating entity %s: %w", entity.ID, err)
	}
	return nil
}

// GetEntity returns an entity with its links.
func (s *Neo4jStore) GetEntity(ctx context.Context, id string) (*models.EntityDetail, error) {
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		recs, err := collect(ctx, tx, "MATCH (e:Entity {id: $id}) RETURN "+entityColumns, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("%w: entity %s", ErrNotFound, id)
		}
		detail := &models.EntityDetail{Entity: entityFromRecord(recs[0]), Links: []models.LinkedNode{}}

		recs, err = collect(ctx, tx, `
MATCH (:Entity {id: $id})-[l:LINKS]->(n)
RETURN n.id AS id, labels(n)[0] AS label, coalesce(n.text, n.id) AS text, l.provenance AS provenance
ORDER BY l.creation_time, id`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			detail.Links = append(detail.Links, models.LinkedNode{
				ID:         recordString(rec, "id"),
				Label:      models.Label(recordString(rec, "label")),
				Text:       recordString(rec, "text"),
				Provenance: models.Origin(recordString(rec, "provenance")),
			})
		}
		return detail, nil
	})
	if err != nil {
		return nil, fmt.Errorf("getting entity: %w", err)
	}
	return out.(*models.EntityDetail), nil
}

// ListEntities returns all entities oldest first.
func (s *Neo4jStore) ListEntities(ctx context.Context) ([]models.Entity, error) {
	recs, err := s.query(ctx, "MATCH (e:Entity) RETURN "+entityColumns+" ORDER BY entity_creation_time, entity_id", nil)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	return entitiesFromRecords(recs), nil
}

// LinkEntity merges LINKS edges from an entity.
func (s *Neo4jStore) LinkEntity(ctx context.Context, link models.EntityLink) error {
	now := time.Now().UTC()
	_, err := s.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		return nil, linkEntityTx(ctx, tx, link, now)
	})
	if err != nil {
		return fmt.Errorf("linking entity %s: %w", link.EntityID, err)
	}
	return nil
}

func linkEntityTx(ctx context.Context, tx neo4j.ManagedTransaction, link models.EntityLink, now time.Time) error {
	var order any
	if link.Order != nil {
		order = int64(*link.Order)
	}
	if err := requireNode(ctx, tx, models.LabelEntity, link.EntityID); err != nil {
		return err
	}
	if link.SentenceID != "" {
		recs, err := collect(ctx, tx, `
MATCH (e:Entity {id: $entity_id}), (n:SentenceConcept {id: $target_id})
MERGE (e)-[l:LINKS]->(n)
ON CREATE SET l.provenance = 'sentence', l.creation_time = $now
SET l.order = $order
RETURN n.id AS id`, map[string]any{"entity_id": link.EntityID, "target_id": link.SentenceID, "now": now, "order": order})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return fmt.Errorf("%w: sentence %s", ErrNotFound, link.SentenceID)
		}
	}
	if link.DocumentID != "" {
		recs, err := collect(ctx, tx, `
MATCH (e:Entity {id: $entity_id}), (n:Document {id: $target_id})
MERGE (e)-[l:LINKS]->(n)
ON CREATE SET l.provenance = 'document', l.creation_time = $now
RETURN n.id AS id`, map[string]any{"entity_id": link.EntityID, "target_id": link.DocumentID, "now": now})
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return fmt.Errorf("%w: document %s", ErrNotFound, link.DocumentID)
		}
	}
	if len(link.TokenIDs) > 0 {
		res, err := tx.Run(ctx, `
MATCH (e:Entity {id: $entity_id})
UNWIND $tokens AS tid
MATCH (t:TokenConcept {id: tid})
MERGE (e)-[l:LINKS]->(t)
ON CREATE SET l.provenance = 'token', l.creation_time = $now`,
			map[string]any{"entity_id": link.EntityID, "tokens": link.TokenIDs, "now": now})
		if err != nil {
			return err
		}
		if _, err := res.Consume(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CreateRelationship merges a curated edge, or sets a property on the source
// when no target is given.
func (s *Neo4jStore) CreateRelationship(ctx context.Context, rel models.Relationship) error {
	cypher, params, err := relationshipQuery(rel)
	if err != nil {
		return err
	}
	out, err := s.write(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		return collect(ctx, tx, cypher, params)
	})
	if err != nil {
		return fmt.Errorf("creating relationship %s: %w", rel.RelationshipType, err)
	}
	if len(out.([]*neo4j.Record)) == 0 {
		return fmt.Errorf("%w: %s %s or %s %s", ErrNotFound, rel.SourceType, rel.SourceID, rel.TargetType, rel.TargetID)
	}
	return nil
}

// relationshipQuery builds the curated-relationship statement. Labels and the
// type are interpolated only after passing the allow-list and identifier
// checks; ids and values travel as parameters.
func relationshipQuery(rel models.Relationship) (string, map[string]any, error) {
	if !rel.SourceType.IsValid() {
		return "", nil, models.NewValidationError("source_type", fmt.Sprintf("unknown label %q", rel.SourceType))
	}
	if !models.IsIdentifier(rel.RelationshipType) || models.IsStructural(rel.RelationshipType) {
		return "", nil, models.NewValidationError("relationship_type", fmt.Sprintf("%q is not allowed", rel.RelationshipType))
	}
	if rel.TargetID == "" {
		cypher := fmt.Sprintf("MATCH (s:`%s` {id: $source_id})\nSET s += $props\nRETURN s.id AS id", rel.SourceType)
		return cypher, map[string]any{
			"source_id": rel.SourceID,
			"props":     map[string]any{rel.RelationshipType: rel.TargetText},
		}, nil
	}
	if !rel.TargetType.IsValid() {
		return "", nil, models.NewValidationError("target_type", fmt.Sprintf("unknown label %q", rel.TargetType))
	}
	cypher := fmt.Sprintf("MATCH (s:`%s` {id: $source_id})\nMATCH (t:`%s` {id: $target_id})\nMERGE (s)-[:`%s`]->(t)\nRETURN s.id AS id",
		rel.SourceType, rel.TargetType, rel.RelationshipType)
	return cypher, map[string]any{"source_id": rel.SourceID, "target_id": rel.TargetID}, nil
}

// RelationshipTypes lists the edge types present in the graph.
func (s *Neo4jStore) RelationshipTypes(ctx context.Context) ([]string, error) {
	recs, err := s.query(ctx, "MATCH ()-[r]->() RETURN DISTINCT type(r) AS type ORDER BY type", nil)
	if err != nil {
		return nil, fmt.Errorf("listing relationship types: %w", err)
	}
	types := make([]string, 0, len(recs))
	for _, rec := range recs {
		types = append(types, recordString(rec, "type"))
	}
	return types, nil
}

// SearchNodes matches terms against text and textual identifier.
func (s *Neo4jStore) SearchNodes(ctx context.Context, label models.Label, terms []string, limit int) ([]models.NodeRef, error) {
	if !label.IsValid() {
		return nil, models.NewValidationError("label", fmt.Sprintf("unknown label %q", label))
	}
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	if len(lowered) == 0 {
		return []models.NodeRef{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	recs, err := s.query(ctx, fmt.Sprintf(`
MATCH (n:`+"`%s`"+`)
WHERE any(term IN $terms WHERE toLower(coalesce(n.text, n.id)) CONTAINS term
  OR toLower(coalesce(n.textual_identifier, '')) CONTAINS term)
RETURN n.id AS id, coalesce(n.text, n.id) AS text, n.textual_identifier AS textual_identifier
ORDER BY id
LIMIT $limit`, label), map[string]any{"terms": lowered, "limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", label, err)
	}
	out := make([]models.NodeRef, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.NodeRef{
			ID:                recordString(rec, "id"),
			Label:             label,
			Text:              recordString(rec, "text"),
			TextualIdentifier: recordString(rec, "textual_identifier"),
		})
	}
	return out, nil
}

// Recent returns the newest documents and entities.
func (s *Neo4jStore) Recent(ctx context.Context, limit int) ([]models.RecentNode, error) {
	recs, err := s.query(ctx, `
MATCH (n)
WHERE n:Document OR n:Entity
RETURN n.id AS id, labels(n)[0] AS label, n.text AS text,
  n.textual_identifier AS textual_identifier, n.creation_time AS creation_time
ORDER BY creation_time DESC
LIMIT $limit`, map[string]any{"limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("listing recent nodes: %w", err)
	}
	out := make([]models.RecentNode, 0, len(recs))
	for _, rec := range recs {
		out = append(out, models.RecentNode{
			ID:                recordString(rec, "id"),
			Label:             models.Label(recordString(rec, "label")),
			Text:              recordString(rec, "text"),
			TextualIdentifier: recordString(rec, "textual_identifier"),
			CreatedAt:         recordTime(rec, "creation_time"),
		})
	}
	return out, nil
}

// Stats counts nodes per label and edges per type.
func (s *Neo4jStore) Stats(ctx context.Context) (*models.GraphStats, error) {
	out, err := s.read(ctx, func(ctx context.Context, tx neo4j.ManagedTransaction) (any, error) {
		stats := &models.GraphStats{Nodes: make(map[string]int64), Edges: make(map[string]int64)}
		for _, l := range models.ValidLabels {
			stats.Nodes[string(l)] = 0
		}
		nodes, err := collect(ctx, tx, "MATCH (n) RETURN labels(n)[0] AS label, count(*) AS c", nil)
		if err != nil {
			return nil, err
		}
		for _, rec := range nodes {
			stats.Nodes[recordString(rec, "label")] = recordInt64(rec, "c")
		}
		edges, err := collect(ctx, tx, "MATCH ()-[r]->() RETURN type(r) AS type, count(*) AS c", nil)
		if err != nil {
			return nil, err
		}
		for _, rec := range edges {
			stats.Edges[recordString(rec, "type")] = recordInt64(rec, "c")
		}
		return stats, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return out.(*models.GraphStats), nil
}

// Purge deletes every node and edge.
func (s *Neo4jStore) Purge(ctx context.Context) error {
	if err := s.exec(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return fmt.Errorf("purging graph: %w", err)
	}
	s.logger.Warn("graph purged")
	return nil
}

// Close releases the driver.
func (s *Neo4jStore) Close() error {
	ctx, cancel := withTimeout(context.Background(), neo4jDialTimeout)
	defer cancel()
	return s.driver.Close(ctx)
}

func requireNode(ctx context.Context, tx neo4j.ManagedTransaction, label models.Label, id string) error {
	recs, err := collect(ctx, tx, fmt.Sprintf("MATCH (n:`%s` {id: $id}) RETURN n.id AS id", label), map[string]any{"id": id})
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, strings.ToLower(string(label)), id)
	}
	return nil
}
