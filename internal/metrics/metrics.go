// Package metrics provides application-level counters using stdlib expvar.
// Counters are exported on the /debug/vars HTTP endpoint of the API server.
package metrics

import "expvar"

// Ingestion counters.
var (
	DocumentsIngested     = expvar.NewInt("conceptgraph_documents_ingested_total")
	SentencesCreated      = expvar.NewInt("conceptgraph_sentences_created_total")
	TokensUpserted        = expvar.NewInt("conceptgraph_tokens_upserted_total")
	RelationshipsUpserted = expvar.NewInt("conceptgraph_relationships_upserted_total")
	FlushFailures         = expvar.NewInt("conceptgraph_flush_failures_total")
	FlushRetries          = expvar.NewInt("conceptgraph_flush_retries_total")
)

// Read-side counters.
var (
	AnalyticsQueries = expvar.NewInt("conceptgraph_analytics_queries_total")
	CacheHits        = expvar.NewInt("conceptgraph_analytics_cache_hits_total")
	Suggestions      = expvar.NewInt("conceptgraph_entity_suggestions_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }

// Add increments the given counter by n.
func Add(counter *expvar.Int, n int) { counter.Add(int64(n)) }
