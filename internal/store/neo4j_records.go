package store

import (
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// nullable maps an empty optional string to a Cypher null so the property is
// not written at all.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// tokenParams turns a token multiset into UNWIND rows sorted by id, so
// concurrent batches lock token nodes in the same order.
func tokenParams(counts map[string]int64) []map[string]any {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": id, "count": counts[id]})
	}
	return out
}

// pairParams canonicalises pairs, merges duplicates and drops self pairs.
func pairParams(pairs []models.RelatedPair) []map[string]any {
	type key struct{ a, b string }
	sums := make(map[key]int64, len(pairs))
	keys := make([]key, 0, len(pairs))
	for _, p := range pairs {
		if p.A == p.B {
			continue
		}
		k := key{p.A, p.B}
		if k.b < k.a {
			k.a, k.b = k.b, k.a
		}
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
		}
		sums[k] += p.Strength
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, map[string]any{"a": k.a, "b": k.b, "strength": sums[k]})
	}
	return out
}

func recordValue(rec *neo4j.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}

func recordString(rec *neo4j.Record, key string) string {
	return asString(recordValue(rec, key))
}

func recordInt64(rec *neo4j.Record, key string) int64 {
	return asInt64(recordValue(rec, key))
}

func recordTime(rec *neo4j.Record, key string) time.Time {
	return asTime(recordValue(rec, key))
}

func recordMap(rec *neo4j.Record, key string) map[string]any {
	m, _ := recordValue(rec, key).(map[string]any)
	return m
}

func recordStrings(rec *neo4j.Record, key string) []string {
	list, _ := recordValue(rec, key).([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s := asString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case neo4j.LocalDateTime:
		return t.Time().UTC()
	}
	return time.Time{}
}

func chainTokens(v any) []models.ChainToken {
	list, _ := v.([]any)
	out := make([]models.ChainToken, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, models.ChainToken{
			ID:      asString(m["id"]),
			Order:   int(asInt64(m["order"])),
			Related: asBool(m["related"]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func documentFromProps(m map[string]any) models.Document {
	return models.Document{
		ID:                asString(m["id"]),
		Text:              asString(m["text"]),
		TextualIdentifier: asString(m["textual_identifier"]),
		SourceID:          asString(m["source_id"]),
		Status:            models.DocumentStatus(asString(m["status"])),
		CreatedAt:         asTime(m["creation_time"]),
	}
}

func entityFromRecord(rec *neo4j.Record) models.Entity {
	return models.Entity{
		ID:                recordString(rec, "entity_id"),
		Text:              recordString(rec, "entity_text"),
		TextualIdentifier: recordString(rec, "entity_textual_identifier"),
		CreatedAt:         recordTime(rec, "entity_creation_time"),
	}
}

func entitiesFromRecords(recs []*neo4j.Record) []models.Entity {
	out := make([]models.Entity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, entityFromRecord(rec))
	}
	return out
}
