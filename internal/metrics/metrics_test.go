package metrics

import (
	"expvar"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersArePublished(t *testing.T) {
	for _, name := range []string{
		"conceptgraph_documents_ingested_total",
		"conceptgraph_flush_retries_total",
		"conceptgraph_analytics_cache_hits_total",
	} {
		assert.NotNil(t, expvar.Get(name), name)
	}
}

func TestIncAndAdd(t *testing.T) {
	before := FlushFailures.Value()
	Inc(FlushFailures)
	Add(FlushFailures, 3)
	assert.Equal(t, before+4, FlushFailures.Value())
}
