package cooccur

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

func TestNewPair_Canonical(t *testing.T) {
	assert.Equal(t, Pair{A: "Bruce", B: "Lee"}, NewPair("Lee", "Bruce"))
	assert.Equal(t, NewPair("x", "y"), NewPair("y", "x"))
}

func TestCounter_SingleSentence(t *testing.T) {
	c := Count([]string{"Bruce", "Lee", "actor"})

	assert.Equal(t, []models.RelatedPair{
		{A: "Bruce", B: "Lee", Strength: 1},
		{A: "Bruce", B: "actor", Strength: 1},
		{A: "Lee", B: "actor", Strength: 1},
	}, c.Pairs())
}

func TestCounter_SameSentenceTwice(t *testing.T) {
	s := []string{"Bruce", "Lee", "actor"}
	c := Count(s, s)
	assert.Equal(t, int64(2), c.Count("Bruce", "Lee"))
	assert.Equal(t, int64(2), c.Count("Lee", "Bruce"))
	assert.Equal(t, 3, c.Len())
}

func TestCounter_Symmetric(t *testing.T) {
	c := Count([]string{"x", "y"}, []string{"y", "x"})
	pairs := c.Pairs()
	assert.Len(t, pairs, 1)
	assert.Equal(t, models.RelatedPair{A: "x", B: "y", Strength: 2}, pairs[0])
}

func TestCounter_SkipsSelfPairs(t *testing.T) {
	c := Count([]string{"do", "do", "kune"})
	assert.Equal(t, int64(0), c.Count("do", "do"))
	assert.Equal(t, int64(2), c.Count("do", "kune"))
}

func TestCounter_ShortSentences(t *testing.T) {
	c := Count(nil, []string{}, []string{"alone"})
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Pairs())
}
