package resolve

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	gocache "github.com/patrickmn/go-cache"
)

// Similarity scores two strings in [0,1] by normalized Levenshtein distance.
// The same attach text is compared against every attendee name, so scores
// are memoized for the lifetime of a resolver.
type Similarity struct {
	metric *metrics.Levenshtein
	memo   *gocache.Cache
}

// NewSimilarity creates a memoizing scorer
func NewSimilarity() *Similarity {
	metric := metrics.NewLevenshtein()
	metric.CaseSensitive = false

	return &Similarity{
		metric: metric,
		memo:   gocache.New(gocache.NoExpiration, 0),
	}
}

// Score returns 1 for identical strings and 0 for nothing in common
func (s *Similarity) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	key := a + "\x00" + b
	if v, found := s.memo.Get(key); found {
		return v.(float64)
	}

	score := strutil.Similarity(a, b, s.metric)
	s.memo.Set(key, score, gocache.NoExpiration)
	return score
}

// Cached reports how many pairs are memoized
func (s *Similarity) Cached() int {
	return s.memo.ItemCount()
}
