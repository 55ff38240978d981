package advisor

// AcceptanceThreshold is the minimum similarity for a fuzzy match to count.
const AcceptanceThreshold = 70

// Resolver maps free-text queries to catalog rows.
type Resolver struct {
	scorer Scorer
}

// NewResolver builds a resolver. A nil scorer selects WeightedRatio.
func NewResolver(scorer Scorer) *Resolver {
	if scorer == nil {
		scorer = WeightedRatio
	}
	return &Resolver{scorer: scorer}
}

// Resolve returns the best-scoring catalog name for query. A score below
// AcceptanceThreshold is reported with Found false and no Entry; that is
// a normal result, not an error. Ties keep the earliest indexed row.
func (r *Resolver) Resolve(query string, catalog *Catalog) (ResolvedMatch, error) {
	match := ResolvedMatch{Query: query, NormalizedQuery: NormalizeCity(query)}
	if catalog.Empty() {
		return match, ErrCatalogEmpty
	}
	if match.NormalizedQuery == "" {
		return match, ErrEmptyQuery
	}

	best := -1
	var bestEntry *CatalogEntry
	for _, item := range catalog.index {
		score := clampScore(r.scorer(match.NormalizedQuery, item.Name))
		if score > best {
			best = score
			match.Candidate = item.Name
			bestEntry = item.Entry
			if score == 100 {
				break
			}
		}
	}
	match.Similarity = best
	match.CandidateDisplay = bestEntry.CityNameRaw
	match.Found = best >= AcceptanceThreshold
	if match.Found {
		match.Entry = bestEntry
	}
	return match, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
