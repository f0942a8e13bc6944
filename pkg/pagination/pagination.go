package pagination

// DefaultLimit is the standard page size when a limit is not provided.
const DefaultLimit = 25

// MaxLimit caps how many rows any page query can request.
const MaxLimit = 100

// Page holds offset pagination inputs for batch queries.
type Page struct {
	Limit  int
	Offset int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps the page limit and floors a negative offset.
func (p Page) Normalize() Page {
	p.Limit = NormalizeLimit(p.Limit)
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Next advances the page by its limit.
func (p Page) Next() Page {
	normalized := p.Normalize()
	normalized.Offset += normalized.Limit
	return normalized
}

// HasMore reports whether a fetched batch filled the page, meaning another
// page may exist.
func (p Page) HasMore(fetched int) bool {
	return fetched >= p.Normalize().Limit
}
