package memory

// IndexStats describes the state of a vector index, including rows that
// have been tombstoned but not yet compacted away.
type IndexStats struct {
	total     int
	deleted   int
	active    int
	dimension int
}

// NewIndexStats creates an IndexStats.
func NewIndexStats(total, deleted, dimension int) IndexStats {
	return IndexStats{
		total:     total,
		deleted:   deleted,
		active:    total - deleted,
		dimension: dimension,
	}
}

// Total returns the number of stored rows, tombstones included.
func (s IndexStats) Total() int { return s.total }

// Deleted returns the number of tombstoned rows.
func (s IndexStats) Deleted() int { return s.deleted }

// Active returns the number of live rows.
func (s IndexStats) Active() int { return s.active }

// Dimension returns the vector dimension of the index.
func (s IndexStats) Dimension() int { return s.dimension }

// Stats describes the memory subsystem as reported to callers: whether
// semantic search is available at all, and the index counts when it is.
type Stats struct {
	enabled   bool
	total     int
	active    int
	dimension int
}

// DisabledStats returns the Stats reported when no embedding model is
// available.
func DisabledStats() Stats {
	return Stats{enabled: false}
}

// EnabledStats returns Stats derived from a live index.
func EnabledStats(index IndexStats) Stats {
	return Stats{
		enabled:   true,
		total:     index.Total(),
		active:    index.Active(),
		dimension: index.Dimension(),
	}
}

// Enabled reports whether semantic search is available.
func (s Stats) Enabled() bool { return s.enabled }

// Total returns the number of stored rows, tombstones included.
func (s Stats) Total() int { return s.total }

// Active returns the number of live rows.
func (s Stats) Active() int { return s.active }

// Dimension returns the vector dimension of the index.
func (s Stats) Dimension() int { return s.dimension }
