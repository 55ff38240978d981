package advisor

// IndexedName pairs a normalized city name with the first catalog row
// that carries it.
type IndexedName struct {
	Name  string
	Entry *CatalogEntry
}

// SkippedRow records a source row the loader could not parse.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// CatalogStats summarizes a load for diagnosis.
type CatalogStats struct {
	Rows           int          `json:"rows"`
	Indexed        int          `json:"indexed"`
	Unnamed        int          `json:"unnamed"`
	Duplicates     int          `json:"duplicates"`
	Skipped        int          `json:"skipped"`
	SkippedRows    []SkippedRow `json:"skippedRows,omitempty"`
	MissingColumns []string     `json:"missingColumns,omitempty"`
}

// Catalog is the immutable reference table of known cities. It is built
// once and safe for concurrent readers.
type Catalog struct {
	entries []CatalogEntry
	index   []IndexedName
	byName  map[string]int
	stats   CatalogStats
}

// NewCatalog indexes entries in order. Entries without a normalized name
// get one from CityNameRaw; rows whose name is still empty stay in the raw
// table but are not indexed. When two rows share a normalized name the
// first one wins.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{
		entries: make([]CatalogEntry, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	copy(c.entries, entries)
	for i := range c.entries {
		e := &c.entries[i]
		if e.CityNameNormalized == "" {
			e.CityNameNormalized = NormalizeCity(e.CityNameRaw)
		}
		if e.CityNameNormalized == "" {
			c.stats.Unnamed++
			continue
		}
		if _, dup := c.byName[e.CityNameNormalized]; dup {
			c.stats.Duplicates++
			continue
		}
		c.byName[e.CityNameNormalized] = len(c.index)
		c.index = append(c.index, IndexedName{Name: e.CityNameNormalized, Entry: e})
	}
	c.stats.Rows = len(c.entries)
	c.stats.Indexed = len(c.index)
	return c
}

// LookupNormalizedNames returns the index in row order.
func (c *Catalog) LookupNormalizedNames() []IndexedName {
	if c == nil {
		return nil
	}
	out := make([]IndexedName, len(c.index))
	copy(out, c.index)
	return out
}

// FindByNormalizedName returns the first row whose normalized city name
// equals name.
func (c *Catalog) FindByNormalizedName(name string) (*CatalogEntry, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.index[i].Entry, true
}

// Entries returns a copy of the raw table, unnamed rows included.
func (c *Catalog) Entries() []CatalogEntry {
	if c == nil {
		return nil
	}
	out := make([]CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of indexed city names.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.index)
}

// Empty reports whether resolution is impossible.
func (c *Catalog) Empty() bool {
	return c.Len() == 0
}

// Stats returns the load summary.
func (c *Catalog) Stats() CatalogStats {
	if c == nil {
		return CatalogStats{}
	}
	s := c.stats
	s.SkippedRows = append([]SkippedRow(nil), c.stats.SkippedRows...)
	s.MissingColumns = append([]string(nil), c.stats.MissingColumns...)
	return s
}
