package model

// CatalogEntry describes one selectable break kind.
type CatalogEntry struct {
	Key     BreakType `yaml:"key" json:"key"`
	Minutes int       `yaml:"minutes" json:"minutes"`
	Label   string    `yaml:"label" json:"label"`
}

// BreakCatalog is an ordered list of break kinds. Order matters: the
// threshold notification offers one button per entry and button index i
// maps back to entry i.
type BreakCatalog []CatalogEntry

// DefaultCatalog returns the built-in break kinds.
func DefaultCatalog() BreakCatalog {
	return BreakCatalog{
		{Key: BreakShort, Minutes: 5, Label: "Short break (5 min)"},
		{Key: BreakMedium, Minutes: 15, Label: "Medium break (15 min)"},
		{Key: BreakLong, Minutes: 30, Label: "Long break (30 min)"},
	}
}

// Lookup returns the entry for key, falling back to the short default
// when key is unknown.
func (catalog BreakCatalog) Lookup(key BreakType) CatalogEntry {
	for _, entry := range catalog {
		if entry.Key == key {
			return entry
		}
	}
	return CatalogEntry{Key: BreakShort, Minutes: DefaultBreakMinutes, Label: "Short break"}
}

// At returns the entry at index, reporting false when out of range.
func (catalog BreakCatalog) At(index int) (CatalogEntry, bool) {
	if index < 0 || index >= len(catalog) {
		return CatalogEntry{}, false
	}
	return catalog[index], true
}
