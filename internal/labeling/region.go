package labeling

import "NewsLabeler/internal/domain"

// RegionTable maps publisher names to regions. Treat as read-only after construction.
type RegionTable map[string]string

// DefaultRegions is the built-in source table.
func DefaultRegions() RegionTable {
	return RegionTable{
		"The Guardian":                 "Europe",
		"Times of India":               "Asia",
		"News-Medical":                 "North America",
		"Euronews.com":                 "Europe",
		"Associated Press of Pakistan": "Asia",
		"MindaNews":                    "Asia",
	}
}

// RegionResolver resolves sources by exact match.
type RegionResolver struct {
	table RegionTable
}

// NewRegionResolver copies table so later caller mutations cannot leak in.
func NewRegionResolver(table RegionTable) *RegionResolver {
	copied := make(RegionTable, len(table))
	for source, region := range table {
		copied[source] = region
	}
	return &RegionResolver{table: copied}
}

// Resolve returns the region of source or domain.RegionUnknown.
func (r *RegionResolver) Resolve(source string) string {
	if source == "" {
		return domain.RegionUnknown
	}
	if region, ok := r.table[source]; ok && region != "" {
		return region
	}
	return domain.RegionUnknown
}
