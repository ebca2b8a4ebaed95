package models

import "strings"

// AllServicesSentinel is the UI catch-all category. It is stripped from
// incoming skill lists before any filtering happens and never reaches SQL.
const AllServicesSentinel = "All Services"

// SortOption orders search results in listing mode.
type SortOption string

const (
	SortRatingDesc     SortOption = "rating_desc"
	SortPriceAsc       SortOption = "price_asc"
	SortPriceDesc      SortOption = "price_desc"
	SortExperienceDesc SortOption = "experience_desc"
)

// ParseSortOption maps a raw query value to a known sort, defaulting to rating.
func ParseSortOption(raw string) SortOption {
	switch SortOption(strings.TrimSpace(raw)) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	case SortExperienceDesc:
		return SortExperienceDesc
	default:
		return SortRatingDesc
	}
}

// SkillFilter is an explicit some-or-none category filter. The zero value
// means "no filter"; the sentinel entry is dropped at construction.
type SkillFilter struct {
	skills []string
}

// NewSkillFilter builds a filter from raw request values, trimming blanks
// and dropping the "All Services" sentinel.
func NewSkillFilter(raw []string) SkillFilter {
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" || s == AllServicesSentinel {
			continue
		}
		out = append(out, s)
	}
	return SkillFilter{skills: out}
}

// IsEmpty reports whether no real categories were requested.
func (f SkillFilter) IsEmpty() bool { return len(f.skills) == 0 }

// Skills returns the requested categories, sentinel excluded.
func (f SkillFilter) Skills() []string { return f.skills }

// SearchQuery is the resolved input of one search request. Radius and
// distances are kilometers; unit conversion happens at the HTTP boundary.
type SearchQuery struct {
	Skills       SkillFilter
	Lat          *float64
	Lng          *float64
	LocationText string
	RadiusKm     float64
	Query        string
	MaxRate      float64
	Sort         SortOption
	Limit        int
	Random       bool

	// RequireSkills marks the skill-filtered search entry point where an
	// empty filter is a validation error rather than "no filter".
	RequireSkills bool
}

// HasCoordinates reports whether explicit coordinates are present.
func (q SearchQuery) HasCoordinates() bool { return q.Lat != nil && q.Lng != nil }

// SearchResult is one worker in a search response. DistanceKm is only set
// when the searcher location was known.
type SearchResult struct {
	WorkerID        string   `json:"worker_id"`
	Name            string   `json:"name"`
	Skills          []string `json:"skills"`
	Rating          float64  `json:"rating"`
	TotalReviews    int      `json:"total_reviews"`
	ExperienceYears int      `json:"experience_years"`
	PricePerService float64  `json:"price_per_service"`
	PayType         PayType  `json:"pay_type"`
	ServiceRadiusKm int      `json:"service_radius_km"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
}

// SearchResponse wraps the ordered results plus their count.
type SearchResponse struct {
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}
