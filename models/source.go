package models

// Source describes one configured scrape target: a set of category listing
// pages on the ticketing site plus the rules for recognizing detail links.
// The attractions and experiences crawls are the same pipeline run against
// two different Source values.
type Source struct {
	// Name tags persisted rows; part of the upsert conflict key.
	Name string

	// Type is assigned to every listing produced from this source.
	Type EntityType

	// CategoryURLs are the listing pages to collect detail links from,
	// processed in order.
	CategoryURLs []string

	// LinkPattern is the substring a detail-page href must contain.
	LinkPattern string

	// ExcludePatterns drop hrefs for content types this source does not
	// cover (concert/theatre/sport pages share the same link shape).
	ExcludePatterns []string
}

// DefaultSources returns the two production crawl targets.
func DefaultSources() []Source {
	return []Source{
		{
			Name: "platinumlist",
			Type: EntityAttraction,
			CategoryURLs: []string{
				"https://bahrain.platinumlist.net/attractions",
				"https://bahrain.platinumlist.net/theme-parks",
				"https://bahrain.platinumlist.net/things-to-do",
			},
			LinkPattern: "platinumlist.net/event-tickets/",
			ExcludePatterns: []string{
				"/concerts/",
				"/theatre/",
				"/sports/",
				"/comedy/",
				"/festivals/",
			},
		},
		{
			Name: "platinumlist-experiences",
			Type: EntityTour,
			CategoryURLs: []string{
				"https://bahrain.platinumlist.net/experiences",
				"https://bahrain.platinumlist.net/tours",
			},
			LinkPattern: "platinumlist.net/event-tickets/",
			ExcludePatterns: []string{
				"/concerts/",
				"/theatre/",
				"/sports/",
				"/comedy/",
				"/festivals/",
			},
		},
	}
}
