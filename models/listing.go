package models

import "time"

// EntityType describes what kind of thing a listing represents.
type EntityType string

const (
	EntityAttraction EntityType = "attraction"
	EntityTour       EntityType = "tour"
	EntityEvent      EntityType = "event"
)

// Listing is the normalized record produced for one detail page. It is built
// fresh on every run and never mutated after being handed to the store.
type Listing struct {
	Title         string
	Slug          string
	Description   string
	Price         float64
	PriceCurrency string
	ImageURL      string
	CoverURL      string
	Venue         string
	Location      string
	Category      string
	Type          EntityType
	OriginalURL   string
	AffiliateURL  string
	Source        string
	IsSoldOut     bool
	IsActive      bool
	ScrapedAt     time.Time
}

// RunSummary is the final report of a pipeline run, printed as JSON and
// reflected in the process exit code.
type RunSummary struct {
	Success          bool     `json:"success"`
	TotalScraped     int      `json:"totalScraped"`
	TotalUpserted    int      `json:"totalUpserted"`
	TotalDeactivated int      `json:"totalDeactivated"`
	Errors           []string `json:"errors"`
	Duration         string   `json:"duration"`
}
