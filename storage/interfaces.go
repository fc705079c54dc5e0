package storage

import (
	"context"

	"platinumlist-scraper/models"
)

// ListingStore is the persistence backend the pipeline writes to.
type ListingStore interface {
	// Upsert inserts or updates one listing keyed by (source, original_url).
	Upsert(ctx context.Context, l *models.Listing) error

	// ActiveKeys returns the original URLs of rows currently active for a
	// source; the staleness sweep diffs these against the run's seen set.
	ActiveKeys(ctx context.Context, source string) ([]string, error)

	// Deactivate marks the given keys inactive for a source.
	Deactivate(ctx context.Context, source string, keys []string) error

	Close() error
}

// ObjectUploader stores derived image bytes and returns a public URL.
type ObjectUploader interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
}
