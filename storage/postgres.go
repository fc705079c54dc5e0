package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"platinumlist-scraper/models"
)

// PostgresStore persists listings to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs schema migration, and returns a
// ready-to-use store.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id             SERIAL PRIMARY KEY,
			source         VARCHAR(64)   NOT NULL,
			title          TEXT          NOT NULL,
			slug           TEXT          NOT NULL,
			description    TEXT          NOT NULL DEFAULT '',
			price          NUMERIC(10,3) NOT NULL DEFAULT 0,
			price_currency VARCHAR(8)    NOT NULL DEFAULT 'BHD',
			image_url      TEXT          NOT NULL DEFAULT '',
			cover_url      TEXT          NOT NULL DEFAULT '',
			venue          TEXT          NOT NULL DEFAULT '',
			location       TEXT          NOT NULL DEFAULT '',
			category       VARCHAR(32)   NOT NULL,
			type           VARCHAR(16)   NOT NULL,
			original_url   TEXT          NOT NULL,
			affiliate_url  TEXT          NOT NULL DEFAULT '',
			is_sold_out    BOOLEAN       NOT NULL DEFAULT FALSE,
			is_active      BOOLEAN       NOT NULL DEFAULT TRUE,
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (source, original_url)
		);

		CREATE INDEX IF NOT EXISTS idx_listings_source_active ON listings(source, is_active);
		CREATE INDEX IF NOT EXISTS idx_listings_category      ON listings(category);
		CREATE INDEX IF NOT EXISTS idx_listings_slug          ON listings(slug);
	`)
	return err
}

// Upsert inserts the listing or, on conflict with an existing
// (source, original_url) row, updates it in place.
func (ps *PostgresStore) Upsert(ctx context.Context, l *models.Listing) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO listings (
			source, title, slug, description, price, price_currency,
			image_url, cover_url, venue, location, category, type,
			original_url, affiliate_url, is_sold_out, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (source, original_url) DO UPDATE SET
			title          = EXCLUDED.title,
			slug           = EXCLUDED.slug,
			description    = EXCLUDED.description,
			price          = EXCLUDED.price,
			price_currency = EXCLUDED.price_currency,
			image_url      = EXCLUDED.image_url,
			cover_url      = EXCLUDED.cover_url,
			venue          = EXCLUDED.venue,
			location       = EXCLUDED.location,
			category       = EXCLUDED.category,
			type           = EXCLUDED.type,
			affiliate_url  = EXCLUDED.affiliate_url,
			is_sold_out    = EXCLUDED.is_sold_out,
			is_active      = TRUE,
			updated_at     = NOW()
	`,
		l.Source, l.Title, l.Slug, l.Description, l.Price, l.PriceCurrency,
		l.ImageURL, l.CoverURL, l.Venue, l.Location, l.Category, string(l.Type),
		l.OriginalURL, l.AffiliateURL, l.IsSoldOut, l.IsActive,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert %s: %w", l.OriginalURL, err)
	}
	return nil
}

// ActiveKeys returns the original URLs of all currently active rows for the
// given source.
func (ps *PostgresStore) ActiveKeys(ctx context.Context, source string) ([]string, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT original_url FROM listings
		WHERE source = $1 AND is_active = TRUE
	`, source)
	if err != nil {
		return nil, fmt.Errorf("postgres: active keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("postgres: scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Deactivate flags the given keys inactive for a source. Callers batch the
// key list; this issues a single statement per call.
func (ps *PostgresStore) Deactivate(ctx context.Context, source string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := ps.db.ExecContext(ctx, `
		UPDATE listings
		SET is_active = FALSE, updated_at = NOW()
		WHERE source = $1 AND is_active = TRUE AND original_url = ANY($2)
	`, source, pq.Array(keys))
	if err != nil {
		return fmt.Errorf("postgres: deactivate batch of %d: %w", len(keys), err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
