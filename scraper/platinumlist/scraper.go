package platinumlist

import (
	"context"
	"fmt"
	"time"

	"platinumlist-scraper/config"
	"platinumlist-scraper/models"
	"platinumlist-scraper/services"
	"platinumlist-scraper/storage"
	"platinumlist-scraper/utils"
)

const priceCurrency = "BHD"

// ImageProcessor derives and uploads image variants for a listing, updating
// its image fields in place. Failures are soft and internal to the processor.
type ImageProcessor interface {
	Process(ctx context.Context, l *models.Listing)
}

// Pipeline runs the full crawl-extract-upsert sequence for a set of sources.
// Strictly sequential: one navigation or store call in flight at a time.
type Pipeline struct {
	driver PageDriver
	store  storage.ListingStore
	images ImageProcessor
	logger *utils.Logger

	affiliateCode string
	rateLimit     time.Duration
	maxPages      int
	sweepBatch    int
}

// NewPipeline wires a Pipeline from its collaborators. images may be nil to
// skip image processing entirely.
func NewPipeline(cfg *config.Config, driver PageDriver, store storage.ListingStore,
	images ImageProcessor, logger *utils.Logger) *Pipeline {

	sweepBatch := cfg.SweepBatch
	if sweepBatch <= 0 {
		sweepBatch = 100
	}

	return &Pipeline{
		driver:        driver,
		store:         store,
		images:        images,
		logger:        logger,
		affiliateCode: cfg.AffiliateCode,
		rateLimit:     time.Duration(cfg.RateLimitMs) * time.Millisecond,
		maxPages:      cfg.MaxPages,
		sweepBatch:    sweepBatch,
	}
}

// Run executes the pipeline over all sources and returns the run summary.
// Per-URL and per-category failures are absorbed into counters; anything
// that escapes the inner steps is caught here, recorded, and reflected in
// Success. This is the only crash-containment boundary.
func (p *Pipeline) Run(ctx context.Context, sources []models.Source) (summary models.RunSummary) {
	start := time.Now()
	summary.Success = true
	summary.Errors = []string{}

	defer func() {
		if r := recover(); r != nil {
			summary.Success = false
			summary.Errors = append(summary.Errors, fmt.Sprintf("unexpected failure: %v", r))
			p.logger.Error("[run] Unexpected failure: %v", r)
		}
		summary.Duration = time.Since(start).String()
	}()

	for _, src := range sources {
		p.logger.Info("[run] Source %s: %d category pages", src.Name, len(src.CategoryURLs))

		urls := p.collectLinks(ctx, src)
		seen := utils.NewURLSet()

		for _, u := range urls {
			listing, err := p.processURL(ctx, src, u)
			if err != nil {
				summary.Errors = append(summary.Errors, err.Error())
				p.logger.Warn("[run] %v", err)
				p.sleep(ctx)
				continue
			}

			summary.TotalScraped++
			seen.Add(listing.OriginalURL)

			if err := p.store.Upsert(ctx, listing); err != nil {
				summary.Errors = append(summary.Errors, err.Error())
				p.logger.Warn("[run] Upsert failed: %v", err)
			} else {
				summary.TotalUpserted++
				p.logger.Debug("[run] Upserted %s (%s)", listing.Slug, listing.Category)
			}

			p.sleep(ctx)
		}

		deactivated, errs := p.sweep(ctx, src, seen)
		summary.TotalDeactivated += deactivated
		summary.Errors = append(summary.Errors, errs...)
	}

	if len(summary.Errors) > 0 && summary.TotalUpserted == 0 {
		summary.Success = false
	}

	p.logger.Info("[run] Done — scraped %d, upserted %d, deactivated %d, errors %d",
		summary.TotalScraped, summary.TotalUpserted, summary.TotalDeactivated, len(summary.Errors))
	return summary
}

// processURL fetches one detail page and builds its normalized listing.
// A missing title is a skip condition, not a partial record.
func (p *Pipeline) processURL(ctx context.Context, src models.Source, url string) (*models.Listing, error) {
	content, err := p.driver.FetchContent(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	fields := services.Extract(content)
	if fields.Title == "" {
		return nil, fmt.Errorf("skip %s: no title", url)
	}

	listing := &models.Listing{
		Title:         fields.Title,
		Slug:          services.CreateSlug(fields.Title),
		Description:   fields.Description,
		Price:         fields.Price,
		PriceCurrency: priceCurrency,
		ImageURL:      fields.ImageURL,
		Venue:         fields.Venue,
		Location:      fields.Location,
		Category:      services.Classify(url, fields.Title, fields.Description),
		Type:          src.Type,
		OriginalURL:   url,
		AffiliateURL:  services.AffiliateLink(url, p.affiliateCode),
		Source:        src.Name,
		IsSoldOut:     fields.IsSoldOut,
		IsActive:      true,
		ScrapedAt:     time.Now(),
	}

	if p.images != nil {
		p.images.Process(ctx, listing)
	}

	return listing, nil
}

// sweep deactivates previously active keys not seen in this run, in
// fixed-size batches. A failed batch is logged and counted; later batches
// still run.
func (p *Pipeline) sweep(ctx context.Context, src models.Source, seen *utils.URLSet) (int, []string) {
	active, err := p.store.ActiveKeys(ctx, src.Name)
	if err != nil {
		p.logger.Warn("[sweep] %s: listing active keys failed: %v", src.Name, err)
		return 0, []string{err.Error()}
	}

	var stale []string
	for _, key := range active {
		if !seen.Contains(key) {
			stale = append(stale, key)
		}
	}
	if len(stale) == 0 {
		p.logger.Info("[sweep] %s: nothing to deactivate", src.Name)
		return 0, nil
	}

	var deactivated int
	var errs []string
	for start := 0; start < len(stale); start += p.sweepBatch {
		end := start + p.sweepBatch
		if end > len(stale) {
			end = len(stale)
		}
		batch := stale[start:end]

		if err := p.store.Deactivate(ctx, src.Name, batch); err != nil {
			p.logger.Warn("[sweep] %s: batch failed: %v", src.Name, err)
			errs = append(errs, err.Error())
			continue
		}
		deactivated += len(batch)
	}

	p.logger.Info("[sweep] %s: deactivated %d stale listings", src.Name, deactivated)
	return deactivated, errs
}

// sleep applies the fixed inter-request delay, returning early if the run
// context is cancelled.
func (p *Pipeline) sleep(ctx context.Context) {
	if p.rateLimit <= 0 {
		return
	}
	select {
	case <-time.After(p.rateLimit):
	case <-ctx.Done():
	}
}
