package platinumlist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"platinumlist-scraper/config"
	"platinumlist-scraper/models"
	"platinumlist-scraper/services"
	"platinumlist-scraper/utils"
)

// fakeDriver serves canned pages: links per listing URL, content per detail
// URL. Unknown listing pages return no links (ends pagination).
type fakeDriver struct {
	links   map[string][]string
	content map[string]services.PageContent
	failing map[string]bool
}

func (d *fakeDriver) CollectLinks(_ context.Context, pageURL string) ([]string, error) {
	if d.failing[pageURL] {
		return nil, errors.New("navigation timeout")
	}
	return d.links[pageURL], nil
}

func (d *fakeDriver) FetchContent(_ context.Context, pageURL string) (services.PageContent, error) {
	if d.failing[pageURL] {
		return services.PageContent{}, errors.New("navigation timeout")
	}
	c, ok := d.content[pageURL]
	if !ok {
		return services.PageContent{}, fmt.Errorf("no such page: %s", pageURL)
	}
	return c, nil
}

func (d *fakeDriver) Close() {}

// recordingStore counts inserts and updates per key and replays a canned
// active-key set for the sweep.
type recordingStore struct {
	inserts     map[string]int
	updates     map[string]int
	active      []string
	deactivated [][]string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		inserts: make(map[string]int),
		updates: make(map[string]int),
	}
}

func (s *recordingStore) Upsert(_ context.Context, l *models.Listing) error {
	key := l.Source + "|" + l.OriginalURL
	if s.inserts[key] == 0 {
		s.inserts[key]++
	} else {
		s.updates[key]++
	}
	return nil
}

func (s *recordingStore) ActiveKeys(_ context.Context, _ string) ([]string, error) {
	return s.active, nil
}

func (s *recordingStore) Deactivate(_ context.Context, _ string, keys []string) error {
	batch := make([]string, len(keys))
	copy(batch, keys)
	s.deactivated = append(s.deactivated, batch)
	return nil
}

func (s *recordingStore) Close() error { return nil }

func detailContent(title string) services.PageContent {
	html := fmt.Sprintf(`<html><head><meta property="og:title" content="%s"></head>
		<body><h1>%s</h1></body></html>`, title, title)
	return services.PageContent{HTML: html, Text: title + " BD 5"}
}

func testConfig() *config.Config {
	return &config.Config{
		AffiliateCode: "test",
		RateLimitMs:   0,
		SettleDelayMs: 0,
		MaxPages:      1,
		SweepBatch:    100,
	}
}

func testSource(categories ...string) models.Source {
	return models.Source{
		Name:         "platinumlist",
		Type:         models.EntityAttraction,
		CategoryURLs: categories,
		LinkPattern:  "/event-tickets/",
		ExcludePatterns: []string{
			"/concerts/",
		},
	}
}

const detailBase = "https://bahrain.platinumlist.net/event-tickets/"

func TestRunEndToEnd(t *testing.T) {
	// 3 categories contribute 6 raw URLs, one of which appears under two
	// categories: 5 unique detail pages.
	shared := detailBase + "a1"
	driver := &fakeDriver{
		links: map[string][]string{
			"cat1": {shared, detailBase + "a2"},
			"cat2": {detailBase + "b1", detailBase + "b2"},
			"cat3": {detailBase + "c1", shared},
		},
		content: map[string]services.PageContent{},
	}
	for _, u := range []string{"a1", "a2", "b1", "b2", "c1"} {
		driver.content[detailBase+u] = detailContent("Listing " + u)
	}

	store := newRecordingStore()
	p := NewPipeline(testConfig(), driver, store, nil, utils.NewLogger())

	summary := p.Run(context.Background(), []models.Source{testSource("cat1", "cat2", "cat3")})

	if summary.TotalScraped != 5 {
		t.Errorf("TotalScraped = %d; want 5", summary.TotalScraped)
	}
	if summary.TotalUpserted != 5 {
		t.Errorf("TotalUpserted = %d; want 5", summary.TotalUpserted)
	}
	if !summary.Success {
		t.Errorf("run should succeed, errors: %v", summary.Errors)
	}
	if len(store.inserts) != 5 {
		t.Errorf("store saw %d distinct keys; want 5", len(store.inserts))
	}
	if n := store.updates["platinumlist|"+shared]; n != 0 {
		t.Errorf("shared URL written twice within one run (updates=%d)", n)
	}
}

func TestRunUpsertSameKeyTwice(t *testing.T) {
	// Two runs resolving the same original_url: one insert then one update.
	url := detailBase + "repeat"
	driver := &fakeDriver{
		links:   map[string][]string{"cat": {url}},
		content: map[string]services.PageContent{url: detailContent("Repeat")},
	}
	store := newRecordingStore()
	p := NewPipeline(testConfig(), driver, store, nil, utils.NewLogger())

	src := testSource("cat")
	p.Run(context.Background(), []models.Source{src})
	p.Run(context.Background(), []models.Source{src})

	key := "platinumlist|" + url
	if store.inserts[key] != 1 {
		t.Errorf("inserts for %s = %d; want 1", key, store.inserts[key])
	}
	if store.updates[key] != 1 {
		t.Errorf("updates for %s = %d; want 1", key, store.updates[key])
	}
}

func TestRunSkipsFailedDetailPages(t *testing.T) {
	good := detailBase + "good"
	bad := detailBase + "bad"
	untitled := detailBase + "untitled"

	driver := &fakeDriver{
		links: map[string][]string{"cat": {good, bad, untitled}},
		content: map[string]services.PageContent{
			good:     detailContent("Good Listing"),
			untitled: {HTML: "<html><body></body></html>", Text: ""},
		},
		failing: map[string]bool{bad: true},
	}
	store := newRecordingStore()
	p := NewPipeline(testConfig(), driver, store, nil, utils.NewLogger())

	summary := p.Run(context.Background(), []models.Source{testSource("cat")})

	if summary.TotalScraped != 1 {
		t.Errorf("TotalScraped = %d; want 1", summary.TotalScraped)
	}
	if len(summary.Errors) != 2 {
		t.Errorf("errors = %v; want 2 entries", summary.Errors)
	}
	if !summary.Success {
		t.Error("partial failures must not fail the run")
	}
}

func TestRunContinuesAfterCategoryFailure(t *testing.T) {
	ok := detailBase + "ok"
	driver := &fakeDriver{
		links: map[string][]string{
			"cat-ok": {ok},
		},
		content: map[string]services.PageContent{ok: detailContent("OK")},
		failing: map[string]bool{"cat-down": true},
	}
	store := newRecordingStore()
	p := NewPipeline(testConfig(), driver, store, nil, utils.NewLogger())

	summary := p.Run(context.Background(), []models.Source{testSource("cat-down", "cat-ok")})

	if summary.TotalScraped != 1 {
		t.Errorf("TotalScraped = %d; want 1", summary.TotalScraped)
	}
}

func TestSweepBatching(t *testing.T) {
	// 10 previously active keys, 7 seen this run: exactly 3 deactivated,
	// split into batches of 2.
	driver := &fakeDriver{
		links:   map[string][]string{"cat": nil},
		content: map[string]services.PageContent{},
	}
	store := newRecordingStore()
	for i := 0; i < 10; i++ {
		store.active = append(store.active, fmt.Sprintf("%sk%d", detailBase, i))
	}
	for i := 0; i < 7; i++ {
		u := fmt.Sprintf("%sk%d", detailBase, i)
		driver.links["cat"] = append(driver.links["cat"], u)
		driver.content[u] = detailContent(fmt.Sprintf("Listing %d", i))
	}

	cfg := testConfig()
	cfg.SweepBatch = 2
	p := NewPipeline(cfg, driver, store, nil, utils.NewLogger())

	summary := p.Run(context.Background(), []models.Source{testSource("cat")})

	if summary.TotalDeactivated != 3 {
		t.Errorf("TotalDeactivated = %d; want 3", summary.TotalDeactivated)
	}
	if len(store.deactivated) != 2 {
		t.Fatalf("sweep issued %d batches; want 2", len(store.deactivated))
	}
	if len(store.deactivated[0]) != 2 || len(store.deactivated[1]) != 1 {
		t.Errorf("batch sizes = %d,%d; want 2,1",
			len(store.deactivated[0]), len(store.deactivated[1]))
	}
}

func TestListingFieldsPopulated(t *testing.T) {
	url := detailBase + "wahooo-waterpark"
	driver := &fakeDriver{
		links: map[string][]string{"cat": {url}},
		content: map[string]services.PageContent{
			url: detailContent("Wahooo Waterpark Day Pass"),
		},
	}
	store := newRecordingStore()
	p := NewPipeline(testConfig(), driver, store, nil, utils.NewLogger())

	listing, err := p.processURL(context.Background(), testSource("cat"), url)
	if err != nil {
		t.Fatalf("processURL: %v", err)
	}

	if listing.Slug != "wahooo-waterpark-day-pass" {
		t.Errorf("slug = %q", listing.Slug)
	}
	if listing.Category != "waterparks" {
		t.Errorf("category = %q", listing.Category)
	}
	if listing.Price != 5 {
		t.Errorf("price = %.3f; want 5", listing.Price)
	}
	if listing.PriceCurrency != "BHD" {
		t.Errorf("currency = %q", listing.PriceCurrency)
	}
	if !listing.IsActive {
		t.Error("fresh listing must be active")
	}
	if listing.AffiliateURL == "" || listing.OriginalURL != url {
		t.Errorf("url fields: affiliate=%q original=%q", listing.AffiliateURL, listing.OriginalURL)
	}
}
