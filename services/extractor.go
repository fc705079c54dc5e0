package services

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageContent is the already-evaluated content of a rendered detail page.
// The browser driver produces it; the extractor never touches a live page.
type PageContent struct {
	URL  string
	HTML string
	Text string
}

// Fields holds the best-effort values extracted from one detail page. Any
// field may be empty; a missing title is the caller's skip condition.
type Fields struct {
	Title       string
	Description string
	ImageURL    string
	Venue       string
	Location    string
	Price       float64
	IsSoldOut   bool
}

// defaultVenue is the placeholder used when a page names no venue.
const defaultVenue = "Bahrain"

// titleSelectors, imageSelectors and venueSelectors are the ordered CSS
// fallback chains tried after the meta tags.
var (
	titleSelectors = []string{
		"h1.event-title",
		"h1[itemprop=name]",
		"h1",
	}
	imageSelectors = []string{
		"img.event-poster",
		".event-header img",
		"[itemprop=image]",
	}
	venueSelectors = []string{
		".venue-name",
		"[itemprop=location] [itemprop=name]",
		".event-venue a",
	}
	descSelectors = []string{
		".event-description",
		"[itemprop=description]",
	}
)

// bannedImageWords are filename fragments that disqualify a fallback image.
var bannedImageWords = []string{"promo", "banner", "logo", "icon"}

// Extract derives structured fields from rendered page content. Each field
// is extracted independently through its fallback chain; a field that cannot
// be extracted yields its zero/default value rather than an error.
func Extract(page PageContent) Fields {
	f := Fields{Venue: defaultVenue, Location: defaultVenue}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		// Unparseable markup still allows text-only fields.
		f.Price, f.IsSoldOut = ParsePrice(page.Text)
		return f
	}

	f.Title = extractTitle(doc)
	f.Description = extractDescription(doc)
	f.ImageURL = extractImage(doc)

	if v := firstText(doc, venueSelectors); v != "" {
		f.Venue = v
		f.Location = v
	}

	f.Price, f.IsSoldOut = ParsePrice(page.Text)
	return f
}

func extractTitle(doc *goquery.Document) string {
	if v := metaContent(doc, "og:title"); v != "" {
		return v
	}
	if v := firstText(doc, titleSelectors); v != "" {
		return v
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if v := metaContent(doc, "og:description"); v != "" {
		return v
	}
	if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v := firstText(doc, descSelectors); v != "" {
		return v
	}

	// Last resort: first reasonably long paragraph.
	var out string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if len(t) > 60 {
			out = t
			return false
		}
		return true
	})
	return out
}

func extractImage(doc *goquery.Document) string {
	if v := metaContent(doc, "og:image"); v != "" {
		return v
	}

	for _, sel := range imageSelectors {
		if src, ok := doc.Find(sel).First().Attr("src"); ok && strings.TrimSpace(src) != "" {
			return strings.TrimSpace(src)
		}
	}

	// Fallback: first wide image that is not site furniture.
	var out string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok || src == "" {
			return true
		}
		lower := strings.ToLower(src)
		for _, word := range bannedImageWords {
			if strings.Contains(lower, word) {
				return true
			}
		}
		w, _ := s.Attr("width")
		if n, err := strconv.Atoi(w); err != nil || n <= 300 {
			return true
		}
		out = src
		return false
	})
	return out
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).Attr("content")
	return strings.TrimSpace(v)
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}
