package platinumlist

import (
	"context"
	"fmt"
	"strings"

	"platinumlist-scraper/models"
	"platinumlist-scraper/utils"
)

// maxCategoryPages caps pagination per category page; beyond this the site
// only serves repeats.
const maxCategoryPages = 10

// collectLinks gathers detail-page URLs for one source: every configured
// category page, paginated ascending until an empty page or the cap. A
// category failure contributes zero URLs and the run continues. The result
// is de-duplicated across categories, in discovery order.
func (p *Pipeline) collectLinks(ctx context.Context, src models.Source) []string {
	seen := utils.NewURLSet()
	var ordered []string

	maxPages := p.maxPages
	if maxPages <= 0 || maxPages > maxCategoryPages {
		maxPages = maxCategoryPages
	}

	for _, categoryURL := range src.CategoryURLs {
		for page := 1; page <= maxPages; page++ {
			pageURL := categoryURL
			if page > 1 {
				pageURL = fmt.Sprintf("%s?page=%d", categoryURL, page)
			}

			hrefs, err := p.driver.CollectLinks(ctx, pageURL)
			if err != nil {
				p.logger.Warn("[collect] %s failed: %v", pageURL, err)
				break
			}

			matched := FilterLinks(hrefs, src.LinkPattern, src.ExcludePatterns)
			if len(matched) == 0 {
				p.logger.Debug("[collect] %s page %d empty — stopping pagination", categoryURL, page)
				break
			}

			for _, u := range matched {
				if seen.Add(u) {
					ordered = append(ordered, u)
				}
			}

			p.logger.Debug("[collect] %s page %d: %d matching links (%d unique so far)",
				categoryURL, page, len(matched), seen.Size())
			p.sleep(ctx)
		}
	}

	p.logger.Info("[collect] %s: %d unique detail URLs", src.Name, len(ordered))
	return ordered
}

// FilterLinks keeps hrefs containing pattern and drops any containing an
// excluded path fragment.
func FilterLinks(hrefs []string, pattern string, exclude []string) []string {
	var out []string
	for _, href := range hrefs {
		if !strings.Contains(href, pattern) {
			continue
		}
		if hasExcluded(href, exclude) {
			continue
		}
		out = append(out, href)
	}
	return out
}

func hasExcluded(href string, exclude []string) bool {
	for _, e := range exclude {
		if strings.Contains(href, e) {
			return true
		}
	}
	return false
}
