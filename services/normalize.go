package services

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	// usdToBHD is the fixed conversion rate applied when a price is quoted
	// in US dollars. Listing prices are stored in BHD.
	usdToBHD = 0.376

	affiliateBase = "https://platinumlist.net/aff/"
)

var (
	// priceRegexp captures a decimal amount next to a currency marker.
	priceRegexp = regexp.MustCompile(`(?i)(USD|US\$|\$|BHD|BD)\s*([\d,]+(?:\.\d+)?)`)

	slugStrip   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugHyphens = regexp.MustCompile(`[\s-]+`)
)

// CreateSlug derives a URL-safe identifier from a title: lowercased,
// non-alphanumerics stripped, whitespace collapsed to single hyphens,
// no leading/trailing hyphen. Idempotent on its own output.
func CreateSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// AffiliateLink wraps an original listing URL with the outbound tracking
// reference. The format is consumed byte-for-byte by downstream affiliate
// attribution and must not change.
func AffiliateLink(originalURL, affiliateCode string) string {
	return affiliateBase + "?ref=" + affiliateCode + "&link=" + url.QueryEscape(originalURL)
}

// ParsePrice extracts a price in BHD from free text. USD amounts are
// converted at the fixed rate and rounded to 2 decimals. Text indicating a
// sold-out state yields (0, true). Unparseable input yields (0, false);
// the result is never negative.
func ParsePrice(text string) (float64, bool) {
	if IsSoldOut(text) {
		return 0, true
	}

	m := priceRegexp.FindStringSubmatch(text)
	if len(m) < 3 {
		return 0, false
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil || amount < 0 {
		return 0, false
	}

	marker := strings.ToUpper(m[1])
	if marker == "USD" || marker == "US$" || marker == "$" {
		amount = round2(amount * usdToBHD)
	} else {
		amount = round2(amount)
	}
	return amount, false
}

// IsSoldOut reports whether the page text indicates the listing cannot be
// booked.
func IsSoldOut(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "sold out") || strings.Contains(t, "soldout")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
