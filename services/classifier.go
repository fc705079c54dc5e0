package services

import "strings"

// DefaultCategory is assigned when no classification rule matches.
const DefaultCategory = "attractions"

// categoryRule maps keyword substrings to a category label. Rules are
// evaluated in order; the first match wins.
type categoryRule struct {
	label    string
	keywords []string
}

// categoryRules is the fixed, ordered rule chain. Order matters: more
// specific labels come first (a "waterpark tour" is a waterpark).
var categoryRules = []categoryRule{
	{"waterparks", []string{"waterpark", "water-park", "water park", "aqua park", "wave pool"}},
	{"theme-parks", []string{"theme-park", "theme park", "amusement", "funfair", "rides"}},
	{"museums", []string{"museum", "exhibition", "heritage", "gallery"}},
	{"zoos-aquariums", []string{"aquarium", "zoo", "safari", "wildlife"}},
	{"shows", []string{"show", "circus", "magic", "illusion", "cabaret"}},
	{"tours", []string{"tour", "cruise", "sightseeing", "boat trip", "excursion"}},
	{"dining", []string{"dinner", "brunch", "dining", "restaurant", "iftar"}},
	{"adventure", []string{"karting", "go-kart", "skydiv", "zipline", "paintball", "escape room", "trampoline"}},
	{"wellness", []string{"spa", "massage", "hammam", "wellness"}},
}

// Categories returns the closed set of labels the classifier can produce.
func Categories() []string {
	out := make([]string, 0, len(categoryRules)+1)
	for _, r := range categoryRules {
		out = append(out, r.label)
	}
	return append(out, DefaultCategory)
}

// Classify maps a listing URL fragment plus free text to a category label.
// Deterministic: ties resolve by rule order, and the result is always a
// member of Categories().
func Classify(urlFragment, title, description string) string {
	haystack := strings.ToLower(urlFragment + " " + title + " " + description)

	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.label
			}
		}
	}
	return DefaultCategory
}
