package catalog

import (
	"strings"
	"unicode"
)

var domainTags = map[Category]string{
	CategoryZodiac:     "#astrology",
	CategoryTarot:      "#tarot",
	CategoryLunar:      "#moonphases",
	CategoryPlanetary:  "#astrology",
	CategoryCrystals:   "#crystals",
	CategoryNumerology: "#numerology",
	CategoryChakras:    "#chakras",
	CategorySabbat:     "#wheeloftheyear",
}

var categoryTags = map[Category]string{
	CategoryZodiac:     "#zodiac",
	CategoryTarot:      "#tarotreading",
	CategoryLunar:      "#lunarcycle",
	CategoryPlanetary:  "#planets",
	CategoryCrystals:   "#crystalhealing",
	CategoryNumerology: "#angelnumbers",
	CategoryChakras:    "#energyhealing",
	CategorySabbat:     "#paganholidays",
}

var fallbackTags = []string{"#spirituality", "#witchcraft", "#cosmicwisdom"}

// Hashtags is the three-layer tag set for a facet.
type Hashtags struct {
	Domain string
	Topic  string
	Third  string
}

// HashtagsFor builds domain, topic and category tags, replacing the third
// tag with a fallback when it collides with the other two.
func HashtagsFor(category Category, facetTitle string) Hashtags {
	domain := domainTags[category]
	if domain == "" {
		domain = "#astrology"
	}
	topic := topicTag(facetTitle)
	third := categoryTags[category]
	if third == "" || third == domain || third == topic {
		third = ""
		for _, tag := range fallbackTags {
			if tag != domain && tag != topic {
				third = tag
				break
			}
		}
	}
	return Hashtags{Domain: domain, Topic: topic, Third: third}
}

// ForPlatform returns the tags a platform carries: twitter gets two,
// threads none, everything else all three.
func (h Hashtags) ForPlatform(platform string) []string {
	all := make([]string, 0, 3)
	for _, tag := range []string{h.Domain, h.Topic, h.Third} {
		if tag != "" {
			all = append(all, tag)
		}
	}
	switch platform {
	case "threads":
		return nil
	case "twitter":
		if len(all) > 2 {
			return all[:2]
		}
	}
	return all
}

func topicTag(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "#" + b.String()
}
