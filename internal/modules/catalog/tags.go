package catalog

import "strings"

// The storefront team tags products with an "sb-" prefix to mark them for
// the box builder. Spellings drifted over time (English and Spanish), so
// eligibility matches a fixed allow-list, case-insensitively.

var eligibilityTags = map[string]struct{}{
	"sb-subscription":  {},
	"sb-subscriptions": {},
	"sb-subscripcion":  {},
	"sb-suscripcion":   {},
	"sb-suscripciones": {},
}

var bestSellerTags = map[string]struct{}{
	"sb-best-seller":  {},
	"sb-best-sellers": {},
	"sb-bestseller":   {},
	"sb-mas-vendido":  {},
}

// Tags marking a product as a free end-of-wizard add-on.
var oneTimeOfferTags = map[string]struct{}{
	"sb-one-time-offer": {},
	"sb-oto":            {},
	"sb-oferta-unica":   {},
}

// categoryTagPrefix is matched case-sensitively: the admin tagging UI emits
// it verbatim and a lowercased variant would hide a typo instead of
// surfacing it.
const categoryTagPrefix = "sb-category-"

// BestSellersKey is the synthetic category every catalog carries.
const BestSellersKey = "best-sellers"

func IsEligible(tags []string) bool {
	for _, t := range tags {
		if _, ok := eligibilityTags[strings.ToLower(strings.TrimSpace(t))]; ok {
			return true
		}
	}
	return false
}

func IsBestSeller(tags []string) bool {
	for _, t := range tags {
		if _, ok := bestSellerTags[strings.ToLower(strings.TrimSpace(t))]; ok {
			return true
		}
	}
	return false
}

func IsOneTimeOffer(tags []string) bool {
	for _, t := range tags {
		if _, ok := oneTimeOfferTags[strings.ToLower(strings.TrimSpace(t))]; ok {
			return true
		}
	}
	return false
}

// CategoryRef is one parsed sb-category tag: the key with any ordering
// suffix stripped, plus the position the suffix carried (0 when absent).
type CategoryRef struct {
	Key      string
	Position int
}

// ParseCategoryTags extracts category references from a product's tag list.
// A tag like "sb-category-Steaks-#1" yields {Key: "Steaks", Position: 1};
// "sb-category-BBQ" yields {Key: "BBQ", Position: 0}.
func ParseCategoryTags(tags []string) []CategoryRef {
	var refs []CategoryRef
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if !strings.HasPrefix(t, categoryTagPrefix) {
			continue
		}
		name := t[len(categoryTagPrefix):]
		if name == "" {
			continue
		}
		key, pos := splitPositionSuffix(name)
		if key == "" {
			continue
		}
		refs = append(refs, CategoryRef{Key: key, Position: pos})
	}
	return refs
}

// splitPositionSuffix strips a trailing "-#<N>" ordering suffix.
func splitPositionSuffix(name string) (string, int) {
	i := strings.LastIndex(name, "-#")
	if i < 0 {
		return name, 0
	}
	digits := name[i+2:]
	if digits == "" {
		return name, 0
	}
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return name, 0
		}
		n = n*10 + int(r-'0')
	}
	return name[:i], n
}

// DisplayTitle derives the shopper-facing category name from its key:
// dashes and underscores become spaces, each word is title-cased.
func DisplayTitle(key string) string {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
