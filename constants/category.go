package constants

import (
	"strings"
)

// ExpenseCategory is the fixed taxonomy for analyzed documents.
type ExpenseCategory string

const (
	OfficeSupplies ExpenseCategory = "Office Supplies"
	Travel         ExpenseCategory = "Travel"
	Meals          ExpenseCategory = "Meals & Entertainment"
	Equipment      ExpenseCategory = "Equipment"
	Software       ExpenseCategory = "Software"
	Other          ExpenseCategory = "Other"
)

var allCategories = []ExpenseCategory{
	OfficeSupplies,
	Travel,
	Meals,
	Equipment,
	Software,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a label onto the taxonomy. Matching is exact modulo
// case and surrounding whitespace; anything else collapses to Other, and
// the second return reports whether the input matched.
func Canonicalize(input string) (ExpenseCategory, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Other, false
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}

// itemKeywordSets drives line-item category derivation when the model omits
// one. Order matters: the first set with a hit wins.
var itemKeywordSets = []struct {
	category string
	terms    []string
}{
	{"Computer Hardware", []string{"ram", "memory", "ddr", "ssd", "hdd", "processor", "cpu", "motherboard", "gpu", "cooler"}},
	{"Electronics", []string{"monitor", "display", "led", "phone", "laptop", "keyboard", "mouse", "headphone", "cable", "charger"}},
	{"Office Supplies", []string{"paper", "pen", "stapler", "binder", "ink", "toner", "notebook", "desk", "chair"}},
	{"Software", []string{"software", "license", "subscription", "antivirus", "cloud"}},
}

// DeriveItemCategory guesses a purchase line-item category from its
// description. Pure function of the lower-cased text; falls back to "Other".
func DeriveItemCategory(description string) string {
	desc := strings.ToLower(description)
	for _, set := range itemKeywordSets {
		for _, term := range set.terms {
			if strings.Contains(desc, term) {
				return set.category
			}
		}
	}
	return "Other"
}
