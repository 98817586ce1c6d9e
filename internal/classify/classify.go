// Package classify matches free text against an ordered list of pattern rules.
package classify

import "strings"

// Rule assigns Label to any text containing one of Patterns.
type Rule struct {
	Label    string
	Patterns []string
}

// Classify returns the label of the first rule with a pattern contained in text.
// Matching is case-insensitive and rules are evaluated in order.
func Classify(text string, rules []Rule) (string, bool) {
	haystack := strings.ToLower(text)
	if strings.TrimSpace(haystack) == "" {
		return "", false
	}
	for _, r := range rules {
		for _, p := range r.Patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" && strings.Contains(haystack, p) {
				return r.Label, true
			}
		}
	}
	return "", false
}

// HomebrewItemRules map purchase descriptions to items that can be made at home.
var HomebrewItemRules = []Rule{
	{Label: "coffee", Patterns: []string{"coffee", "latte", "cappuccino", "espresso", "americano", "flat white", "starbucks", "costa", "cafe"}},
	{Label: "smoothie", Patterns: []string{"smoothie", "juice bar"}},
	{Label: "burger", Patterns: []string{"burger", "mcdonald", "five guys", "supermac"}},
	{Label: "pizza", Patterns: []string{"pizza", "domino", "papa john"}},
	{Label: "sandwich", Patterns: []string{"sandwich", "subway", "deli", "bagel"}},
}
