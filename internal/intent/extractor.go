package intent

import (
	"fmt"
	"regexp"
)

// Rule is one order-number surface form. Group 1 of Pattern holds the digits.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Rules are tried top to bottom; the first rule that matches wins, with its
// leftmost match. \d is ASCII-only in RE2, so only 0-9 are captured.
// "заказ[а-яё]*" accepts inflected forms such as "заказу" or "заказа".
// The sign may be spelled out ("заказ номер 123") and the phrase rule also
// takes a bare "номер 4567".
var defaultRules = []Rule{
	{Name: "hash", Pattern: regexp.MustCompile(`#(\d+)`)},
	{Name: "order_sign", Pattern: regexp.MustCompile(`(?i)заказ[а-яё]*\s*(?:№|n|номер)\s*(\d+)`)},
	{Name: "order_word", Pattern: regexp.MustCompile(`(?i)заказ[а-яё]*\s+(\d+)`)},
	{Name: "order_number_phrase", Pattern: regexp.MustCompile(`(?i)номер(?:\s+заказа?)?\s+(\d+)`)},
	{Name: "order_joined", Pattern: regexp.MustCompile(`(?i)заказ(\d+)`)},
}

// Extractor finds an order number in text. It is stateless and safe for
// concurrent use.
type Extractor struct {
	rules []Rule
}

// NewExtractor builds the standard rule list. A positive bareNumberMinDigits
// appends a last-priority rule taking any run of that many digits.
func NewExtractor(bareNumberMinDigits int) *Extractor {
	rules := make([]Rule, len(defaultRules), len(defaultRules)+1)
	copy(rules, defaultRules)

	if bareNumberMinDigits > 0 {
		rules = append(rules, Rule{
			Name:    "bare_number",
			Pattern: regexp.MustCompile(fmt.Sprintf(`(?:^|\D)(\d{%d,})`, bareNumberMinDigits)),
		})
	}
	return &Extractor{rules: rules}
}

// Rules returns the rule names in priority order.
func (e *Extractor) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Extract returns the order number and true, or "" and false when no rule matches.
func (e *Extractor) Extract(text string) (string, bool) {
	for _, r := range e.rules {
		if m := r.Pattern.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
