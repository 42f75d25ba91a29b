// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule maps a title pattern to a field value. Rules are evaluated in slice
// order and the first match wins, so the order of a table is its tie-break.
type Rule struct {
	Pattern *regexp.Regexp
	Value   string
}

// keywordRule builds a case-insensitive whole-word rule whose value is the
// keyword with only its first letter capitalized.
func keywordRule(keyword string) Rule {
	return Rule{
		Pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`),
		Value:   capitalizeFirst(keyword),
	}
}

func keywordRules(keywords ...string) []Rule {
	rules := make([]Rule, len(keywords))
	for i, k := range keywords {
		rules[i] = keywordRule(k)
	}
	return rules
}

// OrganismRules resolves Publication.Organism. "mouse" precedes "human", so a
// title naming both resolves to "Mouse".
var OrganismRules = keywordRules(
	"mouse", "mice", "rat", "rats", "human", "cell", "cells", "tissue",
	"plant", "bacteria", "microorganism", "organism", "animal",
	"drosophila", "zebrafish", "arabidopsis",
)

// ExperimentRules resolves Publication.ExperimentType.
var ExperimentRules = keywordRules(
	"microgravity", "spaceflight", "radiation", "gene expression", "protein",
	"metabolism", "oxidative stress", "cell cycle", "differentiation",
	"regeneration", "bone", "muscle", "immune", "cardiovascular", "neural",
	"stem cell", "transcriptome", "proteome",
)

// Match returns the value of the first rule whose pattern occurs in text, or
// fallback when none does.
func Match(rules []Rule, text, fallback string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r.Value
		}
	}
	return fallback
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
