package enrich

import (
	"fmt"
	"strings"

	"blisse/internal/services/ai"
)

// shortDescriptionLimit is the length under which an existing description is
// considered thin enough to get the extracted main description prepended.
const shortDescriptionLimit = 200

// ingredientPrefixLen is how much of a freshly formatted ingredient block is
// probed against the current description before appending it.
const ingredientPrefixLen = 50

// MergeDescription folds extracted product info into an existing description.
// Every append is gated by a case-insensitive containment test against the
// current text, so running the merge again with the same input is a no-op.
// Returns the merged description and whether anything was added.
func MergeDescription(description string, info *ai.ProductInfo) (string, bool) {
	if info == nil {
		return description, false
	}

	merged := description
	changed := false

	// Main description goes in front, and only when the existing text is thin.
	if info.MainDescription != "" && !strings.Contains(merged, info.MainDescription) {
		if len(merged) < shortDescriptionLimit {
			merged = fmt.Sprintf("<p>%s</p>\n\n", info.MainDescription) + merged
			changed = true
		}
	}

	if len(info.Benefits) > 0 && !containsFold(merged, "miks valida") {
		lines := make([]string, len(info.Benefits))
		for i, b := range info.Benefits {
			lines[i] = "✔ " + b
		}
		merged += fmt.Sprintf("\n\n<p>Miks valida seda toodet?</p>\n<p>%s</p>", strings.Join(lines, "<br />\n"))
		changed = true
	}

	if info.InciList != "" && !containsFold(merged, "inci") {
		merged += fmt.Sprintf("\n\n<p><strong>INCI:</strong> %s</p>", info.InciList)
		changed = true
	}

	if block := ingredientsBlock(merged, info.Ingredients); block != "" {
		merged += block
		changed = true
	}

	if info.Usage != "" && !containsFold(merged, "kasutamine") {
		merged += fmt.Sprintf("\n\n<p>Kasutamine:</p>\n<p>%s</p>", info.Usage)
		changed = true
	}

	return merged, changed
}

// ingredientsBlock formats the detailed ingredient list, or returns "" when
// nothing new would be added: either no ingredient carries an explanation,
// every explained ingredient is already mentioned, or the formatted block's
// prefix already appears in the description.
func ingredientsBlock(description string, ingredients []ai.Ingredient) string {
	hasNew := false
	for _, ing := range ingredients {
		if ing.Description != "" && !containsFold(description, ing.Name) {
			hasNew = true
			break
		}
	}
	if !hasNew {
		return ""
	}

	var lines []string
	for _, ing := range ingredients {
		if ing.Description == "" {
			continue
		}
		line := ing.Name
		if ing.Percentage != "" {
			line += fmt.Sprintf(" (%s)", ing.Percentage)
		}
		line += " – " + ing.Description
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}

	list := strings.Join(lines, "<br />\n")
	prefix := list
	if len(prefix) > ingredientPrefixLen {
		prefix = prefix[:ingredientPrefixLen]
	}
	if strings.Contains(description, prefix) {
		return ""
	}

	return fmt.Sprintf("\n\n<p>Koostisosad:</p>\n<p>%s</p>", list)
}

// NeedsEnrichment reports whether a description is missing the detail the
// pipeline adds: no INCI mention, no ingredient section, or simply short.
func NeedsEnrichment(description string) bool {
	return !containsFold(description, "inci") ||
		!containsFold(description, "koostisosad:") ||
		len(description) < 500
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
