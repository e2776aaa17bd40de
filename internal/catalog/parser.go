package catalog

import (
	"regexp"
	"strings"
)

// Sections is a product description classified for display. The source blob
// is semi-structured HTML with no guarantees, so everything here is
// best-effort.
type Sections struct {
	Properties        []string          `json:"properties"`
	Usage             []string          `json:"usage"`
	Ingredients       []string          `json:"ingredients"`
	IngredientsList   []IngredientEntry `json:"ingredients_list"`
	ActiveIngredients []string          `json:"active_ingredients"`
	General           []string          `json:"general"`
	DayUsage          []string          `json:"day_usage"`
	NightUsage        []string          `json:"night_usage"`
	AdditionalInfo    []string          `json:"additional_info"`
	Volume            string            `json:"volume"`
	Benefits          []string          `json:"benefits"`
}

// IngredientEntry is one named ingredient parsed out of a "Koostisosad:"
// block, with its percentage when declared.
type IngredientEntry struct {
	Name        string `json:"name"`
	Percentage  string `json:"percentage,omitempty"`
	Description string `json:"description,omitempty"`
}

var (
	brTagPattern      = regexp.MustCompile(`(?i)<br\s*/?>`)
	closePPattern     = regexp.MustCompile(`(?i)</p>`)
	anyTagPattern     = regexp.MustCompile(`<[^>]+>`)
	volumePattern     = regexp.MustCompile(`(?i)kogus[:\s]*(\d+\s*(?:ml|g|pakikest)[^.]*)`)
	ingredientSection = regexp.MustCompile(`(?im)^koostisosad[:\s]*\n([\s\S]*?)(?:\n\n|kasutamine|tulemus\?|$)`)
	percentLine       = regexp.MustCompile(`^([A-ZÄÖÜÕ][a-zäöüõ]+(?:\s+[a-zäöüõ]+)?)\s*\((\d+(?:[.,]\d+)?%?)\)\s*[–-]?\s*(.*)$`)
	hasPercent        = regexp.MustCompile(`\(\d+(?:[.,]\d+)?%?\)`)
	bulletPattern     = regexp.MustCompile(`[•✓]\s*[^•✓\n]+`)
	containsParen     = regexp.MustCompile(`(?i)sisaldab[^.]*\(([^)]+)\)`)
	dayMarker         = regexp.MustCompile(`(?i)päeval[\s:]`)
	nightMarker       = regexp.MustCompile(`(?i)öösel[\s:]`)
	dayNightSplit     = regexp.MustCompile(`(?i)(päeval[\s:]*|öösel[\s:]*)`)
	usagePrefix       = regexp.MustCompile(`(?i)kasutamine:\s*`)
)

// paragraphRule routes one paragraph into a section. Rules run in priority
// order and the first match consumes the paragraph; later rules never see it.
type paragraphRule struct {
	name  string
	match func(lower string) bool
	apply func(s *Sections, para string)
}

var paragraphRules = []paragraphRule{
	{
		// Volume and ingredient blocks are handled by dedicated extractors.
		name:  "consumed-elsewhere",
		match: func(l string) bool { return strings.HasPrefix(l, "kogus") || strings.HasPrefix(l, "koostisosad:") },
		apply: func(s *Sections, para string) {},
	},
	{
		name: "usage",
		match: func(l string) bool {
			return strings.Contains(l, "kasutamine:") || strings.Contains(l, "soovitame kanda") ||
				strings.Contains(l, "kandke") || strings.Contains(l, "kanna ")
		},
		apply: func(s *Sections, para string) {
			s.Usage = append(s.Usage, strings.TrimSpace(usagePrefix.ReplaceAllString(para, "")))
		},
	},
	{
		name:  "ingredients",
		match: func(l string) bool { return strings.Contains(l, "koostis") && !strings.Contains(l, "koostisosad:") },
		apply: func(s *Sections, para string) { s.Ingredients = append(s.Ingredients, para) },
	},
	{
		name: "indication",
		match: func(l string) bool {
			return strings.Contains(l, "tase 2") || strings.Contains(l, "tase 3") || strings.Contains(l, "näidustatud")
		},
		apply: func(s *Sections, para string) { s.Usage = append(s.Usage, para) },
	},
	{
		name: "additional-info",
		match: func(l string) bool {
			return strings.Contains(l, "hoiatus") || strings.Contains(l, "ettevaatust") ||
				strings.Contains(l, "säilitada") || strings.Contains(l, "dermatoloogiliselt")
		},
		apply: func(s *Sections, para string) { s.AdditionalInfo = append(s.AdditionalInfo, para) },
	},
	{
		name: "properties",
		match: func(l string) bool {
			return strings.Contains(l, "toime") || strings.Contains(l, "tulemus") || strings.Contains(l, "miks valida")
		},
		apply: func(s *Sections, para string) { s.Properties = append(s.Properties, para) },
	},
	{
		name:  "general",
		match: func(l string) bool { return true },
		apply: func(s *Sections, para string) { s.General = append(s.General, para) },
	},
}

// ParseDescription classifies a raw description blob into display sections.
func ParseDescription(html string) *Sections {
	sections := &Sections{}
	if html == "" {
		return sections
	}

	cleanText := cleanHTML(html)

	if m := volumePattern.FindStringSubmatch(cleanText); m != nil {
		sections.Volume = strings.TrimSpace(m[1])
	}

	parseIngredientSection(cleanText, sections)
	parseActiveIngredients(cleanText, sections)

	for _, point := range bulletPattern.FindAllString(cleanText, -1) {
		clean := strings.TrimSpace(strings.TrimLeft(point, "•✓ "))
		if len(clean) > 5 {
			sections.Benefits = append(sections.Benefits, clean)
		}
	}

	if dayMarker.MatchString(cleanText) && nightMarker.MatchString(cleanText) {
		parseDayNight(cleanText, sections)
	} else {
		for _, para := range splitParagraphs(cleanText) {
			lower := strings.ToLower(para)
			for _, rule := range paragraphRules {
				if rule.match(lower) {
					rule.apply(sections, para)
					break
				}
			}
		}
	}

	return sections
}

func cleanHTML(html string) string {
	text := brTagPattern.ReplaceAllString(html, "\n")
	text = closePPattern.ReplaceAllString(text, "\n\n")
	text = anyTagPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "✔", "• ")
	return strings.TrimSpace(text)
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, para := range regexp.MustCompile(`\n\n+`).Split(text, -1) {
		if trimmed := strings.TrimSpace(para); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// parseIngredientSection extracts a "Koostisosad:" block, but only when the
// block actually carries percentage patterns; prose mentioning the word is
// left for the paragraph rules.
func parseIngredientSection(text string, sections *Sections) {
	m := ingredientSection.FindStringSubmatch(text)
	if m == nil {
		return
	}

	var lines []string
	for _, line := range strings.Split(m[1], "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	percentages := false
	for _, line := range lines {
		if hasPercent.MatchString(line) {
			percentages = true
			break
		}
	}
	if !percentages {
		return
	}

	for _, line := range lines {
		if pm := percentLine.FindStringSubmatch(line); pm != nil {
			percentage := pm[2]
			if !strings.Contains(percentage, "%") {
				percentage += "%"
			}
			sections.IngredientsList = append(sections.IngredientsList, IngredientEntry{
				Name:        strings.TrimSpace(pm[1]),
				Percentage:  percentage,
				Description: strings.TrimSpace(pm[3]),
			})
		}
	}
}

// parseActiveIngredients pulls ingredient names out of "sisaldab (...)"
// parentheticals scattered through the prose.
func parseActiveIngredients(text string, sections *Sections) {
	seen := make(map[string]bool)
	for _, m := range containsParen.FindAllStringSubmatch(text, -1) {
		for _, part := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ';' }) {
			ing := strings.TrimSpace(part)
			if len(ing) > 2 && !seen[ing] {
				seen[ing] = true
				sections.ActiveIngredients = append(sections.ActiveIngredients, ing)
			}
		}
	}
}

// parseDayNight splits a description that carries both day and night usage
// markers into the two usage buckets.
func parseDayNight(text string, sections *Sections) {
	parts := dayNightSplit.Split(text, -1)
	markers := dayNightSplit.FindAllString(text, -1)

	// Interleave: parts[0] precedes the first marker.
	bucket := ""
	routeLines := func(chunk string) {
		for _, line := range strings.Split(chunk, "\n") {
			clean := strings.TrimSpace(line)
			if clean == "" {
				continue
			}
			lower := strings.ToLower(clean)
			switch {
			case strings.HasPrefix(lower, "selle tõhusust"):
				sections.AdditionalInfo = append(sections.AdditionalInfo, clean)
			case strings.HasPrefix(lower, "kogus"), strings.Contains(lower, "koostisosad"):
				// consumed by the dedicated extractors
			case strings.Contains(lower, "kasutamine:"), strings.Contains(lower, "soovitame kanda"):
				sections.Usage = append(sections.Usage, strings.TrimSpace(usagePrefix.ReplaceAllString(clean, "")))
			case bucket == "day":
				sections.DayUsage = append(sections.DayUsage, clean)
			case bucket == "night":
				sections.NightUsage = append(sections.NightUsage, clean)
			default:
				sections.General = append(sections.General, clean)
			}
		}
	}

	routeLines(parts[0])
	for i, marker := range markers {
		if strings.HasPrefix(strings.ToLower(marker), "päeval") {
			bucket = "day"
		} else {
			bucket = "night"
		}
		if i+1 < len(parts) {
			routeLines(parts[i+1])
		}
	}
}
