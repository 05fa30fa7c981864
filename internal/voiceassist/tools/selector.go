package tools

import "strings"

// Keyword groups for the cheap per-utterance tool subset. This only trims
// token cost; the knowledge-base tool is always selectable as the default.
var (
	productTerms = []string{
		"product", "products", "price", "prices", "cost", "buy", "purchase",
		"sell", "stock", "catalog", "catalogue", "item", "items", "cheap",
		"expensive", "order",
	}
	schedulingTerms = []string{
		"appointment", "appointments", "book", "booking", "schedule", "slot",
		"slots", "available", "availability", "reserve", "reservation",
		"tomorrow", "today", "monday", "tuesday", "wednesday", "thursday",
		"friday", "saturday", "sunday", "next week",
	}
	contactTerms = []string{
		"call me", "contact me", "reach me", "email me", "callback",
		"call back", "get in touch", "my number", "my email", "follow up",
	}
)

// Select returns the tool names relevant to the utterance. The knowledge-base
// tool is always included so no question goes unanswerable; the heuristic must
// never prevent a genuinely needed tool from being callable within its group.
func Select(utterance string) []string {
	text := strings.ToLower(utterance)

	names := []string{NameKnowledgeBase}
	if containsAny(text, productTerms) {
		names = append(names, NameCatalogSearch)
	}
	if containsAny(text, schedulingTerms) {
		names = append(names, NameListSlots, NameBookAppointment)
	}
	if containsAny(text, contactTerms) {
		names = append(names, NameLeadCapture)
	}
	return names
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
