// Package tools declares the assistant's callable tools, selects the subset
// relevant to an utterance, and executes invocations against the business
// services.
package tools

import "encoding/json"

// Declared tool names.
const (
	NameCatalogSearch   = "search_products"
	NameKnowledgeBase   = "search_knowledge_base"
	NameLeadCapture     = "capture_lead"
	NameListSlots       = "list_available_slots"
	NameBookAppointment = "book_appointment"
)

// Call is a tool invocation requested by the model.
type Call struct {
	ID        string
	Name      string
	Arguments string // raw JSON arguments
}

// Result is the structured outcome of a tool invocation. The orchestrator only
// inspects Success and Data; everything else flows back to the model verbatim.
type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ModelPayload renders the result as the JSON string fed back to the model.
func (r Result) ModelPayload() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"unserializable tool result"}`
	}
	return string(b)
}

// Definition describes one tool to the dialogue model. Parameters is a JSON
// schema object; the provider client converts it to its own parameter type.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

var definitions = map[string]Definition{
	NameCatalogSearch: {
		Name:        NameCatalogSearch,
		Description: "Search the product catalog. Supports free-text queries, price filters and pagination.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query":     map[string]interface{}{"type": "string", "description": "Free-text search over product names and descriptions"},
				"max_price": map[string]interface{}{"type": "number", "description": "Upper price bound in the shop currency"},
				"min_price": map[string]interface{}{"type": "number", "description": "Lower price bound in the shop currency"},
				"page":      map[string]interface{}{"type": "integer", "description": "1-based results page"},
			},
		},
	},
	NameKnowledgeBase: {
		Name:        NameKnowledgeBase,
		Description: "Look up answers in the business knowledge base (FAQs, policies, opening hours).",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{"type": "string", "description": "The question to answer"},
			},
			"required": []string{"query"},
		},
	},
	NameLeadCapture: {
		Name:        NameLeadCapture,
		Description: "Record the visitor's contact details so the business can follow up. At least one of email or phone is required.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name":  map[string]interface{}{"type": "string"},
				"email": map[string]interface{}{"type": "string"},
				"phone": map[string]interface{}{"type": "string"},
				"note":  map[string]interface{}{"type": "string", "description": "What the visitor is interested in"},
			},
		},
	},
	NameListSlots: {
		Name:        NameListSlots,
		Description: "List free appointment slots per day within a date range.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"from_date": map[string]interface{}{"type": "string", "description": "Start date, YYYY-MM-DD"},
				"to_date":   map[string]interface{}{"type": "string", "description": "End date, YYYY-MM-DD"},
			},
			"required": []string{"from_date", "to_date"},
		},
	},
	NameBookAppointment: {
		Name:        NameBookAppointment,
		Description: "Book an appointment in a free slot. Records the visitor as a lead and reserves the slot atomically.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"date":  map[string]interface{}{"type": "string", "description": "Appointment date, YYYY-MM-DD"},
				"time":  map[string]interface{}{"type": "string", "description": "Slot start time, HH:MM 24h"},
				"name":  map[string]interface{}{"type": "string"},
				"email": map[string]interface{}{"type": "string"},
				"phone": map[string]interface{}{"type": "string"},
				"note":  map[string]interface{}{"type": "string"},
			},
			"required": []string{"date", "time"},
		},
	},
}

// Definitions returns the declarations for the given tool names, skipping
// unknown names.
func Definitions(names []string) []Definition {
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		if d, ok := definitions[name]; ok {
			defs = append(defs, d)
		}
	}
	return defs
}
