package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectAlwaysIncludesKnowledgeBase(t *testing.T) {
	names := Select("hello there")
	assert.Equal(t, []string{NameKnowledgeBase}, names)
}

func TestSelectProductIntent(t *testing.T) {
	names := Select("How much does the blue lamp cost?")
	assert.Contains(t, names, NameCatalogSearch)
	assert.NotContains(t, names, NameBookAppointment)
}

func TestSelectSchedulingIntent(t *testing.T) {
	names := Select("Can I book an appointment for Tuesday?")
	assert.Contains(t, names, NameListSlots)
	assert.Contains(t, names, NameBookAppointment)
	assert.NotContains(t, names, NameCatalogSearch)
}

func TestSelectContactIntent(t *testing.T) {
	names := Select("Please call me back about this")
	assert.Contains(t, names, NameLeadCapture)
}

func TestSelectMixedIntent(t *testing.T) {
	names := Select("What's the price and can you schedule a demo and email me?")
	assert.Contains(t, names, NameKnowledgeBase)
	assert.Contains(t, names, NameCatalogSearch)
	assert.Contains(t, names, NameListSlots)
	assert.Contains(t, names, NameLeadCapture)
}

func TestSelectIsCaseInsensitive(t *testing.T) {
	names := Select("BOOK ME A SLOT")
	assert.Contains(t, names, NameBookAppointment)
}

func TestDefinitionsSkipsUnknownNames(t *testing.T) {
	defs := Definitions([]string{NameKnowledgeBase, "no_such_tool", NameLeadCapture})
	assert.Len(t, defs, 2)
	assert.Equal(t, NameKnowledgeBase, defs[0].Name)
	assert.Equal(t, NameLeadCapture, defs[1].Name)
}
