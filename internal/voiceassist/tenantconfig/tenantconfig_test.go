package tenantconfig

import (
	"context"
	"database/sql"
	"testing"

	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettingsStore struct {
	settings     *store.VoiceSettings
	settingsErr  error
	settingsHits int

	products []store.Product
	faqs     []store.FAQ
}

func (f *fakeSettingsStore) GetVoiceSettings(_ context.Context, _ uuid.UUID) (*store.VoiceSettings, error) {
	f.settingsHits++
	return f.settings, f.settingsErr
}

func (f *fakeSettingsStore) GetTopProducts(_ context.Context, _ uuid.UUID, _ int) ([]store.Product, error) {
	return f.products, nil
}

func (f *fakeSettingsStore) GetFAQs(_ context.Context, _ uuid.UUID) ([]store.FAQ, error) {
	return f.faqs, nil
}

func newFakeStore(tenantID uuid.UUID) *fakeSettingsStore {
	return &fakeSettingsStore{
		settings: &store.VoiceSettings{
			TenantID:            tenantID,
			Personality:         "friendly",
			Currency:            "USD",
			BusinessDescription: "A small woodworking shop",
			CustomInstructions:  sql.NullString{String: "Always mention free delivery", Valid: true},
			ModelAPIKey:         "sk-model",
			ProviderAPIKey:      "sk-provider",
		},
		products: []store.Product{{Name: "Walnut Desk", PriceCents: 24999, Currency: "USD"}},
		faqs:     []store.FAQ{{Question: "Do you deliver?", Answer: "Yes, within the city."}},
	}
}

func TestGetVoiceConfig(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	p := NewProvider(fs, observability.NewLogger())

	config, businessContext, err := p.GetVoiceConfig(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, "friendly", config.Personality)
	assert.Equal(t, "Always mention free delivery", config.CustomInstructions)
	assert.Equal(t, "sk-provider", config.ProviderAPIKey)
	assert.Contains(t, businessContext, "Walnut Desk")
	assert.Contains(t, businessContext, "Do you deliver?")
}

func TestGetVoiceConfigCaches(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	p := NewProvider(fs, observability.NewLogger())

	_, _, err := p.GetVoiceConfig(context.Background(), tenantID)
	require.NoError(t, err)
	_, _, err = p.GetVoiceConfig(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, 1, fs.settingsHits)
}

func TestInvalidateDropsCachedEntry(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	p := NewProvider(fs, observability.NewLogger())

	_, _, err := p.GetVoiceConfig(context.Background(), tenantID)
	require.NoError(t, err)

	p.Invalidate(tenantID)

	_, _, err = p.GetVoiceConfig(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.settingsHits)
}

func TestGetVoiceConfigNotFound(t *testing.T) {
	fs := &fakeSettingsStore{settingsErr: store.ErrNotFound}
	p := NewProvider(fs, observability.NewLogger())

	_, _, err := p.GetVoiceConfig(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
