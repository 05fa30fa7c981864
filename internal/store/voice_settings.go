package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// VoiceSettings is the per-tenant assistant configuration row.
type VoiceSettings struct {
	TenantID            uuid.UUID      `db:"tenant_id"`
	Personality         string         `db:"personality"`
	Currency            string         `db:"currency"`
	BusinessDescription string         `db:"business_description"`
	CustomInstructions  sql.NullString `db:"custom_instructions"`
	ModelAPIKey         string         `db:"model_api_key"`
	ProviderAPIKey      string         `db:"provider_api_key"`
	UpdatedAt           string         `db:"updated_at"`
}

const sqlGetVoiceSettingsByTenantID = `
SELECT * FROM voice_settings WHERE tenant_id = $1`

func (s *Store) GetVoiceSettings(ctx context.Context, tenantID uuid.UUID) (*VoiceSettings, error) {
	var settings VoiceSettings
	err := s.db.GetContext(ctx, &settings, sqlGetVoiceSettingsByTenantID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.Error(ctx, "failed to get voice settings by tenant ID", err)
		return nil, fmt.Errorf("failed to get voice settings by tenant ID: %w", err)
	}
	return &settings, nil
}

const sqlUpsertVoiceSettings = `
INSERT INTO voice_settings (tenant_id, personality, currency, business_description, custom_instructions, model_api_key, provider_api_key)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tenant_id) DO UPDATE SET
    personality = EXCLUDED.personality,
    currency = EXCLUDED.currency,
    business_description = EXCLUDED.business_description,
    custom_instructions = EXCLUDED.custom_instructions,
    model_api_key = EXCLUDED.model_api_key,
    provider_api_key = EXCLUDED.provider_api_key,
    updated_at = NOW()
RETURNING *`

func (s *Store) UpsertVoiceSettings(ctx context.Context, settings VoiceSettings) (*VoiceSettings, error) {
	var updated VoiceSettings
	err := s.db.GetContext(ctx, &updated, sqlUpsertVoiceSettings,
		settings.TenantID, settings.Personality, settings.Currency, settings.BusinessDescription,
		settings.CustomInstructions, settings.ModelAPIKey, settings.ProviderAPIKey)
	if err != nil {
		s.logger.Error(ctx, "failed to upsert voice settings", err)
		return nil, fmt.Errorf("failed to upsert voice settings: %w", err)
	}
	return &updated, nil
}
