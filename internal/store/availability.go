package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// AvailabilityTemplate describes a recurring weekly opening window.
type AvailabilityTemplate struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	Weekday     int       `db:"weekday"` // 0 = Sunday, matching time.Weekday
	StartTime   string    `db:"start_time"`
	EndTime     string    `db:"end_time"`
	SlotMinutes int       `db:"slot_minutes"`
}

// AvailabilityOverride replaces the template for a specific date. A closed
// override removes the day entirely; otherwise its window applies.
type AvailabilityOverride struct {
	ID        uuid.UUID      `db:"id"`
	TenantID  uuid.UUID      `db:"tenant_id"`
	Date      string         `db:"date"` // YYYY-MM-DD
	Closed    bool           `db:"closed"`
	StartTime sql.NullString `db:"start_time"`
	EndTime   sql.NullString `db:"end_time"`
}

const sqlGetAvailabilityTemplates = `
SELECT * FROM availability_templates WHERE tenant_id = $1 ORDER BY weekday ASC, start_time ASC`

func (s *Store) GetAvailabilityTemplates(ctx context.Context, tenantID uuid.UUID) ([]AvailabilityTemplate, error) {
	var templates []AvailabilityTemplate
	err := s.db.SelectContext(ctx, &templates, sqlGetAvailabilityTemplates, tenantID)
	if err != nil {
		s.logger.Error(ctx, "failed to get availability templates", err)
		return nil, fmt.Errorf("failed to get availability templates: %w", err)
	}
	return templates, nil
}

const sqlGetAvailabilityOverrides = `
SELECT * FROM availability_overrides
WHERE tenant_id = $1 AND date >= $2 AND date <= $3
ORDER BY date ASC`

func (s *Store) GetAvailabilityOverrides(ctx context.Context, tenantID uuid.UUID, from, to string) ([]AvailabilityOverride, error) {
	var overrides []AvailabilityOverride
	err := s.db.SelectContext(ctx, &overrides, sqlGetAvailabilityOverrides, tenantID, from, to)
	if err != nil {
		s.logger.Error(ctx, "failed to get availability overrides", err)
		return nil, fmt.Errorf("failed to get availability overrides: %w", err)
	}
	return overrides, nil
}
