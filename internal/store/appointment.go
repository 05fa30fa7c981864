package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Appointment struct {
	ID        uuid.UUID `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	LeadID    uuid.UUID `db:"lead_id"`
	Date      string    `db:"date"`       // YYYY-MM-DD
	StartTime string    `db:"start_time"` // HH:MM, 24h
	CreatedAt string    `db:"created_at"`
}

const sqlGetAppointmentsByDateRange = `
SELECT * FROM appointments
WHERE tenant_id = $1 AND date >= $2 AND date <= $3
ORDER BY date ASC, start_time ASC`

func (s *Store) GetAppointments(ctx context.Context, tenantID uuid.UUID, from, to string) ([]Appointment, error) {
	var appointments []Appointment
	err := s.db.SelectContext(ctx, &appointments, sqlGetAppointmentsByDateRange, tenantID, from, to)
	if err != nil {
		s.logger.Error(ctx, "failed to get appointments by date range", err)
		return nil, fmt.Errorf("failed to get appointments by date range: %w", err)
	}
	return appointments, nil
}

const sqlCreateLeadTx = `
INSERT INTO leads (tenant_id, name, email, phone, note)
VALUES ($1, $2, $3, $4, $5)
RETURNING *`

// Relies on the unique index on (tenant_id, date, start_time); a concurrent
// booking of the same slot makes the insert return no row.
const sqlCreateAppointmentTx = `
INSERT INTO appointments (tenant_id, lead_id, date, start_time)
VALUES ($1, $2, $3, $4)
ON CONFLICT (tenant_id, date, start_time) DO NOTHING
RETURNING *`

// BookAppointment atomically records a lead and an appointment. If the slot was
// taken by a concurrent booking the whole transaction rolls back and
// ErrSlotTaken is returned.
func (s *Store) BookAppointment(ctx context.Context, lead Lead, date, startTime string) (*Appointment, *Lead, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.Error(ctx, "failed to begin booking transaction", err)
		return nil, nil, fmt.Errorf("failed to begin booking transaction: %w", err)
	}
	defer tx.Rollback()

	var createdLead Lead
	err = tx.GetContext(ctx, &createdLead, sqlCreateLeadTx,
		lead.TenantID, lead.Name, lead.Email, lead.Phone, lead.Note)
	if err != nil {
		s.logger.Error(ctx, "failed to create lead for booking", err)
		return nil, nil, fmt.Errorf("failed to create lead for booking: %w", err)
	}

	var appointment Appointment
	err = tx.GetContext(ctx, &appointment, sqlCreateAppointmentTx,
		lead.TenantID, createdLead.ID, date, startTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrSlotTaken
		}
		s.logger.Error(ctx, "failed to create appointment", err)
		return nil, nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error(ctx, "failed to commit booking transaction", err)
		return nil, nil, fmt.Errorf("failed to commit booking transaction: %w", err)
	}

	return &appointment, &createdLead, nil
}
