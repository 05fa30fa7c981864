package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type Lead struct {
	ID        uuid.UUID      `db:"id"`
	TenantID  uuid.UUID      `db:"tenant_id"`
	Name      sql.NullString `db:"name"`
	Email     sql.NullString `db:"email"`
	Phone     sql.NullString `db:"phone"`
	Note      sql.NullString `db:"note"`
	CreatedAt string         `db:"created_at"`
}

const sqlCreateLead = `
INSERT INTO leads (tenant_id, name, email, phone, note)
VALUES ($1, $2, $3, $4, $5)
RETURNING *`

func (s *Store) CreateLead(ctx context.Context, lead Lead) (*Lead, error) {
	var created Lead
	err := s.db.GetContext(ctx, &created, sqlCreateLead,
		lead.TenantID, lead.Name, lead.Email, lead.Phone, lead.Note)
	if err != nil {
		s.logger.Error(ctx, "failed to create lead", err)
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return &created, nil
}
