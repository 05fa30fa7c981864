package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type FAQ struct {
	ID        uuid.UUID `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Question  string    `db:"question"`
	Answer    string    `db:"answer"`
	CreatedAt string    `db:"created_at"`
}

const sqlGetFAQsByTenantID = `
SELECT * FROM faqs WHERE tenant_id = $1 ORDER BY created_at ASC`

func (s *Store) GetFAQs(ctx context.Context, tenantID uuid.UUID) ([]FAQ, error) {
	var faqs []FAQ
	err := s.db.SelectContext(ctx, &faqs, sqlGetFAQsByTenantID, tenantID)
	if err != nil {
		s.logger.Error(ctx, "failed to get FAQs by tenant ID", err)
		return nil, fmt.Errorf("failed to get FAQs by tenant ID: %w", err)
	}
	return faqs, nil
}
