package repositories

import (
	"context"
	"database/sql"

	"localpros/internal/models"
)

// ServiceTypeRepository stores the service catalog.
type ServiceTypeRepository struct {
	DB *sql.DB
}

// ListActive returns active service types in catalog order.
func (r *ServiceTypeRepository) ListActive(ctx context.Context) ([]models.ServiceType, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, slug, is_active, sort_order
		FROM service_types
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ServiceType
	for rows.Next() {
		var st models.ServiceType
		if err := rows.Scan(&st.ID, &st.Name, &st.Slug, &st.IsActive, &st.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Upsert creates or updates a service type keyed by slug.
func (r *ServiceTypeRepository) Upsert(ctx context.Context, st models.ServiceType) (models.ServiceType, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO service_types (name, slug, is_active, sort_order)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name,
			is_active = EXCLUDED.is_active,
			sort_order = EXCLUDED.sort_order
		RETURNING id`,
		st.Name, st.Slug, st.IsActive, st.SortOrder,
	).Scan(&st.ID)
	if err != nil {
		return models.ServiceType{}, err
	}
	return st, nil
}
