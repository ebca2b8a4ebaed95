package services

import (
	"context"
	"strings"

	"localpros/internal/models"
)

// ServiceTypeStore persists the catalog entries.
type ServiceTypeStore interface {
	ListActive(ctx context.Context) ([]models.ServiceType, error)
	Upsert(ctx context.Context, st models.ServiceType) (models.ServiceType, error)
}

// ServiceTypeService exposes the service catalog: the valid skill
// vocabulary for search queries.
type ServiceTypeService struct {
	Repo ServiceTypeStore
}

// ListActive returns active catalog entries in display order.
func (s *ServiceTypeService) ListActive(ctx context.Context) ([]models.ServiceType, error) {
	return s.Repo.ListActive(ctx)
}

// Upsert creates or updates a catalog entry, deriving the slug from the
// name when the caller did not provide one.
func (s *ServiceTypeService) Upsert(ctx context.Context, st models.ServiceType) (models.ServiceType, error) {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return models.ServiceType{}, models.NewValidationError("name is required")
	}
	st.Slug = strings.TrimSpace(st.Slug)
	if st.Slug == "" {
		st.Slug = models.Slugify(st.Name)
	}
	if st.Slug == "" {
		return models.ServiceType{}, models.NewValidationError("slug could not be derived from name")
	}
	return s.Repo.Upsert(ctx, st)
}
