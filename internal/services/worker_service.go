package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"localpros/internal/geo"
	"localpros/internal/models"

	"github.com/google/uuid"
)

// trialSubscriptionDays is the visibility window granted at registration
// when the deployment runs the subscription-gated policy.
const trialSubscriptionDays = 30

// GeoIndexWriter is the mutation surface of the spatial index.
type GeoIndexWriter interface {
	Add(ctx context.Context, workerID int64, lon, lat float64) error
	Remove(ctx context.Context, workerID int64) error
}

// WorkerWriter is the profile persistence surface the lifecycle needs.
type WorkerWriter interface {
	Create(ctx context.Context, w models.Worker) (models.Worker, error)
	GetByID(ctx context.Context, id int64) (models.Worker, error)
	UpdateStatus(ctx context.Context, id int64, status models.WorkerStatus) error
	SetProfileVisible(ctx context.Context, id int64, visible bool) error
}

// SubscriptionStore persists the visibility windows.
type SubscriptionStore interface {
	Create(ctx context.Context, sub models.WorkerSubscription) (models.WorkerSubscription, error)
	ListByWorker(ctx context.Context, workerID int64) ([]models.WorkerSubscription, error)
}

// WorkerRegistration is the payload of the registration flow. Coordinates
// are optional: humans enter addresses, systems generate coordinates.
type WorkerRegistration struct {
	Name            string
	Phone           string
	Email           *string
	Skills          []string
	ExperienceYears int
	PricePerService float64
	PayType         models.PayType
	ServiceRadiusKm int
	Address         models.Address
}

// WorkerService owns worker profile lifecycle: registration with address
// geocoding, status changes and the geo index bookkeeping they imply.
type WorkerService struct {
	Workers       WorkerWriter
	Subscriptions SubscriptionStore
	Geocoder      Geocoder
	Index         GeoIndexWriter
	Policy        VisibilityPolicy
	Logger        Logger
}

// Register validates the payload, resolves coordinates when absent,
// persists the worker and seeds the geo index when it comes out visible.
func (s *WorkerService) Register(ctx context.Context, reg WorkerRegistration) (models.Worker, error) {
	if err := validateRegistration(&reg); err != nil {
		return models.Worker{}, err
	}

	if reg.Address.Latitude == nil || reg.Address.Longitude == nil {
		point, err := s.geocodeAddress(ctx, reg.Address)
		if err != nil {
			return models.Worker{}, err
		}
		reg.Address.Latitude = &point.Lat
		reg.Address.Longitude = &point.Lng
	} else {
		p := geo.Point{Lat: *reg.Address.Latitude, Lng: *reg.Address.Longitude}
		if !p.Valid() {
			return models.Worker{}, models.NewValidationError("lat or lng out of range")
		}
	}

	worker := models.Worker{
		PublicID:        uuid.NewString(),
		Name:            reg.Name,
		Phone:           reg.Phone,
		Email:           reg.Email,
		Skills:          reg.Skills,
		ExperienceYears: reg.ExperienceYears,
		PricePerService: reg.PricePerService,
		PayType:         reg.PayType,
		ServiceRadiusKm: reg.ServiceRadiusKm,
		Status:          models.WorkerStatusActive,
		ProfileVisible:  true,
		Address:         reg.Address,
	}

	created, err := s.Workers.Create(ctx, worker)
	if err != nil {
		return models.Worker{}, fmt.Errorf("create worker: %w", err)
	}

	now := time.Now()
	var subs []models.WorkerSubscription
	if s.Policy.Mode.IsSubscriptionGated() {
		sub, err := s.Subscriptions.Create(ctx, models.WorkerSubscription{
			WorkerID:  created.ID,
			Status:    models.SubscriptionStatusActive,
			StartDate: now,
			EndDate:   now.AddDate(0, 0, trialSubscriptionDays),
		})
		if err != nil {
			return models.Worker{}, fmt.Errorf("create trial subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if s.Policy.IsVisible(created, subs, now) && created.HasCoordinates() {
		if err := s.Index.Add(ctx, created.ID, *created.Address.Longitude, *created.Address.Latitude); err != nil {
			// The sweeper rebuilds the index periodically; registration
			// succeeds even when the index write is lost.
			s.Logger.Errorf("worker register: geo index add failed for %d: %v", created.ID, err)
		}
	}

	return created, nil
}

// Deactivate takes a worker out of rotation and drops it from the index.
func (s *WorkerService) Deactivate(ctx context.Context, id int64) error {
	if err := s.Workers.UpdateStatus(ctx, id, models.WorkerStatusInactive); err != nil {
		return err
	}
	if err := s.Index.Remove(ctx, id); err != nil {
		s.Logger.Errorf("worker deactivate: geo index remove failed for %d: %v", id, err)
	}
	return nil
}

// SetProfileVisible flips the visibility override and syncs the index.
func (s *WorkerService) SetProfileVisible(ctx context.Context, id int64, visible bool) error {
	if err := s.Workers.SetProfileVisible(ctx, id, visible); err != nil {
		return err
	}
	if !visible {
		if err := s.Index.Remove(ctx, id); err != nil {
			s.Logger.Errorf("worker visibility: geo index remove failed for %d: %v", id, err)
		}
		return nil
	}

	w, err := s.Workers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	subs, err := s.Subscriptions.ListByWorker(ctx, id)
	if err != nil {
		return err
	}
	if s.Policy.IsVisible(w, subs, time.Now()) && w.HasCoordinates() {
		if err := s.Index.Add(ctx, w.ID, *w.Address.Longitude, *w.Address.Latitude); err != nil {
			s.Logger.Errorf("worker visibility: geo index add failed for %d: %v", id, err)
		}
	}
	return nil
}

func (s *WorkerService) geocodeAddress(ctx context.Context, a models.Address) (geo.Point, error) {
	text := joinAddress(a)
	if text == "" {
		return geo.Point{}, models.NewValidationError("address is required")
	}
	point, err := s.Geocoder.Geocode(ctx, text)
	if err != nil {
		if errors.Is(err, models.ErrNoGeocodeResult) {
			return geo.Point{}, models.NewValidationError("unable to resolve address")
		}
		return geo.Point{}, err
	}
	return point, nil
}

func joinAddress(a models.Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Line1, a.Area, a.City, a.State, a.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

func validateRegistration(reg *WorkerRegistration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Phone = strings.TrimSpace(reg.Phone)
	if reg.Name == "" {
		return models.NewValidationError("name is required")
	}
	if reg.Phone == "" {
		return models.NewValidationError("phone is required")
	}
	filter := models.NewSkillFilter(reg.Skills)
	if filter.IsEmpty() {
		return models.NewValidationError("at least one skill is required")
	}
	reg.Skills = filter.Skills()
	if reg.ExperienceYears < 0 {
		return models.NewValidationError("experience years must not be negative")
	}
	if reg.PricePerService < 0 {
		return models.NewValidationError("price must not be negative")
	}
	if reg.ServiceRadiusKm <= 0 {
		return models.NewValidationError("service radius must be a positive number")
	}
	switch reg.PayType {
	case models.PayTypeHourly, models.PayTypeDaily, models.PayTypeWeekly, models.PayTypeMonthly:
	default:
		return models.NewValidationError("unknown pay type")
	}
	return nil
}
