package models

import "time"

// WorkerStatus is the lifecycle state of a worker profile.
type WorkerStatus string

const (
	WorkerStatusInactive WorkerStatus = "INACTIVE"
	WorkerStatusActive   WorkerStatus = "ACTIVE"
	WorkerStatusBanned   WorkerStatus = "BANNED"
)

// PayType describes how PricePerService is charged.
type PayType string

const (
	PayTypeHourly  PayType = "hourly"
	PayTypeDaily   PayType = "daily"
	PayTypeWeekly  PayType = "weekly"
	PayTypeMonthly PayType = "monthly"
)

// Address is the worker's geocoded home base. Coordinates are filled in
// at registration time and are never recomputed during search.
type Address struct {
	ID        int64    `json:"id"`
	Line1     string   `json:"line1"`
	Area      string   `json:"area"`
	City      string   `json:"city"`
	State     string   `json:"state"`
	Country   string   `json:"country"`
	Pincode   string   `json:"pincode"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Worker is the search-facing projection of a worker profile.
type Worker struct {
	ID              int64        `json:"id"`
	PublicID        string       `json:"public_id"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	Email           *string      `json:"email,omitempty"`
	Skills          []string     `json:"skills"`
	ExperienceYears int          `json:"experience_years"`
	Rating          float64      `json:"rating"`
	TotalReviews    int          `json:"total_reviews"`
	PricePerService float64      `json:"price_per_service"`
	PayType         PayType      `json:"pay_type"`
	ServiceRadiusKm int          `json:"service_radius_km"`
	Status          WorkerStatus `json:"status"`
	ProfileVisible  bool         `json:"profile_visible"`
	Address         Address      `json:"address"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// HasCoordinates reports whether the worker's address has been geocoded.
func (w Worker) HasCoordinates() bool {
	return w.Address.Latitude != nil && w.Address.Longitude != nil
}
