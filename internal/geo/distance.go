package geo

import "math"

// EarthRadiusKm is the single Earth radius constant used everywhere,
// including the SQL haversine expression in the worker repository.
const EarthRadiusKm = 6371.0

// KmPerMile converts between the two supported units.
const KmPerMile = 1.60934

// Unit is a distance unit accepted at the API boundary.
type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "miles"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid reports whether both components are finite and in range.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula.
func DistanceKm(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(latA)*math.Cos(latB)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Distance returns the great-circle distance in the requested unit. Miles
// are derived from the kilometer result by conversion, never by a second
// formula with its own constants.
func Distance(a, b Point, unit Unit) float64 {
	km := DistanceKm(a, b)
	if unit == Miles {
		return KmToMiles(km)
	}
	return km
}

// MilesToKm converts miles to kilometers.
func MilesToKm(mi float64) float64 { return mi * KmPerMile }

// KmToMiles converts kilometers to miles.
func KmToMiles(km float64) float64 { return km / KmPerMile }
