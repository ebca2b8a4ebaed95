package geo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const workerGeoKey = "workers:geo:visible"

// NearbyWorker is a candidate returned from the Redis GEO index. Dist is
// meters as reported by Redis; final distances are recomputed with the
// canonical haversine so every result shares one formula.
type NearbyWorker struct {
	ID   int64
	Dist float64
	Lon  float64
	Lat  float64
}

// WorkerLocator maintains the GEO set of visible worker coordinates.
type WorkerLocator struct {
	rdb *redis.Client
}

// NewWorkerLocator creates a locator over the given Redis client.
func NewWorkerLocator(rdb *redis.Client) *WorkerLocator {
	return &WorkerLocator{rdb: rdb}
}

// Available reports whether a Redis client is wired in at all.
func (l *WorkerLocator) Available() bool { return l != nil && l.rdb != nil }

func memberName(workerID int64) string {
	return fmt.Sprintf("worker:%d", workerID)
}

func parseWorkerMember(member string) (int64, error) {
	parts := strings.Split(member, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid member %q", member)
	}
	return strconv.ParseInt(parts[1], 10, 64)
}

// Add indexes or refreshes a visible worker's coordinates.
func (l *WorkerLocator) Add(ctx context.Context, workerID int64, lon, lat float64) error {
	if !l.Available() {
		return nil
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("worker locator: invalid coords lon=%.8f lat=%.8f", lon, lat)
	}
	return l.rdb.GeoAdd(ctx, workerGeoKey, &redis.GeoLocation{
		Name:      memberName(workerID),
		Longitude: lon,
		Latitude:  lat,
	}).Err()
}

// Remove drops a worker from the index, typically on deactivation or when
// a subscription lapses.
func (l *WorkerLocator) Remove(ctx context.Context, workerID int64) error {
	if !l.Available() {
		return nil
	}
	return l.rdb.ZRem(ctx, workerGeoKey, memberName(workerID)).Err()
}

// IndexEntry seeds the index during a rebuild.
type IndexEntry struct {
	WorkerID int64
	Lon      float64
	Lat      float64
}

// Rebuild replaces the whole index with the given visible workers.
func (l *WorkerLocator) Rebuild(ctx context.Context, entries []IndexEntry) error {
	if !l.Available() {
		return nil
	}
	pipe := l.rdb.TxPipeline()
	pipe.Del(ctx, workerGeoKey)
	for _, e := range entries {
		pipe.GeoAdd(ctx, workerGeoKey, &redis.GeoLocation{
			Name:      memberName(e.WorkerID),
			Longitude: e.Lon,
			Latitude:  e.Lat,
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Nearby returns indexed workers within radiusMeters sorted by distance.
func (l *WorkerLocator) Nearby(ctx context.Context, lon, lat, radiusMeters float64, limit int) ([]NearbyWorker, error) {
	if !l.Available() {
		return nil, fmt.Errorf("worker locator: redis is not configured")
	}
	res, err := l.rdb.GeoSearchLocation(ctx, workerGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  lon,
			Latitude:   lat,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	workers := make([]NearbyWorker, 0, len(res))
	for _, item := range res {
		id, err := parseWorkerMember(item.Name)
		if err != nil {
			continue
		}
		workers = append(workers, NearbyWorker{
			ID:   id,
			Dist: item.Dist,
			Lon:  item.Longitude,
			Lat:  item.Latitude,
		})
	}
	return workers, nil
}
