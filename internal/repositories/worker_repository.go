package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"localpros/internal/config"
	"localpros/internal/geo"
	"localpros/internal/models"
)

// workerColumns is the shared projection for worker + address rows.
const workerColumns = `
	w.id, w.public_id, w.name, w.phone, w.email, w.skills, w.experience_years,
	w.rating, w.total_reviews, w.price_per_service, w.pay_type, w.service_radius_km,
	w.status, w.profile_visible, w.created_at, w.updated_at,
	a.id, a.line1, a.area, a.city, a.state, a.country, a.pincode, a.latitude, a.longitude`

// WorkerRepository is the pgx-backed worker store. The visibility policy and
// skill-match mode are fixed at construction so every query shares one
// definition of "visible" and one definition of "matches".
type WorkerRepository struct {
	DB         *sql.DB
	Policy     config.VisibilityPolicy
	SkillMatch config.SkillMatch
}

// ListFilter narrows the no-location listing query.
type ListFilter struct {
	Skills  []string
	Query   string
	MaxRate float64
	Sort    models.SortOption
	Limit   int
}

// RadiusFilter narrows the location-known queries. RadiusKm is the caller's
// search radius; EnforceWorkerRadius additionally bounds each worker by its
// own service_radius_km. Both bounds are inclusive.
type RadiusFilter struct {
	Skills              []string
	Query               string
	MaxRate             float64
	RadiusKm            float64
	EnforceWorkerRadius bool
	OrderByDistance     bool
	Sort                models.SortOption
	Limit               int
}

type queryArgs struct {
	values []interface{}
}

func (q *queryArgs) add(v interface{}) string {
	q.values = append(q.values, v)
	return fmt.Sprintf("$%d", len(q.values))
}

// visibilityPredicate renders the configured policy as SQL. Both variants
// require an ACTIVE status and the profile_visible flag; the stricter one
// also demands a live subscription.
func (r *WorkerRepository) visibilityPredicate() string {
	base := `w.status = 'ACTIVE' AND w.profile_visible = TRUE`
	if r.Policy == config.VisibilityStatusAndSubscription {
		base += ` AND EXISTS (
			SELECT 1 FROM worker_subscriptions ws
			WHERE ws.worker_id = w.id AND ws.status = 'ACTIVE' AND ws.end_date >= NOW()
		)`
	}
	return base
}

// skillPredicate renders the configured match mode over the jsonb skills
// array. Matching is case-insensitive in both modes.
func (r *WorkerRepository) skillPredicate(skills []string, args *queryArgs) string {
	terms := make([]string, 0, len(skills))
	for _, skill := range skills {
		ph := args.add(skill)
		if r.SkillMatch == config.SkillMatchSubstring {
			terms = append(terms, fmt.Sprintf("s ILIKE '%%' || %s || '%%'", ph))
		} else {
			terms = append(terms, fmt.Sprintf("lower(s) = lower(%s)", ph))
		}
	}
	return fmt.Sprintf(`EXISTS (
		SELECT 1 FROM jsonb_array_elements_text(w.skills) s
		WHERE %s
	)`, strings.Join(terms, " OR "))
}

// haversineExpr renders the canonical great-circle distance in kilometers.
// It mirrors geo.DistanceKm exactly, including the Earth radius constant.
func haversineExpr(latPh, lngPh string) string {
	return fmt.Sprintf(`(2 * %f * asin(sqrt(
		pow(sin(radians((a.latitude - %s) / 2)), 2) +
		cos(radians(%s)) * cos(radians(a.latitude)) *
		pow(sin(radians((a.longitude - %s) / 2)), 2)
	)))`, geo.EarthRadiusKm, latPh, latPh, lngPh)
}

func orderBySQL(sort models.SortOption) string {
	switch sort {
	case models.SortPriceAsc:
		return "w.price_per_service ASC"
	case models.SortPriceDesc:
		return "w.price_per_service DESC"
	case models.SortExperienceDesc:
		return "w.experience_years DESC"
	default:
		return "w.rating DESC"
	}
}

func (r *WorkerRepository) textPredicates(f *queryArgs, query string, maxRate float64) []string {
	var preds []string
	if strings.TrimSpace(query) != "" {
		ph := f.add(query)
		preds = append(preds, fmt.Sprintf(`(w.name ILIKE '%%' || %s || '%%' OR EXISTS (
			SELECT 1 FROM jsonb_array_elements_text(w.skills) s WHERE s ILIKE '%%' || %s || '%%'
		))`, ph, ph))
	}
	if maxRate > 0 {
		preds = append(preds, fmt.Sprintf("w.price_per_service <= %s", f.add(maxRate)))
	}
	return preds
}

// FindVisible lists visible workers without any distance bound.
func (r *WorkerRepository) FindVisible(ctx context.Context, f ListFilter) ([]models.Worker, error) {
	args := &queryArgs{}
	preds := []string{r.visibilityPredicate()}
	if len(f.Skills) > 0 {
		preds = append(preds, r.skillPredicate(f.Skills, args))
	}
	preds = append(preds, r.textPredicates(args, f.Query, f.MaxRate)...)

	query := fmt.Sprintf(`
		SELECT %s FROM workers w
		JOIN addresses a ON a.id = w.address_id
		WHERE %s
		ORDER BY %s, w.id ASC
		LIMIT %s`,
		workerColumns, strings.Join(preds, " AND "), orderBySQL(f.Sort), args.add(f.Limit))

	return r.queryWorkers(ctx, query, args.values)
}

// RandomSample returns a randomized sample of visible workers.
func (r *WorkerRepository) RandomSample(ctx context.Context, skills []string, limit int) ([]models.Worker, error) {
	args := &queryArgs{}
	preds := []string{r.visibilityPredicate()}
	if len(skills) > 0 {
		preds = append(preds, r.skillPredicate(skills, args))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM workers w
		JOIN addresses a ON a.id = w.address_id
		WHERE %s
		ORDER BY RANDOM()
		LIMIT %s`,
		workerColumns, strings.Join(preds, " AND "), args.add(limit))

	return r.queryWorkers(ctx, query, args.values)
}

// WorkerWithDistance pairs a worker with its store-computed distance.
type WorkerWithDistance struct {
	Worker     models.Worker
	DistanceKm float64
}

// WithinRadius runs the haversine-bounded query. This is the SQL fallback
// path; when the Redis GEO index is healthy the search service prefers
// FetchVisibleByIDs over index candidates.
func (r *WorkerRepository) WithinRadius(ctx context.Context, p geo.Point, f RadiusFilter) ([]WorkerWithDistance, error) {
	args := &queryArgs{}
	latPh := args.add(p.Lat)
	lngPh := args.add(p.Lng)
	dist := haversineExpr(latPh, lngPh)

	preds := []string{
		r.visibilityPredicate(),
		"a.latitude IS NOT NULL",
		"a.longitude IS NOT NULL",
		fmt.Sprintf("%s <= %s", dist, args.add(f.RadiusKm)),
	}
	if f.EnforceWorkerRadius {
		preds = append(preds, fmt.Sprintf("%s <= w.service_radius_km", dist))
	}
	if len(f.Skills) > 0 {
		preds = append(preds, r.skillPredicate(f.Skills, args))
	}
	preds = append(preds, r.textPredicates(args, f.Query, f.MaxRate)...)

	order := orderBySQL(f.Sort) + ", w.id ASC"
	if f.OrderByDistance {
		order = fmt.Sprintf("%s ASC, %s, w.id ASC", dist, orderBySQL(f.Sort))
	}

	query := fmt.Sprintf(`
		SELECT %s, %s AS distance_km FROM workers w
		JOIN addresses a ON a.id = w.address_id
		WHERE %s
		ORDER BY %s
		LIMIT %s`,
		workerColumns, dist, strings.Join(preds, " AND "), order, args.add(f.Limit))

	rows, err := r.DB.QueryContext(ctx, query, args.values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkerWithDistance
	for rows.Next() {
		w, distKm, err := scanWorker(rows, true)
		if err != nil {
			return nil, err
		}
		out = append(out, WorkerWithDistance{Worker: w, DistanceKm: distKm})
	}
	return out, rows.Err()
}

// FetchVisibleByIDs hydrates Redis GEO candidates, re-applying the
// visibility and skill predicates so a stale index entry can never leak an
// ineligible worker.
func (r *WorkerRepository) FetchVisibleByIDs(ctx context.Context, ids []int64, skills []string) ([]models.Worker, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := &queryArgs{}
	idPhs := make([]string, 0, len(ids))
	for _, id := range ids {
		idPhs = append(idPhs, args.add(id))
	}
	preds := []string{
		fmt.Sprintf("w.id IN (%s)", strings.Join(idPhs, ", ")),
		r.visibilityPredicate(),
		"a.latitude IS NOT NULL",
		"a.longitude IS NOT NULL",
	}
	if len(skills) > 0 {
		preds = append(preds, r.skillPredicate(skills, args))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM workers w
		JOIN addresses a ON a.id = w.address_id
		WHERE %s`,
		workerColumns, strings.Join(preds, " AND "))

	return r.queryWorkers(ctx, query, args.values)
}

// ListForIndex returns the id and coordinates of every currently visible
// worker, used to seed or rebuild the Redis GEO index.
func (r *WorkerRepository) ListForIndex(ctx context.Context) ([]geo.IndexEntry, error) {
	query := fmt.Sprintf(`
		SELECT w.id, a.longitude, a.latitude FROM workers w
		JOIN addresses a ON a.id = w.address_id
		WHERE %s AND a.latitude IS NOT NULL AND a.longitude IS NOT NULL`,
		r.visibilityPredicate())

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []geo.IndexEntry
	for rows.Next() {
		var e geo.IndexEntry
		if err := rows.Scan(&e.WorkerID, &e.Lon, &e.Lat); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetByID returns a single worker with its address.
func (r *WorkerRepository) GetByID(ctx context.Context, id int64) (models.Worker, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM workers w
		JOIN addresses a ON a.id = w.address_id
		WHERE w.id = $1`, workerColumns)

	row := r.DB.QueryRowContext(ctx, query, id)
	w, _, err := scanWorker(row, false)
	if err == sql.ErrNoRows {
		return models.Worker{}, models.ErrWorkerNotFound
	}
	return w, err
}

// Create persists a worker and its address in one transaction.
func (r *WorkerRepository) Create(ctx context.Context, w models.Worker) (models.Worker, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Worker{}, err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO addresses (line1, area, city, state, country, pincode, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		w.Address.Line1, w.Address.Area, w.Address.City, w.Address.State,
		w.Address.Country, w.Address.Pincode, w.Address.Latitude, w.Address.Longitude,
	).Scan(&w.Address.ID)
	if err != nil {
		return models.Worker{}, err
	}

	skillsJSON, err := json.Marshal(w.Skills)
	if err != nil {
		return models.Worker{}, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO workers (
			public_id, name, phone, email, skills, experience_years, rating,
			total_reviews, price_per_service, pay_type, service_radius_km,
			status, profile_visible, address_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`,
		w.PublicID, w.Name, w.Phone, w.Email, skillsJSON, w.ExperienceYears,
		w.Rating, w.TotalReviews, w.PricePerService, w.PayType, w.ServiceRadiusKm,
		w.Status, w.ProfileVisible, w.Address.ID,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return models.Worker{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Worker{}, err
	}
	return w, nil
}

// UpdateStatus changes the worker lifecycle status.
func (r *WorkerRepository) UpdateStatus(ctx context.Context, id int64, status models.WorkerStatus) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE workers SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetProfileVisible flips the profile visibility override.
func (r *WorkerRepository) SetProfileVisible(ctx context.Context, id int64, visible bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE workers SET profile_visible = $1, updated_at = NOW() WHERE id = $2`, visible, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrWorkerNotFound
	}
	return nil
}

func (r *WorkerRepository) queryWorkers(ctx context.Context, query string, args []interface{}) ([]models.Worker, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Worker
	for rows.Next() {
		w, _, err := scanWorker(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorker(row rowScanner, withDistance bool) (models.Worker, float64, error) {
	var (
		w          models.Worker
		email      sql.NullString
		skillsJSON []byte
		line1      sql.NullString
		area       sql.NullString
		city       sql.NullString
		state      sql.NullString
		country    sql.NullString
		pincode    sql.NullString
		distance   float64
	)

	dest := []interface{}{
		&w.ID, &w.PublicID, &w.Name, &w.Phone, &email, &skillsJSON, &w.ExperienceYears,
		&w.Rating, &w.TotalReviews, &w.PricePerService, &w.PayType, &w.ServiceRadiusKm,
		&w.Status, &w.ProfileVisible, &w.CreatedAt, &w.UpdatedAt,
		&w.Address.ID, &line1, &area, &city, &state, &country, &pincode,
		&w.Address.Latitude, &w.Address.Longitude,
	}
	if withDistance {
		dest = append(dest, &distance)
	}

	if err := row.Scan(dest...); err != nil {
		return models.Worker{}, 0, err
	}
	if email.Valid {
		w.Email = &email.String
	}
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &w.Skills); err != nil {
			return models.Worker{}, 0, fmt.Errorf("decode worker skills: %w", err)
		}
	}
	w.Address.Line1 = line1.String
	w.Address.Area = area.String
	w.Address.City = city.String
	w.Address.State = state.String
	w.Address.Country = country.String
	w.Address.Pincode = pincode.String
	return w, distance, nil
}
