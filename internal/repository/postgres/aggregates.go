// Package postgres holds the repositories backing the dashboard's aggregate
// tables.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/saral/aadhaar-pulse/internal/ingest"
)

// AggregateRepo reads and writes state_aggregates and monthly_buckets. It
// implements ingest.Writer.
type AggregateRepo struct{ db *sql.DB }

// NewAggregateRepo creates a Postgres-backed aggregate repository.
func NewAggregateRepo(db *sql.DB) *AggregateRepo { return &AggregateRepo{db: db} }

// UpsertStateAggregate writes a state's lifetime enrollment aggregate with
// REPLACE semantics: the persisted row becomes this run's totals, it is not
// added to a prior run's totals. This intentionally diverges from the
// additive monthly merge below; see DESIGN.md before changing either.
func (r *AggregateRepo) UpsertStateAggregate(ctx context.Context, agg *ingest.StateAggregate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO state_aggregates (state, total, age_0_5, age_5_17, age_18_plus, districts, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (state) DO UPDATE SET
			total = EXCLUDED.total,
			age_0_5 = EXCLUDED.age_0_5,
			age_5_17 = EXCLUDED.age_5_17,
			age_18_plus = EXCLUDED.age_18_plus,
			districts = EXCLUDED.districts,
			updated_at = NOW()
	`, agg.State, agg.Total, agg.Age0to5, agg.Age5to17, agg.Age18Plus, pq.Array(agg.DistrictList()))
	if err != nil {
		return fmt.Errorf("upsert state aggregate %s: %w", agg.State, err)
	}
	return nil
}

// MergeMonthlyBucket folds a run's sums into the (state, year, month) row
// with ADD semantics. The merge is a single conditional-update statement, so
// concurrent runs racing on the same key increment rather than overwrite;
// there is no separate read-then-write step to lose updates in.
func (r *AggregateRepo) MergeMonthlyBucket(ctx context.Context, b *ingest.MonthlyBucket) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_buckets (
			state, year, month,
			enrol_total, enrol_age_0_5, enrol_age_5_17, enrol_age_18_plus,
			demo_total, demo_age_5_17, demo_age_17_plus,
			bio_total, bio_age_5_17, bio_age_17_plus,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (state, year, month) DO UPDATE SET
			enrol_total = monthly_buckets.enrol_total + EXCLUDED.enrol_total,
			enrol_age_0_5 = monthly_buckets.enrol_age_0_5 + EXCLUDED.enrol_age_0_5,
			enrol_age_5_17 = monthly_buckets.enrol_age_5_17 + EXCLUDED.enrol_age_5_17,
			enrol_age_18_plus = monthly_buckets.enrol_age_18_plus + EXCLUDED.enrol_age_18_plus,
			demo_total = monthly_buckets.demo_total + EXCLUDED.demo_total,
			demo_age_5_17 = monthly_buckets.demo_age_5_17 + EXCLUDED.demo_age_5_17,
			demo_age_17_plus = monthly_buckets.demo_age_17_plus + EXCLUDED.demo_age_17_plus,
			bio_total = monthly_buckets.bio_total + EXCLUDED.bio_total,
			bio_age_5_17 = monthly_buckets.bio_age_5_17 + EXCLUDED.bio_age_5_17,
			bio_age_17_plus = monthly_buckets.bio_age_17_plus + EXCLUDED.bio_age_17_plus,
			updated_at = NOW()
	`, b.State, b.Year, b.Month,
		b.EnrolTotal, b.EnrolAge0to5, b.EnrolAge5to17, b.EnrolAge18Plus,
		b.DemoTotal, b.DemoAge5to17, b.DemoAge17Plus,
		b.BioTotal, b.BioAge5to17, b.BioAge17Plus)
	if err != nil {
		return fmt.Errorf("merge monthly bucket %s %d-%02d: %w", b.State, b.Year, b.Month, err)
	}
	return nil
}

// StateRow is a persisted state aggregate as served to the dashboard.
type StateRow struct {
	State     string    `json:"state"`
	Total     int64     `json:"total"`
	Age0to5   int64     `json:"age_0_5"`
	Age5to17  int64     `json:"age_5_17"`
	Age18Plus int64     `json:"age_18_plus"`
	Districts []string  `json:"districts"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const stateRowColumns = `state, total, age_0_5, age_5_17, age_18_plus, districts, updated_at`

func scanStateRow(s interface{ Scan(...any) error }) (*StateRow, error) {
	var row StateRow
	if err := s.Scan(&row.State, &row.Total, &row.Age0to5, &row.Age5to17,
		&row.Age18Plus, pq.Array(&row.Districts), &row.UpdatedAt); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListStateAggregates returns every persisted state aggregate, state-sorted.
func (r *AggregateRepo) ListStateAggregates(ctx context.Context) ([]*StateRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stateRowColumns+` FROM state_aggregates ORDER BY state`)
	if err != nil {
		return nil, fmt.Errorf("list state aggregates: %w", err)
	}
	defer rows.Close()

	var out []*StateRow
	for rows.Next() {
		row, err := scanStateRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan state aggregate: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// GetStateAggregate returns one state's aggregate, or (nil, nil) when the
// state has never been imported.
func (r *AggregateRepo) GetStateAggregate(ctx context.Context, state string) (*StateRow, error) {
	row, err := scanStateRow(r.db.QueryRowContext(ctx,
		`SELECT `+stateRowColumns+` FROM state_aggregates WHERE state = $1`, state))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get state aggregate %s: %w", state, err)
	}
	return row, nil
}

// MonthlyFilter narrows a monthly series query. Zero values mean "all".
type MonthlyFilter struct {
	State string
	Year  int
}

// MonthlyRow is a persisted monthly bucket as served to the dashboard.
type MonthlyRow struct {
	State string `json:"state"`
	Year  int    `json:"year"`
	Month int    `json:"month"`

	EnrolTotal     int64 `json:"enrol_total"`
	EnrolAge0to5   int64 `json:"enrol_age_0_5"`
	EnrolAge5to17  int64 `json:"enrol_age_5_17"`
	EnrolAge18Plus int64 `json:"enrol_age_18_plus"`

	DemoTotal     int64 `json:"demo_total"`
	DemoAge5to17  int64 `json:"demo_age_5_17"`
	DemoAge17Plus int64 `json:"demo_age_17_plus"`

	BioTotal     int64 `json:"bio_total"`
	BioAge5to17  int64 `json:"bio_age_5_17"`
	BioAge17Plus int64 `json:"bio_age_17_plus"`
}

// ListMonthly returns monthly buckets matching the filter, ordered by state
// then calendar position.
func (r *AggregateRepo) ListMonthly(ctx context.Context, f MonthlyFilter) ([]*MonthlyRow, error) {
	query := `
		SELECT state, year, month,
			enrol_total, enrol_age_0_5, enrol_age_5_17, enrol_age_18_plus,
			demo_total, demo_age_5_17, demo_age_17_plus,
			bio_total, bio_age_5_17, bio_age_17_plus
		FROM monthly_buckets
		WHERE ($1 = '' OR state = $1) AND ($2 = 0 OR year = $2)
		ORDER BY state, year, month`

	rows, err := r.db.QueryContext(ctx, query, f.State, f.Year)
	if err != nil {
		return nil, fmt.Errorf("list monthly buckets: %w", err)
	}
	defer rows.Close()

	var out []*MonthlyRow
	for rows.Next() {
		var m MonthlyRow
		if err := rows.Scan(&m.State, &m.Year, &m.Month,
			&m.EnrolTotal, &m.EnrolAge0to5, &m.EnrolAge5to17, &m.EnrolAge18Plus,
			&m.DemoTotal, &m.DemoAge5to17, &m.DemoAge17Plus,
			&m.BioTotal, &m.BioAge5to17, &m.BioAge17Plus); err != nil {
			return nil, fmt.Errorf("scan monthly bucket: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// NationalSummary is the all-India rollup for the dashboard's headline cards.
type NationalSummary struct {
	States             int   `json:"states"`
	EnrollmentTotal    int64 `json:"enrollmentTotal"`
	EnrolAge0to5       int64 `json:"enrol_age_0_5"`
	EnrolAge5to17      int64 `json:"enrol_age_5_17"`
	EnrolAge18Plus     int64 `json:"enrol_age_18_plus"`
	DemographicUpdates int64 `json:"demographicUpdates"`
	BiometricUpdates   int64 `json:"biometricUpdates"`
}

// GetNationalSummary rolls up state aggregates and monthly update totals.
func (r *AggregateRepo) GetNationalSummary(ctx context.Context) (*NationalSummary, error) {
	var s NationalSummary
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0),
			COALESCE(SUM(age_0_5), 0), COALESCE(SUM(age_5_17), 0), COALESCE(SUM(age_18_plus), 0)
		FROM state_aggregates
	`).Scan(&s.States, &s.EnrollmentTotal, &s.EnrolAge0to5, &s.EnrolAge5to17, &s.EnrolAge18Plus)
	if err != nil {
		return nil, fmt.Errorf("summarize state aggregates: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(demo_total), 0), COALESCE(SUM(bio_total), 0)
		FROM monthly_buckets
	`).Scan(&s.DemographicUpdates, &s.BiometricUpdates)
	if err != nil {
		return nil, fmt.Errorf("summarize monthly buckets: %w", err)
	}
	return &s, nil
}
