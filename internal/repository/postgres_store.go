package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiva/tripplanner/internal/model"
)

// DefaultTxTimeout bounds a booking batch transaction.
const DefaultTxTimeout = 5 * time.Second

// PostgresStore persists plans and bookings in PostgreSQL. Days and the
// budget summary are stored as JSONB; the schema lives in migrations/.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// ─── Plans ──────────────────────────────────────────────────

func (s *PostgresStore) SavePlan(ctx context.Context, plan *model.TripPlan) error {
	days, err := json.Marshal(plan.Days)
	if err != nil {
		return fmt.Errorf("save plan: encode days: %w", err)
	}
	budget, err := json.Marshal(plan.BudgetSummary)
	if err != nil {
		return fmt.Errorf("save plan: encode budget: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO trip_plans (trip_id, user_id, destination, start_date, end_date, days, budget_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (trip_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    destination = EXCLUDED.destination,
		    start_date = EXCLUDED.start_date,
		    end_date = EXCLUDED.end_date,
		    days = EXCLUDED.days,
		    budget_summary = EXCLUDED.budget_summary
	`, plan.TripID, plan.UserID, plan.Destination,
		plan.StartDate.Time(), plan.EndDate.Time(), days, budget)
	if err != nil {
		return fmt.Errorf("save plan %s: %w", plan.TripID, err)
	}
	return nil
}

func (s *PostgresStore) GetPlan(ctx context.Context, tripID string) (*model.TripPlan, error) {
	var (
		plan       model.TripPlan
		start, end time.Time
		days       []byte
		budget     []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT trip_id, user_id, destination, start_date, end_date, days, budget_summary
		FROM trip_plans
		WHERE trip_id = $1
	`, tripID).Scan(&plan.TripID, &plan.UserID, &plan.Destination, &start, &end, &days, &budget)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get plan %s: %w", tripID, ErrPlanNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %s: %w", tripID, err)
	}

	plan.StartDate = model.DateOf(start)
	plan.EndDate = model.DateOf(end)
	if err := json.Unmarshal(days, &plan.Days); err != nil {
		return nil, fmt.Errorf("get plan %s: decode days: %w", tripID, err)
	}
	if err := json.Unmarshal(budget, &plan.BudgetSummary); err != nil {
		return nil, fmt.Errorf("get plan %s: decode budget: %w", tripID, err)
	}
	return &plan, nil
}

// ─── Bookings ───────────────────────────────────────────────

func (s *PostgresStore) SaveBooking(ctx context.Context, rec model.BookingRecord) error {
	return s.SaveBookings(ctx, []model.BookingRecord{rec})
}

// SaveBookings inserts the batch in a single transaction so a trip never
// ends up with a partial set of bookings.
func (s *PostgresStore) SaveBookings(ctx context.Context, recs []model.BookingRecord) error {
	if len(recs) == 0 {
		return nil
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTxTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(txCtx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("save bookings: begin tx: %w", err)
	}
	// No-op once committed.
	defer tx.Rollback(txCtx)

	batch := &pgx.Batch{}
	for _, r := range recs {
		batch.Queue(`
			INSERT INTO bookings (booking_id, trip_id, user_id, type, status, provider,
			                      price, payment_status, reference, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, r.BookingID, r.TripID, r.UserID, string(r.Type), string(r.Status), r.Provider,
			r.Price, string(r.PaymentStatus), r.Reference, r.CreatedAt)
	}
	if err := tx.SendBatch(txCtx, batch).Close(); err != nil {
		return fmt.Errorf("save bookings: insert: %w", err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return fmt.Errorf("save bookings: commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBookings(ctx context.Context, tripID string) ([]model.BookingRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT booking_id, trip_id, user_id, type, status, provider,
		       price, payment_status, reference, created_at
		FROM bookings
		WHERE trip_id = $1
		ORDER BY seq ASC
	`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list bookings %s: %w", tripID, err)
	}
	defer rows.Close()

	out := []model.BookingRecord{}
	for rows.Next() {
		var r model.BookingRecord
		if err := rows.Scan(
			&r.BookingID, &r.TripID, &r.UserID, &r.Type, &r.Status, &r.Provider,
			&r.Price, &r.PaymentStatus, &r.Reference, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list bookings %s: scan: %w", tripID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings %s: %w", tripID, err)
	}
	return out, nil
}
