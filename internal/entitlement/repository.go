// AngelaMos | 2026
// repository.go

package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/gestia-dev/gestia-backend/internal/core"
)

type Repository interface {
	HasActive(ctx context.Context, ownerID int, today time.Time) (bool, error)
	ListForOwner(ctx context.Context, ownerID int) ([]Subscription, error)
	Create(ctx context.Context, sub *Subscription) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) HasActive(
	ctx context.Context,
	ownerID int,
	today time.Time,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM subscriptions
			WHERE owner_id = $1
			  AND status = $2
			  AND (end_date IS NULL OR end_date >= $3)
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, ownerID, StatusActive, today)
	if err != nil {
		return false, fmt.Errorf("check active subscription: %w", err)
	}

	return exists, nil
}

func (r *repository) ListForOwner(
	ctx context.Context,
	ownerID int,
) ([]Subscription, error) {
	query := `
		SELECT id, owner_id, plan_id, start_date, end_date, status, period,
		       created_at, updated_at
		FROM subscriptions
		WHERE owner_id = $1
		ORDER BY start_date DESC`

	var subs []Subscription
	if err := r.db.SelectContext(ctx, &subs, query, ownerID); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	return subs, nil
}

func (r *repository) Create(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions
			(owner_id, plan_id, start_date, end_date, status, period)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.GetContext(ctx, sub, query,
		sub.OwnerID,
		sub.PlanID,
		sub.StartDate,
		sub.EndDate,
		sub.Status,
		sub.Period,
	)
	if err != nil {
		return fmt.Errorf("create subscription: %w", err)
	}

	return nil
}
