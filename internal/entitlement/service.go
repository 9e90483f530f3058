// AngelaMos | 2026
// service.go

package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gestia-dev/gestia-backend/internal/core"
	"github.com/gestia-dev/gestia-backend/internal/tenant"
)

// Employee is the slice of an operational user the evaluator needs: the
// owner it inherits entitlement from.
type Employee struct {
	OwnerID *int
}

type EmployeeDirectory interface {
	FindEmployee(ctx context.Context, email string) (*Employee, error)
}

// Evaluator answers whether a tenant currently holds paid-feature access.
// Every check fails closed: a missing row or a storage error is "not
// entitled", never "entitled".
type Evaluator struct {
	owners    tenant.Repository
	employees EmployeeDirectory
	subs      Repository
	now       func() time.Time
}

func NewEvaluator(
	owners tenant.Repository,
	employees EmployeeDirectory,
	subs Repository,
) *Evaluator {
	return &Evaluator{
		owners:    owners,
		employees: employees,
		subs:      subs,
		now:       time.Now,
	}
}

// IsEntitledEmail resolves the acting tenant by email: a commercial owner
// is evaluated directly; an operational user inherits from its owner. The
// inheritance is a single level; employees never hold their own
// entitlement.
func (e *Evaluator) IsEntitledEmail(ctx context.Context, email string) bool {
	owner, err := e.owners.GetByEmail(ctx, email)
	if err == nil {
		return e.ownerEntitled(ctx, owner)
	}
	if !errors.Is(err, core.ErrNotFound) {
		slog.Warn("entitlement lookup failed", "error", err)
		return false
	}

	employee, err := e.employees.FindEmployee(ctx, email)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.Warn("entitlement lookup failed", "error", err)
		}
		return false
	}

	if employee.OwnerID == nil {
		return false
	}

	return e.IsEntitledOwner(ctx, *employee.OwnerID)
}

// IsEntitledOwner evaluates a tenant directly by id, for callers that
// already resolved the owner.
func (e *Evaluator) IsEntitledOwner(ctx context.Context, ownerID int) bool {
	owner, err := e.owners.GetByID(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.Warn("entitlement lookup failed", "error", err)
		}
		return false
	}

	return e.ownerEntitled(ctx, owner)
}

// Trial and paid subscription are independent ORed conditions: an expired
// trial never blocks an active subscription, and vice versa.
func (e *Evaluator) ownerEntitled(ctx context.Context, owner *tenant.Owner) bool {
	now := e.now().UTC()

	if owner.TrialActive(now) {
		return true
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	active, err := e.subs.HasActive(ctx, owner.ID, today)
	if err != nil {
		slog.Warn("entitlement lookup failed", "error", err)
		return false
	}

	return active
}

// Service wraps subscription management around the evaluator for the HTTP
// layer.
type Service struct {
	db        *sqlx.DB
	repo      Repository
	evaluator *Evaluator
	now       func() time.Time
}

func NewService(db *sqlx.DB, repo Repository, evaluator *Evaluator) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		evaluator: evaluator,
		now:       time.Now,
	}
}

func (s *Service) Status(ctx context.Context, ownerID int) StatusResponse {
	return StatusResponse{
		OwnerID:  ownerID,
		Entitled: s.evaluator.IsEntitledOwner(ctx, ownerID),
	}
}

func (s *Service) List(
	ctx context.Context,
	ownerID int,
) ([]Subscription, error) {
	return s.repo.ListForOwner(ctx, ownerID)
}

func (s *Service) Create(
	ctx context.Context,
	ownerID int,
	req CreateSubscriptionRequest,
) (*Subscription, error) {
	sub := &Subscription{
		OwnerID:   ownerID,
		PlanID:    req.PlanID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    StatusActive,
		Period:    Period(req.Period),
	}

	// The subscription row and the trial tidy-up land together or not at
	// all; a lapsed trial window ends the moment the owner converts.
	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).Create(ctx, sub); err != nil {
			return err
		}
		return tenant.NewRepository(tx).EndExpiredTrial(ctx, ownerID, s.now())
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}
