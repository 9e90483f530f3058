// AngelaMos | 2026
// entity.go

package entitlement

import (
	"time"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

type Period string

const (
	PeriodMonthly Period = "MONTHLY"
	PeriodYearly  Period = "YEARLY"
)

// Subscription is one billing row for a commercial owner. Owners accrue
// rows over time; only ACTIVE rows with a null or future end date entitle.
type Subscription struct {
	ID        int        `db:"id"`
	OwnerID   int        `db:"owner_id"`
	PlanID    int        `db:"plan_id"`
	StartDate time.Time  `db:"start_date"`
	EndDate   *time.Time `db:"end_date"`
	Status    Status     `db:"status"`
	Period    Period     `db:"period"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// Entitling reports whether this row grants paid access on the given day.
func (s *Subscription) Entitling(today time.Time) bool {
	if s.Status != StatusActive {
		return false
	}
	if s.EndDate == nil {
		return true
	}
	return !s.EndDate.Before(today)
}
