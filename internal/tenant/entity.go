// AngelaMos | 2026
// entity.go

package tenant

import (
	"time"
)

// Owner is the commercial account at the root of a tenant: the paying
// entity whose trial and subscriptions entitle every operational user
// attached to it.
type Owner struct {
	ID           int        `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Company      string     `db:"company_name"`
	InTrial      bool       `db:"in_trial"`
	TrialEndsAt  *time.Time `db:"trial_ends_at"`
	Active       bool       `db:"active"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (o *Owner) TrialActive(now time.Time) bool {
	return o.InTrial && o.TrialEndsAt != nil && now.Before(*o.TrialEndsAt)
}
