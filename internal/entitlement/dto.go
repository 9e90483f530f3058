// AngelaMos | 2026
// dto.go

package entitlement

import (
	"time"
)

type StatusResponse struct {
	OwnerID  int  `json:"owner_id"`
	Entitled bool `json:"entitled"`
}

type CreateSubscriptionRequest struct {
	PlanID    int        `json:"plan_id"    validate:"required,min=1"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Period    string     `json:"period"     validate:"required,oneof=MONTHLY YEARLY"`
}

type SubscriptionResponse struct {
	ID        int        `json:"id"`
	PlanID    int        `json:"plan_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Status    Status     `json:"status"`
	Period    Period     `json:"period"`
}

type SubscriptionsResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

func ToSubscriptionResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        s.ID,
		PlanID:    s.PlanID,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		Status:    s.Status,
		Period:    s.Period,
	}
}
