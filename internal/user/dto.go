// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/gestia-dev/gestia-backend/internal/identity"
)

type CreateUserRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
	Role     string `json:"role"     validate:"required,oneof=ADMINISTRATOR OPERATOR CASHIER"`
}

type UpdateUserRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Role *string `json:"role,omitempty" validate:"omitempty,oneof=ADMINISTRATOR OPERATOR CASHIER"`
}

type GrantPermissionRequest struct {
	Code string `json:"code" validate:"required,min=1,max=100"`
}

type UserResponse struct {
	ID        int           `json:"id"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Role      identity.Role `json:"role"`
	OwnerID   *int          `json:"owner_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

type PermissionsResponse struct {
	Codes []string `json:"codes"`
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		OwnerID:   u.OwnerID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
