package dto

import (
	"time"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// CreateStaffRequest alta de personal del bar (password en texto, se hashea en el use case).
type CreateStaffRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=owner manager bartender server"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	BarID     string    `json:"bar_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse lista paginada de personal.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// LoginRequest entrada para login: teléfono + password/PIN.
type LoginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// FromUser convierte la entidad a su salida HTTP.
func FromUser(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		BarID:     u.BarID,
		Name:      u.Name,
		Phone:     u.Phone,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
