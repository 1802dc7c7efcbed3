package dto

import "github.com/examify-bd/examify-api/internal/models"

// RegisterRequest is the payload for student self-registration.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Roll        string `json:"roll" validate:"required,min=3,max=64"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Institution string `json:"institution" validate:"omitempty,max=255"`
	BatchID     *uint  `json:"batch_id" validate:"omitempty,gt=0"`
}

// LoginRequest carries login credentials. Roll doubles as the phone-number
// identifier; no normalization is applied.
type LoginRequest struct {
	Roll     string `json:"roll" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned after a successful login or registration.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Roll        string `json:"roll"`
	Role        string `json:"role"`
	Institution string `json:"institution"`
	BatchIDs    []uint `json:"batch_ids"`
}

// NewUserResponse maps a user model onto its API representation.
func NewUserResponse(user models.User) UserResponse {
	batchIDs := make([]uint, 0, len(user.Batches))
	for _, batch := range user.Batches {
		batchIDs = append(batchIDs, batch.ID)
	}

	return UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Roll:        user.Roll,
		Role:        user.Role,
		Institution: user.Institution,
		BatchIDs:    batchIDs,
	}
}
