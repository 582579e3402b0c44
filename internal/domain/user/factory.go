package user

import (
	"time"

	"github.com/google/uuid"
)

func NewFromRegistration(in NewUser) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MobileNo:     in.MobileNo,
		IsAdmin:      in.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
