package model

import (
	"LykkeLoopAPI/internal/entity"

	"github.com/google/uuid"
)

// AuthUser is what the auth boundary hands to the messaging core per request.
type AuthUser struct {
	UserID  *uuid.UUID
	IsAdmin bool
}

// Role is the sender/reader role the caller acts as.
func (a *AuthUser) Role() entity.SenderRole {
	if a.IsAdmin {
		return entity.RoleAdmin
	}
	return entity.RoleUser
}
