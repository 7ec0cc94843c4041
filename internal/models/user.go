package models

import "time"

type User struct {
	ID    string
	Email string
	Name  string
	// PasswordHash is nil for accounts created before password login
	// existed; such accounts cannot log in with a password.
	PasswordHash  *string
	EmailVerified bool
	Image         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the part of a user that may be returned to clients.
type PublicUser struct {
	ID    string
	Email string
	Name  string
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
	}
}
