package models

import "github.com/golang-jwt/jwt/v5"

// UserHandle identifies the user performing a mutation. Identity is asserted by
// an upstream system.
type UserHandle struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Pagination represents metadata for paginated responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// UserClaims is the token payload an upstream system signs for a user.
type UserClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Handle returns the user handle asserted by the claims.
func (c UserClaims) Handle() UserHandle {
	return UserHandle{ID: c.Subject, Name: c.Name, Email: c.Email}
}
