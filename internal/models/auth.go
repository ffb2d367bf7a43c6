package models

import "github.com/golang-jwt/jwt/v5"

// RoleAdmin is the role required for the campaign administration API
const RoleAdmin = "admin"

// SessionClaims are the claims carried by tokens issued by the external auth service
type SessionClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}
