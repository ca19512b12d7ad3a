package models

import "github.com/golang-jwt/jwt/v5"

// ActorClaims is the JWT payload issued to backoffice actors.
type ActorClaims struct {
	jwt.RegisteredClaims
	ActorID  string `json:"actor_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id"`
}

// Actor is the fully resolved identity on whose behalf money moves.
func (c *ActorClaims) Actor() Actor {
	return Actor{ID: c.ActorID, Username: c.Username, Role: c.Role, TenantID: c.TenantID}
}
