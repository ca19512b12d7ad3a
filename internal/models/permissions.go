package models

import "strings"

// Role is the actor's privilege level on the platform.
type Role string

const (
	RoleTop         Role = "TOP"
	RoleTenantAdmin Role = "TENANT_ADMIN"
	RoleAgent       Role = "AGENT"
)

// roleHierarchy ranks roles from least to most privileged.
var roleHierarchy = map[Role]int{
	RoleAgent:       1,
	RoleTenantAdmin: 2,
	RoleTop:         3,
}

func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

func (r Role) Valid() bool {
	_, ok := roleHierarchy[r]
	return ok
}

// AtLeast compares r against the required role using the hierarchy.
func (r Role) AtLeast(required Role) bool {
	level, ok := roleHierarchy[r]
	if !ok {
		return false
	}
	return level >= roleHierarchy[required]
}
