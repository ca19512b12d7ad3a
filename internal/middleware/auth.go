// Package middleware provides the fiber middleware that turns a bearer token
// into the actor and tenant a request runs as.
package middleware

import (
	"strings"

	apperrors "gamewallet/internal/errors"
	"gamewallet/internal/models"
	"gamewallet/internal/services/authorization"
	"gamewallet/internal/utils"
	"gamewallet/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	localClaims = "claims"
	localTenant = "tenantID"

	// TenantHeader lets the top role act inside a specific tenant.
	TenantHeader = "X-Tenant-ID"
)

// AuthMiddleware validates JWT tokens and stores the actor claims in the
// request context.
type AuthMiddleware struct {
	secret string
	log    *zap.Logger
}

func NewAuthMiddleware(secret string, log *zap.Logger) *AuthMiddleware {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthMiddleware{secret: secret, log: log}
}

func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "), m.secret)
	if err != nil {
		m.log.Debug("token rejected", zap.Error(err))
		return response.Unauthorized(c, "invalid token")
	}

	c.Locals(localClaims, claims)
	return c.Next()
}

// ResolveTenant fixes the tenant scope of the request. It comes from the
// claims; the top role may target another tenant with X-Tenant-ID.
func ResolveTenant(c *fiber.Ctx) error {
	claims, ok := Claims(c)
	if !ok {
		return response.Unauthorized(c, "missing claims")
	}

	tenant := claims.TenantID
	if requested := strings.TrimSpace(c.Get(TenantHeader)); requested != "" && requested != tenant {
		if claims.Role != models.RoleTop {
			return response.Error(c, apperrors.Forbidden(authorization.ReasonCrossTenant,
				"only the top role may select a tenant"))
		}
		tenant = requested
	}
	c.Locals(localTenant, tenant)
	return c.Next()
}

// Claims returns the claims stored by AuthMiddleware.
func Claims(c *fiber.Ctx) (*models.ActorClaims, bool) {
	claims, ok := c.Locals(localClaims).(*models.ActorClaims)
	return claims, ok && claims != nil
}

// Actor returns the authenticated actor.
func Actor(c *fiber.Ctx) (models.Actor, bool) {
	claims, ok := Claims(c)
	if !ok {
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

// Tenant returns the tenant scope set by ResolveTenant.
func Tenant(c *fiber.Ctx) string {
	tenant, _ := c.Locals(localTenant).(string)
	return tenant
}
