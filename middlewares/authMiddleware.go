package middlewares

import (
	"net/http"
	"strings"

	"github.com/contaflow/expenses_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuthMiddleware validates the bearer token and stamps the request context
// with the caller's tenant, user and role. Every model operation reads the
// tenant from there, never from request parameters.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), uuid.New().String())

		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		validated, err := utils.JwtValidate(token)
		if err != nil || !validated.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claims, ok := validated.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx = utils.SetTokenInContext(ctx, token)
		ctx = utils.SetTenantIdInContext(ctx, claims.TenantId)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)
		ctx = utils.SetRoleInContext(ctx, claims.Role)
		ctx = utils.SetIsAdminInContext(ctx, claims.Role == "admin")

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects requests that did not present a valid token.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantId, ok := utils.GetTenantIdFromContext(c.Request.Context())
		if !ok || tenantId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin additionally rejects non-admin callers.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context()); !isAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
