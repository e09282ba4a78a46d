package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finacct/ledger_backend/internal/core/domain"
)

const tenantKey = contextKey("tenant")

// TenantContextMiddleware extracts the caller's TenantContext from request
// headers. The upstream gateway authenticates the caller and forwards its
// identity; this layer only requires that the identity is present.
func TenantContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		userID := c.GetHeader("X-User-ID")
		if tenantID == "" || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant identity headers"})
			return
		}

		var roles []domain.Role
		if raw := c.GetHeader("X-Roles"); raw != "" {
			for _, role := range strings.Split(raw, ",") {
				roles = append(roles, domain.Role(strings.TrimSpace(role)))
			}
		}

		tenant := domain.TenantContext{
			TenantID: tenantID,
			UserID:   userID,
			Roles:    roles,
		}
		if locale := c.GetHeader("X-Locale"); locale != "" {
			tenant.Locale = &locale
		}

		c.Set(string(tenantKey), tenant)
		c.Next()
	}
}

// GetTenantFromContext returns the TenantContext set by
// TenantContextMiddleware.
func GetTenantFromContext(c *gin.Context) (domain.TenantContext, bool) {
	value, exists := c.Get(string(tenantKey))
	if !exists {
		return domain.TenantContext{}, false
	}
	tenant, ok := value.(domain.TenantContext)
	return tenant, ok
}

// RequireCompanyMatch rejects calls whose tenant does not own the company in
// the route. The core assumes this check has passed and does not authorize.
func RequireCompanyMatch(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := GetTenantFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant context"})
			return
		}
		if companyID := c.Param(param); companyID != "" && companyID != tenant.TenantID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant is not allowed to act on this company"})
			return
		}
		c.Next()
	}
}
