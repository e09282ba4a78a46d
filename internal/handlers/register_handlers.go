package handlers

import (
	"github.com/gin-gonic/gin"

	portssvc "github.com/finacct/ledger_backend/internal/core/ports/services"
	"github.com/finacct/ledger_backend/internal/middleware"
)

// RegisterRoutes sets up all application routes, injecting the service
// interfaces. Every /api/v1 route runs behind the tenant context middleware;
// company-scoped routes additionally verify tenant == target company before
// the core is invoked.
func RegisterRoutes(
	r *gin.Engine,
	ledgerService portssvc.LedgerSvcFacade,
	reconciliationService portssvc.ReconciliationSvcFacade,
) {
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	v1 := r.Group("/api/v1", middleware.TenantContextMiddleware())
	registerLedgerRoutes(v1, ledgerService)
	registerReconciliationRoutes(v1, reconciliationService)
}
