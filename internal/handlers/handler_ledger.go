package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finacct/ledger_backend/internal/core/domain"
	portssvc "github.com/finacct/ledger_backend/internal/core/ports/services"
	"github.com/finacct/ledger_backend/internal/dto"
	"github.com/finacct/ledger_backend/internal/middleware"
	"github.com/finacct/ledger_backend/internal/utils/mapping"
)

// ledgerHandler handles HTTP requests against the transactional ledger.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ledgerService portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ledgerService}
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	rg.POST("/companies", h.createCompany)

	company := rg.Group("/companies/:companyID", middleware.RequireCompanyMatch("companyID"))
	company.POST("/accounts", h.upsertAccount)
	company.POST("/accounts/seed", h.seedChart)
	company.POST("/entries", h.postEntry)
	company.POST("/entries/:entryID/reverse", h.reverseEntry)
	company.POST("/journals/:journalID/lock", h.lockPeriod)
	company.POST("/journals/:journalID/ensure-period", h.ensurePeriod)
	company.POST("/journals/:journalID/revalue", h.revalueCurrency)
	company.GET("/audit-trail", h.listAuditTrail)
}

func (h *ledgerHandler) createCompany(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createCompany", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	company, err := h.ledgerService.CreateCompany(c.Request.Context(), tenant, req)
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, company)
}

func (h *ledgerHandler) upsertAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.UpsertAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for upsertAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.ledgerService.UpsertAccount(c.Request.Context(), tenant, mapping.ToDomainAccount(c.Param("companyID"), req))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *ledgerHandler) seedChart(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.SeedChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for seedChart", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	accounts, err := h.ledgerService.SeedChart(c.Request.Context(), tenant, c.Param("companyID"), mapping.ToDomainChartAccounts(req.Accounts))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"accounts": accounts})
}

func (h *ledgerHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for postEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entry, err := h.ledgerService.PostEntry(c.Request.Context(), tenant, mapping.ToDomainEntry(req), mapping.ToDomainPostingMode(req.Mode))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	status := http.StatusCreated
	if entry.Status == domain.Proposed {
		status = http.StatusOK
	}
	c.JSON(status, entry)
}

func (h *ledgerHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReverseEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for reverseEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reversal, err := h.ledgerService.ReverseEntry(c.Request.Context(), tenant, c.Param("entryID"), req.Reason)
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, reversal)
}

func (h *ledgerHandler) lockPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.LockPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for lockPeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	journal, err := h.ledgerService.LockPeriod(c.Request.Context(), tenant, c.Param("journalID"), mapping.ToDomainPeriodRef(req.Period), domain.PeriodAction(req.Action), req.ApprovalReference)
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, journal)
}

func (h *ledgerHandler) ensurePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.EnsurePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ensurePeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	journal, err := h.ledgerService.EnsurePeriod(c.Request.Context(), tenant, c.Param("journalID"), mapping.ToDomainPeriodRef(req.Period))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, journal)
}

func (h *ledgerHandler) revalueCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RevalueCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for revalueCurrency", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	entries, err := h.ledgerService.RevalueCurrency(c.Request.Context(), tenant, c.Param("journalID"), mapping.ToDomainPeriodRef(req.Period), mapping.ToDomainCurrencies(req.Currencies))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *ledgerHandler) listAuditTrail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var filter domain.AuditTrailFilter
	if entityID := c.Query("entityID"); entityID != "" {
		filter.EntityID = &entityID
	}
	if cursor := c.Query("cursor"); cursor != "" {
		filter.Cursor = &cursor
	}
	if rawLimit := c.Query("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = &limit
	}

	events, err := h.ledgerService.ListAuditTrail(c.Request.Context(), tenant, filter)
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
