package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/finacct/ledger_backend/internal/core/ports/services"
	"github.com/finacct/ledger_backend/internal/dto"
	"github.com/finacct/ledger_backend/internal/middleware"
	"github.com/finacct/ledger_backend/internal/utils/mapping"
)

// reconciliationHandler handles HTTP requests for reconciliation sessions and
// their candidates.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func newReconciliationHandler(reconciliationService portssvc.ReconciliationSvcFacade) *reconciliationHandler {
	return &reconciliationHandler{reconciliationService: reconciliationService}
}

func registerReconciliationRoutes(rg *gin.RouterGroup, reconciliationService portssvc.ReconciliationSvcFacade) {
	h := newReconciliationHandler(reconciliationService)

	company := rg.Group("/companies/:companyID", middleware.RequireCompanyMatch("companyID"))
	company.POST("/reconciliation/sessions", h.createSession)

	sessions := rg.Group("/reconciliation/sessions/:sessionID", h.requireSessionOwnership)
	sessions.GET("", h.getSession)
	sessions.POST("/candidates", h.addCandidate)
	sessions.POST("/candidates/:candidateID/accept", h.acceptCandidate)
	sessions.POST("/candidates/:candidateID/reject", h.rejectCandidate)
	sessions.POST("/candidates/:candidateID/write-off", h.writeOffCandidate)
	sessions.POST("/accept-partial", h.acceptPartial)
	sessions.POST("/reopen", h.reopenSession)
}

// requireSessionOwnership resolves the session in the route and rejects
// callers whose tenant does not own it. A session never changes company, so
// checking before the mutating call cannot race with it.
func (h *reconciliationHandler) requireSessionOwnership(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	tenant, ok := middleware.GetTenantFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant context"})
		return
	}

	session, err := h.reconciliationService.Session(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondServiceError(c, logger, err)
		c.Abort()
		return
	}
	if session.CompanyID != tenant.TenantID {
		logger.Warn("Cross-tenant session access rejected",
			slog.String("session_id", session.SessionID),
			slog.String("tenant_id", tenant.TenantID))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "tenant is not allowed to act on this session"})
		return
	}
	c.Next()
}

func (h *reconciliationHandler) createSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	session, err := h.reconciliationService.CreateSession(c.Request.Context(), c.Param("companyID"))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *reconciliationHandler) getSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	session, err := h.reconciliationService.Session(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *reconciliationHandler) addCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.AddCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for addCandidate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	candidate, err := h.reconciliationService.AddCandidate(c.Request.Context(), c.Param("sessionID"), mapping.ToDomainProposal(req))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

func (h *reconciliationHandler) acceptCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	candidate, err := h.reconciliationService.Accept(c.Request.Context(), c.Param("sessionID"), c.Param("candidateID"))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

func (h *reconciliationHandler) rejectCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	candidate, err := h.reconciliationService.Reject(c.Request.Context(), c.Param("sessionID"), c.Param("candidateID"))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

func (h *reconciliationHandler) writeOffCandidate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.WriteOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for writeOffCandidate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	candidate, err := h.reconciliationService.WriteOff(c.Request.Context(), c.Param("sessionID"), c.Param("candidateID"), req.Reason)
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

func (h *reconciliationHandler) acceptPartial(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.AcceptPartialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for acceptPartial", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	candidates, err := h.reconciliationService.AcceptPartial(c.Request.Context(), c.Param("sessionID"), req.GroupID, req.CandidateIDs)
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}

func (h *reconciliationHandler) reopenSession(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	session, err := h.reconciliationService.Reopen(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		respondServiceError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
