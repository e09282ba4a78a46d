package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finacct/ledger_backend/internal/core/domain"
	"github.com/finacct/ledger_backend/internal/core/services"
	"github.com/finacct/ledger_backend/internal/handlers"
	"github.com/finacct/ledger_backend/internal/repositories/memory"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ledgerService := services.NewLedgerService(memory.NewLedgerStore())
	reconciliationService := services.NewReconciliationService(memory.NewReconciliationStore(), services.NewDefaultScoringStrategy())
	handlers.RegisterRoutes(r, ledgerService, reconciliationService)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, tenantID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
		req.Header.Set("X-User-ID", "user-1")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createCompany(t *testing.T, r *gin.Engine) domain.Company {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/companies", "bootstrap", gin.H{
		"name":           "Acme GmbH",
		"baseCurrency":   gin.H{"code": "USD", "precision": 2},
		"fiscalCalendar": gin.H{"periodsPerYear": 12, "openingMonth": 1},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var company domain.Company
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))
	return company
}

func TestCreateCompany_RequiresTenantHeaders(t *testing.T) {
	r := newTestRouter()
	w := doJSON(t, r, http.MethodPost, "/api/v1/companies", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpsertAccount_CrossTenantForbidden(t *testing.T) {
	r := newTestRouter()
	company := createCompany(t, r)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/accounts", company.CompanyID), "someone-else", gin.H{
		"accountID":    "acc-cash",
		"code":         "1000",
		"name":         "Cash",
		"accountType":  "ASSET",
		"currencyMode": "FUNCTIONAL_ONLY",
		"isActive":     true,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPostEntry_EndToEnd(t *testing.T) {
	r := newTestRouter()
	company := createCompany(t, r)

	for _, account := range []gin.H{
		{"accountID": "acc-cash", "code": "1000", "name": "Cash", "accountType": "ASSET", "currencyMode": "FUNCTIONAL_ONLY", "isActive": true},
		{"accountID": "acc-rev", "code": "4000", "name": "Revenue", "accountType": "REVENUE", "currencyMode": "FUNCTIONAL_ONLY", "isActive": true},
	} {
		w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/accounts", company.CompanyID), company.CompanyID, account)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	line := func(lineID, accountID, side string, amount int64) gin.H {
		return gin.H{
			"lineID":                lineID,
			"accountID":             accountID,
			"side":                  side,
			"amountMinor":           amount,
			"currency":              gin.H{"code": "USD", "precision": 2},
			"functionalAmountMinor": amount,
			"functionalCurrency":    gin.H{"code": "USD", "precision": 2},
		}
	}

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/entries", company.CompanyID), company.CompanyID, gin.H{
		"entryID":   "je-1",
		"journalID": "jnl-gl",
		"origin":    "MANUAL",
		"mode":      "COMMIT",
		"lines": []gin.H{
			line("l1", "acc-cash", "DEBIT", 12500),
			line("l2", "acc-rev", "CREDIT", 12500),
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var posted domain.JournalEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posted))
	assert.Equal(t, domain.Posted, posted.Status)

	// Unbalanced entries surface as 400.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/entries", company.CompanyID), company.CompanyID, gin.H{
		"entryID":   "je-2",
		"journalID": "jnl-gl",
		"origin":    "MANUAL",
		"lines": []gin.H{
			line("l1", "acc-cash", "DEBIT", 12500),
			line("l2", "acc-rev", "CREDIT", 12400),
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "journal entry must balance")
}

func TestLockPeriod_ThenPostingConflicts(t *testing.T) {
	r := newTestRouter()
	company := createCompany(t, r)

	for _, account := range []gin.H{
		{"accountID": "acc-cash", "code": "1000", "name": "Cash", "accountType": "ASSET", "currencyMode": "FUNCTIONAL_ONLY", "isActive": true},
		{"accountID": "acc-rev", "code": "4000", "name": "Revenue", "accountType": "REVENUE", "currencyMode": "FUNCTIONAL_ONLY", "isActive": true},
	} {
		w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/accounts", company.CompanyID), company.CompanyID, account)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/journals/jnl-gl/lock", company.CompanyID), company.CompanyID, gin.H{
		"period": gin.H{"fiscalYear": 2024, "period": 1},
		"action": "SOFT_CLOSE",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/entries", company.CompanyID), company.CompanyID, gin.H{
		"entryID":   "je-1",
		"journalID": "jnl-gl",
		"origin":    "MANUAL",
		"lines": []gin.H{
			{"lineID": "l1", "accountID": "acc-cash", "side": "DEBIT", "amountMinor": 100, "currency": gin.H{"code": "USD", "precision": 2}, "functionalAmountMinor": 100, "functionalCurrency": gin.H{"code": "USD", "precision": 2}},
			{"lineID": "l2", "accountID": "acc-rev", "side": "CREDIT", "amountMinor": 100, "currency": gin.H{"code": "USD", "precision": 2}, "functionalAmountMinor": 100, "functionalCurrency": gin.H{"code": "USD", "precision": 2}},
		},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "soft-close")
}

func TestReconciliationSessionLifecycle(t *testing.T) {
	r := newTestRouter()
	company := createCompany(t, r)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/reconciliation/sessions", company.CompanyID), company.CompanyID, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session domain.ReconciliationSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/reconciliation/sessions/%s/candidates", session.SessionID), company.CompanyID, gin.H{
		"transactionID":          "txn-1",
		"journalEntryID":         "je-1",
		"transactionDescription": "ACME invoice 42",
		"journalDescription":     "ACME invoice 42",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var candidate domain.MatchCandidate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &candidate))
	assert.Equal(t, domain.CandidatePending, candidate.Status)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/reconciliation/sessions/%s/candidates/%s/accept", session.SessionID, candidate.CandidateID), company.CompanyID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/reconciliation/sessions/%s", session.SessionID), company.CompanyID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, domain.SessionClosed, session.Status)

	// Accepted candidates cannot be rejected afterwards.
	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/reconciliation/sessions/%s/candidates/%s/reject", session.SessionID, candidate.CandidateID), company.CompanyID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/reconciliation/sessions/sess-missing", company.CompanyID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReconciliationSession_CrossTenantForbidden(t *testing.T) {
	r := newTestRouter()
	company := createCompany(t, r)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/companies/%s/reconciliation/sessions", company.CompanyID), company.CompanyID, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session domain.ReconciliationSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/reconciliation/sessions/%s", session.SessionID), "someone-else", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), company.CompanyID)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/reconciliation/sessions/%s/reopen", session.SessionID), "someone-else", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owning tenant still passes the guard.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/v1/reconciliation/sessions/%s", session.SessionID), company.CompanyID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
