package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finacct/ledger_backend/internal/apperrors"
	"github.com/finacct/ledger_backend/internal/core/domain"
	portsrepo "github.com/finacct/ledger_backend/internal/core/ports/repositories"
)

// PgxReconciliationRepository persists reconciliation sessions with their
// candidates as one JSONB document. Sessions are small and always mutated as
// a whole, so a document per session keeps the read-modify-write pattern
// simple.
type PgxReconciliationRepository struct {
	pool *pgxpool.Pool
}

// NewPgxReconciliationRepository creates a new repository over the given pool.
func NewPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationRepositoryFacade {
	return &PgxReconciliationRepository{pool: pool}
}

// Ensure PgxReconciliationRepository implements the repository facade
var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

func (r *PgxReconciliationRepository) CreateSession(ctx context.Context, session domain.ReconciliationSession) (*domain.ReconciliationSession, error) {
	candidates, err := json.Marshal(session.Candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal candidates: %v", apperrors.ErrStorage, err)
	}
	query := `
		INSERT INTO reconciliation_sessions (session_id, company_id, status, opened_at, candidates)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.pool.Exec(ctx, query, session.SessionID, session.CompanyID, session.Status, session.OpenedAt, candidates); err != nil {
		return nil, fmt.Errorf("%w: failed to create session %s: %v", apperrors.ErrStorage, session.SessionID, err)
	}
	created := session.Clone()
	return &created, nil
}

func (r *PgxReconciliationRepository) SaveSession(ctx context.Context, session domain.ReconciliationSession) error {
	candidates, err := json.Marshal(session.Candidates)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal candidates: %v", apperrors.ErrStorage, err)
	}
	query := `
		UPDATE reconciliation_sessions
		SET status = $2, candidates = $3
		WHERE session_id = $1
	`
	cmdTag, err := r.pool.Exec(ctx, query, session.SessionID, session.Status, candidates)
	if err != nil {
		return fmt.Errorf("%w: failed to save session %s: %v", apperrors.ErrStorage, session.SessionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: session %s", apperrors.ErrSessionNotFound, session.SessionID)
	}
	return nil
}

func (r *PgxReconciliationRepository) GetSession(ctx context.Context, sessionID string) (*domain.ReconciliationSession, error) {
	query := `
		SELECT session_id, company_id, status, opened_at, candidates
		FROM reconciliation_sessions
		WHERE session_id = $1
	`
	var session domain.ReconciliationSession
	var candidates []byte
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(&session.SessionID, &session.CompanyID, &session.Status, &session.OpenedAt, &candidates)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", apperrors.ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("%w: failed to get session %s: %v", apperrors.ErrStorage, sessionID, err)
	}
	if err := json.Unmarshal(candidates, &session.Candidates); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal candidates: %v", apperrors.ErrStorage, err)
	}
	return &session, nil
}
