package agentresult

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists and lists audit rows. Inserts only; there is no
// update or delete path.
type Repository interface {
	Insert(ctx context.Context, result *AgentResult) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]AgentResult, int64, error)
}

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Insert(ctx context.Context, result *AgentResult) error {
	if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}

	query := `
		INSERT INTO agent_results (id, owner_id, agent_name, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query,
		result.ID, result.OwnerID, result.AgentName, result.Payload, result.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting agent result: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]AgentResult, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM agent_results WHERE owner_id = $1`
	if err := r.pool.QueryRow(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting agent results: %w", err)
	}

	query := `
		SELECT id, owner_id, agent_name, payload, created_at
		FROM agent_results
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing agent results: %w", err)
	}
	defer rows.Close()

	var results []AgentResult
	for rows.Next() {
		var ar AgentResult
		if err := rows.Scan(&ar.ID, &ar.OwnerID, &ar.AgentName, &ar.Payload, &ar.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning agent result: %w", err)
		}
		results = append(results, ar)
	}
	return results, total, rows.Err()
}
