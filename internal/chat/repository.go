package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finassist-platform/finassist/internal/ledger"
)

// LogRepository persists conversation turns. Inserts and owner-wide clears
// only; individual turns are never edited.
type LogRepository interface {
	InsertExchange(ctx context.Context, ownerID uuid.UUID, question, answer string, at time.Time) error
	ListRecent(ctx context.Context, ownerID uuid.UUID, turns int) ([]Log, error)
	Clear(ctx context.Context, ownerID uuid.UUID) error
}

type postgresLogRepository struct {
	pool *pgxpool.Pool
}

func NewLogRepository(pool *pgxpool.Pool) LogRepository {
	return &postgresLogRepository{pool: pool}
}

func logErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ledger.ErrDataUnavailable, err)
}

// InsertExchange writes the user turn and the assistant turn atomically so
// history never contains a question without its answer.
func (r *postgresLogRepository) InsertExchange(ctx context.Context, ownerID uuid.UUID, question, answer string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return logErr("beginning exchange insert", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chat_logs (id, owner_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := tx.Exec(ctx, query, uuid.New(), ownerID, RoleUser, question, at); err != nil {
		return logErr("inserting user turn", err)
	}
	// The assistant row sorts strictly after the user row
	if _, err := tx.Exec(ctx, query, uuid.New(), ownerID, RoleAssistant, answer, at.Add(time.Millisecond)); err != nil {
		return logErr("inserting assistant turn", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return logErr("committing exchange", err)
	}
	return nil
}

// ListRecent returns the last `turns` exchanges (up to 2*turns rows) in
// chronological order, ready to prepend to a prompt.
func (r *postgresLogRepository) ListRecent(ctx context.Context, ownerID uuid.UUID, turns int) ([]Log, error) {
	query := `
		SELECT id, owner_id, role, content, created_at
		FROM (
			SELECT id, owner_id, role, content, created_at
			FROM chat_logs
			WHERE owner_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ownerID, turns*2)
	if err != nil {
		return nil, logErr("listing chat history", err)
	}
	defer rows.Close()

	var logs []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Role, &l.Content, &l.CreatedAt); err != nil {
			return nil, logErr("scanning chat log row", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, logErr("reading chat log rows", err)
	}
	return logs, nil
}

func (r *postgresLogRepository) Clear(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM chat_logs WHERE owner_id = $1`, ownerID); err != nil {
		return logErr("clearing chat history", err)
	}
	return nil
}
