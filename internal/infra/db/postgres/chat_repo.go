package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/bore13/Ai-data-chat/internal/domain/chat"
)

type ChatRepository struct {
	db *sql.DB
}

func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Append inserts one message. Text is stored exactly as given (normally an envelope).
func (r *ChatRepository) Append(ctx context.Context, m *domain.Message) error {
	const q = `
INSERT INTO chat_messages
  (id, owner_id, session_id, message_text, is_user_message, "timestamp",
   insights, recommendations, reformulated_query, metrics)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	reformulated := sql.NullString{String: m.ReformulatedQuery, Valid: m.ReformulatedQuery != ""}

	_, err := r.db.ExecContext(ctx, q,
		m.ID, m.OwnerID, m.SessionID, m.Text, m.IsUserMessage, createdAt,
		jsonOr(m.Insights, "[]"), jsonOr(m.Recommendations, "[]"), reformulated, jsonOr(m.Metrics, "{}"),
	)
	return err
}

func (r *ChatRepository) ListBySession(ctx context.Context, owner, session string) ([]*domain.Message, error) {
	const q = `
SELECT id, owner_id, session_id, message_text, is_user_message, "timestamp",
       insights, recommendations, reformulated_query, metrics
FROM chat_messages
WHERE owner_id=$1 AND session_id=$2
ORDER BY "timestamp" ASC, id ASC;`

	rows, err := r.db.QueryContext(ctx, q, owner, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		var m domain.Message
		var insights, recs, metrics []byte
		var reformulated sql.NullString
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.SessionID, &m.Text, &m.IsUserMessage, &m.CreatedAt,
			&insights, &recs, &reformulated, &metrics); err != nil {
			return nil, err
		}
		// malformed JSON columns degrade to empty rather than failing the history
		_ = json.Unmarshal(insights, &m.Insights)
		_ = json.Unmarshal(recs, &m.Recommendations)
		_ = json.Unmarshal(metrics, &m.Metrics)
		m.ReformulatedQuery = reformulated.String
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *ChatRepository) DeleteBySession(ctx context.Context, owner, session string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE owner_id=$1 AND session_id=$2;`, owner, session)
	return err
}

func (r *ChatRepository) DeleteByOwner(ctx context.Context, owner string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE owner_id=$1;`, owner)
	return err
}
