package repository

import (
	"context"

	"github.com/javeriarizwan/chatclone/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Insert(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, sender_name, type, content, status, duration, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(ctx, query,
		message.ID,
		message.ConversationID,
		message.SenderID,
		message.SenderName,
		message.Type,
		message.Content,
		message.Status,
		message.Duration,
		message.CreatedAt,
	)
	return err
}

// ListByConversation returns the full message history ordered ascending by
// creation time, the order the poll read path replaces the client view with.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID string,
) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, sender_name, type, content, status, duration, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.SenderName,
			&message.Type,
			&message.Content,
			&message.Status,
			&message.Duration,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// UpdateStatus advances a message along sent -> delivered -> read. The WHERE
// clause refuses regressions so late-firing timers cannot undo a later state.
func (r *MessageRepository) UpdateStatus(
	ctx context.Context,
	messageID string,
	status models.MessageStatus,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET status = $2
		WHERE id = $1
		  AND array_position(ARRAY['sent','delivered','read'], $2::text)
		    > array_position(ARRAY['sent','delivered','read'], status)
	`, messageID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
