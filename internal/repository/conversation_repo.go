package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/javeriarizwan/chatclone/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	ownerID string,
	contactID string,
) (*models.Conversation, error) {
	// The participant pair is stored ordered so the unique index catches the
	// conversation regardless of who added whom.
	query := `
		INSERT INTO conversations (id, owner_id, contact_id, pair_key)
		VALUES ($1, $2, $3, LEAST($2, $3) || ':' || GREATEST($2, $3))
		ON CONFLICT (pair_key)
		DO UPDATE SET pair_key = conversations.pair_key
		RETURNING id, owner_id, contact_id, created_at, updated_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, uuid.NewString(), ownerID, contactID).Scan(
		&conversation.ID,
		&conversation.OwnerID,
		&conversation.ContactID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetForParticipant(
	ctx context.Context,
	conversationID string,
	participantID string,
) (*models.Conversation, error) {
	query := `
		SELECT id, owner_id, contact_id, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND (owner_id = $2 OR contact_id = $2)
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.OwnerID,
		&conversation.ContactID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID string,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.owner_id,
			c.contact_id,
			c.created_at,
			c.updated_at,
			u.id,
			u.name,
			u.phone,
			u.email,
			u.avatar_url,
			u.is_online,
			u.last_seen,
			u.created_at,
			lm.id,
			lm.sender_id,
			lm.sender_name,
			lm.type,
			lm.content,
			lm.status,
			lm.duration,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		JOIN users u
		  ON u.id = CASE WHEN c.owner_id = $1 THEN c.contact_id ELSE c.owner_id END
		LEFT JOIN LATERAL (
			SELECT id, sender_id, sender_name, type, content, status, duration, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND status <> 'read'
		) uc ON TRUE
		WHERE c.owner_id = $1 OR c.contact_id = $1
		ORDER BY c.updated_at DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var contact models.User
		var messageID sql.NullString
		var messageSenderID sql.NullString
		var messageSenderName sql.NullString
		var messageType sql.NullString
		var messageContent sql.NullString
		var messageStatus sql.NullString
		var messageDuration sql.NullInt64
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.OwnerID,
			&summary.ContactID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&contact.ID,
			&contact.Name,
			&contact.Phone,
			&contact.Email,
			&contact.AvatarURL,
			&contact.IsOnline,
			&contact.LastSeen,
			&contact.CreatedAt,
			&messageID,
			&messageSenderID,
			&messageSenderName,
			&messageType,
			&messageContent,
			&messageStatus,
			&messageDuration,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		summary.Contact = &contact
		if messageID.Valid {
			message := &models.Message{
				ID:             messageID.String,
				ConversationID: summary.ID,
				SenderID:       messageSenderID.String,
				SenderName:     messageSenderName.String,
				Type:           models.MessageType(messageType.String),
				Content:        messageContent.String,
				Status:         models.MessageStatus(messageStatus.String),
				CreatedAt:      messageCreatedAt.Time,
			}
			if messageDuration.Valid {
				duration := int(messageDuration.Int64)
				message.Duration = &duration
			}
			summary.LastMessage = message
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET updated_at = $2
		WHERE id = $1
	`, conversationID, at)
	return err
}
