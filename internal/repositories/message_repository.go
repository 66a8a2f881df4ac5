package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions with the append-only message log.
type MessageRepository interface {
	Create(ctx context.Context, conversationID string, sender, receiver models.ParticipantRef, content string, messageType models.MessageType) (models.Message, error)
	ListForConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)
	Get(ctx context.Context, messageID string) (models.Message, error)
	MarkRead(ctx context.Context, conversationID string, messageIDs []string, reader models.ParticipantRef, at time.Time) ([]string, error)
	MarkConversationRead(ctx context.Context, conversationID string, reader models.ParticipantRef, at time.Time) ([]string, error)
	SoftDelete(ctx context.Context, messageID string, sender models.ParticipantRef) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, sender_role, receiver_id, receiver_role,
        content, message_type, is_read, read_at, is_deleted, created_at`

// Create appends a message to the conversation, unread.
func (r *MessageRepo) Create(ctx context.Context, conversationID string, sender, receiver models.ParticipantRef, content string, messageType models.MessageType) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, sender_role, receiver_id, receiver_role, content, message_type)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING `+messageColumns,
		uuid.NewString(), conversationID, sender.ID, sender.Role, receiver.ID, receiver.Role, content, messageType).
		StructScan(&msg)
	return msg, err
}

// ListForConversation returns non-deleted messages ordered by creation time.
func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1 AND is_deleted = FALSE
         ORDER BY created_at ASC
         LIMIT $2 OFFSET $3`,
		conversationID, limit, offset)
	return msgs, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkRead transitions the named messages to read, but only those
// addressed to the reader and still unread. Returns the ids that
// actually transitioned; everything else is silently left untouched.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID string, messageIDs []string, reader models.ParticipantRef, at time.Time) ([]string, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`UPDATE messages SET is_read = TRUE, read_at = $1
         WHERE conversation_id=$2 AND receiver_id=$3 AND receiver_role=$4
           AND is_read = FALSE AND id = ANY($5::uuid[])
         RETURNING id`,
		at, conversationID, reader.ID, reader.Role, pq.Array(messageIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// MarkConversationRead transitions every unread message addressed to
// the reader in the conversation. Used by the history fetch, where
// opening a conversation implicitly reads it.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, conversationID string, reader models.ParticipantRef, at time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE messages SET is_read = TRUE, read_at = $1
         WHERE conversation_id=$2 AND receiver_id=$3 AND receiver_role=$4 AND is_read = FALSE
         RETURNING id`,
		at, conversationID, reader.ID, reader.Role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIDs(rows)
}

// SoftDelete marks a message deleted (sender only); it stays in the
// log but is excluded from retrieval.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID string, sender models.ParticipantRef) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted = TRUE WHERE id=$1 AND sender_id=$2 AND sender_role=$3`,
		messageID, sender.ID, sender.Role)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func collectIDs(rows *sql.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
