package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence. Unread
// counters are mutated with atomic field-level updates, never by
// loading and saving whole rows.
type ConversationRepository interface {
	CreateOrGet(ctx context.Context, a, b models.ParticipantRef) (models.Conversation, error)
	Get(ctx context.Context, conversationID string) (models.Conversation, error)
	Participants(ctx context.Context, conversationID string) ([]models.ConversationParticipant, error)
	IsParticipant(ctx context.Context, conversationID string, p models.ParticipantRef) (bool, error)
	ListForParticipant(ctx context.Context, p models.ParticipantRef) ([]models.ConversationSummary, error)
	RecordMessage(ctx context.Context, conversationID, messageID string, receiver models.ParticipantRef, at time.Time) error
	ResetUnread(ctx context.Context, conversationID string, p models.ParticipantRef, at time.Time) error
	TotalUnread(ctx context.Context, p models.ParticipantRef) (int, error)
	Deactivate(ctx context.Context, conversationID string) error
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, pair_key, last_message_id, last_activity, is_active, created_at`

// CreateOrGet returns the conversation between the two participants,
// creating it with both unread counters at zero when absent. The
// canonical pair key makes the lookup symmetric, and the unique
// constraint closes the race between two concurrent first sends.
func (r *ConversationRepo) CreateOrGet(ctx context.Context, a, b models.ParticipantRef) (models.Conversation, error) {
	if a == b {
		return models.Conversation{}, errors.New("cannot create conversation with self")
	}
	pairKey := models.PairKey(a, b)

	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE pair_key=$1`, pairKey)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, pair_key) VALUES ($1, $2)
         ON CONFLICT (pair_key) DO NOTHING
         RETURNING `+conversationColumns,
		uuid.NewString(), pairKey).StructScan(&conv)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the insert race; the other writer's row is the one.
		tx.Rollback()
		err = r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE pair_key=$1`, pairKey)
		return conv, err
	}
	if err != nil {
		return models.Conversation{}, err
	}

	for _, p := range []models.ParticipantRef{a, b} {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, participant_id, participant_role)
             VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			conv.ID, p.ID, p.Role); err != nil {
			return models.Conversation{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv, `SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// Participants returns both sides of a conversation.
func (r *ConversationRepo) Participants(ctx context.Context, conversationID string) ([]models.ConversationParticipant, error) {
	var parts []models.ConversationParticipant
	err := r.db.SelectContext(ctx, &parts,
		`SELECT conversation_id, participant_id, participant_role, unread_count, last_seen_at
         FROM conversation_participants WHERE conversation_id=$1`, conversationID)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, ErrConversationNotFound
	}
	return parts, nil
}

// IsParticipant checks whether the participant belongs to the conversation.
func (r *ConversationRepo) IsParticipant(ctx context.Context, conversationID string, p models.ParticipantRef) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM conversation_participants
         WHERE conversation_id=$1 AND participant_id=$2 AND participant_role=$3)`,
		conversationID, p.ID, p.Role)
	return exists, err
}

// ListForParticipant returns the participant's active conversations,
// newest activity first, with the other side and last message attached.
func (r *ConversationRepo) ListForParticipant(ctx context.Context, p models.ParticipantRef) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.last_activity, cp.unread_count,
                 op.participant_id AS other_id, op.participant_role AS other_role,
                 m.id, m.conversation_id, m.sender_id, m.sender_role, m.receiver_id, m.receiver_role,
                 m.content, m.message_type, m.is_read, m.read_at, m.created_at
          FROM conversations c
          JOIN conversation_participants cp
            ON cp.conversation_id = c.id AND cp.participant_id=$1 AND cp.participant_role=$2
          JOIN conversation_participants op
            ON op.conversation_id = c.id AND NOT (op.participant_id=$1 AND op.participant_role=$2)
          LEFT JOIN messages m ON m.id = c.last_message_id
          WHERE c.is_active = TRUE
          ORDER BY c.last_activity DESC`
	rows, err := r.db.QueryContext(ctx, query, p.ID, p.Role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ConversationSummary
	for rows.Next() {
		var (
			s       models.ConversationSummary
			msgID   sql.NullString
			convID  sql.NullString
			sndID   sql.NullString
			sndRole sql.NullString
			rcvID   sql.NullString
			rcvRole sql.NullString
			content sql.NullString
			msgType sql.NullString
			isRead  sql.NullBool
			readAt  sql.NullTime
			created sql.NullTime
		)
		if err := rows.Scan(&s.ConversationID, &s.LastActivity, &s.UnreadCount,
			&s.Other.ID, &s.Other.Role,
			&msgID, &convID, &sndID, &sndRole, &rcvID, &rcvRole,
			&content, &msgType, &isRead, &readAt, &created); err != nil {
			return nil, err
		}
		if msgID.Valid {
			msg := models.Message{
				ID:             msgID.String,
				ConversationID: convID.String,
				SenderID:       sndID.String,
				SenderRole:     models.Role(sndRole.String),
				ReceiverID:     rcvID.String,
				ReceiverRole:   models.Role(rcvRole.String),
				Content:        content.String,
				MessageType:    models.MessageType(msgType.String),
				IsRead:         isRead.Bool,
				CreatedAt:      created.Time,
			}
			if readAt.Valid {
				t := readAt.Time
				msg.ReadAt = &t
			}
			s.LastMessage = &msg
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// RecordMessage points the conversation at its newest message, bumps
// last_activity, and increments the receiver's unread counter in one
// transaction. The increment is done in SQL so that concurrent sends
// never lose updates.
func (r *ConversationRepo) RecordMessage(ctx context.Context, conversationID, messageID string, receiver models.ParticipantRef, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`UPDATE conversations SET last_message_id=$2, last_activity=GREATEST(last_activity, $3) WHERE id=$1`,
		conversationID, messageID, at); err != nil {
		return err
	}
	var res sql.Result
	res, err = tx.ExecContext(ctx,
		`UPDATE conversation_participants SET unread_count = unread_count + 1
         WHERE conversation_id=$1 AND participant_id=$2 AND participant_role=$3`,
		conversationID, receiver.ID, receiver.Role)
	if err != nil {
		return err
	}
	var count int64
	if count, err = res.RowsAffected(); err != nil {
		return err
	}
	if count == 0 {
		err = ErrConversationNotFound
		return err
	}
	return tx.Commit()
}

// ResetUnread zeroes the participant's unread counter and records when
// they last saw the conversation. Coarse reset, not a decrement.
func (r *ConversationRepo) ResetUnread(ctx context.Context, conversationID string, p models.ParticipantRef, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversation_participants SET unread_count = 0, last_seen_at = $4
         WHERE conversation_id=$1 AND participant_id=$2 AND participant_role=$3`,
		conversationID, p.ID, p.Role, at)
	return err
}

// TotalUnread sums unread counters across the participant's active conversations.
func (r *ConversationRepo) TotalUnread(ctx context.Context, p models.ParticipantRef) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(cp.unread_count), 0)
         FROM conversation_participants cp
         JOIN conversations c ON c.id = cp.conversation_id AND c.is_active = TRUE
         WHERE cp.participant_id=$1 AND cp.participant_role=$2`,
		p.ID, p.Role)
	return total, err
}

// Deactivate soft-deletes a conversation.
func (r *ConversationRepo) Deactivate(ctx context.Context, conversationID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE conversations SET is_active = FALSE WHERE id=$1`, conversationID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConversationNotFound
	}
	return nil
}
