package postgres

import (
	"chathub/internal/core/domain"
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append persists the message and seeds the sender's read receipt. The
// canonical creation timestamp is assigned by the database and written
// back into msg.
func (r *MessageRepo) Append(ctx context.Context, msg *domain.Message) error {
	if msg.RoomID == uuid.Nil {
		return domain.ErrInvalidRoomID
	}
	exec := GetExecutor(ctx, r.db)
	err := exec.QueryRowContext(ctx, `
		INSERT INTO messages (id, room_id, sender_id, content, msg_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`,
		msg.ID,
		msg.RoomID,
		msg.SenderID,
		msg.Content,
		msg.Type,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO message_reads (message_id, identity_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, identity_id) DO NOTHING
	`, msg.ID, msg.SenderID, msg.CreatedAt)
	return err
}

func (r *MessageRepo) GetMessage(ctx context.Context, messageID uuid.UUID) (*domain.Message, error) {
	if messageID == uuid.Nil {
		return nil, domain.ErrInvalidMessageID
	}
	exec := GetExecutor(ctx, r.db)
	msg := &domain.Message{ID: messageID}
	err := exec.QueryRowContext(ctx, `
		SELECT room_id, sender_id, content, msg_type, created_at
		FROM messages
		WHERE id = $1
	`, messageID).Scan(&msg.RoomID, &msg.SenderID, &msg.Content, &msg.Type, &msg.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, err
	}

	rows, err := exec.QueryContext(ctx, `
		SELECT identity_id, read_at
		FROM message_reads
		WHERE message_id = $1
		ORDER BY read_at
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rr domain.ReadReceipt
		if err := rows.Scan(&rr.IdentityID, &rr.ReadAt); err != nil {
			return nil, err
		}
		msg.ReadBy = append(msg.ReadBy, rr)
	}
	return msg, rows.Err()
}

// MarkRead is idempotent: repeating the same (message, identity) pair
// leaves exactly one receipt.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID uuid.UUID, identityID string, at time.Time) error {
	if messageID == uuid.Nil {
		return domain.ErrInvalidMessageID
	}
	exec := GetExecutor(ctx, r.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO message_reads (message_id, identity_id, read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, identity_id) DO NOTHING
	`, messageID, identityID, at)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, messageID uuid.UUID) error {
	if messageID == uuid.Nil {
		return domain.ErrInvalidMessageID
	}
	exec := GetExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, `
		DELETE FROM messages WHERE id = $1
	`, messageID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}
