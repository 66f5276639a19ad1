package postgres

import (
	"chathub/internal/core/domain"
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type RoomRepo struct {
	db *sql.DB
}

func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// GetRoom loads the room and its authoritative participant set in one
// round trip pair. Participant order is stable for deterministic fan-out.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID uuid.UUID) (*domain.Room, error) {
	if roomID == uuid.Nil {
		return nil, domain.ErrInvalidRoomID
	}
	exec := GetExecutor(ctx, r.db)
	room := &domain.Room{ID: roomID}
	var name sql.NullString
	err := exec.QueryRowContext(ctx, `
		SELECT kind, name, owner_id
		FROM rooms
		WHERE id = $1
	`, roomID).Scan(&room.Kind, &name, &room.OwnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	room.Name = name.String

	rows, err := exec.QueryContext(ctx, `
		SELECT identity_id
		FROM room_participants
		WHERE room_id = $1
		ORDER BY identity_id
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		room.Participants = append(room.Participants, p)
	}
	return room, rows.Err()
}
