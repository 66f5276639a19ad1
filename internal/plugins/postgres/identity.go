package postgres

import (
	"chathub/internal/core/domain"
	"context"
	"database/sql"
)

type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

func (r *IdentityRepo) GetIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	if id == "" {
		return nil, domain.ErrIdentityNotFound
	}
	identity := &domain.Identity{ID: id}
	var avatar sql.NullString
	exec := GetExecutor(ctx, r.db)
	err := exec.QueryRowContext(ctx, `
		SELECT display_name, avatar_ref
		FROM identities
		WHERE id = $1
	`, id).Scan(&identity.DisplayName, &avatar)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	identity.AvatarRef = avatar.String
	return identity, nil
}

func (r *IdentityRepo) ListContacts(ctx context.Context, id string) ([]string, error) {
	exec := GetExecutor(ctx, r.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT contact_id
		FROM contacts
		WHERE identity_id = $1
		ORDER BY contact_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var contact string
		if err := rows.Scan(&contact); err != nil {
			return nil, err
		}
		out = append(out, contact)
	}
	return out, rows.Err()
}
