package repository

import (
	"context"
	"time"

	"github.com/javeriarizwan/chatclone/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, phone, email, avatar_url, is_online)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	return r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Phone,
		user.Email,
		user.AvatarURL,
		user.IsOnline,
	).Scan(&user.CreatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, phone, email, avatar_url, is_online, last_seen, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `
		SELECT id, name, phone, email, avatar_url, is_online, last_seen, created_at
		FROM users
		WHERE phone = $1
	`
	return r.scanUser(r.db.QueryRow(ctx, query, phone))
}

func (r *UserRepository) ListContacts(ctx context.Context, userID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.name, u.phone, u.email, u.avatar_url, u.is_online, u.last_seen, u.created_at
		FROM users u
		JOIN conversations c
		  ON (c.owner_id = $1 AND c.contact_id = u.id)
		  OR (c.contact_id = $1 AND c.owner_id = u.id)
		ORDER BY u.name ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Phone,
			&user.Email,
			&user.AvatarURL,
			&user.IsOnline,
			&user.LastSeen,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (r *UserRepository) SetPresence(ctx context.Context, userID string, online bool, lastSeen time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_online = $2, last_seen = $3
		WHERE id = $1
	`, userID, online, lastSeen)
	return err
}

func (r *UserRepository) scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Phone,
		&user.Email,
		&user.AvatarURL,
		&user.IsOnline,
		&user.LastSeen,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
