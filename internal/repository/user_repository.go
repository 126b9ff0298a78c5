package repository

import (
	"context"
	"supportbot/internal/entities"
)

type UserRepository struct {
	db *Store
}

func NewUserRepository(db *Store) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	return r.db.queryRow(ctx,
		"INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?) RETURNING id",
		user.Username, user.PasswordHash, user.Role).Scan(&user.ID)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.queryRow(ctx,
		"SELECT id, username, password_hash, role FROM users WHERE username = ?",
		username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)

	if isNoRows(err) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
