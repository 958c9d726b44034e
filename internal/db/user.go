package db

import (
	"context"
	"errors"
	"fmt"

	"gochat/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InsertUser registers a new user with a unique name.
func InsertUser(ctx context.Context, pool *pgxpool.Pool, name string) (model.User, error) {
	var user model.User
	err := pool.QueryRow(ctx, `
		INSERT INTO messenger.users (name)
		VALUES ($1)
		RETURNING id, name, image_url, created_at, updated_at
	`, name).Scan(&user.ID, &user.Name, &user.ImageURL, &user.CreatedAt, &user.UpdatedAt)

	if isUniqueViolation(err) {
		return model.User{}, fmt.Errorf("user %q: %w", name, ErrAlreadyExists)
	}
	return user, err
}

func SelectUserByID(ctx context.Context, pool *pgxpool.Pool, id string) (model.User, error) {
	var user model.User
	err := pool.QueryRow(ctx, `
		SELECT id, name, image_url, created_at, updated_at
		FROM messenger.users
		WHERE id = $1
		LIMIT 1
	`, id).Scan(&user.ID, &user.Name, &user.ImageURL, &user.CreatedAt, &user.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return user, err
}

func SelectUserByName(ctx context.Context, pool *pgxpool.Pool, name string) (model.User, error) {
	var user model.User
	err := pool.QueryRow(ctx, `
		SELECT id, name, image_url, created_at, updated_at
		FROM messenger.users
		WHERE name = $1
		LIMIT 1
	`, name).Scan(&user.ID, &user.Name, &user.ImageURL, &user.CreatedAt, &user.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", name, ErrNotFound)
	}
	return user, err
}

func SelectUsersByIDs(ctx context.Context, pool *pgxpool.Pool, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}

	rows, err := pool.Query(ctx, `
		SELECT id, name, image_url, created_at, updated_at
		FROM messenger.users
		WHERE id = ANY($1::uuid[])
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// SearchUsers lists users, optionally filtered by a case-insensitive name match.
func SearchUsers(ctx context.Context, pool *pgxpool.Pool, name string, limit int) ([]model.User, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, name, image_url, created_at, updated_at
		FROM messenger.users
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY name
		LIMIT $2
	`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

// SelectSuggestedUsers returns a random sample of other users to chat with.
func SelectSuggestedUsers(ctx context.Context, pool *pgxpool.Pool, userID string, limit int) ([]model.User, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, name, image_url, created_at, updated_at
		FROM messenger.users
		WHERE id <> $1
		ORDER BY random()
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsers(rows)
}

func scanUsers(rows pgx.Rows) ([]model.User, error) {
	users := []model.User{}
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Name, &user.ImageURL, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
