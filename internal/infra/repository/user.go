package repository

import (
	"context"
	"strings"
	"time"

	"fleetbook/internal/domain/user"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	const query = `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE email = $1`

	return r.scanOne(ctx, query, strings.TrimSpace(strings.ToLower(email)))
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	const query = `
		SELECT id, email, password_hash, role, created_at
		FROM users
		WHERE id = $1`

	return r.scanOne(ctx, query, id)
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg any) (*user.User, error) {
	var (
		id           uuid.UUID
		email        string
		passwordHash string
		role         string
		createdAt    time.Time
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(&id, &email, &passwordHash, &role, &createdAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}

	u, err := user.ReconstructUser(id, email, passwordHash, user.Role(role), createdAt)
	if err != nil {
		return nil, infra.WrapRepoErr("stored user is invalid", err)
	}
	return u, nil
}
