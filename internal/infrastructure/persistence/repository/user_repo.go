package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (name, email, privilege, sector, lark_open_id, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		user.Name, user.Email, user.Privilege, user.Sector, user.LarkOpenID, user.Active,
		sqlite.FormatTime(user.CreatedAt))
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `
		SELECT id, name, email, privilege, sector, lark_open_id, active, created_at
		FROM users WHERE id = ?
	`

	user, err := scanUser(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListActiveBySector returns active users of a sector
func (r *UserRepository) ListActiveBySector(ctx context.Context, sector string) ([]*entity.User, error) {
	return r.list(ctx, "sector = ?", sector)
}

// ListActiveByPrivilege returns active users holding a privilege
func (r *UserRepository) ListActiveByPrivilege(ctx context.Context, privilege entity.Privilege) ([]*entity.User, error) {
	return r.list(ctx, "privilege = ?", privilege)
}

func (r *UserRepository) list(ctx context.Context, cond string, arg interface{}) ([]*entity.User, error) {
	query := `
		SELECT id, name, email, privilege, sector, lark_open_id, active, created_at
		FROM users WHERE active = 1 AND ` + cond + `
		ORDER BY id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list users", zap.String("condition", cond), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(s scanner) (*entity.User, error) {
	var user entity.User
	if err := s.Scan(&user.ID, &user.Name, &user.Email, &user.Privilege, &user.Sector,
		&user.LarkOpenID, &user.Active, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
