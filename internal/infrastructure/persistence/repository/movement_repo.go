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

// MovementRepository implements port.MovementRepository. The table is
// append-only; the schema aborts any UPDATE.
type MovementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(db *sql.DB, logger *zap.Logger) *MovementRepository {
	return &MovementRepository{
		db:     db,
		logger: logger,
	}
}

// Append records a movement
func (r *MovementRepository) Append(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (ficha_id, actor_id, from_stage, to_stage, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		m.FichaID, m.ActorID, m.FromStage, m.ToStage, m.Note, sqlite.FormatTime(m.Timestamp))
	if err != nil {
		r.logger.Error("Failed to append movement",
			zap.Int64("ficha_id", m.FichaID),
			zap.String("to_stage", m.ToStage.String()),
			zap.Error(err))
		return fmt.Errorf("failed to append movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	m.ID = id
	return nil
}

// ListForFicha returns the ficha's movements, newest first
func (r *MovementRepository) ListForFicha(ctx context.Context, fichaID int64) ([]entity.Movement, error) {
	query := `
		SELECT id, ficha_id, actor_id, from_stage, to_stage, note, created_at
		FROM movements WHERE ficha_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, fichaID)
	if err != nil {
		r.logger.Error("Failed to list movements", zap.Int64("ficha_id", fichaID), zap.Error(err))
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	movements := []entity.Movement{}
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ID, &m.FichaID, &m.ActorID, &m.FromStage, &m.ToStage, &m.Note, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListRecent returns the newest movements joined with their ficha
func (r *MovementRepository) ListRecent(ctx context.Context, limit int) ([]entity.RecentMovement, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT m.id, m.ficha_id, m.actor_id, m.from_stage, m.to_stage, m.note, m.created_at,
			f.code, f.status, f.current_stage, f.is_overdue, COALESCE(u.name, '')
		FROM movements m
		JOIN fichas f ON f.id = m.ficha_id
		LEFT JOIN users u ON u.id = m.actor_id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list recent movements", zap.Error(err))
		return nil, fmt.Errorf("failed to list recent movements: %w", err)
	}
	defer rows.Close()

	recent := []entity.RecentMovement{}
	for rows.Next() {
		var m entity.RecentMovement
		if err := rows.Scan(
			&m.ID, &m.FichaID, &m.ActorID, &m.FromStage, &m.ToStage, &m.Note, &m.Timestamp,
			&m.FichaCode, &m.FichaStatus, &m.FichaStage, &m.FichaOverdue, &m.ActorName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		m.Timestamp = m.Timestamp.UTC()
		recent = append(recent, m)
	}
	return recent, rows.Err()
}

// Verify interface compliance
var _ port.MovementRepository = (*MovementRepository)(nil)
