package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/sqlite"
)

const stageImageColumns = `id, ficha_id, uploaded_by, stage, path, original_name, mime_type, size_bytes, description, created_at`

// StageImageRepository implements port.StageImageRepository
type StageImageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStageImageRepository creates a new gallery repository
func NewStageImageRepository(db *sql.DB, logger *zap.Logger) *StageImageRepository {
	return &StageImageRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a stored gallery image
func (r *StageImageRepository) Create(ctx context.Context, img *entity.StageImage) error {
	query := `
		INSERT INTO stage_images (ficha_id, uploaded_by, stage, path, original_name, mime_type, size_bytes, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		img.FichaID, img.UploadedBy, img.Stage, img.Path, img.OriginalName,
		img.MimeType, img.Size, img.Description, sqlite.FormatTime(img.CreatedAt))
	if err != nil {
		r.logger.Error("Failed to create stage image",
			zap.Int64("ficha_id", img.FichaID),
			zap.String("stage", img.Stage.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create stage image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	img.ID = id
	return nil
}

// GetByID returns a gallery image, nil when it does not exist
func (r *StageImageRepository) GetByID(ctx context.Context, id int64) (*entity.StageImage, error) {
	query := `SELECT ` + stageImageColumns + ` FROM stage_images WHERE id = ?`

	img, err := scanStageImage(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get stage image", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get stage image: %w", err)
	}
	return img, nil
}

// ListForFicha returns the ficha's gallery newest first, narrowed to stage when set
func (r *StageImageRepository) ListForFicha(ctx context.Context, fichaID int64, stage workflow.StageKey) ([]entity.StageImage, error) {
	query := `SELECT ` + stageImageColumns + ` FROM stage_images WHERE ficha_id = ?`
	args := []interface{}{fichaID}
	if stage != "" {
		query += ` AND stage = ?`
		args = append(args, stage)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list stage images", zap.Int64("ficha_id", fichaID), zap.Error(err))
		return nil, fmt.Errorf("failed to list stage images: %w", err)
	}
	defer rows.Close()

	images := []entity.StageImage{}
	for rows.Next() {
		img, err := scanStageImage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage image: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

// Delete removes a gallery image record
func (r *StageImageRepository) Delete(ctx context.Context, id int64) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM stage_images WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete stage image", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete stage image: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: stage image %d", workflow.ErrNotFound, id)
	}
	return nil
}

func scanStageImage(row scanner) (*entity.StageImage, error) {
	var img entity.StageImage
	if err := row.Scan(
		&img.ID, &img.FichaID, &img.UploadedBy, &img.Stage, &img.Path, &img.OriginalName,
		&img.MimeType, &img.Size, &img.Description, &img.CreatedAt,
	); err != nil {
		return nil, err
	}
	img.CreatedAt = img.CreatedAt.UTC()
	return &img, nil
}

// Verify interface compliance
var _ port.StageImageRepository = (*StageImageRepository)(nil)
