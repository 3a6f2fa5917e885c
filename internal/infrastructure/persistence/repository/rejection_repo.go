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

// RejectionRepository implements port.RejectionRepository
type RejectionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRejectionRepository creates a new rejection repository
func NewRejectionRepository(db *sql.DB, logger *zap.Logger) *RejectionRepository {
	return &RejectionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a rejection together with its images
func (r *RejectionRepository) Create(ctx context.Context, rej *entity.Rejection) error {
	query := `
		INSERT INTO rejections (ficha_id, stage_at_rejection, return_stage, reason_code, description, actor_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		rej.FichaID, rej.StageAtRejection, rej.ReturnStage, rej.ReasonCode, rej.Description,
		rej.ActorID, sqlite.FormatTime(rej.Timestamp))
	if err != nil {
		r.logger.Error("Failed to create rejection", zap.Int64("ficha_id", rej.FichaID), zap.Error(err))
		return fmt.Errorf("failed to create rejection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rej.ID = id

	for i := range rej.Images {
		img := &rej.Images[i]
		img.RejectionID = id
		if img.CreatedAt.IsZero() {
			img.CreatedAt = rej.Timestamp
		}
		if err := r.AddImage(ctx, img); err != nil {
			return err
		}
	}
	return nil
}

// AddImage attaches a stored image to an existing rejection
func (r *RejectionRepository) AddImage(ctx context.Context, img *entity.RejectionImage) error {
	query := `
		INSERT INTO rejection_images (rejection_id, path, original_name, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := executor(ctx, r.db).ExecContext(ctx, query,
		img.RejectionID, img.Path, img.OriginalName, sqlite.FormatTime(img.CreatedAt))
	if err != nil {
		r.logger.Error("Failed to add rejection image",
			zap.Int64("rejection_id", img.RejectionID),
			zap.String("path", img.Path),
			zap.Error(err))
		return fmt.Errorf("failed to add rejection image: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	img.ID = id
	return nil
}

// GetLatestForFicha returns the most recent rejection of a ficha, nil when there is none
func (r *RejectionRepository) GetLatestForFicha(ctx context.Context, fichaID int64) (*entity.Rejection, error) {
	query := `
		SELECT id, ficha_id, stage_at_rejection, return_stage, reason_code, description, actor_id, created_at
		FROM rejections WHERE ficha_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var rej entity.Rejection
	err := executor(ctx, r.db).QueryRowContext(ctx, query, fichaID).Scan(
		&rej.ID, &rej.FichaID, &rej.StageAtRejection, &rej.ReturnStage,
		&rej.ReasonCode, &rej.Description, &rej.ActorID, &rej.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest rejection", zap.Int64("ficha_id", fichaID), zap.Error(err))
		return nil, fmt.Errorf("failed to get latest rejection: %w", err)
	}
	rej.Timestamp = rej.Timestamp.UTC()

	images, err := r.listImages(ctx, []int64{rej.ID})
	if err != nil {
		return nil, err
	}
	rej.Images = images[rej.ID]
	return &rej, nil
}

// ListForFicha returns the ficha's rejections newest first, with images
func (r *RejectionRepository) ListForFicha(ctx context.Context, fichaID int64) ([]entity.Rejection, error) {
	query := `
		SELECT id, ficha_id, stage_at_rejection, return_stage, reason_code, description, actor_id, created_at
		FROM rejections WHERE ficha_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, fichaID)
	if err != nil {
		r.logger.Error("Failed to list rejections", zap.Int64("ficha_id", fichaID), zap.Error(err))
		return nil, fmt.Errorf("failed to list rejections: %w", err)
	}

	rejections := []entity.Rejection{}
	var ids []int64
	for rows.Next() {
		var rej entity.Rejection
		if err := rows.Scan(
			&rej.ID, &rej.FichaID, &rej.StageAtRejection, &rej.ReturnStage,
			&rej.ReasonCode, &rej.Description, &rej.ActorID, &rej.Timestamp,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan rejection: %w", err)
		}
		rej.Timestamp = rej.Timestamp.UTC()
		rejections = append(rejections, rej)
		ids = append(ids, rej.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// the in-memory pool has a single connection, release it before the next query
	rows.Close()

	images, err := r.listImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rejections {
		rejections[i].Images = images[rejections[i].ID]
	}
	return rejections, nil
}

// GetImage returns an image of one of the ficha's rejections, nil when there is no such image
func (r *RejectionRepository) GetImage(ctx context.Context, fichaID, imageID int64) (*entity.RejectionImage, error) {
	query := `
		SELECT ri.id, ri.rejection_id, ri.path, ri.original_name, ri.created_at
		FROM rejection_images ri
		JOIN rejections r ON r.id = ri.rejection_id
		WHERE ri.id = ? AND r.ficha_id = ?
	`

	var img entity.RejectionImage
	err := executor(ctx, r.db).QueryRowContext(ctx, query, imageID, fichaID).Scan(
		&img.ID, &img.RejectionID, &img.Path, &img.OriginalName, &img.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get rejection image",
			zap.Int64("ficha_id", fichaID),
			zap.Int64("image_id", imageID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get rejection image: %w", err)
	}
	img.CreatedAt = img.CreatedAt.UTC()
	return &img, nil
}

func (r *RejectionRepository) listImages(ctx context.Context, rejectionIDs []int64) (map[int64][]entity.RejectionImage, error) {
	result := make(map[int64][]entity.RejectionImage, len(rejectionIDs))
	if len(rejectionIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, rejection_id, path, original_name, created_at
		FROM rejection_images WHERE rejection_id IN (` + placeholders(len(rejectionIDs)) + `)
		ORDER BY id
	`
	args := make([]interface{}, len(rejectionIDs))
	for i, id := range rejectionIDs {
		args[i] = id
	}

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list rejection images", zap.Error(err))
		return nil, fmt.Errorf("failed to list rejection images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img entity.RejectionImage
		if err := rows.Scan(&img.ID, &img.RejectionID, &img.Path, &img.OriginalName, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rejection image: %w", err)
		}
		img.CreatedAt = img.CreatedAt.UTC()
		result[img.RejectionID] = append(result[img.RejectionID], img)
	}
	return result, rows.Err()
}

// Verify interface compliance
var _ port.RejectionRepository = (*RejectionRepository)(nil)
