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

// ChildRepository implements port.FichaChildRepository. Every Replace
// call should run inside a transaction so the delete and inserts land together.
type ChildRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewChildRepository creates a new child collection repository
func NewChildRepository(db *sql.DB, logger *zap.Logger) *ChildRepository {
	return &ChildRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceCoreBoxes deletes the ficha's core boxes and inserts boxes in order
func (r *ChildRepository) ReplaceCoreBoxes(ctx context.Context, fichaID int64, boxes []entity.CoreBox) error {
	exec := executor(ctx, r.db)
	if err := r.clear(ctx, exec, "core_boxes", fichaID); err != nil {
		return err
	}

	query := `
		INSERT INTO core_boxes (
			ficha_id, identification, material, box_weight, cores_per_piece, core_weight,
			process, sand_quality, cores_per_hour, painted, paint_type, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i := range boxes {
		b := &boxes[i]
		b.FichaID = fichaID
		b.Order = i + 1
		result, err := exec.ExecContext(ctx, query,
			fichaID, b.Identification, b.Material, nullFloat(b.BoxWeight), nullInt(b.CoresPerPiece), nullFloat(b.CoreWeight),
			b.Process, b.SandQuality, nullInt(b.CoresPerHour), b.Painted, b.PaintType, b.Order,
		)
		if err != nil {
			r.logger.Error("Failed to insert core box", zap.Int64("ficha_id", fichaID), zap.Error(err))
			return fmt.Errorf("failed to insert core box: %w", err)
		}
		if b.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}
	return nil
}

// ReplaceTreeMolds deletes the ficha's tree molds and inserts molds in order
func (r *ChildRepository) ReplaceTreeMolds(ctx context.Context, fichaID int64, molds []entity.TreeMold) error {
	exec := executor(ctx, r.db)
	if err := r.clear(ctx, exec, "tree_molds", fichaID); err != nil {
		return err
	}

	query := `
		INSERT INTO tree_molds (ficha_id, mold_number, quality_approved, notes, validated_by, validated_at, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i := range molds {
		m := &molds[i]
		m.FichaID = fichaID
		m.Order = i + 1
		result, err := exec.ExecContext(ctx, query,
			fichaID, m.MoldNumber, nullBool(m.QualityApproved), m.Notes,
			nullInt64(m.ValidatedBy), sqlite.FormatTimePtr(m.ValidatedAt), m.Order,
		)
		if err != nil {
			r.logger.Error("Failed to insert tree mold", zap.Int64("ficha_id", fichaID), zap.Error(err))
			return fmt.Errorf("failed to insert tree mold: %w", err)
		}
		if m.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}
	return nil
}

// ReplaceKalpurSleeves deletes the ficha's sleeves and inserts sleeves in order
func (r *ChildRepository) ReplaceKalpurSleeves(ctx context.Context, fichaID int64, sleeves []entity.KalpurSleeve) error {
	exec := executor(ctx, r.db)
	if err := r.clear(ctx, exec, "kalpur_sleeves", fichaID); err != nil {
		return err
	}

	query := `
		INSERT INTO kalpur_sleeves (ficha_id, quantity, description, weight_kg, sort_order)
		VALUES (?, ?, ?, ?, ?)
	`
	for i := range sleeves {
		s := &sleeves[i]
		s.FichaID = fichaID
		s.Order = i + 1
		result, err := exec.ExecContext(ctx, query, fichaID, s.Quantity, s.Description, nullFloat(s.WeightKg), s.Order)
		if err != nil {
			r.logger.Error("Failed to insert kalpur sleeve", zap.Int64("ficha_id", fichaID), zap.Error(err))
			return fmt.Errorf("failed to insert kalpur sleeve: %w", err)
		}
		if s.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}
	return nil
}

// ListCoreBoxes returns the ficha's core boxes in insertion order
func (r *ChildRepository) ListCoreBoxes(ctx context.Context, fichaID int64) ([]entity.CoreBox, error) {
	query := `
		SELECT id, ficha_id, identification, material, box_weight, cores_per_piece, core_weight,
			process, sand_quality, cores_per_hour, painted, paint_type, sort_order
		FROM core_boxes WHERE ficha_id = ? ORDER BY sort_order
	`
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, fichaID)
	if err != nil {
		r.logger.Error("Failed to list core boxes", zap.Int64("ficha_id", fichaID), zap.Error(err))
		return nil, fmt.Errorf("failed to list core boxes: %w", err)
	}
	defer rows.Close()

	boxes := []entity.CoreBox{}
	for rows.Next() {
		var (
			b                     entity.CoreBox
			boxWeight, coreWeight sql.NullFloat64
			perPiece, perHour     sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.FichaID, &b.Identification, &b.Material, &boxWeight, &perPiece, &coreWeight,
			&b.Process, &b.SandQuality, &perHour, &b.Painted, &b.PaintType, &b.Order); err != nil {
			return nil, fmt.Errorf("failed to scan core box: %w", err)
		}
		b.BoxWeight = floatPtr(boxWeight)
		b.CoreWeight = floatPtr(coreWeight)
		b.CoresPerPiece = intPtr(perPiece)
		b.CoresPerHour = intPtr(perHour)
		boxes = append(boxes, b)
	}
	return boxes, rows.Err()
}

// ListTreeMolds returns the ficha's tree molds in insertion order
func (r *ChildRepository) ListTreeMolds(ctx context.Context, fichaID int64) ([]entity.TreeMold, error) {
	query := `
		SELECT id, ficha_id, mold_number, quality_approved, notes, validated_by, validated_at, sort_order
		FROM tree_molds WHERE ficha_id = ? ORDER BY sort_order
	`
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, fichaID)
	if err != nil {
		r.logger.Error("Failed to list tree molds", zap.Int64("ficha_id", fichaID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tree molds: %w", err)
	}
	defer rows.Close()

	molds := []entity.TreeMold{}
	for rows.Next() {
		var (
			m           entity.TreeMold
			approved    sql.NullBool
			validatedBy sql.NullInt64
			validatedAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.FichaID, &m.MoldNumber, &approved, &m.Notes, &validatedBy, &validatedAt, &m.Order); err != nil {
			return nil, fmt.Errorf("failed to scan tree mold: %w", err)
		}
		m.QualityApproved = boolPtr(approved)
		m.ValidatedBy = int64Ptr(validatedBy)
		m.ValidatedAt = timePtr(validatedAt)
		molds = append(molds, m)
	}
	return molds, rows.Err()
}

// ListKalpurSleeves returns the ficha's sleeves in insertion order
func (r *ChildRepository) ListKalpurSleeves(ctx context.Context, fichaID int64) ([]entity.KalpurSleeve, error) {
	query := `
		SELECT id, ficha_id, quantity, description, weight_kg, sort_order
		FROM kalpur_sleeves WHERE ficha_id = ? ORDER BY sort_order
	`
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, fichaID)
	if err != nil {
		r.logger.Error("Failed to list kalpur sleeves", zap.Int64("ficha_id", fichaID), zap.Error(err))
		return nil, fmt.Errorf("failed to list kalpur sleeves: %w", err)
	}
	defer rows.Close()

	sleeves := []entity.KalpurSleeve{}
	for rows.Next() {
		var (
			s      entity.KalpurSleeve
			weight sql.NullFloat64
		)
		if err := rows.Scan(&s.ID, &s.FichaID, &s.Quantity, &s.Description, &weight, &s.Order); err != nil {
			return nil, fmt.Errorf("failed to scan kalpur sleeve: %w", err)
		}
		s.WeightKg = floatPtr(weight)
		sleeves = append(sleeves, s)
	}
	return sleeves, rows.Err()
}

func (r *ChildRepository) clear(ctx context.Context, exec sqlite.Executor, table string, fichaID int64) error {
	if _, err := exec.ExecContext(ctx, "DELETE FROM "+table+" WHERE ficha_id = ?", fichaID); err != nil {
		r.logger.Error("Failed to clear children",
			zap.String("table", table),
			zap.Int64("ficha_id", fichaID),
			zap.Error(err))
		return fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return nil
}

// Verify interface compliance
var _ port.FichaChildRepository = (*ChildRepository)(nil)
