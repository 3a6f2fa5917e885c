package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/workflow"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/sqlite"
)

// DashboardRepository implements port.DashboardRepository with read-only aggregates
type DashboardRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db *sql.DB, logger *zap.Logger) *DashboardRepository {
	return &DashboardRepository{
		db:     db,
		logger: logger,
	}
}

// CountByStatus counts fichas by status within filter
func (r *DashboardRepository) CountByStatus(ctx context.Context, filter port.DashboardFilter) (*port.StatusCounts, error) {
	where, args := dashboardWhere(filter)
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'in_progress' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'rejected_final' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_progress' AND is_overdue = 1 THEN 1 ELSE 0 END), 0)
		FROM fichas` + where

	var c port.StatusCounts
	err := executor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&c.Total, &c.InProgress, &c.Approved, &c.RejectedFinal, &c.Overdue)
	if err != nil {
		r.logger.Error("Failed to count fichas by status", zap.Error(err))
		return nil, fmt.Errorf("failed to count fichas by status: %w", err)
	}
	return &c, nil
}

// ApprovalSpans returns creation and approval times of approved fichas within filter
func (r *DashboardRepository) ApprovalSpans(ctx context.Context, filter port.DashboardFilter) ([]port.ApprovalSpan, error) {
	where, args := dashboardWhere(filter)
	if where == "" {
		where = " WHERE "
	} else {
		where += " AND "
	}
	query := `SELECT created_at, approval_date FROM fichas` + where +
		`status = 'approved' AND approval_date IS NOT NULL ORDER BY approval_date`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list approval spans", zap.Error(err))
		return nil, fmt.Errorf("failed to list approval spans: %w", err)
	}
	defer rows.Close()

	var spans []port.ApprovalSpan
	for rows.Next() {
		var s port.ApprovalSpan
		if err := rows.Scan(&s.CreatedAt, &s.ApprovedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval span: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		s.ApprovedAt = s.ApprovedAt.UTC()
		spans = append(spans, s)
	}
	return spans, rows.Err()
}

// CountInProgressByStage counts in-progress fichas per current stage
func (r *DashboardRepository) CountInProgressByStage(ctx context.Context) (map[workflow.StageKey]int, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx,
		"SELECT current_stage, COUNT(*) FROM fichas WHERE status = 'in_progress' GROUP BY current_stage")
	if err != nil {
		r.logger.Error("Failed to count fichas by stage", zap.Error(err))
		return nil, fmt.Errorf("failed to count fichas by stage: %w", err)
	}
	defer rows.Close()

	counts := make(map[workflow.StageKey]int)
	for rows.Next() {
		var (
			stage workflow.StageKey
			n     int
		)
		if err := rows.Scan(&stage, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stage count: %w", err)
		}
		counts[stage] = n
	}
	return counts, rows.Err()
}

// MonthlyCounts returns twelve entries for year with created, approved and rejection counts
func (r *DashboardRepository) MonthlyCounts(ctx context.Context, year int) ([]port.MonthlyCount, error) {
	months := make([]port.MonthlyCount, 12)
	for i := range months {
		months[i].Month = i + 1
	}

	y := strconv.Itoa(year)
	queries := []struct {
		sql   string
		apply func(m *port.MonthlyCount, n int)
	}{
		{
			sql:   "SELECT CAST(strftime('%m', created_at) AS INTEGER), COUNT(*) FROM fichas WHERE strftime('%Y', created_at) = ? GROUP BY 1",
			apply: func(m *port.MonthlyCount, n int) { m.Created = n },
		},
		{
			sql:   "SELECT CAST(strftime('%m', approval_date) AS INTEGER), COUNT(*) FROM fichas WHERE status = 'approved' AND strftime('%Y', approval_date) = ? GROUP BY 1",
			apply: func(m *port.MonthlyCount, n int) { m.Approved = n },
		},
		{
			sql:   "SELECT CAST(strftime('%m', created_at) AS INTEGER), COUNT(*) FROM rejections WHERE strftime('%Y', created_at) = ? GROUP BY 1",
			apply: func(m *port.MonthlyCount, n int) { m.Rejections = n },
		},
	}

	for _, q := range queries {
		if err := r.monthly(ctx, q.sql, y, func(month, n int) {
			if month >= 1 && month <= 12 {
				q.apply(&months[month-1], n)
			}
		}); err != nil {
			return nil, err
		}
	}
	return months, nil
}

func (r *DashboardRepository) monthly(ctx context.Context, query, year string, fn func(month, n int)) error {
	rows, err := executor(ctx, r.db).QueryContext(ctx, query, year)
	if err != nil {
		r.logger.Error("Failed to aggregate monthly counts", zap.String("year", year), zap.Error(err))
		return fmt.Errorf("failed to aggregate monthly counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var month, n int
		if err := rows.Scan(&month, &n); err != nil {
			return fmt.Errorf("failed to scan monthly count: %w", err)
		}
		fn(month, n)
	}
	return rows.Err()
}

func dashboardWhere(filter port.DashboardFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Since != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, sqlite.FormatTime(*filter.Since))
	}
	if filter.Designer != "" {
		conds = append(conds, `designer LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Designer)+"%")
	}
	if filter.Material != "" {
		m := "%" + escapeLike(filter.Material) + "%"
		conds = append(conds, `(est_material LIKE ? ESCAPE '\' OR obt_material LIKE ? ESCAPE '\')`)
		args = append(args, m, m)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Verify interface compliance
var _ port.DashboardRepository = (*DashboardRepository)(nil)
