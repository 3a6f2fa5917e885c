package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/metrics"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Period selects the creation window of dashboard aggregates
type Period string

const (
	PeriodAll   Period = ""
	PeriodToday Period = "today"
	Period7d    Period = "7d"
	Period30d   Period = "30d"
)

// DefaultUpcomingDays is how far ahead Upcoming looks for deadlines
const DefaultUpcomingDays = 3

// SummaryFilter narrows the dashboard summary
type SummaryFilter struct {
	Period   Period `form:"period" json:"period"`
	Designer string `form:"designer" json:"designer"`
	Material string `form:"material" json:"material"`
}

// Summary is the headline dashboard block
type Summary struct {
	Total           int      `json:"total"`
	InProgress      int      `json:"in_progress"`
	Approved        int      `json:"approved"`
	RejectedFinal   int      `json:"rejected_final"`
	Overdue         int      `json:"overdue"`
	ApprovalRate    float64  `json:"approval_rate"`
	RejectionRate   float64  `json:"rejection_rate"`
	AvgApprovalDays *float64 `json:"avg_approval_days,omitempty"`
}

// StageCount is one bar of the stage chart
type StageCount struct {
	Stage domainwf.StageKey `json:"stage"`
	Name  string            `json:"name"`
	Count int               `json:"count"`
}

// RecentActivity is a ledger entry with stage names resolved
type RecentActivity struct {
	entity.RecentMovement
	FromStageName string `json:"from_stage_name"`
	ToStageName   string `json:"to_stage_name"`
}

// UpcomingFicha is an in-progress ficha close to its deadline
type UpcomingFicha struct {
	*entity.Ficha
	StageName     string `json:"stage_name"`
	DaysRemaining int    `json:"days_remaining"`
}

// DashboardService provides read-only aggregates
type DashboardService interface {
	Summary(ctx context.Context, filter SummaryFilter) (*Summary, error)
	StageChart(ctx context.Context) ([]StageCount, error)
	MonthlyChart(ctx context.Context, year int) ([]port.MonthlyCount, error)
	Recent(ctx context.Context, limit int) ([]RecentActivity, error)
	Upcoming(ctx context.Context) ([]UpcomingFicha, error)
}

type dashboardServiceImpl struct {
	catalog       *domainwf.Catalog
	dashboardRepo port.DashboardRepository
	fichaRepo     port.FichaRepository
	movementRepo  port.MovementRepository
	logger        Logger
	upcomingDays  int
	now           func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	catalog *domainwf.Catalog,
	dashboardRepo port.DashboardRepository,
	fichaRepo port.FichaRepository,
	movementRepo port.MovementRepository,
	upcomingDays int,
	logger Logger,
) DashboardService {
	if upcomingDays <= 0 {
		upcomingDays = DefaultUpcomingDays
	}
	return &dashboardServiceImpl{
		catalog:       catalog,
		dashboardRepo: dashboardRepo,
		fichaRepo:     fichaRepo,
		movementRepo:  movementRepo,
		logger:        logger,
		upcomingDays:  upcomingDays,
		now:           time.Now,
	}
}

// Summary counts fichas by outcome and derives the approval and rejection
// rates and the average approval time
func (s *dashboardServiceImpl) Summary(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	since, err := periodStart(filter.Period, s.now().UTC())
	if err != nil {
		return nil, err
	}
	repoFilter := port.DashboardFilter{Since: since, Designer: filter.Designer, Material: filter.Material}

	counts, err := s.dashboardRepo.CountByStatus(ctx, repoFilter)
	if err != nil {
		return nil, classify(s.logger, "dashboard_summary", err)
	}
	spans, err := s.dashboardRepo.ApprovalSpans(ctx, repoFilter)
	if err != nil {
		return nil, classify(s.logger, "dashboard_summary", err)
	}

	summary := &Summary{
		Total:         counts.Total,
		InProgress:    counts.InProgress,
		Approved:      counts.Approved,
		RejectedFinal: counts.RejectedFinal,
		Overdue:       counts.Overdue,
	}
	if counts.Total > 0 {
		summary.ApprovalRate = metrics.Round1(float64(counts.Approved) / float64(counts.Total) * 100)
		summary.RejectionRate = metrics.Round1(float64(counts.RejectedFinal) / float64(counts.Total) * 100)
	}

	var (
		total float64
		n     int
	)
	for _, span := range spans {
		approvedAt := span.ApprovedAt
		if days, ok := metrics.ApprovalDays(span.CreatedAt, &approvedAt); ok {
			total += days
			n++
		}
	}
	if n > 0 {
		avg := metrics.Round1(total / float64(n))
		summary.AvgApprovalDays = &avg
	}
	return summary, nil
}

// StageChart returns the in-progress count of every catalog stage
func (s *dashboardServiceImpl) StageChart(ctx context.Context) ([]StageCount, error) {
	counts, err := s.dashboardRepo.CountInProgressByStage(ctx)
	if err != nil {
		return nil, classify(s.logger, "dashboard_stage_chart", err)
	}

	stages := s.catalog.Stages()
	chart := make([]StageCount, 0, len(stages))
	for _, st := range stages {
		chart = append(chart, StageCount{Stage: st.Key, Name: st.DisplayName, Count: counts[st.Key]})
	}
	return chart, nil
}

// MonthlyChart returns twelve months of created, approved and rejection counts
func (s *dashboardServiceImpl) MonthlyChart(ctx context.Context, year int) ([]port.MonthlyCount, error) {
	if year <= 0 {
		year = s.now().UTC().Year()
	}
	months, err := s.dashboardRepo.MonthlyCounts(ctx, year)
	if err != nil {
		return nil, classify(s.logger, "dashboard_monthly_chart", err, "year", year)
	}
	return months, nil
}

// Recent returns the latest movements across all fichas
func (s *dashboardServiceImpl) Recent(ctx context.Context, limit int) ([]RecentActivity, error) {
	movements, err := s.movementRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, classify(s.logger, "dashboard_recent", err)
	}

	result := make([]RecentActivity, 0, len(movements))
	for _, m := range movements {
		result = append(result, RecentActivity{
			RecentMovement: m,
			FromStageName:  s.catalog.DisplayName(m.FromStage),
			ToStageName:    s.catalog.DisplayName(m.ToStage),
		})
	}
	return result, nil
}

// Upcoming lists in-progress fichas whose deadline falls within the window
func (s *dashboardServiceImpl) Upcoming(ctx context.Context) ([]UpcomingFicha, error) {
	notOverdue := false
	fichas, err := s.fichaRepo.List(ctx, entity.FichaFilter{Status: domainwf.StatusInProgress, Overdue: &notOverdue})
	if err != nil {
		return nil, classify(s.logger, "dashboard_upcoming", err)
	}

	now := s.now().UTC()
	limit := now.Add(time.Duration(s.upcomingDays) * 24 * time.Hour)
	result := []UpcomingFicha{}
	for _, f := range fichas {
		if f.Deadline.Before(now) || f.Deadline.After(limit) {
			continue
		}
		result = append(result, UpcomingFicha{
			Ficha:         f,
			StageName:     s.catalog.DisplayName(f.CurrentStage),
			DaysRemaining: metrics.DaysRemaining(f.Deadline, now),
		})
	}
	return result, nil
}

func periodStart(p Period, now time.Time) (*time.Time, error) {
	var since time.Time
	switch p {
	case PeriodAll:
		return nil, nil
	case PeriodToday:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case Period7d:
		since = now.AddDate(0, 0, -7)
	case Period30d:
		since = now.AddDate(0, 0, -30)
	default:
		return nil, domainwf.NewValidationError("period", fmt.Sprintf("unknown period %q", p))
	}
	return &since, nil
}
