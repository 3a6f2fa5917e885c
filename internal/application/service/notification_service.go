package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/foundry-fichas/internal/application/dispatcher"
	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
	"github.com/garyjia/foundry-fichas/internal/domain/event"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// FinalRejectionReason is the reason sent with final rejection notifications
const FinalRejectionReason = "Reprovação final"

// StageSectors maps each working stage to the sector responsible for it.
// Creation and the approved stage have no sector.
var StageSectors = map[domainwf.StageKey]string{
	domainwf.StagePatternMaking:  "Modelação",
	domainwf.StageMolding:        "Moldagem",
	domainwf.StageMelting:        "Fusão",
	domainwf.StageDeburring:      "Rebarbação",
	domainwf.StageFinishing:      "Acabamento",
	domainwf.StageCriticalReview: "Análise Crítica",
	domainwf.StageInspection:     "Inspeção",
	domainwf.StageDimensional:    "Dimensional",
	domainwf.StageMachining:      "Usinagem",
}

// NotificationService persists and delivers workflow notifications
type NotificationService interface {
	port.Notifier

	ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)

	// RegisterHandlers subscribes the notifier to committed workflow events
	RegisterHandlers(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	catalog          *domainwf.Catalog
	userRepo         port.UserRepository
	notificationRepo port.NotificationRepository
	messageSender    port.MessageSender
	logger           Logger
	now              func() time.Time
}

// NewNotificationService creates a new NotificationService. messageSender
// may be nil, in which case notifications are only persisted.
func NewNotificationService(
	catalog *domainwf.Catalog,
	userRepo port.UserRepository,
	notificationRepo port.NotificationRepository,
	messageSender port.MessageSender,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		catalog:          catalog,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		messageSender:    messageSender,
		logger:           logger,
		now:              time.Now,
	}
}

// NotifyStageEntry tells the sector of stage that a ficha arrived
func (s *notificationServiceImpl) NotifyStageEntry(ctx context.Context, fichaID int64, fichaCode string, stage domainwf.StageKey) {
	sector, ok := StageSectors[stage]
	if !ok {
		return
	}

	users, err := s.userRepo.ListActiveBySector(ctx, sector)
	if err != nil {
		s.logger.Error("Failed to list sector users", "error", err, "sector", sector, "ficha_id", fichaID)
		return
	}

	stageName := s.catalog.DisplayName(stage)
	s.deliver(ctx, users, fichaID, entity.NotificationMovement,
		fmt.Sprintf("Ficha %s em %s", fichaCode, stageName),
		fmt.Sprintf("A ficha %s entrou na etapa %s.", fichaCode, stageName),
	)
}

// NotifyRejection tells the creator and every administrator about a rejection
func (s *notificationServiceImpl) NotifyRejection(ctx context.Context, fichaID int64, fichaCode string, creatorID int64, reasonCode string, stage domainwf.StageKey) {
	recipients := s.creatorAndAdmins(ctx, fichaID, creatorID)

	s.deliver(ctx, recipients, fichaID, entity.NotificationRejection,
		fmt.Sprintf("Ficha %s reprovada", fichaCode),
		fmt.Sprintf("A ficha %s foi reprovada na etapa %s. Motivo: %s", fichaCode, s.catalog.DisplayName(stage), reasonCode),
	)
}

// NotifyApproval tells the creator the ficha was approved
func (s *notificationServiceImpl) NotifyApproval(ctx context.Context, fichaID int64, fichaCode string, creatorID int64) {
	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		s.logger.Error("Failed to get creator", "error", err, "user_id", creatorID, "ficha_id", fichaID)
		return
	}
	if creator == nil || !creator.Active {
		return
	}

	s.deliver(ctx, []*entity.User{creator}, fichaID, entity.NotificationApproval,
		fmt.Sprintf("Ficha %s aprovada", fichaCode),
		fmt.Sprintf("A ficha %s concluiu todas as etapas e foi aprovada.", fichaCode),
	)
}

// NotifyOverdue tells the sectors of the current and remaining stages, and
// the administrators, that a ficha passed its deadline
func (s *notificationServiceImpl) NotifyOverdue(ctx context.Context, fichaID int64, fichaCode string, stage domainwf.StageKey) {
	seen := make(map[int64]bool)
	var recipients []*entity.User
	add := func(users []*entity.User) {
		for _, u := range users {
			if !seen[u.ID] {
				seen[u.ID] = true
				recipients = append(recipients, u)
			}
		}
	}

	from := s.catalog.Order(stage)
	sectors := make(map[string]bool)
	for _, st := range s.catalog.Stages() {
		sector, ok := StageSectors[st.Key]
		if !ok || st.Order < from || sectors[sector] {
			continue
		}
		sectors[sector] = true
		users, err := s.userRepo.ListActiveBySector(ctx, sector)
		if err != nil {
			s.logger.Error("Failed to list sector users", "error", err, "sector", sector, "ficha_id", fichaID)
			continue
		}
		add(users)
	}

	admins, err := s.userRepo.ListActiveByPrivilege(ctx, entity.PrivilegeAdministrator)
	if err != nil {
		s.logger.Error("Failed to list administrators", "error", err, "ficha_id", fichaID)
	}
	add(admins)

	s.deliver(ctx, recipients, fichaID, entity.NotificationOverdue,
		fmt.Sprintf("Ficha %s atrasada", fichaCode),
		fmt.Sprintf("A ficha %s passou do prazo na etapa %s.", fichaCode, s.catalog.DisplayName(stage)),
	)
}

// ListForUser returns a user's notifications, newest first
func (s *notificationServiceImpl) ListForUser(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]*entity.Notification, error) {
	list, err := s.notificationRepo.ListForUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, classify(s.logger, "list_notifications", err, "user_id", userID)
	}
	return list, nil
}

// MarkRead marks one notification of the user as read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id, userID int64) error {
	if err := s.notificationRepo.MarkRead(ctx, id, userID, s.now().UTC()); err != nil {
		return classify(s.logger, "mark_read", err, "notification_id", id, "user_id", userID)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, classify(s.logger, "mark_all_read", err, "user_id", userID)
	}
	return n, nil
}

// RegisterHandlers subscribes the notifier to committed workflow events
func (s *notificationServiceImpl) RegisterHandlers(d dispatcher.Dispatcher) {
	d.SubscribeNamed("notify_stage_entry", func(ctx context.Context, evt *event.Event) error {
		s.NotifyStageEntry(ctx, evt.FichaID, evt.FichaCode, domainwf.StageKey(evt.GetPayloadString(event.KeyToStage)))
		return nil
	}, event.TypeFichaMoved)

	d.SubscribeNamed("notify_approval", func(ctx context.Context, evt *event.Event) error {
		s.NotifyApproval(ctx, evt.FichaID, evt.FichaCode, evt.GetPayloadInt(event.KeyCreatedBy))
		return nil
	}, event.TypeFichaApproved)

	d.SubscribeNamed("notify_rejection", func(ctx context.Context, evt *event.Event) error {
		reason := evt.GetPayloadString(event.KeyReasonCode)
		if evt.Type == event.TypeFichaRejectedFinal {
			reason = FinalRejectionReason
		}
		s.NotifyRejection(ctx, evt.FichaID, evt.FichaCode, evt.GetPayloadInt(event.KeyCreatedBy),
			reason, domainwf.StageKey(evt.GetPayloadString(event.KeyStage)))
		return nil
	}, event.TypeFichaRejected, event.TypeFichaRejectedFinal)

	d.SubscribeNamed("notify_overdue", func(ctx context.Context, evt *event.Event) error {
		s.NotifyOverdue(ctx, evt.FichaID, evt.FichaCode, domainwf.StageKey(evt.GetPayloadString(event.KeyStage)))
		return nil
	}, event.TypeFichaOverdue)
}

func (s *notificationServiceImpl) creatorAndAdmins(ctx context.Context, fichaID, creatorID int64) []*entity.User {
	var recipients []*entity.User
	seen := make(map[int64]bool)

	creator, err := s.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		s.logger.Error("Failed to get creator", "error", err, "user_id", creatorID, "ficha_id", fichaID)
	} else if creator != nil && creator.Active {
		recipients = append(recipients, creator)
		seen[creator.ID] = true
	}

	admins, err := s.userRepo.ListActiveByPrivilege(ctx, entity.PrivilegeAdministrator)
	if err != nil {
		s.logger.Error("Failed to list administrators", "error", err, "ficha_id", fichaID)
		return recipients
	}
	for _, a := range admins {
		if !seen[a.ID] {
			seen[a.ID] = true
			recipients = append(recipients, a)
		}
	}
	return recipients
}

// deliver persists one notification per recipient and pushes it over chat
// when possible. Failures are logged and never returned.
func (s *notificationServiceImpl) deliver(ctx context.Context, users []*entity.User, fichaID int64, kind entity.NotificationKind, title, message string) {
	now := s.now().UTC()
	for _, u := range users {
		n := &entity.Notification{
			UserID:    u.ID,
			FichaID:   &fichaID,
			Kind:      kind,
			Title:     title,
			Message:   message,
			CreatedAt: now,
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			s.logger.Error("Failed to save notification", "error", err, "user_id", u.ID, "ficha_id", fichaID, "kind", kind)
			continue
		}

		if s.messageSender == nil || u.LarkOpenID == "" {
			continue
		}
		if err := s.messageSender.SendText(ctx, u.LarkOpenID, title+"\n"+message); err != nil {
			s.logger.Error("Failed to send message", "error", err, "user_id", u.ID, "open_id", u.LarkOpenID)
		}
	}

	if len(users) > 0 {
		s.logger.Info("Notifications delivered", "ficha_id", fichaID, "kind", kind, "recipients", len(users))
	}
}

// Verify interface compliance
var _ port.Notifier = (*notificationServiceImpl)(nil)
