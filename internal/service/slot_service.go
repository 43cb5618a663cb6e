package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/Freeeeeet/booking_engine/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// errRescheduleConflict - внутренний маркер конфликта внутри транзакции
// переноса. Возврат ошибки из колбэка откатывает транзакцию целиком,
// включая отмену старого слота.
var errRescheduleConflict = errors.New("reschedule window conflict")

// SlotService оркестрирует бронирование слотов. Каждая публичная операция -
// один запрос к хранилищу или одна транзакция; сервис не держит блокировок
// и состояния между вызовами. Защита от двойного бронирования целиком
// делегирована ограничению пересечения интервалов в БД.
type SlotService struct {
	store  repository.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewSlotService(store repository.Store, logger *zap.Logger) *SlotService {
	return &SlotService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

type CreateSlotInput struct {
	SubjectID       uuid.UUID
	SubjectType     model.SubjectType
	StartTime       time.Time
	DurationMinutes int
	SessionID       *uuid.UUID // может быть nil - сессия привязывается позже
	SlotType        string
	Reason          *string
}

// CreateSlot валидирует запрос и пытается забронировать интервал.
// При пересечении с существующей бронью возвращает nil, nil - конфликт
// это ожидаемый исход конкурентного бронирования, а не ошибка;
// вызывающий предлагает другое время.
func (s *SlotService) CreateSlot(ctx context.Context, input CreateSlotInput) (*model.Slot, error) {
	if err := validateBooking(input.StartTime, input.DurationMinutes, s.now()); err != nil {
		return nil, err
	}

	slot := &model.Slot{
		ID:              uuid.New(),
		SubjectID:       input.SubjectID,
		SubjectType:     input.SubjectType,
		TimeRange:       model.TimeRangeFrom(input.StartTime, input.DurationMinutes),
		DurationMinutes: input.DurationMinutes,
		SessionID:       input.SessionID,
		SlotType:        input.SlotType,
		Status:          model.SlotStatusBooked,
		Reason:          input.Reason,
	}

	conflict, err := s.store.Insert(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}

	if conflict {
		s.logger.Info("Slot creation conflicted with existing booking",
			zap.String("subject_id", input.SubjectID.String()),
			zap.Time("start_time", input.StartTime),
			zap.Int("duration_minutes", input.DurationMinutes),
		)
		return nil, nil
	}

	s.logger.Info("Slot created",
		zap.String("slot_id", slot.ID.String()),
		zap.String("subject_id", slot.SubjectID.String()),
		zap.String("subject_type", string(slot.SubjectType)),
		zap.Time("start_time", slot.TimeRange.Start),
		zap.Int("duration_minutes", slot.DurationMinutes),
	)

	return slot, nil
}

// CheckAvailability возвращает справочную оценку "скорее всего свободно".
// Между этой проверкой и вставкой всегда есть окно гонки, поэтому результат
// никогда не используется как разрешение на запись - единственный
// авторитетный арбитр это ограничение БД при вставке.
func (s *SlotService) CheckAvailability(ctx context.Context, subjectID uuid.UUID, subjectType model.SubjectType, start time.Time, durationMinutes int) (bool, error) {
	if err := validateBooking(start, durationMinutes, s.now()); err != nil {
		return false, err
	}

	count, err := s.store.CountOverlapping(ctx, subjectID, model.TimeRangeFrom(start, durationMinutes))
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}

	return count == 0, nil
}

// ReleaseSlot отменяет бронь. Повторная отмена - ошибка уровня приложения:
// представление вызывающего о состоянии слота устарело.
func (s *SlotService) ReleaseSlot(ctx context.Context, id uuid.UUID, reason *string) (*model.Slot, error) {
	slot, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.Status.IsTerminal() {
		return nil, statusConflictError(slot.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, id, model.SlotStatusCancelled, reason)
	if err != nil {
		return nil, fmt.Errorf("release slot: %w", err)
	}
	if updated == nil {
		// между загрузкой и записью слот успел стать терминальным
		return nil, s.terminalConflictError(ctx, s.store, id)
	}

	s.logger.Info("Slot released",
		zap.String("slot_id", id.String()),
		zap.String("subject_id", updated.SubjectID.String()),
	)

	return updated, nil
}

// CompleteSlot переводит бронь в completed. Вызывается внешним событием
// жизненного цикла сессии; статус терминальный.
func (s *SlotService) CompleteSlot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("complete slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.Status.IsTerminal() {
		return nil, statusConflictError(slot.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, id, model.SlotStatusCompleted, nil)
	if err != nil {
		return nil, fmt.Errorf("complete slot: %w", err)
	}
	if updated == nil {
		return nil, s.terminalConflictError(ctx, s.store, id)
	}

	s.logger.Info("Slot completed", zap.String("slot_id", id.String()))

	return updated, nil
}

// RescheduleSlot переносит бронь на новое окно: отмена старого слота и
// вставка нового выполняются в одной транзакции. Если новое окно
// конфликтует, транзакция откатывается целиком - старый слот остаётся
// booked - и возвращается nil, nil. Частичное применение недопустимо.
func (s *SlotService) RescheduleSlot(ctx context.Context, id uuid.UUID, newStart time.Time, newDurationMinutes int) (*model.Slot, error) {
	old, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reschedule slot: %w", err)
	}
	if old == nil {
		return nil, ErrSlotNotFound
	}

	if old.Status.IsTerminal() {
		return nil, statusConflictError(old.Status)
	}

	if err := validateBooking(newStart, newDurationMinutes, s.now()); err != nil {
		return nil, err
	}

	rescheduled := "rescheduled"

	var created *model.Slot
	err = s.store.WithTransaction(ctx, func(tx repository.Store) error {
		cancelled, err := tx.UpdateStatus(ctx, id, model.SlotStatusCancelled, &rescheduled)
		if err != nil {
			return err
		}
		if cancelled == nil {
			// конкурентная операция уже перевела слот в терминальный статус
			return s.terminalConflictError(ctx, tx, id)
		}

		slot := &model.Slot{
			ID:              uuid.New(),
			SubjectID:       old.SubjectID,
			SubjectType:     old.SubjectType,
			TimeRange:       model.TimeRangeFrom(newStart, newDurationMinutes),
			DurationMinutes: newDurationMinutes,
			SessionID:       old.SessionID,
			SlotType:        old.SlotType,
			Status:          model.SlotStatusBooked,
		}

		conflict, err := tx.Insert(ctx, slot)
		if err != nil {
			return err
		}
		if conflict {
			return errRescheduleConflict
		}

		created = slot
		return nil
	})

	if errors.Is(err, errRescheduleConflict) {
		s.logger.Info("Slot reschedule conflicted, transaction rolled back",
			zap.String("slot_id", id.String()),
			zap.Time("new_start", newStart),
		)
		return nil, nil
	}
	if errors.Is(err, ErrSlotAlreadyCancelled) || errors.Is(err, ErrSlotCompleted) || errors.Is(err, ErrSlotNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("reschedule slot: %w", err)
	}

	s.logger.Info("Slot rescheduled",
		zap.String("old_slot_id", id.String()),
		zap.String("new_slot_id", created.ID.String()),
		zap.Time("new_start", created.TimeRange.Start),
	)

	return created, nil
}

// QueryBookedSlots возвращает активные брони субъекта в окне, упорядоченные
// по началу. Если dateTo не задан, берётся now + 90 дней.
func (s *SlotService) QueryBookedSlots(ctx context.Context, subjectID uuid.UUID, subjectType model.SubjectType, dateFrom time.Time, dateTo *time.Time) ([]*model.Slot, error) {
	to := s.now().Add(MaxQueryWindow)
	if dateTo != nil {
		to = *dateTo
	}

	if err := validateQueryWindow(dateFrom, to); err != nil {
		return nil, err
	}

	slots, err := s.store.GetBooked(ctx, subjectID, subjectType, dateFrom, to)
	if err != nil {
		return nil, fmt.Errorf("query booked slots: %w", err)
	}

	return slots, nil
}

// GetByID получает слот по ID; nil, nil если не найден
func (s *SlotService) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	return s.store.GetByID(ctx, id)
}

// GetBySessionID получает слот по ID сессии; nil, nil если не найден
func (s *SlotService) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Slot, error) {
	return s.store.GetBySessionID(ctx, sessionID)
}

// AttachSession привязывает внешнюю сессию к брони. Используется в
// асинхронном сценарии, когда слот резервируется раньше чем создаётся
// запись сессии.
func (s *SlotService) AttachSession(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (*model.Slot, error) {
	slot, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("attach session: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	if slot.Status.IsTerminal() {
		return nil, statusConflictError(slot.Status)
	}

	updated, err := s.store.UpdateSessionID(ctx, id, sessionID)
	if err != nil {
		return nil, fmt.Errorf("attach session: %w", err)
	}
	if updated == nil {
		return nil, s.terminalConflictError(ctx, s.store, id)
	}

	s.logger.Info("Session attached to slot",
		zap.String("slot_id", id.String()),
		zap.String("session_id", sessionID.String()),
	)

	return updated, nil
}

// statusConflictError выбирает ошибку для операции над терминальным слотом
func statusConflictError(status model.SlotStatus) error {
	if status == model.SlotStatusCompleted {
		return ErrSlotCompleted
	}
	return ErrSlotAlreadyCancelled
}

// terminalConflictError перечитывает слот после проигранной гонки,
// чтобы ошибка называла фактический терминальный статус
func (s *SlotService) terminalConflictError(ctx context.Context, store repository.Store, id uuid.UUID) error {
	slot, err := store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("reload slot: %w", err)
	}
	if slot == nil {
		return ErrSlotNotFound
	}
	return statusConflictError(slot.Status)
}
