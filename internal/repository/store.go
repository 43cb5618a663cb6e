package repository

import (
	"context"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/google/uuid"
)

// Store описывает все операции хранилища слотов, нужные сервисному слою.
// Реализуется SlotRepository; в тестах подменяется фейком.
type Store interface {
	// Insert сохраняет новый слот. Возвращает conflict=true если БД
	// отклонила запись по ограничению пересечения интервалов.
	Insert(ctx context.Context, slot *model.Slot) (conflict bool, err error)

	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Slot, error)

	// CountOverlapping возвращает количество активных броней субъекта,
	// пересекающихся с интервалом. Только для справочной оценки занятости.
	CountOverlapping(ctx context.Context, subjectID uuid.UUID, rng model.TimeRange) (int, error)

	GetBooked(ctx context.Context, subjectID uuid.UUID, subjectType model.SubjectType, from, to time.Time) ([]*model.Slot, error)

	// UpdateStatus переводит booked-слот в новый статус. Возвращает nil, nil
	// если слот не найден или уже не booked.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus, reason *string) (*model.Slot, error)

	// UpdateSessionID привязывает сессию к booked-слоту. Возвращает nil, nil
	// если слот не найден или уже не booked.
	UpdateSessionID(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (*model.Slot, error)

	// WithTransaction выполняет fn в одной транзакции: все записи внутри
	// fn либо коммитятся вместе, либо полностью откатываются.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
}
