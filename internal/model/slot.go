package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusBooked    SlotStatus = "booked"    // Активная бронь
	SlotStatusCancelled SlotStatus = "cancelled" // Отменён (терминальный статус)
	SlotStatusCompleted SlotStatus = "completed" // Завершён внешним событием (терминальный статус)
)

// IsTerminal проверяет является ли статус терминальным
func (s SlotStatus) IsTerminal() bool {
	return s == SlotStatusCancelled || s == SlotStatusCompleted
}

// CanTransitionTo проверяет допустимость перехода статуса.
// Разрешены только booked -> cancelled и booked -> completed.
func (s SlotStatus) CanTransitionTo(next SlotStatus) bool {
	if s != SlotStatusBooked {
		return false
	}
	return next == SlotStatusCancelled || next == SlotStatusCompleted
}

type SubjectType string

const (
	SubjectTypeMentor    SubjectType = "mentor"
	SubjectTypeStudent   SubjectType = "student"
	SubjectTypeCounselor SubjectType = "counselor"
)

type Slot struct {
	ID              uuid.UUID   `json:"id"`
	SubjectID       uuid.UUID   `json:"subject_id"`
	SubjectType     SubjectType `json:"subject_type"`
	TimeRange       TimeRange   `json:"time_range"`
	DurationMinutes int         `json:"duration_minutes"`
	SessionID       *uuid.UUID  `json:"session_id"` // указатель - может быть nil (слот резервируется до создания сессии)
	SlotType        string      `json:"slot_type"`
	Status          SlotStatus  `json:"status"`
	Reason          *string     `json:"reason"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	// RangeDegraded выставляется если time_range не удалось распарсить
	// и диапазон восстановлен из duration_minutes. Такие данные нельзя
	// считать точными.
	RangeDegraded bool `json:"-"`
}
