package service

import (
	"fmt"
	"time"
)

// Бизнес-границы бронирования
const (
	MinDurationMinutes = 30
	MaxDurationMinutes = 180

	// MaxQueryWindow - максимальное окно выборки броней
	MaxQueryWindow = 90 * 24 * time.Hour
)

// validateBooking проверяет параметры брони до обращения к БД:
// длительность в допустимых границах, начало строго в будущем
func validateBooking(start time.Time, durationMinutes int, now time.Time) error {
	if durationMinutes < MinDurationMinutes || durationMinutes > MaxDurationMinutes {
		return &ValidationError{
			Field:   "duration_minutes",
			Message: fmt.Sprintf("must be between %d and %d", MinDurationMinutes, MaxDurationMinutes),
		}
	}

	if !start.After(now) {
		return &ValidationError{
			Field:   "start_time",
			Message: "must be in the future",
		}
	}

	return nil
}

// validateQueryWindow проверяет окно выборки: корректный порядок границ
// и размер не больше 90 дней
func validateQueryWindow(from, to time.Time) error {
	if !to.After(from) {
		return &ValidationError{
			Field:   "date_to",
			Message: "must be after date_from",
		}
	}

	if to.Sub(from) > MaxQueryWindow {
		return &ValidationError{
			Field:   "date_to",
			Message: "query window must not exceed 90 days",
		}
	}

	return nil
}
