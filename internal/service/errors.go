package service

import (
	"errors"
	"fmt"
)

var (
	ErrSlotNotFound         = errors.New("slot not found")
	ErrSlotAlreadyCancelled = errors.New("slot is already cancelled")
	ErrSlotCompleted        = errors.New("slot is already completed")
)

// ValidationError - ошибка проверки входных данных. Возвращается до любого
// обращения к хранилищу и не подлежит автоматическому повтору.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}
