package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Имя ограничения и код ошибки по которым распознаётся конфликт брони.
// Конфликт определяется только по SQLSTATE и имени ограничения,
// никогда по тексту сообщения.
const (
	exclusionViolationCode = "23P01"
	overlapConstraintName  = "slots_subject_no_overlap"
)

const slotColumns = `id, subject_id, subject_type, time_range::text, duration_minutes,
		       session_id, slot_type, status, reason, created_at, updated_at`

// querier объединяет pgxpool.Pool и pgx.Tx, чтобы одни и те же запросы
// работали и вне, и внутри транзакции
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type SlotRepository struct {
	pool *pgxpool.Pool // nil если репозиторий привязан к транзакции
	db   querier
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool, db: pool}
}

// Insert сохраняет новый слот
func (r *SlotRepository) Insert(ctx context.Context, slot *model.Slot) (bool, error) {
	query := `
		INSERT INTO slots (id, subject_id, subject_type, time_range, duration_minutes,
		                   session_id, slot_type, status, reason)
		VALUES ($1, $2, $3, $4::tstzrange, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		slot.ID,
		slot.SubjectID,
		slot.SubjectType,
		slot.TimeRange.Encode(),
		slot.DurationMinutes,
		slot.SessionID,
		slot.SlotType,
		slot.Status,
		slot.Reason,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		if isOverlapConflict(err) {
			return true, nil
		}
		return false, fmt.Errorf("insert slot: %w", err)
	}

	return false, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetBySessionID получает слот по ID связанной сессии.
// После переноса сессия указывает и на новый слот, и на отменённую
// строку, поэтому активная бронь выбирается в первую очередь,
// затем самая свежая запись.
func (r *SlotRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE session_id = $1
		ORDER BY (status = 'booked') DESC, created_at DESC
		LIMIT 1
	`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by session id: %w", err)
	}

	return slot, nil
}

// CountOverlapping считает активные брони субъекта, пересекающиеся с интервалом
func (r *SlotRepository) CountOverlapping(ctx context.Context, subjectID uuid.UUID, rng model.TimeRange) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM slots
		WHERE subject_id = $1
		  AND status = 'booked'
		  AND time_range && $2::tstzrange
	`

	var count int
	err := r.db.QueryRow(ctx, query, subjectID, rng.Encode()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count overlapping slots: %w", err)
	}

	return count, nil
}

// GetBooked получает активные брони субъекта в окне, упорядоченные по началу
func (r *SlotRepository) GetBooked(ctx context.Context, subjectID uuid.UUID, subjectType model.SubjectType, from, to time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE subject_id = $1
		  AND subject_type = $2
		  AND status = 'booked'
		  AND time_range && tstzrange($3, $4, '[)')
		ORDER BY lower(time_range)
	`

	rows, err := r.db.Query(ctx, query, subjectID, subjectType, from, to)
	if err != nil {
		return nil, fmt.Errorf("get booked slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get booked slots: %w", err)
	}

	return slots, nil
}

// UpdateStatus переводит booked-слот в новый статус.
// Условие status = 'booked' гарантирует что терминальные статусы
// никогда не перезаписываются, даже при гонке между загрузкой и записью.
func (r *SlotRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SlotStatus, reason *string) (*model.Slot, error) {
	query := `
		UPDATE slots
		SET status = $2, reason = COALESCE($3, reason), updated_at = now()
		WHERE id = $1 AND status = 'booked'
		RETURNING ` + slotColumns

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id, status, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update slot status: %w", err)
	}

	return slot, nil
}

// UpdateSessionID привязывает внешнюю сессию к booked-слоту
func (r *SlotRepository) UpdateSessionID(ctx context.Context, id uuid.UUID, sessionID uuid.UUID) (*model.Slot, error) {
	query := `
		UPDATE slots
		SET session_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'booked'
		RETURNING ` + slotColumns

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update slot session id: %w", err)
	}

	return slot, nil
}

// WithTransaction выполняет fn в одной транзакции. fn получает репозиторий,
// привязанный к транзакции; любая ошибка из fn откатывает все записи.
func (r *SlotRepository) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if r.pool == nil {
		// уже внутри транзакции - выполняем в ней же
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&SlotRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// isOverlapConflict проверяет что ошибка - нарушение ограничения
// пересечения интервалов (структурный сигнал конфликта от БД)
func isOverlapConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == exclusionViolationCode &&
		pgErr.ConstraintName == overlapConstraintName
}

// scanSlot - единственная точка преобразования строки БД в модель.
// time_range читается в текстовой форме; при неожиданном формате интервал
// восстанавливается из duration_minutes, а слот помечается RangeDegraded.
func scanSlot(row pgx.Row) (*model.Slot, error) {
	var (
		slot     model.Slot
		rawRange string
	)

	err := row.Scan(
		&slot.ID,
		&slot.SubjectID,
		&slot.SubjectType,
		&rawRange,
		&slot.DurationMinutes,
		&slot.SessionID,
		&slot.SlotType,
		&slot.Status,
		&slot.Reason,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.TimeRange, slot.RangeDegraded = model.DecodeTimeRangeOrFallback(rawRange, slot.DurationMinutes)

	return &slot, nil
}
