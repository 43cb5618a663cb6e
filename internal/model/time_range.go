package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange полуоткрытый интервал [Start, End).
// Конец интервала исключается, поэтому слоты 10:00-11:00 и 11:00-12:00
// не пересекаются.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TimeRangeFrom строит интервал от начала и длительности в минутах
func TimeRangeFrom(start time.Time, durationMinutes int) TimeRange {
	return TimeRange{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// IsValid проверяет что Start строго раньше End
func (r TimeRange) IsValid() bool {
	return r.Start.Before(r.End)
}

// Duration возвращает длительность интервала
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Encode сериализует интервал в текстовый литерал tstzrange для вставки в БД
func (r TimeRange) Encode() string {
	return fmt.Sprintf("[\"%s\",\"%s\")",
		r.Start.UTC().Format(time.RFC3339Nano),
		r.End.UTC().Format(time.RFC3339Nano),
	)
}

// Форматы таймстампов которые PostgreSQL выдаёт в текстовой форме tstzrange.
// Дробные секунды опциональны, смещение может быть как +00, так и +00:00.
var rangeTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

// DecodeTimeRange парсит текстовую форму tstzrange: ["<start>","<end>").
// Возвращает ошибку если формат неожиданный - вызывающий решает что делать
// (см. DecodeTimeRangeOrFallback).
func DecodeTimeRange(raw string) (TimeRange, error) {
	s := strings.TrimSpace(raw)
	if len(s) < 5 || s[0] != '[' || s[len(s)-1] != ')' {
		return TimeRange{}, fmt.Errorf("decode time range: unexpected literal %q", raw)
	}

	parts := strings.SplitN(s[1:len(s)-1], ",", 2)
	if len(parts) != 2 {
		return TimeRange{}, fmt.Errorf("decode time range: expected two bounds in %q", raw)
	}

	start, err := parseRangeBound(parts[0])
	if err != nil {
		return TimeRange{}, fmt.Errorf("decode time range start: %w", err)
	}

	end, err := parseRangeBound(parts[1])
	if err != nil {
		return TimeRange{}, fmt.Errorf("decode time range end: %w", err)
	}

	rng := TimeRange{Start: start, End: end}
	if !rng.IsValid() {
		return TimeRange{}, fmt.Errorf("decode time range: start is not before end in %q", raw)
	}

	return rng, nil
}

// DecodeTimeRangeOrFallback парсит tstzrange, а при ошибке восстанавливает
// интервал из длительности: [now, now+duration). Второе значение true
// означает что данные деградированы и интервалу доверять нельзя.
func DecodeTimeRangeOrFallback(raw string, durationMinutes int) (TimeRange, bool) {
	rng, err := DecodeTimeRange(raw)
	if err == nil {
		return rng, false
	}

	now := time.Now().UTC()
	return TimeRangeFrom(now, durationMinutes), true
}

func parseRangeBound(s string) (time.Time, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty bound")
	}

	var lastErr error
	for _, layout := range rangeTimeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}
