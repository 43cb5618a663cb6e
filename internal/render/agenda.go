// Package render рисует недельную сетку занятости субъекта в PNG.
// Используется вспомогательной утилитой cmd/agenda для визуальной
// проверки расписания.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Константы размеров и отступов
const (
	imageWidth      = 1120
	imageHeight     = 760
	headerHeight    = 70
	leftLabelsWidth = 70
	totalDaysInWeek = 7
	dayPaddingX     = 6.0
	slotRadius      = 5.0
	minSlotHeight   = 8.0
	hourPadding     = 1
	defaultMinHour  = 8
	defaultMaxHour  = 20
)

// Цветовая схема
var (
	bgColor        = color.RGBA{245, 246, 248, 255}
	textColor      = color.RGBA{80, 85, 90, 220}
	hourLabelColor = color.RGBA{110, 115, 120, 200}
	hourLineColor  = color.NRGBA{150, 150, 150, 255}
	evenDayColor   = color.NRGBA{240, 240, 240, 255}
	oddDayColor    = color.NRGBA{224, 224, 224, 255}
	slotColor      = color.RGBA{255, 182, 193, 255}
	slotTextColor  = color.RGBA{120, 40, 50, 255}
	degradedColor  = color.RGBA{158, 158, 158, 200} // слоты с восстановленным интервалом
)

type weekBounds struct {
	start time.Time
	end   time.Time
}

type hourRange struct {
	start int
	end   int
	total int
}

// RenderWeekAgenda рисует недельную сетку с активными бронями субъекта
func RenderWeekAgenda(weekOf time.Time, slots []*model.Slot) ([]byte, error) {
	week := normalizeToWeekBounds(weekOf)
	slotsByDay := groupSlotsByDay(slots)
	hours := calculateHourRange(slots)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := float64(imageWidth-leftLabelsWidth) / totalDaysInWeek
	cellHeight := float64(imageHeight-headerHeight) / float64(hours.total)

	drawHeader(dc, week, dayWidth)
	drawHourGrid(dc, hours, cellHeight)
	drawSlots(dc, week, slotsByDay, hours, dayWidth, cellHeight)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode agenda png: %w", err)
	}

	return buf.Bytes(), nil
}

// normalizeToWeekBounds нормализует дату к границам недели (Пн-Вс)
func normalizeToWeekBounds(date time.Time) weekBounds {
	normalized := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	daysSinceMonday := int(normalized.Weekday()) - 1
	if normalized.Weekday() == time.Sunday {
		daysSinceMonday = 6
	}

	start := normalized.AddDate(0, 0, -daysSinceMonday)
	return weekBounds{start: start, end: start.AddDate(0, 0, 6)}
}

// groupSlotsByDay группирует слоты по дням недели
func groupSlotsByDay(slots []*model.Slot) map[string][]*model.Slot {
	byDay := make(map[string][]*model.Slot)
	for _, slot := range slots {
		dateKey := slot.TimeRange.Start.Format("2006-01-02")
		byDay[dateKey] = append(byDay[dateKey], slot)
	}
	return byDay
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(slots []*model.Slot) hourRange {
	minHour := 24
	maxHour := 0

	for _, slot := range slots {
		startH := slot.TimeRange.Start.Hour()
		endH := slot.TimeRange.End.Hour()
		if slot.TimeRange.End.Minute() > 0 {
			endH++
		}
		if startH < minHour {
			minHour = startH
		}
		if endH > maxHour {
			maxHour = endH
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	start := minHour - hourPadding
	if start < 0 {
		start = 0
	}
	end := maxHour + hourPadding
	if end > 24 {
		end = 24
	}

	return hourRange{start: start, end: end, total: end - start}
}

func drawHeader(dc *gg.Context, week weekBounds, dayWidth float64) {
	dc.SetColor(textColor)
	title := fmt.Sprintf("%s — %s", week.start.Format("02.01.2006"), week.end.Format("02.01.2006"))
	dc.DrawStringAnchored(title, imageWidth/2, headerHeight/3, 0.5, 0.5)

	for day := 0; day < totalDaysInWeek; day++ {
		date := week.start.AddDate(0, 0, day)
		x := leftLabelsWidth + dayWidth*float64(day) + dayWidth/2
		dc.DrawStringAnchored(date.Format("Mon 02"), x, headerHeight*2/3.0, 0.5, 0.5)
	}
}

func drawHourGrid(dc *gg.Context, hours hourRange, cellHeight float64) {
	// фон колонок дней
	dayWidth := float64(imageWidth-leftLabelsWidth) / totalDaysInWeek
	for day := 0; day < totalDaysInWeek; day++ {
		if day%2 == 0 {
			dc.SetColor(evenDayColor)
		} else {
			dc.SetColor(oddDayColor)
		}
		dc.DrawRectangle(leftLabelsWidth+dayWidth*float64(day), headerHeight, dayWidth, float64(imageHeight-headerHeight))
		dc.Fill()
	}

	// часовые линии и подписи
	for h := 0; h <= hours.total; h++ {
		y := float64(headerHeight) + cellHeight*float64(h)

		dc.SetColor(hourLineColor)
		dc.SetLineWidth(0.5)
		dc.DrawLine(leftLabelsWidth, y, imageWidth, y)
		dc.Stroke()

		if h < hours.total {
			dc.SetColor(hourLabelColor)
			label := fmt.Sprintf("%02d:00", hours.start+h)
			dc.DrawStringAnchored(label, leftLabelsWidth/2, y+cellHeight/2, 0.5, 0.5)
		}
	}
}

func drawSlots(dc *gg.Context, week weekBounds, slotsByDay map[string][]*model.Slot, hours hourRange, dayWidth, cellHeight float64) {
	for day := 0; day < totalDaysInWeek; day++ {
		date := week.start.AddDate(0, 0, day)
		daySlots := slotsByDay[date.Format("2006-01-02")]

		for _, slot := range daySlots {
			start := slot.TimeRange.Start
			end := slot.TimeRange.End

			startOffset := float64(start.Hour()-hours.start) + float64(start.Minute())/60
			endOffset := float64(end.Hour()-hours.start) + float64(end.Minute())/60

			x := leftLabelsWidth + dayWidth*float64(day) + dayPaddingX
			y := float64(headerHeight) + cellHeight*startOffset
			w := dayWidth - 2*dayPaddingX
			h := cellHeight * (endOffset - startOffset)
			if h < minSlotHeight {
				h = minSlotHeight
			}

			if slot.RangeDegraded {
				dc.SetColor(degradedColor)
			} else {
				dc.SetColor(slotColor)
			}
			dc.DrawRoundedRectangle(x, y, w, h, slotRadius)
			dc.Fill()

			dc.SetColor(slotTextColor)
			label := fmt.Sprintf("%s-%s", start.Format("15:04"), end.Format("15:04"))
			dc.DrawStringAnchored(label, x+w/2, y+h/2, 0.5, 0.5)
		}
	}
}
