package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/Freeeeeet/booking_engine/internal/app"
	"github.com/Freeeeeet/booking_engine/internal/config"
	"github.com/Freeeeeet/booking_engine/internal/model"
	"github.com/Freeeeeet/booking_engine/internal/render"
	"github.com/Freeeeeet/booking_engine/internal/repository"
	"github.com/Freeeeeet/booking_engine/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Утилита для визуальной проверки занятости: рисует недельную сетку
// активных броней субъекта в PNG.
func main() {
	var (
		subjectArg = flag.String("subject", "", "subject UUID")
		typeArg    = flag.String("type", string(model.SubjectTypeMentor), "subject type: mentor, student or counselor")
		weekArg    = flag.String("week", "", "any date inside the week to render, format 2006-01-02 (default: today)")
		outArg     = flag.String("out", "agenda.png", "output PNG path")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	subjectID, err := uuid.Parse(*subjectArg)
	if err != nil {
		logger.Fatal("Invalid -subject value", zap.Error(err))
	}

	weekOf := time.Now()
	if *weekArg != "" {
		weekOf, err = time.Parse("2006-01-02", *weekArg)
		if err != nil {
			logger.Fatal("Invalid -week value", zap.Error(err))
		}
	}

	ctx := context.Background()

	pool, err := app.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	slotService := service.NewSlotService(repository.NewSlotRepository(pool), logger)

	weekStart := time.Date(weekOf.Year(), weekOf.Month(), weekOf.Day(), 0, 0, 0, 0, weekOf.Location())
	weekEnd := weekStart.AddDate(0, 0, 7)

	slots, err := slotService.QueryBookedSlots(ctx, subjectID, model.SubjectType(*typeArg), weekStart, &weekEnd)
	if err != nil {
		logger.Fatal("Failed to query booked slots", zap.Error(err))
	}

	png, err := render.RenderWeekAgenda(weekStart, slots)
	if err != nil {
		logger.Fatal("Failed to render agenda", zap.Error(err))
	}

	if err := os.WriteFile(*outArg, png, 0o644); err != nil {
		logger.Fatal("Failed to write output file", zap.Error(err))
	}

	logger.Info("Agenda rendered",
		zap.String("subject_id", subjectID.String()),
		zap.Int("slots", len(slots)),
		zap.String("out", *outArg),
	)
}
