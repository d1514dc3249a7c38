package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timetracker/internal/cli"
	"timetracker/internal/config"
	"timetracker/internal/db"
	"timetracker/internal/logger"
	"timetracker/internal/repository"
	"timetracker/internal/service"
	"timetracker/internal/session"
)

func main() {
	cfg := config.Load()

	logFile, err := logger.OpenFile(cfg.LogPath)
	if err != nil {
		log.Fatalf("open log file: %v", err)
	}
	defer logFile.Close()
	appLogger := logger.Setup(logFile)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	taskRepo := repository.NewTaskRepository(database)
	eventRepo := repository.NewEventRepository(database)
	categoryRepo := repository.NewCategoryRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	taskService := service.NewTaskService(taskRepo, categoryRepo)
	timerService := service.NewTimerService(taskRepo, eventRepo)
	reportService := service.NewReportService(taskRepo, eventRepo)
	exportService := service.NewExportService(taskRepo, eventRepo, cfg.ExportDir)
	notificationService := service.NewNotificationService(taskRepo, eventRepo, time.Second, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.New(os.Stdin, os.Stdout, cli.Deps{
		Auth:     authService,
		Users:    userRepo,
		Tasks:    taskService,
		Timer:    timerService,
		Reports:  reportService,
		Exports:  exportService,
		Notifier: notificationService,
		Sessions: session.NewStore(cfg.SessionPath),
		Logger:   appLogger,
	})

	if err := app.Run(ctx); err != nil {
		log.Fatalf("run tracker: %v", err)
	}
}
