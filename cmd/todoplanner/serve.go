package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"todo-planner/internal/bot"
	"todo-planner/internal/repository"
	"todo-planner/internal/service"
)

const reportJobTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the periodic task reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.ValidateBot(); err != nil {
		return err
	}

	// Users live in the SQLite database whatever driver holds the lists.
	db, err := a.openDB()
	if err != nil {
		return err
	}
	users := repository.NewUserRepository(db)

	taskSvc := service.NewTaskService(a.registry)
	categorySvc := service.NewCategoryService(a.registry)
	reminderSvc := service.NewReminderService(a.registry)

	telegramBot, err := bot.New(a.cfg.TelegramToken, users, taskSvc, categorySvc, reminderSvc, a.logger.WithPrefix("bot"))
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(time.Local, a.logger.WithPrefix("cron"), reportJobTimeout)
	if a.cfg.ReportAt != "" {
		if _, err := scheduler.ScheduleDaily("report", a.cfg.ReportAt, telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
	} else if a.cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval("report", a.cfg.ReportInterval, telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
	}
	if scheduler.Entries() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	a.logger.Info("todo planner bot started", "driver", a.cfg.Storage.Driver, "reports", scheduler.Entries())
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	a.logger.Info("shutdown complete")
	return nil
}
