package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/edumint-ai/platform/pkg/common/config"
	"github.com/edumint-ai/platform/pkg/common/database"
	"github.com/edumint-ai/platform/pkg/common/kafka"
	"github.com/edumint-ai/platform/pkg/common/logger"
	"github.com/edumint-ai/platform/pkg/identity"
	"github.com/edumint-ai/platform/pkg/notify"
	"github.com/robfig/cron/v3"
)

func main() {
	logger.Init("notifier-service")
	cfg := config.Load()

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	sender := notify.NewSMTPSender(cfg)
	dispatcher := notify.NewDispatcher(sender)
	directory := identity.NewService(identity.NewRepository(db))
	reminder := notify.NewReminder(db, directory, sender, cfg.AppBaseURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := kafka.NewConsumer(kafka.TopicModeration, "notifier-service")
	defer consumer.Close()
	go func() {
		logger.Log.WithField("topic", kafka.TopicModeration).Info("Notifier consuming moderation events")
		if err := consumer.Consume(ctx, dispatcher.HandleEvent); err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Fatal("moderation event consumer stopped")
		}
	}()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReminderCronSpec, func() {
		reminder.Run(ctx)
	}); err != nil {
		logger.Log.WithError(err).Fatal("invalid reminder cron spec")
	}
	scheduler.Start()
	logger.Log.WithField("spec", cfg.ReminderCronSpec).Info("Pending review reminder scheduled")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down notifier service...")
	cancel()
	<-scheduler.Stop().Done()
	logger.Log.Info("Notifier service stopped")
}
