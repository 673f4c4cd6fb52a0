package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/notification"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/reminder"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err = configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

// openDatabase forces parseTime so DATE and DATETIME columns scan into
// time.Time, and reads and writes them in the reminder time zone.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	dsn, err := mysql.ParseDSN(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid MYSQL_DSN: %w", err)
	}
	dsn.ParseTime = true
	dsn.Loc = cfg.Reminder.Location

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newPushSender routes Expo tokens to the Expo push API and native device
// tokens to SNS, or to the log when SNS is not configured.
func newPushSender(ctx context.Context, cfg *config.Config) (notification.Sender, error) {
	var native notification.Sender = notification.LogSender{}
	if cfg.PushEnabled() {
		sns, err := notification.NewSNSSender(ctx, cfg.Push)
		if err != nil {
			return nil, err
		}
		native = sns
	} else {
		logrus.Warn("SNS_PLATFORM_APPLICATION_ARN not set, native push tokens are only logged")
	}
	return notification.RoutingSender{
		Expo:   notification.NewExpoSender(cfg.Push),
		Native: native,
	}, nil
}

type reminderStack struct {
	reconciler *reminder.Reconciler
	dispatcher *notification.Dispatcher
}

func newReminderStack(ctx context.Context, cfg *config.Config, db *sql.DB) (*reminderStack, error) {
	sender, err := newPushSender(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	platform := notification.NewPlatform(notificationRepo, userRepo, sender)

	return &reminderStack{
		reconciler: reminder.NewReconciler(
			repository.NewReminderStateRepository(db),
			platform,
			repository.NewIDCardRepository(db),
			reminder.WithLocation(cfg.Reminder.Location),
			reminder.WithLocker(repository.NewReminderLocker(db)),
		),
		dispatcher: notification.NewDispatcher(notificationRepo, userRepo, sender),
	}, nil
}
