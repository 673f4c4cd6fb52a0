package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/controller"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/mailer"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/middleware"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/ocr"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/repository"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/storage"
	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout      = 10 * time.Second
	rateLimitCleanupTick = time.Minute
	jsonBodyLimit        = "1M"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and reminder jobs",
	Long:  `Start the HTTP (Echo) API together with the cron jobs that reconcile and deliver ID card expiry reminders.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type handlers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	idCard       *controller.IDCardController
	image        *controller.ImageController
	notification *controller.NotificationController
	health       *controller.HealthController
	requireAuth  echo.MiddlewareFunc
	limiter      *middleware.RateLimiter
}

func runServe(_ *cobra.Command, _ []string) {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if cfg.MySQL.AutoMigrate {
		if err = migrateUp(ctx, db); err != nil {
			logrus.WithError(err).Fatal("Failed to apply migrations")
		}
	}

	stack, err := newReminderStack(ctx, cfg, db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up push notifications")
	}

	userRepo := repository.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, mailer.New(cfg.Mail, cfg.App.Name), cfg)
	userService := service.NewUserService(userRepo, cfg)
	idCardService := service.NewIDCardService(
		db,
		repository.NewIDCardRepository(db),
		userRepo,
		stack.reconciler,
		cfg.Reminder.Location,
	)

	imageService, err := newImageService(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to set up image storage")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	go limiter.Cleanup(ctx, rateLimitCleanupTick)

	scheduler, err := startReminderJobs(ctx, cfg, stack)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to schedule reminder jobs")
	}
	defer func() {
		<-scheduler.Stop().Done()
	}()

	e := newHTTPServer(cfg, &handlers{
		auth:         controller.NewAuthController(authService, cfg.App.Name),
		user:         controller.NewUserController(userService),
		idCard:       controller.NewIDCardController(idCardService),
		image:        controller.NewImageController(imageService, cfg.Upload.MaxSize),
		notification: controller.NewNotificationController(idCardService),
		health:       controller.NewHealthController(db),
		requireAuth:  middleware.NewAuthMiddleware(authService).RequireAuth,
		limiter:      limiter,
	})

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	go func() {
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("HTTP server shutdown failed")
	}
}

// newImageService leaves the archive unset when no bucket is configured.
func newImageService(ctx context.Context, cfg *config.Config) (service.ImageService, error) {
	recognizer := ocr.NewClient(cfg.OCR)
	if !cfg.StorageEnabled() {
		return service.NewImageService(recognizer, nil, cfg.Upload.MaxSize), nil
	}

	archive, err := storage.NewImageArchive(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	return service.NewImageService(recognizer, archive, cfg.Upload.MaxSize), nil
}

func startReminderJobs(ctx context.Context, cfg *config.Config, stack *reminderStack) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithLocation(cfg.Reminder.Location))

	_, err := scheduler.AddFunc(cfg.Reminder.ReconcileSchedule, func() {
		summary, err := stack.reconciler.ReconcileAll(ctx)
		if err != nil {
			logrus.WithError(err).Error("Reminder reconcile job failed")
			return
		}
		logrus.WithFields(logrus.Fields{
			"processed": summary.Processed,
			"failed":    summary.Failed,
		}).Info("Reminder reconcile job finished")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_RECONCILE_SCHEDULE: %w", err)
	}

	_, err = scheduler.AddFunc(cfg.Reminder.DispatchSchedule, func() {
		sent, err := stack.dispatcher.DispatchDue(ctx, time.Now())
		if err != nil {
			logrus.WithError(err).Error("Reminder dispatch job failed")
			return
		}
		if sent > 0 {
			logrus.WithField("sent", sent).Info("Reminder dispatch job finished")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_DISPATCH_SCHEDULE: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}

func newHTTPServer(cfg *config.Config, h *handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", h.health.Health)

	api := e.Group("/api")
	jsonLimit := echomiddleware.BodyLimit(jsonBodyLimit)

	auth := api.Group("/auth", h.limiter.Limit)
	auth.POST("/register", h.auth.Register, jsonLimit)
	auth.POST("/login", h.auth.Login, jsonLimit)
	auth.POST("/biometric-login", h.auth.BiometricLogin, jsonLimit)
	auth.POST("/forgot-password", h.auth.ForgotPassword, jsonLimit)
	auth.GET("/reset-password-form/:token", h.auth.ResetPasswordForm)
	auth.POST("/reset-password/:token", h.auth.ResetPassword, jsonLimit)
	auth.POST("/biometric/enroll", h.auth.EnrollBiometric, h.requireAuth)
	auth.DELETE("/biometric", h.auth.RevokeBiometric, h.requireAuth)

	image := api.Group("/image", h.limiter.Limit, h.requireAuth)
	image.POST("/upload", h.image.Upload, echomiddleware.BodyLimit(multipartLimit(cfg.Upload.MaxSize)))

	idCard := api.Group("/id-card", h.requireAuth)
	idCard.POST("/upload", h.idCard.Upload, jsonLimit)
	idCard.GET("/details", h.idCard.Details)

	user := api.Group("/user", h.requireAuth)
	user.GET("/profile", h.user.GetProfile)
	user.PUT("/profile", h.user.UpdateProfile, jsonLimit)
	user.POST("/push-token", h.user.SavePushToken, jsonLimit)

	notifications := api.Group("/notifications", h.requireAuth)
	notifications.POST("/sync", h.notification.Sync, jsonLimit)

	return e
}

// multipartLimit leaves headroom above the image size for the multipart framing.
func multipartLimit(maxImageSize int64) string {
	return fmt.Sprintf("%dK", maxImageSize/1024+64)
}
