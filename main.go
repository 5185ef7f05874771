package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medminder/config"
	appcron "medminder/cron"
	"medminder/database"
	claimRepo "medminder/database/repository/claims"
	notificationRepo "medminder/database/repository/notification"
	reminderRepo "medminder/database/repository/reminder"
	"medminder/handlers"
	"medminder/middleware"
	"medminder/routes"
	"medminder/services/channels"
	"medminder/services/dispatcher"
	"medminder/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()
	cfg := config.AppConfig

	database.InitDB()

	// Redis is only needed for claims and the delivery queue.
	var redisClient *redis.Client
	if cfg.DedupEnabled || cfg.DeliveryMode == "queue" {
		redisClient = utils.GetCacheClient()
	}

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	utils.StartHealthMonitor(rootCtx, database.MongoClient, redisClient)

	// repositories.
	setupCtx, cancelSetup := context.WithTimeout(rootCtx, 15*time.Second)
	reminders := reminderRepo.NewMongoReminderRepo(setupCtx, database.DB(), logger)
	notifications := notificationRepo.NewMongoNotificationRepo(setupCtx, database.DB(), logger)
	cancelSetup()

	var claims claimRepo.ClaimStore
	if cfg.DedupEnabled {
		claims = claimRepo.NewRedisClaimStore(redisClient, claimRepo.DefaultClaimTTL)
	}

	// channels.
	sms := channels.NewRateLimitedSMS(
		channels.NewTwilioSMS(channels.TwilioConfig{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioFromNumber,
		}, logger),
		cfg.SMSRatePerSec, cfg.SMSBurst,
	)
	var email channels.EmailSender
	switch cfg.EmailProvider {
	case "resend":
		email = channels.NewResendEmail(cfg.ResendAPIKey, cfg.EmailFrom, logger)
	default:
		email = channels.NewSMTPEmail(channels.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
		}, logger)
	}

	// delivery.
	var fanout dispatcher.Fanout
	var worker *appcron.ReminderWorker
	if cfg.DeliveryMode == "queue" {
		redisOpts := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}
		queueClient := asynq.NewClient(redisOpts)
		defer queueClient.Close()
		fanout = dispatcher.NewQueuedFanout(queueClient, cfg.QueueMaxRetry)

		worker = appcron.NewReminderWorker(redisOpts, cfg.QueueConcurrency, sms, email, cfg.ChannelTimeout, logger)
		if err := worker.Start(rootCtx); err != nil {
			logger.Fatal("main: failed to start reminder worker", zap.Error(err))
		}
	} else {
		fanout = dispatcher.NewInlineFanout(sms, email, cfg.ChannelTimeout, logger)
	}

	// dispatcher.
	dispatchSvc, err := dispatcher.NewDispatchService(
		reminders, notifications, claims, fanout, dispatcher.SystemClock{}, logger,
		dispatcher.Options{
			Location:       cfg.Location(),
			MatchMode:      dispatcher.MatchMode(cfg.MatchMode),
			MaxCatchup:     cfg.MaxCatchupMinutes,
			RowConcurrency: cfg.RowConcurrency,
		},
	)
	if err != nil {
		logger.Fatal("main: failed to build dispatcher", zap.Error(err))
	}

	scheduler, err := appcron.NewDispatchScheduler(cfg.DispatchSchedule, cfg.Location(), dispatchSvc, cfg.RunOnStart, logger)
	if err != nil {
		logger.Fatal("main: failed to build scheduler", zap.Error(err))
	}
	scheduler.Start()

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	dispatchHandler := handlers.NewDispatchHandler(dispatchSvc)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		HealthHandler:            handlers.HealthHandler,
		RunDispatchHandler:       dispatchHandler.RunDispatchHandler,
		ListNotificationsHandler: notificationHandler.ListNotificationsHandler,
	})

	// Start the HTTP server.
	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if err := scheduler.Stop(ctx); err != nil {
		logger.Error("main: scheduler did not stop in time", zap.Error(err))
	}
	if worker != nil {
		worker.Shutdown()
	}
	stopBackground()
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := database.Close(ctx); err != nil {
		logger.Error("main: failed to disconnect MongoDB", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
