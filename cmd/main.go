// @title Campus Events API
// @version 1.0
// @description Event moderation, registrations, check-in, reviews and notifications for campus organizations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sharath018/campus-events-backend/config"
	"github.com/sharath018/campus-events-backend/database"
	"github.com/sharath018/campus-events-backend/internal/attachment"
	"github.com/sharath018/campus-events-backend/internal/auditlog"
	"github.com/sharath018/campus-events-backend/internal/auth"
	"github.com/sharath018/campus-events-backend/internal/event"
	"github.com/sharath018/campus-events-backend/internal/favorite"
	"github.com/sharath018/campus-events-backend/internal/notification"
	"github.com/sharath018/campus-events-backend/internal/registration"
	"github.com/sharath018/campus-events-backend/internal/reminder"
	"github.com/sharath018/campus-events-backend/internal/reports"
	"github.com/sharath018/campus-events-backend/internal/review"
	"github.com/sharath018/campus-events-backend/internal/rolerequest"
	"github.com/sharath018/campus-events-backend/internal/userprofile"
	"github.com/sharath018/campus-events-backend/middleware"
	"github.com/sharath018/campus-events-backend/routes"
	"github.com/sharath018/campus-events-backend/utils"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg)
	clock := utils.SystemClock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ database connection failed")
	}

	log.Info().Msg("🔄 Running database migrations...")
	if err := database.AutoMigrate(db,
		&auth.User{},
		&event.Event{},
		&event.PendingEvent{},
		&event.RejectedEvent{},
		&registration.Registration{},
		&favorite.Favorite{},
		&review.Review{},
		&notification.Notification{},
		&notification.DeviceToken{},
		&rolerequest.RoleRequest{},
		&auditlog.AuditLog{},
	); err != nil {
		log.Fatal().Err(err).Msg("❌ auto migrate failed")
	}
	if err := database.RunMigrations(db, cfg.DBName, log); err != nil {
		log.Fatal().Err(err).Msg("❌ SQL migrations failed")
	}

	if err := utils.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("❌ validator registration failed")
	}

	// Redis is optional: without it the limiter keeps counters in memory and
	// notifications skip realtime publish.
	var rdb *redis.Client
	if client, err := utils.NewRedisClient(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("⚠️ Redis unavailable, continuing without it")
	} else {
		rdb = client
		defer rdb.Close()
	}

	var fbApp *firebase.App
	if app, err := utils.NewFirebaseApp(ctx, cfg); err != nil {
		log.Warn().Err(err).Msg("⚠️ Firebase unavailable, push and Firebase auth disabled")
	} else {
		fbApp = app
		log.Info().Msg("✅ Firebase initialized")
	}

	// ===== Repositories & services =====
	authRepo := auth.NewRepository(db)
	authSvc := auth.NewService(authRepo, cfg, clock)

	auditSvc := auditlog.NewService(auditlog.NewRepository(db), clock, log)

	notificationRepo := notification.NewRepository(db)
	deliverer := notification.NewDeliverer(
		notification.NewEmailChannel(cfg, log),
		pushChannel(ctx, fbApp, notificationRepo, log),
		notificationRepo,
		log,
	)
	transport, source := deliveryTransport(cfg, deliverer, log)
	defer transport.Close()

	var realtime notification.Realtime
	if rdb != nil {
		realtime = notification.NewRedisRealtime(rdb, log)
	}
	dispatcher := notification.NewDispatcher(notificationRepo, authRepo, realtime, transport, clock, log)

	storage := fileStorage(ctx, cfg, fbApp, log)
	files := attachment.NewManager(storage, attachment.Options{
		MaxFiles:    cfg.MaxFilesPerEvent,
		MaxFileSize: int64(cfg.MaxFileSizeMB) << 20,
	}, clock, log)

	eventRepo := event.NewRepository(db)
	eventSvc := event.NewService(eventRepo, files, dispatcher, auditSvc, clock, event.Options{
		DeleteWindow: cfg.DeleteRetentionWindow,
		Location:     cfg.EventLocation(),
	}, log)

	registrationSvc := registration.NewService(registration.NewRepository(db), eventRepo, auditSvc, clock, log)
	favoriteSvc := favorite.NewService(favorite.NewRepository(db), eventRepo, log)
	reviewSvc := review.NewService(review.NewRepository(db), eventRepo, registrationSvc, clock, log)
	profileSvc := userprofile.NewService(userprofile.NewRepository(db), log)
	reportsSvc := reports.NewService(reports.NewRepository(db), eventRepo, reports.NewParticipantExporter(), auditSvc, clock, log)

	var (
		verifier auth.IdentityVerifier
		claims   rolerequest.RoleClaims
	)
	if fbApp != nil {
		fbAuth, err := auth.NewFirebaseAuth(ctx, fbApp, log)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ Firebase auth client unavailable")
		} else {
			claims = fbAuth
			if cfg.AuthProvider == "firebase" {
				verifier = fbAuth
			}
		}
	}
	if cfg.AuthProvider == "firebase" && verifier == nil {
		log.Fatal().Msg("❌ AUTH_PROVIDER=firebase requires a working Firebase app")
	}
	roleRequestSvc := rolerequest.NewService(rolerequest.NewRepository(db), authRepo, dispatcher, claims, auditSvc, clock, log)

	// ===== Background workers =====
	var worker *notification.DeliveryWorker
	if source != nil {
		worker = notification.NewDeliveryWorker(source, deliverer, log)
		worker.Start(ctx)
	}

	sweeper := reminder.NewSweeper(reminder.Deps{
		Repo:     reminder.NewRepository(db),
		Events:   eventRepo,
		Notifier: dispatcher,
		Log:      log,
	}, reminder.Options{
		Interval:  cfg.ReminderInterval,
		Lookahead: cfg.ReminderLookahead,
		Clock:     clock,
	})
	sweeper.Start(ctx)

	// ===== HTTP =====
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ClientIP())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, rdb, log))
	router.MaxMultipartMemory = int64(cfg.MaxFileSizeMB) << 20

	if local, ok := storage.(*attachment.LocalStorage); ok {
		router.Static(attachment.URLPrefix, local.Dir)
	}

	routes.Setup(router, routes.Handlers{
		Auth:          auth.NewHandler(authSvc),
		Profile:       userprofile.NewHandler(profileSvc),
		RoleRequests:  rolerequest.NewHandler(roleRequestSvc),
		Events:        event.NewHandler(eventSvc, files),
		Registrations: registration.NewHandler(registrationSvc),
		Favorites:     favorite.NewHandler(favoriteSvc),
		Reviews:       review.NewHandler(reviewSvc),
		Notifications: notification.NewHandler(dispatcher),
		Reports:       reports.NewHandler(reportsSvc),
		Audit:         auditlog.NewHandler(auditSvc),
	}, middleware.Authenticate(authSvc, verifier))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("🚀 Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("❌ server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	sweeper.Stop()
	if worker != nil {
		worker.Stop()
		_ = source.Close()
	}
	log.Info().Msg("👋 bye")
}

// deliveryTransport builds the outbound queue and, for brokered transports,
// the source the delivery worker drains.
func deliveryTransport(cfg *config.Config, deliverer *notification.Deliverer, log zerolog.Logger) (notification.Transport, notification.DeliverySource) {
	switch cfg.NotifyTransport {
	case "kafka":
		writer := utils.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		reader := utils.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("📨 Kafka delivery transport")
		return notification.NewKafkaTransport(writer), notification.NewKafkaSource(reader, log)

	case "rabbitmq":
		t, err := notification.NewRabbitTransport(cfg.RabbitMQURL)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ RabbitMQ unavailable, delivering inline")
			break
		}
		s, err := notification.NewRabbitSource(cfg.RabbitMQURL, log)
		if err != nil {
			_ = t.Close()
			log.Warn().Err(err).Msg("⚠️ RabbitMQ consumer unavailable, delivering inline")
			break
		}
		log.Info().Msg("📨 RabbitMQ delivery transport")
		return t, s
	}
	return notification.NewInlineTransport(deliverer), nil
}

func pushChannel(ctx context.Context, app *firebase.App, tokens notification.TokenStore, log zerolog.Logger) notification.Channel {
	if app == nil {
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ FCM client unavailable, push disabled")
		return nil
	}
	ch := notification.NewFCMChannel(client, log)
	ch.OnStaleTokens = func(ctx context.Context, stale []string) {
		if err := tokens.DeactivateTokens(ctx, stale); err != nil {
			log.Warn().Err(err).Msg("deactivate stale device tokens")
		}
	}
	return ch
}

func fileStorage(ctx context.Context, cfg *config.Config, app *firebase.App, log zerolog.Logger) attachment.Storage {
	if cfg.StorageBackend == "firebase" {
		if app == nil {
			log.Fatal().Msg("❌ STORAGE_BACKEND=firebase requires a working Firebase app")
		}
		s, err := attachment.NewFirebaseStorage(ctx, app, "events")
		if err != nil {
			log.Fatal().Err(err).Msg("❌ firebase storage init failed")
		}
		return s
	}
	s, err := attachment.NewLocalStorage(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ upload dir init failed")
	}
	return s
}
