package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hackform/backend/config"
	"github.com/hackform/backend/internal/auth"
	"github.com/hackform/backend/internal/hackathons"
	"github.com/hackform/backend/internal/middleware"
	"github.com/hackform/backend/internal/organizers"
	"github.com/hackform/backend/internal/participants"
	"github.com/hackform/backend/internal/profiles"
	"github.com/hackform/backend/internal/roster"
	"github.com/hackform/backend/internal/teams"
	"github.com/hackform/backend/pkg/database"
	"github.com/hackform/backend/pkg/queue"
	redisclient "github.com/hackform/backend/pkg/redis"
	"github.com/hackform/backend/pkg/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}
	logger.Info("migrations applied")

	rdb, err := redisclient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3 *storage.S3
	if cfg.AWS.Region != "" {
		s3, err = storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			PhotosBucket:         cfg.AWS.PhotosBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("init s3", zap.Error(err))
		}
	} else {
		logger.Warn("AWS_REGION not set, photo storage disabled")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobs := queue.NewQueue(rdb.Client, logger)

	authRepo := auth.NewRepository(pool)
	profileRepo := profiles.NewRepository(pool)
	participantRepo := participants.NewRepository(pool)
	teamRepo := teams.NewRepository(pool)
	organizerRepo := organizers.NewRepository(pool)
	hackathonRepo := hackathons.NewRepository(pool)

	rosterService := roster.NewService(
		roster.NewPostgresStore(pool),
		roster.NewOutboxNotifier(jobs),
		logger,
	)

	authHandler := auth.NewHandler(authRepo, jwtService, cfg.Telegram.BotToken, logger)
	profileHandler := profiles.NewHandler(profileRepo, logger)
	participantHandler := participants.NewHandler(participantRepo, logger)
	teamHandler := teams.NewHandler(teamRepo, logger)
	rosterHandler := roster.NewHandler(rosterService, participantRepo, logger)
	organizerHandler := organizers.NewHandler(organizerRepo, jwtService, logger)
	hackathonHandler := hackathons.NewHandler(hackathonRepo, teamRepo, rosterService, participantRepo, s3, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/auth/telegram", authHandler.TelegramAuth)
	router.GET("/hackathons", hackathonHandler.List)
	router.GET("/hackathons/upcoming", hackathonHandler.Upcoming)
	router.GET("/hackathons/:id", hackathonHandler.Get)
	router.GET("/hackathons/:id/photo-url", hackathonHandler.PhotoURL)
	router.GET("/skills", profileHandler.ListSkills)

	router.POST("/organizers/register", organizerHandler.Register)
	router.POST("/organizers/login", organizerHandler.Login)

	participant := router.Group("/", middleware.JWT(jwtService), middleware.RequireRole(auth.RoleParticipant))
	{
		participant.GET("/profile", profileHandler.GetMe)
		participant.PUT("/profile", profileHandler.Update)
		participant.GET("/users/:id", authHandler.GetUser)

		participant.POST("/hackathons/:id/participants", participantHandler.Register)
		participant.GET("/hackathons/:id/participants", participantHandler.List)

		participant.POST("/hackathons/:id/teams", teamHandler.Create)
		participant.GET("/hackathons/:id/teams/open", rosterHandler.EmptySlots)
		participant.GET("/hackathons/:id/teams/my", teamHandler.My)
		participant.GET("/hackathons/:id/teams/:teamId", teamHandler.Get)
		participant.POST("/hackathons/:id/teams/:teamId/invite", rosterHandler.Invite)
		participant.POST("/hackathons/:id/teams/:teamId/apply", rosterHandler.Apply)

		participant.POST("/invites/:id/accept", rosterHandler.Accept)
		participant.POST("/invites/:id/decline", rosterHandler.Decline)
	}

	organizer := router.Group("/", middleware.JWT(jwtService), middleware.RequireRole(auth.RoleOrganizer))
	{
		organizer.GET("/organizers/me", organizerHandler.Me)
		organizer.POST("/organizers/logout", organizerHandler.Logout)

		organizer.POST("/hackathons", hackathonHandler.Create)
		organizer.PUT("/hackathons/:id", hackathonHandler.Update)
		organizer.DELETE("/hackathons/:id", hackathonHandler.Delete)
		organizer.POST("/hackathons/:id/photo", hackathonHandler.UploadPhoto)
		organizer.GET("/hackathons/:id/teams", hackathonHandler.Teams)
		organizer.GET("/hackathons/:id/analytics", hackathonHandler.Analytics)
		organizer.GET("/hackathons/:id/export/csv", hackathonHandler.ExportCSV)
		organizer.POST("/hackathons/:id/teams/:teamId/approve", hackathonHandler.ApproveTeam)
		organizer.POST("/hackathons/:id/participants/:userId/assign", hackathonHandler.AssignParticipant)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
