package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/callsim/callsim-backend/internal/clients/redis"
	"github.com/callsim/callsim-backend/internal/db"
	"github.com/callsim/callsim-backend/internal/handlers"
	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/middleware"
	"github.com/callsim/callsim-backend/internal/observability"
	"github.com/callsim/callsim-backend/internal/repos"
	"github.com/callsim/callsim-backend/internal/server"
	"github.com/callsim/callsim-backend/internal/services"
	"github.com/callsim/callsim-backend/internal/sse"
	"github.com/callsim/callsim-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "callsim-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "", log),
	})

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	profileRepo := repos.NewProfileRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	personaRepo := repos.NewPersonaRepo(thePG, log)
	simulationRepo := repos.NewSimulationRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)
	assessmentRepo := repos.NewAssessmentRepo(thePG, log)
	achievementRepo := repos.NewAchievementRepo(thePG, log)

	// Seed personas
	if err := db.SeedPersonas(ctx, log, personaRepo); err != nil {
		log.Error("Persona seeding failed", "error", err)
		os.Exit(1)
	}

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := sse.NewHub(log)

	var sseBus redis.Bus
	if os.Getenv("REDIS_ADDR") != "" {
		sseBus, err = redis.NewBus(log)
		if err != nil {
			log.Warn("Could not init redis SSE bus, running single-instance", "error", err)
			sseBus = nil
		} else {
			if err := sseBus.StartForwarder(ctx, sseHub.Publish); err != nil {
				log.Warn("Could not start redis SSE forwarder", "error", err)
			}
			defer sseBus.Close()
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	notifier := services.NewSimulationNotifier(log, sseHub, sseBus)
	avatarService, err := services.NewAvatarService(thePG, log, profileRepo)
	if err != nil {
		log.Warn("Could not init AvatarService, registering without avatars", "error", err)
		avatarService = nil
	}
	authService := services.NewAuthService(thePG, log, profileRepo, userTokenRepo, avatarService, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, profileRepo)
	achievementService := services.NewAchievementService(thePG, log, personaRepo, simulationRepo, assessmentRepo, achievementRepo)
	simulationService := services.NewSimulationService(thePG, log, profileRepo, personaRepo, simulationRepo, messageRepo, assessmentRepo, achievementService, notifier, nil)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	simulationHandler := handlers.NewSimulationHandler(simulationService)
	achievementHandler := handlers.NewAchievementHandler(achievementService)
	sseHandler := handlers.NewSSEHandler(log, sseHub)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		UserHandler:        userHandler,
		SimulationHandler:  simulationHandler,
		AchievementHandler: achievementHandler,
		SSEHandler:         sseHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if otelShutdown != nil {
			_ = otelShutdown(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
