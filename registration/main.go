package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	registrationapi "github.com/minetourney/go-services/registration/api"
	"github.com/minetourney/go-services/registration/reconciler"
	"github.com/minetourney/go-services/registration/service"
	"github.com/minetourney/go-services/registration/store"
	"github.com/minetourney/go-services/shared/api"
	"github.com/minetourney/go-services/shared/cluster"
	"github.com/minetourney/go-services/shared/config"
	"github.com/minetourney/go-services/shared/mojang"
	mongodbu "github.com/minetourney/go-services/shared/mongodb"
	"github.com/minetourney/go-services/shared/notify"
	redisu "github.com/minetourney/go-services/shared/redis"
	"github.com/minetourney/go-services/shared/registry"
)

func main() {
	// --- 1. Logger and Configuration ---
	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	cfg, err := config.LoadRegistrationServiceConfig()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Errorf("Failed to disconnect from MongoDB: %v", err)
		}
	}()

	// --- 3. Connect to Redis ---
	redisClient, err := redisu.NewUniversalClient(cfg.RedisAddrs, cfg.RedisPassword, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis client: %v", err)
		}
	}()

	// --- 4. Initialize Data Stores ---
	tournamentStore := store.NewTournamentStore(
		mongoClient.Collection(cfg.MongoDBTournamentsCollection),
		mongoClient.Collection(cfg.MongoDBDatesCollection),
	)
	teamStore := store.NewTeamStore(mongoClient.Collection(cfg.MongoDBTeamsCollection))
	inviteStore := store.NewInviteStore(mongoClient.Collection(cfg.MongoDBInvitesCollection))
	profileStore := store.NewProfileStore(mongoClient.Collection(cfg.MongoDBProfilesCollection))

	if err := teamStore.EnsureIndexes(context.Background()); err != nil {
		logger.Fatalf("Failed to ensure team indexes: %v", err)
	}

	// --- 5. Initialize Business Logic Services ---
	notifier := notify.NewNotifier(redisClient, logger)
	rosterIndex := service.NewRosterIndex(teamStore)

	registrationService := service.NewRegistrationService(mongoClient, tournamentStore, teamStore, rosterIndex, notifier, logger)
	tournamentService := service.NewTournamentService(tournamentStore, teamStore, notifier, logger)
	inviteService := service.NewInviteService(mongoClient, inviteStore, profileStore, teamStore, tournamentStore, rosterIndex, registrationService, logger)
	profileService := service.NewProfileService(profileStore, logger)

	// --- 6. Background Jobs ---
	verifier := mojang.NewVerifier(mongoClient, cfg.MongoDBProfilesCollection, cfg.IGNVerifyInterval, logger)
	go verifier.StartVerifyJob()
	defer verifier.StopVerifyJob()

	// --- 7. Service Registry and Cluster Assignment ---
	registrar := registry.NewServiceRegistrar(redisClient, "registration-service", &cfg.CommonConfig, logger)
	registrar.Start()
	defer registrar.Stop()

	registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL, logger)
	assignmentManager := cluster.NewServiceAssignmentManager(registryClient, registrar, cfg.HeartbeatInterval, logger)
	go assignmentManager.Start()
	defer assignmentManager.Stop()

	// --- 8. Stale-Team Reconciler ---
	rec := reconciler.New(tournamentStore, teamStore, registrationService, assignmentManager,
		cfg.ReconcileInterval, cfg.ReconcileDeadline, cfg.ReconcileBatchLimit, logger)
	go rec.Start(context.Background())
	defer rec.Stop()

	// --- 9. HTTP Server ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, logger)
	handler := registrationapi.NewHandler(tournamentService, registrationService, inviteService, profileService, logger)
	handler.RegisterRoutes(baseServer.Router, cfg.JWTSecret)

	go func() {
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 10. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down registration service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server graceful shutdown failed: %v", err)
	}
	logger.Info("Registration service stopped.")
}
