package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/api"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/cache"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/config"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/db"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/notify"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/services"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/storage"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/store"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/tasks"
	"github.com/SOMET1010/lovable-project-revive-46-sub001/internal/utils"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		utils.Logger.Fatalf("Failed to load configuration: %v", err)
	}
	utils.InitLogger(cfg.AppName)

	// Initialize Database
	ctxConnect, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	mongoClient, mongoDb, err := db.ConnectDB(ctxConnect, cfg)
	if err != nil {
		utils.Logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			utils.Logger.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	repos := store.NewMongoRepositories(mongoDb)
	ctxIndexes, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := repos.EnsureIndexes(ctxIndexes); err != nil {
		utils.Logger.Fatalf("Failed to ensure MongoDB indexes: %v", err)
	}
	cancelIndexes()

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(ctxConnect, cfg)
	if err != nil {
		utils.Logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	cancelConnect()
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			utils.Logger.Errorf("Error disconnecting from Redis: %v", err)
		}
	}()

	contractArchive, err := storage.NewS3Storage(cfg)
	if err != nil {
		utils.Logger.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	// Notifications land in the per-user Redis inbox and the process log,
	// plus a JSON lines file when NOTIFICATION_LOG_FILE is set.
	inbox := notify.NewRedisInbox(redisClient, cfg.NotificationInboxSize, cfg.NotificationInboxTTL)
	sink := notify.NewCompositeSink(inbox, notify.LoggingSink{})
	if cfg.NotificationLogFile != "" {
		fileSink, err := notify.NewFileSink(cfg.NotificationLogFile)
		if err != nil {
			utils.Logger.Warnf("Failed to initialize notification file sink (%s): %v. Proceeding without it.", cfg.NotificationLogFile, err)
		} else {
			sink.AddSink(fileSink)
		}
	}

	// Initialize Task Client
	taskClient := tasks.NewClient(cfg)
	defer taskClient.Close()
	dispatcher := tasks.NewQueueDispatcher(taskClient)

	// Initialize Services
	visitService, err := services.NewVisitService(&repos.Repositories, cfg, dispatcher)
	if err != nil {
		utils.Logger.Fatalf("Failed to initialize visit service: %v", err)
	}
	svc := api.Services{
		Applications: services.NewApplicationService(&repos.Repositories, cfg, dispatcher),
		Visits:       visitService,
		Contracts:    services.NewContractService(&repos.Repositories, cfg, dispatcher, tasks.NewQueueArchiver(taskClient)),
		Payments:     services.NewPaymentService(&repos.Repositories, cfg, dispatcher),
		Scoring:      services.NewScoringService(&repos.Repositories, cfg),
	}

	taskProcessor := tasks.NewTaskProcessor(sink, contractArchive, repos.Contracts, svc.Contracts)

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	// Start Service API (always runs)
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(svc, inbox, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		utils.Logger.Infof("Service API listening on :%s", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatalf("Service API ListenAndServe error: %v", err)
		}
		utils.Logger.Info("Service API server stopped.")
	}()

	// --- Mode-specific servers ---
	var mainApiSrv *http.Server
	var backgroundTaskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	utils.Logger.Infof("Starting application in '%s' mode...", cfg.RunMode)

	apiMode := func() {
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: api.SetupRouter(cfg, svc, contractArchive, inbox),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			utils.Logger.Infof("Main API listening on :%s", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				utils.Logger.Fatalf("Main API ListenAndServe error: %v", err)
			}
			utils.Logger.Info("Main API server stopped.")
		}()
	}

	bgMode := func() {
		var mux *asynq.ServeMux
		backgroundTaskSrv, mux = tasks.SetupServer(cfg, taskProcessor)
		wg.Add(1)
		go func() {
			defer wg.Done()
			utils.Logger.Info("Background task server starting...")
			if err := backgroundTaskSrv.Run(mux); err != nil {
				utils.Logger.Fatalf("Background task server error: %v", err)
			}
			utils.Logger.Info("Background task server stopped.")
		}()

		scheduler, err = tasks.NewScheduler(cfg)
		if err != nil {
			utils.Logger.Fatalf("Failed to set up scheduler: %v", err)
		}
		if err := scheduler.Start(); err != nil {
			utils.Logger.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		utils.Logger.Fatalf("Invalid run mode specified: %s.", cfg.RunMode)
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		utils.Logger.Infof("Received signal: %s. Shutting down gracefully...", sig)
	case <-shutdownChan:
		utils.Logger.Info("Shutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		utils.Logger.Errorf("Service API server shutdown error: %v", err)
	}

	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			utils.Logger.Errorf("Main API server shutdown error: %v", err)
		}
	}

	if scheduler != nil {
		scheduler.Shutdown()
	}
	if backgroundTaskSrv != nil {
		backgroundTaskSrv.Shutdown()
	}

	utils.Logger.Info("Waiting for servers to stop...")
	wg.Wait()

	utils.Logger.Info("Server gracefully stopped")
}
