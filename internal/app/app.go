package app

import (
	"context"
	"tunescore/config"
	"tunescore/internal/controllers"
	"tunescore/internal/database"
	"tunescore/internal/events"
	"tunescore/internal/handlers/middleware"
	"tunescore/internal/jobs"
	"tunescore/internal/logger"
	"tunescore/internal/repositories"
	"tunescore/internal/services"
)

type App struct {
	Database   database.DB
	Middleware middleware.Middleware
	EventBus   *events.EventBus
	Config     config.Config

	// Services
	TransactionService *services.TransactionService
	SessionService     *services.SessionService
	CatalogService     *services.CatalogService
	SchedulerService   *services.SchedulerService

	// Repositories
	Repository repositories.Repository

	// Controllers
	Controllers controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	// Initialize services
	transactionService := services.NewTransactionService(db)
	sessionService, err := services.NewSessionService(config)
	if err != nil {
		return &App{}, log.Err("failed to create session service", err)
	}
	catalogService := services.NewCatalogService(config)
	schedulerService := services.NewSchedulerService()

	// Initialize repositories
	repos := repositories.New(db)

	// Initialize controllers; the achievement controller subscribes itself to
	// the rating-saved channel during construction
	middleware := middleware.New(db, eventBus, config, repos)
	controllers := controllers.New(repos, transactionService, catalogService, eventBus)

	if config.SchedulerEnabled {
		statsWarmupJob := jobs.NewStatsWarmupJob(repos.Rating, services.Nightly)
		if err := schedulerService.AddJob(statsWarmupJob); err != nil {
			return &App{}, log.Err("failed to register stats warmup job", err)
		}
		log.Info("Registered stats warmup job with scheduler")

		if err := schedulerService.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	app := &App{
		Database:           db,
		Config:             config,
		Middleware:         middleware,
		EventBus:           eventBus,
		TransactionService: transactionService,
		SessionService:     sessionService,
		CatalogService:     catalogService,
		SchedulerService:   schedulerService,
		Repository:         repos,
		Controllers:        controllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.EventBus,
		a.TransactionService,
		a.SessionService,
		a.CatalogService,
		a.SchedulerService,
		a.Repository.User,
		a.Repository.Rating,
		a.Repository.Achievement,
		a.Controllers.User,
		a.Controllers.Rating,
		a.Controllers.Collection,
		a.Controllers.Achievement,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.SchedulerService != nil {
		if closeErr := a.SchedulerService.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
