// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "barcodebuddy/docs"
	"barcodebuddy/internal/config"
	"barcodebuddy/internal/database"
	"barcodebuddy/internal/discovery"
	"barcodebuddy/internal/grocy"
	"barcodebuddy/internal/handler"
	"barcodebuddy/internal/interpreter"
	"barcodebuddy/internal/lookup"
	"barcodebuddy/internal/model"
	"barcodebuddy/internal/repository"
	"barcodebuddy/internal/routes"
	"barcodebuddy/internal/scanner"
	"barcodebuddy/internal/service"
	"barcodebuddy/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Scan pipeline
	manager     *scanner.Manager
	interpreter *interpreter.Interpreter
	dispatcher  *service.Dispatcher
	eventBus    *handler.EventBus
	events      chan model.ScanEvent
	actions     chan model.ScanAction

	// Collaborators
	scanLog     repository.ScanLogRepository
	grocyClient *grocy.Client
	resolver    *lookup.Chain
	usb         *discovery.USBLister

	pipelineCtx    context.Context
	pipelineCancel context.CancelFunc
	pipelineWG     sync.WaitGroup
}

// @title Barcode Buddy API
// @version 1.0.0
// @description Barcode scanner ingestion service with Grocy inventory integration
// @termsOfService http://swagger.io/terms/

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "barcodebuddy")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg.App)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeScanLog(); err != nil {
		return nil, fmt.Errorf("failed to initialize scan log: %w", err)
	}

	if err := app.initializeCollaborators(); err != nil {
		return nil, fmt.Errorf("failed to initialize collaborators: %w", err)
	}

	if err := app.initializePipeline(); err != nil {
		return nil, fmt.Errorf("failed to initialize scan pipeline: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeScanLog sets up the scan history backend
func (app *Application) initializeScanLog() error {
	switch app.config.History.Backend {
	case "postgres":
		db, err := database.NewConnection(app.config, app.logger)
		if err != nil {
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		app.database = db

		migrator := database.NewMigrator(db, app.logger)
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}

		app.scanLog = repository.NewPostgresScanLogRepository(db, app.logger)

	default:
		app.scanLog = repository.NewMemoryScanLogRepository(app.config.History.MaxRecent, app.logger)
	}

	app.logger.Info("Scan log initialized", zap.String("backend", app.config.History.Backend))
	return nil
}

// initializeCollaborators creates the inventory client, the product
// database chain and the USB lister
func (app *Application) initializeCollaborators() error {
	if app.config.Grocy.Configured() {
		app.grocyClient = grocy.NewClient(&app.config.Grocy, app.logger)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.grocyClient.TestConnection(ctx); err != nil {
			// The service still captures scans while Grocy is down.
			app.logger.Warn("Grocy instance is not reachable", zap.Error(err))
		}
	} else {
		app.logger.Info("No Grocy instance configured, running standalone")
	}

	app.resolver = lookup.NewChain(&app.config.Lookup, app.logger)
	app.usb = discovery.NewUSBLister(app.logger)
	app.eventBus = handler.NewEventBus(app.logger)

	app.logger.Info("Collaborators initialized successfully")
	return nil
}

// initializePipeline wires readers, interpreter and dispatcher together
func (app *Application) initializePipeline() error {
	app.events = make(chan model.ScanEvent, 64)
	app.actions = make(chan model.ScanAction, 64)

	app.manager = scanner.NewManager(&app.config.Scanner, app.logger)
	app.interpreter = interpreter.New(&app.config.Barcode, app.logger)

	var inventory grocy.Inventory
	if app.grocyClient != nil {
		inventory = app.grocyClient
	}
	app.dispatcher = service.NewDispatcher(inventory, app.resolver, app.scanLog, app.eventBus, app.logger)

	app.pipelineCtx, app.pipelineCancel = context.WithCancel(context.Background())

	app.logger.Info("Scan pipeline initialized")
	return nil
}

// startPipeline launches the pipeline goroutines
func (app *Application) startPipeline() error {
	if err := app.manager.Start(app.pipelineCtx); err != nil {
		return fmt.Errorf("failed to start device manager: %w", err)
	}

	// Device scans and API-submitted scans share one stream so the
	// interpreter stays the single consumer.
	app.pipelineWG.Add(1)
	go func() {
		defer app.pipelineWG.Done()
		defer close(app.events)
		for {
			select {
			case <-app.pipelineCtx.Done():
				return
			case ev, ok := <-app.manager.Events():
				if !ok {
					return
				}
				select {
				case app.events <- ev:
				case <-app.pipelineCtx.Done():
					return
				}
			}
		}
	}()

	app.pipelineWG.Add(1)
	go func() {
		defer app.pipelineWG.Done()
		app.interpreter.Run(app.pipelineCtx, app.events, app.actions)
	}()

	app.pipelineWG.Add(1)
	go func() {
		defer app.pipelineWG.Done()
		app.dispatcher.Run(app.pipelineCtx, app.actions)
	}()

	app.logger.Info("Scan pipeline started")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.scanLog,
		app.interpreter,
		app.manager,
		app.usb,
		app.grocyClient,
		app.eventBus,
		app.events,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)

	return nil
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "barcodebuddy")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Stop readers first so no scan is lost mid-pipeline, then cancel
	// the interpreter and dispatcher.
	app.manager.Stop()
	app.pipelineCancel()
	app.pipelineWG.Wait()
	app.logger.Info("Scan pipeline stopped")

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		}
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start runs the application until a shutdown signal arrives
func (app *Application) Start() error {
	if err := app.startPipeline(); err != nil {
		return err
	}

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()

	return nil
}
