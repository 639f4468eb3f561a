// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"barcodebuddy/internal/config"
	"barcodebuddy/internal/database"
	"barcodebuddy/internal/discovery"
	"barcodebuddy/internal/grocy"
	"barcodebuddy/internal/handler"
	"barcodebuddy/internal/interpreter"
	"barcodebuddy/internal/middleware"
	"barcodebuddy/internal/model"
	"barcodebuddy/internal/repository"
	"barcodebuddy/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config      *config.Config
	logger      *zap.Logger
	db          *database.DB
	scanLog     repository.ScanLogRepository
	interpreter *interpreter.Interpreter
	devices     handler.DeviceLister
	usb         *discovery.USBLister
	grocyClient *grocy.Client
	eventBus    *handler.EventBus
	inject      chan<- model.ScanEvent
}

// NewRouter creates a new router instance. db, usb and grocyClient may
// be nil.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *database.DB,
	scanLog repository.ScanLogRepository,
	session *interpreter.Interpreter,
	devices handler.DeviceLister,
	usb *discovery.USBLister,
	grocyClient *grocy.Client,
	eventBus *handler.EventBus,
	inject chan<- model.ScanEvent,
) *Router {
	return &Router{
		config:      cfg,
		logger:      logger,
		db:          db,
		scanLog:     scanLog,
		interpreter: session,
		devices:     devices,
		usb:         usb,
		grocyClient: grocyClient,
		eventBus:    eventBus,
		inject:      inject,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Server))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.grocyClient, r.config, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.eventBus, r.logger)
	scanHandler := handler.NewScanHandler(r.config, r.scanLog, r.interpreter, r.devices, wsHandler, r.inject, r.logger)
	deviceHandler := handler.NewDeviceHandler(r.devices, r.usb, r.logger)
	barcodeHandler := handler.NewBarcodeHandler(&r.config.Barcode, r.logger)

	// Health check routes
	health := router.Group("")
	healthHandler.RegisterRoutes(health)

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	scanHandler.RegisterRoutes(apiV1)
	deviceHandler.RegisterRoutes(apiV1)
	barcodeHandler.RegisterRoutes(apiV1)

	// WebSocket routes
	ws := router.Group("/ws")
	wsHandler.RegisterRoutes(ws)

	// Documentation routes
	r.addDocumentationRoutes(router)

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
