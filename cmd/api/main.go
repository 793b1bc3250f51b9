package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/meetingminutes/backend/pkg/validator"

	"github.com/meetingminutes/backend/internal/adapter/handler"
	"github.com/meetingminutes/backend/internal/adapter/repository"
	"github.com/meetingminutes/backend/internal/infrastructure/cache"
	"github.com/meetingminutes/backend/internal/infrastructure/database"
	httpmw "github.com/meetingminutes/backend/internal/infrastructure/http/middleware"
	"github.com/meetingminutes/backend/internal/infrastructure/notify"
	"github.com/meetingminutes/backend/internal/infrastructure/pubsub"
	"github.com/meetingminutes/backend/internal/infrastructure/storage"
	"github.com/meetingminutes/backend/internal/usecase/access"
	"github.com/meetingminutes/backend/internal/usecase/documents"
	"github.com/meetingminutes/backend/internal/usecase/processing"
	pkgai "github.com/meetingminutes/backend/pkg/ai"
	"github.com/meetingminutes/backend/pkg/config"
	"github.com/meetingminutes/backend/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Set-Cookie", "Cookie"},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Applying schema migrations (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize MinIO
	log.Println("🗄️  Connecting to object storage...")
	blobStore, err := storage.NewMinIOClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to object storage: %v", err)
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	userRepo := repository.NewUserRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	seriesRepo := repository.NewMeetingSeriesRepository(db)
	attendeeRepo := repository.NewAttendeeRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	extractionRepo := repository.NewExtractionRepository(db)
	actionItemRepo := repository.NewActionItemRepository(db)
	documentRepo := repository.NewDocumentRepository(db)

	// Initialize AI client
	log.Println("🤖 Initializing AI client...")
	aiClient := pkgai.NewClient(cfg.AI, cfg.Pipeline, logger)

	// Initialize progress bus over Redis pub/sub
	log.Println("📡 Initializing progress bus...")
	progressBus := pubsub.NewRedisBus(redisClient, cfg.Pipeline.ProgressTopicPrefix, logger)

	// Initialize document generation
	log.Println("📄 Initializing document service...")
	docService := documents.NewService(documentRepo, blobStore, documents.NewTextRenderer(), logger)

	// Initialize processing pipeline
	log.Println("⚡ Initializing processing pipeline...")
	resolver := processing.NewAssigneeResolver(userRepo)
	assembler := processing.NewContextAssembler(meetingRepo, seriesRepo, extractionRepo, cfg.Pipeline.ContextSiblingsLimit)
	materializer := processing.NewMaterializer(actionItemRepo, resolver, logger)
	notifier := notify.NewLogNotifier(logger)
	processingService := processing.NewService(
		meetingRepo,
		transcriptRepo,
		extractionRepo,
		userRepo,
		aiClient,
		assembler,
		materializer,
		docService,
		progressBus,
		notifier,
		cfg.Pipeline,
		logger,
	)
	statusQuery := processing.NewStatusQuery(meetingRepo, transcriptRepo, extractionRepo, actionItemRepo, documentRepo)

	// Reaper recovers meetings left PROCESSING by a crashed instance
	reaper := processing.NewReaper(meetingRepo, progressBus, cfg.Pipeline, logger)
	reaper.Start()

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// Initialize access service
	accessSvc := access.NewService(attendeeRepo, actionItemRepo)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	authHandler := handler.NewAuth(userRepo, jwtManager, logger)
	meetingHandler := handler.NewMeeting(meetingRepo, attendeeRepo, docService, accessSvc, cfg.Pipeline, logger)
	processingHandler := handler.NewProcessing(processingService, statusQuery, accessSvc, meetingRepo, logger)
	wsHandler := handler.NewProgressWS(progressBus, accessSvc, meetingRepo, logger)
	aiHandler := handler.NewAI(aiClient, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	authEchoMW := httpmw.EchoAuth(jwtManager, userRepo)
	router := handler.NewRouter(cfg, authHandler, meetingHandler, processingHandler, wsHandler, aiHandler, authEchoMW)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	// Drain in-flight pipelines before closing connections
	reaper.Stop()
	processingService.Stop()

	log.Println("✅ Server stopped gracefully")
}
