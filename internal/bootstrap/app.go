package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"plantguard/internal/catalog"
	"plantguard/internal/classifier"
	httpHandler "plantguard/internal/handler/http"
	wsHandler "plantguard/internal/handler/websocket"
	"plantguard/internal/hub"
	gormpersistence "plantguard/internal/infra/persistence/gorm"
	mongopersistence "plantguard/internal/infra/persistence/mongo"
	"plantguard/internal/infra/setup"
	"plantguard/internal/infra/storage"
	"plantguard/internal/metrics"
	"plantguard/internal/middleware"
	"plantguard/internal/repository"
	"plantguard/internal/service"
	"plantguard/internal/tasks"
	"plantguard/internal/worker"
)

// closingRecorder is a PredictionRecorder that can wait for pending work.
type closingRecorder interface {
	service.PredictionRecorder
	Close()
}

// repositories is what a store driver provides.
type repositories struct {
	users       repository.UserRepository
	predictions repository.PredictionRepository
	contacts    repository.ContactRepository
	pinger      repository.Pinger
	close       func(ctx context.Context) error
}

// App holds every long-lived component.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	Classifier  *classifier.Classifier
	Catalog     *catalog.Store
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	AsynqServer *worker.WorkerServer
	Hub         *hub.Hub
	HttpServer  *http.Server

	recorder closingRecorder
	stores   *repositories
}

// NewLogger configures the standard logrus logger: JSON in production,
// coloured text elsewhere.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(level)
	log.SetOutput(os.Stdout)
	return log
}

// NewApp loads configuration and wires the application. Model, catalog and
// store errors are fatal.
func NewApp() (*App, error) {
	// 1. Config and logger
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}
	log := NewLogger(cfg)
	log.WithFields(logrus.Fields{
		"env":      cfg.AppEnv,
		"store":    cfg.StoreDriver,
		"uploads":  cfg.UploadBackend,
		"recorder": cfg.Recorder,
	}).Info("Configuration loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app := &App{Config: cfg, Log: log}
	m := metrics.New()

	// 2. Model and catalog
	engine, err := classifier.NewONNXEngine(classifier.ONNXConfig{
		LibraryPath: cfg.ONNXLibPath,
		ModelPath:   cfg.ModelPath,
		InputName:   cfg.ModelInputName,
		OutputName:  cfg.ModelOutputName,
		NumClasses:  cfg.NumClasses,
		PoolSize:    cfg.InferenceWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	clf, err := classifier.New(engine)
	if err != nil {
		_ = engine.Close()
		return nil, err
	}
	app.Classifier = clf
	log.WithField("classes", clf.NumClasses()).Info("Classifier ready")

	cat, err := catalog.Load(cfg.DiseaseCSV, cfg.SupplementCSV, clf.NumClasses())
	if err != nil {
		app.closeClassifier()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	app.Catalog = cat
	log.WithField("entries", cat.Len()).Info("Catalog loaded")

	// 3. Persistence
	stores, err := openStores(ctx, cfg)
	if err != nil {
		app.closeClassifier()
		return nil, err
	}
	app.stores = stores

	// 4. Uploads
	uploads, err := openUploadStore(ctx, cfg)
	if err != nil {
		app.closeAll(ctx)
		return nil, err
	}

	// 5. Redis: rate limiting and the queue recorder; optional otherwise
	var rateCounter middleware.Counter = middleware.NewMemoryCounter()
	if cfg.RedisAddr != "" {
		redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			app.closeAll(ctx)
			return nil, fmt.Errorf("failed to init Redis: %w", err)
		}
		app.RedisClient = redisClient
		rateCounter = middleware.NewRedisCounter(redisClient, cfg.KeyPrefix)
	} else {
		log.Info("REDIS_ADDR not set; rate limiting is per-instance")
	}

	// 6. Live feed and recorder
	app.Hub = hub.NewHub(m)
	switch cfg.Recorder {
	case RecorderQueue:
		redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		app.AsynqClient = asynq.NewClient(redisOpt)
		app.recorder = tasks.NewQueueRecorder(app.AsynqClient, tasks.QueueDefault, m)
		app.AsynqServer = worker.NewWorkerServer(redisOpt,
			worker.NewPredictionPersistHandler(stores.predictions, app.Hub, m), 0, log)
	default:
		app.recorder = service.NewAsyncRecorder(stores.predictions, app.Hub, m, service.DefaultRecordTimeout)
	}

	// 7. Services and handlers
	authService, err := service.NewAuthService(stores.users, cfg.JWTSecret, cfg.JWTExpiryHours)
	if err != nil {
		app.closeAll(ctx)
		return nil, fmt.Errorf("failed to create AuthService: %w", err)
	}
	predictionService := service.NewPredictionService(uploads, clf, cat, app.recorder, stores.predictions, m)

	handlers := Handlers{
		Prediction: httpHandler.NewPredictionHandler(predictionService, cfg.MaxUploadBytes),
		Auth:       httpHandler.NewAuthHandler(authService),
		Health:     httpHandler.NewHealthHandler(service.NewHealthService(stores.pinger)),
		Market:     httpHandler.NewMarketHandler(service.NewMarketService(cat)),
		Contact:    httpHandler.NewContactHandler(service.NewContactService(stores.contacts)),
		Feed:       wsHandler.NewWebSocketHandler(app.Hub, cfg.CORSAllowedOrigin),
	}

	// 8. Router and server
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := NewRouter(handlers, RouterOptions{
		Log:               log,
		Metrics:           m,
		Verifier:          authService,
		RateCounter:       rateCounter,
		RateLimitMax:      cfg.RateLimitMax,
		RateLimitWindow:   cfg.RateLimitWindow,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
	})
	app.HttpServer = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("Application assembled successfully")
	return app, nil
}

func openStores(ctx context.Context, cfg *Config) (*repositories, error) {
	switch cfg.StoreDriver {
	case StoreMongo:
		client, err := setup.InitMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store := mongopersistence.NewStore(client, cfg.MongoDatabase)
		if err := store.EnsureIndexes(ctx); err != nil {
			// The server may be down at startup; user creation retries the index.
			logrus.WithError(err).Warn("Could not ensure MongoDB indexes")
		}
		return &repositories{
			users:       mongopersistence.NewUserRepository(store),
			predictions: mongopersistence.NewPredictionRepository(store),
			contacts:    mongopersistence.NewContactRepository(store),
			pinger:      store,
			close:       store.Disconnect,
		}, nil

	case StoreMySQL, StoreSQLite:
		gdb, err := openGorm(cfg)
		if err != nil {
			return nil, err
		}
		if err := setup.MigrateDB(gdb); err != nil {
			return nil, fmt.Errorf("failed to migrate DB: %w", err)
		}
		return &repositories{
			users:       gormpersistence.NewGormUserRepository(gdb),
			predictions: gormpersistence.NewGormPredictionRepository(gdb),
			contacts:    gormpersistence.NewGormContactRepository(gdb),
			pinger:      gormpersistence.NewPinger(gdb, cfg.StoreDriver),
			close: func(context.Context) error {
				sqlDB, err := gdb.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openGorm(cfg *Config) (*gorm.DB, error) {
	if cfg.StoreDriver == StoreMySQL {
		db, err := setup.InitMySQL(cfg.MySQL)
		if err != nil {
			return nil, fmt.Errorf("failed to init MySQL: %w", err)
		}
		return db, nil
	}
	db, err := setup.InitSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to init SQLite: %w", err)
	}
	return db, nil
}

func openUploadStore(ctx context.Context, cfg *Config) (service.UploadStore, error) {
	if cfg.UploadBackend == UploadS3 {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to init S3 upload store: %w", err)
		}
		return s3Store, nil
	}
	local, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init upload dir: %w", err)
	}
	return local, nil
}

// Start launches the hub, the worker (queue mode) and the HTTP server.
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	if a.AsynqServer != nil {
		go a.AsynqServer.Start()
		a.Log.Info("Asynq worker server routine started")
	}

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Run starts the application and shuts it down once ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Start()
	<-ctx.Done()
	a.Log.Info("Shutdown signal received...")
	a.Shutdown()
}

// Shutdown stops accepting requests, drains pending prediction writes and
// releases every resource.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// 1. HTTP first so no new predictions arrive
	if a.HttpServer != nil {
		if err := a.HttpServer.Shutdown(ctx); err != nil {
			a.Log.Errorf("Error shutting down HTTP server: %v", err)
		} else {
			a.Log.Info("HTTP server shut down gracefully.")
		}
	}

	a.closeAll(ctx)
	a.Log.Info("Application shutdown complete.")
}

func (a *App) closeAll(ctx context.Context) {
	// 2. Pending records, then whoever persists them
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.AsynqServer != nil {
		a.AsynqServer.Shutdown()
	}
	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing Asynq client: %v", err)
		}
	}
	if a.Hub != nil {
		a.Hub.Close()
	}

	// 3. Connections
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if a.stores != nil && a.stores.close != nil {
		if err := a.stores.close(ctx); err != nil {
			a.Log.Errorf("Error closing store: %v", err)
		} else {
			a.Log.Info("Store connection closed.")
		}
	}
	a.closeClassifier()
}

func (a *App) closeClassifier() {
	if a.Classifier == nil {
		return
	}
	if err := a.Classifier.Close(); err != nil {
		a.Log.Errorf("Error releasing model sessions: %v", err)
	}
	a.Classifier = nil
}
