package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"plantguard/internal/infra/setup"
	"plantguard/internal/infra/storage"
)

// Store drivers.
const (
	StoreMongo  = "mongo"
	StoreMySQL  = "mysql"
	StoreSQLite = "sqlite"
)

// Upload backends.
const (
	UploadLocal = "local"
	UploadS3    = "s3"
)

// Recorder modes.
const (
	RecorderAsync = "async"
	RecorderQueue = "queue"
)

// Config is everything read from the environment at startup.
type Config struct {
	AppEnv            string
	ServerPort        string
	LogLevel          string
	CORSAllowedOrigin string

	JWTSecret      string
	JWTExpiryHours int

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	MySQL         setup.MySQLConfig
	SQLitePath    string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	KeyPrefix       string
	RateLimitMax    int
	RateLimitWindow time.Duration

	Recorder string

	ModelPath        string
	ONNXLibPath      string
	ModelInputName   string
	ModelOutputName  string
	NumClasses       int
	InferenceWorkers int

	DiseaseCSV    string
	SupplementCSV string

	UploadBackend  string
	UploadDir      string
	S3             storage.S3Config
	MaxUploadBytes int64
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "plantguard"),
		MySQL: setup.MySQLConfig{
			User:     os.Getenv("MYSQL_USER"),
			Password: os.Getenv("MYSQL_PASSWORD"),
			Host:     getEnv("MYSQL_HOST", "127.0.0.1"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			DBName:   getEnv("MYSQL_DB", "plantguard"),
		},
		SQLitePath: getEnv("SQLITE_PATH", "plantguard.db"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:     getEnv("REDIS_KEY_PREFIX", "pg:"),

		Recorder: strings.ToLower(getEnv("RECORDER", RecorderAsync)),

		ModelPath:       getEnv("MODEL_PATH", "models/plant_disease_model.onnx"),
		ONNXLibPath:     os.Getenv("ONNX_LIB_PATH"),
		ModelInputName:  os.Getenv("MODEL_INPUT_NAME"),
		ModelOutputName: os.Getenv("MODEL_OUTPUT_NAME"),

		DiseaseCSV:    getEnv("DISEASE_CSV", "data/disease_info.csv"),
		SupplementCSV: getEnv("SUPPLEMENT_CSV", "data/supplement_info.csv"),

		UploadBackend: strings.ToLower(getEnv("UPLOAD_BACKEND", UploadLocal)),
		UploadDir:     getEnv("UPLOAD_DIR", "static/uploads"),
		S3: storage.S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Prefix:    getEnv("S3_PREFIX", "uploads"),
		},
	}

	var err error
	if cfg.JWTExpiryHours, err = getEnvInt("JWT_EXPIRY_HOURS", 24); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = getEnvInt("RATE_LIMIT_MAX", 30); err != nil {
		return nil, err
	}
	windowSeconds, err := getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Duration(windowSeconds) * time.Second
	if cfg.NumClasses, err = getEnvInt("NUM_CLASSES", 39); err != nil {
		return nil, err
	}
	if cfg.InferenceWorkers, err = getEnvInt("INFERENCE_WORKERS", 2); err != nil {
		return nil, err
	}
	maxUploadMB, err := getEnvInt("MAX_UPLOAD_MB", 16)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUploadMB) << 20

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("environment variable JWT_SECRET must be set")
	}
	switch c.StoreDriver {
	case StoreMongo, StoreSQLite:
	case StoreMySQL:
		if c.MySQL.User == "" {
			return fmt.Errorf("MYSQL_USER must be set when STORE_DRIVER=mysql")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want mongo, mysql or sqlite)", c.StoreDriver)
	}
	switch c.UploadBackend {
	case UploadLocal:
	case UploadS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET must be set when UPLOAD_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_BACKEND %q (want local or s3)", c.UploadBackend)
	}
	switch c.Recorder {
	case RecorderAsync:
	case RecorderQueue:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR must be set when RECORDER=queue")
		}
	default:
		return fmt.Errorf("unknown RECORDER %q (want async or queue)", c.Recorder)
	}
	if c.RateLimitMax <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if c.NumClasses <= 0 {
		return fmt.Errorf("NUM_CLASSES must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.InferenceWorkers <= 0 {
		c.InferenceWorkers = 1
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", c.LogLevel)
		c.LogLevel = "info"
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be an integer, got %q", key, v)
	}
	return n, nil
}
