package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	MetricsPort        string
	DatabaseURL        string
	JWTSecret          string
	GeoIPDBPath        string
	CORSAllowedOrigins []string
	DefaultLocale      string

	StorageDriver   string
	StoragePath     string
	StorageBaseURL  string
	S3Endpoint      string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3UseSSL        bool
	S3PublicBaseURL string
	S3Region        string
	S3URLExpiry     time.Duration

	FunctionsBaseURL string
	FunctionsAPIKey  string
	FunctionsTimeout time.Duration

	FFmpegPath  string
	FFprobePath string
	VideoWidth  int
	VideoHeight int
	VideoFPS    int
	PresetsPath string

	WorkerConcurrency int
	JobTimeout        time.Duration

	YouTubeClientID     string
	YouTubeClientSecret string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg, err := loadBaseConfig()
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// LoadLocalConfig loads configuration for processes that run without the
// database, such as one-off CLI pipeline runs.
func LoadLocalConfig() (*Config, error) {
	return loadBaseConfig()
}

func loadBaseConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),

		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", "fs")),
		StoragePath:     getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:  getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Bucket:        getEnv("S3_BUCKET", "videos"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:        getEnvBool("S3_USE_SSL", false),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3Region:        getEnv("S3_REGION", "us-east-1"),
		S3URLExpiry:     time.Hour * time.Duration(getEnvInt("S3_URL_EXPIRY_HOURS", 168)),

		FunctionsBaseURL: strings.TrimRight(os.Getenv("FUNCTIONS_BASE_URL"), "/"),
		FunctionsAPIKey:  os.Getenv("FUNCTIONS_API_KEY"),
		FunctionsTimeout: time.Second * time.Duration(getEnvInt("FUNCTIONS_TIMEOUT_SECONDS", 120)),

		FFmpegPath:  getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
		VideoWidth:  getEnvInt("VIDEO_WIDTH", 1080),
		VideoHeight: getEnvInt("VIDEO_HEIGHT", 1920),
		VideoFPS:    getEnvInt("VIDEO_FPS", 30),
		PresetsPath: os.Getenv("PRESETS_PATH"),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		JobTimeout:        time.Second * time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 900)),

		YouTubeClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	switch cfg.StorageDriver {
	case "fs":
	case "minio", "s3":
		cfg.StorageDriver = "minio"
		if cfg.S3Endpoint == "" {
			return nil, fmt.Errorf("S3_ENDPOINT is required when STORAGE_DRIVER=%s", cfg.StorageDriver)
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	if cfg.VideoWidth <= 0 || cfg.VideoHeight <= 0 || cfg.VideoFPS <= 0 {
		return nil, fmt.Errorf("VIDEO_WIDTH, VIDEO_HEIGHT and VIDEO_FPS must be positive")
	}
	// Signed asset URLs must outlive the job that downloads them.
	if cfg.S3URLExpiry < cfg.JobTimeout {
		cfg.S3URLExpiry = cfg.JobTimeout
	}
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
