package config

import (
	"os"
	"runtime"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Pipeline  PipelineConfig
	Whisper   WhisperConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Trace     TraceConfig
	Webhook   WebhookConfig
}

type ServerConfig struct {
	Addr      string
	UploadDir string
}

type PipelineConfig struct {
	WorkDir       string
	OutputDir     string
	JobsFile      string
	MaxActiveJobs int
	FFmpegBinary  string
}

type WhisperConfig struct {
	Binary string
	Model  string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Capacity      int
	Window        time.Duration
}

type StorageConfig struct {
	ArchiveResults bool
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
}

type TraceConfig struct {
	ServiceName  string
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

type WebhookConfig struct {
	SigningSecret string
}

func Load() Config {
	defaultActiveJobs := max(1, runtime.NumCPU()/2)

	return Config{
		Server: ServerConfig{
			Addr:      env("SUBFLOW_ADDR", ":8080"),
			UploadDir: env("SUBFLOW_UPLOAD_DIR", "./.subflow/uploads"),
		},
		Pipeline: PipelineConfig{
			WorkDir:       env("SUBFLOW_WORK_DIR", "./.subflow/work"),
			OutputDir:     env("SUBFLOW_OUTPUT_DIR", "./.subflow/output"),
			JobsFile:      env("SUBFLOW_JOBS_FILE", "./.subflow/jobs.json"),
			MaxActiveJobs: envInt("SUBFLOW_MAX_ACTIVE_JOBS", defaultActiveJobs),
			FFmpegBinary:  env("SUBFLOW_FFMPEG_BIN", "ffmpeg"),
		},
		Whisper: WhisperConfig{
			Binary: env("SUBFLOW_WHISPER_BIN", "whisperx"),
			Model:  env("SUBFLOW_WHISPER_MODEL", "medium"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       envBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
			RedisPassword: env("REDIS_PASSWORD", ""),
			RedisDB:       envInt("REDIS_DB", 0),
			Capacity:      envInt("RATE_LIMIT_CAPACITY", 30),
			Window:        envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Storage: StorageConfig{
			ArchiveResults: envBool("SUBFLOW_ARCHIVE_RESULTS", false),
			Endpoint:       env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:      env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:      env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:         env("MINIO_BUCKET", "subflow-results"),
			UseSSL:         envBool("MINIO_USE_SSL", false),
		},
		Trace: TraceConfig{
			ServiceName:  env("TRACE_SERVICE_NAME", "subflow"),
			Exporter:     env("TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("TRACE_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("TRACE_OTLP_INSECURE", false),
		},
		Webhook: WebhookConfig{
			SigningSecret: env("WEBHOOK_SIGNING_SECRET", ""),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
