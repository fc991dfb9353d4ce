package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "./config/config.yml"

type (
	// Config -.
	Config struct {
		App         `yaml:"app"`
		Server      `yaml:"server"`
		Log         `yaml:"logger"`
		MYSQL       `yaml:"mysql"`
		RMQ         `yaml:"rabbitmq"`
		S3          `yaml:"s3"`
		OTEL        `yaml:"otel"`
		Compression `yaml:"compression"`
	}

	// App -.
	App struct {
		Name    string `env-required:"true" yaml:"name"    env:"APP_NAME"`
		Version string `env-required:"true" yaml:"version" env:"APP_VERSION"`
	}

	// Server -.
	Server struct {
		Port string `env-required:"true" yaml:"port" env:"HTTP_PORT"`
	}

	// Log -.
	Log struct {
		Level string `env-default:"info" yaml:"log_level" env:"LOG_LEVEL"`
	}

	// MYSQL -.
	MYSQL struct {
		Host     string `env-required:"true" yaml:"host"     env:"MYSQL_HOST"`
		Port     string `env-required:"true" yaml:"port"     env:"MYSQL_PORT"`
		Username string `env-required:"true" yaml:"username" env:"MYSQL_USERNAME"`
		Password string `env-required:"true" yaml:"password" env:"MYSQL_PASSWORD"`
		Dbname   string `env-required:"true" yaml:"dbname"   env:"MYSQL_DBNAME"`
		MaxConns int    `env-default:"200"   yaml:"max_open_conns" env:"MYSQL_MAX_OPEN_CONNS"`
	}

	// RMQ -.
	RMQ struct {
		URL           string `env-required:"true" yaml:"url" env:"RMQ_URL"`
		Exchange      string `env-default:"image_compression" yaml:"exchange" env:"RMQ_EXCHANGE"`
		RequestQueue  string `env-default:"compress_request" yaml:"request_queue" env:"RMQ_REQUEST_QUEUE"`
		ResponseQueue string `env-default:"compression_response" yaml:"response_queue" env:"RMQ_RESPONSE_QUEUE"`
	}

	// S3 -.
	S3 struct {
		Endpoint           string `env-default:"http://localhost:9000" yaml:"endpoint" env:"S3_ENDPOINT"`
		Region             string `env-default:"us-east-1" yaml:"region" env:"S3_REGION"`
		AccessKey          string `env-required:"true" yaml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey          string `env-required:"true" yaml:"secret_key" env:"S3_SECRET_KEY"`
		ResultBucketSuffix string `env-default:"-compressed" yaml:"result_bucket_suffix" env:"S3_RESULT_BUCKET_SUFFIX"`
	}

	// OTEL -.
	OTEL struct {
		Exporter       string `env-default:"jaeger" yaml:"exporter" env:"OTEL_EXPORTER"`
		JaegerEndpoint string `yaml:"jaeger_endpoint" env:"JAEGER_ENDPOINT"`
		OTLPEndpoint   string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
		PrometheusPort string `env-required:"true" yaml:"prometheus_port" env:"PROMETHEUS_PORT"`
	}

	// Compression holds the downscaler defaults applied when a request
	// does not override them.
	Compression struct {
		MaxSizeBytes   int64   `env-default:"5000000"  yaml:"max_size_bytes"   env:"COMPRESSION_MAX_SIZE_BYTES"`
		MaxUploadBytes int64   `env-default:"33554432" yaml:"max_upload_bytes" env:"COMPRESSION_MAX_UPLOAD_BYTES"`
		MaxDimension   int     `env-default:"2048"     yaml:"max_dimension"    env:"COMPRESSION_MAX_DIMENSION"`
		InitialQuality float64 `env-default:"0.86"     yaml:"initial_quality"  env:"COMPRESSION_INITIAL_QUALITY"`
		MinQuality     float64 `env-default:"0.6"      yaml:"min_quality"      env:"COMPRESSION_MIN_QUALITY"`
		QualityStep    float64 `env-default:"0.08"     yaml:"quality_step"     env:"COMPRESSION_QUALITY_STEP"`
		MaxAttempts    int     `env-default:"8"        yaml:"max_attempts"     env:"COMPRESSION_MAX_ATTEMPTS"`
		MaxPixels      int64   `env-default:"50000000" yaml:"max_pixels"       env:"COMPRESSION_MAX_PIXELS"`
		MaxEntryBytes  int64   `env-default:"67108864" yaml:"max_entry_bytes"  env:"COMPRESSION_MAX_ENTRY_BYTES"`
		MaxUnpackBytes int64   `env-default:"268435456" yaml:"max_unpack_bytes" env:"COMPRESSION_MAX_UNPACK_BYTES"`
		PreferWebP     bool    `env-default:"true"     yaml:"prefer_webp"      env:"COMPRESSION_PREFER_WEBP"`
	}
)

// NewConfig returns app config read from CONFIG_PATH or ./config/config.yml.
func NewConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultPath
	}
	return ReadConfig(path)
}

// ReadConfig reads the YAML file at path; environment variables win over it.
func ReadConfig(path string) (*Config, error) {
	cfg := &Config{}

	err := cleanenv.ReadConfig(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
