package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for the mediasink server
// and producer binaries.
type Config struct {
	App      AppConfig
	GRPC     GRPCConfig
	HTTP     HTTPConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Dedup    DedupConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	Producer ProducerConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"mediasink"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

type GRPCConfig struct {
	Addr string `env:"GRPC_ADDR" envDefault:":50051"`
}

type HTTPConfig struct {
	Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
}

// PipelineConfig holds the core construction parameters: the worker count,
// the admission queue capacity, and the optional per-task processing delay.
type PipelineConfig struct {
	Workers       int           `env:"PIPELINE_WORKERS" envDefault:"4"`
	QueueCapacity int           `env:"PIPELINE_QUEUE_CAPACITY" envDefault:"10"`
	WorkerDelay   time.Duration `env:"PIPELINE_WORKER_DELAY" envDefault:"100ms"`
}

type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"filesystem"`
	OutputDir string `env:"STORAGE_OUTPUT_DIR" envDefault:"./uploaded_videos"`
	Endpoint  string `env:"STORAGE_ENDPOINT" envDefault:"http://localhost:9000"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"STORAGE_BUCKET" envDefault:"mediasink-raw"`
	AccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
}

// DedupConfig selects where the digest set lives. The memory provider is
// process-local; the redis provider survives restarts.
type DedupConfig struct {
	Provider  string `env:"DEDUP_PROVIDER" envDefault:"memory"`
	RedisAddr string `env:"DEDUP_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisKey  string `env:"DEDUP_REDIS_KEY" envDefault:"mediasink:digests"`
}

// KafkaConfig configures the stored-event notifier. An empty broker list
// disables it.
type KafkaConfig struct {
	Brokers          []string      `env:"KAFKA_BROKERS" envSeparator:","`
	StoredTopic      string        `env:"KAFKA_STORED_TOPIC" envDefault:"mediasink.stored"`
	Retries          int           `env:"KAFKA_RETRIES" envDefault:"3"`
	CompressionCodec string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize        int           `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	BatchTimeout     time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"1s"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=mediasink"`
}

// ProducerConfig configures the producer client binary.
type ProducerConfig struct {
	Count       int           `env:"PRODUCER_COUNT" envDefault:"2"`
	InputDir    string        `env:"PRODUCER_INPUT_DIR" envDefault:"./videos"`
	ServerAddr  string        `env:"PRODUCER_SERVER_ADDR" envDefault:"localhost:50051"`
	ChunkSize   int           `env:"PRODUCER_CHUNK_SIZE" envDefault:"65536"`
	PollQueue   bool          `env:"PRODUCER_POLL_QUEUE" envDefault:"true"`
	MaxRetries  uint          `env:"PRODUCER_MAX_RETRIES" envDefault:"3"`
	UploadPause time.Duration `env:"PRODUCER_UPLOAD_PAUSE" envDefault:"2s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
