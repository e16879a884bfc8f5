package cmd

import (
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/application/usecases/commands"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort   string `envconfig:"HTTP_PORT" default:"8080"`
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"fulfillment"`
	DBSslMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	// AdminToken protects the admin API. Empty disables the check.
	AdminToken string `envconfig:"ADMIN_TOKEN"`

	// RedisAddr enables the distributed dispatch lock. Without it the lock
	// is process-local.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	// KafkaBrokers enables order event publishing. Without them events are
	// only logged.
	KafkaBrokers          []string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderEventsTopic string   `envconfig:"KAFKA_ORDER_EVENTS_TOPIC" default:"fulfillment.order-status"`

	CourierBaseURL string `envconfig:"COURIER_BASE_URL"`
	CourierAPIKey  string `envconfig:"COURIER_API_KEY"`

	// Master keys come either inline (MasterKeys, "1:<base64>,2:<base64>")
	// or from Secret Manager (MasterKeySecret plus MasterKeyVersions).
	MasterKeys        string        `envconfig:"MASTER_KEYS"`
	MasterKeyCurrent  string        `envconfig:"MASTER_KEY_CURRENT"`
	MasterKeySecret   string        `envconfig:"MASTER_KEY_SECRET"`
	MasterKeyVersions []int         `envconfig:"MASTER_KEY_VERSIONS"`
	SecretCacheTTL    time.Duration `envconfig:"SECRET_CACHE_TTL" default:"1m"`

	WebhookTolerance     time.Duration `envconfig:"WEBHOOK_TOLERANCE" default:"5m"`
	WebhookRetention     time.Duration `envconfig:"WEBHOOK_RETENTION" default:"168h"`
	ReconcileSchedule    string        `envconfig:"RECONCILE_SCHEDULE" default:"0 */1 * * * *"`
	ReconcileMaxAttempts int           `envconfig:"RECONCILE_MAX_ATTEMPTS" default:"3"`
	ReconcileBatchSize   int           `envconfig:"RECONCILE_BATCH_SIZE" default:"100"`
	RetentionSchedule    string        `envconfig:"RETENTION_SCHEDULE" default:"0 15 3 * * *"`

	DispatchTuning DispatchTuning `envconfig:"DISPATCH"`

	// BranchesFile is an optional YAML file of branches upserted on start.
	BranchesFile string `envconfig:"BRANCHES_FILE"`
}

// DispatchTuning is read from the DISPATCH_* variables.
type DispatchTuning struct {
	MaxAttempts     int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	AttemptTimeout  time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"10s"`
	InitialInterval time.Duration `envconfig:"INITIAL_INTERVAL" default:"500ms"`
	MaxInterval     time.Duration `envconfig:"MAX_INTERVAL" default:"5s"`
	Multiplier      float64       `envconfig:"MULTIPLIER" default:"2"`
	Jitter          float64       `envconfig:"JITTER" default:"0.5"`
}

// DSN builds the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func (c Config) Dispatch() commands.DispatchConfig {
	return commands.DispatchConfig{
		MaxAttempts:     c.DispatchTuning.MaxAttempts,
		AttemptTimeout:  c.DispatchTuning.AttemptTimeout,
		InitialInterval: c.DispatchTuning.InitialInterval,
		MaxInterval:     c.DispatchTuning.MaxInterval,
		Multiplier:      c.DispatchTuning.Multiplier,
		Jitter:          c.DispatchTuning.Jitter,
	}
}

// LoadConfig reads the configuration from the environment. A malformed value
// fails immediately; the cross-field requirements are reported together.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	var problems []error
	if cfg.CourierBaseURL == "" {
		problems = append(problems, errors.New("COURIER_BASE_URL is required"))
	}
	if cfg.MasterKeys == "" && cfg.MasterKeySecret == "" {
		problems = append(problems, errors.New("one of MASTER_KEYS or MASTER_KEY_SECRET is required"))
	}
	if cfg.MasterKeySecret != "" && len(cfg.MasterKeyVersions) == 0 {
		problems = append(problems, errors.New("MASTER_KEY_VERSIONS is required with MASTER_KEY_SECRET"))
	}
	if cfg.WebhookRetention <= cfg.WebhookTolerance {
		problems = append(problems, fmt.Errorf("WEBHOOK_RETENTION %s must exceed WEBHOOK_TOLERANCE %s",
			cfg.WebhookRetention, cfg.WebhookTolerance))
	}
	if t := cfg.DispatchTuning; t.Jitter < 0 || t.Jitter > 1 {
		problems = append(problems, fmt.Errorf("DISPATCH_JITTER %v must be within [0, 1]", t.Jitter))
	}

	if err := errors.Join(problems...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
