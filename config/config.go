package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends for check-in tokens.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config struct to hold the configuration settings
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Storage       StorageConfig       `yaml:"storage"`
	NATS          NATSConfig          `yaml:"nats"`
	JWT           JWTConfig           `yaml:"jwt"`
	CheckIn       CheckInConfig       `yaml:"checkin"`
	MatchSlip     MatchSlipConfig     `yaml:"matchslip"`
	Directory     DirectoryConfig     `yaml:"directory"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// HTTPConfig holds the REST listener settings.
type HTTPConfig struct {
	Address             string   `yaml:"address"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
	RedeemRatePerSecond float64  `yaml:"redeem_rate_per_second"`
	RedeemBurst         int      `yaml:"redeem_burst"`
}

// StorageConfig selects and configures persistence.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	URL        string `yaml:"url"`
	NKeySeed   string `yaml:"nkey_seed"`
	QueueGroup string `yaml:"queue_group"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// CheckInConfig tunes the token lifecycle.
type CheckInConfig struct {
	TokenTTL      time.Duration `yaml:"token_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Retention     time.Duration `yaml:"retention"`
}

// MatchSlipConfig tunes match slips and the venue policy lookup.
type MatchSlipConfig struct {
	QRTTL  time.Duration `yaml:"qr_ttl"`
	Policy PolicyConfig  `yaml:"policy"`
}

// PolicyConfig configures the venue device policy source.
type PolicyConfig struct {
	URL                    string        `yaml:"url"`
	Timeout                time.Duration `yaml:"timeout"`
	PhoneBannedTournaments []string      `yaml:"phone_banned_tournaments"`
}

// DirectoryConfig maps ids to display names.
type DirectoryConfig struct {
	Players     map[string]string `yaml:"players"`
	Tournaments map[string]string `yaml:"tournaments"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	MetricsAddress string `yaml:"metrics_address"`
	LogLevel       string `yaml:"log_level"`
}

// LoadConfig loads the configuration from a YAML file, then applies a .env
// file and environment overrides. A missing file yields defaults plus env.
func LoadConfig(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
		cfg.NATS.Enabled = true
	}
	if v := os.Getenv("NATS_ENABLED"); v != "" {
		cfg.NATS.Enabled = v == "true"
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NKeySeed = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("POLICY_URL"); v != "" {
		cfg.MatchSlip.Policy.URL = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"JWT_DEFAULT_TTL", &cfg.JWT.DefaultTTL},
		{"CHECKIN_TOKEN_TTL", &cfg.CheckIn.TokenTTL},
		{"CHECKIN_SWEEP_INTERVAL", &cfg.CheckIn.SweepInterval},
		{"CHECKIN_RETENTION", &cfg.CheckIn.Retention},
		{"MATCHSLIP_QR_TTL", &cfg.MatchSlip.QRTTL},
		{"POLICY_TIMEOUT", &cfg.MatchSlip.Policy.Timeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %w", err)
		}
		cfg.Storage.Redis.DB = n
	}
	if v := os.Getenv("REDEEM_RATE_PER_SECOND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid REDEEM_RATE_PER_SECOND value: %w", err)
		}
		cfg.HTTP.RedeemRatePerSecond = f
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RedeemRatePerSecond <= 0 {
		c.HTTP.RedeemRatePerSecond = 5
	}
	if c.HTTP.RedeemBurst <= 0 {
		c.HTTP.RedeemBurst = 10
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "tourney-desk"
	}
	if c.JWT.DefaultTTL <= 0 {
		c.JWT.DefaultTTL = 12 * time.Hour
	}
	if c.CheckIn.TokenTTL <= 0 {
		c.CheckIn.TokenTTL = 60 * time.Second
	}
	if c.CheckIn.SweepInterval <= 0 {
		c.CheckIn.SweepInterval = time.Second
	}
	if c.CheckIn.Retention <= 0 {
		c.CheckIn.Retention = 10 * time.Minute
	}
	if c.MatchSlip.QRTTL <= 0 {
		c.MatchSlip.QRTTL = 24 * time.Hour
	}
	if c.MatchSlip.Policy.Timeout <= 0 {
		c.MatchSlip.Policy.Timeout = 2 * time.Second
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage backend %q requires postgres.dsn or DATABASE_URL", c.Storage.Backend)
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage backend %q requires redis.addr or REDIS_ADDR", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats enabled without url")
	}
	return nil
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Observability.Environment == "development"
}
