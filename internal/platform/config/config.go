// Package config loads service configuration from defaults, an optional
// config file and COMPLIANCE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"compliance/internal/identity/saidnumber"
	rlmodels "compliance/internal/ratelimit/models"
	pkgstrings "compliance/pkg/platform/strings"
)

// EnvPrefix is prepended to every environment variable, e.g. COMPLIANCE_SERVER_ADDR.
const EnvPrefix = "COMPLIANCE"

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AdminToken        string        `mapstructure:"admin_token"`
	// AdminTokenHash is a bcrypt hash of the admin token. Takes precedence over AdminToken.
	AdminTokenHash    string        `mapstructure:"admin_token_hash"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects Postgres persistence. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig selects the shared result cache. An empty URL uses an in-process cache.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig drives the outbox relay. Without brokers the relay stays off.
type KafkaConfig struct {
	Brokers            string        `mapstructure:"brokers"`
	AuditTopic         string        `mapstructure:"audit_topic"`
	ConsumerGroup      string        `mapstructure:"consumer_group"`
	OutboxPollInterval time.Duration `mapstructure:"outbox_poll_interval"`
	OutboxBatchSize    int           `mapstructure:"outbox_batch_size"`
}

// BrokerList splits the comma-separated broker setting, dropping blanks and duplicates.
func (k KafkaConfig) BrokerList() []string {
	return pkgstrings.SplitList(k.Brokers, ",")
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.BrokerList()) > 0
}

// IdentityConfig tunes identity number verification.
type IdentityConfig struct {
	CenturyPivot     int           `mapstructure:"century_pivot"`
	StrictCalendar   bool          `mapstructure:"strict_calendar"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	BatchLimit       int           `mapstructure:"batch_limit"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	SubjectHashKey   string        `mapstructure:"subject_hash_key"`
}

// ValidatorOptions converts the identity section into validator options.
func (c IdentityConfig) ValidatorOptions() []saidnumber.Option {
	opts := []saidnumber.Option{saidnumber.WithCenturyPolicy(saidnumber.FixedPivot(c.CenturyPivot))}
	if c.StrictCalendar {
		opts = append(opts, saidnumber.WithStrictCalendar())
	}
	return opts
}

type AuthConfig struct {
	JWTSigningKey string        `mapstructure:"jwt_signing_key"`
	Issuer        string        `mapstructure:"issuer"`
	Audience      string        `mapstructure:"audience"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
}

// RateLimitConfig sets request budgets per endpoint class. Buckets live in
// Redis when it is configured, otherwise in process memory.
type RateLimitConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Window              time.Duration `mapstructure:"window"`
	ValidatePerIP       int           `mapstructure:"validate_per_ip"`
	ValidatePerOperator int           `mapstructure:"validate_per_operator"`
	BatchPerIP          int           `mapstructure:"batch_per_ip"`
	BatchPerOperator    int           `mapstructure:"batch_per_operator"`
	ReadPerIP           int           `mapstructure:"read_per_ip"`
	ReadPerOperator     int           `mapstructure:"read_per_operator"`
}

// Limits expands the flat settings into per-class budgets.
func (c RateLimitConfig) Limits() rlmodels.Limits {
	limit := func(n int) rlmodels.Limit {
		return rlmodels.Limit{RequestsPerWindow: n, Window: c.Window}
	}
	return rlmodels.Limits{
		PerIP: map[rlmodels.EndpointClass]rlmodels.Limit{
			rlmodels.ClassValidate: limit(c.ValidatePerIP),
			rlmodels.ClassBatch:    limit(c.BatchPerIP),
			rlmodels.ClassRead:     limit(c.ReadPerIP),
		},
		PerOperator: map[rlmodels.EndpointClass]rlmodels.Limit{
			rlmodels.ClassValidate: limit(c.ValidatePerOperator),
			rlmodels.ClassBatch:    limit(c.BatchPerOperator),
			rlmodels.ClassRead:     limit(c.ReadPerOperator),
		},
	}
}

const (
	devSigningKey     = "dev-secret-key-change-in-production"
	devSubjectHashKey = "dev-subject-hash-key-change-in-production"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.admin_token_hash", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 2*time.Second)
	v.SetDefault("redis.read_timeout", 500*time.Millisecond)
	v.SetDefault("redis.write_timeout", 500*time.Millisecond)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.audit_topic", "compliance.audit")
	v.SetDefault("kafka.consumer_group", "compliance-audit-materializer")
	v.SetDefault("kafka.outbox_poll_interval", time.Second)
	v.SetDefault("kafka.outbox_batch_size", 100)

	v.SetDefault("identity.century_pivot", int(saidnumber.DefaultPivot))
	v.SetDefault("identity.strict_calendar", false)
	v.SetDefault("identity.cache_ttl", 10*time.Minute)
	v.SetDefault("identity.batch_limit", 100)
	v.SetDefault("identity.batch_concurrency", 8)
	v.SetDefault("identity.subject_hash_key", devSubjectHashKey)

	v.SetDefault("auth.jwt_signing_key", devSigningKey)
	v.SetDefault("auth.issuer", "compliance-portal")
	v.SetDefault("auth.audience", "compliance-api")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.window", time.Minute)
	v.SetDefault("ratelimit.validate_per_ip", 120)
	v.SetDefault("ratelimit.validate_per_operator", 60)
	v.SetDefault("ratelimit.batch_per_ip", 20)
	v.SetDefault("ratelimit.batch_per_operator", 10)
	v.SetDefault("ratelimit.read_per_ip", 300)
	v.SetDefault("ratelimit.read_per_operator", 200)
}

// Load reads configuration. COMPLIANCE_CONFIG_FILE names an optional YAML,
// TOML or JSON file.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Identity.CenturyPivot < 0 || c.Identity.CenturyPivot > 100 {
		errs = append(errs, fmt.Errorf("identity.century_pivot must be within [0,100], got %d", c.Identity.CenturyPivot))
	}
	if c.Identity.BatchLimit < 1 {
		errs = append(errs, errors.New("identity.batch_limit must be positive"))
	}
	if c.Identity.BatchConcurrency < 1 {
		errs = append(errs, errors.New("identity.batch_concurrency must be positive"))
	}
	if c.Identity.SubjectHashKey == "" {
		errs = append(errs, errors.New("identity.subject_hash_key is required"))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("auth.jwt_signing_key is required"))
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("ratelimit.window must be positive"))
		}
		for name, n := range map[string]int{
			"validate_per_ip":       c.RateLimit.ValidatePerIP,
			"validate_per_operator": c.RateLimit.ValidatePerOperator,
			"batch_per_ip":          c.RateLimit.BatchPerIP,
			"batch_per_operator":    c.RateLimit.BatchPerOperator,
			"read_per_ip":           c.RateLimit.ReadPerIP,
			"read_per_operator":     c.RateLimit.ReadPerOperator,
		} {
			if n < 1 {
				errs = append(errs, fmt.Errorf("ratelimit.%s must be positive", name))
			}
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// UsesDevelopmentSecrets reports whether either signing key is still the built-in default.
func (c *Config) UsesDevelopmentSecrets() bool {
	return c.Auth.JWTSigningKey == devSigningKey || c.Identity.SubjectHashKey == devSubjectHashKey
}
