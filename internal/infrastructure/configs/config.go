package configs

import (
	"errors"
	"fmt"
	"time"

	"github.com/hilthontt/todoroom/internal/domain"
	"github.com/hilthontt/todoroom/internal/infrastructure/env"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Telegram    TelegramConfig    `koanf:"telegram"`
	Store       StoreConfig       `koanf:"store"`
	Session     SessionConfig     `koanf:"session"`
	Rooms       RoomsConfig       `koanf:"rooms"`
	Credential  CredentialConfig  `koanf:"credential"`
	Fanout      FanoutConfig      `koanf:"fanout"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	HTTP        HTTPConfig        `koanf:"http"`
	Logger      LoggerConfig      `koanf:"logger"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

type TelegramConfig struct {
	Token       string `koanf:"token"`
	PollTimeout int    `koanf:"poll_timeout"`
	Debug       bool   `koanf:"debug"`
	Workers     int    `koanf:"workers"`
}

type StoreConfig struct {
	Driver          string        `koanf:"driver"`
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type SessionConfig struct {
	Driver    string        `koanf:"driver"`
	RedisAddr string        `koanf:"redis_addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl"`
}

type RoomsConfig struct {
	MemberLimit    int `koanf:"member_limit"`
	RandomAttempts int `koanf:"random_attempts"`
}

type CredentialConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

type FanoutConfig struct {
	SendTimeout time.Duration `koanf:"send_timeout"`
	Parallelism int           `koanf:"parallelism"`
}

type RateLimiterConfig struct {
	Enabled bool          `koanf:"enabled"`
	Limit   int           `koanf:"limit"`
	Window  time.Duration `koanf:"window"`
}

type HTTPConfig struct {
	Host         string        `koanf:"host"`
	Port         uint16        `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type LoggerConfig struct {
	Level    string `koanf:"level"`
	Encoding string `koanf:"encoding"`
	FilePath string `koanf:"file_path"`
}

type TracingConfig struct {
	ServiceName    string `koanf:"service_name"`
	Environment    string `koanf:"environment"`
	JaegerEndpoint string `koanf:"jaeger_endpoint"`
}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required (TELEGRAM_BOT_TOKEN)"))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver (DATABASE_URL)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.Session.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("session.redis_addr is required for the redis driver (REDIS_ADDR)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session.driver %q", c.Session.Driver))
	}
	if c.Rooms.MemberLimit <= 0 || c.Rooms.MemberLimit > domain.DefaultMemberLimit {
		errs = append(errs, fmt.Errorf("rooms.member_limit must be between 1 and %d", domain.DefaultMemberLimit))
	}
	if c.Fanout.Parallelism <= 0 {
		errs = append(errs, errors.New("fanout.parallelism must be positive"))
	}
	return errors.Join(errs...)
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "telegram.poll_timeout", 60)
	setDefault(k, "telegram.debug", false)
	setDefault(k, "telegram.workers", 8)

	setDefault(k, "store.driver", DriverMemory)
	setDefault(k, "store.max_open_conns", 10)
	setDefault(k, "store.max_idle_conns", 5)
	setDefault(k, "store.conn_max_lifetime", 30*time.Minute)
	setDefault(k, "store.auto_migrate", true)

	setDefault(k, "session.driver", DriverMemory)
	setDefault(k, "session.redis_addr", "localhost:6379")
	setDefault(k, "session.db", 0)
	setDefault(k, "session.key_prefix", "todoroom:")
	setDefault(k, "session.ttl", 30*24*time.Hour)

	setDefault(k, "rooms.member_limit", 10)
	setDefault(k, "rooms.random_attempts", 32)

	setDefault(k, "credential.bcrypt_cost", 10)

	setDefault(k, "fanout.send_timeout", 5*time.Second)
	setDefault(k, "fanout.parallelism", 4)

	setDefault(k, "rateLimiter.enabled", true)
	setDefault(k, "rateLimiter.limit", 20)
	setDefault(k, "rateLimiter.window", 10*time.Second)

	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)

	setDefault(k, "logger.level", "info")
	setDefault(k, "logger.encoding", "json")

	setDefault(k, "tracing.service_name", "todoroom-bot")
	setDefault(k, "tracing.environment", "development")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if token := env.GetString("TELEGRAM_BOT_TOKEN", ""); token != "" {
		k.Set("telegram.token", token)
	}
	if env.GetBool("TELEGRAM_DEBUG", false) {
		k.Set("telegram.debug", true)
	}

	if driver := env.GetString("STORE_DRIVER", ""); driver != "" {
		k.Set("store.driver", driver)
	}
	if dsn := env.GetString("DATABASE_URL", ""); dsn != "" {
		k.Set("store.dsn", dsn)
		if env.GetString("STORE_DRIVER", "") == "" {
			k.Set("store.driver", DriverPostgres)
		}
	}

	if driver := env.GetString("SESSION_DRIVER", ""); driver != "" {
		k.Set("session.driver", driver)
	}
	if addr := env.GetString("REDIS_ADDR", ""); addr != "" {
		k.Set("session.redis_addr", addr)
	}
	if password := env.GetString("REDIS_PASSWORD", ""); password != "" {
		k.Set("session.password", password)
	}

	if limit := env.GetInt("ROOM_MEMBER_LIMIT", 0); limit > 0 {
		k.Set("rooms.member_limit", limit)
	}
	if cost := env.GetInt("BCRYPT_COST", 0); cost > 0 {
		k.Set("credential.bcrypt_cost", cost)
	}

	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}

	if level := env.GetString("LOG_LEVEL", ""); level != "" {
		k.Set("logger.level", level)
	}
	if encoding := env.GetString("LOG_ENCODING", ""); encoding != "" {
		k.Set("logger.encoding", encoding)
	}
	if path := env.GetString("LOG_FILE_PATH", ""); path != "" {
		k.Set("logger.file_path", path)
	}

	if endpoint := env.GetString("JAEGER_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.jaeger_endpoint", endpoint)
	}
	if environment := env.GetString("ENVIRONMENT", ""); environment != "" {
		k.Set("tracing.environment", environment)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
