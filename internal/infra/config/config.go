package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	Auth      AuthSettings      `mapstructure:"auth"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Argon2    Argon2Settings    `mapstructure:"argon2"`
	Email     EmailSettings     `mapstructure:"email"`
	Captcha   CaptchaSettings   `mapstructure:"captcha"`
}

type AppSettings struct {
	Name    string   `mapstructure:"name"`
	Env     string   `mapstructure:"env"`
	Host    string   `mapstructure:"host"`
	Port    int      `mapstructure:"port"`
	BaseURL string   `mapstructure:"base_url"`
	Origins []string `mapstructure:"origins"`
	// CronSecret gates the scheduled-tasks endpoints; empty leaves them open.
	CronSecret string `mapstructure:"cron_secret"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the optional Redis backend for rate limiting.
type RedisSettings struct {
	Enabled    bool   `mapstructure:"enabled"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	DB         int    `mapstructure:"db"`
	Password   string `mapstructure:"password"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// KafkaSettings configures the Kafka producer.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

// AuthSettings configures token issuance and the session cookie.
type AuthSettings struct {
	Secret         string        `mapstructure:"secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	ResetTokenTTL  time.Duration `mapstructure:"reset_token_ttl"`
	TokenSource    string        `mapstructure:"token_source"`
	CookieName     string        `mapstructure:"cookie_name"`
	CookieDomain   string        `mapstructure:"cookie_domain"`
	CookieSameSite string        `mapstructure:"cookie_samesite"`
	CookieSecure   bool          `mapstructure:"cookie_secure"`
	CookieMaxAge   time.Duration `mapstructure:"cookie_max_age"`
}

// RateLimitSettings configures sliding windows and attempt ceilings per scope.
type RateLimitSettings struct {
	WindowDuration   time.Duration `mapstructure:"window_duration"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
	ForgotIPMax      int           `mapstructure:"forgot_ip_max"`
	ForgotEmailMax   int           `mapstructure:"forgot_email_max"`
	ForgotWindow     time.Duration `mapstructure:"forgot_window"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// EmailSettings selects and configures the outbound mail provider.
type EmailSettings struct {
	Provider  string `mapstructure:"provider"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
	ResendKey string `mapstructure:"resend_key"`
}

// CaptchaSettings configures the Turnstile verifier for forgot-password.
type CaptchaSettings struct {
	Secret string `mapstructure:"secret"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GROCERY")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"app.base_url",
		"app.origins",
		"app.cron_secret",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.enabled",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"kafka.brokers",
		"kafka.topic_prefix",
		"auth.secret",
		"auth.session_ttl",
		"auth.reset_token_ttl",
		"auth.token_source",
		"auth.cookie_name",
		"auth.cookie_domain",
		"auth.cookie_samesite",
		"auth.cookie_secure",
		"auth.cookie_max_age",
		"rate_limit.window_duration",
		"rate_limit.login_max_attempts",
		"rate_limit.forgot_ip_max",
		"rate_limit.forgot_email_max",
		"rate_limit.forgot_window",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
		"email.provider",
		"email.region",
		"email.from_email",
		"email.from_name",
		"email.resend_key",
		"captcha.secret",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		return nil, fmt.Errorf("auth.secret must be configured")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "smart-grocery-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.base_url", "http://localhost:5173")
	v.SetDefault("app.origins", []string{"http://localhost:5173"})

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "grocery")
	v.SetDefault("postgres.password", "grocery_password")
	v.SetDefault("postgres.database", "grocery")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "grocery")

	v.SetDefault("auth.session_ttl", "60m")
	v.SetDefault("auth.reset_token_ttl", "30m")
	v.SetDefault("auth.token_source", "cookie")
	v.SetDefault("auth.cookie_name", "access_token")
	v.SetDefault("auth.cookie_samesite", "lax")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_max_age", "720h")

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.login_max_attempts", 10)
	v.SetDefault("rate_limit.forgot_ip_max", 3)
	v.SetDefault("rate_limit.forgot_email_max", 3)
	v.SetDefault("rate_limit.forgot_window", "15m")

	v.SetDefault("argon2.memory", 65536)
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("email.provider", "log")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.from_name", "SmartGrocery")
	v.SetDefault("email.resend_key", "")

	v.SetDefault("captcha.secret", "")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "GROCERY_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
