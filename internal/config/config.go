package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Tracing  TracingConfig
	Schedule ScheduleConfig
	Cache    CacheConfig
	Retry    RetryConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s Timezone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	OTLPURL     string
	SampleRate  float64
}

// ScheduleConfig is the working-hours window slots are generated from.
// Hours are whole clock hours in the clinic's single operating timezone.
type ScheduleConfig struct {
	StartHour        int
	EndHour          int
	SlotDurationMins int
	// Weekdays on which the clinic does not operate.
	WeekendDays []time.Weekday
}

type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Size    int
	// Circuit breaker around the cache store.
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
}

// RetryConfig bounds the booking path's reaction to transient store
// conflicts (deadlocks, serialization failures).
type RetryConfig struct {
	MaxAttempts int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "scheduling-api"),
			Environment: getEnv("APP_ENV", "development"),
			Version:     getEnv("APP_VERSION", "0.0.0"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "scheduling"),
			User:            getEnv("DB_USER", "scheduling"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvBool("TRACING_ENABLED", true),
			ServiceName: getEnv("TRACING_SERVICE_NAME", "scheduling-api"),
			OTLPURL:     getEnv("OTLP_ENDPOINT", "otel-collector:4318"),
			SampleRate:  getEnvFloat("TRACING_SAMPLE_RATE", 0.1),
		},
		Schedule: ScheduleConfig{
			StartHour:        getEnvInt("WORKING_HOURS_START", 9),
			EndHour:          getEnvInt("WORKING_HOURS_END", 17),
			SlotDurationMins: getEnvInt("SLOT_DURATION_MINS", 30),
			WeekendDays:      getEnvWeekdays("WEEKEND_DAYS", []time.Weekday{time.Saturday, time.Sunday}),
		},
		Cache: CacheConfig{
			Enabled:                 getEnvBool("CACHE_ENABLED", true),
			TTL:                     getEnvDuration("CACHE_TTL", 15*time.Minute),
			Size:                    getEnvInt("CACHE_SIZE", 4096),
			BreakerFailureThreshold: getEnvInt("CACHE_BREAKER_FAILURES", 5),
			BreakerOpenTimeout:      getEnvDuration("CACHE_BREAKER_OPEN_TIMEOUT", 30*time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvInt("DEADLOCK_MAX_RETRIES", 3),
			BackoffMin:  getEnvDuration("DEADLOCK_BACKOFF_MIN", 100*time.Millisecond),
			BackoffMax:  getEnvDuration("DEADLOCK_BACKOFF_MAX", 500*time.Millisecond),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects contradictory configuration at startup instead of
// letting it surface as empty slot lists or runaway retries later.
func validate(cfg *Config) error {
	var errs []string

	if cfg.Schedule.StartHour < 0 || cfg.Schedule.StartHour > 23 {
		errs = append(errs, "WORKING_HOURS_START must be between 0 and 23")
	}
	if cfg.Schedule.EndHour < 0 || cfg.Schedule.EndHour > 23 {
		errs = append(errs, "WORKING_HOURS_END must be between 0 and 23")
	}
	if cfg.Schedule.EndHour <= cfg.Schedule.StartHour {
		errs = append(errs, "WORKING_HOURS_END must be after WORKING_HOURS_START")
	}
	if cfg.Schedule.SlotDurationMins <= 0 {
		errs = append(errs, "SLOT_DURATION_MINS must be positive")
	}
	if len(cfg.Schedule.WeekendDays) >= 7 {
		errs = append(errs, "WEEKEND_DAYS cannot cover the whole week")
	}

	if cfg.Cache.TTL <= 0 {
		errs = append(errs, "CACHE_TTL must be positive")
	}
	if cfg.Cache.Size <= 0 {
		errs = append(errs, "CACHE_SIZE must be positive")
	}

	if cfg.Retry.MaxAttempts < 1 {
		errs = append(errs, "DEADLOCK_MAX_RETRIES must be at least 1")
	}
	if cfg.Retry.BackoffMin <= 0 || cfg.Retry.BackoffMax < cfg.Retry.BackoffMin {
		errs = append(errs, "deadlock backoff bounds must satisfy 0 < min <= max")
	}

	if cfg.Database.Password == "" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}
	if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func getEnvWeekdays(key string, fallback []time.Weekday) []time.Weekday {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var result []time.Weekday
	for _, p := range strings.Split(v, ",") {
		if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(p))]; ok {
			result = append(result, d)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
