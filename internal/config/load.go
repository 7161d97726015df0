package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file, applies defaults, and validates the result.
// Environment variables use the COORD_ prefix with underscores separating
// nested keys (e.g. COORD_SERVER_PORT, COORD_STORE_REDIS_ADDR) and take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file: ./config.yaml or /etc/taskflow/config.yaml.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/taskflow")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from env vars.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("COORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for all configuration keys.
// Topic names default to the names used across the event-driven backend.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)

	v.SetDefault("bus.redis_addr", "localhost:6379")
	v.SetDefault("bus.redis_db", 1)
	v.SetDefault("bus.task_completed_topic", "task-completed")
	v.SetDefault("bus.task_reminders_topic", "task-reminders")
	v.SetDefault("bus.task_updates_topic", "task-updates")
	v.SetDefault("bus.task_deleted_topic", "task-deleted")
	v.SetDefault("bus.task_recurrence_topic", "task-recurrence")
	v.SetDefault("bus.task_audit_topic", "task-audit")

	v.SetDefault("scheduler.cron_spec", "@every 1m")
	v.SetDefault("scheduler.due_window_minutes", 60)

	v.SetDefault("task_service.base_url", "http://localhost:8000")
	v.SetDefault("task_service.timeout_seconds", 30)

	v.SetDefault("recurrence.processing_key_precision", "microsecond")
}
