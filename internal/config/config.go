package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"       validate:"required"`
	Store       StoreConfig       `mapstructure:"store"        validate:"required"`
	Bus         BusConfig         `mapstructure:"bus"          validate:"required"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"    validate:"required"`
	TaskService TaskServiceConfig `mapstructure:"task_service" validate:"required"`
	Recurrence  RecurrenceConfig  `mapstructure:"recurrence"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects and configures the entity store backend.
// Exactly one backend is active at a time; the contract is identical
// for all of them (point get/put/delete, no queries).
type StoreConfig struct {
	Backend       string `mapstructure:"backend"        validate:"required,oneof=redis postgres memory"`
	RedisAddr     string `mapstructure:"redis_addr"     validate:"required_if=Backend redis"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"       validate:"gte=0"`
	PostgresURL   string `mapstructure:"postgres_url"   validate:"required_if=Backend postgres"`
}

// BusConfig contains message bus connection settings and topic names.
type BusConfig struct {
	RedisAddr     string `mapstructure:"redis_addr" validate:"required"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"   validate:"gte=0"`

	TaskCompletedTopic  string `mapstructure:"task_completed_topic"  validate:"required"`
	TaskRemindersTopic  string `mapstructure:"task_reminders_topic"  validate:"required"`
	TaskUpdatesTopic    string `mapstructure:"task_updates_topic"    validate:"required"`
	TaskDeletedTopic    string `mapstructure:"task_deleted_topic"    validate:"required"`
	TaskRecurrenceTopic string `mapstructure:"task_recurrence_topic" validate:"required"`
	TaskAuditTopic      string `mapstructure:"task_audit_topic"      validate:"required"`
}

// SchedulerConfig controls the periodic reminder scan.
type SchedulerConfig struct {
	// CronSpec is a robfig/cron schedule expression for the scan.
	CronSpec string `mapstructure:"cron_spec" validate:"required"`

	// DueWindowMinutes is how far ahead the scan looks for due tasks.
	DueWindowMinutes int `mapstructure:"due_window_minutes" validate:"required,gt=0"`
}

// TaskServiceConfig configures the external task service client.
type TaskServiceConfig struct {
	BaseURL        string `mapstructure:"base_url"        validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// RecurrenceConfig controls recurrence generation behavior.
type RecurrenceConfig struct {
	// ProcessingKeyPrecision sets the timestamp granularity used when
	// deriving idempotency keys for completion events. "second" collapses
	// completions of the same task within one second onto one key;
	// "microsecond" keeps them distinct.
	ProcessingKeyPrecision string `mapstructure:"processing_key_precision" validate:"required,oneof=second microsecond"`
}
