package config

// Environment names recognised by the application.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Environment string        `mapstructure:"environment" validate:"required,oneof=development staging production test"`
	Server      ServerConfig  `mapstructure:"server"      validate:"required"`
	Auth        AuthConfig    `mapstructure:"auth"        validate:"required"`
	Storage     StorageConfig `mapstructure:"storage"     validate:"required"`
	Webflow     WebflowConfig `mapstructure:"webflow"     validate:"required"`
	LLM         LLMConfig     `mapstructure:"llm"         validate:"required"`
	Task        TaskConfig    `mapstructure:"task"        validate:"required"`
}

// IsProduction reports whether the application runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port        int      `mapstructure:"port"         validate:"required,gt=0,lt=65536"`
	LogLevel    string   `mapstructure:"log_level"    validate:"required,oneof=debug info warn error"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// AuthConfig contains session and secret-encryption settings.
// SessionSecret signs session envelopes and seeds the key used to encrypt
// stored API keys, so rotating it invalidates both.
type AuthConfig struct {
	SessionSecret     string `mapstructure:"session_secret"      validate:"required,min=32"`
	SessionTTLSeconds int    `mapstructure:"session_ttl_seconds" validate:"required,gt=0"`
}

// StorageConfig selects the storage backends.
// RedisURL is always required: it backs the ephemeral store and the job queue.
// DatabaseURL is optional; when set the durable document store is tried first.
type StorageConfig struct {
	RedisURL    string `mapstructure:"redis_url"    validate:"required,url"`
	DatabaseURL string `mapstructure:"database_url"`
}

// WebflowConfig contains CMS client settings. APIToken and CollectionID are
// fallbacks used only when no value has been saved through the admin API.
type WebflowConfig struct {
	APIToken         string `mapstructure:"api_token"`
	CollectionID     string `mapstructure:"collection_id"`
	BaseURL          string `mapstructure:"base_url"           validate:"required,url"`
	PageSize         int    `mapstructure:"page_size"          validate:"required,gt=0,lte=100"`
	MaxAttempts      int    `mapstructure:"max_attempts"       validate:"required,gt=0"`
	RetryBaseSeconds int    `mapstructure:"retry_base_seconds" validate:"required,gt=0"`
	RetryMaxSeconds  int    `mapstructure:"retry_max_seconds"  validate:"required,gtefield=RetryBaseSeconds"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"    validate:"required,gt=0"`
}

// LLMConfig contains all alt-text generation settings.
type LLMConfig struct {
	Provider         string `mapstructure:"provider"            validate:"required,oneof=auto openai gemini mock"`
	OpenAIAPIKey     string `mapstructure:"openai_api_key"`
	OpenAIModel      string `mapstructure:"openai_model"        validate:"required"`
	OpenAIBaseURL    string `mapstructure:"openai_base_url"     validate:"required,url"`
	GeminiAPIKey     string `mapstructure:"gemini_api_key"`
	GeminiModel      string `mapstructure:"gemini_model"        validate:"required"`
	MaxAltTextLength int    `mapstructure:"max_alt_text_length" validate:"required,gt=0"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"     validate:"required,gt=0"`
}

// TaskConfig contains background job settings.
type TaskConfig struct {
	Queue                        string `mapstructure:"queue"                            validate:"required,oneof=memory redis"`
	WorkerCount                  int    `mapstructure:"worker_count"                     validate:"gte=0"`
	QueueSize                    int    `mapstructure:"queue_size"                       validate:"required,gt=0"`
	JobTimeoutMinutes            int    `mapstructure:"job_timeout_minutes"              validate:"required,gt=0"`
	StuckJobAgeMinutes           int    `mapstructure:"stuck_job_age_minutes"            validate:"required,gt=0"`
	StuckJobCheckIntervalMinutes int    `mapstructure:"stuck_job_check_interval_minutes" validate:"required,gt=0"`
}
