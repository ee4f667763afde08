package config

import "time"

// Config holds the configuration of the application.
// Use LoadConfig to create a new instance.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	LLM         LLM               `mapstructure:"llm"`
	Watsonx     WatsonxConfig     `mapstructure:"watsonx"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Concordance ConcordanceConfig `mapstructure:"concordance"`
	Store       StoreConfig       `mapstructure:"store"`
	Parser      ParserConfig      `mapstructure:"parser"`
	Proxy       ProxyConfig       `mapstructure:"proxy"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	StaticDir         string        `mapstructure:"static_dir"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	MaxRequestSize    int64         `mapstructure:"max_request_size"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LLM selects the generation backend.
type LLM struct {
	// Service is either "watsonx" or "openai".
	Service string        `mapstructure:"service"`
	Timeout time.Duration `mapstructure:"timeout"`
	Model   string        `mapstructure:"model"`
	// OpenAIAPIKey is loaded from ENV not config file.
	OpenAIAPIKey   string `mapstructure:"openai_api_key"`
	OpenAIEndpoint string `mapstructure:"openai_endpoint"`
}

type WatsonxConfig struct {
	IdentityURL string `mapstructure:"identity_url"`
	// APIKey is loaded from ENV not config file.
	APIKey      string            `mapstructure:"api_key"`
	Deployments DeploymentsConfig `mapstructure:"deployments"`
}

// DeploymentsConfig maps each generation purpose to a deployment URL.
type DeploymentsConfig struct {
	AnalyzeV1     string `mapstructure:"analyze_v1"`
	AnalyzeV2     string `mapstructure:"analyze_v2"`
	Judge         string `mapstructure:"judge"`
	TestGenerator string `mapstructure:"test_generator"`
}

type RetryConfig struct {
	// MaxAttempts counts the first call. 1 disables retries.
	MaxAttempts  int           `mapstructure:"max_attempts"`
	Backoff      time.Duration `mapstructure:"backoff"`
	MaxBackoff   time.Duration `mapstructure:"max_backoff"`
	HTTPRetryMax int           `mapstructure:"http_retry_max"`
}

type ConcordanceConfig struct {
	AppName      string `mapstructure:"app_name"`
	DisableJudge bool   `mapstructure:"disable_judge"`
	// SchemaVersion is the default difference schema, "v1" or "v2".
	SchemaVersion string `mapstructure:"schema_version"`
}

type StoreConfig struct {
	// Type is one of "memory", "postgres" or "redis".
	Type             string         `mapstructure:"type"`
	RecordsDatabase  string         `mapstructure:"records_database"`
	FeedbackDatabase string         `mapstructure:"feedback_database"`
	Postgres         PostgresConfig `mapstructure:"postgres"`
	Redis            RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type ParserConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ProxyConfig struct {
	CompareServiceURL string `mapstructure:"compare_service_url"`
}
