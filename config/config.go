package config

import (
	"fmt"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/lexalign/concordance/internal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// We're bootstrapping so avoid any imports from other packages
var log = logrus.New()

const EnvPrefix = "CONCORDANCE"

// defaultConfig fills any option left unset by the config file or the environment.
var defaultConfig = Config{
	Server: ServerConfig{
		Port:              8080,
		StaticDir:         "build",
		ReadHeaderTimeout: 10 * time.Second,
		MaxRequestSize:    20 << 20,
	},
	Log: LogConfig{
		Level: "info",
	},
	LLM: LLM{
		Service: "watsonx",
		Timeout: 120 * time.Second,
		Model:   "gpt-4o-mini",
	},
	Watsonx: WatsonxConfig{
		IdentityURL: "https://iam.cloud.ibm.com/identity/token",
	},
	Retry: RetryConfig{
		MaxAttempts: 1,
		Backoff:     500 * time.Millisecond,
		MaxBackoff:  10 * time.Second,
	},
	Concordance: ConcordanceConfig{
		AppName:       "concordance",
		SchemaVersion: "v2",
	},
	Store: StoreConfig{
		Type:             "memory",
		RecordsDatabase:  "records",
		FeedbackDatabase: "feedback",
		Redis: RedisConfig{
			Address: "localhost:6379",
			Prefix:  "concordance",
		},
	},
	Parser: ParserConfig{
		Timeout: 60 * time.Second,
	},
}

// LoadConfig loads the config file and ENV variables into a Config struct.
// A missing config file is not an error when no file was named explicitly.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Warn("config file not found, using defaults and environment")
	}

	// Environment variables take precedence over config file
	loadDotEnv()

	for key, env := range map[string]string{
		"watsonx.api_key":                    EnvPrefix + "_WATSONX_API_KEY",
		"llm.openai_api_key":                 EnvPrefix + "_OPENAI_API_KEY",
		"store.postgres.dsn":                 EnvPrefix + "_STORE_POSTGRES_DSN",
		"store.redis.password":               EnvPrefix + "_STORE_REDIS_PASSWORD",
		"watsonx.deployments.analyze_v1":     EnvPrefix + "_WATSONX_DEPLOYMENTS_ANALYZE_V1",
		"watsonx.deployments.analyze_v2":     EnvPrefix + "_WATSONX_DEPLOYMENTS_ANALYZE_V2",
		"watsonx.deployments.judge":          EnvPrefix + "_WATSONX_DEPLOYMENTS_JUDGE",
		"watsonx.deployments.test_generator": EnvPrefix + "_WATSONX_DEPLOYMENTS_TEST_GENERATOR",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := mergo.Merge(&cfg, defaultConfig); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	return &cfg, nil
}

// Default returns a copy of the default configuration.
func Default() *Config {
	cfg := defaultConfig
	cfg.Server.AllowedOrigins = nil
	return &cfg
}

// loadDotEnv loads environment variables from .env file
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Debug(".env file not found or unable to load")
	}
}

// SetLogLevel sets the log level based on the config file. Defaults to INFO if not set or invalid
func SetLogLevel(cfg *Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	internal.SetLogLevel(level)
	log.Debug("Log level set to: ", level)
}
