package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/gamingear/console/internal/common"
)

const EnvPrefix = "CONSOLE"

func DefaultConfig() *Config {

	v := viper.New()

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	setupViperConfig(v, configFile)

	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}
	return nil
}

func setupViperConfig(v *viper.Viper, configFile string) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/" + common.AppName)

	if home, err := os.UserHomeDir(); err == nil && len(home) > 0 {
		v.AddConfigPath(filepath.Join(home, ".config", common.AppName))
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
}

// bindEnvironmentVariables binds the keys people most often set from the
// environment, including a few shorter aliases.
func bindEnvironmentVariables(v *viper.Viper) {

	v.BindEnv("api.base_url", "CONSOLE_API_BASE_URL", "CONSOLE_API_URL")
	v.BindEnv("api.prefix", "CONSOLE_API_PREFIX")
	v.BindEnv("api.timeout", "CONSOLE_API_TIMEOUT")
	v.BindEnv("api.endpoints.refresh_token", "CONSOLE_API_ENDPOINTS_REFRESH_TOKEN", "CONSOLE_REFRESH_ENDPOINT")

	v.BindEnv("session.rehydrate", "CONSOLE_SESSION_REHYDRATE")

	v.BindEnv("refresh.interval", "CONSOLE_REFRESH_INTERVAL")
	v.BindEnv("refresh.threshold", "CONSOLE_REFRESH_THRESHOLD")

	v.BindEnv("storage.type", "CONSOLE_STORAGE_TYPE")
	v.BindEnv("storage.path", "CONSOLE_STORAGE_PATH")

	bindLoggingEnvVars(v)
}

func bindLoggingEnvVars(v *viper.Viper) {
	v.BindEnv("logging.level", "CONSOLE_LOGGING_LEVEL", "CONSOLE_LOG_LEVEL")
	v.BindEnv("logging.format", "CONSOLE_LOGGING_FORMAT")
	v.BindEnv("logging.output", "CONSOLE_LOGGING_OUTPUT")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.source = v.ConfigFileUsed()

	return &config, nil
}

// setupLogging configures logrus from the logging section
func setupLogging(config *Config, v *viper.Viper) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)
	config.logger = NewConsoleLogger(defaultLogBufferSize)
	logrus.AddHook(config.logger)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	switch strings.ToLower(config.Logging.Output) {
	case "stdout":
		logrus.SetOutput(os.Stdout)
	case "stderr", "":
		logrus.SetOutput(os.Stderr)
	default:
		logrus.WithFields(logrus.Fields{
			"output": config.Logging.Output,
		}).Warn("Unknown log output")
	}

	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			logrus.Debugf("Config '%s': %v\n", key, value)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {

	// Remote API defaults
	v.SetDefault("api.base_url", "http://localhost:5000")
	v.SetDefault("api.prefix", "/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.endpoints.sign_in", "/sign-in")
	v.SetDefault("api.endpoints.sign_up", "/sign-up")
	v.SetDefault("api.endpoints.sign_out", "/sign-out")
	v.SetDefault("api.endpoints.forgot_password", "/forgot-password")
	v.SetDefault("api.endpoints.reset_password", "/reset-password")
	v.SetDefault("api.endpoints.refresh_token", "/refresh-token")

	// Session defaults
	v.SetDefault("session.authenticated_entry_path", "/home")
	v.SetDefault("session.unauthenticated_entry_path", "/sign-in")
	v.SetDefault("session.redirect_query_key", "redirect")
	v.SetDefault("session.rehydrate", false)

	// Token refresh defaults
	v.SetDefault("refresh.interval", "9m")
	v.SetDefault("refresh.threshold", "60s")
	v.SetDefault("refresh.credential_key", "refreshToken")
	v.SetDefault("refresh.param", "refreshToken")
	v.SetDefault("refresh.transport", "query")

	// Persisted state defaults
	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.path", "~/.config/"+common.AppName+"/storage.yaml")

	// Console shell defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 5225)
	v.SetDefault("server.limits.read_timeout", "30s")
	v.SetDefault("server.limits.write_timeout", "30s")
	v.SetDefault("server.limits.idle_timeout", "120s")
	v.SetDefault("server.limits.auth_rate", 5.0)
	v.SetDefault("server.limits.auth_burst", 10)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5225", "http://localhost:3000"})
	v.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Requested-With"})
	v.SetDefault("server.cors.max_age", 86400)
	v.SetDefault("server.health.enabled", true)
	v.SetDefault("server.health.path", "/health")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}
