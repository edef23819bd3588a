package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gamingear/console/internal/api"
	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/sessions"
	"github.com/gamingear/console/internal/storage"
)

// Config represents the application configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Storage StorageConfig `mapstructure:"storage"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`

	source string
	logger *consoleLogger
}

type APIConfig struct {
	BaseURL   string          `mapstructure:"base_url" default:"http://localhost:5000"`
	Prefix    string          `mapstructure:"prefix" default:"/api"`
	Timeout   time.Duration   `mapstructure:"timeout" default:"30s"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
}

// EndpointsConfig holds the remote API routes. Relative values are joined
// to the API base URL, absolute URLs are used as they are.
type EndpointsConfig struct {
	SignIn         string `mapstructure:"sign_in"`
	SignUp         string `mapstructure:"sign_up"`
	SignOut        string `mapstructure:"sign_out"`
	ForgotPassword string `mapstructure:"forgot_password"`
	ResetPassword  string `mapstructure:"reset_password"`
	RefreshToken   string `mapstructure:"refresh_token"`
}

type SessionConfig struct {
	AuthenticatedEntryPath   string `mapstructure:"authenticated_entry_path" default:"/home"`
	UnauthenticatedEntryPath string `mapstructure:"unauthenticated_entry_path" default:"/sign-in"`
	RedirectQueryKey         string `mapstructure:"redirect_query_key" default:"redirect"`
	// Revalidate a persisted token on startup
	Rehydrate bool `mapstructure:"rehydrate" default:"false"`
}

type RefreshConfig struct {
	Interval      time.Duration `mapstructure:"interval" default:"9m"`
	Threshold     time.Duration `mapstructure:"threshold" default:"60s"`
	CredentialKey string        `mapstructure:"credential_key" default:"refreshToken"`
	Param         string        `mapstructure:"param" default:"refreshToken"`
	Transport     string        `mapstructure:"transport" default:"query"` // query or header
}

type StorageConfig struct {
	Type string `mapstructure:"type" default:"file"`
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Host   string             `mapstructure:"host"`
	Port   int                `mapstructure:"port"`
	Limits ServerLimitsConfig `mapstructure:"limits"`
	CORS   CORSConfig         `mapstructure:"cors"`
	Health HealthConfig       `mapstructure:"health"`
}

type ServerLimitsConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// Form posts per second per client on /auth, zero disables the limit
	AuthRate  float64 `mapstructure:"auth_rate" default:"5"`
	AuthBurst int     `mapstructure:"auth_burst" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled" default:"true"`
	Path    string `mapstructure:"path" default:"/health"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
	Output string `mapstructure:"output" default:"stderr"`
}

// Source is the config file that was read, empty when none was found.
func (c *Config) Source() string {
	return c.source
}

// GetAPIBaseURL joins the base URL and the API prefix.
func (c *Config) GetAPIBaseURL() string {
	base := strings.TrimSuffix(c.API.BaseURL, "/")
	prefix := strings.Trim(c.API.Prefix, "/")
	if len(prefix) == 0 {
		return base
	}
	return fmt.Sprintf("%s/%s", base, prefix)
}

func (c *Config) SetAPIBaseURL(baseURL string) {
	c.API.BaseURL = baseURL
}

func (c *Config) GetEndpoints() api.Endpoints {
	endpoints := api.DefaultEndpoints()
	e := c.API.Endpoints

	for _, field := range []struct {
		target *string
		value  string
	}{
		{&endpoints.SignIn, e.SignIn},
		{&endpoints.SignUp, e.SignUp},
		{&endpoints.SignOut, e.SignOut},
		{&endpoints.ForgotPassword, e.ForgotPassword},
		{&endpoints.ResetPassword, e.ResetPassword},
		{&endpoints.RefreshToken, e.RefreshToken},
	} {
		if len(field.value) > 0 {
			*field.target = field.value
		}
	}

	return endpoints
}

func (c *Config) GetAPIOptions() api.Options {
	return api.Options{
		BaseURL:          c.GetAPIBaseURL(),
		Timeout:          c.API.Timeout,
		Endpoints:        c.GetEndpoints(),
		RefreshParam:     c.Refresh.Param,
		RefreshTransport: api.RefreshTransport(strings.ToLower(c.Refresh.Transport)),
		ClientID:         common.ClientIdentifier(common.AppName).String(),
		UserAgent:        common.UserAgent(),
	}
}

func (c *Config) GetSessionConfig() sessions.Config {
	return sessions.Config{
		AuthenticatedEntryPath:   c.Session.AuthenticatedEntryPath,
		UnauthenticatedEntryPath: c.Session.UnauthenticatedEntryPath,
		RedirectQueryKey:         c.Session.RedirectQueryKey,
		RefreshInterval:          c.Refresh.Interval,
		RefreshThreshold:         c.Refresh.Threshold,
		RefreshCredentialKey:     c.Refresh.CredentialKey,
	}
}

func (c *Config) ShouldRehydrate() bool {
	return c.Session.Rehydrate
}

func (c *Config) OpenStore() (storage.Store, error) {
	return storage.New(c.Storage.Type, c.Storage.Path)
}

// NewSessionManager wires the API client, the persisted store and the
// session settings into a manager.
func (c *Config) NewSessionManager() (*sessions.Manager, error) {
	store, err := c.OpenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	client := api.NewClient(c.GetAPIOptions())

	return sessions.NewManager(client, store, c.GetSessionConfig()), nil
}

// GetServerAddress returns the server bind address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetLocalServerUrl() string {
	hostname := c.Server.Host
	if hostname == "0.0.0.0" || len(hostname) == 0 {
		hostname = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", hostname, c.Server.Port)
}

// GetLogger returns the in-memory log buffer, nil before logging is set up.
func (c *Config) GetLogger() *consoleLogger {
	return c.logger
}
