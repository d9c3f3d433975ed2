package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Generator GeneratorConfig   `yaml:"generator"`
	Renderer  RendererConfig    `yaml:"renderer"`
	Mailer    MailerConfig      `yaml:"mailer"`
	Flyers    FlyersConfig      `yaml:"flyers"`
	Workflow  WorkflowConfig    `yaml:"workflow"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Generator.Validate(); err != nil {
		return err
	}
	if err := c.Renderer.Validate(); err != nil {
		return err
	}
	return c.Mailer.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// GeneratorConfig holds the content generation service configuration.
type GeneratorConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the generator configuration.
func (c *GeneratorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIKey, validation.Required),
		validation.Field(&c.Model, validation.Required),
	)
}

// RendererConfig holds the headless-browser PDF renderer configuration.
type RendererConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// Validate validates the renderer configuration.
func (c *RendererConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxConcurrent, validation.Min(0)),
	)
}

// MailerConfig holds email delivery configuration. An empty APIKey
// disables delivery; the distribution workflow still runs.
type MailerConfig struct {
	APIKey     string        `yaml:"api_key"`
	From       string        `yaml:"from"`
	SenderName string        `yaml:"sender_name"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Validate validates the mailer configuration.
func (c *MailerConfig) Validate() error {
	if c.APIKey == "" {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.From, validation.Required),
	)
}

// DeliveryEnabled returns true when an email provider is configured.
func (c *MailerConfig) DeliveryEnabled() bool {
	return c.APIKey != ""
}

// FlyersConfig holds the category flyer directory configuration. An
// empty Path disables the flyer catalog and watcher.
type FlyersConfig struct {
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
}

// Enabled returns true when a flyer directory is configured.
func (c *FlyersConfig) Enabled() bool {
	return c.Path != ""
}

// WorkflowConfig holds distribution workflow knobs.
type WorkflowConfig struct {
	// StrictTransitions makes sending refuse newsletters in a terminal
	// state instead of overriding the status.
	StrictTransitions bool `yaml:"strict_transitions"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./ansuz.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Generator: GeneratorConfig{
			Model:   "gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
		Renderer: RendererConfig{
			Timeout:       30 * time.Second,
			SettleDelay:   500 * time.Millisecond,
			MaxConcurrent: 2,
		},
		Mailer: MailerConfig{
			Timeout: 15 * time.Second,
		},
		Flyers: FlyersConfig{
			BaseURL: "/api/flyers",
		},
	}
}
