package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/optimode/emailrule/mailgun"
	"github.com/optimode/emailrule/sendgrid"
	"github.com/optimode/emailrule/types"
)

const envPrefix = "EMAILRULE"

const (
	ProviderMailgun  = "mailgun"
	ProviderSendGrid = "sendgrid"
)

type Config struct {
	Provider        string
	MailgunKey      string
	MailgunEndpoint string
	SendGridKey     string
	SendGridHost    string
	Timeout         time.Duration
	LogLevel        log.Level
	Rules           types.Modes
	ServerAddr      string
	ServerUsername  string
	ServerPassword  string
}

// LoadEnvFile loads variables from a .env file if one exists at path.
// Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// New reads configuration from EMAILRULE_* environment variables and, when
// file is not empty (or EMAILRULE_CONFIG_FILE is set), from a config file.
func New(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("provider", ProviderMailgun)
	v.SetDefault("mailgun.key", "")
	v.SetDefault("mailgun.endpoint", mailgun.DefaultEndpoint)
	v.SetDefault("sendgrid.key", "")
	v.SetDefault("sendgrid.host", sendgrid.DefaultHost)
	v.SetDefault("timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("rules", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.username", "")
	v.SetDefault("server.password", "")

	if file == "" {
		file = v.GetString("config_file")
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
	}

	cfg := Config{
		Provider:        strings.ToLower(v.GetString("provider")),
		MailgunKey:      v.GetString("mailgun.key"),
		MailgunEndpoint: v.GetString("mailgun.endpoint"),
		SendGridKey:     v.GetString("sendgrid.key"),
		SendGridHost:    v.GetString("sendgrid.host"),
		LogLevel:        log.InfoLevel,
		Rules:           types.ParseModeList(v.GetString("rules")),
		ServerAddr:      v.GetString("server.addr"),
		ServerUsername:  v.GetString("server.username"),
		ServerPassword:  v.GetString("server.password"),
	}

	timeout, err := time.ParseDuration(v.GetString("timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", v.GetString("timeout"), err)
	}
	cfg.Timeout = timeout

	if level, err := log.ParseLevel(v.GetString("log.level")); err == nil {
		cfg.LogLevel = level
	} else {
		log.Warn("invalid log level, using default", "value", v.GetString("log.level"), "default", "info")
	}

	if cfg.Provider != ProviderMailgun && cfg.Provider != ProviderSendGrid {
		log.Warn("unknown lookup provider, defaulting to mailgun", "provider", cfg.Provider)
		cfg.Provider = ProviderMailgun
	}

	// deprecated
	if cfg.MailgunKey == "" && os.Getenv("MAILGUN_SECRET") != "" {
		cfg.MailgunKey = os.Getenv("MAILGUN_SECRET")
		log.Warn("deprecated env var used", "old", "MAILGUN_SECRET", "new", envPrefix+"_MAILGUN_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required configuration fields are set and valid.
func (c *Config) Validate() error {
	if c.Provider == ProviderMailgun && c.MailgunKey == "" {
		return errors.New(envPrefix + "_MAILGUN_KEY is required when using the mailgun provider")
	}
	if c.Provider == ProviderSendGrid && c.SendGridKey == "" {
		return errors.New(envPrefix + "_SENDGRID_KEY is required when using the sendgrid provider")
	}
	if c.Timeout <= 0 {
		return errors.New(envPrefix + "_TIMEOUT must be positive")
	}
	if (c.ServerUsername == "") != (c.ServerPassword == "") {
		return errors.New(envPrefix + "_SERVER_USERNAME and " + envPrefix + "_SERVER_PASSWORD must be set together")
	}
	return nil
}
