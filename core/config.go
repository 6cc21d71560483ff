package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds the app-wide settings. It is loaded once at startup by the
// composition root and passed down; packages never read viper directly.
type Config struct {
	AppName string
	Env     string // DEV (local; default), TEST, QA, PROD
	Debug   bool
	Build   string

	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Store struct {
		Dir    string // directory holding the sealed session files
		Secret string // device secret the store keys are sealed with
	}

	// FeatureRefreshThrottle is the minimum delay between two
	// enabled-features fetches.
	FeatureRefreshThrottle time.Duration

	RollbarToken string
	TestMode     bool
}

// NewConfig loads the configuration from defaults, an optional
// config/.env.<env> file and SHULE_-prefixed environment variables.
func NewConfig() (*Config, error) {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("appName", "Shule")
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("apiBaseUrl", "http://localhost:8000/api")
	conf.SetDefault("apiTimeout", 30*time.Second)
	conf.SetDefault("storeDir", defaultStoreDir())
	conf.SetDefault("storeSecret", "")
	conf.SetDefault("featureRefreshThrottle", 60*time.Second)
	conf.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
	}
	conf.SetEnvPrefix("shule")
	conf.AutomaticEnv()

	c := &Config{
		AppName:                conf.GetString("appName"),
		Env:                    env,
		Debug:                  conf.GetBool("debug"),
		Build:                  conf.GetString("build"),
		FeatureRefreshThrottle: conf.GetDuration("featureRefreshThrottle"),
		RollbarToken:           conf.GetString("rollbarToken"),
		TestMode:               conf.GetBool("testMode"),
	}
	c.API.BaseURL = conf.GetString("apiBaseUrl")
	c.API.Timeout = conf.GetDuration("apiTimeout")
	c.Store.Dir = conf.GetString("storeDir")
	c.Store.Secret = conf.GetString("storeSecret")

	if err := c.check(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) check() error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.API.BaseURL, "apiBaseUrl"),
		vala.StringNotEmpty(c.Store.Dir, "storeDir"),
	).Check()
	if err != nil {
		return errors.Wrap(err, "config.check")
	}
	if c.FeatureRefreshThrottle <= 0 {
		return errors.New("config.check: featureRefreshThrottle must be positive")
	}
	return nil
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shule"
	}
	return filepath.Join(home, ".shule")
}
