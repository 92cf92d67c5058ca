// Package config loads the roadkill CLI configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/guseggert/roadkill/driver"
	"github.com/guseggert/roadkill/webdriver"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config is the configuration file of the CLI. Zero values fall back to Default.
type Config struct {
	Driver  DriverConfig  `yaml:"driver"`
	Browser BrowserConfig `yaml:"browser"`

	// RequestTimeout bounds every WebDriver command sent by the CLI.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ReadyTimeout bounds the wait for the driver to start and report ready.
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

type DriverConfig struct {
	Name        string   `yaml:"name"`
	Executable  string   `yaml:"executable"`
	Path        string   `yaml:"path"`
	Args        []string `yaml:"args"`
	Port        int      `yaml:"port"`
	DefaultPort int      `yaml:"default_port"`
	WorkDir     string   `yaml:"work_dir"`
}

type BrowserConfig struct {
	Headless bool     `yaml:"headless"`
	Args     []string `yaml:"args"`
	// Capabilities are merged over the chrome capabilities built from Headless and Args.
	Capabilities map[string]any `yaml:"capabilities"`
}

func Default() Config {
	return Config{
		Driver: DriverConfig{
			Name:        driver.DefaultName,
			Executable:  driver.DefaultExecutable(),
			Args:        driver.DefaultArgs,
			DefaultPort: driver.DefaultPort,
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		RequestTimeout: 30 * time.Second,
		ReadyTimeout:   30 * time.Second,
	}
}

// Load reads the file at path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Driver.Name == "" {
		errs = append(errs, errors.New("driver.name is required"))
	}
	if c.Driver.Executable == "" {
		errs = append(errs, errors.New("driver.executable is required"))
	}
	if c.Driver.Port < 0 || c.Driver.Port > 65535 {
		errs = append(errs, fmt.Errorf("driver.port %d out of range", c.Driver.Port))
	}
	if c.Driver.DefaultPort <= 0 || c.Driver.DefaultPort > 65535 {
		errs = append(errs, fmt.Errorf("driver.default_port %d out of range", c.Driver.DefaultPort))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.ReadyTimeout <= 0 {
		errs = append(errs, errors.New("ready_timeout must be positive"))
	}
	return errors.Join(errs...)
}

// DriverOptions builds the driver options of the configuration.
func (c Config) DriverOptions(log *zap.Logger) []driver.Option {
	opts := []driver.Option{
		driver.WithName(c.Driver.Name),
		driver.WithExecutable(c.Driver.Executable),
		driver.WithArgs(c.Driver.Args...),
		driver.WithDefaultPort(c.Driver.DefaultPort),
		driver.WithLogger(log),
	}
	if c.Driver.Path != "" {
		opts = append(opts, driver.WithPath(c.Driver.Path))
	}
	if c.Driver.Port != 0 {
		opts = append(opts, driver.WithPort(c.Driver.Port))
	}
	if c.Driver.WorkDir != "" {
		opts = append(opts, driver.WithWorkDir(c.Driver.WorkDir))
	}
	return opts
}

// Capabilities returns the capabilities sessions are created with.
func (c Config) Capabilities() webdriver.Capabilities {
	caps := webdriver.ChromeCapabilities(c.Browser.Headless, c.Browser.Args...)
	for k, v := range c.Browser.Capabilities {
		caps[k] = v
	}
	return caps
}
