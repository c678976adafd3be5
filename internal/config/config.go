// internal/config/config.go
//
// This package handles configuration and the .hrdesk directory structure.
// Every directory hrdesk runs from gets a .hrdesk/ folder holding the
// config file, logs and the reference data snapshot.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// HRDeskDir is the name of the directory we create in each project
	HRDeskDir = ".hrdesk"

	defaultBaseURL  = "http://localhost:5000/api"
	defaultSnapshot = "state/refdata.yaml"
	defaultPageSize = 10
	maxPageSize     = 100
)

// Environment variables read after the config file. EnvLegacyBaseURL is the
// variable the web front end used and is honoured when the hrdesk one is
// not set.
const (
	EnvBaseURL       = "HRDESK_API_BASE_URL"
	EnvLegacyBaseURL = "VITE_API_BASE_URL"
	EnvToken         = "HRDESK_API_TOKEN"
	EnvUploadsURL    = "HRDESK_UPLOADS_URL"
)

const defaultProjectConfigYAML = `# hrdesk configuration
version: 1

api:
  # Root of the HR records REST API. HRDESK_API_BASE_URL overrides it.
  base_url: http://localhost:5000/api
  # Where uploaded files are served. Derived from base_url when empty.
  # uploads_url: http://localhost:5000/uploads
  # Bearer token sent with every request. Prefer HRDESK_API_TOKEN.
  # token: ""

refdata:
  # Reference data cache, relative to .hrdesk/. Set to "" to disable.
  snapshot: state/refdata.yaml

ui:
  page_size: 10
  # Command used to open documents; the platform default when empty.
  # opener: xdg-open
`

// APIConfig says where the records API lives.
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	UploadsURL string `yaml:"uploads_url,omitempty"`
	Token      string `yaml:"token,omitempty"`
}

// RefdataConfig controls the reference data snapshot.
type RefdataConfig struct {
	Snapshot *string `yaml:"snapshot,omitempty"`
}

// UIConfig captures terminal preferences.
type UIConfig struct {
	PageSize int    `yaml:"page_size"`
	Opener   string `yaml:"opener,omitempty"`
}

// ProjectConfig models .hrdesk/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	API     APIConfig     `yaml:"api"`
	Refdata RefdataConfig `yaml:"refdata"`
	UI      UIConfig      `yaml:"ui"`
}

// Config holds the runtime configuration for hrdesk.
type Config struct {
	// ProjectDir is the directory where the user ran `hrdesk` from
	ProjectDir string

	// HRDeskProjectDir is ProjectDir/.hrdesk
	HRDeskProjectDir string

	// Project is what config.yaml says; env overrides are kept apart so
	// saving never writes them back.
	Project ProjectConfig

	env map[string]string
}

// InitHRDeskDir creates the .hrdesk directory structure in the given
// project directory.
//
// Structure created:
// .hrdesk/
// ├── config.yaml
// ├── logs/         <- hrdesk.log and journal.log
// ├── state/        <- reference data snapshot
// └── downloads/    <- documents saved from the wizard
func InitHRDeskDir(projectDir string) error {
	root := filepath.Join(projectDir, HRDeskDir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "state"),
		filepath.Join(root, "downloads"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads .env, then config.yaml, then environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(projectDir, ".env")); err != nil {
		return nil, err
	}
	cfg := &Config{
		ProjectDir:       projectDir,
		HRDeskProjectDir: filepath.Join(projectDir, HRDeskDir),
		Project:          defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv reads KEY=value pairs into the process environment without
// overriding variables that are already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.env = map[string]string{}
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.env[EnvBaseURL] = v
	} else if v := strings.TrimSpace(os.Getenv(EnvLegacyBaseURL)); v != "" {
		c.env[EnvBaseURL] = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.env[EnvToken] = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUploadsURL)); v != "" {
		c.env[EnvUploadsURL] = v
	}
	if v, ok := c.env[EnvBaseURL]; ok {
		if err := validateHTTPURL(v); err != nil {
			return fmt.Errorf("config: %s: %w", EnvBaseURL, err)
		}
	}
	if v, ok := c.env[EnvUploadsURL]; ok {
		if err := validateHTTPURL(v); err != nil {
			return fmt.Errorf("config: %s: %w", EnvUploadsURL, err)
		}
	}
	return nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.HRDeskProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.HRDeskProjectDir, "state")
}

// DownloadsDir is where downloaded documents are written
func (c *Config) DownloadsDir() string {
	return filepath.Join(c.HRDeskProjectDir, "downloads")
}

// LogPath is the diagnostic log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "hrdesk.log")
}

// JournalPath is the user-facing activity journal.
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journal.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.HRDeskProjectDir, "config.yaml")
}

// APIBaseURL returns the effective API root.
func (c *Config) APIBaseURL() string {
	if v, ok := c.env[EnvBaseURL]; ok {
		return v
	}
	return c.Project.API.BaseURL
}

// UploadsURL returns the configured uploads root, or "" to derive it.
func (c *Config) UploadsURL() string {
	if v, ok := c.env[EnvUploadsURL]; ok {
		return v
	}
	return c.Project.API.UploadsURL
}

// Token returns the bearer token, if any.
func (c *Config) Token() string {
	if v, ok := c.env[EnvToken]; ok {
		return v
	}
	return c.Project.API.Token
}

// Overridden reports whether an environment variable replaced a file value.
func (c *Config) Overridden(env string) bool {
	_, ok := c.env[env]
	return ok
}

// SnapshotPath returns the absolute snapshot path, or "" when disabled.
func (c *Config) SnapshotPath() string {
	if c.Project.Refdata.Snapshot == nil {
		return resolvePath(c.HRDeskProjectDir, defaultSnapshot)
	}
	return resolvePath(c.HRDeskProjectDir, *c.Project.Refdata.Snapshot)
}

// PageSize is how many rows the list views show per page.
func (c *Config) PageSize() int {
	return c.Project.UI.PageSize
}

// Opener is the document opener command ("" for the platform default).
func (c *Config) Opener() string {
	return c.Project.UI.Opener
}

// TokenExpiry reads the exp claim of the bearer token without verifying
// the signature. ok is false when there is no token or it carries no exp.
func (c *Config) TokenExpiry() (expiry time.Time, ok bool, err error) {
	token := c.Token()
	if token == "" {
		return time.Time{}, false, nil
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("config: parse token: %w", err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("config: token exp: %w", err)
	}
	if exp == nil {
		return time.Time{}, false, nil
	}
	return exp.Time, true, nil
}

// SetAPIBaseURL updates the API root and persists it to
// .hrdesk/config.yaml. An environment override still wins at runtime.
func (c *Config) SetAPIBaseURL(raw string) error {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if err := validateHTTPURL(raw); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.API.BaseURL = raw
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API:     APIConfig{BaseURL: defaultBaseURL},
		UI:      UIConfig{PageSize: defaultPageSize},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.API.BaseURL) == "" {
		pc.API.BaseURL = defaultBaseURL
	}
	if pc.UI.PageSize == 0 {
		pc.UI.PageSize = defaultPageSize
	}
}

func (pc *ProjectConfig) normalize() {
	pc.API.BaseURL = strings.TrimRight(strings.TrimSpace(pc.API.BaseURL), "/")
	pc.API.UploadsURL = strings.TrimRight(strings.TrimSpace(pc.API.UploadsURL), "/")
	pc.API.Token = strings.TrimSpace(pc.API.Token)
	pc.UI.Opener = strings.TrimSpace(pc.UI.Opener)
	if pc.Refdata.Snapshot != nil {
		trimmed := strings.TrimSpace(*pc.Refdata.Snapshot)
		pc.Refdata.Snapshot = &trimmed
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validateHTTPURL(pc.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if pc.API.UploadsURL != "" {
		if err := validateHTTPURL(pc.API.UploadsURL); err != nil {
			return fmt.Errorf("api.uploads_url: %w", err)
		}
	}
	if pc.UI.PageSize < 1 || pc.UI.PageSize > maxPageSize {
		return fmt.Errorf("ui.page_size must be between 1 and %d", maxPageSize)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%q must be an http or https URL", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.HRDeskProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure hrdesk dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
