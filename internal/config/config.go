// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/vedantra/internal/logging"
	"github.com/jeranaias/vedantra/internal/model"
	"github.com/jeranaias/vedantra/internal/storage"
	"github.com/jeranaias/vedantra/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete vedantra configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Backend BackendConfig  `toml:"backend" json:"backend"`
	Chat    ChatConfig     `toml:"chat" json:"chat"`
	Storage StorageConfig  `toml:"storage" json:"storage"`
	UI      UIConfig       `toml:"ui" json:"ui"`
	Server  ServerConfig   `toml:"server" json:"server"`
	Log     logging.Config `toml:"log" json:"log"`
}

// BackendConfig locates the chat endpoint the clients talk to.
type BackendConfig struct {
	URL string `toml:"url" json:"url"`
	// ConnectTimeoutSecs bounds dialing only; streams are never cut by a timer.
	ConnectTimeoutSecs int `toml:"connect_timeout_secs" json:"connect_timeout_secs"`
	// RequestTimeoutSecs bounds the non-streaming calls (models, health).
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
}

// ChatConfig holds the model selection.
type ChatConfig struct {
	DefaultModel string `toml:"default_model" json:"default_model"`
	// Models replaces the built-in catalog when non-empty.
	Models []model.ModelInfo `toml:"models" json:"models,omitempty"`
}

// StorageConfig selects where history and preferences live.
type StorageConfig struct {
	// Backend is "file" or "sqlite".
	Backend string `toml:"backend" json:"backend"`
	// DataDir defaults to the config directory.
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// UIConfig contains front end settings.
type UIConfig struct {
	// Theme is "auto", "light" or "dark". A theme toggled in the app wins
	// over this once stored.
	Theme    string `toml:"theme" json:"theme"`
	WordWrap int    `toml:"word_wrap" json:"word_wrap"`
}

// ServerConfig configures `vedantra serve`.
type ServerConfig struct {
	Host           string          `toml:"host" json:"host"`
	Port           int             `toml:"port" json:"port"`
	Upstream       UpstreamConfig  `toml:"upstream" json:"upstream"`
	RateLimit      RateLimitConfig `toml:"rate_limit" json:"rate_limit"`
	AllowedOrigins []string        `toml:"allowed_origins" json:"allowed_origins"`
	// TrustedProxies are the IPs or CIDRs allowed to set X-Forwarded-For.
	// Empty trusts nobody.
	TrustedProxies []string `toml:"trusted_proxies" json:"trusted_proxies"`
}

// UpstreamConfig points at the OpenAI-compatible completion service.
type UpstreamConfig struct {
	BaseURL string `toml:"base_url" json:"base_url"`
	// APIKeyEnv names the environment variable holding the key. The key
	// itself never lives in the config file.
	APIKeyEnv string `toml:"api_key_env" json:"api_key_env"`
}

// RateLimitConfig is the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64 `toml:"rps" json:"rps"`
	Burst int     `toml:"burst" json:"burst"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			URL:                "http://127.0.0.1:8787",
			ConnectTimeoutSecs: 10,
			RequestTimeoutSecs: 15,
		},
		Chat: ChatConfig{
			DefaultModel: model.DefaultModel,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
		},
		UI: UIConfig{
			Theme:    "auto",
			WordWrap: 80,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8787,
			Upstream: UpstreamConfig{
				BaseURL:   "https://integrate.api.nvidia.com/v1",
				APIKeyEnv: "NVIDIA_API_KEY",
			},
			RateLimit: RateLimitConfig{
				RPS:   2,
				Burst: 5,
			},
		},
		Log: logging.Config{
			Level:  "info",
			Format: logging.FormatText,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// DirEnv overrides the configuration directory.
const DirEnv = "VEDANTRA_HOME"

// ConfigDir returns the vedantra configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".vedantra"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ActivePath returns the config file Load would read, or the TOML path when
// neither file exists yet.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// DataDir resolves where history, the database and the log file live.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return expandHome(c.Storage.DataDir), nil
	}
	return ConfigDir()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Catalog returns the configured model catalog, or the built-in one.
func (c *Config) Catalog() *model.Catalog {
	if len(c.Chat.Models) == 0 {
		return model.DefaultCatalog()
	}
	return model.NewCatalog(c.Chat.Models...)
}

// ConnectTimeout is the backend dial timeout.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Backend.ConnectTimeoutSecs) * time.Second
}

// RequestTimeout bounds the non-streaming backend calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeoutSecs) * time.Second
}

// ServerAddr is host:port for the proxy server.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config directory: TOML first, then JSON, then defaults.
// A .env file in the working directory or config directory is loaded before
// environment overrides are applied.
func Load() (*Config, error) {
	LoadDotEnv()

	path, err := ActivePath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finish(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format follows the extension; anything but .json is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env from the working directory and the config directory.
// Variables already set in the environment are left alone. Missing files
// are skipped.
func LoadDotEnv() {
	var files []string
	if _, err := os.Stat(".env"); err == nil {
		files = append(files, ".env")
	}
	if dir, err := ConfigDir(); err == nil {
		p := filepath.Join(dir, ".env")
		if _, err := os.Stat(p); err == nil {
			files = append(files, p)
		}
	}
	if len(files) > 0 {
		_ = godotenv.Load(files...)
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Backend
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = defaults.Backend.URL
	}
	if cfg.Backend.ConnectTimeoutSecs == 0 {
		cfg.Backend.ConnectTimeoutSecs = defaults.Backend.ConnectTimeoutSecs
	}
	if cfg.Backend.RequestTimeoutSecs == 0 {
		cfg.Backend.RequestTimeoutSecs = defaults.Backend.RequestTimeoutSecs
	}

	// Chat
	if cfg.Chat.DefaultModel == "" {
		cfg.Chat.DefaultModel = defaults.Chat.DefaultModel
		if len(cfg.Chat.Models) > 0 {
			cfg.Chat.DefaultModel = cfg.Chat.Models[0].ID
		}
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if cfg.UI.WordWrap == 0 {
		cfg.UI.WordWrap = defaults.UI.WordWrap
	}

	// Server
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaults.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.Upstream.BaseURL == "" {
		cfg.Server.Upstream.BaseURL = defaults.Server.Upstream.BaseURL
	}
	if cfg.Server.Upstream.APIKeyEnv == "" {
		cfg.Server.Upstream.APIKeyEnv = defaults.Server.Upstream.APIKeyEnv
	}
	if cfg.Server.RateLimit.RPS == 0 {
		cfg.Server.RateLimit.RPS = defaults.Server.RateLimit.RPS
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = defaults.Server.RateLimit.Burst
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const tomlHeader = `# vedantra configuration file
# Generated by vedantra - edit with care

`

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML, owner read/write only.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(tomlHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as indented JSON, owner read/write only.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every section and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Backend
	if err := validateHTTPURL(c.Backend.URL); err != nil {
		add("backend.url", "%v", err)
	}
	if c.Backend.ConnectTimeoutSecs < 0 {
		add("backend.connect_timeout_secs", "must be non-negative, got %d", c.Backend.ConnectTimeoutSecs)
	}
	if c.Backend.RequestTimeoutSecs < 0 {
		add("backend.request_timeout_secs", "must be non-negative, got %d", c.Backend.RequestTimeoutSecs)
	}

	// Chat
	for i, m := range c.Chat.Models {
		if strings.TrimSpace(m.ID) == "" {
			add(fmt.Sprintf("chat.models[%d].id", i), "must not be empty")
		}
	}
	if c.Chat.DefaultModel != "" && !c.Catalog().Has(c.Chat.DefaultModel) {
		add("chat.default_model", "unknown model '%s', must be one of: %s",
			c.Chat.DefaultModel, strings.Join(c.Catalog().IDs(), ", "))
	}

	// Storage
	switch c.Storage.Backend {
	case "", storage.BackendFile, storage.BackendSQLite:
	default:
		add("storage.backend", "invalid backend '%s', must be one of: file, sqlite", c.Storage.Backend)
	}

	// UI
	switch strings.ToLower(c.UI.Theme) {
	case "", "auto", "light", "dark":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, light, dark", c.UI.Theme)
	}
	if c.UI.WordWrap < 0 || c.UI.WordWrap > 500 {
		add("ui.word_wrap", "must be 0-500, got %d", c.UI.WordWrap)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.Upstream.BaseURL != "" {
		if err := validateHTTPURL(c.Server.Upstream.BaseURL); err != nil {
			add("server.upstream.base_url", "%v", err)
		}
	}
	if c.Server.RateLimit.RPS < 0 {
		add("server.rate_limit.rps", "must be non-negative")
	}
	if c.Server.RateLimit.Burst < 0 {
		add("server.rate_limit.burst", "must be non-negative")
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				add("server.trusted_proxies", "invalid IP or CIDR '%s'", p)
			}
		}
	}

	// Log
	if !logging.ValidLevel(c.Log.Level) {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}
	switch c.Log.Format {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		add("log.format", "invalid format '%s', must be one of: text, json", c.Log.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme '%s', must be http or https", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL has no host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies VEDANTRA_* environment variables:
//   - VEDANTRA_BACKEND_URL: backend.url
//   - VEDANTRA_MODEL: chat.default_model
//   - VEDANTRA_DATA_DIR: storage.data_dir
//   - VEDANTRA_STORAGE: storage.backend
//   - VEDANTRA_THEME: ui.theme
//   - VEDANTRA_LOG_LEVEL: log.level
//   - VEDANTRA_LOG_FORMAT: log.format
//   - VEDANTRA_PORT: server.port (ignored when not a number)
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("VEDANTRA_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("VEDANTRA_MODEL"); v != "" {
		c.Chat.DefaultModel = v
	}
	if v := os.Getenv("VEDANTRA_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("VEDANTRA_STORAGE"); v != "" {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("VEDANTRA_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
	if v := os.Getenv("VEDANTRA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("VEDANTRA_LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
	if v := os.Getenv("VEDANTRA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value by its TOML key path, e.g. "backend.url".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value by its TOML key path. Strings are converted to the
// field's kind. The result is not validated; call Validate afterwards.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from an arbitrary value with string
// conversion for scalar kinds.
func setFieldValue(field reflect.Value, value any) error {
	if s, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(s)
			return nil
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %w", err)
			}
			field.SetInt(n)
			return nil
		case reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %w", err)
			}
			field.SetFloat(f)
			return nil
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("invalid boolean value: %w", err)
			}
			field.SetBool(b)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(s, ",") {
					if item = strings.TrimSpace(item); item != "" {
						items = append(items, item)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// Keys lists every scalar setting in dot notation.
func Keys() []string {
	return []string{
		"version",
		"backend.url",
		"backend.connect_timeout_secs",
		"backend.request_timeout_secs",
		"chat.default_model",
		"storage.backend",
		"storage.data_dir",
		"ui.theme",
		"ui.word_wrap",
		"server.host",
		"server.port",
		"server.upstream.base_url",
		"server.upstream.api_key_env",
		"server.rate_limit.rps",
		"server.rate_limit.burst",
		"server.allowed_origins",
		"server.trusted_proxies",
		"log.level",
		"log.format",
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Chat.Models = append([]model.ModelInfo(nil), c.Chat.Models...)
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	clone.Server.TrustedProxies = append([]string(nil), c.Server.TrustedProxies...)
	return &clone
}

// String renders the config as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("config encode error: %v", err)
	}
	return buf.String()
}
