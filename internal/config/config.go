// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles loading, saving, and validating saransh configuration.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/saransh-tui/internal/composer"
	"github.com/jeranaias/saransh-tui/internal/logging"
	"github.com/jeranaias/saransh-tui/internal/summarizer"
	"github.com/jeranaias/saransh-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the main configuration structure for saransh.
type Config struct {
	// Version of the config file format
	Version string `toml:"version" json:"version"`

	Backend  BackendConfig  `toml:"backend" json:"backend"`
	Composer ComposerConfig `toml:"composer" json:"composer"`
	Summary  SummaryConfig  `toml:"summary" json:"summary"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	History  HistoryConfig  `toml:"history" json:"history"`
	Logging  LoggingConfig  `toml:"logging" json:"logging"`
}

// BackendConfig configures the summarization backend connection.
type BackendConfig struct {
	// URL is the backend base URL
	URL string `toml:"url" json:"url"`

	// TimeoutSecs bounds a single summarize request
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// ReadyPollMs is the /ready polling interval while waiting for warm-up
	ReadyPollMs int `toml:"ready_poll_ms" json:"ready_poll_ms"`

	// WarmUpOnStart requests a model load when the backend is not ready
	WarmUpOnStart bool `toml:"warm_up_on_start" json:"warm_up_on_start"`

	// WarmUpTimeoutSecs bounds a blocking warm-up
	WarmUpTimeoutSecs int `toml:"warm_up_timeout_secs" json:"warm_up_timeout_secs"`
}

// ComposerConfig holds the composer tunables.
type ComposerConfig struct {
	MaxRows           int      `toml:"max_rows" json:"max_rows"`
	MaxImages         int      `toml:"max_images" json:"max_images"`
	Images            string   `toml:"images" json:"images"` // yes, no, warn
	ResizeDelayMs     int      `toml:"resize_delay_ms" json:"resize_delay_ms"`
	SnippetBegin      string   `toml:"snippet_begin" json:"snippet_begin"`
	SnippetEnd        string   `toml:"snippet_end" json:"snippet_end"`
	MaxTextFileKB     int      `toml:"max_text_file_kb" json:"max_text_file_kb"`
	MaxImageDimension int      `toml:"max_image_dimension" json:"max_image_dimension"`
	ImageMIMETypes    []string `toml:"image_mime_types" json:"image_mime_types"`
	TextMIMETypes     []string `toml:"text_mime_types" json:"text_mime_types"`
}

// SummaryConfig holds the default model selection.
type SummaryConfig struct {
	Model  string `toml:"model" json:"model"`
	Tone   string `toml:"tone" json:"tone"`
	Length string `toml:"length" json:"length"`
}

// UIConfig contains TUI preferences.
type UIConfig struct {
	Theme             string `toml:"theme" json:"theme"` // dark, light, auto
	RenderMarkdown    bool   `toml:"render_markdown" json:"render_markdown"`
	HighlightSnippets bool   `toml:"highlight_snippets" json:"highlight_snippets"`
	CompactMode       bool   `toml:"compact_mode" json:"compact_mode"`
	ShowHelp          bool   `toml:"show_help" json:"show_help"`
}

// HistoryConfig controls the turn history database.
type HistoryConfig struct {
	Enabled    bool   `toml:"enabled" json:"enabled"`
	Path       string `toml:"path" json:"path"` // empty means ~/.saransh/history.db
	MaxEntries int    `toml:"max_entries" json:"max_entries"`
}

// LoggingConfig controls the log file.
type LoggingConfig struct {
	Level string `toml:"level" json:"level"` // debug, info, warn, error
	Path  string `toml:"path" json:"path"`   // empty means ~/.saransh/saransh.log
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// CurrentVersion is the config file format version.
const CurrentVersion = "1"

// Default returns a new Config with sensible defaults.
func Default() *Config {
	limits := composer.DefaultLimits()
	return &Config{
		Version: CurrentVersion,
		Backend: BackendConfig{
			URL:               summarizer.DefaultBaseURL,
			TimeoutSecs:       120,
			ReadyPollMs:       2000,
			WarmUpOnStart:     true,
			WarmUpTimeoutSecs: 300,
		},
		Composer: ComposerConfig{
			MaxRows:           limits.MaxRows,
			MaxImages:         limits.MaxImages,
			Images:            string(limits.ImagePolicy),
			ResizeDelayMs:     int(limits.ResizeDelay / time.Millisecond),
			SnippetBegin:      limits.Markers.Begin,
			SnippetEnd:        limits.Markers.End,
			MaxTextFileKB:     int(limits.MaxTextFileBytes / 1024),
			MaxImageDimension: limits.MaxImageDimension,
			ImageMIMETypes:    limits.ImageMIMETypes,
			TextMIMETypes:     limits.TextMIMETypes,
		},
		Summary: SummaryConfig{
			Model:  string(summarizer.ModelPegasus),
			Tone:   string(summarizer.ToneNeutral),
			Length: string(summarizer.LengthMedium),
		},
		UI: UIConfig{
			Theme:             "dark",
			RenderMarkdown:    true,
			HighlightSnippets: true,
			ShowHelp:          true,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// EnvConfigDir overrides the configuration directory.
const EnvConfigDir = "SARANSH_CONFIG_DIR"

// ConfigDir returns the saransh configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".saransh"), nil
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

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensurePrivatePermissions narrows config files to 0600. Drafts and history
// paths live here, so the directory stays private.
func ensurePrivatePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// LogPath returns the effective log file path.
func (c *Config) LogPath() (string, error) {
	if c.Logging.Path != "" {
		return c.Logging.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "saransh.log"), nil
}

// HistoryPath returns the effective history database path.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last, once, here.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file Load would read, or the TOML path when none exists.
func Path() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, err := os.Stat(jsonPath); err == nil {
			return jsonPath, nil
		}
	}
	return tomlPath, nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finish(cfg *Config) error {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensurePrivatePermissions(path); err != nil {
		logging.Component("config").Warn("could not fix config permissions", "path", path, "error", err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logging.Component("config").Warn("unknown config keys ignored", "keys", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensurePrivatePermissions(path); err != nil {
		logging.Component("config").Warn("could not fix config permissions", "path", path, "error", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# saransh configuration file")
	fmt.Fprintln(&buf, "# Edit with care; `saransh config set <key> <value>` validates changes.")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg as JSON with 0600 permissions.
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

// ValidationError represents a configuration validation error.
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
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if c.Backend.URL == "" {
		add("backend.url", "must not be empty")
	} else if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		add("backend.url", "must start with http:// or https://, got %q", c.Backend.URL)
	}
	if c.Backend.TimeoutSecs < 1 {
		add("backend.timeout_secs", "must be at least 1, got %d", c.Backend.TimeoutSecs)
	}
	if c.Backend.ReadyPollMs < 100 {
		add("backend.ready_poll_ms", "must be at least 100, got %d", c.Backend.ReadyPollMs)
	}

	if err := c.Limits().Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			add("composer", "%s", line)
		}
	}
	if c.Composer.MaxRows > 40 {
		add("composer.max_rows", "must be at most 40, got %d", c.Composer.MaxRows)
	}
	if c.Composer.MaxTextFileKB < 1 {
		add("composer.max_text_file_kb", "must be at least 1, got %d", c.Composer.MaxTextFileKB)
	}
	if c.Composer.MaxImageDimension < 64 {
		add("composer.max_image_dimension", "must be at least 64, got %d", c.Composer.MaxImageDimension)
	}

	if _, err := summarizer.ParseModel(c.Summary.Model); err != nil {
		add("summary.model", "%v", err)
	}
	if _, err := summarizer.ParseTone(c.Summary.Tone); err != nil {
		add("summary.tone", "%v", err)
	}
	if _, err := summarizer.ParseLength(c.Summary.Length); err != nil {
		add("summary.length", "%v", err)
	}

	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		add("ui.theme", "must be dark, light or auto, got %q", c.UI.Theme)
	}

	if c.History.MaxEntries < 0 {
		add("history.max_entries", "must not be negative, got %d", c.History.MaxEntries)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "%v", err)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Version == "" {
		c.Version = d.Version
	}
	if c.Backend.URL == "" {
		c.Backend.URL = d.Backend.URL
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = d.Backend.TimeoutSecs
	}
	if c.Backend.ReadyPollMs == 0 {
		c.Backend.ReadyPollMs = d.Backend.ReadyPollMs
	}
	if c.Backend.WarmUpTimeoutSecs == 0 {
		c.Backend.WarmUpTimeoutSecs = d.Backend.WarmUpTimeoutSecs
	}
	if c.Composer.MaxRows == 0 {
		c.Composer.MaxRows = d.Composer.MaxRows
	}
	if c.Composer.Images == "" {
		c.Composer.Images = d.Composer.Images
	}
	if c.Composer.ResizeDelayMs == 0 {
		c.Composer.ResizeDelayMs = d.Composer.ResizeDelayMs
	}
	if c.Composer.SnippetBegin == "" {
		c.Composer.SnippetBegin = d.Composer.SnippetBegin
	}
	if c.Composer.SnippetEnd == "" {
		c.Composer.SnippetEnd = d.Composer.SnippetEnd
	}
	if c.Composer.MaxTextFileKB == 0 {
		c.Composer.MaxTextFileKB = d.Composer.MaxTextFileKB
	}
	if c.Composer.MaxImageDimension == 0 {
		c.Composer.MaxImageDimension = d.Composer.MaxImageDimension
	}
	if len(c.Composer.ImageMIMETypes) == 0 {
		c.Composer.ImageMIMETypes = d.Composer.ImageMIMETypes
	}
	if len(c.Composer.TextMIMETypes) == 0 {
		c.Composer.TextMIMETypes = d.Composer.TextMIMETypes
	}
	if c.Summary.Model == "" {
		c.Summary.Model = d.Summary.Model
	}
	if c.Summary.Tone == "" {
		c.Summary.Tone = d.Summary.Tone
	}
	if c.Summary.Length == "" {
		c.Summary.Length = d.Summary.Length
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// Migrate rewrites values from older config files.
func (c *Config) Migrate() error {
	// Boolean image switches predate the warn policy.
	switch strings.ToLower(c.Composer.Images) {
	case "true", "on", "1":
		c.Composer.Images = string(composer.ImagesAllowed)
	case "false", "off", "0":
		c.Composer.Images = string(composer.ImagesDisabled)
	default:
		c.Composer.Images = strings.ToLower(c.Composer.Images)
	}

	// Short model aliases.
	switch strings.ToLower(c.Summary.Model) {
	case "pegasus":
		c.Summary.Model = string(summarizer.ModelPegasus)
	case "mt5":
		c.Summary.Model = string(summarizer.ModelMT5)
	case "indicbart", "bart":
		c.Summary.Model = string(summarizer.ModelIndicBART)
	default:
		if m, err := summarizer.ParseModel(c.Summary.Model); err == nil {
			c.Summary.Model = string(m)
		}
	}
	c.Summary.Tone = strings.ToLower(c.Summary.Tone)
	c.Summary.Length = strings.ToLower(c.Summary.Length)
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - SARANSH_BACKEND_URL: overrides backend.url
//   - SARANSH_MODEL: overrides summary.model
//   - SARANSH_TONE: overrides summary.tone
//   - SARANSH_LENGTH: overrides summary.length
//   - SARANSH_MAX_ROWS: overrides composer.max_rows
//   - SARANSH_MAX_IMAGES: overrides composer.max_images
//   - SARANSH_IMAGES: overrides composer.images (yes, no, warn)
//   - SARANSH_LOG_LEVEL: overrides logging.level
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("SARANSH_BACKEND_URL"); url != "" {
		c.Backend.URL = url
	}
	if model := os.Getenv("SARANSH_MODEL"); model != "" {
		c.Summary.Model = model
	}
	if tone := os.Getenv("SARANSH_TONE"); tone != "" {
		c.Summary.Tone = tone
	}
	if length := os.Getenv("SARANSH_LENGTH"); length != "" {
		c.Summary.Length = length
	}
	if rows := os.Getenv("SARANSH_MAX_ROWS"); rows != "" {
		if n, err := strconv.Atoi(rows); err == nil {
			c.Composer.MaxRows = n
		}
	}
	if images := os.Getenv("SARANSH_MAX_IMAGES"); images != "" {
		if n, err := strconv.Atoi(images); err == nil {
			c.Composer.MaxImages = n
		}
	}
	if policy := os.Getenv("SARANSH_IMAGES"); policy != "" {
		c.Composer.Images = policy
	}
	if level := os.Getenv("SARANSH_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// Limits converts the composer section to composer.Limits.
func (c *Config) Limits() composer.Limits {
	return composer.Limits{
		MaxRows:           c.Composer.MaxRows,
		Markers:           composer.SnippetMarkers{Begin: c.Composer.SnippetBegin, End: c.Composer.SnippetEnd},
		MaxImages:         c.Composer.MaxImages,
		ImageMIMETypes:    append([]string(nil), c.Composer.ImageMIMETypes...),
		TextMIMETypes:     append([]string(nil), c.Composer.TextMIMETypes...),
		ResizeDelay:       time.Duration(c.Composer.ResizeDelayMs) * time.Millisecond,
		ImagePolicy:       composer.ImagePolicy(c.Composer.Images),
		MaxTextFileBytes:  int64(c.Composer.MaxTextFileKB) * 1024,
		MaxImageDimension: c.Composer.MaxImageDimension,
	}
}

// ClientConfig converts the backend section to a summarizer configuration.
func (c *Config) ClientConfig() *summarizer.ClientConfig {
	model, err := summarizer.ParseModel(c.Summary.Model)
	if err != nil {
		model = summarizer.ModelPegasus
	}
	return &summarizer.ClientConfig{
		BaseURL:           c.Backend.URL,
		Timeout:           time.Duration(c.Backend.TimeoutSecs) * time.Second,
		ReadyPollInterval: time.Duration(c.Backend.ReadyPollMs) * time.Millisecond,
		WarmUpTimeout:     time.Duration(c.Backend.WarmUpTimeoutSecs) * time.Second,
		DefaultModel:      model,
	}
}

// Selection returns the parsed model, tone and length. Invalid values fall
// back to defaults; Validate reports them.
func (c *Config) Selection() (summarizer.Model, summarizer.Tone, summarizer.Length) {
	m, err := summarizer.ParseModel(c.Summary.Model)
	if err != nil {
		m = summarizer.ModelPegasus
	}
	t, err := summarizer.ParseTone(c.Summary.Tone)
	if err != nil {
		t = summarizer.ToneNeutral
	}
	l, err := summarizer.ParseLength(c.Summary.Length)
	if err != nil {
		l = summarizer.LengthMedium
	}
	return m, t, l
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "summary.model").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "composer.max_rows").
func (c *Config) Set(key string, value interface{}) error {
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
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(part[:1]))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, item := range strings.Split(strVal, ",") {
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
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"backend.url",
		"backend.timeout_secs",
		"backend.ready_poll_ms",
		"backend.warm_up_on_start",
		"backend.warm_up_timeout_secs",
		"composer.max_rows",
		"composer.max_images",
		"composer.images",
		"composer.resize_delay_ms",
		"composer.snippet_begin",
		"composer.snippet_end",
		"composer.max_text_file_kb",
		"composer.max_image_dimension",
		"composer.image_mime_types",
		"composer.text_mime_types",
		"summary.model",
		"summary.tone",
		"summary.length",
		"ui.theme",
		"ui.render_markdown",
		"ui.highlight_snippets",
		"ui.compact_mode",
		"ui.show_help",
		"history.enabled",
		"history.path",
		"history.max_entries",
		"logging.level",
		"logging.path",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Composer.ImageMIMETypes = append([]string(nil), c.Composer.ImageMIMETypes...)
	clone.Composer.TextMIMETypes = append([]string(nil), c.Composer.TextMIMETypes...)
	return &clone
}

// String returns the config as indented JSON for display.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
