// Package config loads ClozeMark settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/ClozeMark/core/cloze"
	"github.com/FocuswithJustin/ClozeMark/core/editor"
	"github.com/FocuswithJustin/ClozeMark/core/errors"
	"github.com/FocuswithJustin/ClozeMark/internal/logging"
)

// Config is the full settings tree.
type Config struct {
	Document DocumentConfig `yaml:"document"`
	Log      LogConfig      `yaml:"log"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
}

// DocumentConfig holds engine defaults.
type DocumentConfig struct {
	Placeholder string `yaml:"placeholder"`
	// Visible is a comma-separated tier list, "all" or "none".
	Visible string `yaml:"visible"`
	BulkCap int    `yaml:"bulk_cap" validate:"gt=0"`
}

// LogConfig selects the log level and format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig configures the websocket session server.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
	// AllowedOrigins lists the Origin header values accepted on upgrade.
	// Empty means same-host only.
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"`
}

// StoreConfig locates the document store.
type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Document: DocumentConfig{
			Placeholder: cloze.DefaultPlaceholder,
			Visible:     "all",
			BulkCap:     editor.DefaultBulkCap,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8710",
		},
		Store: StoreConfig{
			Path: "clozemark.db",
		},
	}
}

// Load reads path and merges it onto Default. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.NewIO("read config", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.NewParse("yaml", path, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Write saves cfg to path, creating the directory when needed.
func Write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIO("mkdir", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewIO("write config", path, err)
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.NewValidation(fieldPath(fe.Namespace()), describe(fe))
		}
		return errors.NewValidation("config", err.Error())
	}
	if _, err := c.VisiblePriorities(); err != nil {
		return errors.NewValidation("document.visible", err.Error())
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.NewValidation("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return errors.NewValidation("log.format", err.Error())
	}
	return nil
}

// configValidate checks struct tags, naming fields by their YAML keys.
var configValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldPath turns "Config.server.addr" into "server.addr".
func fieldPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return rest
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "gt":
		return "must be greater than " + fe.Param()
	case "hostname_port":
		return fmt.Sprintf("%q is not a host:port address", fe.Value())
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

// VisiblePriorities parses Document.Visible.
func (c Config) VisiblePriorities() (cloze.PrioritySet, error) {
	return cloze.ParsePrioritySet(c.Document.Visible)
}

// EngineOptions converts the document settings for editor.New.
func (c Config) EngineOptions() editor.Options {
	visible, _ := c.VisiblePriorities()
	return editor.Options{
		Placeholder: c.Document.Placeholder,
		Visible:     visible,
		HideAll:     visible == 0,
		BulkCap:     c.Document.BulkCap,
	}
}

// InitLogging applies the log settings to the global logger.
func (c Config) InitLogging() error {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return errors.NewValidation("log.level", err.Error())
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return errors.NewValidation("log.format", err.Error())
	}
	logging.InitLogger(level, format)
	return nil
}
