package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPast    = -1
	DefaultFuture  = 14
	DefaultEditor  = "emacs -nw"
	DefaultRefresh = "0 7 * * *"
	DefaultListen  = "127.0.0.1:8080"
)

// Config holds the user's preferences.
type Config struct {
	// Calendar is the path of the calendar file.
	Calendar string `yaml:"calendar" json:"calendar"`

	// Editor is the command used by "whencal e", eg. "vi" or "emacs -nw".
	Editor string `yaml:"editor" json:"editor"`

	// Past and Future are day offsets relative to today that bound the
	// report window. Past is normally negative.
	Past   *int `yaml:"past,omitempty" json:"past,omitempty"`
	Future *int `yaml:"future,omitempty" json:"future,omitempty"`

	// Header toggles the date/time line printed above the report.
	Header *bool `yaml:"header,omitempty" json:"header,omitempty"`

	// Refresh is the cron schedule used by "whencal watch".
	Refresh string `yaml:"refresh" json:"refresh"`

	// Listen is the HTTP listen address for "whencal serve".
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// DefaultConfig returns the default configuration for a calendar at
// calendarPath.
func DefaultConfig(calendarPath string) *Config {
	c := &Config{Calendar: calendarPath}
	c.Normalize()
	return c
}

// Dir returns the directory that holds the preferences and, by default,
// the calendar: $HOME/.whencal.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("HOME unknown: %w", err)
	}
	return filepath.Join(home, ".whencal"), nil
}

// Normalize fills in missing values with defaults.
func (c *Config) Normalize() {
	if c.Editor == "" {
		c.Editor = DefaultEditor
	}
	if c.Past == nil {
		c.Past = intPtr(DefaultPast)
	}
	if c.Future == nil {
		c.Future = intPtr(DefaultFuture)
	}
	if c.Header == nil {
		c.Header = boolPtr(true)
	}
	if c.Refresh == "" {
		c.Refresh = DefaultRefresh
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
}

// PastDays returns the configured past offset or its default.
func (c *Config) PastDays() int {
	if c.Past == nil {
		return DefaultPast
	}
	return *c.Past
}

// FutureDays returns the configured future offset or its default.
func (c *Config) FutureDays() int {
	if c.Future == nil {
		return DefaultFuture
	}
	return *c.Future
}

// ShowHeader returns the configured header setting or its default.
func (c *Config) ShowHeader() bool {
	if c.Header == nil {
		return true
	}
	return *c.Header
}

// ErrNotExist is returned by Load when there is no preferences file, which
// means that first-run setup has not happened yet.
var ErrNotExist = errors.New("preferences file does not exist")

// Load reads the preferences at path. The file is normally YAML, but the
// older "key = value" per line format is also accepted.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotExist)
		}
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses preferences from data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	yerr := yaml.Unmarshal(data, &cfg)
	if yerr != nil || !isMapping(data) {
		kv, ok := ParseKeyValues(data)
		if !ok {
			if yerr != nil {
				return nil, yerr
			}
			return nil, errors.New("preferences are neither YAML nor key = value lines")
		}
		if err := cfg.setKeyValues(kv); err != nil {
			return nil, err
		}
	}
	cfg.Normalize()
	return &cfg, nil
}

func isMapping(data []byte) bool {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return false
	}
	if len(node.Content) == 0 {
		return true // empty document
	}
	return node.Content[0].Kind == yaml.MappingNode
}

// ParseKeyValues parses "key = value" lines; lines without an '=' are
// ignored. It reports false if no line held a key/value pair.
func ParseKeyValues(data []byte) (map[string]string, bool) {
	kv := map[string]string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		kv[key] = value
	}
	return kv, len(kv) > 0
}

func (c *Config) setKeyValues(kv map[string]string) error {
	for k, v := range kv {
		switch k {
		case "calendar":
			c.Calendar = v
		case "editor":
			c.Editor = v
		case "refresh":
			c.Refresh = v
		case "listen":
			c.Listen = v
		case "log_level":
			c.LogLevel = v
		case "past", "future":
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if k == "past" {
				c.Past = &n
			} else {
				c.Future = &n
			}
		case "header":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			c.Header = &b
		}
	}
	return nil
}

// Save writes cfg to path as YAML.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".whencal-preferences-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method that delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }
