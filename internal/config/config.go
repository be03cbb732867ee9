// Package config loads dishcalc settings from config.yaml, DISHCALC_*
// environment variables and optional TOML locale files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, as in DISHCALC_LOCALE.
	EnvPrefix = "DISHCALC"
)

// Config keys.
const (
	KeyLocale         = "locale"
	KeyLocaleFile     = "locale_file"
	KeyMeasures       = "measures"
	KeyDefaultPeople  = "default_people"
	KeyDishRoot       = "dish_root"
	KeyPlan           = "plan"
	KeyOutputDir      = "output_dir"
	KeyDataDir        = "data_dir"
	KeyWorkers        = "workers"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyHistoryEnabled = "history.enabled"
	KeyCategories     = "categories"
)

// Defaults.
const (
	DefaultLocale    = types.LocaleGerman
	DefaultPlan      = "plan.md"
	DefaultDishRoot  = "."
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "console"
)

// ErrInvalidConfig reports a value that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the resolved configuration of one invocation.
type Config struct {
	Locale         string
	LocaleFile     string
	Measures       []string // Appended to the locale's measure vocabulary.
	DefaultPeople  uint
	DishRoot       string
	Plan           string
	OutputDir      string
	DataDir        string
	Workers        int
	LogLevel       string
	LogFormat      string
	HistoryEnabled bool
	Categories     map[string][]string

	// Path is the config file that was read, empty when none existed.
	Path string
}

// Load reads config.yaml from configDir and applies DISHCALC_* environment
// overrides. A missing file is not an error.
func Load(configDir string) (*Config, error) {
	v := newViper(configDir)
	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	workers := v.GetInt(KeyWorkers)
	if workers < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeyWorkers)
	}
	people := v.GetInt(KeyDefaultPeople)
	if people < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, KeyDefaultPeople)
	}

	cfg := &Config{
		Locale:         v.GetString(KeyLocale),
		LocaleFile:     v.GetString(KeyLocaleFile),
		Measures:       v.GetStringSlice(KeyMeasures),
		DefaultPeople:  uint(people),
		DishRoot:       v.GetString(KeyDishRoot),
		Plan:           v.GetString(KeyPlan),
		OutputDir:      v.GetString(KeyOutputDir),
		DataDir:        v.GetString(KeyDataDir),
		Workers:        workers,
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
		HistoryEnabled: v.GetBool(KeyHistoryEnabled),
		Path:           v.ConfigFileUsed(),
	}
	if cfg.Path != "" {
		if cfg.Categories, err = readCategories(cfg.Path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// readCategories decodes the categories map straight from the file, since
// viper lower-cases map keys and category names are shown to the user.
func readCategories(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var file struct {
		Categories map[string][]string `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return file.Categories, nil
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLocale, DefaultLocale)
	v.SetDefault(KeyPlan, DefaultPlan)
	v.SetDefault(KeyDishRoot, DefaultDishRoot)
	v.SetDefault(KeyWorkers, 0)
	v.SetDefault(KeyDefaultPeople, 0)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyHistoryEnabled, true)

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ResolveLocale builds the locale this configuration asks for: a built-in
// locale, optionally overlaid by a TOML locale file, plus extra measures.
func (c *Config) ResolveLocale() (types.Locale, error) {
	loc, err := types.LocaleByName(c.Locale)
	if err != nil {
		return types.Locale{}, err
	}
	if c.LocaleFile != "" {
		if loc, err = LoadLocaleFile(c.LocaleFile, loc); err != nil {
			return types.Locale{}, err
		}
	}
	for _, m := range c.Measures {
		if m != "" && !loc.IsMeasure(m) {
			loc.Measures = append(loc.Measures, m)
		}
	}
	if err := loc.Validate(); err != nil {
		return types.Locale{}, err
	}
	return loc, nil
}

// LoadLocaleFile decodes a TOML locale file over base. Keys absent from the
// file keep base's values.
func LoadLocaleFile(path string, base types.Locale) (types.Locale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Locale{}, fmt.Errorf("reading %s: %w", path, err)
	}
	loc := base.Clone()
	if err := toml.Unmarshal(data, &loc); err != nil {
		return types.Locale{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return loc, nil
}

// fileConfig is the layout written by WriteDefault.
type fileConfig struct {
	Locale        string              `yaml:"locale"`
	DefaultPeople uint                `yaml:"default_people"`
	DishRoot      string              `yaml:"dish_root"`
	Plan          string              `yaml:"plan"`
	Measures      []string            `yaml:"measures,omitempty"`
	Workers       int                 `yaml:"workers"`
	Log           logSection          `yaml:"log"`
	History       historySection      `yaml:"history"`
	DataDir       string              `yaml:"data_dir,omitempty"`
	Categories    map[string][]string `yaml:"categories,omitempty"`
}

type logSection struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type historySection struct {
	Enabled bool `yaml:"enabled"`
}

// DefaultCategories is the category map written by WriteDefault for the
// clustered list.
func DefaultCategories() map[string][]string {
	return map[string][]string{
		"Backen":      {"Mehl", "Hefe", "Zucker", "Backpulver"},
		"Gemüse":      {"Zwiebeln", "Zwiebel", "Knoblauch", "Karotten", "Tomaten", "Paprika"},
		"Kühlregal":   {"Milch", "Butter", "Sahne", "Eier", "Käse", "Joghurt"},
		"Trockenware": {"Reis", "Nudeln", "Linsen"},
	}
}

// WriteDefault creates configDir and writes a default config.yaml when none
// exists. It reports whether a file was written.
func WriteDefault(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := fileConfig{
		Locale:     DefaultLocale,
		DishRoot:   DefaultDishRoot,
		Plan:       DefaultPlan,
		Log:        logSection{Level: DefaultLogLevel, Format: DefaultLogFormat},
		History:    historySection{Enabled: true},
		DataDir:    dataDir,
		Categories: DefaultCategories(),
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
