package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dishcalc/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "plan.md", cfg.Plan)
	assert.Equal(t, ".", cfg.DishRoot)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.True(t, cfg.HistoryEnabled)
	assert.Zero(t, cfg.Workers)
	assert.Zero(t, cfg.DefaultPeople)
	assert.Empty(t, cfg.Path)
	assert.Empty(t, cfg.Categories)
}

func TestLoadFile(t *testing.T) {
	dir := writeConfig(t, `locale: en
default_people: 6
dish_root: /rezepte
plan: woche.md
output_dir: /tmp/out
workers: 3
measures: [Stk, Pck]
log:
  level: debug
  format: json
history:
  enabled: false
categories:
  Backen: [Mehl, Hefe]
  Kühlregal: [Milch]
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, uint(6), cfg.DefaultPeople)
	assert.Equal(t, "/rezepte", cfg.DishRoot)
	assert.Equal(t, "woche.md", cfg.Plan)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"Stk", "Pck"}, cfg.Measures)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.HistoryEnabled)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Path)
	assert.Equal(t, map[string][]string{
		"Backen":    {"Mehl", "Hefe"},
		"Kühlregal": {"Milch"},
	}, cfg.Categories)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := writeConfig(t, "locale: de\nlog:\n  level: info\n")
	t.Setenv("DISHCALC_LOCALE", "en")
	t.Setenv("DISHCALC_LOG_LEVEL", "trace")
	t.Setenv("DISHCALC_WORKERS", "2")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative workers", "workers: -1\n"},
		{"negative people", "default_people: -4\n"},
		{"malformed yaml", "locale: [de\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestResolveLocale(t *testing.T) {
	t.Run("built-in with extra measures", func(t *testing.T) {
		cfg := &Config{Locale: "de", Measures: []string{"Stk", "g", ""}}
		loc, err := cfg.ResolveLocale()
		require.NoError(t, err)
		assert.True(t, loc.IsMeasure("Stk"))

		base, err := types.LocaleByName("de")
		require.NoError(t, err)
		assert.Len(t, loc.Measures, len(base.Measures)+1)
		assert.False(t, base.IsMeasure("Stk"))
	})

	t.Run("toml locale file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fr.toml")
		require.NoError(t, os.WriteFile(path, []byte(`name = "fr"
ingredients_heading = "Ingrédients"
person_words = ["personnes"]
measures = ["g", "cl", "c.à.s"]
shopping_marker = "#courses"
`), 0o644))

		cfg := &Config{Locale: "de", LocaleFile: path}
		loc, err := cfg.ResolveLocale()
		require.NoError(t, err)
		assert.Equal(t, "fr", loc.Name)
		assert.Equal(t, "Ingrédients", loc.IngredientsHeading)
		assert.Equal(t, []string{"personnes"}, loc.PersonWords)
		assert.True(t, loc.IsMeasure("cl"))
		assert.False(t, loc.IsMeasure("EL"))
		// Keys missing from the file keep the base locale's values.
		assert.Equal(t, "Reste", loc.RestDay)
		assert.True(t, loc.DecimalComma)
	})

	t.Run("invalid locale file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte(`person_words = []`), 0o644))
		_, err := (&Config{Locale: "de", LocaleFile: path}).ResolveLocale()
		assert.ErrorIs(t, err, types.ErrLocaleInvalid)
	})

	t.Run("unknown locale", func(t *testing.T) {
		_, err := (&Config{Locale: "xx"}).ResolveLocale()
		assert.ErrorIs(t, err, types.ErrUnknownLocale)
	})

	t.Run("missing locale file", func(t *testing.T) {
		_, err := (&Config{Locale: "de", LocaleFile: filepath.Join(t.TempDir(), "none.toml")}).ResolveLocale()
		assert.Error(t, err)
	})
}

func TestWriteDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	written, err := WriteDefault(dir, "/data/dishcalc")
	require.NoError(t, err)
	assert.True(t, written)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, "/data/dishcalc", cfg.DataDir)
	assert.True(t, cfg.HistoryEnabled)
	assert.Equal(t, DefaultCategories(), cfg.Categories)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("locale: en\n"), 0o644))
	written, err = WriteDefault(dir, "")
	require.NoError(t, err)
	assert.False(t, written)

	cfg, err = Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Locale)
}
