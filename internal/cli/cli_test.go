package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	brotRecipe = `# Brot
Für 4 Personen

## Zutaten
- 500 g Mehl
- 2 Eier
`
	pizzaRecipe = `# Pizza
2 Portionen

## Zutaten
- 300 g Mehl
- xyz Hefe
`
	listPlan = `Personen: 4
Starttag: 2024-01-01

Montag: [[Brot]]
Dienstag (2): [[Pizza]], [[Brot]] (8)
`
	wantList = "- Eier [2, 4] (Brot)\n- Hefe [0] (Pizza)\n- Mehl [500g, 1000g, 300g] (Brot, Pizza)\n"
)

type env struct {
	root   string
	config string
	data   string
	out    string
	dishes string
	plan   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	root := t.TempDir()
	e := env{
		root:   root,
		config: filepath.Join(root, "config"),
		data:   filepath.Join(root, "data"),
		out:    filepath.Join(root, "out"),
		dishes: filepath.Join(root, "rezepte"),
		plan:   filepath.Join(root, "plan.md"),
	}
	e.write(t, filepath.Join("rezepte", "Brot.md"), brotRecipe)
	e.write(t, filepath.Join("rezepte", "italienisch", "Pizza.md"), pizzaRecipe)
	e.write(t, "plan.md", listPlan)
	return e
}

func (e env) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(e.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// exec runs dishcalc with the environment's directories and returns the
// exit code, stdout and stderr.
func (e env) exec(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{
		"--config-dir", e.config,
		"--data-dir", e.data,
		"--output-dir", e.out,
		"--dish-root", e.dishes,
		"--plan", e.plan,
	}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunCommand(t *testing.T) {
	e := newEnv(t)

	code, stdout, stderr := e.exec(t, "run")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, wantList, stdout)
	assert.Contains(t, stderr, "warning:")
	assert.Contains(t, stderr, "xyz")

	data, err := os.ReadFile(filepath.Join(e.out, "list.md"))
	require.NoError(t, err)
	assert.Equal(t, wantList, string(data))
	assert.NoFileExists(t, filepath.Join(e.out, "list_clustered.md"))
}

func TestRunWritesClusteredListWhenCategoriesConfigured(t *testing.T) {
	e := newEnv(t)
	e.write(t, filepath.Join("config", "config.yaml"), "categories:\n  Backen: [Mehl, Hefe]\n")

	code, _, stderr := e.exec(t, "run")
	require.Equal(t, exitSuccess, code, stderr)

	data, err := os.ReadFile(filepath.Join(e.out, "list_clustered.md"))
	require.NoError(t, err)
	assert.Equal(t, "## Backen\n\n- Hefe [0] (Pizza)\n- Mehl [500g, 1000g, 300g] (Brot, Pizza)\n\n## Sonstiges\n\n- Eier [2, 4] (Brot)\n", string(data))
}

func TestRunJSON(t *testing.T) {
	e := newEnv(t)

	code, stdout, stderr := e.exec(t, "run", "--json")
	require.Equal(t, exitSuccess, code, stderr)

	var got struct {
		RunID     string `json:"run_id"`
		Artifacts struct {
			List string `json:"list"`
			JSON string `json:"json"`
		} `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, filepath.Join(e.out, "list.md"), got.Artifacts.List)
	assert.FileExists(t, got.Artifacts.JSON)
}

func TestRunFailureWritesNothing(t *testing.T) {
	e := newEnv(t)
	e.write(t, filepath.Join("rezepte", "italienisch", "Pizza.md"), "# Pizza\n\n## Zutaten\n- 300 g Mehl\n")

	code, stdout, stderr := e.exec(t, "run")
	assert.Equal(t, exitUserError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Pizza.md")
	assert.NoFileExists(t, filepath.Join(e.out, "list.md"))

	code, stdout, _ = e.exec(t, "history", "list")
	assert.Equal(t, exitSuccess, code)
	assert.Empty(t, stdout)
}

func TestRunMissingDish(t *testing.T) {
	e := newEnv(t)
	e.write(t, "plan.md", "Personen: 4\nStarttag: 2024-01-01\n\nMontag: [[Brott]]\n")

	code, _, stderr := e.exec(t, "run")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "Brott")
	assert.Contains(t, stderr, "Brot")
}

func TestHistoryCommands(t *testing.T) {
	e := newEnv(t)

	code, _, stderr := e.exec(t, "run")
	require.Equal(t, exitSuccess, code, stderr)

	code, stdout, stderr := e.exec(t, "history", "list", "--json")
	require.Equal(t, exitSuccess, code, stderr)
	var runs []struct {
		ID       string `json:"id"`
		PlanPath string `json:"plan_path"`
		Servings int    `json:"servings"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, e.plan, runs[0].PlanPath)
	assert.Equal(t, 3, runs[0].Servings)

	code, stdout, stderr = e.exec(t, "history", "show", runs[0].ID[:18])
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, wantList, stdout)

	code, _, _ = e.exec(t, "history", "show", "ffffffff")
	assert.Equal(t, exitUserError, code)
}

func TestNoHistory(t *testing.T) {
	e := newEnv(t)

	code, _, stderr := e.exec(t, "--no-history", "run")
	require.Equal(t, exitSuccess, code, stderr)

	code, stdout, _ := e.exec(t, "history", "list", "--json")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "null\n", stdout)
}

func TestCheckCommand(t *testing.T) {
	e := newEnv(t)

	code, stdout, stderr := e.exec(t, "check")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, stdout, "list plan starting 2024-01-01 for 4")
	assert.Contains(t, stdout, "[[Brot]] (8)")
	assert.NoFileExists(t, filepath.Join(e.out, "list.md"))

	e.write(t, "plan.md", "Personen: 4\nStarttag: 2024-01-01\n\nMontag: [[Kuchen]], [[Brot]]\n")
	code, _, stderr = e.exec(t, "check")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "Kuchen")
	assert.Contains(t, stderr, "1 reference failed to check")
}

func TestCheckSyntaxError(t *testing.T) {
	e := newEnv(t)
	e.write(t, "plan.md", "Personen: 4\nStarttag: 2024-01-01\nMontag: [[Brot\n")

	code, _, stderr := e.exec(t, "check")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "plan.md:3:")
}

func TestScaleCommand(t *testing.T) {
	e := newEnv(t)

	code, stdout, stderr := e.exec(t, "scale", "Brot", "6")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, "# Brot (6, recipe for 4)\n\n- 750g Mehl\n- 3 Eier\n", stdout)

	code, _, _ = e.exec(t, "scale", "Brot", "viele")
	assert.Equal(t, exitUserError, code)

	code, _, _ = e.exec(t, "scale", "Brot")
	assert.Equal(t, exitUserError, code)
}

func TestDishesCommand(t *testing.T) {
	e := newEnv(t)
	e.write(t, filepath.Join("rezepte", "alt", "Brot.md"), brotRecipe)

	code, stdout, stderr := e.exec(t, "dishes")
	require.Equal(t, exitSuccess, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Brot")
	assert.Contains(t, lines[0], "duplicate")
	assert.Contains(t, lines[2], "Pizza")

	code, stdout, _ = e.exec(t, "dishes", "--suggest", "Piza")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "Pizza\n", stdout)
}

func TestInitCommand(t *testing.T) {
	e := newEnv(t)

	code, stdout, stderr := e.exec(t, "init")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, stdout, "wrote "+filepath.Join(e.config, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.config, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.data, "history.db"))

	code, stdout, _ = e.exec(t, "init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout, "kept ")
}

func TestVersionCommand(t *testing.T) {
	e := newEnv(t)
	code, stdout, _ := e.exec(t, "version")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, stdout, "dishcalc v")
	assert.Contains(t, stdout, "module: github.com/mesh-intelligence/dishcalc")
}

func TestUserErrors(t *testing.T) {
	e := newEnv(t)

	code, _, _ := e.exec(t, "--no-such-flag", "run")
	assert.Equal(t, exitUserError, code)

	code, _, stderr := e.exec(t, "--locale", "xx", "run")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "unknown locale")

	code, _, _ = e.exec(t, "run", filepath.Join(e.root, "missing.md"))
	assert.Equal(t, exitUserError, code)

	e.write(t, filepath.Join("config", "config.yaml"), "log:\n  level: loud\n")
	code, _, _ = e.exec(t, "run")
	assert.Equal(t, exitUserError, code)
}
