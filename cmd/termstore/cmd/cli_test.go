package cmd

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importYAML = `components:
  - id: "1"
    type: concept
    active: true
  - id: "2"
    type: concept
    active: true
  - id: "3"
    type: concept
    active: true
  - id: d1
    type: description
    container: "1"
    active: true
    properties:
      term: Clinical finding
  - id: r1
    type: relationship
    active: true
    properties:
      source: "2"
      destination: "1"
records:
  - key: snomedct
    type: codesystem
    body:
      version: "2024-01-31"
`

// run executes the root command with a fresh store location, and yields its output
func run(t testing.TB, storeDir string, args ...string) (string, error) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append([]string{"--store-dir", storeDir, "--loglevel", "none", "--repository", "snomedct"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func mustRun(t testing.TB, storeDir string, args ...string) string {
	out, err := run(t, storeDir, args...)
	require.NoError(t, err, "%v: %s", args, out)
	return out
}

func withMemFs(t testing.TB) afero.Fs {
	saved := appFs
	appFs = afero.NewMemMapFs()
	t.Cleanup(func() { appFs = saved })
	return appFs
}

func TestBranchCommands(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "branch", "create", "MAIN", "a")
	assert.True(t, strings.HasPrefix(out, "MAIN/a, base: "))

	mustRun(t, dir, "branch", "create", "MAIN/a", "b")
	out = mustRun(t, dir, "branch", "list")
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, "MAIN/a/b")

	_, err := run(t, dir, "branch", "create", "MAIN", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	mustRun(t, dir, "branch", "delete", "MAIN/a")
	out = mustRun(t, dir, "branch", "get", "MAIN/a/b")
	assert.Contains(t, out, "deleted", "descendants are deleted as well")

	_, err = run(t, dir, "branch", "get", "MAIN/z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestImportGetClear(t *testing.T) {
	dir := t.TempDir()
	fs := withMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/import.yaml", []byte(importYAML), 0o600))

	out := mustRun(t, dir, "import", "--branch", "MAIN", "--file", "/import.yaml", "--threshold", "2", "--author", "loader")
	assert.Equal(t, "imported 6 documents in 3 commits\n", out)

	out = mustRun(t, dir, "get", "--branch", "MAIN", "--type", "description", "d1")
	assert.Contains(t, out, "term: Clinical finding")
	assert.Contains(t, out, "container: \"1\"")

	out = mustRun(t, dir, "get", "--branch", "MAIN", "--type", "codesystem", "snomedct")
	assert.Contains(t, out, "2024-01-31")

	out = mustRun(t, dir, "info")
	assert.Contains(t, out, "repository: snomedct")
	assert.Contains(t, out, "branches: 1")
	assert.Contains(t, out, "store: "+dir)

	t.Run("branches see content as of their base", func(t *testing.T) {
		mustRun(t, dir, "branch", "create", "MAIN", "task")
		out := mustRun(t, dir, "get", "--branch", "MAIN/task^", "--type", "concept", "2")
		assert.Contains(t, out, "active: true")
	})

	out = mustRun(t, dir, "clear", "--branch", "MAIN")
	assert.True(t, strings.HasPrefix(out, "removed 5 components in commit "), out)

	_, err := run(t, dir, "get", "--branch", "MAIN", "--type", "concept", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	out = mustRun(t, dir, "get", "--branch", "MAIN", "--type", "codesystem", "snomedct")
	assert.Contains(t, out, "snomedct", "records survive a clear")

	out = mustRun(t, dir, "clear", "--branch", "MAIN")
	assert.Equal(t, "nothing to clear\n", out)

	out = mustRun(t, dir, "get", "--branch", "MAIN/task", "--type", "concept", "1")
	assert.Contains(t, out, "type: concept", "the child branch is not affected")
}

func TestImportErrors(t *testing.T) {
	dir := t.TempDir()
	fs := withMemFs(t)

	_, err := run(t, dir, "import", "--branch", "MAIN", "--file", "/missing.yaml", "--threshold", "2")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("components: [{id: x, color: blue}]\n"), 0o600))
	_, err = run(t, dir, "import", "--branch", "MAIN", "--file", "/bad.yaml", "--threshold", "2")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/import.yaml", []byte(importYAML), 0o600))
	_, err = run(t, dir, "import", "--branch", "MAIN/nope", "--file", "/import.yaml", "--threshold", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestImportStopsOnRejectedDocument(t *testing.T) {
	dir := t.TempDir()
	fs := withMemFs(t)
	const partial = `components:
  - id: "1"
    type: concept
    active: true
  - id: "2"
    type: concept
    active: true
  - id: "3"
    type: concept
    active: true
  - id: untyped
    active: true
`
	require.NoError(t, afero.WriteFile(fs, "/partial.yaml", []byte(partial), 0o600))

	_, err := run(t, dir, "import", "--branch", "MAIN", "--file", "/partial.yaml", "--threshold", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no type")

	// the store is released, with the first flush committed and the rest discarded
	out := mustRun(t, dir, "get", "--branch", "MAIN", "--type", "concept", "2")
	assert.Contains(t, out, "id: \"2\"")
	_, err = run(t, dir, "get", "--branch", "MAIN", "--type", "concept", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHealth(t *testing.T) {
	out := mustRun(t, t.TempDir(), "health")
	assert.Contains(t, out, "GREEN")
}

func TestConfigGenerate(t *testing.T) {
	dir := t.TempDir()
	fs := withMemFs(t)

	out := mustRun(t, dir, "config", "generate")
	assert.Contains(t, out, "repository: snomedct")
	assert.Contains(t, out, fmt.Sprintf("store_dir: %s", dir))

	out = mustRun(t, dir, "config", "generate", "--file", "/etc/termstore.yaml")
	assert.Equal(t, "configuration written to /etc/termstore.yaml\n", out)
	written, err := afero.ReadFile(fs, "/etc/termstore.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(written), "commit_threshold: 1000")
	params.config.file = ""
}
