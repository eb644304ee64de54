package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oneconcern/termstore/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.True(t, s.InMemory())
}

func TestEnvironment(t *testing.T) {
	t.Setenv("TERMSTORE_REPOSITORY", "snomedct")
	t.Setenv("TERMSTORE_COMMIT_THRESHOLD", "50")
	t.Setenv("TERMSTORE_METRICS_ENABLED", "true")

	s, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "snomedct", s.Repository)
	assert.Equal(t, 50, s.CommitThreshold)
	assert.True(t, s.Metrics.Enabled)
	assert.Equal(t, "termstore", s.Metrics.Namespace)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	pth := filepath.Join(dir, "termstore.yaml")
	require.NoError(t, os.WriteFile(pth, []byte(`
repository: loinc
store_dir: /var/lib/termstore
commit_on_close: true
metrics:
  namespace: terms
`), 0o600))

	v := New()
	used, err := ReadConfigFile(v, pth)
	require.NoError(t, err)
	assert.Equal(t, pth, used)

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "loinc", s.Repository)
	assert.Equal(t, "/var/lib/termstore", s.StoreDir)
	assert.False(t, s.InMemory())
	assert.True(t, s.CommitOnClose)
	assert.Equal(t, "terms", s.Metrics.Namespace)
	assert.Equal(t, 1000, s.CommitThreshold)

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := ReadConfigFile(New(), filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	for _, s := range []Settings{
		{},
		{Repository: "x", CacheSize: -1},
		{Repository: "x", LogLevel: "verbose"},
	} {
		err := s.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSettings))
	}
	assert.NoError(t, Defaults().Validate())
}
