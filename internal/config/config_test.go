package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/refbundle"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, refbundle.Local(), opts.Policy)
	assert.Equal(t, refbundle.DefaultMaxDepth, opts.MaxDepth)
	assert.Equal(t, refbundle.DefaultInlinedKey, opts.InlinedKey)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte(`
policy = "namespaced"
prefix = "$defs"
out_dir = "build"
types = ["Account", "Order"]
max_depth = 8
strict = true
`), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "namespaced", cfg.Policy)
	assert.Equal(t, "build", cfg.OutDir)
	assert.Equal(t, []string{"Account", "Order"}, cfg.Types)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.True(t, cfg.Strict)
	assert.Equal(t, "-resolved", cfg.Suffix)

	t.Setenv("REFBUNDLE_OUT_DIR", "dist")
	t.Setenv("REFBUNDLE_STRICT", "false")
	t.Setenv("REFBUNDLE_TYPES", "Pet, Tag,")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.OutDir)
	assert.False(t, cfg.Strict)
	assert.Equal(t, []string{"Pet", "Tag"}, cfg.Types)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, refbundle.Namespaced("$defs"), opts.Policy)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REFBUNDLE_SUFFIX=-bundled\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("REFBUNDLE_SUFFIX") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "-bundled", cfg.Suffix)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("policy = \n"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("REFBUNDLE_MAX_DEPTH", "deep")
	_, err = Load("")
	assert.ErrorContains(t, err, "REFBUNDLE_MAX_DEPTH")
}

func TestOptions_Invalid(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Policy = "inline" },
		func(c *Config) { c.Select = "some" },
		func(c *Config) { c.Unresolved = "drop" },
		func(c *Config) { c.MaxDepth = -1 },
	} {
		cfg := Defaults()
		mutate(&cfg)
		_, err := cfg.Options()
		assert.Error(t, err)
	}
}

func TestOutputPath(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "schemas/Generated/root-resolved.yaml", cfg.OutputPath("schemas/root.yaml"))
	assert.Equal(t, "Generated/api-resolved.json", cfg.OutputPath("api.json"))

	assert.True(t, cfg.IsOutput("root-resolved.yaml"))
	assert.False(t, cfg.IsOutput("root.yaml"))
	cfg.Suffix = ""
	assert.False(t, cfg.IsOutput("root-resolved.yaml"))
}
