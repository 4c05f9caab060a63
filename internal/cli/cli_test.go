package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/refbundle"
	"github.com/reoring/refbundle/internal/config"
	"github.com/reoring/refbundle/internal/logger"
)

const accountDoc = `defs:
  Account:
    properties:
      address:
        $ref: common.yaml#/defs/Address
`

const commonDoc = `defs:
  Address:
    properties:
      country: {$ref: '#/defs/Country'}
  Country:
    type: string
`

// execute runs the command tree in dir with fresh flag values.
func execute(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)
	for _, c := range []*cobra.Command{rootCmd, bundleCmd, watchCmd, versionCmd} {
		resetFlags(c.Flags())
		resetFlags(c.PersistentFlags())
	}
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func TestVersionCmd_Executes(t *testing.T) {
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, _, err := execute(t, t.TempDir(), "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "refbundle version test-version-1.0.0")
}

func TestBundleCmd_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"account.yaml": accountDoc, "common.yaml": commonDoc})

	out, _, err := execute(t, dir, "bundle", "account.yaml", "--type", "Account")
	require.NoError(t, err)
	assert.Contains(t, out, "bundled account.yaml -> Generated/account-resolved.yaml (3 types, 2 inlined, 0 warnings)")

	data, err := os.ReadFile(filepath.Join(dir, "Generated", "account-resolved.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "x-inlined-types:")
	assert.Contains(t, string(data), "'#/defs/Address'")
}

func TestBundleCmd_StrictWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"account.yaml": accountDoc + "      ghost:\n        $ref: missing.yaml#/defs/Ghost\n",
		"common.yaml":  commonDoc,
	})

	_, errOut, err := execute(t, dir, "bundle", "account.yaml", "--strict")
	require.Error(t, err)
	assert.Contains(t, errOut, "document_not_found")
	_, statErr := os.Stat(filepath.Join(dir, "Generated", "account-resolved.yaml"))
	assert.True(t, os.IsNotExist(statErr))

	// Without --strict the same input bundles with a warning.
	_, errOut, err = execute(t, dir, "bundle", "account.yaml")
	require.NoError(t, err)
	assert.Contains(t, errOut, "warning: document_not_found")
	_, statErr = os.Stat(filepath.Join(dir, "Generated", "account-resolved.yaml"))
	assert.NoError(t, statErr)
}

func TestBundleCmd_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"api/account.yaml":          accountDoc,
		"api/common.yaml":           commonDoc,
		"api/order.json":            `{"defs": {"Order": {"properties": {"to": {"$ref": "common.yaml#/defs/Address"}}}}}`,
		"api/notes.txt":             "not a schema",
		"api/account-resolved.yaml": "stale: true\n",
	})

	out, _, err := execute(t, dir, "bundle", "api", "--policy", "path", "--out-dir", "out")
	require.NoError(t, err)
	assert.Contains(t, out, "bundled api/account.yaml -> api/out/account-resolved.yaml")
	assert.Contains(t, out, "bundled api/common.yaml -> api/out/common-resolved.yaml")
	assert.Contains(t, out, "bundled api/order.json -> api/out/order-resolved.json")
	assert.NotContains(t, out, "account-resolved-resolved")
	assert.Contains(t, out, "3 of 3 documents bundled, 0 warnings, 0 notes")

	data, err := os.ReadFile(filepath.Join(dir, "api", "out", "order-resolved.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"$ref": "../common.yaml#/defs/Address"`)
}

func TestBundleCmd_ConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"account.yaml":     accountDoc,
		"common.yaml":      commonDoc,
		config.DefaultFile: "out_dir = \"dist\"\nsuffix = \".bundle\"\n",
	})

	out, _, err := execute(t, dir, "bundle", "account.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "-> dist/account.bundle.yaml")

	out, _, err = execute(t, dir, "bundle", "account.yaml", "--out-dir", "build")
	require.NoError(t, err)
	assert.Contains(t, out, "-> build/account.bundle.yaml")
}

func TestBundleCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"inner/a.yaml": "a: 1\n",
		"outer.yaml":   "b: 2\n",
		"broken.yaml":  "a: [\n",
	})

	_, _, err := execute(t, dir, "bundle", "outer.yaml", "--base", "inner")
	assert.ErrorContains(t, err, "outside the base directory")

	_, errOut, err := execute(t, dir, "bundle", "broken.yaml")
	assert.Error(t, err)
	assert.Contains(t, errOut, "document_parse_error")

	_, _, err = execute(t, dir, "bundle", "outer.yaml", "--policy", "bogus")
	assert.Error(t, err)

	_, _, err = execute(t, dir, "bundle")
	assert.Error(t, err)
}

func TestWatch_RelevantEvents(t *testing.T) {
	r := &runner{cfg: config.Defaults()}
	cases := []struct {
		ev   fsnotify.Event
		want bool
	}{
		{fsnotify.Event{Name: "api/account.yaml", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "api/order.json", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "api/old.yml", Op: fsnotify.Remove}, true},
		{fsnotify.Event{Name: "api/account.yaml", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "api/account-resolved.yaml", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "api/Generated", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "api/notes.txt", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.relevant(tc.ev), tc.ev.String())
	}
}

func TestWatch_FollowsReferencedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"api/account.yaml":   "defs:\n  Account:\n    properties:\n      address: {$ref: '../shared/common.yaml#/defs/Address'}\n",
		"shared/common.yaml": commonDoc,
	})
	var out, errOut bytes.Buffer
	r := &runner{
		cfg:    config.Defaults(),
		opts:   refbundle.DefaultOptions(),
		base:   dir,
		log:    logger.Discard(),
		out:    &out,
		errOut: &errOut,
	}
	api := filepath.Join(dir, "api")
	require.NoError(t, r.run(context.Background(), api), errOut.String())

	w, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.Add(api))
	watched := map[string]bool{api: true}

	r.follow(w, watched)
	assert.ElementsMatch(t, []string{api, filepath.Join(dir, "shared")}, w.WatchList())

	// A second pass adds nothing.
	r.follow(w, watched)
	assert.Len(t, w.WatchList(), 2)
}
