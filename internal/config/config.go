// Package config resolves refbundle settings. Sources are layered, later
// ones winning: built-in defaults, the TOML file, REFBUNDLE_* environment
// variables (a .env file in the working directory is loaded first), and
// finally command-line flags applied by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/reoring/refbundle"
)

// DefaultFile is read when no config path is given and it exists.
const DefaultFile = "refbundle.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REFBUNDLE_"

// Config mirrors the CLI flags.
type Config struct {
	Base       string   `toml:"base"`
	Types      []string `toml:"types"`
	Strict     bool     `toml:"strict"`
	Policy     string   `toml:"policy"`
	Prefix     string   `toml:"prefix"`
	OutDir     string   `toml:"out_dir"`
	Suffix     string   `toml:"suffix"`
	Select     string   `toml:"select"`
	Unresolved string   `toml:"unresolved"`
	MaxDepth   int      `toml:"max_depth"`
	Workers    int      `toml:"workers"`
	Containers []string `toml:"containers"`
	InlinedKey string   `toml:"inlined_key"`
	Verbose    bool     `toml:"verbose"`
}

// Defaults returns the built-in settings.
func Defaults() Config {
	return Config{
		Policy:     "local",
		Prefix:     refbundle.DefaultNamespace,
		OutDir:     "Generated",
		Suffix:     "-resolved",
		Select:     "all",
		Unresolved: "keep",
		MaxDepth:   refbundle.DefaultMaxDepth,
		Workers:    4,
		Containers: append([]string(nil), refbundle.DefaultContainers...),
		InlinedKey: refbundle.DefaultInlinedKey,
	}
}

// Load layers the TOML file at file (DefaultFile when empty, skipped if it
// does not exist) and the environment over Defaults.
func Load(file string) (Config, error) {
	cfg := Defaults()

	explicit := file != ""
	if !explicit {
		file = DefaultFile
	}
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", file, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	// Ignore error - .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = SplitList(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}
	integer := func(key string, dst *int) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("BASE", &c.Base)
	list("TYPES", &c.Types)
	str("POLICY", &c.Policy)
	str("PREFIX", &c.Prefix)
	str("OUT_DIR", &c.OutDir)
	str("SUFFIX", &c.Suffix)
	str("SELECT", &c.Select)
	str("UNRESOLVED", &c.Unresolved)
	list("CONTAINERS", &c.Containers)
	str("INLINED_KEY", &c.InlinedKey)
	return errors.Join(
		boolean("STRICT", &c.Strict),
		boolean("VERBOSE", &c.Verbose),
		integer("MAX_DEPTH", &c.MaxDepth),
		integer("WORKERS", &c.Workers),
	)
}

// SplitList splits a comma-separated value, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Options converts the settings into bundling options.
func (c Config) Options() (refbundle.Options, error) {
	policy, err := refbundle.ParsePolicy(c.Policy, c.Prefix)
	if err != nil {
		return refbundle.Options{}, err
	}
	sel, err := refbundle.ParseSelection(c.Select)
	if err != nil {
		return refbundle.Options{}, err
	}
	unresolved, err := refbundle.ParseUnresolved(c.Unresolved)
	if err != nil {
		return refbundle.Options{}, err
	}
	if c.MaxDepth < 0 {
		return refbundle.Options{}, fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}
	return refbundle.Options{
		Types:      append([]string(nil), c.Types...),
		Policy:     policy,
		Containers: append([]string(nil), c.Containers...),
		Select:     sel,
		Unresolved: unresolved,
		Strict:     c.Strict,
		MaxDepth:   c.MaxDepth,
		InlinedKey: c.InlinedKey,
	}, nil
}

// OutputPath returns where the bundle of root is written:
// <dir of root>/<OutDir>/<stem><Suffix><ext>. root is slash separated.
func (c Config) OutputPath(root string) string {
	dir, base := path.Split(root)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return path.Join(dir, c.OutDir, stem+c.Suffix+ext)
}

// IsOutput reports whether name (a file name without directory) looks like
// a bundle this configuration writes.
func (c Config) IsOutput(name string) bool {
	if c.Suffix == "" {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(name, path.Ext(name)), c.Suffix)
}
