package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix marks environment variables that override configuration values.
// A double underscore separates path components, so
// DRAMPERF_PERF_MODEL__DRAM__ACCESS_COST sets perf_model/dram/access_cost.
const EnvPrefix = "DRAMPERF_"

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set take precedence.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

// ApplyEnv copies every prefixed variable in environ (KEY=VALUE entries, as
// returned by os.Environ) into the tree. Values are parsed as YAML scalars so
// that numbers and booleans keep their types.
func (t *Tree) ApplyEnv(environ []string) int {
	applied := 0

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}

		name := strings.TrimPrefix(k, EnvPrefix)
		if name == "" {
			continue
		}

		path := strings.ToLower(strings.ReplaceAll(name, "__", "/"))
		t.Set(path, parseScalar(v))
		applied++
	}

	return applied
}

// ApplyProcessEnv applies the current process environment.
func (t *Tree) ApplyProcessEnv() int {
	return t.ApplyEnv(os.Environ())
}

func parseScalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}

	switch v.(type) {
	case bool, int, float64, string:
		return v
	default:
		return s
	}
}

// Override applies a single "path=value" assignment, as given on a command
// line.
func (t *Tree) Override(assignment string) error {
	path, v, ok := strings.Cut(assignment, "=")
	path = strings.Trim(strings.TrimSpace(path), "/")
	if !ok || path == "" {
		return fmt.Errorf("override %q: want path=value", assignment)
	}

	t.Set(path, parseScalar(strings.TrimSpace(v)))

	return nil
}
