// Package config provides hierarchical simulator configuration addressed by
// slash-separated paths such as "perf_model/dram/queue_model/type".
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/dramperf/timing/simtime"
)

// ErrNotFound is returned when a path does not name a value.
var ErrNotFound = errors.New("config key not found")

// Reader is the read-only view the timing models use when they need to know
// how the simulator was configured.
type Reader interface {
	GetString(path string, def string) string
	GetBool(path string, def bool) bool
}

// Tree is a configuration document.
type Tree struct {
	root map[string]any
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{root: make(map[string]any)}
}

// Load reads a configuration file. Files ending in .json are parsed with
// encoding/json, everything else as YAML.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		root := make(map[string]any)
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		return &Tree{root: root}, nil
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return t, nil
}

// Parse builds a Tree from a YAML document.
func Parse(data []byte) (*Tree, error) {
	root := make(map[string]any)
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &Tree{root: root}, nil
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// Lookup returns the raw value at path.
func (t *Tree) Lookup(path string) (any, error) {
	var node any = t.root
	for _, part := range splitPath(path) {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}

		node, ok = m[part]
		if !ok {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
	}
	return node, nil
}

// Has reports whether path names a value.
func (t *Tree) Has(path string) bool {
	_, err := t.Lookup(path)
	return err == nil
}

// Set stores value at path, creating intermediate sections.
func (t *Tree) Set(path string, value any) {
	parts := splitPath(path)
	node := t.root
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			node[part] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
}

// GetString returns the value at path rendered as a string, or def.
func (t *Tree) GetString(path string, def string) string {
	v, err := t.Lookup(path)
	if err != nil || v == nil {
		return def
	}

	switch x := v.(type) {
	case string:
		return x
	case map[string]any, []any:
		return def
	default:
		return fmt.Sprint(x)
	}
}

// GetBool returns the boolean at path, or def if it is missing or not a
// boolean.
func (t *Tree) GetBool(path string, def bool) bool {
	v, err := t.Lookup(path)
	if err != nil {
		return def
	}

	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}

// GetInt returns the integer at path, or def.
func (t *Tree) GetInt(path string, def int) int {
	v, err := t.Lookup(path)
	if err != nil {
		return def
	}

	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case string:
		i, err := strconv.Atoi(x)
		if err != nil {
			return def
		}
		return i
	default:
		return def
	}
}

// GetFloat returns the number at path, or def.
func (t *Tree) GetFloat(path string, def float64) float64 {
	v, err := t.Lookup(path)
	if err != nil {
		return def
	}

	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// GetTime returns the duration at path. Strings carry a unit ("100ns"); bare
// numbers are nanoseconds.
func (t *Tree) GetTime(path string, def simtime.Time) simtime.Time {
	s := t.GetString(path, "")
	if s == "" {
		return def
	}

	v, err := simtime.ParseTime(s)
	if err != nil {
		return def
	}
	return v
}

// Decode unmarshals the section at path into out, which should carry yaml
// struct tags. A missing section leaves out untouched.
func (t *Tree) Decode(path string, out any) error {
	v, err := t.Lookup(path)
	if errors.Is(err, ErrNotFound) {
		return nil
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode section %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode section %s: %w", path, err)
	}

	return nil
}
