package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Key is a dotted path into the config file, such as "task.frameEnd".
type Key []string

func (k Key) String() string { return strings.Join(k, ".") }

// ParseKey splits s on dots and checks each segment against the yaml
// names of Config, so typos fail before anything is written.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return nil, &ConfigError{Message: "empty key"}
	}
	parts := strings.Split(s, ".")
	t := reflect.TypeFor[Config]()
	for i, seg := range parts {
		if seg == "" {
			return nil, &ConfigError{Message: fmt.Sprintf("key %q has an empty segment", s)}
		}
		if t.Kind() != reflect.Struct {
			return nil, &ConfigError{Message: fmt.Sprintf("key %q: %s is not a section", s, strings.Join(parts[:i], "."))}
		}
		f, ok := yamlField(t, seg)
		if !ok {
			return nil, &ConfigError{Message: fmt.Sprintf("unknown key %q", s)}
		}
		t = f.Type
	}
	return Key(parts), nil
}

func yamlField(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := range t.NumField() {
		f := t.Field(i)
		if tag, _, _ := strings.Cut(f.Tag.Get("yaml"), ","); tag == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// Document is the config file as generic YAML. Editing a Document keeps
// every key the edit does not touch, including ${VAR} references.
type Document map[string]any

// LoadDocument reads the file at path. A missing file yields an empty Document.
func LoadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return nil, err
	}

	doc := Document{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return doc, nil
}

// Save writes the document to path through a temporary file so readers
// never observe a partial config.
func (d Document) Save(path string) error {
	data, err := yaml.Marshal(map[string]any(d))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Resolve merges the document over Defaults and validates the result.
func (d Document) Resolve() (Config, error) {
	cfg := Defaults()
	data, err := yaml.Marshal(map[string]any(d))
	if err != nil {
		return cfg, err
	}
	if err := decode(data, &cfg); err != nil {
		return cfg, err
	}
	if issues := Validate(&cfg); len(issues) > 0 {
		return cfg, &ConfigError{Message: issues[0].String()}
	}
	return cfg, nil
}

// Get returns the value at k.
func (d Document) Get(k Key) (any, bool) {
	m := d.section(k, false)
	if m == nil {
		return nil, false
	}
	v, ok := m[k[len(k)-1]]
	return v, ok
}

// Set stores v at k, creating sections as needed.
func (d Document) Set(k Key, v any) {
	d.section(k, true)[k[len(k)-1]] = v
}

// Unset removes the value at k and reports whether it was present.
// Emptied sections are kept.
func (d Document) Unset(k Key) bool {
	m := d.section(k, false)
	if m == nil {
		return false
	}
	last := k[len(k)-1]
	if _, ok := m[last]; !ok {
		return false
	}
	delete(m, last)
	return true
}

// section walks to the map holding k's last segment. With create set,
// missing or scalar sections are replaced by empty maps.
func (d Document) section(k Key, create bool) map[string]any {
	m := map[string]any(d)
	for _, seg := range k[:len(k)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			if !create {
				return nil
			}
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	return m
}
