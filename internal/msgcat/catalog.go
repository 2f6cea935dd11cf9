package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed prompts.en.yaml
var defaultFiles embed.FS

const defaultFile = "prompts.en.yaml"

// Catalog holds prompt templates keyed by flattened dot paths
// ("prompt.move"). Embedded defaults load first; files in an override
// directory replace individual keys.
type Catalog struct {
	mu        sync.RWMutex
	data      map[string]string
	templates map[string]*template.Template
}

// New loads the embedded defaults and then applies overrides from dir if it
// is non-empty. Every template is parsed up front so a broken override fails
// at startup rather than on the first request.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{data: make(map[string]string)}

	raw, err := fs.ReadFile(defaultFiles, defaultFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded prompts: %w", err)
	}
	flat, err := parseYAMLToFlat(raw)
	if err != nil {
		return nil, fmt.Errorf("parse embedded prompts: %w", err)
	}
	c.merge(flat)

	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read prompt dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := parseYAMLToFlat(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.merge(flat)
	}
	return nil
}

func (c *Catalog) merge(flat map[string]string) {
	c.mu.Lock()
	for k, v := range flat {
		c.data[k] = v
	}
	c.mu.Unlock()
}

func (c *Catalog) compile() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	compiled := make(map[string]*template.Template, len(c.data))
	for k, v := range c.data {
		t, err := template.New(k).Option("missingkey=error").Parse(v)
		if err != nil {
			return fmt.Errorf("compile %s: %w", k, err)
		}
		compiled[k] = t
	}
	c.templates = compiled
	return nil
}

func parseYAMLToFlat(b []byte) (map[string]string, error) {
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	flat := make(map[string]string)
	if err := flattenStrings(m, "", flat); err != nil {
		return nil, err
	}
	return flat, nil
}

func flattenStrings(src any, prefix string, out map[string]string) error {
	switch v := src.(type) {
	case map[string]any:
		for k, vv := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flattenStrings(vv, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("string value without key prefix")
		}
		out[prefix] = v
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Text returns the raw value for key.
func (c *Catalog) Text(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[strings.TrimSpace(key)]
	return v, ok
}

// Render executes the template stored under key. Missing keys in data are
// errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	c.mu.RLock()
	t, ok := c.templates[strings.TrimSpace(key)]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("template not found: %s", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
