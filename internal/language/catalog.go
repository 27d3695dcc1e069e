// Package language holds the catalog of languages offered for translation.
package language

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var builtin []byte

// Language is a selectable translation language
type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// Catalog is an ordered, read-only set of languages
type Catalog struct {
	languages []Language
	byCode    map[string]Language
}

type catalogFile struct {
	Languages []Language `yaml:"languages"`
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := Parse(builtin)
	if err != nil {
		panic("language: invalid built-in catalog: " + err.Error())
	}
	return c
}

// Load reads a catalog from a YAML file, or returns the built-in one if path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML data
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse language catalog: %w", err)
	}
	if len(f.Languages) == 0 {
		return nil, fmt.Errorf("language catalog is empty")
	}

	c := &Catalog{byCode: make(map[string]Language, len(f.Languages))}
	for _, l := range f.Languages {
		l.Code = strings.ToLower(strings.TrimSpace(l.Code))
		l.Name = strings.TrimSpace(l.Name)
		if l.Code == "" || l.Name == "" {
			return nil, fmt.Errorf("language entry needs both code and name")
		}
		if _, dup := c.byCode[l.Code]; dup {
			return nil, fmt.Errorf("duplicate language code %q", l.Code)
		}
		c.byCode[l.Code] = l
		c.languages = append(c.languages, l)
	}
	return c, nil
}

// Lookup returns the language for code
func (c *Catalog) Lookup(code string) (Language, bool) {
	l, ok := c.byCode[strings.ToLower(code)]
	return l, ok
}

// Name returns the display name for code, falling back to the code itself
func (c *Catalog) Name(code string) string {
	if l, ok := c.Lookup(code); ok {
		return l.Name
	}
	return code
}

// All returns languages in catalog order
func (c *Catalog) All() []Language {
	out := make([]Language, len(c.languages))
	copy(out, c.languages)
	return out
}
