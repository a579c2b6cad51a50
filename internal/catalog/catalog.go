// Package catalog holds the device models and schemas watchface knows about.
package catalog

import (
	"bytes"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/watchface/pkg/schema"
	"github.com/samcharles93/watchface/pkg/watchface"
)

//go:embed builtin/models.yaml builtin/schema.json
var builtin embed.FS

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrNoModels     = errors.New("catalog has no models")
)

// HexBytes is a byte string written as hex in catalog files.
type HexBytes []byte

func parseHex(s string) (HexBytes, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	return b, nil
}

func (h *HexBytes) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	b, err := parseHex(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

func (h HexBytes) MarshalYAML() (any, error) {
	return hex.EncodeToString(h), nil
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := parseHex(s)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

type Screen struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Model is one device entry.
type Model struct {
	Name                    string   `yaml:"name" json:"name"`
	Description             string   `yaml:"description,omitempty" json:"description,omitempty"`
	Header                  HexBytes `yaml:"header" json:"header"`
	SignatureSize           int      `yaml:"signatureSize" json:"signatureSize"`
	MaxParameterSizeOffset  int      `yaml:"maxParameterSizeOffset,omitempty" json:"maxParameterSizeOffset,omitempty"`
	ParameterInfoSizeOffset int      `yaml:"parameterInfoSizeOffset,omitempty" json:"parameterInfoSizeOffset,omitempty"`
	Screen                  *Screen  `yaml:"screen,omitempty" json:"screen,omitempty"`
	// Schema is a schema file for this model, relative to the catalog file.
	// Empty selects the catalog-wide schema.
	Schema string `yaml:"schema,omitempty" json:"schema,omitempty"`
}

func (m Model) Structure() watchface.Structure {
	return watchface.Structure{
		Name:                    m.Name,
		Header:                  bytes.Clone(m.Header),
		SignatureSize:           m.SignatureSize,
		MaxParameterSizeOffset:  m.MaxParameterSizeOffset,
		ParameterInfoSizeOffset: m.ParameterInfoSizeOffset,
	}
}

// Catalog is a parsed models file.
type Catalog struct {
	Default string  `yaml:"default,omitempty" json:"default,omitempty"`
	Models  []Model `yaml:"models" json:"models"`

	dir string
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	data, err := builtin.ReadFile("builtin/models.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(data, ".yaml")
}

// Load reads a YAML or JSON catalog; the format follows the file extension.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	c.dir = filepath.Dir(path)
	return c, nil
}

// Parse decodes a catalog. ext selects JSON for ".json" and YAML otherwise.
func Parse(data []byte, ext string) (*Catalog, error) {
	var c Catalog
	var err error
	if strings.EqualFold(ext, ".json") {
		err = json.Unmarshal(data, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every model's structure and that names are unique.
func (c *Catalog) Validate() error {
	if len(c.Models) == 0 {
		return ErrNoModels
	}
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.Name == "" {
			return errors.New("model without a name")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate model %q", m.Name)
		}
		seen[m.Name] = true
		if err := m.Structure().Validate(); err != nil {
			return err
		}
	}
	if c.Default != "" && !seen[c.Default] {
		return fmt.Errorf("%w: default %q", ErrUnknownModel, c.Default)
	}
	return nil
}

// Lookup finds a model by name. An empty name selects the default model, or
// the first one when no default is set.
func (c *Catalog) Lookup(name string) (Model, error) {
	if name == "" {
		name = c.Default
	}
	if name == "" && len(c.Models) > 0 {
		return c.Models[0], nil
	}
	for _, m := range c.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Names lists the models in file order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Models))
	for i, m := range c.Models {
		names[i] = m.Name
	}
	return names
}

// SchemaPath resolves the schema file of m, or "" for the default schema.
func (c *Catalog) SchemaPath(m Model) string {
	if m.Schema == "" || filepath.IsAbs(m.Schema) || c.dir == "" {
		return m.Schema
	}
	return filepath.Join(c.dir, m.Schema)
}

// LoadSchema reads a schema document from path, or the built-in schema when
// path is empty.
func LoadSchema(path string) (*schema.Document, error) {
	if path == "" {
		data, err := builtin.ReadFile("builtin/schema.json")
		if err != nil {
			return nil, err
		}
		return schema.Parse(data)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	doc, err := schema.Load(f)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return doc, nil
}
