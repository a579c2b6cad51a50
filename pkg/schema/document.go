package schema

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/watchface/pkg/params"
)

// Document is the raw schema as stored on disk:
//
//	{
//	  "parameters": {"2:Background": {"1:Image": "Image"}},
//	  "types":      {"Image": {"1:X": "int", "2:Y": "int", "3:ImageIndex": "imgid"}}
//	}
//
// A description value is either a type name (a primitive tag or a key of
// Types) or an object of further descriptions.
type Document struct {
	Parameters map[string]any `json:"parameters"`
	Types      map[string]any `json:"types"`
}

// Parse decodes a JSON schema document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if doc.Parameters == nil {
		return nil, fmt.Errorf("%w: missing \"parameters\" section", ErrSchema)
	}
	return &doc, nil
}

// Load reads and parses a JSON schema document from r.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Field is one normalized "<id>:<name>" entry.
type Field struct {
	ID   params.FieldID
	Name string

	// Type is the primitive tag or type reference. It is empty when the
	// description was an inline object, in which case Fields is set.
	Type   string
	Fields *Fields
}

// Fields is one level of the schema, indexed both ways.
type Fields struct {
	byID   map[params.FieldID]*Field
	byName map[string]*Field
}

func (f *Fields) ByID(id params.FieldID) (*Field, bool) {
	if f == nil {
		return nil, false
	}
	field, ok := f.byID[id]
	return field, ok
}

func (f *Fields) ByName(name string) (*Field, bool) {
	if f == nil {
		return nil, false
	}
	field, ok := f.byName[name]
	return field, ok
}

func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.byID)
}

func buildFields(desc map[string]any, path string) (*Fields, error) {
	fields := &Fields{
		byID:   make(map[params.FieldID]*Field, len(desc)),
		byName: make(map[string]*Field, len(desc)),
	}
	for key, value := range desc {
		id, name, err := splitKey(key)
		if err != nil {
			return nil, pathErr(path, err)
		}
		field := &Field{ID: id, Name: name}
		switch v := value.(type) {
		case string:
			field.Type = v
		case map[string]any:
			nested, err := buildFields(v, joinPath(path, name))
			if err != nil {
				return nil, err
			}
			field.Fields = nested
		default:
			return nil, pathErr(joinPath(path, name), fmt.Errorf("%w: description must be a type name or object, got %T", ErrSchema, value))
		}
		if prev, ok := fields.byID[id]; ok {
			return nil, pathErr(path, fmt.Errorf("%w: id %d used by %q and %q", ErrSchema, id, prev.Name, name))
		}
		if prev, ok := fields.byName[name]; ok {
			return nil, pathErr(path, fmt.Errorf("%w: name %q used by ids %d and %d", ErrSchema, name, prev.ID, id))
		}
		fields.byID[id] = field
		fields.byName[name] = field
	}
	return fields, nil
}

func splitKey(key string) (params.FieldID, string, error) {
	idPart, name, ok := strings.Cut(key, ":")
	if !ok {
		return 0, "", fmt.Errorf("%w: %q has no ':' separator", ErrInvalidKey, key)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(idPart), 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("%w: %q does not start with a positive id", ErrInvalidKey, key)
	}
	if name == "" {
		return 0, "", fmt.Errorf("%w: %q has an empty name", ErrInvalidKey, key)
	}
	return params.FieldID(id), name, nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
