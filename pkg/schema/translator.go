// Package schema maps numeric parameter trees to named, typed documents and
// back, driven by a JSON description of field ids, names and value types.
package schema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/samcharles93/watchface/pkg/params"
)

// Logger receives warnings about ids the schema does not describe.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// maxAliasDepth bounds type-name chains in the type library.
const maxAliasDepth = 8

type Option func(*Translator)

func WithLogger(l Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.log = l
		}
	}
}

// Translator converts between params.Tree and named documents. It is
// immutable after New and safe for concurrent use.
type Translator struct {
	root  *Fields
	types map[string]typeDef
	log   Logger
}

type typeDef struct {
	fields *Fields
	alias  string
}

// New normalizes doc into a Translator. The type library may refer to itself
// in any order; every leaf must end in a primitive type tag.
func New(doc *Document, opts ...Option) (*Translator, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrSchema)
	}
	root, err := buildFields(doc.Parameters, "")
	if err != nil {
		return nil, err
	}
	t := &Translator{
		root:  root,
		types: make(map[string]typeDef, len(doc.Types)),
		log:   nopLogger{},
	}
	for name, desc := range doc.Types {
		switch v := desc.(type) {
		case string:
			t.types[name] = typeDef{alias: v}
		case map[string]any:
			fields, err := buildFields(v, name)
			if err != nil {
				return nil, err
			}
			t.types[name] = typeDef{fields: fields}
		default:
			return nil, pathErr(name, fmt.Errorf("%w: type must be a type name or object, got %T", ErrSchema, desc))
		}
	}
	if err := t.check(root, ""); err != nil {
		return nil, err
	}
	for name, def := range t.types {
		if def.fields != nil {
			if err := t.check(def.fields, name); err != nil {
				return nil, err
			}
		}
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// check resolves every field of one level, descending into inline objects.
// Named object types are checked once by New.
func (t *Translator) check(fields *Fields, path string) error {
	for _, f := range fields.byID {
		fieldPath := joinPath(path, f.Name)
		nested, typ, err := t.resolve(f)
		if err != nil {
			return pathErr(fieldPath, err)
		}
		if nested == nil && !isPrimitive(typ) {
			return pathErr(fieldPath, fmt.Errorf("%w: %q", ErrUnknownType, typ))
		}
		if f.Fields != nil {
			if err := t.check(f.Fields, fieldPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// Root returns the top level of the schema, the parameter groups.
func (t *Translator) Root() *Fields {
	return t.root
}

// GroupName returns the schema name of a top-level id.
func (t *Translator) GroupName(id params.FieldID) (string, bool) {
	f, ok := t.root.ByID(id)
	if !ok {
		return "", false
	}
	return f.Name, true
}

// resolve returns either the nested fields or the primitive tag of a field.
func (t *Translator) resolve(f *Field) (*Fields, string, error) {
	if f.Fields != nil {
		return f.Fields, "", nil
	}
	typ := f.Type
	for range maxAliasDepth {
		def, ok := t.types[typ]
		if !ok {
			return nil, typ, nil
		}
		if def.fields != nil {
			return def.fields, "", nil
		}
		typ = def.alias
	}
	return nil, "", fmt.Errorf("%w: type %q aliases too deeply", ErrSchema, f.Type)
}

// IDsToNames converts a decoded tree into a document keyed by field name.
// Ids missing from the schema are kept under their decimal id and logged.
func (t *Translator) IDsToNames(tree params.Tree) (map[string]any, error) {
	return t.toNames(tree, t.root, "")
}

func (t *Translator) toNames(tree params.Tree, fields *Fields, path string) (map[string]any, error) {
	out := make(map[string]any, len(tree))
	for _, id := range tree.IDs() {
		node := tree[id]
		field, ok := fields.ByID(id)
		if !ok {
			key := strconv.FormatInt(int64(id), 10)
			t.log.Warn("no schema for parameter", "path", joinPath(path, key), "id", int64(id))
			out[key] = plain(node)
			continue
		}
		fieldPath := joinPath(path, field.Name)
		nested, typ, err := t.resolve(field)
		if err != nil {
			return nil, pathErr(fieldPath, err)
		}
		v, err := t.nodeToValue(node, nested, typ, fieldPath)
		if err != nil {
			return nil, err
		}
		out[field.Name] = v
	}
	return out, nil
}

func (t *Translator) nodeToValue(n params.Node, nested *Fields, typ, path string) (any, error) {
	switch n.Kind() {
	case params.KindList:
		items := n.Items()
		out := make([]any, 0, len(items))
		for i, item := range items {
			v, err := t.nodeToValue(item, nested, typ, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case params.KindTree:
		if nested == nil {
			return nil, pathErr(path, fmt.Errorf("%w: nested parameters for %s field", ErrTypeMismatch, typ))
		}
		return t.toNames(n.Tree(), nested, path)
	default:
		if nested != nil {
			return nil, pathErr(path, fmt.Errorf("%w: scalar %d for nested field", ErrTypeMismatch, n.Int()))
		}
		v, err := FormatValue(n.Int(), typ)
		if err != nil {
			return nil, pathErr(path, err)
		}
		return v, nil
	}
}

// plain renders a node with no schema: integers, decimal-keyed maps, lists.
func plain(n params.Node) any {
	switch n.Kind() {
	case params.KindList:
		items := n.Items()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = plain(item)
		}
		return out
	case params.KindTree:
		tree := n.Tree()
		out := make(map[string]any, len(tree))
		for id, child := range tree {
			out[strconv.FormatInt(int64(id), 10)] = plain(child)
		}
		return out
	default:
		return n.Int()
	}
}

// NamesToIDs converts a named document back into a tree. Unlike decoding it
// is strict: a name the schema does not define fails with ErrUnknownField.
func (t *Translator) NamesToIDs(doc map[string]any) (params.Tree, error) {
	return t.toIDs(doc, t.root, "")
}

func (t *Translator) toIDs(doc map[string]any, fields *Fields, path string) (params.Tree, error) {
	tree := make(params.Tree, len(doc))
	for _, name := range slices.Sorted(maps.Keys(doc)) {
		fieldPath := joinPath(path, name)
		field, ok := fields.ByName(name)
		if !ok {
			return nil, pathErr(fieldPath, ErrUnknownField)
		}
		nested, typ, err := t.resolve(field)
		if err != nil {
			return nil, pathErr(fieldPath, err)
		}
		node, err := t.valueToNode(doc[name], nested, typ, fieldPath, true)
		if err != nil {
			return nil, err
		}
		tree[field.ID] = node
	}
	return tree, nil
}

func (t *Translator) valueToNode(v any, nested *Fields, typ, path string, listOK bool) (params.Node, error) {
	switch val := v.(type) {
	case []any:
		if !listOK {
			return params.Node{}, pathErr(path, fmt.Errorf("%w: nested list", ErrTypeMismatch))
		}
		items := make([]params.Node, 0, len(val))
		for i, item := range val {
			n, err := t.valueToNode(item, nested, typ, path+"["+strconv.Itoa(i)+"]", false)
			if err != nil {
				return params.Node{}, err
			}
			items = append(items, n)
		}
		return params.List(items...), nil
	case map[string]any:
		if nested == nil {
			return params.Node{}, pathErr(path, fmt.Errorf("%w: object for %s field", ErrTypeMismatch, typ))
		}
		sub, err := t.toIDs(val, nested, path)
		if err != nil {
			return params.Node{}, err
		}
		return params.Nested(sub), nil
	default:
		if nested != nil {
			return params.Node{}, pathErr(path, fmt.Errorf("%w: scalar %v for nested field", ErrTypeMismatch, v))
		}
		n, err := ParseValue(v, typ)
		if err != nil {
			return params.Node{}, pathErr(path, err)
		}
		return params.Scalar(n), nil
	}
}
