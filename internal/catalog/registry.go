package catalog

import (
	"sync"

	"github.com/samcharles93/watchface/pkg/schema"
	"github.com/samcharles93/watchface/pkg/watchface"
)

// Registry builds and caches one codec per model. Models that share a schema
// file share its translator.
type Registry struct {
	cat        *Catalog
	schemaPath string
	schemaOpts []schema.Option
	codecOpts  []watchface.Option

	mu          sync.Mutex
	codecs      map[string]*watchface.Codec
	translators map[string]*schema.Translator
}

// NewRegistry serves models from cat. schemaPath overrides the built-in schema
// for models that do not name their own.
func NewRegistry(cat *Catalog, schemaPath string, schemaOpts []schema.Option, codecOpts ...watchface.Option) *Registry {
	return &Registry{
		cat:         cat,
		schemaPath:  schemaPath,
		schemaOpts:  schemaOpts,
		codecOpts:   codecOpts,
		codecs:      make(map[string]*watchface.Codec),
		translators: make(map[string]*schema.Translator),
	}
}

func (r *Registry) Catalog() *Catalog {
	return r.cat
}

// Codec returns the codec for the named model; "" selects the default.
func (r *Registry) Codec(name string) (*watchface.Codec, Model, error) {
	m, err := r.cat.Lookup(name)
	if err != nil {
		return nil, Model{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.codecs[m.Name]; ok {
		return c, m, nil
	}

	path := r.cat.SchemaPath(m)
	if path == "" {
		path = r.schemaPath
	}
	tr, ok := r.translators[path]
	if !ok {
		doc, err := LoadSchema(path)
		if err != nil {
			return nil, Model{}, err
		}
		tr, err = schema.New(doc, r.schemaOpts...)
		if err != nil {
			return nil, Model{}, err
		}
		r.translators[path] = tr
	}

	c, err := watchface.NewCodec(m.Structure(), tr, r.codecOpts...)
	if err != nil {
		return nil, Model{}, err
	}
	r.codecs[m.Name] = c
	return c, m, nil
}
