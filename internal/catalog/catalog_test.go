package catalog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/watchface/pkg/watchface"
)

func TestBuiltin(t *testing.T) {
	t.Parallel()

	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	m, err := c.Lookup("")
	if err != nil {
		t.Fatalf("lookup default: %v", err)
	}
	if m.Name != "reference" || m.SignatureSize != 4 {
		t.Fatalf("default model: got %+v", m)
	}
	if !bytes.Equal(m.Header, watchface.ReferenceHeader) {
		t.Fatalf("header mismatch:\ngot  % X\nwant % X", []byte(m.Header), watchface.ReferenceHeader)
	}
	if _, err := c.Lookup("nope"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestLoadJSONCatalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "models.json")
	body := `{"models": [
		{"name": "small", "header": "0x57 46 00000000 00000000", "signatureSize": 2, "screen": {"width": 240, "height": 280}, "schema": "small.json"},
		{"name": "custom", "header": "5746000000000000000000000000", "signatureSize": 2, "maxParameterSizeOffset": 2, "parameterInfoSizeOffset": 6}
	]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := c.Names(); len(got) != 2 || got[0] != "small" {
		t.Fatalf("names: got %v", got)
	}
	small, err := c.Lookup("")
	if err != nil {
		t.Fatalf("lookup first: %v", err)
	}
	if len(small.Header) != 10 || small.Screen == nil || small.Screen.Height != 280 {
		t.Fatalf("small model: got %+v", small)
	}
	if got := c.SchemaPath(small); got != filepath.Join(dir, "small.json") {
		t.Fatalf("schema path: got %q", got)
	}
	custom, _ := c.Lookup("custom")
	st := custom.Structure()
	if st.MaxParameterSizeOffset != 2 || st.ParameterInfoSizeOffset != 6 {
		t.Fatalf("structure: got %+v", st)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: `models: []`},
		{name: "bad hex", body: "models:\n  - name: a\n    header: zz\n"},
		{name: "short header", body: "models:\n  - name: a\n    header: \"5746\"\n"},
		{name: "duplicate", body: "models:\n  - name: a\n    header: \"0000000000000000\"\n  - name: a\n    header: \"0000000000000000\"\n"},
		{name: "unknown default", body: "default: b\nmodels:\n  - name: a\n    header: \"0000000000000000\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.body), ".yaml"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadSchema(t *testing.T) {
	t.Parallel()

	doc, err := LoadSchema("")
	if err != nil {
		t.Fatalf("builtin schema: %v", err)
	}
	if _, ok := doc.Parameters["2:Background"]; !ok {
		t.Fatalf("builtin schema missing Background: %v", doc.Parameters)
	}

	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(`{"parameters": {"5:Time": "int"}}`), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	doc, err = LoadSchema(path)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	if _, ok := doc.Parameters["5:Time"]; !ok {
		t.Fatalf("schema missing Time: %v", doc.Parameters)
	}
	if _, err := LoadSchema(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestRegistryCachesCodecs(t *testing.T) {
	t.Parallel()

	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	r := NewRegistry(c, "", nil)
	first, m, err := r.Codec("")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	second, _, err := r.Codec("reference")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	if first != second {
		t.Fatalf("codec not cached")
	}
	if m.Name != "reference" || first.Structure().Name != "reference" {
		t.Fatalf("model: got %q / %q", m.Name, first.Structure().Name)
	}
	if _, _, err := r.Codec("missing"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}
