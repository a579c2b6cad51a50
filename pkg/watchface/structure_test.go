package watchface

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/watchface/pkg/params"
)

func TestReferenceStructure(t *testing.T) {
	t.Parallel()

	st := ReferenceStructure()
	if len(st.Header) != 0x57 {
		t.Fatalf("header length: got %#x want 0x57", len(st.Header))
	}
	if !bytes.Equal(st.Signature(), []byte("UIHH")) {
		t.Fatalf("signature: got %q", st.Signature())
	}
	if st.maxParameterSizeOffset() != 0x4F || st.parameterInfoSizeOffset() != 0x53 {
		t.Fatalf("size offsets: got %#x, %#x", st.maxParameterSizeOffset(), st.parameterInfoSizeOffset())
	}
	if err := st.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	st.Header[0] = 0
	if ReferenceHeader[0] != 'U' {
		t.Fatalf("ReferenceStructure must not share the template")
	}
}

func TestStructureValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		st   Structure
	}{
		{name: "short header", st: Structure{Header: make([]byte, 7)}},
		{name: "signature too long", st: Structure{Header: make([]byte, 16), SignatureSize: 17}},
		{name: "field over signature", st: Structure{Header: make([]byte, 16), SignatureSize: 12}},
		{name: "field past end", st: Structure{Header: make([]byte, 16), MaxParameterSizeOffset: 14}},
		{name: "overlapping fields", st: Structure{Header: make([]byte, 16), MaxParameterSizeOffset: 10, ParameterInfoSizeOffset: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.st.Validate(); !errors.Is(err, ErrInvalidStructure) {
				t.Fatalf("expected ErrInvalidStructure, got %v", err)
			}
			if _, err := NewCodec(tt.st, nil); !errors.Is(err, ErrInvalidStructure) {
				t.Fatalf("NewCodec: expected ErrInvalidStructure, got %v", err)
			}
		})
	}
}

func TestCustomSizeOffsets(t *testing.T) {
	t.Parallel()

	st := Structure{
		Name:                    "custom",
		Header:                  []byte{'W', 'F', 0, 0, 0, 0, 0, 0, 0, 0, 0xEE, 0xEE},
		SignatureSize:           2,
		MaxParameterSizeOffset:  2,
		ParameterInfoSizeOffset: 6,
	}
	c, err := NewCodec(st, nil)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	buf, err := c.EncodeRaw(&RawContainer{Groups: mustGroups()})
	if err != nil {
		t.Fatalf("encode raw: %v", err)
	}
	if buf[10] != 0xEE || buf[11] != 0xEE {
		t.Fatalf("template bytes not preserved: % X", buf[:12])
	}
	raw, err := c.DecodeRaw(buf)
	if err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if !raw.Groups.Equal(mustGroups()) {
		t.Fatalf("groups: got %v", raw.Groups)
	}
	if raw.Layout.ParameterInfoOffset != 12 {
		t.Fatalf("info offset: got %d want 12", raw.Layout.ParameterInfoOffset)
	}
}

func TestZeroSizeOffsetsUseDefaults(t *testing.T) {
	t.Parallel()

	st := Structure{Name: "bare", Header: make([]byte, 12)}
	if err := st.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if st.maxParameterSizeOffset() != 4 || st.parameterInfoSizeOffset() != 8 {
		t.Fatalf("size offsets: got %d, %d want 4, 8", st.maxParameterSizeOffset(), st.parameterInfoSizeOffset())
	}
	c, err := NewCodec(st, nil)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	buf, err := c.EncodeRaw(&RawContainer{Groups: mustGroups()})
	if err != nil {
		t.Fatalf("encode raw: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf[0:]); got != 0 {
		t.Fatalf("byte 0 must stay template data, got size %d", got)
	}
	if got := binary.LittleEndian.Uint32(buf[8:]); got == 0 {
		t.Fatalf("parameter info size not written at default offset")
	}
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "face.bin")
	if err := os.WriteFile(path, minimalFile(), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(f.Data, minimalFile()) {
		t.Fatalf("data mismatch")
	}
	c := newTestCodec(t)
	if _, err := c.Decode(f.Data); err != nil {
		t.Fatalf("decode mapped file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f.Data != nil {
		t.Fatalf("data should be released after close")
	}

	rf, err := ReadFrom(bytes.NewReader(minimalFile()), int64(len(minimalFile())))
	if err != nil {
		t.Fatalf("read from: %v", err)
	}
	if !bytes.Equal(rf.Data, minimalFile()) {
		t.Fatalf("ReadFrom data mismatch")
	}
	if err := rf.Close(); err != nil {
		t.Fatalf("close unmapped: %v", err)
	}

	if _, err := OpenFile(filepath.Join(t.TempDir(), "missing.bin")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func mustGroups() params.Tree {
	return params.Tree{4: params.Nested(params.Tree{2: params.Scalar(7)})}
}
