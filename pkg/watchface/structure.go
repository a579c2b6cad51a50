// Package watchface reads and writes watch face firmware files.
//
// A file is laid out as:
//
//	header           fixed per model, starts with the signature
//	parameter info   parameter tree: {1: {1: blocks size, 2: image count}, group: {1: offset, 2: size}...}
//	parameter blocks one parameter tree per group
//	image table      uint32 LE offset per image, relative to the first image
//	images           bitmap.Image encodings
//
// Two uint32 LE fields in the header hold the largest parameter block size and
// the parameter info size.
package watchface

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ReferenceHeader is the header written by the reference tooling for the
// "UIHH" family of devices.
var ReferenceHeader = []byte{
	0x55, 0x49, 0x48, 0x48, 0x01, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01, 0xB5, 0xE5, 0x3D, 0x00,
	0x3D, 0x00, 0x30, 0x27, 0x00, 0x00, 0xAB, 0x86, 0x09, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x4D,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Structure describes the header of one device model.
type Structure struct {
	Name          string
	Header        []byte
	SignatureSize int

	// Byte offsets of the uint32 size fields inside Header. Zero selects the
	// usual positions, len(Header)-8 and len(Header)-4, so a size field can
	// never be placed at byte 0. Headers with a signature cannot use byte 0
	// anyway; signatureless headers must put both fields after it.
	MaxParameterSizeOffset  int
	ParameterInfoSizeOffset int
}

// ReferenceStructure returns the structure of the reference model.
func ReferenceStructure() Structure {
	return Structure{
		Name:          "reference",
		Header:        bytes.Clone(ReferenceHeader),
		SignatureSize: 4,
	}
}

func (s Structure) maxParameterSizeOffset() int {
	if s.MaxParameterSizeOffset != 0 {
		return s.MaxParameterSizeOffset
	}
	return len(s.Header) - 8
}

func (s Structure) parameterInfoSizeOffset() int {
	if s.ParameterInfoSizeOffset != 0 {
		return s.ParameterInfoSizeOffset
	}
	return len(s.Header) - 4
}

// Signature returns the leading bytes every file of this model starts with.
func (s Structure) Signature() []byte {
	return s.Header[:s.SignatureSize]
}

// Validate checks that the size fields fit in the header and do not overlap
// the signature or each other.
func (s Structure) Validate() error {
	hl := len(s.Header)
	if hl < 8 {
		return fmt.Errorf("%w: %s: header of %d bytes is too short", ErrInvalidStructure, s.Name, hl)
	}
	if s.SignatureSize < 0 || s.SignatureSize > hl {
		return fmt.Errorf("%w: %s: signature size %d outside header of %d bytes", ErrInvalidStructure, s.Name, s.SignatureSize, hl)
	}
	maxOff, infoOff := s.maxParameterSizeOffset(), s.parameterInfoSizeOffset()
	for _, off := range []int{maxOff, infoOff} {
		if off < s.SignatureSize || off+4 > hl {
			return fmt.Errorf("%w: %s: size field at %d outside header after signature", ErrInvalidStructure, s.Name, off)
		}
	}
	if maxOff < infoOff+4 && infoOff < maxOff+4 {
		return fmt.Errorf("%w: %s: size fields at %d and %d overlap", ErrInvalidStructure, s.Name, maxOff, infoOff)
	}
	return nil
}

// header is the decoded view of a file header.
type header struct {
	maxParameterSize  uint32
	parameterInfoSize uint32
}

func (s Structure) decodeHeader(b []byte) (header, error) {
	hl := len(s.Header)
	if len(b) < hl {
		return header{}, fmt.Errorf("%w: need %d header bytes, have %d", ErrTruncated, hl, len(b))
	}
	if !bytes.Equal(b[:s.SignatureSize], s.Signature()) {
		return header{}, fmt.Errorf("%w: got % X want % X", ErrInvalidSignature, b[:s.SignatureSize], s.Signature())
	}
	return header{
		maxParameterSize:  binary.LittleEndian.Uint32(b[s.maxParameterSizeOffset():]),
		parameterInfoSize: binary.LittleEndian.Uint32(b[s.parameterInfoSizeOffset():]),
	}, nil
}

func (s Structure) encodeHeader(dst []byte, h header) {
	copy(dst, s.Header)
	binary.LittleEndian.PutUint32(dst[s.maxParameterSizeOffset():], h.maxParameterSize)
	binary.LittleEndian.PutUint32(dst[s.parameterInfoSizeOffset():], h.parameterInfoSize)
}
