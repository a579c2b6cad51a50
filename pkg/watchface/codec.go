package watchface

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/samcharles93/watchface/pkg/bitmap"
	"github.com/samcharles93/watchface/pkg/params"
	"github.com/samcharles93/watchface/pkg/schema"
)

// Parameter info field ids.
const (
	infoSummaryID params.FieldID = 1

	summaryParameterSize params.FieldID = 1
	summaryImageCount    params.FieldID = 2

	spanOffset params.FieldID = 1
	spanSize   params.FieldID = 2
)

const imageTableEntrySize = 4

// Logger receives section bookkeeping at debug level.
type Logger interface {
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

type Option func(*Codec)

func WithLogger(l Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.log = l
		}
	}
}

// WithImageOptions writes every image in the given bitmap variant instead of
// the default 24 bpp BGR565.
func WithImageOptions(opts bitmap.EncodeOptions) Option {
	return func(c *Codec) {
		c.imageOpts = opts
		c.sourceFormats = false
	}
}

// WithSourceFormats writes each image in the variant it was decoded from.
// Images without a source format use the default variant.
func WithSourceFormats() Option {
	return func(c *Codec) {
		c.sourceFormats = true
	}
}

// Codec converts between watch face files and containers for one model.
// It is immutable after NewCodec and safe for concurrent use.
type Codec struct {
	st            Structure
	tr            *schema.Translator
	log           Logger
	imageOpts     bitmap.EncodeOptions
	sourceFormats bool
}

// NewCodec validates st and returns a codec for it. tr may be nil when only
// DecodeRaw and EncodeRaw are used.
func NewCodec(st Structure, tr *schema.Translator, opts ...Option) (*Codec, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{st: st, tr: tr, log: nopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) Structure() Structure {
	return c.st
}

// Translator returns the schema translator, or nil.
func (c *Codec) Translator() *schema.Translator {
	return c.tr
}

// With returns a copy of c with opts applied. c is left unchanged.
func (c *Codec) With(opts ...Option) *Codec {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Container is a decoded file with parameters keyed by schema names.
type Container struct {
	Parameters map[string]any
	Images     []*bitmap.Image
}

// RawContainer is a decoded file with numeric parameter ids. Groups maps each
// group id to a tree node.
type RawContainer struct {
	Header           []byte
	MaxParameterSize uint32
	Groups           params.Tree
	Images           []*bitmap.Image

	// Layout is filled by DecodeRaw and ignored by EncodeRaw.
	Layout *Layout
}

// Layout records where each section was found in a decoded file.
type Layout struct {
	ParameterInfoOffset int
	ParameterInfoSize   int
	ParameterOffset     int
	ParameterSize       int
	Groups              []GroupSpan
	ImageTableOffset    int
	ImageOffsets        []uint32
}

// GroupSpan is the location of one parameter block, relative to the start of
// the parameter blocks.
type GroupSpan struct {
	ID     params.FieldID
	Offset int
	Size   int
}

// Decode parses a file and translates group ids to schema names.
func (c *Codec) Decode(buf []byte) (*Container, error) {
	if c.tr == nil {
		return nil, ErrNoSchema
	}
	raw, err := c.DecodeRaw(buf)
	if err != nil {
		return nil, err
	}
	named, err := c.tr.IDsToNames(raw.Groups)
	if err != nil {
		return nil, err
	}
	return &Container{Parameters: named, Images: raw.Images}, nil
}

// DecodeRaw parses a file without schema translation. Every section is
// bounds checked against buf. Nothing in the result aliases buf, so a mapped
// file may be closed afterwards.
func (c *Codec) DecodeRaw(buf []byte) (*RawContainer, error) {
	h, err := c.st.decodeHeader(buf)
	if err != nil {
		return nil, err
	}
	lay := &Layout{ParameterInfoOffset: len(c.st.Header)}

	infoEnd, err := span(buf, lay.ParameterInfoOffset, int64(h.parameterInfoSize), "parameter info")
	if err != nil {
		return nil, err
	}
	lay.ParameterInfoSize = int(h.parameterInfoSize)
	info, err := params.DecodeTree(buf[lay.ParameterInfoOffset:infoEnd])
	if err != nil {
		return nil, fmt.Errorf("parameter info: %w", err)
	}
	c.log.Debug("read parameter info", "offset", lay.ParameterInfoOffset, "size", lay.ParameterInfoSize, "entries", len(info))

	summary, ok := info.Sub(infoSummaryID)
	if !ok {
		return nil, fmt.Errorf("%w: missing summary entry", ErrBadInfo)
	}
	paramSize, ok := summary.Int(summaryParameterSize)
	if !ok || paramSize < 0 {
		return nil, fmt.Errorf("%w: missing or negative parameter size", ErrBadInfo)
	}
	imageCount, ok := summary.Int(summaryImageCount)
	if !ok || imageCount < 0 {
		return nil, fmt.Errorf("%w: missing or negative image count", ErrBadInfo)
	}

	lay.ParameterOffset = infoEnd
	paramEnd, err := span(buf, lay.ParameterOffset, paramSize, "parameter blocks")
	if err != nil {
		return nil, err
	}
	lay.ParameterSize = int(paramSize)
	blocks := buf[lay.ParameterOffset:paramEnd]

	groups := make(params.Tree, len(info)-1)
	for _, id := range info.IDs() {
		if id == infoSummaryID {
			continue
		}
		gs, err := groupSpan(info, id)
		if err != nil {
			return nil, err
		}
		end, err := span(blocks, gs.Offset, int64(gs.Size), fmt.Sprintf("group %d", id))
		if err != nil {
			return nil, err
		}
		tree, err := params.DecodeTree(blocks[gs.Offset:end])
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", id, err)
		}
		c.log.Debug("read parameter group", "id", int64(id), "offset", gs.Offset, "size", gs.Size)
		groups[id] = params.Nested(tree)
		lay.Groups = append(lay.Groups, gs)
	}

	lay.ImageTableOffset = paramEnd
	if imageCount > int64(len(buf)) {
		return nil, fmt.Errorf("%w: image count %d exceeds file size", ErrBadInfo, imageCount)
	}
	tableEnd, err := span(buf, lay.ImageTableOffset, imageCount*imageTableEntrySize, "image table")
	if err != nil {
		return nil, err
	}
	images := make([]*bitmap.Image, imageCount)
	lay.ImageOffsets = make([]uint32, imageCount)
	for i := range images {
		off := binary.LittleEndian.Uint32(buf[lay.ImageTableOffset+i*imageTableEntrySize:])
		start := int64(tableEnd) + int64(off)
		if start >= int64(len(buf)) {
			return nil, fmt.Errorf("%w: image %d at %d beyond end of file (%d bytes)", ErrOutOfBounds, i, start, len(buf))
		}
		img, err := bitmap.Decode(buf[start:])
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		images[i] = img
		lay.ImageOffsets[i] = off
	}
	c.log.Debug("read images", "count", len(images), "offset", tableEnd)

	return &RawContainer{
		Header:           append([]byte(nil), buf[:len(c.st.Header)]...),
		MaxParameterSize: h.maxParameterSize,
		Groups:           groups,
		Images:           images,
		Layout:           lay,
	}, nil
}

// span checks that size bytes starting at off fit in b and returns the end.
func span(b []byte, off int, size int64, what string) (int, error) {
	if size < 0 || off < 0 || int64(off)+size > int64(len(b)) {
		return 0, fmt.Errorf("%w: %s needs %d bytes at %d, have %d", ErrOutOfBounds, what, size, off, len(b))
	}
	return off + int(size), nil
}

func groupSpan(info params.Tree, id params.FieldID) (GroupSpan, error) {
	sub, ok := info.Sub(id)
	if !ok {
		return GroupSpan{}, fmt.Errorf("%w: entry %d is not an {offset, size} tree", ErrBadInfo, id)
	}
	off, okOff := sub.Int(spanOffset)
	size, okSize := sub.Int(spanSize)
	if !okOff || !okSize || off < 0 || size < 0 || off > math.MaxInt32 || size > math.MaxInt32 {
		return GroupSpan{}, fmt.Errorf("%w: entry %d has invalid offset or size", ErrBadInfo, id)
	}
	return GroupSpan{ID: id, Offset: int(off), Size: int(size)}, nil
}

// Encode translates names to ids and writes a complete file.
func (c *Codec) Encode(ct *Container) ([]byte, error) {
	if c.tr == nil {
		return nil, ErrNoSchema
	}
	if ct == nil {
		return nil, fmt.Errorf("%w: nil container", ErrInvalidGroup)
	}
	groups, err := c.tr.NamesToIDs(ct.Parameters)
	if err != nil {
		return nil, err
	}
	return c.EncodeRaw(&RawContainer{Groups: groups, Images: ct.Images})
}

// EncodeRaw writes a file from numeric groups. The model header is copied
// verbatim apart from the two size fields; blocks are laid out in ascending
// group id order.
func (c *Codec) EncodeRaw(rc *RawContainer) ([]byte, error) {
	if rc == nil {
		return nil, fmt.Errorf("%w: nil container", ErrInvalidGroup)
	}

	var blocks []byte
	var maxBlock int
	info := params.Tree{}
	for _, id := range rc.Groups.IDs() {
		if id == infoSummaryID {
			return nil, fmt.Errorf("%w: id %d is reserved for the summary", ErrInvalidGroup, id)
		}
		node := rc.Groups[id]
		if node.Kind() != params.KindTree {
			return nil, fmt.Errorf("%w: group %d is a %s, want a tree", ErrInvalidGroup, id, node.Kind())
		}
		if len(node.Tree()) == 0 {
			return nil, fmt.Errorf("%w: group %d is empty", ErrInvalidGroup, id)
		}
		block, err := params.EncodeTree(node.Tree())
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", id, err)
		}
		info[id] = params.Nested(params.Tree{
			spanOffset: params.Scalar(int64(len(blocks))),
			spanSize:   params.Scalar(int64(len(block))),
		})
		maxBlock = max(maxBlock, len(block))
		blocks = append(blocks, block...)
	}
	info[infoSummaryID] = params.Nested(params.Tree{
		summaryParameterSize: params.Scalar(int64(len(blocks))),
		summaryImageCount:    params.Scalar(int64(len(rc.Images))),
	})
	infoBytes, err := params.EncodeTree(info)
	if err != nil {
		return nil, fmt.Errorf("parameter info: %w", err)
	}

	table := make([]byte, imageTableEntrySize*len(rc.Images))
	var images []byte
	for i, img := range rc.Images {
		if uint64(len(images)) > math.MaxUint32 {
			return nil, fmt.Errorf("image %d: offset %d exceeds 32 bits", i, len(images))
		}
		binary.LittleEndian.PutUint32(table[i*imageTableEntrySize:], uint32(len(images)))
		enc, err := bitmap.EncodeWithOptions(img, c.imageOptions(img))
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		images = append(images, enc...)
	}

	hl := len(c.st.Header)
	out := make([]byte, hl, hl+len(infoBytes)+len(blocks)+len(table)+len(images))
	c.st.encodeHeader(out, header{
		maxParameterSize:  uint32(maxBlock),
		parameterInfoSize: uint32(len(infoBytes)),
	})
	out = append(out, infoBytes...)
	out = append(out, blocks...)
	out = append(out, table...)
	out = append(out, images...)
	c.log.Debug("wrote container", "groups", len(info)-1, "images", len(rc.Images), "size", len(out))
	return out, nil
}

func (c *Codec) imageOptions(img *bitmap.Image) bitmap.EncodeOptions {
	if c.sourceFormats && img != nil && img.BitsPerPixel != 0 {
		return bitmap.SourceOptions(img)
	}
	return c.imageOpts
}
