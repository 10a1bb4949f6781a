package cbor

import "math"

// Kind identifies which case of the data-item tagged variant an Item holds.
// Every operation on Item is an exhaustive switch over Kind; Item is never
// specialized through embedding or a type hierarchy.
type Kind int

const (
	KindUint Kind = iota
	KindNegInt
	KindBytes
	KindBytesIndef
	KindText
	KindTextIndef
	KindArray
	KindMap
	KindTag
	KindFloat
	KindSimple
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUint:
		return "Uint"
	case KindNegInt:
		return "NegInt"
	case KindBytes:
		return "Bytes"
	case KindBytesIndef:
		return "BytesIndef"
	case KindText:
		return "Text"
	case KindTextIndef:
		return "TextIndef"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindTag:
		return "Tag"
	case KindFloat:
		return "Float"
	case KindSimple:
		return "Simple"
	default:
		return "Unknown"
	}
}

// IntWidth is the on-wire length of an integer's (or a definite string's or
// container's length's) prefix. Unknown means the width was not specified by
// the source (e.g. diagnostic notation without a width suffix): encoders
// must then choose a minimal width, never collapsing a width acquired from
// binary input.
type IntWidth int

const (
	WidthUnknown IntWidth = iota
	WidthZero
	Width8
	Width16
	Width32
	Width64
)

func (w IntWidth) String() string {
	switch w {
	case WidthUnknown:
		return "Unknown"
	case WidthZero:
		return "Zero"
	case Width8:
		return "8"
	case Width16:
		return "16"
	case Width32:
		return "32"
	case Width64:
		return "64"
	default:
		return "Invalid"
	}
}

// fits reports whether value can be encoded using width w (invariants 1/2 of
// the data model: Zero holds only <24, Eight only <2^8, and so on).
func (w IntWidth) fits(value uint64) bool {
	switch w {
	case WidthUnknown:
		return true
	case WidthZero:
		return value < 24
	case Width8:
		return value <= math.MaxUint8
	case Width16:
		return value <= math.MaxUint16
	case Width32:
		return value <= math.MaxUint32
	case Width64:
		return true
	default:
		return false
	}
}

// minimalIntWidth picks the narrowest width that can hold value.
func minimalIntWidth(value uint64) IntWidth {
	switch {
	case value < 24:
		return WidthZero
	case value <= math.MaxUint8:
		return Width8
	case value <= math.MaxUint16:
		return Width16
	case value <= math.MaxUint32:
		return Width32
	default:
		return Width64
	}
}

// resolved returns w if it already fits value, otherwise the minimal width
// that does. Widths acquired from a binary source are never silently
// collapsed by this function when they already fit.
func (w IntWidth) resolved(value uint64) IntWidth {
	if w == WidthUnknown || !w.fits(value) {
		return minimalIntWidth(value)
	}
	return w
}

// FloatWidth is the on-wire precision of a floating point value. The value
// itself is always stored at full f64 precision; half-precision values are
// losslessly widened on read.
type FloatWidth int

const (
	FloatWidthUnknown FloatWidth = iota
	FloatWidth16
	FloatWidth32
	FloatWidth64
)

func (w FloatWidth) String() string {
	switch w {
	case FloatWidthUnknown:
		return "Unknown"
	case FloatWidth16:
		return "16"
	case FloatWidth32:
		return "32"
	case FloatWidth64:
		return "64"
	default:
		return "Invalid"
	}
}

// Simple canonical names, per RFC 8949 §3.3.
const (
	SimpleFalse     byte = 20
	SimpleTrue      byte = 21
	SimpleNull      byte = 22
	SimpleUndefined byte = 23
)

// Pair is a key/value data-item pair inside a Map. Key equality is never
// enforced and order is preserved exactly as parsed or constructed.
type Pair struct {
	Key   *Item
	Value *Item
}

// Item is the central data-item tagged variant: every CBOR value, plus the
// encoding metadata (width, definite/indefinite, chunking) needed to
// reproduce the exact bytes it was read from. Item trees are tree-exclusive:
// each node owns its children and is never aliased.
type Item struct {
	Kind Kind

	// KindUint, KindNegInt: IntValue is the wire magnitude. For KindNegInt
	// the logical value is -1-IntValue.
	IntValue uint64
	IntWidth IntWidth

	// KindBytes, KindText: the definite payload and the width used to
	// encode its length.
	Bytes    []byte
	Text     string
	LenWidth IntWidth

	// KindBytesIndef, KindTextIndef: the ordered chunk sequence. Each
	// chunk carries its own length width; concatenating Bytes/Text across
	// chunks loses no information that affects round-tripping, but the
	// chunk boundaries themselves are significant and preserved here.
	ByteChunks []ByteChunk
	TextChunks []TextChunk

	// KindArray: ordered elements.
	// KindMap: ordered pairs.
	// Both: nil Length means indefinite (break-terminated); non-nil means
	// definite-length encoded with the contained width.
	Items  []*Item
	Pairs  []Pair
	Length *IntWidth

	// KindTag: the tag number, its width, and the single nested item.
	TagNumber uint64
	TagWidth  IntWidth
	Tagged    *Item

	// KindFloat: value always stored widened to float64.
	FloatValue float64
	FloatWidth FloatWidth

	// KindSimple: the raw 8-bit value.
	SimpleValue byte
}

// ByteChunk is one definite byte string inside an indefinite byte string.
type ByteChunk struct {
	Data     []byte
	LenWidth IntWidth
}

// TextChunk is one definite text string inside an indefinite text string.
type TextChunk struct {
	Data     string
	LenWidth IntWidth
}

// NewUint constructs an unsigned integer item with width Unknown.
func NewUint(value uint64) *Item {
	return &Item{Kind: KindUint, IntValue: value, IntWidth: WidthUnknown}
}

// NewNegInt constructs a negative integer item from its CBOR-encoded
// magnitude (logical value -1-magnitude), width Unknown.
func NewNegInt(magnitude uint64) *Item {
	return &Item{Kind: KindNegInt, IntValue: magnitude, IntWidth: WidthUnknown}
}

// NewInt constructs the item representing the signed logical value v,
// choosing KindUint or KindNegInt as appropriate.
func NewInt(v int64) *Item {
	if v >= 0 {
		return NewUint(uint64(v))
	}
	return NewNegInt(uint64(-1 - v))
}

// WithIntWidth returns the item with its integer width set to w. Valid on
// KindUint, KindNegInt and KindTag (tag number width).
func (it *Item) WithIntWidth(w IntWidth) *Item {
	switch it.Kind {
	case KindUint, KindNegInt:
		it.IntWidth = w
	case KindTag:
		it.TagWidth = w
	}
	return it
}

// NewBytes constructs a definite byte string with length width Unknown.
func NewBytes(data []byte) *Item {
	return &Item{Kind: KindBytes, Bytes: data, LenWidth: WidthUnknown}
}

// WithBitWidth sets the length-prefix width of a definite byte or text
// string, or the length width of a definite array/map.
func (it *Item) WithBitWidth(w IntWidth) *Item {
	switch it.Kind {
	case KindBytes, KindText:
		it.LenWidth = w
	case KindArray, KindMap:
		it.Length = &w
	}
	return it
}

// NewBytesIndef constructs an indefinite byte string from its chunks.
func NewBytesIndef(chunks ...ByteChunk) *Item {
	return &Item{Kind: KindBytesIndef, ByteChunks: chunks}
}

// NewText constructs a definite text string with length width Unknown.
func NewText(s string) *Item {
	return &Item{Kind: KindText, Text: s, LenWidth: WidthUnknown}
}

// NewTextIndef constructs an indefinite text string from its chunks.
func NewTextIndef(chunks ...TextChunk) *Item {
	return &Item{Kind: KindTextIndef, TextChunks: chunks}
}

// NewArray constructs a definite-length array with length width Unknown.
func NewArray(items ...*Item) *Item {
	w := WidthUnknown
	return &Item{Kind: KindArray, Items: items, Length: &w}
}

// NewIndefArray constructs an indefinite (break-terminated) array.
func NewIndefArray(items ...*Item) *Item {
	return &Item{Kind: KindArray, Items: items, Length: nil}
}

// NewMap constructs a definite-length map with length width Unknown.
func NewMap(pairs ...Pair) *Item {
	w := WidthUnknown
	return &Item{Kind: KindMap, Pairs: pairs, Length: &w}
}

// NewIndefMap constructs an indefinite (break-terminated) map.
func NewIndefMap(pairs ...Pair) *Item {
	return &Item{Kind: KindMap, Pairs: pairs, Length: nil}
}

// NewTag constructs a tag item wrapping nested, with width Unknown.
func NewTag(number uint64, nested *Item) *Item {
	return &Item{Kind: KindTag, TagNumber: number, TagWidth: WidthUnknown, Tagged: nested}
}

// NewFloat constructs a float item stored at full precision with width
// Unknown (the writer will promote it to 64-bit on encode).
func NewFloat(value float64) *Item {
	return &Item{Kind: KindFloat, FloatValue: value, FloatWidth: FloatWidthUnknown}
}

// WithFloatWidth sets the float item's stored precision. Per invariant 6 of
// the data model, a width of 16 or 32 is only honored when the value fits
// that precision exactly (checked via fitsHalf/fitsSingle); otherwise the
// call is a no-op and the item's width is left unchanged.
func (it *Item) WithFloatWidth(w FloatWidth) *Item {
	if it.Kind == KindFloat && floatFitsWidth(it.FloatValue, w) {
		it.FloatWidth = w
	}
	return it
}

// floatFitsWidth reports whether value can be stored at width w without
// losing precision (invariant 6): Width16 requires an exact binary16
// round trip, Width32 an exact binary32 round trip; Width64/Unknown always
// fit since the value is always kept at full float64 precision. NaN always
// fits any width: it is a non-finite marker rather than a precision
// concern, and NaN != NaN makes an exact-round-trip comparison meaningless.
func floatFitsWidth(value float64, w FloatWidth) bool {
	if math.IsNaN(value) {
		return true
	}
	switch w {
	case FloatWidth16:
		return fitsHalf(value)
	case FloatWidth32:
		return fitsSingle(value)
	default:
		return true
	}
}

// NewSimple constructs a simple value item. Values 24-31 are reserved and
// cannot be produced by this constructor (requesting one builds Undefined
// instead, since neither can round-trip through ParseBytes); use the
// Simple* constants for the four canonical names.
func NewSimple(value byte) *Item {
	if value >= 24 && value <= 31 {
		return &Item{Kind: KindSimple, SimpleValue: SimpleUndefined}
	}
	return &Item{Kind: KindSimple, SimpleValue: value}
}

var (
	itemFalse     = &Item{Kind: KindSimple, SimpleValue: SimpleFalse}
	itemTrue      = &Item{Kind: KindSimple, SimpleValue: SimpleTrue}
	itemNull      = &Item{Kind: KindSimple, SimpleValue: SimpleNull}
	itemUndefined = &Item{Kind: KindSimple, SimpleValue: SimpleUndefined}
)

// NewBool constructs the canonical true/false simple value.
func NewBool(b bool) *Item {
	if b {
		return &Item{Kind: KindSimple, SimpleValue: SimpleTrue}
	}
	return &Item{Kind: KindSimple, SimpleValue: SimpleFalse}
}

// NewNull constructs the canonical null simple value.
func NewNull() *Item { return &Item{Kind: KindSimple, SimpleValue: SimpleNull} }

// NewUndefined constructs the canonical undefined simple value.
func NewUndefined() *Item { return &Item{Kind: KindSimple, SimpleValue: SimpleUndefined} }

// IsIndefinite reports whether an array or map item has no declared length.
func (it *Item) IsIndefinite() bool {
	return (it.Kind == KindArray || it.Kind == KindMap) && it.Length == nil
}

// Signed returns the logical signed value of a KindUint/KindNegInt item.
// The second return is false if the magnitude does not fit in an int64
// (i.e. it requires bignum-tag treatment).
func (it *Item) Signed() (int64, bool) {
	switch it.Kind {
	case KindUint:
		if it.IntValue > math.MaxInt64 {
			return 0, false
		}
		return int64(it.IntValue), true
	case KindNegInt:
		if it.IntValue > math.MaxInt64 {
			return 0, false
		}
		return -1 - int64(it.IntValue), true
	default:
		return 0, false
	}
}

// Equal reports structural equality between two items, comparing floats by
// bit pattern so that NaN compares equal to itself (required for round-trip
// tests over arbitrary trees, per the data model's equality rule).
func (it *Item) Equal(other *Item) bool {
	if it == nil || other == nil {
		return it == other
	}
	if it.Kind != other.Kind {
		return false
	}
	switch it.Kind {
	case KindUint, KindNegInt:
		return it.IntValue == other.IntValue && it.IntWidth == other.IntWidth
	case KindBytes:
		return it.LenWidth == other.LenWidth && bytesEqual(it.Bytes, other.Bytes)
	case KindText:
		return it.LenWidth == other.LenWidth && it.Text == other.Text
	case KindBytesIndef:
		if len(it.ByteChunks) != len(other.ByteChunks) {
			return false
		}
		for i := range it.ByteChunks {
			a, b := it.ByteChunks[i], other.ByteChunks[i]
			if a.LenWidth != b.LenWidth || !bytesEqual(a.Data, b.Data) {
				return false
			}
		}
		return true
	case KindTextIndef:
		if len(it.TextChunks) != len(other.TextChunks) {
			return false
		}
		for i := range it.TextChunks {
			a, b := it.TextChunks[i], other.TextChunks[i]
			if a.LenWidth != b.LenWidth || a.Data != b.Data {
				return false
			}
		}
		return true
	case KindArray:
		if !widthPtrEqual(it.Length, other.Length) || len(it.Items) != len(other.Items) {
			return false
		}
		for i := range it.Items {
			if !it.Items[i].Equal(other.Items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if !widthPtrEqual(it.Length, other.Length) || len(it.Pairs) != len(other.Pairs) {
			return false
		}
		for i := range it.Pairs {
			if !it.Pairs[i].Key.Equal(other.Pairs[i].Key) || !it.Pairs[i].Value.Equal(other.Pairs[i].Value) {
				return false
			}
		}
		return true
	case KindTag:
		return it.TagNumber == other.TagNumber && it.TagWidth == other.TagWidth && it.Tagged.Equal(other.Tagged)
	case KindFloat:
		return it.FloatWidth == other.FloatWidth && floatBitsEqual(it.FloatValue, other.FloatValue)
	case KindSimple:
		return it.SimpleValue == other.SimpleValue
	default:
		return false
	}
}

func widthPtrEqual(a, b *IntWidth) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func floatBitsEqual(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
