package cbor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// hexBytesPerRow is the wrap width for byte/text string payload rows.
const hexBytesPerRow = 16

// hexRow is one line of the two-pass annotated-hex listing: either a hex
// octet run with a trailing comment, or (when hex is empty) a comment-only
// continuation line such as a tag's semantic expansion or a break trailer.
type hexRow struct {
	group   int
	indent  int
	hex     string
	comment string
}

// hexBuilder accumulates rows in a first pass, then renders them with
// per-group column alignment in a second pass (4.F: "the hex column width
// is chosen per-container so that all sibling lines have aligned #").
type hexBuilder struct {
	rows      []hexRow
	nextGroup int
}

// ToHex renders the item as an annotated, column-aligned hex listing.
func (it *Item) ToHex() string {
	b := &hexBuilder{}
	b.emitItem(it, 0, b.newGroup(), 0)
	return b.render()
}

func (b *hexBuilder) newGroup() int {
	g := b.nextGroup
	b.nextGroup++
	return g
}

func (b *hexBuilder) add(indent, group int, data []byte, comment string) {
	b.rows = append(b.rows, hexRow{group: group, indent: indent, hex: hexSpaced(data), comment: comment})
}

func (b *hexBuilder) addComment(indent, group int, comment string) {
	b.rows = append(b.rows, hexRow{group: group, indent: indent, comment: comment})
}

func hexSpaced(data []byte) string {
	parts := make([]string, len(data))
	for i, c := range data {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}

func (b *hexBuilder) emitItem(it *Item, indent, group int, hint uint64) {
	switch it.Kind {
	case KindUint:
		data := appendHeadWidth(nil, MajorTypeUnsignedInteger, it.IntValue, it.IntWidth)
		b.add(indent, group, data, fmt.Sprintf("unsigned(%d)", it.IntValue))

	case KindNegInt:
		data := appendHeadWidth(nil, MajorTypeNegativeInteger, it.IntValue, it.IntWidth)
		if v, ok := it.Signed(); ok {
			b.add(indent, group, data, fmt.Sprintf("negative(%d)", v))
		} else {
			b.add(indent, group, data, fmt.Sprintf("negative(-1-%d)", it.IntValue))
		}

	case KindBytes:
		head := appendHeadWidth(nil, MajorTypeByteString, uint64(len(it.Bytes)), it.LenWidth)
		b.add(indent, group, head, fmt.Sprintf("bytes(%d)", len(it.Bytes)))
		b.emitStringPayload(it.Bytes, indent, group, hint, false)

	case KindText:
		head := appendHeadWidth(nil, MajorTypeTextString, uint64(len(it.Text)), it.LenWidth)
		b.add(indent, group, head, fmt.Sprintf("text(%d)", len(it.Text)))
		b.emitStringPayload([]byte(it.Text), indent, group, hint, true)

	case KindBytesIndef:
		b.add(indent, group, []byte{encodeInitialByte(MajorTypeByteString, byte(AdditionalInfoIndefiniteLength))}, "bytes(*)")
		cg := b.newGroup()
		for _, c := range it.ByteChunks {
			chead := appendHeadWidth(nil, MajorTypeByteString, uint64(len(c.Data)), c.LenWidth)
			b.add(indent+1, cg, chead, fmt.Sprintf("bytes(%d)", len(c.Data)))
			b.emitStringPayload(c.Data, indent+1, cg, hint, false)
		}
		b.add(indent+1, cg, []byte{breakByte}, "break")

	case KindTextIndef:
		b.add(indent, group, []byte{encodeInitialByte(MajorTypeTextString, byte(AdditionalInfoIndefiniteLength))}, "text(*)")
		cg := b.newGroup()
		for _, c := range it.TextChunks {
			chead := appendHeadWidth(nil, MajorTypeTextString, uint64(len(c.Data)), c.LenWidth)
			b.add(indent+1, cg, chead, fmt.Sprintf("text(%d)", len(c.Data)))
			b.emitStringPayload([]byte(c.Data), indent+1, cg, hint, true)
		}
		b.add(indent+1, cg, []byte{breakByte}, "break")

	case KindArray:
		b.emitArray(it, indent, group, hint)

	case KindMap:
		b.emitMap(it, indent, group, hint)

	case KindTag:
		b.emitTag(it, indent, group, hint)

	case KindFloat:
		data := appendFloat(nil, it.FloatValue, it.FloatWidth)
		b.add(indent, group, data, fmt.Sprintf("float(%s)", renderFloatValue(it.FloatValue)))

	case KindSimple:
		data := appendSimple(nil, it.SimpleValue)
		b.add(indent, group, data, renderSimple(it.SimpleValue))
	}
}

func (b *hexBuilder) emitArray(it *Item, indent, group int, hint uint64) {
	if it.Length == nil {
		b.add(indent, group, []byte{encodeInitialByte(MajorTypeArray, byte(AdditionalInfoIndefiniteLength))}, "array(*)")
		cg := b.newGroup()
		for _, child := range it.Items {
			b.emitItem(child, indent+1, cg, hint)
		}
		b.add(indent+1, cg, []byte{breakByte}, "break")
		return
	}
	head := appendHeadWidth(nil, MajorTypeArray, uint64(len(it.Items)), *it.Length)
	b.add(indent, group, head, fmt.Sprintf("array(%d)", len(it.Items)))
	cg := b.newGroup()
	for _, child := range it.Items {
		b.emitItem(child, indent+1, cg, hint)
	}
}

func (b *hexBuilder) emitMap(it *Item, indent, group int, hint uint64) {
	if it.Length == nil {
		b.add(indent, group, []byte{encodeInitialByte(MajorTypeMap, byte(AdditionalInfoIndefiniteLength))}, "map(*)")
		cg := b.newGroup()
		for _, p := range it.Pairs {
			b.emitItem(p.Key, indent+1, cg, hint)
			b.emitItem(p.Value, indent+1, cg, hint)
		}
		b.add(indent+1, cg, []byte{breakByte}, "break")
		return
	}
	head := appendHeadWidth(nil, MajorTypeMap, uint64(len(it.Pairs)), *it.Length)
	b.add(indent, group, head, fmt.Sprintf("map(%d)", len(it.Pairs)))
	cg := b.newGroup()
	for _, p := range it.Pairs {
		b.emitItem(p.Key, indent+1, cg, hint)
		b.emitItem(p.Value, indent+1, cg, hint)
	}
}

// emitTag renders the tag header (with its display name when recognized),
// the nested item, any semantic post-comment the tag registry produces, and
// — for tags 24/63 — the recursively parsed payload inlined as commentary.
func (b *hexBuilder) emitTag(it *Item, indent, group int, hint uint64) {
	head := appendHeadWidth(nil, MajorTypeTag, it.TagNumber, it.TagWidth)
	label := fmt.Sprintf("tag(%d)", it.TagNumber)
	if name := tagDisplayName(it.TagNumber); name != "" {
		label = name + ", " + label
	}
	b.add(indent, group, head, label)

	cg := b.newGroup()
	b.emitItem(it.Tagged, indent+1, cg, childHint(it, hint))

	for _, line := range tagComment(it) {
		b.addComment(indent+1, cg, line)
	}

	if it.TagNumber == uint64(TagEncodedCborData) || it.TagNumber == uint64(TagEncodedCborSeq) {
		if it.Tagged.Kind == KindBytes {
			if inner, err := ParseBytes(it.Tagged.Bytes); err == nil {
				b.emitItem(inner, indent+1, b.newGroup(), 0)
			} else {
				b.addComment(indent+1, cg, "failed to parse encoded cbor data item")
			}
		}
	}
}

// emitStringPayload wraps a byte/text string's payload into <=16-byte rows,
// splitting only at UTF-8 code-point boundaries, each annotated with a
// decoded preview (or, under an active base-hint tag, the hinted literal).
func (b *hexBuilder) emitStringPayload(data []byte, indent, group int, hint uint64, isText bool) {
	if len(data) == 0 {
		return
	}
	for _, row := range wrapAtRuneBoundary(data, hexBytesPerRow) {
		var comment string
		if hint != 0 && !isText {
			comment = byteStringLiteral(row, hint)
		} else {
			comment = previewBytes(row)
		}
		b.add(indent, group, row, comment)
	}
}

// wrapAtRuneBoundary splits data into chunks of at most maxLen bytes,
// never cutting through the middle of a UTF-8 code point.
func wrapAtRuneBoundary(data []byte, maxLen int) [][]byte {
	var rows [][]byte
	for len(data) > 0 {
		if len(data) <= maxLen {
			rows = append(rows, data)
			break
		}
		end := maxLen
		for end > 0 && !utf8.RuneStart(data[end]) {
			end--
		}
		if end == 0 {
			end = maxLen
		}
		rows = append(rows, data[:end])
		data = data[end:]
	}
	return rows
}

// previewBytes renders data as a quoted text preview, escaping control
// characters and bytes that don't decode as UTF-8.
func previewBytes(data []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			fmt.Fprintf(&sb, `\x%02x`, data[0])
			data = data[1:]
			continue
		}
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\x%02x`, data[0])
			} else {
				sb.WriteRune(r)
			}
		}
		data = data[size:]
	}
	sb.WriteByte('"')
	return sb.String()
}

// render is the second pass: pad every row's hex column to the widest row
// sharing its group, then join with aligned "#" comments.
func (b *hexBuilder) render() string {
	widths := make(map[int]int, len(b.rows))
	for _, r := range b.rows {
		if len(r.hex) > widths[r.group] {
			widths[r.group] = len(r.hex)
		}
	}
	var sb strings.Builder
	for i, r := range b.rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Repeat("  ", r.indent))
		if r.hex == "" {
			sb.WriteString("# ")
			sb.WriteString(r.comment)
			continue
		}
		sb.WriteString(r.hex)
		sb.WriteString(strings.Repeat(" ", widths[r.group]-len(r.hex)))
		sb.WriteString(" # ")
		sb.WriteString(r.comment)
	}
	return sb.String()
}
