package cbor

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// prettyWidthThreshold is the soft column budget a subtree's inline
// rendering may occupy before the pretty printer breaks it across lines.
const prettyWidthThreshold = 60

// ToDiag renders the item as compact diagnostic notation: single-character
// separators, no internal whitespace.
func (it *Item) ToDiag() string {
	var sb strings.Builder
	writeCompact(&sb, it, 0)
	return sb.String()
}

// ToDiagPretty renders the item as diagnostic notation for humans: spaced
// separators, and containers whose inline form would exceed ~60 columns
// break across lines with 4-space indentation and a trailing comma.
func (it *Item) ToDiagPretty() string {
	return prettyRender(it, 0, 0)
}

func intWidthSuffix(w IntWidth) string {
	switch w {
	case Width8:
		return "_0"
	case Width16:
		return "_1"
	case Width32:
		return "_2"
	case Width64:
		return "_3"
	default:
		return ""
	}
}

func floatWidthSuffix(w FloatWidth) string {
	switch w {
	case FloatWidth16:
		return "_1"
	case FloatWidth32:
		return "_2"
	case FloatWidth64:
		return "_3"
	default:
		return ""
	}
}

func renderFloatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "Infinity"
	}
	if math.IsInf(v, -1) {
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func renderSimple(v byte) string {
	switch v {
	case SimpleFalse:
		return "false"
	case SimpleTrue:
		return "true"
	case SimpleNull:
		return "null"
	case SimpleUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("simple(%d)", v)
	}
}

func escapeTextLiteral(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
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
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// byteStringLiteral renders data as a byte-string literal. hint is a
// base-hint tag number (21 base64url, 22 base64, 23 base16/hex, 0 none);
// the default (and 23) is hex, per 4.E.
func byteStringLiteral(data []byte, hint uint64) string {
	switch hint {
	case uint64(TagExpectedBase64URL):
		return "b64'" + base64.RawURLEncoding.EncodeToString(data) + "'"
	case uint64(TagExpectedBase64):
		return "b64'" + base64.RawStdEncoding.EncodeToString(data) + "'"
	default:
		return "h'" + hex.EncodeToString(data) + "'"
	}
}

// baseHintTag returns the base-hint tag number an item introduces for its
// immediate child, or 0 if it doesn't change the ambient hint.
func baseHintTag(it *Item) uint64 {
	if it.Kind == KindTag {
		switch it.TagNumber {
		case uint64(TagExpectedBase64URL), uint64(TagExpectedBase64), uint64(TagExpectedBase16):
			return it.TagNumber
		}
	}
	return 0
}

// childHint resolves the base-hint tag in effect for it's nested item: a
// fresh 21/22/23 tag overrides the ambient (the enclosing hint),
// per RFC 8610's "recursively, unless overridden by a nested occurrence".
func childHint(it *Item, ambient uint64) uint64 {
	if h := baseHintTag(it); h != 0 {
		return h
	}
	return ambient
}

// writeCompact writes it's fully compact diagnostic-notation form: no
// internal whitespace, single-character separators.
func writeCompact(sb *strings.Builder, it *Item, hint uint64) {
	switch it.Kind {
	case KindUint:
		sb.WriteString(strconv.FormatUint(it.IntValue, 10))
		sb.WriteString(intWidthSuffix(it.IntWidth))
	case KindNegInt:
		sb.WriteByte('-')
		sb.WriteString(strconv.FormatUint(it.IntValue+1, 10))
		sb.WriteString(intWidthSuffix(it.IntWidth))
	case KindBytes:
		sb.WriteString(byteStringLiteral(it.Bytes, hint))
	case KindText:
		sb.WriteString(escapeTextLiteral(it.Text))
	case KindBytesIndef:
		if len(it.ByteChunks) == 0 {
			sb.WriteString("(_ )")
			return
		}
		sb.WriteString("(_")
		for i, c := range it.ByteChunks {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(byteStringLiteral(c.Data, hint))
		}
		sb.WriteByte(')')
	case KindTextIndef:
		if len(it.TextChunks) == 0 {
			sb.WriteString("(_ )")
			return
		}
		sb.WriteString("(_")
		for i, c := range it.TextChunks {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(escapeTextLiteral(c.Data))
		}
		sb.WriteByte(')')
	case KindArray:
		sb.WriteByte('[')
		if it.Length == nil {
			sb.WriteByte('_')
		}
		for i, child := range it.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCompact(sb, child, hint)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		if it.Length == nil {
			sb.WriteByte('_')
		}
		for i, p := range it.Pairs {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCompact(sb, p.Key, hint)
			sb.WriteByte(':')
			writeCompact(sb, p.Value, hint)
		}
		sb.WriteByte('}')
	case KindTag:
		if rendered, ok := tryRenderEmbeddedCborTag(it, false, 0); ok {
			sb.WriteString(rendered)
			return
		}
		sb.WriteString(strconv.FormatUint(it.TagNumber, 10))
		sb.WriteString(intWidthSuffix(it.TagWidth))
		sb.WriteByte('(')
		writeCompact(sb, it.Tagged, childHint(it, hint))
		sb.WriteByte(')')
	case KindFloat:
		sb.WriteString(renderFloatValue(it.FloatValue))
		sb.WriteString(floatWidthSuffix(it.FloatWidth))
	case KindSimple:
		sb.WriteString(renderSimple(it.SimpleValue))
	}
}

// tryRenderEmbeddedCborTag renders "24(<<...>>)"/"63(<<...>>)" when the
// tagged byte string parses cleanly back to exactly one CBOR item. A tag-63
// payload holding more than one item fails that parse and is rendered as a
// plain tagged byte string.
func tryRenderEmbeddedCborTag(it *Item, pretty bool, indent int) (string, bool) {
	if it.Kind != KindTag || it.Tagged == nil || it.Tagged.Kind != KindBytes {
		return "", false
	}
	if it.TagNumber != uint64(TagEncodedCborData) && it.TagNumber != uint64(TagEncodedCborSeq) {
		return "", false
	}
	inner, err := ParseBytes(it.Tagged.Bytes)
	if err != nil {
		return "", false
	}
	var body string
	if pretty {
		body = prettyRender(inner, indent, 0)
	} else {
		var sb strings.Builder
		writeCompact(&sb, inner, 0)
		body = sb.String()
	}
	prefix := strconv.FormatUint(it.TagNumber, 10) + intWidthSuffix(it.TagWidth)
	return prefix + "(<<" + body + ">>)", true
}

// prettyRender renders it as diagnostic notation for humans, breaking a
// container across lines only when its single-line form would exceed
// prettyWidthThreshold.
func prettyRender(it *Item, indent int, hint uint64) string {
	switch it.Kind {
	case KindArray:
		open := "["
		if it.Length == nil {
			open = "[_ "
		}
		return prettyContainer(open, "]", it.Items, indent, func(child *Item, childIndent int) string {
			return prettyRender(child, childIndent, hint)
		})
	case KindMap:
		open := "{"
		if it.Length == nil {
			open = "{_ "
		}
		return prettyContainer(open, "}", it.Pairs, indent, func(p Pair, childIndent int) string {
			return prettyRender(p.Key, childIndent, hint) + ": " + prettyRender(p.Value, childIndent, hint)
		})
	case KindBytesIndef:
		if len(it.ByteChunks) == 0 {
			return "(_ )"
		}
		return prettyContainer("(_ ", ")", it.ByteChunks, indent, func(c ByteChunk, _ int) string {
			return byteStringLiteral(c.Data, hint)
		})
	case KindTextIndef:
		if len(it.TextChunks) == 0 {
			return "(_ )"
		}
		return prettyContainer("(_ ", ")", it.TextChunks, indent, func(c TextChunk, _ int) string {
			return escapeTextLiteral(c.Data)
		})
	case KindTag:
		if rendered, ok := tryRenderEmbeddedCborTag(it, true, indent); ok {
			return rendered
		}
		prefix := strconv.FormatUint(it.TagNumber, 10) + intWidthSuffix(it.TagWidth)
		return prefix + "(" + prettyRender(it.Tagged, indent, childHint(it, hint)) + ")"
	default:
		var sb strings.Builder
		writeCompact(&sb, it, hint)
		return sb.String()
	}
}

// prettyContainer renders a homogeneous slice of children as either a
// single inline line or, if that would exceed the width threshold, a
// multi-line block indented 4 spaces per level with a trailing comma.
func prettyContainer[T any](open, close string, children []T, indent int, render func(T, int) string) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = render(c, indent+1)
	}
	inline := open + strings.Join(parts, ", ") + close
	if !strings.Contains(inline, "\n") && len(inline) <= prettyWidthThreshold {
		return inline
	}

	pad := strings.Repeat("    ", indent+1)
	closePad := strings.Repeat("    ", indent)
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(open, " "))
	sb.WriteByte('\n')
	for _, p := range parts {
		sb.WriteString(pad)
		sb.WriteString(p)
		sb.WriteString(",\n")
	}
	sb.WriteString(closePad)
	sb.WriteString(close)
	return sb.String()
}
