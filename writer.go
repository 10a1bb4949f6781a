package cbor

import (
	"encoding/binary"
	"math"
)

// ToBytes serializes the item tree to its RFC 8949 binary encoding,
// honoring every stored width that can hold its value. Widths of
// WidthUnknown/FloatWidthUnknown, and integer widths too narrow for their
// value, are resolved to the minimal encoding that fits, per the
// binary writer design (spec.md §4.C): integers promote to the narrowest
// width that can hold the value, floats promote to 64-bit.
func (it *Item) ToBytes() []byte {
	buf := make([]byte, 0, 128)
	return appendItem(buf, it)
}

func appendItem(buf []byte, it *Item) []byte {
	switch it.Kind {
	case KindUint:
		return appendHeadWidth(buf, MajorTypeUnsignedInteger, it.IntValue, it.IntWidth)

	case KindNegInt:
		return appendHeadWidth(buf, MajorTypeNegativeInteger, it.IntValue, it.IntWidth)

	case KindBytes:
		buf = appendHeadWidth(buf, MajorTypeByteString, uint64(len(it.Bytes)), it.LenWidth)
		return append(buf, it.Bytes...)

	case KindText:
		buf = appendHeadWidth(buf, MajorTypeTextString, uint64(len(it.Text)), it.LenWidth)
		return append(buf, it.Text...)

	case KindBytesIndef:
		buf = append(buf, encodeInitialByte(MajorTypeByteString, byte(AdditionalInfoIndefiniteLength)))
		for _, c := range it.ByteChunks {
			buf = appendHeadWidth(buf, MajorTypeByteString, uint64(len(c.Data)), c.LenWidth)
			buf = append(buf, c.Data...)
		}
		return append(buf, breakByte)

	case KindTextIndef:
		buf = append(buf, encodeInitialByte(MajorTypeTextString, byte(AdditionalInfoIndefiniteLength)))
		for _, c := range it.TextChunks {
			buf = appendHeadWidth(buf, MajorTypeTextString, uint64(len(c.Data)), c.LenWidth)
			buf = append(buf, c.Data...)
		}
		return append(buf, breakByte)

	case KindArray:
		if it.Length == nil {
			buf = append(buf, encodeInitialByte(MajorTypeArray, byte(AdditionalInfoIndefiniteLength)))
			for _, child := range it.Items {
				buf = appendItem(buf, child)
			}
			return append(buf, breakByte)
		}
		buf = appendHeadWidth(buf, MajorTypeArray, uint64(len(it.Items)), *it.Length)
		for _, child := range it.Items {
			buf = appendItem(buf, child)
		}
		return buf

	case KindMap:
		if it.Length == nil {
			buf = append(buf, encodeInitialByte(MajorTypeMap, byte(AdditionalInfoIndefiniteLength)))
			for _, p := range it.Pairs {
				buf = appendItem(buf, p.Key)
				buf = appendItem(buf, p.Value)
			}
			return append(buf, breakByte)
		}
		buf = appendHeadWidth(buf, MajorTypeMap, uint64(len(it.Pairs)), *it.Length)
		for _, p := range it.Pairs {
			buf = appendItem(buf, p.Key)
			buf = appendItem(buf, p.Value)
		}
		return buf

	case KindTag:
		buf = appendHeadWidth(buf, MajorTypeTag, it.TagNumber, it.TagWidth)
		return appendItem(buf, it.Tagged)

	case KindFloat:
		return appendFloat(buf, it.FloatValue, it.FloatWidth)

	case KindSimple:
		return appendSimple(buf, it.SimpleValue)
	}

	return buf
}

// appendHeadWidth appends a major-type head (and, for AI>=24, its argument
// bytes) honoring width exactly if it already fits value, otherwise
// resolving WidthUnknown/an-insufficient-width to the minimal encoding.
func appendHeadWidth(buf []byte, mt MajorType, value uint64, width IntWidth) []byte {
	w := width.resolved(value)
	switch w {
	case WidthZero:
		return append(buf, encodeInitialByte(mt, byte(value)))
	case Width8:
		return append(buf, encodeInitialByte(mt, byte(AdditionalInfo8Bit)), byte(value))
	case Width16:
		buf = append(buf, encodeInitialByte(mt, byte(AdditionalInfo16Bit)))
		return binary.BigEndian.AppendUint16(buf, uint16(value))
	case Width32:
		buf = append(buf, encodeInitialByte(mt, byte(AdditionalInfo32Bit)))
		return binary.BigEndian.AppendUint32(buf, uint32(value))
	default:
		buf = append(buf, encodeInitialByte(mt, byte(AdditionalInfo64Bit)))
		return binary.BigEndian.AppendUint64(buf, value)
	}
}

func appendFloat(buf []byte, value float64, width FloatWidth) []byte {
	if width == FloatWidthUnknown {
		width = FloatWidth64
	}
	switch width {
	case FloatWidth16:
		buf = append(buf, 0xf9)
		return binary.BigEndian.AppendUint16(buf, halfBitsFromFloat64(value))
	case FloatWidth32:
		buf = append(buf, 0xfa)
		return binary.BigEndian.AppendUint32(buf, math.Float32bits(float32(value)))
	default:
		buf = append(buf, 0xfb)
		return binary.BigEndian.AppendUint64(buf, math.Float64bits(value))
	}
}

// appendSimple encodes values below 24 directly in the initial byte and
// every value of 24 or more (including the reserved 24-31) in the long form
// (0xf8 xx).
func appendSimple(buf []byte, value byte) []byte {
	if value < 24 {
		return append(buf, encodeInitialByte(MajorTypeSimpleOrFloat, value))
	}
	return append(buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(AdditionalInfo8Bit)), value)
}
