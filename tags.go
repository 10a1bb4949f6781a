package cbor

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
)

// tagDisplayName returns the human-readable name the annotated-hex printer
// prefixes a recognized tag's header line with (e.g. "standard datetime
// string, tag(0)"). Unrecognized tags get no name, only "tag(N)".
func tagDisplayName(tagNumber uint64) string {
	switch tagNumber {
	case uint64(TagDateTimeString):
		return "standard datetime string"
	case uint64(TagUnixTime):
		return "epoch-based datetime"
	case uint64(TagUnsignedBignum):
		return "positive bignum"
	case uint64(TagNegativeBignum):
		return "negative bignum"
	case uint64(TagDecimalFraction):
		return "decimal fraction"
	case uint64(TagBigFloat):
		return "bigfloat"
	case uint64(TagExpectedBase64URL):
		return "expected base64url encoding"
	case uint64(TagExpectedBase64):
		return "expected base64 encoding"
	case uint64(TagExpectedBase16):
		return "expected base16 encoding"
	case uint64(TagEncodedCborData):
		return "encoded cbor data item"
	case uint64(TagURI):
		return "uri"
	case uint64(TagBase64URL):
		return "base64url-encoded text"
	case uint64(TagBase64):
		return "base64-encoded text"
	case uint64(TagRegularExpression):
		return "regular expression"
	case uint64(TagMIMEMessage):
		return "mime message"
	case uint64(TagUUID):
		return "uuid"
	case uint64(TagSelfDescribedCbor):
		return "self describe cbor"
	case uint64(TagEncodedCborSeq):
		return "encoded cbor sequence"
	case uint64(TagDaysSinceEpoch):
		return "days since epoch"
	case uint64(TagNetworkAddress):
		return "network address"
	case uint64(TagISODate):
		return "iso calendar date"
	}
	return ""
}

// tagComment returns the semantic post-comment lines the annotated-hex
// printer appends after a recognized tag's nested item, per 4.F/4.G's tag
// semantics registry. A tag whose nested item doesn't have the expected
// shape still renders normally; this returns an "invalid ..." note instead
// of aborting. Tags 24/63 (embedded CBOR) are handled directly by the
// hex printer, not here.
func tagComment(it *Item) []string {
	if it.Kind != KindTag || it.Tagged == nil {
		return nil
	}
	switch it.TagNumber {
	case uint64(TagDateTimeString):
		return tagDateTimeString(it.Tagged)
	case uint64(TagUnixTime):
		return tagUnixTime(it.Tagged)
	case uint64(TagUnsignedBignum), uint64(TagNegativeBignum):
		return tagBignum(it.TagNumber, it.Tagged)
	case uint64(TagDecimalFraction):
		return tagRational(it.Tagged, 10)
	case uint64(TagBigFloat):
		return tagRational(it.Tagged, 2)
	case uint64(TagURI):
		return tagURI(it.Tagged)
	case uint64(TagBase64URL), uint64(TagBase64):
		return tagBase64Decode(it.TagNumber, it.Tagged)
	case uint64(TagRegularExpression):
		return []string{"regular expression (PCRE/ECMA262)"}
	case uint64(TagMIMEMessage):
		return []string{"MIME message (RFC 2045)"}
	case uint64(TagUUID):
		return tagUUID(it.Tagged)
	case uint64(TagSelfDescribedCbor):
		return []string{"self describe cbor"}
	case uint64(TagDaysSinceEpoch), uint64(TagISODate):
		return tagCalendarDate(it.TagNumber, it.Tagged)
	case uint64(TagNetworkAddress):
		return tagNetworkAddress(it.Tagged)
	}
	return nil
}

func tagDateTimeString(nested *Item) []string {
	if nested.Kind != KindText {
		return []string{"invalid datetime string"}
	}
	t, err := time.Parse(time.RFC3339Nano, nested.Text)
	if err != nil {
		return []string{"invalid datetime string"}
	}
	sec := float64(t.UnixNano()) / 1e9
	if sec == math.Trunc(sec) {
		return []string{fmt.Sprintf("epoch(%d)", int64(sec))}
	}
	return []string{fmt.Sprintf("epoch(%g)", sec)}
}

func tagUnixTime(nested *Item) []string {
	var sec float64
	switch nested.Kind {
	case KindUint:
		sec = float64(nested.IntValue)
	case KindNegInt:
		v, ok := nested.Signed()
		if !ok {
			return []string{"invalid epoch value"}
		}
		sec = float64(v)
	case KindFloat:
		sec = nested.FloatValue
	default:
		return []string{"invalid epoch value"}
	}
	t := time.Unix(0, int64(sec*float64(time.Second))).UTC()
	return []string{fmt.Sprintf("datetime(%s)", t.Format(time.RFC3339))}
}

func tagBignum(tagNumber uint64, nested *Item) []string {
	if nested.Kind != KindBytes {
		return []string{"invalid bignum"}
	}
	n := new(big.Int).SetBytes(nested.Bytes)
	if tagNumber == uint64(TagNegativeBignum) {
		n = new(big.Int).Sub(big.NewInt(-1), n)
	}
	return []string{n.String()}
}

// tagRational computes m*base^e as a reduced fraction p/q, for the decimal
// fraction (base 10) and bigfloat (base 2) tags.
func tagRational(nested *Item, base int64) []string {
	if nested.Kind != KindArray || len(nested.Items) != 2 {
		return []string{"invalid fraction"}
	}
	e, eok := itemToBigInt(nested.Items[0])
	m, mok := itemToBigInt(nested.Items[1])
	if !eok || !mok {
		return []string{"invalid fraction"}
	}
	num := new(big.Int).Set(m)
	den := big.NewInt(1)
	b := big.NewInt(base)
	if e.Sign() >= 0 {
		num.Mul(num, new(big.Int).Exp(b, e, nil))
	} else {
		den = new(big.Int).Exp(b, new(big.Int).Neg(e), nil)
	}
	if g := new(big.Int).GCD(nil, nil, new(big.Int).Abs(num), den); g.Sign() != 0 {
		num.Div(num, g)
		den.Div(den, g)
	}
	return []string{fmt.Sprintf("(%s/%s)", num.String(), den.String())}
}

func itemToBigInt(it *Item) (*big.Int, bool) {
	switch it.Kind {
	case KindUint:
		return new(big.Int).SetUint64(it.IntValue), true
	case KindNegInt:
		n := new(big.Int).SetUint64(it.IntValue)
		return n.Neg(n.Add(n, big.NewInt(1))), true
	default:
		return nil, false
	}
}

func tagURI(nested *Item) []string {
	if nested.Kind != KindText {
		return []string{"invalid URL"}
	}
	u, err := url.Parse(nested.Text)
	if err != nil || u.Scheme == "" {
		return []string{"invalid URL"}
	}
	return []string{"valid URL"}
}

func tagBase64Decode(tagNumber uint64, nested *Item) []string {
	if nested.Kind != KindText {
		return []string{"invalid base64 text"}
	}
	trimmed := strings.TrimRight(nested.Text, "=")
	var (
		data []byte
		err  error
	)
	if tagNumber == uint64(TagBase64URL) {
		data, err = base64.RawURLEncoding.DecodeString(trimmed)
	} else {
		data, err = base64.RawStdEncoding.DecodeString(trimmed)
	}
	if err != nil {
		return []string{"invalid base64 text"}
	}
	return []string{fmt.Sprintf("decoded: %s", hex.EncodeToString(data))}
}

func tagUUID(nested *Item) []string {
	if nested.Kind != KindBytes || len(nested.Bytes) != 16 {
		return []string{"invalid UUID"}
	}
	id, err := uuid.FromBytes(nested.Bytes)
	if err != nil {
		return []string{"invalid UUID"}
	}
	return []string{
		fmt.Sprintf("uuid(%s)", id.String()),
		fmt.Sprintf("variant %v, version %v", id.Variant(), id.Version()),
		fmt.Sprintf("base16: %s", hex.EncodeToString(nested.Bytes)),
		fmt.Sprintf("base58: %s", base58.Encode(nested.Bytes)),
		fmt.Sprintf("base64: %s", base64.RawStdEncoding.EncodeToString(nested.Bytes)),
	}
}

func tagCalendarDate(tagNumber uint64, nested *Item) []string {
	epoch := time.Unix(0, 0).UTC()
	if tagNumber == uint64(TagDaysSinceEpoch) {
		v, ok := nested.Signed()
		if !ok {
			return []string{"invalid date"}
		}
		return []string{fmt.Sprintf("date(%s)", epoch.AddDate(0, 0, int(v)).Format("2006-01-02"))}
	}
	if nested.Kind != KindText {
		return []string{"invalid date"}
	}
	t, err := time.Parse("2006-01-02", nested.Text)
	if err != nil {
		return []string{"invalid date"}
	}
	days := int64(t.Sub(epoch).Hours() / 24)
	return []string{fmt.Sprintf("days(%d)", days)}
}

func tagNetworkAddress(nested *Item) []string {
	if nested.Kind != KindBytes {
		return []string{"invalid data length"}
	}
	switch len(nested.Bytes) {
	case 4, 16:
		return []string{fmt.Sprintf("ip(%s)", net.IP(nested.Bytes).String())}
	case 6:
		return []string{fmt.Sprintf("mac(%s)", net.HardwareAddr(nested.Bytes).String())}
	default:
		return []string{"invalid data length"}
	}
}
