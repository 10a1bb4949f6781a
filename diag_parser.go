package cbor

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// diagParser is a one-token-lookahead recursive-descent parser over lexer's
// token stream.
type diagParser struct {
	lx  *lexer
	tok token
}

func newDiagParser(text string) (*diagParser, error) {
	p := &diagParser{lx: newLexer(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *diagParser) advance() error {
	t, err := p.lx.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *diagParser) unexpected(msg string) error {
	return &DiagSyntaxError{Span: Span{p.tok.start, p.tok.end}, Message: msg}
}

// ParseDiag parses a single diagnostic-notation (EDN) data item, per
// RFC 8610 Appendix G plus the width-suffix and NaN/Infinity extensions
// documented alongside the grammar.
func ParseDiag(text string) (*Item, error) {
	p, err := newDiagParser(text)
	if err != nil {
		return nil, err
	}
	item, err := p.parseItem()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.unexpected("trailing data after top-level item")
	}
	return item, nil
}

func (p *diagParser) parseItem() (*Item, error) {
	switch p.tok.kind {
	case tokMinus:
		return p.parseNegative()
	case tokNumber:
		return p.parseNumberOrTag()
	case tokByteLit, tokLShift:
		return p.parseByteStringConcat()
	case tokString:
		tok := p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewText(tok.text), nil
	case tokLBracket:
		return p.parseArray()
	case tokLBrace:
		return p.parseMap()
	case tokLParen:
		return p.parseIndefiniteString()
	case tokIdent:
		return p.parseIdent()
	default:
		return nil, p.unexpected("unexpected token, expected a data item")
	}
}

func intWidthFromSuffix(s string) (IntWidth, error) {
	switch s {
	case "0":
		return Width8, nil
	case "1":
		return Width16, nil
	case "2":
		return Width32, nil
	case "3":
		return Width64, nil
	}
	return WidthUnknown, errors.New("invalid integer width suffix")
}

func floatWidthFromSuffix(s string) (FloatWidth, error) {
	switch s {
	case "1":
		return FloatWidth16, nil
	case "2":
		return FloatWidth32, nil
	case "3":
		return FloatWidth64, nil
	}
	return FloatWidthUnknown, errors.New("invalid float width suffix (only _1/_2/_3 are valid)")
}

// applyFloatWidth sets item's float width to w, failing with a
// DiagSyntaxError spanning widthTok if the literal's value does not fit
// that precision exactly (invariant 6 of the data model: a width-16/32
// float must round-trip losslessly through binary16/binary32).
func applyFloatWidth(item *Item, w FloatWidth, widthTok token) error {
	if !floatFitsWidth(item.FloatValue, w) {
		return &DiagSyntaxError{
			Span:    Span{widthTok.start, widthTok.end},
			Message: fmt.Sprintf("float literal does not fit exactly in a %s-bit width", w),
		}
	}
	item.FloatWidth = w
	return nil
}

// decodeNumberLiteral classifies and decodes a tokNumber's raw text: 0x/0o/0b
// prefixes are always integers; a '.' or exponent marks a float; otherwise
// it's a decimal integer.
func decodeNumberLiteral(text string) (isFloat bool, u uint64, f float64, err error) {
	if len(text) >= 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			v, e := strconv.ParseUint(text[2:], 16, 64)
			return false, v, 0, e
		case 'o', 'O':
			v, e := strconv.ParseUint(text[2:], 8, 64)
			return false, v, 0, e
		case 'b', 'B':
			v, e := strconv.ParseUint(text[2:], 2, 64)
			return false, v, 0, e
		}
	}
	if strings.ContainsAny(text, ".eE") {
		v, e := strconv.ParseFloat(text, 64)
		return true, 0, v, e
	}
	v, e := strconv.ParseUint(text, 10, 64)
	return false, v, 0, e
}

// parseNumberOrTag handles uint/float literals and, when a number is
// immediately followed by "(", the "tag = uint width? '(' item ')'" form.
func (p *diagParser) parseNumberOrTag() (*Item, error) {
	tok := p.tok
	isFloat, u, f, err := decodeNumberLiteral(tok.text)
	if err != nil {
		return nil, &DiagSyntaxError{Span: Span{tok.start, tok.end}, Message: "invalid number literal"}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	hasWidth := false
	var widthTok token
	if p.tok.kind == tokWidth {
		hasWidth = true
		widthTok = p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if isFloat {
		item := NewFloat(f)
		if hasWidth {
			w, err := floatWidthFromSuffix(widthTok.text)
			if err != nil {
				return nil, &DiagSyntaxError{Span: Span{widthTok.start, widthTok.end}, Message: err.Error()}
			}
			if err := applyFloatWidth(item, w, widthTok); err != nil {
				return nil, err
			}
		}
		return item, nil
	}

	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		nested, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, p.unexpected("expected ')' to close tag application")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		tagWidth := WidthUnknown
		if hasWidth {
			w, err := intWidthFromSuffix(widthTok.text)
			if err != nil {
				return nil, &DiagSyntaxError{Span: Span{widthTok.start, widthTok.end}, Message: err.Error()}
			}
			tagWidth = w
		}
		return &Item{Kind: KindTag, TagNumber: u, TagWidth: tagWidth, Tagged: nested}, nil
	}

	item := NewUint(u)
	if hasWidth {
		w, err := intWidthFromSuffix(widthTok.text)
		if err != nil {
			return nil, &DiagSyntaxError{Span: Span{widthTok.start, widthTok.end}, Message: err.Error()}
		}
		item.IntWidth = w
	}
	return item, nil
}

// parseNegative handles "nint = '-' uint" (rejecting "-0"), negative float
// literals, and "-Infinity".
func (p *diagParser) parseNegative() (*Item, error) {
	minusTok := p.tok
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.tok.kind == tokIdent && p.tok.text == "Infinity" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.maybeFloatWidth(NewFloat(math.Inf(-1)))
	}

	if p.tok.kind != tokNumber {
		return nil, p.unexpected("expected a number after '-'")
	}
	tok := p.tok
	isFloat, u, f, err := decodeNumberLiteral(tok.text)
	if err != nil {
		return nil, &DiagSyntaxError{Span: Span{tok.start, tok.end}, Message: "invalid number literal"}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	hasWidth := false
	var widthTok token
	if p.tok.kind == tokWidth {
		hasWidth = true
		widthTok = p.tok
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	if isFloat {
		item := NewFloat(-f)
		if hasWidth {
			w, err := floatWidthFromSuffix(widthTok.text)
			if err != nil {
				return nil, &DiagSyntaxError{Span: Span{widthTok.start, widthTok.end}, Message: err.Error()}
			}
			if err := applyFloatWidth(item, w, widthTok); err != nil {
				return nil, err
			}
		}
		return item, nil
	}

	if u == 0 {
		return nil, NewCborError(ErrNegativeZero, minusTok.start, "")
	}
	item := NewNegInt(u - 1)
	if hasWidth {
		w, err := intWidthFromSuffix(widthTok.text)
		if err != nil {
			return nil, &DiagSyntaxError{Span: Span{widthTok.start, widthTok.end}, Message: err.Error()}
		}
		item.IntWidth = w
	}
	return item, nil
}

func (p *diagParser) maybeFloatWidth(item *Item) (*Item, error) {
	if p.tok.kind == tokWidth {
		widthTok := p.tok
		w, err := floatWidthFromSuffix(widthTok.text)
		if err != nil {
			return nil, &DiagSyntaxError{Span: Span{widthTok.start, widthTok.end}, Message: err.Error()}
		}
		if err := applyFloatWidth(item, w, widthTok); err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// parseIdent handles the simple keyword family and the non-finite float
// literals (NaN, Infinity), a supplement grounded in the upstream project's
// float test vectors (see SPEC_FULL.md §9).
func (p *diagParser) parseIdent() (*Item, error) {
	tok := p.tok
	switch tok.text {
	case "false":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewBool(false), nil
	case "true":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewBool(true), nil
	case "null":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewNull(), nil
	case "undefined":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewUndefined(), nil
	case "NaN":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.maybeFloatWidth(NewFloat(math.NaN()))
	case "Infinity":
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.maybeFloatWidth(NewFloat(math.Inf(1)))
	case "simple":
		return p.parseSimpleCall()
	default:
		return nil, &DiagSyntaxError{Span: Span{tok.start, tok.end}, Message: "unknown identifier " + tok.text}
	}
}

func (p *diagParser) parseSimpleCall() (*Item, error) {
	if err := p.advance(); err != nil { // consume "simple"
		return nil, err
	}
	if p.tok.kind != tokLParen {
		return nil, p.unexpected("expected '(' after simple")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokNumber {
		return nil, p.unexpected("expected a number in simple(...)")
	}
	tok := p.tok
	v, err := strconv.ParseUint(tok.text, 10, 8)
	if err != nil {
		return nil, &DiagSyntaxError{Span: Span{tok.start, tok.end}, Message: "simple value out of range"}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokRParen {
		return nil, p.unexpected("expected ')' to close simple(...)")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if v >= 24 && v <= 31 {
		return nil, &InvalidSimpleError{Value: byte(v)}
	}
	return NewSimple(byte(v)), nil
}

// parseByteStringConcat handles "bstr = bstrpart (ws bstrpart)*": adjacent
// byte-literal/embedded-CBOR parts concatenate into one definite byte
// string, per RFC 8610 Appendix G.4.
func (p *diagParser) parseByteStringConcat() (*Item, error) {
	buf, err := p.parseConcatenatedBytes()
	if err != nil {
		return nil, err
	}
	return NewBytes(buf), nil
}

// parseConcatenatedBytes consumes a run of adjacent byte-literal/embedded-CBOR
// tokens and returns their concatenated payload, stopping at the first token
// that can't extend the run (used both for a standalone bstr and for one
// comma-separated chunk inside an indefinite "(_ ...)" byte string).
func (p *diagParser) parseConcatenatedBytes() ([]byte, error) {
	var buf []byte
	for {
		switch p.tok.kind {
		case tokByteLit:
			tok := p.tok
			b, err := decodeBstrPart(tok)
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokLShift:
			b, err := p.parseEmbeddedCbor()
			if err != nil {
				return nil, err
			}
			buf = append(buf, b...)
		default:
			return buf, nil
		}
	}
}

// parseEmbeddedCbor handles "<<item ("," item)* ">>": each item is encoded
// to its binary form and the results concatenated.
func (p *diagParser) parseEmbeddedCbor() ([]byte, error) {
	if err := p.advance(); err != nil { // consume "<<"
		return nil, err
	}
	var out []byte
	if p.tok.kind != tokRShift {
		for {
			item, err := p.parseItem()
			if err != nil {
				return nil, err
			}
			out = append(out, item.ToBytes()...)
			if p.tok.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if p.tok.kind != tokRShift {
		return nil, p.unexpected("expected '>>' to close embedded CBOR")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseIndefiniteString handles the "(_ ...)" form: a genuinely indefinite
// byte or text string, its kind determined by the first chunk's syntax.
// "(_ )" with no chunks defaults to an empty indefinite byte string.
func (p *diagParser) parseIndefiniteString() (*Item, error) {
	if err := p.advance(); err != nil { // consume "("
		return nil, err
	}
	if p.tok.kind != tokUnderscore {
		return nil, p.unexpected("expected '_' to start an indefinite byte/text string")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokWidth {
		return nil, p.unexpected("width suffix not allowed on an indefinite-string marker")
	}

	if p.tok.kind == tokRParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &Item{Kind: KindBytesIndef}, nil
	}

	if p.tok.kind == tokString {
		return p.parseIndefiniteTextChunks()
	}
	return p.parseIndefiniteByteChunks()
}

func (p *diagParser) parseIndefiniteTextChunks() (*Item, error) {
	var chunks []TextChunk
	for {
		if p.tok.kind != tokString {
			return nil, p.unexpected("expected a text-string chunk")
		}
		chunks = append(chunks, TextChunk{Data: p.tok.text, LenWidth: WidthUnknown})
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.tok.kind != tokRParen {
		return nil, p.unexpected("expected ')' to close indefinite text string")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &Item{Kind: KindTextIndef, TextChunks: chunks}, nil
}

func (p *diagParser) parseIndefiniteByteChunks() (*Item, error) {
	var chunks []ByteChunk
	for {
		b, err := p.parseConcatenatedBytes()
		if err != nil {
			return nil, err
		}
		if len(b) == 0 && p.tok.kind != tokComma && p.tok.kind != tokRParen {
			return nil, p.unexpected("expected a byte-string chunk")
		}
		chunks = append(chunks, ByteChunk{Data: b, LenWidth: WidthUnknown})
		if p.tok.kind == tokComma {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if p.tok.kind != tokRParen {
		return nil, p.unexpected("expected ')' to close indefinite byte string")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &Item{Kind: KindBytesIndef, ByteChunks: chunks}, nil
}

func (p *diagParser) parseArray() (*Item, error) {
	if err := p.advance(); err != nil { // consume "["
		return nil, err
	}
	indef := false
	if p.tok.kind == tokUnderscore {
		indef = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokWidth {
			return nil, p.unexpected("width suffix not allowed on an indefinite array marker")
		}
	}

	var items []*Item
	if p.tok.kind != tokRBracket {
		for {
			item, err := p.parseItem()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			if p.tok.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				if p.tok.kind == tokRBracket {
					break
				}
				continue
			}
			break
		}
	}
	if p.tok.kind != tokRBracket {
		return nil, p.unexpected("expected ']' to close array")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if indef {
		return &Item{Kind: KindArray, Items: items, Length: nil}, nil
	}
	w := WidthUnknown
	return &Item{Kind: KindArray, Items: items, Length: &w}, nil
}

func (p *diagParser) parseMap() (*Item, error) {
	if err := p.advance(); err != nil { // consume "{"
		return nil, err
	}
	indef := false
	if p.tok.kind == tokUnderscore {
		indef = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.kind == tokWidth {
			return nil, p.unexpected("width suffix not allowed on an indefinite map marker")
		}
	}

	var pairs []Pair
	if p.tok.kind != tokRBrace {
		for {
			key, err := p.parseItem()
			if err != nil {
				return nil, err
			}
			if p.tok.kind != tokColon {
				return nil, p.unexpected("expected ':' between map key and value")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			val, err := p.parseItem()
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, Pair{Key: key, Value: val})
			if p.tok.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
				if p.tok.kind == tokRBrace {
					break
				}
				continue
			}
			break
		}
	}
	if p.tok.kind != tokRBrace {
		return nil, p.unexpected("expected '}' to close map")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if indef {
		return &Item{Kind: KindMap, Pairs: pairs, Length: nil}, nil
	}
	w := WidthUnknown
	return &Item{Kind: KindMap, Pairs: pairs, Length: &w}, nil
}

// decodeBstrPart decodes one lexed byte-literal token according to its
// prefix marker: 'h' hex, 'b' base32, 'H' base32hex, 'B' base64, '\'' a raw
// UTF-8 byte-string literal. Whitespace inside hex/base literals is
// insignificant and stripped before decoding; it is significant (and
// already unescaped by the lexer) inside a '\'' literal.
func decodeBstrPart(tok token) ([]byte, error) {
	switch tok.quote {
	case 'h':
		b, err := hex.DecodeString(stripLiteralWhitespace(tok.text))
		if err != nil {
			return nil, NewCborError(ErrInvalidBase, tok.start, "invalid hex literal")
		}
		return b, nil
	case 'b':
		b, err := decodeBase32(stripLiteralWhitespace(tok.text), base32.StdEncoding)
		if err != nil {
			return nil, NewCborError(ErrInvalidBase, tok.start, "invalid base32 literal")
		}
		return b, nil
	case 'H':
		b, err := decodeBase32(stripLiteralWhitespace(tok.text), base32.HexEncoding)
		if err != nil {
			return nil, NewCborError(ErrInvalidBase, tok.start, "invalid base32hex literal")
		}
		return b, nil
	case 'B':
		b, err := decodeBase64Loose(stripLiteralWhitespace(tok.text))
		if err != nil {
			return nil, NewCborError(ErrInvalidBase, tok.start, "invalid base64 literal")
		}
		return b, nil
	case '\'':
		return []byte(tok.text), nil
	}
	return nil, NewCborError(ErrInvalidBase, tok.start, "unknown byte-literal prefix")
}

func stripLiteralWhitespace(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if isSpace(r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func decodeBase32(s string, enc *base32.Encoding) ([]byte, error) {
	s = strings.ToUpper(strings.TrimRight(s, "="))
	return enc.WithPadding(base32.NoPadding).DecodeString(s)
}

// decodeBase64Loose accepts both the standard and URL-safe alphabets
// (even mixed), padded or not, per the grammar's "'/' or '_', '+' or '-'"
// note.
func decodeBase64Loose(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '-':
			return '+'
		case '_':
			return '/'
		default:
			return r
		}
	}, s)
	s = strings.TrimRight(s, "=")
	return base64.RawStdEncoding.DecodeString(s)
}
