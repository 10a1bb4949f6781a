package cbor

import (
	"strings"
	"unicode/utf8"
)

// tokenKind enumerates the lexical categories of diagnostic notation.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokMinus
	tokIdent     // false, true, null, undefined, simple, NaN, Infinity
	tokString    // "..."
	tokByteLit   // h'...', b32'...', h32'...', b64'...', '...'
	tokLBracket  // [
	tokRBracket  // ]
	tokLBrace    // {
	tokRBrace    // }
	tokLParen    // (
	tokRParen    // )
	tokLShift    // <<
	tokRShift    // >>
	tokComma     // ,
	tokColon     // : (map key/value separator)
	tokUnderscore // _ (container prefix, or start of a width suffix)
	tokWidth     // _0 .. _3 (width suffix, lexed as a single token following a value)
)

type token struct {
	kind  tokenKind
	text  string // raw source text (for numbers, idents)
	value []byte // decoded payload, for tokByteLit / tokString-as-bytes cases not used here
	quote byte   // which literal prefix produced a byte literal: 'h', 'b' (b32), 'H' (h32), 'B' (b64), '\'' (utf8 string)
	start int
	end   int
}

// lexer tokenizes diagnostic notation. Block comments "/ ... /" and
// whitespace are skipped between tokens at all levels, per the grammar.
type lexer struct {
	src []rune
	pos int
}

func newLexer(text string) *lexer {
	return &lexer{src: []rune(text)}
}

func (lx *lexer) peekRune() (rune, bool) {
	if lx.pos >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos], true
}

func (lx *lexer) at(offset int) (rune, bool) {
	if lx.pos+offset >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos+offset], true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

// skipWhitespaceAndComments advances past whitespace and "/ ... /" block
// comments, which the grammar allows between any two tokens.
func (lx *lexer) skipWhitespaceAndComments() error {
	for {
		r, ok := lx.peekRune()
		if !ok {
			return nil
		}
		if isSpace(r) {
			lx.pos++
			continue
		}
		if r == '/' {
			start := lx.pos
			lx.pos++
			for {
				r2, ok := lx.peekRune()
				if !ok {
					return &DiagSyntaxError{Span: Span{start, lx.pos}, Message: "unterminated comment"}
				}
				lx.pos++
				if r2 == '/' {
					break
				}
			}
			continue
		}
		return nil
	}
}

// next returns the next token, skipping leading whitespace/comments.
func (lx *lexer) next() (token, error) {
	if err := lx.skipWhitespaceAndComments(); err != nil {
		return token{}, err
	}
	start := lx.pos
	r, ok := lx.peekRune()
	if !ok {
		return token{kind: tokEOF, start: start, end: start}, nil
	}

	switch {
	case r == '[':
		lx.pos++
		return token{kind: tokLBracket, start: start, end: lx.pos}, nil
	case r == ']':
		lx.pos++
		return token{kind: tokRBracket, start: start, end: lx.pos}, nil
	case r == '{':
		lx.pos++
		return token{kind: tokLBrace, start: start, end: lx.pos}, nil
	case r == '}':
		lx.pos++
		return token{kind: tokRBrace, start: start, end: lx.pos}, nil
	case r == '(':
		lx.pos++
		return token{kind: tokLParen, start: start, end: lx.pos}, nil
	case r == ')':
		lx.pos++
		return token{kind: tokRParen, start: start, end: lx.pos}, nil
	case r == ',':
		lx.pos++
		return token{kind: tokComma, start: start, end: lx.pos}, nil
	case r == ':':
		lx.pos++
		return token{kind: tokColon, start: start, end: lx.pos}, nil
	case r == '-':
		lx.pos++
		return token{kind: tokMinus, start: start, end: lx.pos}, nil
	case r == '<':
		if r2, ok := lx.at(1); ok && r2 == '<' {
			lx.pos += 2
			return token{kind: tokLShift, start: start, end: lx.pos}, nil
		}
		return token{}, &DiagSyntaxError{Span: Span{start, start + 1}, Message: "unexpected '<'"}
	case r == '>':
		if r2, ok := lx.at(1); ok && r2 == '>' {
			lx.pos += 2
			return token{kind: tokRShift, start: start, end: lx.pos}, nil
		}
		return token{}, &DiagSyntaxError{Span: Span{start, start + 1}, Message: "unexpected '>'"}
	case r == '"':
		return lx.lexQuotedString(start, '"', tokString)
	case r == '\'':
		return lx.lexByteLiteral(start, '\'', '\'')
	case r == '_':
		// Either a bare "_" (indefinite marker) or "_N" width suffix.
		r2, ok2 := lx.at(1)
		r3, ok3 := lx.at(2)
		if ok2 && r2 >= '0' && r2 <= '3' && !(ok3 && isIdentCont(r3)) {
			lx.pos += 2
			return token{kind: tokWidth, text: string(r2), start: start, end: lx.pos}, nil
		}
		lx.pos++
		return token{kind: tokUnderscore, start: start, end: lx.pos}, nil
	case isDigit(r):
		return lx.lexNumberOrPrefixedLiteral(start)
	case isIdentStart(r):
		return lx.lexIdentOrPrefixedLiteral(start)
	default:
		return token{}, &DiagSyntaxError{Span: Span{start, start + 1}, Message: "unexpected character " + string(r)}
	}
}

// lexNumberOrPrefixedLiteral handles both plain numeric literals and the
// digit-looking byte-string prefixes ("0x.." would be a hex *number*, but
// "h'..'"/"b64'..'" start with letters so are handled in
// lexIdentOrPrefixedLiteral; this handles decimal/hex/oct/bin integers and
// floats).
func (lx *lexer) lexNumberOrPrefixedLiteral(start int) (token, error) {
	// 0x / 0o / 0b prefixed integer literals.
	if lx.src[lx.pos] == '0' {
		if r2, ok := lx.at(1); ok && (r2 == 'x' || r2 == 'X') {
			lx.pos += 2
			for {
				r, ok := lx.peekRune()
				if !ok || !isHexDigit(r) {
					break
				}
				lx.pos++
			}
			return token{kind: tokNumber, text: string(lx.src[start:lx.pos]), start: start, end: lx.pos}, nil
		}
		if r2, ok := lx.at(1); ok && (r2 == 'o' || r2 == 'O') {
			lx.pos += 2
			for {
				r, ok := lx.peekRune()
				if !ok || r < '0' || r > '7' {
					break
				}
				lx.pos++
			}
			return token{kind: tokNumber, text: string(lx.src[start:lx.pos]), start: start, end: lx.pos}, nil
		}
		if r2, ok := lx.at(1); ok && (r2 == 'b' || r2 == 'B') {
			lx.pos += 2
			for {
				r, ok := lx.peekRune()
				if !ok || (r != '0' && r != '1') {
					break
				}
				lx.pos++
			}
			return token{kind: tokNumber, text: string(lx.src[start:lx.pos]), start: start, end: lx.pos}, nil
		}
	}

	for {
		r, ok := lx.peekRune()
		if !ok || !isDigit(r) {
			break
		}
		lx.pos++
	}
	// Optional fractional part / exponent (float).
	if r, ok := lx.peekRune(); ok && r == '.' {
		if r2, ok2 := lx.at(1); ok2 && isDigit(r2) {
			lx.pos++
			for {
				r, ok := lx.peekRune()
				if !ok || !isDigit(r) {
					break
				}
				lx.pos++
			}
		}
	}
	if r, ok := lx.peekRune(); ok && (r == 'e' || r == 'E') {
		save := lx.pos
		lx.pos++
		if r, ok := lx.peekRune(); ok && (r == '+' || r == '-') {
			lx.pos++
		}
		if r, ok := lx.peekRune(); ok && isDigit(r) {
			for {
				r, ok := lx.peekRune()
				if !ok || !isDigit(r) {
					break
				}
				lx.pos++
			}
		} else {
			lx.pos = save
		}
	}
	return token{kind: tokNumber, text: string(lx.src[start:lx.pos]), start: start, end: lx.pos}, nil
}

// lexIdentOrPrefixedLiteral handles bare identifiers (false/true/null/
// undefined/simple/NaN/Infinity) and the letter-prefixed byte-string
// literals h'...', b32'...', h32'...', b64'...'. The identifier stops before
// any '_', so a width suffix such as the "_1" of "NaN_1" is lexed separately.
func (lx *lexer) lexIdentOrPrefixedLiteral(start int) (token, error) {
	p := lx.pos
	for p < len(lx.src) && isIdentCont(lx.src[p]) && lx.src[p] != '_' {
		p++
	}
	ident := string(lx.src[lx.pos:p])

	if p < len(lx.src) && lx.src[p] == '\'' {
		switch ident {
		case "h":
			lx.pos = p
			return lx.lexByteLiteral(start, '\'', 'h')
		case "b32":
			lx.pos = p
			return lx.lexByteLiteral(start, '\'', 'b')
		case "h32":
			lx.pos = p
			return lx.lexByteLiteral(start, '\'', 'H')
		case "b64":
			lx.pos = p
			return lx.lexByteLiteral(start, '\'', 'B')
		}
	}

	lx.pos = p
	return token{kind: tokIdent, text: ident, start: start, end: lx.pos}, nil
}

// lexQuotedString lexes a "..." text-string literal with JSON-style
// escapes, returning the decoded value in text.
func (lx *lexer) lexQuotedString(start int, quote rune, kind tokenKind) (token, error) {
	lx.pos++ // opening quote
	var sb strings.Builder
	for {
		r, ok := lx.peekRune()
		if !ok {
			return token{}, &DiagSyntaxError{Span: Span{start, lx.pos}, Message: "unterminated string"}
		}
		if r == quote {
			lx.pos++
			break
		}
		if r == '\\' {
			lx.pos++
			r2, ok := lx.peekRune()
			if !ok {
				return token{}, &DiagSyntaxError{Span: Span{start, lx.pos}, Message: "unterminated escape"}
			}
			switch r2 {
			case '"', '\'', '\\', '/':
				sb.WriteRune(r2)
				lx.pos++
			case 'n':
				sb.WriteByte('\n')
				lx.pos++
			case 't':
				sb.WriteByte('\t')
				lx.pos++
			case 'r':
				sb.WriteByte('\r')
				lx.pos++
			case 'b':
				sb.WriteByte('\b')
				lx.pos++
			case 'f':
				sb.WriteByte('\f')
				lx.pos++
			case 'u':
				lx.pos++
				code, err := lx.lexHex4()
				if err != nil {
					return token{}, err
				}
				sb.WriteRune(rune(code))
			default:
				return token{}, &DiagSyntaxError{Span: Span{lx.pos, lx.pos + 1}, Message: "invalid escape"}
			}
			continue
		}
		sb.WriteRune(r)
		lx.pos++
	}
	return token{kind: kind, text: sb.String(), start: start, end: lx.pos}, nil
}

func (lx *lexer) lexHex4() (int, error) {
	start := lx.pos
	if lx.pos+4 > len(lx.src) {
		return 0, &DiagSyntaxError{Span: Span{start, lx.pos}, Message: "truncated \\u escape"}
	}
	v := 0
	for i := 0; i < 4; i++ {
		r := lx.src[lx.pos]
		var d int
		switch {
		case r >= '0' && r <= '9':
			d = int(r - '0')
		case r >= 'a' && r <= 'f':
			d = int(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = int(r-'A') + 10
		default:
			return 0, &DiagSyntaxError{Span: Span{start, lx.pos + 1}, Message: "invalid \\u escape"}
		}
		v = v*16 + d
		lx.pos++
	}
	return v, nil
}

// lexByteLiteral lexes the body of a 'quote'-delimited byte-string literal
// (h'...', b32'...', h32'...', b64'...', or a bare '...' utf8 literal). The
// returned token's quote field records which prefix was used so the parser
// can decode appropriately; internal whitespace is preserved in text and
// stripped by the decoder.
func (lx *lexer) lexByteLiteral(start int, quote rune, marker byte) (token, error) {
	lx.pos++ // opening quote
	var sb strings.Builder
	for {
		r, ok := lx.peekRune()
		if !ok {
			return token{}, &DiagSyntaxError{Span: Span{start, lx.pos}, Message: "unterminated literal"}
		}
		if r == quote {
			lx.pos++
			break
		}
		if marker == '\'' && r == '\\' {
			lx.pos++
			r2, ok := lx.peekRune()
			if !ok {
				return token{}, &DiagSyntaxError{Span: Span{start, lx.pos}, Message: "unterminated escape"}
			}
			switch r2 {
			case '\'', '\\':
				sb.WriteRune(r2)
			default:
				sb.WriteByte('\\')
				sb.WriteRune(r2)
			}
			lx.pos++
			continue
		}
		sb.WriteRune(r)
		lx.pos++
	}
	return token{kind: tokByteLit, text: sb.String(), quote: marker, start: start, end: lx.pos}, nil
}

// runeLen reports how many UTF-8 bytes a rune occupies. It is kept alongside
// the other small text helpers; nothing in the package calls it.
func runeLen(r rune) int { return utf8.RuneLen(r) }
