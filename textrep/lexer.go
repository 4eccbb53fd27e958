package textrep

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokError
	tokIdent
	tokInt
	tokFloat
	tokString
	tokLet
	tokStruct
	tokEnum
	tokTS
	tokArray
	tokMap
	tokNull
	tokTrue
	tokFalse
	tokNone
	// symbols
	tokEq     // =
	tokColon  // :
	tokSemi   // ;
	tokComma  // ,
	tokLBrace // {
	tokRBrace // }
	tokLBrack // [
	tokRBrack // ]
	tokLParen // (
	tokRParen // )
	tokLt     // <
	tokGt     // >
)

var tokNames = [...]string{
	tokEOF:    "end of input",
	tokError:  "error",
	tokIdent:  "identifier",
	tokInt:    "integer",
	tokFloat:  "float",
	tokString: "string",
	tokLet:    "let",
	tokStruct: "struct",
	tokEnum:   "enum",
	tokTS:     "ts",
	tokArray:  "array",
	tokMap:    "map",
	tokNull:   "null",
	tokTrue:   "true",
	tokFalse:  "false",
	tokNone:   "none",
	tokEq:     "'='",
	tokColon:  "':'",
	tokSemi:   "';'",
	tokComma:  "','",
	tokLBrace: "'{'",
	tokRBrace: "'}'",
	tokLBrack: "'['",
	tokRBrack: "']'",
	tokLParen: "'('",
	tokRParen: "')'",
	tokLt:     "'<'",
	tokGt:     "'>'",
}

func (k tokKind) String() string {
	if int(k) < len(tokNames) {
		return tokNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

var keywords = map[string]tokKind{
	"let":    tokLet,
	"struct": tokStruct,
	"enum":   tokEnum,
	"ts":     tokTS,
	"array":  tokArray,
	"map":    tokMap,
	"null":   tokNull,
	"true":   tokTrue,
	"false":  tokFalse,
	"none":   tokNone,
	"nan":    tokFloat,
	"inf":    tokFloat,
}

type token struct {
	kind    tokKind
	lit     string
	pos     int
	intBase int // 10 or 16 for tokInt
}

type lexer struct {
	src []byte
	off int
	cur token
}

func newLexer(src []byte) *lexer { return &lexer{src: src} }

func (lx *lexer) next() {
	lx.skipSpaceAndComments()
	start := lx.off
	lx.cur = lx.scan()
	lx.cur.pos = start
}

func (lx *lexer) scan() token {
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF}
	}
	b := lx.src[lx.off]
	// identifiers/keywords
	if isIdentStart(b) {
		start := lx.off
		lx.off++
		for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
			lx.off++
		}
		s := string(lx.src[start:lx.off])
		if k, ok := keywords[s]; ok {
			return token{kind: k, lit: s}
		}
		return token{kind: tokIdent, lit: s}
	}
	if b == '-' && lx.hasPrefixAt(lx.off+1, "inf") {
		lx.off += 4
		return token{kind: tokFloat, lit: "-inf"}
	}
	// numbers
	if isDigit(b) || (b == '-' && lx.peekIsDigit()) {
		return lx.scanNumber()
	}
	// strings
	if b == '"' {
		s, n, err := scanString(lx.src[lx.off:])
		if err != nil {
			lx.off = len(lx.src)
			return token{kind: tokError, lit: err.Error()}
		}
		lx.off += n
		return token{kind: tokString, lit: s}
	}
	// single-char tokens
	lx.off++
	switch b {
	case '=':
		return token{kind: tokEq, lit: "="}
	case ':':
		return token{kind: tokColon, lit: ":"}
	case ';':
		return token{kind: tokSemi, lit: ";"}
	case ',':
		return token{kind: tokComma, lit: ","}
	case '{':
		return token{kind: tokLBrace, lit: "{"}
	case '}':
		return token{kind: tokRBrace, lit: "}"}
	case '[':
		return token{kind: tokLBrack, lit: "["}
	case ']':
		return token{kind: tokRBrack, lit: "]"}
	case '(':
		return token{kind: tokLParen, lit: "("}
	case ')':
		return token{kind: tokRParen, lit: ")"}
	case '<':
		return token{kind: tokLt, lit: "<"}
	case '>':
		return token{kind: tokGt, lit: ">"}
	}
	return token{kind: tokError, lit: fmt.Sprintf("unexpected char %q", b)}
}

func (lx *lexer) scanNumber() token {
	start := lx.off
	if lx.src[lx.off] == '-' {
		lx.off++
	}
	// hex prefix
	if lx.hasPrefixAt(lx.off, "0x") || lx.hasPrefixAt(lx.off, "0X") {
		lx.off += 2
		for lx.off < len(lx.src) && (isHexDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
			lx.off++
		}
		return token{kind: tokInt, lit: string(lx.src[start:lx.off]), intBase: 16}
	}
	// float or dec int
	isFloat := false
	lx.skipDigits()
	if lx.off < len(lx.src) && lx.src[lx.off] == '.' {
		isFloat = true
		lx.off++
		lx.skipDigits()
	}
	// exponent part
	if lx.off < len(lx.src) && (lx.src[lx.off] == 'e' || lx.src[lx.off] == 'E') {
		isFloat = true
		lx.off++
		if lx.off < len(lx.src) && (lx.src[lx.off] == '+' || lx.src[lx.off] == '-') {
			lx.off++
		}
		for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
			lx.off++
		}
	}
	lit := string(lx.src[start:lx.off])
	if isFloat {
		return token{kind: tokFloat, lit: lit}
	}
	return token{kind: tokInt, lit: lit, intBase: 10}
}

func (lx *lexer) skipDigits() {
	for lx.off < len(lx.src) && (isDigit(lx.src[lx.off]) || lx.src[lx.off] == '_') {
		lx.off++
	}
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.off < len(lx.src) {
		b := lx.src[lx.off]
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			lx.off++
			continue
		}
		// line comments: # or //
		if b == '#' || lx.hasPrefixAt(lx.off, "//") {
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.off++
			}
			continue
		}
		// block comments: /* ... */
		if lx.hasPrefixAt(lx.off, "/*") {
			lx.off += 2
			for lx.off+1 < len(lx.src) && !(lx.src[lx.off] == '*' && lx.src[lx.off+1] == '/') {
				lx.off++
			}
			lx.off = min(lx.off+2, len(lx.src))
			continue
		}
		break
	}
}

func (lx *lexer) hasPrefixAt(off int, s string) bool {
	return off <= len(lx.src) && strings.HasPrefix(string(lx.src[off:]), s)
}

func (lx *lexer) peekIsDigit() bool {
	return lx.off+1 < len(lx.src) && isDigit(lx.src[lx.off+1])
}

// position converts a byte offset into a 1-based line and column.
func (lx *lexer) position(off int) (line, col int) {
	line, col = 1, 1
	for _, c := range lx.src[:min(off, len(lx.src))] {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func isIdentStart(b byte) bool { return b == '_' || b == '$' || unicode.IsLetter(rune(b)) }
func isIdentPart(b byte) bool  { return isIdentStart(b) || isDigit(b) }
func isDigit(b byte) bool      { return '0' <= b && b <= '9' }
func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}

func scanString(src []byte) (string, int, error) {
	// src begins with '"'
	i := 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '"':
			i++
			unq, err := strconv.Unquote(string(src[:i]))
			return unq, i, err
		case c == '\\':
			i += 2
		case c < utf8.RuneSelf:
			i++
		default:
			r, size := utf8.DecodeRune(src[i:])
			if r == utf8.RuneError && size <= 1 {
				return "", 0, fmt.Errorf("invalid utf-8 in string literal")
			}
			i += size
		}
	}
	return "", 0, fmt.Errorf("unterminated string")
}

func stripUnderscores(s string) string { return strings.ReplaceAll(s, "_", "") }
