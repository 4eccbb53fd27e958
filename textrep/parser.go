// Package textrep implements the Relish text representation: a readable
// literal syntax for value trees, used for fixtures and by rltc.
//
// A document is an optional alias preamble followed by one or more values:
//
//	let id = 1: u64;
//	let name = 2: string;
//	struct { id: 42; name: "Ada"; 7: array<u8>[1, 2, 3] }
package textrep

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/relishfmt/relish"
)

// SyntaxError reports malformed text.
type SyntaxError struct {
	Offset int
	Line   int
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("textrep: %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parse parses a document into its values.
func Parse(src []byte) ([]relish.Value, error) {
	p := &parser{lx: newLexer(src), aliases: map[string]alias{}}
	p.lx.next()
	for p.lx.cur.kind == tokLet {
		if err := p.parseAlias(); err != nil {
			return nil, err
		}
	}
	var out []relish.Value
	for p.lx.cur.kind != tokEOF {
		v, err := p.parseValue(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if p.lx.cur.kind == tokSemi || p.lx.cur.kind == tokComma {
			p.lx.next()
		}
	}
	if len(out) == 0 {
		return nil, p.errorf("document has no values")
	}
	return out, nil
}

// EncodeBytes parses a document and returns its values encoded back to back.
func EncodeBytes(src []byte, opts ...relish.EncoderOption) ([]byte, error) {
	vals, err := Parse(src)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, v := range vals {
		if out, err = relish.AppendEncode(out, v, opts...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Encode reads a document from r and writes its encoding to w.
func Encode(r io.Reader, w io.Writer, opts ...relish.EncoderOption) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	out, err := EncodeBytes(src, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

type alias struct {
	name string
	id   int
	typ  *rType // optional type hint
}

// rType is a type annotation: a plain type id, or an array/map with its
// element types.
type rType struct {
	id   relish.TypeID
	key  *rType // map key
	elem *rType // array elem or map value
}

func (t *rType) String() string {
	switch {
	case t == nil:
		return "<nil>"
	case t.id == relish.TypeArray && t.elem != nil:
		return fmt.Sprintf("array<%s>", t.elem)
	case t.id == relish.TypeMap && t.key != nil:
		return fmt.Sprintf("map<%s,%s>", t.key, t.elem)
	}
	return t.id.String()
}

func (t *rType) integer() bool {
	switch t.id {
	case relish.TypeU8, relish.TypeU16, relish.TypeU32, relish.TypeU64, relish.TypeU128,
		relish.TypeI8, relish.TypeI16, relish.TypeI32, relish.TypeI64, relish.TypeI128:
		return true
	}
	return false
}

func (t *rType) float() bool { return t.id == relish.TypeF32 || t.id == relish.TypeF64 }

var scalarTypes = map[string]relish.TypeID{}

func init() {
	for id := relish.TypeNull; id <= relish.TypeTimestamp; id++ {
		scalarTypes[id.String()] = id
	}
}

type parser struct {
	lx      *lexer
	aliases map[string]alias
}

func (p *parser) errorf(format string, args ...any) error {
	line, col := p.lx.position(p.lx.cur.pos)
	return &SyntaxError{Offset: p.lx.cur.pos, Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(k tokKind) error {
	if p.lx.cur.kind != k {
		return p.unexpected(k.String())
	}
	p.lx.next()
	return nil
}

func (p *parser) unexpected(want string) error {
	if p.lx.cur.kind == tokError {
		return p.errorf("%s", p.lx.cur.lit)
	}
	if p.lx.cur.lit != "" {
		return p.errorf("expected %s, got %v %q", want, p.lx.cur.kind, p.lx.cur.lit)
	}
	return p.errorf("expected %s, got %v", want, p.lx.cur.kind)
}

func (p *parser) parseAlias() error {
	// current is 'let'
	p.lx.next()
	if p.lx.cur.kind != tokIdent {
		return p.unexpected("identifier after let")
	}
	name := p.lx.cur.lit
	if _, exists := p.aliases[name]; exists {
		return p.errorf("duplicate alias: %s", name)
	}
	p.lx.next()
	if err := p.expect(tokEq); err != nil {
		return err
	}
	id, err := p.parseSmallID("field id")
	if err != nil {
		return err
	}
	var typ *rType
	if p.lx.cur.kind == tokColon {
		p.lx.next()
		if typ, err = p.parseType(); err != nil {
			return err
		}
	}
	if p.lx.cur.kind == tokSemi {
		p.lx.next()
	}
	p.aliases[name] = alias{name: name, id: id, typ: typ}
	return nil
}

// parseSmallID reads a decimal id in [0, 127].
func (p *parser) parseSmallID(what string) (int, error) {
	if p.lx.cur.kind != tokInt || p.lx.cur.intBase != 10 {
		return 0, p.unexpected(what)
	}
	id, err := strconv.Atoi(stripUnderscores(p.lx.cur.lit))
	if err != nil || id < 0 || id >= 0x80 {
		return 0, p.errorf("%s out of range: %s", what, p.lx.cur.lit)
	}
	p.lx.next()
	return id, nil
}

func (p *parser) parseType() (*rType, error) {
	switch p.lx.cur.kind {
	case tokArray:
		p.lx.next()
		if err := p.expect(tokLt); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokGt); err != nil {
			return nil, err
		}
		return &rType{id: relish.TypeArray, elem: elem}, nil
	case tokMap:
		p.lx.next()
		if err := p.expect(tokLt); err != nil {
			return nil, err
		}
		k, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokComma); err != nil {
			return nil, err
		}
		v, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokGt); err != nil {
			return nil, err
		}
		return &rType{id: relish.TypeMap, key: k, elem: v}, nil
	case tokIdent, tokNull, tokStruct, tokEnum:
		if id, ok := scalarTypes[p.lx.cur.lit]; ok {
			p.lx.next()
			return &rType{id: id}, nil
		}
	}
	return nil, p.unexpected("type")
}

func (p *parser) parseStructLiteral() (relish.Value, error) {
	// current is 'struct'
	p.lx.next()
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	var fields relish.Struct
	for p.lx.cur.kind != tokRBrace {
		var id int
		var hint *rType
		switch p.lx.cur.kind {
		case tokInt:
			n, err := p.parseSmallID("field id")
			if err != nil {
				return nil, err
			}
			id = n
		case tokIdent:
			a, ok := p.aliases[p.lx.cur.lit]
			if !ok {
				return nil, p.errorf("unknown field alias: %s", p.lx.cur.lit)
			}
			id, hint = a.id, a.typ
			p.lx.next()
		default:
			return nil, p.unexpected("field key")
		}
		if err := p.expect(tokColon); err != nil {
			return nil, err
		}
		if p.lx.cur.kind == tokNone {
			// explicit omission
			p.lx.next()
		} else {
			v, err := p.parseValue(hint)
			if err != nil {
				return nil, err
			}
			fields = append(fields, relish.Field{ID: uint8(id), Value: v})
		}
		if p.lx.cur.kind == tokSemi || p.lx.cur.kind == tokComma {
			p.lx.next()
		}
	}
	p.lx.next()
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
	for i := 1; i < len(fields); i++ {
		if fields[i].ID == fields[i-1].ID {
			return nil, &relish.EncodeError{Kind: relish.ErrFieldOrder,
				Path: "." + strconv.Itoa(int(fields[i].ID)), Detail: "duplicate field id"}
		}
	}
	if fields == nil {
		fields = relish.Struct{}
	}
	return fields, nil
}

// parseValue parses one value literal. hint, when set, gives the type that
// unsuffixed numeric literals take and that every literal must match.
func (p *parser) parseValue(hint *rType) (relish.Value, error) {
	// Cast: (Type) Value
	if p.lx.cur.kind == tokLParen {
		p.lx.next()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		if hint != nil && hint.id != t.id {
			return nil, p.errorf("cast to %v where %v is required", t, hint)
		}
		return p.parseValue(t)
	}
	v, err := p.parseLiteral(hint)
	if err != nil {
		return nil, err
	}
	if hint != nil && v.Type() != hint.id {
		return nil, p.errorf("%v literal where %v is required", v.Type(), hint)
	}
	return v, nil
}

func (p *parser) parseLiteral(hint *rType) (relish.Value, error) {
	tok := p.lx.cur
	switch tok.kind {
	case tokNull:
		p.lx.next()
		return relish.Null{}, nil
	case tokTrue, tokFalse:
		p.lx.next()
		return relish.Bool(tok.kind == tokTrue), nil
	case tokString:
		p.lx.next()
		return relish.String(tok.lit), nil
	case tokTS:
		return p.parseTimestamp()
	case tokFloat:
		p.lx.next()
		t := p.suffix(hint, "f32", "f64")
		if t == nil {
			t = &rType{id: relish.TypeF64}
		}
		return floatLiteral(tok.lit, t)
	case tokInt:
		p.lx.next()
		t := p.suffix(hint, "u8", "u16", "u32", "u64", "u128", "i8", "i16", "i32", "i64", "i128", "f32", "f64")
		if t == nil {
			return nil, p.errorf("ambiguous integer literal %s; add a type suffix or cast", tok.lit)
		}
		return intLiteral(tok.lit, tok.intBase, t)
	case tokArray:
		return p.parseArray(hint)
	case tokMap:
		return p.parseMap(hint)
	case tokEnum:
		p.lx.next()
		if err := p.expect(tokLt); err != nil {
			return nil, err
		}
		vid, err := p.parseSmallID("variant id")
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokGt); err != nil {
			return nil, err
		}
		if err := p.expect(tokLParen); err != nil {
			return nil, err
		}
		inner, err := p.parseValue(nil)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return relish.Enum{Variant: uint8(vid), Value: inner}, nil
	case tokStruct:
		return p.parseStructLiteral()
	}
	return nil, p.unexpected("value")
}

// suffix consumes an optional type suffix such as the u32 in 42u32 and
// falls back to hint.
func (p *parser) suffix(hint *rType, allowed ...string) *rType {
	if p.lx.cur.kind == tokIdent {
		for _, s := range allowed {
			if p.lx.cur.lit == s {
				p.lx.next()
				return &rType{id: scalarTypes[s]}
			}
		}
	}
	if hint != nil && (hint.integer() || hint.float()) {
		return hint
	}
	return nil
}

func (p *parser) parseTimestamp() (relish.Value, error) {
	// ts( NUMBER | STRING )
	p.lx.next()
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var ts relish.Timestamp
	switch p.lx.cur.kind {
	case tokInt:
		sec, err := strconv.ParseInt(stripUnderscores(p.lx.cur.lit), 10, 64)
		if err != nil || p.lx.cur.intBase != 10 {
			return nil, p.errorf("invalid timestamp %s", p.lx.cur.lit)
		}
		ts = relish.Timestamp(sec)
	case tokString:
		t, err := time.Parse(time.RFC3339, p.lx.cur.lit)
		if err != nil {
			return nil, p.errorf("invalid RFC3339 timestamp %q", p.lx.cur.lit)
		}
		ts = relish.TimestampOf(t)
	default:
		return nil, p.unexpected("integer or string in ts(...)")
	}
	p.lx.next()
	if err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	return ts, nil
}

func (p *parser) parseArray(hint *rType) (relish.Value, error) {
	// array<type>? [ ... ]
	p.lx.next()
	var elem *rType
	if hint != nil {
		elem = hint.elem
	}
	if p.lx.cur.kind == tokLt {
		p.lx.next()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokGt); err != nil {
			return nil, err
		}
		elem = t
	}
	if err := p.expect(tokLBrack); err != nil {
		return nil, err
	}
	out := relish.Array{}
	for p.lx.cur.kind != tokRBrack {
		v, err := p.parseValue(elem)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 && v.Type() != out[0].Type() {
			return nil, &relish.EncodeError{Kind: relish.ErrMixedArray, Path: "[" + strconv.Itoa(len(out)) + "]",
				Detail: fmt.Sprintf("%v element in array of %v", v.Type(), out[0].Type())}
		}
		out = append(out, v)
		if p.lx.cur.kind != tokComma {
			break
		}
		p.lx.next()
	}
	if err := p.expect(tokRBrack); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) parseMap(hint *rType) (relish.Value, error) {
	// map<k,v>? { k: v, ... }
	p.lx.next()
	var kt, vt *rType
	if hint != nil {
		kt, vt = hint.key, hint.elem
	}
	if p.lx.cur.kind == tokLt {
		p.lx.next()
		var err error
		if kt, err = p.parseType(); err != nil {
			return nil, err
		}
		if err := p.expect(tokComma); err != nil {
			return nil, err
		}
		if vt, err = p.parseType(); err != nil {
			return nil, err
		}
		if err := p.expect(tokGt); err != nil {
			return nil, err
		}
	}
	if err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	out := relish.Map{}
	for p.lx.cur.kind != tokRBrace {
		k, err := p.parseValue(kt)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokColon); err != nil {
			return nil, err
		}
		v, err := p.parseValue(vt)
		if err != nil {
			return nil, err
		}
		out = append(out, relish.MapEntry{Key: k, Value: v})
		if p.lx.cur.kind != tokComma {
			break
		}
		p.lx.next()
	}
	if err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	return out, nil
}

func parseBigInt(lit string, base int) (*big.Int, bool) {
	s := stripUnderscores(lit)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if base == 16 {
		s = s[2:]
	}
	x, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if neg {
		x.Neg(x)
	}
	return x, true
}

func intLiteral(lit string, base int, t *rType) (relish.Value, error) {
	x, ok := parseBigInt(lit, base)
	if !ok {
		return nil, &relish.EncodeError{Kind: relish.ErrNotInteger, Detail: "malformed integer " + lit}
	}
	if t.float() {
		f, _ := new(big.Float).SetInt(x).Float64()
		if t.id == relish.TypeF32 {
			return relish.F32(f), nil
		}
		return relish.F64(f), nil
	}
	return intValue(x, t.id)
}

func floatLiteral(lit string, t *rType) (relish.Value, error) {
	bits := 64
	if t.id == relish.TypeF32 {
		bits = 32
	}
	f, err := strconv.ParseFloat(stripUnderscores(lit), bits)
	if err != nil && !isRangeErr(err) {
		return nil, &relish.EncodeError{Kind: relish.ErrNotInteger, Detail: "malformed float " + lit}
	}
	switch t.id {
	case relish.TypeF32:
		return relish.F32(f), nil
	case relish.TypeF64:
		return relish.F64(f), nil
	}
	// float literal where an integer type is required
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return nil, &relish.EncodeError{Kind: relish.ErrNotInteger, Detail: lit + " is not a whole number"}
	}
	x, _ := new(big.Float).SetFloat64(f).Int(nil)
	return intValue(x, t.id)
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// intValue converts x to the integer type id, failing with
// relish.ErrValueOutOfRange when x does not fit.
func intValue(x *big.Int, id relish.TypeID) (relish.Value, error) {
	fits := func(lo, hi int64) bool { return x.IsInt64() && x.Int64() >= lo && x.Int64() <= hi }
	ufits := func(hi uint64) bool { return x.Sign() >= 0 && x.IsUint64() && x.Uint64() <= hi }
	var v relish.Value
	switch id {
	case relish.TypeU8:
		if ufits(math.MaxUint8) {
			v = relish.U8(x.Uint64())
		}
	case relish.TypeU16:
		if ufits(math.MaxUint16) {
			v = relish.U16(x.Uint64())
		}
	case relish.TypeU32:
		if ufits(math.MaxUint32) {
			v = relish.U32(x.Uint64())
		}
	case relish.TypeU64:
		if ufits(math.MaxUint64) {
			v = relish.U64(x.Uint64())
		}
	case relish.TypeI8:
		if fits(math.MinInt8, math.MaxInt8) {
			v = relish.I8(x.Int64())
		}
	case relish.TypeI16:
		if fits(math.MinInt16, math.MaxInt16) {
			v = relish.I16(x.Int64())
		}
	case relish.TypeI32:
		if fits(math.MinInt32, math.MaxInt32) {
			v = relish.I32(x.Int64())
		}
	case relish.TypeI64:
		if fits(math.MinInt64, math.MaxInt64) {
			v = relish.I64(x.Int64())
		}
	case relish.TypeU128:
		return relish.NewU128(x)
	case relish.TypeI128:
		return relish.NewI128(x)
	default:
		return nil, &relish.EncodeError{Kind: relish.ErrTypeMismatch, Detail: fmt.Sprintf("%v is not an integer type", id)}
	}
	if v == nil {
		return nil, &relish.EncodeError{Kind: relish.ErrValueOutOfRange, Detail: fmt.Sprintf("%s does not fit in %v", x, id)}
	}
	return v, nil
}
