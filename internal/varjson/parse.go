package varjson

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// SyntaxError describes where a document stopped being valid.
type SyntaxError struct {
	Msg    string
	Offset int // byte offset of the offending character
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Msg, e.Line, e.Column)
}

// Parse parses text as a single JSON value, accepting {{path}} placeholders
// in value position.
func Parse(text string) (Value, error) {
	p := &parser{src: text}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.unexpected()
	}
	return v, nil
}

// MaxDepth is the deepest nesting of objects and arrays Parse accepts.
const MaxDepth = 1000

type parser struct {
	src   string
	pos   int
	depth int
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.errorf(p.pos, "maximum nesting depth exceeded")
	}
	return nil
}

func (p *parser) errorf(at int, format string, args ...any) *SyntaxError {
	line, col := 1, 1
	for i := 0; i < at && i < len(p.src); {
		r, size := utf8.DecodeRuneInString(p.src[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: at, Line: line, Column: col}
}

func (p *parser) unexpected() *SyntaxError {
	if p.pos >= len(p.src) {
		return p.errorf(p.pos, "unexpected end of input")
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return p.errorf(p.pos, "unexpected character %q", r)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) value() (Value, error) {
	if p.pos >= len(p.src) {
		return nil, p.unexpected()
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		if strings.HasPrefix(p.src[p.pos:], "{{") {
			return p.variable()
		}
		if err := p.enter(); err != nil {
			return nil, err
		}
		v, err := p.object()
		p.depth--
		return v, err
	case c == '[':
		if err := p.enter(); err != nil {
			return nil, err
		}
		v, err := p.array()
		p.depth--
		return v, err
	case c == '"':
		s, err := p.str()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	case c == 't':
		return p.literal("true", Bool(true))
	case c == 'f':
		return p.literal("false", Bool(false))
	case c == 'n':
		return p.literal("null", Null{})
	default:
		return nil, p.unexpected()
	}
}

func (p *parser) literal(word string, v Value) (Value, error) {
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return nil, p.unexpected()
	}
	p.pos += len(word)
	return v, nil
}

func (p *parser) object() (Value, error) {
	obj := NewObject()
	p.pos++ // {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return obj, nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '"' {
			if p.pos < len(p.src) {
				return nil, p.errorf(p.pos, "expected property name, got %q", rune(p.src[p.pos]))
			}
			return nil, p.unexpected()
		}
		key, err := p.str()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, p.expect(':')
		}
		p.pos++
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.unexpected()
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, p.expect(',')
		}
	}
}

func (p *parser) array() (Value, error) {
	arr := Array{}
	p.pos++ // [
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return arr, nil
	}
	for {
		p.skipSpace()
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.unexpected()
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, p.expect(',')
		}
	}
}

func (p *parser) expect(c byte) *SyntaxError {
	if p.pos >= len(p.src) {
		return p.unexpected()
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return p.errorf(p.pos, "expected %q, got %q", rune(c), r)
}

func (p *parser) str() (string, error) {
	start := p.pos
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf(start, "unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		case c < 0x20:
			return "", p.errorf(p.pos, "control character in string")
		default:
			r, size := utf8.DecodeRuneInString(p.src[p.pos:])
			if r == utf8.RuneError && size == 1 {
				return "", p.errorf(p.pos, "invalid UTF-8 in string")
			}
			b.WriteRune(r)
			p.pos += size
		}
	}
}

func (p *parser) escape(b *strings.Builder) error {
	at := p.pos
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return p.errorf(at, "unterminated string")
	}
	c := p.src[p.pos]
	p.pos++
	switch c {
	case '"', '\\', '/':
		b.WriteByte(c)
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		r, err := p.hex4(at)
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && strings.HasPrefix(p.src[p.pos:], `\u`) {
			save := p.pos
			p.pos += 2
			r2, err := p.hex4(save)
			if err != nil {
				return err
			}
			if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
				b.WriteRune(dec)
				return nil
			}
			p.pos = save
		}
		b.WriteRune(r)
	default:
		return p.errorf(at, "invalid escape sequence \\%c", c)
	}
	return nil
}

func (p *parser) hex4(at int) (rune, error) {
	if p.pos+4 > len(p.src) {
		return 0, p.errorf(at, "invalid unicode escape")
	}
	n, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
	if err != nil {
		return 0, p.errorf(at, "invalid unicode escape")
	}
	p.pos += 4
	return rune(n), nil
}

func (p *parser) number() (Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	switch {
	case p.pos < len(p.src) && p.src[p.pos] == '0':
		p.pos++
	case p.pos < len(p.src) && isDigit(p.src[p.pos]):
		p.digits()
	default:
		return nil, p.unexpected()
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		if p.pos >= len(p.src) || !isDigit(p.src[p.pos]) {
			return nil, p.unexpected()
		}
		p.digits()
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		if p.pos >= len(p.src) || !isDigit(p.src[p.pos]) {
			return nil, p.unexpected()
		}
		p.digits()
	}
	return Number(p.src[start:p.pos]), nil
}

func (p *parser) digits() {
	for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
		p.pos++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// variable reads {{ path }}. Spaces around the path are allowed; the path is
// one or more non-empty segments joined by dots.
func (p *parser) variable() (Value, error) {
	start := p.pos
	p.pos += 2
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	pathStart := p.pos
	for p.pos < len(p.src) && isPathChar(p.src[p.pos]) {
		p.pos++
	}
	path := p.src[pathStart:p.pos]
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if !strings.HasPrefix(p.src[p.pos:], "}}") {
		if p.pos >= len(p.src) {
			return nil, p.errorf(start, "unterminated variable")
		}
		return nil, p.errorf(p.pos, "invalid character %q in variable", rune(p.src[p.pos]))
	}
	if path == "" {
		return nil, p.errorf(start, "empty variable")
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil, p.errorf(pathStart, "invalid variable path %q", path)
		}
	}
	p.pos += 2
	return Variable{Path: path}, nil
}

func isPathChar(c byte) bool {
	switch c {
	case '{', '}', '"', ' ', '\t', '\n', '\r':
		return false
	}
	return c >= 0x20
}
