package varjson

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// Indent renders v with two-space indentation. Placeholders are written bare,
// so Parse(Indent(v)) yields a value Equal to v.
func Indent(v Value) string {
	var buf bytes.Buffer
	write(&buf, v, "  ", 0, false)
	return buf.String()
}

// Compact renders v without insignificant whitespace, placeholders bare.
func Compact(v Value) string {
	var buf bytes.Buffer
	write(&buf, v, "", 0, false)
	return buf.String()
}

// MarshalJSON renders the object as standard JSON. Placeholders become the
// string "{{path}}", which is only suitable for display.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	write(&buf, o, "", 0, true)
	return buf.Bytes(), nil
}

// MarshalJSON renders the array as standard JSON.
func (a Array) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	write(&buf, a, "", 0, true)
	return buf.Bytes(), nil
}

// MarshalJSON renders the placeholder as a JSON string.
func (v Variable) MarshalJSON() ([]byte, error) {
	return []byte(quote(v.Token())), nil
}

// MarshalJSON renders the number literal unchanged.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n), nil
}

// MarshalJSON renders null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func write(buf *bytes.Buffer, v Value, indent string, depth int, varsAsStrings bool) {
	switch t := v.(type) {
	case *Object:
		if t.Len() == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteByte('{')
		first := true
		t.Range(func(k string, child Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			newline(buf, indent, depth+1)
			buf.WriteString(quote(k))
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			write(buf, child, indent, depth+1, varsAsStrings)
			return true
		})
		newline(buf, indent, depth)
		buf.WriteByte('}')
	case Array:
		if len(t) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteByte('[')
		for i, child := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			write(buf, child, indent, depth+1, varsAsStrings)
		}
		newline(buf, indent, depth)
		buf.WriteByte(']')
	case String:
		buf.WriteString(quote(string(t)))
	case Number:
		buf.WriteString(string(t))
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(t)))
	case Variable:
		if varsAsStrings {
			buf.WriteString(quote(t.Token()))
		} else {
			buf.WriteString(t.Token())
		}
	default:
		buf.WriteString("null")
	}
}

func newline(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString(indent)
	}
}

const hexDigits = "0123456789abcdef"

// quote escapes s the way JSON.stringify does: no HTML escaping, control
// characters as \n-style or \u00XX escapes.
func quote(s string) string {
	var buf bytes.Buffer
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch c {
			case '"':
				buf.WriteString(`\"`)
			case '\\':
				buf.WriteString(`\\`)
			case '\n':
				buf.WriteString(`\n`)
			case '\r':
				buf.WriteString(`\r`)
			case '\t':
				buf.WriteString(`\t`)
			case '\b':
				buf.WriteString(`\b`)
			case '\f':
				buf.WriteString(`\f`)
			default:
				if c < 0x20 {
					buf.WriteString(`\u00`)
					buf.WriteByte(hexDigits[c>>4])
					buf.WriteByte(hexDigits[c&0xf])
				} else {
					buf.WriteByte(c)
				}
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		buf.WriteRune(r)
		i += size
	}
	buf.WriteByte('"')
	return buf.String()
}
