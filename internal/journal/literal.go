package journal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// literalParser decodes the literal reprs legacy events were stored as:
// dicts, lists, tuples, quoted strings with their escapes, numbers, None,
// True and False. Anything else, such as a constructor call, is rejected.
type literalParser struct {
	src string
	pos int
}

func parseLiteral(src string) (any, error) {
	p := &literalParser{src: src}
	value, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing input")
	}
	return value, nil
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("offset %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && strings.IndexByte(" \t\r\n", p.src[p.pos]) >= 0 {
		p.pos++
	}
}

func (p *literalParser) consume(c byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *literalParser) value() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.dict()
	case c == '[':
		return p.sequence(']')
	case c == '(':
		return p.sequence(')')
	case c == '\'' || c == '"':
		return p.str()
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.number()
	default:
		return p.name()
	}
}

func (p *literalParser) dict() (map[string]any, error) {
	p.pos++
	out := map[string]any{}
	for {
		p.skipSpace()
		if p.consume('}') {
			return out, nil
		}
		key, err := p.value()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.consume(':') {
			return nil, p.errorf("expected ':'")
		}
		val, err := p.value()
		if err != nil {
			return nil, err
		}
		out[keyString(key)] = val
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume('}') {
			return out, nil
		}
		return nil, p.errorf("expected ',' or '}'")
	}
}

func (p *literalParser) sequence(closer byte) ([]any, error) {
	p.pos++
	out := make([]any, 0)
	for {
		p.skipSpace()
		if p.consume(closer) {
			return out, nil
		}
		item, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(closer) {
			return out, nil
		}
		return nil, p.errorf("expected ',' or %q", closer)
	}
}

func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.escape(&b); err != nil {
				return "", err
			}
		case c == '\n':
			return "", p.errorf("newline in string")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func (p *literalParser) escape(b *strings.Builder) error {
	p.pos++
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	e := p.src[p.pos]
	p.pos++
	switch e {
	case '\n':
	case '\\', '\'', '"':
		b.WriteByte(e)
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		start := p.pos - 1
		for p.pos < len(p.src) && p.pos-start < 3 && p.src[p.pos] >= '0' && p.src[p.pos] <= '7' {
			p.pos++
		}
		v, _ := strconv.ParseUint(p.src[start:p.pos], 8, 32)
		b.WriteRune(rune(v))
	case 'x':
		return p.hexRune(b, 2)
	case 'u':
		return p.hexRune(b, 4)
	case 'U':
		return p.hexRune(b, 8)
	default:
		// unknown escapes keep their backslash
		b.WriteByte('\\')
		b.WriteByte(e)
	}
	return nil
}

func (p *literalParser) hexRune(b *strings.Builder, digits int) error {
	if p.pos+digits > len(p.src) {
		return p.errorf("truncated escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return p.errorf("invalid escape %q", p.src[p.pos:p.pos+digits])
	}
	p.pos += digits
	b.WriteRune(rune(v))
	return nil
}

func (p *literalParser) number() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte("+-.0123456789eE_", p.src[p.pos]) >= 0 {
		p.pos++
	}
	text := strings.ReplaceAll(p.src[start:p.pos], "_", "")
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	return nil, p.errorf("invalid number %q", text)
}

func (p *literalParser) name() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (p.pos > start && c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	switch word := p.src[start:p.pos]; word {
	case "None":
		return nil, nil
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "":
		return nil, p.errorf("unexpected %q", p.src[p.pos])
	default:
		return nil, p.errorf("unsupported literal %q", word)
	}
}

func keyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case nil:
		return "None"
	case bool:
		if k {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(k)
	}
}
