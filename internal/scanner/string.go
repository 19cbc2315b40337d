package scanner

import (
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// readString decodes the string whose opening quote is at the cursor.
// Strings without escapes and with valid UTF-8 are returned without an
// intermediate buffer.
func (s *Scanner) readString() (string, error) {
	start := s.pos + 1
	ascii := true
	for i := start; i < len(s.data); i++ {
		c := s.data[i]
		switch {
		case c == '"':
			raw := s.data[start:i]
			if !ascii && !utf8.Valid(raw) {
				return s.readStringSlow(start)
			}
			s.pos = i + 1
			return string(raw), nil
		case c == '\\':
			return s.readStringSlow(start)
		case c < 0x20:
			return "", s.errorAt(i, "invalid character in string literal")
		case c >= utf8.RuneSelf:
			ascii = false
		}
	}
	return "", s.eof()
}

// readStringSlow decodes escapes and replaces invalid UTF-8 with U+FFFD.
func (s *Scanner) readStringSlow(start int) (string, error) {
	buf := make([]byte, 0, 64)
	i := start
	for i < len(s.data) {
		c := s.data[i]
		switch {
		case c == '"':
			s.pos = i + 1
			return string(buf), nil
		case c == '\\':
			esc := i + 1
			if esc >= len(s.data) {
				return "", s.eof()
			}
			switch s.data[esc] {
			case '"', '\\', '/':
				buf = append(buf, s.data[esc])
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'u':
				r, err := s.hex4(esc + 1)
				if err != nil {
					return "", err
				}
				i = esc + 5
				if utf16.IsSurrogate(r) {
					r2, ok := s.trailingEscape(i)
					if dec := utf16.DecodeRune(r, r2); ok && dec != unicode.ReplacementChar {
						r = dec
						i += 6
					} else {
						r = unicode.ReplacementChar
					}
				}
				buf = utf8.AppendRune(buf, r)
				continue
			default:
				return "", s.errorAt(esc, "invalid escape in string literal")
			}
			i = esc + 1
		case c < 0x20:
			return "", s.errorAt(i, "invalid character in string literal")
		case c < utf8.RuneSelf:
			buf = append(buf, c)
			i++
		default:
			r, size := utf8.DecodeRune(s.data[i:])
			if r == utf8.RuneError && size == 1 {
				buf = utf8.AppendRune(buf, unicode.ReplacementChar)
			} else {
				buf = append(buf, s.data[i:i+size]...)
			}
			i += size
		}
	}
	return "", s.eof()
}

// trailingEscape reads a \uXXXX escape at p without consuming it.
func (s *Scanner) trailingEscape(p int) (rune, bool) {
	if p+6 > len(s.data) || s.data[p] != '\\' || s.data[p+1] != 'u' {
		return 0, false
	}
	var r rune
	for _, c := range s.data[p+2 : p+6] {
		d, ok := hexValue(c)
		if !ok {
			return 0, false
		}
		r = r<<4 | d
	}
	return r, true
}

// hex4 parses the four hex digits of a \u escape starting at p.
func (s *Scanner) hex4(p int) (rune, error) {
	var r rune
	for i := p; i < p+4; i++ {
		if i >= len(s.data) {
			return 0, s.eof()
		}
		d, ok := hexValue(s.data[i])
		if !ok {
			return 0, s.errorAt(i, "invalid unicode escape")
		}
		r = r<<4 | d
	}
	return r, nil
}

func hexValue(c byte) (rune, bool) {
	switch {
	case c >= '0' && c <= '9':
		return rune(c - '0'), true
	case c >= 'a' && c <= 'f':
		return rune(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return rune(c-'A') + 10, true
	}
	return 0, false
}

// skipString advances past the string at the cursor, validating escapes
// without decoding them.
func (s *Scanner) skipString() error {
	i := s.pos + 1
	for i < len(s.data) {
		c := s.data[i]
		switch {
		case c == '"':
			s.pos = i + 1
			return nil
		case c == '\\':
			i++
			if i >= len(s.data) {
				return s.eof()
			}
			switch s.data[i] {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				i++
			case 'u':
				if _, err := s.hex4(i + 1); err != nil {
					return err
				}
				i += 5
			default:
				return s.errorAt(i, "invalid escape in string literal")
			}
		case c < 0x20:
			return s.errorAt(i, "invalid character in string literal")
		default:
			i++
		}
	}
	return s.eof()
}
