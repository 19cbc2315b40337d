// Package scanner implements a cursor-based JSON scanner over a borrowed byte
// slice.
//
// A Scanner never copies its input. Values at the cursor can be decoded into a
// Value, skipped without allocation, or, for objects and arrays, walked one
// member at a time so the caller decides per member whether to materialize,
// record or skip it. Syntax errors are reported as *SyntaxError carrying the
// 1-based line and column of the first offending byte.
package scanner

// maxDepth bounds object/array nesting, matching encoding/json.
const maxDepth = 10000

// Scanner is a cursor into a JSON document.
type Scanner struct {
	data []byte
	pos  int
}

// New returns a scanner positioned at the start of data.
func New(data []byte) *Scanner {
	return &Scanner{data: data}
}

// NewAt returns a scanner positioned at offset. Error positions are still
// reported relative to the start of data.
func NewAt(data []byte, offset int) *Scanner {
	return &Scanner{data: data, pos: offset}
}

// Offset returns the current cursor position.
func (s *Scanner) Offset() int {
	return s.pos
}

// Mark skips insignificant whitespace and returns the offset at which the
// next value starts.
func (s *Scanner) Mark() int {
	s.skipSpace()
	return s.pos
}

// Peek returns the kind of the value at the cursor without consuming it.
func (s *Scanner) Peek() (Kind, error) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return Invalid, s.eof()
	}
	switch c := s.data[s.pos]; {
	case c == '{':
		return Object, nil
	case c == '[':
		return Array, nil
	case c == '"':
		return String, nil
	case c == 't' || c == 'f':
		return Bool, nil
	case c == 'n':
		return Null, nil
	case c == '-' || isDigit(c):
		return Number, nil
	}
	return Invalid, s.unexpected()
}

// ExpectEOF fails unless only whitespace remains after the cursor.
func (s *Scanner) ExpectEOF() error {
	s.skipSpace()
	if s.pos < len(s.data) {
		return s.errorAt(s.pos, "unexpected data after top-level value")
	}
	return nil
}

// Object walks the members of the object at the cursor. fn is called for
// each member with the decoded key and the cursor positioned at the member's
// value; fn must consume exactly that value.
func (s *Scanner) Object(fn func(key string) error) error {
	return s.object(0, fn)
}

func (s *Scanner) object(depth int, fn func(key string) error) error {
	if err := s.open('{', depth); err != nil {
		return err
	}
	if s.closeEmpty('}') {
		return nil
	}
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return s.eof()
		}
		if s.data[s.pos] != '"' {
			return s.unexpected()
		}
		key, err := s.readString()
		if err != nil {
			return err
		}
		if err := s.expect(':'); err != nil {
			return err
		}
		if err := fn(key); err != nil {
			return err
		}
		done, err := s.next('}')
		if err != nil || done {
			return err
		}
	}
}

// Array walks the elements of the array at the cursor. fn is called with the
// cursor positioned at each element and must consume exactly that element.
func (s *Scanner) Array(fn func(index int) error) error {
	return s.array(0, fn)
}

func (s *Scanner) array(depth int, fn func(index int) error) error {
	if err := s.open('[', depth); err != nil {
		return err
	}
	if s.closeEmpty(']') {
		return nil
	}
	for i := 0; ; i++ {
		if err := fn(i); err != nil {
			return err
		}
		done, err := s.next(']')
		if err != nil || done {
			return err
		}
	}
}

// DecodeString decodes the string at the cursor.
func (s *Scanner) DecodeString() (string, error) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return "", s.eof()
	}
	if s.data[s.pos] != '"' {
		return "", s.unexpected()
	}
	return s.readString()
}

// DecodeValue fully decodes the value at the cursor.
func (s *Scanner) DecodeValue() (Value, error) {
	return s.decode(0)
}

func (s *Scanner) decode(depth int) (Value, error) {
	kind, err := s.Peek()
	if err != nil {
		return Value{}, err
	}
	switch kind {
	case String:
		str, err := s.readString()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: String, Str: str}, nil
	case Number:
		start := s.pos
		if err := s.number(); err != nil {
			return Value{}, err
		}
		return Value{Kind: Number, Str: string(s.data[start:s.pos])}, nil
	case Bool:
		if s.data[s.pos] == 't' {
			return Value{Kind: Bool, Bool: true}, s.literal("true")
		}
		return Value{Kind: Bool}, s.literal("false")
	case Null:
		return Value{Kind: Null}, s.literal("null")
	case Array:
		v := Value{Kind: Array, Elems: []Value{}}
		err := s.array(depth, func(int) error {
			elem, err := s.decode(depth + 1)
			if err != nil {
				return err
			}
			v.Elems = append(v.Elems, elem)
			return nil
		})
		return v, err
	default:
		v := Value{Kind: Object, Members: []Member{}}
		err := s.object(depth, func(key string) error {
			val, err := s.decode(depth + 1)
			if err != nil {
				return err
			}
			v.Members = append(v.Members, Member{Key: key, Value: val})
			return nil
		})
		return v, err
	}
}

// SkipValue advances the cursor past the value at the cursor without
// materializing it. The skipped bytes are still fully validated.
func (s *Scanner) SkipValue() error {
	return s.skip(0)
}

func (s *Scanner) skip(depth int) error {
	kind, err := s.Peek()
	if err != nil {
		return err
	}
	switch kind {
	case String:
		return s.skipString()
	case Number:
		return s.number()
	case Bool:
		if s.data[s.pos] == 't' {
			return s.literal("true")
		}
		return s.literal("false")
	case Null:
		return s.literal("null")
	case Array:
		return s.array(depth, func(int) error {
			return s.skip(depth + 1)
		})
	default:
		if err := s.open('{', depth); err != nil {
			return err
		}
		if s.closeEmpty('}') {
			return nil
		}
		for {
			s.skipSpace()
			if s.pos >= len(s.data) {
				return s.eof()
			}
			if s.data[s.pos] != '"' {
				return s.unexpected()
			}
			if err := s.skipString(); err != nil {
				return err
			}
			if err := s.expect(':'); err != nil {
				return err
			}
			if err := s.skip(depth + 1); err != nil {
				return err
			}
			done, err := s.next('}')
			if err != nil || done {
				return err
			}
		}
	}
}

func (s *Scanner) skipSpace() {
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

// open consumes the opening delimiter of a container.
func (s *Scanner) open(delim byte, depth int) error {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return s.eof()
	}
	if s.data[s.pos] != delim {
		return s.unexpected()
	}
	if depth >= maxDepth {
		return s.errorAt(s.pos, "exceeded max depth")
	}
	s.pos++
	return nil
}

func (s *Scanner) closeEmpty(delim byte) bool {
	s.skipSpace()
	if s.pos < len(s.data) && s.data[s.pos] == delim {
		s.pos++
		return true
	}
	return false
}

// next consumes the separator after a container member and reports whether
// the closing delimiter was reached.
func (s *Scanner) next(closing byte) (bool, error) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return false, s.eof()
	}
	switch s.data[s.pos] {
	case ',':
		s.pos++
		return false, nil
	case closing:
		s.pos++
		return true, nil
	}
	return false, s.unexpected()
}

func (s *Scanner) expect(c byte) error {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return s.eof()
	}
	if s.data[s.pos] != c {
		return s.unexpected()
	}
	s.pos++
	return nil
}

func (s *Scanner) literal(lit string) error {
	for i := 0; i < len(lit); i++ {
		p := s.pos + i
		if p >= len(s.data) {
			return s.eof()
		}
		if s.data[p] != lit[i] {
			return s.errorAt(p, "invalid literal")
		}
	}
	s.pos += len(lit)
	return nil
}

// number consumes a number per RFC 8259:
// -? (0 | [1-9][0-9]*) (. [0-9]+)? ([eE] [+-]? [0-9]+)?
func (s *Scanner) number() error {
	p := s.pos
	if p < len(s.data) && s.data[p] == '-' {
		p++
	}
	switch {
	case p >= len(s.data):
		return s.eof()
	case s.data[p] == '0':
		p++
	case isDigit(s.data[p]):
		p = s.digits(p)
	default:
		return s.errorAt(p, "invalid number")
	}
	if p < len(s.data) && s.data[p] == '.' {
		p++
		if p >= len(s.data) {
			return s.eof()
		}
		if !isDigit(s.data[p]) {
			return s.errorAt(p, "invalid number")
		}
		p = s.digits(p)
	}
	if p < len(s.data) && (s.data[p] == 'e' || s.data[p] == 'E') {
		p++
		if p < len(s.data) && (s.data[p] == '+' || s.data[p] == '-') {
			p++
		}
		if p >= len(s.data) {
			return s.eof()
		}
		if !isDigit(s.data[p]) {
			return s.errorAt(p, "invalid number")
		}
		p = s.digits(p)
	}
	s.pos = p
	return nil
}

func (s *Scanner) digits(p int) int {
	for p < len(s.data) && isDigit(s.data[p]) {
		p++
	}
	return p
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
