package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// scanner reads PDF objects from a byte slice. It is shared by the
// file-level reader and the object stream decoder; content streams use
// their own operator-oriented variant in the extractor package.
type scanner struct {
	data []byte
	pos  int
}

func newScanner(data []byte) *scanner {
	return &scanner{data: data}
}

// skipSpace advances past whitespace and comments.
func (s *scanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isSpace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\r' && s.data[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		return
	}
}

// peekKeyword reports whether the next token is the given bare keyword,
// without consuming it.
func (s *scanner) peekKeyword(kw string) bool {
	s.skipSpace()
	end := s.pos + len(kw)
	if end > len(s.data) || string(s.data[s.pos:end]) != kw {
		return false
	}
	return end == len(s.data) || isSpace(s.data[end]) || isDelim(s.data[end])
}

// expectKeyword consumes the given keyword or fails.
func (s *scanner) expectKeyword(kw string) error {
	if !s.peekKeyword(kw) {
		return fmt.Errorf("expected %q at offset %d", kw, s.pos)
	}
	s.pos += len(kw)
	return nil
}

// scanObject reads the next object. Indirect references ("n g R") are
// detected by lookahead from the first integer.
func (s *scanner) scanObject() (Object, error) {
	s.skipSpace()
	if s.pos >= len(s.data) {
		return nil, fmt.Errorf("unexpected end of data at offset %d", s.pos)
	}

	c := s.data[s.pos]
	switch {
	case c == '/':
		return s.scanName()
	case c == '(':
		return s.scanString()
	case c == '[':
		return s.scanArray()
	case c == '<':
		if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
			return s.scanDict()
		}
		return s.scanHexString()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return s.scanNumberOrRef()
	case s.peekKeyword("true"):
		s.pos += 4
		return Bool(true), nil
	case s.peekKeyword("false"):
		s.pos += 5
		return Bool(false), nil
	case s.peekKeyword("null"):
		s.pos += 4
		return Null{}, nil
	}
	return nil, fmt.Errorf("unexpected byte %q at offset %d", c, s.pos)
}

func (s *scanner) scanName() (Object, error) {
	s.pos++ // '/'
	var buf bytes.Buffer
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isSpace(c) || isDelim(c) {
			break
		}
		if c == '#' && s.pos+2 < len(s.data) && isHex(s.data[s.pos+1]) && isHex(s.data[s.pos+2]) {
			buf.WriteByte(hexVal(s.data[s.pos+1])<<4 | hexVal(s.data[s.pos+2]))
			s.pos += 3
			continue
		}
		buf.WriteByte(c)
		s.pos++
	}
	return Name(buf.String()), nil
}

func (s *scanner) scanString() (Object, error) {
	s.pos++ // '('
	var buf bytes.Buffer
	depth := 1
	for s.pos < len(s.data) && depth > 0 {
		c := s.data[s.pos]
		switch {
		case c == '\\' && s.pos+1 < len(s.data):
			s.pos++
			esc := s.data[s.pos]
			switch esc {
			case 'n':
				buf.WriteByte('\n')
				s.pos++
			case 'r':
				buf.WriteByte('\r')
				s.pos++
			case 't':
				buf.WriteByte('\t')
				s.pos++
			case 'b':
				buf.WriteByte('\b')
				s.pos++
			case 'f':
				buf.WriteByte('\f')
				s.pos++
			case '\r':
				// line continuation, swallow optional LF
				s.pos++
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
				s.pos++
			case '0', '1', '2', '3', '4', '5', '6', '7':
				val := int(esc - '0')
				s.pos++
				for i := 0; i < 2 && s.pos < len(s.data); i++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val*8 + int(d-'0')
					s.pos++
				}
				buf.WriteByte(byte(val & 0xFF))
			default:
				buf.WriteByte(esc)
				s.pos++
			}
		case c == '(':
			depth++
			buf.WriteByte(c)
			s.pos++
		case c == ')':
			depth--
			if depth > 0 {
				buf.WriteByte(c)
			}
			s.pos++
		default:
			buf.WriteByte(c)
			s.pos++
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unterminated string at offset %d", s.pos)
	}
	return String(buf.Bytes()), nil
}

func (s *scanner) scanHexString() (Object, error) {
	s.pos++ // '<'
	var digits []byte
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '>' {
			s.pos++
			break
		}
		if isSpace(c) {
			s.pos++
			continue
		}
		if !isHex(c) {
			return nil, fmt.Errorf("bad hex digit %q at offset %d", c, s.pos)
		}
		digits = append(digits, c)
		s.pos++
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return String(out), nil
}

func (s *scanner) scanArray() (Object, error) {
	s.pos++ // '['
	var arr Array
	for {
		s.skipSpace()
		if s.pos >= len(s.data) {
			return nil, fmt.Errorf("unterminated array")
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return arr, nil
		}
		obj, err := s.scanObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (s *scanner) scanDict() (Object, error) {
	s.pos += 2 // '<<'
	dict := make(Dict)
	for {
		s.skipSpace()
		if s.pos+1 < len(s.data) && s.data[s.pos] == '>' && s.data[s.pos+1] == '>' {
			s.pos += 2
			return dict, nil
		}
		if s.pos >= len(s.data) {
			return nil, fmt.Errorf("unterminated dictionary")
		}
		if s.data[s.pos] != '/' {
			return nil, fmt.Errorf("dictionary key must be a name at offset %d", s.pos)
		}
		key, err := s.scanName()
		if err != nil {
			return nil, err
		}
		val, err := s.scanObject()
		if err != nil {
			return nil, fmt.Errorf("value for key %s: %w", key, err)
		}
		dict[string(key.(Name))] = val
	}
}

// scanNumberOrRef reads a number; if it is an integer followed by
// another integer and "R", the triple collapses into a Ref.
func (s *scanner) scanNumberOrRef() (Object, error) {
	first, isInt, err := s.scanNumber()
	if err != nil {
		return nil, err
	}
	if !isInt {
		return first, nil
	}

	save := s.pos
	s.skipSpace()
	if s.pos < len(s.data) && isDigit(s.data[s.pos]) {
		second, secondInt, err := s.scanNumber()
		if err == nil && secondInt {
			s.skipSpace()
			if s.peekKeyword("R") {
				s.pos++
				return Ref{
					Num: int(first.(Integer)),
					Gen: int(second.(Integer)),
				}, nil
			}
		}
	}
	s.pos = save
	return first, nil
}

// scanNumber reads an integer or real token.
func (s *scanner) scanNumber() (Object, bool, error) {
	start := s.pos
	if s.pos < len(s.data) && (s.data[s.pos] == '+' || s.data[s.pos] == '-') {
		s.pos++
	}
	hasDot := false
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isDigit(c) {
			s.pos++
		} else if c == '.' && !hasDot {
			hasDot = true
			s.pos++
		} else {
			break
		}
	}
	text := string(s.data[start:s.pos])
	if hasDot {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false, fmt.Errorf("bad real %q at offset %d", text, start)
		}
		return Real(f), false, nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad integer %q at offset %d", text, start)
	}
	return Integer(i), true, nil
}

// scanInt reads a bare integer token or fails.
func (s *scanner) scanInt() (int64, error) {
	s.skipSpace()
	obj, isInt, err := s.scanNumber()
	if err != nil {
		return 0, err
	}
	if !isInt {
		return 0, fmt.Errorf("expected integer at offset %d", s.pos)
	}
	return int64(obj.(Integer)), nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelim(c byte) bool {
	return c == '(' || c == ')' || c == '<' || c == '>' ||
		c == '[' || c == ']' || c == '{' || c == '}' ||
		c == '/' || c == '%'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// scanIndirectObject reads an "n g obj ... endobj" body, including the
// stream payload when one follows. A stream whose Length is an
// indirect reference is delimited by searching for the endstream
// keyword instead.
func (s *scanner) scanIndirectObject() (Object, error) {
	if _, err := s.scanInt(); err != nil {
		return nil, fmt.Errorf("object number: %w", err)
	}
	if _, err := s.scanInt(); err != nil {
		return nil, fmt.Errorf("generation number: %w", err)
	}
	if err := s.expectKeyword("obj"); err != nil {
		return nil, err
	}
	s.skipSpace()
	obj, err := s.scanObject()
	if err != nil {
		return nil, err
	}
	if !s.peekKeyword("stream") {
		if s.peekKeyword("endobj") {
			s.pos += len("endobj")
		}
		return obj, nil
	}
	dict, ok := obj.(Dict)
	if !ok {
		return nil, fmt.Errorf("stream keyword after %T at offset %d", obj, s.pos)
	}
	s.pos += len("stream")
	if s.pos < len(s.data) && s.data[s.pos] == '\r' {
		s.pos++
	}
	if s.pos < len(s.data) && s.data[s.pos] == '\n' {
		s.pos++
	}
	var raw []byte
	if n, ok := dict.Int("Length"); ok {
		end := s.pos + int(n)
		if end > len(s.data) {
			return nil, fmt.Errorf("stream length %d exceeds file at offset %d", n, s.pos)
		}
		raw = s.data[s.pos:end]
		s.pos = end
	} else {
		// Length is indirect or missing; fall back to the keyword.
		idx := bytes.Index(s.data[s.pos:], []byte("endstream"))
		if idx < 0 {
			return nil, fmt.Errorf("unterminated stream at offset %d", s.pos)
		}
		raw = s.data[s.pos : s.pos+idx]
		raw = bytes.TrimRight(raw, "\r\n")
		s.pos += idx
	}
	s.skipSpace()
	if err := s.expectKeyword("endstream"); err != nil {
		return nil, err
	}
	s.skipSpace()
	// tolerate a missing endobj
	if s.peekKeyword("endobj") {
		s.pos += len("endobj")
	}
	return &Stream{Dict: dict, Raw: raw}, nil
}
