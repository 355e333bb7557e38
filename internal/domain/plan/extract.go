package plan

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

type scanState int

const (
	stateOutside scanState = iota
	stateString
	stateStringEscape
	stateAfterKey
	stateAfterColon
	stateValue
	stateDone
)

// FieldScanner incrementally locates a top-level string field in a JSON
// document that is still being written, and decodes its value as far as the
// input allows. Strings are tracked explicitly, so text inside other values
// never matches the field name.
//
// The decoded value only ever grows: incomplete escape sequences, unpaired
// surrogate halves, and truncated UTF-8 at the end of the input are held back
// until more input arrives.
type FieldScanner struct {
	key     string
	state   scanState
	depth   int
	keyBuf  []byte
	keyOver bool
	pending []byte
	value   strings.Builder
	found   bool
}

// NewFieldScanner returns a scanner for the named field.
func NewFieldScanner(field string) *FieldScanner {
	return &FieldScanner{key: field}
}

// Write feeds the next piece of the document.
func (s *FieldScanner) Write(chunk string) {
	for i := 0; i < len(chunk); i++ {
		if s.state == stateDone {
			return
		}
		if s.state == stateValue {
			s.pending = append(s.pending, chunk[i:]...)
			s.decodePending()
			return
		}
		s.step(chunk[i])
	}
}

// Value returns the decoded value so far. ok is false until the opening quote
// of the value has been seen.
func (s *FieldScanner) Value() (value string, ok bool) {
	return s.value.String(), s.found
}

// Complete reports whether the closing quote of the value has been seen.
func (s *FieldScanner) Complete() bool {
	return s.state == stateDone
}

func (s *FieldScanner) step(c byte) {
	switch s.state {
	case stateOutside:
		switch c {
		case '"':
			s.state = stateString
			s.keyBuf = s.keyBuf[:0]
			s.keyOver = false
		case '{', '[':
			s.depth++
		case '}', ']':
			if s.depth > 0 {
				s.depth--
			}
		}
	case stateString:
		switch c {
		case '\\':
			s.state = stateStringEscape
			s.appendKey(c)
		case '"':
			if s.depth == 1 && !s.keyOver && string(s.keyBuf) == s.key {
				s.state = stateAfterKey
				return
			}
			s.state = stateOutside
		default:
			s.appendKey(c)
		}
	case stateStringEscape:
		s.appendKey(c)
		s.state = stateString
	case stateAfterKey:
		if isSpace(c) {
			return
		}
		if c == ':' {
			s.state = stateAfterColon
			return
		}
		s.state = stateOutside
		s.step(c)
	case stateAfterColon:
		if isSpace(c) {
			return
		}
		if c == '"' {
			s.state = stateValue
			s.found = true
			return
		}
		s.state = stateOutside
		s.step(c)
	}
}

func (s *FieldScanner) appendKey(c byte) {
	if s.keyOver {
		return
	}
	if len(s.keyBuf) >= len(s.key) {
		s.keyOver = true
		return
	}
	s.keyBuf = append(s.keyBuf, c)
}

// decodePending consumes as much of the pending value bytes as can be decoded
// unambiguously.
func (s *FieldScanner) decodePending() {
	buf := s.pending
	i := 0
	for i < len(buf) {
		c := buf[i]
		switch {
		case c == '"':
			s.state = stateDone
			s.pending = nil
			return
		case c == '\\':
			r, n, ok := decodeEscape(buf[i:])
			if !ok {
				s.pending = append(s.pending[:0], buf[i:]...)
				return
			}
			s.value.WriteRune(r)
			i += n
		case c < utf8.RuneSelf:
			s.value.WriteByte(c)
			i++
		default:
			if !utf8.FullRune(buf[i:]) {
				s.pending = append(s.pending[:0], buf[i:]...)
				return
			}
			r, n := utf8.DecodeRune(buf[i:])
			s.value.WriteRune(r)
			i += n
		}
	}
	s.pending = s.pending[:0]
}

// decodeEscape decodes the escape sequence at the start of b. ok is false when
// more input is needed.
func decodeEscape(b []byte) (r rune, n int, ok bool) {
	if len(b) < 2 {
		return 0, 0, false
	}
	switch b[1] {
	case '"':
		return '"', 2, true
	case '\\':
		return '\\', 2, true
	case '/':
		return '/', 2, true
	case 'n':
		return '\n', 2, true
	case 'r':
		return '\r', 2, true
	case 't':
		return '\t', 2, true
	case 'b':
		return '\b', 2, true
	case 'f':
		return '\f', 2, true
	case 'u':
		if len(b) < 6 {
			return 0, 0, false
		}
		hi, ok := hex4(b[2:6])
		if !ok {
			return 'u', 2, true
		}
		if !utf16.IsSurrogate(hi) {
			return hi, 6, true
		}
		// A high surrogate needs its low half before anything is emitted.
		if len(b) < 12 {
			if len(b) >= 7 && b[6] != '\\' || len(b) >= 8 && b[7] != 'u' {
				return utf8.RuneError, 6, true
			}
			return 0, 0, false
		}
		if b[6] != '\\' || b[7] != 'u' {
			return utf8.RuneError, 6, true
		}
		lo, ok := hex4(b[8:])
		if !ok {
			return utf8.RuneError, 6, true
		}
		if combined := utf16.DecodeRune(hi, lo); combined != utf8.RuneError {
			return combined, 12, true
		}
		return utf8.RuneError, 6, true
	default:
		// Unknown escapes keep the escaped character.
		return rune(b[1]), 2, true
	}
}

func hex4(b []byte) (rune, bool) {
	if len(b) < 4 {
		return 0, false
	}
	v, err := strconv.ParseUint(string(b[:4]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// ExtractField returns the value of a top-level string field from a possibly
// incomplete JSON document. ok is false when the field has not started yet.
func ExtractField(buffer, field string) (value string, ok bool) {
	s := NewFieldScanner(field)
	s.Write(buffer)
	return s.Value()
}
