// Package scanner tokenizes PDF file and content-stream syntax.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/wudi/pdfview/recovery"
)

type TokenType int

const (
	TokenDict        TokenType = iota // '<<'
	TokenArray                        // '['
	TokenName                         // '/Name'
	TokenString                       // literal or hex string
	TokenNumber                       // int64 or float64
	TokenBoolean                      // true/false
	TokenNull                         // null
	TokenRef                          // '5 0 R'
	TokenStream                       // stream payload
	TokenInlineImage                  // payload between ID and EI
	TokenKeyword                      // operators and structural keywords (obj, >>, ], ...)
)

// Ref is the value of a TokenRef token.
type Ref struct{ Num, Gen int }

type Token struct {
	Type  TokenType
	Value interface{}
	Pos   int64
	// Hex marks a TokenString written as <...>.
	Hex bool
}

// Keyword returns the keyword text, or "" when t is not a keyword.
func (t Token) Keyword() string {
	if t.Type != TokenKeyword {
		return ""
	}
	s, _ := t.Value.(string)
	return s
}

// Int returns the integer value of a number token.
func (t Token) Int() (int64, bool) {
	switch v := t.Value.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

// Float returns the numeric value of a number token.
func (t Token) Float() (float64, bool) {
	switch v := t.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

type Scanner interface {
	Next() (Token, error)
	Position() int64
	Seek(offset int64) error
	SetNextStreamLength(n int64)
	SetRecoveryLocation(loc recovery.Location)
}

type Config struct {
	MaxStringLength int64
	MaxArrayDepth   int
	MaxDictDepth    int
	MaxStreamLength int64
	MaxInlineImage  int64
	// ContentStream disables 'n g R' reference detection, which never occurs in operator streams.
	ContentStream bool
	Recovery      recovery.Strategy
}

type pdfScanner struct {
	data          []byte
	pos           int64
	cfg           Config
	nextStreamLen int64
	arrayDepth    int
	dictDepth     int
	recLoc        recovery.Location
}

// New returns a scanner over data. The slice is not copied.
func New(data []byte, cfg Config) Scanner {
	return &pdfScanner{data: data, cfg: cfg, nextStreamLen: -1}
}

// NewReaderAt reads size bytes from r and scans them.
func NewReaderAt(r io.ReaderAt, size int64, cfg Config) (Scanner, error) {
	buf := make([]byte, size)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return New(buf[:n], cfg), nil
}

func (s *pdfScanner) Position() int64 { return s.pos }

func (s *pdfScanner) Seek(offset int64) error {
	if offset < 0 || offset > int64(len(s.data)) {
		return errors.New("seek out of range")
	}
	s.pos = offset
	return nil
}

func (s *pdfScanner) SetNextStreamLength(n int64)               { s.nextStreamLen = n }
func (s *pdfScanner) SetRecoveryLocation(loc recovery.Location) { s.recLoc = loc }

func (s *pdfScanner) Next() (Token, error) {
	s.skipSpace()
	if s.pos >= int64(len(s.data)) {
		return Token{}, io.EOF
	}
	start := s.pos
	c := s.data[s.pos]
	switch c {
	case '<':
		if s.peek(1) == '<' {
			s.pos += 2
			return s.emit(Token{Type: TokenDict, Value: "<<", Pos: start})
		}
		return s.scanHexString()
	case '>':
		if s.peek(1) == '>' {
			s.pos += 2
			return s.emit(Token{Type: TokenKeyword, Value: ">>", Pos: start})
		}
		s.pos++
		return Token{Type: TokenKeyword, Value: ">", Pos: start}, nil
	case '[':
		s.pos++
		return s.emit(Token{Type: TokenArray, Value: "[", Pos: start})
	case ']':
		s.pos++
		return s.emit(Token{Type: TokenKeyword, Value: "]", Pos: start})
	case '{', '}', ')':
		s.pos++
		return Token{Type: TokenKeyword, Value: string(c), Pos: start}, nil
	case '(':
		return s.scanLiteralString()
	case '/':
		return s.scanName()
	}
	if isNumberStart(c) {
		return s.scanNumberOrRef()
	}
	return s.scanKeyword()
}

func (s *pdfScanner) skipSpace() {
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isWhitespace(c) {
			s.pos++
			continue
		}
		if c == '%' {
			for s.pos < int64(len(s.data)) && !isEOL(s.data[s.pos]) {
				s.pos++
			}
			continue
		}
		return
	}
}

func (s *pdfScanner) peek(n int64) byte {
	if s.pos+n >= int64(len(s.data)) {
		return 0
	}
	return s.data[s.pos+n]
}

func (s *pdfScanner) scanName() (Token, error) {
	start := s.pos
	s.pos++
	var out bytes.Buffer
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if isDelimiter(c) {
			break
		}
		if c == '#' && s.pos+2 < int64(len(s.data)) && isHex(s.data[s.pos+1]) && isHex(s.data[s.pos+2]) {
			out.WriteByte(fromHex(s.data[s.pos+1])<<4 | fromHex(s.data[s.pos+2]))
			s.pos += 3
			continue
		}
		out.WriteByte(c)
		s.pos++
	}
	return Token{Type: TokenName, Value: out.String(), Pos: start}, nil
}

func (s *pdfScanner) scanLiteralString() (Token, error) {
	start := s.pos
	s.pos++
	var buf bytes.Buffer
	depth := 1
	for s.pos < int64(len(s.data)) && depth > 0 {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '\\':
			if s.pos >= int64(len(s.data)) {
				continue
			}
			esc := s.data[s.pos]
			s.pos++
			switch {
			case esc == '\r':
				if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case esc == '\n':
			case esc >= '0' && esc <= '7':
				val := int(esc - '0')
				for k := 0; k < 2 && s.pos < int64(len(s.data)); k++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val<<3 | int(d-'0')
					s.pos++
				}
				buf.WriteByte(byte(val))
			default:
				buf.WriteByte(translateEscape(esc))
			}
		case '(':
			depth++
			buf.WriteByte(c)
		case ')':
			depth--
			if depth > 0 {
				buf.WriteByte(c)
			}
		default:
			buf.WriteByte(c)
		}
		if s.cfg.MaxStringLength > 0 && int64(buf.Len()) > s.cfg.MaxStringLength {
			return Token{}, errors.New("literal string too long")
		}
	}
	if depth != 0 {
		if err := s.recover(errors.New("unterminated literal string"), "literal"); err != nil {
			return Token{}, err
		}
	}
	return Token{Type: TokenString, Value: buf.Bytes(), Pos: start}, nil
}

func (s *pdfScanner) scanHexString() (Token, error) {
	start := s.pos
	s.pos++
	var nibbles []byte
	closed := false
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			closed = true
			break
		}
		if isHex(c) {
			nibbles = append(nibbles, c)
		}
	}
	if !closed {
		if err := s.recover(errors.New("unterminated hex string"), "hex"); err != nil {
			return Token{}, err
		}
	}
	if len(nibbles)%2 == 1 {
		nibbles = append(nibbles, '0')
	}
	if s.cfg.MaxStringLength > 0 && int64(len(nibbles)/2) > s.cfg.MaxStringLength {
		return Token{}, errors.New("hex string too long")
	}
	out := make([]byte, len(nibbles)/2)
	for i := range out {
		out[i] = fromHex(nibbles[2*i])<<4 | fromHex(nibbles[2*i+1])
	}
	return Token{Type: TokenString, Value: out, Pos: start, Hex: true}, nil
}

func (s *pdfScanner) scanKeyword() (Token, error) {
	start := s.pos
	for s.pos < int64(len(s.data)) && !isDelimiter(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		// stray delimiter byte
		s.pos++
	}
	kw := string(s.data[start:s.pos])
	switch kw {
	case "true", "false":
		return Token{Type: TokenBoolean, Value: kw == "true", Pos: start}, nil
	case "null":
		return Token{Type: TokenNull, Pos: start}, nil
	case "stream":
		return s.scanStream(start)
	case "ID":
		return s.scanInlineImage(start)
	}
	return Token{Type: TokenKeyword, Value: kw, Pos: start}, nil
}

func (s *pdfScanner) scanNumberOrRef() (Token, error) {
	start := s.pos
	first := s.scanNumberString()
	if first == "" {
		s.pos++
		return Token{Type: TokenKeyword, Value: string(s.data[start]), Pos: start}, nil
	}
	if !s.cfg.ContentStream && isUnsigned(first) {
		save := s.pos
		s.skipSpace()
		second := s.scanNumberString()
		if second != "" && isUnsigned(second) {
			s.skipSpace()
			if s.pos < int64(len(s.data)) && s.data[s.pos] == 'R' &&
				(s.pos+1 >= int64(len(s.data)) || isDelimiter(s.data[s.pos+1])) {
				s.pos++
				num, _ := strconv.Atoi(first)
				gen, _ := strconv.Atoi(second)
				return Token{Type: TokenRef, Value: Ref{Num: num, Gen: gen}, Pos: start}, nil
			}
		}
		s.pos = save
	}
	if i, err := strconv.ParseInt(first, 10, 64); err == nil {
		return Token{Type: TokenNumber, Value: i, Pos: start}, nil
	}
	f, err := strconv.ParseFloat(normalizeReal(first), 64)
	if err != nil {
		f = 0
		if rerr := s.recover(errors.New("malformed number "+first), "number"); rerr != nil {
			return Token{}, rerr
		}
	}
	return Token{Type: TokenNumber, Value: f, Pos: start}, nil
}

func (s *pdfScanner) scanNumberString() string {
	start := s.pos
	seenDigit := false
	for s.pos < int64(len(s.data)) {
		c := s.data[s.pos]
		if c >= '0' && c <= '9' {
			seenDigit = true
		} else if c != '+' && c != '-' && c != '.' {
			break
		}
		s.pos++
	}
	if !seenDigit {
		s.pos = start
		return ""
	}
	return string(s.data[start:s.pos])
}

// normalizeReal tolerates producer quirks such as "--5" or "1.2.3".
func normalizeReal(s string) string {
	var b bytes.Buffer
	seenDot := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '-' || c == '+':
			if b.Len() == 0 {
				b.WriteByte(c)
			}
		case c == '.':
			if !seenDot {
				seenDot = true
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (s *pdfScanner) scanStream(start int64) (Token, error) {
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\r' {
		s.pos++
	}
	if s.pos < int64(len(s.data)) && s.data[s.pos] == '\n' {
		s.pos++
	}
	dataStart := s.pos
	needle := []byte("endstream")
	if l := s.nextStreamLen; l >= 0 {
		s.nextStreamLen = -1
		if s.cfg.MaxStreamLength > 0 && l > s.cfg.MaxStreamLength {
			return Token{}, errors.New("stream too long")
		}
		end := dataStart + l
		if end <= int64(len(s.data)) {
			after := end
			for after < int64(len(s.data)) && isWhitespace(s.data[after]) {
				after++
			}
			if bytes.HasPrefix(s.data[after:], needle) {
				s.pos = after + int64(len(needle))
				return Token{Type: TokenStream, Value: s.data[dataStart:end], Pos: start}, nil
			}
		}
		if err := s.recover(errors.New("stream /Length does not match endstream"), "stream"); err != nil {
			return Token{}, err
		}
	}
	idx := bytes.Index(s.data[dataStart:], needle)
	if idx < 0 {
		if err := s.recover(errors.New("endstream not found"), "stream"); err != nil {
			return Token{}, err
		}
		s.pos = int64(len(s.data))
		return Token{Type: TokenStream, Value: s.data[dataStart:], Pos: start}, nil
	}
	end := dataStart + int64(idx)
	s.pos = end + int64(len(needle))
	if end > dataStart && s.data[end-1] == '\n' {
		end--
	}
	if end > dataStart && s.data[end-1] == '\r' {
		end--
	}
	if s.cfg.MaxStreamLength > 0 && end-dataStart > s.cfg.MaxStreamLength {
		return Token{}, errors.New("stream too long")
	}
	return Token{Type: TokenStream, Value: s.data[dataStart:end], Pos: start}, nil
}

// scanInlineImage consumes the bytes after ID up to a whitespace-delimited EI.
func (s *pdfScanner) scanInlineImage(start int64) (Token, error) {
	if s.pos < int64(len(s.data)) && isWhitespace(s.data[s.pos]) {
		s.pos++
	}
	dataStart := s.pos
	for i := dataStart; i+1 < int64(len(s.data)); i++ {
		if s.data[i] != 'E' || s.data[i+1] != 'I' {
			continue
		}
		if i > dataStart && !isWhitespace(s.data[i-1]) {
			continue
		}
		if i+2 < int64(len(s.data)) && !isDelimiter(s.data[i+2]) {
			continue
		}
		end := i
		if end > dataStart && isWhitespace(s.data[end-1]) {
			end--
		}
		if s.cfg.MaxInlineImage > 0 && end-dataStart > s.cfg.MaxInlineImage {
			return Token{}, errors.New("inline image too long")
		}
		s.pos = i + 2
		return Token{Type: TokenInlineImage, Value: s.data[dataStart:end], Pos: start}, nil
	}
	s.pos = int64(len(s.data))
	return Token{}, s.recoverOrFail(errors.New("unterminated inline image"), "inline_image")
}

func (s *pdfScanner) emit(tok Token) (Token, error) {
	switch tok.Type {
	case TokenArray:
		s.arrayDepth++
		if s.cfg.MaxArrayDepth > 0 && s.arrayDepth > s.cfg.MaxArrayDepth {
			return Token{}, errors.New("array depth exceeded")
		}
	case TokenDict:
		s.dictDepth++
		if s.cfg.MaxDictDepth > 0 && s.dictDepth > s.cfg.MaxDictDepth {
			return Token{}, errors.New("dict depth exceeded")
		}
	case TokenKeyword:
		switch tok.Value {
		case "]":
			if s.arrayDepth > 0 {
				s.arrayDepth--
			}
		case ">>":
			if s.dictDepth > 0 {
				s.dictDepth--
			}
		}
	}
	return tok, nil
}

// recover consults the strategy; nil means the scanner should carry on with what it has.
func (s *pdfScanner) recover(err error, component string) error {
	if s.cfg.Recovery == nil {
		return err
	}
	loc := s.recLoc
	loc.ByteOffset = s.pos
	if loc.Component != "" {
		loc.Component += "->"
	}
	loc.Component += "scanner:" + component
	if s.cfg.Recovery.OnError(context.Background(), err, loc).Continue() {
		return nil
	}
	return err
}

func (s *pdfScanner) recoverOrFail(err error, component string) error {
	_ = s.recover(err, component)
	return err
}

func isNumberStart(c byte) bool { return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') }

func isUnsigned(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

func isWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}

func isEOL(c byte) bool { return c == '\r' || c == '\n' }

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isWhitespace(c)
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func fromHex(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func translateEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	}
	return c
}
