// Package extract — page content scanner.
// Walks a decoded PDF content stream and records what a ruled-grid table
// locator needs: text runs with their starting point and font resource name,
// stroked rectangles and stroked line segments. Fills, clipping paths, colour
// and the current transformation matrix are not tracked.
package extract

import (
	"bytes"
	"fmt"
	"strconv"
)

// textRun is one string shown by Tj, TJ, ' or ".
type textRun struct {
	x, y float64
	font string // resource name set by the last Tf, e.g. "F1"
	raw  []byte
	text string // raw decoded for font; filled in by the source
}

type segment struct {
	x1, y1, x2, y2 float64
}

// rect is a normalised rectangle: (x, y) is the lower-left corner and both
// sides are positive.
type rect struct {
	x, y, w, h float64
}

func newRect(x, y, w, h float64) rect {
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	return rect{x, y, w, h}
}

func (r rect) right() float64 { return r.x + r.w }
func (r rect) top() float64   { return r.y + r.h }

type pageContent struct {
	runs  []textRun
	rects []rect    // stroked, in paint order
	lines []segment // stroked, in paint order
}

type operandKind int

const (
	operandNumber operandKind = iota
	operandName
	operandString
	operandArray
	operandOther
)

type operand struct {
	kind operandKind
	num  float64
	name string
	str  []byte
	arr  []operand
}

type point struct{ x, y float64 }

// scanner interprets the subset of content stream operators that place text
// and stroke paths.
type scanner struct {
	lex      *lexer
	out      pageContent
	operands []operand

	font      string
	saved     []string
	tm, tlm   point
	leading   float64
	pathRects []rect
	pathLines []segment
	cur       point
	start     point
}

func scanContent(data []byte) (*pageContent, error) {
	s := &scanner{lex: &lexer{data: data}}
	for {
		tok, err := s.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			return &s.out, nil
		case tokOperator:
			if err := s.apply(string(tok.text)); err != nil {
				return nil, err
			}
			s.operands = s.operands[:0]
		default:
			op, err := s.operand(tok)
			if err != nil {
				return nil, err
			}
			s.operands = append(s.operands, op)
		}
	}
}

func (s *scanner) operand(tok token) (operand, error) {
	switch tok.kind {
	case tokNumber:
		return operand{kind: operandNumber, num: tok.num}, nil
	case tokName:
		return operand{kind: operandName, name: string(tok.text)}, nil
	case tokString:
		return operand{kind: operandString, str: tok.text}, nil
	case tokArrayStart:
		var arr []operand
		for {
			t, err := s.lex.next()
			if err != nil {
				return operand{}, err
			}
			switch t.kind {
			case tokArrayEnd:
				return operand{kind: operandArray, arr: arr}, nil
			case tokEOF:
				return operand{}, fmt.Errorf("unterminated array at offset %d", s.lex.pos)
			}
			el, err := s.operand(t)
			if err != nil {
				return operand{}, err
			}
			arr = append(arr, el)
		}
	case tokDictStart:
		depth := 1
		for depth > 0 {
			t, err := s.lex.next()
			if err != nil {
				return operand{}, err
			}
			switch t.kind {
			case tokDictStart:
				depth++
			case tokDictEnd:
				depth--
			case tokEOF:
				return operand{}, fmt.Errorf("unterminated dictionary at offset %d", s.lex.pos)
			}
		}
		return operand{kind: operandOther}, nil
	}
	return operand{kind: operandOther}, nil
}

// nums returns the last n operands as numbers.
func (s *scanner) nums(n int) ([]float64, bool) {
	if len(s.operands) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i, op := range s.operands[len(s.operands)-n:] {
		if op.kind != operandNumber {
			return nil, false
		}
		out[i] = op.num
	}
	return out, true
}

func (s *scanner) last() (operand, bool) {
	if len(s.operands) == 0 {
		return operand{}, false
	}
	return s.operands[len(s.operands)-1], true
}

func (s *scanner) apply(op string) error {
	switch op {
	case "q":
		s.saved = append(s.saved, s.font)
	case "Q":
		if n := len(s.saved); n > 0 {
			s.font = s.saved[n-1]
			s.saved = s.saved[:n-1]
		}
	case "BT":
		s.tm, s.tlm = point{}, point{}
	case "Tf":
		if len(s.operands) >= 2 && s.operands[len(s.operands)-2].kind == operandName {
			s.font = s.operands[len(s.operands)-2].name
		}
	case "TL":
		if v, ok := s.nums(1); ok {
			s.leading = v[0]
		}
	case "Td", "TD":
		if v, ok := s.nums(2); ok {
			s.tlm = point{s.tlm.x + v[0], s.tlm.y + v[1]}
			s.tm = s.tlm
			if op == "TD" {
				s.leading = -v[1]
			}
		}
	case "Tm":
		if v, ok := s.nums(6); ok {
			s.tlm = point{v[4], v[5]}
			s.tm = s.tlm
		}
	case "T*":
		s.nextLine()
	case "Tj":
		if o, ok := s.last(); ok && o.kind == operandString {
			s.show(o.str)
		}
	case "'", "\"":
		s.nextLine()
		if o, ok := s.last(); ok && o.kind == operandString {
			s.show(o.str)
		}
	case "TJ":
		if o, ok := s.last(); ok && o.kind == operandArray {
			var buf bytes.Buffer
			for _, el := range o.arr {
				if el.kind == operandString {
					buf.Write(el.str)
				}
			}
			s.show(buf.Bytes())
		}
	case "m":
		if v, ok := s.nums(2); ok {
			s.cur = point{v[0], v[1]}
			s.start = s.cur
		}
	case "l":
		if v, ok := s.nums(2); ok {
			next := point{v[0], v[1]}
			s.pathLines = append(s.pathLines, segment{s.cur.x, s.cur.y, next.x, next.y})
			s.cur = next
		}
	case "h":
		if s.cur != s.start {
			s.pathLines = append(s.pathLines, segment{s.cur.x, s.cur.y, s.start.x, s.start.y})
			s.cur = s.start
		}
	case "re":
		if v, ok := s.nums(4); ok {
			s.pathRects = append(s.pathRects, newRect(v[0], v[1], v[2], v[3]))
			s.cur = point{v[0], v[1]}
			s.start = s.cur
		}
	case "S", "s", "B", "B*", "b", "b*":
		s.out.rects = append(s.out.rects, s.pathRects...)
		s.out.lines = append(s.out.lines, s.pathLines...)
		s.clearPath()
	case "f", "F", "f*", "n":
		s.clearPath()
	case "ID":
		return s.lex.skipInlineImage()
	}
	return nil
}

func (s *scanner) nextLine() {
	s.tlm = point{s.tlm.x, s.tlm.y - s.leading}
	s.tm = s.tlm
}

func (s *scanner) show(raw []byte) {
	if len(raw) == 0 {
		return
	}
	s.out.runs = append(s.out.runs, textRun{
		x:    s.tm.x,
		y:    s.tm.y,
		font: s.font,
		raw:  append([]byte(nil), raw...),
	})
}

func (s *scanner) clearPath() {
	s.pathRects = s.pathRects[:0]
	s.pathLines = s.pathLines[:0]
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokName
	tokString
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
	tokOperator
)

type token struct {
	kind tokenKind
	num  float64
	text []byte
}

// lexer splits a content stream into PDF tokens.
type lexer struct {
	data []byte
	pos  int
}

func isWhitespace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{kind: tokEOF}, nil
	}
	c := l.data[l.pos]
	switch {
	case c == '(':
		return l.literalString()
	case c == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return token{kind: tokDictStart}, nil
		}
		return l.hexString()
	case c == '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return token{kind: tokDictEnd}, nil
		}
		return token{}, fmt.Errorf("unexpected '>' at offset %d", l.pos)
	case c == '[':
		l.pos++
		return token{kind: tokArrayStart}, nil
	case c == ']':
		l.pos++
		return token{kind: tokArrayEnd}, nil
	case c == '{' || c == '}':
		l.pos++
		return token{kind: tokOperator, text: []byte{c}}, nil
	case c == '/':
		return l.name(), nil
	case c == ')':
		return token{}, fmt.Errorf("unbalanced ')' at offset %d", l.pos)
	}

	start := l.pos
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	word := l.data[start:l.pos]
	if isNumeric(word) {
		n, err := strconv.ParseFloat(string(word), 64)
		if err == nil {
			return token{kind: tokNumber, num: n}, nil
		}
	}
	return token{kind: tokOperator, text: word}, nil
}

func isNumeric(word []byte) bool {
	if len(word) == 0 {
		return false
	}
	digits := 0
	for i, c := range word {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
		case (c == '+' || c == '-') && i == 0:
		default:
			return false
		}
	}
	return digits > 0
}

func (l *lexer) name() token {
	l.pos++ // '/'
	var buf []byte
	for l.pos < len(l.data) && !isWhitespace(l.data[l.pos]) && !isDelimiter(l.data[l.pos]) {
		c := l.data[l.pos]
		if c == '#' && l.pos+2 < len(l.data) {
			if v, err := strconv.ParseUint(string(l.data[l.pos+1:l.pos+3]), 16, 8); err == nil {
				buf = append(buf, byte(v))
				l.pos += 3
				continue
			}
		}
		buf = append(buf, c)
		l.pos++
	}
	return token{kind: tokName, text: buf}
}

func (l *lexer) literalString() (token, error) {
	start := l.pos
	l.pos++ // '('
	depth := 1
	var buf []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
			buf = append(buf, c)
		case ')':
			depth--
			if depth == 0 {
				return token{kind: tokString, text: buf}, nil
			}
			buf = append(buf, c)
		case '\\':
			if l.pos >= len(l.data) {
				continue
			}
			e := l.data[l.pos]
			l.pos++
			switch e {
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				// line continuation
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.data) && l.data[l.pos] >= '0' && l.data[l.pos] <= '7'; i++ {
						v = v*8 + int(l.data[l.pos]-'0')
						l.pos++
					}
					buf = append(buf, byte(v))
				} else {
					buf = append(buf, e)
				}
			}
		default:
			buf = append(buf, c)
		}
	}
	return token{}, fmt.Errorf("unterminated string at offset %d", start)
}

func (l *lexer) hexString() (token, error) {
	start := l.pos
	l.pos++ // '<'
	var digits []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				v, err := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
				if err != nil {
					return token{}, fmt.Errorf("bad hex string at offset %d: %w", start, err)
				}
				out[i] = byte(v)
			}
			return token{kind: tokString, text: out}, nil
		}
		if isWhitespace(c) {
			continue
		}
		digits = append(digits, c)
	}
	return token{}, fmt.Errorf("unterminated hex string at offset %d", start)
}

// skipInlineImage moves past the binary data of an inline image that
// follows an ID operator.
func (l *lexer) skipInlineImage() error {
	if l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
	for i := l.pos; i+1 < len(l.data); i++ {
		if l.data[i] == 'E' && l.data[i+1] == 'I' &&
			(i == 0 || isWhitespace(l.data[i-1])) &&
			(i+2 == len(l.data) || isWhitespace(l.data[i+2]) || isDelimiter(l.data[i+2])) {
			l.pos = i + 2
			return nil
		}
	}
	return fmt.Errorf("unterminated inline image at offset %d", l.pos)
}
