// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package drive

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Type is the type of a lexical item.
//
type Type int

// Tokens
const (
	EOF Type = iota
	Raw
	Int
	Star
	Range
	Equal
	Comma
)

var typeNames = [...]string{
	EOF:   "end of input",
	Raw:   "character",
	Int:   "integer",
	Star:  "'*'",
	Range: "'..'",
	Equal: "'='",
	Comma: "','",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "token " + strconv.Itoa(int(t))
}

// Item is a lexical item. Pos is the byte offset of the item in the input.
//
type Item struct {
	Type  Type
	Pos   int
	Value int  // for Int
	Rune  rune // for Raw
}

func (i Item) String() string {
	switch i.Type {
	case Int:
		return "integer " + strconv.Itoa(i.Value)
	case Raw:
		return strconv.QuoteRune(i.Rune)
	}
	return i.Type.String()
}

type stateFn func(l *lexer) stateFn

// lexer is a state function lexer. Each call to Lex runs state functions
// until one of them emits an item. Items start where lexInit or lexEOF last
// set start, states in between extend the current item.
//
type lexer struct {
	input string
	pos   int // position of the next rune
	start int // start of the current item
	cur   rune
	items []Item
	state stateFn
}

func newLexer(input string) *lexer {
	return &lexer{input: input, state: lexInit}
}

// Lex returns the next item.
//
func (l *lexer) Lex() Item {
	for len(l.items) == 0 {
		if s := l.state(l); s != nil {
			l.state = s
		} else {
			l.state = lexInit
		}
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

const eof = -1

func (l *lexer) next() rune {
	if l.pos >= len(l.input) {
		l.cur = eof
		l.pos++ // so that backup works at EOF
		return eof
	}
	r, sz := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += sz
	l.cur = r
	return r
}

func (l *lexer) backup() {
	if l.cur == eof {
		l.pos--
		return
	}
	l.pos -= utf8.RuneLen(l.cur)
}

func (l *lexer) emit(i Item) {
	i.Pos = l.start
	l.items = append(l.items, i)
}

func lexInit(l *lexer) stateFn {
	l.start = l.pos
	r := l.next()
	switch {
	case r == eof:
		l.backup()
		return lexEOF
	case unicode.IsSpace(r):
		for unicode.IsSpace(r) {
			r = l.next()
		}
		l.backup()
	case '0' <= r && r <= '9':
		return lexNumber
	case r == '*':
		l.emit(Item{Type: Star})
	case r == '=':
		l.emit(Item{Type: Equal})
	case r == ',':
		l.emit(Item{Type: Comma})
	case r == '.':
		if l.next() == '.' {
			l.emit(Item{Type: Range})
			break
		}
		l.backup()
		fallthrough
	default:
		l.emit(Item{Type: Raw, Rune: r})
		return lexEOF
	}
	return nil
}

func lexNumber(l *lexer) stateFn {
	i := int(l.cur - '0')
	r := l.next()
	for '0' <= r && r <= '9' {
		if i < 1<<20 {
			i = i*10 + int(r-'0')
		}
		r = l.next()
	}
	l.backup()
	l.emit(Item{Type: Int, Value: i})
	return nil
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
//
func lexEOF(l *lexer) stateFn {
	l.start = l.pos
	l.emit(Item{Type: EOF})
	return lexEOF
}
