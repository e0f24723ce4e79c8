// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package drive parses per-channel drive command assignments.
//
// An assignment string is a comma separated list of target=value pairs where
// target is a channel number, an inclusive channel range or '*' for all
// channels, and value is an 8 bit integer:
//
//	*=0, 0..9=255, 12=128
//
// Assignments are applied left to right, later ones override earlier ones.
//
package drive

import (
	"github.com/pkg/errors"
)

// Assignment assigns Value to channels Start through End (inclusive).
//
type Assignment struct {
	Start int
	End   int
	Value uint8
}

// Parser is a simplistic parser for assignment strings.
//
type Parser struct {
	Input string
	// Channels is the number of available channels. It is used to expand
	// '*' and to check channel numbers.
	Channels int

	l *lexer
	i Item
}

func (p *Parser) lex() {
	p.i = p.l.Lex()
}

// Next returns the next assignment in the input stream, or nil at the end of
// the input.
//
func (p *Parser) Next() (*Assignment, error) {
	if p.l == nil {
		p.l = newLexer(p.Input)
		p.lex()
		if p.i.Type == EOF {
			return nil, nil
		}
	} else {
		switch p.i.Type {
		case EOF:
			return nil, nil
		case Comma:
			p.lex()
		default:
			return nil, p.errorf("unexpected %v", p.i)
		}
	}

	a, err := p.target()
	if err != nil {
		return nil, err
	}
	if p.i.Type != Equal {
		return nil, p.errorf("'=' expected after channel, got %v", p.i)
	}
	p.lex()
	if p.i.Type != Int {
		return nil, p.errorf("value expected after '=', got %v", p.i)
	}
	if p.i.Value > 255 {
		return nil, p.errorf("value %d out of range [0, 255]", p.i.Value)
	}
	a.Value = uint8(p.i.Value)
	p.lex()
	if p.i.Type != Comma && p.i.Type != EOF {
		return nil, p.errorf("',' or end of input expected, got %v", p.i)
	}
	return a, nil
}

func (p *Parser) target() (*Assignment, error) {
	switch p.i.Type {
	case Star:
		p.lex()
		return &Assignment{Start: 0, End: p.Channels - 1}, nil
	case Int:
	default:
		return nil, p.errorf("channel number or '*' expected, got %v", p.i)
	}
	start := p.i
	if err := p.checkChannel(start); err != nil {
		return nil, err
	}
	p.lex()
	if p.i.Type != Range {
		return &Assignment{Start: start.Value, End: start.Value}, nil
	}
	p.lex()
	if p.i.Type != Int {
		return nil, p.errorf("channel number expected after '..', got %v", p.i)
	}
	end := p.i
	if err := p.checkChannel(end); err != nil {
		return nil, err
	}
	if end.Value < start.Value {
		return nil, p.errorf("empty channel range %d..%d", start.Value, end.Value)
	}
	p.lex()
	return &Assignment{Start: start.Value, End: end.Value}, nil
}

func (p *Parser) checkChannel(i Item) error {
	if i.Value >= p.Channels {
		return parseError(p.Input, i.Pos, "channel %d out of range [0, %d]", i.Value, p.Channels-1)
	}
	return nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return parseError(p.Input, p.i.Pos, format, args...)
}

func parseError(in string, pos int, format string, args ...interface{}) error {
	return errors.Wrapf(errors.Errorf(format, args...), "in %q at pos %d", in, pos+1)
}

// Parse parses all assignments in input for the given number of channels.
//
func Parse(input string, channels int) ([]Assignment, error) {
	p := Parser{Input: input, Channels: channels}
	var out []Assignment
	for {
		a, err := p.Next()
		if err != nil {
			return nil, err
		}
		if a == nil {
			return out, nil
		}
		out = append(out, *a)
	}
}

// Apply parses input and sets the assigned values in dst, one entry per
// channel. Entries of dst that are not assigned are left untouched. dst is not
// modified if input is invalid.
//
func Apply(input string, dst []uint8) error {
	as, err := Parse(input, len(dst))
	if err != nil {
		return err
	}
	for _, a := range as {
		for ch := a.Start; ch <= a.End; ch++ {
			dst[ch] = a.Value
		}
	}
	return nil
}
