//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2026 EcomData
//
// This file is part of ProductETL.
//
// ProductETL is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ProductETL is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ProductETL. If not, see https://www.gnu.org/licenses/.

package normalize

import (
	"strconv"
	"strings"
	"unicode"
)

// parseListLiteral parses a string-encoded list literal such as
// "['red', 'blue']" into its element values. It is a literal parser, not an
// expression evaluator: only lists, quoted strings, numbers, booleans, and
// None are recognized. Nested lists and trailing commas are accepted.
//
// The second return value is false for any malformed input. Callers map that
// deterministically to the empty-list default; a parse failure is never
// surfaced as an error.
func parseListLiteral(s string) ([]interface{}, bool) {
	p := &literalParser{input: []rune(s)}
	p.skipSpace()
	value, ok := p.parseList()
	if !ok {
		return nil, false
	}
	p.skipSpace()
	if !p.done() {
		return nil, false
	}
	return value, true
}

// literalParser is a minimal recursive-descent parser over a rune slice.
type literalParser struct {
	input []rune
	pos   int
}

func (p *literalParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *literalParser) peek() rune {
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *literalParser) skipSpace() {
	for !p.done() && unicode.IsSpace(p.input[p.pos]) {
		p.pos++
	}
}

func (p *literalParser) parseList() ([]interface{}, bool) {
	if p.peek() != '[' {
		return nil, false
	}
	p.pos++

	elements := make([]interface{}, 0)
	for {
		p.skipSpace()
		if p.done() {
			return nil, false
		}
		if p.peek() == ']' {
			p.pos++
			return elements, true
		}

		value, ok := p.parseValue()
		if !ok {
			return nil, false
		}
		elements = append(elements, value)

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return elements, true
		default:
			return nil, false
		}
	}
}

func (p *literalParser) parseValue() (interface{}, bool) {
	switch c := p.peek(); {
	case c == '[':
		return p.parseList()
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c == '-' || c == '+' || unicode.IsDigit(c):
		return p.parseNumber()
	default:
		return p.parseWord()
	}
}

func (p *literalParser) parseString(quote rune) (interface{}, bool) {
	p.pos++ // opening quote

	var sb strings.Builder
	for !p.done() {
		c := p.input[p.pos]
		switch c {
		case quote:
			p.pos++
			return sb.String(), true
		case '\\':
			p.pos++
			if p.done() {
				return nil, false
			}
			esc := p.input[p.pos]
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				sb.WriteRune(esc)
			}
			p.pos++
		default:
			sb.WriteRune(c)
			p.pos++
		}
	}
	return nil, false // unterminated
}

func (p *literalParser) parseNumber() (interface{}, bool) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	isFloat := false
	for !p.done() {
		c := p.input[p.pos]
		if unicode.IsDigit(c) {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && isFloat {
			p.pos++ // exponent sign
			continue
		}
		break
	}

	text := string(p.input[start:p.pos])
	if !isFloat {
		if n, err := strconv.Atoi(text); err == nil {
			return n, true
		}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, true
	}
	return nil, false
}

// parseWord handles the bare literals Python permits inside a list:
// None, True, and False.
func (p *literalParser) parseWord() (interface{}, bool) {
	start := p.pos
	for !p.done() && unicode.IsLetter(p.input[p.pos]) {
		p.pos++
	}

	switch string(p.input[start:p.pos]) {
	case "None":
		return nil, true
	case "True":
		return true, true
	case "False":
		return false, true
	default:
		return nil, false
	}
}
