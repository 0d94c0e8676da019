package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (Selector) isNode()   {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		case typeQuote:
			sel, err := p.selector()
			if err != nil {
				return cmd, err
			}
			arg = sel
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// selector parses a comma separated list of steps, ranges and wildcards
// with an optional trailing stride, e.g. '1,3 or '2:8/2 or '*.
func (p *parser) selector() (Selector, error) {
	var sel Selector
	for {
		token := p.next()
		switch token.typ {
		case typeInt:
			start, err := strconv.Atoi(token.text)
			if err != nil {
				return sel, err
			}
			if p.peek().typ != typeColon {
				sel.matchers = append(sel.matchers, listMatch{start})
				break
			}
			p.next()
			t := p.next()
			if t.typ != typeInt {
				return sel, unexpected(t)
			}
			end, err := strconv.Atoi(t.text)
			if err != nil {
				return sel, err
			}
			sel.matchers = append(sel.matchers, rangeMatch{start: start, end: end})
		case typeAsterisk:
			sel.matchers = append(sel.matchers, matchAll)
		default:
			return sel, unexpected(token)
		}

		switch p.peek().typ {
		case typeComma:
			p.next()
			continue
		case typeSlash:
			p.next()
			t := p.next()
			if t.typ != typeInt {
				return sel, unexpected(t)
			}
			stride, err := strconv.Atoi(t.text)
			if err != nil {
				return sel, err
			}
			if stride < 1 {
				return sel, fmt.Errorf("invalid stride %d", stride)
			}
			sel.stride = stride
		}
		return sel.compact(), nil
	}
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input at position %d", t.pos)
	}
	return fmt.Errorf("unexpected token %q at position %d", t.text, t.pos)
}
