// Package parser converts the scanner's grouped token stream into postfix
// (shunting-yard) order, and resolves the Arguments+BlockLiteral groupings
// produced by the scanner into Function, Closure and LetBinding tokens.
package parser

import "github.com/mna/nova/lang/token"

// Parser holds the operator stack used while rewriting a token stream into
// postfix order. A Parser instance parses exactly one token stream; nested
// blocks/lists/conditionals are parsed with their own fresh Parser, as the
// reference implementation does.
type Parser struct {
	operator []token.Token
	output   []token.Token
}

// New returns an empty Parser.
func New() *Parser {
	return &Parser{}
}

// Parse rewrites input into postfix order.
func (p *Parser) Parse(input []token.Token) ([]token.Token, error) {
	for _, tok := range input {
		switch tok.Kind {
		case token.GlobalReg, token.CurrentFile, token.Arguments, token.Bindings:
			p.output = append(p.output, tok)

		case token.ConditionalBlock:
			parsed, err := New().Parse(tok.Body)
			if err != nil {
				return nil, err
			}
			p.output = append(p.output, token.Token{Kind: token.ConditionalBlock, Body: parsed})

		case token.Doblock:
			parsed, err := New().Parse(tok.Body)
			if err != nil {
				return nil, err
			}
			p.output = append(p.output, token.Token{Kind: token.Doblock, Body: parsed})

		case token.BlockLiteral:
			if err := p.reduceBlockLiteral(tok); err != nil {
				return nil, err
			}

		case token.List:
			parsed, err := New().Parse(tok.Body)
			if err != nil {
				return nil, err
			}
			parsed = stripListNoise(parsed)
			p.output = append(p.output, token.Token{Kind: token.List, Body: parsed})

		case token.LinePosition:
			p.output = append(p.output, tok)
			p.emptyUntilOpenParen()

		case token.Reg, token.RegRef, token.RegStore, token.RegStoreFast,
			token.Integer, token.Float, token.BindingRef, token.StoreFastBindID,
			token.Char, token.String:
			p.output = append(p.output, tok)

		case token.Call:
			p.emptyUntilOpenParen()
			p.operator = append(p.operator, tok)

		case token.Symbol:
			switch tok.Chr {
			case ',':
				p.emptyUntilOpenParen()
			case '(':
				p.operator = append(p.operator, tok)
			case ')':
				for len(p.operator) > 0 {
					last := p.operator[len(p.operator)-1]
					p.operator = p.operator[:len(p.operator)-1]
					if last.Kind == token.Symbol && last.Chr == '(' {
						break
					}
					p.output = append(p.output, last)
				}
				if n := len(p.operator); n > 0 && p.operator[n-1].Kind == token.Call {
					p.output = append(p.output, p.operator[n-1])
					p.operator = p.operator[:n-1]
				}
			}

		case token.Op:
			p.reduceOperator(tok)

		case token.Function:
			p.operator = append(p.operator, tok)
		}
	}

	p.emptyOperators()
	return p.output, nil
}

func (p *Parser) reduceBlockLiteral(block token.Token) error {
	if n := len(p.output); n > 0 && p.output[n-1].Kind == token.Arguments {
		params := p.output[n-1]
		p.output = p.output[:n-1]

		if n2 := len(p.output); n2 > 0 && p.output[n2-1].Kind == token.Arguments {
			captures := p.output[n2-1]
			p.output = p.output[:n2-1]

			parsed, err := New().Parse(block.Body)
			if err != nil {
				return err
			}
			p.output = append(p.output, token.Token{
				Kind:     token.Closure,
				Captures: captures.Body,
				Params:   params.Body,
				Body:     parsed,
			})
			return nil
		}

		parsed, err := New().Parse(block.Body)
		if err != nil {
			return err
		}
		p.output = append(p.output, token.Token{Kind: token.Function, Params: params.Body, Body: parsed})
		return nil
	}

	if n := len(p.output); n > 0 && p.output[n-1].Kind == token.Bindings {
		names := p.output[n-1]
		p.output = p.output[:n-1]

		parsed, err := New().Parse(block.Body)
		if err != nil {
			return err
		}
		p.output = append(p.output, token.Token{Kind: token.LetBinding, Params: names.Body, Body: parsed})
		return nil
	}

	parsed, err := New().Parse(block.Body)
	if err != nil {
		return err
	}
	p.output = append(p.output, token.Token{Kind: token.BlockLiteral, Body: parsed})
	return nil
}

func stripListNoise(toks []token.Token) []token.Token {
	out := toks[:0:0]
	for _, t := range toks {
		if t.Kind == token.Symbol && (t.Chr == ' ' || t.Chr == ',') {
			continue
		}
		if t.Kind == token.LinePosition {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (p *Parser) emptyUntilOpenParen() {
	for len(p.operator) > 0 {
		last := p.operator[len(p.operator)-1]
		if last.Kind == token.Symbol && last.Chr == '(' {
			break
		}
		p.operator = p.operator[:len(p.operator)-1]
		p.output = append(p.output, last)
	}
}

func (p *Parser) emptyOperators() {
	for len(p.operator) > 0 {
		n := len(p.operator) - 1
		p.output = append(p.output, p.operator[n])
		p.operator = p.operator[:n]
	}
}

func (p *Parser) reduceOperator(tok token.Token) {
	switch tok.Op {
	case token.Add, token.Sub, token.Mul, token.Div, token.Equals, token.Assign,
		token.Not, token.Mod, token.And, token.Or, token.Gtr, token.Lss, token.Invert:
		if n := len(p.operator); n > 0 && !(p.operator[n-1].Kind == token.Symbol && p.operator[n-1].Chr == '(') {
			for len(p.operator) > 0 {
				top := p.operator[len(p.operator)-1]
				if opPrecedence(top) > tok.Op.Precedence() {
					p.operator = p.operator[:len(p.operator)-1]
					p.output = append(p.output, top)
				} else {
					break
				}
			}
			for len(p.operator) > 0 {
				top := p.operator[len(p.operator)-1]
				if opPrecedence(top) == tok.Op.Precedence() && tok.Op.IsLeftAssociative() {
					p.operator = p.operator[:len(p.operator)-1]
					p.output = append(p.output, top)
				} else {
					break
				}
			}
		}
		p.operator = append(p.operator, tok)

	case token.PopBindings:
		p.emptyUntilOpenParen()
		p.output = append(p.output, tok)

	case token.UserFunctionChain, token.New, token.ResolveBind, token.BindVar:
		p.output = append(p.output, tok)

	case token.StoreTemp:
		p.operator = append(p.operator, tok)
		p.output = append(p.output, tok)

	default:
		p.operator = append(p.operator, tok)
	}
}

func opPrecedence(t token.Token) int {
	if t.Kind != token.Op {
		return 0
	}
	return t.Op.Precedence()
}
