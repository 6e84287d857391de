package scanner

import (
	"github.com/mna/nova/lang/novaerr"
	"github.com/mna/nova/lang/token"
)

// scanSymbol handles a single-character symbol rune once any pending
// identifier/number has been flushed. It returns whether the following
// peeked rune was consumed as part of a two-character symbol (`==`, `//`).
func (s *Scanner) scanSymbol(c, peek rune) (bool, error) {
	if err := s.checkToken(); err != nil {
		return false, err
	}

	switch c {
	case '-':
		if last, ok := s.lastToken(); ok {
			switch last.Kind {
			case token.Reg, token.RegRef, token.RegStore, token.Integer, token.Float:
				s.pushToken(token.Token{Kind: token.Op, Op: token.Sub})
				return false, nil
			case token.Symbol:
				if last.Chr == ')' {
					s.pushToken(token.Token{Kind: token.Op, Op: token.Sub})
					return false, nil
				}
			}
		}
		s.pushToken(token.Token{Kind: token.Op, Op: token.Neg})
		return false, nil

	case '/':
		if peek == '/' {
			s.inComment = true
			return true, nil
		}
		s.pushToken(token.Token{Kind: token.Op, Op: token.Div})
		return false, nil

	case '@', '?', '&', ',':
		s.pushToken(token.Token{Kind: token.Symbol, Chr: c})
		return false, nil

	case ';':
		// statement separator: emitted as a ',' symbol, the same marker
		// closeBlock uses, so the parser flushes pending operators here
		s.pushToken(token.Token{Kind: token.Symbol, Chr: ','})
		return false, nil

	case '<':
		s.pushToken(token.Token{Kind: token.Op, Op: token.Lss})
		return false, nil
	case '>':
		s.pushToken(token.Token{Kind: token.Op, Op: token.Gtr})
		return false, nil
	case '!':
		s.pushToken(token.Token{Kind: token.Op, Op: token.Not})
		return false, nil
	case '%':
		s.pushToken(token.Token{Kind: token.Op, Op: token.Mod})
		return false, nil
	case '*':
		s.pushToken(token.Token{Kind: token.Op, Op: token.Mul})
		return false, nil
	case '+':
		s.pushToken(token.Token{Kind: token.Op, Op: token.Add})
		return false, nil

	case '(':
		if last, ok := s.takeLastToken(); ok {
			switch {
			case last.Kind == token.Reg:
				if last.Name != "import" {
					s.pushToken(token.Token{Kind: token.Call, Name: last.Name})
				}
			case last.Kind == token.Symbol && last.Chr == ')':
				// dropped: a call-closing paren is not re-pushed
			default:
				s.pushToken(last)
			}
		}
		s.pushToken(token.Token{Kind: token.Symbol, Chr: '('})
		s.frames = append(s.frames, frame{kind: frameParen, line: s.line, row: s.row})
		return false, nil

	case ')':
		n := len(s.frames)
		if n > 0 && s.frames[n-1].kind == frameParen {
			s.frames = s.frames[:n-1]
			s.pushToken(token.Token{Kind: token.Symbol, Chr: ')'})
		} else {
			s.frames = append(s.frames, frame{kind: frameParen, line: s.line, row: s.row})
		}
		return false, nil

	case '=':
		if peek == '=' {
			s.pushToken(token.Token{Kind: token.Op, Op: token.Equals})
			return true, nil
		}
		last, ok := s.takeLastToken()
		if !ok {
			return false, novaerr.NewLexing(
				"Assingment is missing Identifier",
				"Try putting a varaible befere the = Assingment",
				s.line, s.row, s.filepath)
		}
		switch {
		case last.Kind == token.Reg:
			s.pushToken(token.Token{Kind: token.RegStore, Name: last.Name})
			s.pushToken(token.Token{Kind: token.Op, Op: token.Assign})
		case last.Kind == token.RegRef:
			s.pushToken(last)
			s.pushToken(token.Token{Kind: token.Op, Op: token.Assign})
		case last.Kind == token.GlobalReg:
			s.pushToken(last)
			s.pushToken(token.Token{Kind: token.Op, Op: token.Assign})
		case last.Kind == token.Symbol && last.Chr == ')':
			s.pushToken(last)
			s.pushToken(token.Token{Kind: token.Op, Op: token.Assign})
		default:
			return false, novaerr.NewLexing(
				"Assingment is missing Identifier",
				"Try putting a varaible befere the = Assingment",
				s.line, s.row, s.filepath)
		}
		return false, nil

	default:
		return false, novaerr.NewLexing(
			"Unknown char "+string(c),
			"Try removing this character",
			s.line, s.row, s.filepath)
	}
}
