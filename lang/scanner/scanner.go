// Package scanner turns Nova source text into a flat token stream, tracking
// nested frames ({...} blocks, [...] lists/argument groups, (...) call
// parens) so that closing a frame can emit the right grouped Token.
//
// The file-import mechanism of the reference lexer (opening and splicing in
// another source file on `import "path"`) is intentionally not implemented;
// it is out of scope for this toolchain.
package scanner

import (
	"strconv"
	"strings"

	"github.com/mna/nova/lang/novaerr"
	"github.com/mna/nova/lang/table"
	"github.com/mna/nova/lang/token"
)

type frameKind int8

const (
	frameParen frameKind = iota
	frameBlock
	frameList
)

type frame struct {
	kind frameKind
	line int
	row  int
}

// Scanner lexes a single source file into a token.Token stream.
type Scanner struct {
	line int
	row  int

	filepath string
	file     string

	output [][]token.Token
	buffer strings.Builder
	frames []frame
	globals *table.Table

	inString  bool
	inChar    bool
	inComment bool
}

// New returns a Scanner ready to lex source fed via Feed.
func New() *Scanner {
	return &Scanner{
		line:    1,
		output:  [][]token.Token{nil},
		globals: table.New(),
	}
}

// Feed appends source text to the scanner's input buffer.
func (s *Scanner) Feed(src string) {
	s.file += src
}

// SetFilepath sets the path reported in diagnostics.
func (s *Scanner) SetFilepath(path string) {
	s.filepath = path
}

func (s *Scanner) pushChar(c rune) {
	s.buffer.WriteRune(c)
}

// checkTokenBuffer converts a pending identifier/number buffer into a
// Token, or returns false if the buffer is empty.
func (s *Scanner) checkTokenBuffer() (token.Token, bool) {
	if s.buffer.Len() == 0 {
		return token.Token{}, false
	}
	buf := s.buffer.String()
	if strings.Contains(buf, ".") {
		if f, err := strconv.ParseFloat(buf, 64); err == nil {
			return token.Token{Kind: token.Float, Flt: f}, true
		}
	} else if i, err := strconv.ParseInt(buf, 10, 64); err == nil {
		return token.Token{Kind: token.Integer, Int: i}, true
	}
	return token.Token{Kind: token.Reg, Name: strings.ToLower(buf)}, true
}

func (s *Scanner) takeLastToken() (token.Token, bool) {
	last := s.output[len(s.output)-1]
	if len(last) == 0 {
		return token.Token{}, false
	}
	tok := last[len(last)-1]
	s.output[len(s.output)-1] = last[:len(last)-1]
	return tok, true
}

func (s *Scanner) lastToken() (token.Token, bool) {
	last := s.output[len(s.output)-1]
	if len(last) == 0 {
		return token.Token{}, false
	}
	return last[len(last)-1], true
}

func (s *Scanner) pushToken(tok token.Token) {
	n := len(s.output) - 1
	s.output[n] = append(s.output[n], tok)
}

// checkToken flushes the identifier/number buffer into the output stream,
// resolving the "mod" global-declaration form and "&ident" ref-taking form
// along the way.
func (s *Scanner) checkToken() error {
	tok, ok := s.checkTokenBuffer()
	if ok {
		if tok.Kind == token.Reg {
			id := tok.Name
			if last, ok := s.lastToken(); ok {
				switch {
				case last.Kind == token.Symbol && last.Chr == '&':
					s.takeLastToken()
					s.pushToken(token.Token{Kind: token.RegRef, Name: id})
				case last.Kind == token.Reg && last.Name == "mod":
					s.takeLastToken()
					if s.globals.Has(id) {
						return novaerr.NewLexing(
							"Module "+id+" is already defined",
							"Cannot redefine a module",
							s.line, s.row-len(id), s.filepath)
					}
					s.globals.Insert(id)
					s.pushToken(token.Token{Kind: token.GlobalReg, Name: id})
				default:
					s.pushToken(token.Token{Kind: token.Reg, Name: id})
				}
			} else {
				s.pushToken(token.Token{Kind: token.Reg, Name: id})
			}
		} else {
			s.pushToken(tok)
		}
	}
	s.buffer.Reset()
	return nil
}

// Tokens lexes the fed source and returns the resulting token stream.
func (s *Scanner) Tokens() ([]token.Token, error) {
	if s.file == "" {
		return nil, novaerr.NewFile("Lexer has no file to parse")
	}

	runes := []rune(s.file)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		s.row++

		if s.inComment {
			if c != '\n' {
				continue
			}
			s.inComment = false
		}

		if s.inString {
			if c != '"' {
				s.pushChar(c)
				continue
			}
			s.inString = false
			s.pushToken(token.Token{Kind: token.String, Str: s.buffer.String()})
			s.buffer.Reset()
			continue
		}

		if s.inChar {
			if c != '\'' {
				s.pushChar(c)
				continue
			}
			s.inChar = false
			buf := []rune(s.buffer.String())
			if len(buf) > 1 {
				return nil, novaerr.NewLexing(
					"Char cannot contain more than one character",
					"Try using double quotes instead, if you need a string",
					s.line, s.row-len(buf), s.filepath)
			}
			if len(buf) > 0 {
				s.pushToken(token.Token{Kind: token.Char, Chr: buf[0]})
			}
			s.buffer.Reset()
			continue
		}

		switch {
		case c == '\'':
			s.inChar = true
			if err := s.checkToken(); err != nil {
				return nil, err
			}
		case c == '"':
			s.inString = true
			if err := s.checkToken(); err != nil {
				return nil, err
			}
		case c == '\n':
			if err := s.checkToken(); err != nil {
				return nil, err
			}
			s.pushToken(token.Token{Kind: token.LinePosition, Int: int64(s.line)})
			s.line++
			s.row = 0
		case isIdentRune(c):
			s.pushChar(c)
		case c == ' ':
			if err := s.checkToken(); err != nil {
				return nil, err
			}
		case isSymbolRune(c):
			var peek rune
			if i+1 < len(runes) {
				peek = runes[i+1]
			}
			consumed, err := s.scanSymbol(c, peek)
			if err != nil {
				return nil, err
			}
			if consumed {
				i++
				s.row++
			}
		case c == '{':
			if err := s.checkToken(); err != nil {
				return nil, err
			}
			s.frames = append(s.frames, frame{kind: frameBlock, line: s.line, row: s.row})
			s.output = append(s.output, nil)
		case c == '}':
			if err := s.checkToken(); err != nil {
				return nil, err
			}
			if err := s.closeBlock(); err != nil {
				return nil, err
			}
		case c == '[':
			if err := s.checkToken(); err != nil {
				return nil, err
			}
			s.frames = append(s.frames, frame{kind: frameList, line: s.line, row: s.row})
			s.output = append(s.output, nil)
		case c == ']':
			if err := s.checkToken(); err != nil {
				return nil, err
			}
			var peek rune
			if i+1 < len(runes) {
				peek = runes[i+1]
			}
			consumed, err := s.closeList(peek)
			if err != nil {
				return nil, err
			}
			if consumed {
				i++
				s.row++
			}
		default:
			// unrecognized runes (e.g. stray whitespace variants) are ignored,
			// matching the reference lexer's catch-all.
		}
	}

	if err := s.checkToken(); err != nil {
		return nil, err
	}

	if len(s.frames) > 0 {
		f := s.frames[len(s.frames)-1]
		msg := "Unbalanced or unexpected brace"
		switch f.kind {
		case frameList:
			msg = "List Left open"
		case frameParen:
			msg = "Parenthesis Left open"
		}
		return nil, novaerr.NewLexing(msg, "Failed after lexing", f.line, f.row, s.filepath)
	}

	return s.output[0], nil
}

func isIdentRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' ||
		(c >= '0' && c <= '9') || c == '.' || c == ':'
}

func isSymbolRune(c rune) bool {
	switch c {
	case '+', '*', '/', '(', ')', '<', '>', '`', '~', '@', '%', '^', '&',
		',', '?', ';', '!', '$', '|', '=', '-':
		return true
	}
	return false
}

func (s *Scanner) closeBlock() error {
	n := len(s.frames)
	if n == 0 || s.frames[n-1].kind != frameBlock {
		return novaerr.NewLexing("Unbalanced or unexpected brace", "Missing opening brace", s.line, s.row, s.filepath)
	}
	s.frames = s.frames[:n-1]

	block := s.output[len(s.output)-1]
	s.output = s.output[:len(s.output)-1]

	if last, ok := s.lastToken(); ok && last.Kind == token.Symbol && last.Chr == '?' {
		s.takeLastToken()
		s.pushToken(token.Token{Kind: token.Symbol, Chr: ','})
		s.pushToken(token.Token{Kind: token.ConditionalBlock, Body: block})
		return nil
	}
	if last, ok := s.lastToken(); ok && last.Kind == token.Symbol && last.Chr == '@' {
		s.takeLastToken()
		s.pushToken(token.Token{Kind: token.Doblock, Body: block})
		return nil
	}
	s.pushToken(token.Token{Kind: token.BlockLiteral, Body: block})
	return nil
}

func (s *Scanner) closeList(peek rune) (bool, error) {
	n := len(s.frames)
	if n == 0 || s.frames[n-1].kind != frameList {
		return false, novaerr.NewLexing("Unbalanced or unexpected brace", "Missing opening brace", s.line, s.row, s.filepath)
	}
	s.frames = s.frames[:n-1]

	block := s.output[len(s.output)-1]
	s.output = s.output[:len(s.output)-1]

	if peek == ':' {
		s.pushToken(token.Token{Kind: token.Arguments, Body: block})
		return true, nil
	}
	s.pushToken(token.Token{Kind: token.List, Body: block})
	return false, nil
}
