// Package lexer turns source text into a pull-based stream of tokens.
package lexer

import (
	"strconv"
	"strings"

	"github.com/mcgru/curryinterp/internal/config"
	"github.com/mcgru/curryinterp/internal/diagnostics"
	"github.com/mcgru/curryinterp/internal/source"
	"github.com/mcgru/curryinterp/internal/token"
	"github.com/mcgru/curryinterp/internal/values"
)

// Lexer pulls one token at a time from a source.Reader.
type Lexer struct {
	src    *source.Reader
	limits config.Limits
	ch     byte
	atEOF  bool
}

// New creates a Lexer over input bounded by limits.
func New(input string, limits config.Limits) *Lexer {
	l := &Lexer{src: source.New(input), limits: limits}
	l.refresh()
	return l
}

func (l *Lexer) refresh() {
	ch, ok := l.src.Peek()
	if !ok {
		l.ch = 0
		l.atEOF = true
		return
	}
	l.ch = ch
	l.atEOF = false
}

func (l *Lexer) advance() {
	l.src.Advance()
	l.refresh()
}

func (l *Lexer) pos() diagnostics.Position {
	return diagnostics.Position{Line: l.src.Line(), Column: l.src.Column()}
}

func (l *Lexer) peekNext() (byte, bool) {
	return l.src.PeekAt(1)
}

// NextToken scans and returns the next token, or a LexerError.
func (l *Lexer) NextToken() (token.Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, err
	}
	if l.atEOF {
		p := l.pos()
		return token.Token{Type: token.EOF, Line: p.Line, Column: p.Column}, nil
	}

	switch {
	case isDigit(l.ch):
		return l.readNumber()
	case l.ch == '"':
		return l.readString()
	case l.ch == ':':
		return l.readColonAssign()
	case l.ch == '&':
		return l.readTwoCharOp('&', token.AND, "&&")
	case l.ch == '|':
		return l.readTwoCharOp('|', token.OR, "||")
	case l.ch == '!':
		return l.readOneOrTwo('!', token.BANG, '=', token.NOT_EQ)
	case l.ch == '=':
		return l.readOneOrTwo('=', token.ASSIGN, '=', token.EQ)
	case l.ch == '<':
		return l.readOneOrTwo('<', token.LT, '=', token.LTE)
	case l.ch == '>':
		return l.readOneOrTwo('>', token.GT, '=', token.GTE)
	case isSingleCharPunct(l.ch):
		return l.readSingleCharOp()
	case isLowerAlpha(l.ch) || l.ch == '_':
		return l.readIdentifier()
	case isUpperAlpha(l.ch):
		return l.readCurrencyType()
	default:
		p := l.pos()
		ch := l.ch
		l.advance()
		return token.Token{}, diagnostics.NewLexerError(p, "unmatched character", string(ch))
	}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		for !l.atEOF && isSpace(l.ch) {
			l.advance()
		}
		if !l.atEOF && l.ch == '/' {
			if next, ok := l.peekNext(); ok && next == '*' {
				if err := l.skipComment(); err != nil {
					return err
				}
				continue
			}
		}
		return nil
	}
}

func (l *Lexer) skipComment() error {
	start := l.pos()
	l.advance() // consume '/'
	l.advance() // consume '*'
	length := 0
	for {
		if l.atEOF {
			return diagnostics.NewLexerError(start, "unterminated comment", "/*")
		}
		if l.ch == '*' {
			if next, ok := l.peekNext(); ok && next == '/' {
				l.advance()
				l.advance()
				return nil
			}
		}
		length++
		if length > l.limits.MaxCommentLength {
			return diagnostics.NewLexerError(start, "comment exceeds maximum scan length", "/*")
		}
		l.advance()
	}
}

func (l *Lexer) readNumber() (token.Token, error) {
	start := l.pos()
	var digits strings.Builder
	var lastLine, lastCol int

	intDigits := 0
	for isDigit(l.ch) {
		lastLine, lastCol = l.src.Line(), l.src.Column()
		digits.WriteByte(l.ch)
		intDigits++
		l.advance()
		if intDigits > l.limits.MaxIntDigits {
			return token.Token{}, diagnostics.NewLexerError(start, "integer literal exceeds maximum digit count", digits.String())
		}
	}

	isFloat := false
	if l.ch == '.' {
		next, ok := l.peekNext()
		if !ok || !isDigit(next) {
			return token.Token{}, diagnostics.NewLexerError(l.pos(), "missing digit after '.'", digits.String()+".")
		}
		isFloat = true
		lastLine, lastCol = l.src.Line(), l.src.Column()
		digits.WriteByte('.')
		l.advance()
		for isDigit(l.ch) {
			lastLine, lastCol = l.src.Line(), l.src.Column()
			digits.WriteByte(l.ch)
			l.advance()
		}
	}

	if isUpperAlpha(l.ch) {
		var name [3]byte
		for i := 0; i < 3; i++ {
			if !isUpperAlpha(l.ch) {
				return token.Token{}, diagnostics.NewLexerError(start, "currency literal suffix must be exactly three uppercase letters", digits.String()+string(name[:i]))
			}
			lastLine, lastCol = l.src.Line(), l.src.Column()
			name[i] = l.ch
			l.advance()
		}
		if isUpperAlpha(l.ch) {
			return token.Token{}, diagnostics.NewLexerError(start, "currency literal suffix must be exactly three uppercase letters", digits.String()+string(name[:]))
		}
		amount, _ := strconv.ParseFloat(digits.String(), 64)
		lexeme := digits.String() + string(name[:])
		return token.Token{
			Type:    token.CURRENCY,
			Lexeme:  lexeme,
			Literal: values.Currency{Name: string(name[:]), Amount: amount},
			Line:    lastLine, Column: lastCol,
		}, nil
	}

	if isFloat {
		amount, _ := strconv.ParseFloat(digits.String(), 64)
		return token.Token{Type: token.FLOAT, Lexeme: digits.String(), Literal: amount, Line: lastLine, Column: lastCol}, nil
	}
	n, _ := strconv.ParseInt(digits.String(), 10, 64)
	return token.Token{Type: token.INT, Lexeme: digits.String(), Literal: n, Line: lastLine, Column: lastCol}, nil
}

func (l *Lexer) readString() (token.Token, error) {
	start := l.pos()
	l.advance() // consume opening quote
	var sb strings.Builder
	for {
		if l.atEOF {
			return token.Token{}, diagnostics.NewLexerError(start, "unterminated string literal", sb.String())
		}
		if l.ch == '"' {
			p := l.pos()
			l.advance()
			return token.Token{Type: token.STRING, Lexeme: sb.String(), Literal: sb.String(), Line: p.Line, Column: p.Column}, nil
		}
		if sb.Len() >= l.limits.MaxStringLength {
			return token.Token{}, diagnostics.NewLexerError(start, "string literal exceeds maximum length", sb.String())
		}
		sb.WriteByte(l.ch)
		l.advance()
	}
}

func (l *Lexer) readColonAssign() (token.Token, error) {
	start := l.pos()
	l.advance() // consume ':'
	if l.ch != '=' {
		return token.Token{}, diagnostics.NewLexerError(start, "':' not followed by '='", ":")
	}
	p := l.pos()
	l.advance()
	return token.Token{Type: token.COLON_ASSIGN, Lexeme: ":=", Line: p.Line, Column: p.Column}, nil
}

// readTwoCharOp handles operators that are only legal when doubled (&&, ||);
// a lone '&' or '|' is not a valid token in this language.
func (l *Lexer) readTwoCharOp(ch byte, typ token.TokenType, lexeme string) (token.Token, error) {
	start := l.pos()
	next, ok := l.peekNext()
	if !ok || next != ch {
		l.advance()
		return token.Token{}, diagnostics.NewLexerError(start, "unmatched character", string(ch))
	}
	l.advance()
	p := l.pos()
	l.advance()
	return token.Token{Type: typ, Lexeme: lexeme, Line: p.Line, Column: p.Column}, nil
}

// readOneOrTwo handles ! != = == < <= > >=: a one-char token unless
// followed by '=', in which case the two-char token is emitted instead.
func (l *Lexer) readOneOrTwo(ch byte, oneType token.TokenType, second byte, twoType token.TokenType) (token.Token, error) {
	next, ok := l.peekNext()
	if ok && next == second {
		l.advance()
		p := l.pos()
		l.advance()
		return token.Token{Type: twoType, Lexeme: string(ch) + string(second), Line: p.Line, Column: p.Column}, nil
	}
	p := l.pos()
	l.advance()
	return token.Token{Type: oneType, Lexeme: string(ch), Line: p.Line, Column: p.Column}, nil
}

var singleCharTokens = map[byte]token.TokenType{
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.ASTERISK,
	'/': token.SLASH, // "/*" is consumed as a comment before this table is consulted
	'%': token.PERCENT,
	'(': token.LPAREN,
	')': token.RPAREN,
	'{': token.LBRACE,
	'}': token.RBRACE,
	';': token.SEMICOLON,
	',': token.COMMA,
}

func isSingleCharPunct(ch byte) bool {
	_, ok := singleCharTokens[ch]
	return ok
}

func (l *Lexer) readSingleCharOp() (token.Token, error) {
	typ := singleCharTokens[l.ch]
	lexeme := string(l.ch)
	p := l.pos()
	l.advance()
	return token.Token{Type: typ, Lexeme: lexeme, Line: p.Line, Column: p.Column}, nil
}

func (l *Lexer) readIdentifier() (token.Token, error) {
	var sb strings.Builder
	var lastLine, lastCol int
	for isLowerAlpha(l.ch) || l.ch == '_' || isDigit(l.ch) {
		lastLine, lastCol = l.src.Line(), l.src.Column()
		sb.WriteByte(l.ch)
		l.advance()
	}
	ident := sb.String()
	if ident == "true" || ident == "false" {
		return token.Token{Type: token.BOOL, Lexeme: ident, Literal: ident == "true", Line: lastLine, Column: lastCol}, nil
	}
	return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Line: lastLine, Column: lastCol}, nil
}

func (l *Lexer) readCurrencyType() (token.Token, error) {
	start := l.pos()
	var name [3]byte
	var lastLine, lastCol int
	for i := 0; i < 3; i++ {
		if !isUpperAlpha(l.ch) {
			return token.Token{}, diagnostics.NewLexerError(start, "currency type name must be exactly three uppercase letters", string(name[:i]))
		}
		lastLine, lastCol = l.src.Line(), l.src.Column()
		name[i] = l.ch
		l.advance()
	}
	if isUpperAlpha(l.ch) {
		return token.Token{}, diagnostics.NewLexerError(start, "currency type name must be exactly three uppercase letters", string(name[:]))
	}
	s := string(name[:])
	return token.Token{Type: token.CURRENCY_TYPE, Lexeme: s, Literal: s, Line: lastLine, Column: lastCol}, nil
}

func isDigit(ch byte) bool      { return ch >= '0' && ch <= '9' }
func isLowerAlpha(ch byte) bool { return ch >= 'a' && ch <= 'z' }
func isUpperAlpha(ch byte) bool { return ch >= 'A' && ch <= 'Z' }
func isSpace(ch byte) bool      { return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' }
