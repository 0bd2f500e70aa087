package lexer

import (
	"strings"
	"testing"

	"github.com/mcgru/curryinterp/internal/config"
	"github.com/mcgru/curryinterp/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	lex := New(src, config.Default())
	var toks []token.Token
	for {
		tok, err := lex.NextToken()
		if err != nil {
			t.Fatalf("unexpected lexer error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func types(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, len(toks))
	for i, tk := range toks {
		out[i] = tk.Type
	}
	return out
}

func TestNextTokenOperatorsAndPunctuation(t *testing.T) {
	toks := scanAll(t, `:= == != <= >= && || + - * / % ( ) { } ; , = < > !`)
	got := types(toks)
	want := []token.TokenType{
		token.COLON_ASSIGN, token.EQ, token.NOT_EQ, token.LTE, token.GTE,
		token.AND, token.OR, token.PLUS, token.MINUS, token.ASTERISK,
		token.SLASH, token.PERCENT, token.LPAREN, token.RPAREN,
		token.LBRACE, token.RBRACE, token.SEMICOLON, token.COMMA,
		token.ASSIGN, token.LT, token.GT, token.BANG, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNextTokenKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "if else while return int float string bool void currency true false foo_bar")
	got := types(toks)
	want := []token.TokenType{
		token.IF, token.ELSE, token.WHILE, token.RETURN,
		token.INT_TYPE, token.FLOAT_TYPE, token.STRING_TYPE, token.BOOL_TYPE, token.VOID_TYPE,
		token.CURRENCY_WORD, token.BOOL, token.BOOL, token.IDENT, token.EOF,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
	if toks[10].Literal != true || toks[11].Literal != false {
		t.Errorf("bool literal payloads = %v, %v", toks[10].Literal, toks[11].Literal)
	}
}

func TestNextTokenNumbersAndCurrency(t *testing.T) {
	toks := scanAll(t, "42 3.5 10USD")
	if toks[0].Type != token.INT || toks[0].Literal.(int64) != 42 {
		t.Errorf("int literal = %+v", toks[0])
	}
	if toks[1].Type != token.FLOAT || toks[1].Literal.(float64) != 3.5 {
		t.Errorf("float literal = %+v", toks[1])
	}
	if toks[2].Type != token.CURRENCY {
		t.Errorf("currency literal type = %s", toks[2].Type)
	}
}

func TestNextTokenCurrencyType(t *testing.T) {
	toks := scanAll(t, "EUR")
	if toks[0].Type != token.CURRENCY_TYPE || toks[0].Lexeme != "EUR" {
		t.Errorf("currency type token = %+v", toks[0])
	}
}

func TestNextTokenString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	if toks[0].Type != token.STRING || toks[0].Literal.(string) != "hello world" {
		t.Errorf("string literal = %+v", toks[0])
	}
}

func TestNextTokenSkipsBlockComments(t *testing.T) {
	toks := scanAll(t, "1 /* a comment */ 2")
	if len(toks) != 3 || toks[0].Type != token.INT || toks[1].Type != token.INT {
		t.Fatalf("tokens = %+v", toks)
	}
}

func TestPositionIsLastCharacterOfToken(t *testing.T) {
	lex := New("abc", config.Default())
	tok, err := lex.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Line != 1 || tok.Column != 3 {
		t.Errorf("position = %d:%d, want 1:3 (last char of 'abc')", tok.Line, tok.Column)
	}
}

func TestIntegerLiteralDigitBoundary(t *testing.T) {
	ok := strings.Repeat("9", 100)
	toks := scanAll(t, ok)
	if toks[0].Type != token.INT {
		t.Fatalf("100-digit literal rejected: %+v", toks[0])
	}

	tooLong := strings.Repeat("9", 101)
	lex := New(tooLong, config.Default())
	if _, err := lex.NextToken(); err == nil {
		t.Errorf("101-digit literal accepted, want LexerError")
	}
}

func TestStringLiteralLengthBoundary(t *testing.T) {
	ok := `"` + strings.Repeat("a", 1000) + `"`
	toks := scanAll(t, ok)
	if toks[0].Type != token.STRING {
		t.Fatalf("1000-char string rejected: %+v", toks[0])
	}

	tooLong := `"` + strings.Repeat("a", 1001) + `"`
	lex := New(tooLong, config.Default())
	if _, err := lex.NextToken(); err == nil {
		t.Errorf("1001-char string accepted, want LexerError")
	}
}

func TestUnterminatedCommentErrors(t *testing.T) {
	lex := New("/* never closes", config.Default())
	if _, err := lex.NextToken(); err == nil {
		t.Errorf("unterminated comment accepted, want LexerError")
	}
}

func TestLoneAmpersandErrors(t *testing.T) {
	lex := New("&1", config.Default())
	if _, err := lex.NextToken(); err == nil {
		t.Errorf("lone '&' accepted, want LexerError")
	}
}

func TestCurrencyTypeMustBeExactlyThreeLetters(t *testing.T) {
	lex := New("EURO", config.Default())
	if _, err := lex.NextToken(); err == nil {
		t.Errorf("four-letter currency type accepted, want LexerError")
	}
}

func TestUnmatchedCharacterErrors(t *testing.T) {
	lex := New("@", config.Default())
	if _, err := lex.NextToken(); err == nil {
		t.Errorf("'@' accepted, want LexerError")
	}
}
