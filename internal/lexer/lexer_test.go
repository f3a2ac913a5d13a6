package lexer

import "testing"

func collect(input string) []Token {
	l := New(input, "test.kei")
	var toks []Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == EOF {
			break
		}
	}
	return toks
}

func TestNextTokenBasics(t *testing.T) {
	input := `fn add(a: i32, b: i32) -> i32 { return a + b; }`
	toks := collect(input)

	want := []TokenType{
		FN, IDENT, LPAREN, IDENT, COLON, IDENT, COMMA, IDENT, COLON, IDENT,
		RPAREN, ARROW, IDENT, LBRACE, RETURN, IDENT, PLUS, IDENT, SEMI, RBRACE, EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tt := range want {
		if toks[i].Type != tt {
			t.Errorf("token %d: got %v, want %v (%q)", i, toks[i].Type, tt, toks[i].Literal)
		}
	}
}

func TestNumericLiteralSuffixes(t *testing.T) {
	tests := []struct {
		input string
		want  TokenType
	}{
		{"255u8", INT},
		{"0x1Fu8", INT},
		{"0b1010", INT},
		{"0o17", INT},
		{"1_000_000", INT},
		{"3.14", FLOAT},
		{"3.14f32", FLOAT},
		{"5f64", FLOAT},
	}
	for _, tt := range tests {
		toks := collect(tt.input)
		if toks[0].Type != tt.want {
			t.Errorf("%q: got %v, want %v", tt.input, toks[0].Type, tt.want)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"hello`, "test.kei")
	l.NextToken()
	diags := l.Diagnostics()
	if len(diags) != 1 || diags[0].Code != "LEX001" {
		t.Errorf("expected one LEX001 diagnostic, got %v", diags)
	}
}

func TestStringCrossingNewlineIsDistinctFromUnterminated(t *testing.T) {
	l := New("\"hello\nworld\"", "test.kei")
	l.NextToken()
	diags := l.Diagnostics()
	if len(diags) != 1 || diags[0].Code != "LEX002" {
		t.Errorf("expected one LEX002 diagnostic, got %v", diags)
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\tc\\d\"e\x41"`, "test.kei")
	tok := l.NextToken()
	want := "a\nb\tc\\d\"eA"
	if tok.Literal != want {
		t.Errorf("got %q, want %q", tok.Literal, want)
	}
}

func TestLineCommentSkipped(t *testing.T) {
	toks := collect("let x = 1; // trailing comment\nlet y = 2;")
	var kinds []TokenType
	for _, tok := range toks {
		kinds = append(kinds, tok.Type)
	}
	// should not contain any ILLEGAL tokens from the comment text
	for _, k := range kinds {
		if k == ILLEGAL {
			t.Fatalf("unexpected ILLEGAL token in %v", kinds)
		}
	}
}

func TestBlockCommentUnterminated(t *testing.T) {
	l := New("/* never closes", "test.kei")
	l.NextToken()
	diags := l.Diagnostics()
	if len(diags) != 1 || diags[0].Code != "LEX006" {
		t.Errorf("expected LEX006, got %v", diags)
	}
}

func TestKeywordsAndRanges(t *testing.T) {
	toks := collect("for i in 0..10 {} for j in 0..=9 {}")
	var dotdot, dotdoteq int
	for _, tok := range toks {
		if tok.Type == DOTDOT {
			dotdot++
		}
		if tok.Type == DOTDOTEQ {
			dotdoteq++
		}
	}
	if dotdot != 1 || dotdoteq != 1 {
		t.Errorf("expected one .. and one ..=, got %d and %d", dotdot, dotdoteq)
	}
}
