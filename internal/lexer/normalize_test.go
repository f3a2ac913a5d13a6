package lexer

import (
	"bytes"
	"testing"
)

func TestNormalizeStripsBOM(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("let x = 1;")...)
	got := Normalize(src)
	if bytes.HasPrefix(got, bomUTF8) {
		t.Errorf("BOM was not stripped")
	}
	if string(got) != "let x = 1;" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	src := []byte("café module;")
	once := Normalize(src)
	twice := Normalize(once)
	if !bytes.Equal(once, twice) {
		t.Errorf("Normalize is not idempotent: %q vs %q", once, twice)
	}
}
