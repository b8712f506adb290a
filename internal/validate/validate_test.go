package validate

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestQuantity(t *testing.T) {
	good := map[string]int{"1": 1, " 3 ": 3, "12": 12}
	for in, want := range good {
		got, ok := Quantity(in)
		if !ok || got != want {
			t.Fatalf("Quantity(%q) = %d,%v want %d,true", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "0", "-1", "2.5", "abc", "1e3", "9999999999"} {
		if _, ok := Quantity(in); ok {
			t.Fatalf("Quantity(%q) should be rejected", in)
		}
	}
}

func TestProductID(t *testing.T) {
	if id, ok := ProductID("4"); !ok || id != 4 {
		t.Fatalf("got %d,%v", id, ok)
	}
	for _, in := range []string{"", "0", "x1", "-2"} {
		if _, ok := ProductID(in); ok {
			t.Fatalf("ProductID(%q) should be rejected", in)
		}
	}
}

func TestTokenAndAmount(t *testing.T) {
	if _, ok := Token("8xzWq_Ab-12"); !ok {
		t.Fatal("valid token rejected")
	}
	if _, ok := Token("<script>"); ok {
		t.Fatal("bad token accepted")
	}
	if n, ok := Amount("500000"); !ok || n != 500000 {
		t.Fatalf("got %d,%v", n, ok)
	}
	for _, in := range []string{"", "0", "12.5", "-3"} {
		if _, ok := Amount(in); ok {
			t.Fatalf("Amount(%q) should be rejected", in)
		}
	}
}

func TestReturnPath(t *testing.T) {
	cases := map[string]string{
		"/shop":            "/shop",
		" /cart ":          "/cart",
		"":                 "/cart",
		"//evil.example":   "/cart",
		"https://evil.io/": "/cart",
		"/shop?x=1":        "/cart",
		"/../etc":          "/cart",
	}
	for in, want := range cases {
		if got := ReturnPath(in, "/cart"); got != want {
			t.Fatalf("ReturnPath(%q) = %q want %q", in, got, want)
		}
	}
}

func TestMessageKeepsRunesWhole(t *testing.T) {
	if got := Message("  card declined  "); got != "card declined" {
		t.Fatalf("Message trimmed = %q", got)
	}
	// 199 ASCII bytes then a 3-byte rune straddling the limit
	in := strings.Repeat("a", 199) + "भुक्तानी"
	got := Message(in)
	if !utf8.ValidString(got) {
		t.Fatalf("Message split a rune: %q", got[190:])
	}
	if got != strings.Repeat("a", 199) {
		t.Fatalf("Message = %q", got[190:])
	}
	if got := Message(strings.Repeat("é", 150)); len(got) != 200 || !utf8.ValidString(got) {
		t.Fatalf("two-byte runes: len %d", len(got))
	}
}
