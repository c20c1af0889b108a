package textenc

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustEncoder(t *testing.T, chars string, maxLen int) *Encoder {
	t.Helper()
	a, err := NewAlphabet(chars)
	if err != nil {
		t.Fatalf("NewAlphabet(%q) error: %v", chars, err)
	}
	e, err := NewEncoder(a, maxLen)
	if err != nil {
		t.Fatalf("NewEncoder error: %v", err)
	}
	return e
}

func TestDefaultAlphabet_Codes(t *testing.T) {
	a := MustAlphabet(DefaultAlphabet)
	if a.Len() != 67 {
		t.Fatalf("expected 67 runes, got %d", a.Len())
	}
	if a.Unknown() != 68 {
		t.Fatalf("expected unknown code 68, got %d", a.Unknown())
	}
	if got := a.Code('a'); got != 1 {
		t.Errorf("code for 'a' = %d, want 1", got)
	}
	if got := a.Code(' '); got != 67 {
		t.Errorf("code for space = %d, want 67", got)
	}
	if got := a.Code('’'); got != 44 {
		t.Errorf("code for right quote = %d, want 44", got)
	}
	if got := a.Code('A'); got != 68 {
		t.Errorf("uppercase should be unknown, got %d", got)
	}
}

func TestNewAlphabet_Errors(t *testing.T) {
	if _, err := NewAlphabet(""); !errors.Is(err, ErrEmptyAlphabet) {
		t.Errorf("expected ErrEmptyAlphabet, got %v", err)
	}
	if _, err := NewAlphabet("abca"); !errors.Is(err, ErrDuplicateRune) {
		t.Errorf("expected ErrDuplicateRune, got %v", err)
	}
}

func TestEncode_ConcreteScenario(t *testing.T) {
	e := mustEncoder(t, "abc", 5)
	got := e.Encode("ba")
	if diff := cmp.Diff([]int32{2, 1, 0, 0, 0}, got); diff != "" {
		t.Fatalf("Encode(\"ba\") mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_PadsWithZeros(t *testing.T) {
	e := mustEncoder(t, DefaultAlphabet, 16)
	for _, text := range []string{"a", "hello", "abc def 123"} {
		got := e.Encode(text)
		n := len([]rune(text))
		for i := n; i < len(got); i++ {
			if got[i] != 0 {
				t.Fatalf("text %q: position %d = %d, want 0", text, i, got[i])
			}
		}
	}
}

func TestEncode_TruncatesLongInput(t *testing.T) {
	e := mustEncoder(t, DefaultAlphabet, 8)
	got := e.Encode(strings.Repeat("xyz", 10))
	if len(got) != 8 {
		t.Fatalf("expected length 8, got %d", len(got))
	}
	want := []int32{24, 25, 26, 24, 25, 26, 24, 25}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("truncated encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_UnknownRunes(t *testing.T) {
	e := mustEncoder(t, DefaultAlphabet, 6)
	got := e.Encode("aÉ€\tz")
	want := []int32{1, 68, 68, 68, 26, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unknown runes mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_EmptyIsAllZero(t *testing.T) {
	e := mustEncoder(t, DefaultAlphabet, DefaultMaxLen)
	got := e.Encode("")
	if len(got) != DefaultMaxLen {
		t.Fatalf("expected length %d, got %d", DefaultMaxLen, len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("position %d = %d, want 0", i, v)
		}
	}
}

func TestEncodeInto_ClearsDestination(t *testing.T) {
	e := mustEncoder(t, "ab", 4)
	dst := []int32{9, 9, 9, 9}
	if err := e.EncodeInto(dst, "b"); err != nil {
		t.Fatalf("EncodeInto error: %v", err)
	}
	if diff := cmp.Diff([]int32{2, 0, 0, 0}, dst); diff != "" {
		t.Fatalf("EncodeInto mismatch (-want +got):\n%s", diff)
	}
	if err := e.EncodeInto(make([]int32, 3), "a"); err == nil {
		t.Fatalf("expected error for short destination")
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	e := mustEncoder(t, DefaultAlphabet, 32)
	text := "world news: 3 [x] ok"
	if got := e.Decode(e.Encode(text)); got != text {
		t.Fatalf("Decode(Encode(%q)) = %q", text, got)
	}
	if got := e.Decode([]int32{1, 68, 2}); got != "a�b" {
		t.Fatalf("unknown code should decode to replacement char, got %q", got)
	}
}

func TestLower(t *testing.T) {
	if got := Lower("Wall St. BEARS"); got != "wall st. bears" {
		t.Fatalf("Lower returned %q", got)
	}
}
