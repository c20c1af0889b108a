// Package textenc turns text into fixed-length integer vectors, one code per
// character, suitable as input to character-level convolutional models.
//
// Codes are assigned from an Alphabet in declaration order starting at 1. Zero
// is reserved for padding and every character outside the alphabet maps to a
// single unknown code.
package textenc

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultAlphabet is the 67 character set used for the AG News style
// datasets. Note the typographic quotes, caret and tilde: they are distinct
// runes from their ASCII lookalikes.
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789-,;.!?:’\"/|_#$%ˆ&*˜‘+=<>()[]{} "

// DefaultMaxLen is the sequence length used by the self-test.
const DefaultMaxLen = 1014

var (
	ErrEmptyAlphabet = errors.New("alphabet is empty")
	ErrDuplicateRune = errors.New("alphabet contains a duplicate character")
)

// Alphabet maps each recognised rune to a dense 1-based code. It is immutable
// once built and safe for concurrent use.
type Alphabet struct {
	codes   map[rune]int32
	runes   []rune
	unknown int32
}

// NewAlphabet builds an Alphabet from chars. The unknown code is
// len(chars)+1, which is 68 for DefaultAlphabet.
func NewAlphabet(chars string) (*Alphabet, error) {
	runes := []rune(chars)
	if len(runes) == 0 {
		return nil, ErrEmptyAlphabet
	}
	codes := make(map[rune]int32, len(runes))
	for i, r := range runes {
		if _, ok := codes[r]; ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrDuplicateRune, r, i)
		}
		codes[r] = int32(i + 1)
	}
	return &Alphabet{
		codes:   codes,
		runes:   runes,
		unknown: int32(len(runes) + 1),
	}, nil
}

// MustAlphabet is like NewAlphabet but panics on error. Intended for package
// level variables built from constants.
func MustAlphabet(chars string) *Alphabet {
	a, err := NewAlphabet(chars)
	if err != nil {
		panic(err)
	}
	return a
}

// Len returns the number of recognised runes.
func (a *Alphabet) Len() int { return len(a.runes) }

// Unknown returns the code used for runes outside the alphabet.
func (a *Alphabet) Unknown() int32 { return a.unknown }

// Code returns the code for r, or Unknown() if r is not in the alphabet.
func (a *Alphabet) Code(r rune) int32 {
	if c, ok := a.codes[r]; ok {
		return c
	}
	return a.unknown
}

// Rune returns the rune for a code. It reports false for zero (padding), the
// unknown code and anything out of range.
func (a *Alphabet) Rune(code int32) (rune, bool) {
	if code < 1 || int(code) > len(a.runes) {
		return 0, false
	}
	return a.runes[code-1], true
}

// String returns the alphabet characters in declaration order.
func (a *Alphabet) String() string { return string(a.runes) }

// Encoder produces vectors of exactly MaxLen codes.
type Encoder struct {
	alphabet *Alphabet
	maxLen   int
}

// NewEncoder returns an encoder writing maxLen codes per text.
func NewEncoder(a *Alphabet, maxLen int) (*Encoder, error) {
	if a == nil {
		return nil, errors.New("alphabet is nil")
	}
	if maxLen <= 0 {
		return nil, fmt.Errorf("max length must be positive, got %d", maxLen)
	}
	return &Encoder{alphabet: a, maxLen: maxLen}, nil
}

// MaxLen returns the fixed output width.
func (e *Encoder) MaxLen() int { return e.maxLen }

// Alphabet returns the alphabet the encoder was built with.
func (e *Encoder) Alphabet() *Alphabet { return e.alphabet }

// Encode returns a new vector of MaxLen codes for text. Characters past
// MaxLen are dropped, positions past the end of text stay zero.
func (e *Encoder) Encode(text string) []int32 {
	out := make([]int32, e.maxLen)
	e.fill(out, text)
	return out
}

// EncodeInto writes the encoding of text into dst, which must have length
// MaxLen. dst is zeroed first.
func (e *Encoder) EncodeInto(dst []int32, text string) error {
	if len(dst) != e.maxLen {
		return fmt.Errorf("destination has length %d, want %d", len(dst), e.maxLen)
	}
	clear(dst)
	e.fill(dst, text)
	return nil
}

func (e *Encoder) fill(dst []int32, text string) {
	i := 0
	for _, r := range text {
		if i >= e.maxLen {
			return
		}
		dst[i] = e.alphabet.Code(r)
		i++
	}
}

// Decode maps codes back to text. Decoding stops at the first zero; the
// unknown code decodes to U+FFFD.
func (e *Encoder) Decode(codes []int32) string {
	var sb strings.Builder
	sb.Grow(len(codes))
	for _, c := range codes {
		if c == 0 {
			break
		}
		if r, ok := e.alphabet.Rune(c); ok {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('�')
		}
	}
	return sb.String()
}

// Lower lowercases text with Unicode-aware casing rules.
func Lower(text string) string {
	return cases.Lower(language.Und).String(text)
}
