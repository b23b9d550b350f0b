// Package token segments a byte arena into word, whitespace, and
// punctuation runs, hashing each for fast equality comparison during
// LCS matching.
package token

import xxhash "github.com/cespare/xxhash/v2"

// Class categorizes a token's bytes.
type Class int

const (
	Word Class = iota
	Whitespace
	Punctuation
)

// Token is a maximal run of word or whitespace bytes, or a single
// punctuation byte, within an arena, located by byte offset rather
// than by copy.
type Token struct {
	Start, End int
	Class      Class
	Hash       uint64
}

func isWord(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		b >= 0x80
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Tokenizer segments arenas into tokens, reusing its internal scratch
// slice across calls so steady-state tokenization allocates nothing.
type Tokenizer struct {
	scratch []Token
}

// NewTokenizer returns an empty Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize returns the tokens covering arena exactly, with no gaps or
// overlaps. The returned slice is owned by the Tokenizer and is valid
// only until the next call to Tokenize.
func (t *Tokenizer) Tokenize(arena []byte) []Token {
	t.scratch = t.scratch[:0]
	n := len(arena)
	i := 0
	for i < n {
		switch b := arena[i]; {
		case isWord(b):
			start := i
			for i < n && isWord(arena[i]) {
				i++
			}
			t.scratch = append(t.scratch, t.make(arena, start, i, Word))
		case isWhitespace(b):
			start := i
			for i < n && isWhitespace(arena[i]) {
				i++
			}
			t.scratch = append(t.scratch, t.make(arena, start, i, Whitespace))
		default:
			t.scratch = append(t.scratch, t.make(arena, i, i+1, Punctuation))
			i++
		}
	}
	return t.scratch
}

func (t *Tokenizer) make(arena []byte, start, end int, class Class) Token {
	return Token{
		Start: start,
		End:   end,
		Class: class,
		Hash:  xxhash.Sum64(arena[start:end]),
	}
}
