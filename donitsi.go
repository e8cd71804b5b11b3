package donitsi

import "fmt"

// --- A general purpose interface for tokens --------------------------------

// TokType is a category type for a Token. We do not define any constants here, as
// it is up to applications to define them.
type TokType int

// TokTypeStringer is a type to be provided by a scanner/parser combination to be able
// to print out token categories.
type TokTypeStringer func(TokType) string

// Tokens represent input tokens. They are produced by a scanner and
// reflect terminals in a language.
//
// An example would be a token for a decimal literal:
//
//    TokType = Decimal     // identifier for this kind of tokens (language specific)
//    Lexeme  = "-3.25"     // lexeme as it appeared in the input
//    Value   = -3.25       // a float64 value, converted by the lexer
//    Span    = 67…72       // byte offsets into the source text
//
// For tokens which carry no value of their own (punctuation, keywords)
// Token.Value() repeats the lexeme.
type Token interface {
	TokType() TokType
	Lexeme() string
	Value() interface{}
	Span() Span
}

// --- Spans ------------------------------------------------------------

// Span is a small type for capturing a run of input bytes. Tokens and error
// messages refer to source text by spans. A span denotes a start position and
// the position just behind the end.
type Span [2]uint64 // (x…y)

// From returns the start value of a span.
func (s Span) From() uint64 {
	return s[0]
}

// To returns the end value of a span.
func (s Span) To() uint64 {
	return s[1]
}

// Len returns the length of (x…y)
func (s Span) Len() uint64 {
	return s[1] - s[0]
}

// IsNull is true for the zero span.
func (s Span) IsNull() bool {
	return s == Span{}
}

// Extend returns the smallest span covering s and other.
func (s Span) Extend(other Span) Span {
	if other[0] < s[0] {
		s[0] = other[0]
	}
	if other[1] > s[1] {
		s[1] = other[1]
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("(%d…%d)", s[0], s[1])
}

// Of returns the text covered by s within source, clipped to the bounds of source.
func (s Span) Of(source string) string {
	from, to := s[0], s[1]
	if to > uint64(len(source)) {
		to = uint64(len(source))
	}
	if from > to {
		return ""
	}
	return source[from:to]
}
