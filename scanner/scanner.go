/*
Package scanner defines an interface for tokenizers to be used with parsers of
package donitsi/parser, together with an adapter for the lexmachine scanner
generator.

Lexmachine has to be initialized by providing literals, keywords and regular
expressions. Package scanner is opinionated on how to do the setup of lexmachine:

	var literals []string       // The tokens representing literal strings
	var keywords []string       // The keyword tokens
	var tokenIds map[string]int // A map from the token names to their int IDs

	init := func(lexer *lexmachine.Lexer) {
		// initialize lexmachine with all the necessary regular expressions
		//
		// scanner.Skip      is a pre-defined action which ignores the scanned match
		// scanner.MakeToken is a pre-defined action which wraps a scanned match into a
		//                   donitsi.Token
	}
	LM, err := scanner.NewLMAdapter(init, literals, keywords, tokenIds)

Keywords and literals are registered before the rules added by init. Lexmachine
prefers the longest match and, for matches of equal length, the rule added first.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package scanner

import (
	"github.com/npillmayer/donitsi"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'donitsi.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("donitsi.scanner")
}

// Token categories every tokenizer has to provide.
const (
	EOF        donitsi.TokType = -1 // end of input
	ErrorToken donitsi.TokType = -2 // input which matched no lexical rule
)

// Tokenizer is a scanner interface.
type Tokenizer interface {
	NextToken() donitsi.Token
	SetErrorHandler(func(error))
}

// Default error reporting function for scanners
func logError(e error) {
	tracer().Errorf("scanner error: " + e.Error())
}

// --- Default tokens --------------------------------------------------------

// DefaultToken is a very unsophisticated token type, used as default for the
// lexmachine scanner.
type DefaultToken struct {
	kind   donitsi.TokType
	lexeme string
	Val    interface{}
	span   donitsi.Span
}

// MakeDefaultToken creates a token without a value.
func MakeDefaultToken(typ donitsi.TokType, lexeme string, span donitsi.Span) DefaultToken {
	return DefaultToken{
		kind:   typ,
		lexeme: lexeme,
		span:   span,
	}
}

func (t DefaultToken) TokType() donitsi.TokType {
	return t.kind
}

func (t DefaultToken) Value() interface{} {
	return t.Val
}

func (t DefaultToken) Lexeme() string {
	return t.lexeme
}

func (t DefaultToken) Span() donitsi.Span {
	return t.span
}

// Collect reads tokens from a tokenizer until EOF. The EOF token is not
// part of the result.
func Collect(tz Tokenizer) []donitsi.Token {
	var toks []donitsi.Token
	for {
		tok := tz.NextToken()
		if tok.TokType() == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}
