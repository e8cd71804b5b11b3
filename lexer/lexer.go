/*
Package lexer contains the lexical rules of the donitsi language.

Tokens are, in priority order: keywords (for, type, struct, return), two-character
punctuation (=> and ::), single-character punctuation ({ } ( ) [ ] : , . =),
double-quoted strings without escape sequences, signed integers, signed decimals,
the arithmetic operators + - * / and identifiers consisting of letters and
underscores. Whitespace is skipped. Input matching none of these is not dropped,
but returned as a token of category Error.

Note that a minus sign directly in front of a digit is part of the number: "1-2"
lexes as the integers 1 and -2.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package lexer

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/npillmayer/donitsi"
	"github.com/npillmayer/donitsi/scanner"
	"github.com/npillmayer/schuko/tracing"
	"github.com/timtadh/lexmachine"
)

// tracer traces with key 'donitsi.lexer'.
func tracer() tracing.Trace {
	return tracing.Select("donitsi.lexer")
}

// Token categories of the language.
const (
	EOF   = scanner.EOF
	Error = scanner.ErrorToken
)

const (
	Ident donitsi.TokType = iota + 1
	String
	Int
	Decimal
	For
	Type
	Struct
	Return
	Arrow       // =>
	DoubleColon // ::
	LBrace
	RBrace
	LParen
	RParen
	LBracket
	RBracket
	Colon
	Comma
	Dot
	Assign
	Plus
	Minus
	Star
	Slash
)

// The tokens representing literal lexemes. Two-character literals come first.
var literals = []string{"=>", "::", "{", "}", "(", ")", "[", "]", ":", ",", ".", "=",
	"+", "-", "*", "/"}

// The keyword tokens
var keywords = []string{"for", "type", "struct", "return"}

var literalTypes = []donitsi.TokType{Arrow, DoubleColon, LBrace, RBrace, LParen, RParen,
	LBracket, RBracket, Colon, Comma, Dot, Assign, Plus, Minus, Star, Slash}

var keywordTypes = []donitsi.TokType{For, Type, Struct, Return}

// tokenIds will be set in initTokens()
var tokenIds map[string]int // A map from the token names to their token types
var tokenNames map[donitsi.TokType]string

var initOnce sync.Once // monitors one-time initialization
func initTokens() {
	initOnce.Do(func() {
		tokenIds = make(map[string]int)
		tokenNames = make(map[donitsi.TokType]string)
		tokenIds["ID"] = int(Ident)
		tokenIds["STRING"] = int(String)
		tokenIds["INT"] = int(Int)
		tokenIds["DECIMAL"] = int(Decimal)
		for i, lit := range literals {
			tokenIds[lit] = int(literalTypes[i])
		}
		for i, kw := range keywords {
			tokenIds[kw] = int(keywordTypes[i])
		}
		for name, id := range tokenIds {
			tokenNames[donitsi.TokType(id)] = name
		}
		tokenNames[EOF] = "EOF"
		tokenNames[Error] = "ERROR"
	})
}

// TokenName returns a printable name for a token category.
// It may be used as a donitsi.TokTypeStringer.
func TokenName(t donitsi.TokType) string {
	initTokens()
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("<token %d>", t)
}

var _ donitsi.TokTypeStringer = TokenName

var lmAdapter *scanner.LMAdapter
var lmErr error
var lmOnce sync.Once

// Lexer returns the lexmachine adapter for the language. The DFA is compiled
// once and shared.
func Lexer() (*scanner.LMAdapter, error) {
	lmOnce.Do(func() {
		initTokens()
		init := func(lexer *lexmachine.Lexer) {
			lexer.Add([]byte(`\"[^"]*\"`), scanner.MakeValueToken(int(String), unquote))
			lexer.Add([]byte(`\-?[0-9]+`), scanner.MakeValueToken(int(Int), parseInt))
			lexer.Add([]byte(`\-?[0-9]*\.[0-9]+`), scanner.MakeValueToken(int(Decimal), parseDecimal))
			lexer.Add([]byte(`([a-z]|[A-Z]|_)+`), scanner.MakeToken("ID", int(Ident)))
			lexer.Add([]byte(`( |\t|\n|\r)+`), scanner.Skip)
		}
		lmAdapter, lmErr = scanner.NewLMAdapter(init, literals, keywords, tokenIds)
	})
	return lmAdapter, lmErr
}

// Tokenize splits source text into tokens. Tokens carry byte spans into
// source. Unrecognized input results in tokens of category Error; it is up
// to the parser to reject them.
//
// The returned error is non-nil only if the lexer itself could not be set up.
func Tokenize(source string) ([]donitsi.Token, error) {
	lm, err := Lexer()
	if err != nil {
		return nil, err
	}
	sc, err := lm.Scanner(source)
	if err != nil {
		return nil, err
	}
	sc.SetErrorHandler(func(e error) {
		tracer().Debugf("lex error: %v", e)
	})
	toks := scanner.Collect(sc)
	tracer().Debugf("source of length %d yields %d tokens", len(source), len(toks))
	return toks, nil
}

func unquote(b []byte) (interface{}, error) {
	return string(b[1 : len(b)-1]), nil
}

func parseInt(b []byte) (interface{}, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("integer literal %s: %w", b, err)
	}
	return n, nil
}

func parseDecimal(b []byte) (interface{}, error) {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil, fmt.Errorf("decimal literal %s: %w", b, err)
	}
	return f, nil
}
