package scanner

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/donitsi"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// LMAdapter is a lexmachine adapter to use lexmachine as a scanner.
type LMAdapter struct {
	Lexer *lexmachine.Lexer
}

// NewLMAdapter creates a new lexmachine adapter. It receives a list of
// literals ("[", "=>", …), a list of keywords ("for", "return", …) and a
// map for translating token strings to their values.
//
// NewLMAdapter will return an error if compiling the DFA failed.
func NewLMAdapter(init func(*lexmachine.Lexer), literals []string, keywords []string,
	tokenIds map[string]int) (*LMAdapter, error) {
	//
	adapter := &LMAdapter{}
	adapter.Lexer = lexmachine.NewLexer()
	for _, name := range keywords {
		adapter.Lexer.Add([]byte(strings.ToLower(name)), MakeToken(name, tokenIds[name]))
	}
	for _, lit := range literals {
		r := "\\" + strings.Join(strings.Split(lit, ""), "\\")
		adapter.Lexer.Add([]byte(r), MakeToken(lit, tokenIds[lit]))
	}
	init(adapter.Lexer)
	if err := adapter.Lexer.Compile(); err != nil {
		tracer().Errorf("Error compiling DFA: %v", err)
		return nil, err
	}
	return adapter, nil
}

// Scanner creates a scanner for a given input. The scanner will implement the
// Tokenizer interface.
func (lm *LMAdapter) Scanner(input string) (*LMScanner, error) {
	s, err := lm.Lexer.Scanner([]byte(input))
	if err != nil {
		return &LMScanner{}, err
	}
	return &LMScanner{scanner: s, input: input, Error: logError}, nil
}

// LMScanner is a scanner type for lexmachine scanners, implementing the
// Tokenizer interface.
//
// Input which no rule matches is not dropped: it is reported to the error
// handler and returned as a token of category ErrorToken, covering the
// unmatched bytes.
type LMScanner struct {
	scanner *lexmachine.Scanner
	input   string
	Error   func(error)
}

var _ Tokenizer = (*LMScanner)(nil)

// SetErrorHandler sets an error handler for the scanner.
func (lms *LMScanner) SetErrorHandler(h func(error)) {
	if h == nil {
		lms.Error = logError
		return
	}
	lms.Error = h
}

// NextToken is part of the Tokenizer interface.
func (lms *LMScanner) NextToken() donitsi.Token {
	if lms.scanner == nil {
		return MakeDefaultToken(EOF, "", donitsi.Span{})
	}
	tok, err, eof := lms.scanner.Next()
	if err != nil {
		lms.Error(err)
		if ui, is := err.(*machines.UnconsumedInput); is {
			return lms.unconsumed(ui)
		}
		at := uint64(lms.scanner.TC)
		return DefaultToken{kind: ErrorToken, Val: err, span: donitsi.Span{at, at}}
	}
	if eof {
		end := uint64(len(lms.input))
		return MakeDefaultToken(EOF, "", donitsi.Span{end, end})
	}
	token := tok.(*lexmachine.Token)
	from := uint64(token.TC)
	t := DefaultToken{
		kind:   donitsi.TokType(token.Type),
		lexeme: string(token.Lexeme),
		Val:    token.Value,
		span:   donitsi.Span{from, from + uint64(len(token.Lexeme))},
	}
	tracer().Debugf("token %d %q %v", t.kind, t.lexeme, t.span)
	return t
}

// unconsumed wraps unmatched input into an error token and moves the scanner
// behind it. At least one rune is consumed.
func (lms *LMScanner) unconsumed(ui *machines.UnconsumedInput) DefaultToken {
	start, end := ui.StartTC, ui.FailTC
	if end <= start {
		_, size := utf8.DecodeRuneInString(lms.input[start:])
		if size == 0 {
			size = 1
		}
		end = start + size
	}
	for end < len(lms.input) && !utf8.RuneStart(lms.input[end]) {
		end++
	}
	if end > len(lms.input) {
		end = len(lms.input)
	}
	lms.scanner.TC = end
	lexeme := lms.input[start:end]
	return DefaultToken{
		kind:   ErrorToken,
		lexeme: lexeme,
		Val:    fmt.Errorf("unrecognized input %q", lexeme),
		span:   donitsi.Span{uint64(start), uint64(end)},
	}
}

// ---------------------------------------------------------------------------

// Skip is a pre-defined action which ignores the scanned match.
func Skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// MakeToken is a pre-defined action which wraps a scanned match into a token.
func MakeToken(name string, id int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(id, string(m.Bytes), m), nil
	}
}

// MakeValueToken is an action which converts the scanned match to a token value.
// If conversion fails, the match is turned into an error token carrying the
// conversion error as its value.
func MakeValueToken(id int, convert func([]byte) (interface{}, error)) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		v, err := convert(m.Bytes)
		if err != nil {
			return s.Token(int(ErrorToken), err, m), nil
		}
		return s.Token(id, v, m), nil
	}
}
