package scanner

import (
	"strconv"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/timtadh/lexmachine"
)

var inputStrings = []string{
	"1",
	"1+12",
	"Hello $World",
	`x="mystring" // commented `,
	"if 22 then",
}

var tokenCounts = []int{1, 3, 2, 3, 3}

func TestLM(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.scanner")
	defer teardown()
	//
	LM := testAdapter(t)
	for i, input := range inputStrings {
		t.Logf("------+-----------------+--------")
		sc, err := LM.Scanner(input)
		if err != nil {
			t.Fatal(err)
		}
		sc.SetErrorHandler(func(error) {})
		token := sc.NextToken()
		count := 0
		for token.TokType() != EOF {
			t.Logf(" %4d | %15s | @%5d", token.TokType(), token.Lexeme(), token.Span().From())
			token = sc.NextToken()
			count++
		}
		if count != tokenCounts[i] {
			t.Errorf("Expected token count for #%d to be %d, is %d", i, tokenCounts[i], count)
		}
	}
	t.Logf("------+-----------------+--------")
}

func TestLMSpansAndValues(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.scanner")
	defer teardown()
	//
	LM := testAdapter(t)
	sc, err := LM.Scanner(`ab  42`)
	if err != nil {
		t.Fatal(err)
	}
	toks := Collect(sc)
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, have %d", len(toks))
	}
	if toks[0].Span().From() != 0 || toks[0].Span().To() != 2 {
		t.Errorf("expected span (0…2) for identifier, have %v", toks[0].Span())
	}
	if toks[1].Span().From() != 4 || toks[1].Span().To() != 6 {
		t.Errorf("expected span (4…6) for number, have %v", toks[1].Span())
	}
	if v, ok := toks[1].Value().(int64); !ok || v != 42 {
		t.Errorf("expected value 42 for number, have %v", toks[1].Value())
	}
}

func TestLMKeywordsBeforeIdentifiers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.scanner")
	defer teardown()
	//
	LM := testAdapter(t)
	sc, _ := LM.Scanner("if iffy")
	toks := Collect(sc)
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, have %d", len(toks))
	}
	if int(toks[0].TokType()) != tokenIds["if"] {
		t.Errorf("expected 'if' to be a keyword, is %d", toks[0].TokType())
	}
	if int(toks[1].TokType()) != tokenIds["ID"] {
		t.Errorf("expected 'iffy' to be an identifier, is %d", toks[1].TokType())
	}
}

func TestLMErrorToken(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.scanner")
	defer teardown()
	//
	LM := testAdapter(t)
	sc, _ := LM.Scanner("a § b")
	errcnt := 0
	sc.SetErrorHandler(func(error) { errcnt++ })
	toks := Collect(sc)
	if len(toks) != 3 {
		t.Fatalf("expected 3 tokens, have %d", len(toks))
	}
	if toks[1].TokType() != ErrorToken {
		t.Errorf("expected error token, have %d", toks[1].TokType())
	}
	if toks[1].Lexeme() != "§" {
		t.Errorf("expected error token to cover '§', covers %q", toks[1].Lexeme())
	}
	if errcnt != 1 {
		t.Errorf("expected error handler to be called once, was called %d times", errcnt)
	}
}

// ---------------------------------------------------------------------------

var literals = []string{"+", "="}
var keywords = []string{"if", "then"}
var tokenIds = map[string]int{
	"ID":   1,
	"NUM":  2,
	"STR":  3,
	"VAR":  4,
	"+":    10,
	"=":    11,
	"if":   20,
	"then": 21,
}

func testAdapter(t *testing.T) *LMAdapter {
	init := func(lexer *lexmachine.Lexer) {
		lexer.Add([]byte(`//[^\n]*\n?`), Skip)
		lexer.Add([]byte(`\"[^"]*\"`), MakeToken("STR", tokenIds["STR"]))
		lexer.Add([]byte(`([a-z]|[A-Z])+`), MakeToken("ID", tokenIds["ID"]))
		lexer.Add([]byte(`\$([a-z]|[A-Z])+`), MakeToken("VAR", tokenIds["VAR"]))
		lexer.Add([]byte(`[0-9]+`), MakeValueToken(tokenIds["NUM"], func(b []byte) (interface{}, error) {
			return strconv.ParseInt(string(b), 10, 64)
		}))
		lexer.Add([]byte(`( |\t|\n|\r)+`), Skip)
	}
	LM, err := NewLMAdapter(init, literals, keywords, tokenIds)
	if err != nil {
		t.Fatal(err)
	}
	return LM
}
