package syntax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/txt2pdf/layout"
)

func joined(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

func scopeOf(t *testing.T, tokens []Token, text string) Scope {
	t.Helper()
	for _, tok := range tokens {
		if tok.Text == text {
			return tok.Scope
		}
	}
	t.Fatalf("未找到片段 %q: %+v", text, tokens)
	return ""
}

func TestTokenizeReproducesLine(t *testing.T) {
	lines := map[string]string{
		"app.ts":     `const MAX_SIZE = 0x1F; // limit "x"`,
		"main.go":    "func main() { fmt.Println(`raw`, 3.14) }",
		"script.py":  `@cache def load(self, path='a\'b'):  # comment`,
		"lib.rs":     `pub fn new() -> Self { Self { v: vec![1, 2] } }`,
		"q.sql":      `SELECT id FROM users -- trailing`,
		"page.html":  `<div class="x">text</div> <!-- note -->`,
		"build.sh":   `echo "$HOME" # done`,
		"data.json":  `{"a": [1, true, null]}`,
		"notes.txt":  `anything goes here`,
		"unicode.js": `let 名字 = "值"; // 注释`,
	}
	for name, line := range lines {
		tokens := Tokenize(line, name, false)
		assert.Equal(t, line, joined(tokens), name)
	}
}

func TestTokenizePlainIsSingleToken(t *testing.T) {
	tokens := Tokenize("int x = 1; // not highlighted", "notes.txt", false)
	require.Len(t, tokens, 1)
	assert.Equal(t, ScopeDefault, tokens[0].Scope)

	assert.Nil(t, Tokenize("", "main.go", false))
}

func TestTokenizeScopes(t *testing.T) {
	tokens := Tokenize(`if (user.name == MAX_LEN) return render("x", 42)`, "app.js", false)
	assert.Equal(t, ScopeFunction, scopeOf(t, tokens, "if"), "函数调用前瞻优先于关键字")
	assert.Equal(t, ScopeProperty, scopeOf(t, tokens, "name"))
	assert.Equal(t, ScopeConstant, scopeOf(t, tokens, "MAX_LEN"))
	assert.Equal(t, ScopeControl, scopeOf(t, tokens, "return"))
	assert.Equal(t, ScopeFunction, scopeOf(t, tokens, "render"))
	assert.Equal(t, ScopeString, scopeOf(t, tokens, `"x"`))
	assert.Equal(t, ScopeNumber, scopeOf(t, tokens, "42"))
	assert.Equal(t, ScopePunctuation, scopeOf(t, tokens, "("))

	tokens = Tokenize("class UserService extends Base {}", "svc.ts", false)
	assert.Equal(t, ScopeKeyword, scopeOf(t, tokens, "class"))
	assert.Equal(t, ScopeType, scopeOf(t, tokens, "UserService"))
}

func TestTokenizeCommentWinsOverString(t *testing.T) {
	tokens := Tokenize(`// say "hi"`, "a.c", false)
	require.Len(t, tokens, 1)
	assert.Equal(t, ScopeComment, tokens[0].Scope)

	tokens = Tokenize(`x = "# not a comment"`, "a.py", false)
	assert.Equal(t, ScopeString, scopeOf(t, tokens, `"# not a comment"`))
}

func TestTokenizeLanguageKeywords(t *testing.T) {
	assert.Equal(t, ScopeKeyword, scopeOf(t, Tokenize("defer close()", "x.go", false), "defer"))
	assert.Equal(t, ScopeKeyword, scopeOf(t, Tokenize("let mut v = 1;", "x.rs", false), "mut"))
	assert.Equal(t, ScopeKeyword, scopeOf(t, Tokenize("x = None", "x.py", false), "None"))
	assert.Equal(t, ScopeBuiltin, scopeOf(t, Tokenize("self.value", "x.py", false), "self"))
	assert.Equal(t, ScopeKeyword, scopeOf(t, Tokenize("select * from t", "x.sql", false), "select"))
	assert.Equal(t, ScopeDecorator, scopeOf(t, Tokenize("@Component", "x.ts", false), "@Component"))
	assert.Equal(t, ScopeTag, scopeOf(t, Tokenize("<App />", "x.tsx", false), "<App"))
}

func TestTokenizeMarkupAttributes(t *testing.T) {
	tokens := Tokenize(`<a href="/x">`, "index.html", false)
	assert.Equal(t, ScopeTag, scopeOf(t, tokens, "<a"))
	assert.Equal(t, ScopeAttribute, scopeOf(t, tokens, "href"))
	assert.Equal(t, ScopeString, scopeOf(t, tokens, `"/x"`))
}

func TestTokenizeMarkdown(t *testing.T) {
	tokens := Tokenize("## Title here", "README.md", true)
	require.Len(t, tokens, 1)
	assert.Equal(t, ScopeHeading, tokens[0].Scope)
	assert.InDelta(t, 1.4, tokens[0].Style.Scale, 1e-9)

	line := "- item with **bold** and `code`"
	tokens = Tokenize(line, "README.md", true)
	assert.Equal(t, line, joined(tokens))
	assert.Equal(t, ScopeBullet, tokens[0].Scope)
	assert.Equal(t, ScopeBold, scopeOf(t, tokens, "**bold**"))
	assert.Equal(t, ScopeInlineCode, scopeOf(t, tokens, "`code`"))

	tokens = Tokenize("> quoted *text*", "README.md", true)
	assert.Equal(t, "> quoted *text*", joined(tokens))
	for _, tok := range tokens {
		assert.Equal(t, ScopeQuote, tok.Scope)
	}

	assert.Equal(t, "#hashtag", joined(Tokenize("#hashtag", "x.md", true)))
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#0af")
	require.NoError(t, err)
	assert.Equal(t, layout.Color{R: 0, G: 0xAA, B: 0xFF}, c)

	_, err = ParseColor("#12")
	assert.Error(t, err)
}

func TestHighlighterGate(t *testing.T) {
	h := NewHighlighter(nil)
	assert.True(t, h.Enabled("main.go"))
	assert.False(t, h.Enabled("notes.txt"))
	assert.False(t, h.Markdown("README.md"))

	h = NewHighlighter(&layout.PreFlightConfig{HighlightEnabled: true, EnabledExtensions: []string{"py"}})
	assert.True(t, h.Enabled("a.py"))
	assert.False(t, h.Enabled("a.go"))

	h = NewHighlighter(&layout.PreFlightConfig{HighlightEnabled: false, RenderMarkdown: true})
	assert.False(t, h.Enabled("a.go"))
	assert.True(t, h.Enabled("README.md"))

	line := layout.RenderLine{Runs: []layout.Run{{Text: "x := 1"}}, Width: 30}
	styled := NewHighlighter(nil).StyleLine(line, "a.go")
	assert.Equal(t, "x := 1", styled.Text())
	assert.Equal(t, 30.0, styled.Width)
	require.NotEmpty(t, styled.Runs)
	assert.NotNil(t, styled.Runs[0].Style)
}
