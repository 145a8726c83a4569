package syntax

import (
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/txt2pdf/layout"
)

// Token 是带样式的代码片段。一行的所有 Token 拼接后与原文一致。
type Token struct {
	Text  string
	Scope Scope
	Style layout.RunStyle
}

var (
	reConstant = regexp.MustCompile(`^[A-Z][A-Z0-9_]+$`)
	rePascal   = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
)

// Tokenize 使用默认配色切分一行代码。markdown 为 true 时按 Markdown 结构处理。
func Tokenize(line, fileName string, markdown bool) []Token {
	return DefaultPalette.Tokenize(line, fileName, markdown)
}

// Tokenize 按文件扩展名选择语言族并切分一行代码。
// 未知扩展名整行返回一个默认样式的 Token。
func (p Palette) Tokenize(line, fileName string, markdown bool) []Token {
	if line == "" {
		return nil
	}
	if markdown {
		return p.tokenizeMarkdown(line)
	}
	lang := Detect(fileName)
	g, ok := grammars[lang]
	if !ok {
		return []Token{p.token(line, ScopeDefault)}
	}
	raw, err := lex(g, line)
	if err != nil {
		return []Token{p.token(line, ScopeDefault)}
	}

	out := make([]Token, 0, len(raw))
	for i, t := range raw {
		scope := ScopeDefault
		switch t.kind {
		case tokComment:
			scope = ScopeComment
		case tokString:
			scope = ScopeString
		case tokDecorator:
			scope = ScopeDecorator
		case tokNumber:
			scope = ScopeNumber
		case tokTag:
			scope = ScopeTag
		case tokPunct:
			scope = ScopePunctuation
		case tokWord:
			switch {
			case lang == Markup && nextSignificant(raw, i) == "=":
				scope = ScopeAttribute
			case nextSignificant(raw, i) == "(":
				scope = ScopeFunction
			default:
				var prev *Token
				if len(out) > 0 {
					prev = &out[len(out)-1]
				}
				scope = classifyWord(lang, t.text, prev)
			}
		}
		out = append(out, p.token(t.text, scope))
	}
	return out
}

func (p Palette) token(text string, scope Scope) Token {
	return Token{Text: text, Scope: scope, Style: p.Style(scope)}
}

type rawToken struct {
	kind string
	text string
}

func lex(g *grammar, line string) ([]rawToken, error) {
	l, err := g.def.LexString("", line)
	if err != nil {
		return nil, err
	}
	toks, err := lexer.ConsumeAll(l)
	if err != nil {
		return nil, err
	}
	out := make([]rawToken, 0, len(toks))
	for _, t := range toks {
		if t.EOF() {
			continue
		}
		out = append(out, rawToken{kind: g.names[t.Type], text: t.Value})
	}
	return out, nil
}

// nextSignificant 返回 i 之后第一个非空白记号的文本。
func nextSignificant(raw []rawToken, i int) string {
	for j := i + 1; j < len(raw); j++ {
		if raw[j].kind == tokWhitespace {
			continue
		}
		return raw[j].text
	}
	return ""
}

// classifyWord 依次判断关键字、控制流、内置名、全大写常量、帕斯卡命名类型与属性访问。
func classifyWord(lang Language, text string, prev *Token) Scope {
	key := text
	if lang == SQL {
		key = strings.ToLower(text)
	}
	if keywords[lang][key] {
		return ScopeKeyword
	}
	if controlKeywords[text] {
		return ScopeControl
	}
	if builtins[lang][text] {
		return ScopeBuiltin
	}
	if len(text) > 1 && reConstant.MatchString(text) {
		return ScopeConstant
	}
	if rePascal.MatchString(text) {
		return ScopeType
	}
	if prev != nil && prev.Text == "." {
		return ScopeProperty
	}
	return ScopeDefault
}

// Runs 将 Token 转换为排版片段。
func Runs(tokens []Token) []layout.Run {
	runs := make([]layout.Run, 0, len(tokens))
	for _, t := range tokens {
		style := t.Style
		runs = append(runs, layout.Run{Text: t.Text, Style: &style})
	}
	return runs
}
