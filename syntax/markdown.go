package syntax

import (
	"regexp"

	"github.com/alecthomas/participle/v2/lexer"
)

var (
	reHeading = regexp.MustCompile(`^(#{1,6})\s+\S`)
	reQuote   = regexp.MustCompile(`^\s*>\s?`)
	reBullet  = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
)

// inline 识别粗体与行内代码，其余文本原样保留。
var inline = func() *grammar {
	def := lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Bold", Pattern: `\*\*[^*]+\*\*`},
		{Name: "Code", Pattern: "`[^`]+`"},
		{Name: "Text", Pattern: "[^*`]+"},
		{Name: "Mark", Pattern: "[*`]"},
	})
	g := &grammar{def: def, names: map[lexer.TokenType]string{}}
	for name, tt := range def.Symbols() {
		g.names[tt] = name
	}
	return g
}()

func (p Palette) tokenizeMarkdown(line string) []Token {
	if m := reHeading.FindStringSubmatch(line); m != nil {
		tok := p.token(line, ScopeHeading)
		tok.Style.Scale = headingScale[len(m[1])-1]
		return []Token{tok}
	}
	if loc := reQuote.FindStringIndex(line); loc != nil {
		out := []Token{p.token(line[:loc[1]], ScopeQuote)}
		for _, t := range p.inlineTokens(line[loc[1]:]) {
			if t.Scope == ScopeDefault {
				t.Scope = ScopeQuote
				t.Style = p.Style(ScopeQuote)
			}
			out = append(out, t)
		}
		return out
	}
	if loc := reBullet.FindStringIndex(line); loc != nil {
		out := []Token{p.token(line[:loc[1]], ScopeBullet)}
		return append(out, p.inlineTokens(line[loc[1]:])...)
	}
	return p.inlineTokens(line)
}

func (p Palette) inlineTokens(s string) []Token {
	if s == "" {
		return nil
	}
	raw, err := lex(inline, s)
	if err != nil {
		return []Token{p.token(s, ScopeDefault)}
	}
	out := make([]Token, 0, len(raw))
	for _, t := range raw {
		scope := ScopeDefault
		switch t.kind {
		case "Bold":
			scope = ScopeBold
		case "Code":
			scope = ScopeInlineCode
		}
		// 相邻的普通文本合并，减少片段数
		if scope == ScopeDefault && len(out) > 0 && out[len(out)-1].Scope == ScopeDefault {
			out[len(out)-1].Text += t.text
			continue
		}
		out = append(out, p.token(t.text, scope))
	}
	return out
}
