// Package dump 解析把多个文档拼接在一起的“转储容器”文件。
//
// 容器以 `### **相对路径** ###` 作为分隔标记，标记之后直到下一个标记之前的内容属于该路径。
// 第一个标记之前的内容会被丢弃。
package dump

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const (
	markerPrefix = "### **"
	markerSuffix = "** ###"
)

var (
	dumpLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Marker", Pattern: `### \*\*.+?\*\* ###`},
		{Name: "Text", Pattern: `[^#]+|#`},
	})

	markerTokenType = mustTokenType("Marker")

	containerParser = participle.MustBuild[Container](
		participle.Lexer(dumpLexer),
	)
)

// Container 是转储文件的语法树。
type Container struct {
	Preamble []string   `parser:"@Text*"`
	Sections []*Section `parser:"@@*"`
}

// Section 是一个标记及其正文。
type Section struct {
	Marker string   `parser:"@Marker"`
	Body   []string `parser:"@Text*"`
}

// Path 返回标记中声明的路径，去掉首尾空白。
func (s *Section) Path() string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s.Marker, markerPrefix), markerSuffix))
}

// Content 返回去掉首尾空白的正文。
func (s *Section) Content() string {
	return strings.TrimSpace(strings.Join(s.Body, ""))
}

// Part 是展开后的一个逻辑文档。
type Part struct {
	Path    string
	Content string
}

// Format 是可替换的容器格式。
type Format interface {
	// Parse 展开容器；ok 为 false 表示文本不是该格式的容器。
	Parse(text string) (parts []Part, ok bool)
	// Count 返回容器内逻辑文档的数量，非容器返回 0。
	Count(text string) int
}

// Markers 是基于 `### **path** ###` 标记的默认格式。
var Markers Format = markerFormat{}

type markerFormat struct{}

func (markerFormat) Parse(text string) ([]Part, bool) { return Parse(text) }
func (markerFormat) Count(text string) int             { return Count(text) }

// ParseContainer 返回完整的语法树。
func ParseContainer(text string) (*Container, error) {
	return containerParser.ParseString("", text)
}

// Parse 将容器展开为逻辑文档。没有任何标记时返回 ok=false。
func Parse(text string) ([]Part, bool) {
	if !strings.Contains(text, markerPrefix) {
		return nil, false
	}
	c, err := ParseContainer(text)
	if err != nil || len(c.Sections) == 0 {
		return nil, false
	}
	parts := make([]Part, 0, len(c.Sections))
	for _, s := range c.Sections {
		parts = append(parts, Part{Path: s.Path(), Content: s.Content()})
	}
	return parts, true
}

// Count 只做词法扫描，统计标记个数。
func Count(text string) int {
	if !strings.Contains(text, markerPrefix) {
		return 0
	}
	lex, err := dumpLexer.LexString("", text)
	if err != nil {
		return 0
	}
	n := 0
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			return n
		}
		if tok.Type == markerTokenType {
			n++
		}
	}
}

func mustTokenType(name string) lexer.TokenType {
	tt, ok := dumpLexer.Symbols()[name]
	if !ok {
		panic("dump: 未知的记号类型 " + name)
	}
	return tt
}
