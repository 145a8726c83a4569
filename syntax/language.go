package syntax

import (
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/txt2pdf/layout"
)

// Language 是按扩展名归并的语言族。
type Language int

const (
	Plain Language = iota
	CFamily
	Python
	Go
	Rust
	Shell
	SQL
	JSON
	Markup
)

var languageNames = map[Language]string{
	Plain: "plain", CFamily: "c-family", Python: "python", Go: "go", Rust: "rust",
	Shell: "shell", SQL: "sql", JSON: "json", Markup: "markup",
}

func (l Language) String() string { return languageNames[l] }

var extensionFamilies = map[string]Language{
	"js": CFamily, "jsx": CFamily, "mjs": CFamily, "ts": CFamily, "tsx": CFamily,
	"java": CFamily, "c": CFamily, "h": CFamily, "cpp": CFamily, "hpp": CFamily, "cc": CFamily,
	"cs": CFamily, "kt": CFamily, "swift": CFamily, "php": CFamily,
	"py": Python, "rb": Python, "lua": Python, "gd": Python,
	"go":  Go,
	"rs":  Rust,
	"sh":  Shell, "bash": Shell, "zsh": Shell, "ps1": Shell, "yaml": Shell, "yml": Shell,
	"dockerfile": Shell, "makefile": Shell, "toml": Shell, "ini": Shell, "conf": Shell,
	"env": Shell, "gitignore": Shell,
	"sql":  SQL,
	"json": JSON,
	"html": Markup, "htm": Markup, "xml": Markup, "svg": Markup, "vue": Markup,
}

// Detect 根据文件扩展名确定语言族；未知扩展名返回 Plain。
func Detect(fileName string) Language {
	return extensionFamilies[layout.Extension(fileName)]
}

// 词法规则，按优先级排列：注释 > 字符串 > 装饰器 > 数字 > 标签 > 单词 > 空白 > 标点。
// 函数调用与属性等需要上下文的判断在切分之后完成。
const (
	patCommentC      = `//.*|/\*.*?\*/`
	patCommentScript = `#.*`
	patCommentSQL    = `--.*|/\*.*?\*/`
	patCommentMarkup = `<!--.*?-->`
	patNumber        = `\b(?:0[xX][\da-fA-F]+|\d*\.\d+|\d+)\b`
	patDecorator     = `@\w+`
	patTag           = `</?[\w:-]+`
	patWord          = `\w+`
	patWhitespace    = `\s+`
	patPunct         = `[^\w\s]`
)

var patString = `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'|` + "`(?:\\\\.|[^`\\\\])*`"

// 产出的记号类型名称。
const (
	tokComment    = "Comment"
	tokString     = "String"
	tokDecorator  = "Decorator"
	tokNumber     = "Number"
	tokTag        = "Tag"
	tokWord       = "Word"
	tokWhitespace = "Whitespace"
	tokPunct      = "Punct"
)

// grammar 是某个语言族的词法定义及其记号类型反查表。
type grammar struct {
	def   *lexer.StatefulDefinition
	names map[lexer.TokenType]string
}

func buildGrammar(comment string, decorators, tags bool) *grammar {
	rules := []lexer.SimpleRule{}
	if comment != "" {
		rules = append(rules, lexer.SimpleRule{Name: tokComment, Pattern: comment})
	}
	rules = append(rules, lexer.SimpleRule{Name: tokString, Pattern: patString})
	if decorators {
		rules = append(rules, lexer.SimpleRule{Name: tokDecorator, Pattern: patDecorator})
	}
	rules = append(rules, lexer.SimpleRule{Name: tokNumber, Pattern: patNumber})
	if tags {
		rules = append(rules, lexer.SimpleRule{Name: tokTag, Pattern: patTag})
	}
	rules = append(rules,
		lexer.SimpleRule{Name: tokWord, Pattern: patWord},
		lexer.SimpleRule{Name: tokWhitespace, Pattern: patWhitespace},
		lexer.SimpleRule{Name: tokPunct, Pattern: patPunct},
	)
	def := lexer.MustSimple(rules)
	g := &grammar{def: def, names: map[lexer.TokenType]string{}}
	for name, tt := range def.Symbols() {
		g.names[tt] = name
	}
	return g
}

// grammars 是语言族到词法规则表的映射。
var grammars = map[Language]*grammar{
	CFamily: buildGrammar(patCommentC, true, true),
	Python:  buildGrammar(patCommentScript, true, false),
	Go:      buildGrammar(patCommentC, false, false),
	Rust:    buildGrammar(patCommentC, false, false),
	Shell:   buildGrammar(patCommentScript, false, false),
	SQL:     buildGrammar(patCommentSQL, false, false),
	JSON:    buildGrammar(patCommentC, false, false),
	Markup:  buildGrammar(patCommentMarkup, false, true),
}

func setOf(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var controlKeywords = setOf(
	"if", "else", "switch", "case", "default", "break", "continue", "return", "for", "while", "do",
	"try", "catch", "finally", "throw",
)

var keywords = map[Language]map[string]bool{
	CFamily: setOf(
		"function", "var", "let", "const", "class", "enum", "interface", "type", "import", "export", "from", "as",
		"public", "private", "protected", "static", "readonly", "implements", "extends", "package", "namespace",
		"async", "await", "yield", "debugger", "this", "super", "new", "void", "null", "undefined", "true", "false",
		"typeof", "instanceof", "in", "of", "delete",
	),
	Python: setOf(
		"def", "class", "import", "from", "as", "pass", "lambda", "with", "global", "nonlocal", "del",
		"True", "False", "None", "and", "or", "not", "is", "in", "assert", "yield", "async", "await",
	),
	Go: setOf(
		"func", "var", "const", "type", "struct", "interface", "package", "import", "return", "break", "continue",
		"if", "else", "switch", "case", "default", "for", "range", "go", "defer", "select", "chan", "map", "true", "false", "nil",
	),
	Rust: setOf(
		"fn", "let", "const", "static", "mut", "struct", "enum", "trait", "impl", "mod", "use", "crate", "pub",
		"match", "if", "else", "loop", "while", "for", "break", "continue", "return", "unsafe", "async", "await", "move",
		"true", "false", "self", "Self", "box",
	),
	SQL: setOf(
		"select", "from", "where", "insert", "into", "values", "update", "set", "delete", "create", "table",
		"drop", "alter", "index", "join", "left", "right", "inner", "outer", "on", "group", "by", "order",
		"having", "limit", "and", "or", "not", "null", "as", "distinct", "union", "primary", "key",
	),
	JSON: setOf("true", "false", "null"),
}

var builtins = map[Language]map[string]bool{
	CFamily: setOf(
		"console", "window", "document", "global", "process", "module", "require",
		"Math", "JSON", "Date", "Promise", "Map", "Set", "Array", "String", "Number", "Boolean", "Object", "Function",
		"Error", "RegExp",
	),
	Python: setOf(
		"print", "len", "range", "open", "str", "int", "float", "list", "dict", "set", "tuple", "type", "dir", "help",
		"super", "self", "cls",
	),
}
