package layout

import (
	"path/filepath"
	"strings"
)

// codeExtensions 决定一个文件是否按代码排版（等宽字号与按字符折行）。
var codeExtensions = map[string]bool{
	"py": true, "js": true, "json": true, "ts": true, "tsx": true, "c": true, "cpp": true,
	"h": true, "gitignore": true, "md": true, "css": true, "html": true, "xml": true,
	"java": true, "kt": true, "swift": true, "sh": true, "bat": true, "cmd": true,
	"yaml": true, "yml": true, "lock": true, "toml": true, "rb": true, "go": true,
	"rs": true, "php": true, "sql": true,
}

// HighlightExtensions 是预检时可以单独开关高亮的代码扩展名。
var HighlightExtensions = []string{
	"c", "cpp", "h", "hpp", "java", "kt", "cs", "js", "ts", "jsx", "tsx", "rs", "go",
	"swift", "php", "py", "rb", "gd", "sh", "bash", "bat", "cmd", "ps1", "dockerfile",
	"gitignore", "env", "yaml", "yml", "toml", "ini", "conf", "sql", "html", "css",
	"xml", "json", "makefile",
}

// Extension 返回小写、不带点的扩展名。没有扩展名的文件（如 Dockerfile、.gitignore）返回文件名本身。
func Extension(name string) string {
	base := strings.ToLower(filepath.Base(name))
	ext := filepath.Ext(base)
	if ext == "" {
		return base
	}
	return strings.TrimPrefix(ext, ".")
}

// IsCodeFile 报告文件名是否按代码排版。
func IsCodeFile(name string) bool {
	if name == "" {
		return false
	}
	return codeExtensions[Extension(name)]
}

// IsMarkdownFile 报告文件是否为 Markdown。
func IsMarkdownFile(name string) bool {
	switch Extension(name) {
	case "md", "markdown":
		return true
	}
	return false
}
