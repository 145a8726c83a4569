// Package binding 展开输出名称模板中的 ${...} 占位符。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// 输出名称模板的默认值。
const (
	CompleteTemplate = "${base}_complete.zip"
	PartTemplate     = "${base}_part_${part}.zip"
)

// Interpolate 将文本中的 ${path.to.value} 或 ${list[0]} 替换为 data 中的值。
// 路径不存在时保留原占位符。
func Interpolate(text string, data map[string]any) string {
	if len(data) == 0 {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		if path == "" {
			return match
		}
		if val, ok := resolvePath(data, path); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// FileName 展开模板并把结果中的路径分隔符替换为下划线。
// 展开结果为空或仍含未解析的占位符时使用 fallback 模板。
func FileName(tmpl string, data map[string]any, fallback string) string {
	name := strings.TrimSpace(Interpolate(tmpl, data))
	if name == "" || exprPattern.MatchString(name) {
		name = Interpolate(fallback, data)
	}
	return strings.NewReplacer("/", "_", "\\", "_").Replace(name)
}

func resolvePath(data map[string]any, path string) (any, bool) {
	var current any = data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			if current, ok = descendMap(current, name); !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			if current, ok = descendList(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

// parseSegment 拆出 name[1][2] 形式的名称与下标。
func parseSegment(segment string) (string, []string) {
	i := strings.IndexByte(segment, '[')
	if i == -1 {
		return segment, nil
	}
	name, rest := segment[:i], segment[i:]
	var indexes []string
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		indexes = append(indexes, rest[1:end])
		rest = rest[end+1:]
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendList(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
