package layout

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// SegmentSizeGuard 超过该字符数的段落不做词边界分析，退化为按空白切分。
const SegmentSizeGuard = 50000

// TabWidth 是制表符展开的空格数。
const TabWidth = 4

var whitespaceRun = regexp.MustCompile(`\s+`)

// Segmenter 将段落切分为可换行的片段。
type Segmenter struct {
	// SizeGuard 为 0 时使用 SegmentSizeGuard。
	SizeGuard int
	// DisableWordBreak 强制使用空白切分。
	DisableWordBreak bool
}

// DefaultSegmenter 使用 Unicode 词边界并带有默认的长度保护。
var DefaultSegmenter = Segmenter{}

// Segment 使用 DefaultSegmenter 切分段落。
func Segment(paragraph string) []string { return DefaultSegmenter.Segment(paragraph) }

// Segment 返回的片段按顺序拼接后与原段落完全一致，每个片段是空白串或一个词单元。
func (s Segmenter) Segment(paragraph string) []string {
	if paragraph == "" {
		return nil
	}
	if s.DisableWordBreak || s.tripped(paragraph) {
		return SplitWhitespace(paragraph)
	}
	var (
		tokens []string
		word   string
		state  = -1
	)
	rest := paragraph
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		tokens = append(tokens, word)
	}
	return tokens
}

// tripped 报告段落是否超过长度保护。
func (s Segmenter) tripped(paragraph string) bool {
	guard := s.SizeGuard
	if guard <= 0 {
		guard = SegmentSizeGuard
	}
	// 字节数不超过上限时字符数必然也不超过
	if len(paragraph) < guard {
		return false
	}
	return utf8.RuneCountInString(paragraph) >= guard
}

// SplitWhitespace 按 (\s+) 切分并保留空白片段，过滤空串。
func SplitWhitespace(paragraph string) []string {
	if paragraph == "" {
		return nil
	}
	locs := whitespaceRun.FindAllStringIndex(paragraph, -1)
	tokens := make([]string, 0, len(locs)*2+1)
	last := 0
	for _, loc := range locs {
		if loc[0] > last {
			tokens = append(tokens, paragraph[last:loc[0]])
		}
		tokens = append(tokens, paragraph[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(paragraph) {
		tokens = append(tokens, paragraph[last:])
	}
	return tokens
}

// SegmentRuns 将单个片段拆成扩展字素簇，用于强制按字符换行。
func SegmentRuns(token string) []string {
	if token == "" {
		return nil
	}
	var (
		out     []string
		cluster string
		state   = -1
	)
	rest := token
	for len(rest) > 0 {
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		out = append(out, cluster)
	}
	return out
}

// ExpandTabs 将制表符替换为 4 个空格。
func ExpandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", TabWidth))
}

// IsBlank 报告字符串是否只包含空白。
func IsBlank(s string) bool { return strings.TrimSpace(s) == "" }
