// Package citation 把各种引用标记统一为 [n]，并挑出回答实际引用的来源
package citation

import (
	"regexp"
	"strings"
	"unicode"
)

// space 与 JS 正则的 \s 一致：ASCII 空白、\v、Unicode 空格分隔符和 BOM
const space = `[\t\n\v\f\r\p{Z}\x{FEFF}]`

var (
	// [1, 2, 3]
	listPattern = regexp.MustCompile(`\[((?:\d+,` + space + `*)*\d+)\]`)
	// [(1), (2), (3)]
	parenListPattern = regexp.MustCompile(`\[((?:\(\d+\),` + space + `*)*\(\d+\))\]`)
	// [(3)]
	parenPattern = regexp.MustCompile(`\[\((\d+)\)\]`)
	// [ 12 ]
	paddedPattern = regexp.MustCompile(`\[` + space + `*(\d+)` + space + `*\]`)

	// 规范化之后的标记
	markerPattern = regexp.MustCompile(`\[(\d+)\]`)
)

// Normalize 按固定顺序依次执行四次替换，不匹配的文本原样返回
func Normalize(text string) string {
	out := listPattern.ReplaceAllStringFunc(text, splitList)
	out = parenListPattern.ReplaceAllStringFunc(out, splitList)
	out = parenPattern.ReplaceAllString(out, "[$1]")
	return paddedPattern.ReplaceAllString(out, "[$1]")
}

// splitList "[a, b, c]" -> "[a][b][c]"
func splitList(block string) string {
	parts := strings.Split(block, ",")
	for i, p := range parts {
		parts[i] = strings.TrimFunc(p, isSpace)
	}
	return strings.Join(parts, "][")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
