package util

import (
	"net/url"
	"strings"
)

// EncodeURIComponent 与浏览器 encodeURIComponent 兼容，空格编码为 %20，结果可直接放入 HTML 属性
func EncodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
