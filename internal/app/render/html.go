package render

import (
	"html"
	"strings"

	"stampy-lens/internal/app/models"
	"stampy-lens/internal/pkg/citation"
	"stampy-lens/pkg/util"
)

const segmentSeparator = "###"

// FormatAnswer 每行一个段落。被引用来源的标记替换为显示新编号的悬浮提示，其余标记保持不变
func FormatAnswer(content string, used []models.DisplayCitation) string {
	byRef := make(map[string]models.DisplayCitation, len(used))
	for _, c := range used {
		byRef[c.Reference] = c
	}

	body := html.EscapeString(citation.Normalize(content))
	body = citation.ReplaceMarkers(body, func(ref string) string {
		c, ok := byRef[ref]
		if !ok {
			return "[" + ref + "]"
		}
		return `<span class="citation-ref" data-citation="` + util.EncodeURIComponent(HoverText(c.Citation)) +
			`">[` + c.DisplayRef + `]</span>`
	})

	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			line = "&nbsp;"
		}
		b.WriteString("<p>")
		b.WriteString(line)
		b.WriteString("</p>")
	}
	return b.String()
}

// HoverText 悬浮提示内容：引用文本按 ### 分隔的第三段，没有时用整段文本
func HoverText(c models.Citation) string {
	parts := strings.Split(c.Text, segmentSeparator)
	if len(parts) > 2 && parts[2] != "" {
		return parts[2]
	}
	return c.Text
}

// FormatSources 来源列表，为空时返回空字符串
func FormatSources(used []models.DisplayCitation) string {
	if len(used) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<h4>Sources</h4>")
	for _, c := range used {
		b.WriteString(`<div class="citation"><p><strong>[`)
		b.WriteString(c.DisplayRef)
		b.WriteString(`]</strong> <a href="`)
		b.WriteString(html.EscapeString(c.URL))
		b.WriteString(`" target="_blank">`)
		b.WriteString(html.EscapeString(c.Title))
		b.WriteString("</a>")
		if len(c.Authors) > 0 {
			b.WriteString(` <span class="citation-authors">by `)
			b.WriteString(html.EscapeString(strings.Join(c.Authors, ", ")))
			b.WriteString("</span>")
		}
		b.WriteString("</p></div>")
	}
	return b.String()
}
