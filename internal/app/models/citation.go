package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Citation 分析服务返回的引用来源，同一次流内 Reference 唯一
type Citation struct {
	Reference string   `json:"reference"`
	Text      string   `json:"text"` // 以 ### 分段的原始内容
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors,omitempty"`
}

// UnmarshalJSON 兼容数字形式的 reference
func (c *Citation) UnmarshalJSON(data []byte) error {
	type alias Citation
	var raw struct {
		alias
		Reference json.RawMessage `json:"reference"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Citation(raw.alias)
	c.Reference = ""

	ref := bytes.TrimSpace(raw.Reference)
	if len(ref) == 0 || bytes.Equal(ref, []byte("null")) {
		return nil
	}
	if ref[0] == '"' {
		return json.Unmarshal(ref, &c.Reference)
	}
	var n json.Number
	if err := json.Unmarshal(ref, &n); err != nil {
		return fmt.Errorf("citation reference: %w", err)
	}
	c.Reference = n.String()
	return nil
}

// DisplayCitation 按首次出现顺序重新编号后的引用
type DisplayCitation struct {
	Citation
	DisplayRef string `json:"displayRef"`
}
