package models

// AnalyzeMessageType 划词分析消息类型
const AnalyzeMessageType = "ANALYZE_TEXT"

// DefaultPageID 未指定页面时弹窗挂载的页面标识
const DefaultPageID = "default"

// AnalyzeMessage 插件发来的划词分析消息
type AnalyzeMessage struct {
	Type   string `json:"type" binding:"required"`
	Text   string `json:"text" binding:"required"` // 选中的文本
	PageID string `json:"page_id,omitempty"`       // 弹窗所在页面
}

// ChatRequest 发往分析服务的请求体
type ChatRequest struct {
	Query     string                 `json:"query"`
	Settings  map[string]interface{} `json:"settings"`
	Stream    bool                   `json:"stream"`
	SessionId string                 `json:"sessionId"`
}

// NewChatRequest 构造流式请求，settings 固定为空对象
func NewChatRequest(query, sessionId string) ChatRequest {
	return ChatRequest{
		Query:     query,
		Settings:  map[string]interface{}{},
		Stream:    true,
		SessionId: sessionId,
	}
}
