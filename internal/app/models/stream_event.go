package models

// 流事件状态
const (
	EventStateStreaming = "streaming"
	EventStateCitations = "citations"
	EventStateError     = "error"
)

// StreamEvent 分析服务流中的一条记录
type StreamEvent struct {
	State     string     `json:"state"`
	Content   string     `json:"content,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// AnalysisState 一次分析的渲染状态
type AnalysisState string

const (
	StateIdle              AnalysisState = "idle"
	StateAwaitingFirstByte AnalysisState = "awaiting-first-byte"
	StateStreaming         AnalysisState = "streaming"
	StateDone              AnalysisState = "done"
	StateError             AnalysisState = "error"
)
