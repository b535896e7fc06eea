package models

// PopupUpdateType 推送给插件弹窗的更新类型
type PopupUpdateType string

const (
	PopupLoading PopupUpdateType = "loading"
	PopupAnswer  PopupUpdateType = "answer"
	PopupSources PopupUpdateType = "sources"
	PopupError   PopupUpdateType = "error"
	PopupDone    PopupUpdateType = "done"
	PopupRemoved PopupUpdateType = "removed"
)

// PopupUpdate 弹窗的一次增量更新
type PopupUpdate struct {
	Type      PopupUpdateType   `json:"type"`
	HTML      string            `json:"html,omitempty"`
	Message   string            `json:"message,omitempty"`
	Citations []DisplayCitation `json:"citations,omitempty"`
}

// Terminal 是否为弹窗流的最后一条更新
func (u PopupUpdate) Terminal() bool {
	switch u.Type {
	case PopupDone, PopupError, PopupRemoved:
		return true
	}
	return false
}
