package util

import (
	"encoding/json"
	"fmt"
	"net/http"

	"stampy-lens/internal/app/models"
)

// WriteSSE 把 data 序列化为一条 `data: <json>` 事件并立即刷新
func WriteSSE(w http.ResponseWriter, data interface{}) error {
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal sse event: %w", err)
	}

	if _, err = fmt.Fprintf(w, "data: %s\n\n", bytes); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func WritePopupUpdate(w http.ResponseWriter, update models.PopupUpdate) error {
	return WriteSSE(w, update)
}

// WriteClose 通知插件流结束
func WriteClose(w http.ResponseWriter) {
	_, _ = fmt.Fprint(w, "event: close\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
