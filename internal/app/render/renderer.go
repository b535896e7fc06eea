// Package render 生成弹窗 HTML，并定义弹窗需要提供的渲染能力
package render

import (
	"errors"

	"stampy-lens/internal/app/models"
)

// ErrDetached 弹窗已移除，分析静默结束
var ErrDetached = errors.New("render target detached")

// Renderer 分析结果的渲染目标
type Renderer interface {
	ShowLoading() error
	RenderAnswer(html string) error
	RenderSources(citations []models.DisplayCitation) error
	ShowError(text string) error
}
