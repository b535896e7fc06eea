package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"stampy-lens/internal/app/models"
	"stampy-lens/internal/app/render"
	"stampy-lens/internal/pkg/metrics"
)

const popupUpdateBuffer = 64

// Popup 页面上的分析弹窗，按顺序把渲染结果推送给插件
type Popup struct {
	ID     string
	PageID string

	updates chan models.PopupUpdate
	removed chan struct{}
	once    sync.Once
	cancel  context.CancelFunc
}

func newPopup(pageID string, cancel context.CancelFunc) *Popup {
	return &Popup{
		ID:      uuid.NewString(),
		PageID:  pageID,
		updates: make(chan models.PopupUpdate, popupUpdateBuffer),
		removed: make(chan struct{}),
		cancel:  cancel,
	}
}

// Updates 渲染更新，弹窗移除后不再有新的更新
func (p *Popup) Updates() <-chan models.PopupUpdate {
	return p.updates
}

// Removed 弹窗移除时关闭
func (p *Popup) Removed() <-chan struct{} {
	return p.removed
}

// Remove 移除弹窗并取消其上的分析，可重复调用
func (p *Popup) Remove() {
	p.once.Do(func() {
		close(p.removed)
		if p.cancel != nil {
			p.cancel()
		}
	})
}

func (p *Popup) ShowLoading() error {
	return p.push(models.PopupUpdate{Type: models.PopupLoading, HTML: `<div class="stampy-loading">Analyzing...</div>`})
}

func (p *Popup) RenderAnswer(html string) error {
	return p.push(models.PopupUpdate{Type: models.PopupAnswer, HTML: html})
}

func (p *Popup) RenderSources(citations []models.DisplayCitation) error {
	return p.push(models.PopupUpdate{
		Type:      models.PopupSources,
		HTML:      render.FormatSources(citations),
		Citations: citations,
	})
}

func (p *Popup) ShowError(text string) error {
	return p.push(models.PopupUpdate{Type: models.PopupError, Message: text})
}

// Finish 分析正常结束
func (p *Popup) Finish() error {
	return p.push(models.PopupUpdate{Type: models.PopupDone})
}

func (p *Popup) push(u models.PopupUpdate) error {
	select {
	case <-p.removed:
		return render.ErrDetached
	default:
	}
	select {
	case p.updates <- u:
		return nil
	case <-p.removed:
		return render.ErrDetached
	}
}

// PopupManager 每个页面最多一个弹窗，新的分析替换旧弹窗
type PopupManager struct {
	mu     sync.Mutex
	popups map[string]*Popup
}

func NewPopupManager() *PopupManager {
	return &PopupManager{popups: make(map[string]*Popup)}
}

// Open 移除页面上已有的弹窗并创建新弹窗，返回的 ctx 在弹窗移除时取消
func (m *PopupManager) Open(ctx context.Context, pageID string) (*Popup, context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	popup := newPopup(pageID, cancel)

	m.mu.Lock()
	old, ok := m.popups[pageID]
	m.popups[pageID] = popup
	m.mu.Unlock()

	if ok {
		old.Remove()
	} else {
		metrics.ActivePopups.Inc()
	}
	return popup, runCtx
}

// Get 获取页面当前的弹窗
func (m *PopupManager) Get(pageID string) (*Popup, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.popups[pageID]
	return p, ok
}

// Close 关闭页面上的弹窗，页面没有弹窗时返回 false
func (m *PopupManager) Close(pageID string) bool {
	m.mu.Lock()
	p, ok := m.popups[pageID]
	if ok {
		delete(m.popups, pageID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	metrics.ActivePopups.Dec()
	p.Remove()
	return true
}

// Release 移除弹窗；弹窗已被替换时不影响新弹窗
func (m *PopupManager) Release(p *Popup) {
	m.mu.Lock()
	current, ok := m.popups[p.PageID]
	if ok && current == p {
		delete(m.popups, p.PageID)
	}
	m.mu.Unlock()

	if ok && current == p {
		metrics.ActivePopups.Dec()
	}
	p.Remove()
}
