package v1

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"stampy-lens/internal/app/controllers"
	"stampy-lens/internal/app/models"
	"stampy-lens/internal/app/services"
	"stampy-lens/internal/pkg/code"
	"stampy-lens/pkg/util"
)

type AnalyzeController struct {
	analyzer *services.Analyzer
	popups   *services.PopupManager
}

func NewAnalyzeController(analyzer *services.Analyzer, popups *services.PopupManager) *AnalyzeController {
	return &AnalyzeController{analyzer: analyzer, popups: popups}
}

// Analyze 划词分析，以 SSE 推送弹窗更新直到完成、出错或弹窗被移除
func (c *AnalyzeController) Analyze(ctx *gin.Context) {
	var msg models.AnalyzeMessage
	if err := ctx.ShouldBindJSON(&msg); err != nil {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, err.Error(), nil)
		return
	}
	if msg.Type != models.AnalyzeMessageType {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, "unsupported message type: "+msg.Type, nil)
		return
	}
	if msg.PageID == "" {
		msg.PageID = models.DefaultPageID
	}
	log.Debugf("analyze message: %s", util.GetJson(msg))

	// 设置响应头支持流式输出
	ctx.Header("Content-Type", "text/event-stream; charset=utf-8")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")

	popup, runCtx := c.popups.Open(ctx.Request.Context(), msg.PageID)
	defer c.popups.Release(popup)
	log.WithFields(log.Fields{"page_id": msg.PageID, "popup_id": popup.ID}).Info("popup opened")

	go func() {
		if c.analyzer.Analyze(runCtx, msg.Text, popup) == models.StateDone {
			_ = popup.Finish()
		}
	}()

	clientGone := ctx.Request.Context().Done()
	for {
		select {
		case update := <-popup.Updates():
			if !controllers.SSEPush(ctx, update) {
				return
			}
			if update.Terminal() {
				util.WriteClose(ctx.Writer)
				return
			}
		case <-popup.Removed():
			// 被新的分析替换或被用户关闭
			controllers.SSEPush(ctx, models.PopupUpdate{Type: models.PopupRemoved})
			util.WriteClose(ctx.Writer)
			return
		case <-clientGone:
			log.WithField("page_id", msg.PageID).Info("client gone, popup dropped")
			return
		}
	}
}
