package v1

import (
	"github.com/gin-gonic/gin"

	"stampy-lens/internal/app/controllers"
	"stampy-lens/internal/app/services"
	"stampy-lens/internal/pkg/code"
)

type PopupController struct {
	popups *services.PopupManager
}

func NewPopupController(popups *services.PopupManager) *PopupController {
	return &PopupController{popups: popups}
}

// ClosePopup 弹窗关闭按钮，停止页面上正在进行的分析
func (c *PopupController) ClosePopup(ctx *gin.Context) {
	removed := c.popups.Close(ctx.Param("pageId"))
	controllers.Response(ctx, code.Success, code.MsgSuccess, gin.H{"removed": removed})
}
