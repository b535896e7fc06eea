package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"stampy-lens/internal/app/controllers"
	"stampy-lens/internal/app/models"
	"stampy-lens/internal/app/services"
	"stampy-lens/internal/pkg/code"
)

type OptionsController struct {
	optionsService services.IOptions
}

func NewOptionsController(service services.IOptions) *OptionsController {
	return &OptionsController{optionsService: service}
}

// GetOptions 获取插件选项
func (c *OptionsController) GetOptions(ctx *gin.Context) {
	opts, err := c.optionsService.GetOptions(ctx.Request.Context())
	if err != nil {
		controllers.ResponseWithErr(ctx, code.HTTPStatusErr, "获取选项失败", err.Error(), nil)
		return
	}
	controllers.Response(ctx, code.Success, code.MsgSuccess, opts)
}

// SaveOptions 保存插件选项
func (c *OptionsController) SaveOptions(ctx *gin.Context) {
	var opts models.Options
	if err := ctx.ShouldBindJSON(&opts); err != nil {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, err.Error(), nil)
		return
	}

	saved, err := c.optionsService.SaveOptions(ctx.Request.Context(), opts)
	if errors.Is(err, services.ErrInvalidEndpoint) {
		controllers.ResponseWithErr(ctx, code.ParamErr, code.MsgParamErr, err.Error(), nil)
		return
	}
	if err != nil {
		controllers.ResponseWithErr(ctx, code.HTTPStatusErr, "保存选项失败", err.Error(), nil)
		return
	}
	controllers.Response(ctx, code.Success, "Settings saved", saved)
}
