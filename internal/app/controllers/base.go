package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"stampy-lens/internal/app/models"
	"stampy-lens/internal/pkg/code"
	"stampy-lens/pkg/util"
)

func Response(c *gin.Context, code int, message string, data interface{}) {
	if nil == data {
		data = struct {
		}{}
	}
	resp := &models.RespValue{
		Code: code,
		Msg:  message,
		Data: data,
	}
	c.JSON(http.StatusOK, resp)
}

// ResponseWithErr 错误返回，http 状态码与 code 一致
func ResponseWithErr(c *gin.Context, code int, message string, err string, data interface{}) {
	if nil == data {
		data = struct {
		}{}
	}
	resp := &models.RespValue{
		Code: code,
		Msg:  message,
		Err:  err,
		Data: data,
	}
	c.JSON(code, resp)
}

// SSEPush 推送一条弹窗更新，返回 false 表示连接已不可写
func SSEPush(c *gin.Context, update models.PopupUpdate) bool {
	if err := util.WritePopupUpdate(c.Writer, update); err != nil {
		log.Warnf("sse push fail: %s", err.Error())
		return false
	}
	return true
}

func Health(c *gin.Context) {
	Response(c, code.Success, code.MsgSuccess, "")
}
