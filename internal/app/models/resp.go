package models

// RespValue 非流式接口的统一返回结构
type RespValue struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Err  string      `json:"err,omitempty"`
	Data interface{} `json:"data"`
}
