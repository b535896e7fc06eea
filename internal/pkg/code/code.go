package code

// 接口返回码
const (
	Success       = 200
	ParamErr      = 400
	HTTPStatusErr = 500
)

const (
	MsgSuccess  = "Success"
	MsgParamErr = "参数错误"
)
