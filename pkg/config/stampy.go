package config

import "time"

// DefaultAPIEndpoint 未配置时使用的分析服务地址
const DefaultAPIEndpoint = "http://127.0.0.1:3001/chat"

var stampyConf Stampy

type Stampy struct {
	ApiEndpoint    string        `mapstructure:"apiEndpoint"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

func GetStampyConf() Stampy {
	return stampyConf
}
