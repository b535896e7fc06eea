package models

// Options 插件选项
type Options struct {
	APIEndpoint string `json:"apiEndpoint"`
}
