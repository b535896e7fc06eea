package services

import (
	"sync"

	"stampy-lens/internal/app/repositories"
	"stampy-lens/pkg/config"
)

var initOnce sync.Once

var (
	Options  IOptions
	Analysis *Analyzer
	Popups   *PopupManager
)

// Init 初始化服务单例，需在 storage 初始化之后调用
func Init() {
	initOnce.Do(func() {
		conf := config.GetStampyConf()
		Options = NewOptionsService(repositories.NewOptionsRepository(), conf.ApiEndpoint)
		Analysis = NewAnalyzer(Options, NewStampyClient(conf.RequestTimeout))
		Popups = NewPopupManager()
	})
}
