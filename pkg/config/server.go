package config

var (
	serverConf Server
	logConf    Log
)

type Server struct {
	Port    int    `mapstructure:"port"`
	RunMode string `mapstructure:"runMode"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func GetServerConf() Server {
	return serverConf
}

func GetLogConf() Log {
	return logConf
}

func GetRunMode() string {
	return serverConf.RunMode
}
