package config

var redisConf Redis

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func GetRedisConf() Redis {
	return redisConf
}
