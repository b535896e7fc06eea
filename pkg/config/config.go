package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Init 加载配置文件，环境变量 STAMPY_* 覆盖文件中的同名配置，文件不存在时使用默认值
func Init(path string) error {
	// .env 可选
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("STAMPY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	// Unmarshal 走 AllSettings，嵌套键的环境变量覆盖才会生效
	var root struct {
		Server Server `mapstructure:"server"`
		Log    Log    `mapstructure:"log"`
		Stampy Stampy `mapstructure:"stampy"`
		Redis  Redis  `mapstructure:"redis"`
	}
	if err := v.Unmarshal(&root); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	serverConf, logConf, stampyConf, redisConf = root.Server, root.Log, root.Stampy, root.Redis
	if stampyConf.ApiEndpoint == "" {
		stampyConf.ApiEndpoint = DefaultAPIEndpoint
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8089)
	v.SetDefault("server.runMode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("stampy.apiEndpoint", DefaultAPIEndpoint)
	v.SetDefault("stampy.requestTimeout", 30*time.Second)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}
