package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 UART_SEND_LOG_LEVEL
const EnvPrefix = "UART_SEND"

// Config 全局配置结构体
//
// 串口参数（波特率、超时）固定，不在配置范围内。
type Config struct {
	Log LogConfig `mapstructure:"log"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	Output string        `mapstructure:"output"` // stderr | file | both | none
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Load 加载配置
//
// configPath 为空时按默认路径查找 uart-send.{yaml,toml,json}，找不到不算错误。
// 显式指定的文件不存在或无法解析时返回错误。
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("uart-send")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".uart-send"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Log.Output {
	case "stderr", "file", "both", "none":
	default:
		return fmt.Errorf("invalid log.output %q (want stderr, file, both or none)", c.Log.Output)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q (want console or json)", c.Log.Format)
	}

	if (c.Log.Output == "file" || c.Log.Output == "both") && c.Log.File.Filename == "" {
		return fmt.Errorf("log.file.filename is required when log.output is %q", c.Log.Output)
	}

	return nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 默认只在出错时输出日志，标准输出留给传输状态行
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "uart-send.log")
	v.SetDefault("log.file.max_size", 10)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 3)
	v.SetDefault("log.file.compress", false)
}
