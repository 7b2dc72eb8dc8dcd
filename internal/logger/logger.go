package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/wfunc/uart-send/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.Logger
	mu     sync.RWMutex
)

// Init 初始化全局日志器
func Init(cfg *config.LogConfig, console io.Writer) error {
	l, err := New(cfg, console)
	if err != nil {
		return err
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// New 按配置创建日志器
//
// console 为控制台输出目标（通常是 os.Stderr，标准输出留给状态行）。
func New(cfg *config.LogConfig, console io.Writer) (*zap.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core

	// 控制台输出
	if cfg.Output == "stderr" || cfg.Output == "both" {
		consoleConfig := encoderConfig
		if cfg.Format != "json" {
			consoleConfig.EncodeLevel = zapcore.CapitalLevelEncoder
			if isTerminal(console) {
				consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			}
		}
		cores = append(cores, zapcore.NewCore(
			newEncoder(cfg.Format, consoleConfig),
			zapcore.AddSync(console),
			level,
		))
	}

	// 文件输出（支持日志轮转）
	if cfg.Output == "file" || cfg.Output == "both" {
		if err := os.MkdirAll(cfg.File.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}

		fileEncoder := newEncoder(cfg.Format, encoderConfig)
		cores = append(cores,
			zapcore.NewCore(fileEncoder, zapcore.AddSync(rotatingFile(cfg, cfg.File.Filename)), level),
			// 错误日志单独落盘
			zapcore.NewCore(fileEncoder, zapcore.AddSync(rotatingFile(cfg, "error.log")), zapcore.ErrorLevel),
		)
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		// 仅 DPanic 以上附带堆栈
		zap.AddStacktrace(zapcore.DPanicLevel),
	), nil
}

func newEncoder(format string, ec zapcore.EncoderConfig) zapcore.Encoder {
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	return zapcore.NewConsoleEncoder(ec)
}

func rotatingFile(cfg *config.LogConfig, name string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filepath.Join(cfg.File.Path, name),
		MaxSize:    cfg.File.MaxSize,    // MB
		MaxAge:     cfg.File.MaxAge,     // days
		MaxBackups: cfg.File.MaxBackups, // 保留文件数
		Compress:   cfg.File.Compress,
	}
}

// isTerminal 判断输出是否为终端，决定是否使用彩色级别
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// parseLevel 解析日志级别
func parseLevel(levelStr string) (zapcore.Level, error) {
	if levelStr == "" {
		return zapcore.WarnLevel, nil
	}
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	return level, nil
}

// ConsoleEnabled 判断该级别的日志是否会输出到控制台
func ConsoleEnabled(cfg *config.LogConfig, lvl zapcore.Level) bool {
	if cfg.Output != "stderr" && cfg.Output != "both" {
		return false
	}
	level, err := parseLevel(cfg.Level)
	return err == nil && level.Enabled(lvl)
}

// GetLogger 获取日志器，未初始化时返回空日志器
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// WithModule 创建带有模块名的日志器
func WithModule(module string) *zap.Logger {
	return GetLogger().Named(module)
}

// Sync 同步日志缓冲区
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()

	if logger != nil {
		return logger.Sync()
	}
	return nil
}

// Cleanup 清理日志资源
func Cleanup() {
	// stderr 等非文件输出 Sync 会返回 EINVAL，忽略即可
	_ = Sync()
}
