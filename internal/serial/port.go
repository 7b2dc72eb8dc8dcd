// Package serial 串口打开与句柄抽象
//
// 线路参数固定：9600 波特率、8 数据位、无校验、1 停止位、读超时 1 秒。
// 写超时不配置，沿用平台默认值。
package serial

import (
	"context"
	"fmt"
	"io"
	"time"

	tarm "github.com/tarm/serial"
	"go.uber.org/zap"
)

const (
	// BaudRate 固定波特率
	BaudRate = 9600
	// ReadTimeout 读超时（当前不从串口读取）
	ReadTimeout = time.Second
)

// Port 已打开的串口
type Port interface {
	io.Writer
	io.Closer
}

// Opener 按设备名打开串口（如 /dev/ttyUSB0、COM3）
type Opener interface {
	Open(ctx context.Context, name string) (Port, error)
}

// Config 串口参数
type Config struct {
	// 设备名，格式与平台相关
	Name string
	// 波特率
	Baud int
	// 读超时
	ReadTimeout time.Duration
}

// DefaultConfig 返回指定设备的固定线路参数
func DefaultConfig(name string) Config {
	return Config{Name: name, Baud: BaudRate, ReadTimeout: ReadTimeout}
}

// String 状态行中的端口描述
func (c Config) String() string {
	return fmt.Sprintf("%s at %d baud", c.Name, c.Baud)
}

// TarmOpener 基于 tarm/serial 的串口打开器
type TarmOpener struct {
	logger *zap.Logger
}

// NewTarmOpener 创建打开器，logger 为 nil 时不输出日志
func NewTarmOpener(logger *zap.Logger) *TarmOpener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TarmOpener{logger: logger}
}

// Open 以固定线路参数打开串口
func (o *TarmOpener) Open(ctx context.Context, name string) (Port, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig(name)
	// Size/Parity/StopBits 保持零值，由 tarm 使用 8-N-1
	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		o.logger.Debug("打开串口失败", zap.String("port", name), zap.Error(err))
		return nil, err
	}

	o.logger.Debug("串口已打开",
		zap.String("port", name),
		zap.Int("baud_rate", cfg.Baud),
		zap.Duration("read_timeout", cfg.ReadTimeout))
	return p, nil
}
