package transfer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/wfunc/uart-send/internal/errors"
	"github.com/wfunc/uart-send/internal/serial"
	"go.uber.org/zap"
)

// Result 一次传输的结果
type Result struct {
	TransferID   string
	Port         string
	Size         int
	BytesWritten int
	Digest       string
	Elapsed      time.Duration
}

// Runner 文件发送器
//
// 顺序固定：打开串口 -> 读取文件 -> 输出状态行 -> 逐字节写入 -> 关闭串口 -> 输出完成行。
// 任意一步失败都会关闭已打开的串口。
type Runner struct {
	opener serial.Opener
	stdout io.Writer
	logger *zap.Logger
}

// NewRunner 创建发送器
func NewRunner(opener serial.Opener, stdout io.Writer, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		opener: opener,
		stdout: stdout,
		logger: logger,
	}
}

// Run 将 filePath 的全部字节发送到 portName
func (r *Runner) Run(ctx context.Context, portName, filePath string) (*Result, error) {
	res := &Result{
		TransferID: uuid.NewString(),
		Port:       portName,
	}
	log := r.logger.With(
		zap.String("transfer_id", res.TransferID),
		zap.String("port", portName),
	)

	// 先打开串口再读文件，打开失败时不触碰文件
	port, err := r.opener.Open(ctx, portName)
	if err != nil {
		if ctx.Err() != nil {
			return res, apperrors.Wrapf(ctx.Err(), apperrors.ErrCanceled, "before opening %s", portName)
		}
		return res, apperrors.Wrapf(err, apperrors.ErrSerialPortOpen, "%s", portName)
	}

	closed := false
	defer func() {
		if closed {
			return
		}
		if cerr := port.Close(); cerr != nil {
			log.Warn("关闭串口失败", zap.Error(cerr))
		}
	}()

	payload, err := LoadPayload(filePath)
	if err != nil {
		return res, apperrors.Wrapf(err, apperrors.ErrFileRead, "%s", filePath)
	}
	res.Size = payload.Len()
	res.Digest = payload.Digest()

	cfg := serial.DefaultConfig(portName)
	fmt.Fprintf(r.stdout, "Sending %d bytes to %s...\n", payload.Len(), cfg)

	log.Debug("开始传输",
		zap.String("file", filePath),
		zap.Int("size", res.Size),
		zap.String("digest", res.Digest))

	start := time.Now()
	n, err := writeBytes(ctx, port, payload.data)
	res.BytesWritten = n
	res.Elapsed = time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return res, apperrors.Wrapf(err, apperrors.ErrCanceled, "after %d of %d bytes", n, res.Size)
		}
		return res, apperrors.Wrapf(err, apperrors.ErrSerialPortWrite, "%s at offset %d", portName, n)
	}

	closed = true
	if err := port.Close(); err != nil {
		return res, apperrors.Wrapf(err, apperrors.ErrSerialPortClose, "%s", portName)
	}

	fmt.Fprintln(r.stdout, "Done.")

	log.Info("传输完成",
		zap.Int("bytes", res.BytesWritten),
		zap.Duration("elapsed", res.Elapsed),
		zap.String("digest", res.Digest))
	return res, nil
}

// writeBytes 逐字节写入，每个字节一次 Write 调用
//
// 返回成功写入的字节数；出错时即为出错字节的偏移。
func writeBytes(ctx context.Context, w io.Writer, data []byte) (int, error) {
	for i, b := range data {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		n, err := w.Write([]byte{b})
		if err != nil {
			return i, err
		}
		if n != 1 {
			return i, io.ErrShortWrite
		}
	}
	return len(data), nil
}
