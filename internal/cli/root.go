package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wfunc/uart-send/internal/config"
	apperrors "github.com/wfunc/uart-send/internal/errors"
	"github.com/wfunc/uart-send/internal/logger"
	"github.com/wfunc/uart-send/internal/serial"
	"github.com/wfunc/uart-send/internal/transfer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "uart-send"

var longHelp = strings.TrimSpace(`
Send a binary file over a serial port, byte by byte, at 9600 baud (8-N-1).

The whole file is loaded into memory before the first byte is written. There is no
framing, acknowledgement or retry: the receiver must already know how to interpret
the raw byte stream.

Logging is configured through an optional config file (uart-send.yaml in ., ./config
or $HOME/.uart-send) and UART_SEND_* environment variables, e.g. UART_SEND_LOG_LEVEL=debug.
`)

var exampleUsage = strings.TrimSpace(`
  uart-send /dev/ttyUSB0 firmware.bin
  uart-send COM3 payload.bin
  UART_SEND_LOG_LEVEL=info uart-send --config ./uart-send.yaml /dev/ttyACM0 image.bin
`)

// Options 命令行运行参数
type Options struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Version string
	// Opener 为空时使用 tarm/serial
	Opener serial.Opener
}

// app 单次命令执行的状态
type app struct {
	opts       Options
	configPath string
	// 失败信息已经通过控制台日志输出
	reported bool
}

// Execute 执行命令并返回进程退出码
func Execute(ctx context.Context, args []string, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	// cobra 在 args 为 nil 时会回退到 os.Args
	if args == nil {
		args = []string{}
	}

	a := &app{opts: opts}
	root := a.command()
	root.SetArgs(args)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if !apperrors.Is(err, apperrors.ErrUsage) && !a.reported {
		fmt.Fprintf(opts.Stderr, "Error: %v\n", err)
	}
	return apperrors.ExitCode(err)
}

// command 构建根命令
func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:           appName + " <serial_port> <binary_file>",
		Short:         "Send a binary file over a serial port at 9600 baud",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       a.opts.Version,
		Args:          a.validateArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.run,
	}

	// 第一个位置参数之后不再解析标志，文件名可以以 - 开头
	root.Flags().SetInterspersed(false)
	root.Flags().StringVar(&a.configPath, "config", "", "config file (default: uart-send.yaml in ., ./config or $HOME/.uart-send)")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		a.printUsage(cmd)
		return apperrors.Wrap(err, apperrors.ErrUsage)
	})
	return root
}

// printUsage 向标准输出打印一行用法
func (a *app) printUsage(cmd *cobra.Command) {
	fmt.Fprintf(cmd.OutOrStdout(), "Usage: %s <serial_port> <binary_file>\n", cmd.Name())
}

// validateArgs 参数不足时向标准输出打印用法，不做其他校验
func (a *app) validateArgs(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		a.printUsage(cmd)
		return apperrors.Newf(apperrors.ErrUsage, "expected 2 arguments, got %d", len(args))
	}
	return nil
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrConfigLoad)
	}

	if err := logger.Init(&cfg.Log, a.opts.Stderr); err != nil {
		return apperrors.Wrap(err, apperrors.ErrConfigLoad)
	}
	defer logger.Cleanup()

	opener := a.opts.Opener
	if opener == nil {
		opener = serial.NewTarmOpener(logger.WithModule("serial"))
	}

	portName, filePath := args[0], args[1]
	runner := transfer.NewRunner(opener, a.opts.Stdout, logger.WithModule("transfer"))

	res, err := runner.Run(cmd.Context(), portName, filePath)
	if err != nil {
		a.logFailure(&cfg.Log, res, err)
		return err
	}
	return nil
}

// logFailure 记录失败信息
//
// 设备级错误记为 ERROR 并附带调用栈，文件读取失败和中断记为 WARN。
func (a *app) logFailure(cfg *config.LogConfig, res *transfer.Result, err error) {
	log := logger.WithModule("transfer")
	fields := []zap.Field{
		zap.Int("code", int(apperrors.GetCode(err))),
		zap.Int("exit_code", apperrors.ExitCode(err)),
		zap.Error(err),
	}
	if res != nil {
		fields = append(fields,
			zap.String("transfer_id", res.TransferID),
			zap.String("port", res.Port),
			zap.Int("bytes_written", res.BytesWritten),
			zap.Int("size", res.Size))
	}
	level := zapcore.WarnLevel
	if apperrors.IsCritical(err) {
		level = zapcore.ErrorLevel
	}
	log.Log(level, "传输失败", fields...)

	var appErr *apperrors.AppError
	if level == zapcore.ErrorLevel && errors.As(err, &appErr) {
		log.Debug("调用栈", zap.String("stack", appErr.GetStack()))
	}

	a.reported = logger.ConsoleEnabled(cfg, level)
}
