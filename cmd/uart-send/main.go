package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/wfunc/uart-send/internal/cli"
)

// 版本信息，构建时通过 -ldflags 注入
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 收到中断信号时停止发送并关闭串口
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], cli.Options{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Version: fmt.Sprintf("%s (commit %s, built %s, %s/%s)", Version, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH),
	})

	stop()
	os.Exit(code)
}
