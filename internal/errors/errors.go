package errors

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode 错误码类型
type ErrorCode int

// 错误码定义（按模块分组）
const (
	// 通用错误 (1000-1999)
	ErrUnknown  ErrorCode = 1000
	ErrUsage    ErrorCode = 1001
	ErrCanceled ErrorCode = 1006

	// 串口错误 (3000-3999)
	ErrSerialPortOpen  ErrorCode = 3000
	ErrSerialPortWrite ErrorCode = 3001
	ErrSerialPortClose ErrorCode = 3002

	// 文件错误 (5000-5999)
	ErrFileRead ErrorCode = 5000

	// 配置错误 (6000-6999)
	ErrConfigLoad ErrorCode = 6000
)

// 错误码消息映射
var errorMessages = map[ErrorCode]string{
	ErrUnknown:         "unknown error",
	ErrUsage:           "invalid usage",
	ErrCanceled:        "transfer canceled",
	ErrSerialPortOpen:  "open serial port",
	ErrSerialPortWrite: "write serial port",
	ErrSerialPortClose: "close serial port",
	ErrFileRead:        "read payload file",
	ErrConfigLoad:      "load config",
}

// 错误码到进程退出码的映射
var exitCodes = map[ErrorCode]int{
	ErrUnknown:         1,
	ErrUsage:           1,
	ErrSerialPortOpen:  2,
	ErrFileRead:        3,
	ErrSerialPortWrite: 4,
	ErrSerialPortClose: 5,
	ErrConfigLoad:      6,
	ErrCanceled:        130,
}

// AppError 应用错误结构
type AppError struct {
	Code    ErrorCode    `json:"code"`            // 错误码
	Message string       `json:"message"`         // 错误消息
	Details string       `json:"details"`         // 详细信息
	Cause   error        `json:"-"`               // 原始错误
	Stack   []StackFrame `json:"stack,omitempty"` // 调用栈
}

// StackFrame 调用栈帧
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// Error 实现error接口
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// Unwrap 返回原始错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// ExitCode 返回对应的进程退出码
func (e *AppError) ExitCode() int {
	if code, ok := exitCodes[e.Code]; ok {
		return code
	}
	return 1
}

// New 创建新的应用错误
func New(code ErrorCode, details ...string) *AppError {
	message, ok := errorMessages[code]
	if !ok {
		message = errorMessages[ErrUnknown]
	}

	err := &AppError{
		Code:    code,
		Message: message,
	}

	if len(details) > 0 {
		err.Details = strings.Join(details, "; ")
	}

	// 捕获调用栈
	err.captureStack(2)

	return err
}

// Newf 创建格式化的应用错误
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, details ...string) *AppError {
	if err == nil {
		return nil
	}

	// 如果已经是AppError，保留原始错误码
	if appErr, ok := err.(*AppError); ok {
		if len(details) > 0 {
			appErr.Details = strings.Join(details, "; ") + "; " + appErr.Details
		}
		return appErr
	}

	appErr := New(code, details...)
	appErr.Cause = err
	if appErr.Details == "" {
		appErr.Details = err.Error()
	} else {
		appErr.Details += ": " + err.Error()
	}

	return appErr
}

// Wrapf 包装格式化错误
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Is 判断错误是否为指定错误码
func Is(err error, code ErrorCode) bool {
	appErr, ok := asAppError(err)
	return ok && appErr.Code == code
}

// GetCode 获取错误码
func GetCode(err error) ErrorCode {
	if err == nil {
		return 0
	}

	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}

	return ErrUnknown
}

// ExitCode 返回错误对应的进程退出码，nil 返回 0
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	if appErr, ok := asAppError(err); ok {
		return appErr.ExitCode()
	}

	return 1
}

// IsCritical 判断是否为设备级严重错误
func IsCritical(err error) bool {
	switch GetCode(err) {
	case ErrSerialPortOpen,
		ErrSerialPortWrite,
		ErrSerialPortClose,
		ErrConfigLoad:
		return true
	default:
		return false
	}
}

// asAppError 沿错误链查找AppError
func asAppError(err error) (*AppError, bool) {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// captureStack 捕获调用栈
func (e *AppError) captureStack(skip int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	if n == 0 {
		return
	}

	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()

		// 跳过runtime和本包的调用
		if strings.HasPrefix(frame.Function, "runtime.") ||
			strings.Contains(frame.Function, "github.com/wfunc/uart-send/internal/errors.") {
			if !more {
				break
			}
			continue
		}

		e.Stack = append(e.Stack, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})

		// 只保留前10个栈帧
		if !more || len(e.Stack) >= 10 {
			break
		}
	}
}

// GetStack 获取格式化的调用栈
func (e *AppError) GetStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, frame := range e.Stack {
		builder.WriteString(fmt.Sprintf("%d. %s\n   %s:%d\n",
			i+1, frame.Function, frame.File, frame.Line))
	}

	return builder.String()
}
