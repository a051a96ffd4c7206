package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies tool failures for wire mapping and logging.
type ErrorKind string

const (
	KindUnknownTool     ErrorKind = "unknown_tool"
	KindDisabled        ErrorKind = "disabled"
	KindInvalidParams   ErrorKind = "invalid_params"
	KindTransportFailed ErrorKind = "transport_failed"
	KindBinaryNotFound  ErrorKind = "binary_not_found"
	KindInternal        ErrorKind = "internal"
)

// ToolError marks tool failures with a kind so transports can map them to
// protocol errors or isError payloads.
type ToolError struct {
	Kind    ErrorKind
	Message string
	Data    map[string]any
	Err     error
}

func (e *ToolError) Error() string {
	if e == nil {
		return "tool error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != "" {
		return fmt.Sprintf("tool error: %s", e.Kind)
	}
	return "tool error"
}

func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Rejected reports whether the error is produced before a handler runs.
// Rejected errors become JSON-RPC errors; the rest are tool results.
func (e *ToolError) Rejected() bool {
	switch e.Kind {
	case KindUnknownTool, KindDisabled, KindInvalidParams:
		return true
	}
	return false
}

func NewToolError(kind ErrorKind, message string, err error) *ToolError {
	return &ToolError{Kind: kind, Message: message, Err: err}
}

func NewUnknownToolError(name string) *ToolError {
	return &ToolError{
		Kind:    KindUnknownTool,
		Message: fmt.Sprintf("未知的工具: %s", name),
		Data:    map[string]any{"tool": name},
	}
}

func NewDisabledError(name, reason string) *ToolError {
	if reason == "" {
		reason = fmt.Sprintf("工具 %s 已被禁用", name)
	}
	return &ToolError{
		Kind:    KindDisabled,
		Message: reason,
		Data:    map[string]any{"kind": string(KindDisabled), "tool": name},
	}
}

func NewInvalidParamsError(err error) *ToolError {
	return &ToolError{
		Kind:    KindInvalidParams,
		Message: fmt.Sprintf("参数解析失败: %v", err),
		Err:     err,
	}
}

func NewInternalError(message string, err error) *ToolError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &ToolError{Kind: KindInternal, Message: message, Err: err}
}

func AsToolError(err error) (*ToolError, bool) {
	if err == nil {
		return nil, false
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}

// KindOf returns the kind carried by err, or KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	if toolErr, ok := AsToolError(err); ok && toolErr.Kind != "" {
		return toolErr.Kind
	}
	return KindInternal
}
