// Package errors 提供统一错误辅助，不依赖 internal
package errors

import (
	"errors"
	"fmt"
)

// 常用哨兵错误
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidArg = errors.New("invalid argument")
)

// Public 可直接展示给调用方的错误；其余错误对外统一为通用提示
type Public interface {
	error
	PublicMessage() string
}

type publicError struct {
	msg string
}

func (e *publicError) Error() string         { return e.msg }
func (e *publicError) PublicMessage() string { return e.msg }

// NewPublic 创建一个对外可见的错误，适合作为哨兵
func NewPublic(msg string) error {
	return &publicError{msg: msg}
}

// PublicMessage 沿错误链查找第一个 Public 错误并返回其消息
func PublicMessage(err error) (string, bool) {
	var p Public
	if errors.As(err, &p) {
		return p.PublicMessage(), true
	}
	return "", false
}

// Wrap 包装错误并附加消息
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf 带格式的 Wrap
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is / As 透传标准库，调用方无需同时引入两个 errors 包
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
