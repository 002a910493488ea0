package code

import (
	"fmt"
	"strings"
)

// Code is a structured failure returned by the link index services.
// Code 是链接索引服务返回的结构化错误
type Code struct {
	// 错误码
	code int
	// 错误消息
	Lang lang
	// 错误详细信息
	details []string
	// 出错的对象 (集合名、URI、笔记路径等)
	subject string
}

var codes = map[int]string{}

// NewError registers a failure code. Duplicate codes panic at init time.
// NewError 注册错误码，重复注册会在初始化阶段 panic
func NewError(code int, l lang) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()
	return &Code{code: code, Lang: l}
}

// Clone 创建一个新的 Code 副本，不携带 details 与 subject
func (e *Code) Clone() *Code {
	return &Code{code: e.code, Lang: e.Lang}
}

func (e *Code) Error() string {
	msg := e.Msg()
	if e.subject != "" {
		msg += " [" + e.subject + "]"
	}
	if len(e.details) > 0 {
		msg += ": " + strings.Join(e.details, "; ")
	}
	return msg
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

// Is lets errors.Is match a detailed copy against the registered code.
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	return ok && t.code == e.code
}

// WithDetails returns a copy carrying details; the registered value is never mutated.
// WithDetails 返回带有详情的副本，不会修改全局注册的错误码
func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.subject = e.subject
	c.details = append(append([]string{}, e.details...), details...)
	return c
}

// WithSubject returns a copy naming the object the failure concerns.
func (e *Code) WithSubject(subject string) *Code {
	c := e.Clone()
	c.details = e.details
	c.subject = subject
	return c
}
