package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind 模型调用失败的分类
type Kind int

const (
	KindUnclassified Kind = iota
	KindRateLimited
	KindTimeout
	KindBackend
)

var (
	ErrRateLimited  = errors.New("rate limited")
	ErrTimeout      = errors.New("request timeout")
	ErrBackend      = errors.New("backend error")
	ErrUnclassified = errors.New("unclassified error")

	errEmptyResponse = errors.New("empty response from model")
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "RateLimited"
	case KindTimeout:
		return "Timeout"
	case KindBackend:
		return "BackendError"
	default:
		return "Unclassified"
	}
}

// Transient 可重试的失败类型
func (k Kind) Transient() bool {
	return k == KindRateLimited || k == KindTimeout || k == KindBackend
}

func (k Kind) sentinel() error {
	switch k {
	case KindRateLimited:
		return ErrRateLimited
	case KindTimeout:
		return ErrTimeout
	case KindBackend:
		return ErrBackend
	default:
		return ErrUnclassified
	}
}

// Error 携带分类与尝试次数的调用错误，Err 为最后一次尝试的原始错误
type Error struct {
	Kind     Kind
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 支持 errors.Is(err, llm.ErrRateLimited) 这类判断
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// KindOf 返回错误的分类，非 *Error 视为 Unclassified
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}

// classify 按错误信息识别限流、超时与服务端错误
func classify(err error) Kind {
	if err == nil {
		return KindUnclassified
	}
	if errors.Is(err, context.Canceled) {
		return KindUnclassified
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit") {
		return KindRateLimited
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") {
		return KindTimeout
	}

	if errors.Is(err, errEmptyResponse) || strings.Contains(msg, "status code") {
		return KindBackend
	}
	return KindUnclassified
}
