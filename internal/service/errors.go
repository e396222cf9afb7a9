package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidURL       = errors.New("invalid url")
	ErrSelfReferential  = errors.New("url points to this service")
	ErrUnsafeURL        = errors.New("url flagged as unsafe")
	ErrUnknownShortCode = errors.New("unknown short code")
	// ErrGenerationExhausted 连续生成的短码都已被占用，需要扩大短码空间
	ErrGenerationExhausted = errors.New("short code generation exhausted")
	ErrServiceUnavailable  = errors.New("service unavailable")
)

// RejectionError 用户可修正的错误，附带具体原因
type RejectionError struct {
	Kind    error
	Reasons []string
}

func reject(kind error, reasons ...string) *RejectionError {
	return &RejectionError{Kind: kind, Reasons: reasons}
}

func (e *RejectionError) Error() string {
	if len(e.Reasons) == 0 {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}

// Reasons 提取错误中携带的原因
func Reasons(err error) []string {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Reasons
	}
	return nil
}
