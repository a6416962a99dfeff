package util

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误分类，errors.Is 可直接比较
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("service unavailable")
)

// 业务错误
var (
	ErrUserNotFound       = NotFoundError("user not found")
	ErrEmailRegistered    = ConflictError("email already registered")
	ErrInvalidCredentials = &AppError{Kind: ErrUnauthorized, Message: "invalid email or password"}
	ErrAccountPending     = &AppError{Kind: ErrForbidden, Message: "account is pending admin approval"}
	ErrAccountDisabled    = &AppError{Kind: ErrForbidden, Message: "account is disabled"}
	ErrQuizNotFound       = NotFoundError("quiz not found")
	ErrQuizLocked         = ConflictError("quiz already has attempts and can no longer be changed")
	ErrAttemptNotFound    = NotFoundError("quiz attempt not found")
	ErrDuplicateAttempt   = ConflictError("quiz already attempted")
	ErrSyllabusNotFound   = NotFoundError("syllabus not found")
	ErrSyllabusExists     = ConflictError("syllabus already exists for this term and class")
	ErrSessionNotFound    = NotFoundError("chat session not found")
	ErrRoomNotFound       = NotFoundError("chat room not found")
	ErrPostNotFound       = NotFoundError("post not found")
	ErrRequestNotFound    = NotFoundError("change request not found")
	ErrRequestReviewed    = ConflictError("change request already reviewed")
	ErrAIUnavailable      = &AppError{Kind: ErrUnavailable, Message: "ai service is not configured"}
)

// AppError 错误类别 + 面向用户的提示 + 可选的字段错误
type AppError struct {
	Kind    error
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func NotFoundError(message string) *AppError {
	return &AppError{Kind: ErrNotFound, Message: message}
}

func ConflictError(message string) *AppError {
	return &AppError{Kind: ErrConflict, Message: message}
}

func ForbiddenError(message string) *AppError {
	return &AppError{Kind: ErrForbidden, Message: message}
}

func FieldError(field, message string) *AppError {
	return &AppError{
		Kind:    ErrValidation,
		Message: "validation failed",
		Fields:  map[string]string{field: message},
	}
}

// StatusOf 错误映射为 HTTP 状态码，未知错误为 500
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
