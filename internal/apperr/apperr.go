package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Таксономия ошибок ядра. Все ошибки терминальные: никакая операция
// не повторяется и не продолжается частично, транзакция откатывается целиком.

// ValidationError — нарушение предусловия, исправимое пользователем
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError — запрошенная сущность отсутствует
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Ref)
}

func NotFound(entity string, ref any) *NotFoundError {
	return &NotFoundError{Entity: entity, Ref: fmt.Sprint(ref)}
}

// PermissionError — у действующего пользователя нет нужной роли
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}

func Permission(format string, args ...any) *PermissionError {
	return &PermissionError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError — проигрыш конкурентной гонки, например двойное назначение
// исполнителя. Отдается отдельным кодом, не смешивается с валидацией.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// StatusCode сопоставляет ошибку с HTTP-кодом
func StatusCode(err error) int {
	var (
		ve *ValidationError
		nf *NotFoundError
		pe *PermissionError
		ce *ConflictError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &pe):
		return http.StatusForbidden
	case errors.As(err, &ce):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
