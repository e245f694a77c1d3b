package entity

import (
	"github.com/pkg/errors"
)

// ErrorKind класс ошибки, по которому вызывающая сторона выбирает код ответа
type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "invalid_input"     // неверный запрос клиента
	KindUnavailable      ErrorKind = "unavailable"       // конвертер не установлен или не запускается
	KindConversionFailed ErrorKind = "conversion_failed" // конвертер завершился с ошибкой
	KindInternal         ErrorKind = "internal"          // всё остальное
)

// Error ошибка конвейера измерения
type Error struct {
	Kind    ErrorKind
	Message string // сообщение для клиента
	Err     error  // исходная причина
}

// NewError создаёт классифицированную ошибку
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf возвращает класс ошибки; неклассифицированные ошибки считаются внутренними.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError приводит любую ошибку к *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(KindInternal, "internal error", err)
}
