package domain

import (
	"errors"
	"fmt"
)

// Виды ошибок валидации. Сравнивать через errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrMissingScope      = errors.New("missing scope")
	ErrInvalidLayer      = errors.New("invalid layer")
	ErrInvalidActionType = errors.New("invalid action type")
	ErrInvalidPayload    = errors.New("invalid payload")
)

// ValidationError - локальный отказ действия. Состояние не меняется,
// ответ уходит только отправителю.
type ValidationError struct {
	Kind error
	Msg  string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// KindName возвращает короткое имя вида ошибки для клиента и метрик.
func (e *ValidationError) KindName() string {
	switch e.Kind {
	case ErrNotFound:
		return "NotFound"
	case ErrMissingScope:
		return "MissingScope"
	case ErrInvalidLayer:
		return "InvalidLayer"
	case ErrInvalidActionType:
		return "InvalidActionType"
	case ErrInvalidPayload:
		return "InvalidPayload"
	}
	return "Unknown"
}

func NotFound(format string, args ...any) error {
	return &ValidationError{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func MissingScope(format string, args ...any) error {
	return &ValidationError{Kind: ErrMissingScope, Msg: fmt.Sprintf(format, args...)}
}

func InvalidLayer(format string, args ...any) error {
	return &ValidationError{Kind: ErrInvalidLayer, Msg: fmt.Sprintf(format, args...)}
}

func InvalidActionType(format string, args ...any) error {
	return &ValidationError{Kind: ErrInvalidActionType, Msg: fmt.Sprintf(format, args...)}
}

func InvalidPayload(format string, args ...any) error {
	return &ValidationError{Kind: ErrInvalidPayload, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation сообщает, является ли err ошибкой валидации действия.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
