package domain

import (
	"errors"
	"fmt"
)

// Categorías de error del núcleo (sin dependencias externas).
// Cada *Error devuelto por un caso de uso envuelve exactamente una de ellas.
var (
	ErrValidation   = errors.New("entrada inválida")
	ErrForbidden    = errors.New("rol no autorizado para la operación")
	ErrPrecondition = errors.New("precondición no cumplida")
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrConflict     = errors.New("conflicto con una modificación concurrente")
	ErrInternal     = errors.New("error interno")

	// ErrUnauthorized credenciales inválidas (login).
	ErrUnauthorized = errors.New("no autorizado")
)

// Códigos estables para la capa externa (HTTP/CLI).
const (
	CodeValidation          = "VALIDATION"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeIllegalTransition   = "ILLEGAL_TRANSITION"
	CodeDuplicateDay        = "DUPLICATE_DAY"
	CodeDayAlreadyOpen      = "DAY_ALREADY_OPEN"
	CodeDuplicateAssignment = "DUPLICATE_ASSIGNMENT"
	CodeWindowClosed        = "WINDOW_CLOSED"
	CodeUnsettledSales      = "UNSETTLED_SALES"
	CodeOpenShifts          = "OPEN_SHIFTS"
	CodeWrongHolderRole     = "WRONG_HOLDER_ROLE"
	CodeNotAssigned         = "NOT_ASSIGNED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeDuplicate           = "DUPLICATE"
)

// Error es el fallo tipado que cruza la frontera del núcleo.
type Error struct {
	Kind    error
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Code, e.Message, e.Details)
}

// Unwrap permite errors.Is(err, domain.ErrPrecondition) y similares.
func (e *Error) Unwrap() error { return e.Kind }

// With agrega un detalle y devuelve el mismo error.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Validation entrada mal formada o fuera de rango.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Forbidden el actor no tiene rol o alcance para la operación.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: ErrForbidden, Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// NotFound recurso inexistente en el bar del actor; Details lleva resource e id.
func NotFound(resource, id string) *Error {
	return (&Error{Kind: ErrNotFound, Code: CodeNotFound, Message: resource + " no encontrado"}).
		With("resource", resource).With("id", id)
}

// Precondition regla de negocio incumplida; code la identifica (ej. CodeInsufficientBalance).
func Precondition(code, format string, args ...any) *Error {
	return &Error{Kind: ErrPrecondition, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict choque con una escritura concurrente o con un dedup id ya usado.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Duplicate violación de unicidad de negocio (SKU, teléfono...).
func Duplicate(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Code: CodeDuplicate, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized credenciales inválidas o usuario inactivo.
func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: ErrUnauthorized, Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

// InsufficientBalance saldo insuficiente; Details lleva available y requested.
func InsufficientBalance(available, requested int64) *Error {
	return Precondition(CodeInsufficientBalance, "saldo insuficiente").
		With("available", available).
		With("requested", requested)
}

// IllegalTransition transición de estado no permitida por la tabla.
func IllegalTransition(entity string, from, to any) *Error {
	return Precondition(CodeIllegalTransition, "transición de %s no permitida", entity).
		With("from", fmt.Sprint(from)).
		With("to", fmt.Sprint(to))
}

// Internal envuelve un fallo de almacenamiento como ErrInternal.
// Si err ya es *Error se devuelve tal cual; nil se conserva.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Kind: ErrInternal, Code: CodeInternal, Message: err.Error()}
}

// CodeOf devuelve el código de un *Error o CodeInternal.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
