package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody decodifica el JSON y valida los tags `validate` del DTO.
// Devuelve false si ya respondió 400.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	return validateStruct(c, out)
}

// parseQuery decodifica query params y los valida.
func parseQuery(c *fiber.Ctx, out any) (bool, error) {
	if err := c.QueryParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	return validateStruct(c, out)
}

func validateStruct(c *fiber.Ctx, out any) (bool, error) {
	err := validate.Struct(out)
	if err == nil {
		return true, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: domain.CodeValidation, Message: err.Error()})
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    domain.CodeValidation,
		Message: "datos inválidos",
		Details: map[string]any{"fields": fields},
	})
}

// pathID lee un parámetro de ruta que debe ser UUID. Devuelve una copia: el id puede quedar
// guardado (turno de una asignación, jornada de un turno).
func pathID(c *fiber.Ctx, name string) (string, bool, error) {
	id := utils.CopyString(c.Params(name))
	if !isUUID(id) {
		return "", false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    domain.CodeValidation,
			Message: name + " debe ser un UUID",
			Details: map[string]any{"param": name},
		})
	}
	return id, true, nil
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func invalidParam(name string) error {
	return domain.Validation("%s debe ser un UUID", name).With("param", name)
}

// statusOf traduce la categoría del error de dominio a código HTTP.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrPrecondition):
		if domain.CodeOf(err) == domain.CodeIllegalTransition {
			return fiber.StatusUnprocessableEntity
		}
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError responde con dto.ErrorResponse. Los errores internos no exponen el detalle.
func writeError(c *fiber.Ctx, err error) error {
	c.Locals(localError, err)
	status := statusOf(err)
	var de *domain.Error
	if status == fiber.StatusInternalServerError || !errors.As(err, &de) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: domain.CodeInternal, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: de.Code, Message: de.Message, Details: de.Details})
}
