package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// Headers de contexto del dispositivo que acompañan a cada mutación.
const (
	HeaderDeviceID       = "X-Device-ID"
	HeaderShiftID        = "X-Shift-ID"
	HeaderClientTime     = "X-Client-Time"
	HeaderIdempotencyKey = "Idempotency-Key"

	LocalActor = "actor"

	maxIdempotencyKey = 200
)

// ActorMiddleware construye el entity.Actor a partir de los claims del token y los headers
// de dispositivo. Debe usarse DESPUÉS de AuthMiddleware. Los headers se copian: fasthttp
// reutiliza el buffer del request y estos valores terminan en movimientos y eventos.
//   - 401 UNAUTHORIZED si el contexto no trae usuario, bar o rol.
//   - 400 VALIDATION si X-Shift-ID no es UUID, X-Client-Time no es RFC3339 o Idempotency-Key es demasiado larga.
func ActorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := entity.Actor{
			UserID:   GetUserID(c),
			BarID:    GetBarID(c),
			Role:     GetRole(c),
			DeviceID: header(c, HeaderDeviceID),
		}
		if actor.UserID == "" || actor.BarID == "" || actor.Role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token sin usuario, bar o rol"})
		}
		if v := header(c, HeaderShiftID); v != "" {
			if _, err := uuid.Parse(v); err != nil {
				return badHeader(c, HeaderShiftID, "debe ser un UUID")
			}
			actor.ShiftID = &v
		}
		if v := header(c, HeaderClientTime); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return badHeader(c, HeaderClientTime, "debe estar en formato RFC3339")
			}
			t = t.UTC()
			actor.ClientTime = &t
		}
		if v := header(c, HeaderIdempotencyKey); v != "" {
			if len(v) > maxIdempotencyKey {
				return badHeader(c, HeaderIdempotencyKey, "demasiado larga")
			}
			actor.DedupID = v
		}
		c.Locals(LocalActor, actor)
		return c.Next()
	}
}

// GetActor devuelve el actor del contexto (después de ActorMiddleware).
func GetActor(c *fiber.Ctx) entity.Actor {
	a, _ := c.Locals(LocalActor).(entity.Actor)
	return a
}

func header(c *fiber.Ctx, name string) string {
	return utils.CopyString(strings.TrimSpace(c.Get(name)))
}

func badHeader(c *fiber.Ctx, header, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: header + " " + msg,
		Details: map[string]any{"header": header},
	})
}
