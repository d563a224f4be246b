package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/application/shift"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// ShiftHandler maneja jornadas, turnos y asignaciones (protegido).
type ShiftHandler struct {
	uc *shift.UseCase
}

// NewShiftHandler construye el handler.
func NewShiftHandler(uc *shift.UseCase) *ShiftHandler {
	return &ShiftHandler{uc: uc}
}

// OpenDay godoc
// @Summary      Abrir jornada
// @Tags         days
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenDayRequest  true  "business_date (YYYY-MM-DD), notes"
// @Success      201   {object}  dto.DayResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/days [post]
func (h *ShiftHandler) OpenDay(c *fiber.Ctx) error {
	var in dto.OpenDayRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	d, err := h.uc.OpenDay(c.UserContext(), GetActor(c), shift.OpenDayInput{BusinessDate: in.BusinessDate, Notes: in.Notes})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDay(d))
}

// CurrentDay godoc
// @Summary      Jornada abierta actual
// @Tags         days
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DayResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/days/current [get]
func (h *ShiftHandler) CurrentDay(c *fiber.Ctx) error {
	d, err := h.uc.CurrentDay(c.UserContext(), GetActor(c))
	return dayResult(c, d, err)
}

// GetDay godoc
// @Summary      Obtener jornada por ID
// @Tags         days
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "jornada"
// @Success      200  {object}  dto.DayResponse
// @Router       /api/days/{id} [get]
func (h *ShiftHandler) GetDay(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	d, err := h.uc.GetDay(c.UserContext(), GetActor(c), id)
	return dayResult(c, d, err)
}

// StartClosingDay godoc
// @Summary      Iniciar cierre de jornada
// @Tags         days
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "jornada"
// @Success      200  {object}  dto.DayResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/days/{id}/start-closing [post]
func (h *ShiftHandler) StartClosingDay(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	d, err := h.uc.StartClosingDay(c.UserContext(), GetActor(c), id)
	return dayResult(c, d, err)
}

// CloseDay godoc
// @Summary      Cerrar jornada (sin turnos abiertos)
// @Tags         days
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "jornada"
// @Success      200  {object}  dto.DayResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/days/{id}/close [post]
func (h *ShiftHandler) CloseDay(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	d, err := h.uc.CloseDay(c.UserContext(), GetActor(c), id)
	return dayResult(c, d, err)
}

// ReconcileDay godoc
// @Summary      Conciliar jornada
// @Tags         days
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "jornada"
// @Success      200  {object}  dto.DayResponse
// @Router       /api/days/{id}/reconcile [post]
func (h *ShiftHandler) ReconcileDay(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	d, err := h.uc.ReconcileDay(c.UserContext(), GetActor(c), id)
	return dayResult(c, d, err)
}

// ReopenDay godoc
// @Summary      Reabrir jornada cerrada
// @Tags         days
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "jornada"
// @Param        body  body  dto.ReasonRequest  true  "reason"
// @Success      200   {object}  dto.DayResponse
// @Router       /api/days/{id}/reopen [post]
func (h *ShiftHandler) ReopenDay(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	d, err := h.uc.ReopenDay(c.UserContext(), GetActor(c), id, in.Reason)
	return dayResult(c, d, err)
}

// ScheduleShift godoc
// @Summary      Programar turno en una jornada abierta
// @Tags         shifts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "jornada"
// @Param        body  body  dto.ScheduleShiftRequest  true  "name, notes"
// @Success      201   {object}  dto.ShiftResponse
// @Router       /api/days/{id}/shifts [post]
func (h *ShiftHandler) ScheduleShift(c *fiber.Ctx) error {
	dayID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var in dto.ScheduleShiftRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	s, err := h.uc.ScheduleShift(c.UserContext(), GetActor(c), shift.ScheduleShiftInput{DayID: dayID, Name: in.Name, Notes: in.Notes})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromShift(s))
}

// ListShifts godoc
// @Summary      Turnos de una jornada
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "jornada"
// @Success      200  {array}  dto.ShiftResponse
// @Router       /api/days/{id}/shifts [get]
func (h *ShiftHandler) ListShifts(c *fiber.Ctx) error {
	dayID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	list, err := h.uc.ListShifts(c.UserContext(), GetActor(c), dayID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ShiftResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromShift(s))
	}
	return c.JSON(out)
}

// GetShift godoc
// @Summary      Obtener turno por ID
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "turno"
// @Success      200  {object}  dto.ShiftResponse
// @Router       /api/shifts/{id} [get]
func (h *ShiftHandler) GetShift(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	s, err := h.uc.GetShift(c.UserContext(), GetActor(c), id)
	return shiftResult(c, s, err)
}

type shiftTransitionFn func(ctx context.Context, actor entity.Actor, shiftID string) (*entity.Shift, error)

// shiftAction ejecuta una transición de turno sin cuerpo (open, start-closing, close, reconcile).
func shiftAction(c *fiber.Ctx, fn shiftTransitionFn) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	s, err := fn(c.UserContext(), GetActor(c), id)
	return shiftResult(c, s, err)
}

// OpenShift godoc
// @Summary      Abrir turno (la jornada debe estar abierta)
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "turno"
// @Success      200  {object}  dto.ShiftResponse
// @Router       /api/shifts/{id}/open [post]
func (h *ShiftHandler) OpenShift(c *fiber.Ctx) error {
	return shiftAction(c, h.uc.OpenShift)
}

// StartClosingShift godoc
// @Summary      Iniciar cierre de turno
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "turno"
// @Success      200  {object}  dto.ShiftResponse
// @Router       /api/shifts/{id}/start-closing [post]
func (h *ShiftHandler) StartClosingShift(c *fiber.Ctx) error {
	return shiftAction(c, h.uc.StartClosingShift)
}

// CloseShift godoc
// @Summary      Cerrar turno (sin ventas pendientes de liquidar)
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "turno"
// @Success      200  {object}  dto.ShiftResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/shifts/{id}/close [post]
func (h *ShiftHandler) CloseShift(c *fiber.Ctx) error {
	return shiftAction(c, h.uc.CloseShift)
}

// ReconcileShift godoc
// @Summary      Conciliar turno
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "turno"
// @Success      200  {object}  dto.ShiftResponse
// @Router       /api/shifts/{id}/reconcile [post]
func (h *ShiftHandler) ReconcileShift(c *fiber.Ctx) error {
	return shiftAction(c, h.uc.ReconcileShift)
}

// ReopenShift godoc
// @Summary      Reabrir turno cerrado
// @Tags         shifts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "turno"
// @Param        body  body  dto.ReasonRequest  true  "reason"
// @Success      200   {object}  dto.ShiftResponse
// @Router       /api/shifts/{id}/reopen [post]
func (h *ShiftHandler) ReopenShift(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	s, err := h.uc.ReopenShift(c.UserContext(), GetActor(c), id, in.Reason)
	return shiftResult(c, s, err)
}

// Assign godoc
// @Summary      Asignar personal a un turno
// @Tags         shifts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "turno"
// @Param        body  body  dto.AssignShiftRequest  true  "user_id, role"
// @Success      201   {object}  dto.AssignmentResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/shifts/{id}/assignments [post]
func (h *ShiftHandler) Assign(c *fiber.Ctx) error {
	shiftID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var in dto.AssignShiftRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	a, err := h.uc.AssignToShift(c.UserContext(), GetActor(c), shift.AssignInput{ShiftID: shiftID, UserID: in.UserID, Role: in.Role})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromAssignment(a))
}

// ListAssignments godoc
// @Summary      Personal asignado a un turno
// @Tags         shifts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "turno"
// @Success      200  {array}  dto.AssignmentResponse
// @Router       /api/shifts/{id}/assignments [get]
func (h *ShiftHandler) ListAssignments(c *fiber.Ctx) error {
	shiftID, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	list, err := h.uc.ListAssignments(c.UserContext(), GetActor(c), shiftID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AssignmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.FromAssignment(a))
	}
	return c.JSON(out)
}

func dayResult(c *fiber.Ctx, d *entity.Day, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromDay(d))
}

func shiftResult(c *fiber.Ctx, s *entity.Shift, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromShift(s))
}
