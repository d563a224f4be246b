package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/application/dto"
)

// AuditHandler consulta del registro de auditoría (owner/manager).
type AuditHandler struct {
	uc *audit.QueryUseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(uc *audit.QueryUseCase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

// List godoc
// @Summary      Eventos de auditoría (más reciente primero)
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        entity_type  query  string    false  "movement, sale, day, shift..."
// @Param        entity_id    query  string    false  "entidad"
// @Param        actor_id     query  string    false  "actor"
// @Param        type         query  []string  false  "tipos de evento"
// @Param        from         query  string    false  "desde (RFC3339)"
// @Param        to           query  string    false  "hasta (RFC3339)"
// @Success      200  {object}  dto.EventListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/events [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var q dto.ListEventsQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	q.DefaultPage()
	list, err := h.uc.List(c.UserContext(), GetActor(c), audit.ListInput{
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
		ActorID:    q.ActorID,
		Types:      q.Types,
		From:       dto.ParseTime(q.From),
		To:         dto.ParseTime(q.To),
		Limit:      q.Limit,
		Offset:     q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.EventResponse, 0, len(list))
	for _, e := range list {
		items = append(items, dto.FromEvent(e))
	}
	return c.JSON(dto.EventListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}
