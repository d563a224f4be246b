package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/application/sales"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// SaleHandler maneja el ciclo de vida de las ventas (protegido).
type SaleHandler struct {
	uc *sales.UseCase
}

// NewSaleHandler construye el handler.
func NewSaleHandler(uc *sales.UseCase) *SaleHandler {
	return &SaleHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar venta (bartender → server)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        X-Shift-ID       header  string  true   "turno abierto"
// @Param        Idempotency-Key  header  string  false  "clave de reintento"
// @Param        body  body  dto.CreateSaleRequest  true  "product_id, server_id, quantity, unit_price"
// @Success      201   {object}  dto.SaleResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.CreateSale(c.UserContext(), GetActor(c), sales.CreateSaleInput{
		ProductID: in.ProductID,
		ServerID:  in.ServerID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.FromSale(res.Sale, res.Movement)
	out.Replayed = res.Replayed
	if res.Replayed {
		return c.Status(fiber.StatusOK).JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Collect godoc
// @Summary      Reportar cobro de una venta (server)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "venta"
// @Param        body  body  dto.CollectSaleRequest  true  "amount, payment_method"
// @Success      200   {object}  dto.SaleResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/collect [post]
func (h *SaleHandler) Collect(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var in dto.CollectSaleRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.CollectSale(c.UserContext(), GetActor(c), id, sales.CollectSaleInput{
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
	})
	return saleResult(c, res, err)
}

// Confirm godoc
// @Summary      Confirmar cobro de una venta (bartender)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/confirm [post]
func (h *SaleHandler) Confirm(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	res, err := h.uc.ConfirmSale(c.UserContext(), GetActor(c), id)
	return saleResult(c, res, err)
}

// Dispute godoc
// @Summary      Disputar el cobro reportado
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "venta"
// @Param        body  body  dto.ReasonRequest  true  "reason"
// @Success      200   {object}  dto.SaleResponse
// @Router       /api/sales/{id}/dispute [post]
func (h *SaleHandler) Dispute(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.DisputeSale(c.UserContext(), GetActor(c), id, in.Reason)
	return saleResult(c, res, err)
}

// Reverse godoc
// @Summary      Reversar una venta: la custodia vuelve al bartender
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "venta"
// @Param        body  body  dto.ReasonRequest  true  "reason"
// @Success      200   {object}  dto.SaleResponse
// @Router       /api/sales/{id}/reverse [post]
func (h *SaleHandler) Reverse(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var in dto.ReasonRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.ReverseSale(c.UserContext(), GetActor(c), id, in.Reason)
	return saleResult(c, res, err)
}

// GetByID godoc
// @Summary      Obtener venta por ID
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "venta"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	s, err := h.uc.GetSale(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSale(s, nil))
}

// List godoc
// @Summary      Ventas de un turno
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        shift_id   query  string    true   "turno"
// @Param        server_id  query  string    false  "server"
// @Param        status     query  []string  false  "estados"
// @Success      200  {object}  dto.SaleListResponse
// @Router       /api/sales [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	var q dto.ListSalesQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	q.DefaultPage()
	statuses := make([]entity.SaleStatus, 0, len(q.Statuses))
	for _, s := range q.Statuses {
		statuses = append(statuses, entity.SaleStatus(s))
	}
	list, err := h.uc.ListSales(c.UserContext(), GetActor(c), sales.ListSalesInput{
		ShiftID:  q.ShiftID,
		ServerID: q.ServerID,
		Statuses: statuses,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.SaleResponse, 0, len(list))
	for _, s := range list {
		items = append(items, dto.FromSale(s, nil))
	}
	return c.JSON(dto.SaleListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// Obligations godoc
// @Summary      Resumen de obligaciones de dinero por server en un turno
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "turno"
// @Success      200  {object}  dto.ObligationSummaryResponse
// @Router       /api/shifts/{id}/obligations [get]
func (h *SaleHandler) Obligations(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	sum, err := h.uc.ObligationSummary(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSummary(sum))
}

func saleResult(c *fiber.Ctx, res *sales.SaleResult, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromSale(res.Sale, res.Movement))
}
