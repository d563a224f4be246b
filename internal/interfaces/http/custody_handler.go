package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/custodia-api/internal/application/custody"
	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// CustodyHandler maneja movimientos de custodia y consultas de saldo (protegido).
type CustodyHandler struct {
	uc *custody.UseCase
}

// NewCustodyHandler construye el handler.
func NewCustodyHandler(uc *custody.UseCase) *CustodyHandler {
	return &CustodyHandler{uc: uc}
}

// RecordDelivery godoc
// @Summary      Registrar entrada de stock al bar
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DeliveryRequest  true  "product_id, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/deliveries [post]
func (h *CustodyHandler) RecordDelivery(c *fiber.Ctx) error {
	var in dto.DeliveryRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.RecordDelivery(c.UserContext(), GetActor(c), custody.DeliveryInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
	})
	return movementResult(c, res, err)
}

// Allocate godoc
// @Summary      Asignar stock del bar a un bartender
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocateRequest  true  "product_id, bartender_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/allocations [post]
func (h *CustodyHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocateRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.Allocate(c.UserContext(), GetActor(c), custody.AllocateInput{
		ProductID:   in.ProductID,
		BartenderID: in.BartenderID,
		Quantity:    in.Quantity,
	})
	return movementResult(c, res, err)
}

// Assign godoc
// @Summary      Entregar stock del bartender a un server
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        X-Shift-ID  header  string  true  "turno abierto"
// @Param        body  body  dto.AssignRequest  true  "product_id, server_id, quantity"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/assignments [post]
func (h *CustodyHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.Assign(c.UserContext(), GetActor(c), custody.AssignInput{
		ProductID: in.ProductID,
		ServerID:  in.ServerID,
		Quantity:  in.Quantity,
	})
	return movementResult(c, res, err)
}

// Return godoc
// @Summary      Devolver custodia a un bartender o al stock del bar
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnRequest  true  "product_id, from_holder_id, to_holder_id, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/returns [post]
func (h *CustodyHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.ReturnStock(c.UserContext(), GetActor(c), custody.ReturnInput{
		ProductID:    in.ProductID,
		FromHolderID: in.FromHolderID,
		ToHolderID:   in.ToHolderID,
		Quantity:     in.Quantity,
		Reason:       in.Reason,
	})
	return movementResult(c, res, err)
}

// Adjust godoc
// @Summary      Ajuste, daño o pérdida sobre el stock del bar
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "type, product_id, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements/adjustments [post]
func (h *CustodyHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.Adjust(c.UserContext(), GetActor(c), custody.AdjustInput{
		Type:      entity.MovementType(in.Type),
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Reason:    in.Reason,
	})
	return movementResult(c, res, err)
}

// ListMovements godoc
// @Summary      Historial de movimientos (más reciente primero)
// @Tags         custody
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "producto"
// @Param        holder_id   query  string  false  "holder"
// @Param        shift_id    query  string  false  "turno"
// @Param        type        query  []string  false  "tipos"
// @Param        from        query  string  false  "desde (RFC3339)"
// @Param        to          query  string  false  "hasta (RFC3339)"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/movements [get]
func (h *CustodyHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.ListMovementsQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	q.DefaultPage()
	types := make([]entity.MovementType, 0, len(q.Types))
	for _, t := range q.Types {
		types = append(types, entity.MovementType(t))
	}
	list, err := h.uc.ListMovements(c.UserContext(), GetActor(c), custody.ListMovementsInput{
		ProductID: q.ProductID,
		HolderID:  dto.OptionalID(q.HolderID),
		ShiftID:   dto.OptionalID(q.ShiftID),
		Types:     types,
		From:      dto.ParseTime(q.From),
		To:        dto.ParseTime(q.To),
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: dto.FromMovements(list),
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	})
}

// StockBalance godoc
// @Summary      Saldo de un producto en el bar o en un holder
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path   string  true   "producto"
// @Param        holder_id   query  string  false  "holder; vacío = stock del bar"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/stock/{product_id} [get]
func (h *CustodyHandler) StockBalance(c *fiber.Ctx) error {
	productID, ok, err := pathID(c, "product_id")
	if !ok {
		return err
	}
	holder := c.Query("holder_id")
	if holder != "" && !isUUID(holder) {
		return writeError(c, invalidParam("holder_id"))
	}
	view, err := h.uc.StockBalance(c.UserContext(), GetActor(c), productID, dto.OptionalID(holder))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.BalanceResponse{ProductID: view.ProductID, HolderID: view.HolderID, Quantity: view.Quantity})
}

// ProductHolders godoc
// @Summary      Stock del bar y custodia por holder de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "producto"
// @Success      200  {object}  dto.ProductCustodyResponse
// @Router       /api/stock/{product_id}/holders [get]
func (h *CustodyHandler) ProductHolders(c *fiber.Ctx) error {
	productID, ok, err := pathID(c, "product_id")
	if !ok {
		return err
	}
	pc, err := h.uc.ProductHolders(c.UserContext(), GetActor(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProductCustodyResponse{
		ProductID: pc.ProductID,
		Available: pc.Available,
		Holders:   dto.FromHolderBalances(pc.Holders),
	})
}

// movementResult 201 para un movimiento nuevo, 200 para un reintento con el mismo Idempotency-Key.
func movementResult(c *fiber.Ctx, res *custody.MovementResult, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	out := dto.FromMovement(res.Movement)
	out.Replayed = res.Replayed
	if res.Replayed {
		return c.Status(fiber.StatusOK).JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
