package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/custodia-api/internal/application/catalog"
	"github.com/jhoicas/custodia-api/internal/application/dto"
)

// CatalogHandler maneja productos y personal del bar (protegido).
type CatalogHandler struct {
	uc *catalog.UseCase
}

// NewCatalogHandler construye el handler.
func NewCatalogHandler(uc *catalog.UseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// CreateProduct godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateProduct(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetProduct godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	out, err := h.uc.GetProduct(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListProducts godoc
// @Summary      Listar productos del bar
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "límite"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	var page dto.PageRequest
	if ok, err := parseQuery(c, &page); !ok {
		return err
	}
	out, err := h.uc.ListProducts(c.UserContext(), GetActor(c), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateStaff godoc
// @Summary      Alta de personal
// @Tags         staff
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStaffRequest  true  "name, phone, password, role"
// @Success      201   {object}  dto.UserResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/staff [post]
func (h *CatalogHandler) CreateStaff(c *fiber.Ctx) error {
	var in dto.CreateStaffRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateStaff(c.UserContext(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetStaff godoc
// @Summary      Obtener miembro del personal
// @Tags         staff
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "usuario"
// @Success      200  {object}  dto.UserResponse
// @Router       /api/staff/{id} [get]
func (h *CatalogHandler) GetStaff(c *fiber.Ctx) error {
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	out, err := h.uc.GetStaff(c.UserContext(), GetActor(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListStaff godoc
// @Summary      Listar personal del bar
// @Tags         staff
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserListResponse
// @Router       /api/staff [get]
func (h *CatalogHandler) ListStaff(c *fiber.Ctx) error {
	var page dto.PageRequest
	if ok, err := parseQuery(c, &page); !ok {
		return err
	}
	out, err := h.uc.ListStaff(c.UserContext(), GetActor(c), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Me godoc
// @Summary      Usuario autenticado
// @Tags         staff
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Router       /api/me [get]
func (h *CatalogHandler) Me(c *fiber.Ctx) error {
	actor := GetActor(c)
	out, err := h.uc.GetStaff(c.UserContext(), actor, actor.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
