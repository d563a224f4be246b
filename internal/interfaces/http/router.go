package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/custodia-api/internal/application/audit"
	"github.com/jhoicas/custodia-api/internal/application/auth"
	"github.com/jhoicas/custodia-api/internal/application/catalog"
	"github.com/jhoicas/custodia-api/internal/application/custody"
	"github.com/jhoicas/custodia-api/internal/application/sales"
	"github.com/jhoicas/custodia-api/internal/application/shift"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	CatalogUC *catalog.UseCase
	CustodyUC *custody.UseCase
	SalesUC   *sales.UseCase
	ShiftUC   *shift.UseCase
	AuditUC   *audit.QueryUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Los casos de uso vuelven a verificar rol y bar;
// RequireRole solo corta temprano las rutas de gestión.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("", AuthMiddleware(deps.JWTSecret), ActorMiddleware())
	management := RequireRole(entity.RoleOwner, entity.RoleManager)
	floor := RequireRole(entity.RoleOwner, entity.RoleManager, entity.RoleBartender)

	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	protected.Get("/me", catalogHandler.Me)
	products := protected.Group("/products")
	products.Post("/", management, catalogHandler.CreateProduct)
	products.Get("/", catalogHandler.ListProducts)
	products.Get("/:id", catalogHandler.GetProduct)
	staff := protected.Group("/staff")
	staff.Post("/", management, catalogHandler.CreateStaff)
	staff.Get("/", catalogHandler.ListStaff)
	staff.Get("/:id", catalogHandler.GetStaff)

	// Custodia
	custodyHandler := NewCustodyHandler(deps.CustodyUC)
	movements := protected.Group("/movements")
	movements.Get("/", custodyHandler.ListMovements)
	movements.Post("/deliveries", management, custodyHandler.RecordDelivery)
	movements.Post("/allocations", management, custodyHandler.Allocate)
	movements.Post("/assignments", RequireRole(entity.RoleBartender), custodyHandler.Assign)
	movements.Post("/returns", custodyHandler.Return)
	movements.Post("/adjustments", management, custodyHandler.Adjust)
	stock := protected.Group("/stock")
	stock.Get("/:product_id", custodyHandler.StockBalance)
	stock.Get("/:product_id/holders", custodyHandler.ProductHolders)

	// Ventas
	saleHandler := NewSaleHandler(deps.SalesUC)
	salesGroup := protected.Group("/sales")
	salesGroup.Post("/", RequireRole(entity.RoleBartender), saleHandler.Create)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/collect", RequireRole(entity.RoleServer), saleHandler.Collect)
	salesGroup.Post("/:id/confirm", saleHandler.Confirm)
	salesGroup.Post("/:id/dispute", saleHandler.Dispute)
	salesGroup.Post("/:id/reverse", saleHandler.Reverse)

	// Jornadas y turnos
	shiftHandler := NewShiftHandler(deps.ShiftUC)
	days := protected.Group("/days")
	days.Post("/", management, shiftHandler.OpenDay)
	days.Get("/current", shiftHandler.CurrentDay)
	days.Get("/:id", shiftHandler.GetDay)
	days.Post("/:id/start-closing", management, shiftHandler.StartClosingDay)
	days.Post("/:id/close", management, shiftHandler.CloseDay)
	days.Post("/:id/reconcile", management, shiftHandler.ReconcileDay)
	days.Post("/:id/reopen", management, shiftHandler.ReopenDay)
	days.Post("/:id/shifts", management, shiftHandler.ScheduleShift)
	days.Get("/:id/shifts", shiftHandler.ListShifts)
	shifts := protected.Group("/shifts")
	shifts.Get("/:id", shiftHandler.GetShift)
	shifts.Post("/:id/open", floor, shiftHandler.OpenShift)
	shifts.Post("/:id/start-closing", floor, shiftHandler.StartClosingShift)
	shifts.Post("/:id/close", floor, shiftHandler.CloseShift)
	shifts.Post("/:id/reconcile", management, shiftHandler.ReconcileShift)
	shifts.Post("/:id/reopen", management, shiftHandler.ReopenShift)
	shifts.Post("/:id/assignments", management, shiftHandler.Assign)
	shifts.Get("/:id/assignments", shiftHandler.ListAssignments)
	shifts.Get("/:id/obligations", floor, saleHandler.Obligations)

	// Auditoría
	auditHandler := NewAuditHandler(deps.AuditUC)
	protected.Get("/events", management, auditHandler.List)
}
