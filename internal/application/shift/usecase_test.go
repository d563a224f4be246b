package shift_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/custodia-api/internal/application/apptest"
	"github.com/jhoicas/custodia-api/internal/application/custody"
	"github.com/jhoicas/custodia-api/internal/application/sales"
	"github.com/jhoicas/custodia-api/internal/application/shift"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*apptest.Fixture, *shift.UseCase) {
	t.Helper()
	f := apptest.New(t)
	return f, shift.NewUseCase(f.Store, f.Store.Repos(), nil)
}

// openShift jornada + turno abiertos por gerencia con bartender y server asignados.
func openShift(t *testing.T, f *apptest.Fixture, uc *shift.UseCase, date string) (*entity.Day, *entity.Shift) {
	t.Helper()
	ctx := context.Background()
	mgr := f.As(f.Manager)
	day, err := uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: date})
	require.NoError(t, err)
	s, err := uc.ScheduleShift(ctx, mgr, shift.ScheduleShiftInput{DayID: day.ID, Name: "noche"})
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftScheduled, s.Status)
	s, err = uc.OpenShift(ctx, mgr, s.ID)
	require.NoError(t, err)
	for _, u := range []*entity.User{f.Bartender, f.Server} {
		_, err := uc.AssignToShift(ctx, mgr, shift.AssignInput{ShiftID: s.ID, UserID: u.ID, Role: u.Role})
		require.NoError(t, err)
	}
	return day, s
}

func TestOpenDay_UnaSolaAbiertaPorBar(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()

	day, err := uc.OpenDay(ctx, f.As(f.Owner), shift.OpenDayInput{BusinessDate: "2026-10-17"})
	require.NoError(t, err)
	assert.Equal(t, entity.DayOpen, day.Status)

	_, err = uc.OpenDay(ctx, f.As(f.Owner), shift.OpenDayInput{BusinessDate: "2026-10-18"})
	assert.Equal(t, domain.CodeDayAlreadyOpen, domain.CodeOf(err))

	current, err := uc.CurrentDay(ctx, f.As(f.Server))
	require.NoError(t, err)
	assert.Equal(t, day.ID, current.ID)
}

func TestOpenDay_FechaDuplicada(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)

	day, err := uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: "2026-10-17"})
	require.NoError(t, err)
	_, err = uc.StartClosingDay(ctx, mgr, day.ID)
	require.NoError(t, err)

	_, err = uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: "2026-10-17"})
	assert.Equal(t, domain.CodeDuplicateDay, domain.CodeOf(err))
}

func TestOpenDay_Validaciones(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()

	_, err := uc.OpenDay(ctx, f.As(f.Manager), shift.OpenDayInput{BusinessDate: "17/10/2026"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.OpenDay(ctx, f.As(f.Bartender), shift.OpenDayInput{BusinessDate: "2026-10-17"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.CurrentDay(ctx, f.As(f.Manager))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCloseDay_BloqueadoPorTurnosAbiertos(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)
	day, s := openShift(t, f, uc, "2026-10-17")

	_, err := uc.StartClosingDay(ctx, mgr, day.ID)
	require.NoError(t, err)

	_, err = uc.CloseDay(ctx, mgr, day.ID)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeOpenShifts, de.Code)
	assert.Equal(t, 1, de.Details["count"])

	d, err := uc.GetDay(ctx, mgr, day.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DayClosing, d.Status, "el rechazo no cambia el estado")

	_, err = uc.StartClosingShift(ctx, f.As(f.Bartender), s.ID)
	require.NoError(t, err)
	_, err = uc.CloseShift(ctx, f.As(f.Bartender), s.ID)
	require.NoError(t, err)

	closed, err := uc.CloseDay(ctx, mgr, day.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DayClosed, closed.Status)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, f.Manager.ID, *closed.ClosedBy)

	reconciled, err := uc.ReconcileDay(ctx, f.As(f.Owner), day.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DayReconciled, reconciled.Status)
}

func TestCloseShift_BloqueadoPorVentasSinLiquidar(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	_, s := openShift(t, f, uc, "2026-10-17")

	cu := custody.NewUseCase(f.Store, f.Store.Repos(), nil)
	su := sales.NewUseCase(f.Store, f.Store.Repos(), nil)
	_, err := cu.RecordDelivery(ctx, f.As(f.Manager), custody.DeliveryInput{ProductID: f.Product.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = cu.Allocate(ctx, f.As(f.Manager), custody.AllocateInput{ProductID: f.Product.ID, BartenderID: f.Bartender.ID, Quantity: 5})
	require.NoError(t, err)
	sale, err := su.CreateSale(ctx, f.InShift(f.Bartender, s.ID), sales.CreateSaleInput{ProductID: f.Product.ID, ServerID: f.Server.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = uc.StartClosingShift(ctx, f.As(f.Manager), s.ID)
	require.NoError(t, err)
	_, err = uc.CloseShift(ctx, f.As(f.Manager), s.ID)
	assert.Equal(t, domain.CodeUnsettledSales, domain.CodeOf(err))

	_, err = su.CollectSale(ctx, f.As(f.Server), sale.Sale.ID, sales.CollectSaleInput{Amount: decimal.NewFromInt(16000), PaymentMethod: entity.PaymentCash})
	require.NoError(t, err)
	_, err = uc.CloseShift(ctx, f.As(f.Manager), s.ID)
	assert.Equal(t, domain.CodeUnsettledSales, domain.CodeOf(err), "cobrada pero sin confirmar")

	_, err = su.ConfirmSale(ctx, f.As(f.Manager), sale.Sale.ID)
	require.NoError(t, err)
	closed, err := uc.CloseShift(ctx, f.As(f.Manager), s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftClosed, closed.Status)
}

func TestShift_TransicionesIlegales(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)
	_, s := openShift(t, f, uc, "2026-10-17")

	_, err := uc.CloseShift(ctx, mgr, s.ID)
	assert.Equal(t, domain.CodeIllegalTransition, domain.CodeOf(err), "open → closed salta closing")

	_, err = uc.OpenShift(ctx, mgr, s.ID)
	assert.Equal(t, domain.CodeIllegalTransition, domain.CodeOf(err))

	_, err = uc.ReconcileShift(ctx, f.As(f.Bartender), s.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.GetShift(ctx, mgr, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReopenShift_ConMotivoYJornadaAbierta(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)
	day, s := openShift(t, f, uc, "2026-10-17")

	_, err := uc.StartClosingShift(ctx, mgr, s.ID)
	require.NoError(t, err)
	_, err = uc.CloseShift(ctx, mgr, s.ID)
	require.NoError(t, err)

	_, err = uc.ReopenShift(ctx, mgr, s.ID, "")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	reopened, err := uc.ReopenShift(ctx, mgr, s.ID, "faltó registrar una venta")
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftOpen, reopened.Status)
	assert.Contains(t, reopened.Notes, "faltó registrar una venta")

	_, err = uc.StartClosingShift(ctx, mgr, s.ID)
	require.NoError(t, err)
	_, err = uc.CloseShift(ctx, mgr, s.ID)
	require.NoError(t, err)
	_, err = uc.StartClosingDay(ctx, mgr, day.ID)
	require.NoError(t, err)

	_, err = uc.ReopenShift(ctx, mgr, s.ID, "otra corrección")
	assert.Equal(t, domain.CodeWindowClosed, domain.CodeOf(err), "la jornada ya no está abierta")

	events, err := f.Store.Repos().Events.List(ctx, repository.EventFilter{BarID: f.Bar.ID, EntityID: s.ID, Types: []string{"shift.reopened"}})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestOpenShift_NoReabreTurnoCerrado(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)
	_, s := openShift(t, f, uc, "2026-10-17")

	_, err := uc.StartClosingShift(ctx, mgr, s.ID)
	require.NoError(t, err)
	_, err = uc.CloseShift(ctx, mgr, s.ID)
	require.NoError(t, err)

	_, err = uc.OpenShift(ctx, f.As(f.Bartender), s.ID)
	assert.Equal(t, domain.CodeIllegalTransition, domain.CodeOf(err), "reabrir exige ReopenShift con motivo")
	_, err = uc.OpenShift(ctx, mgr, s.ID)
	assert.Equal(t, domain.CodeIllegalTransition, domain.CodeOf(err))

	stored, err := f.Store.Repos().Shifts.GetByID(ctx, f.Bar.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftClosed, stored.Status)

	events, err := f.Store.Repos().Events.List(ctx, repository.EventFilter{BarID: f.Bar.ID, EntityID: s.ID, Types: []string{"shift.reopened"}})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestReopenShift_NoAbreTurnoProgramado(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)

	day, err := uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: "2026-10-17"})
	require.NoError(t, err)
	s, err := uc.ScheduleShift(ctx, mgr, shift.ScheduleShiftInput{DayID: day.ID, Name: "tarde"})
	require.NoError(t, err)

	_, err = uc.ReopenShift(ctx, mgr, s.ID, "abrir sin pasar por OpenShift")
	assert.Equal(t, domain.CodeIllegalTransition, domain.CodeOf(err))

	opened, err := uc.OpenShift(ctx, mgr, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftOpen, opened.Status)
}

func TestReopenDay_NoPermiteDosAbiertas(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)

	first, err := uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: "2026-10-17"})
	require.NoError(t, err)
	_, err = uc.StartClosingDay(ctx, mgr, first.ID)
	require.NoError(t, err)
	_, err = uc.CloseDay(ctx, mgr, first.ID)
	require.NoError(t, err)

	second, err := uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: "2026-10-18"})
	require.NoError(t, err)

	_, err = uc.ReopenDay(ctx, mgr, first.ID, "corregir cierre")
	assert.Equal(t, domain.CodeDayAlreadyOpen, domain.CodeOf(err))

	_, err = uc.StartClosingDay(ctx, mgr, second.ID)
	require.NoError(t, err)
	reopened, err := uc.ReopenDay(ctx, mgr, first.ID, "corregir cierre")
	require.NoError(t, err)
	assert.Equal(t, entity.DayOpen, reopened.Status)

	events, err := f.Store.Repos().Events.List(ctx, repository.EventFilter{BarID: f.Bar.ID, EntityID: first.ID})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, "day.reopened", events[0].Type, "más reciente primero")
}

func TestAssignToShift_Reglas(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)
	_, s := openShift(t, f, uc, "2026-10-17")

	_, err := uc.AssignToShift(ctx, mgr, shift.AssignInput{ShiftID: s.ID, UserID: f.Bartender.ID, Role: entity.RoleBartender})
	assert.Equal(t, domain.CodeDuplicateAssignment, domain.CodeOf(err))

	_, err = uc.AssignToShift(ctx, mgr, shift.AssignInput{ShiftID: s.ID, UserID: f.Server2.ID, Role: entity.RoleBartender})
	assert.Equal(t, domain.CodeWrongHolderRole, domain.CodeOf(err), "el rol debe coincidir con el del usuario")

	_, err = uc.AssignToShift(ctx, mgr, shift.AssignInput{ShiftID: s.ID, UserID: f.Server2.ID, Role: "dj"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.AssignToShift(ctx, f.As(f.Bartender), shift.AssignInput{ShiftID: s.ID, UserID: f.Server2.ID, Role: entity.RoleServer})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	list, err := uc.ListAssignments(ctx, f.As(f.Server), s.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestScheduleShift_RequiereJornadaAbierta(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	mgr := f.As(f.Manager)
	day, err := uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: "2026-10-17"})
	require.NoError(t, err)

	_, err = uc.ScheduleShift(ctx, mgr, shift.ScheduleShiftInput{DayID: day.ID, Name: "  "})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.StartClosingDay(ctx, mgr, day.ID)
	require.NoError(t, err)
	_, err = uc.ScheduleShift(ctx, mgr, shift.ScheduleShiftInput{DayID: day.ID, Name: "tarde"})
	assert.Equal(t, domain.CodeWindowClosed, domain.CodeOf(err))

	list, err := uc.ListShifts(ctx, f.As(f.Bartender), day.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
