package custody_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jhoicas/custodia-api/internal/application/apptest"
	"github.com/jhoicas/custodia-api/internal/application/custody"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*apptest.Fixture, *custody.UseCase) {
	t.Helper()
	f := apptest.New(t)
	return f, custody.NewUseCase(f.Store, f.Store.Repos(), nil)
}

func deliver(t *testing.T, f *apptest.Fixture, uc *custody.UseCase, qty int64) {
	t.Helper()
	_, err := uc.RecordDelivery(context.Background(), f.As(f.Manager), custody.DeliveryInput{ProductID: f.Product.ID, Quantity: qty})
	require.NoError(t, err)
}

func allocate(t *testing.T, f *apptest.Fixture, uc *custody.UseCase, bartender *entity.User, qty int64) {
	t.Helper()
	_, err := uc.Allocate(context.Background(), f.As(f.Manager), custody.AllocateInput{ProductID: f.Product.ID, BartenderID: bartender.ID, Quantity: qty})
	require.NoError(t, err)
}

func balance(t *testing.T, f *apptest.Fixture, uc *custody.UseCase, holder *entity.User) int64 {
	t.Helper()
	var id *string
	if holder != nil {
		id = &holder.ID
	}
	v, err := uc.StockBalance(context.Background(), f.As(f.Owner), f.Product.ID, id)
	require.NoError(t, err)
	return v.Quantity
}

func movementCount(t *testing.T, f *apptest.Fixture) int {
	t.Helper()
	list, err := f.Store.Repos().Movements.ListByProduct(context.Background(), f.Bar.ID, f.Product.ID)
	require.NoError(t, err)
	return len(list)
}

func eventCount(t *testing.T, f *apptest.Fixture) int {
	t.Helper()
	list, err := f.Store.Repos().Events.List(context.Background(), repository.EventFilter{BarID: f.Bar.ID})
	require.NoError(t, err)
	return len(list)
}

func TestAllocate_MueveStockAlBartender(t *testing.T) {
	f, uc := setup(t)
	deliver(t, f, uc, 50)
	allocate(t, f, uc, f.Bartender, 30)

	assert.Equal(t, int64(20), balance(t, f, uc, nil))
	assert.Equal(t, int64(30), balance(t, f, uc, f.Bartender))
	assert.Equal(t, 2, movementCount(t, f))
	assert.Equal(t, 2, eventCount(t, f), "un evento por movimiento")
}

func TestAllocate_SaldoInsuficienteNoEscribe(t *testing.T) {
	f, uc := setup(t)
	deliver(t, f, uc, 20)

	_, err := uc.Allocate(context.Background(), f.As(f.Manager), custody.AllocateInput{ProductID: f.Product.ID, BartenderID: f.Bartender.ID, Quantity: 30})
	require.Error(t, err)

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.CodeInsufficientBalance, de.Code)
	assert.Equal(t, int64(20), de.Details["available"])
	assert.Equal(t, int64(30), de.Details["requested"])

	assert.Equal(t, 1, movementCount(t, f), "solo la entrega")
	assert.Equal(t, 1, eventCount(t, f))
}

func TestAllocate_Concurrente_SoloUnaGana(t *testing.T) {
	f, uc := setup(t)
	deliver(t, f, uc, 40)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for _, b := range []*entity.User{f.Bartender, f.Bartender2} {
		wg.Add(1)
		go func(b *entity.User) {
			defer wg.Done()
			_, err := uc.Allocate(context.Background(), f.As(f.Manager), custody.AllocateInput{ProductID: f.Product.ID, BartenderID: b.ID, Quantity: 30})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			if domain.CodeOf(err) == domain.CodeInsufficientBalance {
				fail++
			}
		}(b)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, fail)
	assert.Equal(t, int64(10), balance(t, f, uc, nil))
}

func TestAllocate_Roles(t *testing.T) {
	f, uc := setup(t)
	deliver(t, f, uc, 10)

	for _, u := range []*entity.User{f.Bartender, f.Server} {
		_, err := uc.Allocate(context.Background(), f.As(u), custody.AllocateInput{ProductID: f.Product.ID, BartenderID: f.Bartender.ID, Quantity: 1})
		assert.True(t, errors.Is(err, domain.ErrForbidden), "rol %s", u.Role)
	}

	_, err := uc.Allocate(context.Background(), f.As(f.Owner), custody.AllocateInput{ProductID: f.Product.ID, BartenderID: f.Server.ID, Quantity: 1})
	assert.Equal(t, domain.CodeWrongHolderRole, domain.CodeOf(err), "solo un bartender recibe asignaciones del bar")
}

func TestRecordDelivery_ValidaCantidadYProducto(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()

	_, err := uc.RecordDelivery(ctx, f.As(f.Owner), custody.DeliveryInput{ProductID: f.Product.ID, Quantity: 0})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.RecordDelivery(ctx, f.As(f.Owner), custody.DeliveryInput{ProductID: "00000000-0000-0000-0000-00000000dead", Quantity: 5})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Zero(t, movementCount(t, f))
}

func TestRecordDelivery_DedupDevuelveOriginal(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	actor := f.As(f.Manager)
	actor.DedupID = "entrega-001"

	first, err := uc.RecordDelivery(ctx, actor, custody.DeliveryInput{ProductID: f.Product.ID, Quantity: 12})
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	again, err := uc.RecordDelivery(ctx, actor, custody.DeliveryInput{ProductID: f.Product.ID, Quantity: 12})
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Movement.ID, again.Movement.ID)
	assert.Equal(t, 1, movementCount(t, f))
	assert.Equal(t, int64(12), balance(t, f, uc, nil))

	_, err = uc.RecordDelivery(ctx, actor, custody.DeliveryInput{ProductID: f.Product.ID, Quantity: 13})
	assert.True(t, errors.Is(err, domain.ErrConflict), "mismo dedup id con otra cantidad")
}

func TestAssign_RequiereTurnoAbierto(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	deliver(t, f, uc, 10)
	allocate(t, f, uc, f.Bartender, 10)

	_, err := uc.Assign(ctx, f.As(f.Bartender), custody.AssignInput{ProductID: f.Product.ID, ServerID: f.Server.ID, Quantity: 2})
	assert.Equal(t, domain.CodeWindowClosed, domain.CodeOf(err))

	shift := f.OpenShift(t)
	res, err := uc.Assign(ctx, f.InShift(f.Bartender, shift.ID), custody.AssignInput{ProductID: f.Product.ID, ServerID: f.Server.ID, Quantity: 2})
	require.NoError(t, err)
	require.NotNil(t, res.Movement.ShiftID)
	assert.Equal(t, shift.ID, *res.Movement.ShiftID)
	assert.Equal(t, int64(8), balance(t, f, uc, f.Bartender))
	assert.Equal(t, int64(2), balance(t, f, uc, f.Server))
}

func TestAssign_NoPuedeAsignarseASiMismo(t *testing.T) {
	f, uc := setup(t)
	shift := f.OpenShift(t)
	_, err := uc.Assign(context.Background(), f.InShift(f.Bartender, shift.ID), custody.AssignInput{ProductID: f.Product.ID, ServerID: f.Bartender.ID, Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestReturnStock_ServerDevuelveAlBartenderYAlBar(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	shift := f.OpenShift(t)
	deliver(t, f, uc, 10)
	allocate(t, f, uc, f.Bartender, 10)
	_, err := uc.Assign(ctx, f.InShift(f.Bartender, shift.ID), custody.AssignInput{ProductID: f.Product.ID, ServerID: f.Server.ID, Quantity: 6})
	require.NoError(t, err)

	_, err = uc.ReturnStock(ctx, f.As(f.Server), custody.ReturnInput{ProductID: f.Product.ID, ToHolderID: &f.Bartender.ID, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance(t, f, uc, f.Server))
	assert.Equal(t, int64(8), balance(t, f, uc, f.Bartender))

	_, err = uc.ReturnStock(ctx, f.As(f.Bartender), custody.ReturnInput{ProductID: f.Product.ID, Quantity: 8})
	require.NoError(t, err)
	assert.Equal(t, int64(8), balance(t, f, uc, nil))
	assert.Zero(t, balance(t, f, uc, f.Bartender))

	_, err = uc.ReturnStock(ctx, f.As(f.Server), custody.ReturnInput{ProductID: f.Product.ID, Quantity: 3})
	assert.Equal(t, domain.CodeInsufficientBalance, domain.CodeOf(err))
}

func TestReturnStock_SoloElHolderOGerencia(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	deliver(t, f, uc, 5)
	allocate(t, f, uc, f.Bartender, 5)

	_, err := uc.ReturnStock(ctx, f.As(f.Bartender2), custody.ReturnInput{ProductID: f.Product.ID, FromHolderID: f.Bartender.ID, Quantity: 1})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.ReturnStock(ctx, f.As(f.Manager), custody.ReturnInput{ProductID: f.Product.ID, FromHolderID: f.Bartender.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), balance(t, f, uc, nil))
}

func TestAdjust_NoDejaStockNegativo(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	deliver(t, f, uc, 5)

	_, err := uc.Adjust(ctx, f.As(f.Owner), custody.AdjustInput{Type: entity.MovementDamage, ProductID: f.Product.ID, Quantity: 6, Reason: "caja rota"})
	assert.Equal(t, domain.CodeInsufficientBalance, domain.CodeOf(err))

	_, err = uc.Adjust(ctx, f.As(f.Owner), custody.AdjustInput{Type: entity.MovementAdjustment, ProductID: f.Product.ID, Quantity: -2, Reason: "conteo físico"})
	require.NoError(t, err)
	_, err = uc.Adjust(ctx, f.As(f.Owner), custody.AdjustInput{Type: entity.MovementLoss, ProductID: f.Product.ID, Quantity: 1, Reason: "faltante"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), balance(t, f, uc, nil))

	_, err = uc.Adjust(ctx, f.As(f.Owner), custody.AdjustInput{Type: entity.MovementLoss, ProductID: f.Product.ID, Quantity: 1, Reason: "x"})
	assert.True(t, errors.Is(err, domain.ErrValidation), "motivo demasiado corto")

	_, err = uc.Adjust(ctx, f.As(f.Owner), custody.AdjustInput{Type: entity.MovementDelivery, ProductID: f.Product.ID, Quantity: 1, Reason: "conteo"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestProductHolders_Reparto(t *testing.T) {
	f, uc := setup(t)
	deliver(t, f, uc, 20)
	allocate(t, f, uc, f.Bartender, 7)
	allocate(t, f, uc, f.Bartender2, 3)

	got, err := uc.ProductHolders(context.Background(), f.As(f.Bartender), f.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Available)
	require.Len(t, got.Holders, 2)
	var total int64
	for _, h := range got.Holders {
		total += h.Quantity
	}
	assert.Equal(t, int64(10), total)

	_, err = uc.ProductHolders(context.Background(), f.As(f.Server), f.Product.ID)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestStockBalance_ServerSoloLoPropio(t *testing.T) {
	f, uc := setup(t)
	_, err := uc.StockBalance(context.Background(), f.As(f.Server), f.Product.ID, nil)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	v, err := uc.StockBalance(context.Background(), f.As(f.Server), f.Product.ID, &f.Server.ID)
	require.NoError(t, err)
	assert.Zero(t, v.Quantity)
}

func TestListMovements_FiltrosYVisibilidad(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	deliver(t, f, uc, 20)
	allocate(t, f, uc, f.Bartender, 7)
	allocate(t, f, uc, f.Bartender2, 3)

	all, err := uc.ListMovements(ctx, f.As(f.Manager), custody.ListMovementsInput{ProductID: f.Product.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	allocs, err := uc.ListMovements(ctx, f.As(f.Manager), custody.ListMovementsInput{Types: []entity.MovementType{entity.MovementAllocation}})
	require.NoError(t, err)
	assert.Len(t, allocs, 2)

	own, err := uc.ListMovements(ctx, f.As(f.Bartender), custody.ListMovementsInput{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.Bartender.ID, *own[0].ToHolder)

	_, err = uc.ListMovements(ctx, f.As(f.Bartender), custody.ListMovementsInput{HolderID: &f.Bartender2.ID})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.ListMovements(ctx, f.As(f.Manager), custody.ListMovementsInput{Types: []entity.MovementType{"robo"}})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}
