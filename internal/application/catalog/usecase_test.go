package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/custodia-api/internal/application/apptest"
	"github.com/jhoicas/custodia-api/internal/application/catalog"
	"github.com/jhoicas/custodia-api/internal/application/dto"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setup(t *testing.T) (*apptest.Fixture, *catalog.UseCase) {
	t.Helper()
	f := apptest.New(t)
	return f, catalog.NewUseCase(f.Store, f.Store.Repos(), nil)
}

func TestCreateProduct_SKUUnicoPorBar(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()

	p, err := uc.CreateProduct(ctx, f.As(f.Manager), dto.CreateProductRequest{SKU: " CER-330 ", Name: "Cerveza 330ml", Price: decimal.NewFromInt(4500)})
	require.NoError(t, err)
	assert.Equal(t, "CER-330", p.SKU)
	assert.Equal(t, "unidad", p.Unit, "unidad por defecto")
	assert.True(t, p.Active)

	_, err = uc.CreateProduct(ctx, f.As(f.Owner), dto.CreateProductRequest{SKU: "CER-330", Name: "Otra", Price: decimal.NewFromInt(1)})
	assert.Equal(t, domain.CodeDuplicate, domain.CodeOf(err))
	assert.True(t, errors.Is(err, domain.ErrConflict))

	events, err := f.Store.Repos().Events.List(ctx, repository.EventFilter{BarID: f.Bar.ID, EntityType: entity.EntityProduct})
	require.NoError(t, err)
	assert.Len(t, events, 1, "el intento duplicado no deja evento")
}

func TestCreateProduct_Validaciones(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()

	_, err := uc.CreateProduct(ctx, f.As(f.Bartender), dto.CreateProductRequest{SKU: "X", Name: "X"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	_, err = uc.CreateProduct(ctx, f.As(f.Owner), dto.CreateProductRequest{SKU: "X", Name: "X", Price: decimal.NewFromInt(-1)})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.CreateProduct(ctx, f.As(f.Owner), dto.CreateProductRequest{SKU: "X", Name: "X", Price: decimal.RequireFromString("4500.555")})
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err), "el precio admite a lo sumo dos decimales")

	_, err = uc.CreateProduct(ctx, f.As(f.Owner), dto.CreateProductRequest{SKU: "  ", Name: "X"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestProducts_ConsultaYPaginacion(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	for _, sku := range []string{"A", "B", "C"} {
		_, err := uc.CreateProduct(ctx, f.As(f.Owner), dto.CreateProductRequest{SKU: sku, Name: "Producto " + sku, Price: decimal.NewFromInt(1000)})
		require.NoError(t, err)
	}

	page, err := uc.ListProducts(ctx, f.As(f.Server), dto.PageRequest{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "A", page.Items[0].SKU, "el fixture ya trae un producto")
	assert.Equal(t, 2, page.Page.Limit)

	got, err := uc.GetProduct(ctx, f.As(f.Bartender), f.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Product.Name, got.Name)

	_, err = uc.GetProduct(ctx, f.As(f.Bartender), "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreateStaff_SoloOwnerCreaGerencia(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()
	req := dto.CreateStaffRequest{Name: "Nuevo", Phone: "3100000000", Password: "clave123", Role: entity.RoleManager}

	_, err := uc.CreateStaff(ctx, f.As(f.Manager), req)
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	u, err := uc.CreateStaff(ctx, f.As(f.Owner), req)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleManager, u.Role)
	assert.Equal(t, "active", u.Status)

	stored, err := f.Store.Repos().Users.GetByID(ctx, f.Bar.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("clave123")))
}

func TestCreateStaff_Validaciones(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()

	_, err := uc.CreateStaff(ctx, f.As(f.Manager), dto.CreateStaffRequest{Name: "S", Phone: f.Server.Phone, Password: "clave123", Role: entity.RoleServer})
	assert.Equal(t, domain.CodeDuplicate, domain.CodeOf(err), "teléfono ya registrado")

	_, err = uc.CreateStaff(ctx, f.As(f.Manager), dto.CreateStaffRequest{Name: "S", Phone: "3110000000", Password: "123", Role: entity.RoleServer})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.CreateStaff(ctx, f.As(f.Manager), dto.CreateStaffRequest{Name: "S", Phone: "3110000000", Password: "clave123", Role: "cajero"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = uc.CreateStaff(ctx, f.As(f.Server), dto.CreateStaffRequest{Name: "S", Phone: "3110000000", Password: "clave123", Role: entity.RoleServer})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestStaff_Consultas(t *testing.T) {
	f, uc := setup(t)
	ctx := context.Background()

	list, err := uc.ListStaff(ctx, f.As(f.Bartender), dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 6)
	assert.Equal(t, 20, list.Page.Limit, "límite por defecto")

	_, err = uc.ListStaff(ctx, f.As(f.Server), dto.PageRequest{})
	assert.True(t, errors.Is(err, domain.ErrForbidden))

	me, err := uc.GetStaff(ctx, f.As(f.Server), f.Server.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Server.Phone, me.Phone)
}
