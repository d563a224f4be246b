// Package apptest arma un bar completo sobre el almacén en memoria para los tests
// de casos de uso y de handlers.
package apptest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Password contraseña de todos los usuarios del fixture.
const Password = "secreto123"

// Fixture bar con personal de todos los roles y un producto activo.
type Fixture struct {
	Store *memory.Store

	Bar        *entity.Bar
	Owner      *entity.User
	Manager    *entity.User
	Bartender  *entity.User
	Bartender2 *entity.User
	Server     *entity.User
	Server2    *entity.User
	Product    *entity.Product

	days int
}

// New crea el almacén y siembra bar, usuarios y producto (precio 8000).
func New(t testing.TB) *Fixture {
	t.Helper()
	f := &Fixture{Store: memory.New()}
	now := time.Now().UTC()
	f.Bar = &entity.Bar{ID: uuid.NewString(), Name: "La Custodia", Timezone: "America/Bogota", CreatedAt: now}
	f.Store.CreateBar(f.Bar)

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	f.Owner = f.user(t, "Olga", "3000000001", entity.RoleOwner, hash)
	f.Manager = f.user(t, "Mario", "3000000002", entity.RoleManager, hash)
	f.Bartender = f.user(t, "Beto", "3000000003", entity.RoleBartender, hash)
	f.Bartender2 = f.user(t, "Bianca", "3000000004", entity.RoleBartender, hash)
	f.Server = f.user(t, "Sara", "3000000005", entity.RoleServer, hash)
	f.Server2 = f.user(t, "Simón", "3000000006", entity.RoleServer, hash)

	f.Product = &entity.Product{
		ID:        uuid.NewString(),
		BarID:     f.Bar.ID,
		SKU:       "AGU-750",
		Name:      "Aguardiente 750ml",
		Unit:      "botella",
		Price:     decimal.NewFromInt(8000),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.Store.Repos().Products.Create(context.Background(), f.Product))
	return f
}

func (f *Fixture) user(t testing.TB, name, phone, role string, hash []byte) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	u := &entity.User{
		ID:           uuid.NewString(),
		BarID:        f.Bar.ID,
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.Store.Repos().Users.Create(context.Background(), u))
	return u
}

// As actor sin turno para u.
func (f *Fixture) As(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, Role: u.Role, BarID: u.BarID, DeviceID: "device-" + u.Name}
}

// InShift actor de u operando desde el turno.
func (f *Fixture) InShift(u *entity.User, shiftID string) entity.Actor {
	a := f.As(u)
	a.ShiftID = &shiftID
	return a
}

// OpenShift escribe directamente una jornada y un turno abiertos con ambos bartenders
// y ambos servers asignados. No pasa por los casos de uso ni genera eventos.
func (f *Fixture) OpenShift(t testing.TB) *entity.Shift {
	t.Helper()
	ctx := context.Background()
	repos := f.Store.Repos()
	now := time.Now().UTC()
	f.days++

	day := &entity.Day{
		ID:           uuid.NewString(),
		BarID:        f.Bar.ID,
		BusinessDate: fmt.Sprintf("2026-01-%02d", f.days),
		Status:       entity.DayOpen,
		OpenedBy:     f.Manager.ID,
		OpenedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repos.Days.Create(ctx, day))

	opened := f.Manager.ID
	s := &entity.Shift{
		ID:          uuid.NewString(),
		BarID:       f.Bar.ID,
		DayID:       day.ID,
		Name:        "noche",
		Status:      entity.ShiftOpen,
		ScheduledBy: f.Manager.ID,
		ScheduledAt: now,
		OpenedBy:    &opened,
		OpenedAt:    &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, repos.Shifts.Create(ctx, s))

	for _, u := range []*entity.User{f.Bartender, f.Bartender2, f.Server, f.Server2} {
		require.NoError(t, repos.Assignments.Create(ctx, &entity.ShiftAssignment{
			ID:         uuid.NewString(),
			BarID:      f.Bar.ID,
			ShiftID:    s.ID,
			UserID:     u.ID,
			Role:       u.Role,
			AssignedBy: f.Manager.ID,
			AssignedAt: now,
		}))
	}
	return s
}
