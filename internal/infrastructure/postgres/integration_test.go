//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/custodia-api/internal/application/custody"
	"github.com/jhoicas/custodia-api/internal/application/shift"
	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
	"github.com/jhoicas/custodia-api/internal/domain/repository"
	"github.com/jhoicas/custodia-api/internal/infrastructure/postgres"
	"github.com/jhoicas/custodia-api/pkg/config"
)

// newPool levanta un PostgreSQL efímero y aplica las migraciones embebidas.
func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("custodia_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(pool, nil))
	return pool
}

type seed struct {
	bar       *entity.Bar
	manager   *entity.User
	bartender *entity.User
	product   *entity.Product
}

func seedBar(t *testing.T, pool *pgxpool.Pool) seed {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	repos := postgres.NewRepos(pool)

	s := seed{bar: &entity.Bar{ID: uuid.NewString(), Name: "Bar Integración", Timezone: "America/Bogota", CreatedAt: now}}
	require.NoError(t, postgres.NewBarRepository(pool).Create(ctx, s.bar))

	got, err := postgres.NewBarRepository(pool).GetByName(ctx, s.bar.Name)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.bar.ID, got.ID)

	user := func(name, phone, role string) *entity.User {
		u := &entity.User{ID: uuid.NewString(), BarID: s.bar.ID, Name: name, Phone: phone, PasswordHash: "x", Role: role, Status: "active", CreatedAt: now, UpdatedAt: now}
		require.NoError(t, repos.Users.Create(ctx, u))
		return u
	}
	s.manager = user("Mario", "3000000002", entity.RoleManager)
	s.bartender = user("Beto", "3000000003", entity.RoleBartender)

	s.product = &entity.Product{ID: uuid.NewString(), BarID: s.bar.ID, SKU: "AGU-750", Name: "Aguardiente", Unit: "botella", Price: decimal.NewFromInt(8000), Active: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repos.Products.Create(ctx, s.product))
	return s
}

func actor(u *entity.User) entity.Actor {
	return entity.Actor{UserID: u.ID, BarID: u.BarID, Role: u.Role, DeviceID: "integration"}
}

func TestPostgres_AsignacionesConcurrentesNoSobregiran(t *testing.T) {
	pool := newPool(t)
	s := seedBar(t, pool)
	ctx := context.Background()
	uc := custody.NewUseCase(postgres.NewTxRunner(pool), postgres.NewRepos(pool), nil)

	_, err := uc.RecordDelivery(ctx, actor(s.manager), custody.DeliveryInput{ProductID: s.product.ID, Quantity: 40})
	require.NoError(t, err)

	const workers = 4
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Allocate(ctx, actor(s.manager), custody.AllocateInput{ProductID: s.product.ID, BartenderID: s.bartender.ID, Quantity: 15})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case domain.CodeOf(err) == domain.CodeInsufficientBalance:
				rejected++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, workers-2, rejected)

	repos := postgres.NewRepos(pool)
	bar, err := repos.Movements.Balance(ctx, ledger.Scope{BarID: s.bar.ID, ProductID: s.product.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(10), bar)

	holder := s.bartender.ID
	held, err := repos.Movements.Balance(ctx, ledger.Scope{BarID: s.bar.ID, ProductID: s.product.ID, Holder: &holder})
	require.NoError(t, err)
	assert.Equal(t, int64(30), held)

	events, err := repos.Events.List(ctx, repository.EventFilter{BarID: s.bar.ID})
	require.NoError(t, err)
	assert.Len(t, events, 3, "una entrega y dos asignaciones")
}

func TestPostgres_DedupYRollback(t *testing.T) {
	pool := newPool(t)
	s := seedBar(t, pool)
	ctx := context.Background()
	runner := postgres.NewTxRunner(pool)
	uc := custody.NewUseCase(runner, postgres.NewRepos(pool), nil)

	a := actor(s.manager)
	a.DedupID = "entrega-1"
	first, err := uc.RecordDelivery(ctx, a, custody.DeliveryInput{ProductID: s.product.ID, Quantity: 5})
	require.NoError(t, err)
	again, err := uc.RecordDelivery(ctx, a, custody.DeliveryInput{ProductID: s.product.ID, Quantity: 5})
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.Equal(t, first.Movement.ID, again.Movement.ID)

	boom := errors.New("boom")
	err = runner.Run(ctx, func(tx repository.Repos) error {
		m, err := entity.NewDelivery(entity.MovementInput{BarID: s.bar.ID, ProductID: s.product.ID, Quantity: 100, Actor: actor(s.manager), Now: time.Now().UTC()})
		require.NoError(t, err)
		require.NoError(t, tx.Movements.Create(ctx, m))
		return boom
	})
	require.ErrorIs(t, err, boom)

	q, err := postgres.NewRepos(pool).Movements.Balance(ctx, ledger.Scope{BarID: s.bar.ID, ProductID: s.product.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(5), q)
}

func TestPostgres_LecturaDeVentanaBloqueaCierreDelTurno(t *testing.T) {
	pool := newPool(t)
	s := seedBar(t, pool)
	ctx := context.Background()
	mgr := actor(s.manager)
	uc := shift.NewUseCase(postgres.NewTxRunner(pool), postgres.NewRepos(pool), nil)

	day, err := uc.OpenDay(ctx, mgr, shift.OpenDayInput{BusinessDate: "2026-10-19"})
	require.NoError(t, err)
	sh, err := uc.ScheduleShift(ctx, mgr, shift.ScheduleShiftInput{DayID: day.ID, Name: "noche"})
	require.NoError(t, err)
	_, err = uc.OpenShift(ctx, mgr, sh.ID)
	require.NoError(t, err)

	// Una venta en curso lee el turno como ventana dentro de su transacción.
	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	window, err := postgres.NewShiftRepository(tx).GetForShare(ctx, s.bar.ID, sh.ID)
	require.NoError(t, err)
	require.Equal(t, entity.ShiftOpen, window.Status)

	done := make(chan error, 1)
	go func() {
		_, err := uc.StartClosingShift(ctx, mgr, sh.ID)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("el cierre no esperó a la transacción que usa el turno: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, tx.Commit(ctx))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("el cierre sigue bloqueado tras el commit")
	}
}
