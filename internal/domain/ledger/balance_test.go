package ledger_test

import (
	"math/rand"
	"testing"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/jhoicas/custodia-api/internal/domain/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	bar     = "bar-1"
	product = "prod-1"
	beto    = "bartender-1"
	sara    = "server-1"
)

func input(qty int64) entity.MovementInput {
	return entity.MovementInput{BarID: bar, ProductID: product, Quantity: qty, Reason: "conteo físico", Actor: entity.Actor{UserID: "mgr", BarID: bar}}
}

func must(t *testing.T) func(m *entity.Movement, err error) *entity.Movement {
	return func(m *entity.Movement, err error) *entity.Movement {
		t.Helper()
		require.NoError(t, err)
		return m
	}
}

func ptr(s string) *string { return &s }

// delivery 50 → allocation 30 a beto → assignment 10 a sara → return 4 a beto → damage 2.
func sampleLedger(t *testing.T) []*entity.Movement {
	return []*entity.Movement{
		must(t)(entity.NewDelivery(input(50))),
		must(t)(entity.NewAllocation(input(30), beto)),
		must(t)(entity.NewAssignment(input(10), beto, sara)),
		must(t)(entity.NewReturn(input(4), sara, beto)),
		must(t)(entity.NewDamage(input(2))),
	}
}

func TestBalance_StockDelBarYHolders(t *testing.T) {
	movs := sampleLedger(t)

	assert.Equal(t, int64(18), ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: product}))
	assert.Equal(t, int64(24), ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: product, Holder: ptr(beto)}))
	assert.Equal(t, int64(6), ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: product, Holder: ptr(sara)}))
}

func TestBalance_IgnoraOtroBarYProducto(t *testing.T) {
	movs := sampleLedger(t)
	other := input(100)
	other.BarID = "bar-2"
	movs = append(movs, must(t)(entity.NewDelivery(other)))
	otherProduct := input(7)
	otherProduct.ProductID = "prod-2"
	movs = append(movs, must(t)(entity.NewDelivery(otherProduct)))

	assert.Equal(t, int64(18), ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: product}))
	assert.Equal(t, int64(7), ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: "prod-2"}))
}

func TestBalance_LibroVacio(t *testing.T) {
	assert.Zero(t, ledger.Balance(nil, ledger.Scope{BarID: bar, ProductID: product}))
	assert.Zero(t, ledger.Balance([]*entity.Movement{nil}, ledger.Scope{BarID: bar, ProductID: product, Holder: ptr(beto)}))
}

func TestBalance_AjustesConSigno(t *testing.T) {
	movs := []*entity.Movement{
		must(t)(entity.NewDelivery(input(10))),
		must(t)(entity.NewAdjustment(input(0), -3)),
		must(t)(entity.NewAdjustment(input(0), 5)),
		must(t)(entity.NewLoss(input(1))),
	}
	assert.Equal(t, int64(11), ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: product}))
}

func TestBalance_ConservacionDeUnidades(t *testing.T) {
	// Stock del bar + custodia de todos los holders = entradas − bajas.
	movs := sampleLedger(t)
	movs = append(movs, must(t)(entity.NewReturnToStock(input(5), beto)))

	total := ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: product})
	for _, hb := range ledger.HolderBalances(movs, bar, product) {
		total += hb.Quantity
	}
	assert.Equal(t, int64(50-2), total)
}

func TestBalance_IndependienteDelOrden(t *testing.T) {
	movs := sampleLedger(t)
	want := ledger.Balance(movs, ledger.Scope{BarID: bar, ProductID: product, Holder: ptr(beto)})

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]*entity.Movement(nil), movs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, ledger.Balance(shuffled, ledger.Scope{BarID: bar, ProductID: product, Holder: ptr(beto)}))
	}
}

func TestHolderBalances_OmiteCerosYOrdena(t *testing.T) {
	movs := sampleLedger(t)
	movs = append(movs, must(t)(entity.NewReturn(input(6), sara, beto)))

	got := ledger.HolderBalances(movs, bar, product)
	require.Len(t, got, 1, "sara queda en cero y no debe aparecer")
	assert.Equal(t, ledger.HolderBalance{HolderID: beto, Quantity: 30}, got[0])
}

func TestSufficient(t *testing.T) {
	cases := []struct {
		available, requested int64
		want                 bool
	}{
		{20, 20, true},
		{20, 30, false},
		{0, 0, false},
		{5, -1, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ledger.Sufficient(c.available, c.requested), "available=%d requested=%d", c.available, c.requested)
	}
}
