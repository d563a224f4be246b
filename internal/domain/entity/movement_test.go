package entity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/custodia-api/internal/domain"
	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func in(qty int64) entity.MovementInput {
	return entity.MovementInput{
		BarID:     "bar",
		ProductID: "prod",
		Quantity:  qty,
		Actor:     entity.Actor{UserID: "u1", BarID: "bar", DeviceID: "tablet-1"},
		Now:       time.Date(2026, 3, 1, 22, 0, 0, 0, time.UTC),
	}
}

func TestNewMovement_CantidadPositiva(t *testing.T) {
	for _, q := range []int64{0, -5} {
		_, err := entity.NewDelivery(in(q))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation), "cantidad %d", q)
	}
}

func TestNewMovement_FormaPorTipo(t *testing.T) {
	del, err := entity.NewDelivery(in(10))
	require.NoError(t, err)
	assert.Nil(t, del.FromHolder)
	assert.Nil(t, del.ToHolder)
	assert.Equal(t, int64(10), del.BarDelta())

	alloc, err := entity.NewAllocation(in(4), "beto")
	require.NoError(t, err)
	assert.Equal(t, int64(-4), alloc.BarDelta())
	assert.Equal(t, int64(4), alloc.HolderDelta("beto"))

	asg, err := entity.NewAssignment(in(3), "beto", "sara")
	require.NoError(t, err)
	assert.Zero(t, asg.BarDelta())
	assert.Equal(t, int64(-3), asg.HolderDelta("beto"))
	assert.Equal(t, int64(3), asg.HolderDelta("sara"))
	assert.Equal(t, []string{"beto", "sara"}, asg.Holders())

	rts, err := entity.NewReturnToStock(in(2), "sara")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rts.BarDelta())
	assert.Equal(t, int64(-2), rts.HolderDelta("sara"))

	for _, m := range []*entity.Movement{del, alloc, asg, rts} {
		assert.NoError(t, m.CheckShape(), "%s", m.Type)
	}
}

func TestNewTransfer_MismoHolder(t *testing.T) {
	_, err := entity.NewAssignment(in(1), "beto", "beto")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = entity.NewAllocation(in(1), "")
	require.Error(t, err)
}

func TestNewAdjustment_SignoYMotivo(t *testing.T) {
	base := in(0)
	_, err := entity.NewAdjustment(base, -3)
	require.Error(t, err, "ajuste sin motivo")

	base.Reason = "  conteo  "
	neg, err := entity.NewAdjustment(base, -3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), neg.Quantity)
	assert.Equal(t, int64(-3), neg.BarDelta())
	assert.Equal(t, "conteo", neg.Reason)

	_, err = entity.NewAdjustment(base, 0)
	require.Error(t, err)
}

func TestNewDamage_MotivoMinimo(t *testing.T) {
	base := in(1)
	base.Reason = "ok"
	_, err := entity.NewDamage(base)
	require.Error(t, err, "dos caracteres no alcanzan")

	base.Reason = "rota"
	m, err := entity.NewDamage(base)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), m.BarDelta())
}

func TestNewMovement_HoraDelClienteYDedup(t *testing.T) {
	base := in(1)
	client := time.Date(2026, 3, 1, 21, 55, 0, 0, time.FixedZone("COT", -5*3600))
	shift := "shift-1"
	base.Actor.ClientTime = &client
	base.Actor.ShiftID = &shift
	base.Actor.DedupID = " retry-1 "

	m, err := entity.NewDelivery(base)
	require.NoError(t, err)
	assert.Equal(t, client.UTC(), m.OccurredAt)
	assert.Equal(t, base.Now, m.CreatedAt)
	require.NotNil(t, m.DedupID)
	assert.Equal(t, "retry-1", *m.DedupID)
	assert.Equal(t, &shift, m.ShiftID)
	assert.Equal(t, "tablet-1", m.DeviceID)
}

func TestCheckShape_DetectaFormaInvalida(t *testing.T) {
	m, err := entity.NewDelivery(in(1))
	require.NoError(t, err)
	holder := "beto"
	m.ToHolder = &holder
	assert.Error(t, m.CheckShape())
}

func TestNewSale_Total(t *testing.T) {
	s, err := entity.NewSale("bar", "shift", "prod", "beto", "sara", 3, decimal.RequireFromString("8000.50"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, entity.SalePending, s.Status)
	assert.True(t, s.TotalPrice.Equal(decimal.RequireFromString("24001.50")))
	assert.True(t, s.TotalConsistent())
	assert.True(t, s.Unsettled())

	_, err = entity.NewSale("bar", "shift", "prod", "beto", "sara", 1, decimal.NewFromInt(-1), time.Now())
	assert.Error(t, err)
}

func TestNewSale_ImportesConEscalaDeLaBase(t *testing.T) {
	_, err := entity.NewSale("bar", "shift", "prod", "beto", "sara", 2, decimal.RequireFromString("1.005"), time.Now())
	require.Error(t, err)
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err))

	s, err := entity.NewSale("bar", "shift", "prod", "beto", "sara", 2, decimal.RequireFromString("1.500"), time.Now())
	require.NoError(t, err, "ceros a la derecha no cambian el valor guardado")
	assert.True(t, s.TotalPrice.Equal(decimal.NewFromInt(3)))

	_, err = entity.NewSale("bar", "shift", "prod", "beto", "sara", 1000, decimal.New(1, 11), time.Now())
	assert.Equal(t, domain.CodeValidation, domain.CodeOf(err), "total fuera de NUMERIC(16,2)")
}

func TestCheckPriceYAmount(t *testing.T) {
	cases := []struct {
		value string
		price bool
		ok    bool
	}{
		{"0", true, true},
		{"8000.50", true, true},
		{"-0.01", true, false},
		{"0.001", true, false},
		{"999999999999.99", true, true},
		{"1000000000000", true, false},
		{"1000000000000", false, true},
		{"100000000000000", false, false},
	}
	for _, tc := range cases {
		d := decimal.RequireFromString(tc.value)
		err := entity.CheckAmount("amount", d)
		if tc.price {
			err = entity.CheckPrice("price", d)
		}
		if tc.ok {
			assert.NoError(t, err, tc.value)
		} else {
			assert.True(t, errors.Is(err, domain.ErrValidation), tc.value)
		}
	}
}

func TestValidReason_NormalizaUnicode(t *testing.T) {
	assert.True(t, entity.ValidReason("daño"))
	assert.False(t, entity.ValidReason("  ñ "))
	// "é" descompuesta (e + acento combinante) cuenta como un carácter tras NFC.
	assert.Equal(t, "café", entity.NormalizeReason("café"))
}
