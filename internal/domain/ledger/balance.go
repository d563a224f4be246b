// Package ledger contiene el cálculo puro de saldos sobre el libro de movimientos.
package ledger

import (
	"sort"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
)

// Scope acota el cálculo: bar, producto y opcionalmente un holder.
// Holder nil = stock del bar disponible (no asignado a nadie).
type Scope struct {
	BarID     string
	ProductID string
	Holder    *string
}

// Balance suma el efecto de los movimientos dentro del scope.
// Per-holder: Σ(to=holder) − Σ(from=holder). Bar: entradas al stock − salidas del stock.
// Función pura: el orden de los movimientos no altera el resultado.
func Balance(movements []*entity.Movement, scope Scope) int64 {
	var total int64
	for _, m := range movements {
		if m == nil || m.BarID != scope.BarID || m.ProductID != scope.ProductID {
			continue
		}
		if scope.Holder == nil {
			total += m.BarDelta()
		} else {
			total += m.HolderDelta(*scope.Holder)
		}
	}
	return total
}

// HolderBalance par holder/cantidad para un producto.
type HolderBalance struct {
	HolderID string
	Quantity int64
}

// HolderBalances agrupa la custodia por holder para un bar+producto.
// Omite holders en cero y ordena por HolderID para una salida determinista.
func HolderBalances(movements []*entity.Movement, barID, productID string) []HolderBalance {
	acc := make(map[string]int64)
	for _, m := range movements {
		if m == nil || m.BarID != barID || m.ProductID != productID {
			continue
		}
		for _, h := range m.Holders() {
			acc[h] += m.HolderDelta(h)
		}
	}
	out := make([]HolderBalance, 0, len(acc))
	for h, q := range acc {
		if q != 0 {
			out = append(out, HolderBalance{HolderID: h, Quantity: q})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HolderID < out[j].HolderID })
	return out
}

// Sufficient indica si available cubre requested.
func Sufficient(available, requested int64) bool {
	return requested > 0 && available >= requested
}
