// Package settlement agrega las obligaciones de dinero de los servers a partir de sus ventas.
package settlement

import (
	"sort"

	"github.com/jhoicas/custodia-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Totals conteo y monto de ventas en un estado.
type Totals struct {
	Count  int
	Amount decimal.Decimal
}

func (t *Totals) add(amount decimal.Decimal) {
	t.Count++
	t.Amount = t.Amount.Add(amount)
}

// ServerObligation resumen por server dentro de un turno.
// Obligation = cobrado pero no confirmado (collected + disputed).
type ServerObligation struct {
	ServerID   string
	Pending    Totals
	Collected  Totals
	Disputed   Totals
	Confirmed  Totals
	Reversed   Totals
	Obligation decimal.Decimal
}

// Summary resumen de un turno: por server y total.
type Summary struct {
	ShiftID string
	Servers []ServerObligation
	Total   ServerObligation
}

// amountOf monto que cuenta para el estado: lo cobrado si existe, si no el total de la venta.
func amountOf(s *entity.Sale) decimal.Decimal {
	if s.CollectedAmount != nil && s.Status != entity.SalePending && s.Status != entity.SaleReversed {
		return *s.CollectedAmount
	}
	return s.TotalPrice
}

// Summarize agrega las ventas de un turno por server. Ignora ventas de otros turnos.
func Summarize(shiftID string, sales []*entity.Sale) Summary {
	byServer := make(map[string]*ServerObligation)
	total := ServerObligation{}
	for _, s := range sales {
		if s == nil || s.ShiftID != shiftID {
			continue
		}
		so, ok := byServer[s.ServerID]
		if !ok {
			so = &ServerObligation{ServerID: s.ServerID}
			byServer[s.ServerID] = so
		}
		amount := amountOf(s)
		for _, o := range []*ServerObligation{so, &total} {
			switch s.Status {
			case entity.SalePending:
				o.Pending.add(amount)
			case entity.SaleCollected:
				o.Collected.add(amount)
				o.Obligation = o.Obligation.Add(amount)
			case entity.SaleDisputed:
				o.Disputed.add(amount)
				o.Obligation = o.Obligation.Add(amount)
			case entity.SaleConfirmed:
				o.Confirmed.add(amount)
			case entity.SaleReversed:
				o.Reversed.add(amount)
			}
		}
	}
	out := make([]ServerObligation, 0, len(byServer))
	for _, so := range byServer {
		out = append(out, *so)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServerID < out[j].ServerID })
	return Summary{ShiftID: shiftID, Servers: out, Total: total}
}
