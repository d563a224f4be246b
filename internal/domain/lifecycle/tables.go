package lifecycle

import "github.com/jhoicas/custodia-api/internal/domain/entity"

// Sales transiciones de Sale; confirmed y reversed son terminales.
var Sales = NewTable("sale", map[entity.SaleStatus][]entity.SaleStatus{
	entity.SalePending:   {entity.SaleCollected, entity.SaleReversed},
	entity.SaleCollected: {entity.SaleConfirmed, entity.SaleReversed, entity.SaleDisputed},
	entity.SaleDisputed:  {entity.SaleConfirmed, entity.SaleReversed},
	entity.SaleConfirmed: {},
	entity.SaleReversed:  {},
})

// Days transiciones de Day. Volver a open es la reapertura explícita.
var Days = NewTable("day", map[entity.DayStatus][]entity.DayStatus{
	entity.DayOpen:       {entity.DayClosing},
	entity.DayClosing:    {entity.DayClosed, entity.DayOpen},
	entity.DayClosed:     {entity.DayReconciled, entity.DayOpen},
	entity.DayReconciled: {entity.DayOpen},
})

// Shifts transiciones de Shift.
var Shifts = NewTable("shift", map[entity.ShiftStatus][]entity.ShiftStatus{
	entity.ShiftScheduled:  {entity.ShiftOpen},
	entity.ShiftOpen:       {entity.ShiftClosing},
	entity.ShiftClosing:    {entity.ShiftClosed, entity.ShiftOpen},
	entity.ShiftClosed:     {entity.ShiftReconciled, entity.ShiftOpen},
	entity.ShiftReconciled: {entity.ShiftOpen},
})
