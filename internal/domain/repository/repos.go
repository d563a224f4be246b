package repository

import "context"

// Locker punto de serialización dentro de una transacción; el lock se libera al terminarla.
type Locker interface {
	Lock(ctx context.Context, key string) error
}

// Repos conjunto de repositorios atados a una misma transacción (o al pool fuera de ella).
type Repos struct {
	Movements   MovementRepository
	Sales       SaleRepository
	Days        DayRepository
	Shifts      ShiftRepository
	Assignments ShiftAssignmentRepository
	Events      EventRepository
	Products    ProductRepository
	Users       UserRepository
	Locker      Locker
}

// StockLockKey clave de serialización para (bar, producto).
func StockLockKey(barID, productID string) string {
	return "stock:" + barID + ":" + productID
}

// DaysLockKey clave para abrir/reabrir jornadas de un bar.
func DaysLockKey(barID string) string {
	return "days:" + barID
}
